package solution

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"setbridge/internal/settings"
)

// Format names a solution document encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// extensions lists the recognized file suffixes in lookup order.
var extensions = []struct {
	suffix string
	format Format
}{
	{".solution.json", FormatJSON},
	{".solution.toml", FormatTOML},
	{".solution.yaml", FormatYAML},
	{".solution.yml", FormatYAML},
}

// FormatOf picks the format from the file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("solution %s: unknown extension (want .json, .toml or .yaml)", path)
}

// Parse decodes data in the given format.
func Parse(data []byte, format Format) (*Document, error) {
	doc := &Document{}
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		dec.DisallowUnknownFields()
		if err := dec.Decode(doc); err != nil {
			return nil, err
		}
	case FormatTOML:
		md, err := toml.Decode(string(data), doc)
		if err != nil {
			return nil, err
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("unknown field %s", undecoded[0])
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(doc); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
	return doc, nil
}

// ReadDocument reads and parses the document at path.
func ReadDocument(path string) (*Document, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading solution %s: %w", path, err)
	}
	doc, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("parsing %s solution %s: %w", strings.ToUpper(string(format)), path, err)
	}
	return doc, nil
}

// Load reads the document at path and builds its solution.
func Load(path string) (*settings.Solution, error) {
	doc, err := ReadDocument(path)
	if err != nil {
		return nil, err
	}
	sol, err := doc.Build()
	if err != nil {
		return nil, fmt.Errorf("solution %s: %w", path, err)
	}
	return sol, nil
}

// SearchPath is an ordered list of directories holding
// <name>.solution.{json,toml,yaml} files. Earlier entries take priority.
type SearchPath []string

// DefaultSearchPath returns the solutions directory under configDir
// followed by the working directory.
func DefaultSearchPath(configDir string) SearchPath {
	path := SearchPath{filepath.Join(configDir, "solutions")}
	if wd, err := os.Getwd(); err == nil {
		path = append(path, wd)
	}
	return path
}

// Resolve turns a command line argument into a file path. An argument with
// a path separator or a known extension is used as is; anything else is
// looked up by name on the search path.
func Resolve(arg string, path SearchPath) (string, error) {
	if strings.ContainsRune(arg, filepath.Separator) || strings.Contains(arg, "/") {
		return arg, nil
	}
	if _, err := FormatOf(arg); err == nil {
		return arg, nil
	}
	file, _, err := Find(arg, path)
	return file, err
}

// Find returns the file and format of the named solution. The first match
// on the search path wins.
func Find(name string, path SearchPath) (string, Format, error) {
	for _, dir := range path {
		for _, ext := range extensions {
			fp := filepath.Join(dir, name+ext.suffix)
			if _, err := os.Stat(fp); err == nil {
				return fp, ext.format, nil
			}
		}
	}
	return "", "", fmt.Errorf("solution %q not found in search path: %s: %w", name, strings.Join(path, ", "), settings.ErrNotFound)
}

// Entry describes a solution file found by List.
type Entry struct {
	Name   string `json:"name"`
	Groups int    `json:"groups"`
	Path   string `json:"path"`
	Format Format `json:"format"`
}

// List scans the search path for solution files. A name found in several
// directories is reported once, from the highest priority directory.
func List(path SearchPath) ([]Entry, error) {
	seen := make(map[string]bool)
	var entries []Entry

	for _, dir := range path {
		dirEntries, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("reading solution directory %s: %w", dir, err)
		}
		for _, de := range dirEntries {
			if de.IsDir() {
				continue
			}
			name, format, ok := splitName(de.Name())
			if !ok || seen[name] {
				continue
			}
			seen[name] = true

			fp := filepath.Join(dir, de.Name())
			doc, err := ReadDocument(fp)
			if err != nil {
				return nil, err
			}
			entries = append(entries, Entry{Name: name, Groups: len(doc.Groups), Path: fp, Format: format})
		}
	}
	return entries, nil
}

func splitName(file string) (string, Format, bool) {
	for _, ext := range extensions {
		if strings.HasSuffix(file, ext.suffix) {
			return strings.TrimSuffix(file, ext.suffix), ext.format, true
		}
	}
	return "", "", false
}
