// Package ini reads and rewrites loosely structured INI text.
//
// Reading flattens the document into dotted keys. Section nesting is given by
// bracket depth, not indentation: "[a]" opens a depth 1 section, a following
// "[[b]]" opens a section nested in the nearest shallower one, so its keys
// are "a.b.<key>". Keys before any section live at the root.
//
// A value continues onto following lines while they are indented deeper
// than the key line. Continuation lines lose their common indentation and are
// joined with the line terminator actually found in the source.
//
// Writing takes the original text and the complete desired key set and
// changes only what differs: unchanged entries, comments, blank lines and
// unparseable lines are copied byte for byte. Keys missing from the desired
// set are removed, new keys are added to their section (creating sections
// as needed) and changed values are replaced in place.
//
// An empty line, or one holding only whitespace, always ends a multi-line
// value, so values with empty interior lines do not survive a round trip.
package ini

import (
	"errors"
	"sort"
	"strings"
)

// ErrInvalidKey is returned by Render for keys that cannot be written, such
// as "a..b" or "section.".
var ErrInvalidKey = errors.New("invalid key")

const defaultIndent = "    "

type line struct {
	text string // without terminator
	eol  string // "\n", "\r\n" or "" for a final unterminated line
}

type section struct {
	path      string
	name      string
	depth     int // bracket depth as written
	header    int // header line index
	end       int // last line of the section's own body (header or entry)
	lastEntry *entry
}

type entry struct {
	key    string // full dotted key
	name   string
	sect   *section // nil at the root
	first  int
	last   int
	indent string
	prefix string // everything before the value on the first line
	sep    string // text between name and value: " = ", "=", ...
	suffix string // trailing whitespace after a single-line value
	value  string
	cont   []string // raw continuation line texts
}

// File is a parsed INI document that remembers its source layout.
type File struct {
	lines    []line
	owner    []*entry // entry owning each line, nil otherwise
	newline  string
	entries  []*entry
	sections []*section
	index    map[string]*entry // last occurrence of each key
}

// Read parses src and returns its flattened key/value map.
func Read(src string) map[string]string {
	return Parse(src).Values()
}

// Write rewrites src so it holds exactly values, preserving everything
// that does not need to change.
func Write(src string, values map[string]string, opts ...WriteOption) (string, error) {
	return Parse(src).Render(values, opts...)
}

// Parse parses src. Lines that are neither section headers nor key=value
// pairs are kept as layout and never fail the parse.
func Parse(src string) *File {
	f := &File{
		lines:   splitLines(src),
		newline: "\n",
		index:   make(map[string]*entry),
	}
	f.owner = make([]*entry, len(f.lines))
	for _, l := range f.lines {
		if l.eol != "" {
			f.newline = l.eol
			break
		}
	}

	var stack []*section
	var cur *entry

	for i, l := range f.lines {
		trimmed := strings.TrimSpace(l.text)
		indent := leadingSpace(l.text)

		if cur != nil && trimmed != "" && len(indent) > len(cur.indent) {
			cur.cont = append(cur.cont, l.text)
			cur.last = i
			f.owner[i] = cur
			continue
		}
		if cur != nil {
			f.finish(cur)
			cur = nil
		}

		if trimmed == "" || trimmed[0] == ';' || trimmed[0] == '#' {
			continue
		}

		if name, depth, ok := parseHeader(trimmed); ok {
			for len(stack) > 0 && stack[len(stack)-1].depth >= depth {
				stack = stack[:len(stack)-1]
			}
			path := name
			if len(stack) > 0 {
				path = stack[len(stack)-1].path + "." + name
			}
			s := &section{path: path, name: name, depth: depth, header: i, end: i}
			stack = append(stack, s)
			f.sections = append(f.sections, s)
			continue
		}

		e, ok := parseEntry(l.text, indent)
		if !ok {
			continue
		}
		e.first, e.last = i, i
		if len(stack) > 0 {
			e.sect = stack[len(stack)-1]
			e.key = e.sect.path + "." + e.name
		} else {
			e.key = e.name
		}
		f.owner[i] = e
		cur = e
	}
	if cur != nil {
		f.finish(cur)
	}
	return f
}

// finish completes a parsed entry once its last continuation line is known.
func (f *File) finish(e *entry) {
	if len(e.cont) > 0 {
		common := -1
		for _, c := range e.cont {
			if n := len(leadingSpace(c)); common < 0 || n < common {
				common = n
			}
		}
		var b strings.Builder
		b.WriteString(strings.TrimRight(e.value, " \t"))
		for k, c := range e.cont {
			b.WriteString(f.lines[e.first+k].eol)
			b.WriteString(strings.TrimRight(c[common:], " \t"))
		}
		e.value = b.String()
		e.suffix = ""
	}

	f.entries = append(f.entries, e)
	f.index[e.key] = e
	if e.sect != nil {
		e.sect.end = e.last
		e.sect.lastEntry = e
	}
}

// parseHeader recognizes "[name]", "[[name]]", ... and returns the name and
// the bracket depth.
func parseHeader(trimmed string) (string, int, bool) {
	depth := 0
	for depth < len(trimmed) && trimmed[depth] == '[' {
		depth++
	}
	if depth == 0 || len(trimmed) < 2*depth {
		return "", 0, false
	}
	if strings.Repeat("]", depth) != trimmed[len(trimmed)-depth:] {
		return "", 0, false
	}
	name := strings.TrimSpace(trimmed[depth : len(trimmed)-depth])
	if name == "" || strings.ContainsAny(name, "[]") {
		return "", 0, false
	}
	return name, depth, true
}

// parseEntry recognizes "key=value" on a single line.
func parseEntry(text, indent string) (*entry, bool) {
	eq := strings.IndexByte(text, '=')
	if eq < 0 {
		return nil, false
	}
	rawKey := text[:eq]
	name := strings.TrimSpace(rawKey)
	if name == "" {
		return nil, false
	}

	rest := text[eq+1:]
	ws := leadingSpace(rest)
	value := rest[len(ws):]
	trimmedValue := strings.TrimRight(value, " \t")

	return &entry{
		name:   name,
		indent: indent,
		prefix: text[:eq+1] + ws,
		sep:    rawKey[len(indent)+len(name):] + "=" + ws,
		suffix: value[len(trimmedValue):],
		value:  trimmedValue,
	}, true
}

func leadingSpace(s string) string {
	i := 0
	for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
		i++
	}
	return s[:i]
}

// splitLines splits src after each "\n", remembering whether it was "\r\n".
// Joining text+eol of every line reproduces src exactly.
func splitLines(src string) []line {
	var lines []line
	for len(src) > 0 {
		i := strings.IndexByte(src, '\n')
		if i < 0 {
			lines = append(lines, line{text: src})
			break
		}
		if i > 0 && src[i-1] == '\r' {
			lines = append(lines, line{text: src[:i-1], eol: "\r\n"})
		} else {
			lines = append(lines, line{text: src[:i], eol: "\n"})
		}
		src = src[i+1:]
	}
	return lines
}

// Newline returns the line terminator detected in the source ("\n" when the
// source has none).
func (f *File) Newline() string { return f.newline }

// Get returns the value of key. When a key occurs more than once the last
// occurrence wins.
func (f *File) Get(key string) (string, bool) {
	e, ok := f.index[key]
	if !ok {
		return "", false
	}
	return e.value, true
}

// Values returns a copy of the flattened key/value map.
func (f *File) Values() map[string]string {
	out := make(map[string]string, len(f.index))
	for k, e := range f.index {
		out[k] = e.value
	}
	return out
}

// Keys returns each key once, in order of first appearance.
func (f *File) Keys() []string {
	seen := make(map[string]bool, len(f.index))
	keys := make([]string, 0, len(f.index))
	for _, e := range f.entries {
		if !seen[e.key] {
			seen[e.key] = true
			keys = append(keys, e.key)
		}
	}
	return keys
}

// Sections returns each section path once, in order of first appearance.
func (f *File) Sections() []string {
	seen := make(map[string]bool)
	var paths []string
	for _, s := range f.sections {
		if !seen[s.path] {
			seen[s.path] = true
			paths = append(paths, s.path)
		}
	}
	return paths
}

// sortedKeys returns the sorted keys of a map.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
