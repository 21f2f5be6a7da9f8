package ini

import (
	"fmt"
	"os"

	"setbridge/internal/atomicfile"
)

// ReadFile parses the INI file at path.
func ReadFile(path string) (*File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading ini file: %w", err)
	}
	return Parse(string(raw)), nil
}

// UpdateFile reads the file at path, lets fn edit its key/value map and
// writes the result back if anything changed. Keys fn deletes are removed
// from the file. The file must exist.
//
// The update is a plain read-modify-write: concurrent writers to the same
// file can lose updates.
func UpdateFile(path string, fn func(values map[string]string) error, opts ...WriteOption) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading ini file: %w", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	f := Parse(string(raw))
	values := f.Values()
	if err := fn(values); err != nil {
		return err
	}

	out, err := f.Render(values, opts...)
	if err != nil {
		return err
	}
	if out == string(raw) {
		return nil
	}
	return atomicfile.WriteFile(path, []byte(out), info.Mode().Perm())
}
