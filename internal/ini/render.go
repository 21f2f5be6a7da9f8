package ini

import (
	"fmt"
	"sort"
	"strings"
)

type writeOptions struct {
	newline string
	indent  string
}

// WriteOption configures Render and Write.
type WriteOption func(*writeOptions)

// WithNewline sets the terminator used for new and modified lines instead
// of the one detected in the source.
func WithNewline(nl string) WriteOption {
	return func(o *writeOptions) {
		if nl != "" {
			o.newline = nl
		}
	}
}

// WithIndent sets the indentation, relative to the key, of continuation
// lines written for multi-line values.
func WithIndent(indent string) WriteOption {
	return func(o *writeOptions) {
		if indent != "" {
			o.indent = indent
		}
	}
}

// insertion is a block of new lines placed after an anchor line.
type insertion struct {
	anchor int // insert after this line; -1 inserts before the first line
	depth  int // bracket depth of the section that owns the new lines
	order  int // 0 for keys, 1 for sections, so keys precede subsections
	lines  []string
}

// newSection is a section that must be created, with its keys and children.
type newSection struct {
	name     string
	keys     map[string]string
	children map[string]*newSection
}

func (n *newSection) child(name string) *newSection {
	c, ok := n.children[name]
	if !ok {
		c = &newSection{name: name, keys: map[string]string{}, children: map[string]*newSection{}}
		n.children[name] = c
	}
	return c
}

// Render returns the document rewritten to hold exactly values. Entries whose
// value is unchanged keep their original bytes, including duplicates of a
// key that appear before its last occurrence.
func (f *File) Render(values map[string]string, opts ...WriteOption) (string, error) {
	o := writeOptions{newline: f.newline, indent: defaultIndent}
	for _, opt := range opts {
		opt(&o)
	}

	inserts, err := f.planAdditions(values, o)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	writeInserts := func(anchor int) {
		for _, ins := range inserts {
			if ins.anchor != anchor {
				continue
			}
			if b.Len() > 0 && !strings.HasSuffix(b.String(), "\n") {
				b.WriteString(o.newline)
			}
			for _, l := range ins.lines {
				b.WriteString(l)
				b.WriteString(o.newline)
			}
		}
	}

	writeInserts(-1)
	for i, l := range f.lines {
		e := f.owner[i]
		if e == nil {
			b.WriteString(l.text)
			b.WriteString(l.eol)
			writeInserts(i)
			continue
		}

		v, keep := values[e.key]
		switch {
		case !keep:
			// removed
		case f.index[e.key] != e || v == e.value:
			b.WriteString(l.text)
			b.WriteString(l.eol)
		case i == e.first:
			b.WriteString(f.replaceValue(e, v, o))
		}
		writeInserts(i)
	}
	return b.String(), nil
}

// replaceValue renders e with value v, keeping the key, separator and the
// terminator of the entry's last line.
func (f *File) replaceValue(e *entry, v string, o writeOptions) string {
	parts := splitValue(v)
	var b strings.Builder
	b.WriteString(e.prefix)
	b.WriteString(parts[0])
	if len(parts) == 1 {
		b.WriteString(e.suffix)
	}
	for _, p := range parts[1:] {
		b.WriteString(o.newline)
		b.WriteString(e.indent)
		b.WriteString(o.indent)
		b.WriteString(p)
	}
	b.WriteString(f.lines[e.last].eol)
	return b.String()
}

// planAdditions works out where keys that are not in the document go.
func (f *File) planAdditions(values map[string]string, o writeOptions) ([]insertion, error) {
	lastBlock := make(map[string]int) // section path -> index in f.sections
	for i, s := range f.sections {
		lastBlock[s.path] = i
	}

	direct := make(map[string]map[string]string) // existing section path -> new keys
	created := make(map[string]*newSection)      // existing parent path -> tree of new sections

	for _, key := range sortedKeys(values) {
		if _, exists := f.index[key]; exists {
			continue
		}
		parent := f.longestSectionPrefix(key, lastBlock)
		rest := key
		if parent != "" {
			rest = key[len(parent)+1:]
		}
		parts := strings.Split(rest, ".")
		for _, p := range parts {
			if strings.TrimSpace(p) == "" || strings.ContainsAny(p, "=[]\r\n") {
				return nil, fmt.Errorf("%q: %w", key, ErrInvalidKey)
			}
		}

		name := parts[len(parts)-1]
		if len(parts) == 1 {
			if direct[parent] == nil {
				direct[parent] = make(map[string]string)
			}
			direct[parent][name] = values[key]
			continue
		}

		root, ok := created[parent]
		if !ok {
			root = &newSection{children: map[string]*newSection{}}
			created[parent] = root
		}
		n := root
		for _, p := range parts[:len(parts)-1] {
			n = n.child(p)
		}
		n.keys[name] = values[key]
	}

	var inserts []insertion
	for path, keys := range direct {
		ins := insertion{order: 0}
		tmpl := f.template(path, lastBlock)
		indent := ""
		if path == "" {
			ins.anchor = f.rootEnd()
			if tmpl != nil && tmpl.sect == nil {
				indent = tmpl.indent
			}
		} else {
			s := f.sections[lastBlock[path]]
			ins.anchor, ins.depth = s.end, s.depth
			if s.lastEntry != nil {
				indent = s.lastEntry.indent
			}
		}
		for _, k := range sortedKeys(keys) {
			ins.lines = append(ins.lines, formatEntry(indent, k, keys[k], tmpl, o)...)
		}
		inserts = append(inserts, ins)
	}

	for path, tree := range created {
		ins := insertion{order: 1, anchor: len(f.lines) - 1}
		if path != "" {
			s := f.sections[lastBlock[path]]
			ins.anchor, ins.depth = f.subtreeEnd(lastBlock[path]), s.depth
		}
		tmpl := f.firstEntry()
		for _, name := range sortedKeys(tree.children) {
			ins.lines = append(ins.lines, renderSection(tree.children[name], ins.depth+1, tmpl, o)...)
		}
		inserts = append(inserts, ins)
	}

	sort.SliceStable(inserts, func(i, j int) bool {
		a, b := inserts[i], inserts[j]
		if a.anchor != b.anchor {
			return a.anchor < b.anchor
		}
		if a.depth != b.depth {
			return a.depth > b.depth
		}
		return a.order < b.order
	})
	return inserts, nil
}

// longestSectionPrefix returns the longest existing section path that key
// lies under, or "" for the root.
func (f *File) longestSectionPrefix(key string, lastBlock map[string]int) string {
	best := ""
	for path := range lastBlock {
		if len(path) > len(best) && strings.HasPrefix(key, path+".") {
			best = path
		}
	}
	return best
}

// rootEnd is the line after which new root keys go: after the last root
// entry, else just before the first section header, else at the end.
func (f *File) rootEnd() int {
	anchor := -2
	for _, e := range f.entries {
		if e.sect == nil {
			anchor = e.last
		}
	}
	if anchor != -2 {
		return anchor
	}
	if len(f.sections) > 0 {
		return f.sections[0].header - 1
	}
	return len(f.lines) - 1
}

// subtreeEnd returns the last content line of the section block at index i
// together with the blocks nested below it that directly follow it.
func (f *File) subtreeEnd(i int) int {
	s := f.sections[i]
	end := s.end
	for _, next := range f.sections[i+1:] {
		if !strings.HasPrefix(next.path, s.path+".") {
			break
		}
		end = next.end
	}
	return end
}

// template picks an existing entry whose separator style new keys copy:
// the last entry of the target section, else the first entry in the file.
func (f *File) template(path string, lastBlock map[string]int) *entry {
	if path != "" {
		if e := f.sections[lastBlock[path]].lastEntry; e != nil {
			return e
		}
		return f.firstEntry()
	}
	for i := len(f.entries) - 1; i >= 0; i-- {
		if f.entries[i].sect == nil {
			return f.entries[i]
		}
	}
	return f.firstEntry()
}

func (f *File) firstEntry() *entry {
	if len(f.entries) > 0 {
		return f.entries[0]
	}
	return nil
}

func renderSection(n *newSection, depth int, tmpl *entry, o writeOptions) []string {
	lines := []string{strings.Repeat("[", depth) + n.name + strings.Repeat("]", depth)}
	for _, k := range sortedKeys(n.keys) {
		lines = append(lines, formatEntry("", k, n.keys[k], tmpl, o)...)
	}
	for _, name := range sortedKeys(n.children) {
		lines = append(lines, renderSection(n.children[name], depth+1, tmpl, o)...)
	}
	return lines
}

func formatEntry(indent, name, value string, tmpl *entry, o writeOptions) []string {
	sep := "="
	if tmpl != nil {
		sep = tmpl.sep
	}
	parts := splitValue(value)
	lines := []string{indent + name + sep + parts[0]}
	for _, p := range parts[1:] {
		lines = append(lines, indent+o.indent+p)
	}
	return lines
}

// splitValue splits a value on "\r\n" or "\n".
func splitValue(v string) []string {
	return strings.Split(strings.ReplaceAll(v, "\r\n", "\n"), "\n")
}
