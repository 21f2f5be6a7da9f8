package settings

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for building and querying the settings model.
var (
	ErrDuplicate   = errors.New("duplicate name")
	ErrInvalidName = errors.New("invalid name")
	ErrNotFound    = errors.New("not found")
)

// Setting is one named, typed value owned by a Group.
type Setting struct {
	Name string
	Kind Kind

	// Default is the declared default, already converted to Kind, or nil.
	Default any

	Group *Group
}

// ID returns "group/name".
func (s *Setting) ID() string {
	if s.Group == nil {
		return s.Name
	}
	return s.Group.Name + "/" + s.Name
}

// HasDefault reports whether a default value was declared.
func (s *Setting) HasDefault() bool {
	return s.Default != nil
}

func (s *Setting) String() string { return s.ID() }

// Group is a collection of settings stored in one backend.
type Group struct {
	Name     string
	Backend  Backend
	Settings []*Setting
}

// NewGroup returns an empty group bound to backend.
func NewGroup(name string, backend Backend) (*Group, error) {
	if name == "" || strings.ContainsAny(name, "./") {
		return nil, fmt.Errorf("group %q: %w", name, ErrInvalidName)
	}
	if backend == nil {
		return nil, fmt.Errorf("group %q: missing backend", name)
	}
	return &Group{Name: name, Backend: backend}, nil
}

// Add declares a setting. def may be nil; otherwise it is converted to kind.
func (g *Group) Add(name string, kind Kind, def any) (*Setting, error) {
	if name == "" {
		return nil, fmt.Errorf("group %s: empty setting name: %w", g.Name, ErrInvalidName)
	}
	if g.Setting(name) != nil {
		return nil, fmt.Errorf("setting %s/%s: %w", g.Name, name, ErrDuplicate)
	}
	if !kind.Valid() {
		return nil, fmt.Errorf("setting %s/%s: unknown kind %q", g.Name, name, kind)
	}
	converted, err := Convert(kind, def)
	if err != nil {
		return nil, fmt.Errorf("setting %s/%s default: %w", g.Name, name, err)
	}
	s := &Setting{Name: name, Kind: kind, Default: converted, Group: g}
	g.Settings = append(g.Settings, s)
	return s, nil
}

// Setting returns the named setting or nil.
func (g *Group) Setting(name string) *Setting {
	for _, s := range g.Settings {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// Solution is a named set of groups, the unit of capture-all and apply-all.
type Solution struct {
	Name   string
	Groups []*Group
}

// AddGroup appends g, rejecting duplicate names.
func (s *Solution) AddGroup(g *Group) error {
	if s.Group(g.Name) != nil {
		return fmt.Errorf("group %s: %w", g.Name, ErrDuplicate)
	}
	s.Groups = append(s.Groups, g)
	return nil
}

// Group returns the named group or nil.
func (s *Solution) Group(name string) *Group {
	for _, g := range s.Groups {
		if g.Name == name {
			return g
		}
	}
	return nil
}

// Lookup finds a setting by "group.name" or "group/name". Setting names may
// themselves contain dots; group names may not.
func (s *Solution) Lookup(ref string) (*Setting, error) {
	i := strings.IndexAny(ref, "./")
	if i <= 0 || i == len(ref)-1 {
		return nil, fmt.Errorf("setting reference %q: %w", ref, ErrInvalidName)
	}
	g := s.Group(ref[:i])
	if g == nil {
		return nil, fmt.Errorf("group %s: %w", ref[:i], ErrNotFound)
	}
	st := g.Setting(ref[i+1:])
	if st == nil {
		return nil, fmt.Errorf("setting %s/%s: %w", g.Name, ref[i+1:], ErrNotFound)
	}
	return st, nil
}

// Settings returns every setting of every group in declaration order.
func (s *Solution) Settings() []*Setting {
	var all []*Setting
	for _, g := range s.Groups {
		all = append(all, g.Settings...)
	}
	return all
}
