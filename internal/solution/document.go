// Package solution loads declarative solution documents into the settings
// model.
//
// A document names the solution and lists its groups. Each group carries a
// backend tag, the fields of that backend and its settings:
//
//	name = "editor"
//
//	[[groups]]
//	name = "view"
//	backend = "ini"
//	path = "${folder:ApplicationData}/Editor/editor.ini"
//
//	[[groups.settings]]
//	name = "window.width"
//	kind = "integer"
//	default = 800
//
// The same shape is accepted as JSON, TOML or YAML; the file extension picks
// the parser.
package solution

import (
	"errors"
	"fmt"
	"strings"

	"setbridge/internal/resolver"
	"setbridge/internal/settings"
	"setbridge/internal/winreg"
)

// ErrUnknownBackend is returned for a group whose backend tag is not known.
var ErrUnknownBackend = errors.New("unknown backend")

// Document is the parsed form of a solution file.
type Document struct {
	Name   string  `json:"name" toml:"name" yaml:"name"`
	Groups []Group `json:"groups" toml:"groups" yaml:"groups"`
}

// Group is one settings group of a Document. Only the fields of the
// selected backend are used.
type Group struct {
	Name    string `json:"name" toml:"name" yaml:"name"`
	Backend string `json:"backend" toml:"backend" yaml:"backend"`

	// ini, xml, json
	Path string `json:"path,omitempty" toml:"path,omitempty" yaml:"path,omitempty"`
	// xml
	Tag string `json:"tag,omitempty" toml:"tag,omitempty" yaml:"tag,omitempty"`
	// registry
	Key       string `json:"key,omitempty" toml:"key,omitempty" yaml:"key,omitempty"`
	View      string `json:"view,omitempty" toml:"view,omitempty" yaml:"view,omitempty"`
	ValueType string `json:"value_type,omitempty" toml:"value_type,omitempty" yaml:"value_type,omitempty"`
	// wmi
	Namespace string `json:"namespace,omitempty" toml:"namespace,omitempty" yaml:"namespace,omitempty"`
	Class     string `json:"class,omitempty" toml:"class,omitempty" yaml:"class,omitempty"`
	Instance  string `json:"instance,omitempty" toml:"instance,omitempty" yaml:"instance,omitempty"`
	// systemCall
	Function string `json:"function,omitempty" toml:"function,omitempty" yaml:"function,omitempty"`

	Settings []Setting `json:"settings" toml:"settings" yaml:"settings"`
}

// Setting declares one setting of a Group.
type Setting struct {
	Name    string `json:"name" toml:"name" yaml:"name"`
	Kind    string `json:"kind" toml:"kind" yaml:"kind"`
	Default any    `json:"default,omitempty" toml:"default,omitempty" yaml:"default,omitempty"`
}

// Build turns the document into a settings.Solution. Every problem is
// reported with the group and setting it belongs to.
func (d *Document) Build() (*settings.Solution, error) {
	if d.Name == "" {
		return nil, fmt.Errorf("solution: missing name: %w", settings.ErrInvalidName)
	}
	sol := &settings.Solution{Name: d.Name}
	for i, gd := range d.Groups {
		b, err := gd.backend()
		if err != nil {
			return nil, fmt.Errorf("group %d (%s): %w", i, gd.Name, err)
		}
		g, err := settings.NewGroup(gd.Name, b)
		if err != nil {
			return nil, err
		}
		for _, sd := range gd.Settings {
			kind := settings.KindString
			if sd.Kind != "" {
				if kind, err = settings.ParseKind(sd.Kind); err != nil {
					return nil, fmt.Errorf("setting %s/%s: %w", g.Name, sd.Name, err)
				}
			}
			if _, err := g.Add(sd.Name, kind, sd.Default); err != nil {
				return nil, err
			}
		}
		if err := sol.AddGroup(g); err != nil {
			return nil, err
		}
	}
	return sol, nil
}

func (g *Group) backend() (settings.Backend, error) {
	switch settings.BackendKind(normalizeBackend(g.Backend)) {
	case settings.BackendIni:
		if g.Path == "" {
			return nil, errors.New("ini backend needs a path")
		}
		return &settings.IniBackend{Path: resolver.NewString(g.Path)}, nil
	case settings.BackendRegistry:
		if g.Key == "" {
			return nil, errors.New("registry backend needs a key")
		}
		b := &settings.RegistryBackend{Key: resolver.NewString(g.Key)}
		switch g.View {
		case "":
		case "32":
			b.View = winreg.View32
		case "64":
			b.View = winreg.View64
		default:
			return nil, fmt.Errorf("registry view %q: want 32 or 64", g.View)
		}
		if g.ValueType != "" {
			t, err := winreg.ParseValueType(g.ValueType)
			if err != nil {
				return nil, err
			}
			b.ValueType = t
		}
		return b, nil
	case settings.BackendXML:
		if g.Path == "" {
			return nil, errors.New("xml backend needs a path")
		}
		return &settings.XMLBackend{Path: resolver.NewString(g.Path), Tag: g.Tag}, nil
	case settings.BackendJSON:
		if g.Path == "" {
			return nil, errors.New("json backend needs a path")
		}
		return &settings.JSONBackend{Path: resolver.NewString(g.Path)}, nil
	case settings.BackendWMI:
		if g.Class == "" {
			return nil, errors.New("wmi backend needs a class")
		}
		return &settings.WMIBackend{Namespace: g.Namespace, Class: g.Class, Instance: g.Instance}, nil
	case settings.BackendSystemSettings:
		return &settings.SystemSettingsBackend{}, nil
	case settings.BackendSystemCall:
		if g.Function == "" {
			return nil, errors.New("systemCall backend needs a function")
		}
		return &settings.SystemCallBackend{Function: g.Function}, nil
	}
	return nil, fmt.Errorf("%q: %w", g.Backend, ErrUnknownBackend)
}

// backendAliases maps lower-cased tags to backend kinds.
var backendAliases = map[string]settings.BackendKind{
	"ini":                  settings.BackendIni,
	"inifile":              settings.BackendIni,
	"registry":             settings.BackendRegistry,
	"reg":                  settings.BackendRegistry,
	"xml":                  settings.BackendXML,
	"xmlfile":              settings.BackendXML,
	"json":                 settings.BackendJSON,
	"jsonfile":             settings.BackendJSON,
	"wmi":                  settings.BackendWMI,
	"systemsettings":       settings.BackendSystemSettings,
	"nativesystemsettings": settings.BackendSystemSettings,
	"systemcall":           settings.BackendSystemCall,
	"fixedsystemcall":      settings.BackendSystemCall,
}

func normalizeBackend(tag string) string {
	key := strings.ToLower(strings.NewReplacer("_", "", "-", "").Replace(strings.TrimSpace(tag)))
	if k, ok := backendAliases[key]; ok {
		return string(k)
	}
	return tag
}
