// Package winreg abstracts the Windows registry primitives used by the
// settings engine: reading, writing and deleting values under a key.
//
// Callers address values with a Key (view, root, path) and a value name.
// Store has two implementations: Native, which talks to the real registry
// on Windows, and Memory, an in-process store for tests and for platforms
// without a registry.
package winreg

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrKeyNotFound is returned when the addressed key does not exist.
	ErrKeyNotFound = errors.New("registry key not found")

	// ErrValueNotFound is returned when the key exists but the value does not.
	ErrValueNotFound = errors.New("registry value not found")

	// ErrUnknownRoot is returned when a root hive name is not recognized.
	ErrUnknownRoot = errors.New("unknown registry root")

	// ErrUnsupported is returned by Native on platforms without a registry.
	ErrUnsupported = errors.New("registry not supported on this platform")

	// ErrInvalidPath is returned for malformed key or value paths.
	ErrInvalidPath = errors.New("invalid registry path")
)

// View selects the WOW64 registry view.
type View int

const (
	ViewDefault View = iota
	View32
	View64
)

// String returns the path prefix form of the view ("32", "64" or "").
func (v View) String() string {
	switch v {
	case View32:
		return "32"
	case View64:
		return "64"
	default:
		return ""
	}
}

// Root is a canonical root hive name.
type Root string

const (
	ClassesRoot   Root = "HKEY_CLASSES_ROOT"
	CurrentUser   Root = "HKEY_CURRENT_USER"
	LocalMachine  Root = "HKEY_LOCAL_MACHINE"
	Users         Root = "HKEY_USERS"
	CurrentConfig Root = "HKEY_CURRENT_CONFIG"
)

var rootAliases = map[string]Root{
	"HKEY_CLASSES_ROOT":   ClassesRoot,
	"HKCR":                ClassesRoot,
	"HKEY_CURRENT_USER":   CurrentUser,
	"HKCU":                CurrentUser,
	"HKEY_LOCAL_MACHINE":  LocalMachine,
	"HKLM":                LocalMachine,
	"HKEY_USERS":          Users,
	"HKU":                 Users,
	"HKEY_CURRENT_CONFIG": CurrentConfig,
	"HKCC":                CurrentConfig,
}

// ParseRoot maps a long or short hive name (case-insensitive) to its Root.
func ParseRoot(name string) (Root, error) {
	if r, ok := rootAliases[strings.ToUpper(strings.TrimSpace(name))]; ok {
		return r, nil
	}
	return "", fmt.Errorf("%q: %w", name, ErrUnknownRoot)
}

// Key addresses a registry key.
type Key struct {
	View View
	Root Root
	Path string // backslash separated, no leading or trailing separator
}

// String renders the key as "[view,]ROOT\path".
func (k Key) String() string {
	s := string(k.Root)
	if k.Path != "" {
		s += `\` + k.Path
	}
	if k.View != ViewDefault {
		s = k.View.String() + "," + s
	}
	return s
}

// ParseKey parses "[32,|64,]ROOT\path\to\key".
func ParseKey(s string) (Key, error) {
	view, rest := splitView(strings.TrimSpace(s))
	rest = strings.Trim(rest, `\`)
	if rest == "" {
		return Key{}, fmt.Errorf("%q: %w", s, ErrInvalidPath)
	}
	rootName, path, _ := strings.Cut(rest, `\`)
	root, err := ParseRoot(rootName)
	if err != nil {
		return Key{}, err
	}
	return Key{View: view, Root: root, Path: strings.Trim(path, `\`)}, nil
}

// ParseValuePath parses "[32,|64,]ROOT\path\to\key\valueName" into the key
// and the trailing value name.
func ParseValuePath(s string) (Key, string, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(s), `\`)
	i := strings.LastIndex(trimmed, `\`)
	if i < 0 {
		return Key{}, "", fmt.Errorf("%q: %w", s, ErrInvalidPath)
	}
	key, err := ParseKey(trimmed[:i])
	if err != nil {
		return Key{}, "", err
	}
	return key, trimmed[i+1:], nil
}

func splitView(s string) (View, string) {
	switch {
	case strings.HasPrefix(s, "32,"):
		return View32, s[3:]
	case strings.HasPrefix(s, "64,"):
		return View64, s[3:]
	}
	return ViewDefault, s
}

// ValueType mirrors the Windows REG_* value type constants.
type ValueType uint32

const (
	TypeNone         ValueType = 0
	TypeString       ValueType = 1
	TypeExpandString ValueType = 2
	TypeBinary       ValueType = 3
	TypeDWord        ValueType = 4
	TypeMultiString  ValueType = 7
	TypeQWord        ValueType = 11
)

var typeNames = map[ValueType]string{
	TypeNone:         "NONE",
	TypeString:       "SZ",
	TypeExpandString: "EXPAND_SZ",
	TypeBinary:       "BINARY",
	TypeDWord:        "DWORD",
	TypeMultiString:  "MULTI_SZ",
	TypeQWord:        "QWORD",
}

func (t ValueType) String() string {
	if n, ok := typeNames[t]; ok {
		return n
	}
	return "TYPE(" + strconv.FormatUint(uint64(t), 10) + ")"
}

// ParseValueType accepts "SZ", "REG_SZ", "dword", etc.
func ParseValueType(s string) (ValueType, error) {
	name := strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(s)), "REG_")
	switch name {
	case "STRING":
		return TypeString, nil
	case "EXPANDSTRING":
		return TypeExpandString, nil
	case "MULTISTRING":
		return TypeMultiString, nil
	}
	for t, n := range typeNames {
		if n == name {
			return t, nil
		}
	}
	return TypeNone, fmt.Errorf("unknown registry value type %q", s)
}

// Value is a typed registry value. Data holds string for SZ and EXPAND_SZ,
// []string for MULTI_SZ, []byte for BINARY, uint32 for DWORD and uint64
// for QWORD.
type Value struct {
	Type ValueType
	Data any
}

// StringValue builds a REG_SZ value.
func StringValue(s string) Value { return Value{Type: TypeString, Data: s} }

// DWordValue builds a REG_DWORD value.
func DWordValue(n uint32) Value { return Value{Type: TypeDWord, Data: n} }

// QWordValue builds a REG_QWORD value.
func QWordValue(n uint64) Value { return Value{Type: TypeQWord, Data: n} }

// String returns the textual form of the value data.
func (v Value) String() string {
	switch d := v.Data.(type) {
	case string:
		return d
	case []string:
		return strings.Join(d, "\n")
	case []byte:
		return hex.EncodeToString(d)
	case uint32:
		return strconv.FormatUint(uint64(d), 10)
	case uint64:
		return strconv.FormatUint(d, 10)
	case nil:
		return ""
	default:
		return fmt.Sprint(d)
	}
}

// Store reads and writes registry values.
type Store interface {
	// KeyExists reports whether key is present.
	KeyExists(key Key) (bool, error)

	// GetValue returns ErrKeyNotFound or ErrValueNotFound when absent.
	GetValue(key Key, name string) (Value, error)

	// SetValue creates the key if needed and writes the value.
	SetValue(key Key, name string, v Value) error

	// DeleteValue removes the value. Deleting an absent value is not an error.
	DeleteValue(key Key, name string) error
}
