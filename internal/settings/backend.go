package settings

import (
	"setbridge/internal/resolver"
	"setbridge/internal/winreg"
)

// BackendKind names a storage mechanism for a group's settings.
type BackendKind string

const (
	BackendIni            BackendKind = "ini"
	BackendRegistry       BackendKind = "registry"
	BackendXML            BackendKind = "xml"
	BackendJSON           BackendKind = "json"
	BackendWMI            BackendKind = "wmi"
	BackendSystemSettings BackendKind = "systemSettings"
	BackendSystemCall     BackendKind = "systemCall"
)

// Backend is the storage configuration of a group. The set of variants is
// closed: only the types in this file implement it.
type Backend interface {
	Kind() BackendKind
	backend()
}

// IniBackend stores settings as dotted keys of an INI file.
type IniBackend struct {
	Path resolver.String
}

// RegistryBackend stores settings as values of one registry key. Key has
// the form "[32,|64,]ROOT\path". A View other than ViewDefault overrides
// the prefix. ValueType, when set, is used for every write; otherwise the
// type follows the setting kind.
type RegistryBackend struct {
	Key       resolver.String
	View      winreg.View
	ValueType winreg.ValueType
}

// XMLBackend stores settings under the element found at Tag, an etree path.
// A setting named "@attr" is an attribute of that element; any other name is
// the text of a child element.
type XMLBackend struct {
	Path resolver.String
	Tag  string
}

// JSONBackend stores settings at gjson/sjson paths of a JSON document.
type JSONBackend struct {
	Path resolver.String
}

// WMIBackend stores settings as properties of one management object.
type WMIBackend struct {
	Namespace string
	Class     string
	Instance  string
}

// SystemSettingsBackend stores settings through the native system settings
// provider, one item per setting name.
type SystemSettingsBackend struct{}

// SystemCallBackend reads and writes settings through a fixed system call.
type SystemCallBackend struct {
	Function string
}

func (*IniBackend) Kind() BackendKind            { return BackendIni }
func (*RegistryBackend) Kind() BackendKind       { return BackendRegistry }
func (*XMLBackend) Kind() BackendKind            { return BackendXML }
func (*JSONBackend) Kind() BackendKind           { return BackendJSON }
func (*WMIBackend) Kind() BackendKind            { return BackendWMI }
func (*SystemSettingsBackend) Kind() BackendKind { return BackendSystemSettings }
func (*SystemCallBackend) Kind() BackendKind     { return BackendSystemCall }

func (*IniBackend) backend()            {}
func (*RegistryBackend) backend()       {}
func (*XMLBackend) backend()            {}
func (*JSONBackend) backend()           {}
func (*WMIBackend) backend()            {}
func (*SystemSettingsBackend) backend() {}
func (*SystemCallBackend) backend()     {}
