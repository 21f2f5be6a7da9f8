//go:build windows

package winreg

import (
	"errors"
	"fmt"

	"golang.org/x/sys/windows/registry"
)

var rootHandles = map[Root]registry.Key{
	ClassesRoot:   registry.CLASSES_ROOT,
	CurrentUser:   registry.CURRENT_USER,
	LocalMachine:  registry.LOCAL_MACHINE,
	Users:         registry.USERS,
	CurrentConfig: registry.CURRENT_CONFIG,
}

type nativeStore struct{}

// Native returns a Store backed by the Windows registry.
func Native() Store { return nativeStore{} }

func viewAccess(v View) uint32 {
	switch v {
	case View32:
		return registry.WOW64_32KEY
	case View64:
		return registry.WOW64_64KEY
	}
	return 0
}

func (nativeStore) open(key Key, access uint32) (registry.Key, error) {
	root, ok := rootHandles[key.Root]
	if !ok {
		return 0, fmt.Errorf("%q: %w", key.Root, ErrUnknownRoot)
	}
	k, err := registry.OpenKey(root, key.Path, access|viewAccess(key.View))
	if err != nil {
		if errors.Is(err, registry.ErrNotExist) {
			return 0, fmt.Errorf("%s: %w", key, ErrKeyNotFound)
		}
		return 0, fmt.Errorf("opening %s: %w", key, err)
	}
	return k, nil
}

func (s nativeStore) KeyExists(key Key) (bool, error) {
	k, err := s.open(key, registry.QUERY_VALUE)
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return false, nil
		}
		return false, err
	}
	k.Close()
	return true, nil
}

func (s nativeStore) GetValue(key Key, name string) (Value, error) {
	k, err := s.open(key, registry.QUERY_VALUE)
	if err != nil {
		return Value{}, err
	}
	defer k.Close()

	_, valtype, err := k.GetValue(name, nil)
	if err != nil {
		if errors.Is(err, registry.ErrNotExist) {
			return Value{}, fmt.Errorf(`%s\%s: %w`, key, name, ErrValueNotFound)
		}
		return Value{}, err
	}

	switch valtype {
	case registry.SZ, registry.EXPAND_SZ:
		s, _, err := k.GetStringValue(name)
		return Value{Type: ValueType(valtype), Data: s}, err
	case registry.MULTI_SZ:
		ss, _, err := k.GetStringsValue(name)
		return Value{Type: TypeMultiString, Data: ss}, err
	case registry.DWORD:
		n, _, err := k.GetIntegerValue(name)
		return Value{Type: TypeDWord, Data: uint32(n)}, err
	case registry.QWORD:
		n, _, err := k.GetIntegerValue(name)
		return Value{Type: TypeQWord, Data: n}, err
	default:
		b, _, err := k.GetBinaryValue(name)
		return Value{Type: ValueType(valtype), Data: b}, err
	}
}

func (s nativeStore) SetValue(key Key, name string, v Value) error {
	root, ok := rootHandles[key.Root]
	if !ok {
		return fmt.Errorf("%q: %w", key.Root, ErrUnknownRoot)
	}
	k, _, err := registry.CreateKey(root, key.Path, registry.SET_VALUE|viewAccess(key.View))
	if err != nil {
		return fmt.Errorf("creating %s: %w", key, err)
	}
	defer k.Close()

	switch d := v.Data.(type) {
	case string:
		if v.Type == TypeExpandString {
			return k.SetExpandStringValue(name, d)
		}
		return k.SetStringValue(name, d)
	case []string:
		return k.SetStringsValue(name, d)
	case uint32:
		return k.SetDWordValue(name, d)
	case uint64:
		return k.SetQWordValue(name, d)
	case []byte:
		return k.SetBinaryValue(name, d)
	default:
		return fmt.Errorf("unsupported registry data %T for %s", v.Data, v.Type)
	}
}

func (s nativeStore) DeleteValue(key Key, name string) error {
	k, err := s.open(key, registry.SET_VALUE)
	if err != nil {
		return err
	}
	defer k.Close()
	if err := k.DeleteValue(name); err != nil && !errors.Is(err, registry.ErrNotExist) {
		return err
	}
	return nil
}
