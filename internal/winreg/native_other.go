//go:build !windows

package winreg

type nativeStore struct{}

// Native returns a Store that fails with ErrUnsupported on this platform.
func Native() Store { return nativeStore{} }

func (nativeStore) KeyExists(Key) (bool, error) { return false, ErrUnsupported }

func (nativeStore) GetValue(Key, string) (Value, error) { return Value{}, ErrUnsupported }

func (nativeStore) SetValue(Key, string, Value) error { return ErrUnsupported }

func (nativeStore) DeleteValue(Key, string) error { return ErrUnsupported }
