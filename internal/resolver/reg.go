package resolver

import "setbridge/internal/winreg"

// RegistryResolver resolves "[32,|64,]ROOT\path\to\key\valueName" to the
// string form of a registry value. Any failure to reach the value (bad path,
// unknown root, missing key or value, no registry) reports "no value".
type RegistryResolver struct {
	Store winreg.Store
}

// ResolveValue implements Resolver.
func (r *RegistryResolver) ResolveValue(name string) (string, bool, error) {
	if r.Store == nil {
		return "", false, nil
	}
	key, valueName, err := winreg.ParseValuePath(name)
	if err != nil {
		return "", false, nil
	}
	v, err := r.Store.GetValue(key, valueName)
	if err != nil {
		return "", false, nil
	}
	return v.String(), true, nil
}
