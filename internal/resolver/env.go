package resolver

import "os"

// EnvResolver resolves environment variables.
type EnvResolver struct {
	// Lookup defaults to os.LookupEnv.
	Lookup func(string) (string, bool)
}

// ResolveValue implements Resolver. An empty name is never set.
func (e *EnvResolver) ResolveValue(name string) (string, bool, error) {
	if name == "" {
		return "", false, nil
	}
	lookup := e.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}
	v, ok := lookup(name)
	return v, ok, nil
}
