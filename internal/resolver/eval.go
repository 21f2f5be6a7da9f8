package resolver

import (
	"fmt"
	"strings"
)

// Resolve replaces every well-formed expression in input with its value.
//
// An expression whose resolver is not registered is copied verbatim. When
// the resolver has no value, the default clause is resolved recursively and
// substituted, or the empty string when there is no default. Substitution is
// single pass: resolved text is never scanned again. Errors returned by a
// resolver abort the evaluation.
func (r *Registry) Resolve(input string) (string, error) {
	if !strings.Contains(input, "${") {
		return input, nil
	}

	var b strings.Builder
	b.Grow(len(input))
	i := 0
	for i < len(input) {
		j := strings.Index(input[i:], "${")
		if j < 0 {
			b.WriteString(input[i:])
			break
		}
		start := i + j
		b.WriteString(input[i:start])

		e, ok := parseExpr(input, start)
		if !ok {
			b.WriteByte('$')
			i = start + 1
			continue
		}

		text, err := r.evaluate(e, input[start:e.end])
		if err != nil {
			return "", err
		}
		b.WriteString(text)
		i = e.end
	}
	return b.String(), nil
}

func (r *Registry) evaluate(e expr, raw string) (string, error) {
	res, ok := r.Lookup(e.name)
	if !ok {
		return raw, nil
	}
	value, found, err := res.ResolveValue(e.value)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", raw, err)
	}
	if found {
		return value, nil
	}
	if e.hasDefault {
		return r.Resolve(e.def)
	}
	return "", nil
}
