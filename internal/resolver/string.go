package resolver

import "strings"

// String is configuration text that may embed expressions. It keeps the raw
// text and is evaluated on every call to Resolve: nothing is cached, so two
// calls observe any change to environment variables, registry values or
// resolver data made in between.
type String struct {
	raw           string
	hasExpression bool
}

// NewString wraps raw.
func NewString(raw string) String {
	return String{raw: raw, hasExpression: strings.Contains(raw, "${")}
}

// Raw returns the unevaluated text.
func (s String) Raw() string { return s.raw }

// HasExpression reports whether the text contains "${".
func (s String) HasExpression() bool { return s.hasExpression }

// IsZero reports whether the text is empty.
func (s String) IsZero() bool { return s.raw == "" }

// Resolve evaluates the text against reg now.
func (s String) Resolve(reg *Registry) (string, error) {
	if !s.hasExpression {
		return s.raw, nil
	}
	return reg.Resolve(s.raw)
}

// MarshalText implements encoding.TextMarshaler with the raw text.
func (s String) MarshalText() ([]byte, error) {
	return []byte(s.raw), nil
}

// UnmarshalText implements encoding.TextUnmarshaler, so String fields decode
// from plain JSON, YAML and TOML strings.
func (s *String) UnmarshalText(text []byte) error {
	*s = NewString(string(text))
	return nil
}
