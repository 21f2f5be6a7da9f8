package settings

import (
	"fmt"
	"strings"
)

// Kind is the declared value type of a Setting.
type Kind string

const (
	KindBoolean Kind = "boolean"
	KindInteger Kind = "integer"
	KindReal    Kind = "real"
	KindString  Kind = "string"
)

var kindAliases = map[string]Kind{
	"boolean": KindBoolean,
	"bool":    KindBoolean,
	"integer": KindInteger,
	"int":     KindInteger,
	"number":  KindInteger,
	"real":    KindReal,
	"double":  KindReal,
	"float":   KindReal,
	"string":  KindString,
	"text":    KindString,
}

// ParseKind accepts a kind name or a common alias ("bool", "int", "double").
func ParseKind(s string) (Kind, error) {
	if k, ok := kindAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return k, nil
	}
	return "", fmt.Errorf("unknown setting kind %q", s)
}

// Valid reports whether k is one of the four kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindBoolean, KindInteger, KindReal, KindString:
		return true
	}
	return false
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
