package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrConversion is returned when a value has no mapping to the requested kind.
var ErrConversion = errors.New("value conversion failed")

// Convert maps v to the Go type of kind: bool, int64, float64 or string.
// nil converts to nil. Combinations without a mapping return ErrConversion.
//
//	from \ to   Boolean       Integer        Real      String
//	bool        itself        1 / 0          -         "true"/"false"
//	integer     nonzero       itself         exact     decimal
//	float       nonzero       if integral    itself    shortest form
//	string      parsed        parsed         parsed    itself
//	[]string    -             -              -         joined by "\n"
func Convert(kind Kind, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	v = normalize(v)
	switch kind {
	case KindBoolean:
		return toBool(v)
	case KindInteger:
		return toInt(v)
	case KindReal:
		return toReal(v)
	case KindString:
		return toString(v)
	}
	return nil, fmt.Errorf("unknown kind %q: %w", kind, ErrConversion)
}

// Format converts v to kind and returns its text form, as written to text
// based backends.
func Format(kind Kind, v any) (string, error) {
	c, err := Convert(kind, v)
	if err != nil {
		return "", err
	}
	switch c := c.(type) {
	case nil:
		return "", nil
	case bool:
		return strconv.FormatBool(c), nil
	case int64:
		return strconv.FormatInt(c, 10), nil
	case float64:
		return strconv.FormatFloat(c, 'g', -1, 64), nil
	default:
		return c.(string), nil
	}
}

// normalize folds the many integer and float types into int64, uint64 and
// float64.
func normalize(v any) any {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int8:
		return int64(n)
	case int16:
		return int64(n)
	case int32:
		return int64(n)
	case uint:
		return uint64(n)
	case uint8:
		return uint64(n)
	case uint16:
		return uint64(n)
	case uint32:
		return uint64(n)
	case float32:
		return float64(n)
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i
		}
		if f, err := n.Float64(); err == nil {
			return f
		}
		return n.String()
	}
	return v
}

func conversionError(v any, kind Kind) error {
	return fmt.Errorf("%T %v to %s: %w", v, v, kind, ErrConversion)
}

func toBool(v any) (any, error) {
	switch n := v.(type) {
	case bool:
		return n, nil
	case int64:
		return n != 0, nil
	case uint64:
		return n != 0, nil
	case float64:
		return n != 0, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(n)) {
		case "true", "yes", "on", "1":
			return true, nil
		case "false", "no", "off", "0":
			return false, nil
		}
		if i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64); err == nil {
			return i != 0, nil
		}
	}
	return nil, conversionError(v, KindBoolean)
}

func toInt(v any) (any, error) {
	switch n := v.(type) {
	case bool:
		if n {
			return int64(1), nil
		}
		return int64(0), nil
	case int64:
		return n, nil
	case uint64:
		if n <= math.MaxInt64 {
			return int64(n), nil
		}
	case float64:
		if n == math.Trunc(n) && n >= math.MinInt64 && n < math.MaxInt64 {
			return int64(n), nil
		}
	case string:
		s := strings.TrimSpace(n)
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i, nil
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return toInt(f)
		}
	}
	return nil, conversionError(v, KindInteger)
}

func toReal(v any) (any, error) {
	switch n := v.(type) {
	case int64:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case float64:
		return n, nil
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil {
			return f, nil
		}
	}
	return nil, conversionError(v, KindReal)
}

func toString(v any) (any, error) {
	switch n := v.(type) {
	case string:
		return n, nil
	case bool:
		return strconv.FormatBool(n), nil
	case int64:
		return strconv.FormatInt(n, 10), nil
	case uint64:
		return strconv.FormatUint(n, 10), nil
	case float64:
		return strconv.FormatFloat(n, 'g', -1, 64), nil
	case []string:
		return strings.Join(n, "\n"), nil
	}
	return nil, conversionError(v, KindString)
}
