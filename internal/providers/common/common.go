package common

import (
	"strconv"
	"strings"
)

const euroSign = "€"

// FormatEuro renders an amount as a euro price with two decimals, e.g. €950.50.
func FormatEuro(amount float64) string {
	return euroSign + strconv.FormatFloat(amount, 'f', 2, 64)
}

// IsPresent reports whether a decoded JSON value carries information: a
// non-empty string, a non-zero number, true, or a non-empty collection.
func IsPresent(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case string:
		return v != ""
	case bool:
		return v
	case jsonNumber:
		if f, err := v.Float64(); err == nil {
			return f != 0
		}
		return v.String() != ""
	case float64:
		return v != 0
	case int:
		return v != 0
	case int64:
		return v != 0
	case []any:
		return len(v) > 0
	case map[string]any:
		return len(v) > 0
	default:
		return true
	}
}

// ToFloat64 converts a decoded number, or a string holding one, to float64.
// It reports false for any other value.
func ToFloat64(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case int32:
		return float64(v), true
	case jsonNumber:
		if f, err := v.Float64(); err == nil {
			return f, true
		}
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

type jsonNumber interface {
	Int64() (int64, error)
	Float64() (float64, error)
	String() string
}

// ToString keeps the literal text of numbers decoded with UseNumber, so 45 and
// 45.5 render as written by the upstream API.
func ToString(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case jsonNumber:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(v, 10)
	case int:
		return strconv.Itoa(v)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

// StripSpaces removes every space character, matching the slug style used in
// listing links.
func StripSpaces(value string) string {
	return strings.ReplaceAll(strings.TrimSpace(value), " ", "")
}
