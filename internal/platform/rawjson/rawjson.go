// Package rawjson reads fields out of generically decoded JSON
// (map[string]any / []any) and fails loudly when a field is absent.
package rawjson

import (
	"math"
	"strconv"
	"strings"

	crerr "github.com/cockroachdb/errors"
)

var (
	ErrMissingField = crerr.New("missing field")
	ErrFieldType    = crerr.New("unexpected field type")
)

// Lookup walks nested objects along path.
func Lookup(src map[string]any, path ...string) (any, error) {
	if len(path) == 0 {
		return nil, crerr.New("field path is required")
	}

	current := src
	for i, key := range path {
		if current == nil {
			return nil, missing(path[:i+1])
		}
		value, ok := current[key]
		if !ok {
			return nil, missing(path[:i+1])
		}
		if i == len(path)-1 {
			return value, nil
		}
		next, ok := value.(map[string]any)
		if !ok {
			return nil, wrongType(path[:i+1], "object", value)
		}
		current = next
	}
	return nil, missing(path)
}

func Object(src map[string]any, path ...string) (map[string]any, error) {
	value, err := Lookup(src, path...)
	if err != nil {
		return nil, err
	}
	out, ok := value.(map[string]any)
	if !ok {
		return nil, wrongType(path, "object", value)
	}
	return out, nil
}

func List(src map[string]any, path ...string) ([]any, error) {
	value, err := Lookup(src, path...)
	if err != nil {
		return nil, err
	}
	out, ok := value.([]any)
	if !ok {
		return nil, wrongType(path, "array", value)
	}
	return out, nil
}

// Objects asserts every element of items is an object. where names the array in errors.
func Objects(items []any, where string) ([]map[string]any, error) {
	out := make([]map[string]any, 0, len(items))
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, crerr.Wrapf(ErrFieldType, "%s[%d]: expected object, got %T", where, i, item)
		}
		out = append(out, obj)
	}
	return out, nil
}

// Text reads a string field. Numbers are accepted and rendered without exponent.
func Text(src map[string]any, path ...string) (string, error) {
	value, err := Lookup(src, path...)
	if err != nil {
		return "", err
	}
	return asText(path, value)
}

// TextOr is Text with a fallback for an absent or null last key. Absent
// intermediate objects are still an error.
func TextOr(src map[string]any, fallback string, path ...string) (string, error) {
	if len(path) == 0 {
		return "", crerr.New("field path is required")
	}
	parent := src
	if len(path) > 1 {
		obj, err := Object(src, path[:len(path)-1]...)
		if err != nil {
			return "", err
		}
		parent = obj
	}
	value, ok := parent[path[len(path)-1]]
	if !ok || value == nil {
		return fallback, nil
	}
	return asText(path, value)
}

// Int64 reads an integral number. Numeric strings are accepted since the
// upstream encodes some ids as strings.
func Int64(src map[string]any, path ...string) (int64, error) {
	value, err := Lookup(src, path...)
	if err != nil {
		return 0, err
	}
	switch typed := value.(type) {
	case float64:
		if typed != math.Trunc(typed) {
			return 0, wrongType(path, "integer", value)
		}
		return int64(typed), nil
	case int:
		return int64(typed), nil
	case int64:
		return typed, nil
	case string:
		out, err := strconv.ParseInt(strings.TrimSpace(typed), 10, 64)
		if err != nil {
			return 0, wrongType(path, "integer", value)
		}
		return out, nil
	default:
		return 0, wrongType(path, "integer", value)
	}
}

func Int(src map[string]any, path ...string) (int, error) {
	out, err := Int64(src, path...)
	if err != nil {
		return 0, err
	}
	return int(out), nil
}

func asText(path []string, value any) (string, error) {
	switch typed := value.(type) {
	case string:
		return typed, nil
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64), nil
	case int:
		return strconv.Itoa(typed), nil
	case int64:
		return strconv.FormatInt(typed, 10), nil
	default:
		return "", wrongType(path, "string", value)
	}
}

func missing(path []string) error {
	return crerr.Wrapf(ErrMissingField, "%s", strings.Join(path, "."))
}

// wrongType also covers JSON null: a required field that is null is malformed.
func wrongType(path []string, want string, got any) error {
	if got == nil {
		return crerr.Wrapf(ErrFieldType, "%s: expected %s, got null", strings.Join(path, "."), want)
	}
	return crerr.Wrapf(ErrFieldType, "%s: expected %s, got %T", strings.Join(path, "."), want, got)
}
