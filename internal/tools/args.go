package tools

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// Args is the argument mapping of one invocation, as decoded from JSON.
type Args map[string]any

// DecodeArguments reads a raw arguments payload. Absent or null arguments
// decode to nil; anything other than a JSON object is a ValidationError.
func DecodeArguments(raw json.RawMessage) (map[string]any, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	var args map[string]any
	if raw[0] != '{' || json.Unmarshal(raw, &args) != nil {
		return nil, invalid("arguments", "must be an object")
	}
	return args, nil
}

func (a Args) present(name string) bool {
	v, ok := a[name]
	return ok && v != nil
}

// String returns a required, non-blank string argument.
func (a Args) String(name string) (string, error) {
	if !a.present(name) {
		return "", invalid(name, "is required")
	}
	s, ok := a[name].(string)
	if !ok {
		return "", invalid(name, "must be a string")
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", invalid(name, "must not be empty")
	}
	return s, nil
}

// OptionalString returns a string argument, or "" when it is absent or blank.
func (a Args) OptionalString(name string) (string, error) {
	if !a.present(name) {
		return "", nil
	}
	s, ok := a[name].(string)
	if !ok {
		return "", invalid(name, "must be a string")
	}
	return strings.TrimSpace(s), nil
}

// OptionalNumber returns a numeric argument. JSON numbers and numeric
// strings are both accepted. ok is false when the argument is absent.
func (a Args) OptionalNumber(name string) (n float64, ok bool, err error) {
	if !a.present(name) {
		return 0, false, nil
	}
	switch v := a[name].(type) {
	case float64:
		n = v
	case int:
		n = float64(v)
	case int64:
		n = float64(v)
	case json.Number:
		n, err = v.Float64()
	case string:
		if strings.TrimSpace(v) == "" {
			return 0, false, nil
		}
		n, err = strconv.ParseFloat(strings.TrimSpace(v), 64)
	default:
		return 0, false, invalid(name, "must be a number")
	}
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false, invalid(name, "must be a number")
	}
	return n, true, nil
}

// Time returns a required RFC 3339 timestamp argument.
func (a Args) Time(name string) (time.Time, error) {
	s, err := a.String(name)
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, invalid(name, "must be an RFC 3339 timestamp")
	}
	return t, nil
}

// Object returns a required nested object argument.
func (a Args) Object(name string) (Args, error) {
	if !a.present(name) {
		return nil, invalid(name, "is required")
	}
	switch v := a[name].(type) {
	case map[string]any:
		return Args(v), nil
	case Args:
		return v, nil
	default:
		return nil, invalid(name, "must be an object")
	}
}
