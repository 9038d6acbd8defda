package manifest

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Fields is the field dictionary of a manifest entry as decoded from JSON:
// numbers are float64, objects map[string]any, arrays []any.
type Fields map[string]any

// Has reports whether key is present, even with a null value.
func (f Fields) Has(key string) bool {
	_, ok := f[key]
	return ok
}

// Value returns the raw value for key.
func (f Fields) Value(key string) any { return f[key] }

// String renders scalars as strings; null, objects and arrays yield "".
func (f Fields) String(key string) string {
	switch v := f[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

// Bool treats true, "true" and "1" as true.
func (f Fields) Bool(key string) bool {
	switch v := f[key].(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(strings.TrimSpace(v))
		return b
	case float64:
		return v != 0
	default:
		return false
	}
}

// Int converts numeric or numeric-string values, truncating fractions.
func (f Fields) Int(key string) (int, bool) {
	switch v := f[key].(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, false
		}
		return int(v), true
	case string:
		s := strings.TrimSpace(v)
		if n, err := strconv.Atoi(s); err == nil {
			return n, true
		}
		if fl, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(fl) && !math.IsInf(fl, 0) {
			return int(fl), true
		}
	}
	return 0, false
}

// Map returns a nested object or nil.
func (f Fields) Map(key string) map[string]any {
	m, _ := f[key].(map[string]any)
	return m
}

// List returns a nested array or nil.
func (f Fields) List(key string) []any {
	l, _ := f[key].([]any)
	return l
}

// Time parses an RFC 3339 timestamp; missing or unparseable values yield the zero time.
func (f Fields) Time(key string) time.Time {
	s := f.String(key)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.000Z07:00", "2006-01-02 15:04:05 MST"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// Slice copies the listed keys that are present, like a field whitelist.
// It returns nil when none are present.
func (f Fields) Slice(keys ...string) map[string]any {
	var out map[string]any
	for _, k := range keys {
		v, ok := f[k]
		if !ok {
			continue
		}
		if out == nil {
			out = make(map[string]any, len(keys))
		}
		out[k] = v
	}
	return out
}
