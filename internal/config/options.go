package config

import (
	"encoding/json"
	"unicode/utf8"
)

// Options holds parser settings as decoded from JSON or YAML. Accessors
// return def when a key is missing or holds a different type; numbers are
// accepted in either decoder's representation.
type Options map[string]any

func typed[T any](o Options, key string) (T, bool) {
	v, ok := o[key].(T)
	return v, ok
}

func (o Options) String(key, def string) string {
	if s, ok := typed[string](o, key); ok {
		return s
	}
	return def
}

func (o Options) Bool(key string, def bool) bool {
	if b, ok := typed[bool](o, key); ok {
		return b
	}
	return def
}

// Int accepts float64 (JSON), int (YAML) and int64.
func (o Options) Int(key string, def int) int {
	switch n := o[key].(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return def
}

// Rune returns the first rune of a non-empty string value.
func (o Options) Rune(key string, def rune) rune {
	s := o.String(key, "")
	if s == "" {
		return def
	}
	r, _ := utf8.DecodeRuneInString(s)
	return r
}

// StringSlice returns the string elements of a list value, or nil when the
// key is missing or not a list. Non-string elements are skipped.
func (o Options) StringSlice(key string) []string {
	switch l := o[key].(type) {
	case []string:
		return l
	case []any:
		out := make([]string, 0, len(l))
		for _, e := range l {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// UnmarshalJSON maps null to an empty bag.
func (o *Options) UnmarshalJSON(b []byte) error {
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	if m == nil {
		m = map[string]any{}
	}
	*o = m
	return nil
}
