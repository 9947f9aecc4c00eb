package model

import (
	"sort"
)

// Fields holds flat scalar values keyed by display name. Values are
// float64, int, string or bool; absent values are simply not set.
type Fields map[string]any

// SetFloat stores v when it is present.
func (f Fields) SetFloat(key string, v *float64) {
	if v != nil {
		f[key] = *v
	}
}

// SetInt stores v when it is present.
func (f Fields) SetInt(key string, v *int) {
	if v != nil {
		f[key] = *v
	}
}

// SetString stores v when it is non-empty.
func (f Fields) SetString(key, v string) {
	if v != "" {
		f[key] = v
	}
}

// Keys returns the field names in sorted order.
func (f Fields) Keys() []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a shallow copy.
func (f Fields) Clone() Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v.
func Int(v int) *int { return &v }
