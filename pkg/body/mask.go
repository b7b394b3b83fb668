package body

import "strings"

// DefaultMarker replaces the value of every sensitive key.
const DefaultMarker = "******"

// DefaultMaskKeys lists the keys masked when no other list is configured.
var DefaultMaskKeys = []string{
	"password",
	"passwd",
	"token",
	"access_token",
	"refresh_token",
	"secret",
	"ssn",
}

// Masker redacts values stored under sensitive object keys.
// Key matching is case-insensitive. A Masker is immutable and safe for concurrent use.
type Masker struct {
	keys   map[string]struct{}
	marker string
}

// NewMasker creates a masker for the given keys. An empty marker selects DefaultMarker.
func NewMasker(keys []string, marker string) *Masker {
	if marker == "" {
		marker = DefaultMarker
	}
	m := &Masker{
		keys:   make(map[string]struct{}, len(keys)),
		marker: marker,
	}
	for _, k := range keys {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			m.keys[k] = struct{}{}
		}
	}
	return m
}

// DefaultMasker returns a masker for DefaultMaskKeys.
func DefaultMasker() *Masker {
	return NewMasker(DefaultMaskKeys, DefaultMarker)
}

// Sensitive reports whether values under key are redacted.
func (m *Masker) Sensitive(key string) bool {
	if m == nil {
		return false
	}
	_, ok := m.keys[strings.ToLower(key)]
	return ok
}

// Mask returns a copy of v with sensitive values replaced. Objects and arrays are
// walked recursively; scalars are returned as is. v is never modified.
func (m *Masker) Mask(v any) any {
	if m == nil || len(m.keys) == 0 {
		return v
	}

	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, child := range val {
			if m.Sensitive(k) {
				out[k] = m.marker
				continue
			}
			out[k] = m.Mask(child)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, child := range val {
			out[i] = m.Mask(child)
		}
		return out
	default:
		return v
	}
}
