package body

import (
	"fmt"
	"unicode/utf8"
)

// TruncateOptions caps the size of rendered bodies. Zero values disable a cap.
type TruncateOptions struct {
	MaxArrayItems int // Trim arrays to N items
	MaxStringLen  int // Truncate strings longer than N bytes
}

// Enabled reports whether any cap is set.
func (o *TruncateOptions) Enabled() bool {
	return o != nil && (o.MaxArrayItems > 0 || o.MaxStringLen > 0)
}

// Truncate trims arrays and strings in a parsed JSON value.
// A trimmed array gets a trailing "... (N more items)" marker element.
func Truncate(v any, opts *TruncateOptions) any {
	if !opts.Enabled() {
		return v
	}

	switch val := v.(type) {
	case []any:
		return truncateArray(val, opts)
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, child := range val {
			out[k] = Truncate(child, opts)
		}
		return out
	case string:
		return TruncateString(val, opts)
	default:
		return v
	}
}

// TruncateString shortens s to MaxStringLen bytes, cutting on a rune boundary.
func TruncateString(s string, opts *TruncateOptions) string {
	if opts == nil || opts.MaxStringLen <= 0 || len(s) <= opts.MaxStringLen {
		return s
	}
	cut := opts.MaxStringLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + fmt.Sprintf("... (%d more chars)", len(s)-cut)
}

func truncateArray(arr []any, opts *TruncateOptions) []any {
	if opts.MaxArrayItems <= 0 || len(arr) <= opts.MaxArrayItems {
		out := make([]any, len(arr))
		for i, item := range arr {
			out[i] = Truncate(item, opts)
		}
		return out
	}

	out := make([]any, opts.MaxArrayItems+1)
	for i := 0; i < opts.MaxArrayItems; i++ {
		out[i] = Truncate(arr[i], opts)
	}
	out[opts.MaxArrayItems] = fmt.Sprintf("... (%d more items)", len(arr)-opts.MaxArrayItems)
	return out
}
