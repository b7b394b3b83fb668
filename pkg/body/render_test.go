package body

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRender(t *testing.T) {
	tests := []struct {
		name string
		body Body
		want string
	}{
		{"sorted keys", Body{Kind: KindJSON, Value: map[string]any{"b": 1, "a": 2}}, `{"a":2,"b":1}`},
		{"exact number", Body{Kind: KindJSON, Value: json.Number("12345678901234567890")}, `12345678901234567890`},
		{"html kept", Body{Kind: KindJSON, Value: map[string]any{"q": "<a&b>"}}, `{"q":"<a&b>"}`},
		{"utf8 kept", Body{Kind: KindText, Text: "héllo"}, `"héllo"`},
		{"text quoted", Body{Kind: KindText, Text: "line\tone"}, `"line\tone"`},
		{"empty text", Body{Kind: KindText}, `""`},
		{"json null", Body{Kind: KindJSON}, `null`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Render(tt.body))
		})
	}
}

func TestTruncate(t *testing.T) {
	opts := &TruncateOptions{MaxArrayItems: 2, MaxStringLen: 3}
	in := map[string]any{
		"list": []any{"abcdef", 2, 3, 4},
		"ok":   "ab",
	}

	got := Truncate(in, opts)
	assert.Equal(t, map[string]any{
		"list": []any{"abc... (3 more chars)", 2, "... (2 more items)"},
		"ok":   "ab",
	}, got)
	assert.Equal(t, "abcdef", in["list"].([]any)[0])
}

func TestTruncate_Disabled(t *testing.T) {
	in := []any{1, 2, 3}
	assert.Equal(t, in, Truncate(in, nil))
	assert.Equal(t, in, Truncate(in, &TruncateOptions{}))
}
