package body

import (
	"encoding/hex"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_DirectJSON(t *testing.T) {
	b := Decode(`{"user":"bob","n":12345678901234567890}`)
	require.True(t, b.IsJSON())

	obj, ok := b.Value.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "bob", obj["user"])
	assert.Equal(t, json.Number("12345678901234567890"), obj["n"])
}

func TestDecode_HexJSON(t *testing.T) {
	raw := hex.EncodeToString([]byte(`{"a":1}`))

	b := Decode(raw)
	require.True(t, b.IsJSON())
	assert.Equal(t, map[string]any{"a": json.Number("1")}, b.Value)
	assert.Equal(t, `{"a":1}`, Render(b))
}

func TestDecode_HexText(t *testing.T) {
	raw := hex.EncodeToString([]byte("user=bob&password=x"))

	b := Decode(raw)
	assert.Equal(t, KindText, b.Kind)
	assert.Equal(t, "user=bob&password=x", b.Text)
}

func TestDecode_HexInvalidUTF8(t *testing.T) {
	b := Decode("ff41")
	assert.Equal(t, KindText, b.Kind)
	assert.Equal(t, "�A", b.Text)
}

func TestDecode_Fallbacks(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		kind Kind
		text string
	}{
		{"plain text", "hello world", KindText, "hello world"},
		{"odd length hex", "abc", KindText, "abc"},
		{"empty", "", KindText, ""},
		{"truncated json", `{"a":`, KindText, `{"a":`},
		{"trailing garbage", `{"a":1} x`, KindText, `{"a":1} x`},
		{"two values", `1 2`, KindText, `1 2`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := Decode(tt.raw)
			assert.Equal(t, tt.kind, b.Kind)
			assert.Equal(t, tt.text, b.Text)
		})
	}
}

func TestDecode_ScalarJSON(t *testing.T) {
	// A digits-only body is valid JSON before it is valid hex.
	b := Decode("1234")
	require.True(t, b.IsJSON())
	assert.Equal(t, json.Number("1234"), b.Value)
}

func TestIsHex(t *testing.T) {
	assert.True(t, IsHex("7b7d"))
	assert.True(t, IsHex("ABCDEF"))
	assert.False(t, IsHex(""))
	assert.False(t, IsHex("abc"))
	assert.False(t, IsHex("zz"))
	assert.False(t, IsHex("7b 7d"))
}
