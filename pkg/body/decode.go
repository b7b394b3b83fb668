// Package body decodes, masks and renders HTTP message bodies reported by the dissector.
//
// The dissector hands bodies over either as text or as hex-encoded octets. Decode
// classifies a raw body as JSON or opaque text, Masker redacts sensitive keys in JSON
// values, and Render turns the result into a single-line JSON text.
package body

import (
	"encoding/hex"
	"encoding/json"
	"io"
	"strings"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// Kind distinguishes the two body variants.
type Kind int

const (
	KindText Kind = iota
	KindJSON
)

// Body is a decoded message body. Value is set for KindJSON, Text for KindText.
type Body struct {
	Kind  Kind
	Value any
	Text  string
}

// IsJSON reports whether the body parsed as JSON.
func (b Body) IsJSON() bool {
	return b.Kind == KindJSON
}

// Decode classifies a raw body. The first rule that succeeds wins:
//  1. raw parses as JSON;
//  2. raw is hex, and its decoded UTF-8 text parses as JSON;
//  3. raw is hex and decodes to different text, which is kept as text;
//  4. raw is kept as text.
func Decode(raw string) Body {
	if v, ok := parseJSON(raw); ok {
		return Body{Kind: KindJSON, Value: v}
	}

	if IsHex(raw) {
		text := decodeHexText(raw)
		if v, ok := parseJSON(text); ok {
			return Body{Kind: KindJSON, Value: v}
		}
		if text != raw {
			return Body{Kind: KindText, Text: text}
		}
	}

	return Body{Kind: KindText, Text: raw}
}

// IsHex reports whether s is a non-empty, even-length string of hex digits.
func IsHex(s string) bool {
	if len(s) == 0 || len(s)%2 != 0 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

// decodeHexText decodes hex octets and interprets them as UTF-8,
// replacing ill-formed sequences with U+FFFD.
func decodeHexText(s string) string {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return s
	}
	text, _, err := transform.String(runes.ReplaceIllFormed(), string(raw))
	if err != nil {
		return s
	}
	return text
}

// parseJSON parses exactly one JSON value, keeping numbers as json.Number so
// integers and decimals render back unchanged.
func parseJSON(s string) (any, bool) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, false
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, false
	}
	return v, true
}
