package body

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Render encodes a body as single-line JSON. Object keys come out sorted; text
// bodies become JSON string literals. HTML characters are not escaped.
func Render(b Body) string {
	if b.IsJSON() {
		return encode(b.Value)
	}
	return encode(b.Text)
}

func encode(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		// Only reachable with a malformed json.Number; fall back to a quoted dump.
		return strconv.Quote(err.Error())
	}
	return string(bytes.TrimSuffix(buf.Bytes(), []byte{'\n'}))
}
