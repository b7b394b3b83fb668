package dissector

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseResponse(t *testing.T) {
	tup, ok := ParseResponse("1000.5\t5\t200\t13\tapplication/json\t{\"ok\":true}\n")
	require.True(t, ok)

	assert.Equal(t, ResponseTuple{
		Timestamp:     "1000.5",
		Stream:        "5",
		Status:        "200",
		ContentLength: "13",
		ContentType:   "application/json",
		Body:          `{"ok":true}`,
	}, tup)
}

func TestParseResponse_Short(t *testing.T) {
	_, ok := ParseResponse("1000.5\t5\t200\t13\tapplication/json")
	assert.False(t, ok)

	_, ok = ParseResponse("")
	assert.False(t, ok)
}

func TestParseRequest(t *testing.T) {
	cols := []string{"999", "5", "10.0.0.1", "1234", "10.0.0.2", "80", "POST", "/api",
		"http://h/api", "h", "HTTP/1.1", "curl", "", "application/json", "a\tb"}

	tup, ok := ParseRequest(strings.Join(cols, "\t") + "\r\n")
	require.True(t, ok)

	assert.Equal(t, "10.0.0.1", tup.SrcIP)
	assert.Equal(t, "POST", tup.Method)
	assert.Equal(t, "http://h/api", tup.FullURI)
	assert.Empty(t, tup.Referer)
	assert.Equal(t, "a\tb", tup.Body, "tabs inside the body column are kept")
}

func TestParseRequest_Short(t *testing.T) {
	_, ok := ParseRequest(strings.Repeat("x\t", 13) + "x")
	assert.False(t, ok)
}

func TestFieldLists(t *testing.T) {
	assert.Len(t, ResponseFields, ResponseColumns)
	assert.Len(t, RequestFields, RequestColumns)
}
