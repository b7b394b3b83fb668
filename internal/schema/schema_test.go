package schema

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/tsharklog/internal/correlator"
	"github.com/usestring/tsharklog/internal/format"
	"github.com/usestring/tsharklog/internal/output"
)

type nopCloser struct{ *bytes.Buffer }

func (nopCloser) Close() error { return nil }

func TestGenerate(t *testing.T) {
	data, err := JSON()
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, SchemaID, doc["$id"])

	props, ok := doc["properties"].(map[string]any)
	require.True(t, ok)
	for _, name := range []string{"time", "client", "src", "dst", "method", "status", "bytes", "request_body", "response_body"} {
		assert.Contains(t, props, name)
	}

	required, ok := doc["required"].([]any)
	require.True(t, ok)
	assert.Contains(t, required, "request_body")
	assert.Contains(t, required, "matched")
	assert.NotContains(t, required, "status")
}

func TestValidator_WriterOutput(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	var buf bytes.Buffer
	w, err := output.New(output.FormatJSONL, nopCloser{&buf})
	require.NoError(t, err)

	require.NoError(t, w.Write(&format.Transaction{
		Time: time.Unix(1000, 0), HasTime: true, Stream: 1, HasStream: true,
		SrcIP: "10.0.0.1", SrcPort: "1", DstIP: "10.0.0.2", DstPort: "80",
		Method: "POST", URI: "/api", Version: "HTTP/1.1",
		RequestJSON: `{"password":"******","items":[1,2]}`,
		Response:    &correlator.Response{Status: "200", Bytes: 2, BodyJSON: `{}`},
	}))
	require.NoError(t, w.Write(&format.Transaction{Method: "GET", RequestJSON: `"text body"`}))
	require.NoError(t, w.Close())

	records, failed, err := v.ValidateStream(&buf)
	require.NoError(t, err)
	assert.Equal(t, 2, records)
	assert.Empty(t, failed)
	assert.Equal(t, "2 records valid", Summary(records, failed))
}

func TestValidator_Rejects(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	input := strings.Join([]string{
		`{"client":"-","src":{"ip":"","port":""},"dst":{"ip":"","port":""},"method":"GET","target":"/","version":"-","matched":false,"request_body":"","response_body":null}`,
		`{"client":"-","method":"GET"}`,
		`{"client":"-","src":{"ip":"","port":""},"dst":{"ip":"","port":""},"method":"GET","target":"/","version":"-","matched":"yes","request_body":"","response_body":null}`,
		`not json`,
	}, "\n")

	records, failed, err := v.ValidateStream(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 4, records)
	require.Len(t, failed, 3)
	assert.Equal(t, 2, failed[0].Line)
	assert.Equal(t, 3, failed[1].Line)
	assert.Contains(t, failed[2].Error(), "invalid JSON")
	assert.Equal(t, "3 of 4 records invalid", Summary(records, failed))
}
