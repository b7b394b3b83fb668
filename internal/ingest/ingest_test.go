package ingest

import (
	"context"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/tsharklog/internal/correlator"
	"github.com/usestring/tsharklog/internal/dissector"
	"github.com/usestring/tsharklog/pkg/body"
)

func TestResolveSize(t *testing.T) {
	tests := []struct {
		name string
		clen string
		body string
		want int
	}{
		{"declared", "13", "whatever", 13},
		{"declared zero", "0", "abcd", 0},
		{"hex estimate", "", "7b7d", 2},
		{"odd non-hex uses utf8 length", "", "abc", 3},
		{"multibyte text", "", "héllo", 6},
		{"non-numeric declared", "12,12", "abc", 3},
		{"negative declared", "-1", "7b7d", 2},
		{"overflowing declared", "99999999999999999999999", "abc", 3},
		{"empty", "", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveSize(tt.clen, tt.body))
		})
	}
}

func TestIngest(t *testing.T) {
	corr := correlator.New()
	ing := New(body.NewNormalizer(body.DefaultMasker()), corr)

	hexBody := hex.EncodeToString([]byte(`{"token":"t","id":1}`))
	input := strings.Join([]string{
		"1000\t5\t200\t13\tapplication/json\t{\"ok\":true}",
		"1001\t5\t404\t\tapplication/json\t" + hexBody,
		"1002\tnotanumber\t200\t1\tapplication/json\t{}",
		"short\tline",
		"1003\t6\t\t\t\tplain",
	}, "\n") + "\n"

	stats, err := ing.Ingest(context.Background(), dissector.ReaderSource{R: strings.NewReader(input)})
	require.NoError(t, err)
	assert.Equal(t, Stats{Seen: 5, Ingested: 3, Skipped: 2}, stats)

	r, ok := corr.Pop(5)
	require.True(t, ok)
	assert.Equal(t, correlator.Response{Status: "200", Bytes: 13, ContentType: "application/json", BodyJSON: `{"ok":true}`}, r)

	r, ok = corr.Pop(5)
	require.True(t, ok)
	assert.Equal(t, "404", r.Status)
	assert.Equal(t, len(hexBody)/2, r.Bytes)
	assert.Equal(t, `{"id":1,"token":"******"}`, r.BodyJSON)

	r, ok = corr.Pop(6)
	require.True(t, ok)
	assert.Equal(t, correlator.Response{Status: "", Bytes: 5, BodyJSON: `"plain"`}, r)
}
