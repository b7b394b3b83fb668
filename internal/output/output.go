// Package output writes transactions as combined log lines, JSON lines or HAR.
package output

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/usestring/tsharklog/internal/format"
)

// Format selects the output encoding.
type Format string

const (
	FormatCombined Format = "combined"
	FormatJSONL    Format = "jsonl"
	FormatHAR      Format = "har"
)

// Formats lists the accepted format names.
var Formats = []Format{FormatCombined, FormatJSONL, FormatHAR}

// Stdout is the destination name that selects standard output.
const Stdout = "-"

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	for _, f := range Formats {
		if strings.EqualFold(s, string(f)) {
			return f, nil
		}
	}
	names := make([]string, len(Formats))
	for i, f := range Formats {
		names[i] = string(f)
	}
	return "", fmt.Errorf("invalid output format '%s', must be one of: %s", s, strings.Join(names, ", "))
}

// Open returns the destination for path: standard output for "" or "-",
// otherwise a truncated file. Closing standard output is a no-op.
func Open(path string) (io.WriteCloser, error) {
	if path == "" || path == Stdout {
		return nopCloser{os.Stdout}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening output %s: %w", path, err)
	}
	return f, nil
}

// New creates a writer of the given format on top of dst. Closing the writer
// flushes buffered data and closes dst.
func New(f Format, dst io.WriteCloser) (format.Writer, error) {
	switch f {
	case FormatCombined, "":
		return &combinedWriter{bufWriter: newBufWriter(dst)}, nil
	case FormatJSONL:
		bw := newBufWriter(dst)
		enc := json.NewEncoder(bw.w)
		enc.SetEscapeHTML(false)
		return &jsonlWriter{bufWriter: bw, enc: enc}, nil
	case FormatHAR:
		return newHARWriter(dst), nil
	default:
		return nil, fmt.Errorf("unknown output format: %s", f)
	}
}

type bufWriter struct {
	w   *bufio.Writer
	dst io.WriteCloser
}

func newBufWriter(dst io.WriteCloser) bufWriter {
	return bufWriter{w: bufio.NewWriterSize(dst, 64*1024), dst: dst}
}

func (b bufWriter) Close() error {
	if err := b.w.Flush(); err != nil {
		_ = b.dst.Close()
		return err
	}
	return b.dst.Close()
}

// combinedWriter emits one extended Apache combined line per transaction.
type combinedWriter struct {
	bufWriter
}

func (w *combinedWriter) Write(tx *format.Transaction) error {
	if _, err := w.w.WriteString(format.CombinedLine(tx)); err != nil {
		return err
	}
	return w.w.WriteByte('\n')
}

// jsonlWriter emits one JSON object per line.
type jsonlWriter struct {
	bufWriter
	enc *json.Encoder
}

func (w *jsonlWriter) Write(tx *format.Transaction) error {
	return w.enc.Encode(tx.Record())
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }
