// Package ingest loads response records from the dissector into a correlator.
package ingest

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/usestring/tsharklog/internal/correlator"
	"github.com/usestring/tsharklog/internal/dissector"
	"github.com/usestring/tsharklog/pkg/body"
)

// Stats counts what happened to the response lines of one run.
type Stats struct {
	Seen     int // lines read
	Ingested int // records queued
	Skipped  int // short lines or unusable stream index
}

// Ingestor resolves response tuples and queues them per stream.
type Ingestor struct {
	normalizer *body.Normalizer
	corr       *correlator.Correlator
}

// New creates an ingestor writing into corr.
func New(n *body.Normalizer, corr *correlator.Correlator) *Ingestor {
	return &Ingestor{normalizer: n, corr: corr}
}

// Ingest consumes src to the end. Malformed lines are skipped, never fatal;
// only a failure of the source itself is returned.
func (i *Ingestor) Ingest(ctx context.Context, src dissector.LineSource) (Stats, error) {
	var stats Stats
	err := src.Lines(ctx, func(line string) error {
		stats.Seen++
		tup, ok := dissector.ParseResponse(line)
		if !ok {
			stats.Skipped++
			slog.Debug("skipping short response line", slog.Int("line", stats.Seen))
			return nil
		}
		if !i.Add(tup) {
			stats.Skipped++
			slog.Debug("skipping response without stream index",
				slog.Int("line", stats.Seen),
				slog.String("stream", tup.Stream),
			)
			return nil
		}
		stats.Ingested++
		return nil
	})
	return stats, err
}

// Add resolves one tuple and appends it to its stream's queue.
// It reports false when the stream index does not parse.
func (i *Ingestor) Add(tup dissector.ResponseTuple) bool {
	stream, ok := correlator.ParseStream(tup.Stream)
	if !ok {
		return false
	}

	i.corr.Enqueue(stream, correlator.Response{
		Status:      tup.Status,
		Bytes:       ResolveSize(tup.ContentLength, tup.Body),
		ContentType: tup.ContentType,
		BodyJSON:    i.normalizer.Normalize(tup.Body),
	})
	return true
}

// ResolveSize picks the response size in bytes: the declared Content-Length when
// it is a plain non-negative integer, else half the length of a hex body, else
// the byte length of the body text.
func ResolveSize(contentLength, raw string) int {
	if isDigits(contentLength) {
		if n, err := strconv.Atoi(contentLength); err == nil {
			return n
		}
	}
	if body.IsHex(raw) {
		return len(raw) / 2
	}
	return len(raw)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
