// Package extract runs the two extraction phases: every response is queued
// first, then request lines are paired and written.
package extract

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/usestring/tsharklog/internal/cache"
	"github.com/usestring/tsharklog/internal/config"
	"github.com/usestring/tsharklog/internal/correlator"
	"github.com/usestring/tsharklog/internal/dissector"
	"github.com/usestring/tsharklog/internal/format"
	"github.com/usestring/tsharklog/internal/ingest"
	"github.com/usestring/tsharklog/pkg/body"
)

var printer = message.NewPrinter(language.English)

// Options configures a run.
type Options struct {
	Dissector  dissector.Options
	Normalizer *body.Normalizer // body.DefaultMasker without truncation when nil
	Writer     format.Writer
	Matcher    format.Matcher // nil emits everything

	// Responses and Requests replace the tshark invocations when set.
	Responses dissector.LineSource
	Requests  dissector.LineSource
}

// Stats summarizes a run.
type Stats struct {
	RunID        string                 // correlates the diagnostics of one run
	Responses    int                    // response records queued
	Requests     int                    // request lines read
	Lines        int                    // transactions written
	Matched      int                    // requests paired with a response
	Unmatched    int                    // requests without a response
	Filtered     int                    // transactions dropped by --match
	FilterErrors int                    // --match evaluations that failed, counted as no match
	Skipped      int                    // malformed lines across both phases
	Leftover     []correlator.Unclaimed // streams with unclaimed responses
}

// LeftoverResponses is the number of queued responses no request claimed.
func (s Stats) LeftoverResponses() int {
	total := 0
	for _, u := range s.Leftover {
		total += u.Responses
	}
	return total
}

// Run executes both phases. The writer is not closed.
func Run(ctx context.Context, opts Options) (Stats, error) {
	stats := Stats{RunID: uuid.New().String()}
	if opts.Writer == nil {
		return stats, fmt.Errorf("extract: writer is required")
	}
	log := slog.Default().With(slog.String("run_id", stats.RunID))

	n := opts.Normalizer
	if n == nil {
		n = body.NewNormalizer(body.DefaultMasker())
	}

	responses := opts.Responses
	if responses == nil {
		responses = dissector.ResponseCommand(opts.Dissector)
	}
	requests := opts.Requests
	if requests == nil {
		requests = dissector.RequestCommand(opts.Dissector)
	}

	corr := correlator.New()

	log.Debug("ingesting responses", slog.String("source", describe(responses)))
	ingStats, err := ingest.New(n, corr).Ingest(ctx, responses)
	if err != nil {
		return stats, fmt.Errorf("ingesting responses: %w", err)
	}
	stats.Responses = ingStats.Ingested
	stats.Skipped = ingStats.Skipped

	log.Debug("formatting requests",
		slog.String("source", describe(requests)),
		slog.Int("queued_responses", corr.Len()),
	)
	fmtStats, err := format.New(n, corr, opts.Writer, opts.Matcher).Format(ctx, requests)
	if err != nil {
		return stats, fmt.Errorf("formatting requests: %w", err)
	}
	stats.Requests = fmtStats.Seen
	stats.Lines = fmtStats.Written
	stats.Matched = fmtStats.Matched
	stats.Unmatched = fmtStats.Unmatched
	stats.Filtered = fmtStats.Filtered
	stats.FilterErrors = fmtStats.FilterErrors
	stats.Skipped += fmtStats.Skipped
	stats.Leftover = corr.Leftover()

	logSummary(log, stats)
	return stats, nil
}

func logSummary(log *slog.Logger, stats Stats) {
	if stats.Lines == 0 {
		log.Warn("no HTTP transactions found",
			slog.String("requests", printer.Sprintf("%d", stats.Requests)),
			slog.String("filtered", printer.Sprintf("%d", stats.Filtered)),
		)
		return
	}

	log.Info("extraction complete",
		slog.String("lines", printer.Sprintf("%d", stats.Lines)),
		slog.String("matched", printer.Sprintf("%d", stats.Matched)),
		slog.String("unmatched", printer.Sprintf("%d", stats.Unmatched)),
		slog.String("responses", printer.Sprintf("%d", stats.Responses)),
	)
	if stats.FilterErrors > 0 {
		log.Warn("match filter failed on some transactions",
			slog.String("transactions", printer.Sprintf("%d", stats.FilterErrors)),
		)
	}
	if left := stats.LeftoverResponses(); left > 0 {
		log.Info("responses left unclaimed",
			slog.String("responses", printer.Sprintf("%d", left)),
			slog.Int("streams", len(stats.Leftover)),
		)
	}
}

func describe(src dissector.LineSource) string {
	if s, ok := src.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", src)
}

// NewNormalizer builds the body normalizer described by cfg.
func NewNormalizer(cfg *config.Config) (*body.Normalizer, error) {
	opts := []body.Option{
		body.WithTruncate(&body.TruncateOptions{
			MaxArrayItems: cfg.MaxArrayItems,
			MaxStringLen:  cfg.MaxStringLen,
		}),
	}
	if cfg.BodyCacheItems > 0 {
		c, err := cache.NewBodyCache(cfg.BodyCacheItems)
		if err != nil {
			return nil, fmt.Errorf("creating body cache: %w", err)
		}
		opts = append(opts, body.WithCache(c))
	}
	return body.NewNormalizer(body.NewMasker(cfg.MaskKeys, cfg.MaskMarker), opts...), nil
}
