// Package format turns request tuples into transactions paired with queued
// responses and hands them to a writer in input order.
package format

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/usestring/tsharklog/internal/correlator"
	"github.com/usestring/tsharklog/internal/dissector"
	"github.com/usestring/tsharklog/pkg/body"
)

// Writer emits transactions.
type Writer interface {
	Write(tx *Transaction) error
	Close() error
}

// Matcher decides whether a transaction is emitted.
type Matcher interface {
	Match(tx *Transaction) (bool, error)
}

// Stats counts what happened to the request lines of one run.
type Stats struct {
	Seen      int // lines read
	Skipped   int // short lines
	Written   int // transactions handed to the writer
	Matched   int // transactions paired with a response
	Unmatched int // transactions without a response
	Filtered  int // transactions dropped by the matcher

	// FilterErrors counts matcher failures. A failed evaluation drops the
	// transaction like a false result.
	FilterErrors int
}

// Formatter pairs requests with responses and writes one transaction per request.
type Formatter struct {
	normalizer *body.Normalizer
	corr       *correlator.Correlator
	writer     Writer
	matcher    Matcher
}

// New creates a formatter. A nil matcher emits every transaction.
func New(n *body.Normalizer, corr *correlator.Correlator, w Writer, m Matcher) *Formatter {
	return &Formatter{
		normalizer: n,
		corr:       corr,
		writer:     w,
		matcher:    m,
	}
}

// Format consumes src to the end. Transactions are written in the order their
// request lines arrive. Short lines are skipped; writer and source errors abort.
func (f *Formatter) Format(ctx context.Context, src dissector.LineSource) (Stats, error) {
	var stats Stats
	seenErrors := make(map[string]bool)
	err := src.Lines(ctx, func(line string) error {
		stats.Seen++
		tup, ok := dissector.ParseRequest(line)
		if !ok {
			stats.Skipped++
			slog.Debug("skipping short request line", slog.Int("line", stats.Seen))
			return nil
		}

		tx := f.Build(tup)
		if tx.Matched() {
			stats.Matched++
		} else {
			stats.Unmatched++
		}

		if f.matcher != nil {
			keep, err := f.matcher.Match(tx)
			if err != nil {
				stats.FilterErrors++
				if msg := err.Error(); !seenErrors[msg] {
					seenErrors[msg] = true
					slog.Warn("match filter failed, dropping transaction",
						slog.Int("line", stats.Seen),
						slog.String("error", msg),
					)
				}
				keep = false
			}
			if !keep {
				stats.Filtered++
				return nil
			}
		}

		if err := f.writer.Write(tx); err != nil {
			return fmt.Errorf("writing transaction: %w", err)
		}
		stats.Written++
		return nil
	})
	return stats, err
}

// Build decodes one request tuple and claims the oldest pending response of
// its stream. The claim happens even if the transaction is later filtered out.
func (f *Formatter) Build(tup dissector.RequestTuple) *Transaction {
	tx := &Transaction{
		SrcIP:       tup.SrcIP,
		SrcPort:     tup.SrcPort,
		DstIP:       tup.DstIP,
		DstPort:     tup.DstPort,
		Method:      tup.Method,
		URI:         tup.URI,
		URL:         ResolveURL(tup.FullURI, tup.Host, tup.URI),
		Host:        tup.Host,
		Version:     tup.Version,
		UserAgent:   tup.UserAgent,
		Referer:     tup.Referer,
		ContentType: tup.ContentType,
		RequestJSON: f.normalizer.Normalize(tup.Body),
	}

	tx.Time, tx.HasTime = ParseEpoch(tup.Timestamp)

	if stream, ok := correlator.ParseStream(tup.Stream); ok {
		tx.Stream, tx.HasStream = stream, true
		if r, ok := f.corr.Pop(stream); ok {
			tx.Response = &r
		}
	}
	return tx
}

// ResolveURL prefers the dissector's full URI, then host plus request-target,
// then the bare request-target. It returns "" when nothing is known.
func ResolveURL(fullURI, host, uri string) string {
	switch {
	case fullURI != "":
		return fullURI
	case host != "" && uri != "":
		return "http://" + host + uri
	default:
		return uri
	}
}

// ParseEpoch parses fractional seconds since the Unix epoch. Plain decimal input
// is parsed exactly to the nanosecond; other float syntax goes through float64.
func ParseEpoch(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	secPart, fracPart, hasFrac := strings.Cut(s, ".")
	if isDigits(secPart) && (!hasFrac || isDigits(fracPart)) {
		sec, err := strconv.ParseInt(secPart, 10, 64)
		if err == nil {
			var nsec int64
			if hasFrac {
				frac := (fracPart + "000000000")[:9]
				nsec, _ = strconv.ParseInt(frac, 10, 64)
			}
			return time.Unix(sec, nsec).UTC(), true
		}
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return time.Time{}, false
	}
	sec, frac := math.Modf(v)
	return time.Unix(int64(sec), int64(frac*1e9)).UTC(), true
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
