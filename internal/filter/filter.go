// Package filter selects transactions with a jq predicate.
package filter

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/itchyny/gojq"

	"github.com/usestring/tsharklog/internal/format"
)

// Filter evaluates a compiled jq expression against the structured record of
// each transaction (the same object the jsonl format emits).
type Filter struct {
	expr string
	code *gojq.Code
}

// Compile parses and compiles a jq expression.
func Compile(expression string) (*Filter, error) {
	query, err := gojq.Parse(expression)
	if err != nil {
		var parseErr *gojq.ParseError
		if errors.As(err, &parseErr) {
			return nil, fmt.Errorf("invalid jq expression at position %d: %w", parseErr.Offset, err)
		}
		return nil, fmt.Errorf("invalid jq expression: %w", err)
	}

	code, err := gojq.Compile(query)
	if err != nil {
		return nil, fmt.Errorf("failed to compile jq expression: %w", err)
	}

	return &Filter{expr: expression, code: code}, nil
}

// String returns the source expression.
func (f *Filter) String() string {
	return f.expr
}

// Match reports whether the first result of the expression is truthy
// (anything but null and false). An expression with no output does not match.
func (f *Filter) Match(tx *format.Transaction) (bool, error) {
	input, err := toJQInput(tx.Record())
	if err != nil {
		return false, err
	}
	return f.MatchValue(input)
}

// MatchValue evaluates the expression against an already decoded JSON value.
func (f *Filter) MatchValue(input any) (bool, error) {
	iter := f.code.Run(input)
	v, ok := iter.Next()
	if !ok {
		return false, nil
	}
	if err, isErr := v.(error); isErr {
		return false, formatJQError(err)
	}
	return truthy(v), nil
}

// toJQInput round-trips the record through JSON so gojq sees plain maps,
// slices and float64 numbers.
func toJQInput(rec format.Record) (any, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encoding record: %w", err)
	}
	var input any
	if err := json.Unmarshal(data, &input); err != nil {
		return nil, fmt.Errorf("decoding record: %w", err)
	}
	return input, nil
}

func truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	default:
		return true
	}
}

// formatJQError adds hints for common runtime errors. gojq reports them as
// plain errors, so the hint is chosen by message text.
func formatJQError(err error) error {
	var haltErr *gojq.HaltError
	if errors.As(err, &haltErr) {
		if haltErr.Value() == nil {
			return errors.New("query halted")
		}
		return fmt.Errorf("query halted with: %v", haltErr.Value())
	}

	errStr := err.Error()
	var hint string
	switch {
	case strings.Contains(errStr, "cannot iterate over: null"):
		hint = " (the path may not exist in this transaction)"
	case strings.Contains(errStr, "cannot index") && strings.Contains(errStr, "with"):
		hint = " (field not found or wrong type)"
	}
	return fmt.Errorf("%s%s", errStr, hint)
}
