package schema

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Validator checks jsonl records against the generated schema.
type Validator struct {
	schema *jsonschema.Schema
}

// LineError is a validation failure on one line of a jsonl stream.
type LineError struct {
	Line   int
	Errors []string
}

func (e LineError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, strings.Join(e.Errors, "; "))
}

// NewValidator compiles the generated record schema.
func NewValidator() (*Validator, error) {
	schemaJSON, err := JSON()
	if err != nil {
		return nil, fmt.Errorf("marshaling schema: %w", err)
	}

	var schemaValue any
	if err := json.Unmarshal(schemaJSON, &schemaValue); err != nil {
		return nil, fmt.Errorf("unmarshaling schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(SchemaID, schemaValue); err != nil {
		return nil, fmt.Errorf("adding schema resource: %w", err)
	}

	compiled, err := compiler.Compile(SchemaID)
	if err != nil {
		return nil, fmt.Errorf("compiling schema: %w", err)
	}

	return &Validator{schema: compiled}, nil
}

// Validate checks one encoded record.
func (v *Validator) Validate(data []byte) []string {
	var value any
	if err := json.Unmarshal(data, &value); err != nil {
		return []string{fmt.Sprintf("invalid JSON: %s", err.Error())}
	}

	err := v.schema.Validate(value)
	if err == nil {
		return nil
	}
	return extractValidationErrors(err)
}

// ValidateStream checks every non-empty line of r. It returns the number of
// records read and one LineError per invalid record.
func (v *Validator) ValidateStream(r io.Reader) (int, []LineError, error) {
	br := bufio.NewReaderSize(r, 64*1024)
	var (
		records int
		lineNo  int
		failed  []LineError
	)
	for {
		line, err := br.ReadBytes('\n')
		if len(line) > 0 {
			lineNo++
			if trimmed := strings.TrimSpace(string(line)); trimmed != "" {
				records++
				if errs := v.Validate([]byte(trimmed)); len(errs) > 0 {
					failed = append(failed, LineError{Line: lineNo, Errors: errs})
				}
			}
		}
		if err == io.EOF {
			return records, failed, nil
		}
		if err != nil {
			return records, failed, fmt.Errorf("reading records: %w", err)
		}
	}
}

// Summary renders a one-line human summary of a stream validation.
func Summary(records int, failed []LineError) string {
	if len(failed) == 0 {
		return printer.Sprintf("%d records valid", records)
	}
	return printer.Sprintf("%d of %d records invalid", len(failed), records)
}

// printer is a default English printer for localized messages.
var printer = message.NewPrinter(language.English)

// extractValidationErrors flattens a validation error into its leaf messages.
func extractValidationErrors(err error) []string {
	var validationErr *jsonschema.ValidationError
	if !errors.As(err, &validationErr) {
		return []string{err.Error()}
	}

	var result []string
	collectErrors(validationErr, &result)
	if len(result) == 0 {
		return []string{err.Error()}
	}
	return result
}

// collectErrors recursively collects leaf errors (those without causes).
func collectErrors(err *jsonschema.ValidationError, out *[]string) {
	if err.ErrorKind != nil && len(err.Causes) == 0 {
		path := "/" + strings.Join(err.InstanceLocation, "/")
		*out = append(*out, fmt.Sprintf("%s: %s", path, err.ErrorKind.LocalizedString(printer)))
	}
	for _, cause := range err.Causes {
		collectErrors(cause, out)
	}
}
