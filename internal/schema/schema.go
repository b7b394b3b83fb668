// Package schema describes and validates the jsonl transaction record.
package schema

import (
	"encoding/json"
	"reflect"

	"github.com/invopop/jsonschema"

	"github.com/usestring/tsharklog/internal/format"
)

// SchemaID identifies the generated schema.
const SchemaID = "https://github.com/usestring/tsharklog/record.schema.json"

var rawMessageType = reflect.TypeOf(json.RawMessage{})

// Generate reflects format.Record into a JSON Schema (Draft 2020-12).
// Body fields accept any JSON value.
func Generate() *jsonschema.Schema {
	r := &jsonschema.Reflector{
		ExpandedStruct: true,
		DoNotReference: true,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t == rawMessageType {
				return &jsonschema.Schema{}
			}
			return nil
		},
	}
	s := r.Reflect(&format.Record{})
	s.ID = jsonschema.ID(SchemaID)
	s.Title = "tsharklog transaction record"
	s.Description = "One HTTP request paired with at most one response, as emitted by --format jsonl."
	return s
}

// JSON returns the generated schema as indented JSON.
func JSON() ([]byte, error) {
	return json.MarshalIndent(Generate(), "", "  ")
}
