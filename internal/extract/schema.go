package extract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/loan-intake/constants"
)

var (
	compiledOnce   sync.Once
	compiledSchema *jsonschema.Schema
	compileErr     error
)

// SchemaDocument builds the JSON Schema of the stored extraction document from
// the field table. Unknown fields are not allowed.
func SchemaDocument() map[string]any {
	props := map[string]any{}
	for _, f := range fieldTable {
		if f.kind == KindFlag {
			continue
		}
		props[string(f.name)] = kindSchema(f.kind)
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []string{"version", "fields", "purposes"},
		"properties": map[string]any{
			"version": map[string]any{"const": SchemaVersion},
			"fields": map[string]any{
				"type":                 "object",
				"additionalProperties": false,
				"properties":           props,
			},
			"purposes": map[string]any{
				"type":        "array",
				"uniqueItems": true,
				"items":       map[string]any{"enum": constants.PurposesAsStrings()},
			},
		},
	}
}

func kindSchema(k Kind) map[string]any {
	switch k {
	case KindDate:
		return map[string]any{"type": "string", "pattern": `^\d{4}-\d{2}-\d{2}$`}
	case KindDecimal:
		return map[string]any{"type": "number"}
	case KindInteger:
		return map[string]any{"type": "integer"}
	default:
		return map[string]any{"type": "string", "minLength": 1}
	}
}

func schema() (*jsonschema.Schema, error) {
	compiledOnce.Do(func() {
		b, err := json.Marshal(SchemaDocument())
		if err != nil {
			compileErr = fmt.Errorf("marshal schema: %w", err)
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("extracted_fields.json", bytes.NewReader(b)); err != nil {
			compileErr = fmt.Errorf("add schema: %w", err)
			return
		}
		compiledSchema, compileErr = compiler.Compile("extracted_fields.json")
		if compileErr != nil {
			compileErr = fmt.Errorf("compile schema: %w", compileErr)
		}
	})
	return compiledSchema, compileErr
}

// ValidateDocument checks a stored extraction document against the schema.
func ValidateDocument(data []byte) error {
	s, err := schema()
	if err != nil {
		return err
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := s.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}

// Document marshals s and validates the result before it is persisted.
func (s FieldSet) Document() ([]byte, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	if err := ValidateDocument(b); err != nil {
		return nil, err
	}
	return b, nil
}
