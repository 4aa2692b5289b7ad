package entity

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/idextract/constants"
)

// BuildResultJSONSchema returns the JSON Schema every serialized ExtractionResult satisfies.
func BuildResultJSONSchema() map[string]any {
	docTypes := []string{string(constants.DocUnknown)}
	for _, dt := range constants.DocumentTypes() {
		docTypes = append(docTypes, string(dt))
	}
	countries := []string{string(constants.CountryUnknown)}
	for _, c := range constants.Countries() {
		countries = append(countries, string(c))
	}

	text := map[string]any{"type": "string", "minLength": 1}
	date := map[string]any{"type": "string", "pattern": `^\d{4}-\d{2}-\d{2}$`}

	return map[string]any{
		"type":     "object",
		"required": []string{"document_type", "country", "personal_info", "document_info"},
		"properties": map[string]any{
			"document_type":   map[string]any{"type": "string", "enum": docTypes},
			"country":         map[string]any{"type": "string", "enum": countries},
			"document_number": map[string]any{"type": "string", "pattern": `^[A-Z0-9./-]+$`},
			"personal_info": map[string]any{
				"type":                 "object",
				"additionalProperties": false,
				"properties": map[string]any{
					"last_name":   text,
					"first_name":  text,
					"birth_date":  date,
					"birth_place": text,
					"gender":      map[string]any{"type": "string", "enum": []string{constants.GenderMale, constants.GenderFemale}},
					"nationality": text,
					"address":     text,
					"profession":  text,
				},
			},
			"document_info": map[string]any{
				"type":                 "object",
				"additionalProperties": false,
				"properties": map[string]any{
					"issue_date":        date,
					"expiry_date":       date,
					"issuing_authority": text,
				},
			},
			"additional_info": map[string]any{
				"type":                 "object",
				"additionalProperties": text,
			},
			"warnings": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		},
	}
}

var (
	resultSchemaOnce sync.Once
	resultSchema     *jsonschema.Schema
	resultSchemaErr  error
)

func compiledResultSchema() (*jsonschema.Schema, error) {
	resultSchemaOnce.Do(func() {
		resultSchema, resultSchemaErr = CompileSchema("result.json", BuildResultJSONSchema())
	})
	return resultSchema, resultSchemaErr
}

// CompileSchema compiles a schema held as a generic map.
func CompileSchema(name string, schemaMap map[string]any) (*jsonschema.Schema, error) {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}

// ValidateJSON checks raw JSON against a compiled schema.
func ValidateJSON(schema *jsonschema.Schema, data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}

// Validate serializes r and checks it against the result schema.
func (r *ExtractionResult) Validate() error {
	schema, err := compiledResultSchema()
	if err != nil {
		return err
	}
	b, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	return ValidateJSON(schema, b)
}
