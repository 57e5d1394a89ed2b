package llm

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// statementSchema is the shape the model must answer with. It mirrors the
// StatementResult JSON, with amounts accepted as numbers or numeric strings.
var statementSchema = map[string]any{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type":    "object",
	"properties": map[string]any{
		"account_info": map[string]any{
			"type": []any{"object", "null"},
			"properties": map[string]any{
				"account_number": map[string]any{"type": []any{"string", "null"}},
				"account_holder": map[string]any{"type": []any{"string", "null"}},
				"bank_name":      map[string]any{"type": []any{"string", "null"}},
			},
		},
		"transactions": map[string]any{
			"type":     "array",
			"minItems": 1,
			"items": map[string]any{
				"type":     "object",
				"required": []any{"date", "description", "amount", "type"},
				"properties": map[string]any{
					"date":        map[string]any{"type": "string", "minLength": 1},
					"description": map[string]any{"type": "string"},
					"amount":      moneySchema(false),
					"balance":     moneySchema(true),
					"type":        map[string]any{"type": "string", "enum": []any{"credit", "debit"}},
				},
			},
		},
	},
	"required": []any{"transactions"},
}

func moneySchema(nullable bool) map[string]any {
	alts := []any{
		map[string]any{"type": "number"},
		map[string]any{"type": "string", "pattern": `^\s*[-+]?[$£€]?\s*-?[0-9][0-9,]*(\.[0-9]+)?\s*$`},
	}
	if nullable {
		alts = append(alts, map[string]any{"type": "null"})
	}
	return map[string]any{"anyOf": alts}
}

// compileSchema compiles a schema given as a Go map.
func compileSchema(schemaMap map[string]any) (*jsonschema.Schema, error) {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("statement.json", bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("statement.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}

// validateJSON checks data against schema.
func validateJSON(schema *jsonschema.Schema, data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}

func mustJSON(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		panic(err)
	}
	return string(b)
}
