package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/n42-extract/internal/entity"
)

const classificationPattern = `^(<MDA|-?[0-9]+\.[0-9]{4} ± -?[0-9]+\.[0-9]{4})$`

// rowsSchema describes the JSON array WriteJSON emits.
var rowsSchema = map[string]any{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type":    "array",
	"items": map[string]any{
		"type": "object",
		"required": []string{
			"alpha_activity", "beta_activity", "rn222_activity", "rn222_concentration",
			"record_datetime", "flow_rate", "differential_pressure",
		},
		"additionalProperties": false,
		"properties": map[string]any{
			"alpha_activity":        map[string]any{"type": "string", "pattern": classificationPattern},
			"beta_activity":         map[string]any{"type": "string", "pattern": classificationPattern},
			"rn222_activity":        map[string]any{"type": "string", "pattern": classificationPattern},
			"rn222_concentration":   map[string]any{"type": "string", "pattern": classificationPattern},
			"record_datetime":       map[string]any{"type": []string{"string", "null"}},
			"flow_rate":             map[string]any{"type": []string{"string", "null"}},
			"differential_pressure": map[string]any{"type": []string{"string", "null"}},
		},
	},
}

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

func schema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		b, err := json.Marshal(rowsSchema)
		if err != nil {
			compileErr = fmt.Errorf("marshal schema: %w", err)
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("rows.json", bytes.NewReader(b)); err != nil {
			compileErr = fmt.Errorf("add schema: %w", err)
			return
		}
		compiled, compileErr = compiler.Compile("rows.json")
	})
	return compiled, compileErr
}

// ValidateJSON checks that data is a JSON array of rows.
func ValidateJSON(data []byte) error {
	s, err := schema()
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
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

// WriteJSON writes rows to w as an indented JSON array, validated before writing.
func WriteJSON(w io.Writer, rows []entity.Row) error {
	if rows == nil {
		rows = []entity.Row{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rows); err != nil {
		return fmt.Errorf("marshal rows: %w", err)
	}
	if err := ValidateJSON(buf.Bytes()); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}
