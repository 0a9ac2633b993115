// Package schema validates forge project descriptions against an
// embedded draft-07 JSON Schema, strips JSONC comments, resolves
// dotted-key overrides, and decodes the result into the typed
// internal/model entities.
package schema

import (
	"embed"
	"fmt"

	"github.com/xeipuuv/gojsonschema"

	"github.com/forgebuild/forge/internal/logging"
	"github.com/forgebuild/forge/internal/model"
)

//go:embed schemadata/forge.schema.json
var schemaFS embed.FS

const schemaPath = "schemadata/forge.schema.json"

// EmbeddedSchema returns the bytes of the built-in draft-07 schema.
func EmbeddedSchema() ([]byte, error) {
	return schemaFS.ReadFile(schemaPath)
}

// ValidateDraft07 validates docJSON (already comment-stripped) against the
// embedded schema, returning one Diagnostic per violation reported by
// gojsonschema — the SchemaValidation error kind, reported with a JSON
// pointer path.
func ValidateDraft07(file string, docJSON []byte) (model.Diagnostics, error) {
	schemaBytes, err := EmbeddedSchema()
	if err != nil {
		return nil, fmt.Errorf("loading embedded schema: %w", err)
	}

	schemaLoader := gojsonschema.NewBytesLoader(schemaBytes)
	docLoader := gojsonschema.NewBytesLoader(docJSON)

	result, err := gojsonschema.Validate(schemaLoader, docLoader)
	if err != nil {
		return nil, fmt.Errorf("running schema validation: %w", err)
	}

	if result.Valid() {
		return nil, nil
	}

	log := logging.For("schema")
	diags := make(model.Diagnostics, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		d := model.Diagnostic{
			File:     file,
			Key:      e.Field(),
			Reason:   e.Description(),
			Kind:     model.KindSchemaValidation,
			Severity: model.SeverityError,
		}
		log.Debug().Str("key", d.Key).Str("reason", d.Reason).Msg("schema violation")
		diags = append(diags, d)
	}
	return diags, nil
}
