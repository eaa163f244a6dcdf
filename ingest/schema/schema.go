// Package schema gives the normalizer (§4.3) its "schema-validated" half:
// a JSON Schema document reflected once from a Go struct via
// invopop/jsonschema, checked against every candidate message/manifest
// with xeipuuv/gojsonschema. ingest.Validate runs this check after its own
// explicit field and ts-scale checks, as a structural backstop.
package schema

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/invopop/jsonschema"
	"github.com/xeipuuv/gojsonschema"
)

// messageShape mirrors ingest.NormalizedMessage's JSON encoding. It is a
// separate type (not an import of package ingest) so schema generation
// never creates an import cycle; the two are kept in sync by the shared
// json tags and by ingest/normalize_test.go's cross-check.
type messageShape struct {
	ConversationID string  `json:"conversation_id" jsonschema:"required,minLength=1"`
	MessageID      string  `json:"message_id" jsonschema:"required,minLength=1"`
	ParentID       *string `json:"parent_id,omitempty"`
	Role           string  `json:"role" jsonschema:"required,minLength=1"`
	TS             int64   `json:"ts" jsonschema:"required"`
	Content        struct {
		ContentType string   `json:"content_type" jsonschema:"required,minLength=1"`
		Parts       []string `json:"parts"`
	} `json:"content" jsonschema:"required"`
	Text string `json:"text"`
}

// manifestShape mirrors ingest.Manifest's JSON encoding, for manifest
// self-validation after load (§4.5).
type manifestShape struct {
	SchemaVersion int    `json:"schema_version" jsonschema:"required"`
	Provider      string `json:"provider" jsonschema:"required,minLength=1"`
	Policy        string `json:"policy"`
	ExportedAt    string `json:"exported_at" jsonschema:"required"`
	Index         struct {
		Threads []struct {
			ConversationID string `json:"conversation_id" jsonschema:"required,minLength=1"`
			Path           string `json:"path" jsonschema:"required,minLength=1"`
			Count          int    `json:"count"`
			TSMin          *int64 `json:"ts_min,omitempty"`
			TSMax          *int64 `json:"ts_max,omitempty"`
		} `json:"threads"`
	} `json:"index" jsonschema:"required"`
}

var (
	once          sync.Once
	messageSchema *gojsonschema.Schema

	manifestOnce   sync.Once
	manifestSchema *gojsonschema.Schema

	initErr error
)

func compile(v any) (*gojsonschema.Schema, error) {
	reflector := jsonschema.Reflector{
		DoNotReference:            true,
		RequiredFromJSONSchemaTags: true,
	}
	doc := reflector.Reflect(v)
	b, err := doc.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("marshal reflected schema: %w", err)
	}
	s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(b))
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return s, nil
}

func messageSchemaDoc() (*gojsonschema.Schema, error) {
	once.Do(func() {
		messageSchema, initErr = compile(&messageShape{})
	})
	return messageSchema, initErr
}

func manifestSchemaDoc() (*gojsonschema.Schema, error) {
	var err error
	manifestOnce.Do(func() {
		manifestSchema, err = compile(&manifestShape{})
	})
	if manifestSchema == nil {
		return nil, err
	}
	return manifestSchema, nil
}

// ValidateMessage JSON-marshals v and validates it against the reflected
// NormalizedMessage schema. v must marshal to the same shape as
// messageShape (ingest.NormalizedMessage does, by shared json tags).
func ValidateMessage(v any) error {
	s, err := messageSchemaDoc()
	if err != nil {
		return fmt.Errorf("load message schema: %w", err)
	}
	return validateAgainst(s, v)
}

// ValidateManifest JSON-marshals v and validates it against the reflected
// Manifest schema.
func ValidateManifest(v any) error {
	s, err := manifestSchemaDoc()
	if err != nil {
		return fmt.Errorf("load manifest schema: %w", err)
	}
	return validateAgainst(s, v)
}

func validateAgainst(s *gojsonschema.Schema, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal candidate: %w", err)
	}
	result, err := s.Validate(gojsonschema.NewBytesLoader(b))
	if err != nil {
		return fmt.Errorf("run validation: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("schema violations: %s", strings.Join(msgs, "; "))
	}
	return nil
}

// MessageSchemaJSON returns the reflected NormalizedMessage schema as
// pretty-printed JSON. The CLI has no flag that prints it.
func MessageSchemaJSON() ([]byte, error) {
	reflector := jsonschema.Reflector{DoNotReference: true, RequiredFromJSONSchemaTags: true}
	doc := reflector.Reflect(&messageShape{})
	return json.MarshalIndent(doc, "", "  ")
}
