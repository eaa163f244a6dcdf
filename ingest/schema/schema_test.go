package schema

import "testing"

func TestValidateMessage_Accepts(t *testing.T) {
	t.Parallel()

	m := messageShape{
		ConversationID: "conv-1",
		MessageID:      "msg-1",
		Role:           "user",
		TS:             1700000000000,
	}
	m.Content.ContentType = "text"
	m.Content.Parts = []string{"hi"}

	if err := ValidateMessage(m); err != nil {
		t.Fatalf("ValidateMessage(valid) = %v, want nil", err)
	}
}

func TestValidateMessage_RejectsWrongType(t *testing.T) {
	t.Parallel()

	// ts as a string instead of a number must fail structural validation.
	bad := map[string]any{
		"conversation_id": "conv-1",
		"message_id":      "msg-1",
		"role":            "user",
		"ts":              "not-a-number",
		"content": map[string]any{
			"content_type": "text",
			"parts":        []string{"hi"},
		},
	}
	if err := ValidateMessage(bad); err == nil {
		t.Fatal("ValidateMessage(bad ts type) = nil, want error")
	}
}

func TestValidateMessage_RejectsMissingRequired(t *testing.T) {
	t.Parallel()

	bad := map[string]any{
		"message_id": "msg-1",
		"role":       "user",
		"ts":         1700000000000,
		"content": map[string]any{
			"content_type": "text",
		},
	}
	if err := ValidateMessage(bad); err == nil {
		t.Fatal("ValidateMessage(missing conversation_id) = nil, want error")
	}
}

func TestValidateManifest_Accepts(t *testing.T) {
	t.Parallel()

	var m manifestShape
	m.SchemaVersion = 1
	m.Provider = "openai"
	m.ExportedAt = "2026-01-01T00:00:00Z"
	m.Index.Threads = []struct {
		ConversationID string `json:"conversation_id" jsonschema:"required,minLength=1"`
		Path           string `json:"path" jsonschema:"required,minLength=1"`
		Count          int    `json:"count"`
		TSMin          *int64 `json:"ts_min,omitempty"`
		TSMax          *int64 `json:"ts_max,omitempty"`
	}{
		{ConversationID: "conv-1", Path: "conv-1.jsonl", Count: 3},
	}

	if err := ValidateManifest(m); err != nil {
		t.Fatalf("ValidateManifest(valid) = %v, want nil", err)
	}
}

func TestMessageSchemaJSON_Valid(t *testing.T) {
	t.Parallel()

	b, err := MessageSchemaJSON()
	if err != nil {
		t.Fatalf("MessageSchemaJSON: %v", err)
	}
	if len(b) == 0 {
		t.Fatal("MessageSchemaJSON returned empty document")
	}
}
