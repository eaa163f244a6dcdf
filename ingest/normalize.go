package ingest

import (
	"fmt"

	"github.com/llmlogparser/llm-logparser/ingest/schema"
)

// epochMsFloor is the threshold above which a numeric timestamp is treated
// as already expressed in milliseconds (§3 invariant 2).
const epochMsFloor = 1e12

// NormalizeTS converts a raw timestamp (seconds or already-milliseconds,
// integer or fractional) into epoch milliseconds.
func NormalizeTS(raw float64) int64 {
	if raw >= epochMsFloor {
		return int64(raw)
	}
	return int64(raw * 1000)
}

// Validate checks the §3 invariants in order of specificity: the named
// required fields and the ts-scale invariant first (so a caller learns
// exactly which field is empty or malformed), then the reflected JSON
// Schema via ingest/schema as a structural backstop (wrong field types,
// non-string content parts) for whatever the explicit checks don't cover.
//
// On failure it returns a *ValidationError describing the first violated
// field; callers decide whether that is fatal (fail_fast) or merely
// counted (§7).
func Validate(m NormalizedMessage) error {
	if m.ConversationID == "" {
		return &ValidationError{ConversationID: m.ConversationID, MessageID: m.MessageID, Field: "conversation_id", Err: fmt.Errorf("must not be empty")}
	}
	if m.MessageID == "" {
		return &ValidationError{ConversationID: m.ConversationID, MessageID: m.MessageID, Field: "message_id", Err: fmt.Errorf("must not be empty")}
	}
	if m.Role == "" {
		return &ValidationError{ConversationID: m.ConversationID, MessageID: m.MessageID, Field: "role", Err: fmt.Errorf("must not be empty")}
	}
	if m.TS < int64(epochMsFloor)/10 {
		// A generous lower bound: genuine epoch-ms timestamps for any
		// plausible conversation export date are comfortably above 1e11.
		return &ValidationError{ConversationID: m.ConversationID, MessageID: m.MessageID, Field: "ts", Err: fmt.Errorf("ts=%d is not epoch-ms scale", m.TS)}
	}
	if m.Content.ContentType == "" {
		return &ValidationError{ConversationID: m.ConversationID, MessageID: m.MessageID, Field: "content.content_type", Err: fmt.Errorf("must not be empty")}
	}
	if err := schema.ValidateMessage(m); err != nil {
		return &ValidationError{ConversationID: m.ConversationID, MessageID: m.MessageID, Field: "schema", Err: err}
	}
	return nil
}
