package ingest

// Content holds the provider-reported content type and the ordered text
// parts a message was built from. Parts are kept verbatim; sanitization
// (§4.3) is applied only to derived display strings, never stored here.
type Content struct {
	ContentType string   `json:"content_type"`
	Parts       []string `json:"parts"`
}

// NormalizedMessage is the canonical unit crossing the provider adapter
// into the normalizer, grouper, writer and renderer. All fields are
// required once a message survives the adapter (§3); ts is always
// epoch milliseconds.
type NormalizedMessage struct {
	ConversationID string  `json:"conversation_id"`
	MessageID      string  `json:"message_id"`
	ParentID       *string `json:"parent_id,omitempty"`
	Role           string  `json:"role"`
	TS             int64   `json:"ts"`
	Content        Content `json:"content"`
	Text           string  `json:"text"`
}

// ThreadMeta is the first line written to a thread's parsed.jsonl file.
type ThreadMeta struct {
	RecordType     string `json:"record_type"`
	ProviderID     string `json:"provider_id"`
	ConversationID string `json:"conversation_id"`
	MessageCount   int    `json:"message_count"`
}

// ThreadMessageRecord is a NormalizedMessage augmented with the fields
// that make parsed.jsonl lines self-describing after the first line.
type ThreadMessageRecord struct {
	NormalizedMessage
	ProviderID string `json:"provider_id"`
	RecordType string `json:"record_type"`
}

// Conversation is a fully linearized, grouped thread: a total order over
// NormalizedMessage produced by a Provider's linearizer (§4.2) and
// re-confirmed by the grouper's stable sort (§4.4).
type Conversation struct {
	ConversationID string
	Messages       []NormalizedMessage
}
