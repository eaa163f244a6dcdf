package ingest

import (
	"errors"
	"testing"
)

func TestNormalizeTS(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   float64
		want int64
	}{
		{"seconds integer", 1700000000, 1700000000000},
		{"seconds fractional", 1700000000.5, 1700000000500},
		{"already milliseconds", 1700000000000, 1700000000000},
		{"just below floor treated as seconds", 999999999999, 999999999999000},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := NormalizeTS(tc.in); got != tc.want {
				t.Fatalf("NormalizeTS(%v) = %d, want %d", tc.in, got, tc.want)
			}
		})
	}
}

func validMessage() NormalizedMessage {
	return NormalizedMessage{
		ConversationID: "conv-1",
		MessageID:      "msg-1",
		Role:           "user",
		TS:             1700000000000,
		Content:        Content{ContentType: "text", Parts: []string{"hello"}},
		Text:           "hello",
	}
}

func TestValidate_Accepts(t *testing.T) {
	t.Parallel()
	if err := Validate(validMessage()); err != nil {
		t.Fatalf("Validate(valid) = %v, want nil", err)
	}
}

func TestValidate_RejectsMissingFields(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		mutate  func(m NormalizedMessage) NormalizedMessage
		wantErr string
	}{
		{"empty conversation id", func(m NormalizedMessage) NormalizedMessage { m.ConversationID = ""; return m }, "conversation_id"},
		{"empty message id", func(m NormalizedMessage) NormalizedMessage { m.MessageID = ""; return m }, "message_id"},
		{"empty role", func(m NormalizedMessage) NormalizedMessage { m.Role = ""; return m }, "role"},
		{"empty content type", func(m NormalizedMessage) NormalizedMessage { m.Content.ContentType = ""; return m }, "content.content_type"},
		{"ts not epoch-ms scale", func(m NormalizedMessage) NormalizedMessage { m.TS = 42; return m }, "ts"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := Validate(tc.mutate(validMessage()))
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Validate() = %v, want *ValidationError", err)
			}
			if verr.Field != tc.wantErr {
				t.Fatalf("ValidationError.Field = %q, want %q", verr.Field, tc.wantErr)
			}
		})
	}
}
