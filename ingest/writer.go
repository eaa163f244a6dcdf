package ingest

import (
	"fmt"
	"path/filepath"

	"github.com/tidwall/sjson"

	"github.com/llmlogparser/llm-logparser/iofs"
)

// ThreadDir returns <outdir>/<provider>/thread-<conversationID>/, the
// directory a conversation's parsed.jsonl lives in (§4.6).
func ThreadDir(outdir, provider, conversationID string) string {
	return filepath.Join(outdir, provider, "thread-"+conversationID)
}

// WriteThread writes a conversation's parsed.jsonl atomically: first line
// is the thread meta, remaining lines are validated messages, each
// ASCII-escaped so the file is byte-stable across locales (§4.6, §8).
//
// Each message line is produced by marshaling the NormalizedMessage once
// through marshalASCII and then patching in provider_id/record_type with
// sjson.SetBytes, rather than re-marshaling a wrapper struct — this keeps
// the byte layout of the original marshal (which the ASCII-escape
// invariant depends on) untouched.
func WriteThread(fs iofs.Shim, outdir, provider string, conv Conversation) (string, error) {
	dir := ThreadDir(outdir, provider, conv.ConversationID)
	path := filepath.Join(dir, "parsed.jsonl")

	metaLine, err := marshalASCII(ThreadMeta{
		RecordType:     "thread",
		ProviderID:     provider,
		ConversationID: conv.ConversationID,
		MessageCount:   len(conv.Messages),
	})
	if err != nil {
		return "", &WriteError{ConversationID: conv.ConversationID, Path: path, Err: err}
	}

	lines := make([][]byte, 0, len(conv.Messages)+1)
	lines = append(lines, metaLine)

	for _, m := range conv.Messages {
		line, err := marshalASCII(m)
		if err != nil {
			return "", &WriteError{ConversationID: conv.ConversationID, Path: path, Err: err}
		}
		line, err = sjson.SetBytes(line, "provider_id", provider)
		if err != nil {
			return "", &WriteError{ConversationID: conv.ConversationID, Path: path, Err: fmt.Errorf("augment provider_id: %w", err)}
		}
		line, err = sjson.SetBytes(line, "record_type", "message")
		if err != nil {
			return "", &WriteError{ConversationID: conv.ConversationID, Path: path, Err: fmt.Errorf("augment record_type: %w", err)}
		}
		lines = append(lines, line)
	}

	if err := fs.WriteLinesAtomic(path, lines, 0o644); err != nil {
		return "", &WriteError{ConversationID: conv.ConversationID, Path: path, Err: err}
	}
	return path, nil
}

// TSRange returns the min/max ts across messages, for the manifest's
// index entry (§4.5's ThreadIndexEntry.TSMin/TSMax).
func TSRange(messages []NormalizedMessage) (min, max *int64) {
	if len(messages) == 0 {
		return nil, nil
	}
	lo, hi := messages[0].TS, messages[0].TS
	for _, m := range messages[1:] {
		if m.TS < lo {
			lo = m.TS
		}
		if m.TS > hi {
			hi = m.TS
		}
	}
	return &lo, &hi
}
