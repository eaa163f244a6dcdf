package ingest

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/llmlogparser/llm-logparser/ingest/schema"
	"github.com/llmlogparser/llm-logparser/iofs"
)

const SchemaVersion = 1

// ThreadIndexEntry is one row of a Manifest's index (§4.5).
type ThreadIndexEntry struct {
	ConversationID string `json:"conversation_id"`
	Path           string `json:"path"`
	Count          int    `json:"count"`
	TSMin          *int64 `json:"ts_min,omitempty"`
	TSMax          *int64 `json:"ts_max,omitempty"`
}

// Manifest is the per-provider ledger written atomically to
// <outdir>/<provider>/manifest.json (§4.5).
type Manifest struct {
	SchemaVersion int    `json:"schema_version"`
	Provider      string `json:"provider"`
	Policy        string `json:"policy"`
	ExportedAt    string `json:"exported_at"`
	Index         struct {
		Threads []ThreadIndexEntry `json:"threads"`
	} `json:"index"`
}

// Validate runs the manifest through its reflected JSON Schema (§4.5,
// "defends against hand-edited or foreign-tool-written manifests before
// the skip decision trusts their count fields").
func (m Manifest) Validate() error {
	if err := schema.ValidateManifest(m); err != nil {
		return fmt.Errorf("manifest failed schema validation: %w", err)
	}
	return nil
}

func (m Manifest) byConversation() map[string]ThreadIndexEntry {
	out := make(map[string]ThreadIndexEntry, len(m.Index.Threads))
	for _, t := range m.Index.Threads {
		out[t.ConversationID] = t
	}
	return out
}

// LoadManifest reads and validates the manifest at <outdir>/<provider>/manifest.json.
// A missing file is not an error: it returns a zero-value Manifest so a
// first run has nothing to compare against.
func LoadManifest(fs iofs.Shim, path string) (Manifest, error) {
	var m Manifest
	if !fs.Exists(path) {
		return m, nil
	}
	b, err := fs.ReadFile(path)
	if err != nil {
		return m, &InputError{Path: path, Err: err}
	}
	if err := json.Unmarshal(b, &m); err != nil {
		return m, &InputError{Path: path, Err: fmt.Errorf("parse manifest: %w", err)}
	}
	if err := m.Validate(); err != nil {
		return m, &InputError{Path: path, Err: err}
	}
	return m, nil
}

// ShouldSkip implements the §4.5 skip decision: skip the thread iff the
// prior manifest has an entry for conversationID with the same count.
func ShouldSkip(prior Manifest, conversationID string, newCount int) bool {
	entry, ok := prior.byConversation()[conversationID]
	return ok && entry.Count == newCount
}

// ThreadResult is what each per-conversation worker reports back to the
// run's manifest finalizer (§5 "Shared resources").
type ThreadResult struct {
	ConversationID string
	Path           string
	Count          int
	TSMin          *int64
	TSMax          *int64
	Skipped        bool
}

// BuildManifest merges prior entries for skipped threads with fresh
// entries for written threads, preserving §4.5's "old entry is
// preserved" rule for skipped conversations.
func BuildManifest(prior Manifest, provider, policy string, results []ThreadResult, now time.Time) Manifest {
	priorByID := prior.byConversation()
	var out Manifest
	out.SchemaVersion = SchemaVersion
	out.Provider = provider
	out.Policy = policy
	out.ExportedAt = now.UTC().Format(time.RFC3339)

	seen := make(map[string]bool, len(results))
	for _, r := range results {
		seen[r.ConversationID] = true
		if r.Skipped {
			if prev, ok := priorByID[r.ConversationID]; ok {
				out.Index.Threads = append(out.Index.Threads, prev)
				continue
			}
		}
		out.Index.Threads = append(out.Index.Threads, ThreadIndexEntry{
			ConversationID: r.ConversationID,
			Path:           r.Path,
			Count:          r.Count,
			TSMin:          r.TSMin,
			TSMax:          r.TSMax,
		})
	}
	// Conversations present in the prior manifest but absent from this
	// run's input (e.g. a smaller re-export) are retained verbatim so a
	// partial re-run never loses index history.
	for id, prev := range priorByID {
		if !seen[id] {
			out.Index.Threads = append(out.Index.Threads, prev)
		}
	}
	return out
}

// Save serializes m to <outdir>/<provider>/manifest.json via a
// temp-file-in-same-dir + rename (§4.5 "Atomic write"). Like parsed.jsonl
// (§4.6), the manifest is ASCII-escaped so its bytes are locale-independent.
func Save(fs iofs.Shim, outdir, provider string, m Manifest) error {
	path := filepath.Join(outdir, provider, "manifest.json")
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	b = escapeASCII(b)
	b = append(b, '\n')
	if err := fs.WriteFileAtomic(path, b, 0o644); err != nil {
		return &WriteError{ConversationID: "", Path: path, Err: err}
	}
	return nil
}
