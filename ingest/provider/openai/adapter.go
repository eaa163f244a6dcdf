// Package openai adapts OpenAI ChatGPT-style conversation exports
// (mapping-graph shape) into ingest.NormalizedMessage sequences (§4.2).
package openai

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/llmlogparser/llm-logparser/ingest"
	"github.com/llmlogparser/llm-logparser/ingest/provider"
)

func init() {
	provider.Register("openai", func() ingest.Provider { return Adapter{} })
}

// Adapter implements ingest.Provider for OpenAI-shaped exports.
type Adapter struct{}

func (Adapter) Name() string   { return "openai" }
func (Adapter) Policy() string { return "openai-mapping-v1" }

type rawConversation struct {
	ConversationID string                `json:"conversation_id"`
	ID             string                `json:"id"`
	UUID           string                `json:"uuid"`
	Title          string                `json:"title"`
	CreateTime     *float64              `json:"create_time"`
	Mapping        map[string]rawMapNode `json:"mapping"`
}

type rawMapNode struct {
	ID       string      `json:"id"`
	Message  *rawMessage `json:"message"`
	Parent   *string     `json:"parent"`
	Children []string    `json:"children"`
}

type rawMessage struct {
	ID         string          `json:"id"`
	Author     rawAuthor       `json:"author"`
	CreateTime *float64        `json:"create_time"`
	Content    json.RawMessage `json:"content"`
}

type rawAuthor struct {
	Role string `json:"role"`
}

// Normalize linearizes one conversation-shaped record (§4.2). The
// second return value counts nodes with a message body that were
// dropped before reaching the output (missing create_time or empty
// message id), so callers can fold them into their own skip counts.
func (a Adapter) Normalize(ctx context.Context, rec ingest.RawRecord, sourceStem string) ([]ingest.NormalizedMessage, int, error) {
	var conv rawConversation
	if err := json.Unmarshal(rec.Raw(), &conv); err != nil {
		return nil, 0, &ingest.AdapterError{Err: fmt.Errorf("unmarshal conversation: %w", err)}
	}

	convID := resolveConversationID(conv, sourceStem)

	order, err := linearize(conv.Mapping)
	if err != nil {
		return nil, 0, &ingest.AdapterError{ConversationID: convID, Err: err}
	}

	dropped := 0
	out := make([]ingest.NormalizedMessage, 0, len(order))
	for _, id := range order {
		node := conv.Mapping[id]
		if node.Message == nil {
			continue
		}
		m, ok := emit(convID, node)
		if !ok {
			dropped++
			continue
		}
		out = append(out, m)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return lessByTSThenID(out[i], out[j])
	})
	return out, dropped, nil
}

func lessByTSThenID(a, b ingest.NormalizedMessage) bool {
	if a.TS != b.TS {
		return a.TS < b.TS
	}
	return a.MessageID < b.MessageID
}

// resolveConversationID implements the §4.2 fallback chain:
// conversation_id, id, uuid; else the source filename stem; else a
// 12-hex-digit hash of title|create_time; else "unknown".
func resolveConversationID(conv rawConversation, sourceStem string) string {
	for _, candidate := range []string{conv.ConversationID, conv.ID, conv.UUID} {
		if strings.TrimSpace(candidate) != "" {
			return candidate
		}
	}
	if strings.TrimSpace(sourceStem) != "" {
		return sourceStem
	}
	ct := 0.0
	if conv.CreateTime != nil {
		ct = *conv.CreateTime
	}
	sum := sha1.Sum([]byte(fmt.Sprintf("%s|%v", conv.Title, ct)))
	if h := hex.EncodeToString(sum[:])[:12]; h != "" {
		return h
	}
	return "unknown"
}

// linearize builds the children graph from conv.Mapping and returns node
// ids in BFS, time-stable order per §4.2.
func linearize(mapping map[string]rawMapNode) ([]string, error) {
	if len(mapping) == 0 {
		return nil, nil
	}

	children := buildChildrenMap(mapping)
	roots := findRoots(mapping)

	sortSiblings(roots, mapping)

	visited := make(map[string]bool, len(mapping))
	order := make([]string, 0, len(mapping))
	queue := append([]string(nil), roots...)

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if visited[id] {
			continue
		}
		visited[id] = true
		order = append(order, id)

		kids := append([]string(nil), children[id]...)
		sortSiblings(kids, mapping)
		queue = append(queue, kids...)
	}

	// Safety net for cycles/dangling parents (§4.2): append unreached
	// nodes in their insertion-order (map iteration is randomized in Go,
	// so fall back to a sorted-by-id pass for determinism).
	if len(order) < len(mapping) {
		var leftover []string
		for id := range mapping {
			if !visited[id] {
				leftover = append(leftover, id)
			}
		}
		sort.Strings(leftover)
		order = append(order, leftover...)
	}

	return order, nil
}

// buildChildrenMap prefers explicit Children lists; if none exist
// anywhere in the mapping, it is reconstructed from Parent back-pointers.
func buildChildrenMap(mapping map[string]rawMapNode) map[string][]string {
	hasExplicit := false
	for _, n := range mapping {
		if len(n.Children) > 0 {
			hasExplicit = true
			break
		}
	}

	children := make(map[string][]string, len(mapping))
	if hasExplicit {
		for id, n := range mapping {
			if len(n.Children) > 0 {
				children[id] = append(children[id], n.Children...)
			}
		}
		return children
	}

	ids := make([]string, 0, len(mapping))
	for id := range mapping {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		n := mapping[id]
		if n.Parent != nil && *n.Parent != "" {
			if _, ok := mapping[*n.Parent]; ok {
				children[*n.Parent] = append(children[*n.Parent], id)
			}
		}
	}
	return children
}

// findRoots returns nodes whose parent is absent or points outside the
// node set (§4.2).
func findRoots(mapping map[string]rawMapNode) []string {
	var roots []string
	for id, n := range mapping {
		if n.Parent == nil || *n.Parent == "" {
			roots = append(roots, id)
			continue
		}
		if _, ok := mapping[*n.Parent]; !ok {
			roots = append(roots, id)
		}
	}
	return roots
}

// sortSiblings orders ids by (has_ts, ts, id), missing timestamps last.
func sortSiblings(ids []string, mapping map[string]rawMapNode) {
	key := func(id string) (bool, float64) {
		n, ok := mapping[id]
		if !ok || n.Message == nil || n.Message.CreateTime == nil {
			return false, 0
		}
		return true, *n.Message.CreateTime
	}
	sort.SliceStable(ids, func(i, j int) bool {
		hi, ti := key(ids[i])
		hj, tj := key(ids[j])
		if hi != hj {
			return hi // has_ts sorts before missing
		}
		if ti != tj {
			return ti < tj
		}
		return ids[i] < ids[j]
	})
}

// emit converts a raw node's message into a NormalizedMessage. A message
// whose create_time is absent is dropped (§4.2 "ordering anchor
// unavailable").
func emit(conversationID string, node rawMapNode) (ingest.NormalizedMessage, bool) {
	m := *node.Message
	if m.CreateTime == nil {
		return ingest.NormalizedMessage{}, false
	}

	role := strings.TrimSpace(m.Author.Role)
	if role == "" {
		role = "unknown"
	}

	contentType, parts := extractContent(m.Content)

	var parentID *string
	if node.Parent != nil && *node.Parent != "" {
		p := *node.Parent
		parentID = &p
	}

	msg := ingest.NormalizedMessage{
		ConversationID: conversationID,
		MessageID:      m.ID,
		ParentID:       parentID,
		Role:           role,
		TS:             ingest.NormalizeTS(*m.CreateTime),
		Content:        ingest.Content{ContentType: contentType, Parts: parts},
		Text:           strings.Join(parts, "\n"),
	}
	if msg.MessageID == "" {
		return ingest.NormalizedMessage{}, false
	}
	return msg, true
}

func extractContent(raw json.RawMessage) (contentType string, parts []string) {
	if len(raw) == 0 {
		return "", nil
	}
	var probe struct {
		ContentType string `json:"content_type"`
		Parts       []any  `json:"parts"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return "", nil
	}
	for _, p := range probe.Parts {
		if s, ok := p.(string); ok {
			parts = append(parts, s)
		}
	}
	return strings.TrimSpace(probe.ContentType), parts
}
