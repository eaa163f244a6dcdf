package markdown

import (
	"fmt"
	"strings"
	"testing"

	"github.com/llmlogparser/llm-logparser/iofs"
)

func writeParsedFixture(t *testing.T, fs iofs.Shim, path string) {
	t.Helper()
	lines := []string{
		`{"record_type":"thread","provider_id":"openai","conversation_id":"conv-1","message_count":2}`,
		`{"conversation_id":"conv-1","message_id":"m1","role":"user","ts":1730000001000,"content":{"content_type":"text","parts":["hello"]},"text":"hello","provider_id":"openai","record_type":"message"}`,
		`{"conversation_id":"conv-1","message_id":"m2","role":"assistant","ts":1730000002500,"content":{"content_type":"text","parts":["hi"]},"text":"hi","provider_id":"openai","record_type":"message","parent_id":"m1"}`,
	}
	if err := fs.WriteFileAtomic(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatalf("seed parsed.jsonl: %v", err)
	}
}

func TestRender_SingleFile(t *testing.T) {
	t.Parallel()

	fs := iofs.NewMem()
	writeParsedFixture(t, fs, "out/openai/thread-conv-1/parsed.jsonl")

	res, err := Render(fs, "out/openai/thread-conv-1/parsed.jsonl", "out/openai/thread-conv-1", ExportPolicy{Formatting: "light"}, nil)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if len(res.Paths) != 1 {
		t.Fatalf("len(res.Paths) = %d, want 1", len(res.Paths))
	}
	b, err := fs.ReadFile(res.Paths[0])
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	doc := string(b)
	if !strings.HasPrefix(doc, "---\n") {
		t.Fatalf("doc = %q, want leading front matter", doc)
	}
	if !strings.Contains(doc, "## [user]") || !strings.Contains(doc, "## [assistant]") {
		t.Fatalf("doc = %q, want both role headings", doc)
	}
	if !strings.Contains(doc, "message_id: m2") || !strings.Contains(doc, "parent_id: m1") {
		t.Fatalf("doc = %q, want m2 metadata lines", doc)
	}
}

func TestRender_PreviewModeWritesNothing(t *testing.T) {
	t.Parallel()

	fs := iofs.NewMem()
	writeParsedFixture(t, fs, "out/openai/thread-conv-1/parsed.jsonl")

	res, err := Render(fs, "out/openai/thread-conv-1/parsed.jsonl", "out/openai/thread-conv-1",
		ExportPolicy{Formatting: "light", Split: SplitConfig{Preview: true}}, nil)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if len(res.Paths) != 0 {
		t.Fatalf("len(res.Paths) = %d, want 0 in preview mode", len(res.Paths))
	}
	if res.PreviewMessageCount != 2 {
		t.Fatalf("PreviewMessageCount = %d, want 2", res.PreviewMessageCount)
	}
}

func TestRender_UnknownTimezoneFallsBackToUTC(t *testing.T) {
	t.Parallel()

	fs := iofs.NewMem()
	writeParsedFixture(t, fs, "out/openai/thread-conv-1/parsed.jsonl")

	var warned string
	_, err := Render(fs, "out/openai/thread-conv-1/parsed.jsonl", "out/openai/thread-conv-1",
		ExportPolicy{Formatting: "light", TZ: "Not/AZone"}, func(msg string) { warned = msg })
	if err != nil {
		t.Fatalf("Render: %v, want fallback not failure", err)
	}
	if warned == "" {
		t.Fatal("warn callback never invoked for unknown timezone")
	}
}

func TestRender_MultiPartConcatenationEqualsSingleFile(t *testing.T) {
	t.Parallel()

	fs := iofs.NewMem()
	path := "out/openai/thread-conv-1/parsed.jsonl"
	lines := []string{`{"record_type":"thread","provider_id":"openai","conversation_id":"conv-1","message_count":3}`}
	for i := 0; i < 3; i++ {
		lines = append(lines, fmt.Sprintf(
			`{"conversation_id":"conv-1","message_id":"m%d","role":"user","ts":%d,"content":{"content_type":"text","parts":["x"]},"text":"x","provider_id":"openai","record_type":"message"}`,
			i+1, 1730000000000+int64(i)*1000))
	}
	if err := fs.WriteFileAtomic(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}

	single, err := Render(fs, path, "out/openai/thread-conv-1", ExportPolicy{Formatting: "none"}, nil)
	if err != nil {
		t.Fatalf("Render(single): %v", err)
	}
	multi, err := Render(fs, path, "out/openai/thread-conv-1",
		ExportPolicy{Formatting: "none", Split: SplitConfig{Mode: "count", CountLimit: 1, TinyTailThreshold: 0, Hard: true}}, nil)
	if err != nil {
		t.Fatalf("Render(multi): %v", err)
	}
	if len(multi.Paths) != 3 {
		t.Fatalf("len(multi.Paths) = %d, want 3", len(multi.Paths))
	}

	singleBody, err := fs.ReadFile(single.Paths[0])
	if err != nil {
		t.Fatalf("ReadFile(single): %v", err)
	}
	var multiBody strings.Builder
	for _, p := range multi.Paths {
		b, err := fs.ReadFile(p)
		if err != nil {
			t.Fatalf("ReadFile(multi part): %v", err)
		}
		multiBody.WriteString(stripFrontMatter(string(b)))
	}
	if stripFrontMatter(string(singleBody)) != multiBody.String() {
		t.Fatalf("concatenated part bodies != single-file body")
	}
}

func stripFrontMatter(doc string) string {
	idx := strings.Index(doc[4:], "---\n")
	if idx < 0 {
		return doc
	}
	rest := doc[4+idx+4:]
	return strings.TrimPrefix(rest, "\n")
}
