// Package markdown implements C7, the splitter: it turns a thread's
// parsed.jsonl (written by ingest.WriteThread) into one or more
// Markdown files with YAML front matter (§4.7).
package markdown

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"strings"
	"time"

	// Embeds the IANA timezone database so --tz resolution never depends
	// on the host having /usr/share/zoneinfo (§4.7, §9).
	_ "time/tzdata"

	"gopkg.in/yaml.v3"

	"github.com/llmlogparser/llm-logparser/ingest"
	"github.com/llmlogparser/llm-logparser/iofs"
)

// ExportPolicy controls how a thread is rendered (§4.7).
type ExportPolicy struct {
	Formatting string // "none" | "light"
	TZ         string // IANA zone identifier; "" means UTC
	Split      SplitConfig
}

// Result is what Render returns. In preview mode Paths is empty and the
// estimate fields are populated instead.
type Result struct {
	Paths                []string
	PreviewBytes         int64
	PreviewMessageCount  int
	PreviewPartsEstimate int
}

type threadLine struct {
	ingest.NormalizedMessage
	RecordType string `json:"record_type"`
}

// Render reads parsedPath (a parsed.jsonl produced by ingest.WriteThread)
// and writes the Markdown rendering of its thread to outDir, honoring
// policy's formatting/split configuration. warn is called for
// non-fatal conditions (unknown timezone).
func Render(fs iofs.Shim, parsedPath, outDir string, policy ExportPolicy, warn func(string)) (Result, error) {
	if warn == nil {
		warn = func(string) {}
	}

	b, err := fs.ReadFile(parsedPath)
	if err != nil {
		return Result{}, &ingest.InputError{Path: parsedPath, Err: err}
	}

	var meta ingest.ThreadMeta
	var messages []ingest.NormalizedMessage
	sc := bufio.NewScanner(bytes.NewReader(b))
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	first := true
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		if first {
			first = false
			if err := json.Unmarshal(line, &meta); err != nil {
				return Result{}, &ingest.InputError{Path: parsedPath, Err: fmt.Errorf("parse thread meta: %w", err)}
			}
			continue
		}
		var tl threadLine
		if err := json.Unmarshal(line, &tl); err != nil {
			continue // corrupted line, skip (mirrors original_source's tolerant reader)
		}
		messages = append(messages, tl.NormalizedMessage)
	}
	if first {
		return Result{}, &ingest.InputError{Path: parsedPath, Err: fmt.Errorf("parsed.jsonl missing thread meta on first line")}
	}

	sort.SliceStable(messages, func(i, j int) bool {
		if messages[i].TS != messages[j].TS {
			return messages[i].TS < messages[j].TS
		}
		return messages[i].MessageID < messages[j].MessageID
	})

	loc := resolveLocation(policy.TZ, warn)

	blocks := make([]string, 0, len(messages))
	for _, m := range messages {
		blocks = append(blocks, renderBlock(m, loc, policy.Formatting))
	}

	tsMin, tsMax := tsRange(messages)

	if policy.Split.Preview {
		return previewResult(blocks, policy.Split), nil
	}

	overhead := func(messageCount int) int64 {
		fm := FrontMatter{
			Thread:         meta.ConversationID,
			Provider:       meta.ProviderID,
			MessageCount:   messageCount,
			Range:          fmt.Sprintf("%s to %s", isoUTC(tsMin), isoUTC(tsMax)),
			GeneratedAtUTC: nowUTCISO(),
			TZ:             tzLabel(policy.TZ, loc),
			PartIndex:      1,
			PartTotal:      len(messages),
		}
		page, err := renderPage(fm, nil)
		if err != nil {
			return frontMatterAllowance
		}
		return int64(len(page))
	}
	parts := cutIntoParts(blocks, policy.Split, overhead)

	dir := outDir
	base := "thread-" + meta.ConversationID
	paths := make([]string, 0, len(parts))
	for i, part := range parts {
		fm := FrontMatter{
			Thread:         meta.ConversationID,
			Provider:       meta.ProviderID,
			Models:         nil,
			MessageCount:   len(part),
			Range:          fmt.Sprintf("%s to %s", isoUTC(tsMin), isoUTC(tsMax)),
			GeneratedAtUTC: nowUTCISO(),
			TZ:             tzLabel(policy.TZ, loc),
		}
		if len(parts) > 1 {
			fm.PartIndex = i + 1
			fm.PartTotal = len(parts)
		}

		page, err := renderPage(fm, part)
		if err != nil {
			return Result{}, fmt.Errorf("render front matter: %w", err)
		}

		suffix := ""
		if len(parts) > 1 {
			suffix = fmt.Sprintf("__part%02d", i+1)
		}
		name := SanitizeFilename(base + suffix + ".md")
		path := filepath.Join(dir, name)
		if err := fs.WriteFileAtomic(path, []byte(page), 0o644); err != nil {
			return Result{}, &ingest.WriteError{ConversationID: meta.ConversationID, Path: path, Err: err}
		}
		paths = append(paths, path)
	}

	return Result{Paths: paths}, nil
}

func renderPage(fm FrontMatter, blocks []string) (string, error) {
	doc, err := yaml.Marshal(fm)
	if err != nil {
		return "", err
	}
	var buf strings.Builder
	buf.WriteString("---\n")
	buf.Write(bytes.TrimRight(doc, "\n"))
	buf.WriteString("\n---\n\n")
	for _, b := range blocks {
		buf.WriteString(b)
	}
	return buf.String(), nil
}

func previewResult(blocks []string, split SplitConfig) Result {
	var total int64
	for _, b := range blocks {
		total += int64(len(b))
	}
	res := Result{PreviewBytes: total, PreviewMessageCount: len(blocks)}
	if split.Mode == "auto" || split.Mode == "size" {
		limit := split.SizeLimit
		if limit == 0 {
			limit = 4 * 1024 * 1024
		}
		res.PreviewPartsEstimate = int(math.Max(1, math.Ceil(float64(total)/float64(limit))))
	}
	return res
}

func tsRange(messages []ingest.NormalizedMessage) (min, max int64) {
	if len(messages) == 0 {
		return 0, 0
	}
	min, max = messages[0].TS, messages[0].TS
	for _, m := range messages[1:] {
		if m.TS < min {
			min = m.TS
		}
		if m.TS > max {
			max = m.TS
		}
	}
	return min, max
}

func isoUTC(tsMs int64) string {
	if tsMs == 0 {
		return ""
	}
	return time.UnixMilli(tsMs).UTC().Format(time.RFC3339)
}

func tzLabel(requested string, loc *time.Location) string {
	if requested == "" {
		return "UTC"
	}
	return loc.String()
}

// resolveLocation loads policy's IANA zone, falling back to UTC with a
// warning on an unknown identifier (§9 "Timezone handling" — never
// fails the run).
func resolveLocation(tz string, warn func(string)) *time.Location {
	if tz == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		warn(fmt.Sprintf("unknown timezone %q, falling back to UTC: %v", tz, err))
		return time.UTC
	}
	return loc
}

func nowUTCISO() string {
	return time.Now().UTC().Format(time.RFC3339)
}
