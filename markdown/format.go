package markdown

import (
	"fmt"
	"strings"
	"time"

	"github.com/llmlogparser/llm-logparser/ingest"
)

// renderBlock builds one message's Markdown block: a heading, optional
// message_id/parent_id metadata lines, then the body (§4.7).
func renderBlock(m ingest.NormalizedMessage, loc *time.Location, formatting string) string {
	localTime := time.UnixMilli(m.TS).In(loc).Format("2006-01-02 15:04")

	text := m.Text
	if text == "" && len(m.Content.Parts) > 0 {
		text = strings.Join(m.Content.Parts, "\n")
	}
	text = renderMessageText(text, formatting)

	var meta strings.Builder
	if m.MessageID != "" {
		fmt.Fprintf(&meta, "- message_id: %s\n", m.MessageID)
	}
	if m.ParentID != nil && *m.ParentID != "" {
		fmt.Fprintf(&meta, "- parent_id: %s\n", *m.ParentID)
	}
	metaStr := meta.String()
	if metaStr != "" {
		metaStr += "\n"
	}

	role := ingest.SanitizeText(m.Role)
	return fmt.Sprintf("## [%s] %s\n%s%s\n\n", role, localTime, metaStr, text)
}

// renderMessageText implements the §4.7 "light formatting" pass: collapse
// runs of blank lines to one outside fenced code, auto-close an unclosed
// trailing fence, and trim trailing blank lines. "none" formatting
// returns raw unchanged.
func renderMessageText(raw, formatting string) string {
	if formatting == "none" || formatting == "" {
		return raw
	}

	lines := strings.Split(raw, "\n")
	out := make([]string, 0, len(lines))
	inCode := false
	blankStreak := 0

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			inCode = !inCode
			out = append(out, line)
			blankStreak = 0
			continue
		}
		if !inCode {
			if trimmed == "" {
				if blankStreak == 0 {
					out = append(out, "")
				}
				blankStreak++
			} else {
				out = append(out, line)
				blankStreak = 0
			}
		} else {
			out = append(out, line)
		}
	}

	if inCode {
		out = append(out, "```")
	}

	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}

	return strings.Join(out, "\n")
}
