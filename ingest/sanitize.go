package ingest

import (
	"regexp"
	"strings"
)

var (
	controlBytes  = regexp.MustCompile(`[\x00-\x1F\x7F\x80-\x9F]`)
	whitespaceRun = regexp.MustCompile(`\s+`)
)

const nbsp = " "

// SanitizeText is applied to rendered display strings only; stored
// Content.Parts remain verbatim (§4.3). It replaces NBSP with a plain
// space, strips C0/C1 control bytes, collapses whitespace runs to a
// single space, and trims the result.
func SanitizeText(s string) string {
	s = strings.ReplaceAll(s, nbsp, " ")
	s = controlBytes.ReplaceAllString(s, "")
	s = whitespaceRun.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
