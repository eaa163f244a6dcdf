package markdown

import (
	"regexp"
	"strings"
)

const maxFilenameLen = 120

var disallowedFilenameChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1F]`)
var filenameWhitespaceRun = regexp.MustCompile(`\s+`)

// SanitizeFilename replaces disallowed characters with "_", collapses
// whitespace runs, and truncates names over 120 characters while
// preserving the extension with a "..." ellipsis (§4.7).
func SanitizeFilename(name string) string {
	name = disallowedFilenameChars.ReplaceAllString(name, "_")
	name = strings.TrimSpace(filenameWhitespaceRun.ReplaceAllString(name, " "))
	if len(name) <= maxFilenameLen {
		return name
	}

	root, ext := name, ""
	if i := strings.LastIndex(name, "."); i >= 0 {
		root, ext = name[:i], "."+name[i+1:]
	}
	keep := maxFilenameLen - len(ext) - 3
	if keep < 0 {
		keep = 0
	}
	if keep > len(root) {
		keep = len(root)
	}
	return root[:keep] + "..." + ext
}
