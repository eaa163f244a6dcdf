package markdown

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/llmlogparser/llm-logparser/ingest"
)

const (
	defaultAutoSizeLimit    = 4 * 1024 * 1024
	defaultAutoCountLimit   = 1500
	defaultSoftOverflow     = 0.20
	defaultTinyTailThresh   = 20
	frontMatterAllowance    = 1024 // approximate allowance in soft mode (§4.7 step 1)
)

// SplitConfig is the resolved `--split` configuration (§4.7).
type SplitConfig struct {
	Mode              string // "", "size", "count", "auto"
	SizeLimit         int64
	CountLimit        int
	SoftOverflow      float64
	Hard              bool
	Preview           bool
	TinyTailThreshold int
}

// ParseSplitExpr parses the `--split` flag value ("", "none", "auto",
// "size=<N>", "count=<N>") into a SplitConfig with spec defaults filled
// in for the fields the expression doesn't set.
func ParseSplitExpr(expr string) (SplitConfig, error) {
	conf := SplitConfig{
		SoftOverflow:      defaultSoftOverflow,
		TinyTailThreshold: defaultTinyTailThresh,
	}
	s := strings.ToLower(strings.TrimSpace(expr))
	switch {
	case s == "" || s == "none":
		return conf, nil
	case s == "auto":
		conf.Mode = "auto"
		return conf, nil
	case strings.HasPrefix(s, "size="):
		n, err := ParseSizeExpr(s[len("size="):])
		if err != nil {
			return conf, &ingest.ConfigError{Field: "split", Value: expr, Err: err}
		}
		conf.Mode = "size"
		conf.SizeLimit = n
		return conf, nil
	case strings.HasPrefix(s, "count="):
		n, err := strconv.Atoi(s[len("count="):])
		if err != nil {
			return conf, &ingest.ConfigError{Field: "split", Value: expr, Err: err}
		}
		conf.Mode = "count"
		conf.CountLimit = n
		return conf, nil
	default:
		return conf, &ingest.ConfigError{Field: "split", Value: expr, Err: fmt.Errorf("invalid --split expression")}
	}
}

// cutIntoParts runs the §4.7 cut algorithm over blocks, grouping them
// into parts under conf's size/count bounds. overhead estimates the
// front-matter byte cost of a would-be part with the given message
// count and is consulted only in hard mode, where it is an exact
// tentative render; soft mode always uses frontMatterAllowance.
func cutIntoParts(blocks []string, conf SplitConfig, overhead func(messageCount int) int64) [][]string {
	if conf.Mode == "" {
		return [][]string{blocks}
	}
	if overhead == nil {
		overhead = func(int) int64 { return frontMatterAllowance }
	}

	sizeLimit := conf.SizeLimit
	countLimit := conf.CountLimit
	if conf.Mode == "auto" {
		if sizeLimit == 0 {
			sizeLimit = defaultAutoSizeLimit
		}
		if countLimit == 0 {
			countLimit = defaultAutoCountLimit
		}
	}

	var parts [][]string
	var buf []string
	var bufBytes int64

	flush := func() {
		if len(buf) == 0 {
			return
		}
		parts = append(parts, buf)
		buf = nil
		bufBytes = 0
	}

	for i, block := range blocks {
		bsz := int64(len(block))

		var over int64
		if conf.Hard {
			over = overhead(len(buf) + 1)
		} else {
			over = frontMatterAllowance
		}
		overSize := sizeLimit > 0 && (bufBytes+bsz+over) > sizeLimit
		overCount := !overSize && countLimit > 0 && len(buf) >= countLimit

		if overSize || overCount {
			withinSoft := sizeLimit > 0 && !overCount &&
				(bufBytes+bsz+frontMatterAllowance) <= int64(float64(sizeLimit)*(1+conf.SoftOverflow))
			remaining := len(blocks) - (i + 1)
			tinyTail := remaining <= conf.TinyTailThreshold

			if !conf.Hard && (withinSoft || tinyTail) {
				buf = append(buf, block)
				bufBytes += bsz
				continue
			}
			flush()
		}

		buf = append(buf, block)
		bufBytes += bsz
	}
	flush()

	if len(parts) == 0 {
		parts = [][]string{blocks}
	}
	return parts
}
