package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/llmlogparser/llm-logparser/ingest"
	"github.com/llmlogparser/llm-logparser/iofs"
	"github.com/llmlogparser/llm-logparser/markdown"
)

// Config is the flag-parsed shape of one CLI invocation, mirroring the
// teacher's archive-splitter Config (flags in, Validate, a plain
// struct — no Viper, no struct tags).
type Config struct {
	Provider string
	InPath   string
	OutDir   string
	DryRun   bool
	FailFast bool
	Jobs     int

	Render     bool
	Formatting string
	TZ         string
	SplitExpr  string
	SplitHard  bool
	Preview    bool

	Locale string
}

func defaultConfig() Config {
	return Config{
		Provider:   "openai",
		OutDir:     filepath.FromSlash("out"),
		Jobs:       1,
		Render:     false,
		Formatting: "light",
		SplitExpr:  "",
		Locale:     "en",
	}
}

func (c Config) Validate() error {
	if c.InPath == "" {
		return fmt.Errorf("missing -in")
	}
	if c.OutDir == "" {
		return fmt.Errorf("missing -out")
	}
	if c.Jobs < 1 {
		return fmt.Errorf("-jobs must be >= 1")
	}
	return nil
}

func parseFlags(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := defaultConfig()
	fs.SetOutput(os.Stderr)

	fs.StringVar(&cfg.Provider, "provider", cfg.Provider, "Adapter name (openai)")
	fs.StringVar(&cfg.InPath, "in", cfg.InPath, "Path to the export file (array, object, or line-delimited JSON)")
	fs.StringVar(&cfg.OutDir, "out", cfg.OutDir, "Directory to write per-thread output into")
	fs.BoolVar(&cfg.DryRun, "dry-run", cfg.DryRun, "Run the full pipeline but write nothing")
	fs.BoolVar(&cfg.FailFast, "fail-fast", cfg.FailFast, "Abort on the first validation error or after >3 adapter errors")
	fs.IntVar(&cfg.Jobs, "jobs", cfg.Jobs, "Bounded worker pool size for per-conversation writes (1 = strictly sequential)")

	fs.BoolVar(&cfg.Render, "render", cfg.Render, "Also render each thread to Markdown")
	fs.StringVar(&cfg.Formatting, "formatting", cfg.Formatting, "Markdown message-body formatting: none|light")
	fs.StringVar(&cfg.TZ, "tz", cfg.TZ, "IANA timezone for rendered timestamps (default UTC)")
	fs.StringVar(&cfg.SplitExpr, "split", cfg.SplitExpr, "Split expression: none|auto|size=4M|count=1500")
	fs.BoolVar(&cfg.SplitHard, "split-hard", cfg.SplitHard, "Enforce the split bound exactly instead of allowing soft overflow")
	fs.BoolVar(&cfg.Preview, "preview", cfg.Preview, "Estimate split output without writing Markdown files")

	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage:\n  %s -in <export> -out <dir> [flags]\n\nFlags:\n", filepath.Base(os.Args[0]))
		fs.PrintDefaults()
		fmt.Fprintln(fs.Output(), "\nExamples:")
		fmt.Fprintln(fs.Output(), "  llm-logparser -in conversations.json -out out")
		fmt.Fprintln(fs.Output(), "  llm-logparser -in conversations.json -out out -render -split auto -jobs 4")
	}

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	// Clean only non-empty paths: filepath.Clean("") is ".", which would
	// hide a missing -in/-out from Validate.
	if cfg.InPath != "" {
		cfg.InPath = filepath.Clean(cfg.InPath)
	}
	if cfg.OutDir != "" {
		cfg.OutDir = filepath.Clean(cfg.OutDir)
	}
	return cfg, nil
}

// splitConfig translates the flag surface into a markdown.SplitConfig,
// reusing markdown.ParseSplitExpr for the expr itself (§4.7).
func (c Config) splitConfig() (markdown.SplitConfig, error) {
	sc, err := markdown.ParseSplitExpr(c.SplitExpr)
	if err != nil {
		return markdown.SplitConfig{}, err
	}
	sc.Hard = c.SplitHard
	sc.Preview = c.Preview
	return sc, nil
}

// renderPolicy builds the ingest.RenderRequest that drives C7 from
// within ingest.Run, or nil when -render was not passed.
func (c Config) renderPolicy(warn func(string)) (*ingest.RenderRequest, error) {
	if !c.Render {
		return nil, nil
	}
	split, err := c.splitConfig()
	if err != nil {
		return nil, err
	}
	policy := markdown.ExportPolicy{
		Formatting: c.Formatting,
		TZ:         c.TZ,
		Split:      split,
	}
	return &ingest.RenderRequest{
		Render: func(fs iofs.Shim, parsedPath, outDir string) error {
			_, err := markdown.Render(fs, parsedPath, outDir, policy, warn)
			return err
		},
	}, nil
}
