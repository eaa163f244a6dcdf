package main

import (
	"errors"
	"flag"
	"testing"

	"github.com/llmlogparser/llm-logparser/ingest"
)

func TestParseFlags_Defaults(t *testing.T) {
	t.Parallel()

	fs := flag.NewFlagSet("llm-logparser", flag.ContinueOnError)
	cfg, err := parseFlags(fs, nil)
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	if cfg.Provider != "openai" {
		t.Fatalf("Provider=%q, want openai", cfg.Provider)
	}
	if cfg.Jobs != 1 {
		t.Fatalf("Jobs=%d, want 1", cfg.Jobs)
	}
}

func TestParseFlags_Overrides(t *testing.T) {
	t.Parallel()

	fs := flag.NewFlagSet("llm-logparser", flag.ContinueOnError)
	cfg, err := parseFlags(fs, []string{
		"-in", "conversations.json",
		"-out", "out",
		"-provider", "openai",
		"-jobs", "4",
		"-render",
		"-split", "auto",
		"-split-hard",
		"-fail-fast",
	})
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	if cfg.InPath != "conversations.json" {
		t.Fatalf("InPath=%q", cfg.InPath)
	}
	if cfg.OutDir != "out" {
		t.Fatalf("OutDir=%q", cfg.OutDir)
	}
	if cfg.Jobs != 4 {
		t.Fatalf("Jobs=%d, want 4", cfg.Jobs)
	}
	if !cfg.Render || !cfg.SplitHard || !cfg.FailFast {
		t.Fatalf("Render/SplitHard/FailFast not all set: %+v", cfg)
	}
	if cfg.SplitExpr != "auto" {
		t.Fatalf("SplitExpr=%q, want auto", cfg.SplitExpr)
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	if err := (Config{}).Validate(); err == nil {
		t.Fatal("expected error for empty config")
	}
	if err := (Config{InPath: "in.jsonl"}).Validate(); err == nil {
		t.Fatal("expected error for missing OutDir")
	}
	if err := (Config{InPath: "in.jsonl", OutDir: "out", Jobs: 0}).Validate(); err == nil {
		t.Fatal("expected error for Jobs < 1")
	}
	if err := (Config{InPath: "in.jsonl", OutDir: "out", Jobs: 1}).Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestExitCodeFor(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
		want int
	}{
		{"input error", &ingest.InputError{Path: "conversations.json", Err: errors.New("boom")}, exitInputPath},
		{"missing parsed root", &ingest.InputError{Path: "out/openai/thread-c1/parsed.jsonl", Err: errors.New("boom")}, exitMissingParsedRoot},
		{"write error", &ingest.WriteError{ConversationID: "c1", Path: "out/openai/thread-c1/parsed.jsonl", Err: errors.New("boom")}, exitExportFailure},
		{"config error", &ingest.ConfigError{Field: "jobs", Value: "-1", Err: errors.New("boom")}, exitInputPath},
		{"unclassified", errors.New("mystery"), exitUnclassified},
	}
	for _, tc := range cases {
		if got := exitCodeFor(tc.err); got != tc.want {
			t.Errorf("%s: exitCodeFor() = %d, want %d", tc.name, got, tc.want)
		}
	}
}

func TestLocale_FallsBackToEnglish(t *testing.T) {
	t.Parallel()

	if got := msg("fr", "summary"); got != messages["en"]["summary"] {
		t.Fatalf("msg(fr, summary) = %q, want English fallback", got)
	}
	if got := msg("es", "summary"); got == messages["en"]["summary"] {
		t.Fatalf("msg(es, summary) unexpectedly equals English table")
	}
}
