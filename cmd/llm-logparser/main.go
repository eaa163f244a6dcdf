package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/llmlogparser/llm-logparser/ingest"
	"github.com/llmlogparser/llm-logparser/ingest/provider"
	_ "github.com/llmlogparser/llm-logparser/ingest/provider/openai"
)

const (
	exitOK                = 0
	exitInputPath         = 2
	exitPermissionDenied  = 3
	exitMissingParsedRoot = 4
	exitExportFailure     = 5
	exitUnclassified      = 99
)

func main() {
	cfg, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(exitInputPath)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(exitInputPath)
	}

	loc := locale()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	adapter, err := provider.Lookup(cfg.Provider)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(exitInputPath)
	}

	// warnf is shared by both the Logger callback and the render-time warn
	// hook. Render runs inside the per-conversation worker pool
	// (ingest/pipeline.go runWorkers), so warnings can arrive from several
	// goroutines at once; writing straight to os.Stderr per call avoids
	// the shared-slice race a buffer-then-flush approach would have.
	warnf := func(w string) { fmt.Fprintln(os.Stderr, w) }

	renderReq, err := cfg.renderPolicy(warnf)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(exitInputPath)
	}

	res, err := ingest.Run(ctx, ingest.Request{
		Provider:     adapter,
		InputPath:    cfg.InPath,
		OutDir:       cfg.OutDir,
		DryRun:       cfg.DryRun,
		FailFast:     cfg.FailFast,
		Jobs:         cfg.Jobs,
		RenderPolicy: renderReq,
		Logger: func(ev ingest.Event) {
			if ev.Kind == ingest.EventWarning {
				warnf(ev.Message)
			}
		},
	})

	if err != nil {
		fmt.Fprintf(os.Stderr, msg(loc, "aborted"), err)
		os.Exit(exitCodeFor(err))
	}

	fmt.Fprintf(os.Stdout, msg(loc, "summary"), res.Threads, res.Messages, res.Errors, res.Skipped, cfg.OutDir)
}

// exitCodeFor maps a returned error to spec.md §6's exit codes. The core
// never calls os.Exit itself; only this boundary does.
func exitCodeFor(err error) int {
	if errors.Is(err, os.ErrPermission) {
		return exitPermissionDenied
	}

	var inputErr *ingest.InputError
	if errors.As(err, &inputErr) {
		if strings.Contains(inputErr.Path, "parsed.jsonl") {
			return exitMissingParsedRoot
		}
		return exitInputPath
	}

	var writeErr *ingest.WriteError
	if errors.As(err, &writeErr) {
		return exitExportFailure
	}

	var cfgErr *ingest.ConfigError
	if errors.As(err, &cfgErr) {
		return exitInputPath
	}

	return exitUnclassified
}
