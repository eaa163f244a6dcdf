package ingest

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/llmlogparser/llm-logparser/iofs"
)

// EventKind classifies an Event reported through Request.Logger.
type EventKind int

const (
	EventWarning EventKind = iota
	EventThreadWritten
	EventThreadSkipped
	EventRunSummary
)

// Event is the single type the core reports progress/warnings through,
// since logging setup itself is out of scope (§1 Non-goals; SPEC_FULL
// AMBIENT STACK). cmd/llm-logparser formats these for the user.
type Event struct {
	Kind           EventKind
	Message        string
	ConversationID string
	Result         Result
}

// Request is everything a caller (a CLI, a future TUI, a batch job)
// needs to invoke one ingestion run (spec.md §6 "invocation surface").
type Request struct {
	Provider     Provider
	InputPath    string
	OutDir       string
	DryRun       bool
	FailFast     bool
	Jobs         int
	RenderPolicy *RenderRequest
	Logger       func(Event)
	Fs           iofs.Shim
}

// RenderRequest carries the options needed to also produce Markdown
// output for each written thread, so ingest.Run can drive C7 without
// importing the markdown package's concrete types into its own API
// surface (the caller constructs the policy and passes a render func).
type RenderRequest struct {
	Render func(fs iofs.Shim, parsedPath, outDir string) error
}

// Result aggregates the outcome of a run (§7).
type Result struct {
	Threads int
	Messages int
	Errors   int
	Skipped  int
	Samples  []string
}

const maxAdapterFailuresBeforeFailFast = 3
const maxSamples = 5

// Run executes the full pipeline: C1 read, C2 adapt, C3 normalize, C4
// group, then a bounded worker pool over C5/C6 (and optionally C7) per
// conversation (§5).
func Run(ctx context.Context, req Request) (Result, error) {
	if req.Provider == nil {
		return Result{}, &ConfigError{Field: "provider", Value: "", Err: fmt.Errorf("must not be nil")}
	}
	if req.Jobs <= 0 {
		req.Jobs = 1
	}
	logEvent := req.Logger
	if logEvent == nil {
		logEvent = func(Event) {}
	}
	fs := req.Fs
	if fs.Fs() == nil {
		fs = iofs.New()
	}

	reader, err := NewReader(fs, req.InputPath, func(msg string) {
		logEvent(Event{Kind: EventWarning, Message: msg})
	})
	if err != nil {
		return Result{}, &InputError{Path: req.InputPath, Err: err}
	}
	defer reader.Close()

	sourceStem := strings.TrimSuffix(filepath.Base(req.InputPath), filepath.Ext(req.InputPath))

	var (
		all             []NormalizedMessage
		adapterFailures int
		result          Result
	)

	for {
		rec, ok, err := reader.Next()
		if err != nil {
			return result, &InputError{Path: req.InputPath, Err: err}
		}
		if !ok {
			break
		}

		msgs, dropped, err := req.Provider.Normalize(ctx, rec, sourceStem)
		if err != nil {
			aerr := &AdapterError{ConversationID: rec.Get("conversation_id").String(), Err: err}
			adapterFailures++
			result.Errors++
			result.Samples = appendSample(result.Samples, aerr.Error())
			logEvent(Event{Kind: EventWarning, Message: aerr.Error()})
			if req.FailFast && adapterFailures > maxAdapterFailuresBeforeFailFast {
				return result, aerr
			}
			continue
		}
		result.Skipped += dropped

		for _, m := range msgs {
			if err := Validate(m); err != nil {
				result.Errors++
				result.Skipped++
				result.Samples = appendSample(result.Samples, err.Error())
				logEvent(Event{Kind: EventWarning, Message: err.Error()})
				if req.FailFast {
					return result, err
				}
				continue
			}
			all = append(all, m)
		}
	}

	conversations := GroupByConversation(all)

	manifestPath := filepath.Join(req.OutDir, req.Provider.Name(), "manifest.json")
	prior, err := LoadManifest(fs, manifestPath)
	if err != nil {
		return result, err
	}

	threadResults, err := runWorkers(ctx, req, fs, prior, conversations, &result, logEvent)
	if err != nil {
		return result, err
	}

	if !req.DryRun {
		m := BuildManifest(prior, req.Provider.Name(), req.Provider.Policy(), threadResults, time.Now())
		if err := Save(fs, req.OutDir, req.Provider.Name(), m); err != nil {
			return result, err
		}
	}

	logEvent(Event{Kind: EventRunSummary, Result: result})
	return result, nil
}

func runWorkers(ctx context.Context, req Request, fs iofs.Shim, prior Manifest, conversations []Conversation, result *Result, logEvent func(Event)) ([]ThreadResult, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(req.Jobs)

	var mu sync.Mutex
	threadResults := make([]ThreadResult, 0, len(conversations))

	for _, conv := range conversations {
		conv := conv
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			skip := ShouldSkip(prior, conv.ConversationID, len(conv.Messages))

			var tr ThreadResult
			if skip {
				tr = ThreadResult{ConversationID: conv.ConversationID, Skipped: true, Count: len(conv.Messages)}
			} else if req.DryRun {
				tr = ThreadResult{ConversationID: conv.ConversationID, Count: len(conv.Messages)}
			} else {
				path, err := WriteThread(fs, req.OutDir, req.Provider.Name(), conv)
				if err != nil {
					mu.Lock()
					result.Errors++
					result.Samples = appendSample(result.Samples, err.Error())
					mu.Unlock()
					logEvent(Event{Kind: EventWarning, ConversationID: conv.ConversationID, Message: err.Error()})
					if req.FailFast {
						return err
					}
					return nil
				}
				lo, hi := TSRange(conv.Messages)
				tr = ThreadResult{ConversationID: conv.ConversationID, Path: relPath(req.OutDir, req.Provider.Name(), path), Count: len(conv.Messages), TSMin: lo, TSMax: hi}

				if req.RenderPolicy != nil {
					dir := ThreadDir(req.OutDir, req.Provider.Name(), conv.ConversationID)
					if err := req.RenderPolicy.Render(fs, path, dir); err != nil {
						mu.Lock()
						result.Errors++
						mu.Unlock()
						logEvent(Event{Kind: EventWarning, ConversationID: conv.ConversationID, Message: err.Error()})
					}
				}
			}

			mu.Lock()
			threadResults = append(threadResults, tr)
			result.Threads++
			result.Messages += len(conv.Messages)
			if tr.Skipped {
				logEvent(Event{Kind: EventThreadSkipped, ConversationID: conv.ConversationID})
			} else {
				logEvent(Event{Kind: EventThreadWritten, ConversationID: conv.ConversationID})
			}
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return threadResults, err
	}
	return threadResults, nil
}

func relPath(outdir, provider, path string) string {
	rel, err := filepath.Rel(filepath.Join(outdir, provider), path)
	if err != nil {
		return path
	}
	return rel
}

func appendSample(samples []string, s string) []string {
	if len(samples) >= maxSamples {
		return samples
	}
	return append(samples, s)
}
