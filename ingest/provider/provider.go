// Package provider is a small closed registry of the adapters this
// module ships (spec.md §9 "dynamic provider dispatch"). Adapter
// packages (e.g. ingest/provider/openai) call Register from their
// init() so callers can resolve one by name without importing every
// adapter package directly.
package provider

import (
	"fmt"

	"github.com/llmlogparser/llm-logparser/ingest"
)

var registry = map[string]func() ingest.Provider{}

// Register adds a constructor to the registry under name.
func Register(name string, ctor func() ingest.Provider) {
	registry[name] = ctor
}

// Lookup returns a fresh ingest.Provider for name, or an error if no
// adapter is registered under it.
func Lookup(name string) (ingest.Provider, error) {
	ctor, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("provider: no adapter registered for %q", name)
	}
	return ctor(), nil
}

// Names returns the registered provider names, in no particular order.
func Names() []string {
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	return out
}
