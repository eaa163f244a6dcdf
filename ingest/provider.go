package ingest

import "context"

// Provider converts one conversation-shaped RawRecord into an ordered
// list of NormalizedMessage, and declares the policy string the
// manifest records for it (§4.2, §4.5, §9 "dynamic provider dispatch").
//
// Normalize also reports dropped, the number of nodes it discarded
// internally before producing its surviving message list (e.g. a node
// whose ordering anchor is missing, §4.2), so a caller can fold
// adapter-level drops into its own skipped/error accounting (§7)
// instead of only seeing the messages that made it through.
//
// Concrete adapters live under ingest/provider/<name> and register
// themselves with ingest/provider's registry rather than being imported
// here directly, so this package never depends on a specific vendor
// export format.
type Provider interface {
	Name() string
	Policy() string
	Normalize(ctx context.Context, rec RawRecord, sourceStem string) (msgs []NormalizedMessage, dropped int, err error)
}
