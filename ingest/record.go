package ingest

import "github.com/tidwall/gjson"

// RawRecord is an opaque decoded JSON value from the input (§3). No schema
// is enforced at this layer; it is modeled as a gjson.Result rather than
// an interface{} tree so adapters can probe shape (object vs array vs
// scalar, presence of a field) without committing to a Go struct until a
// field's concrete type is actually needed.
type RawRecord struct {
	raw []byte
	val gjson.Result
}

func newRawRecord(raw []byte) RawRecord {
	return RawRecord{raw: raw, val: gjson.ParseBytes(raw)}
}

// NewRawRecord builds a RawRecord directly from bytes, for callers (and
// adapter tests) that already have a single decoded JSON value in hand
// rather than a Reader to pull it from.
func NewRawRecord(raw []byte) RawRecord {
	return newRawRecord(raw)
}

// Raw returns the original bytes this record was decoded from.
func (r RawRecord) Raw() []byte { return r.raw }

// Result exposes the underlying gjson.Result for adapters that want the
// full query surface (Get, ForEach, Array, Map, ...).
func (r RawRecord) Result() gjson.Result { return r.val }

// IsObject reports whether the decoded top-level value is a JSON object.
func (r RawRecord) IsObject() bool { return r.val.IsObject() }

// Get is shorthand for r.Result().Get(path).
func (r RawRecord) Get(path string) gjson.Result { return r.val.Get(path) }
