// Package sink implements Sink (spec.md §6 C2): an ordered-chunk consumer that finalizes into an opaque result.
package sink

import "context"

// Sink accepts ordered byte chunks, finalizes, and yields a result value.
//
// A Sink is never shared across concurrent extractions (spec.md §5); partial state from a cancelled extraction
// must be discarded, and the Sink re-initialized before reuse.
type Sink interface {
	// Initialized reports whether Init has completed successfully.
	Initialized() bool

	// Init performs deferred initialization (e.g. opening a destination file).
	Init(ctx context.Context) error

	// Write appends chunk to the sink. Chunks arrive in strictly ascending source-offset order for one extraction.
	Write(ctx context.Context, chunk []byte) error

	// Finalize completes the sink and returns its opaque result (a buffer, a file path, a URL, ...).
	Finalize(ctx context.Context) (any, error)
}
