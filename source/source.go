// Package source implements RandomSource (spec.md §6 C1): abstract, read-only, random-access byte storage over a
// ZIP archive. The three implementations here — Memory, File, and S3 — cover the two targets named in spec.md §1:
// small in-memory buffers, and large archives accessed through an abstract random-access source.
package source

import "context"

// RandomSource provides archive size and bounded byte reads by absolute offset.
//
// Implementations must be safe for concurrent ReadAt calls once Init has returned (spec.md §5: "the RandomSource is
// read-only and may be shared across any number of concurrent entry extractions").
type RandomSource interface {
	// Size returns the total archive length in bytes. Init must have been called first.
	Size() uint64

	// Initialized reports whether Init has completed successfully.
	Initialized() bool

	// Init performs deferred initialization (e.g. a HEAD request to learn the archive size). Idempotent: calling
	// Init after Initialized() returns true is a cheap no-op.
	Init(ctx context.Context) error

	// ReadAt returns exactly length bytes starting at offset, or a non-nil error.
	ReadAt(ctx context.Context, offset, length uint64) ([]byte, error)
}
