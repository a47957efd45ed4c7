// Package pipeline implements the Streaming Pipeline Driver (spec.md §4.5, C8): a bounded-chunk read/codec/sink
// loop. Its read-feed-drain discipline is adapted from the teacher's context-aware copy loop in util/io.go
// (CopyBufferWithContext), generalized from a plain io.Reader/io.Writer pump into one that threads each chunk
// through a Codec before handing it to a Sink, and that reports progress the way the teacher's
// ProgressReporter-driven extraction loop in z/extract.go does.
package pipeline

import (
	"context"
	"fmt"
)

// Reader is the minimal capability the driver needs to pull archive bytes, matching source.RandomSource's ReadAt
// without importing that package (the pipeline is also exercised directly in tests against a trivial in-memory
// reader).
type Reader interface {
	ReadAt(ctx context.Context, offset, length uint64) ([]byte, error)
}

// Codec is the minimal capability the driver needs from codec.Codec.
type Codec interface {
	Init(ctx context.Context) error
	Append(ctx context.Context, chunk []byte) ([]byte, error)
	Flush(ctx context.Context) ([]byte, uint32, error)
}

// Writer is the minimal capability the driver needs from sink.Sink.
type Writer interface {
	Init(ctx context.Context) error
	Write(ctx context.Context, chunk []byte) error
}

// ProgressFunc is invoked after each input chunk has been consumed, with the number of compressed-stream bytes
// read so far and the total length of the range being driven. It must tolerate being called zero or many times;
// the driver never awaits anything beyond the call itself.
type ProgressFunc func(processed, total uint64)

// Options configures one Run.
type Options struct {
	// ChunkSize is the maximum number of bytes read from src per iteration. Zero selects a built-in default.
	ChunkSize uint64
	// OnProgress, if non-nil, is invoked after every chunk is consumed.
	OnProgress ProgressFunc
}

// DefaultChunkSize is the bounded read size used when Options.ChunkSize is zero.
const DefaultChunkSize = 512 * 1024

// Run drives length bytes starting at start from src through codec into dst, in chunks bounded by
// opts.ChunkSize. It initializes codec and dst (idempotently; Init is a no-op if already initialized) before the
// first write.
func Run(ctx context.Context, src Reader, codec Codec, dst Writer, start, length uint64, opts Options) error {
	chunkSize := opts.ChunkSize
	if chunkSize == 0 {
		chunkSize = DefaultChunkSize
	}

	if err := codec.Init(ctx); err != nil {
		return fmt.Errorf("init codec error: %w", err)
	}
	if err := dst.Init(ctx); err != nil {
		return fmt.Errorf("init sink error: %w", err)
	}

	var processed uint64
	for processed < length {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		n := chunkSize
		if remaining := length - processed; n > remaining {
			n = remaining
		}

		chunk, err := src.ReadAt(ctx, start+processed, n)
		if err != nil {
			return fmt.Errorf("read chunk at offset %d error: %w", start+processed, err)
		}

		out, err := codec.Append(ctx, chunk)
		if err != nil {
			return fmt.Errorf("codec append error: %w", err)
		}

		if len(out) > 0 {
			if err = dst.Write(ctx, out); err != nil {
				return fmt.Errorf("write chunk error: %w", err)
			}
		}

		processed += n
		if opts.OnProgress != nil {
			opts.OnProgress(processed, length)
		}
	}

	out, _, err := codec.Flush(ctx)
	if err != nil {
		return err
	}
	if len(out) > 0 {
		if err = dst.Write(ctx, out); err != nil {
			return fmt.Errorf("write final chunk error: %w", err)
		}
	}

	return nil
}
