// Package zipreader parses ZIP central directories and streams the decompressed, optionally decrypted content of
// any entry to a caller-supplied sink, over an abstract random-access byte source.
package zipreader

import (
	"context"

	"golang.org/x/text/encoding"

	"github.com/nguyengg/zipreader/codec"
)

// RandomSource provides archive size and bounded byte reads by absolute offset. Implementations live in the
// source package (source.Memory, source.File, source.S3); any type satisfying this method set works.
//
// Implementations must be safe for concurrent ReadAt calls once Init has returned: the RandomSource is read-only
// and may be shared across any number of concurrent entry extractions.
type RandomSource interface {
	// Size returns the total archive length in bytes. Valid only once Initialized returns true.
	Size() uint64
	// Initialized reports whether Init has completed successfully.
	Initialized() bool
	// Init performs deferred initialization (e.g. a HEAD request to learn the archive size). Idempotent.
	Init(ctx context.Context) error
	// ReadAt returns exactly length bytes starting at offset, or a non-nil error.
	ReadAt(ctx context.Context, offset, length uint64) ([]byte, error)
}

// Sink accepts ordered byte chunks, finalizes, and yields a result value. Implementations live in the sink
// package (sink.Buffer, sink.File); any type satisfying this method set works.
//
// A Sink is never shared across concurrent extractions; partial state from a cancelled extraction must be
// discarded, and the Sink re-initialized before reuse.
type Sink interface {
	Initialized() bool
	Init(ctx context.Context) error
	Write(ctx context.Context, chunk []byte) error
	Finalize(ctx context.Context) (any, error)
}

// ReaderOptions configures NewReader.
type ReaderOptions struct {
	// Password is the default credential used for encrypted entries when GetDataOptions.Password is empty.
	Password string

	// FilenameEncoding and CommentEncoding are the default fallback charsets used by GetEntries when an
	// entry's language-encoding bit is unset. Both default to charset.Default (CP-437) when left nil.
	FilenameEncoding, CommentEncoding encoding.Encoding

	// StoreFactory and DeflateFactory build the innermost (post-decryption) codec for STORE and DEFLATE
	// entries respectively. Defaulted to codec.NewStore() and codec.NewDeflate().
	StoreFactory, DeflateFactory codec.Factory

	// ZipCryptoFactory and AES256Factory wrap an inner codec with legacy or WinZip AES-256 decryption.
	// Defaulted to codec.NewZipCrypto and codec.NewAES256 (configured with the matching inner factory above).
	ZipCryptoFactory, AES256Factory func(inner codec.Factory) codec.Factory
}

// Reader parses one ZIP archive's central directory and extracts its entries. A Reader is safe for concurrent use
// once constructed: GetEntries and GetData may be called concurrently from multiple goroutines, since RandomSource
// itself is required to support concurrent reads.
type Reader struct {
	source RandomSource
	opts   ReaderOptions
}

// NewReader returns a Reader over src. src.Init is deferred to the first GetEntries/GetData call, consistent with
// RandomSource's own lazy-initialization contract.
func NewReader(src RandomSource, optFns ...func(*ReaderOptions)) *Reader {
	opts := ReaderOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Reader{source: src, opts: opts}
}

// Close releases the underlying RandomSource if it implements io.Closer (e.g. source.File), otherwise it is a
// no-op. This mirrors the teacher's pattern of delegating Close to whatever concrete resource is behind an
// interface-typed field (see s3reader.Reader.Close in the teacher's s3reader package).
func (r *Reader) Close() error {
	if c, ok := r.source.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
