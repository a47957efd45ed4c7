// Package codec defines the black-box transform the reader pipeline drives to turn compressed, possibly encrypted
// bytes into plaintext, plus a handful of concrete implementations (STORE, DEFLATE, legacy ZipCrypto, WinZip AES-256)
// so the library is directly usable without a caller having to bring their own.
//
// The reader core (the root package) depends only on Codec and Factory; it never imports the concrete
// implementations in this package directly.
package codec

import "context"

// Operation identifies the direction a Codec runs. Only Inflate is in scope for this reader (spec.md §1: writing
// archives is out of scope), but the field is kept on Config so a Factory can reject anything else explicitly.
type Operation int

const (
	Inflate Operation = iota
)

// CompressionMethod mirrors the effective method (after AES unwrap) a Codec must handle.
type CompressionMethod uint16

const (
	Store   CompressionMethod = 0
	Deflate CompressionMethod = 8
)

// Config configures a Codec created by a Factory, per spec.md §6.
type Config struct {
	// Operation is always Inflate for this reader.
	Operation Operation

	// InputPassword is the credential for InputEncrypted entries. Empty if the entry isn't encrypted.
	InputPassword string

	// InputSigned indicates the caller wants Flush to verify the decompressed CRC-32 against InputSignature.
	InputSigned bool

	// InputSignature is the expected CRC-32 of the plaintext, meaningful only if InputSigned is true.
	InputSignature uint32

	// InputCompressed is true unless Method is Store.
	InputCompressed bool

	// InputEncrypted is the AND of the central and local bit-flag encryption bits (spec.md §4.4 step 2).
	InputEncrypted bool

	// Method is the effective (post-AES-unwrap) compression method: Store or Deflate.
	Method CompressionMethod
}

// Codec transforms compressed+encrypted byte chunks into plaintext and reports the plaintext's CRC-32.
//
// One Codec instance is used for exactly one extraction (spec.md §5): Codec is never shared across concurrent
// GetData calls.
type Codec interface {
	// Init prepares the codec before the first Append.
	Init(ctx context.Context) error

	// Append transforms one input chunk, returning zero or more plaintext bytes. The returned slice is only valid
	// until the next call to Append or Flush. An encryption preamble at the front of the stream is verified here;
	// a mismatch returns an error wrapping ErrInvalidPassword.
	Append(ctx context.Context, chunk []byte) ([]byte, error)

	// Flush finalizes the codec, returning any trailing plaintext bytes and the CRC-32 of the full plaintext.
	//
	// Flush returns an error wrapping ErrInvalidSignature if Config.InputSigned was true and the computed CRC-32
	// does not match Config.InputSignature, or an error wrapping ErrInvalidPassword if an authenticity/preamble
	// check failed.
	Flush(ctx context.Context) (data []byte, signature uint32, err error)
}

// Factory creates a Codec for the given Config.
type Factory func(cfg Config) (Codec, error)
