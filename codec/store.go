package codec

import (
	"context"
	"hash/crc32"
)

// storeCodec implements Codec for CompressionMethod Store (identity passthrough), tracking a running CRC-32 of
// the plaintext. CRC-32 has no third-party replacement in the examples this library was grounded on; hash/crc32
// is the idiomatic choice the standard library already provides (see DESIGN.md).
type storeCodec struct {
	cfg  Config
	crc  uint32
	size uint64
}

// NewStore returns a Factory that produces Codec instances for CompressionMethod Store.
func NewStore() Factory {
	return func(cfg Config) (Codec, error) {
		return &storeCodec{cfg: cfg}, nil
	}
}

func (c *storeCodec) Init(context.Context) error {
	return nil
}

func (c *storeCodec) Append(_ context.Context, chunk []byte) ([]byte, error) {
	if len(chunk) == 0 {
		return nil, nil
	}

	c.crc = crc32.Update(c.crc, crc32.IEEETable, chunk)
	c.size += uint64(len(chunk))
	return chunk, nil
}

func (c *storeCodec) Flush(_ context.Context) ([]byte, uint32, error) {
	if c.cfg.InputSigned && c.crc != c.cfg.InputSignature {
		return nil, c.crc, &signatureError{expected: c.cfg.InputSignature, actual: c.crc}
	}

	return nil, c.crc, nil
}

type signatureError struct {
	expected, actual uint32
}

func (e *signatureError) Error() string {
	return ErrInvalidSignature.Error()
}

func (e *signatureError) Unwrap() error {
	return ErrInvalidSignature
}
