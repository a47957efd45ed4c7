package codec

import (
	"context"
	"hash/crc32"
)

// zipCryptoHeaderSize is the length of the encrypted header that precedes a ZipCrypto-protected entry's payload.
const zipCryptoHeaderSize = 12

// zipCryptoCodec implements Codec for the legacy PKWARE stream cipher (general-purpose bit-flag encryption bit set,
// no AES extra field). Key schedule and the 12-byte header check-byte rule follow the algorithm demonstrated in
// other_examples/1a61c72e_AndreiTelteu-ZipCrack__internal-verifier-zipheader.go.go, combined with a Deflate/Store
// inner codec exactly as the AES codec wraps one (spec.md treats the concrete cipher as a black box; this is the
// reader's own default implementation of that box).
type zipCryptoCodec struct {
	cfg   Config
	keys  [3]uint32
	inner Codec

	header    []byte
	checkByte byte
	dataDescr bool
	modTime   uint16
	crcHint   uint32

	initialized bool
}

// ZipCryptoOptions carries the two general-purpose-flag-derived fields needed to validate the ZipCrypto header,
// since the header's check byte is either the CRC-32's high byte or the MS-DOS mod time's high byte depending on
// whether the data-descriptor bit is set (spec.md §3 bit_flag.data_descriptor).
type ZipCryptoOptions struct {
	DataDescriptorSet bool
	ModTime           uint16
	InnerFactory      Factory
}

// NewZipCrypto returns a Factory that produces Codec instances for the legacy PKWARE stream cipher, wrapping an
// inner Store/Deflate codec created by opts.InnerFactory for the decrypted bytes.
func NewZipCrypto(opts ZipCryptoOptions) Factory {
	return func(cfg Config) (Codec, error) {
		inner, err := opts.InnerFactory(cfg)
		if err != nil {
			return nil, err
		}

		c := &zipCryptoCodec{
			cfg:       cfg,
			inner:     inner,
			dataDescr: opts.DataDescriptorSet,
			modTime:   opts.ModTime,
			crcHint:   cfg.InputSignature,
		}
		c.resetKeys(cfg.InputPassword)
		return c, nil
	}
}

func (c *zipCryptoCodec) resetKeys(password string) {
	c.keys = [3]uint32{0x12345678, 0x23456789, 0x34567890}
	for _, b := range []byte(password) {
		c.updateKeys(b)
	}
}

func (c *zipCryptoCodec) updateKeys(b byte) {
	c.keys[0] = crc32.Update(c.keys[0], crc32.IEEETable, []byte{b})
	c.keys[1] = c.keys[1] + (c.keys[0] & 0xff)
	c.keys[1] = c.keys[1]*134775813 + 1
	c.keys[2] = crc32.Update(c.keys[2], crc32.IEEETable, []byte{byte(c.keys[1] >> 24)})
}

func (c *zipCryptoCodec) decryptByte() byte {
	temp := uint16(c.keys[2]) | 2
	return byte((temp * (temp ^ 1)) >> 8)
}

func (c *zipCryptoCodec) decrypt(buf []byte) {
	for i, b := range buf {
		p := b ^ c.decryptByte()
		buf[i] = p
		c.updateKeys(p)
	}
}

func (c *zipCryptoCodec) Init(ctx context.Context) error {
	return c.inner.Init(ctx)
}

// Append decrypts the incoming stream and feeds the plaintext compressed bytes into the inner codec. The first
// zipCryptoHeaderSize bytes across calls are consumed as the encryption header and validated against the expected
// check byte (ErrInvalidPassword on mismatch) before any bytes reach the inner codec.
func (c *zipCryptoCodec) Append(ctx context.Context, chunk []byte) ([]byte, error) {
	buf := append([]byte(nil), chunk...)
	c.decrypt(buf)

	if !c.initialized {
		need := zipCryptoHeaderSize - len(c.header)
		if need > len(buf) {
			c.header = append(c.header, buf...)
			return nil, nil
		}

		c.header = append(c.header, buf[:need]...)
		buf = buf[need:]
		c.initialized = true

		expected := byte(c.crcHint >> 24)
		if c.dataDescr {
			expected = byte(c.modTime >> 8)
		}
		if c.header[zipCryptoHeaderSize-1] != expected {
			return nil, &passwordError{}
		}
	}

	if len(buf) == 0 {
		return nil, nil
	}

	return c.inner.Append(ctx, buf)
}

func (c *zipCryptoCodec) Flush(ctx context.Context) ([]byte, uint32, error) {
	return c.inner.Flush(ctx)
}

type passwordError struct{}

func (e *passwordError) Error() string {
	return ErrInvalidPassword.Error()
}

func (e *passwordError) Unwrap() error {
	return ErrInvalidPassword
}
