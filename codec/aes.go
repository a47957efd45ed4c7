package codec

import (
	"bytes"
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/sha1"
	"hash"

	"golang.org/x/crypto/pbkdf2"
)

// aesAuthCodeSize is the length of the truncated HMAC-SHA1 authentication code appended after a WinZip AE-2 entry's
// ciphertext.
const aesAuthCodeSize = 10

// aesKeyLen, aesSaltLen, aesMACLen are fixed for AES-256 (strength 3) per the WinZip AE-2 specification.
const (
	aesKeyLen  = 32
	aesSaltLen = 16
	aesMACLen  = 32
)

// aes256Codec implements Codec for WinZip AE-2 (AES strength 3). Key/MAC derivation follows PBKDF2-HMAC-SHA1 with
// 1000 iterations over password+salt as specified by the WinZip AE-1/AE-2 format; bulk decryption is AES-CTR;
// authenticity is a truncated (10-byte) HMAC-SHA1 over the ciphertext, verified at Flush once every byte (and the
// trailing authentication code) has been seen. golang.org/x/crypto is grounded in the pack via hackclub-arker's
// direct dependency on it (see DESIGN.md); crypto/aes, crypto/cipher, crypto/hmac, crypto/sha1 are the standard
// primitives every Go AES-CTR/HMAC implementation in the ecosystem builds on.
//
// WinZip AES increments its 128-bit counter block as a little-endian integer starting at 1; crypto/cipher.Stream's
// own CTR mode increments as a big-endian byte string, which only agrees with WinZip for the first block. The
// counter is therefore advanced by hand (counter, keystream, keystreamPos below) instead of going through
// cipher.NewCTR.
type aes256Codec struct {
	cfg Config

	salt       []byte
	saltWanted int

	block        cipher.Block
	counter      [aes.BlockSize]byte
	keystream    [aes.BlockSize]byte
	keystreamPos int

	mac hash.Hash

	pending []byte // holds back aesAuthCodeSize bytes in case the tail of input is the authentication code.

	inner Codec
}

// AES256Options carries the inner (post-unwrap) codec factory for AES256. The password is taken from
// Config.InputPassword.
type AES256Options struct {
	InnerFactory Factory
}

// NewAES256 returns a Factory that produces Codec instances for WinZip AE-2 (AES-256).
func NewAES256(opts AES256Options) Factory {
	return func(cfg Config) (Codec, error) {
		inner, err := opts.InnerFactory(cfg)
		if err != nil {
			return nil, err
		}

		return &aes256Codec{
			cfg:        cfg,
			saltWanted: aesSaltLen,
			inner:      inner,
		}, nil
	}
}

func (c *aes256Codec) Init(ctx context.Context) error {
	return c.inner.Init(ctx)
}

// xorKeyStream decrypts src into dst using the little-endian AES-CTR keystream, generating and consuming one
// 16-byte block at a time so callers may pass chunks of any length across multiple calls.
func (c *aes256Codec) xorKeyStream(dst, src []byte) {
	for i := range src {
		if c.keystreamPos == aes.BlockSize {
			c.block.Encrypt(c.keystream[:], c.counter[:])
			incrementCounterLE(&c.counter)
			c.keystreamPos = 0
		}
		dst[i] = src[i] ^ c.keystream[c.keystreamPos]
		c.keystreamPos++
	}
}

// incrementCounterLE adds 1 to ctr, treating it as a little-endian integer (carry propagates from index 0 upward),
// matching the WinZip AES counter-block convention.
func incrementCounterLE(ctr *[aes.BlockSize]byte) {
	for i := range ctr {
		ctr[i]++
		if ctr[i] != 0 {
			break
		}
	}
}

// Append consumes the salt and 2-byte password-verification value from the front of the stream (once), then
// decrypts and forwards ciphertext to the inner codec, holding back the last aesAuthCodeSize bytes seen so far
// since they might be the trailing authentication code rather than ciphertext.
func (c *aes256Codec) Append(ctx context.Context, chunk []byte) ([]byte, error) {
	buf := append([]byte(nil), chunk...)

	if c.block == nil {
		if c.saltWanted > 0 {
			take := min(c.saltWanted, len(buf))
			c.salt = append(c.salt, buf[:take]...)
			buf = buf[take:]
			c.saltWanted -= take
			if c.saltWanted > 0 {
				return nil, nil
			}
		}

		// 2-byte password verification value; may itself be split across Append calls.
		pvAll := append(c.pending, buf...)
		if len(pvAll) < 2 {
			c.pending = pvAll
			return nil, nil
		}
		pv := pvAll[:2]
		buf = pvAll[2:]
		c.pending = nil

		key := pbkdf2.Key([]byte(c.cfg.InputPassword), c.salt, 1000, 2*aesKeyLen+2, sha1.New)
		aesKey, macKey, verify := key[:aesKeyLen], key[aesKeyLen:2*aesKeyLen], key[2*aesKeyLen:]
		if !bytes.Equal(pv, verify) {
			return nil, &passwordError{}
		}

		block, err := aes.NewCipher(aesKey)
		if err != nil {
			return nil, err
		}
		c.block = block
		c.counter[0] = 1 // little-endian counter block, starts at 1 per the WinZip AES specification.
		c.keystreamPos = aes.BlockSize
		c.mac = hmac.New(sha1.New, macKey)
	}

	// hold back the last aesAuthCodeSize bytes: they could be the trailing authentication code.
	all := append(c.pending, buf...)
	c.pending = nil

	if len(all) <= aesAuthCodeSize {
		c.pending = all
		return nil, nil
	}

	ready := all[:len(all)-aesAuthCodeSize]
	c.pending = append([]byte(nil), all[len(all)-aesAuthCodeSize:]...)

	c.mac.Write(ready)
	plain := make([]byte, len(ready))
	c.xorKeyStream(plain, ready)

	return c.inner.Append(ctx, plain)
}

func (c *aes256Codec) Flush(ctx context.Context) ([]byte, uint32, error) {
	// whatever remains in c.pending beyond the authentication code length (there should be none in a
	// well-formed stream) is the last of the ciphertext.
	var tail []byte
	authCode := c.pending
	if len(authCode) > aesAuthCodeSize {
		tail = authCode[:len(authCode)-aesAuthCodeSize]
		authCode = authCode[len(authCode)-aesAuthCodeSize:]
	}

	var out []byte
	if len(tail) > 0 {
		c.mac.Write(tail)
		plain := make([]byte, len(tail))
		c.xorKeyStream(plain, tail)
		b, err := c.inner.Append(ctx, plain)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, b...)
	}

	b, crc, err := c.inner.Flush(ctx)
	out = append(out, b...)
	if err != nil {
		return out, crc, err
	}

	expected := c.mac.Sum(nil)[:aesAuthCodeSize]
	if !hmac.Equal(expected, authCode) {
		return out, crc, &passwordError{}
	}

	return out, crc, nil
}
