package codec

import (
	"context"
	"crypto/aes"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/pbkdf2"
)

// buildAE2Stream encrypts plain the way a WinZip AE-2 writer would: salt, 2-byte password-verification value,
// little-endian-counter AES-CTR ciphertext, then a truncated HMAC-SHA1 over the ciphertext. It exists purely to
// give the round-trip tests below a known-good fixture independent of aes256Codec's own encryption path.
func buildAE2Stream(t *testing.T, password string, plain []byte) []byte {
	t.Helper()

	salt := make([]byte, aesSaltLen)
	_, err := rand.Read(salt)
	assert.NoError(t, err)

	key := pbkdf2.Key([]byte(password), salt, 1000, 2*aesKeyLen+2, sha1.New)
	aesKey, macKey, verify := key[:aesKeyLen], key[aesKeyLen:2*aesKeyLen], key[2*aesKeyLen:]

	block, err := aes.NewCipher(aesKey)
	assert.NoError(t, err)

	var counter [aes.BlockSize]byte
	counter[0] = 1

	ciphertext := make([]byte, len(plain))
	var keystream [aes.BlockSize]byte
	pos := aes.BlockSize
	for i := range plain {
		if pos == aes.BlockSize {
			block.Encrypt(keystream[:], counter[:])
			incrementCounterLE(&counter)
			pos = 0
		}
		ciphertext[i] = plain[i] ^ keystream[pos]
		pos++
	}

	mac := hmac.New(sha1.New, macKey)
	mac.Write(ciphertext)
	authCode := mac.Sum(nil)[:aesAuthCodeSize]

	out := append([]byte{}, salt...)
	out = append(out, verify...)
	out = append(out, ciphertext...)
	out = append(out, authCode...)
	return out
}

func TestAES256_RoundTrip_MultiBlock(t *testing.T) {
	const password = "correct horse battery staple"
	// More than one 16-byte AES block so a wrong counter increment would corrupt everything past the first block.
	plain := []byte("the quick brown fox jumps over the lazy dog, twice for good measure")

	stream := buildAE2Stream(t, password, plain)

	factory := NewAES256(AES256Options{InnerFactory: NewStore()})
	c, err := factory(Config{
		Operation:      Inflate,
		InputPassword:  password,
		InputSigned:    false,
		InputEncrypted: true,
		Method:         Store,
	})
	assert.NoError(t, err)
	assert.NoError(t, c.Init(context.Background()))

	out, err := c.Append(context.Background(), stream)
	assert.NoError(t, err)

	tail, _, err := c.Flush(context.Background())
	assert.NoError(t, err)

	assert.Equal(t, plain, append(out, tail...))
}

func TestAES256_WrongPassword(t *testing.T) {
	stream := buildAE2Stream(t, "right-password", []byte("some payload longer than one block, to be safe"))

	factory := NewAES256(AES256Options{InnerFactory: NewStore()})
	c, err := factory(Config{
		Operation:      Inflate,
		InputPassword:  "wrong-password",
		InputEncrypted: true,
		Method:         Store,
	})
	assert.NoError(t, err)
	assert.NoError(t, c.Init(context.Background()))

	_, err = c.Append(context.Background(), stream)
	assert.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidPassword)
}
