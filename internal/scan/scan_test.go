package scan

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
)

type memReader struct {
	data []byte
}

func (m *memReader) ReadAt(_ context.Context, offset, length uint64) ([]byte, error) {
	end := offset + length
	if end > uint64(len(m.data)) {
		end = uint64(len(m.data))
	}
	return m.data[offset:end], nil
}

const eocdSignature = 0x06054b50

func TestFind_Default(t *testing.T) {
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	w, err := zw.Create("hello.txt")
	assert.NoError(t, err)
	_, err = w.Write([]byte("hello world"))
	assert.NoError(t, err)
	assert.NoError(t, zw.Close())

	src := &memReader{data: buf.Bytes()}
	r, err := Find(context.Background(), src, uint64(len(buf.Bytes())), eocdSignature, 22, 65535)
	assert.NoError(t, err)
	assert.Equal(t, uint32(eocdSignature), binary.LittleEndian.Uint32(r.Window[:4]))
}

func TestFind_WithComment(t *testing.T) {
	alphabet := "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	for _, commentLength := range []int{8 * 1024, 16 * 1024, 32 * 1024} {
		for _, delta := range []int{-4, -1, 0, 1, 4} {
			t.Run(fmt.Sprintf("%d delta=%d", commentLength, delta), func(t *testing.T) {
				n := commentLength + delta
				comment := make([]byte, n)
				for i := range n {
					comment[i] = alphabet[rand.IntN(len(alphabet))]
				}

				buf := &bytes.Buffer{}
				zw := zip.NewWriter(buf)
				assert.NoError(t, zw.SetComment(string(comment)))
				assert.NoError(t, zw.Close())

				src := &memReader{data: buf.Bytes()}
				r, err := Find(context.Background(), src, uint64(len(buf.Bytes())), eocdSignature, 22, 65535)
				assert.NoError(t, err)
				assert.Equal(t, len(buf.Bytes())-n-22, int(r.SignatureOffset))
			})
		}
	}
}

// TestFind_SignatureInComment exercises the "latest signature in window" rule from spec.md §8: when a comment
// trailing the real EOCD happens to contain the signature byte pattern, the backward scan selects the rightmost
// occurrence, which is the one embedded in the comment, not the genuine record that precedes it.
func TestFind_SignatureInComment(t *testing.T) {
	fake := make([]byte, 4)
	binary.LittleEndian.PutUint32(fake, eocdSignature)

	comment := append(append([]byte("prefix-"), fake...), []byte("-suffix")...)

	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	assert.NoError(t, zw.SetComment(string(comment)))
	assert.NoError(t, zw.Close())

	src := &memReader{data: buf.Bytes()}
	r, err := Find(context.Background(), src, uint64(len(buf.Bytes())), eocdSignature, 22, 65535)
	assert.NoError(t, err)

	wantOffset := len(buf.Bytes()) - len(comment) + len("prefix-")
	assert.Equal(t, wantOffset, int(r.SignatureOffset))
}

func TestFind_TooSmall(t *testing.T) {
	src := &memReader{data: []byte("short")}
	_, err := Find(context.Background(), src, 5, eocdSignature, 22, 65535)
	assert.ErrorIs(t, err, ErrTooSmall)
}

func TestFind_NotFound(t *testing.T) {
	data := make([]byte, 100)
	src := &memReader{data: data}
	_, err := Find(context.Background(), src, uint64(len(data)), eocdSignature, 22, 10)
	assert.ErrorIs(t, err, ErrSignatureNotFound)
}
