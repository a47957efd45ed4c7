package pipeline

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

type memReader struct{ data []byte }

func (m *memReader) ReadAt(_ context.Context, offset, length uint64) ([]byte, error) {
	end := offset + length
	if end > uint64(len(m.data)) {
		end = uint64(len(m.data))
	}
	return m.data[offset:end], nil
}

// passthroughCodec returns every chunk unmodified.
type passthroughCodec struct{ initCalls int }

func (c *passthroughCodec) Init(context.Context) error { c.initCalls++; return nil }
func (c *passthroughCodec) Append(_ context.Context, chunk []byte) ([]byte, error) {
	return chunk, nil
}
func (c *passthroughCodec) Flush(context.Context) ([]byte, uint32, error) { return nil, 0, nil }

type bufWriter struct {
	buf       bytes.Buffer
	initCalls int
}

func (w *bufWriter) Init(context.Context) error { w.initCalls++; return nil }
func (w *bufWriter) Write(_ context.Context, chunk []byte) error {
	_, err := w.buf.Write(chunk)
	return err
}

func TestRun_ChunkedCopy(t *testing.T) {
	data := bytes.Repeat([]byte("x"), 10)
	src := &memReader{data: data}
	codec := &passthroughCodec{}
	dst := &bufWriter{}

	var progressCalls [][2]uint64
	err := Run(context.Background(), src, codec, dst, 0, uint64(len(data)), Options{
		ChunkSize: 3,
		OnProgress: func(processed, total uint64) {
			progressCalls = append(progressCalls, [2]uint64{processed, total})
		},
	})

	assert.NoError(t, err)
	assert.Equal(t, data, dst.buf.Bytes())
	assert.Equal(t, 1, codec.initCalls)
	assert.Equal(t, 1, dst.initCalls)
	assert.Equal(t, [][2]uint64{{3, 10}, {6, 10}, {9, 10}, {10, 10}}, progressCalls)
}

func TestRun_DefaultChunkSize(t *testing.T) {
	data := []byte("hello world")
	err := Run(context.Background(), &memReader{data: data}, &passthroughCodec{}, &bufWriter{}, 0, uint64(len(data)), Options{})
	assert.NoError(t, err)
}

func TestRun_ZeroLength(t *testing.T) {
	dst := &bufWriter{}
	err := Run(context.Background(), &memReader{}, &passthroughCodec{}, dst, 0, 0, Options{})
	assert.NoError(t, err)
	assert.Equal(t, 1, dst.initCalls)
	assert.Equal(t, 0, dst.buf.Len())
}

type failingFlushCodec struct{ passthroughCodec }

func (c *failingFlushCodec) Flush(context.Context) ([]byte, uint32, error) {
	return nil, 0, assertErr
}

var assertErr = &flushError{}

type flushError struct{}

func (*flushError) Error() string { return "flush failed" }

func TestRun_FlushErrorPropagates(t *testing.T) {
	data := []byte("abc")
	err := Run(context.Background(), &memReader{data: data}, &failingFlushCodec{}, &bufWriter{}, 0, uint64(len(data)), Options{})
	assert.ErrorIs(t, err, assertErr)
}
