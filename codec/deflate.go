package codec

import (
	"context"
	"hash/crc32"
	"io"

	"github.com/klauspost/compress/flate"
)

// deflateCodec implements Codec for CompressionMethod Deflate using klauspost/compress/flate, which the teacher
// already depended on transitively (via klauspost/pgzip); promoted here to a direct dependency since DEFLATE is
// this library's primary compression method (see DESIGN.md).
//
// flate.Reader is pull-based (it calls Read on its source whenever it wants more bytes), while the streaming
// pipeline driver (C8) is push-based (it hands the codec one chunk at a time). The two are bridged with an io.Pipe
// and a single background goroutine that runs the decompressor; Append writes into the pipe and opportunistically
// drains whatever plaintext has been produced so far, and Flush closes the pipe and waits for the goroutine to
// finish. This keeps the codec's concurrency entirely internal, matching spec.md §5 ("concurrency... is hidden
// behind the Codec interface").
type deflateCodec struct {
	cfg Config

	pw     *io.PipeWriter
	outCh  chan []byte
	doneCh chan error

	crc uint32
}

// NewDeflate returns a Factory that produces Codec instances for CompressionMethod Deflate.
func NewDeflate() Factory {
	return func(cfg Config) (Codec, error) {
		pr, pw := io.Pipe()

		c := &deflateCodec{
			cfg:    cfg,
			pw:     pw,
			outCh:  make(chan []byte, 16),
			doneCh: make(chan error, 1),
		}

		go c.run(pr)

		return c, nil
	}
}

func (c *deflateCodec) run(pr *io.PipeReader) {
	fr := flate.NewReader(pr)
	defer fr.Close()
	defer close(c.outCh)

	buf := make([]byte, 32*1024)
	for {
		n, err := fr.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			c.outCh <- chunk
		}
		if err == io.EOF {
			c.doneCh <- nil
			return
		}
		if err != nil {
			c.doneCh <- err
			return
		}
	}
}

func (c *deflateCodec) Init(context.Context) error {
	return nil
}

func (c *deflateCodec) Append(ctx context.Context, chunk []byte) ([]byte, error) {
	if len(chunk) > 0 {
		if _, err := c.pw.Write(chunk); err != nil {
			return nil, err
		}
	}

	return c.drain(), nil
}

// drain collects whatever decoded chunks the background goroutine has produced so far without blocking.
func (c *deflateCodec) drain() []byte {
	var out []byte
	for {
		select {
		case b, ok := <-c.outCh:
			if !ok {
				return out
			}
			c.crc = crc32.Update(c.crc, crc32.IEEETable, b)
			out = append(out, b...)
		default:
			return out
		}
	}
}

func (c *deflateCodec) Flush(context.Context) ([]byte, uint32, error) {
	_ = c.pw.Close()

	var out []byte
	for b := range c.outCh {
		c.crc = crc32.Update(c.crc, crc32.IEEETable, b)
		out = append(out, b...)
	}

	if err := <-c.doneCh; err != nil {
		return out, c.crc, err
	}

	if c.cfg.InputSigned && c.crc != c.cfg.InputSignature {
		return out, c.crc, &signatureError{expected: c.cfg.InputSignature, actual: c.crc}
	}

	return out, c.crc, nil
}
