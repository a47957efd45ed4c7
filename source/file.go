package source

import (
	"context"
	"fmt"
	"io"
	"os"
)

// File is a RandomSource backed by an *os.File, using io.ReaderAt so concurrent ReadAt calls are safe (matching
// the teacher's lazy, idempotent initialization pattern from s3readseeker/readseeker.go, adapted here from S3 to a
// local file handle).
type File struct {
	f    *os.File
	size uint64
	init bool
}

var _ RandomSource = (*File)(nil)

// NewFile returns a File RandomSource over an already-opened file. Size is determined on Init via os.File.Stat.
func NewFile(f *os.File) *File {
	return &File{f: f}
}

// Open opens name and returns a File RandomSource over it, ready for Init.
func Open(name string) (*File, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open file error: %w", err)
	}
	return NewFile(f), nil
}

func (f *File) Size() uint64 {
	return f.size
}

func (f *File) Initialized() bool {
	return f.init
}

func (f *File) Init(context.Context) error {
	if f.init {
		return nil
	}

	fi, err := f.f.Stat()
	if err != nil {
		return fmt.Errorf("stat file error: %w", err)
	}

	f.size = uint64(fi.Size())
	f.init = true
	return nil
}

// ReadAt returns exactly length bytes, failing (even on a bare io.EOF) if the file has fewer than length bytes
// remaining at offset: os.File.ReadAt only guarantees n == len(buf) when err == nil, so n must be checked
// explicitly rather than treating io.EOF as always benign (see source/s3.go's io.ReadFull for the same discipline).
func (f *File) ReadAt(_ context.Context, offset, length uint64) ([]byte, error) {
	buf := make([]byte, length)
	n, err := f.f.ReadAt(buf, int64(offset))
	if n != int(length) {
		if err == nil {
			err = io.ErrUnexpectedEOF
		}
		return nil, fmt.Errorf("read file error: %w", err)
	}
	return buf, nil
}

// Close closes the underlying file. Close is not part of the RandomSource interface; callers (or Reader.Close, per
// SPEC_FULL.md §10) should type-assert io.Closer when they own the file's lifecycle.
func (f *File) Close() error {
	return f.f.Close()
}
