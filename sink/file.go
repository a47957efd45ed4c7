package sink

import (
	"context"
	"fmt"
	"os"
)

// File opens (or creates) the destination file lazily on Init and writes chunks to it in order, mirroring the
// teacher's extraction file-writing discipline in z/extract.go (os.OpenFile with O_TRUNC/O_EXCL depending on
// NoOverwrite).
type File struct {
	path        string
	noOverwrite bool
	perm        os.FileMode

	f    *os.File
	init bool
}

var _ Sink = (*File)(nil)

// NewFile returns a File sink that will write to path on Init, with the given permission bits.
//
// If noOverwrite is true, Init fails if path already exists.
func NewFile(path string, noOverwrite bool, perm os.FileMode) *File {
	return &File{path: path, noOverwrite: noOverwrite, perm: perm}
}

func (s *File) Initialized() bool {
	return s.init
}

func (s *File) Init(context.Context) error {
	if s.init {
		return nil
	}

	flag := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if s.noOverwrite {
		flag = os.O_WRONLY | os.O_CREATE | os.O_EXCL
	}

	f, err := os.OpenFile(s.path, flag, s.perm)
	if err != nil {
		return fmt.Errorf("create file (path=%s) error: %w", s.path, err)
	}

	s.f = f
	s.init = true
	return nil
}

func (s *File) Write(_ context.Context, chunk []byte) error {
	_, err := s.f.Write(chunk)
	return err
}

// Finalize closes the file and returns its path.
func (s *File) Finalize(context.Context) (any, error) {
	err := s.f.Close()
	s.init = false
	return s.path, err
}
