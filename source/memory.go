package source

import (
	"context"
	"fmt"
)

// Memory is a RandomSource backed by an in-memory byte slice, for small archives.
type Memory struct {
	data []byte
}

var _ RandomSource = (*Memory)(nil)

// NewMemory returns a Memory RandomSource over data. data is not copied; callers must not mutate it afterward.
func NewMemory(data []byte) *Memory {
	return &Memory{data: data}
}

func (m *Memory) Size() uint64 {
	return uint64(len(m.data))
}

func (m *Memory) Initialized() bool {
	return true
}

func (m *Memory) Init(context.Context) error {
	return nil
}

func (m *Memory) ReadAt(_ context.Context, offset, length uint64) ([]byte, error) {
	if offset+length > uint64(len(m.data)) {
		return nil, fmt.Errorf("read out of bounds: offset=%d length=%d size=%d", offset, length, len(m.data))
	}

	return m.data[offset : offset+length], nil
}
