package zipreader

import (
	"context"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nguyengg/zipreader/internal/scan"
)

type memSource struct{ data []byte }

func (m *memSource) Size() uint64         { return uint64(len(m.data)) }
func (m *memSource) Initialized() bool    { return true }
func (m *memSource) Init(context.Context) error { return nil }
func (m *memSource) ReadAt(_ context.Context, offset, length uint64) ([]byte, error) {
	end := offset + length
	if end > uint64(len(m.data)) {
		end = uint64(len(m.data))
	}
	return m.data[offset:end], nil
}

func buildZip64EOCDChain(cdOffset, cdSize uint64) (locator, eocd []byte, zip64EOCDOffset uint64) {
	zip64EOCDOffset = cdOffset + cdSize

	locator = make([]byte, zip64LocatorSize)
	binary.LittleEndian.PutUint32(locator[0:4], sigZIP64EOCDLocator)
	binary.LittleEndian.PutUint64(locator[8:16], zip64EOCDOffset)

	eocd = make([]byte, eocdMinSize)
	binary.LittleEndian.PutUint32(eocd[0:4], sigEOCD)
	binary.LittleEndian.PutUint16(eocd[10:12], sentinel16)
	binary.LittleEndian.PutUint32(eocd[12:16], sentinel32)
	binary.LittleEndian.PutUint32(eocd[16:20], sentinel32)

	return locator, eocd, zip64EOCDOffset
}

// TestResolveCentralDirectoryLocation_ZIP64 exercises spec.md §8 scenario 3's prerequisite: the ZIP64 locator/EOCD
// chain must resolve to the correct central-directory offset even though the original source computes it via an
// overloaded intermediate variable (spec.md §9's open question). This test pins the corrected computation.
func TestResolveCentralDirectoryLocation_ZIP64(t *testing.T) {
	const cdOffset, cdSize, totalEntries = 1000, 500, 1

	locator, eocd, zip64EOCDOffset := buildZip64EOCDChain(cdOffset, cdSize)

	zip64eocd := make([]byte, zip64EOCDMinSize)
	binary.LittleEndian.PutUint32(zip64eocd[0:4], sigZIP64EOCD)
	binary.LittleEndian.PutUint64(zip64eocd[32:40], totalEntries)
	binary.LittleEndian.PutUint64(zip64eocd[40:48], cdSize)
	binary.LittleEndian.PutUint64(zip64eocd[48:56], cdOffset)

	data := make([]byte, zip64EOCDOffset+zip64EOCDMinSize+zip64LocatorSize+eocdMinSize)
	copy(data[zip64EOCDOffset:], zip64eocd)
	copy(data[zip64EOCDOffset+zip64EOCDMinSize:], locator)
	copy(data[zip64EOCDOffset+zip64EOCDMinSize+zip64LocatorSize:], eocd)

	src := &memSource{data: data}
	size := uint64(len(data))

	eocdResult, err := findEOCD(context.Background(), src, size)
	assert.NoError(t, err)

	offset, length, entries, err := resolveCentralDirectoryLocation(context.Background(), src, size, eocdResult)
	assert.NoError(t, err)
	assert.Equal(t, uint64(cdOffset), offset)
	assert.Equal(t, uint64(cdSize), length)
	assert.Equal(t, uint64(totalEntries), entries)
}

func TestResolveCentralDirectoryLocation_NonZIP64(t *testing.T) {
	eocd := make([]byte, eocdMinSize)
	binary.LittleEndian.PutUint32(eocd[0:4], sigEOCD)
	binary.LittleEndian.PutUint16(eocd[10:12], 3)
	binary.LittleEndian.PutUint32(eocd[12:16], 200)
	binary.LittleEndian.PutUint32(eocd[16:20], 50)

	src := &memSource{data: eocd}
	result := scan.Result{TailOffset: 0, SignatureOffset: 0, Window: eocd}

	offset, length, entries, err := resolveCentralDirectoryLocation(context.Background(), src, uint64(len(eocd)), result)
	assert.NoError(t, err)
	assert.Equal(t, uint64(50), offset)
	assert.Equal(t, uint64(200), length)
	assert.Equal(t, uint64(3), entries)
}

func TestDecodeDOSTime_OutOfRange(t *testing.T) {
	got := decodeDOSTime(0, 0)
	assert.True(t, got.IsZero())
}

func TestDecodeDOSTime_Valid(t *testing.T) {
	// 2024-01-15, 10:30:00: date = ((2024-1980)<<9) | (1<<5) | 15
	date := uint16((44 << 9) | (1 << 5) | 15)
	tm := uint16((10 << 11) | (30 << 5) | 0)

	got := decodeDOSTime(date, tm)
	assert.Equal(t, 2024, got.Year())
	assert.Equal(t, 15, got.Day())
	assert.Equal(t, 10, got.Hour())
	assert.Equal(t, 30, got.Minute())
}
