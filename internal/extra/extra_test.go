package extra

import (
	"encoding/binary"
	"hash/crc32"
	"testing"

	"github.com/stretchr/testify/assert"
)

func tlv(tag, size uint16, payload []byte) []byte {
	buf := make([]byte, 4+len(payload))
	binary.LittleEndian.PutUint16(buf[0:2], tag)
	binary.LittleEndian.PutUint16(buf[2:4], size)
	copy(buf[4:], payload)
	return buf
}

func TestDecode_DuplicateTagFirstWins(t *testing.T) {
	buf := append(tlv(TagZIP64, 8, make([]byte, 8)), tlv(TagZIP64, 4, []byte{1, 2, 3, 4})...)
	fields := Decode(buf)
	assert.Len(t, fields[TagZIP64], 8)
}

func TestDecode_TruncatedTail(t *testing.T) {
	buf := tlv(TagZIP64, 8, make([]byte, 8))
	buf = append(buf, 0x75, 0x70, 0xFF) // claims a tag but no full header
	fields := Decode(buf)
	assert.Contains(t, fields, TagZIP64)
	assert.NotContains(t, fields, TagUnicodePath)
}

func TestDecodeZIP64_PromotesInFixedOrder(t *testing.T) {
	payload := make([]byte, 24)
	binary.LittleEndian.PutUint64(payload[0:8], 5_000_000_000)
	binary.LittleEndian.PutUint64(payload[8:16], 4_000_000_000)
	binary.LittleEndian.PutUint64(payload[16:24], 1234)

	fields := Fields{TagZIP64: payload}
	z, ok, insufficient := DecodeZIP64(fields, true, true, true, false)
	assert.True(t, ok)
	assert.False(t, insufficient)
	assert.Equal(t, uint64(5_000_000_000), *z.UncompressedSize)
	assert.Equal(t, uint64(4_000_000_000), *z.CompressedSize)
	assert.Equal(t, uint64(1234), *z.Offset)
	assert.Nil(t, z.DiskStart)
}

func TestDecodeZIP64_InsufficientData(t *testing.T) {
	fields := Fields{TagZIP64: make([]byte, 4)}
	_, ok, insufficient := DecodeZIP64(fields, true, false, false, false)
	assert.True(t, ok)
	assert.True(t, insufficient)
}

func TestDecodeZIP64_Absent(t *testing.T) {
	_, ok, insufficient := DecodeZIP64(Fields{}, true, false, false, false)
	assert.False(t, ok)
	assert.False(t, insufficient)
}

func TestDecodeUnicodePath_ValidCRC(t *testing.T) {
	raw := []byte("r\xe9sum\xe9.txt")
	name := "résumé.txt"

	payload := make([]byte, 5+len(name))
	payload[0] = 1
	binary.LittleEndian.PutUint32(payload[1:5], crc32.ChecksumIEEE(raw))
	copy(payload[5:], name)

	fields := Fields{TagUnicodePath: payload}
	up, ok := DecodeUnicodePath(fields, raw)
	assert.True(t, ok)
	assert.True(t, up.Valid)
	assert.Equal(t, name, up.Name)
}

func TestDecodeUnicodePath_CRCMismatch(t *testing.T) {
	raw := []byte("original.txt")
	payload := make([]byte, 5+len("decoded.txt"))
	payload[0] = 1
	binary.LittleEndian.PutUint32(payload[1:5], 0xDEADBEEF)
	copy(payload[5:], "decoded.txt")

	fields := Fields{TagUnicodePath: payload}
	up, ok := DecodeUnicodePath(fields, raw)
	assert.True(t, ok)
	assert.False(t, up.Valid)
}

func TestDecodeAES(t *testing.T) {
	payload := []byte{2, 0, 'A', 'E', aesStrength256, 8, 0}
	fields := Fields{TagAES: payload}
	a, ok := DecodeAES(fields)
	assert.True(t, ok)
	assert.Equal(t, uint16(2), a.VendorVersion)
	assert.True(t, IsAES256(a.Strength))
	assert.Equal(t, uint16(8), a.WrappedMethod)
}

func TestIsAESSentinelMethod(t *testing.T) {
	assert.True(t, IsAESSentinelMethod(99))
	assert.False(t, IsAESSentinelMethod(8))
}
