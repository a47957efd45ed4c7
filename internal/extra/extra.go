// Package extra implements the Extra-Field Decoder (spec.md §4.3, C6): parsing the TLV region that trails a
// filename in both local and central file headers. It is grounded on the teacher's central-directory field
// parsing in z/cd.go (manual little-endian field reads via encoding/binary, tolerant of truncated trailers) and
// generalized here into a standalone tag→payload map plus typed views for the three tags this reader cares about.
package extra

import (
	"encoding/binary"
	"hash/crc32"
)

// Tag values recognized by the decoder; other tags are kept verbatim in Fields but not further interpreted.
const (
	TagZIP64        uint16 = 0x0001
	TagUnicodePath  uint16 = 0x7075
	TagAES          uint16 = 0x9901
	aesSentinelMethod uint16 = 99
	aesStrength256    byte   = 3
)

// Sentinel32 and Sentinel16 are the 32-bit/16-bit directory values that signal "promoted to ZIP64, read the real
// value from the ZIP64 extra block".
const (
	Sentinel32 uint32 = 0xFFFFFFFF
	Sentinel16 uint16 = 0xFFFF
)

// Fields is the tag→raw-payload map decoded from one TLV region. Duplicate tags keep only the first occurrence,
// per spec.md §4.2's tie-break rule.
type Fields map[uint16][]byte

// ZIP64 holds the subset of {uncompressed_size, compressed_size, offset, disk_start} promoted out of the ZIP64
// extra block, in the fixed order the format mandates: present fields appear only for directory values that were
// the 32-bit sentinel.
type ZIP64 struct {
	UncompressedSize *uint64
	CompressedSize   *uint64
	Offset           *uint64
	DiskStart        *uint32
}

// UnicodePath is the decoded 0x7075 extra field.
type UnicodePath struct {
	Version uint8
	CRC32   uint32
	Name    string
	// Valid is true iff CRC32 matches the CRC-32 of the raw filename bytes, per spec.md §4.3.
	Valid bool
}

// AES is the decoded 0x9901 extra field.
type AES struct {
	VendorVersion       uint16
	VendorID            [2]byte
	Strength            byte
	WrappedMethod       uint16
}

// Decode parses the TLV region buf (the bytes immediately following a filename in a local or central file
// header). Parsing is fault-tolerant: a truncated or malformed tail ends parsing early without an error, matching
// spec.md §4.3 ("consumption must be fault-tolerant").
func Decode(buf []byte) Fields {
	fields := make(Fields)
	for len(buf) >= 4 {
		tag := binary.LittleEndian.Uint16(buf[0:2])
		size := binary.LittleEndian.Uint16(buf[2:4])
		buf = buf[4:]

		if int(size) > len(buf) {
			// truncated payload; no more tags can be parsed from here.
			return fields
		}

		if _, exists := fields[tag]; !exists {
			fields[tag] = buf[:size]
		}
		buf = buf[size:]
	}
	return fields
}

// DecodeZIP64 promotes fields whose corresponding directory value was the 32-bit sentinel, consuming u64s from
// the ZIP64 payload in the fixed order {uncompressed_size, compressed_size, offset, disk_start}. ok is false if
// the ZIP64 extra field is absent; insufficientData is true if it is present but too short for the sentinels that
// need promotion.
func DecodeZIP64(fields Fields, uncompressedSizeIsSentinel, compressedSizeIsSentinel, offsetIsSentinel, diskStartIsSentinel bool) (z ZIP64, ok bool, insufficientData bool) {
	payload, present := fields[TagZIP64]
	if !present {
		return ZIP64{}, false, false
	}

	need := 0
	if uncompressedSizeIsSentinel {
		need += 8
	}
	if compressedSizeIsSentinel {
		need += 8
	}
	if offsetIsSentinel {
		need += 8
	}
	if diskStartIsSentinel {
		need += 4
	}
	if len(payload) < need {
		return ZIP64{}, true, true
	}

	var off int
	if uncompressedSizeIsSentinel {
		v := binary.LittleEndian.Uint64(payload[off : off+8])
		z.UncompressedSize = &v
		off += 8
	}
	if compressedSizeIsSentinel {
		v := binary.LittleEndian.Uint64(payload[off : off+8])
		z.CompressedSize = &v
		off += 8
	}
	if offsetIsSentinel {
		v := binary.LittleEndian.Uint64(payload[off : off+8])
		z.Offset = &v
		off += 8
	}
	if diskStartIsSentinel {
		v := binary.LittleEndian.Uint32(payload[off : off+4])
		z.DiskStart = &v
	}

	return z, true, false
}

// DecodeUnicodePath decodes the 0x7075 extra field, if present, validating its embedded CRC against rawFilename
// per spec.md §4.3 (the CRC covers the raw filename bytes, not the decoded UTF-8 path).
func DecodeUnicodePath(fields Fields, rawFilename []byte) (UnicodePath, bool) {
	payload, present := fields[TagUnicodePath]
	if !present || len(payload) < 5 {
		return UnicodePath{}, false
	}

	up := UnicodePath{
		Version: payload[0],
		CRC32:   binary.LittleEndian.Uint32(payload[1:5]),
		Name:    string(payload[5:]),
	}
	up.Valid = up.CRC32 == crc32.ChecksumIEEE(rawFilename)
	return up, true
}

// DecodeAES decodes the 0x9901 extra field, if present.
func DecodeAES(fields Fields) (AES, bool) {
	payload, present := fields[TagAES]
	if !present || len(payload) < 7 {
		return AES{}, false
	}

	return AES{
		VendorVersion: binary.LittleEndian.Uint16(payload[0:2]),
		VendorID:      [2]byte{payload[2], payload[3]},
		Strength:      payload[4],
		WrappedMethod: binary.LittleEndian.Uint16(payload[5:7]),
	}, true
}

// IsAESSentinelMethod reports whether method is the reserved compression-method value (99) that marks an AES
// extra field's "original_compression_method", per spec.md §4.3 / §4.4.
func IsAESSentinelMethod(method uint16) bool {
	return method == aesSentinelMethod
}

// IsAES256 reports whether strength is the only value this reader supports (AES-256, strength 3).
func IsAES256(strength byte) bool {
	return strength == aesStrength256
}
