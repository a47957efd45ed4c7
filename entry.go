package zipreader

import (
	"fmt"
	"time"

	"github.com/nguyengg/zipreader/internal/extra"
)

// BitFlag is the decoded general-purpose bit flag of a local or central file header.
type BitFlag struct {
	// Encrypted is bit 0.
	Encrypted bool
	// DataDescriptor is bit 3: sizes/CRC are zero in the header and trail the compressed payload instead.
	DataDescriptor bool
	// LanguageEncodingFlag is bit 11 (UTF-8 filename/comment, aka EFS).
	LanguageEncodingFlag bool
	// EnhancedDeflating records whether bit 4 (enhanced deflating) is clear, per spec.md
	// §4.3's rule: only meaningful when the effective compression method is DEFLATE.
	EnhancedDeflating bool
	// Level is the 2-bit DEFLATE compression-level sub-flag (bits 1-2).
	Level uint8
}

func decodeBitFlag(raw uint16, method uint16) BitFlag {
	bf := BitFlag{
		Encrypted:            raw&0x0001 != 0,
		DataDescriptor:       raw&0x0008 != 0,
		LanguageEncodingFlag: raw&0x0800 != 0,
		Level:                uint8(raw>>1) & 0x03,
	}
	if method == uint16(Deflate) {
		bf.EnhancedDeflating = raw&0x0010 == 0
	}
	return bf
}

// Entry is the normalized view of one archived file, produced by the directory parser from a central directory
// file header.
type Entry struct {
	// Offset is the byte offset of the local file header inside the archive.
	Offset uint64
	// CompressedSize and UncompressedSize may have been promoted from 32-bit via ZIP64.
	CompressedSize, UncompressedSize uint64
	// CompressionMethod is the effective method after AES unwrap (STORE or DEFLATE).
	CompressionMethod CompressionMethod
	// Signature is the expected CRC-32 of the plaintext, or 0 if not meaningful.
	Signature uint32
	// LastModDate is reconstructed from the MS-DOS date/time fields; the zero Time if the encoded value was out
	// of range.
	LastModDate time.Time

	// Filename and Comment are decoded strings; see decodeBitFlag and the charset package for the decoding
	// rule.
	Filename, Comment string
	// RawFilename, RawComment, RawExtraField are the immutable bytes these were decoded from.
	RawFilename, RawComment, RawExtraField []byte

	BitFlag BitFlag

	// Directory is true if the external-attributes directory bit is set, or Filename ends in "/".
	Directory bool

	// ExtraField is the full tag->payload map for this entry.
	ExtraField extra.Fields
	// ExtraFieldZIP64, ExtraFieldUnicodePath, ExtraFieldAES are populated only when their tag is present.
	ExtraFieldZIP64        *extra.ZIP64
	ExtraFieldUnicodePath  *extra.UnicodePath
	ExtraFieldAES          *extra.AES

	// Encrypted mirrors BitFlag.Encrypted.
	Encrypted bool

	// rawLastModTime is the raw MS-DOS mod-time field, kept alongside the decoded LastModDate because the
	// legacy ZipCrypto header check byte needs the undecoded 16-bit value when BitFlag.DataDescriptor is set
	// (spec.md §4.4's cross-validation step).
	rawLastModTime uint16

	source RandomSource
}

// String returns a one-line summary suitable for logging: filename, compression method, sizes, and whether the
// entry is encrypted or a directory.
func (e *Entry) String() string {
	state := ""
	if e.Directory {
		state = ", dir"
	}
	if e.Encrypted {
		state += ", encrypted"
	}
	return fmt.Sprintf("%s (%s, %d -> %d bytes%s)", e.Filename, e.CompressionMethod, e.CompressedSize, e.UncompressedSize, state)
}

// localDirectory is the transient record parsed from an entry's local file header at extraction time, cross-
// validated against the central Entry per spec.md §4.4.
type localDirectory struct {
	compressionMethod    uint16
	bitFlag              uint16
	filenameLength       uint16
	extraFieldLength     uint16
	extraField           extra.Fields
	extraFieldAES        *extra.AES
	encrypted            bool
}
