package zipreader

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"

	"golang.org/x/text/encoding"

	"github.com/nguyengg/zipreader/internal/charset"
	"github.com/nguyengg/zipreader/internal/extra"
	"github.com/nguyengg/zipreader/internal/scan"
)

// GetEntriesOptions configures GetEntries. Zero value uses CP-437 fallback decoding for both filename and
// comment, per spec.md §6's option table.
type GetEntriesOptions struct {
	// FilenameEncoding is the fallback charset used when an entry's language-encoding bit is unset. Defaults
	// to charset.Default (CP-437).
	FilenameEncoding encoding.Encoding
	// CommentEncoding is the same, for the archive/entry comments. Defaults to charset.Default.
	CommentEncoding encoding.Encoding
}

// GetEntries parses the central directory and returns its entries in central-directory order. It is idempotent:
// the underlying source is re-read on every call, so the caller may freely call it multiple times (e.g. after the
// backing object has changed, in tests).
func (r *Reader) GetEntries(ctx context.Context, optFns ...func(*GetEntriesOptions)) ([]*Entry, error) {
	opts := &GetEntriesOptions{}
	for _, fn := range optFns {
		fn(opts)
	}
	if opts.FilenameEncoding == nil {
		opts.FilenameEncoding = r.opts.FilenameEncoding
	}
	if opts.CommentEncoding == nil {
		opts.CommentEncoding = r.opts.CommentEncoding
	}

	if err := r.source.Init(ctx); err != nil {
		return nil, fmt.Errorf("init source error: %w", err)
	}
	size := r.source.Size()

	eocd, err := findEOCD(ctx, r.source, size)
	if err != nil {
		return nil, err
	}

	cdOffset, cdSize, totalEntries, err := resolveCentralDirectoryLocation(ctx, r.source, size, eocd)
	if err != nil {
		return nil, err
	}

	if cdOffset+cdSize > size {
		return nil, newErr(BadFormat, fmt.Sprintf("central directory [%d, %d) exceeds archive size %d", cdOffset, cdOffset+cdSize, size), nil)
	}

	buf, err := r.source.ReadAt(ctx, cdOffset, cdSize)
	if err != nil {
		return nil, fmt.Errorf("read central directory error: %w", err)
	}

	entries := make([]*Entry, 0, totalEntries)
	var cursor uint64
	for i := uint64(0); i < totalEntries; i++ {
		if cursor+uint64(centralFileHeaderSize) > uint64(len(buf)) {
			return nil, newErr(CentralDirectoryNotFound, fmt.Sprintf("entry %d: central directory truncated", i), nil)
		}

		hdr := buf[cursor : cursor+uint64(centralFileHeaderSize)]
		if binary.LittleEndian.Uint32(hdr[0:4]) != sigCentralDirHeader {
			return nil, newErr(CentralDirectoryNotFound, fmt.Sprintf("entry %d: bad central file header signature", i), nil)
		}

		entry, consumed, err := parseCentralDirectoryEntry(buf[cursor:], opts)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		entry.source = r.source

		entries = append(entries, entry)
		cursor += consumed
	}

	return entries, nil
}

func findEOCD(ctx context.Context, src RandomSource, size uint64) (scan.Result, error) {
	result, err := scan.Find(ctx, src, size, sigEOCD, eocdMinSize, eocdMaxCommentSize)
	switch {
	case err == scan.ErrTooSmall:
		return scan.Result{}, newErr(BadFormat, "archive smaller than minimum EOCD size", err)
	case err != nil:
		return scan.Result{}, newErr(EOCDRNotFound, "EOCD signature not found in tail scan", err)
	default:
		return result, nil
	}
}

// resolveCentralDirectoryLocation implements spec.md §4.2 steps 1-2, switching to ZIP64 mode whenever the 16-/32-
// bit sentinel appears in the plain EOCD fields.
func resolveCentralDirectoryLocation(ctx context.Context, src RandomSource, size uint64, eocd scan.Result) (offset, length, totalEntries uint64, err error) {
	w := eocd.Window
	if len(w) < eocdMinSize {
		return 0, 0, 0, newErr(BadFormat, "EOCD window shorter than fixed record", nil)
	}

	diskTotalEntries := binary.LittleEndian.Uint16(w[10:12])
	cdSize32 := binary.LittleEndian.Uint32(w[12:16])
	cdOffset32 := binary.LittleEndian.Uint32(w[16:20])

	if diskTotalEntries != sentinel16 && cdSize32 != sentinel32 && cdOffset32 != sentinel32 {
		return uint64(cdOffset32), uint64(cdSize32), uint64(diskTotalEntries), nil
	}

	// ZIP64 mode: the locator record is the 20 bytes immediately preceding the EOCD.
	if eocd.SignatureOffset < zip64LocatorSize {
		return 0, 0, 0, newErr(EOCDRLocatorZIP64NotFound, "not enough bytes before EOCD for a ZIP64 locator", nil)
	}

	locatorOffset := eocd.SignatureOffset - zip64LocatorSize
	locator, err := src.ReadAt(ctx, locatorOffset, zip64LocatorSize)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("read ZIP64 locator error: %w", err)
	}
	if binary.LittleEndian.Uint32(locator[0:4]) != sigZIP64EOCDLocator {
		return 0, 0, 0, newErr(EOCDRLocatorZIP64NotFound, "ZIP64 locator signature mismatch", nil)
	}

	zip64EOCDOffset := binary.LittleEndian.Uint64(locator[8:16])
	if zip64EOCDOffset+zip64EOCDMinSize > size {
		return 0, 0, 0, newErr(EOCDRZIP64NotFound, "ZIP64 EOCD offset exceeds archive size", nil)
	}

	z64, err := src.ReadAt(ctx, zip64EOCDOffset, zip64EOCDMinSize)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("read ZIP64 EOCD error: %w", err)
	}
	if binary.LittleEndian.Uint32(z64[0:4]) != sigZIP64EOCD {
		return 0, 0, 0, newErr(EOCDRZIP64NotFound, "ZIP64 EOCD signature mismatch", nil)
	}

	totalEntries = binary.LittleEndian.Uint64(z64[32:40])
	length = binary.LittleEndian.Uint64(z64[40:48])
	// Computed explicitly as (zip64 EOCD offset - central directory size), per spec.md §9's note that the
	// original source conflates this into an overloaded variable; this package names the two operands instead.
	offset = zip64EOCDOffset - length

	return offset, length, totalEntries, nil
}

// parseCentralDirectoryEntry parses one central directory file header record starting at buf[0], returning the
// decoded Entry and the number of bytes this record occupies (46 + filename + extra + comment).
func parseCentralDirectoryEntry(buf []byte, opts *GetEntriesOptions) (*Entry, uint64, error) {
	hdr := buf[:centralFileHeaderSize]

	rawBitFlag := binary.LittleEndian.Uint16(hdr[8:10])
	method := binary.LittleEndian.Uint16(hdr[10:12])
	modTime := binary.LittleEndian.Uint16(hdr[12:14])
	modDate := binary.LittleEndian.Uint16(hdr[14:16])
	crc := binary.LittleEndian.Uint32(hdr[16:20])
	compressedSize32 := binary.LittleEndian.Uint32(hdr[20:24])
	uncompressedSize32 := binary.LittleEndian.Uint32(hdr[24:28])
	filenameLength := binary.LittleEndian.Uint16(hdr[28:30])
	extraFieldLength := binary.LittleEndian.Uint16(hdr[30:32])
	commentLength := binary.LittleEndian.Uint16(hdr[32:34])
	externalAttrs := binary.LittleEndian.Uint32(hdr[38:42])
	localHeaderOffset32 := binary.LittleEndian.Uint32(hdr[42:46])

	total := uint64(centralFileHeaderSize) + uint64(filenameLength) + uint64(extraFieldLength) + uint64(commentLength)
	if uint64(len(buf)) < total {
		return nil, 0, newErr(CentralDirectoryNotFound, "entry record exceeds remaining central directory bytes", nil)
	}

	cursor := uint64(centralFileHeaderSize)
	rawFilename := append([]byte(nil), buf[cursor:cursor+uint64(filenameLength)]...)
	cursor += uint64(filenameLength)
	rawExtraField := append([]byte(nil), buf[cursor:cursor+uint64(extraFieldLength)]...)
	cursor += uint64(extraFieldLength)
	rawComment := append([]byte(nil), buf[cursor:cursor+uint64(commentLength)]...)

	bitFlag := decodeBitFlag(rawBitFlag, method)

	filename := decodeName(rawFilename, bitFlag.LanguageEncodingFlag, opts.FilenameEncoding)
	comment := decodeName(rawComment, bitFlag.LanguageEncodingFlag, opts.CommentEncoding)

	fields := extra.Decode(rawExtraField)

	compressedSize := uint64(compressedSize32)
	uncompressedSize := uint64(uncompressedSize32)
	localHeaderOffset := uint64(localHeaderOffset32)

	var zip64View *extra.ZIP64
	if z, ok, insufficient := extra.DecodeZIP64(fields,
		uncompressedSize32 == sentinel32, compressedSize32 == sentinel32, localHeaderOffset32 == sentinel32, false); ok {
		if insufficient {
			return nil, 0, newErr(ExtraFieldZIP64NotFound, "ZIP64 extra field present but too short for sentinel fields", nil)
		}
		zip64View = &z
		if z.UncompressedSize != nil {
			uncompressedSize = *z.UncompressedSize
		}
		if z.CompressedSize != nil {
			compressedSize = *z.CompressedSize
		}
		if z.Offset != nil {
			localHeaderOffset = *z.Offset
		}
	} else if uncompressedSize32 == sentinel32 || compressedSize32 == sentinel32 || localHeaderOffset32 == sentinel32 {
		return nil, 0, newErr(ExtraFieldZIP64NotFound, "sentinel field present without a ZIP64 extra", nil)
	}

	effectiveMethod := method
	var aesView *extra.AES
	if a, ok := extra.DecodeAES(fields); ok {
		aesView = &a
		effectiveMethod = a.WrappedMethod
		bitFlag = decodeBitFlag(rawBitFlag, effectiveMethod)
	}

	var unicodePathView *extra.UnicodePath
	if up, ok := extra.DecodeUnicodePath(fields, rawFilename); ok {
		unicodePathView = &up
		if up.Valid {
			filename = up.Name
		}
	}

	directory := externalAttrs&0x10 != 0
	if len(filename) > 0 && filename[len(filename)-1] == '/' {
		directory = true
	}

	e := &Entry{
		Offset:                 localHeaderOffset,
		CompressedSize:         compressedSize,
		UncompressedSize:       uncompressedSize,
		CompressionMethod:      CompressionMethod(effectiveMethod),
		Signature:              crc,
		LastModDate:            decodeDOSTime(modDate, modTime),
		Filename:               filename,
		Comment:                comment,
		RawFilename:            rawFilename,
		RawComment:             rawComment,
		RawExtraField:          rawExtraField,
		BitFlag:                bitFlag,
		Directory:              directory,
		ExtraField:             fields,
		ExtraFieldZIP64:        zip64View,
		ExtraFieldUnicodePath:  unicodePathView,
		ExtraFieldAES:          aesView,
		Encrypted:              bitFlag.Encrypted,
		rawLastModTime:         modTime,
	}

	return e, total, nil
}

func decodeName(raw []byte, languageEncoding bool, fallback encoding.Encoding) string {
	if languageEncoding {
		return string(raw)
	}
	return charset.Decode(raw, fallback)
}

// decodeDOSTime reconstructs a calendar instant from MS-DOS date/time fields, per spec.md §3. Returns the zero
// Time if the encoded value is out of range (e.g. all-zero fields, which many tools emit for directory entries).
func decodeDOSTime(date, t uint16) time.Time {
	year := int(date>>9) + 1980
	month := int((date >> 5) & 0x0F)
	day := int(date & 0x1F)
	hour := int(t >> 11)
	minute := int((t >> 5) & 0x3F)
	second := int(t&0x1F) * 2

	if month < 1 || month > 12 || day < 1 || day > 31 || hour > 23 || minute > 59 || second > 59 {
		return time.Time{}
	}

	return time.Date(year, time.Month(month), day, hour, minute, second, 0, time.UTC)
}
