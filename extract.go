package zipreader

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/nguyengg/zipreader/codec"
	"github.com/nguyengg/zipreader/internal/extra"
	"github.com/nguyengg/zipreader/internal/log"
	"github.com/nguyengg/zipreader/internal/pipeline"
	"github.com/nguyengg/zipreader/internal/progress"
)

// GetData extracts one entry's decompressed content into dst, per spec.md §4.4.
func (r *Reader) GetData(ctx context.Context, entry *Entry, dst Sink, optFns ...func(*GetDataOptions)) (any, error) {
	ctx = log.WithPrefixLogger(ctx, log.Prefix(0, 1, entry.Filename))
	logger := log.MustLogger(ctx)

	opts := GetDataOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	opts = mergeGetDataOptions(r.opts, opts)

	src := entry.source
	if src == nil {
		src = r.source
	}
	if err := src.Init(ctx); err != nil {
		return nil, fmt.Errorf("init source error: %w", err)
	}

	ld, err := readLocalDirectory(ctx, src, entry)
	if err != nil {
		return nil, err
	}

	inputEncrypted := entry.BitFlag.Encrypted && ld.encrypted

	var aesView *extra.AES
	if entry.ExtraFieldAES != nil {
		aesView = entry.ExtraFieldAES
	} else {
		aesView = ld.extraFieldAES
	}

	effectiveMethod := uint16(entry.CompressionMethod)
	if aesView != nil {
		if !extra.IsAES256(aesView.Strength) {
			return nil, newErr(UnsupportedEncryption, fmt.Sprintf("unsupported AES strength %d", aesView.Strength), nil)
		}
		if !extra.IsAESSentinelMethod(ld.compressionMethod) {
			return nil, newErr(UnsupportedCompression, "AES extra present but original_compression_method isn't the AES sentinel", nil)
		}
		effectiveMethod = aesView.WrappedMethod
	}

	if effectiveMethod != uint16(Store) && effectiveMethod != uint16(Deflate) {
		return nil, newErr(UnsupportedCompression, fmt.Sprintf("unsupported compression method %d", effectiveMethod), nil)
	}

	if inputEncrypted && opts.Password == "" {
		return nil, newErr(Encrypted, "entry is encrypted but no password was supplied", nil)
	}

	dataOffset := entry.Offset + uint64(localFileHeaderSize) + uint64(ld.filenameLength) + uint64(ld.extraFieldLength)
	if dataOffset+entry.CompressedSize > src.Size() {
		return nil, newErr(BadFormat, "entry payload exceeds archive size", nil)
	}

	cdc, err := buildCodec(r.opts, codec.Config{
		Operation:       codec.Inflate,
		InputPassword:   opts.Password,
		InputSigned:     opts.CheckSignature,
		InputSignature:  entry.Signature,
		InputCompressed: effectiveMethod != uint16(Store),
		InputEncrypted:  inputEncrypted,
		Method:          codec.CompressionMethod(effectiveMethod),
	}, aesView != nil, entry.BitFlag.DataDescriptor, entry.rawLastModTime)
	if err != nil {
		return nil, err
	}

	chunkSize := opts.ChunkSize
	if chunkSize == 0 {
		chunkSize = pipeline.DefaultChunkSize
	}

	// SPEC_FULL.md §10: absent a caller-supplied OnProgress, fall back to a console progress bar over this
	// entry's compressed-byte range, mirroring the teacher's ProgressReporter default in z/extract.go.
	var onProgress pipeline.ProgressFunc
	if opts.OnProgress != nil {
		onProgress = pipeline.ProgressFunc(opts.OnProgress)
	} else {
		onProgress = pipeline.ProgressFunc(progress.DefaultBytes(entry.CompressedSize, entry.Filename))
	}

	logger.Printf("extracting %d compressed bytes (%s)", entry.CompressedSize, entry.CompressionMethod)

	if err = pipeline.Run(ctx, src, cdc, dst, dataOffset, entry.CompressedSize, pipeline.Options{
		ChunkSize:  chunkSize,
		OnProgress: onProgress,
	}); err != nil {
		mappedErr := mapCodecError(err)
		logger.Printf("extraction failed: %s", mappedErr)
		return nil, mappedErr
	}

	logger.Print("extraction complete")
	return dst.Finalize(ctx)
}

// readLocalDirectory implements spec.md §4.4 steps 1-2: read the local file header, verify its signature, and
// parse its extra field for cross-validation against the central Entry.
func readLocalDirectory(ctx context.Context, src RandomSource, entry *Entry) (localDirectory, error) {
	hdr, err := src.ReadAt(ctx, entry.Offset, localFileHeaderSize)
	if err != nil {
		return localDirectory{}, fmt.Errorf("read local file header error: %w", err)
	}
	if len(hdr) < localFileHeaderSize || binary.LittleEndian.Uint32(hdr[0:4]) != sigLocalFileHeader {
		return localDirectory{}, newErr(LocalFileHeaderNotFound, "local file header signature mismatch", nil)
	}

	bitFlag := binary.LittleEndian.Uint16(hdr[6:8])
	method := binary.LittleEndian.Uint16(hdr[8:10])
	filenameLength := binary.LittleEndian.Uint16(hdr[26:28])
	extraFieldLength := binary.LittleEndian.Uint16(hdr[28:30])

	ld := localDirectory{
		compressionMethod: method,
		bitFlag:           bitFlag,
		filenameLength:    filenameLength,
		extraFieldLength:  extraFieldLength,
		encrypted:         bitFlag&0x0001 != 0,
	}

	if extraFieldLength > 0 {
		extraOffset := entry.Offset + uint64(localFileHeaderSize) + uint64(filenameLength)
		buf, err := src.ReadAt(ctx, extraOffset, uint64(extraFieldLength))
		if err != nil {
			return localDirectory{}, fmt.Errorf("read local extra field error: %w", err)
		}
		ld.extraField = extra.Decode(buf)
		if a, ok := extra.DecodeAES(ld.extraField); ok {
			ld.extraFieldAES = &a
		}
	}

	return ld, nil
}

// buildCodec assembles the innermost Store/Deflate codec and wraps it with ZipCrypto or AES256 decryption per
// cfg.InputEncrypted and the presence of an AES extra field, using the factories configured on ReaderOptions
// (defaulted to this package's own codec implementations). dataDescriptorSet and modTime are only consulted for
// the ZipCrypto path, whose header check byte depends on them (spec.md §4.4).
func buildCodec(ropts ReaderOptions, cfg codec.Config, isAES bool, dataDescriptorSet bool, modTime uint16) (codec.Codec, error) {
	storeFactory := ropts.StoreFactory
	if storeFactory == nil {
		storeFactory = codec.NewStore()
	}
	deflateFactory := ropts.DeflateFactory
	if deflateFactory == nil {
		deflateFactory = codec.NewDeflate()
	}

	var inner codec.Factory
	switch cfg.Method {
	case codec.Store:
		inner = storeFactory
	case codec.Deflate:
		inner = deflateFactory
	default:
		return nil, newErr(UnsupportedCompression, fmt.Sprintf("unsupported compression method %d", cfg.Method), nil)
	}

	if !cfg.InputEncrypted {
		return inner(cfg)
	}

	if isAES {
		aesFactory := ropts.AES256Factory
		if aesFactory == nil {
			return codec.NewAES256(codec.AES256Options{InnerFactory: inner})(cfg)
		}
		return aesFactory(inner)(cfg)
	}

	zipCryptoFactory := ropts.ZipCryptoFactory
	if zipCryptoFactory == nil {
		return codec.NewZipCrypto(codec.ZipCryptoOptions{
			DataDescriptorSet: dataDescriptorSet,
			ModTime:           modTime,
			InnerFactory:      inner,
		})(cfg)
	}
	return zipCryptoFactory(inner)(cfg)
}

// mapCodecError translates the sentinel errors a Codec's Append or Flush may return into this package's Kind taxonomy, per
// spec.md §4.5.
func mapCodecError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, codec.ErrInvalidSignature) {
		return newErr(InvalidSignature, "decompressed content failed CRC-32 verification", err)
	}
	if errors.Is(err, codec.ErrInvalidPassword) {
		return newErr(InvalidPassword, "password verification failed", err)
	}
	return err
}
