// Package scan implements the Signature Scanner (spec.md §4.1, C4): locating the last occurrence of a 4-byte
// signature near the end of an archive with a bounded tail scan. It is adapted from the backward-scan loop the
// teacher already wrote for the EOCD case in z/cdscanner.go and zip/scan/eocd.go, generalized here to any
// signature/window so the central directory parser can reuse it for the EOCD search specifically (spec.md only
// requires the bounded tail scan for EOCD, per §4.1's "For EOCD lookup" parameters).
package scan

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrSignatureNotFound is returned when signature cannot be located within the bounded window.
var ErrSignatureNotFound = errors.New("signature not found")

// ErrTooSmall is returned when the source is smaller than minBytes.
var ErrTooSmall = errors.New("source smaller than minimum scan window")

// Sizer is the minimal capability the scanner needs to know how much data is available.
type Sizer interface {
	Size() uint64
}

// Reader is the minimal capability the scanner needs to pull bytes, matching source.RandomSource's ReadAt shape
// without importing the source package (avoiding an import cycle: source implementations live one level up).
type Reader interface {
	ReadAt(ctx context.Context, offset, length uint64) ([]byte, error)
}

// Result is the outcome of a successful Find: the absolute offset of the tail window that was scanned, and the
// minBytes-sized buffer starting at the signature's offset within that window.
type Result struct {
	// TailOffset is the absolute offset where the scanned tail window begins.
	TailOffset uint64
	// SignatureOffset is the absolute offset of the signature itself.
	SignatureOffset uint64
	// Window is the minBytes bytes starting at SignatureOffset.
	Window []byte
}

// Find locates the last occurrence of signature (given as its 4 big-endian-displayed bytes, e.g. 0x06054b50 is
// compared against the little-endian byte pattern {0x50, 0x4b, 0x05, 0x06} actually present on the wire) within
// the final [minBytes, minBytes+maxExtra] bytes of src, per spec.md §4.1.
//
// The algorithm reads the last minBytes first and scans backwards; if the signature isn't found there, it widens
// the window to min(minBytes+maxExtra, size) and rescans. The backward scan finds the latest signature in the
// window, which is the correct EOCD when an archive comment itself happens to contain the EOCD byte pattern.
func Find(ctx context.Context, src Reader, size uint64, signature uint32, minBytes, maxExtra uint64) (Result, error) {
	if size < minBytes {
		return Result{}, ErrTooSmall
	}

	sig := make([]byte, 4)
	binary.LittleEndian.PutUint32(sig, signature)

	tailOffset := size - minBytes
	window, err := src.ReadAt(ctx, tailOffset, minBytes)
	if err != nil {
		return Result{}, fmt.Errorf("read tail window error: %w", err)
	}

	if i := bytes.LastIndex(window, sig); i != -1 {
		return sliceResult(tailOffset, i, window, minBytes)
	}

	widened := minBytes + maxExtra
	if widened > size {
		widened = size
	}
	if widened == minBytes {
		return Result{}, ErrSignatureNotFound
	}

	tailOffset = size - widened
	window, err = src.ReadAt(ctx, tailOffset, widened)
	if err != nil {
		return Result{}, fmt.Errorf("read widened tail window error: %w", err)
	}

	if i := bytes.LastIndex(window, sig); i != -1 {
		return sliceResult(tailOffset, i, window, minBytes)
	}

	return Result{}, ErrSignatureNotFound
}

func sliceResult(tailOffset uint64, i int, window []byte, minBytes uint64) (Result, error) {
	sigOffset := tailOffset + uint64(i)
	end := i + int(minBytes)
	if end > len(window) {
		end = len(window)
	}
	buf := append([]byte(nil), window[i:end]...)
	return Result{TailOffset: tailOffset, SignatureOffset: sigOffset, Window: buf}, nil
}
