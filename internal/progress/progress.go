// Package progress implements the default on_progress reporter used when a caller doesn't supply their own,
// adapted from the teacher's zipper.ProgressReporter (zipper/reporter.go) and DefaultBytes progress bar helper
// (internal/progressbar.go). Where the teacher's reporter tracks (src, dst, written, done) across whole-file
// copies, this one matches the simpler (processed, total) shape spec.md's on_progress callback uses for a single
// entry's extraction.
package progress

import (
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"
)

// Reporter matches the shape of the pipeline's on_progress callback: processed and total bytes of the
// compressed-stream range being driven.
type Reporter func(processed, total uint64)

// NoOp discards all progress updates.
func NoOp(uint64, uint64) {}

// DefaultBytes returns a Reporter that renders a terminal progress bar for one entry named description, mirroring
// the options the teacher sets in internal/progressbar.go's DefaultBytes helper (byte counts, 1-second throttle,
// blank-state rendering so the bar appears before the first update).
func DefaultBytes(total uint64, description string, options ...progressbar.Option) Reporter {
	bar := progressbar.NewOptions64(int64(total),
		append([]progressbar.Option{
			progressbar.OptionSetDescription(description),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowBytes(true),
			progressbar.OptionSetWidth(10),
			progressbar.OptionThrottle(1 * time.Second),
			progressbar.OptionShowCount(),
			progressbar.OptionOnCompletion(func() {
				_, _ = fmt.Fprint(os.Stderr, "\n")
			}),
			progressbar.OptionSpinnerType(14),
			progressbar.OptionFullWidth(),
			progressbar.OptionSetRenderBlankState(true),
		}, options...)...)

	var last uint64
	return func(processed, _ uint64) {
		_ = bar.Add64(int64(processed - last))
		last = processed
	}
}

// Humanize formats n bytes the way the teacher's CLI summaries do (e.g. "1.2 MB"), for use in log lines around a
// Reporter rather than inside one.
func Humanize(n uint64) string {
	return humanize.Bytes(n)
}
