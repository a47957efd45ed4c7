// Package log adapts the teacher's context-carried prefix logger (internal/log.go) for per-entry extraction
// progress messages, dropping the CLI-only github.com/jessevdk/go-flags dependency since this module has no
// command-line surface: prefixes are built from plain entry names instead of flags.Filename.
package log

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
)

// Prefix builds a consistent `[i/n] "name" - ` prefix for log lines covering one of n entries being processed, the
// i-th (zero-based).
func Prefix(i, n int, name string) string {
	return fmt.Sprintf(`[%d/%d] "%s" - `, i, n, truncateRightWithSuffix(filepath.Base(name), 30, "..."))
}

func truncateRightWithSuffix(s string, max int, suffix string) string {
	if len(s) <= max {
		return s
	}
	keep := max - len(suffix)
	if keep < 0 {
		keep = 0
	}
	return s[:keep] + suffix
}

type prefixKey struct{}
type loggerKey struct{}

// WithPrefixLogger attaches a *log.Logger writing to os.Stderr with the given prefix, plus the raw prefix string,
// to ctx.
func WithPrefixLogger(ctx context.Context, prefix string) context.Context {
	logger := log.New(os.Stderr, prefix, 0)
	return context.WithValue(context.WithValue(ctx, prefixKey{}, prefix), loggerKey{}, logger)
}

// MustPrefix returns the prefix string attached to ctx. Panics if absent.
func MustPrefix(ctx context.Context) string {
	return ctx.Value(prefixKey{}).(string)
}

// MustLogger returns the *log.Logger attached to ctx. Panics if absent.
func MustLogger(ctx context.Context) *log.Logger {
	return ctx.Value(loggerKey{}).(*log.Logger)
}
