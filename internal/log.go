// Package internal holds small cross-cutting helpers (contextual logging,
// common-root detection) shared by the root package, the driver, and the
// CLI commands.
package internal

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/nguyengg/zipkit/internal/fsutil"
)

// Prefix creates a consistent "[i/n] "name" - " prefix for per-entry log lines, generalizing the teacher's
// per-file command prefix to per-archive-entry.
//
// i and n are the one-based ordinal and expected count.
func Prefix(i, n int, name string) string {
	return fmt.Sprintf(`[%d/%d] "%s" - `, i, n, fsutil.TruncateRightWithSuffix(filepath.Base(name), 30, "..."))
}

type prefixKey struct{}
type loggerKey struct{}

// WithPrefixLogger creates a new logger using the given prefix, then attaches both the logger and prefix to context.
func WithPrefixLogger(ctx context.Context, prefix string) context.Context {
	logger := log.New(os.Stderr, prefix, 0)
	return context.WithValue(context.WithValue(ctx, prefixKey{}, prefix), loggerKey{}, logger)
}

// MustPrefix returns the prefix string attached to the given context.
func MustPrefix(ctx context.Context) string {
	return ctx.Value(prefixKey{}).(string)
}

// MustLogger returns the logger attached to the given context.
func MustLogger(ctx context.Context) *log.Logger {
	return ctx.Value(loggerKey{}).(*log.Logger)
}
