// Package vmmlog is the structured logging wrapper the virtual-memory core
// uses for the diagnostics spec.md §7 calls for on alignment violations and
// allocator exhaustion.
//
// The teacher's own kfmt/early.Printf exists because gopher-os runs before
// the Go allocator is available; this hosted port has no such constraint,
// so logging is built on log/slog instead, following the pattern used by
// the reference corpus's other Go virtual-machine project
// (smoynes-elsie/internal/log) rather than hand-rolling a printf clone.
package vmmlog

import (
	"context"
	"log/slog"
	"os"
)

// Default is the package-level logger used by callers that have not
// installed their own. It writes structured text to stderr at Info level,
// matching the teacher's console-by-default behavior.
var Default = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
	Level: slog.LevelInfo,
}))

// SetDefault replaces the package-level logger, e.g. to switch to a JSON
// handler or raise verbosity from a CLI flag.
func SetDefault(l *slog.Logger) { Default = l }

// Diagnostic logs a recoverable condition (alignment violation, allocator
// exhaustion, a miss on remap/translate/unmap) at Warn level, tagged with
// the module that raised it.
func Diagnostic(module, message string, args ...any) {
	Default.Log(context.Background(), slog.LevelWarn, message, append([]any{"module", module}, args...)...)
}

// Fatal logs an unrecoverable condition at Error level before the caller
// aborts via kernel.Panic.
func Fatal(module, message string, args ...any) {
	Default.Log(context.Background(), slog.LevelError, message, append([]any{"module", module}, args...)...)
}
