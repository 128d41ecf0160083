// Package logging builds the process logger.
package logging

import (
	"io"
	"log/slog"
)

// New returns a text logger writing to w.
// With debug off the logger discards everything; users see error lines from
// the commands instead.
func New(w io.Writer, debug bool) *slog.Logger {
	if !debug || w == nil {
		return Discard()
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// Discard returns a logger that drops all records.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
