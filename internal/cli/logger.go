// Package cli holds helpers shared by the ccfarc and ccfex commands.
package cli

import (
	"io"
	"log/slog"

	"github.com/charmbracelet/log"
)

// NewLogger returns a slog.Logger that renders through charmbracelet/log.
// Verbose enables debug output.
func NewLogger(w io.Writer, prefix string, verbose bool) *slog.Logger {
	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}
	handler := log.NewWithOptions(w, log.Options{
		Prefix: prefix,
		Level:  level,
	})
	return slog.New(handler)
}
