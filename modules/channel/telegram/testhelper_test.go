package telegram

import (
	"io"
	"log/slog"
)

// discardLogger returns a logger that drops all records, for use in tests.
func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
