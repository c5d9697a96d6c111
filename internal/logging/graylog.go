// internal/logging/graylog.go
package logging

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/Graylog2/go-gelf/gelf"
)

// NewGraylogHandler returns a JSON handler whose records are shipped as GELF
// messages over UDP to address. Close the returned closer on shutdown.
func NewGraylogHandler(address, level string) (slog.Handler, io.Closer, error) {
	w, err := gelf.NewWriter(address)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create graylog writer: %w", err)
	}
	return NewGELFHandler(w, level), w, nil
}

// NewGELFHandler wraps any GELF writer; split out so tests can pass a buffer.
func NewGELFHandler(w io.Writer, level string) slog.Handler {
	return slog.NewJSONHandler(w, HandlerOptions(level))
}
