package logging

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/Graylog2/go-gelf/gelf"
)

// NewGELFSink returns the "graylog" sink, which ships records to a Graylog
// server over UDP. The returned closer releases the connection.
func NewGELFSink(addr, level string) (Sink, io.Closer, error) {
	w, err := gelf.NewWriter(addr)
	if err != nil {
		return Sink{}, nil, fmt.Errorf("failed to create GELF writer for %s: %w", addr, err)
	}
	w.Facility = "truck2jbeam"
	return Sink{Name: "graylog", Handler: newWriterHandler(w, level)}, w, nil
}

// newWriterHandler emits one line per record, which is what the GELF
// writer turns into one message.
func newWriterHandler(w io.Writer, level string) slog.Handler {
	return slog.NewTextHandler(w, handlerOptions(parseLevel(level)))
}
