package logging

import (
	"context"
	"io"
	"log/slog"
	"maps"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// SlogManager manages slog-based logging with optional OTel integration.
type SlogManager struct {
	logger *slog.Logger

	// OTel provider for flushing
	logProvider *sdklog.LoggerProvider

	// closers are released by Close, e.g. a GELF connection.
	closers []io.Closer

	// RunContext adds attributes such as the run id to every record.
	RunContext ContextProvider

	sinks   []string
	mu      sync.Mutex
	dropped map[string]int
}

// NewSlogManager creates a new slog-based logging manager.
func NewSlogManager() *SlogManager {
	return &SlogManager{}
}

// parseLevel converts a string log level to slog.Level.
func parseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// handlerOptions returns the options shared by every text handler: the
// given level and RFC3339 UTC timestamps.
func handlerOptions(level slog.Level) *slog.HandlerOptions {
	return &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				if t, ok := a.Value.Any().(time.Time); ok {
					a.Value = slog.StringValue(t.UTC().Format(time.RFC3339))
				}
			}
			return a
		},
	}
}

// Setup initializes the logging system. Records go to out ("output"
// sink, os.Stdout when nil), to the OTel provider when not nil, and to any
// extra sinks such as the one from NewGELFSink. Calling Setup again
// replaces the previous pipeline.
func (m *SlogManager) Setup(out io.Writer, level string, provider *sdklog.LoggerProvider, extra ...Sink) {
	m.logProvider = provider
	if out == nil {
		out = os.Stdout
	}

	sinks := []Sink{{Name: "output", Handler: slog.NewTextHandler(out, handlerOptions(parseLevel(level)))}}
	if provider != nil {
		sinks = append(sinks, Sink{
			Name:    "otel",
			Handler: otelslog.NewHandler("truck2jbeam", otelslog.WithLoggerProvider(provider)),
		})
	}
	sinks = append(sinks, extra...)

	f := newFanout(m.recordFailure, sinks...)
	m.sinks = f.names()
	m.logger = slog.New(NewContextHandler(f, m.RunContext))
	m.logger.Debug("Logging initialized", "level", level, "sinks", m.sinks)
}

// Sinks names the destinations configured by the last Setup.
func (m *SlogManager) Sinks() []string {
	return slices.Clone(m.sinks)
}

func (m *SlogManager) recordFailure(sink string, _ error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dropped == nil {
		m.dropped = make(map[string]int)
	}
	m.dropped[sink]++
}

// Dropped returns, per sink, how many records failed to be delivered.
func (m *SlogManager) Dropped() map[string]int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return maps.Clone(m.dropped)
}

// AddCloser registers a resource released by Close.
func (m *SlogManager) AddCloser(c io.Closer) {
	if c != nil {
		m.closers = append(m.closers, c)
	}
}

// Logger returns the configured slog.Logger.
func (m *SlogManager) Logger() *slog.Logger {
	if m.logger == nil {
		// Return a default logger if Setup hasn't been called
		return slog.Default()
	}
	return m.logger
}

// Flush forces a flush of OTel logs if available.
func (m *SlogManager) Flush(ctx context.Context) error {
	if m.logProvider != nil {
		return m.logProvider.ForceFlush(ctx)
	}
	return nil
}

// Close releases registered closers. The first error is returned.
func (m *SlogManager) Close() error {
	var first error
	for _, c := range m.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	m.closers = nil
	return first
}

// WriteLog writes a log entry with the specified function name, data, and level.
func (m *SlogManager) WriteLog(functionName, data, level string) {
	if m.logger == nil {
		return
	}

	switch parseLevel(level) {
	case slog.LevelDebug:
		m.logger.Debug(data, "function", functionName)
	case slog.LevelWarn:
		m.logger.Warn(data, "function", functionName)
	case slog.LevelError:
		m.logger.Error(data, "function", functionName)
	default:
		m.logger.Info(data, "function", functionName)
	}
}
