package logging

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/rs/zerolog"
)

// Zerolog returns a zerolog.Logger whose events end up in logger. The
// database and influx managers log through zerolog; this keeps their
// output in the same sinks as everything else.
func Zerolog(logger *slog.Logger, component string) zerolog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return zerolog.New(&slogWriter{logger: logger}).
		With().
		Str("component", component).
		Logger()
}

// slogWriter decodes zerolog JSON events and re-emits them as slog records.
type slogWriter struct {
	logger *slog.Logger
}

func (w *slogWriter) Write(p []byte) (int, error) {
	var fields map[string]any
	if err := json.Unmarshal(p, &fields); err != nil {
		w.logger.Info(string(p))
		return len(p), nil
	}

	level := zerologToSlog(fields[zerolog.LevelFieldName])
	msg, _ := fields[zerolog.MessageFieldName].(string)
	delete(fields, zerolog.LevelFieldName)
	delete(fields, zerolog.MessageFieldName)
	delete(fields, zerolog.TimestampFieldName)

	attrs := make([]slog.Attr, 0, len(fields))
	for k, v := range fields {
		attrs = append(attrs, slog.Any(k, v))
	}

	ctx := context.Background()
	if !w.logger.Enabled(ctx, level) {
		return len(p), nil
	}
	r := slog.NewRecord(time.Now(), level, msg, 0)
	r.AddAttrs(attrs...)
	if err := w.logger.Handler().Handle(ctx, r); err != nil {
		return 0, err
	}
	return len(p), nil
}

func zerologToSlog(v any) slog.Level {
	s, _ := v.(string)
	lvl, err := zerolog.ParseLevel(s)
	if err != nil {
		return slog.LevelInfo
	}
	switch lvl {
	case zerolog.TraceLevel, zerolog.DebugLevel:
		return slog.LevelDebug
	case zerolog.WarnLevel:
		return slog.LevelWarn
	case zerolog.ErrorLevel, zerolog.FatalLevel, zerolog.PanicLevel:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
