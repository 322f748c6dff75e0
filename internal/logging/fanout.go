package logging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Sink is one named destination of log records: the console or log file,
// the OTel bridge, Graylog.
type Sink struct {
	Name    string
	Handler slog.Handler
}

// fanout hands every record to each sink whose level accepts it. A sink
// that fails does not keep the record from the others; failures are
// reported to onFailure and returned joined.
type fanout struct {
	sinks     []Sink
	onFailure func(sink string, err error)
}

func newFanout(onFailure func(string, error), sinks ...Sink) *fanout {
	f := &fanout{onFailure: onFailure}
	for _, s := range sinks {
		if s.Handler != nil {
			f.sinks = append(f.sinks, s)
		}
	}
	return f
}

func (f *fanout) names() []string {
	out := make([]string, len(f.sinks))
	for i, s := range f.sinks {
		out[i] = s.Name
	}
	return out
}

func (f *fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, s := range f.sinks {
		if s.Handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f *fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, s := range f.sinks {
		if !s.Handler.Enabled(ctx, r.Level) {
			continue
		}
		if err := s.Handler.Handle(ctx, r.Clone()); err != nil {
			if f.onFailure != nil {
				f.onFailure(s.Name, err)
			}
			errs = append(errs, fmt.Errorf("%s: %w", s.Name, err))
		}
	}
	return errors.Join(errs...)
}

func (f *fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	return f.derive(func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) })
}

func (f *fanout) WithGroup(name string) slog.Handler {
	if name == "" {
		return f
	}
	return f.derive(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

func (f *fanout) derive(fn func(slog.Handler) slog.Handler) *fanout {
	sinks := make([]Sink, len(f.sinks))
	for i, s := range f.sinks {
		sinks[i] = Sink{Name: s.Name, Handler: fn(s.Handler)}
	}
	return &fanout{sinks: sinks, onFailure: f.onFailure}
}
