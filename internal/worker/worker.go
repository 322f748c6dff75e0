package worker

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/truck2jbeam/truck2jbeam/internal/model/core"
	"github.com/truck2jbeam/truck2jbeam/internal/storage"
)

// FileConverter converts a single rig file.
type FileConverter interface {
	ConvertFile(ctx context.Context, path string) (core.Conversion, error)
}

// MetricsWriter receives one point per finished conversion.
type MetricsWriter interface {
	WriteConversion(c core.Conversion) error
}

// ProgressFunc is called after every file with the number of files done.
type ProgressFunc func(done, total int, c core.Conversion)

// Dependencies holds all dependencies for the worker manager. Only
// Converter is required.
type Dependencies struct {
	Converter FileConverter
	History   storage.Backend
	Metrics   MetricsWriter
	Meter     metric.Meter
	Logger    *slog.Logger
	Progress  ProgressFunc
	// Workers defaults to runtime.NumCPU().
	Workers int
}

// Manager runs batches of conversions on a pool of goroutines.
type Manager struct {
	deps Dependencies

	completed metric.Int64Counter
	failed    metric.Int64Counter
	duration  metric.Float64Histogram
}

// NewManager creates a new worker manager
func NewManager(deps Dependencies) (*Manager, error) {
	if deps.Converter == nil {
		return nil, fmt.Errorf("worker manager needs a converter")
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Meter == nil {
		deps.Meter = otel.Meter("truck2jbeam/worker")
	}
	if deps.Workers <= 0 {
		deps.Workers = runtime.NumCPU()
	}

	m := &Manager{deps: deps}
	var err error
	if m.completed, err = deps.Meter.Int64Counter("conversions.completed",
		metric.WithDescription("Files converted successfully")); err != nil {
		return nil, fmt.Errorf("failed to create counter: %w", err)
	}
	if m.failed, err = deps.Meter.Int64Counter("conversions.failed",
		metric.WithDescription("Files that failed to convert")); err != nil {
		return nil, fmt.Errorf("failed to create counter: %w", err)
	}
	if m.duration, err = deps.Meter.Float64Histogram("conversions.duration",
		metric.WithDescription("Time spent converting one file"), metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("failed to create histogram: %w", err)
	}
	return m, nil
}

// Workers returns the size of the pool.
func (m *Manager) Workers() int {
	return m.deps.Workers
}
