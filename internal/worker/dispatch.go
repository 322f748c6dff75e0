package worker

import (
	"context"
	"slices"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/truck2jbeam/truck2jbeam/internal/model/core"
	"github.com/truck2jbeam/truck2jbeam/internal/queue"
)

// Summary is the outcome of one batch.
type Summary struct {
	Run core.Run
	// Conversions are in input order. Files not started because of
	// cancellation are missing.
	Conversions []core.Conversion
	Warnings    int
	Errors      int
	Cancelled   bool
}

type result struct {
	index int
	conv  core.Conversion
}

// Run converts files on the worker pool. The context is checked between
// files only; a file that has started is always finished. History and
// metrics failures are logged, never returned.
func (m *Manager) Run(ctx context.Context, files []string) Summary {
	run := core.NewRun(time.Now())
	if m.deps.History != nil {
		if err := m.deps.History.StartRun(&run); err != nil {
			m.deps.Logger.Error("Failed to record run start", "error", err)
		}
	}

	jobs := make(chan int)
	results := queue.New[result]()
	var (
		wg       sync.WaitGroup
		progress sync.Mutex
		done     int
	)

	workers := min(m.deps.Workers, max(len(files), 1))
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if ctx.Err() != nil {
					continue
				}
				conv, err := m.deps.Converter.ConvertFile(ctx, files[i])
				conv.RunID = run.ID
				m.record(ctx, &conv, err)
				results.Push(result{index: i, conv: conv})

				if m.deps.Progress != nil {
					progress.Lock()
					done++
					m.deps.Progress(done, len(files), conv)
					progress.Unlock()
				}
			}
		}()
	}

	cancelled := false
feed:
	for i := range files {
		if ctx.Err() != nil {
			cancelled = true
			break
		}
		select {
		case <-ctx.Done():
			cancelled = true
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()
	if ctx.Err() != nil && results.Len() < len(files) {
		cancelled = true
	}

	ordered := results.Drain()
	slices.SortFunc(ordered, func(a, b result) int { return a.index - b.index })

	s := Summary{Cancelled: cancelled, Conversions: make([]core.Conversion, 0, len(ordered))}
	for _, r := range ordered {
		run.Add(r.conv)
		s.Warnings += len(r.conv.Warnings)
		s.Errors += len(r.conv.Errors)
		s.Conversions = append(s.Conversions, r.conv)
	}
	run.Duration = time.Since(run.StartedAt)
	s.Run = run

	if cancelled {
		m.deps.Logger.Warn("Batch cancelled", "converted", len(ordered), "total", len(files))
	}
	if m.deps.History != nil {
		if err := m.deps.History.EndRun(&run); err != nil {
			m.deps.Logger.Error("Failed to record run end", "error", err)
		}
	}
	return s
}

// record stores one finished conversion and updates the counters.
func (m *Manager) record(ctx context.Context, conv *core.Conversion, err error) {
	attrs := metric.WithAttributes(
		attribute.String("vehicle_type", conv.VehicleType),
		attribute.String("status", string(conv.Status)),
	)
	switch conv.Status {
	case core.StatusSucceeded, core.StatusDryRun:
		m.completed.Add(ctx, 1, attrs)
	case core.StatusFailed:
		m.failed.Add(ctx, 1, attrs)
	}
	m.duration.Record(ctx, conv.Duration.Seconds(), attrs)

	if err != nil {
		m.deps.Logger.Debug("Conversion finished with error", "file", conv.Input, "error", err)
	}
	if m.deps.History != nil {
		if err := m.deps.History.RecordConversion(conv); err != nil {
			m.deps.Logger.Error("Failed to record conversion", "file", conv.Input, "error", err)
		}
	}
	if m.deps.Metrics != nil {
		if err := m.deps.Metrics.WriteConversion(*conv); err != nil {
			m.deps.Logger.Error("Failed to write conversion metrics", "file", conv.Input, "error", err)
		}
	}
}
