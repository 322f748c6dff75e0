// internal/storage/memory/memory.go
package memory

import (
	"cmp"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/truck2jbeam/truck2jbeam/internal/config"
	"github.com/truck2jbeam/truck2jbeam/internal/model/core"
)

// RunRecord groups a run with its conversions.
type RunRecord struct {
	Run         core.Run
	Conversions []core.Conversion
}

// Backend keeps conversion history in memory and exports each finished
// run to a JSON file when an output directory is configured.
type Backend struct {
	cfg  config.MemoryConfig
	runs map[uuid.UUID]*RunRecord

	current      uuid.UUID
	lastExported string

	mu sync.RWMutex
}

// New creates a new memory backend
func New(cfg config.MemoryConfig) *Backend {
	return &Backend{
		cfg:  cfg,
		runs: make(map[uuid.UUID]*RunRecord),
	}
}

// Init initializes the backend
func (b *Backend) Init() error {
	return nil
}

// Close cleans up resources
func (b *Backend) Close() error {
	return nil
}

// StartRun begins collecting conversions for run.
func (b *Backend) StartRun(run *core.Run) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	b.runs[run.ID] = &RunRecord{Run: *run}
	b.current = run.ID
	return nil
}

// RecordConversion appends c to its run, or to the current run when c has
// no run id.
func (b *Backend) RecordConversion(c *core.Conversion) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.RunID == uuid.Nil {
		c.RunID = b.current
	}
	rec, ok := b.runs[c.RunID]
	if !ok {
		rec = &RunRecord{Run: core.Run{ID: c.RunID}}
		b.runs[c.RunID] = rec
	}
	rec.Conversions = append(rec.Conversions, *c)
	return nil
}

// EndRun stores the final totals and exports the run.
func (b *Backend) EndRun(run *core.Run) error {
	b.mu.Lock()
	rec, ok := b.runs[run.ID]
	if !ok {
		rec = &RunRecord{}
		b.runs[run.ID] = rec
	}
	rec.Run = *run
	snapshot := RunRecord{Run: rec.Run, Conversions: slices.Clone(rec.Conversions)}
	b.mu.Unlock()

	if b.cfg.OutputDir == "" {
		return nil
	}
	path, err := exportJSON(b.cfg.OutputDir, snapshot)
	if err != nil {
		return err
	}

	b.mu.Lock()
	b.lastExported = path
	b.mu.Unlock()
	return nil
}

// Conversions lists the conversions of a run ordered by start time, then
// input path.
func (b *Backend) Conversions(runID uuid.UUID) ([]core.Conversion, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	rec, ok := b.runs[runID]
	if !ok {
		return nil, nil
	}
	out := slices.Clone(rec.Conversions)
	slices.SortStableFunc(out, func(a, b core.Conversion) int {
		if c := a.StartedAt.Compare(b.StartedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.Input, b.Input)
	})
	return out, nil
}

// ExportedFilePath returns the path of the last exported run, if any.
func (b *Backend) ExportedFilePath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastExported
}
