// Package gormstorage implements storage.Backend on any gorm dialect.
// Conversions are queued and written in batches when a run ends, when the
// queue reaches the batch size, or on Close.
package gormstorage

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/truck2jbeam/truck2jbeam/internal/database"
	"github.com/truck2jbeam/truck2jbeam/internal/model"
	"github.com/truck2jbeam/truck2jbeam/internal/model/convert"
	"github.com/truck2jbeam/truck2jbeam/internal/model/core"
	"github.com/truck2jbeam/truck2jbeam/internal/queue"
)

// DefaultBatchSize is the queue length that triggers a write.
const DefaultBatchSize = 100

// ErrNoDB is returned by Init when no database was injected.
var ErrNoDB = errors.New("no database connection")

// Dependencies holds all dependencies for the GORM storage backend.
type Dependencies struct {
	DB        *gorm.DB
	Logger    *slog.Logger
	BatchSize int
}

// Backend implements storage.Backend using GORM with queue-based batch writes.
type Backend struct {
	deps    Dependencies
	pending *queue.Queue[model.Conversion]

	// writeMu serializes flushes.
	writeMu sync.Mutex
}

// New creates a new GORM storage backend.
func New(deps Dependencies) *Backend {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.BatchSize <= 0 {
		deps.BatchSize = DefaultBatchSize
	}
	return &Backend{
		deps:    deps,
		pending: queue.New[model.Conversion](),
	}
}

// DB returns the underlying connection.
func (b *Backend) DB() *gorm.DB {
	return b.deps.DB
}

// Init runs schema migration.
func (b *Backend) Init() error {
	if b.deps.DB == nil {
		return ErrNoDB
	}
	if err := database.Migrate(b.deps.DB); err != nil {
		return fmt.Errorf("failed to setup DB: %w", err)
	}
	return nil
}

// Close writes anything still queued.
func (b *Backend) Close() error {
	return b.Flush()
}

// StartRun inserts the run row.
func (b *Backend) StartRun(run *core.Run) error {
	row := convert.CoreToRun(*run)
	if err := b.deps.DB.Create(&row).Error; err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

// EndRun flushes queued conversions and stores the run totals.
func (b *Backend) EndRun(run *core.Run) error {
	if err := b.Flush(); err != nil {
		return err
	}
	row := convert.CoreToRun(*run)
	err := b.deps.DB.Model(&model.Run{}).
		Where("id = ?", run.ID).
		Select("duration_ms", "processed", "succeeded", "failed", "skipped", "total_nodes", "total_beams").
		Updates(&row).Error
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	return nil
}

// RecordConversion queues c, flushing when the batch is full.
func (b *Backend) RecordConversion(c *core.Conversion) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if b.pending.Push(convert.CoreToConversion(*c)) >= b.deps.BatchSize {
		return b.Flush()
	}
	return nil
}

// Flush writes all queued conversions. On failure they are queued again.
func (b *Backend) Flush() error {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	batch := b.pending.Drain()
	if len(batch) == 0 {
		return nil
	}
	if err := b.deps.DB.CreateInBatches(batch, b.deps.BatchSize).Error; err != nil {
		b.pending.Requeue(batch...)
		return fmt.Errorf("failed to write %d conversions: %w", len(batch), err)
	}
	b.deps.Logger.Debug("Wrote conversion history", "count", len(batch))
	return nil
}

// Conversions lists the stored conversions of a run, flushing first.
func (b *Backend) Conversions(runID uuid.UUID) ([]core.Conversion, error) {
	if err := b.Flush(); err != nil {
		return nil, err
	}
	var rows []model.Conversion
	err := b.deps.DB.Where("run_id = ?", runID).Order("started_at, input").Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query conversions: %w", err)
	}
	out := make([]core.Conversion, len(rows))
	for i, r := range rows {
		out[i] = convert.ConversionToCore(r)
	}
	return out, nil
}
