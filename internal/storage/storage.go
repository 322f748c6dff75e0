// internal/storage/storage.go
package storage

import (
	"github.com/google/uuid"

	"github.com/truck2jbeam/truck2jbeam/internal/model/core"
)

// Backend is the interface all conversion history implementations must
// satisfy. Implementations are safe for concurrent use by batch workers.
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Run management
	StartRun(run *core.Run) error
	EndRun(run *core.Run) error

	// RecordConversion stores one file's outcome under the current run.
	RecordConversion(c *core.Conversion) error

	// Conversions lists the recorded conversions of a run ordered by start
	// time, then input path.
	Conversions(runID uuid.UUID) ([]core.Conversion, error)
}

// Exportable is an optional interface for backends that write a file per
// run.
type Exportable interface {
	ExportedFilePath() string
}
