// Package managed stores history in PostgreSQL and falls back to SQLite
// when the server cannot be reached.
package managed

import (
	"context"
	"log/slog"

	"github.com/truck2jbeam/truck2jbeam/internal/config"
	"github.com/truck2jbeam/truck2jbeam/internal/database"
	"github.com/truck2jbeam/truck2jbeam/internal/logging"
	gormstorage "github.com/truck2jbeam/truck2jbeam/internal/storage/gorm"
)

// Backend is a GORM backend on whatever connection database.Manager
// produced.
type Backend struct {
	*gormstorage.Backend

	pg       database.PostgresConfig
	sqlite   config.SQLiteConfig
	mgr      *database.Manager
	logger   *slog.Logger
	exported string
}

// New creates a backend; no connection is made until Init.
func New(pg database.PostgresConfig, sqlite config.SQLiteConfig, logger *slog.Logger) *Backend {
	if logger == nil {
		logger = slog.Default()
	}
	return &Backend{pg: pg, sqlite: sqlite, logger: logger}
}

// Init connects and migrates the schema.
func (b *Backend) Init() error {
	b.mgr = database.NewManager(logging.Zerolog(b.logger, "database"))
	b.mgr.SQLitePath = b.sqlite.Path
	if err := b.mgr.Connect(context.Background(), b.pg); err != nil {
		return err
	}
	if err := b.mgr.Migrate(); err != nil {
		return err
	}
	b.Backend = gormstorage.New(gormstorage.Dependencies{DB: b.mgr.DB, Logger: b.logger})
	return nil
}

// Local reports whether the SQLite fallback is in use.
func (b *Backend) Local() bool {
	return b.mgr != nil && b.mgr.Local()
}

// Close flushes, dumps an in-memory fallback database and closes the
// connection.
func (b *Backend) Close() error {
	if b.Backend == nil {
		return nil
	}
	err := b.Backend.Close()
	if err == nil && b.Local() && b.sqlite.Path == "" && b.sqlite.DumpPath != "" {
		if err = b.mgr.DumpMemoryToDisk(b.sqlite.DumpPath); err == nil {
			b.exported = b.sqlite.DumpPath
		}
	}
	if cerr := b.mgr.Close(); err == nil {
		err = cerr
	}
	return err
}

// ExportedFilePath returns the local database file, if history was kept
// locally.
func (b *Backend) ExportedFilePath() string {
	if b.Local() && b.sqlite.Path != "" {
		return b.sqlite.Path
	}
	return b.exported
}
