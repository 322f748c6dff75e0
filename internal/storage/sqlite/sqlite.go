// Package sqlitestorage implements the storage.Backend interface on SQLite.
// With no file path the database lives in memory and is written to disk
// with VACUUM INTO when a run ends and on Close.
package sqlitestorage

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/truck2jbeam/truck2jbeam/internal/database"
	"github.com/truck2jbeam/truck2jbeam/internal/model/core"
	gormstorage "github.com/truck2jbeam/truck2jbeam/internal/storage/gorm"
)

// Config holds configuration for the SQLite storage backend.
type Config struct {
	Path     string // database file; empty for in-memory
	DumpPath string // VACUUM INTO target for the in-memory database
}

// Backend wraps the GORM backend for SQLite-specific behavior.
type Backend struct {
	*gormstorage.Backend
	cfg    Config
	logger *slog.Logger
}

// New creates a new SQLite storage backend.
func New(cfg Config, logger *slog.Logger) (*Backend, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := database.GetSqliteDB(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite DB: %w", err)
	}

	return &Backend{
		Backend: gormstorage.New(gormstorage.Dependencies{DB: db, Logger: logger}),
		cfg:     cfg,
		logger:  logger,
	}, nil
}

// EndRun stores the run and dumps an in-memory database.
func (b *Backend) EndRun(run *core.Run) error {
	if err := b.Backend.EndRun(run); err != nil {
		return err
	}
	return b.dump()
}

// Close flushes, dumps and closes the connection.
func (b *Backend) Close() error {
	if err := b.Backend.Close(); err != nil {
		return err
	}
	if err := b.dump(); err != nil {
		return err
	}
	sqlDB, err := b.DB().DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// ExportedFilePath returns the file the history ends up in.
func (b *Backend) ExportedFilePath() string {
	if b.cfg.Path != "" {
		return b.cfg.Path
	}
	return b.cfg.DumpPath
}

func (b *Backend) dump() error {
	if b.cfg.Path != "" || b.cfg.DumpPath == "" {
		return nil
	}
	start := time.Now()
	if err := database.DumpMemoryDBToDisk(b.DB(), b.cfg.DumpPath); err != nil {
		b.logger.Error("Error dumping history to disk", "error", err)
		return err
	}
	b.logger.Debug("Dumped history to disk", "path", b.cfg.DumpPath, "duration", time.Since(start))
	return nil
}
