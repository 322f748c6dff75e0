// Package postgres implements the storage.Backend interface on PostgreSQL.
package postgres

import (
	"fmt"
	"log/slog"

	"github.com/truck2jbeam/truck2jbeam/internal/database"
	gormstorage "github.com/truck2jbeam/truck2jbeam/internal/storage/gorm"
)

// Backend is the GORM backend bound to a postgres connection opened on
// Init.
type Backend struct {
	*gormstorage.Backend
	cfg    database.PostgresConfig
	logger *slog.Logger
}

// New creates a backend; no connection is made until Init.
func New(cfg database.PostgresConfig, logger *slog.Logger) *Backend {
	if logger == nil {
		logger = slog.Default()
	}
	return &Backend{cfg: cfg, logger: logger}
}

// Init connects, validates the connection and migrates the schema.
func (b *Backend) Init() error {
	db, err := database.GetPostgresDB(b.cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to postgres: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to access sql interface: %w", err)
	}
	if err = sqlDB.Ping(); err != nil {
		return fmt.Errorf("failed to validate connection: %w", err)
	}
	sqlDB.SetMaxOpenConns(10)

	b.Backend = gormstorage.New(gormstorage.Dependencies{DB: db, Logger: b.logger})
	b.logger.Info("Connected to postgres history store", "host", b.cfg.Host, "database", b.cfg.Database)
	return b.Backend.Init()
}

// Close flushes and closes the connection.
func (b *Backend) Close() error {
	if b.Backend == nil {
		return nil
	}
	if err := b.Backend.Close(); err != nil {
		return err
	}
	sqlDB, err := b.DB().DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
