// internal/storage/factory.go
package storage

import (
	"fmt"
	"log/slog"

	"github.com/truck2jbeam/truck2jbeam/internal/config"
	"github.com/truck2jbeam/truck2jbeam/internal/database"
	"github.com/truck2jbeam/truck2jbeam/internal/storage/managed"
	"github.com/truck2jbeam/truck2jbeam/internal/storage/memory"
	pgstorage "github.com/truck2jbeam/truck2jbeam/internal/storage/postgres"
	sqlitestorage "github.com/truck2jbeam/truck2jbeam/internal/storage/sqlite"
)

// NewBackend creates a storage backend based on configuration. Type "none"
// or "" disables history and returns a nil Backend. "database" prefers
// postgres and falls back to SQLite.
func NewBackend(cfg config.StorageConfig, logger *slog.Logger) (Backend, error) {
	switch cfg.Type {
	case "", "none":
		return nil, nil
	case "memory":
		return memory.New(cfg.Memory), nil
	case "sqlite":
		b, err := sqlitestorage.New(sqlitestorage.Config{
			Path:     cfg.SQLite.Path,
			DumpPath: cfg.SQLite.DumpPath,
		}, logger)
		if err != nil {
			return nil, err
		}
		return b, nil
	case "postgres":
		return pgstorage.New(database.PostgresConfigFromViper(), logger), nil
	case "database":
		return managed.New(database.PostgresConfigFromViper(), cfg.SQLite, logger), nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
