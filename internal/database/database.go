// Package database opens the GORM connections that hold conversion
// history: PostgreSQL when configured and reachable, SQLite otherwise.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/truck2jbeam/truck2jbeam/internal/model"
)

// Kind names the engine a Manager ended up connected to.
type Kind string

const (
	KindNone     Kind = ""
	KindPostgres Kind = "postgres"
	KindSQLite   Kind = "sqlite"
)

// ErrNoDumpPath is returned when an in-memory database is dumped without
// a destination.
var ErrNoDumpPath = errors.New("sqlite dump path not set")

const pingTimeout = 5 * time.Second

// PostgresConfig holds connection settings for the history database.
type PostgresConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	Database string
}

// PostgresConfigFromViper reads the db.* keys.
func PostgresConfigFromViper() PostgresConfig {
	return PostgresConfig{
		Host:     viper.GetString("db.host"),
		Port:     viper.GetString("db.port"),
		Username: viper.GetString("db.username"),
		Password: viper.GetString("db.password"),
		Database: viper.GetString("db.database"),
	}
}

// DSN returns the libpq connection string.
func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(`host=%s port=%s user=%s password=%s dbname=%s sslmode=disable connect_timeout=5`,
		c.Host, c.Port, c.Username, c.Password, c.Database)
}

// Manager owns the history connection and its fallback.
type Manager struct {
	DB   *gorm.DB
	Kind Kind

	// SQLitePath is the fallback file; empty means a private in-memory
	// database.
	SQLitePath string
	Logger     zerolog.Logger

	sqlDB *sql.DB
}

// NewManager creates a manager; nothing is opened until Connect.
func NewManager(log zerolog.Logger) *Manager {
	return &Manager{Logger: log}
}

// Local reports whether history goes to SQLite.
func (m *Manager) Local() bool {
	return m.Kind == KindSQLite
}

// Connect opens postgres and pings it. When that fails the SQLite fallback
// is opened instead; only a failing fallback is an error.
func (m *Manager) Connect(ctx context.Context, cfg PostgresConfig) error {
	db, sqlDB, err := openPostgres(ctx, cfg)
	if err == nil {
		sqlDB.SetMaxOpenConns(10)
		m.use(db, sqlDB, KindPostgres)
		m.Logger.Info().Str("host", cfg.Host).Str("database", cfg.Database).Msg("Connected to history database")
		return nil
	}
	m.Logger.Warn().Err(err).Msg("Postgres unavailable, keeping history in SQLite")

	db, err = GetSqliteDB(m.SQLitePath)
	if err != nil {
		return fmt.Errorf("failed to open SQLite fallback: %w", err)
	}
	sqlDB, err = db.DB()
	if err != nil {
		return fmt.Errorf("failed to access sql interface: %w", err)
	}
	m.use(db, sqlDB, KindSQLite)
	m.Logger.Info().Str("path", m.SQLitePath).Msg("Using local SQLite DB")
	return nil
}

func (m *Manager) use(db *gorm.DB, sqlDB *sql.DB, kind Kind) {
	m.DB, m.sqlDB, m.Kind = db, sqlDB, kind
}

func openPostgres(ctx context.Context, cfg PostgresConfig) (*gorm.DB, *sql.DB, error) {
	db, err := GetPostgresDB(cfg)
	if err != nil {
		return nil, nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, nil, fmt.Errorf("ping %s:%s: %w", cfg.Host, cfg.Port, err)
	}
	return db, sqlDB, nil
}

// Migrate brings the connected database's schema up to date.
func (m *Manager) Migrate() error {
	if m.DB == nil {
		return errors.New("database not connected")
	}
	if err := Migrate(m.DB); err != nil {
		return err
	}
	m.Logger.Debug().Str("kind", string(m.Kind)).Int("models", len(model.DatabaseModels)).Msg("Schema migrated")
	return nil
}

// DumpMemoryToDisk writes an in-memory SQLite database to path.
func (m *Manager) DumpMemoryToDisk(path string) error {
	start := time.Now()
	if err := DumpMemoryDBToDisk(m.DB, path); err != nil {
		return err
	}
	m.Logger.Debug().Str("path", path).Dur("duration", time.Since(start)).Msg("Dumped memory DB to disk")
	return nil
}

// Close closes the underlying connection pool.
func (m *Manager) Close() error {
	if m.sqlDB == nil {
		return nil
	}
	err := m.sqlDB.Close()
	m.sqlDB, m.DB, m.Kind = nil, nil, KindNone
	return err
}

// Migrate creates or updates the history tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(model.DatabaseModels...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

func gormConfig(batch int) *gorm.Config {
	return &gorm.Config{
		SkipDefaultTransaction: true,
		CreateBatchSize:        batch,
		Logger:                 logger.Default.LogMode(logger.Silent),
	}
}

// GetPostgresDB opens a postgres connection without checking that the
// server answers.
func GetPostgresDB(cfg PostgresConfig) (*gorm.DB, error) {
	return gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DSN(),
		PreferSimpleProtocol: true,
	}), gormConfig(1000))
}

var sqlitePragmas = []string{
	"PRAGMA user_version = 1;",
	"PRAGMA journal_mode = MEMORY;",
	"PRAGMA synchronous = OFF;",
	"PRAGMA temp_store = MEMORY;",
}

// GetSqliteDB opens the SQLite database at path, or a private in-memory
// one when path is empty.
func GetSqliteDB(path string) (*gorm.DB, error) {
	dsn := path
	if dsn == "" {
		// named so that two in-memory backends in one process stay apart
		dsn = fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	}

	cfg := gormConfig(500)
	cfg.PrepareStmt = true
	db, err := gorm.Open(sqlite.Open(dsn), cfg)
	if err != nil {
		return nil, err
	}
	for _, pragma := range sqlitePragmas {
		if err := db.Exec(pragma).Error; err != nil {
			return nil, fmt.Errorf("error setting %q: %w", pragma, err)
		}
	}
	return db, nil
}

// DumpMemoryDBToDisk copies db into a fresh file at path with VACUUM INTO.
func DumpMemoryDBToDisk(db *gorm.DB, path string) error {
	if path == "" {
		return ErrNoDumpPath
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("error removing existing DB file: %w", err)
	}
	if err := db.Exec("VACUUM INTO ?", path).Error; err != nil {
		return fmt.Errorf("error dumping memory DB to disk: %w", err)
	}
	return nil
}
