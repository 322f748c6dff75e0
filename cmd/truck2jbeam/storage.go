package main

import (
	"context"
	"errors"
	"time"

	"github.com/truck2jbeam/truck2jbeam/internal/config"
	"github.com/truck2jbeam/truck2jbeam/internal/influx"
	"github.com/truck2jbeam/truck2jbeam/internal/logging"
	"github.com/truck2jbeam/truck2jbeam/internal/storage"
	"github.com/truck2jbeam/truck2jbeam/internal/worker"
)

// initStorage opens the configured history backend. Any failure disables
// history for this run; conversions still go ahead.
func initStorage() storage.Backend {
	storageCfg := config.GetStorageConfig()

	backend, err := storage.NewBackend(storageCfg, Logger)
	if err != nil {
		Logger.Error("Failed to create storage backend", "error", err)
		return nil
	}
	if backend == nil {
		Logger.Debug("Conversion history disabled")
		return nil
	}
	if err := backend.Init(); err != nil {
		Logger.Error("Failed to initialize storage backend", "type", storageCfg.Type, "error", err)
		return nil
	}
	Logger.Info("Storage backend initialized", "type", storageCfg.Type)
	return backend
}

func closeStorage(backend storage.Backend) {
	if err := backend.Close(); err != nil {
		Logger.Error("Failed to close storage backend", "error", err)
		return
	}
	if exp, ok := backend.(storage.Exportable); ok && exp.ExportedFilePath() != "" {
		Logger.Info("Conversion history saved", "path", exp.ExportedFilePath())
	}
}

// initInflux connects the metrics writer when influx.enabled is set. When
// the server is unreachable points go to a gzip backup next to the logs.
func initInflux() (worker.MetricsWriter, func()) {
	influxCfg := config.GetInfluxConfig()
	backupPath := influxBackupPath()
	mgr := influx.NewManager(influxCfg, logging.Zerolog(Logger, "influx"), backupPath)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := mgr.Connect(ctx); err != nil {
		if !errors.Is(err, influx.ErrDisabled) {
			Logger.Error("Failed to set up InfluxDB", "error", err)
		}
		return nil, func() {}
	}

	return mgr, func() {
		if err := mgr.Close(); err != nil {
			Logger.Error("Failed to close InfluxDB writer", "error", err)
		}
	}
}

func influxBackupPath() string {
	dir := config.GetString("logsDir")
	if dir == "" {
		dir = "."
	}
	return logging.LogFilePath(dir, ExtensionName+"_influx", SessionStartTime) + ".gz"
}
