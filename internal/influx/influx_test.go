package influx

import (
	"compress/gzip"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/truck2jbeam/truck2jbeam/internal/config"
	"github.com/truck2jbeam/truck2jbeam/internal/model/core"
)

func sampleConversion() core.Conversion {
	return core.Conversion{
		Input:       "rigs/hauler.truck",
		Status:      core.StatusSucceeded,
		VehicleType: "truck",
		Template:    "truck",
		StartedAt:   time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC),
		Duration:    1500 * time.Millisecond,
		Stats:       core.Stats{Nodes: 42, Beams: 120, Wheels: 6, TotalMass: 8000},
		Warnings:    []string{"w"},
	}
}

func TestConversionPoint(t *testing.T) {
	line := influxdb2_write.PointToLineProtocol(ConversionPoint(sampleConversion()), time.Nanosecond)

	assert.True(t, strings.HasPrefix(line, "conversion,"))
	assert.Contains(t, line, "status=succeeded")
	assert.Contains(t, line, "template=truck")
	assert.Contains(t, line, "vehicle_type=truck")
	assert.Contains(t, line, "nodes=42i")
	assert.Contains(t, line, "beams=120i")
	assert.Contains(t, line, "duration_ms=1500i")
	assert.Contains(t, line, "warnings=1i")
}

func TestConversionPoint_NoTemplate(t *testing.T) {
	c := sampleConversion()
	c.Template = ""
	line := influxdb2_write.PointToLineProtocol(ConversionPoint(c), time.Nanosecond)
	assert.NotContains(t, line, "template=")
}

func TestConnect_Disabled(t *testing.T) {
	m := NewManager(config.InfluxConfig{}, zerolog.Nop(), "")
	assert.ErrorIs(t, m.Connect(context.Background()), ErrDisabled)
	assert.NoError(t, m.Close())
}

func TestWritePoint_NotInitialized(t *testing.T) {
	m := NewManager(config.InfluxConfig{}, zerolog.Nop(), "")
	assert.Error(t, m.WriteConversion(sampleConversion()))
}

func TestConnect_UnreachableFallsBackToBackup(t *testing.T) {
	backup := filepath.Join(t.TempDir(), "influx_backup.lp.gz")
	m := NewManager(config.InfluxConfig{
		Enabled:  true,
		Protocol: "http",
		Host:     "127.0.0.1",
		Port:     "1",
		Org:      "org",
		Bucket:   "bucket",
	}, zerolog.Nop(), backup)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, m.Connect(ctx))
	assert.False(t, m.IsValid)

	require.NoError(t, m.WriteConversion(sampleConversion()))
	require.NoError(t, m.Close())

	f, err := os.Open(backup)
	require.NoError(t, err)
	defer f.Close()
	zr, err := gzip.NewReader(f)
	require.NoError(t, err)
	data, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Contains(t, string(data), "conversion,")
	assert.Contains(t, string(data), "nodes=42i")
}

func TestConnect_UnreachableWithoutBackupPath(t *testing.T) {
	m := NewManager(config.InfluxConfig{
		Enabled: true, Protocol: "http", Host: "127.0.0.1", Port: "1",
	}, zerolog.Nop(), "")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.Error(t, m.Connect(ctx))
	assert.NoError(t, m.Close())
}
