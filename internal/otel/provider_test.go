package otel

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
)

func TestNew_Disabled(t *testing.T) {
	p, err := New(Config{Enabled: false})
	require.NoError(t, err)

	assert.False(t, p.Enabled())
	assert.Nil(t, p.LoggerProvider())
	assert.Equal(t, noop.Meter{}, p.Meter("x"))
	assert.NoError(t, p.Flush(context.Background()))
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestNew_EnabledWithoutSinks(t *testing.T) {
	_, err := New(Config{Enabled: true, ServiceName: "t"})
	assert.ErrorIs(t, err, ErrNoLogExporter)
}

func TestNew_LogsOnlyHasNoopMeter(t *testing.T) {
	var logs bytes.Buffer
	p, err := New(Config{
		Enabled:        true,
		ServiceName:    "truck2jbeam-test",
		ServiceVersion: "3.0.0",
		BatchTimeout:   time.Second,
		LogWriter:      &logs,
	})
	require.NoError(t, err)

	assert.True(t, p.Enabled())
	assert.Equal(t, noop.Meter{}, p.Meter("x"))
	require.NoError(t, p.Shutdown(context.Background()))
	assert.NoError(t, p.Shutdown(context.Background()))
	assert.NoError(t, p.Flush(context.Background()))
}

func TestNew_MetricsExported(t *testing.T) {
	var logs, metrics bytes.Buffer
	p, err := New(Config{
		Enabled:        true,
		ServiceName:    "truck2jbeam-test",
		BatchTimeout:   time.Second,
		MetricInterval: time.Hour,
		LogWriter:      &logs,
		MetricWriter:   &metrics,
	})
	require.NoError(t, err)
	require.NotNil(t, p.LoggerProvider())

	counter, err := p.Meter("test").Int64Counter("conversions.completed")
	require.NoError(t, err)
	counter.Add(context.Background(), 3)

	require.NoError(t, p.Flush(context.Background()))
	assert.Contains(t, metrics.String(), "conversions.completed")

	require.NoError(t, p.Shutdown(context.Background()))
}
