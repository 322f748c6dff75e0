package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// failingSink rejects every record at info and above.
type failingSink struct{}

func (failingSink) Enabled(_ context.Context, l slog.Level) bool { return l >= slog.LevelInfo }
func (failingSink) Handle(context.Context, slog.Record) error {
	return errors.New("connection refused")
}
func (s failingSink) WithAttrs([]slog.Attr) slog.Handler { return s }
func (s failingSink) WithGroup(string) slog.Handler      { return s }

func TestSetup_Sinks(t *testing.T) {
	provider := sdklog.NewLoggerProvider()
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	tests := []struct {
		name     string
		provider *sdklog.LoggerProvider
		extra    []Sink
		want     []string
	}{
		{"output only", nil, nil, []string{"output"}},
		{"with otel", provider, nil, []string{"output", "otel"}},
		{
			"extra sink",
			nil,
			[]Sink{{Name: "graylog", Handler: failingSink{}}},
			[]string{"output", "graylog"},
		},
		{
			"nil handler dropped",
			provider,
			[]Sink{{Name: "graylog"}},
			[]string{"output", "otel"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewSlogManager()
			m.Setup(&bytes.Buffer{}, "info", tt.provider, tt.extra...)
			assert.Equal(t, tt.want, m.Sinks())
		})
	}
}

func TestSetup_LevelFiltering(t *testing.T) {
	tests := []struct {
		level    string
		wantInfo bool
		wantWarn bool
	}{
		{"debug", true, true},
		{"info", true, true},
		{"warning", false, true},
		{"error", false, false},
		{"bogus", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			m := NewSlogManager()
			m.Setup(&buf, tt.level, nil)

			m.Logger().Info("Converted rig")
			m.Logger().Warn("Missing node")

			assert.Equal(t, tt.wantInfo, strings.Contains(buf.String(), "Converted rig"))
			assert.Equal(t, tt.wantWarn, strings.Contains(buf.String(), "Missing node"))
		})
	}
}

func TestSetup_DebugAnnouncesSinks(t *testing.T) {
	var buf bytes.Buffer
	m := NewSlogManager()
	m.Setup(&buf, "debug", nil)

	assert.Contains(t, buf.String(), "Logging initialized")
	assert.Contains(t, buf.String(), "sinks=[output]")
}

func TestSetup_ReplacesPipeline(t *testing.T) {
	var first, second bytes.Buffer
	m := NewSlogManager()

	m.Setup(&first, "info", nil)
	m.Logger().Info("first run")
	m.Setup(&second, "info", nil)
	m.Logger().Info("second run")

	assert.Contains(t, first.String(), "first run")
	assert.NotContains(t, first.String(), "second run")
	assert.Contains(t, second.String(), "second run")
}

func TestSetup_LogFile(t *testing.T) {
	dir := t.TempDir()
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	f, err := OpenLogFile(dir, "truck2jbeam", start)
	require.NoError(t, err)

	m := NewSlogManager()
	m.Setup(f, "info", nil)
	m.Logger().Info("Wrote output", "path", "out/box.jbeam")
	require.NoError(t, f.Close())

	data, err := os.ReadFile(LogFilePath(dir, "truck2jbeam", start))
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, `msg="Wrote output"`)
	assert.Contains(t, out, "path=out/box.jbeam")
	assert.Regexp(t, `time=\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}Z`, out)
}

func TestSetup_RunAndFileContext(t *testing.T) {
	var buf bytes.Buffer
	m := NewSlogManager()
	m.RunContext = func() []slog.Attr {
		return []slog.Attr{slog.String("template", "car")}
	}
	m.Setup(&buf, "info", nil)

	ctx := WithAttrs(context.Background(), slog.String("file", "box.truck"))
	m.Logger().InfoContext(ctx, "Converted")
	m.Logger().Info("Summary")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "template=car")
	assert.Contains(t, lines[0], "file=box.truck")
	assert.Contains(t, lines[1], "template=car")
	assert.NotContains(t, lines[1], "file=")
}

func TestSetup_OTelSinkReceivesRecords(t *testing.T) {
	var exported bytes.Buffer
	exp, err := stdoutlog.New(stdoutlog.WithWriter(&exported))
	require.NoError(t, err)
	provider := sdklog.NewLoggerProvider(sdklog.WithProcessor(sdklog.NewSimpleProcessor(exp)))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	var buf bytes.Buffer
	m := NewSlogManager()
	m.Setup(&buf, "info", provider)
	m.Logger().Info("Distributed mass", "nodes", 12)

	require.NoError(t, m.Flush(context.Background()))
	assert.Contains(t, buf.String(), "Distributed mass")
	assert.Contains(t, exported.String(), "Distributed mass")
}

func TestSetup_FailingSinkCountedAndIsolated(t *testing.T) {
	var buf bytes.Buffer
	m := NewSlogManager()
	m.Setup(&buf, "debug", nil, Sink{Name: "graylog", Handler: failingSink{}})

	m.Logger().Debug("only output")
	m.Logger().Info("Converted a.truck")
	m.Logger().Warn("Converted b.truck")

	assert.Contains(t, buf.String(), "Converted a.truck")
	assert.Contains(t, buf.String(), "Converted b.truck")
	assert.Equal(t, map[string]int{"graylog": 2}, m.Dropped())
}

func TestDropped_EmptyBeforeFailures(t *testing.T) {
	m := NewSlogManager()
	m.Setup(&bytes.Buffer{}, "info", nil)
	m.Logger().Info("fine")
	assert.Empty(t, m.Dropped())
}

func TestFanout_HandleJoinsErrors(t *testing.T) {
	var buf bytes.Buffer
	var failed []string
	f := newFanout(func(sink string, _ error) { failed = append(failed, sink) },
		Sink{Name: "graylog", Handler: failingSink{}},
		Sink{Name: "output", Handler: slog.NewTextHandler(&buf, nil)},
	)

	r := slog.NewRecord(time.Now(), slog.LevelInfo, "beam skipped", 0)
	err := f.Handle(context.Background(), r)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "graylog: connection refused")
	assert.Equal(t, []string{"graylog"}, failed)
	assert.Contains(t, buf.String(), "beam skipped")
}

func TestFanout_Enabled(t *testing.T) {
	var buf bytes.Buffer
	warnOnly := Sink{Name: "output", Handler: slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn})}

	assert.False(t, newFanout(nil).Enabled(context.Background(), slog.LevelError))
	assert.False(t, newFanout(nil, warnOnly).Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, newFanout(nil, warnOnly, Sink{Name: "graylog", Handler: failingSink{}}).
		Enabled(context.Background(), slog.LevelInfo))
}

func TestFanout_AttrsAndGroupsReachEverySink(t *testing.T) {
	var a, b bytes.Buffer
	f := newFanout(nil,
		Sink{Name: "a", Handler: slog.NewTextHandler(&a, nil)},
		Sink{Name: "b", Handler: slog.NewTextHandler(&b, nil)},
	)

	logger := slog.New(f.WithAttrs([]slog.Attr{slog.String("rig", "box")}).WithGroup("mass"))
	logger.Info("done", "total", 500)

	for _, out := range []string{a.String(), b.String()} {
		assert.Contains(t, out, "rig=box")
		assert.Contains(t, out, "mass.total=500")
	}
	assert.Same(t, f, f.WithGroup(""))
}

func TestWriteLog(t *testing.T) {
	tests := []struct {
		level string
		want  string
	}{
		{"debug", "level=DEBUG"},
		{"info", "level=INFO"},
		{"warn", "level=WARN"},
		{"error", "level=ERROR"},
		{"", "level=INFO"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			var buf bytes.Buffer
			m := NewSlogManager()
			m.Setup(&buf, "debug", nil)
			buf.Reset()

			m.WriteLog("convert", "wrote box.jbeam", tt.level)
			assert.Contains(t, buf.String(), tt.want)
			assert.Contains(t, buf.String(), "function=convert")
		})
	}
}

func TestWriteLog_BeforeSetup(t *testing.T) {
	m := NewSlogManager()
	assert.NotPanics(t, func() { m.WriteLog("convert", "ignored", "info") })
	assert.Equal(t, slog.Default(), m.Logger())
}

func TestFlush(t *testing.T) {
	m := NewSlogManager()
	assert.NoError(t, m.Flush(context.Background()))

	provider := sdklog.NewLoggerProvider()
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })
	m.Setup(&bytes.Buffer{}, "info", provider)
	assert.NoError(t, m.Flush(context.Background()))
}

func TestSinks_ReturnsCopy(t *testing.T) {
	m := NewSlogManager()
	m.Setup(&bytes.Buffer{}, "info", nil)

	names := m.Sinks()
	names[0] = "changed"
	assert.Equal(t, []string{"output"}, m.Sinks())
}
