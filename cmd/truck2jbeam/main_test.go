package main

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/truck2jbeam/truck2jbeam/internal/config"
	"github.com/truck2jbeam/truck2jbeam/internal/model/core"
	"github.com/truck2jbeam/truck2jbeam/internal/worker"
)

const boxTruck = `Box
globals
1000, 500

nodes
1, 0.0, 0.0, 0.0
2, 1.0, 0.0, 0.0
3, 1.0, 1.0, 0.0

beams
1, 2
2, 3
3, 1
end
`

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		check   func(t *testing.T, o cliOptions)
		wantErr bool
	}{
		{
			name: "defaults",
			args: []string{"a.truck"},
			check: func(t *testing.T, o cliOptions) {
				assert.True(t, o.Backup)
				assert.Equal(t, []string{"a.truck"}, o.Files)
				assert.Zero(t, o.Workers)
			},
		},
		{
			name: "no backup",
			args: []string{"--no-backup", "a.truck"},
			check: func(t *testing.T, o cliOptions) {
				assert.False(t, o.Backup)
			},
		},
		{
			name: "everything",
			args: []string{
				"-o", "out", "-d", "rigs", "-f", "-v", "--dry-run", "--author", "Me",
				"--template", "truck", "--min-mass", "12.5", "--process-dae", "meshes",
				"--dae-output", "meshes_out", "--no-duplicate-resolution", "--strict-validation",
				"--include-stats", "--no-transform-properties", "--preview", "-j", "3",
			},
			check: func(t *testing.T, o cliOptions) {
				assert.Equal(t, "out", o.OutputDir)
				assert.Equal(t, "rigs", o.Directory)
				assert.True(t, o.Force)
				assert.True(t, o.Verbose)
				assert.True(t, o.DryRun)
				assert.Equal(t, "Me", o.Author)
				assert.Equal(t, "truck", o.Template)
				assert.Equal(t, 12.5, o.MinMass)
				assert.Equal(t, "meshes", o.ProcessDAE)
				assert.Equal(t, "meshes_out", o.DAEOutput)
				assert.True(t, o.NoDuplicateResolution)
				assert.True(t, o.StrictValidation)
				assert.True(t, o.IncludeStats)
				assert.True(t, o.NoTransformProperties)
				assert.True(t, o.Preview)
				assert.Equal(t, 3, o.Workers)
				assert.Empty(t, o.Files)
			},
		},
		{name: "negative mass", args: []string{"--min-mass", "-1"}, wantErr: true},
		{name: "unknown flag", args: []string{"--nope"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, err := parseFlags(tt.args, &bytes.Buffer{})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, o)
		})
	}
}

func TestParseFlags_Help(t *testing.T) {
	var out bytes.Buffer
	_, err := parseFlags([]string{"--help"}, &out)
	assert.ErrorIs(t, err, errHelp)
	assert.Contains(t, out.String(), "--output-dir")
}

func TestCollectFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.truck", "sub/b.trailer", "notes.txt"} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(boxTruck), 0644))
	}

	files, rejected, err := collectFiles(cliOptions{
		Directory: dir,
		Files: []string{
			filepath.Join(dir, "*.truck"),
			filepath.Join(dir, "notes.txt"),
			filepath.Join(dir, "missing.truck"),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.truck"),
		filepath.Join(dir, "sub", "b.trailer"),
	}, files)
	assert.Equal(t, []string{filepath.Join(dir, "notes.txt"), filepath.Join(dir, "missing.truck")}, rejected)

	_, _, err = collectFiles(cliOptions{Directory: filepath.Join(dir, "nope")})
	assert.Error(t, err)
}

func TestPrintSummary(t *testing.T) {
	var out bytes.Buffer
	printSummary(&out, worker.Summary{
		Run: core.Run{Processed: 2, Succeeded: 1, Failed: 1, TotalNodes: 7, TotalBeams: 9, Duration: 1500 * time.Millisecond},
		Conversions: []core.Conversion{
			{Input: "ok.truck", Status: core.StatusSucceeded},
			{Input: "bad.truck", Status: core.StatusFailed, Error: "no beams"},
		},
		Warnings: 3,
	})

	s := out.String()
	assert.Contains(t, s, "CONVERSION SUMMARY")
	assert.Contains(t, s, "Files processed: 2")
	assert.Contains(t, s, "Success rate: 50.0%")
	assert.Contains(t, s, "Total nodes: 7")
	assert.Contains(t, s, "Warnings: 3")
	assert.Contains(t, s, "Duration: 1.50 seconds")
	assert.Contains(t, s, "bad.truck")
	assert.Contains(t, s, "no beams")
}

func TestPrintTemplates(t *testing.T) {
	templates := config.BuiltinTemplates()
	templates["monster"] = config.Template{Name: "monster", Description: "Big wheels"}

	var out bytes.Buffer
	printTemplates(&out, templates)
	s := out.String()
	for _, name := range []string{"airplane", "car", "trailer", "truck"} {
		assert.Contains(t, s, name)
	}
	assert.Contains(t, s, "(custom): Big wheels")
}

func TestRun(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	input := filepath.Join(dir, "box.truck")
	require.NoError(t, os.WriteFile(input, []byte(boxTruck), 0644))
	outDir := filepath.Join(dir, "out")

	var stdout, stderr bytes.Buffer
	code := run([]string{"-o", outDir, "-v", input}, &stdout, &stderr)
	assert.Equal(t, 0, code, stdout.String())

	_, err := os.Stat(filepath.Join(outDir, "box.jbeam"))
	assert.NoError(t, err)
	assert.Contains(t, stdout.String(), "CONVERSION SUMMARY")

	// second run without --force skips the existing output
	stdout.Reset()
	assert.Equal(t, 0, run([]string{"-o", outDir, "-v", input}, &stdout, &stderr))
	assert.Contains(t, stdout.String(), "Skipped: ")

	stdout.Reset()
	assert.Equal(t, 1, run([]string{"-o", outDir, filepath.Join(dir, "missing.truck")}, &stdout, &stderr))
}

func TestRun_Version(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 0, run([]string{"--version"}, &stdout, &stderr))
	assert.Contains(t, stdout.String(), CurrentVersion)
}

func TestRun_NoFiles(t *testing.T) {
	t.Cleanup(viper.Reset)
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 1, run(nil, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "Usage")
}

func TestNewProgress(t *testing.T) {
	t.Run("bar", func(t *testing.T) {
		var out bytes.Buffer
		progress, stop := newProgress(2, false, &out, slog.New(slog.NewTextHandler(io.Discard, nil)))
		progress(1, 2, core.Conversion{Input: "a.truck", Status: core.StatusSucceeded})
		progress(2, 2, core.Conversion{Input: "b.truck", Status: core.StatusSucceeded})
		stop()
		assert.Contains(t, out.String(), "2 / 2")
	})

	t.Run("verbose", func(t *testing.T) {
		var out, logs bytes.Buffer
		progress, stop := newProgress(3, true, &out, slog.New(slog.NewTextHandler(&logs, nil)))
		progress(1, 3, core.Conversion{Input: "rigs/a.truck", Status: core.StatusFailed})
		stop()
		assert.Empty(t, out.String())
		assert.Contains(t, logs.String(), "[1/3] a.truck")
		assert.Contains(t, logs.String(), "status=failed")
	})
}
