// internal/storage/memory/export.go
package memory

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// RunExport is the root JSON structure of an exported run.
type RunExport struct {
	RunID       string           `json:"runId"`
	StartedAt   string           `json:"startedAt"`
	DurationSec float64          `json:"durationSec"`
	Processed   int              `json:"processed"`
	Succeeded   int              `json:"succeeded"`
	Failed      int              `json:"failed"`
	Skipped     int              `json:"skipped"`
	Conversions []ConversionJSON `json:"conversions"`
}

// ConversionJSON is one file in an exported run.
type ConversionJSON struct {
	Input       string   `json:"input"`
	Output      string   `json:"output"`
	RigName     string   `json:"rigName"`
	Status      string   `json:"status"`
	Error       string   `json:"error,omitempty"`
	DurationSec float64  `json:"durationSec"`
	Nodes       int      `json:"nodes"`
	Beams       int      `json:"beams"`
	TotalMass   float64  `json:"totalMass"`
	Warnings    []string `json:"warnings"`
	Errors      []string `json:"errors"`
}

func buildExport(rec RunRecord) RunExport {
	out := RunExport{
		RunID:       rec.Run.ID.String(),
		StartedAt:   rec.Run.StartedAt.UTC().Format("2006-01-02T15:04:05Z"),
		DurationSec: rec.Run.Duration.Seconds(),
		Processed:   rec.Run.Processed,
		Succeeded:   rec.Run.Succeeded,
		Failed:      rec.Run.Failed,
		Skipped:     rec.Run.Skipped,
		Conversions: make([]ConversionJSON, 0, len(rec.Conversions)),
	}
	for _, c := range rec.Conversions {
		warnings, errs := c.Warnings, c.Errors
		if warnings == nil {
			warnings = []string{}
		}
		if errs == nil {
			errs = []string{}
		}
		out.Conversions = append(out.Conversions, ConversionJSON{
			Input:       c.Input,
			Output:      c.Output,
			RigName:     c.RigName,
			Status:      string(c.Status),
			Error:       c.Error,
			DurationSec: c.Duration.Seconds(),
			Nodes:       c.Stats.Nodes,
			Beams:       c.Stats.Beams,
			TotalMass:   c.Stats.TotalMass,
			Warnings:    warnings,
			Errors:      errs,
		})
	}
	return out
}

// exportJSON writes rec to run_<timestamp>_<id>.json in dir.
func exportJSON(dir string, rec RunRecord) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	filename := fmt.Sprintf("run_%s_%s.json",
		rec.Run.StartedAt.UTC().Format("20060102_150405"), rec.Run.ID.String()[:8])
	outputPath := filepath.Join(dir, filename)

	f, err := os.Create(outputPath)
	if err != nil {
		return "", fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(buildExport(rec)); err != nil {
		return "", fmt.Errorf("failed to encode run: %w", err)
	}
	return outputPath, nil
}
