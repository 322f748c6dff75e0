// Package convert provides functions to convert between GORM models and core models
package convert

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"

	"github.com/truck2jbeam/truck2jbeam/internal/model"
	"github.com/truck2jbeam/truck2jbeam/internal/model/core"
)

// stringsToJSON converts a []string to datatypes.JSON for DB storage.
func stringsToJSON(items []string) datatypes.JSON {
	if len(items) == 0 {
		return datatypes.JSON("[]")
	}
	data, _ := json.Marshal(items)
	return datatypes.JSON(data)
}

// CoreToConversion converts a core.Conversion to a GORM model.Conversion.
func CoreToConversion(c core.Conversion) model.Conversion {
	stats, _ := json.Marshal(c.Stats)
	return model.Conversion{
		ID:          c.ID,
		RunID:       c.RunID,
		Input:       c.Input,
		Output:      c.Output,
		RigName:     c.RigName,
		VehicleType: c.VehicleType,
		Template:    c.Template,
		Status:      string(c.Status),
		Error:       c.Error,
		StartedAt:   c.StartedAt,
		DurationMs:  c.Duration.Milliseconds(),
		Nodes:       c.Stats.Nodes,
		Beams:       c.Stats.Beams,
		Stats:       datatypes.JSON(stats),
		Warnings:    stringsToJSON(c.Warnings),
		Errors:      stringsToJSON(c.Errors),
	}
}

// CoreToRun converts a core.Run to a GORM model.Run without conversions.
func CoreToRun(r core.Run) model.Run {
	return model.Run{
		ID:         r.ID,
		StartedAt:  r.StartedAt,
		DurationMs: r.Duration.Milliseconds(),
		Processed:  r.Processed,
		Succeeded:  r.Succeeded,
		Failed:     r.Failed,
		Skipped:    r.Skipped,
		TotalNodes: r.TotalNodes,
		TotalBeams: r.TotalBeams,
	}
}

// ConversionToCore converts a GORM model.Conversion back to core. Malformed
// JSON columns yield empty values.
func ConversionToCore(m model.Conversion) core.Conversion {
	c := core.Conversion{
		ID:          m.ID,
		RunID:       m.RunID,
		Input:       m.Input,
		Output:      m.Output,
		RigName:     m.RigName,
		VehicleType: m.VehicleType,
		Template:    m.Template,
		Status:      core.Status(m.Status),
		Error:       m.Error,
		StartedAt:   m.StartedAt,
		Duration:    time.Duration(m.DurationMs) * time.Millisecond,
	}
	if len(m.Stats) > 0 {
		_ = json.Unmarshal(m.Stats, &c.Stats)
	}
	c.Warnings = jsonToStrings(m.Warnings)
	c.Errors = jsonToStrings(m.Errors)
	return c
}

// RunToCore converts a GORM model.Run back to core.
func RunToCore(m model.Run) core.Run {
	return core.Run{
		ID:         m.ID,
		StartedAt:  m.StartedAt,
		Duration:   time.Duration(m.DurationMs) * time.Millisecond,
		Processed:  m.Processed,
		Succeeded:  m.Succeeded,
		Failed:     m.Failed,
		Skipped:    m.Skipped,
		TotalNodes: m.TotalNodes,
		TotalBeams: m.TotalBeams,
	}
}

func jsonToStrings(data datatypes.JSON) []string {
	if len(data) == 0 {
		return nil
	}
	var out []string
	if err := json.Unmarshal(data, &out); err != nil || len(out) == 0 {
		return nil
	}
	return out
}
