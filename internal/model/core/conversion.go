// internal/model/core/conversion.go
package core

import (
	"time"

	"github.com/google/uuid"
)

// Status is the outcome of converting one file.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
	StatusDryRun    Status = "dry-run"
)

// Stats are the rig counts recorded with a conversion.
type Stats struct {
	Nodes           int     `json:"nodes"`
	Beams           int     `json:"beams"`
	Wheels          int     `json:"wheels"`
	Hydros          int     `json:"hydros"`
	Flexbodies      int     `json:"flexbodies"`
	Props           int     `json:"props"`
	Triangles       int     `json:"triangles"`
	DryWeight       float64 `json:"dryWeight"`
	LoadWeight      float64 `json:"loadWeight"`
	TotalMass       float64 `json:"totalMass"`
	TotalBeamLength float64 `json:"totalBeamLength"`
	FootprintArea   float64 `json:"footprintArea"`
	Renamed         int     `json:"renamed"`
}

// Conversion is one input file run through the pipeline.
type Conversion struct {
	ID          uuid.UUID     `json:"id"`
	RunID       uuid.UUID     `json:"runId"`
	Input       string        `json:"input"`
	Output      string        `json:"output"`
	RigName     string        `json:"rigName"`
	VehicleType string        `json:"vehicleType"`
	Template    string        `json:"template,omitempty"`
	Status      Status        `json:"status"`
	Error       string        `json:"error,omitempty"`
	StartedAt   time.Time     `json:"startedAt"`
	Duration    time.Duration `json:"duration"`
	Stats       Stats         `json:"stats"`
	Warnings    []string      `json:"warnings"`
	Errors      []string      `json:"errors"`
}

// Run groups the conversions of one CLI invocation.
type Run struct {
	ID         uuid.UUID     `json:"id"`
	StartedAt  time.Time     `json:"startedAt"`
	Duration   time.Duration `json:"duration"`
	Processed  int           `json:"processed"`
	Succeeded  int           `json:"succeeded"`
	Failed     int           `json:"failed"`
	Skipped    int           `json:"skipped"`
	TotalNodes int           `json:"totalNodes"`
	TotalBeams int           `json:"totalBeams"`
}

// NewRun starts a run with a fresh id.
func NewRun(start time.Time) Run {
	return Run{ID: uuid.New(), StartedAt: start}
}

// Add counts one conversion into the run totals.
func (r *Run) Add(c Conversion) {
	r.Processed++
	switch c.Status {
	case StatusSucceeded, StatusDryRun:
		r.Succeeded++
	case StatusSkipped:
		r.Skipped++
	default:
		r.Failed++
	}
	r.TotalNodes += c.Stats.Nodes
	r.TotalBeams += c.Stats.Beams
}
