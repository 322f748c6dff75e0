package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// DatabaseModels is a list of all the structs exported here which represent tables in the database schema
var DatabaseModels = []interface{}{
	&Run{},
	&Conversion{},
}

// Run is one CLI invocation.
type Run struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	StartedAt  time.Time `json:"startedAt" gorm:"index"`
	DurationMs int64     `json:"durationMs"`
	Processed  int       `json:"processed"`
	Succeeded  int       `json:"succeeded"`
	Failed     int       `json:"failed"`
	Skipped    int       `json:"skipped"`
	TotalNodes int       `json:"totalNodes"`
	TotalBeams int       `json:"totalBeams"`

	Conversions []Conversion `json:"conversions" gorm:"foreignKey:RunID"`
}

func (*Run) TableName() string {
	return "runs"
}

// Conversion is one converted file. Stats and messages are stored as JSON
// so the table stays stable when counters are added.
type Conversion struct {
	ID          uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	RunID       uuid.UUID      `json:"runId" gorm:"type:uuid;index"`
	Input       string         `json:"input" gorm:"size:1024"`
	Output      string         `json:"output" gorm:"size:1024"`
	RigName     string         `json:"rigName" gorm:"size:255"`
	VehicleType string         `json:"vehicleType" gorm:"size:32"`
	Template    string         `json:"template" gorm:"size:64"`
	Status      string         `json:"status" gorm:"size:16;index"`
	Error       string         `json:"error"`
	StartedAt   time.Time      `json:"startedAt" gorm:"index"`
	DurationMs  int64          `json:"durationMs"`
	Nodes       int            `json:"nodes"`
	Beams       int            `json:"beams"`
	Stats       datatypes.JSON `json:"stats"`
	Warnings    datatypes.JSON `json:"warnings"`
	Errors      datatypes.JSON `json:"errors"`
}

func (*Conversion) TableName() string {
	return "conversions"
}
