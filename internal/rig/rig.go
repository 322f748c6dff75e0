// internal/rig/rig.go
package rig

import (
	"fmt"
)

const (
	DefaultName        = "Untitled Rig Class"
	DefaultMinimumMass = 50.0
	DefaultDryWeight   = 10000.0
	DefaultLoadWeight  = 10000.0
)

// Rig is the intermediate vehicle model populated by one parse pass and
// then mutated in place by the mass, group and serializer stages.
// A Rig is never shared between goroutines.
type Rig struct {
	Name    string
	Authors []string

	Nodes           []*Node
	Beams           []*Beam
	Hydros          []*Hydro
	InternalCameras []*InternalCamera
	Rails           []*Rail
	Slidenodes      []*Slidenode
	Wheels          []Wheel
	Flexbodies      []*Flexbody
	Props           []*Prop
	Triangles       []*Triangle
	Quads           []*Quad
	LegacyTriangles []LegacyTriangle
	Axles           []*Axle

	// Brakes holds the brake and parking brake forces when a brakes
	// section was present.
	Brakes []float64

	Engine      *Engine
	Engoption   *Engoption
	TorqueCurve []TorquePoint
	RefNodes    *RefNodes

	DryWeight   float64
	LoadWeight  float64
	MinimumMass float64

	Rollon                bool
	NoTransformProperties bool

	Warnings []string
	Errors   []string
}

// New returns an empty Rig with default weights.
func New() *Rig {
	return &Rig{
		Name:        DefaultName,
		DryWeight:   DefaultDryWeight,
		LoadWeight:  DefaultLoadWeight,
		MinimumMass: DefaultMinimumMass,
	}
}

func withLine(line int, msg string) string {
	if line > 0 {
		return fmt.Sprintf("Line %d: %s", line, msg)
	}
	return msg
}

// AddWarning records a non-fatal finding. A positive line prefixes the message.
func (r *Rig) AddWarning(line int, msg string) {
	r.Warnings = append(r.Warnings, withLine(line, msg))
}

// AddError records a recoverable error. A positive line prefixes the message.
func (r *Rig) AddError(line int, msg string) {
	r.Errors = append(r.Errors, withLine(line, msg))
}

// NodeIndex maps node ids to their position in Nodes. The first
// occurrence wins for duplicated ids.
func (r *Rig) NodeIndex() map[string]int {
	idx := make(map[string]int, len(r.Nodes))
	for i, n := range r.Nodes {
		if _, ok := idx[n.ID]; !ok {
			idx[n.ID] = i
		}
	}
	return idx
}

// Node returns the first node with the given id.
func (r *Rig) Node(id string) (*Node, bool) {
	for _, n := range r.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return nil, false
}

// AllTriangles returns every surface triangle in emission order: explicit
// triangles, legacy submesh triangles, then the two halves of each quad.
func (r *Rig) AllTriangles() []*Triangle {
	out := make([]*Triangle, 0, len(r.Triangles)+len(r.LegacyTriangles)+2*len(r.Quads))
	out = append(out, r.Triangles...)
	for _, lt := range r.LegacyTriangles {
		out = append(out, lt.Triangle())
	}
	for _, q := range r.Quads {
		t1, t2 := q.Triangles()
		out = append(out, t1, t2)
	}
	return out
}
