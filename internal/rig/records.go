package rig

import (
	"github.com/go-gl/mathgl/mgl64"
)

// BeamType is the JBeam beam kind written as "|TYPE".
type BeamType string

const (
	BeamNormal  BeamType = "NORMAL"
	BeamSupport BeamType = "SUPPORT"
	BeamBounded BeamType = "BOUNDED"
	BeamVirtual BeamType = "VIRTUAL"
)

const DefaultNodeMass = 10.0

type Node struct {
	ID            string
	Pos           mgl64.Vec3
	Fixed         bool
	LoadBearer    bool
	OverrideMass  float64 // 0 means none
	Coupler       bool
	FrictionCoef  float64
	SelfCollision bool
	Mass          float64
	Groups        []string
}

func NewNode(id string, x, y, z float64) *Node {
	return &Node{
		ID:           id,
		Pos:          mgl64.Vec3{x, y, z},
		FrictionCoef: 1.0,
		Mass:         DefaultNodeMass,
	}
}

// HasGroup reports whether the node already belongs to group g.
func (n *Node) HasGroup(g string) bool {
	for _, have := range n.Groups {
		if have == g {
			return true
		}
	}
	return false
}

// AddGroup appends g unless already present.
func (n *Node) AddGroup(g string) {
	if !n.HasGroup(g) {
		n.Groups = append(n.Groups, g)
	}
}

type Beam struct {
	ID1, ID2       string
	Spring         float64
	Damp           float64
	Deform         float64
	Strength       float64
	ShortBound     float64
	LongBound      float64
	Precompression float64
	LimitSpring    float64
	LimitDamp      float64
	DampRebound    bool
	Type           BeamType
	BreakGroup     string
}

func NewBeam(id1, id2 string, spring, damp, deform, strength float64) *Beam {
	return &Beam{
		ID1:            id1,
		ID2:            id2,
		Spring:         spring,
		Damp:           damp,
		Deform:         deform,
		Strength:       strength,
		ShortBound:     1.0,
		LongBound:      1.0,
		Precompression: 1.0,
		LimitSpring:    spring * 2,
		LimitDamp:      damp / 2,
		Type:           BeamNormal,
	}
}

// Hydro is a steering actuator beam.
type Hydro struct {
	ID1, ID2 string
	Factor   float64
	Spring   float64
	Damp     float64
	Deform   float64
	Strength float64
}

type InternalCamera struct {
	Pos    mgl64.Vec3
	Nodes  [6]string
	Spring float64
	Damp   float64
	FOV    float64
	Type   string
}

func NewInternalCamera(pos mgl64.Vec3, nodes [6]string, spring, damp float64) *InternalCamera {
	return &InternalCamera{Pos: pos, Nodes: nodes, Spring: spring, Damp: damp, FOV: 60, Type: "rorcam"}
}

type Rail struct {
	Name  string
	Nodes []string
}

// Slidenode attaches a node to a rail. Strength may be +Inf.
type Slidenode struct {
	Node      string
	Rail      string
	Spring    float64
	Strength  float64
	Tolerance float64
}

type RefNodes struct {
	Center, Back, Left string
}

// Axle couples two wheels through a differential.
type Axle struct {
	Wheel1, Wheel2 string
	Type           string
	State          string
}

type Engine struct {
	MinRPM       float64
	MaxRPM       float64
	Torque       float64
	Differential float64
	Gears        []float64
}

type Engoption struct {
	Inertia        float64
	Type           string
	ClutchForce    float64
	ShiftTime      float64
	ClutchTime     float64
	PostShiftTime  float64
	StallRPM       float64
	IdleRPM        float64
	MaxIdleMixture float64
	MinIdleMixture float64
}

// TorquePoint is one (rpm, fraction of peak torque) sample.
type TorquePoint struct {
	RPM    float64
	Factor float64
}
