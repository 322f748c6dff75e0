package validate

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"

	"github.com/truck2jbeam/truck2jbeam/internal/rig"
)

func minimalRig() *rig.Rig {
	r := rig.New()
	r.Nodes = []*rig.Node{rig.NewNode("n1", 0, 0, 0), rig.NewNode("n2", 1, 0, 0), rig.NewNode("n3", 0, 1, 0)}
	r.Beams = []*rig.Beam{rig.NewBeam("n1", "n2", 1, 1, 1, 1)}
	return r
}

func TestRig_Valid(t *testing.T) {
	r := minimalRig()
	assert.True(t, Rig(r))
	assert.Empty(t, r.Errors)
	assert.Empty(t, r.Warnings)
}

func TestRig_NoNodesNoBeams(t *testing.T) {
	r := rig.New()
	assert.False(t, Rig(r))
	assert.Equal(t, []string{
		"No nodes found - vehicle needs nodes to function",
		"No beams found - vehicle needs beams for structure",
	}, r.Errors)
}

func TestRig_DanglingBeamOneWarningPerEndpoint(t *testing.T) {
	r := minimalRig()
	r.Beams = append(r.Beams, rig.NewBeam("n1", "ghost", 1, 1, 1, 1), rig.NewBeam("gone", "lost", 1, 1, 1, 1))

	assert.True(t, Rig(r))
	assert.Equal(t, []string{
		"Beam references non-existent node: ghost",
		"Beam references non-existent node: gone",
		"Beam references non-existent node: lost",
	}, r.Warnings)
}

func TestRig_DuplicatePositions(t *testing.T) {
	r := minimalRig()
	r.Nodes = append(r.Nodes, rig.NewNode("n4", 1.0004, 0, 0))

	Rig(r)
	assert.Equal(t, []string{"Nodes n4 and n2 have identical positions"}, r.Warnings)
}

func TestRig_WeightsAndEngine(t *testing.T) {
	r := minimalRig()
	r.DryWeight = -5
	r.LoadWeight = 0
	r.Engine = &rig.Engine{}

	Rig(r)
	assert.Equal(t, []string{
		"Dry weight is -5, should be positive",
		"Load weight is 0, should be positive",
		"Engine defined but no torque curve found",
	}, r.Warnings)
}

func TestRig_Surfaces(t *testing.T) {
	r := minimalRig()
	r.Triangles = []*rig.Triangle{rig.NewTriangle("n1", "n2", "x1", rig.SurfaceCollision)}
	r.Quads = []*rig.Quad{rig.NewQuad("n1", "n2", "n3", "x2", rig.SurfaceCollision)}
	r.LegacyTriangles = []rig.LegacyTriangle{{"x3", "n2", "n3"}}

	Rig(r)
	assert.Equal(t, []string{
		"Triangle 0 references non-existent node: x1",
		"Quad 0 references non-existent node: x2",
		"Legacy submesh triangle 0 references non-existent node: x3",
	}, r.Warnings)
}

func TestRig_Flexbody(t *testing.T) {
	r := minimalRig()
	fb := rig.NewFlexbody("n1", "n2", "missing", mgl64.Vec3{}, mgl64.Vec3{}, "body.obj")
	fb.Scale = mgl64.Vec3{-1, 1, 11}
	r.Flexbodies = []*rig.Flexbody{fb}

	Rig(r)
	assert.Equal(t, []string{
		"Flexbody 0 (body.obj) references non-existent node: missing",
		"Flexbody 0 has unusual mesh format: body.obj",
		"Flexbody 0 has invalid scale value: -1",
		"Flexbody 0 has very large scale value: 11",
	}, r.Warnings)
}

func TestRig_PropAnimationMode(t *testing.T) {
	r := minimalRig()
	p := rig.NewProp("n1", "n2", "n3", mgl64.Vec3{}, mgl64.Vec3{}, "dash.mesh")
	p.Scale = mgl64.Vec3{0, 1, 1}
	p.AnimationFactor = 1
	p.AnimationMode = "invalid_mode"

	still := rig.NewProp("n1", "n2", "n3", mgl64.Vec3{}, mgl64.Vec3{}, "gauge.dae")
	still.AnimationMode = "whatever"
	r.Props = []*rig.Prop{p, still}

	Rig(r)
	assert.Equal(t, []string{
		"Prop 0 has invalid scale value: 0",
		"Prop 0 has invalid animation mode: invalid_mode",
	}, r.Warnings)
}

func TestRig_DoesNotTouchModel(t *testing.T) {
	r := minimalRig()
	before := r.Nodes[0].Mass
	Rig(r)
	assert.Equal(t, before, r.Nodes[0].Mass)
	assert.Empty(t, r.Nodes[0].Groups)
}
