package rig

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	r := New()
	assert.Equal(t, "Untitled Rig Class", r.Name)
	assert.Equal(t, 10000.0, r.DryWeight)
	assert.Equal(t, 10000.0, r.LoadWeight)
	assert.Equal(t, 50.0, r.MinimumMass)
	assert.Empty(t, r.Nodes)
}

func TestAddWarningAndError_LinePrefix(t *testing.T) {
	r := New()
	r.AddWarning(12, "something odd")
	r.AddWarning(0, "global")
	r.AddError(3, "broken")

	assert.Equal(t, []string{"Line 12: something odd", "global"}, r.Warnings)
	assert.Equal(t, []string{"Line 3: broken"}, r.Errors)
}

func TestNewBeam_DerivedLimits(t *testing.T) {
	b := NewBeam("a", "b", 100, 10, 5, 7)
	assert.Equal(t, 200.0, b.LimitSpring)
	assert.Equal(t, 5.0, b.LimitDamp)
	assert.Equal(t, BeamNormal, b.Type)
	assert.Equal(t, 1.0, b.ShortBound)
	assert.Equal(t, 1.0, b.LongBound)
	assert.Equal(t, 1.0, b.Precompression)
	assert.Empty(t, b.BreakGroup)
}

func TestDeriveGroupName(t *testing.T) {
	tests := []struct {
		name   string
		mesh   string
		suffix string
		want   string
	}{
		{"mesh extension", "Car-Body.mesh", "_flexbody", "car_body_flexbody"},
		{"dae extension", "wheel.dae", "_prop", "wheel_prop"},
		{"runs collapse", "a--b  c.mesh", "_flexbody", "a_b_c_flexbody"},
		{"trim underscores", "_x_.mesh", "_prop", "x_prop"},
		{"no extension", "Steering Wheel", "_prop", "steering_wheel_prop"},
		{"unicode letters kept", "Rädchen.mesh", "_flexbody", "rädchen_flexbody"},
		{"non latin", "车轮-1.mesh", "_prop", "车轮_1_prop"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveGroupName(tt.mesh, tt.suffix))
		})
	}
}

func TestGroupName_Override(t *testing.T) {
	fb := NewFlexbody("n1", "n2", "n3", mgl64.Vec3{}, mgl64.Vec3{}, "body.mesh")
	assert.Equal(t, "body_flexbody", fb.GroupName())
	fb.GroupOverride = "Custom Group"
	assert.Equal(t, "Custom Group", fb.GroupName())

	p := NewProp("n1", "n2", "n3", mgl64.Vec3{}, mgl64.Vec3{}, "dash.mesh")
	assert.Equal(t, "dash_prop", p.GroupName())
	assert.Equal(t, AnimationRotation, p.AnimationMode)
	assert.Equal(t, mgl64.Vec3{0, 0, 1}, p.AnimationAxis)
}

func TestFlexbodyNodes_Deduplicated(t *testing.T) {
	fb := NewFlexbody("n1", "n2", "n3", mgl64.Vec3{}, mgl64.Vec3{}, "body.mesh")
	fb.AddForsetNode("n2")
	fb.AddForsetNode("n4")
	fb.AddForsetNode("n4")

	assert.Equal(t, []string{"n2", "n4"}, fb.ForsetNodes)
	assert.Equal(t, []string{"n1", "n2", "n3", "n4"}, fb.Nodes())
}

func TestSurfaceFlags(t *testing.T) {
	tri := NewTriangle("a", "b", "c", SurfaceCollision)
	assert.True(t, tri.IsCollision())
	assert.False(t, tri.IsVisual())

	tri = NewTriangle("a", "b", "c", SurfaceVisual)
	assert.False(t, tri.IsCollision())
	assert.True(t, tri.IsVisual())

	tri.Options = []rune{'c'}
	assert.True(t, tri.IsCollision())

	both := NewTriangle("a", "b", "c", SurfaceBoth)
	assert.True(t, both.IsCollision())
	assert.True(t, both.IsVisual())
}

func TestQuadTriangles(t *testing.T) {
	q := NewQuad("1", "2", "3", "4", SurfaceBoth)
	q.Material = "metal"
	q.DragCoef = 0.3
	q.Options = []rune{'c', 'v'}

	t1, t2 := q.Triangles()
	assert.Equal(t, [3]string{"1", "2", "3"}, t1.Nodes)
	assert.Equal(t, [3]string{"1", "3", "4"}, t2.Nodes)
	for _, tri := range []*Triangle{t1, t2} {
		assert.Equal(t, "metal", tri.Material)
		assert.Equal(t, 0.3, tri.DragCoef)
		assert.Equal(t, SurfaceBoth, tri.Type)
	}

	t1.Options[0] = 'x'
	assert.Equal(t, 'c', q.Options[0], "halves must not share the options slice")
}

func TestAllTriangles_Order(t *testing.T) {
	r := New()
	r.Triangles = append(r.Triangles, NewTriangle("a", "b", "c", SurfaceCollision))
	r.LegacyTriangles = append(r.LegacyTriangles, LegacyTriangle{"d", "e", "f"})
	r.Quads = append(r.Quads, NewQuad("1", "2", "3", "4", SurfaceVisual))

	all := r.AllTriangles()
	require.Len(t, all, 4)
	assert.Equal(t, [3]string{"a", "b", "c"}, all[0].Nodes)
	assert.Equal(t, [3]string{"d", "e", "f"}, all[1].Nodes)
	assert.True(t, all[1].IsCollision())
	assert.Equal(t, [3]string{"1", "2", "3"}, all[2].Nodes)
	assert.Equal(t, [3]string{"1", "3", "4"}, all[3].Nodes)
}

func TestStatistics(t *testing.T) {
	r := New()
	r.Nodes = []*Node{NewNode("a", 0, 0, 0), NewNode("b", 3, 4, 0), NewNode("c", 0, 0, 2)}
	r.Beams = []*Beam{
		NewBeam("a", "b", 1, 1, 1, 1),
		NewBeam("a", "c", 1, 1, 1, 1),
		NewBeam("a", "missing", 1, 1, 1, 1),
	}
	r.Wheels = []Wheel{&SimpleWheel{}, &AdvancedWheel{}}
	r.AddWarning(1, "w")

	s := r.Statistics()
	assert.Equal(t, 3, s.Nodes)
	assert.Equal(t, 3, s.Beams)
	assert.Equal(t, 2, s.Wheels)
	assert.Equal(t, 1, s.Warnings)
	assert.False(t, s.HasEngine)
	assert.InDelta(t, 7.0, s.TotalBeamLength, 1e-9)
}

func TestNodeIndex_FirstWins(t *testing.T) {
	r := New()
	r.Nodes = []*Node{NewNode("a", 0, 0, 0), NewNode("b", 1, 0, 0), NewNode("a", 2, 0, 0)}
	idx := r.NodeIndex()
	assert.Equal(t, 0, idx["a"])
	assert.Equal(t, 1, idx["b"])

	n, ok := r.Node("a")
	require.True(t, ok)
	assert.Equal(t, 0.0, n.Pos.X())
}

func TestWheelBase(t *testing.T) {
	var w Wheel = &AdvancedWheel{WheelBase: WheelBase{Node1: "n1", NumRays: 12}}
	assert.Equal(t, "n1", w.Base().Node1)
	assert.Equal(t, 12, w.Base().NumRays)
}
