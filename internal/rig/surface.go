package rig

import (
	"slices"
)

type SurfaceType string

const (
	SurfaceCollision SurfaceType = "collision"
	SurfaceVisual    SurfaceType = "visual"
	SurfaceBoth      SurfaceType = "both"
)

const DefaultMaterial = "default"

// Surface carries the attributes shared by triangles and quads.
type Surface struct {
	Type     SurfaceType
	Material string
	DragCoef float64
	LiftCoef float64
	Options  []rune
}

func newSurface(t SurfaceType) Surface {
	return Surface{Type: t, Material: DefaultMaterial}
}

// IsCollision reports whether the surface takes part in collision.
func (s *Surface) IsCollision() bool {
	return s.Type == SurfaceCollision || s.Type == SurfaceBoth || slices.Contains(s.Options, 'c')
}

// IsVisual reports whether the surface is rendered.
func (s *Surface) IsVisual() bool {
	return s.Type == SurfaceVisual || s.Type == SurfaceBoth || slices.Contains(s.Options, 'v')
}

func (s Surface) clone() Surface {
	s.Options = slices.Clone(s.Options)
	return s
}

type Triangle struct {
	Surface
	Nodes [3]string
}

func NewTriangle(n1, n2, n3 string, t SurfaceType) *Triangle {
	return &Triangle{Surface: newSurface(t), Nodes: [3]string{n1, n2, n3}}
}

type Quad struct {
	Surface
	Nodes [4]string
}

func NewQuad(n1, n2, n3, n4 string, t SurfaceType) *Quad {
	return &Quad{Surface: newSurface(t), Nodes: [4]string{n1, n2, n3, n4}}
}

// Triangles splits the quad into (1,2,3) and (1,3,4). Both halves inherit
// the quad's surface attributes.
func (q *Quad) Triangles() (*Triangle, *Triangle) {
	t1 := &Triangle{Surface: q.Surface.clone(), Nodes: [3]string{q.Nodes[0], q.Nodes[1], q.Nodes[2]}}
	t2 := &Triangle{Surface: q.Surface.clone(), Nodes: [3]string{q.Nodes[0], q.Nodes[2], q.Nodes[3]}}
	return t1, t2
}

// LegacyTriangle is a collision triangle from a submesh cab line.
type LegacyTriangle [3]string

func (lt LegacyTriangle) Triangle() *Triangle {
	return NewTriangle(lt[0], lt[1], lt[2], SurfaceCollision)
}
