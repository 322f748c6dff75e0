package geo

import (
	"github.com/go-gl/mathgl/mgl64"
	geom "github.com/peterstace/simplefeatures/geom"

	"github.com/truck2jbeam/truck2jbeam/internal/rig"
)

// Plan view
// Positions are taken as written to the jbeam file, where z is up, so the
// plan view is the X/Y plane.

// PlanPoint projects a node position onto the plan view.
func PlanPoint(p mgl64.Vec3) geom.Point {
	return geom.NewPoint(
		geom.Coordinates{
			XY:   geom.XY{X: p.X(), Y: p.Y()},
			Type: geom.DimXY,
		},
	)
}

// Outline returns the convex hull of the rig's nodes in plan view. A rig
// without nodes yields an empty geometry.
func Outline(r *rig.Rig) geom.Geometry {
	points := make([]geom.Point, 0, len(r.Nodes))
	for _, n := range r.Nodes {
		points = append(points, PlanPoint(n.Pos))
	}
	return geom.NewMultiPoint(points).AsGeometry().ConvexHull()
}

// Footprint is the plan-view area covered by the rig, in square metres.
// Fewer than three non-collinear nodes have no area.
func Footprint(r *rig.Rig) float64 {
	if len(r.Nodes) < 3 {
		return 0
	}
	return Outline(r).Area()
}
