// Package validate checks a parsed rig for structural and semantic
// problems. Findings are appended to the rig's warning and error lists;
// nothing else is modified.
package validate

import (
	"fmt"
	"math"
	"strings"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/truck2jbeam/truck2jbeam/internal/rig"
)

// Rig runs every check and reports whether the rig is usable. Only a rig
// without nodes or without beams is invalid; everything else is a warning.
func Rig(r *rig.Rig) bool {
	valid := true

	if len(r.Nodes) == 0 {
		r.AddError(0, "No nodes found - vehicle needs nodes to function")
		valid = false
	}
	if len(r.Beams) == 0 {
		r.AddError(0, "No beams found - vehicle needs beams for structure")
		valid = false
	}

	known := make(map[string]struct{}, len(r.Nodes))
	for _, n := range r.Nodes {
		known[n.ID] = struct{}{}
	}

	for _, b := range r.Beams {
		for _, id := range []string{b.ID1, b.ID2} {
			if _, ok := known[id]; !ok {
				r.AddWarning(0, "Beam references non-existent node: "+id)
			}
		}
	}

	checkPositions(r)

	if r.DryWeight <= 0 {
		r.AddWarning(0, fmt.Sprintf("Dry weight is %v, should be positive", r.DryWeight))
	}
	if r.LoadWeight <= 0 {
		r.AddWarning(0, fmt.Sprintf("Load weight is %v, should be positive", r.LoadWeight))
	}

	if r.Engine != nil && len(r.TorqueCurve) == 0 {
		r.AddWarning(0, "Engine defined but no torque curve found")
	}

	checkSurfaces(r, known)
	checkVisuals(r, known)

	return valid
}

type posKey [3]float64

func roundedKey(p mgl64.Vec3) posKey {
	var k posKey
	for i := range k {
		k[i] = math.Round(p[i]*1000) / 1000
	}
	return k
}

// checkPositions warns for every node sharing a rounded position with an
// earlier node.
func checkPositions(r *rig.Rig) {
	first := make(map[posKey]string, len(r.Nodes))
	for _, n := range r.Nodes {
		k := roundedKey(n.Pos)
		if prev, ok := first[k]; ok {
			r.AddWarning(0, fmt.Sprintf("Nodes %s and %s have identical positions", n.ID, prev))
			continue
		}
		first[k] = n.ID
	}
}

func checkSurfaces(r *rig.Rig, known map[string]struct{}) {
	for i, t := range r.Triangles {
		for _, id := range t.Nodes {
			if _, ok := known[id]; !ok {
				r.AddWarning(0, fmt.Sprintf("Triangle %d references non-existent node: %s", i, id))
			}
		}
	}
	for i, q := range r.Quads {
		for _, id := range q.Nodes {
			if _, ok := known[id]; !ok {
				r.AddWarning(0, fmt.Sprintf("Quad %d references non-existent node: %s", i, id))
			}
		}
	}
	for i, lt := range r.LegacyTriangles {
		for _, id := range lt {
			if _, ok := known[id]; !ok {
				r.AddWarning(0, fmt.Sprintf("Legacy submesh triangle %d references non-existent node: %s", i, id))
			}
		}
	}
}

func hasMeshExt(mesh string) bool {
	return strings.HasSuffix(mesh, ".mesh") || strings.HasSuffix(mesh, ".dae")
}

func checkScale(r *rig.Rig, kind string, i int, scale mgl64.Vec3) {
	for _, s := range scale {
		switch {
		case s <= 0:
			r.AddWarning(0, fmt.Sprintf("%s %d has invalid scale value: %v", kind, i, s))
		case s > 10:
			r.AddWarning(0, fmt.Sprintf("%s %d has very large scale value: %v", kind, i, s))
		}
	}
}

func checkVisuals(r *rig.Rig, known map[string]struct{}) {
	for i, fb := range r.Flexbodies {
		for _, id := range fb.Nodes() {
			if _, ok := known[id]; !ok {
				r.AddWarning(0, fmt.Sprintf("Flexbody %d (%s) references non-existent node: %s", i, fb.Mesh, id))
			}
		}
		if !hasMeshExt(fb.Mesh) {
			r.AddWarning(0, fmt.Sprintf("Flexbody %d has unusual mesh format: %s", i, fb.Mesh))
		}
		checkScale(r, "Flexbody", i, fb.Scale)
	}

	for i, p := range r.Props {
		for _, id := range p.Nodes() {
			if _, ok := known[id]; !ok {
				r.AddWarning(0, fmt.Sprintf("Prop %d (%s) references non-existent node: %s", i, p.Mesh, id))
			}
		}
		if !hasMeshExt(p.Mesh) {
			r.AddWarning(0, fmt.Sprintf("Prop %d has unusual mesh format: %s", i, p.Mesh))
		}
		checkScale(r, "Prop", i, p.Scale)

		if p.AnimationFactor != 0 {
			switch p.AnimationMode {
			case rig.AnimationRotation, rig.AnimationTranslation, rig.AnimationNone:
			default:
				r.AddWarning(0, fmt.Sprintf("Prop %d has invalid animation mode: %s", i, p.AnimationMode))
			}
		}
	}
}
