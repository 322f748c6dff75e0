package parser

import (
	"fmt"
	"strings"

	"github.com/truck2jbeam/truck2jbeam/internal/rig"
)

func surfaceType(opts string) rig.SurfaceType {
	c := strings.ContainsRune(opts, 'c')
	v := strings.ContainsRune(opts, 'v')
	switch {
	case c && v:
		return rig.SurfaceBoth
	case v:
		return rig.SurfaceVisual
	default:
		return rig.SurfaceCollision
	}
}

// applySurfaceExtras reads the columns after the options token. A numeric
// first column is drag[, lift]; otherwise it is material[, lift[, drag]].
func applySurfaceExtras(s *rig.Surface, extra []string) error {
	if len(extra) == 0 || extra[0] == "" {
		return nil
	}
	var err error
	if isNumeric(extra[0]) {
		if s.DragCoef, err = parseFloat(extra[0], "drag coefficient"); err != nil {
			return err
		}
		s.LiftCoef, err = optFloat(extra, 1, 0, "lift coefficient")
		return err
	}
	s.Material = extra[0]
	if s.LiftCoef, err = optFloat(extra, 1, 0, "lift coefficient"); err != nil {
		return err
	}
	s.DragCoef, err = optFloat(extra, 2, 0, "drag coefficient")
	return err
}

// ParseTriangle builds a triangle from "n1, n2, n3[, options[, extras]]".
func ParseTriangle(tok []string) (*rig.Triangle, error) {
	if len(tok) < 3 {
		return nil, fmt.Errorf("triangle needs 3 nodes, got %d", len(tok))
	}
	opts := ""
	if len(tok) > 3 {
		opts = tok[3]
	}
	t := rig.NewTriangle(ParseNodeName(tok[0]), ParseNodeName(tok[1]), ParseNodeName(tok[2]), surfaceType(opts))
	t.Options = []rune(opts)
	if len(tok) > 4 {
		if err := applySurfaceExtras(&t.Surface, tok[4:]); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// ParseQuad builds a quad from "n1, n2, n3, n4[, options[, extras]]".
func ParseQuad(tok []string) (*rig.Quad, error) {
	if len(tok) < 4 {
		return nil, fmt.Errorf("quad needs 4 nodes, got %d", len(tok))
	}
	opts := ""
	if len(tok) > 4 {
		opts = tok[4]
	}
	q := rig.NewQuad(ParseNodeName(tok[0]), ParseNodeName(tok[1]), ParseNodeName(tok[2]), ParseNodeName(tok[3]), surfaceType(opts))
	q.Options = []rune(opts)
	if len(tok) > 5 {
		if err := applySurfaceExtras(&q.Surface, tok[5:]); err != nil {
			return nil, err
		}
	}
	return q, nil
}

// ParseSubmeshTriangle builds a legacy collision triangle from a submesh
// cab line.
func ParseSubmeshTriangle(tok []string) (rig.LegacyTriangle, error) {
	if len(tok) < 3 {
		return rig.LegacyTriangle{}, fmt.Errorf("submesh triangle needs 3 nodes, got %d", len(tok))
	}
	return rig.LegacyTriangle{ParseNodeName(tok[0]), ParseNodeName(tok[1]), ParseNodeName(tok[2])}, nil
}
