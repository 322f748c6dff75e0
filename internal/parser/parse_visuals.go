package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/truck2jbeam/truck2jbeam/internal/rig"
)

// visualColumns reads the shared placement columns of flexbody and prop
// lines. Offsets and rotations are stored in source axes: columns 3..5
// hold Y, Z, X and columns 6..8 hold rotations Y, Z, X.
func visualColumns(tok []string) (offset, rotation, scale mgl64.Vec3, err error) {
	var v [6]float64
	names := [6]string{"offset y", "offset z", "offset x", "rotation y", "rotation z", "rotation x"}
	for i := range v {
		if v[i], err = parseFloat(tok[3+i], names[i]); err != nil {
			return
		}
	}
	offset = mgl64.Vec3{v[2], v[0], v[1]}
	rotation = mgl64.Vec3{v[5], v[3], v[4]}

	for i := range 3 {
		if scale[i], err = optFloat(tok, 10+i, 1, "scale"); err != nil {
			return
		}
	}
	return
}

// ParseFlexbody builds a flexbody from
// "ref, x, y, offY, offZ, offX, rotY, rotZ, rotX, mesh[, sx, sy, sz]".
func ParseFlexbody(tok []string) (*rig.Flexbody, error) {
	if len(tok) < 10 {
		return nil, fmt.Errorf("flexbody needs 10 values, got %d", len(tok))
	}
	offset, rotation, scale, err := visualColumns(tok)
	if err != nil {
		return nil, err
	}
	fb := rig.NewFlexbody(ParseNodeName(tok[0]), ParseNodeName(tok[1]), ParseNodeName(tok[2]), offset, rotation, tok[9])
	fb.Scale = scale
	return fb, nil
}

// ParseProp builds a prop; columns 13 and 14 carry the animation factor
// and mode.
func ParseProp(tok []string) (*rig.Prop, error) {
	if len(tok) < 10 {
		return nil, fmt.Errorf("prop needs 10 values, got %d", len(tok))
	}
	offset, rotation, scale, err := visualColumns(tok)
	if err != nil {
		return nil, err
	}
	p := rig.NewProp(ParseNodeName(tok[0]), ParseNodeName(tok[1]), ParseNodeName(tok[2]), offset, rotation, tok[9])
	p.Scale = scale
	if p.AnimationFactor, err = optFloat(tok, 13, 0, "animation factor"); err != nil {
		return nil, err
	}
	if len(tok) > 14 && tok[14] != "" {
		p.AnimationMode = tok[14]
	}
	return p, nil
}

// forsetRange is an inclusive range of node indices.
type forsetRange struct {
	from, to int
}

// ParseForset reads "a-b" and "a" items.
func ParseForset(items []string) ([]forsetRange, error) {
	var out []forsetRange
	for _, item := range items {
		if item == "" {
			continue
		}
		from, to, isRange := strings.Cut(item, "-")
		a, err := strconv.Atoi(strings.TrimSpace(from))
		if err != nil {
			return nil, fmt.Errorf("error converting forset index: %w", err)
		}
		b := a
		if isRange {
			if b, err = strconv.Atoi(strings.TrimSpace(to)); err != nil {
				return nil, fmt.Errorf("error converting forset index: %w", err)
			}
		}
		if a < 0 || b < 0 {
			return nil, fmt.Errorf("negative forset index in %q", item)
		}
		out = append(out, forsetRange{from: a, to: b})
	}
	return out, nil
}

// applyForset resolves node indices against the node list and appends
// their ids to the most recent flexbody.
func applyForset(rg *rig.Rig, ctx *parseContext, items []string) error {
	ranges, err := ParseForset(items)
	if err != nil {
		return err
	}
	fb := rg.Flexbodies[len(rg.Flexbodies)-1]
	for _, r := range ranges {
		for i := r.from; i <= r.to; i++ {
			if i >= len(rg.Nodes) {
				rg.AddWarning(ctx.line, fmt.Sprintf("forset references invalid node index %d", i))
				break
			}
			fb.AddForsetNode(rg.Nodes[i].ID)
		}
	}
	return nil
}
