package parser

import (
	"fmt"
	"math"
	"strings"

	"github.com/truck2jbeam/truck2jbeam/internal/rig"
)

// ParseNode builds a node from "id, x, y, z[, options[, loadweight]]".
// Option "l" marks a load bearer whose optional sixth column overrides
// its load share; "h" marks a coupler.
func ParseNode(tok []string) (*rig.Node, error) {
	if len(tok) < 4 {
		return nil, fmt.Errorf("node needs 4 values, got %d", len(tok))
	}
	x, err := parseFloat(tok[1], "node x")
	if err != nil {
		return nil, err
	}
	y, err := parseFloat(tok[2], "node y")
	if err != nil {
		return nil, err
	}
	z, err := parseFloat(tok[3], "node z")
	if err != nil {
		return nil, err
	}
	n := rig.NewNode(ParseNodeName(tok[0]), x, y, z)

	if len(tok) > 4 {
		opts := tok[4]
		if strings.ContainsRune(opts, 'l') {
			n.LoadBearer = true
			if len(tok) > 5 && tok[5] != "" {
				w, err := parseFloat(tok[5], "node load weight")
				if err != nil {
					return nil, err
				}
				n.OverrideMass = w
			}
		}
		if strings.ContainsRune(opts, 'h') {
			n.Coupler = true
		}
	}
	return n, nil
}

// ParseBeam builds a beam from "id1, id2[, options[, extension]]" using
// already scaled defaults. Option "s" makes a support beam, "r" a rope.
func ParseBeam(tok []string, d BeamDefaults) (*rig.Beam, error) {
	if len(tok) < 2 {
		return nil, fmt.Errorf("beam needs 2 nodes, got %d", len(tok))
	}
	b := rig.NewBeam(ParseNodeName(tok[0]), ParseNodeName(tok[1]), d.Spring, d.Damp, d.Deform, d.Strength)

	if len(tok) > 2 {
		opts := tok[2]
		switch {
		case strings.ContainsRune(opts, 's'):
			b.Type = rig.BeamSupport
			if len(tok) > 3 && tok[3] != "" {
				ext, err := parseFloat(tok[3], "support extension")
				if err != nil {
					return nil, err
				}
				b.LongBound = ext
			}
		case strings.ContainsRune(opts, 'r'):
			b.Type = rig.BeamBounded
			b.ShortBound = 1
			b.LongBound = 0
		}
	}
	return b, nil
}

// SetBeamBreakGroup tags b with the current detacher group. Group 0 means
// no break group.
func SetBeamBreakGroup(b *rig.Beam, group int) {
	if group != 0 {
		b.BreakGroup = fmt.Sprintf("group_%d", group)
	}
}

// ParseHydro builds a steering hydro from "id1, id2, factor".
func ParseHydro(tok []string, d BeamDefaults) (*rig.Hydro, error) {
	if len(tok) < 3 {
		return nil, fmt.Errorf("hydro needs 3 values, got %d", len(tok))
	}
	factor, err := parseFloat(tok[2], "hydro factor")
	if err != nil {
		return nil, err
	}
	return &rig.Hydro{
		ID1:      ParseNodeName(tok[0]),
		ID2:      ParseNodeName(tok[1]),
		Factor:   factor,
		Spring:   d.Spring,
		Damp:     d.Damp,
		Deform:   d.Deform,
		Strength: d.Strength,
	}, nil
}

// ParseRailgroup builds a rail from "name, node, node...".
func ParseRailgroup(tok []string) *rig.Rail {
	r := &rig.Rail{Name: tok[0]}
	for _, t := range tok[1:] {
		if t != "" {
			r.Nodes = append(r.Nodes, ParseNodeName(t))
		}
	}
	return r
}

const (
	defaultSlideSpring = 9000000
)

// ParseSlidenode builds a slidenode from "node, rail nodes or options...".
// Options are s<spring>, b<break force>, t<tolerance> and r<railgroup>.
// Any listed rail nodes are returned so the caller can create an
// anonymous rail for them.
func ParseSlidenode(tok []string) (*rig.Slidenode, []string, error) {
	s := &rig.Slidenode{
		Node:     ParseNodeName(tok[0]),
		Spring:   defaultSlideSpring,
		Strength: math.Inf(1),
	}
	var railNodes []string
	for _, t := range tok[1:] {
		if t == "" {
			continue
		}
		if opt, val, ok := slideOption(t); ok {
			switch opt {
			case 's':
				v, err := parseFloat(val, "slidenode spring")
				if err != nil {
					return nil, nil, err
				}
				s.Spring = v
			case 'b':
				v, err := parseFloat(val, "slidenode break force")
				if err != nil {
					return nil, nil, err
				}
				s.Strength = v
			case 't':
				v, err := parseFloat(val, "slidenode tolerance")
				if err != nil {
					return nil, nil, err
				}
				s.Tolerance = v
			case 'r':
				s.Rail = val
			}
			continue
		}
		railNodes = append(railNodes, ParseNodeName(t))
	}
	return s, railNodes, nil
}

func slideOption(t string) (byte, string, bool) {
	if len(t) < 2 {
		return 0, "", false
	}
	switch t[0] {
	case 's', 'b', 't', 'r':
		if isNumeric(t[1:]) {
			return t[0], t[1:], true
		}
	}
	return 0, "", false
}
