package parser

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/truck2jbeam/truck2jbeam/internal/rig"
)

const (
	defaultCinecamSpring = 8000
	defaultCinecamDamp   = 800
)

// ParseCinecam builds an internal camera from
// "x, y, z, n1..n8[, spring[, damp]]". Only the first six nodes are kept.
func ParseCinecam(tok []string) (*rig.InternalCamera, error) {
	if len(tok) < 11 {
		return nil, fmt.Errorf("cinecam needs 11 values, got %d", len(tok))
	}
	var pos mgl64.Vec3
	for i, axis := range []string{"x", "y", "z"} {
		v, err := parseFloat(tok[i], "cinecam "+axis)
		if err != nil {
			return nil, err
		}
		pos[i] = v
	}
	var nodes [6]string
	for i := range nodes {
		nodes[i] = ParseNodeName(tok[3+i])
	}
	spring, err := optFloat(tok, 11, defaultCinecamSpring, "cinecam spring")
	if err != nil {
		return nil, err
	}
	damp, err := optFloat(tok, 12, defaultCinecamDamp, "cinecam damp")
	if err != nil {
		return nil, err
	}
	return rig.NewInternalCamera(pos, nodes, spring, damp), nil
}

// ParseEngine reads "shiftdown, shiftup, torque, differential, reverse,
// neutral, forward..., -1". Gears are stored as [-reverse, neutral, forward...].
func ParseEngine(tok []string) (*rig.Engine, error) {
	if len(tok) < 6 {
		return nil, fmt.Errorf("engine needs 6 values, got %d", len(tok))
	}
	var head [6]float64
	names := [6]string{"shift down rpm", "shift up rpm", "torque", "differential", "reverse gear", "neutral gear"}
	for i := range head {
		v, err := parseFloat(tok[i], names[i])
		if err != nil {
			return nil, err
		}
		head[i] = v
	}
	e := &rig.Engine{
		MinRPM:       head[0],
		MaxRPM:       head[1],
		Torque:       head[2],
		Differential: head[3],
		Gears:        []float64{-head[4], head[5]},
	}
	for _, t := range tok[6:] {
		if t == "" {
			continue
		}
		g, err := parseFloat(t, "forward gear")
		if err != nil {
			return nil, err
		}
		if g < 0 {
			break
		}
		e.Gears = append(e.Gears, g)
	}
	return e, nil
}

// ParseEngoption reads the engine options line; missing columns take the
// simulator defaults.
func ParseEngoption(tok []string) (*rig.Engoption, error) {
	e := &rig.Engoption{
		Inertia:        10,
		Type:           "t",
		ClutchForce:    10000,
		ShiftTime:      0.5,
		ClutchTime:     0.2,
		PostShiftTime:  0.5,
		StallRPM:       300,
		IdleRPM:        800,
		MaxIdleMixture: 0.2,
		MinIdleMixture: 0,
	}
	fields := []struct {
		idx  int
		dst  *float64
		what string
	}{
		{0, &e.Inertia, "inertia"},
		{2, &e.ClutchForce, "clutch force"},
		{3, &e.ShiftTime, "shift time"},
		{4, &e.ClutchTime, "clutch time"},
		{5, &e.PostShiftTime, "post shift time"},
		{6, &e.StallRPM, "stall rpm"},
		{7, &e.IdleRPM, "idle rpm"},
		{8, &e.MaxIdleMixture, "max idle mixture"},
		{9, &e.MinIdleMixture, "min idle mixture"},
	}
	for _, f := range fields {
		v, err := optFloat(tok, f.idx, *f.dst, f.what)
		if err != nil {
			return nil, err
		}
		*f.dst = v
	}
	if len(tok) > 1 && tok[1] != "" {
		e.Type = tok[1]
	}
	return e, nil
}

var (
	axleWheelRe = regexp.MustCompile(`w([12])\(\s*(\S+)\s+(\S+)\s*\)`)
	axleDiffRe  = regexp.MustCompile(`d\(\s*([a-z]+)\s*\)`)

	errUnknownWheel = errors.New("axle references unknown wheel")
)

// wheelName returns the emitted name of the wheel joining n1 and n2.
func wheelName(wheels []rig.Wheel, n1, n2 string) (string, bool) {
	for i, w := range wheels {
		b := w.Base()
		if (b.Node1 == n1 && b.Node2 == n2) || (b.Node1 == n2 && b.Node2 == n1) {
			return fmt.Sprintf("rorwheel%d", i), true
		}
	}
	return "", false
}

// ParseAxle reads "w1(n1 n2), w2(n3 n4), d(o|l|s)" and resolves both
// wheels by their node pair.
func ParseAxle(tok []string, wheels []rig.Wheel) (*rig.Axle, error) {
	line := strings.Join(tok, " ")
	matches := axleWheelRe.FindAllStringSubmatch(line, -1)
	if len(matches) < 2 {
		return nil, fmt.Errorf("axle needs two wheels: %q", line)
	}

	a := &rig.Axle{Type: "open", State: "open"}
	for _, m := range matches[:2] {
		n1, n2 := ParseNodeName(m[2]), ParseNodeName(m[3])
		name, ok := wheelName(wheels, n1, n2)
		if !ok {
			return nil, fmt.Errorf("%w: %s %s", errUnknownWheel, n1, n2)
		}
		if m[1] == "1" {
			a.Wheel1 = name
		} else {
			a.Wheel2 = name
		}
	}

	if d := axleDiffRe.FindStringSubmatch(line); d != nil {
		switch d[1][0] {
		case 'l':
			a.Type, a.State = "locked", "closed"
		case 's':
			a.Type = "viscous"
		}
	}
	return a, nil
}
