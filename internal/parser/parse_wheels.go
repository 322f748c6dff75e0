package parser

import (
	"fmt"

	"github.com/truck2jbeam/truck2jbeam/internal/rig"
)

// wheelBase reads the node, brake and drive columns starting at offset.
// Layout from offset: numrays, node1, node2, snode, braked, propulsed, arm, mass.
func wheelBase(tok []string, width float64, offset int) (rig.WheelBase, error) {
	rays, err := parseIntFromFloat(tok[offset], "ray count")
	if err != nil {
		return rig.WheelBase{}, err
	}
	braked, err := parseIntFromFloat(tok[offset+4], "brake type")
	if err != nil {
		return rig.WheelBase{}, err
	}
	drive, err := parseIntFromFloat(tok[offset+5], "drive type")
	if err != nil {
		return rig.WheelBase{}, err
	}
	mass, err := parseFloat(tok[offset+7], "wheel mass")
	if err != nil {
		return rig.WheelBase{}, err
	}
	if rays <= 0 {
		return rig.WheelBase{}, fmt.Errorf("wheel ray count must be positive, got %d", rays)
	}
	return rig.WheelBase{
		NumRays:   rays,
		Node1:     ParseNodeName(tok[offset+1]),
		Node2:     ParseNodeName(tok[offset+2]),
		SNode:     ParseNodeName(tok[offset+3]),
		BrakeType: braked,
		DriveType: drive,
		ArmNode:   ParseNodeName(tok[offset+6]),
		Mass:      mass,
		Width:     width,
	}, nil
}

// ParseSimpleWheel reads a "wheels" line: radius, width, numrays, node1,
// node2, snode, braked, propulsed, arm, mass, spring, damp.
func ParseSimpleWheel(tok []string) (*rig.SimpleWheel, error) {
	if len(tok) < 12 {
		return nil, fmt.Errorf("wheel needs 12 values, got %d", len(tok))
	}
	radius, err := parseFloat(tok[0], "wheel radius")
	if err != nil {
		return nil, err
	}
	width, err := parseFloat(tok[1], "wheel width")
	if err != nil {
		return nil, err
	}
	base, err := wheelBase(tok, width, 2)
	if err != nil {
		return nil, err
	}
	spring, err := parseFloat(tok[10], "wheel spring")
	if err != nil {
		return nil, err
	}
	damp, err := parseFloat(tok[11], "wheel damp")
	if err != nil {
		return nil, err
	}
	return &rig.SimpleWheel{WheelBase: base, Radius: radius, Spring: spring, Damp: damp}, nil
}

// ParseAdvancedWheel reads "wheels2" and "flexbodywheels" lines: tire
// radius, hub radius, width, numrays, node1, node2, snode, braked,
// propulsed, arm, mass, then four spring/damp columns. wheels2 lists the
// rim pair first; flexbodywheels lists the tire pair first.
func ParseAdvancedWheel(tok []string, tireFirst bool) (*rig.AdvancedWheel, error) {
	if len(tok) < 15 {
		return nil, fmt.Errorf("wheel needs 15 values, got %d", len(tok))
	}
	var head [3]float64
	names := [3]string{"tire radius", "hub radius", "wheel width"}
	for i := range head {
		v, err := parseFloat(tok[i], names[i])
		if err != nil {
			return nil, err
		}
		head[i] = v
	}
	base, err := wheelBase(tok, head[2], 3)
	if err != nil {
		return nil, err
	}
	var tail [4]float64
	for i := range tail {
		v, err := parseFloat(tok[11+i], "wheel spring/damp")
		if err != nil {
			return nil, err
		}
		tail[i] = v
	}
	w := &rig.AdvancedWheel{WheelBase: base, TireRadius: head[0], HubRadius: head[1]}
	if tireFirst {
		w.TireSpring, w.TireDamp, w.HubSpring, w.HubDamp = tail[0], tail[1], tail[2], tail[3]
	} else {
		w.HubSpring, w.HubDamp, w.TireSpring, w.TireDamp = tail[0], tail[1], tail[2], tail[3]
	}
	return w, nil
}
