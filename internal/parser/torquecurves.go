package parser

import (
	"slices"

	"github.com/truck2jbeam/truck2jbeam/internal/rig"
)

// DefaultTorqueCurve is used when an engine is defined without a curve.
const DefaultTorqueCurve = "default"

var torqueCurves = map[string][]rig.TorquePoint{
	"default": {
		{0, 0}, {500, 0.62}, {1000, 0.82}, {1500, 0.95}, {2000, 1.0},
		{2500, 0.99}, {3000, 0.95}, {3500, 0.88}, {4000, 0.8}, {4500, 0.7}, {5000, 0.6},
	},
	"diesel": {
		{0, 0}, {500, 0.7}, {1000, 0.95}, {1400, 1.0}, {1800, 0.97},
		{2200, 0.88}, {2600, 0.75}, {3000, 0.6},
	},
	"turbodiesel": {
		{0, 0}, {500, 0.45}, {1000, 0.8}, {1500, 1.0}, {2000, 1.0},
		{2500, 0.92}, {3000, 0.8}, {3500, 0.65},
	},
	"gasoline": {
		{0, 0}, {1000, 0.6}, {2000, 0.8}, {3000, 0.93}, {4000, 1.0},
		{5000, 0.97}, {6000, 0.88}, {7000, 0.75},
	},
	"electric": {
		{0, 1.0}, {2000, 1.0}, {4000, 0.9}, {6000, 0.7}, {8000, 0.55}, {10000, 0.45},
	},
}

// TorqueCurve returns a copy of the named predefined curve, or nil.
func TorqueCurve(name string) []rig.TorquePoint {
	c, ok := torqueCurves[name]
	if !ok {
		return nil
	}
	return slices.Clone(c)
}
