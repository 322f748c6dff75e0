package parser

// BeamDefaults are the four sticky beam quantities. The same shape holds
// the scale multipliers.
type BeamDefaults struct {
	Spring   float64
	Damp     float64
	Deform   float64
	Strength float64
}

// BuiltinBeamDefaults match the values a fresh truck file starts with.
var BuiltinBeamDefaults = BeamDefaults{
	Spring:   9000000,
	Damp:     12000,
	Deform:   400000,
	Strength: 1000000,
}

var unitScale = BeamDefaults{Spring: 1, Damp: 1, Deform: 1, Strength: 1}

// Defaults seed the sticky values at the start of every file. Negative
// values in set_*_defaults directives restore these, not the built-ins.
type Defaults struct {
	Beam           BeamDefaults
	NodeFriction   float64
	NodeLoadWeight float64
	MinimumMass    float64
	DryWeight      float64
	LoadWeight     float64
}

// BuiltinDefaults returns the defaults used when no template is applied.
func BuiltinDefaults() Defaults {
	return Defaults{
		Beam:         BuiltinBeamDefaults,
		NodeFriction: 1.0,
		MinimumMass:  50,
		DryWeight:    10000,
		LoadWeight:   10000,
	}
}

// parseContext is the state threaded through every line of one parse.
type parseContext struct {
	line    int
	section string

	beam  BeamDefaults
	scale BeamDefaults

	loadWeight float64
	friction   float64

	detachGroup int

	// anonRails numbers rails created inline by slidenodes.
	anonRails int
}

func newParseContext(d Defaults) *parseContext {
	return &parseContext{
		beam:     d.Beam,
		scale:    unitScale,
		friction: d.NodeFriction,
		// loadWeight starts at the template value; 0 means no override
		loadWeight: d.NodeLoadWeight,
	}
}

// scaledBeam returns the sticky beam values multiplied by the scales.
func (c *parseContext) scaledBeam() BeamDefaults {
	return BeamDefaults{
		Spring:   c.beam.Spring * c.scale.Spring,
		Damp:     c.beam.Damp * c.scale.Damp,
		Deform:   c.beam.Deform * c.scale.Deform,
		Strength: c.beam.Strength * c.scale.Strength,
	}
}
