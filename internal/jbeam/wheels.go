package jbeam

import (
	"fmt"

	"github.com/truck2jbeam/truck2jbeam/internal/rig"
)

const (
	kindSimple   = "wheels"
	kindAdvanced = "wheels.advanced"
)

// wheelState carries the delta-encoded pressureWheels properties.
type wheelState struct {
	kind                  *delta[string]
	propulsed             int
	width                 *delta[float64]
	rays                  *delta[int]
	mass                  *delta[float64]
	spring, damp          *delta[float64]
	tireSpring, tireDamp  *delta[float64]
	hubRadius, tireRadius *delta[float64]
	wroteAdvancedDefaults bool
}

func newWheelState() *wheelState {
	return &wheelState{
		kind:       newDelta("NONE"),
		width:      newDelta(-1.0),
		rays:       newDelta(-1),
		mass:       newDelta(0.0),
		spring:     newDelta(-1.0),
		damp:       newDelta(-1.0),
		tireSpring: newDelta(-1.0),
		tireDamp:   newDelta(-1.0),
		hubRadius:  newDelta(-1.0),
		tireRadius: newDelta(-1.0),
	}
}

func wheelKind(wh rig.Wheel) string {
	switch wh.(type) {
	case *rig.AdvancedWheel:
		return kindAdvanced
	default:
		return kindSimple
	}
}

// wheelName is the name differentials refer to; the parser derives axle
// wheel names the same way.
func wheelName(i int) string {
	return fmt.Sprintf("rorwheel%d", i)
}

func (w *writer) writeWheels() {
	if len(w.rig.Wheels) == 0 {
		return
	}
	e := w.enc
	st := newWheelState()

	e.open("pressureWheels", "[")
	e.header("name", "hubGroup", "group", "node1:", "node2:", "nodeS", "nodeArm:", "wheelDir")
	switch b := w.rig.Brakes; {
	case len(b) >= 2:
		e.object(field{"brakeTorque", num(b[0])}, field{"parkingTorque", num(b[1])})
	case len(b) == 1:
		e.object(field{"brakeTorque", num(b[0])})
	}
	if w.rig.Rollon {
		e.marker("selfCollision", "true")
	}

	for i, wh := range w.rig.Wheels {
		base := wh.Base()
		kind := wheelKind(wh)

		if st.kind.changed(kind) {
			if kind == kindSimple {
				e.marker("hasTire", "false")
				e.marker("hubNodeMaterial", quote("|NM_RUBBER"))
			} else {
				e.marker("hasTire", "true")
				e.marker("hubNodeMaterial", quote("|NM_METAL"))
			}
		}

		if len(w.rig.Axles) == 0 {
			switch {
			case base.DriveType > 0 && st.propulsed == 0:
				st.propulsed = 1
				e.marker("propulsed", "1")
			case base.DriveType == 0 && st.propulsed == 1:
				st.propulsed = 0
				e.marker("propulsed", "0")
			}
		}

		if st.width.changed(base.Width) {
			e.marker("hubWidth", num(base.Width))
			e.marker("tireWidth", num(base.Width))
		}
		if st.rays.changed(base.NumRays) {
			e.marker("numRays", integer(base.NumRays))
		}
		if st.mass.changed(base.Mass) {
			if kind == kindSimple {
				e.marker("hubNodeWeight", num(base.Mass/float64(base.NumRays*2)))
			} else {
				perNode := num(base.Mass / float64(base.NumRays*4))
				e.marker("nodeWeight", perNode)
				e.marker("hubNodeWeight", perNode)
			}
		}

		switch wt := wh.(type) {
		case *rig.SimpleWheel:
			w.simpleWheelProps(st, wt)
		case *rig.AdvancedWheel:
			w.advancedWheelProps(st, wt)
		}

		snode := quote(base.SNode)
		if base.SNode == "node9999" {
			snode = "9999"
		}
		drive := base.DriveType
		if drive == 2 {
			drive = -1
		}
		e.row(quote(wheelName(i)), quote("none"), quote("none"),
			quote(base.Node1), quote(base.Node2), snode, quote(base.ArmNode), integer(drive))
	}
	e.close("]")
}

func (w *writer) simpleWheelProps(st *wheelState, wh *rig.SimpleWheel) {
	e := w.enc
	if st.spring.changed(wh.Spring) {
		e.marker("beamSpring", num(wh.Spring))
	}
	if st.damp.changed(wh.Damp) {
		e.marker("beamDamp", num(wh.Damp))
	}
	if st.hubRadius.changed(wh.Radius) {
		e.marker("hubRadius", num(wh.Radius))
	}
}

func (w *writer) advancedWheelProps(st *wheelState, wh *rig.AdvancedWheel) {
	e := w.enc
	if !st.wroteAdvancedDefaults {
		st.wroteAdvancedDefaults = true
		e.marker("disableMeshBreaking", "true")
		e.marker("disableHubMeshBreaking", "false")
		e.marker("enableTireReinfBeams", "true")
		e.marker("pressurePSI", "30")
	}
	if st.spring.changed(wh.HubSpring) {
		e.marker("beamSpring", num(wh.HubSpring))
	}
	if st.damp.changed(wh.HubDamp) {
		e.marker("beamDamp", num(wh.HubDamp))
	}
	if st.tireDamp.changed(wh.TireDamp) {
		d := num(wh.TireDamp)
		for _, key := range []string{"wheelSideBeamDamp", "wheelSideBeamDampExpansion", "wheelReinfBeamDamp", "wheelTreadBeamDamp", "wheelPeripheryBeamDamp"} {
			e.marker(key, d)
		}
	}
	if st.tireSpring.changed(wh.TireSpring) {
		s := num(wh.TireSpring)
		for _, key := range []string{"wheelSideBeamSpringExpansion", "wheelReinfBeamSpring", "wheelTreadBeamSpring", "wheelPeripheryBeamSpring"} {
			e.marker(key, s)
		}
	}
	if st.hubRadius.changed(wh.HubRadius) {
		e.marker("hubRadius", num(wh.HubRadius))
	}
	if st.tireRadius.changed(wh.TireRadius) {
		e.marker("radius", num(wh.TireRadius))
	}
}
