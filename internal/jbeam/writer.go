// Package jbeam serializes a rig into a BeamNG jbeam part file.
//
// Tables are delta encoded: sticky properties such as beam spring or node
// weight are written as standalone marker objects only when their value
// changes from one row to the next.
package jbeam

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strings"

	"github.com/truck2jbeam/truck2jbeam/internal/groups"
	"github.com/truck2jbeam/truck2jbeam/internal/rig"
)

const (
	DefaultPartName = "truck2jbeam"
	DefaultSlotType = "main"
	DefaultAuthor   = "insert your name here"
)

type Options struct {
	// PartName is the top-level key of the file.
	PartName string
	SlotType string
	// Author replaces the authors read from the rig when set.
	Author string
	// DefaultAuthor is used when neither Author nor the rig name anyone.
	DefaultAuthor string
	// MaterialMappings renames triangle materials, e.g. "default" to
	// "NM_METAL". Unmapped materials are written unchanged.
	MaterialMappings      map[string]string
	NoDuplicateResolution bool
	NoTransformProperties bool
	Logger                *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.PartName == "" {
		o.PartName = DefaultPartName
	}
	if o.SlotType == "" {
		o.SlotType = DefaultSlotType
	}
	if o.DefaultAuthor == "" {
		o.DefaultAuthor = DefaultAuthor
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

type writer struct {
	enc   *encoder
	rig   *rig.Rig
	opts  Options
	index map[string]int
}

// Prepare renames duplicate meshes (unless disabled) and assigns node
// groups. Write calls it; it is exported for callers that only need the
// mesh mapping.
func Prepare(r *rig.Rig, opts Options) []groups.Rename {
	opts = opts.withDefaults()
	var renames []groups.Rename
	if !opts.NoDuplicateResolution {
		renames = groups.ResolveDuplicates(r, opts.Logger)
	}
	groups.Assign(r, opts.Logger)
	return renames
}

// Write prepares r and writes it to w as a single jbeam part. It returns
// the mesh renames applied to the rig.
func Write(w io.Writer, r *rig.Rig, opts Options) ([]groups.Rename, error) {
	opts = opts.withDefaults()
	renames := Prepare(r, opts)

	bw := bufio.NewWriter(w)
	wr := &writer{
		enc:   &encoder{w: bw},
		rig:   r,
		opts:  opts,
		index: r.NodeIndex(),
	}
	wr.write()

	if wr.enc.err != nil {
		return renames, fmt.Errorf("error writing jbeam: %w", wr.enc.err)
	}
	if err := bw.Flush(); err != nil {
		return renames, fmt.Errorf("error writing jbeam: %w", err)
	}
	return renames, nil
}

func (w *writer) write() {
	w.writeHeader()
	w.writeRefNodes()
	w.writeTorqueCurve()
	w.writeEngine()
	w.writeCameras()
	w.writeFlexbodies()
	w.writeProps()
	w.writeNodes()
	w.writeBeams()
	w.writeRails()
	w.writeSlidenodes()
	w.writeDifferentials()
	w.writeTriangles()
	w.writeWheels()
	w.writeHydros()
	w.enc.printf("\t}\n}\n")
}

func (w *writer) authors() string {
	switch {
	case w.opts.Author != "":
		return w.opts.Author
	case len(w.rig.Authors) > 0:
		return strings.Join(w.rig.Authors, ", ")
	default:
		return w.opts.DefaultAuthor
	}
}

func (w *writer) noTransform() bool {
	return w.opts.NoTransformProperties || w.rig.NoTransformProperties
}

func (w *writer) hasNodes(ids []string) bool {
	for _, id := range ids {
		if _, ok := w.index[id]; !ok {
			return false
		}
	}
	return true
}

func (w *writer) writeHeader() {
	e := w.enc
	e.printf("{\n\t%s:{\n", quote(w.opts.PartName))
	e.printf("%s\"slotType\": %s,\n\n", partIndent, quote(w.opts.SlotType))
	e.printf("%s\"information\":{\n", partIndent)
	e.printf("%s\"name\": %s,\n", rowIndent, quote(w.rig.Name))
	e.printf("%s\"authors\": %s\n", rowIndent, quote(w.authors()))
	e.printf("%s},\n\n", partIndent)
}

func (w *writer) writeRefNodes() {
	ref := w.rig.RefNodes
	if ref == nil {
		return
	}
	e := w.enc
	e.open("refNodes", "[")
	e.header("ref:", "back:", "left:", "up:")
	e.header(ref.Center, ref.Back, ref.Left, ref.Center)
	e.close("]")
}

func (w *writer) writeTorqueCurve() {
	if len(w.rig.TorqueCurve) == 0 || w.rig.Engine == nil {
		return
	}
	e := w.enc
	e.open("enginetorque", "[")
	e.header("rpm", "torque")
	for _, p := range w.rig.TorqueCurve {
		e.row(num(p.RPM), num(p.Factor*w.rig.Engine.Torque))
	}
	e.close("]")
}

func (w *writer) property(key, value string) {
	w.enc.printf("%s%s:%s,\n", rowIndent, quote(key), value)
}

func (w *writer) writeEngine() {
	eng := w.rig.Engine
	if eng == nil {
		return
	}
	opt := w.rig.Engoption

	w.enc.open("engine", "{")
	if opt == nil {
		w.property("idleRPM", "800")
	} else {
		w.property("idleRPM", num(opt.IdleRPM))
	}
	w.property("maxRPM", num(eng.MaxRPM*1.25))
	w.property("shiftDownRPM", num(eng.MinRPM))
	w.property("shiftUpRPM", num(eng.MaxRPM))
	w.property("differential", num(eng.Differential))
	if opt == nil {
		w.property("inertia", "10")
	} else {
		w.property("inertia", num(opt.Inertia))
	}

	gears := make([]string, len(eng.Gears))
	for i, g := range eng.Gears {
		gears[i] = num(g)
	}
	w.property("gears", "["+strings.Join(gears, ", ")+"]")

	if opt != nil {
		w.property("clutchTorque", num(opt.ClutchForce))
		w.property("clutchDuration", num(opt.ClutchTime))
	}
	w.enc.close("}")
}

func (w *writer) writeCameras() {
	if len(w.rig.InternalCameras) == 0 {
		return
	}
	e := w.enc
	spring, damp := newDelta(-1.0), newDelta(-1.0)

	e.open("camerasInternal", "[")
	e.header("type", "x", "y", "z", "fov", "id1:", "id2:", "id3:", "id4:", "id5:", "id6:")
	e.marker("nodeWeight", "20")
	for _, c := range w.rig.InternalCameras {
		if spring.changed(c.Spring) {
			e.marker("beamSpring", num(c.Spring))
		}
		if damp.changed(c.Damp) {
			e.marker("beamDamp", num(c.Damp))
		}
		cols := []string{quote(c.Type), num(c.Pos.X()), num(c.Pos.Y()), num(c.Pos.Z()), num(c.FOV)}
		e.row(append(cols, quoteAll(c.Nodes[:])...)...)
	}
	e.close("]")
}

// flexbodyExtras returns the non-transform flexbody properties.
func flexbodyExtras(fb *rig.Flexbody) []field {
	var out []field
	if fb.DisableMeshBreaking {
		out = append(out, field{"disableMeshBreaking", "true"})
	}
	if fb.PlasticDeformCoef > 0 {
		out = append(out, field{"plasticDeformCoef", num(fb.PlasticDeformCoef)})
	}
	if fb.DamageThreshold > 0 {
		out = append(out, field{"damageThreshold", num(fb.DamageThreshold)})
	}
	return out
}

// writeFlexbodies converts placements from the Y-up, Z-forward source
// frame to jbeam's Z-up, Y-forward frame by swapping Y and Z of offsets
// and rotations. Scale is written as is.
func (w *writer) writeFlexbodies() {
	if len(w.rig.Flexbodies) == 0 {
		return
	}
	e := w.enc
	e.open("flexbodies", "[")
	e.header("mesh", "[group]:", "nonFlexMaterials")
	for _, fb := range w.rig.Flexbodies {
		if !w.hasNodes(fb.TriadNodes()) {
			w.opts.Logger.Warn(fmt.Sprintf("Can't find nodes for flexbody %s. Possibly forset on tires?", fb.Mesh))
			continue
		}
		cols := []string{quote(fb.MeshBase()), list([]string{fb.GroupName()}), list(nonNil(fb.NonFlexMaterials))}

		extras := flexbodyExtras(fb)
		if !w.noTransform() {
			props := []field{
				{"pos", vec(fb.Offset.X(), fb.Offset.Z(), fb.Offset.Y())},
				{"rot", vec(fb.Rotation.X(), fb.Rotation.Z(), fb.Rotation.Y())},
				{"scale", vec(fb.Scale.X(), fb.Scale.Y(), fb.Scale.Z())},
			}
			cols = append(cols, object(append(props, extras...)...))
		} else if len(extras) > 0 {
			cols = append(cols, object(extras...))
		}
		e.row(cols...)
	}
	e.close("]")
}

func nonNil(ss []string) []string {
	if ss == nil {
		return []string{}
	}
	return ss
}

func (w *writer) writeProps() {
	if len(w.rig.Props) == 0 {
		return
	}
	e := w.enc
	e.open("props", "[")
	e.header("func", "mesh", "idRef:", "idX:", "idY:", "baseRotation", "rotation", "translation", "min", "max", "offset", "multiplier")

	zero := vec(0, 0, 0)
	for _, p := range w.rig.Props {
		if !w.hasNodes(p.TriadNodes()) {
			w.opts.Logger.Warn(fmt.Sprintf("Can't find nodes for prop %s", p.Mesh))
			continue
		}
		cols := []string{quote("nop"), quote(p.MeshBase()), quote(p.RefNode), quote(p.XNode), quote(p.YNode)}
		if w.noTransform() {
			e.row(cols...)
			continue
		}

		rotation, translation := zero, zero
		minVal, maxVal, multiplier := 0.0, 0.0, 1.0
		if p.AnimationFactor != 0 {
			axis := vec(p.AnimationAxis.X(), p.AnimationAxis.Y(), p.AnimationAxis.Z())
			switch p.AnimationMode {
			case rig.AnimationRotation:
				rotation = axis
				minVal, maxVal, multiplier = -180, 180, p.AnimationFactor
			case rig.AnimationTranslation:
				translation = axis
				minVal, maxVal, multiplier = -1, 1, p.AnimationFactor
			}
		}

		e.row(append(cols,
			vec(p.Rotation.X(), p.Rotation.Z(), p.Rotation.Y()),
			rotation, translation,
			num(minVal), num(maxVal), "0", num(multiplier),
		)...)
	}
	e.close("]")
}

func (w *writer) writeNodes() {
	if len(w.rig.Nodes) == 0 {
		return
	}
	e := w.enc
	weight := newDelta(-1.0)
	friction := newDelta(1.0)
	selfCollision := newDelta(false)
	group := newDelta("")

	e.open("nodes", "[")
	e.header("id", "posX", "posY", "posZ")
	for _, n := range w.rig.Nodes {
		if weight.changed(n.Mass) {
			e.marker("nodeWeight", num(n.Mass))
		}
		if friction.changed(n.FrictionCoef) {
			e.marker("frictionCoef", num(n.FrictionCoef))
		}
		if selfCollision.changed(n.SelfCollision) {
			e.marker("selfCollision", boolean(n.SelfCollision))
		}
		if group.changed(strings.Join(n.Groups, "\x00")) {
			if len(n.Groups) > 0 {
				e.marker("group", list(n.Groups))
			} else {
				e.marker("group", `""`)
			}
		}

		cols := []string{quote(n.ID), num(n.Pos.X()), num(n.Pos.Y()), num(n.Pos.Z())}
		var inline []field
		if n.Coupler {
			inline = append(inline, field{"couplerTag", quote("fifthwheel")})
		}
		if n.Fixed {
			inline = append(inline, field{"fixed", "true"})
		}
		if len(inline) > 0 {
			cols = append(cols, object(inline...))
		}
		e.row(cols...)
	}
	e.close("]")
}

func (w *writer) writeBeams() {
	if len(w.rig.Beams) == 0 {
		return
	}
	e := w.enc
	rebound := newDelta(false)
	beamType := newDelta(rig.BeamType("NONEXISTANT"))
	spring, damp := newDelta(-1.0), newDelta(-1.0)
	deform, strength := newDelta(-1.0), newDelta(-1.0)
	short, long, precomp := newDelta(-1.0), newDelta(-1.0), newDelta(-1.0)
	breakGroup := newDelta("")

	e.open("beams", "[")
	e.header("id1:", "id2:")
	for _, b := range w.rig.Beams {
		if rebound.changed(b.DampRebound) {
			e.marker("beamDampRebound", boolean(b.DampRebound))
		}
		if beamType.changed(b.Type) {
			e.marker("beamType", quote("|"+string(b.Type)))
		}
		if spring.changed(b.Spring) {
			e.marker("beamSpring", num(b.Spring))
		}
		if damp.changed(b.Damp) {
			e.marker("beamDamp", num(b.Damp))
		}
		if deform.changed(b.Deform) {
			e.marker("beamDeform", num(b.Deform))
		}
		if strength.changed(b.Strength) {
			e.marker("beamStrength", num(b.Strength))
		}
		if short.changed(b.ShortBound) {
			e.marker("beamShortBound", num(b.ShortBound))
		}
		if long.changed(b.LongBound) {
			e.marker("beamLongBound", num(b.LongBound))
		}
		if precomp.changed(b.Precompression) {
			e.marker("beamPrecompression", num(b.Precompression))
		}
		if breakGroup.changed(b.BreakGroup) {
			e.marker("breakGroup", quote(b.BreakGroup))
		}
		e.header(b.ID1, b.ID2)
	}
	e.close("]")
}

func (w *writer) writeRails() {
	if len(w.rig.Rails) == 0 {
		return
	}
	e := w.enc
	e.open("rails", "{")
	for _, r := range w.rig.Rails {
		e.printf("%s%s:%s,\n", rowIndent, quote(r.Name), object(
			field{"links:", list(nonNil(r.Nodes))},
			field{"looped", "false"},
			field{"capped", "true"},
		))
	}
	e.close("}")
}

// slidenodeInfiniteStrength stands in for an unbreakable slidenode.
const slidenodeInfiniteStrength = "100000000"

func (w *writer) writeSlidenodes() {
	if len(w.rig.Slidenodes) == 0 {
		return
	}
	e := w.enc
	e.open("slidenodes", "[")
	e.header("id:", "railName", "attached", "fixToRail", "tolerance", "spring", "strength", "capStrength")
	for _, s := range w.rig.Slidenodes {
		strength := num(s.Strength)
		if math.IsInf(s.Strength, 1) {
			strength = slidenodeInfiniteStrength
		}
		e.row(quote(s.Node), quote(s.Rail), "true", "true", num(s.Tolerance), num(s.Spring), strength, "345435")
	}
	e.close("]")
}

func (w *writer) writeDifferentials() {
	if len(w.rig.Axles) == 0 {
		return
	}
	e := w.enc
	e.open("differentials", "[")
	e.header("wheelName1", "wheelName2", "type", "state", "closedTorque", "engineTorqueCoef")
	for _, a := range w.rig.Axles {
		e.row(quote(a.Wheel1), quote(a.Wheel2), quote(a.Type), quote(a.State), "10000", "1")
	}
	e.close("]")
}

func (w *writer) material(name string) string {
	if mapped, ok := w.opts.MaterialMappings[name]; ok && mapped != "" {
		return mapped
	}
	return name
}

func (w *writer) writeTriangles() {
	var collision, visual []*rig.Triangle
	for _, t := range w.rig.AllTriangles() {
		switch {
		case t.IsCollision():
			collision = append(collision, t)
		case t.IsVisual():
			visual = append(visual, t)
		}
	}

	e := w.enc
	if len(collision) > 0 {
		material, drag := &delta[string]{}, &delta[float64]{}
		e.open("triangles", "[")
		e.header("id1:", "id2:", "id3:")
		for _, t := range collision {
			if material.changed(t.Material) {
				e.marker("material", quote("|"+w.material(t.Material)))
			}
			if drag.changed(t.DragCoef) {
				e.marker("dragCoef", num(t.DragCoef))
			}
			e.header(t.Nodes[:]...)
		}
		e.close("]")
	}

	if len(visual) > 0 {
		material := &delta[string]{}
		e.open("visualTriangles", "[")
		e.header("id1:", "id2:", "id3:")
		for _, t := range visual {
			if material.changed(t.Material) {
				e.marker("material", quote("|"+w.material(t.Material)))
			}
			e.header(t.Nodes[:]...)
		}
		e.close("]")
	}
}

func (w *writer) writeHydros() {
	if len(w.rig.Hydros) == 0 {
		return
	}
	e := w.enc
	spring, damp := newDelta(-1.0), newDelta(-1.0)
	deform, strength := newDelta(-1.0), newDelta(-1.0)

	e.open("hydros", "[")
	e.header("id1:", "id2:")
	for _, h := range w.rig.Hydros {
		if spring.changed(h.Spring) {
			e.marker("beamSpring", num(h.Spring))
		}
		if damp.changed(h.Damp) {
			e.marker("beamDamp", num(h.Damp))
		}
		if deform.changed(h.Deform) {
			e.marker("beamDeform", num(h.Deform))
		}
		if strength.changed(h.Strength) {
			e.marker("beamStrength", num(h.Strength))
		}
		e.row(quote(h.ID1), quote(h.ID2), object(
			field{"inputSource", quote("steering")},
			field{"inputFactor", num(h.Factor)},
			field{"inRate", "0.25"},
			field{"outRate", "0.25"},
		))
	}
	e.close("]")
}
