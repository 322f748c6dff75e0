package parser

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/truck2jbeam/truck2jbeam/internal/rig"
)

// ErrEmptyFile is returned for input without a single line.
var ErrEmptyFile = errors.New("file is empty")

const untitledRig = "Untitled Rig"

// maxLineLength bounds a single source line.
const maxLineLength = 1 << 20

// Parser turns truck-format text into a rig.Rig. A Parser holds no
// per-file state and may be reused for many files.
type Parser struct {
	logger   *slog.Logger
	defaults Defaults
}

// NewParser creates a parser seeded with the given defaults.
func NewParser(logger *slog.Logger, defaults Defaults) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{
		logger:   logger,
		defaults: defaults,
	}
}

// ParseFile reads and parses the file at path.
func (p *Parser) ParseFile(path string) (*rig.Rig, error) {
	f, err := os.Open(path)
	if err != nil {
		switch {
		case errors.Is(err, fs.ErrNotExist):
			return nil, fmt.Errorf("file not found: %s: %w", path, err)
		case errors.Is(err, fs.ErrPermission):
			return nil, fmt.Errorf("permission denied reading file: %s: %w", path, err)
		default:
			return nil, fmt.Errorf("error reading file %s: %w", path, err)
		}
	}
	defer f.Close()

	p.logger.Info("Parsing rig file", "path", path)
	r, err := p.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("error parsing %s: %w", path, err)
	}
	return r, nil
}

// readLines decodes r as UTF-8, replacing invalid sequences, and splits
// it into lines.
func readLines(r io.Reader) ([]string, error) {
	dec := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineLength)

	var lines []string
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

// Parse consumes a whole truck file. Malformed lines are recorded on the
// returned rig as warnings or errors; only unreadable or empty input is
// fatal.
func (p *Parser) Parse(r io.Reader) (*rig.Rig, error) {
	lines, err := readLines(r)
	if err != nil {
		return nil, fmt.Errorf("error reading input: %w", err)
	}
	if len(lines) == 0 {
		return nil, ErrEmptyFile
	}
	p.logger.Debug("Read lines from input", "count", len(lines))

	rg := rig.New()
	rg.MinimumMass = p.defaults.MinimumMass
	rg.DryWeight = p.defaults.DryWeight
	rg.LoadWeight = p.defaults.LoadWeight

	ctx := newParseContext(p.defaults)
	parsed := 0

	for i, line := range lines {
		ctx.line = i + 1

		if i == 0 {
			rg.Name = strings.TrimSpace(line)
			if rg.Name == "" {
				rg.Name = untitledRig
				rg.AddWarning(ctx.line, "Empty title line, using default name")
			}
			parsed++
			continue
		}

		stop, counted := p.parseLine(rg, ctx, line)
		if stop {
			break
		}
		if counted {
			parsed++
		}
	}

	if rg.Engine != nil && rg.TorqueCurve == nil {
		rg.TorqueCurve = TorqueCurve(DefaultTorqueCurve)
	}

	p.logger.Info("Parsing complete",
		"name", rg.Name,
		"lines", parsed,
		"nodes", len(rg.Nodes),
		"beams", len(rg.Beams),
		"warnings", len(rg.Warnings),
		"errors", len(rg.Errors),
	)
	return rg, nil
}

// parseLine handles one line after the title. It reports whether parsing
// must stop and whether the line counted as content.
func (p *Parser) parseLine(rg *rig.Rig, ctx *parseContext, line string) (stop, counted bool) {
	tok := PrepareLine(line)
	if len(tok) == 0 {
		return false, false
	}
	keyword := tok[0]

	// free text blocks
	if ctx.section == "description" || ctx.section == "comment" {
		if keyword == "end_description" || keyword == "end_comment" {
			ctx.section = ""
		}
		return false, false
	}

	if isDirective(keyword) {
		if keyword == "end" {
			return true, false
		}
		if err := p.directive(rg, ctx, tok); err != nil {
			rg.AddError(ctx.line, fmt.Sprintf("Error parsing %s: %v", keyword, err))
		}
		return false, false
	}

	if isSection(keyword) {
		ctx.section = keyword
		return false, false
	}

	need, ok := minTokens[ctx.section]
	if !ok || len(tok) < need {
		return false, true
	}
	if err := p.sectionLine(rg, ctx, tok); err != nil {
		rg.AddError(ctx.line, fmt.Sprintf("Error parsing %s: %v", sectionLabel(ctx.section), err))
	}
	return false, true
}

func sectionLabel(section string) string {
	switch section {
	case "triangles":
		return "triangle"
	case "quads":
		return "quad"
	case "submesh":
		return "submesh triangle"
	case "flexbodies":
		return "flexbody"
	case "props":
		return "prop"
	default:
		return "line"
	}
}

// directive applies an inline directive to the context or the rig.
func (p *Parser) directive(rg *rig.Rig, ctx *parseContext, tok []string) error {
	switch tok[0] {
	case "set_beam_defaults":
		if len(tok) < 5 {
			return nil
		}
		d, err := parseBeamDefaults(tok[1:5], p.defaults.Beam)
		if err != nil {
			return err
		}
		ctx.beam = d

	case "set_beam_defaults_scale":
		if len(tok) < 5 {
			return nil
		}
		d, err := parseBeamDefaults(tok[1:5], unitScale)
		if err != nil {
			return err
		}
		ctx.scale = d

	case "set_node_defaults":
		if len(tok) < 5 {
			return nil
		}
		lw, err := parseFloat(tok[1], "load weight")
		if err != nil {
			return err
		}
		fr, err := parseFloat(tok[2], "friction")
		if err != nil {
			return err
		}
		if lw < 0 {
			lw = p.defaults.NodeLoadWeight
		}
		if fr < 0 {
			fr = p.defaults.NodeFriction
		}
		ctx.loadWeight = lw
		ctx.friction = fr

	case "detacher_group":
		if len(tok) < 2 {
			rg.AddWarning(ctx.line, "detacher_group missing group ID")
			return nil
		}
		if tok[1] == "end" {
			ctx.detachGroup = 0
			return nil
		}
		g, err := strconv.Atoi(tok[1])
		if err != nil {
			return fmt.Errorf("error converting group id: %w", err)
		}
		ctx.detachGroup = g

	case "rollon":
		rg.Rollon = true

	case "author":
		if len(tok) < 2 {
			rg.AddWarning(ctx.line, "author missing data")
			return nil
		}
		parts := strings.Fields(strings.Join(tok[1:], " "))
		if len(parts) < 3 {
			rg.AddWarning(ctx.line, "Invalid author format")
			return nil
		}
		rg.Authors = append(rg.Authors, strings.ReplaceAll(parts[2], "_", " "))

	case "forset":
		if len(rg.Flexbodies) == 0 {
			return nil
		}
		return applyForset(rg, ctx, tok[1:])
	}
	return nil
}

// parseBeamDefaults reads four values. A negative value restores the
// corresponding entry of reset.
func parseBeamDefaults(tok []string, reset BeamDefaults) (BeamDefaults, error) {
	var vals [4]float64
	names := [4]string{"spring", "damp", "deform", "strength"}
	for i := range vals {
		v, err := parseFloat(tok[i], names[i])
		if err != nil {
			return BeamDefaults{}, err
		}
		vals[i] = v
	}
	d := BeamDefaults{Spring: vals[0], Damp: vals[1], Deform: vals[2], Strength: vals[3]}
	if d.Spring < 0 {
		d.Spring = reset.Spring
	}
	if d.Damp < 0 {
		d.Damp = reset.Damp
	}
	if d.Deform < 0 {
		d.Deform = reset.Deform
	}
	if d.Strength < 0 {
		d.Strength = reset.Strength
	}
	return d, nil
}

// sectionLine dispatches a content line to the builder of the current
// section.
func (p *Parser) sectionLine(rg *rig.Rig, ctx *parseContext, tok []string) error {
	switch ctx.section {
	case "nodes", "nodes2":
		n, err := ParseNode(tok)
		if err != nil {
			return err
		}
		n.FrictionCoef = ctx.friction
		if ctx.loadWeight > 0 && n.OverrideMass == 0 {
			n.OverrideMass = ctx.loadWeight
		}
		rg.Nodes = append(rg.Nodes, n)

	case "beams":
		b, err := ParseBeam(tok, ctx.scaledBeam())
		if err != nil {
			return err
		}
		SetBeamBreakGroup(b, ctx.detachGroup)
		rg.Beams = append(rg.Beams, b)

	case "hydros":
		d := BeamDefaults{
			Spring:   ctx.beam.Spring,
			Damp:     ctx.beam.Damp,
			Deform:   ctx.beam.Deform * ctx.scale.Deform,
			Strength: ctx.beam.Strength * ctx.scale.Strength,
		}
		h, err := ParseHydro(tok, d)
		if err != nil {
			return err
		}
		rg.Hydros = append(rg.Hydros, h)

	case "globals":
		dry, err := parseFloat(tok[0], "dry weight")
		if err != nil {
			return err
		}
		load, err := parseFloat(tok[1], "load weight")
		if err != nil {
			return err
		}
		rg.DryWeight, rg.LoadWeight = dry, load

	case "minimass":
		m, err := parseFloat(tok[0], "minimum mass")
		if err != nil {
			return err
		}
		rg.MinimumMass = m

	case "railgroups":
		rg.Rails = append(rg.Rails, ParseRailgroup(tok))

	case "slidenodes":
		return p.slidenode(rg, ctx, tok)

	case "fixes":
		id := ParseNodeName(tok[0])
		n, ok := rg.Node(id)
		if !ok {
			rg.AddWarning(ctx.line, "Cannot fix unknown node: "+id)
			return nil
		}
		n.Fixed = true

	case "triangles":
		t, err := ParseTriangle(tok)
		if err != nil {
			return err
		}
		rg.Triangles = append(rg.Triangles, t)

	case "quads":
		q, err := ParseQuad(tok)
		if err != nil {
			return err
		}
		rg.Quads = append(rg.Quads, q)

	case "submesh":
		if !strings.Contains(tok[3], "c") {
			return nil
		}
		t, err := ParseSubmeshTriangle(tok)
		if err != nil {
			return err
		}
		rg.LegacyTriangles = append(rg.LegacyTriangles, t)

	case "flexbodies":
		fb, err := ParseFlexbody(tok)
		if err != nil {
			return err
		}
		rg.Flexbodies = append(rg.Flexbodies, fb)

	case "props":
		pr, err := ParseProp(tok)
		if err != nil {
			return err
		}
		rg.Props = append(rg.Props, pr)

	case "cameras":
		if rg.RefNodes == nil {
			rg.RefNodes = &rig.RefNodes{
				Center: ParseNodeName(tok[0]),
				Back:   ParseNodeName(tok[1]),
				Left:   ParseNodeName(tok[2]),
			}
		}

	case "cinecam":
		c, err := ParseCinecam(tok)
		if err != nil {
			return err
		}
		rg.InternalCameras = append(rg.InternalCameras, c)

	case "engine":
		e, err := ParseEngine(tok)
		if err != nil {
			return err
		}
		rg.Engine = e

	case "engoption":
		e, err := ParseEngoption(tok)
		if err != nil {
			return err
		}
		rg.Engoption = e

	case "torquecurve":
		return p.torqueCurveLine(rg, ctx, tok)

	case "brakes":
		brake, err := parseFloat(tok[0], "brake force")
		if err != nil {
			return err
		}
		parking, err := optFloat(tok, 1, brake, "parking brake force")
		if err != nil {
			return err
		}
		rg.Brakes = []float64{brake, parking}

	case "axles":
		a, err := ParseAxle(tok, rg.Wheels)
		if err != nil {
			if errors.Is(err, errUnknownWheel) {
				rg.AddWarning(ctx.line, err.Error())
				return nil
			}
			return err
		}
		rg.Axles = append(rg.Axles, a)

	case "wheels":
		w, err := ParseSimpleWheel(tok)
		if err != nil {
			return err
		}
		rg.Wheels = append(rg.Wheels, w)

	case "wheels2":
		w, err := ParseAdvancedWheel(tok, false)
		if err != nil {
			return err
		}
		rg.Wheels = append(rg.Wheels, w)

	case "flexbodywheels":
		w, err := ParseAdvancedWheel(tok, true)
		if err != nil {
			return err
		}
		rg.Wheels = append(rg.Wheels, w)
	}
	return nil
}

func (p *Parser) slidenode(rg *rig.Rig, ctx *parseContext, tok []string) error {
	s, railNodes, err := ParseSlidenode(tok)
	if err != nil {
		return err
	}
	if len(railNodes) > 0 && s.Rail == "" {
		name := fmt.Sprintf("rail%d", ctx.anonRails)
		ctx.anonRails++
		rg.Rails = append(rg.Rails, &rig.Rail{Name: name, Nodes: railNodes})
		s.Rail = name
	}
	rg.Slidenodes = append(rg.Slidenodes, s)
	return nil
}

func (p *Parser) torqueCurveLine(rg *rig.Rig, ctx *parseContext, tok []string) error {
	if len(tok) == 1 && !isNumeric(tok[0]) {
		curve := TorqueCurve(tok[0])
		if curve == nil {
			rg.AddWarning(ctx.line, fmt.Sprintf("Unknown torque curve %q, using %s", tok[0], DefaultTorqueCurve))
			curve = TorqueCurve(DefaultTorqueCurve)
		}
		rg.TorqueCurve = curve
		return nil
	}
	if len(tok) < 2 {
		return nil
	}
	rpm, err := parseFloat(tok[0], "torque curve rpm")
	if err != nil {
		return err
	}
	factor, err := parseFloat(tok[1], "torque curve factor")
	if err != nil {
		return err
	}
	rg.TorqueCurve = append(rg.TorqueCurve, rig.TorquePoint{RPM: rpm, Factor: factor})
	return nil
}
