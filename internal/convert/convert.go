// Package convert runs one rig file through the whole pipeline: parse,
// validate, distribute mass, write the jbeam and the optional extras.
package convert

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/truck2jbeam/truck2jbeam/internal/config"
	"github.com/truck2jbeam/truck2jbeam/internal/geo"
	"github.com/truck2jbeam/truck2jbeam/internal/jbeam"
	"github.com/truck2jbeam/truck2jbeam/internal/logging"
	"github.com/truck2jbeam/truck2jbeam/internal/mass"
	"github.com/truck2jbeam/truck2jbeam/internal/mesh"
	"github.com/truck2jbeam/truck2jbeam/internal/model/core"
	"github.com/truck2jbeam/truck2jbeam/internal/parser"
	"github.com/truck2jbeam/truck2jbeam/internal/preview"
	"github.com/truck2jbeam/truck2jbeam/internal/rig"
	"github.com/truck2jbeam/truck2jbeam/internal/validate"
)

// ValidExtensions are the rig file types accepted for conversion.
var ValidExtensions = []string{".truck", ".trailer", ".airplane", ".boat", ".car", ".load", ".train"}

var (
	ErrInvalidExtension = errors.New("invalid file extension")
	ErrOutputExists     = errors.New("output file exists")
	ErrInvalidRig       = errors.New("rig failed validation")
	ErrStrictValidation = errors.New("warnings reported in strict validation mode")
)

// Options control a Converter. Zero values mean "not requested".
type Options struct {
	OutputDir string
	Backup    bool
	DryRun    bool
	Force     bool

	// Author replaces the rig's authors.
	Author string
	// MinMass overrides the minimum node mass when positive.
	MinMass float64

	Template  string
	Templates map[string]config.Template

	NoTransformProperties bool
	NoDuplicateResolution bool

	// DAEDir enables rewriting the COLLADA files below it after a
	// successful conversion. DAEOutput receives the rewritten copies; empty
	// means in place.
	DAEDir    string
	DAEOutput string

	Preview       bool
	PreviewConfig config.PreviewConfig

	Settings config.ConversionSettings
}

// Converter converts rig files. It keeps no per-file state and is safe to
// use from several goroutines.
type Converter struct {
	opts     Options
	settings config.ConversionSettings
	template *config.Template
	logger   *slog.Logger
}

// New resolves the template and settings in opts. An unknown template is
// logged and ignored.
func New(opts Options, logger *slog.Logger) *Converter {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Converter{opts: opts, settings: opts.Settings, logger: logger}

	if opts.Template != "" {
		templates := opts.Templates
		if templates == nil {
			templates = config.BuiltinTemplates()
		}
		if t, ok := templates[opts.Template]; ok {
			c.template = &t
			c.settings = t.Apply(c.settings)
			logger.Debug("Applied template", "template", opts.Template)
		} else {
			logger.Warn("Template not found", "template", opts.Template)
		}
	}
	if opts.MinMass > 0 {
		c.settings.MinimumMass = opts.MinMass
	}
	return c
}

// Settings returns the effective conversion settings.
func (c *Converter) Settings() config.ConversionSettings {
	return c.settings
}

// ParserDefaults maps the effective settings onto the values the parser
// starts every file with.
func (c *Converter) ParserDefaults() parser.Defaults {
	d := parser.BuiltinDefaults()
	s := c.settings
	if s.DefaultBeamSpring > 0 {
		d.Beam.Spring = s.DefaultBeamSpring
	}
	if s.DefaultBeamDamp > 0 {
		d.Beam.Damp = s.DefaultBeamDamp
	}
	if s.DefaultBeamDeform > 0 {
		d.Beam.Deform = s.DefaultBeamDeform
	}
	if s.DefaultBeamStrength > 0 {
		d.Beam.Strength = s.DefaultBeamStrength
	}
	if s.DefaultFriction > 0 {
		d.NodeFriction = s.DefaultFriction
	}
	if s.DefaultLoadWeight > 0 {
		d.NodeLoadWeight = s.DefaultLoadWeight
	}
	if s.MinimumMass > 0 {
		d.MinimumMass = s.MinimumMass
	}
	if c.template != nil {
		if c.template.TypicalDryWeight > 0 {
			d.DryWeight = c.template.TypicalDryWeight
		}
		if c.template.TypicalLoadWeight > 0 {
			d.LoadWeight = c.template.TypicalLoadWeight
		}
	}
	return d
}

// IsRigFile reports whether path has one of the ValidExtensions.
func IsRigFile(path string) bool {
	return slices.Contains(ValidExtensions, strings.ToLower(filepath.Ext(path)))
}

// VehicleType is the extension of path without the dot, e.g. "truck".
func VehicleType(path string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
}

// OutputPath is where the jbeam for input is written.
func OutputPath(input, outputDir string) string {
	name := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input)) + ".jbeam"
	if outputDir != "" {
		return filepath.Join(outputDir, name)
	}
	return filepath.Join(filepath.Dir(input), name)
}

// FindRigFiles walks dir recursively and returns every rig file, sorted.
func FindRigFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && IsRigFile(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", dir, err)
	}
	slices.Sort(files)
	return files, nil
}

// ConvertFile converts one file. The returned Conversion is filled in even
// when an error is returned.
func (c *Converter) ConvertFile(ctx context.Context, input string) (core.Conversion, error) {
	conv := core.Conversion{
		Input:       input,
		VehicleType: VehicleType(input),
		Status:      core.StatusFailed,
		StartedAt:   time.Now(),
	}
	if c.template != nil {
		conv.Template = c.opts.Template
	}
	ctx = logging.WithAttrs(ctx, slog.String("file", input))

	err := c.convert(ctx, &conv)
	conv.Duration = time.Since(conv.StartedAt)
	if err != nil {
		conv.Error = err.Error()
		if !errors.Is(err, ErrOutputExists) {
			c.logger.ErrorContext(ctx, "Failed to convert", "error", err)
		}
		return conv, err
	}
	return conv, nil
}

func (c *Converter) convert(ctx context.Context, conv *core.Conversion) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !IsRigFile(conv.Input) {
		return fmt.Errorf("%w: %s", ErrInvalidExtension, filepath.Ext(conv.Input))
	}

	conv.Output = OutputPath(conv.Input, c.opts.OutputDir)
	if !c.opts.DryRun {
		if _, err := os.Stat(conv.Output); err == nil && !c.opts.Force {
			conv.Status = core.StatusSkipped
			c.logger.WarnContext(ctx, "Output file exists, use --force to overwrite", "output", conv.Output)
			return fmt.Errorf("%w: %s", ErrOutputExists, conv.Output)
		}
	}

	c.logger.InfoContext(ctx, "Converting", "output", conv.Output)
	r, err := parser.NewParser(c.logger, c.ParserDefaults()).ParseFile(conv.Input)
	if err != nil {
		return err
	}
	conv.RigName = r.Name
	defer func() {
		conv.Warnings = slices.Clone(r.Warnings)
		conv.Errors = slices.Clone(r.Errors)
	}()

	if c.opts.Author != "" {
		r.Authors = []string{c.opts.Author}
	}
	if c.opts.NoTransformProperties {
		r.NoTransformProperties = true
	}

	if !validate.Rig(r) {
		return fmt.Errorf("%w: %s", ErrInvalidRig, strings.Join(r.Errors, "; "))
	}
	if c.settings.StrictValidation && len(r.Warnings) > 0 {
		return fmt.Errorf("%w: %d warnings", ErrStrictValidation, len(r.Warnings))
	}

	res, err := mass.Distribute(r, c.logger)
	if err != nil {
		return fmt.Errorf("failed to calculate masses: %w", err)
	}
	conv.Stats = stats(r, res)

	if c.opts.DryRun {
		conv.Status = core.StatusDryRun
		c.logger.InfoContext(ctx, "[DRY RUN] Would convert", "output", conv.Output)
		return nil
	}

	renamed, err := c.writeJBeam(ctx, r, conv.Output)
	if err != nil {
		return err
	}
	conv.Stats.Renamed = renamed

	if c.opts.DAEDir != "" {
		c.processDAE(ctx, r)
	}
	if c.opts.Preview {
		path := strings.TrimSuffix(conv.Output, filepath.Ext(conv.Output)) + ".webp"
		if err := preview.WriteFile(path, r, c.opts.PreviewConfig); err != nil {
			r.AddWarning(0, fmt.Sprintf("Preview not written: %v", err))
		} else {
			c.logger.DebugContext(ctx, "Wrote preview", "path", path)
		}
	}

	if c.settings.IncludeStatistics {
		s := r.Statistics()
		c.logger.InfoContext(ctx, "Rig statistics",
			"nodes", s.Nodes, "beams", s.Beams, "wheels", s.Wheels, "hydros", s.Hydros,
			"flexbodies", s.Flexbodies, "props", s.Props, "triangles", s.Triangles,
			"totalMass", conv.Stats.TotalMass, "beamLength", s.TotalBeamLength,
			"footprint", conv.Stats.FootprintArea)
	}

	conv.Status = core.StatusSucceeded
	c.logger.InfoContext(ctx, "Successfully converted", "output", conv.Output)
	return nil
}

func (c *Converter) writeJBeam(ctx context.Context, r *rig.Rig, output string) (int, error) {
	if dir := filepath.Dir(output); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return 0, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if c.opts.Backup {
		if err := backup(output); err != nil {
			return 0, err
		}
	}

	f, err := os.Create(output)
	if err != nil {
		return 0, fmt.Errorf("failed to create output file: %w", err)
	}
	renames, err := jbeam.Write(f, r, jbeam.Options{
		SlotType:              c.settings.SlotType,
		DefaultAuthor:         c.settings.DefaultAuthor,
		MaterialMappings:      c.settings.MaterialMappings,
		NoDuplicateResolution: c.opts.NoDuplicateResolution,
		NoTransformProperties: c.opts.NoTransformProperties,
		Logger:                c.logger,
	})
	if cerr := f.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("failed to close output file: %w", cerr)
	}
	if err != nil {
		return 0, err
	}
	for _, rn := range renames {
		c.logger.DebugContext(ctx, "Renamed duplicate mesh", "kind", rn.Kind, "from", rn.From, "to", rn.To)
	}
	return len(renames), nil
}

// backup copies an existing output file to <output>.backup.
func backup(output string) error {
	src, err := os.Open(output)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open file for backup: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(output + ".backup")
	if err != nil {
		return fmt.Errorf("failed to create backup: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return fmt.Errorf("failed to write backup: %w", err)
	}
	return dst.Close()
}

// processDAE failures are reported as rig warnings; the jbeam is already
// written at this point.
func (c *Converter) processDAE(ctx context.Context, r *rig.Rig) {
	c.logger.InfoContext(ctx, "Processing DAE files", "dir", c.opts.DAEDir)
	res, err := mesh.ProcessDirectory(c.opts.DAEDir, c.opts.DAEOutput, mesh.Mapping(r), c.logger)
	if err != nil {
		r.AddWarning(0, fmt.Sprintf("DAE processing error: %v", err))
		return
	}
	if res.Failed > 0 {
		r.AddWarning(0, fmt.Sprintf("DAE processing failed for %d of %d files", res.Failed, res.Files))
	}
}

func stats(r *rig.Rig, res mass.Result) core.Stats {
	s := r.Statistics()
	return core.Stats{
		Nodes:           s.Nodes,
		Beams:           s.Beams,
		Wheels:          s.Wheels,
		Hydros:          s.Hydros,
		Flexbodies:      s.Flexbodies,
		Props:           s.Props,
		Triangles:       s.Triangles,
		DryWeight:       s.DryWeight,
		LoadWeight:      s.LoadWeight,
		TotalMass:       res.TotalMass,
		TotalBeamLength: s.TotalBeamLength,
		FootprintArea:   geo.Footprint(r),
	}
}
