package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/spf13/pflag"

	"github.com/truck2jbeam/truck2jbeam/internal/convert"
)

// errHelp is returned by parseFlags when usage was requested.
var errHelp = errors.New("help requested")

// cliOptions mirrors the command line.
type cliOptions struct {
	Files     []string
	OutputDir string
	Directory string
	Batch     bool

	Backup   bool
	NoBackup bool
	Force    bool
	Verbose  bool
	DryRun   bool

	Author     string
	Template   string
	ConfigFile string

	ProcessDAE            string
	DAEOutput             string
	NoDuplicateResolution bool
	StrictValidation      bool
	IncludeStats          bool
	MinMass               float64
	NoTransformProperties bool

	Preview bool
	Workers int

	ListTemplates bool
	Version       bool
}

func newFlagSet(opts *cliOptions, out io.Writer) *pflag.FlagSet {
	fs := pflag.NewFlagSet(ExtensionName, pflag.ContinueOnError)
	fs.SetOutput(out)
	fs.SortFlags = false
	fs.Usage = func() {
		fmt.Fprintf(out, "Usage: %s [options] [files...]\n\n", ExtensionName)
		fmt.Fprintf(out, "Convert Rigs of Rods rig files (%v) to BeamNG JBeam.\n\n", convert.ValidExtensions)
		fs.PrintDefaults()
	}

	fs.StringVarP(&opts.OutputDir, "output-dir", "o", "", "Output directory for JBeam files")
	fs.StringVarP(&opts.Directory, "directory", "d", "", "Directory to search for rig files")
	fs.BoolVar(&opts.Batch, "batch", false, "Batch process all files in directory (current directory if -d is not set)")
	fs.BoolVar(&opts.Backup, "backup", true, "Create backup of existing files")
	fs.BoolVar(&opts.NoBackup, "no-backup", false, "Don't create backups")
	fs.BoolVarP(&opts.Force, "force", "f", false, "Force overwrite existing files")
	fs.BoolVarP(&opts.Verbose, "verbose", "v", false, "Verbose output")
	fs.BoolVar(&opts.DryRun, "dry-run", false, "Parse and validate without writing anything")
	fs.StringVar(&opts.Author, "author", "", "Set custom author name in output")
	fs.StringVar(&opts.Template, "template", "", "Apply conversion template (car, truck, airplane, trailer or custom)")
	fs.StringVar(&opts.ConfigFile, "config", "", "Path to custom configuration file")

	fs.StringVar(&opts.ProcessDAE, "process-dae", "", "Process DAE files in `DIR` to match JBeam group names")
	fs.StringVar(&opts.DAEOutput, "dae-output", "", "Output `DIR` for modified DAE files (default: modify in place)")
	fs.BoolVar(&opts.NoDuplicateResolution, "no-duplicate-resolution", false, "Disable automatic duplicate mesh name resolution")
	fs.BoolVar(&opts.StrictValidation, "strict-validation", false, "Fail conversions that produce validation warnings")
	fs.BoolVar(&opts.IncludeStats, "include-stats", false, "Log conversion statistics for every file")
	fs.Float64Var(&opts.MinMass, "min-mass", 0, "Override minimum node `MASS`")
	fs.BoolVar(&opts.NoTransformProperties, "no-transform-properties", false, "Exclude rotation, translation and scale from flexbodies and props")

	fs.BoolVar(&opts.Preview, "preview", false, "Write a top-down WebP preview next to each JBeam file")
	fs.IntVarP(&opts.Workers, "workers", "j", 0, "Number of parallel conversions (default: number of CPUs)")
	fs.BoolVar(&opts.ListTemplates, "list-templates", false, "List available templates and exit")
	fs.BoolVar(&opts.Version, "version", false, "Print version and exit")
	return fs
}

// parseFlags parses args (without the program name).
func parseFlags(args []string, out io.Writer) (cliOptions, error) {
	var opts cliOptions
	fs := newFlagSet(&opts, out)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return opts, errHelp
		}
		return opts, err
	}
	if opts.NoBackup {
		opts.Backup = false
	}
	if opts.MinMass < 0 {
		return opts, fmt.Errorf("--min-mass must not be negative")
	}
	if opts.Workers < 0 {
		return opts, fmt.Errorf("--workers must not be negative")
	}
	opts.Files = fs.Args()
	return opts, nil
}

// collectFiles expands globs, scans directories and drops duplicates. It
// returns the usable rig files and the inputs that were rejected.
func collectFiles(opts cliOptions) (files, rejected []string, err error) {
	var candidates []string

	if opts.Directory != "" || opts.Batch {
		dir := opts.Directory
		if dir == "" {
			dir = "."
		}
		info, statErr := os.Stat(dir)
		if statErr != nil || !info.IsDir() {
			return nil, nil, fmt.Errorf("directory not found: %s", dir)
		}
		found, err := convert.FindRigFiles(dir)
		if err != nil {
			return nil, nil, err
		}
		candidates = append(candidates, found...)
	}

	for _, pattern := range opts.Files {
		matches, err := filepath.Glob(pattern)
		if err != nil || len(matches) == 0 {
			candidates = append(candidates, pattern)
			continue
		}
		candidates = append(candidates, matches...)
	}

	seen := make(map[string]struct{}, len(candidates))
	for _, f := range candidates {
		key := filepath.Clean(f)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		info, err := os.Stat(f)
		if err != nil || info.IsDir() || !convert.IsRigFile(f) {
			rejected = append(rejected, f)
			continue
		}
		files = append(files, f)
	}
	slices.Sort(files)
	return files, rejected, nil
}
