package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/ttacon/chalk"

	"github.com/truck2jbeam/truck2jbeam/internal/config"
	"github.com/truck2jbeam/truck2jbeam/internal/model/core"
	"github.com/truck2jbeam/truck2jbeam/internal/worker"
)

const rule = 50

func printSummary(w io.Writer, s worker.Summary) {
	run := s.Run
	fmt.Fprintln(w, strings.Repeat("=", rule))
	fmt.Fprintln(w, "CONVERSION SUMMARY")
	fmt.Fprintln(w, strings.Repeat("=", rule))

	fmt.Fprintf(w, "Files processed: %d\n", run.Processed)
	fmt.Fprintf(w, "Successful: %s\n", chalk.Green.Color(fmt.Sprint(run.Succeeded)))
	if run.Failed > 0 {
		fmt.Fprintf(w, "Failed: %s\n", chalk.Red.Color(fmt.Sprint(run.Failed)))
	} else {
		fmt.Fprintf(w, "Failed: %d\n", run.Failed)
	}
	if run.Skipped > 0 {
		fmt.Fprintf(w, "Skipped: %s\n", chalk.Yellow.Color(fmt.Sprint(run.Skipped)))
	}
	if run.Processed > 0 {
		fmt.Fprintf(w, "Success rate: %.1f%%\n", float64(run.Succeeded)/float64(run.Processed)*100)
	}
	fmt.Fprintf(w, "Total nodes: %d\n", run.TotalNodes)
	fmt.Fprintf(w, "Total beams: %d\n", run.TotalBeams)
	fmt.Fprintf(w, "Warnings: %d\n", s.Warnings)
	fmt.Fprintf(w, "Errors: %d\n", s.Errors)
	fmt.Fprintf(w, "Duration: %.2f seconds\n", run.Duration.Seconds())
	if s.Cancelled {
		fmt.Fprintln(w, chalk.Yellow.Color("Cancelled before all files were converted"))
	}

	var failed []core.Conversion
	for _, c := range s.Conversions {
		if c.Status == core.StatusFailed {
			failed = append(failed, c)
		}
	}
	if len(failed) > 0 {
		fmt.Fprintln(w, "\nErrors:")
		for _, c := range failed {
			fmt.Fprintf(w, "  - %s: %s\n", chalk.Red.Color(c.Input), c.Error)
		}
	}
	fmt.Fprintln(w, strings.Repeat("=", rule))
}

func printTemplates(w io.Writer, templates map[string]config.Template) {
	fmt.Fprintln(w, "Available templates:")
	for _, name := range config.TemplateNames(templates) {
		t := templates[name]
		fmt.Fprint(w, "  ", chalk.Cyan.Color(name))
		if !config.IsBuiltin(name) {
			fmt.Fprint(w, " (custom)")
		}
		fmt.Fprintf(w, ": %s\n", t.Description)
		if t.TypicalDryWeight > 0 || t.TypicalLoadWeight > 0 {
			fmt.Fprintf(w, "      dry weight %g kg, load weight %g kg, minimum node mass %g kg\n",
				t.TypicalDryWeight, t.TypicalLoadWeight, t.Settings.MinimumMass)
		}
	}
}
