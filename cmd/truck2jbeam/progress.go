package main

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/cheggaaa/pb"

	"github.com/truck2jbeam/truck2jbeam/internal/model/core"
	"github.com/truck2jbeam/truck2jbeam/internal/worker"
)

// newProgress reports batch progress. Verbose runs log one line per file,
// otherwise a bar is drawn on w. The returned func stops the bar.
func newProgress(total int, verbose bool, w io.Writer, logger *slog.Logger) (worker.ProgressFunc, func()) {
	if verbose {
		return func(done, total int, c core.Conversion) {
			logger.Info(fmt.Sprintf("[%d/%d] %s", done, total, filepath.Base(c.Input)), "status", c.Status)
		}, func() {}
	}

	bar := pb.New(total)
	bar.Output = w
	bar.SetWidth(80)
	bar.ShowTimeLeft = false
	bar.Start()
	return func(_, _ int, c core.Conversion) {
			if c.Status == core.StatusFailed {
				logger.Warn("Conversion failed", "file", c.Input, "error", c.Error)
			}
			bar.Increment()
		}, func() {
			bar.Finish()
		}
}
