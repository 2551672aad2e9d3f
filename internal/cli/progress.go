package cli

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/samartsevigor/change-analyzer/internal/analyzer"
	"github.com/schollz/progressbar/v3"
)

// CLIProgressReporter renders analysis progress as a progress bar.
type CLIProgressReporter struct {
	quiet bool
	out   io.Writer

	mu  sync.Mutex
	bar *progressbar.ProgressBar
}

// NewCLIProgressReporter creates a reporter writing to out.
func NewCLIProgressReporter(out io.Writer, quiet bool) *CLIProgressReporter {
	return &CLIProgressReporter{quiet: quiet, out: out}
}

func (c *CLIProgressReporter) OnStart(totalFiles int) {
	if c.quiet || totalFiles == 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.bar = progressbar.NewOptions(totalFiles,
		progressbar.OptionSetWriter(c.out),
		progressbar.OptionSetDescription("Analysing files"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("files/s"),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(c.out)
		}),
	)
}

// OnFileAnalyzed is called from worker goroutines.
func (c *CLIProgressReporter) OnFileAnalyzed(path string) {
	if c.quiet {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.bar != nil {
		_ = c.bar.Add(1)
	}
}

func (c *CLIProgressReporter) OnComplete(result *analyzer.Result) {
	if c.quiet {
		return
	}

	c.mu.Lock()
	if c.bar != nil {
		_ = c.bar.Finish()
		c.bar = nil
	}
	c.mu.Unlock()

	fmt.Fprintf(c.out, "✓ Analysis complete: %d changed file(s) in report in %.1fs\n",
		len(result.Reports), result.Duration.Seconds())
	fmt.Fprintf(c.out, "  Listed:   %d\n", result.Listed)
	fmt.Fprintf(c.out, "  Analysed: %d\n", result.Analyzed)
	if len(result.Skipped) > 0 {
		fmt.Fprintf(c.out, "  Skipped:  %d\n", len(result.Skipped))
	}
}
