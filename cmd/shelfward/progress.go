package main

import (
	"fmt"
	"io"

	"github.com/schollz/progressbar/v3"
)

// scanProgress drives an indeterminate progress bar from scanner callbacks.
// On non-terminal writers it degrades to nothing so piped output stays clean.
type scanProgress struct {
	bar *progressbar.ProgressBar
}

func newScanProgress(writer io.Writer) *scanProgress {
	if !isTerminal(writer) {
		return &scanProgress{}
	}
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(writer),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("Scanning library..."),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(writer)
		}),
	)
	return &scanProgress{bar: bar}
}

// Update implements scanner.ProgressFunc.
func (p *scanProgress) Update(count int, path string) {
	if p.bar == nil {
		return
	}
	_ = p.bar.Add(1)
}

func (p *scanProgress) Finish() {
	if p.bar == nil {
		return
	}
	_ = p.bar.Finish()
}
