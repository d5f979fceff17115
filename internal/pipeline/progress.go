package pipeline

import (
	"fmt"
	"io"
)

// Reporter observes progress. It never influences control flow.
type Reporter interface {
	Progress(current, total int)
}

// ConsoleReporter rewrites a single status line on W.
type ConsoleReporter struct {
	W io.Writer
}

func (r ConsoleReporter) Progress(current, total int) {
	fmt.Fprintf(r.W, "\rProcessing chunk %d/%d...", current, total)
}

type NopReporter struct{}

func (NopReporter) Progress(int, int) {}
