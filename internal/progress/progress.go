// Package progress defines the reporting interface the indexing pipeline
// updates as it works, plus terminal implementations. The pipeline never
// touches ambient global counters; whoever drives a run decides where the
// numbers go.
package progress

import (
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
)

// Reporter receives progress updates from the pipeline.
type Reporter interface {
	// Add advances the counter by n units.
	Add(n int64)
	// Describe replaces the human-readable label.
	Describe(desc string)
	// Done finalizes the display. No further updates follow.
	Done()
}

// Nop discards all updates. Useful in tests and non-interactive runs.
type Nop struct{}

func (Nop) Add(int64)       {}
func (Nop) Describe(string) {}
func (Nop) Done()           {}

type bar struct {
	b *progressbar.ProgressBar
}

func (r bar) Add(n int64)          { _ = r.b.Add64(n) }
func (r bar) Describe(desc string) { r.b.Describe(desc) }
func (r bar) Done()                { _ = r.b.Finish() }

// NewBytes returns a byte-denominated bar with a known total, for overall
// extraction progress.
func NewBytes(total int64, desc string) Reporter {
	return bar{progressbar.NewOptions64(total,
		progressbar.OptionSetDescription(desc),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowBytes(true),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionOnCompletion(func() { _, _ = os.Stderr.WriteString("\n") }),
	)}
}

// NewCount returns an open-ended counter (unknown total), for discovery and
// row-ingest rates.
func NewCount(desc, unit string) Reporter {
	return bar{progressbar.NewOptions64(-1,
		progressbar.OptionSetDescription(desc),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetItsString(unit),
		progressbar.OptionShowIts(),
		progressbar.OptionShowCount(),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionOnCompletion(func() { _, _ = os.Stderr.WriteString("\n") }),
	)}
}
