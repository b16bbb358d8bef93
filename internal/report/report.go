// Package report renders analysis results to an output writer.
package report

import (
	"io"
	"sort"

	"github.com/setevik/fsanalyze/internal/correlator"
	"github.com/setevik/fsanalyze/internal/event"
	"github.com/setevik/fsanalyze/internal/summary"
)

// Mode selects which results are rendered.
type Mode string

const (
	ModeAll     Mode = "all"
	ModeEvents  Mode = "events"
	ModeSummary Mode = "summary"
)

// Report is the complete analysis output handed to a Formatter.
type Report struct {
	Calls   []*correlator.Call `json:"-"`
	Summary *summary.Summary   `json:"summary,omitempty"`

	// Diagnostics from the stream stage.
	LinesRead    int `json:"lines_read"`
	SkippedLines int `json:"skipped_lines"`
	Uncorrelated int `json:"uncorrelated_events"`
}

// Formatter renders a report in a specific format. Output is deterministic:
// identical input yields byte-identical output.
type Formatter interface {
	Format(r *Report, mode Mode, w io.Writer) error
	Name() string
}

// Events flattens all call event lists back into file order.
func (r *Report) Events() []*event.LogEvent {
	var events []*event.LogEvent
	for _, call := range r.Calls {
		events = append(events, call.Events...)
	}
	sort.Slice(events, func(i, j int) bool { return events[i].Seq < events[j].Seq })
	return events
}
