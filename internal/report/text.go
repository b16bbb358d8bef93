package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/setevik/fsanalyze/internal/correlator"
	"github.com/setevik/fsanalyze/internal/event"
	"github.com/setevik/fsanalyze/internal/format"
)

// TextFormatter renders reports as human-readable text.
type TextFormatter struct{}

// NewText creates a text formatter.
func NewText() *TextFormatter {
	return &TextFormatter{}
}

// Name returns the format name.
func (f *TextFormatter) Name() string {
	return "text"
}

// Format renders the report as text.
func (f *TextFormatter) Format(r *Report, mode Mode, w io.Writer) error {
	if mode == ModeEvents || mode == ModeAll {
		f.formatEvents(r.Events(), w)
	}
	if mode == ModeSummary || mode == ModeAll {
		f.formatSummary(r, w)
	}
	return nil
}

func (f *TextFormatter) formatEvents(events []*event.LogEvent, w io.Writer) {
	for _, ev := range events {
		ts := "??:??:??"
		if !ev.Timestamp.IsZero() {
			ts = ev.Timestamp.Format(format.TimestampLayout)
		}
		fmt.Fprintf(w, "%s  %-16s %s\n", ts, ev.Kind, ev.CallID)

		if len(ev.Fields) > 0 {
			fmt.Fprintf(w, "  %s\n", formatFields(ev.Fields))
		}
	}
	fmt.Fprintf(w, "Total: %d event(s)\n\n", len(events))
}

func (f *TextFormatter) formatSummary(r *Report, w io.Writer) {
	s := r.Summary

	fmt.Fprintln(w, "=== Call Summary ===")
	fmt.Fprintf(w, "Calls:         %d total, %d answered, %d unanswered, %d incomplete\n",
		s.TotalCalls, s.AnsweredCalls, s.UnansweredCalls, s.IncompleteCalls)
	fmt.Fprintf(w, "Direction:     %d inbound, %d outbound\n", s.InboundCalls, s.OutboundCalls)

	if s.Durations != nil {
		fmt.Fprintf(w, "Durations:     min %s, max %s, mean %s\n",
			format.Seconds(s.Durations.Min),
			format.Seconds(s.Durations.Max),
			format.Seconds(s.Durations.Mean))
	} else {
		fmt.Fprintln(w, "Durations:     n/a")
	}

	if len(s.HangupCauses) > 0 {
		fmt.Fprintf(w, "Hangup causes: %s\n", formatHistogram(s.HangupCauses))
	}

	if !s.LogStart.IsZero() {
		fmt.Fprintf(w, "Log period:    %s (%s - %s)\n",
			format.Seconds(s.LogPeriodSeconds),
			s.LogStart.Format("15:04:05"),
			s.LogEnd.Format("15:04:05"))
		fmt.Fprintf(w, "Call rate:     %.3f calls/s\n", s.CallsPerSecond)
	}
	if s.AvgIdleCPU >= 0 {
		fmt.Fprintf(w, "Avg idle CPU:  %.1f%%\n", s.AvgIdleCPU)
	}

	fmt.Fprintf(w, "Lines:         %d read, %d skipped, %d uncorrelated\n",
		r.LinesRead, r.SkippedLines, r.Uncorrelated)

	if anomalies := countAnomalies(r.Calls); anomalies > 0 {
		fmt.Fprintf(w, "Anomalies:     %d\n", anomalies)
	}
}

// formatFields renders an event field map as "k=v k=v", keys sorted for
// deterministic output.
func formatFields(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%s", k, fields[k])
	}
	return strings.Join(parts, " ")
}

// formatHistogram turns a cause histogram into "CAUSE x2, CAUSE x1" sorted
// by count descending, ties by name.
func formatHistogram(m map[string]int) string {
	type entry struct {
		name  string
		count int
	}

	entries := make([]entry, 0, len(m))
	for name, count := range m {
		entries = append(entries, entry{name, count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].name < entries[j].name
	})

	parts := make([]string, len(entries))
	for i, e := range entries {
		parts[i] = fmt.Sprintf("%s x%d", e.name, e.count)
	}
	return strings.Join(parts, ", ")
}

func countAnomalies(calls []*correlator.Call) int {
	var n int
	for _, call := range calls {
		n += len(call.Anomalies)
	}
	return n
}
