package report

import (
	"encoding/json"
	"io"
	"time"

	"github.com/setevik/fsanalyze/internal/correlator"
	"github.com/setevik/fsanalyze/internal/event"
	"github.com/setevik/fsanalyze/internal/summary"
)

// JSONFormatter renders reports as indented JSON.
type JSONFormatter struct{}

// NewJSON creates a JSON formatter.
func NewJSON() *JSONFormatter {
	return &JSONFormatter{}
}

// Name returns the format name.
func (f *JSONFormatter) Name() string {
	return "json"
}

// eventJSON is the wire shape of a LogEvent.
type eventJSON struct {
	Seq       int               `json:"seq"`
	Timestamp *time.Time        `json:"timestamp,omitempty"`
	CallID    string            `json:"call_id,omitempty"`
	Kind      event.Kind        `json:"kind"`
	Fields    map[string]string `json:"fields,omitempty"`
}

// callJSON is the wire shape of a Call.
type callJSON struct {
	ID             string            `json:"id"`
	State          correlator.State  `json:"state"`
	FirstSeen      *time.Time        `json:"first_seen,omitempty"`
	LastSeen       *time.Time        `json:"last_seen,omitempty"`
	HangupCause    string            `json:"hangup_cause,omitempty"`
	Duration       *float64          `json:"duration_seconds,omitempty"`
	TruncatedStart bool              `json:"truncated_start,omitempty"`
	Direction      string            `json:"direction,omitempty"`
	Caller         string            `json:"caller,omitempty"`
	ClientIP       string            `json:"client_ip,omitempty"`
	Codec          string            `json:"codec,omitempty"`
	Callstates     []string          `json:"callstate_changes,omitempty"`
	Playbacks      []string          `json:"playbacks,omitempty"`
	DTMFs          []string          `json:"dtmfs,omitempty"`
	Anomalies      []string          `json:"anomalies,omitempty"`
	EventCount     int               `json:"event_count"`
}

// Format renders the report as JSON. Map keys are emitted sorted, so
// identical input yields byte-identical output.
func (f *JSONFormatter) Format(r *Report, mode Mode, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	switch mode {
	case ModeEvents:
		return enc.Encode(eventsJSON(r.Events()))
	case ModeSummary:
		return enc.Encode(r.Summary)
	default:
		return enc.Encode(struct {
			Events       []eventJSON      `json:"events"`
			Calls        []callJSON       `json:"calls"`
			Summary      *summary.Summary `json:"summary"`
			LinesRead    int              `json:"lines_read"`
			SkippedLines int              `json:"skipped_lines"`
			Uncorrelated int              `json:"uncorrelated_events"`
		}{
			Events:       eventsJSON(r.Events()),
			Calls:        callsJSON(r.Calls),
			Summary:      r.Summary,
			LinesRead:    r.LinesRead,
			SkippedLines: r.SkippedLines,
			Uncorrelated: r.Uncorrelated,
		})
	}
}

func eventsJSON(events []*event.LogEvent) []eventJSON {
	out := make([]eventJSON, len(events))
	for i, ev := range events {
		out[i] = eventJSON{
			Seq:       ev.Seq,
			Timestamp: optTime(ev.Timestamp),
			CallID:    ev.CallID,
			Kind:      ev.Kind,
			Fields:    ev.Fields,
		}
	}
	return out
}

func callsJSON(calls []*correlator.Call) []callJSON {
	out := make([]callJSON, len(calls))
	for i, call := range calls {
		c := callJSON{
			ID:             call.ID,
			State:          call.State,
			FirstSeen:      optTime(call.FirstSeen),
			LastSeen:       optTime(call.LastSeen),
			HangupCause:    call.HangupCause,
			TruncatedStart: call.TruncatedStart,
			Direction:      call.Direction,
			Caller:         call.Caller,
			ClientIP:       call.ClientIP,
			Codec:          call.Codec,
			Callstates:     call.CallstateChanges,
			Playbacks:      call.Playbacks,
			DTMFs:          call.DTMFs,
			Anomalies:      call.Anomalies,
			EventCount:     len(call.Events),
		}
		if call.DurationKnown {
			d := call.Duration
			c.Duration = &d
		}
		out[i] = c
	}
	return out
}

func optTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
