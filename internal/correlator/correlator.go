// Package correlator groups classified events into per-call records and
// tracks each call's lifecycle state.
package correlator

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/setevik/fsanalyze/internal/event"
)

// Correlator consumes an event sequence and builds Call records keyed by
// channel UUID. State lives on the instance, so multiple analyses can run
// in one process without interference.
type Correlator struct {
	calls map[string]*Call
	// order preserves first-seen order for deterministic output.
	order        []string
	uncorrelated int
}

// New creates an empty Correlator.
func New() *Correlator {
	return &Correlator{calls: make(map[string]*Call)}
}

// Process ingests one event. Events without a call id are counted but not
// correlated. All open calls are retained for the duration of processing;
// correlation is file-scoped, not a long-running service.
func (c *Correlator) Process(ev *event.LogEvent) {
	if ev.CallID == "" {
		c.uncorrelated++
		return
	}

	call, ok := c.calls[ev.CallID]
	if !ok {
		call = &Call{
			ID:             ev.CallID,
			State:          StateCreated,
			FirstSeen:      ev.Timestamp,
			TruncatedStart: ev.Kind != event.KindChannelCreate,
		}
		c.calls[ev.CallID] = call
		c.order = append(c.order, ev.CallID)
	}

	call.Events = append(call.Events, ev)

	// A terminal call stays read-only time-wise: late duplicates must not
	// shift its duration.
	if !ev.Timestamp.IsZero() && !call.State.Terminal() {
		if call.FirstSeen.IsZero() {
			call.FirstSeen = ev.Timestamp
		}
		if ev.Timestamp.After(call.LastSeen) {
			call.LastSeen = ev.Timestamp
		}
	}

	if ev.Kind.Lifecycle() {
		// The create event that opened the call is the initial state, not
		// a transition.
		if !(ev.Kind == event.KindChannelCreate && len(call.Events) == 1) {
			c.transition(call, ev)
		}
	}

	c.absorbFields(call, ev)
}

// transition advances the call state, or records an anomaly when the event
// points at or behind the current state. Freeswitch logs can contain
// duplicate or retransmitted lines, so regressions are never fatal.
func (c *Correlator) transition(call *Call, ev *event.LogEvent) {
	target := transitions[ev.Kind]

	if target.rank() <= call.State.rank() {
		anomaly := fmt.Sprintf("%s event in state %s (line %d)", ev.Kind, call.State, ev.Seq)
		call.Anomalies = append(call.Anomalies, anomaly)
		slog.Debug("ignoring backward lifecycle event",
			"call_id", call.ID,
			"kind", ev.Kind,
			"state", call.State,
			"seq", ev.Seq,
		)
		return
	}

	call.State = target

	if target == StateAnswered {
		call.answered = true
	}
	if target.Terminal() {
		if !call.FirstSeen.IsZero() && !call.LastSeen.IsZero() {
			call.Duration = call.LastSeen.Sub(call.FirstSeen).Seconds()
			call.DurationKnown = true
		}
	}
}

// absorbFields copies kind-specific and opportunistic fields onto the call.
// Auxiliary fields are accepted regardless of the current state.
func (c *Correlator) absorbFields(call *Call, ev *event.LogEvent) {
	if call.HangupCause == "" {
		if cause, ok := ev.Fields["cause"]; ok {
			call.HangupCause = cause
		}
	}
	if call.Direction == "" {
		call.Direction = ev.Fields["direction"]
	}
	if call.Caller == "" {
		call.Caller = ev.Fields["caller"]
	}
	if call.ClientIP == "" {
		call.ClientIP = ev.Fields["client_ip"]
	}
	if call.Codec == "" {
		call.Codec = ev.Fields["codec"]
	}

	if idle, ok := ev.Fields["cpu_idle"]; ok {
		if v, err := strconv.ParseFloat(idle, 64); err == nil {
			call.CPUIdle = v
			call.CPUIdleKnown = true
		}
	}

	switch ev.Kind {
	case event.KindCallstateChange:
		call.CallstateChanges = append(call.CallstateChanges, ev.Fields["callstate"])
	case event.KindPlayback:
		call.Playbacks = append(call.Playbacks, ev.Fields["file"])
	case event.KindDTMF:
		call.DTMFs = append(call.DTMFs, ev.Fields["digit"])
	}
}

// Calls returns all calls in first-seen order. The result is valid at any
// point of partial consumption; the correlator never assumes the stream
// reached end-of-file.
func (c *Correlator) Calls() []*Call {
	calls := make([]*Call, 0, len(c.order))
	for _, id := range c.order {
		calls = append(calls, c.calls[id])
	}
	return calls
}

// Uncorrelated returns the number of processed events that carried no call id.
func (c *Correlator) Uncorrelated() int {
	return c.uncorrelated
}
