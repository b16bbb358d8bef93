package correlator

import (
	"time"

	"github.com/setevik/fsanalyze/internal/event"
)

// State is the lifecycle state of a call.
type State string

const (
	StateCreated        State = "CREATED"
	StateAnswered       State = "ANSWERED"
	StateHangupReceived State = "HANGUP_RECEIVED"
	StateDestroyed      State = "DESTROYED"
)

// rank orders states so transitions can only move forward.
func (s State) rank() int {
	switch s {
	case StateCreated:
		return 0
	case StateAnswered:
		return 1
	case StateHangupReceived:
		return 2
	case StateDestroyed:
		return 3
	default:
		return -1
	}
}

// Terminal reports whether the state closes the call.
func (s State) Terminal() bool {
	return s == StateDestroyed
}

// transitions maps lifecycle event kinds to their target state.
var transitions = map[event.Kind]State{
	event.KindChannelCreate:  StateCreated,
	event.KindChannelAnswer:  StateAnswered,
	event.KindChannelHangup:  StateHangupReceived,
	event.KindChannelDestroy: StateDestroyed,
}

// Call aggregates all events for one channel UUID. It is owned by the
// Correlator while the stream is being consumed and must be treated as
// read-only by everything downstream.
type Call struct {
	ID        string
	State     State
	FirstSeen time.Time
	LastSeen  time.Time
	// Events in file order.
	Events []*event.LogEvent

	// HangupCause is set once, from the first hangup event carrying one.
	HangupCause string
	// Duration is LastSeen - FirstSeen in seconds, defined only when the
	// call reached a terminal state with both timestamps known.
	Duration      float64
	DurationKnown bool
	// TruncatedStart marks a call whose first observed event was not a
	// channel create (log started mid-call).
	TruncatedStart bool

	Direction string
	Caller    string
	ClientIP  string
	Codec     string
	// CPUIdle is the most recent idle-CPU percentage seen on this call's
	// lines.
	CPUIdle      float64
	CPUIdleKnown bool

	CallstateChanges []string
	Playbacks        []string
	DTMFs            []string

	// Anomalies records out-of-order or duplicate lifecycle events.
	Anomalies []string

	// answered is set when the call actually visits ANSWERED. A call that
	// hangs up straight from CREATED ends DESTROYED without ever being
	// answered, so the final state alone cannot tell the two apart.
	answered bool
}

// Answered reports whether the call ever reached the answered state.
func (c *Call) Answered() bool {
	return c.answered
}

// Incomplete reports whether the call was still open when the stream ended.
func (c *Call) Incomplete() bool {
	return !c.State.Terminal()
}
