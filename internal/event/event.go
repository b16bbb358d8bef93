// Package event defines the core data model for classified Freeswitch log events.
package event

import "time"

// Kind classifies the type of log event.
type Kind string

const (
	// Lifecycle kinds drive the call state machine.
	KindChannelCreate  Kind = "CHANNEL_CREATE"
	KindChannelAnswer  Kind = "CHANNEL_ANSWER"
	KindChannelHangup  Kind = "CHANNEL_HANGUP"
	KindChannelDestroy Kind = "CHANNEL_DESTROY"

	// Auxiliary kinds carry per-call detail but never change call state.
	KindInviteIn        Kind = "INVITE_IN"
	KindInviteOut       Kind = "INVITE_OUT"
	KindCodec           Kind = "CODEC"
	KindCallstateChange Kind = "CALLSTATE_CHANGE"
	KindStateChange     Kind = "STATE_CHANGE"
	KindPlayback        Kind = "PLAYBACK"
	KindDTMF            Kind = "DTMF"

	// KindOther marks a structurally valid log line that matched no
	// specific pattern, or a matched line whose field extraction failed.
	KindOther Kind = "OTHER"
)

// LogEvent is one classified log line. Created once by the classifier and
// never mutated afterwards.
type LogEvent struct {
	// Timestamp is the parsed line timestamp. Zero if the line matched but
	// its timestamp could not be parsed; ordering then falls back to Seq.
	Timestamp time.Time
	// CallID is the channel UUID the line belongs to. Empty for lines that
	// carry no call identity.
	CallID string
	Kind   Kind
	// Raw is the original line text, retained for diagnostics.
	Raw string
	// Fields holds kind-specific extracted values (hangup cause, codec,
	// DTMF digit, ...).
	Fields map[string]string
	// Seq is the zero-based file position of the line.
	Seq int
}

// New creates a LogEvent with an initialized field map.
func New(kind Kind, callID string, ts time.Time, raw string, seq int) *LogEvent {
	return &LogEvent{
		Timestamp: ts,
		CallID:    callID,
		Kind:      kind,
		Raw:       raw,
		Fields:    make(map[string]string),
		Seq:       seq,
	}
}

// Lifecycle reports whether the kind participates in call state transitions.
func (k Kind) Lifecycle() bool {
	switch k {
	case KindChannelCreate, KindChannelAnswer, KindChannelHangup, KindChannelDestroy:
		return true
	}
	return false
}

// Label returns a human-readable label for the kind.
func (k Kind) Label() string {
	switch k {
	case KindChannelCreate:
		return "channel create"
	case KindChannelAnswer:
		return "channel answer"
	case KindChannelHangup:
		return "channel hangup"
	case KindChannelDestroy:
		return "channel destroy"
	case KindInviteIn:
		return "inbound invite"
	case KindInviteOut:
		return "outbound invite"
	case KindCodec:
		return "codec set"
	case KindCallstateChange:
		return "callstate change"
	case KindStateChange:
		return "state change"
	case KindPlayback:
		return "playback"
	case KindDTMF:
		return "dtmf"
	case KindOther:
		return "other"
	default:
		return string(k)
	}
}
