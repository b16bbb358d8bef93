// Package classifier matches Freeswitch log lines to typed events using
// pattern matching. The recognized line grammar is documented in patterns.go.
package classifier

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/setevik/fsanalyze/internal/event"
)

// timestampLayout matches the Freeswitch log timestamp, e.g.
// "2023-05-04 10:22:33.123456".
const timestampLayout = "2006-01-02 15:04:05.999999"

// Classifier turns raw log lines into LogEvents. It is stateless and
// deterministic: the same line always yields the same classification.
type Classifier struct{}

// New creates a Classifier.
func New() *Classifier {
	return &Classifier{}
}

// Classify examines one log line and returns a classified LogEvent, or nil
// if the line is not a call-scoped log line at all (no leading channel
// UUID). seq is the zero-based file position of the line.
//
// A line that frames correctly but matches no body pattern, or matches one
// without its required fields, is returned as KindOther with best-effort
// fields rather than discarded.
func (c *Classifier) Classify(line string, seq int) *event.LogEvent {
	line = strings.TrimRight(line, "\r\n")

	parts := strings.SplitN(line, " ", 4)
	if len(parts) < 3 {
		return nil
	}

	id, err := uuid.Parse(parts[0])
	if err != nil {
		// Continuation or server-scoped line; carries no call identity.
		return nil
	}

	// Timestamp parse failure still yields an event; downstream ordering
	// falls back to seq.
	var ts time.Time
	if t, err := time.Parse(timestampLayout, parts[1]+" "+parts[2]); err == nil {
		ts = t
	}

	body := ""
	if len(parts) == 4 {
		body = parts[3]
	}

	ev := event.New(event.KindOther, id.String(), ts, line, seq)

	for _, p := range bodyPatterns {
		m := p.re.FindStringSubmatch(body)
		if m == nil {
			continue
		}

		complete := true
		for i, name := range p.fields {
			if i+1 < len(m) && m[i+1] != "" {
				ev.Fields[name] = m[i+1]
			} else if p.required {
				complete = false
			}
		}

		if complete {
			ev.Kind = event.Kind(p.kind)
		}
		break
	}

	switch ev.Kind {
	case event.KindInviteIn:
		ev.Fields["direction"] = "inbound"
	case event.KindInviteOut:
		ev.Fields["direction"] = "outbound"
	case event.KindCallstateChange:
		if m := stateArrowRe.FindStringSubmatch(ev.Fields["callstate"]); m != nil {
			ev.Fields["state_before"] = m[1]
			ev.Fields["state_after"] = m[2]
		}
	}

	extractCommon(body, ev)

	return ev
}

// extractCommon pulls values that can appear on any line regardless of its
// kind: idle CPU percentage, calling party number, inbound client IP.
func extractCommon(body string, ev *event.LogEvent) {
	if m := cpuIdleRe.FindStringSubmatch(body); m != nil {
		ev.Fields["cpu_idle"] = m[1]
	}
	if m := callerRe.FindStringSubmatch(body); m != nil {
		ev.Fields["caller"] = m[1]
	}
	if m := clientIPRe.FindStringSubmatch(body); m != nil {
		ev.Fields["client_ip"] = m[1]
	}
}
