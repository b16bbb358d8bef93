// Package summary computes aggregate statistics over a set of call records.
package summary

import (
	"time"

	"github.com/setevik/fsanalyze/internal/correlator"
)

// DurationStats holds min/max/mean over calls with a defined duration.
type DurationStats struct {
	Min  float64 `json:"min_seconds"`
	Max  float64 `json:"max_seconds"`
	Mean float64 `json:"mean_seconds"`
}

// Summary is a derived snapshot over a call set. It can be recomputed at
// any time, including from a partially consumed stream.
type Summary struct {
	TotalCalls      int `json:"total_calls"`
	AnsweredCalls   int `json:"answered_calls"`
	UnansweredCalls int `json:"unanswered_calls"`
	IncompleteCalls int `json:"incomplete_calls"`
	InboundCalls    int `json:"inbound_calls"`
	OutboundCalls   int `json:"outbound_calls"`

	// Durations is nil when no call has a defined duration.
	Durations *DurationStats `json:"durations,omitempty"`

	// HangupCauses counts causes over terminated calls; a terminated call
	// without a recorded cause lands in the "unknown" bucket.
	HangupCauses map[string]int `json:"hangup_causes"`

	LogStart         time.Time `json:"log_start,omitzero"`
	LogEnd           time.Time `json:"log_end,omitzero"`
	LogPeriodSeconds float64   `json:"log_period_seconds"`
	CallsPerSecond   float64   `json:"calls_per_second"`

	// AvgIdleCPU averages the idle-CPU readings seen on call lines. -1
	// when no reading was available.
	AvgIdleCPU float64 `json:"avg_idle_cpu"`
}

// Build computes a Summary from the given calls. Pure function: it never
// mutates the calls and the same input always yields the same output.
func Build(calls []*correlator.Call) *Summary {
	s := &Summary{
		HangupCauses: make(map[string]int),
		AvgIdleCPU:   -1,
	}

	var (
		durSum   float64
		durCount int
		cpuSum   float64
		cpuCount int
	)

	for _, call := range calls {
		s.TotalCalls++

		if call.Answered() {
			s.AnsweredCalls++
		} else {
			s.UnansweredCalls++
		}
		if call.Incomplete() {
			s.IncompleteCalls++
		}

		switch call.Direction {
		case "inbound":
			s.InboundCalls++
		case "outbound":
			s.OutboundCalls++
		}

		if call.DurationKnown {
			if s.Durations == nil {
				s.Durations = &DurationStats{Min: call.Duration, Max: call.Duration}
			} else {
				if call.Duration < s.Durations.Min {
					s.Durations.Min = call.Duration
				}
				if call.Duration > s.Durations.Max {
					s.Durations.Max = call.Duration
				}
			}
			durSum += call.Duration
			durCount++
		}

		if call.State.Terminal() {
			cause := call.HangupCause
			if cause == "" {
				cause = "unknown"
			}
			s.HangupCauses[cause]++
		}

		if call.CPUIdleKnown {
			cpuSum += call.CPUIdle
			cpuCount++
		}

		if !call.FirstSeen.IsZero() {
			if s.LogStart.IsZero() || call.FirstSeen.Before(s.LogStart) {
				s.LogStart = call.FirstSeen
			}
		}
		if call.LastSeen.After(s.LogEnd) {
			s.LogEnd = call.LastSeen
		}
	}

	if durCount > 0 {
		s.Durations.Mean = durSum / float64(durCount)
	}
	if cpuCount > 0 {
		s.AvgIdleCPU = cpuSum / float64(cpuCount)
	}
	if !s.LogStart.IsZero() && !s.LogEnd.IsZero() {
		s.LogPeriodSeconds = s.LogEnd.Sub(s.LogStart).Seconds()
		if s.LogPeriodSeconds > 0 {
			s.CallsPerSecond = float64(s.TotalCalls) / s.LogPeriodSeconds
		}
	}

	return s
}
