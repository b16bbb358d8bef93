package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/setevik/fsanalyze/internal/classifier"
	"github.com/setevik/fsanalyze/internal/correlator"
	"github.com/setevik/fsanalyze/internal/stream"
	"github.com/setevik/fsanalyze/internal/summary"
)

const (
	chanA = "a4b3c2d1-0f1e-4a5b-8c7d-6e5f4a3b2c1d"
	chanB = "b5c4d3e2-1a2b-4c5d-9e8f-7a6b5c4d3e2f"
)

var sampleLog = strings.Join([]string{
	chanA + " 2023-05-04 10:00:00.000000 [NOTICE] switch_channel.c:1142 New Channel sofia/external/1001@10.0.0.1 [" + chanA + "]",
	chanB + " 2023-05-04 10:00:01.000000 [NOTICE] switch_channel.c:1142 New Channel sofia/external/2002@10.0.0.2 [" + chanB + "]",
	chanA + " 2023-05-04 10:00:02.000000 [NOTICE] sofia.c:8412 Channel [sofia/external/1001@10.0.0.1] has been answered",
	"2023-05-04 10:00:02.500000 [CONSOLE] switch_console.c:123 API CALL [status()]",
	chanA + " 2023-05-04 10:00:10.000000 [NOTICE] switch_channel.c:3812 Hangup sofia/external/1001@10.0.0.1 [CS_EXECUTE] [NORMAL_CLEARING]",
	chanA + " 2023-05-04 10:00:10.000000 [NOTICE] switch_core_session.c:1744 Close Channel sofia/external/1001@10.0.0.1 [CS_DESTROY]",
}, "\n")

// run pushes the sample log through the full pipeline.
func run(t *testing.T, input string) *Report {
	t.Helper()

	b := stream.New(strings.NewReader(input), classifier.New())
	corr := correlator.New()
	for {
		ev, ok := b.Next()
		if !ok {
			break
		}
		corr.Process(ev)
	}

	calls := corr.Calls()
	return &Report{
		Calls:        calls,
		Summary:      summary.Build(calls),
		LinesRead:    b.Lines(),
		SkippedLines: b.Skipped(),
		Uncorrelated: corr.Uncorrelated(),
	}
}

func TestEventsInFileOrder(t *testing.T) {
	r := run(t, sampleLog)

	events := r.Events()
	if len(events) != 5 {
		t.Fatalf("events = %d, want 5", len(events))
	}
	for i := 1; i < len(events); i++ {
		if events[i].Seq <= events[i-1].Seq {
			t.Errorf("events out of file order at %d: seq %d after %d", i, events[i].Seq, events[i-1].Seq)
		}
	}
}

func TestTextFormatModes(t *testing.T) {
	r := run(t, sampleLog)
	f := NewText()

	var events, sum, all bytes.Buffer
	if err := f.Format(r, ModeEvents, &events); err != nil {
		t.Fatal(err)
	}
	if err := f.Format(r, ModeSummary, &sum); err != nil {
		t.Fatal(err)
	}
	if err := f.Format(r, ModeAll, &all); err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(events.String(), "CHANNEL_CREATE") {
		t.Error("events output missing CHANNEL_CREATE")
	}
	if strings.Contains(events.String(), "Call Summary") {
		t.Error("events mode must not include the summary")
	}
	if !strings.Contains(sum.String(), "Call Summary") {
		t.Error("summary output missing header")
	}
	if !strings.Contains(sum.String(), "NORMAL_CLEARING x1") {
		t.Errorf("summary output missing cause histogram:\n%s", sum.String())
	}
	if !strings.Contains(sum.String(), "1 skipped") {
		t.Errorf("summary output missing skipped count:\n%s", sum.String())
	}
	if all.Len() <= events.Len() || all.Len() <= sum.Len() {
		t.Error("all mode should include both sections")
	}
}

func TestJSONFormatModes(t *testing.T) {
	r := run(t, sampleLog)
	f := NewJSON()

	var buf bytes.Buffer
	if err := f.Format(r, ModeAll, &buf); err != nil {
		t.Fatal(err)
	}
	out := buf.String()

	for _, want := range []string{`"events"`, `"calls"`, `"summary"`, `"NORMAL_CLEARING"`, chanA} {
		if !strings.Contains(out, want) {
			t.Errorf("json output missing %s", want)
		}
	}

	buf.Reset()
	if err := f.Format(r, ModeSummary, &buf); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), `"events"`) {
		t.Error("summary mode must not include events")
	}
}

func TestOutputIdempotent(t *testing.T) {
	// Re-running the pipeline on the same input yields byte-identical output.
	for _, f := range []Formatter{NewText(), NewJSON()} {
		var first, second bytes.Buffer

		if err := f.Format(run(t, sampleLog), ModeAll, &first); err != nil {
			t.Fatal(err)
		}
		if err := f.Format(run(t, sampleLog), ModeAll, &second); err != nil {
			t.Fatal(err)
		}

		if !bytes.Equal(first.Bytes(), second.Bytes()) {
			t.Errorf("%s output differs between identical runs", f.Name())
		}
	}
}

func TestSummaryCounts(t *testing.T) {
	r := run(t, sampleLog)

	if r.SkippedLines != 1 {
		t.Errorf("skipped = %d, want 1", r.SkippedLines)
	}
	if r.Summary.TotalCalls != 2 {
		t.Errorf("totalCalls = %d, want 2", r.Summary.TotalCalls)
	}
	if r.Summary.IncompleteCalls != 1 {
		t.Errorf("incompleteCalls = %d, want 1", r.Summary.IncompleteCalls)
	}
	if r.Summary.HangupCauses["NORMAL_CLEARING"] != 1 {
		t.Errorf("hangupCauses = %v", r.Summary.HangupCauses)
	}
}
