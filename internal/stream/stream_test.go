package stream

import (
	"strings"
	"testing"

	"github.com/setevik/fsanalyze/internal/classifier"
	"github.com/setevik/fsanalyze/internal/event"
)

const (
	chanA = "a4b3c2d1-0f1e-4a5b-8c7d-6e5f4a3b2c1d"
	chanB = "b5c4d3e2-1a2b-4c5d-9e8f-7a6b5c4d3e2f"
	chanC = "c6d5e4f3-2b3c-4d5e-af90-8b7c6d5e4f30"
)

func createLine(id, ts string) string {
	return id + " 2023-05-04 " + ts + " [NOTICE] switch_channel.c:1142 New Channel sofia/external/1001@10.0.0.1 [" + id + "]"
}

func TestNextYieldsEventsInFileOrder(t *testing.T) {
	input := strings.Join([]string{
		createLine(chanA, "10:00:00.000000"),
		createLine(chanB, "10:00:01.000000"),
		createLine(chanC, "10:00:02.000000"),
	}, "\n")

	b := New(strings.NewReader(input), classifier.New())

	var got []string
	for {
		ev, ok := b.Next()
		if !ok {
			break
		}
		got = append(got, ev.CallID)
	}

	want := []string{chanA, chanB, chanC}
	if len(got) != len(want) {
		t.Fatalf("got %d events, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d callID = %q, want %q", i, got[i], want[i])
		}
	}
	if b.Skipped() != 0 {
		t.Errorf("skipped = %d, want 0", b.Skipped())
	}
	if b.Lines() != 3 {
		t.Errorf("lines = %d, want 3", b.Lines())
	}
}

func TestSkippedCountsUnmatchedLines(t *testing.T) {
	// One unrecognized line among three valid creates for distinct ids.
	input := strings.Join([]string{
		createLine(chanA, "10:00:00.000000"),
		"2023-05-04 10:00:00.500000 [CONSOLE] switch_console.c:123 API CALL [status()]",
		createLine(chanB, "10:00:01.000000"),
		createLine(chanC, "10:00:02.000000"),
	}, "\n")

	b := New(strings.NewReader(input), classifier.New())

	var count int
	for {
		ev, ok := b.Next()
		if !ok {
			break
		}
		if ev == nil {
			t.Fatal("Next returned ok with nil event")
		}
		count++
	}

	if count != 3 {
		t.Errorf("events = %d, want 3", count)
	}
	if b.Skipped() != 1 {
		t.Errorf("skipped = %d, want 1", b.Skipped())
	}
	if b.Lines() != 4 {
		t.Errorf("lines = %d, want 4", b.Lines())
	}
}

func TestSeqTracksFilePosition(t *testing.T) {
	input := strings.Join([]string{
		"not a log line",
		createLine(chanA, "10:00:00.000000"),
		"also not a log line",
		createLine(chanB, "10:00:01.000000"),
	}, "\n")

	b := New(strings.NewReader(input), classifier.New())

	ev, ok := b.Next()
	if !ok {
		t.Fatal("expected first event")
	}
	if ev.Seq != 1 {
		t.Fatalf("first event seq = %d, want 1", ev.Seq)
	}
	ev, ok = b.Next()
	if !ok {
		t.Fatal("expected second event")
	}
	if ev.Seq != 3 {
		t.Fatalf("second event seq = %d, want 3", ev.Seq)
	}
}

func TestPartialConsumption(t *testing.T) {
	input := strings.Join([]string{
		createLine(chanA, "10:00:00.000000"),
		createLine(chanB, "10:00:01.000000"),
	}, "\n")

	b := New(strings.NewReader(input), classifier.New())

	ev, ok := b.Next()
	if !ok {
		t.Fatal("expected first event")
	}
	if ev.Kind != event.KindChannelCreate {
		t.Errorf("kind = %q", ev.Kind)
	}
	// Stopping here must leave counters consistent with what was read.
	if b.Lines() != 1 {
		t.Errorf("lines = %d, want 1", b.Lines())
	}
}

func TestEmptyInput(t *testing.T) {
	b := New(strings.NewReader(""), classifier.New())
	if _, ok := b.Next(); ok {
		t.Error("expected no events from empty input")
	}
	if b.Err() != nil {
		t.Errorf("err = %v", b.Err())
	}
}
