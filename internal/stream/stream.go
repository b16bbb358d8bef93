// Package stream turns a reader of raw log lines into a lazy, single-pass
// sequence of classified events.
package stream

import (
	"bufio"
	"io"
	"log/slog"

	"github.com/setevik/fsanalyze/internal/classifier"
	"github.com/setevik/fsanalyze/internal/event"
)

// Builder iterates log lines in file order and classifies each one. It
// holds no more than one line in memory, so arbitrarily large logs are
// supported. A Builder is single-pass and not restartable.
type Builder struct {
	scanner *bufio.Scanner
	cls     *classifier.Classifier
	lines   int
	skipped int
	err     error
}

// New creates a Builder reading from r.
func New(r io.Reader, cls *classifier.Classifier) *Builder {
	scanner := bufio.NewScanner(r)
	// Freeswitch lines can be long (SIP dumps); increase buffer to 1MB.
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	return &Builder{scanner: scanner, cls: cls}
}

// Next returns the next classified event, or false when the stream is
// exhausted. Lines yielding no event are skipped and counted.
func (b *Builder) Next() (*event.LogEvent, bool) {
	for b.scanner.Scan() {
		line := b.scanner.Text()
		seq := b.lines
		b.lines++

		ev := b.cls.Classify(line, seq)
		if ev == nil {
			b.skipped++
			slog.Debug("skipping unclassifiable line", "seq", seq)
			continue
		}
		return ev, true
	}

	if err := b.scanner.Err(); err != nil {
		b.err = err
		slog.Warn("log scanner error", "error", err)
	}
	return nil, false
}

// Lines returns the number of lines read so far.
func (b *Builder) Lines() int {
	return b.lines
}

// Skipped returns the number of lines read so far that yielded no event.
func (b *Builder) Skipped() int {
	return b.skipped
}

// Err returns the scanner error that ended the stream, if any.
func (b *Builder) Err() error {
	return b.err
}
