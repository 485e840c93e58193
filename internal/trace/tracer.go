package trace

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"
)

// Tracer receives events. Implementations must be safe for concurrent use.
type Tracer interface {
	Emit(ev *Event)
	Flush() error
	Close() error
	Level() Level
}

var seq atomic.Uint64

func nextSeq() uint64 { return seq.Add(1) }

type nopTracer struct{}

func (nopTracer) Emit(*Event)  {}
func (nopTracer) Flush() error { return nil }
func (nopTracer) Close() error { return nil }
func (nopTracer) Level() Level { return LevelOff }

// Nop drops every event.
var Nop Tracer = nopTracer{}

// Config describes the tracer built by New.
type Config struct {
	Level Level
	// Output receives the stream; "-" or empty means stderr.
	Output     io.Writer
	OutputPath string
	Format     Format
	// RingSize > 0 keeps the last RingSize events in memory as well.
	RingSize int
}

// New builds a tracer from cfg. LevelOff yields Nop.
func New(cfg Config) (Tracer, error) {
	if cfg.Level == LevelOff {
		return Nop, nil
	}
	w := cfg.Output
	if w == nil {
		if cfg.OutputPath == "" || cfg.OutputPath == "-" {
			w = os.Stderr
		} else {
			f, err := os.Create(cfg.OutputPath)
			if err != nil {
				return nil, fmt.Errorf("failed to open trace output: %w", err)
			}
			w = f
		}
	}
	format := cfg.Format
	if format == FormatAuto {
		format = FormatText
		if strings.HasSuffix(cfg.OutputPath, ".ndjson") || strings.HasSuffix(cfg.OutputPath, ".jsonl") {
			format = FormatNDJSON
		}
	}
	stream := NewStreamTracer(w, cfg.Level, format)
	if cfg.RingSize <= 0 {
		return stream, nil
	}
	return NewMultiTracer(stream, NewRingTracer(cfg.RingSize, cfg.Level)), nil
}

// MultiTracer fans events out to several tracers.
type MultiTracer struct {
	tracers []Tracer
	level   Level
}

// NewMultiTracer combines ts; its level is the finest of theirs.
func NewMultiTracer(ts ...Tracer) *MultiTracer {
	m := &MultiTracer{tracers: ts}
	for _, t := range ts {
		if t.Level() > m.level {
			m.level = t.Level()
		}
	}
	return m
}

func (m *MultiTracer) Emit(ev *Event) {
	for _, t := range m.tracers {
		if t.Level().Allows(ev.Scope) {
			cp := *ev
			t.Emit(&cp)
		}
	}
}

func (m *MultiTracer) Flush() error {
	var first error
	for _, t := range m.tracers {
		if err := t.Flush(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (m *MultiTracer) Close() error {
	var first error
	for _, t := range m.tracers {
		if err := t.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (m *MultiTracer) Level() Level { return m.level }

// Ring returns the first ring tracer among m's members, if any.
func (m *MultiTracer) Ring() *RingTracer {
	for _, t := range m.tracers {
		if r, ok := t.(*RingTracer); ok {
			return r
		}
	}
	return nil
}
