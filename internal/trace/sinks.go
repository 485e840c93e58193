package trace

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"sync"
)

// Format is the encoding of streamed events.
type Format uint8

const (
	FormatAuto Format = iota
	FormatText
	FormatNDJSON
)

// ParseFormat accepts auto, text and ndjson.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "auto":
		return FormatAuto, nil
	case "text":
		return FormatText, nil
	case "ndjson", "json":
		return FormatNDJSON, nil
	}
	return FormatAuto, fmt.Errorf("invalid trace format %q (expected auto|text|ndjson)", s)
}

// Encode renders ev as one line in format f.
func Encode(ev *Event, f Format) []byte {
	if f == FormatNDJSON {
		rec := struct {
			Seq     uint64            `json:"seq"`
			Time    int64             `json:"ts"`
			Kind    string            `json:"kind"`
			Scope   string            `json:"scope"`
			Span    uint64            `json:"span,omitempty"`
			Parent  uint64            `json:"parent,omitempty"`
			Name    string            `json:"name"`
			Detail  string            `json:"detail,omitempty"`
			Elapsed int64             `json:"elapsed_ns,omitempty"`
			Extra   map[string]string `json:"extra,omitempty"`
		}{ev.Seq, ev.Time.UnixNano(), ev.Kind.String(), ev.Scope.String(), ev.SpanID, ev.ParentID,
			ev.Name, ev.Detail, ev.Elapsed.Nanoseconds(), ev.Extra}
		data, err := json.Marshal(rec)
		if err != nil {
			return nil
		}
		return append(data, '\n')
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s %-5s %-5s %s", ev.Time.Format("15:04:05.000000"), ev.Kind, ev.Scope, ev.Name)
	if ev.Kind == KindEnd {
		fmt.Fprintf(&b, " (%s)", ev.Elapsed)
	}
	if ev.Detail != "" {
		b.WriteString(" ")
		b.WriteString(ev.Detail)
	}
	for _, k := range slices.Sorted(maps.Keys(ev.Extra)) {
		fmt.Fprintf(&b, " %s=%s", k, ev.Extra[k])
	}
	b.WriteByte('\n')
	return []byte(b.String())
}

// StreamTracer writes every event to w as it arrives.
type StreamTracer struct {
	mu     sync.Mutex
	w      io.Writer
	level  Level
	format Format
}

func NewStreamTracer(w io.Writer, level Level, format Format) *StreamTracer {
	if format == FormatAuto {
		format = FormatText
	}
	return &StreamTracer{w: w, level: level, format: format}
}

func (t *StreamTracer) Emit(ev *Event) {
	if !t.level.Allows(ev.Scope) {
		return
	}
	data := Encode(ev, t.format)
	t.mu.Lock()
	defer t.mu.Unlock()
	// ошибки записи трассы не должны ронять сборку
	_, _ = t.w.Write(data)
}

func (t *StreamTracer) Flush() error {
	if f, ok := t.w.(interface{ Flush() error }); ok {
		return f.Flush()
	}
	return nil
}

func (t *StreamTracer) Close() error {
	if err := t.Flush(); err != nil {
		return err
	}
	if c, ok := t.w.(io.Closer); ok && !isStdStream(t.w) {
		return c.Close()
	}
	return nil
}

func (t *StreamTracer) Level() Level { return t.level }

func isStdStream(w io.Writer) bool {
	type named interface{ Name() string }
	n, ok := w.(named)
	return ok && (n.Name() == "/dev/stderr" || n.Name() == "/dev/stdout")
}

// RingTracer keeps the last events in memory.
type RingTracer struct {
	mu     sync.Mutex
	events []Event
	head   int
	full   bool
	level  Level
}

func NewRingTracer(capacity int, level Level) *RingTracer {
	if capacity <= 0 {
		capacity = 1024
	}
	return &RingTracer{events: make([]Event, capacity), level: level}
}

func (t *RingTracer) Emit(ev *Event) {
	if !t.level.Allows(ev.Scope) {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events[t.head] = *ev
	t.head = (t.head + 1) % len(t.events)
	if t.head == 0 {
		t.full = true
	}
}

// Events returns the stored events, oldest first.
func (t *RingTracer) Events() []Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.full {
		return slices.Clone(t.events[:t.head])
	}
	out := make([]Event, 0, len(t.events))
	out = append(out, t.events[t.head:]...)
	return append(out, t.events[:t.head]...)
}

// Dump writes the stored events to w.
func (t *RingTracer) Dump(w io.Writer, f Format) error {
	for _, ev := range t.Events() {
		if _, err := w.Write(Encode(&ev, f)); err != nil {
			return err
		}
	}
	return nil
}

func (t *RingTracer) Flush() error { return nil }
func (t *RingTracer) Close() error { return nil }
func (t *RingTracer) Level() Level { return t.level }
