package ui

import (
	"sync"
	"time"

	"lantern/internal/diag"
	"lantern/internal/driver"
)

// Status captures the progress state of one file.
type Status string

const (
	// StatusQueued indicates the file is waiting to be built.
	StatusQueued Status = "queued"
	// StatusBuilding indicates the file is being built.
	StatusBuilding Status = "building"
	// StatusClean indicates the build produced no warnings or errors.
	StatusClean Status = "clean"
	// StatusWarnings indicates the build produced warnings only.
	StatusWarnings Status = "warnings"
	// StatusErrors indicates the build produced errors.
	StatusErrors Status = "errors"
	// StatusFailed indicates no AST could be built.
	StatusFailed Status = "failed"
)

// Finished reports whether s is a final state.
func (s Status) Finished() bool {
	switch s {
	case StatusClean, StatusWarnings, StatusErrors, StatusFailed:
		return true
	}
	return false
}

// Event reports progress for a file.
type Event struct {
	File     string
	Status   Status
	Warnings int
	Errors   int
	Err      error
	Elapsed  time.Duration
}

// ChannelSink forwards driver progress into a channel as events.
type ChannelSink struct {
	Ch chan<- Event

	mu     sync.Mutex
	starts map[string]time.Time
}

// Started implements driver.Progress.
func (s *ChannelSink) Started(path string) {
	s.mu.Lock()
	if s.starts == nil {
		s.starts = make(map[string]time.Time)
	}
	s.starts[path] = time.Now()
	s.mu.Unlock()
	s.send(Event{File: path, Status: StatusBuilding})
}

// Finished implements driver.Progress.
func (s *ChannelSink) Finished(r *driver.Result) {
	ev := Event{File: r.Path, Err: r.Err}
	s.mu.Lock()
	if start, ok := s.starts[r.Path]; ok {
		ev.Elapsed = time.Since(start)
	}
	s.mu.Unlock()
	if r.Fatal() {
		ev.Status = StatusFailed
		s.send(ev)
		return
	}
	ev.Warnings, ev.Errors = Count(r.Diagnostics)
	switch {
	case ev.Errors > 0:
		ev.Status = StatusErrors
	case ev.Warnings > 0:
		ev.Status = StatusWarnings
	default:
		ev.Status = StatusClean
	}
	s.send(ev)
}

func (s *ChannelSink) send(ev Event) {
	if s.Ch == nil {
		return
	}
	s.Ch <- ev
}

// Count returns the number of warnings and errors in diags.
func Count(diags []diag.Diagnostic) (warnings, errors int) {
	for _, d := range diags {
		switch {
		case d.Severity >= diag.SevError:
			errors++
		case d.Severity == diag.SevWarning:
			warnings++
		}
	}
	return warnings, errors
}
