// Package trace records timed spans around the phases of an AST build.
//
// A Tracer travels in the context. Phases open spans with Start:
//
//	ctx, span := trace.Start(ctx, trace.ScopePhase, "Execute")
//	defer span.End("")
//
// With no tracer attached every call is a no-op.
package trace

import (
	"fmt"
	"strings"
	"time"
)

// Kind is the type of an event.
type Kind uint8

const (
	KindBegin Kind = iota + 1
	KindEnd
	KindPoint
)

func (k Kind) String() string {
	switch k {
	case KindBegin:
		return "begin"
	case KindEnd:
		return "end"
	case KindPoint:
		return "point"
	}
	return "unknown"
}

// Scope is the granularity of an event. Coarser scopes have lower values.
type Scope uint8

const (
	// ScopeBuild covers one whole build of a file.
	ScopeBuild Scope = iota + 1
	// ScopePhase covers a build phase: preamble, execute, checks, assembly.
	ScopePhase
	// ScopeCheck covers one tidy check or one include fixer query.
	ScopeCheck
	// ScopeNode covers a single declaration.
	ScopeNode
)

func (s Scope) String() string {
	switch s {
	case ScopeBuild:
		return "build"
	case ScopePhase:
		return "phase"
	case ScopeCheck:
		return "check"
	case ScopeNode:
		return "node"
	}
	return "unknown"
}

// Level selects the finest scope a tracer keeps.
type Level uint8

const (
	LevelOff Level = iota
	LevelBuild
	LevelPhase
	LevelCheck
	LevelDebug
)

// ParseLevel accepts off, build, phase, check and debug.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "off", "none":
		return LevelOff, nil
	case "build":
		return LevelBuild, nil
	case "phase":
		return LevelPhase, nil
	case "check":
		return LevelCheck, nil
	case "debug", "all":
		return LevelDebug, nil
	}
	return LevelOff, fmt.Errorf("invalid trace level %q (expected off|build|phase|check|debug)", s)
}

func (l Level) String() string {
	switch l {
	case LevelOff:
		return "off"
	case LevelBuild:
		return "build"
	case LevelPhase:
		return "phase"
	case LevelCheck:
		return "check"
	case LevelDebug:
		return "debug"
	}
	return "unknown"
}

// Allows reports whether events of scope pass this level.
func (l Level) Allows(s Scope) bool {
	return l != LevelOff && uint8(s) <= uint8(l)
}

// Event is one trace record.
type Event struct {
	Time     time.Time
	Seq      uint64
	Kind     Kind
	Scope    Scope
	SpanID   uint64
	ParentID uint64
	Name     string
	Detail   string
	// Elapsed is set on end events.
	Elapsed time.Duration
	Extra   map[string]string
}
