package frontend

import (
	"lantern/internal/pp"
)

// Session owns an instance and the action run on it, and fixes the order
// in which they are torn down:
//
//  1. EndOfInput: the preprocessor signals end of the main file. Checks
//     that flush at end of file still see sema and the AST.
//  2. Close: the preprocessor is detached from the instance so the action
//     cannot signal end of file a second time, the action ends (sema and
//     the AST context go), and only then is the preprocessor released.
//
// Close is idempotent; EndOfInput may be skipped, Close then only detaches.
type Session struct {
	ci     *Instance
	action *Action
	closed bool
}

// NewSession takes ownership of ci and of an action already begun on it.
func NewSession(ci *Instance, action *Action) *Session {
	return &Session{ci: ci, action: action}
}

func (s *Session) Instance() *Instance { return s.ci }
func (s *Session) Action() *Action     { return s.action }

// Preprocessor returns the live preprocessor, or nil once closed.
func (s *Session) Preprocessor() *pp.Preprocessor {
	if s.closed {
		return nil
	}
	return s.ci.PP
}

// EndOfInput signals end of the main file to the preprocessor directly,
// without ending the action.
func (s *Session) EndOfInput() {
	if s.closed || s.ci.PP == nil {
		return
	}
	s.ci.PP.EndSourceFile()
}

// Close runs the second teardown phase.
func (s *Session) Close() {
	if s == nil || s.closed {
		return
	}
	s.closed = true
	p := s.ci.PP
	s.ci.PP = nil
	if s.action != nil {
		s.action.EndSourceFile()
	}
	if p != nil {
		p.Release()
	}
}

// Closed reports whether Close ran.
func (s *Session) Closed() bool { return s.closed }
