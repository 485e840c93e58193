package sema

import (
	"lantern/internal/ast"
)

type scopeKind uint8

const (
	scopeFile scopeKind = iota
	scopeFunction
	scopeBlock
	scopeRecord
	scopeTemplate
)

type entry struct {
	decl       ast.DeclID
	sym        *Symbol // для имён из преамбулы
	isType     bool
	isTemplate bool
	defined    bool
	used       bool
}

type scope struct {
	kind   scopeKind
	names  map[string]*entry
	order  []string
	labels map[string]ast.DeclID
	gotos  []pendingGoto
	locals []ast.DeclID
}

type pendingGoto struct {
	label string
	stmt  ast.StmtID
}

func newScope(kind scopeKind) *scope {
	return &scope{kind: kind, names: make(map[string]*entry)}
}

func (s *scope) insert(name string, e *entry) {
	if _, ok := s.names[name]; !ok {
		s.order = append(s.order, name)
	}
	s.names[name] = e
}

// lookup ищет имя снизу вверх по стеку областей.
func (sm *Sema) lookup(name string) *entry {
	for i := len(sm.scopes) - 1; i >= 0; i-- {
		if e, ok := sm.scopes[i].names[name]; ok {
			return e
		}
	}
	return nil
}

func (sm *Sema) current() *scope {
	return sm.scopes[len(sm.scopes)-1]
}

// declScope is where new declarations go: template parameter scopes are
// transparent.
func (sm *Sema) declScope() *scope {
	for i := len(sm.scopes) - 1; i >= 0; i-- {
		if sm.scopes[i].kind != scopeTemplate {
			return sm.scopes[i]
		}
	}
	return sm.scopes[0]
}

func (sm *Sema) fileScope() *scope {
	return sm.scopes[0]
}

// functionScope returns the innermost function scope or nil.
func (sm *Sema) functionScope() *scope {
	for i := len(sm.scopes) - 1; i >= 0; i-- {
		if sm.scopes[i].kind == scopeFunction {
			return sm.scopes[i]
		}
	}
	return nil
}
