package sema

import (
	"strings"

	"lantern/internal/ast"
	"lantern/internal/diag"
	"lantern/internal/lang"
	"lantern/internal/source"
)

// UnresolvedName is a name lookup that failed.
type UnresolvedName struct {
	Name string
	Span source.Span
	// Call is true when the name is the callee of a call expression.
	Call bool
	// Type is true when the name was expected to be a type.
	Type bool
}

// ExternalSource is told about every failed lookup before the error is
// reported, so it can prepare fixes for the diagnostic that follows.
type ExternalSource interface {
	NoteUnresolvedName(n UnresolvedName)
}

// Symbol is a file-scope name carried across sessions by a preamble.
type Symbol struct {
	Name       string
	Kind       ast.DeclKind
	Type       string
	IsType     bool
	IsTemplate bool
	// TemplateParams of a function template.
	TemplateParams []string
}

type instKey struct {
	tmpl ast.DeclID
	args string
}

// Sema is the semantic analyzer of one session.
type Sema struct {
	ctx      *ast.Context
	diags    *diag.Engine
	lang     lang.Options
	scopes   []*scope
	external ExternalSource

	instantiations map[instKey]ast.DeclID
	pending        []ast.DeclID
	containers     map[string]ast.DeclID
	records        map[string]ast.DeclID
	templateDepth  int
}

func New(ctx *ast.Context, diags *diag.Engine, opts lang.Options) *Sema {
	sm := &Sema{
		ctx:            ctx,
		diags:          diags,
		lang:           opts,
		scopes:         []*scope{newScope(scopeFile)},
		instantiations: make(map[instKey]ast.DeclID),
		containers:     make(map[string]ast.DeclID),
		records:        make(map[string]ast.DeclID),
	}
	sm.declareImplicitTypes()
	return sm
}

func (sm *Sema) Context() *ast.Context     { return sm.ctx }
func (sm *Sema) Diagnostics() *diag.Engine { return sm.diags }
func (sm *Sema) LangOptions() lang.Options { return sm.lang }

// SetExternalSource installs the listener for failed lookups.
func (sm *Sema) SetExternalSource(src ExternalSource) { sm.external = src }

func (sm *Sema) declareImplicitTypes() {
	id := sm.ctx.Decls.New(ast.Decl{
		Kind:     ast.DeclTypedef,
		Name:     "__builtin_va_list",
		Type:     "char *",
		Implicit: true,
	})
	sm.ctx.AddTopLevel(id)
	sm.fileScope().insert("__builtin_va_list", &entry{decl: id, isType: true, defined: true})
	if !sm.lang.ObjC {
		return
	}
	for _, name := range []string{"id", "SEL", "Class", "BOOL"} {
		id := sm.ctx.Decls.New(ast.Decl{Kind: ast.DeclTypedef, Name: name, Type: "objc_" + name, Implicit: true})
		sm.fileScope().insert(name, &entry{decl: id, isType: true, defined: true})
	}
	for _, name := range []string{"nil", "YES", "NO"} {
		id := sm.ctx.Decls.New(ast.Decl{Kind: ast.DeclVar, Name: name, Type: "id", Implicit: true})
		sm.fileScope().insert(name, &entry{decl: id, defined: true, used: true})
	}
}

func (sm *Sema) report(code diag.Code, sp source.Span, args ...any) *diag.ReportBuilder {
	if sm.diags == nil {
		return nil
	}
	return sm.diags.Report(code, sp, args...)
}

// ImportSymbols seeds file scope with names from a preamble.
func (sm *Sema) ImportSymbols(syms []Symbol) {
	fs := sm.fileScope()
	for i := range syms {
		s := &syms[i]
		if _, ok := fs.names[s.Name]; ok {
			continue
		}
		fs.insert(s.Name, &entry{sym: s, isType: s.IsType, isTemplate: s.IsTemplate, defined: true})
	}
}

// ExportSymbols lists file-scope names in declaration order.
func (sm *Sema) ExportSymbols() []Symbol {
	fs := sm.fileScope()
	out := make([]Symbol, 0, len(fs.order))
	for _, name := range fs.order {
		e := fs.names[name]
		if e.sym != nil {
			out = append(out, *e.sym)
			continue
		}
		d := sm.ctx.Decl(e.decl)
		if d == nil || d.Implicit {
			continue
		}
		out = append(out, Symbol{
			Name:           name,
			Kind:           d.Kind,
			Type:           d.Type,
			IsType:         e.isType,
			IsTemplate:     e.isTemplate,
			TemplateParams: d.TemplateParams,
		})
	}
	return out
}

// PushFunctionScope opens the scope of a function body.
func (sm *Sema) PushFunctionScope() {
	sm.scopes = append(sm.scopes, newScope(scopeFunction))
}

// PushBlockScope opens a compound statement scope.
func (sm *Sema) PushBlockScope() {
	sm.scopes = append(sm.scopes, newScope(scopeBlock))
}

// PushRecordScope opens a scope with the members of record in it.
func (sm *Sema) PushRecordScope(record ast.DeclID) {
	s := newScope(scopeRecord)
	if d := sm.ctx.Decl(record); d != nil {
		for _, ch := range d.Children {
			if m := sm.ctx.Decl(ch); m != nil && m.Name != "" {
				s.insert(m.Name, &entry{decl: ch, defined: true, used: true})
			}
		}
	}
	sm.scopes = append(sm.scopes, s)
}

// PopScope closes the innermost scope and reports what it left behind.
func (sm *Sema) PopScope() {
	if len(sm.scopes) <= 1 || sm.current().kind == scopeTemplate {
		return
	}
	s := sm.current()
	sm.scopes = sm.scopes[:len(sm.scopes)-1]
	for _, name := range s.order {
		e := s.names[name]
		d := sm.ctx.Decl(e.decl)
		if d == nil || e.used || d.Kind != ast.DeclVar || s.kind == scopeRecord || s.kind == scopeFile {
			continue
		}
		if d.Implicit || sm.templateDepth > 0 {
			continue
		}
		sm.report(diag.SemaUnusedVariable, d.Location(), name).Emit()
	}
	if s.kind == scopeFunction {
		for _, g := range s.gotos {
			if _, ok := s.labels[g.label]; !ok {
				sm.report(diag.SemaLabelNotFound, sm.ctx.Stmt(g.stmt).Span, g.label).Emit()
			}
		}
	}
}

// EnterTemplate / ExitTemplate bracket the body of a template pattern.
func (sm *Sema) EnterTemplate(params []string) {
	sm.templateDepth++
	sm.scopes = append(sm.scopes, newScope(scopeTemplate))
	for _, p := range params {
		sm.current().insert(p, &entry{isType: true, defined: true, used: true})
	}
}

func (sm *Sema) ExitTemplate() {
	if sm.templateDepth > 0 && sm.current().kind == scopeTemplate {
		sm.templateDepth--
		sm.scopes = sm.scopes[:len(sm.scopes)-1]
	}
}

// InTemplate reports whether a template pattern is being parsed.
func (sm *Sema) InTemplate() bool { return sm.templateDepth > 0 }

// Declare makes a declaration visible in the current scope and reports
// redefinitions.
func (sm *Sema) Declare(id ast.DeclID) {
	d := sm.ctx.Decl(id)
	if d == nil || d.Name == "" {
		return
	}
	s := sm.declScope()
	isType := d.Kind == ast.DeclTypedef || d.Kind == ast.DeclRecord || d.Kind == ast.DeclObjCContainer
	isTemplate := d.Kind == ast.DeclFunctionTemplate || (d.Kind == ast.DeclRecord && len(d.TemplateParams) > 0)

	if prev, ok := s.names[d.Name]; ok && prev.sym == nil {
		if sm.conflicts(s, prev, d) {
			pd := sm.ctx.Decl(prev.decl)
			b := sm.report(diag.SemaRedefinition, d.Location(), d.Name)
			if pd != nil {
				b = b.WithNote(pd.Location(), diag.SemaPreviousDefinition.Title())
			}
			b.Emit()
			return
		}
		if !d.IsDefinition && prev.defined {
			return
		}
	}
	switch d.Kind {
	case ast.DeclObjCContainer:
		if d.Tag == "@interface" {
			sm.containers[d.Name] = id
		}
	case ast.DeclRecord:
		if d.IsDefinition {
			sm.records[d.Name] = id
		}
	}
	s.insert(d.Name, &entry{
		decl:       id,
		isType:     isType,
		isTemplate: isTemplate,
		defined:    d.IsDefinition || d.Kind == ast.DeclVar || d.Kind == ast.DeclParam,
		used:       d.Kind != ast.DeclVar || s.kind == scopeFile,
	})
	if s.kind != scopeFile && d.Kind == ast.DeclVar {
		s.locals = append(s.locals, id)
	}
}

func (sm *Sema) conflicts(s *scope, prev *entry, d *ast.Decl) bool {
	pd := sm.ctx.Decl(prev.decl)
	if pd == nil {
		return false
	}
	if s.kind != scopeFile {
		return true
	}
	if pd.Kind != d.Kind {
		// struct X и typedef struct X X допустимы
		return !(pd.Kind == ast.DeclRecord && d.Kind == ast.DeclTypedef || pd.Kind == ast.DeclTypedef && d.Kind == ast.DeclRecord)
	}
	switch d.Kind {
	case ast.DeclVar:
		return d.Init.IsValid() && pd.Init.IsValid()
	case ast.DeclTypedef:
		return pd.Type != d.Type
	case ast.DeclObjCContainer:
		return pd.Tag == d.Tag
	}
	return d.IsDefinition && pd.IsDefinition
}

// DeclareLabel records a label of the current function.
func (sm *Sema) DeclareLabel(name string, id ast.DeclID) {
	if fn := sm.functionScope(); fn != nil {
		if fn.labels == nil {
			fn.labels = make(map[string]ast.DeclID)
		}
		fn.labels[name] = id
	}
}

// NoteGoto remembers a goto; unknown targets are reported when the function ends.
func (sm *Sema) NoteGoto(label string, stmt ast.StmtID) {
	if fn := sm.functionScope(); fn != nil {
		fn.gotos = append(fn.gotos, pendingGoto{label: label, stmt: stmt})
	}
}

// IsTypeName reports whether name denotes a type in the current scope.
func (sm *Sema) IsTypeName(name string) bool {
	e := sm.lookup(name)
	return e != nil && e.isType
}

// IsTemplateName reports whether name denotes a template.
func (sm *Sema) IsTemplateName(name string) bool {
	e := sm.lookup(name)
	return e != nil && e.isTemplate
}

// IsKnown reports whether name resolves to anything.
func (sm *Sema) IsKnown(name string) bool { return sm.lookup(name) != nil }

// LookupDecl returns the declaration name resolves to without reporting.
// Names imported from a preamble have no declaration and yield NoDeclID.
func (sm *Sema) LookupDecl(name string) ast.DeclID {
	if e := sm.lookup(name); e != nil {
		return e.decl
	}
	return ast.NoDeclID
}

// LookupSymbol returns the preamble symbol for name, if that is what it resolves to.
func (sm *Sema) LookupSymbol(name string) (Symbol, bool) {
	if e := sm.lookup(name); e != nil && e.sym != nil {
		return *e.sym, true
	}
	return Symbol{}, false
}

// ResolveName resolves an identifier used in an expression. A failed lookup
// is announced to the external source and then reported.
func (sm *Sema) ResolveName(name string, sp source.Span, call bool) (ast.DeclID, bool) {
	if e := sm.lookup(name); e != nil {
		e.used = true
		return e.decl, true
	}
	if name == "__func__" || strings.HasPrefix(name, "__builtin_") {
		return ast.NoDeclID, true
	}
	n := UnresolvedName{Name: name, Span: sp, Call: call}
	if sm.external != nil {
		sm.external.NoteUnresolvedName(n)
	}
	code := diag.SemaUndeclaredIdentifier
	if call {
		code = diag.SemaUndeclaredFunction
	}
	sm.report(code, sp, name).Emit()
	return ast.NoDeclID, false
}

// UnknownTypeName reports a name used as a type that is not one.
func (sm *Sema) UnknownTypeName(name string, sp source.Span) {
	if sm.external != nil {
		sm.external.NoteUnresolvedName(UnresolvedName{Name: name, Span: sp, Type: true})
	}
	sm.report(diag.SemaUnknownTypeName, sp, name).Emit()
}

// NotATemplate reports explicit template arguments on a non-template.
func (sm *Sema) NotATemplate(name string, sp source.Span) {
	sm.report(diag.SemaNotATemplate, sp, name).Emit()
}

// InterfaceIvars returns the instance variables of an @interface.
func (sm *Sema) InterfaceIvars(name string) []ast.DeclID {
	id, ok := sm.containers[name]
	if !ok {
		return nil
	}
	var out []ast.DeclID
	for _, ch := range sm.ctx.Decl(id).Children {
		if d := sm.ctx.Decl(ch); d != nil && d.Kind == ast.DeclField {
			out = append(out, ch)
		}
	}
	return out
}

// PushIvarScope makes ivars visible inside an @implementation method.
func (sm *Sema) PushIvarScope(ivars []ast.DeclID) {
	s := newScope(scopeRecord)
	for _, id := range ivars {
		if d := sm.ctx.Decl(id); d != nil {
			s.insert(d.Name, &entry{decl: id, defined: true, used: true})
		}
	}
	sm.scopes = append(sm.scopes, s)
}

// DeclareImplicit adds an implicit variable (self, this, _cmd) to the current scope.
func (sm *Sema) DeclareImplicit(name, typ string) ast.DeclID {
	id := sm.ctx.Decls.New(ast.Decl{Kind: ast.DeclParam, Name: name, Type: typ, Implicit: true})
	sm.current().insert(name, &entry{decl: id, defined: true, used: true})
	return id
}
