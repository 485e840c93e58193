package sema

import (
	"strings"

	"lantern/internal/ast"
	"lantern/internal/source"
)

// InstantiateFunctionTemplate returns the implicit instantiation of tmpl for
// args, creating it on first use. New instantiations are delivered at the
// end of the translation unit.
func (sm *Sema) InstantiateFunctionTemplate(tmpl ast.DeclID, args []string, at source.Span) ast.DeclID {
	if sm.templateDepth > 0 {
		// внутри шаблона ничего не инстанцируем: аргументы зависимы
		return ast.NoDeclID
	}
	t := sm.ctx.Decl(tmpl)
	if t == nil || t.Kind != ast.DeclFunctionTemplate {
		return ast.NoDeclID
	}
	key := instKey{tmpl: tmpl, args: strings.Join(args, ",")}
	if id, ok := sm.instantiations[key]; ok {
		return id
	}
	pattern := sm.ctx.Decl(t.Template)
	typ := ""
	if pattern != nil {
		typ = substitute(pattern.Type, t.TemplateParams, args)
	}
	id := sm.ctx.Decls.New(ast.Decl{
		Kind:         ast.DeclFunction,
		Name:         t.Name,
		Span:         t.Span,
		NameSpan:     t.NameSpan,
		Type:         typ,
		TSK:          ast.TSKImplicitInstantiation,
		Template:     tmpl,
		TemplateArgs: append([]string(nil), args...),
		IsDefinition: pattern != nil && pattern.IsDefinition,
	})
	sm.instantiations[key] = id
	sm.pending = append(sm.pending, id)
	return id
}

// substitute replaces whole-word template parameters in a type spelling.
func substitute(typ string, params, args []string) string {
	if len(params) == 0 {
		return typ
	}
	fields := strings.FieldsFunc(typ, func(r rune) bool { return r == ' ' })
	for i, f := range fields {
		for j, p := range params {
			if j < len(args) && strings.Trim(f, "*&(),") == p {
				fields[i] = strings.Replace(f, p, args[j], 1)
			}
		}
	}
	return strings.Join(fields, " ")
}

// TakePendingInstantiations returns and clears the instantiations created
// since the last call.
func (sm *Sema) TakePendingInstantiations() []ast.DeclID {
	out := sm.pending
	sm.pending = nil
	return out
}

// TemplateParamsOf returns the parameters of a function template known by name.
func (sm *Sema) TemplateParamsOf(name string) []string {
	e := sm.lookup(name)
	if e == nil {
		return nil
	}
	if e.sym != nil {
		return e.sym.TemplateParams
	}
	if d := sm.ctx.Decl(e.decl); d != nil {
		return d.TemplateParams
	}
	return nil
}

// TemplateDecl returns the FunctionTemplate declaration name resolves to.
// Templates imported from a preamble get an implicit stand-in on first use.
func (sm *Sema) TemplateDecl(name string) ast.DeclID {
	e := sm.lookup(name)
	if e == nil || !e.isTemplate {
		return ast.NoDeclID
	}
	if e.sym == nil {
		return e.decl
	}
	if e.decl.IsValid() {
		return e.decl
	}
	pattern := sm.ctx.Decls.New(ast.Decl{
		Kind:           ast.DeclFunction,
		Name:           name,
		Type:           e.sym.Type,
		Implicit:       true,
		TemplateParams: e.sym.TemplateParams,
	})
	tmpl := sm.ctx.Decls.New(ast.Decl{
		Kind:           ast.DeclFunctionTemplate,
		Name:           name,
		Implicit:       true,
		Template:       pattern,
		TemplateParams: e.sym.TemplateParams,
		Children:       []ast.DeclID{pattern},
	})
	sm.ctx.Decl(pattern).Template = tmpl
	e.decl = tmpl
	return tmpl
}

// ActOnEndOfTranslationUnit closes file scope bookkeeping.
func (sm *Sema) ActOnEndOfTranslationUnit() {
	for len(sm.scopes) > 1 {
		if sm.current().kind == scopeTemplate {
			sm.ExitTemplate()
			continue
		}
		sm.PopScope()
	}
}

// MemoryUsage approximates the bytes held by scopes and instantiation tables.
func (sm *Sema) MemoryUsage() uint64 {
	var n uint64
	for _, s := range sm.scopes {
		for name := range s.names {
			n += uint64(len(name)) + 48
		}
	}
	for k := range sm.instantiations {
		n += uint64(len(k.args)) + 8
	}
	return n + uint64(cap(sm.pending))*4
}
