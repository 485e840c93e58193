package testkit

import (
	"fmt"

	"fortio.org/safecast"

	"lantern/internal/astbuild"
	"lantern/internal/source"
)

// CheckASTInvariants runs a minimal set of scope invariants on a built AST:
// 1) every local top-level decl is located in the main file and is not an
// implicit template instantiation
// 2) local decl spans are non-empty, within content bounds and in parse order
// 3) the traversal scope is exactly the local decls
// 4) main-file diagnostics point inside the main file content
func CheckASTInvariants(a *astbuild.ParsedAST) error {
	if a == nil {
		return fmt.Errorf("nil ParsedAST")
	}
	if a.Closed() {
		return fmt.Errorf("ParsedAST is closed")
	}
	ctx := a.Context()
	sources := ctx.Sources()
	main := sources.Get(sources.MainFile())
	if main == nil {
		return fmt.Errorf("main file not set")
	}
	lenContent, err := safecast.Conv[uint32](len(main.Content))
	if err != nil {
		return fmt.Errorf("len content overflow: %w", err)
	}

	// 1) and 2)
	locals := a.LocalTopLevelDecls()
	var prev source.Span
	for i, id := range locals {
		d := ctx.Decl(id)
		if d == nil {
			return fmt.Errorf("nil decl for id=%d", id)
		}
		if !sources.IsInsideMainFile(d.Location()) {
			return fmt.Errorf("decl %q is outside the main file: %v", d.Name, d.Location())
		}
		if d.IsTemplateInstantiation() {
			return fmt.Errorf("decl %q is an implicit instantiation", d.Name)
		}
		sp := d.Span
		if sp.End <= sp.Start {
			return fmt.Errorf("empty decl span of %q: %v", d.Name, sp)
		}
		if sp.End > lenContent {
			return fmt.Errorf("decl %q ends beyond content: %d > %d", d.Name, sp.End, lenContent)
		}
		if i > 0 && d.Location().Start < prev.Start {
			return fmt.Errorf("decl %q is out of parse order: %v before %v", d.Name, prev, d.Location())
		}
		prev = d.Location()
	}

	// 3)
	scope := ctx.TraversalScope()
	if len(scope) != len(locals) {
		return fmt.Errorf("traversal scope has %d decls, want %d", len(scope), len(locals))
	}
	for i := range scope {
		if scope[i] != locals[i] {
			return fmt.Errorf("traversal scope differs at %d: %d != %d", i, scope[i], locals[i])
		}
	}

	// 4)
	for _, d := range a.Diagnostics() {
		if !d.InsideMainFile || d.Range.IsZero() {
			continue
		}
		if d.Range.Path != main.Path {
			return fmt.Errorf("%s: main-file diagnostic names %s", d.Name(), d.Range.Path)
		}
		if d.Range.EndOff < d.Range.StartOff || d.Range.EndOff > lenContent {
			return fmt.Errorf("%s: range %d-%d outside content of %d bytes", d.Name(), d.Range.StartOff, d.Range.EndOff, lenContent)
		}
	}
	return nil
}
