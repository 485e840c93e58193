package astbuild

import (
	"lantern/internal/ast"
	"lantern/internal/source"
)

// DeclTrackingConsumer keeps the top-level declarations written in the main
// file, in parse order. Declarations from headers or the built-in buffers,
// implicit template instantiations and Objective-C methods are dropped.
type DeclTrackingConsumer struct {
	sources *source.FileSet
	ctx     *ast.Context
	decls   []ast.DeclID
}

func NewDeclTrackingConsumer(sources *source.FileSet, ctx *ast.Context) *DeclTrackingConsumer {
	return &DeclTrackingConsumer{sources: sources, ctx: ctx}
}

func (c *DeclTrackingConsumer) HandleTopLevelDecl(group []ast.DeclID) bool {
	for _, id := range group {
		d := c.ctx.Decl(id)
		if d == nil || !c.sources.IsInsideMainFile(d.Location()) {
			continue
		}
		if d.IsTemplateInstantiation() || d.Kind == ast.DeclObjCMethod {
			continue
		}
		c.decls = append(c.decls, id)
	}
	return true
}

func (c *DeclTrackingConsumer) HandleTranslationUnit(*ast.Context) {}

// TopLevelDecls returns the collected declarations and resets the consumer.
func (c *DeclTrackingConsumer) TopLevelDecls() []ast.DeclID {
	out := c.decls
	c.decls = nil
	return out
}
