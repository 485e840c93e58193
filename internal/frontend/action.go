package frontend

import (
	"fmt"

	"lantern/internal/ast"
	"lantern/internal/parser"
	"lantern/internal/pp"
	"lantern/internal/sema"

	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("lantern.frontend")

// Action drives one instance through a syntax-only run:
// BeginSourceFile, Execute, EndSourceFile, each at most once.
type Action struct {
	ci       *Instance
	executed bool
	ended    bool
}

func NewSyntaxOnlyAction() *Action { return &Action{} }

// Instance returns the instance the action was begun on.
func (a *Action) Instance() *Instance { return a.ci }

// BeginSourceFile opens the primary input and creates the preprocessor,
// the AST context and sema. Failing to open the input is fatal for the
// build and wraps ErrNoInput.
func (a *Action) BeginSourceFile(ci *Instance) error {
	if a.ci != nil {
		return fmt.Errorf("frontend: action already begun")
	}
	inv := ci.Invocation
	if inv.WorkingDir != "" {
		if err := ci.Files.FileSystem().Chdir(inv.WorkingDir); err != nil {
			log.Warningf("cannot enter working directory %s: %s", inv.WorkingDir, err)
		}
	}
	entry, err := ci.Files.GetFile(inv.MainFile)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrNoInput, inv.MainFile, err)
	}
	content := ci.content
	if content == nil {
		if content, err = ci.Files.GetBuffer(entry); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrNoInput, inv.MainFile, err)
		}
	}
	ci.Sources.SetMainFile(ci.Sources.Add(entry.Name, content, 0))

	a.ci = ci
	if c := ci.Diags.Client(); c != nil {
		c.BeginSourceFile()
	}
	ci.PP = pp.New(ci.preprocessorOptions(), ci.Sources, ci.Files, ci.Diags)
	ci.AST = ast.NewContext(ci.Sources, ast.Hints{})
	ci.Sema = sema.New(ci.AST, ci.Diags, inv.Lang)
	if ci.prefix != nil {
		ci.Sema.ImportSymbols(ci.prefix.Symbols)
	}
	return nil
}

// Execute preprocesses and parses the main file, delivering declarations
// to the instance consumer.
func (a *Action) Execute() error {
	if a.ci == nil {
		return fmt.Errorf("frontend: Execute before BeginSourceFile")
	}
	if a.executed {
		return fmt.Errorf("frontend: action already executed")
	}
	a.executed = true
	ci := a.ci
	var prefix *pp.Prefix
	if ci.prefix != nil {
		prefix = &pp.Prefix{Size: ci.prefix.Bounds.Size, Macros: ci.prefix.Macros}
	}
	if err := ci.PP.EnterMainSourceFile(prefix); err != nil {
		return err
	}
	consumer := ci.consumer
	if consumer == nil {
		consumer = nopConsumer{}
	}
	parser.New(ci.PP, ci.Sema, consumer).ParseTranslationUnit()
	return nil
}

// EndSourceFile finishes the run. If the preprocessor is still attached
// it gets its end-of-file signal here; a caller that already sent it
// detaches the preprocessor first (see Session). Sema and the AST context
// are released.
func (a *Action) EndSourceFile() {
	if a.ci == nil || a.ended {
		return
	}
	a.ended = true
	ci := a.ci
	if ci.PP != nil {
		ci.PP.EndSourceFile()
	}
	if c := ci.Diags.Client(); c != nil {
		c.EndSourceFile()
	}
	ci.Sema = nil
	ci.AST = nil
}

// Ended reports whether EndSourceFile ran.
func (a *Action) Ended() bool { return a.ended }

type nopConsumer struct{}

func (nopConsumer) HandleTopLevelDecl([]ast.DeclID) bool { return true }
func (nopConsumer) HandleTranslationUnit(*ast.Context)   {}
