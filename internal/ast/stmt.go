package ast

import (
	"lantern/internal/source"
)

type StmtKind uint8

const (
	StmtCompound StmtKind = iota
	StmtDecl
	StmtExpr
	StmtReturn
	StmtIf
	StmtWhile
	StmtFor
	StmtGoto
	StmtLabel
	StmtBreak
	StmtContinue
	StmtNull
)

var stmtKindNames = [...]string{
	StmtCompound: "CompoundStmt",
	StmtDecl:     "DeclStmt",
	StmtExpr:     "ExprStmt",
	StmtReturn:   "ReturnStmt",
	StmtIf:       "IfStmt",
	StmtWhile:    "WhileStmt",
	StmtFor:      "ForStmt",
	StmtGoto:     "GotoStmt",
	StmtLabel:    "LabelStmt",
	StmtBreak:    "BreakStmt",
	StmtContinue: "ContinueStmt",
	StmtNull:     "NullStmt",
}

func (k StmtKind) String() string {
	if int(k) < len(stmtKindNames) {
		return stmtKindNames[k]
	}
	return "Stmt(?)"
}

// Stmt is one statement. Which fields are set depends on Kind:
// Compound uses Children, Decl uses Decls, Expr/Return use Expr, If uses
// Cond/Then/Else, While uses Cond/Body, For uses Init/Cond/Inc/Body,
// Goto and Label use Label (Label also Body).
type Stmt struct {
	Kind     StmtKind
	Span     source.Span
	Children []StmtID
	Decls    []DeclID
	Expr     ExprID
	Cond     ExprID
	Inc      ExprID
	Init     StmtID
	Then     StmtID
	Else     StmtID
	Body     StmtID
	Label    string
}

type Stmts struct {
	Arena *Arena[Stmt]
}

func NewStmts(capHint uint) *Stmts {
	return &Stmts{
		Arena: NewArena[Stmt](capHint),
	}
}

func (s *Stmts) New(st Stmt) StmtID {
	return StmtID(s.Arena.Allocate(st))
}

func (s *Stmts) Get(id StmtID) *Stmt {
	return s.Arena.Get(uint32(id))
}
