package ast

import (
	"lantern/internal/source"
)

type ExprKind uint8

const (
	ExprIntLit ExprKind = iota
	ExprFloatLit
	ExprStringLit
	ExprCharLit
	ExprBoolLit
	ExprNullPtr
	ExprDeclRef
	ExprCall
	ExprBinary
	ExprUnary
	ExprParen
	ExprMember
	ExprIndex
	ExprObjCMessage
	ExprInitList
)

var exprKindNames = [...]string{
	ExprIntLit:      "IntegerLiteral",
	ExprFloatLit:    "FloatingLiteral",
	ExprStringLit:   "StringLiteral",
	ExprCharLit:     "CharacterLiteral",
	ExprBoolLit:     "CXXBoolLiteralExpr",
	ExprNullPtr:     "CXXNullPtrLiteralExpr",
	ExprDeclRef:     "DeclRefExpr",
	ExprCall:        "CallExpr",
	ExprBinary:      "BinaryOperator",
	ExprUnary:       "UnaryOperator",
	ExprParen:       "ParenExpr",
	ExprMember:      "MemberExpr",
	ExprIndex:       "ArraySubscriptExpr",
	ExprObjCMessage: "ObjCMessageExpr",
	ExprInitList:    "InitListExpr",
}

func (k ExprKind) String() string {
	if int(k) < len(exprKindNames) {
		return exprKindNames[k]
	}
	return "Expr(?)"
}

// Expr is one expression. Value holds the literal spelling, the referenced
// name or the operator. Operands lists call arguments, binary operands
// (lhs, rhs), the unary/paren operand, the member base or the array and index.
type Expr struct {
	Kind     ExprKind
	Span     source.Span
	Value    string
	Decl     DeclID
	Callee   ExprID
	Operands []ExprID
	// TemplateArgs of a call such as max<int>(a, b).
	TemplateArgs []string
	// Dependent expressions appear inside a template pattern.
	Dependent bool
	FromMacro bool
	MacroName string
}

type Exprs struct {
	Arena *Arena[Expr]
}

func NewExprs(capHint uint) *Exprs {
	return &Exprs{
		Arena: NewArena[Expr](capHint),
	}
}

func (e *Exprs) New(ex Expr) ExprID {
	return ExprID(e.Arena.Allocate(ex))
}

func (e *Exprs) Get(id ExprID) *Expr {
	return e.Arena.Get(uint32(id))
}
