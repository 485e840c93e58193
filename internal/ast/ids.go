package ast

type (
	DeclID uint32
	StmtID uint32
	ExprID uint32
)

const (
	NoDeclID DeclID = 0
	NoStmtID StmtID = 0
	NoExprID ExprID = 0
)

func (id DeclID) IsValid() bool { return id != NoDeclID }
func (id StmtID) IsValid() bool { return id != NoStmtID }
func (id ExprID) IsValid() bool { return id != NoExprID }
