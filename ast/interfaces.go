// interfaces.go defines the Visitor-pattern contracts every expression
// and statement AST node implements, generalizing the teacher's
// ExpressionVisitor/StmtVisitor split to the source language's full
// grammar: Expr collapses the distilled grammar's Expr/Unary/Primary/
// Operand layering into one Go interface, since Go has no algebraic-
// datatype nesting to mirror it — the postfix chain (Selector/
// Arguments/Index/Slice) and the unary/operand leaves are all just
// further Expression implementations.
package ast

import "nilan/diagnostic"

// Expression is any node that produces a value: literals, idents,
// groupings, unary/binary/conditional operators, and the postfix
// chain (selector, call, index, slice).
type Expression interface {
	Accept(v ExpressionVisitor) any
	Range() diagnostic.Range
}

// ExpressionVisitor defines one Visit method per Expression kind.
type ExpressionVisitor interface {
	VisitLiteral(e *Literal) any
	VisitIdent(e *IdentExpr) any
	VisitGrouping(e *Grouping) any
	VisitUnaryOp(e *UnaryOp) any
	VisitBinary(e *Binary) any
	VisitCond(e *Cond) any
	VisitSelector(e *Selector) any
	VisitArguments(e *Arguments) any
	VisitIndex(e *Index) any
	VisitSlice(e *Slice) any
}

// Stmt is any node inside a function body: control flow, declarations,
// assignment, blocks, the tip escape hatch, and bare expression
// statements.
type Stmt interface {
	Accept(v StmtVisitor) any
	Range() diagnostic.Range
}

// StmtVisitor defines one Visit method per Stmt kind.
type StmtVisitor interface {
	VisitIf(s *If) any
	VisitWhile(s *While) any
	VisitContinue(s *Continue) any
	VisitBreak(s *Break) any
	VisitReturn(s *Return) any
	VisitVarDecl(s *VarDecl) any
	VisitValDecl(s *ValDecl) any
	VisitAssign(s *Assign) any
	VisitBlock(s *Block) any
	VisitTip(s *Tip) any
	VisitExprStmt(s *ExprStmt) any
}

// ProgramStmt is any top-level declaration.
type ProgramStmt interface {
	Accept(v ProgramVisitor) any
	Range() diagnostic.Range
}

// ProgramVisitor defines one Visit method per ProgramStmt kind. Global
// var/val declarations reuse the statement-level VarDecl/ValDecl
// payload wrapped in ProgramVarDecl/ProgramValDecl, since a Go method
// cannot be overloaded to satisfy both StmtVisitor and ProgramVisitor
// on the same receiver type.
type ProgramVisitor interface {
	VisitImport(s *Import) any
	VisitFunDecl(s *FunDecl) any
	VisitProgramVarDecl(s *ProgramVarDecl) any
	VisitProgramValDecl(s *ProgramValDecl) any
	VisitStructDecl(s *StructDecl) any
	VisitTypeDecl(s *TypeDecl) any
}

// Grammar is the root of a parsed program: a sequence of ProgramStmt.
type Grammar []ProgramStmt
