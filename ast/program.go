// program.go contains every top-level ProgramStmt node: imports,
// function/struct/type declarations, and global var/val bindings.
package ast

import "nilan/diagnostic"

// Import is "import ident, ident as alias from \"file\"".
type Import struct {
	Idents []IdentImport
	From   string
	Rng    diagnostic.Range
}

func (s *Import) Accept(v ProgramVisitor) any { return v.VisitImport(s) }
func (s *Import) Range() diagnostic.Range      { return s.Rng }

// IdentImport is one imported name, with an optional "as" alias.
type IdentImport struct {
	Ident   string
	AsIdent string // "" when absent
}

// FunDecl is "export? fn ident(params): ret_type body".
type FunDecl struct {
	Export   bool
	Ident    string
	Params   []IdentTyped
	RetType  Type
	Body     Stmt
	Rng      diagnostic.Range
	FuncIdx  int // allocated by the checker in the Global scope
}

func (s *FunDecl) Accept(v ProgramVisitor) any { return v.VisitFunDecl(s) }
func (s *FunDecl) Range() diagnostic.Range      { return s.Rng }

// ProgramVarDecl/ProgramValDecl wrap a statement-level VarDecl/ValDecl
// at program scope — see interfaces.go for why this wrapping exists.
type ProgramVarDecl struct{ *VarDecl }

func (s *ProgramVarDecl) Accept(v ProgramVisitor) any { return v.VisitProgramVarDecl(s) }

type ProgramValDecl struct{ *ValDecl }

func (s *ProgramValDecl) Accept(v ProgramVisitor) any { return v.VisitProgramValDecl(s) }

// StructDecl declares a named struct type.
type StructDecl struct {
	Ident  string
	Fields []IdentTyped
	Rng    diagnostic.Range
}

func (s *StructDecl) Accept(v ProgramVisitor) any { return v.VisitStructDecl(s) }
func (s *StructDecl) Range() diagnostic.Range      { return s.Rng }

// TypeDecl declares a named alias for another type.
type TypeDecl struct {
	Ident string
	Alias Type
	Rng   diagnostic.Range
}

func (s *TypeDecl) Accept(v ProgramVisitor) any { return v.VisitTypeDecl(s) }
func (s *TypeDecl) Range() diagnostic.Range      { return s.Rng }
