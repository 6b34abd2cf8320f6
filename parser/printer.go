package parser

import (
	"encoding/json"
	"fmt"
	"os"

	"nilan/ast"
)

const (
	colorYellow = "\033[33m"
	colorReset  = "\033[0m"
)

// astPrinter implements every Visitor interface and builds a
// JSON-friendly representation of the AST using maps and slices,
// kept from the teacher's astPrinter idiom and generalized to the
// full expression/statement/program grammar.
type astPrinter struct{}

func (p astPrinter) VisitLiteral(e *ast.Literal) any { return e.Value }

func (p astPrinter) VisitIdent(e *ast.IdentExpr) any {
	return map[string]any{"type": "Ident", "name": e.Name}
}

func (p astPrinter) VisitGrouping(e *ast.Grouping) any {
	return map[string]any{"type": "Grouping", "inner": e.Inner.Accept(p)}
}

func (p astPrinter) VisitUnaryOp(e *ast.UnaryOp) any {
	return map[string]any{"type": "UnaryOp", "operator": e.Operator.Lexeme, "operand": e.Operand.Accept(p)}
}

func (p astPrinter) VisitBinary(e *ast.Binary) any {
	return map[string]any{
		"type": "Binary", "operator": e.Operator.Lexeme,
		"left": e.Left.Accept(p), "right": e.Right.Accept(p),
	}
}

func (p astPrinter) VisitCond(e *ast.Cond) any {
	return map[string]any{
		"type": "Cond", "then": e.Then.Accept(p), "if": e.If.Accept(p), "else": e.Else.Accept(p),
	}
}

func (p astPrinter) VisitSelector(e *ast.Selector) any {
	return map[string]any{"type": "Selector", "operand": e.Operand.Accept(p), "field": e.Field}
}

func (p astPrinter) VisitArguments(e *ast.Arguments) any {
	args := make([]any, 0, len(e.Args))
	for _, a := range e.Args {
		args = append(args, a.Accept(p))
	}
	return map[string]any{"type": "Arguments", "callee": e.Callee.Accept(p), "args": args}
}

func (p astPrinter) VisitIndex(e *ast.Index) any {
	return map[string]any{"type": "Index", "operand": e.Operand.Accept(p), "idx": e.Idx.Accept(p)}
}

func (p astPrinter) VisitSlice(e *ast.Slice) any {
	return map[string]any{"type": "Slice", "operand": e.Operand.Accept(p),
		"start": nilOrAcceptExpr(e.Start, p), "end": nilOrAcceptExpr(e.End, p), "step": nilOrAcceptExpr(e.Step, p)}
}

func (p astPrinter) VisitIf(s *ast.If) any {
	return map[string]any{"type": "If", "cond": s.Cond.Accept(p), "then": s.Then.Accept(p), "else": nilOrAcceptStmt(s.Else, p)}
}

func (p astPrinter) VisitWhile(s *ast.While) any {
	return map[string]any{"type": "While", "cond": nilOrAcceptExpr(s.Cond, p), "body": s.Body.Accept(p)}
}

func (p astPrinter) VisitContinue(s *ast.Continue) any { return map[string]any{"type": "Continue"} }
func (p astPrinter) VisitBreak(s *ast.Break) any       { return map[string]any{"type": "Break"} }

func (p astPrinter) VisitReturn(s *ast.Return) any {
	return map[string]any{"type": "Return", "value": nilOrAcceptExpr(s.Value, p)}
}

func (p astPrinter) VisitVarDecl(s *ast.VarDecl) any {
	return map[string]any{"type": "VarDecl", "ident": s.Target.Ident, "init": s.Init.Accept(p)}
}

func (p astPrinter) VisitValDecl(s *ast.ValDecl) any {
	return map[string]any{"type": "ValDecl", "ident": s.Target.Ident, "init": s.Init.Accept(p)}
}

func (p astPrinter) VisitAssign(s *ast.Assign) any {
	return map[string]any{"type": "Assign", "operator": s.Operator, "ident": s.Ident, "rhs": s.Rhs.Accept(p)}
}

func (p astPrinter) VisitBlock(s *ast.Block) any {
	stmts := make([]any, 0, len(s.Statements))
	for _, st := range s.Statements {
		stmts = append(stmts, st.Accept(p))
	}
	return map[string]any{"type": "Block", "statements": stmts}
}

func (p astPrinter) VisitTip(s *ast.Tip) any {
	return map[string]any{"type": "Tip", "ident": s.Ident, "value": s.Value}
}

func (p astPrinter) VisitExprStmt(s *ast.ExprStmt) any {
	return map[string]any{"type": "ExprStmt", "expression": s.Expr.Accept(p)}
}

func (p astPrinter) VisitImport(s *ast.Import) any {
	return map[string]any{"type": "Import", "from": s.From}
}

func (p astPrinter) VisitFunDecl(s *ast.FunDecl) any {
	return map[string]any{"type": "FunDecl", "ident": s.Ident, "export": s.Export, "body": s.Body.Accept(p)}
}

func (p astPrinter) VisitProgramVarDecl(s *ast.ProgramVarDecl) any { return p.VisitVarDecl(s.VarDecl) }
func (p astPrinter) VisitProgramValDecl(s *ast.ProgramValDecl) any { return p.VisitValDecl(s.ValDecl) }

func (p astPrinter) VisitStructDecl(s *ast.StructDecl) any {
	return map[string]any{"type": "StructDecl", "ident": s.Ident}
}

func (p astPrinter) VisitTypeDecl(s *ast.TypeDecl) any {
	return map[string]any{"type": "TypeDecl", "ident": s.Ident}
}

func nilOrAcceptExpr(expr ast.Expression, p ast.ExpressionVisitor) any {
	if expr == nil {
		return nil
	}
	return expr.Accept(p)
}

func nilOrAcceptStmt(stmt ast.Stmt, p ast.StmtVisitor) any {
	if stmt == nil {
		return nil
	}
	return stmt.Accept(p)
}

// PrintASTJSON converts a parsed Grammar into a prettified JSON string.
func PrintASTJSON(grammar ast.Grammar) (string, error) {
	printer := astPrinter{}
	out := make([]any, 0, len(grammar))
	for _, s := range grammar {
		out = append(out, s.Accept(printer))
	}
	bytes, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", err
	}

	jsonStr := string(bytes)
	fmt.Println(colorYellow + "----- AST JSON -----")
	fmt.Println(colorYellow + jsonStr)
	fmt.Println(colorYellow + "-----" + colorReset)
	fmt.Println("")
	return jsonStr, nil
}

// WriteASTJSONToFile writes the prettified AST JSON to the given file path.
func WriteASTJSONToFile(grammar ast.Grammar, path string) error {
	s, err := PrintASTJSON(grammar)
	if err != nil {
		return err
	}
	fDescriptor, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating AST file: %s", err.Error())
	}
	defer fDescriptor.Close()

	if _, err := fDescriptor.Write([]byte(s)); err != nil {
		return fmt.Errorf("error writing AST to file: %s", err.Error())
	}
	return nil
}
