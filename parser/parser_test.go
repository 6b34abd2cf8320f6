package parser

import (
	"testing"

	"nilan/ast"
	"nilan/lexer"
	"nilan/token"
)

func parseExprFrom(t *testing.T, src string) ast.Expression {
	t.Helper()
	tokens, diags := lexer.New(src).Scan()
	if !diags.Empty() {
		t.Fatalf("lexer.Scan(%q) raised diagnostics: %v", src, diags.All())
	}
	p := New(tokens)
	expr, err := p.parseExpr()
	if err != nil {
		t.Fatalf("parseExpr(%q) error: %v", src, err)
	}
	return expr
}

func TestPrecedenceMulBindsTighterThanAdd(t *testing.T) {
	expr := parseExprFrom(t, "1 + 2 * 3")
	bin, ok := expr.(*ast.Binary)
	if !ok {
		t.Fatalf("top-level expr is %T, want *ast.Binary", expr)
	}
	if bin.Operator.Type != token.OpAdd {
		t.Fatalf("top-level operator = %v, want +", bin.Operator.Type)
	}
	right, ok := bin.Right.(*ast.Binary)
	if !ok || right.Operator.Type != token.OpMul {
		t.Fatalf("right operand = %#v, want a * binary", bin.Right)
	}
}

func TestExponentIsRightAssociative(t *testing.T) {
	expr := parseExprFrom(t, "2 ** 3 ** 2")
	bin, ok := expr.(*ast.Binary)
	if !ok || bin.Operator.Type != token.OpExp {
		t.Fatalf("top-level expr = %#v, want a ** binary", expr)
	}
	left, ok := bin.Left.(*ast.Literal)
	if !ok || left.Value != uint64(2) {
		t.Fatalf("left operand = %#v, want literal 2 (right-associativity keeps 2 on the left alone)", bin.Left)
	}
	if _, ok := bin.Right.(*ast.Binary); !ok {
		t.Fatalf("right operand = %#v, want a nested ** binary (3 ** 2)", bin.Right)
	}
}

func TestAdditionIsLeftAssociative(t *testing.T) {
	expr := parseExprFrom(t, "1 - 2 - 3")
	bin, ok := expr.(*ast.Binary)
	if !ok || bin.Operator.Type != token.OpSub {
		t.Fatalf("top-level expr = %#v, want a - binary", expr)
	}
	if _, ok := bin.Left.(*ast.Binary); !ok {
		t.Fatalf("left operand = %#v, want a nested - binary (1 - 2)", bin.Left)
	}
	if lit, ok := bin.Right.(*ast.Literal); !ok || lit.Value != uint64(3) {
		t.Fatalf("right operand = %#v, want literal 3", bin.Right)
	}
}

func TestConditionalExpressionBindsAtTopLevel(t *testing.T) {
	expr := parseExprFrom(t, "1 if x else 2")
	cond, ok := expr.(*ast.Cond)
	if !ok {
		t.Fatalf("expr = %#v, want *ast.Cond", expr)
	}
	if _, ok := cond.If.(*ast.IdentExpr); !ok {
		t.Errorf("cond.If = %#v, want an ident", cond.If)
	}
}

func TestPipeDesugarsToCallByName(t *testing.T) {
	// pipe is parsed structurally as a Binary with the OpPipe operator;
	// the checker/emitter desugar it into a call.
	expr := parseExprFrom(t, "x |> f")
	bin, ok := expr.(*ast.Binary)
	if !ok || bin.Operator.Type != token.OpPipe {
		t.Fatalf("expr = %#v, want a |> binary", expr)
	}
}

func TestPostfixSelectorCallAndIndexChain(t *testing.T) {
	expr := parseExprFrom(t, "a.b(1)[0]")
	idx, ok := expr.(*ast.Index)
	if !ok {
		t.Fatalf("top-level expr = %#v, want *ast.Index", expr)
	}
	args, ok := idx.Operand.(*ast.Arguments)
	if !ok {
		t.Fatalf("index operand = %#v, want *ast.Arguments", idx.Operand)
	}
	if _, ok := args.Callee.(*ast.Selector); !ok {
		t.Fatalf("call callee = %#v, want *ast.Selector", args.Callee)
	}
}

func parseSrc(t *testing.T, src string) ast.Grammar {
	t.Helper()
	tokens, diags := lexer.New(src).Scan()
	if !diags.Empty() {
		t.Fatalf("lexer.Scan(%q) raised diagnostics: %v", src, diags.All())
	}
	grammar, pdiags := New(tokens).Parse()
	if !pdiags.Empty() {
		t.Fatalf("Parse(%q) raised diagnostics: %v", src, pdiags.All())
	}
	return grammar
}

func TestParseFunDeclWithExportAndParams(t *testing.T) {
	grammar := parseSrc(t, `export fn add(a: i32, b: i32): i32 { return a + b }`)
	if len(grammar) != 1 {
		t.Fatalf("grammar has %d top-level statements, want 1", len(grammar))
	}
	fn, ok := grammar[0].(*ast.FunDecl)
	if !ok {
		t.Fatalf("grammar[0] = %#v, want *ast.FunDecl", grammar[0])
	}
	if !fn.Export || fn.Ident != "add" || len(fn.Params) != 2 {
		t.Errorf("fn = %+v, want exported add(a, b)", fn)
	}
}

func TestParseWhileLoopWithoutBraceCondition(t *testing.T) {
	grammar := parseSrc(t, `fn f() { while true { break } }`)
	fn := grammar[0].(*ast.FunDecl)
	block := fn.Body.(*ast.Block)
	if len(block.Statements) != 1 {
		t.Fatalf("body has %d statements, want 1", len(block.Statements))
	}
	if _, ok := block.Statements[0].(*ast.While); !ok {
		t.Errorf("statement = %#v, want *ast.While", block.Statements[0])
	}
}

func TestParseTipStatement(t *testing.T) {
	grammar := parseSrc(t, "fn f() {\n#(wasm_bytes) 0, 1, 2\n}")
	fn := grammar[0].(*ast.FunDecl)
	block := fn.Body.(*ast.Block)
	tip, ok := block.Statements[0].(*ast.Tip)
	if !ok {
		t.Fatalf("statement = %#v, want *ast.Tip", block.Statements[0])
	}
	if tip.Ident != "wasm_bytes" || tip.Value != "0, 1, 2" {
		t.Errorf("tip = %+v, want {wasm_bytes, 0, 1, 2}", tip)
	}
}
