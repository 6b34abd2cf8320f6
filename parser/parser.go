// Package parser implements a recursive-descent parser with a
// table-driven Pratt expression parser, generalizing the teacher's
// Parser (informatter-nilan's cursor primitives: peek/previous/
// advance/isFinished/checkType/isMatch, and its fixed-ladder
// equality/comparison/term/factor/unary methods) to the source
// language's 23-level precedence table and full statement/program
// grammar.
package parser

import (
	"fmt"

	"nilan/ast"
	"nilan/diagnostic"
	"nilan/token"
)

// Parser consumes a flat token stream and produces an ast.Grammar.
type Parser struct {
	tokens []token.Token
	pos    int
	diags  diagnostic.Bag
}

// New constructs a Parser over a token stream produced by the lexer
// (and, typically, passed through the preprocessor first).
func New(tokens []token.Token) *Parser {
	return &Parser{tokens: tokens}
}

func (p *Parser) peek() token.Token { return p.tokens[p.pos] }
func (p *Parser) prev() token.Token { return p.tokens[p.pos-1] }
func (p *Parser) isFinished() bool  { return p.peek().Type == token.EOF }

func (p *Parser) step() token.Token {
	if !p.isFinished() {
		p.pos++
	}
	return p.prev()
}

func (p *Parser) check(t token.TokenType) bool {
	return !p.isFinished() && p.peek().Type == t
}

func (p *Parser) match(types ...token.TokenType) bool {
	for _, t := range types {
		if p.check(t) {
			p.step()
			return true
		}
	}
	return false
}

// eatType matches by variant (ignoring any payload/literal), erroring
// with a grammar-slot-specific message otherwise.
func (p *Parser) eatType(t token.TokenType, what string) (token.Token, error) {
	if p.check(t) {
		return p.step(), nil
	}
	return token.Token{}, p.errorf("ExpectedToken", "expected %s, got %q", what, p.peek().Lexeme)
}

// maybe runs fn, restoring the cursor and swallowing the error on
// failure — the parser's lookahead/backtracking primitive.
func (p *Parser) maybe(fn func() (any, error)) (any, bool) {
	save := p.pos
	v, err := fn()
	if err != nil {
		p.pos = save
		return nil, false
	}
	return v, true
}

func (p *Parser) errorf(code, format string, args ...any) error {
	return CreateSyntaxError(code, fmt.Sprintf(format, args...))
}

func (p *Parser) rangeSince(start int) diagnostic.Range {
	startTok := p.tokens[start]
	var endTok token.Token
	if p.pos > 0 {
		endTok = p.tokens[p.pos-1]
	} else {
		endTok = startTok
	}
	return diagnostic.Range{Start: startTok.Range.Start, End: endTok.Range.End}
}

// Parse runs the full program-level grammar over the token stream,
// returning every top-level declaration parsed plus any diagnostics.
// Per the component design's stated policy, the reference
// implementation stops at the first program-level failure.
func (p *Parser) Parse() (ast.Grammar, diagnostic.Bag) {
	var grammar ast.Grammar
	for !p.isFinished() {
		stmt, err := p.programStmt()
		if err != nil {
			p.diags.Add(err.(diagnostic.Kind), p.peek().Range)
			return grammar, p.diags
		}
		grammar = append(grammar, stmt)
	}
	return grammar, p.diags
}

// --- Program-level declarations ---

func (p *Parser) programStmt() (ast.ProgramStmt, error) {
	start := p.pos
	switch {
	case p.check(token.KwImport):
		return p.importDecl(start)
	case p.check(token.KwExport):
		p.step()
		return p.funDecl(start, true)
	case p.check(token.KwFn):
		return p.funDecl(start, false)
	case p.check(token.KwVar):
		v, err := p.varDecl(start)
		if err != nil {
			return nil, err
		}
		return &ast.ProgramVarDecl{VarDecl: v}, nil
	case p.check(token.KwVal):
		v, err := p.valDecl(start)
		if err != nil {
			return nil, err
		}
		return &ast.ProgramValDecl{ValDecl: v}, nil
	case p.check(token.KwStruct):
		return p.structDecl(start)
	case p.check(token.KwType):
		return p.typeDecl(start)
	default:
		return nil, p.errorf("ExpectedProgramStmt", "expected a top-level declaration, got %q", p.peek().Lexeme)
	}
}

func (p *Parser) importDecl(start int) (ast.ProgramStmt, error) {
	p.step() // import
	var idents []ast.IdentImport
	for {
		id, err := p.eatType(token.Ident, "identifier")
		if err != nil {
			return nil, err
		}
		imp := ast.IdentImport{Ident: id.Lexeme}
		if p.match(token.KwAs) {
			as, err := p.eatType(token.Ident, "identifier")
			if err != nil {
				return nil, err
			}
			imp.AsIdent = as.Lexeme
		}
		idents = append(idents, imp)
		if !p.match(token.Comma) {
			break
		}
	}
	if _, err := p.eatType(token.KwFrom, "'from'"); err != nil {
		return nil, err
	}
	from, err := p.eatType(token.LitStr, "string literal")
	if err != nil {
		return nil, err
	}
	return &ast.Import{Idents: idents, From: from.Literal.(string), Rng: p.rangeSince(start)}, nil
}

func (p *Parser) funDecl(start int, export bool) (ast.ProgramStmt, error) {
	p.step() // fn
	ident, err := p.eatType(token.Ident, "function name")
	if err != nil {
		return nil, err
	}
	if _, err := p.eatType(token.LParen, "'('"); err != nil {
		return nil, err
	}
	var params []ast.IdentTyped
	if !p.check(token.RParen) {
		for {
			param, err := p.identTyped(true)
			if err != nil {
				return nil, err
			}
			params = append(params, param)
			if !p.match(token.Comma) {
				break
			}
		}
	}
	if _, err := p.eatType(token.RParen, "')'"); err != nil {
		return nil, err
	}
	retType := ast.None
	if p.match(token.Colon) {
		retType, err = p.parseType()
		if err != nil {
			return nil, err
		}
	}
	body, err := p.block()
	if err != nil {
		return nil, err
	}
	return &ast.FunDecl{
		Export: export, Ident: ident.Lexeme, Params: params, RetType: retType,
		Body: body, Rng: p.rangeSince(start),
	}, nil
}

// identTyped parses "ident: Type"; requireType forbids the omitted
// annotation form (function parameters forbid "implicit any").
func (p *Parser) identTyped(requireType bool) (ast.IdentTyped, error) {
	start := p.pos
	ident, err := p.eatType(token.Ident, "identifier")
	if err != nil {
		return ast.IdentTyped{}, err
	}
	typ := ast.Default
	if p.match(token.Colon) {
		typ, err = p.parseType()
		if err != nil {
			return ast.IdentTyped{}, err
		}
	} else if requireType {
		return ast.IdentTyped{}, p.errorf("NoImplicitAny", "parameter %q has no type annotation", ident.Lexeme)
	}
	return ast.IdentTyped{Ident: ident.Lexeme, Type: typ, Rng: p.rangeSince(start)}, nil
}

func (p *Parser) structDecl(start int) (ast.ProgramStmt, error) {
	p.step() // struct
	ident, err := p.eatType(token.Ident, "struct name")
	if err != nil {
		return nil, err
	}
	if _, err := p.eatType(token.LBrace, "'{'"); err != nil {
		return nil, err
	}
	var fields []ast.IdentTyped
	for !p.check(token.RBrace) {
		f, err := p.identTyped(true)
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
		p.match(token.Comma)
	}
	if _, err := p.eatType(token.RBrace, "'}'"); err != nil {
		return nil, err
	}
	return &ast.StructDecl{Ident: ident.Lexeme, Fields: fields, Rng: p.rangeSince(start)}, nil
}

func (p *Parser) typeDecl(start int) (ast.ProgramStmt, error) {
	p.step() // type
	ident, err := p.eatType(token.Ident, "type name")
	if err != nil {
		return nil, err
	}
	if _, err := p.eatType(token.OpAssign, "'='"); err != nil {
		return nil, err
	}
	alias, err := p.parseType()
	if err != nil {
		return nil, err
	}
	return &ast.TypeDecl{Ident: ident.Lexeme, Alias: alias, Rng: p.rangeSince(start)}, nil
}

// parseType parses a type annotation: a primitive keyword, a named
// ident, an array "[T]", or a function type "(T, T): T".
func (p *Parser) parseType() (ast.Type, error) {
	tok := p.peek()
	if token.PrimitiveKeywords[tok.Type] {
		p.step()
		return ast.Primitive(tok.Type), nil
	}
	if p.check(token.Ident) {
		p.step()
		return ast.Ident(tok.Lexeme), nil
	}
	if p.match(token.LBracket) {
		elem, err := p.parseType()
		if err != nil {
			return ast.Type{}, err
		}
		if _, err := p.eatType(token.RBracket, "']'"); err != nil {
			return ast.Type{}, err
		}
		return ast.Array(elem), nil
	}
	if p.match(token.LParen) {
		var params []ast.Type
		if !p.check(token.RParen) {
			for {
				t, err := p.parseType()
				if err != nil {
					return ast.Type{}, err
				}
				params = append(params, t)
				if !p.match(token.Comma) {
					break
				}
			}
		}
		if _, err := p.eatType(token.RParen, "')'"); err != nil {
			return ast.Type{}, err
		}
		var ret *ast.Type
		if p.match(token.Colon) {
			r, err := p.parseType()
			if err != nil {
				return ast.Type{}, err
			}
			ret = &r
		}
		return ast.Function(params, ret), nil
	}
	return ast.Type{}, p.errorf("ExpectedType", "expected a type annotation, got %q", tok.Lexeme)
}

// --- Statements ---

func (p *Parser) statement() (ast.Stmt, error) {
	start := p.pos
	switch {
	case p.check(token.KwIf):
		return p.ifStmt(start)
	case p.check(token.KwWhile):
		return p.whileStmt(start)
	case p.check(token.KwContinue):
		p.step()
		return &ast.Continue{Rng: p.rangeSince(start)}, nil
	case p.check(token.KwBreak):
		p.step()
		return &ast.Break{Rng: p.rangeSince(start)}, nil
	case p.check(token.KwReturn):
		return p.returnStmt(start)
	case p.check(token.KwVar):
		return p.varDecl(start)
	case p.check(token.KwVal):
		return p.valDecl(start)
	case p.check(token.Tip):
		return p.tipStmt(start)
	case p.check(token.LBrace):
		return p.block()
	case p.check(token.Ident) && p.isAssignAhead():
		return p.assignStmt(start)
	default:
		return p.exprStmt(start)
	}
}

// isAssignAhead reports whether the token after the current ident is
// an assignment operator (lookahead of exactly one token).
func (p *Parser) isAssignAhead() bool {
	if p.pos+1 >= len(p.tokens) {
		return false
	}
	switch p.tokens[p.pos+1].Type {
	case token.OpAssign, token.OpAddAssign, token.OpSubAssign, token.OpMulAssign,
		token.OpDivAssign, token.OpModAssign, token.OpExpAssign,
		token.OpShlAssign, token.OpShrAssign, token.OpAndAssign,
		token.OpXorAssign, token.OpOrAssign, token.OpLogAndAssign, token.OpLogOrAssign:
		return true
	default:
		return false
	}
}

func (p *Parser) assignStmt(start int) (ast.Stmt, error) {
	ident := p.step()
	op := p.step()
	rhs, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &ast.Assign{Operator: op.Lexeme, Ident: ident.Lexeme, Rhs: rhs, Rng: p.rangeSince(start)}, nil
}

func (p *Parser) ifStmt(start int) (ast.Stmt, error) {
	p.step() // if
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	then, err := p.statement()
	if err != nil {
		return nil, err
	}
	var elseStmt ast.Stmt
	if p.match(token.KwElse) {
		elseStmt, err = p.statement()
		if err != nil {
			return nil, err
		}
	}
	return &ast.If{Cond: cond, Then: then, Else: elseStmt, Rng: p.rangeSince(start)}, nil
}

func (p *Parser) whileStmt(start int) (ast.Stmt, error) {
	p.step() // while
	var cond ast.Expression
	if !p.check(token.LBrace) {
		c, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		cond = c
	}
	body, err := p.statement()
	if err != nil {
		return nil, err
	}
	return &ast.While{Cond: cond, Body: body, Rng: p.rangeSince(start)}, nil
}

func (p *Parser) returnStmt(start int) (ast.Stmt, error) {
	p.step() // return
	var val ast.Expression
	if !p.check(token.RBrace) && !p.isFinished() {
		v, ok := p.maybe(func() (any, error) { return p.parseExpr() })
		if ok {
			val = v.(ast.Expression)
		}
	}
	return &ast.Return{Value: val, Rng: p.rangeSince(start)}, nil
}

func (p *Parser) varDecl(start int) (*ast.VarDecl, error) {
	p.step() // var
	target, err := p.identTyped(false)
	if err != nil {
		return nil, err
	}
	if _, err := p.eatType(token.OpAssign, "'='"); err != nil {
		return nil, err
	}
	init, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &ast.VarDecl{Target: target, Init: init, Rng: p.rangeSince(start)}, nil
}

func (p *Parser) valDecl(start int) (*ast.ValDecl, error) {
	p.step() // val
	target, err := p.identTyped(false)
	if err != nil {
		return nil, err
	}
	if _, err := p.eatType(token.OpAssign, "'='"); err != nil {
		return nil, err
	}
	init, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &ast.ValDecl{Target: target, Init: init, Rng: p.rangeSince(start)}, nil
}

func (p *Parser) tipStmt(start int) (ast.Stmt, error) {
	tok := p.step()
	tip := tok.Literal.(token.TipValue)
	return &ast.Tip{Ident: tip.Ident, Value: tip.Value, Rng: p.rangeSince(start)}, nil
}

func (p *Parser) block() (ast.Stmt, error) {
	start := p.pos
	if _, err := p.eatType(token.LBrace, "'{'"); err != nil {
		return nil, err
	}
	var stmts []ast.Stmt
	for !p.check(token.RBrace) && !p.isFinished() {
		s, err := p.statement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
	}
	if _, err := p.eatType(token.RBrace, "'}'"); err != nil {
		return nil, err
	}
	return &ast.Block{Statements: stmts, Rng: p.rangeSince(start)}, nil
}

func (p *Parser) exprStmt(start int) (ast.Stmt, error) {
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &ast.ExprStmt{Expr: expr, Rng: p.rangeSince(start)}, nil
}

// --- Expressions: table-driven Pratt parser ---

// precedence maps each binary operator token to its level (lower
// binds tighter) and whether it is right-associative, per the
// 23-level table. Assign/compound-assign levels are excluded: this
// repo parses assignment as a dedicated statement rule, per the
// REDESIGN FLAG's own recommendation — see DESIGN.md.
var precedence = map[token.TokenType]struct {
	level int
	right bool
}{
	token.OpExp:    {1, true},
	token.OpMul:    {2, false},
	token.OpDiv:    {2, false},
	token.OpMod:    {2, false},
	token.OpAdd:    {3, false},
	token.OpSub:    {3, false},
	token.OpShl:    {4, false},
	token.OpShr:    {4, false},
	token.OpLe:     {5, false},
	token.OpLt:     {5, false},
	token.OpGt:     {5, false},
	token.OpGe:     {5, false},
	token.OpEq:     {6, false},
	token.OpNe:     {6, false},
	token.OpBitAnd: {7, false},
	token.OpBitXor: {8, false},
	token.OpBitOr:  {9, false},
	token.OpLogAnd: {10, false},
	token.OpLogOr:  {11, false},
	token.OpPipe:   {23, false},
}

const maxPrecedence = 23

// parseExpr parses a full expression, recognizing the conditional
// form "then if cond else else_expr" only at this outermost call.
func (p *Parser) parseExpr() (ast.Expression, error) {
	start := p.pos
	then, err := p.parseExprPrec(maxPrecedence)
	if err != nil {
		return nil, err
	}
	if p.match(token.KwIf) {
		cond, err := p.parseExprPrec(maxPrecedence)
		if err != nil {
			return nil, err
		}
		if _, err := p.eatType(token.KwElse, "'else'"); err != nil {
			return nil, err
		}
		elseExpr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return &ast.Cond{Then: then, If: cond, Else: elseExpr, Rng: p.rangeSince(start)}, nil
	}
	return then, nil
}

func (p *Parser) parseExprPrec(maxPrec int) (ast.Expression, error) {
	start := p.pos
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		info, ok := precedence[p.peek().Type]
		if !ok || info.level > maxPrec {
			break
		}
		op := p.step()
		nextMax := info.level - 1
		if info.right {
			nextMax = info.level
		}
		right, err := p.parseExprPrec(nextMax)
		if err != nil {
			return nil, err
		}
		left = &ast.Binary{Operator: op, Left: left, Right: right, Rng: p.rangeSince(start)}
	}
	return left, nil
}

func (p *Parser) parseUnary() (ast.Expression, error) {
	start := p.pos
	if p.check(token.OpNot) || p.check(token.OpBitNot) || p.check(token.OpSub) {
		op := p.step()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryOp{Operator: op, Operand: operand, Rng: p.rangeSince(start)}, nil
	}
	return p.parsePostfix()
}

// parsePostfix parses a primary operand, then chains any postfix
// selector/call/index/slice operators.
func (p *Parser) parsePostfix() (ast.Expression, error) {
	start := p.pos
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.match(token.Dot):
			field, err := p.eatType(token.Ident, "field name")
			if err != nil {
				return nil, err
			}
			expr = &ast.Selector{Operand: expr, Field: field.Lexeme, Rng: p.rangeSince(start)}
		case p.match(token.LParen):
			var args []ast.Expression
			if !p.check(token.RParen) {
				for {
					a, err := p.parseExpr()
					if err != nil {
						return nil, err
					}
					args = append(args, a)
					if !p.match(token.Comma) {
						break
					}
				}
			}
			if _, err := p.eatType(token.RParen, "')'"); err != nil {
				return nil, err
			}
			expr = &ast.Arguments{Callee: expr, Args: args, Rng: p.rangeSince(start)}
		case p.match(token.LBracket):
			expr, err = p.parseIndexOrSlice(start, expr)
			if err != nil {
				return nil, err
			}
		default:
			return expr, nil
		}
	}
}

func (p *Parser) parseIndexOrSlice(start int, operand ast.Expression) (ast.Expression, error) {
	var idx, sliceStart, sliceEnd, sliceStep ast.Expression
	var err error
	if !p.check(token.Colon) {
		idx, err = p.parseExpr()
		if err != nil {
			return nil, err
		}
	}
	isSlice := false
	if p.match(token.Colon) {
		isSlice = true
		sliceStart = idx
		idx = nil
		if !p.check(token.Colon) && !p.check(token.RBracket) {
			sliceEnd, err = p.parseExpr()
			if err != nil {
				return nil, err
			}
		}
		if p.match(token.Colon) {
			if !p.check(token.RBracket) {
				sliceStep, err = p.parseExpr()
				if err != nil {
					return nil, err
				}
			}
		}
	}
	if _, err := p.eatType(token.RBracket, "']'"); err != nil {
		return nil, err
	}
	if isSlice {
		return &ast.Slice{Operand: operand, Start: sliceStart, End: sliceEnd, Step: sliceStep, Rng: p.rangeSince(start)}, nil
	}
	return &ast.Index{Operand: operand, Idx: idx, Rng: p.rangeSince(start)}, nil
}

func (p *Parser) parsePrimary() (ast.Expression, error) {
	start := p.pos
	tok := p.peek()
	switch tok.Type {
	case token.LitFloat, token.LitInt, token.LitStr, token.LitChar, token.LitBool:
		p.step()
		return &ast.Literal{Value: tok.Literal, Rng: p.rangeSince(start)}, nil
	case token.KwNone:
		p.step()
		return &ast.Literal{Value: nil, Type: ast.None, Rng: p.rangeSince(start)}, nil
	case token.Ident:
		p.step()
		return &ast.IdentExpr{Name: tok.Lexeme, Rng: p.rangeSince(start)}, nil
	case token.LParen:
		p.step()
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.eatType(token.RParen, "')'"); err != nil {
			return nil, err
		}
		return &ast.Grouping{Inner: inner, Rng: p.rangeSince(start)}, nil
	default:
		return nil, p.errorf("ExpectedExpr", "expected an expression, got %q", tok.Lexeme)
	}
}
