package checker

import (
	"nilan/ast"
	"nilan/diagnostic"
	"nilan/scope"
	"nilan/token"
)

// phaseBWalk is Phase B: descend every function body and global
// initializer, assigning a Type to each expression node (mutating it
// in place) and recording equality Constraints for Phase C to
// resolve.
func (c *Checker) phaseBWalk(grammar ast.Grammar) {
	for _, stmt := range grammar {
		switch s := stmt.(type) {
		case *ast.FunDecl:
			c.checkFunDecl(s)
		case *ast.ProgramVarDecl:
			initType := c.checkExpr(s.Init)
			c.constrain(s.Target.Type, initType, s.Range())
		case *ast.ProgramValDecl:
			initType := c.checkExpr(s.Init)
			c.constrain(s.Target.Type, initType, s.Range())
		}
	}
}

func (c *Checker) checkFunDecl(f *ast.FunDecl) {
	c.Scope.EnterScope()
	for _, p := range f.Params {
		_, err := c.Scope.SetLocalSym(p.Ident, scope.Symbol{Mutable: true, Type: p.Type})
		if err != nil {
			c.diagErr(err, p.Rng)
		}
	}
	ret := f.RetType
	prevRet := c.currentRet
	c.currentRet = &ret
	c.checkStmt(f.Body)
	c.currentRet = prevRet
	c.Scope.ExitScope()
}

// resolveNamed resolves a TypeIdent to its underlying struct/alias
// type, if known.
func (c *Checker) resolveNamed(t ast.Type) ast.Type {
	if t.Kind == ast.TypeIdent {
		if st, ok := c.Structs[t.Name]; ok {
			return st
		}
	}
	return t
}

func (c *Checker) checkStmt(stmt ast.Stmt) {
	switch s := stmt.(type) {
	case *ast.If:
		condType := c.checkExpr(s.Cond)
		c.requireBool(condType, s.Cond.Range())
		c.checkStmt(s.Then)
		if s.Else != nil {
			c.checkStmt(s.Else)
		}

	case *ast.While:
		if s.Cond != nil {
			condType := c.checkExpr(s.Cond)
			c.requireBool(condType, s.Cond.Range())
		}
		c.loopDepth++
		c.checkStmt(s.Body)
		c.loopDepth--

	case *ast.Continue:
		if c.loopDepth == 0 {
			c.Diags.Add(simple("ContinueOutsideLoop", "continue outside of a loop"), s.Rng)
		}
	case *ast.Break:
		if c.loopDepth == 0 {
			c.Diags.Add(simple("BreakOutsideLoop", "break outside of a loop"), s.Rng)
		}

	case *ast.Return:
		if c.currentRet == nil {
			return
		}
		if s.Value == nil {
			c.constrain(*c.currentRet, ast.None, s.Rng)
			return
		}
		valType := c.checkExpr(s.Value)
		c.constrain(*c.currentRet, valType, s.Rng)

	case *ast.VarDecl:
		c.checkLocalDecl(&s.Target, s.Init, true, &s.LocalIdx, &s.GlobalIdx, &s.IsGlobal, s.Rng)
	case *ast.ValDecl:
		c.checkLocalDecl(&s.Target, s.Init, false, &s.LocalIdx, &s.GlobalIdx, &s.IsGlobal, s.Rng)

	case *ast.Assign:
		c.checkAssign(s)

	case *ast.Block:
		c.Scope.EnterScope()
		for _, st := range s.Statements {
			c.checkStmt(st)
		}
		c.Scope.ExitScope()

	case *ast.Tip:
		// raw wasm bytes escape hatch: no type obligations.

	case *ast.ExprStmt:
		c.checkExpr(s.Expr)
	}
}

func (c *Checker) checkLocalDecl(target *ast.IdentTyped, init ast.Expression, mutable bool, localIdx, globalIdx *int, isGlobal *bool, rng diagnostic.Range) {
	declType := target.Type
	if declType.Kind == ast.TypeDefault {
		declType = c.newVar(rng)
		target.Type = declType
	}
	initType := c.checkExpr(init)
	c.constrain(declType, initType, rng)

	idx, err := c.Scope.SetLocalSym(target.Ident, scope.Symbol{Mutable: mutable, Type: declType})
	if err != nil {
		c.diagErr(err, rng)
		return
	}
	*localIdx = int(idx)
	*isGlobal = false
}

// assignFamily reports the type family a compound-assign operator
// requires its operands to belong to, mirroring checkBinary's table.
func assignFamily(op string) (ast.Type, bool) {
	switch op {
	case "+=", "-=", "*=", "/=", "%=", "**=":
		return ast.Number, true
	case "<<=", ">>=", "&=", "^=", "|=":
		return ast.Int, true
	case "&&=", "||=":
		return ast.Bool, true
	default:
		return ast.Type{}, false
	}
}

func (c *Checker) checkAssign(s *ast.Assign) {
	sym, err := c.Scope.GetSym(s.Ident)
	if err != nil {
		c.diagErr(err, s.Rng)
		c.checkExpr(s.Rhs)
		return
	}
	// a function binding names a callable, not a storage slot: there is
	// no lvalue here to assign into at all, distinct from ImmutableAssign
	// (which fires for a storage slot that exists but is read-only).
	if sym.Symbol.Type.Kind == ast.TypeFunction {
		c.Diags.Add(simple("Unassignable", s.Ident+" is a function, not an assignable binding"), s.Rng)
		c.checkExpr(s.Rhs)
		return
	}
	if !sym.Symbol.Mutable {
		c.Diags.Add(simple("ImmutableAssign", "cannot assign to immutable binding "+s.Ident), s.Rng)
	}
	rhsType := c.checkExpr(s.Rhs)
	if fam, ok := assignFamily(s.Operator); ok {
		c.constrain(fam, sym.Symbol.Type, s.Rng)
		c.constrain(fam, rhsType, s.Rng)
	}
	c.constrain(sym.Symbol.Type, rhsType, s.Rng)
}

func (c *Checker) checkExpr(e ast.Expression) ast.Type {
	switch expr := e.(type) {
	case *ast.Literal:
		return c.checkLiteral(expr)
	case *ast.IdentExpr:
		return c.checkIdent(expr)
	case *ast.Grouping:
		t := c.checkExpr(expr.Inner)
		expr.Type = t
		return t
	case *ast.UnaryOp:
		return c.checkUnary(expr)
	case *ast.Binary:
		return c.checkBinary(expr)
	case *ast.Cond:
		return c.checkCond(expr)
	case *ast.Selector:
		return c.checkSelector(expr)
	case *ast.Arguments:
		return c.checkArguments(expr)
	case *ast.Index:
		return c.checkIndex(expr)
	case *ast.Slice:
		return c.checkSlice(expr)
	default:
		return ast.ErrorType
	}
}

func (c *Checker) checkLiteral(e *ast.Literal) ast.Type {
	if e.Type.Kind != ast.TypePrimitive || e.Type.Primitive != "" {
		// already typed (the "none" literal is built with Type: ast.None
		// by the parser).
		return e.Type
	}
	var t ast.Type
	switch e.Value.(type) {
	case float64:
		t = c.newVar(e.Rng)
		c.constrain(ast.Float, t, e.Rng)
	case uint64:
		t = c.newVar(e.Rng)
		c.constrain(ast.Int, t, e.Rng)
	case string:
		t = ast.Str
	case byte:
		t = ast.Char
	case bool:
		t = ast.Bool
	default:
		t = c.newVar(e.Rng)
	}
	e.Type = t
	return t
}

func (c *Checker) checkIdent(e *ast.IdentExpr) ast.Type {
	sym, err := c.Scope.GetSym(e.Name)
	if err != nil {
		c.diagErr(err, e.Rng)
		e.Type = ast.ErrorType
		return ast.ErrorType
	}
	e.Type = sym.Symbol.Type
	return sym.Symbol.Type
}

func (c *Checker) checkUnary(e *ast.UnaryOp) ast.Type {
	operand := c.checkExpr(e.Operand)
	var result ast.Type
	switch e.Operator.Type {
	case token.OpNot:
		c.constrain(ast.Bool, operand, e.Rng)
		result = ast.Bool
	case token.OpBitNot:
		c.constrain(ast.Int, operand, e.Rng)
		result = operand
	case token.OpSub:
		c.constrain(ast.Number, operand, e.Rng)
		result = operand
	default:
		result = operand
	}
	e.Type = result
	return result
}

func (c *Checker) checkBinary(e *ast.Binary) ast.Type {
	left := c.checkExpr(e.Left)
	right := c.checkExpr(e.Right)
	var result ast.Type

	switch e.Operator.Type {
	case token.OpAdd, token.OpSub, token.OpMul, token.OpDiv, token.OpMod, token.OpExp:
		c.constrain(left, right, e.Rng)
		c.constrain(ast.Number, left, e.Rng)
		result = left

	case token.OpShl, token.OpShr, token.OpBitAnd, token.OpBitXor, token.OpBitOr:
		c.constrain(left, right, e.Rng)
		c.constrain(ast.Int, left, e.Rng)
		result = left

	case token.OpLt, token.OpLe, token.OpGt, token.OpGe:
		c.constrain(left, right, e.Rng)
		c.constrain(ast.Number, left, e.Rng)
		result = ast.Bool

	case token.OpEq, token.OpNe:
		c.constrain(left, right, e.Rng)
		result = ast.Bool

	case token.OpLogAnd, token.OpLogOr:
		c.constrain(ast.Bool, left, e.Rng)
		c.constrain(ast.Bool, right, e.Rng)
		result = ast.Bool

	case token.OpPipe:
		rf := c.resolveNamed(c.substitute(right))
		_, named := e.Right.(*ast.IdentExpr)
		if named && rf.Kind == ast.TypeFunction && len(rf.Params) >= 1 {
			c.constrain(rf.Params[0], left, e.Rng)
			if rf.Ret != nil {
				result = *rf.Ret
			} else {
				result = ast.None
			}
		} else {
			c.Diags.Add(simple("MissingCallSignature", "right-hand side of |> is not a named function"), e.Rng)
			result = ast.ErrorType
		}

	default:
		c.constrain(left, right, e.Rng)
		result = left
	}

	e.Type = result
	return result
}

func (c *Checker) checkCond(e *ast.Cond) ast.Type {
	condType := c.checkExpr(e.If)
	c.constrain(ast.Bool, condType, e.If.Range())
	thenType := c.checkExpr(e.Then)
	elseType := c.checkExpr(e.Else)
	c.constrain(thenType, elseType, e.Rng)
	e.Type = thenType
	return thenType
}

func (c *Checker) checkSelector(e *ast.Selector) ast.Type {
	operandType := c.resolveNamed(c.substitute(c.checkExpr(e.Operand)))
	if operandType.Kind != ast.TypeStruct {
		c.Diags.Add(simple("NoProperties", "selector operand is not a struct"), e.Rng)
		e.Type = ast.ErrorType
		return ast.ErrorType
	}
	for _, f := range operandType.Fields {
		if f.Name == e.Field {
			e.Type = f.Type
			return f.Type
		}
	}
	c.Diags.Add(simple("MissingProperty", "no field named "+e.Field), e.Rng)
	e.Type = ast.ErrorType
	return ast.ErrorType
}

func (c *Checker) checkArguments(e *ast.Arguments) ast.Type {
	calleeType := c.resolveNamed(c.substitute(c.checkExpr(e.Callee)))
	argTypes := make([]ast.Type, len(e.Args))
	for i, a := range e.Args {
		argTypes[i] = c.checkExpr(a)
	}
	if _, named := e.Callee.(*ast.IdentExpr); !named || calleeType.Kind != ast.TypeFunction {
		c.Diags.Add(simple("MissingCallSignature", "callee is not a named function"), e.Rng)
		e.Type = ast.ErrorType
		return ast.ErrorType
	}
	if len(calleeType.Params) != len(argTypes) {
		c.Diags.Add(simple("MissingParameters", "wrong number of arguments"), e.Rng)
		e.Type = ast.ErrorType
		return ast.ErrorType
	}
	for i, p := range calleeType.Params {
		c.constrain(p, argTypes[i], e.Args[i].Range())
	}
	result := ast.None
	if calleeType.Ret != nil {
		result = *calleeType.Ret
	}
	e.Type = result
	return result
}

func (c *Checker) checkIndex(e *ast.Index) ast.Type {
	operandType := c.substitute(c.checkExpr(e.Operand))
	idxType := c.checkExpr(e.Idx)
	c.constrain(ast.Int, idxType, e.Idx.Range())
	if operandType.Kind != ast.TypeArray {
		c.Diags.Add(simple("NotIndexable", "indexed operand is not an array"), e.Rng)
		e.Type = ast.ErrorType
		return ast.ErrorType
	}
	e.Type = *operandType.Elem
	return *operandType.Elem
}

func (c *Checker) checkSlice(e *ast.Slice) ast.Type {
	operandType := c.substitute(c.checkExpr(e.Operand))
	for _, bound := range []ast.Expression{e.Start, e.End, e.Step} {
		if bound != nil {
			boundType := c.checkExpr(bound)
			c.constrain(ast.Int, boundType, bound.Range())
		}
	}
	if operandType.Kind != ast.TypeArray {
		c.Diags.Add(simple("NotIndexable", "sliced operand is not an array"), e.Rng)
		e.Type = ast.ErrorType
		return ast.ErrorType
	}
	e.Type = operandType
	return operandType
}
