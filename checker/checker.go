// Package checker implements Hindley-Milner-style bidirectional type
// inference with numeric subtype coercion, ported from the original
// whistle-lang compiler's compiler/src/checker/checker.rs — the
// ground truth for the exact unification algorithm spec.md only
// describes in prose (which side a variable points at, how Array
// unifies element-wise, the coercion table). Phase A/B/C/D follow
// §4.5 of the expanded spec.
//
// Unlike the teacher's Visitor-based AST traversal (ASTCompiler
// implements ExpressionVisitor/StmtVisitor), the checker walks the
// AST with direct type-switches: it must mutate ast.Type fields in
// place as inference proceeds, which sits awkwardly behind an
// any-returning Accept dispatch.
package checker

import (
	"fmt"

	"nilan/ast"
	"nilan/diagnostic"
	"nilan/scope"
	"nilan/token"
)

// ErrorKind implements diagnostic.Kind for every checker-stage
// failure named in the error handling design (SymbolRedefinition and
// SymbolUndefined are re-exported from the scope package's own
// ErrorKind instead of duplicated).
type ErrorKind struct {
	Code_ string
	msg   string
	T1    ast.Type
	T2    ast.Type
}

func (e ErrorKind) Error() string {
	if e.msg != "" {
		return e.msg
	}
	return fmt.Sprintf("%s: %s vs %s", e.Code_, e.T1, e.T2)
}
func (e ErrorKind) Stage() string { return "compiler" }
func (e ErrorKind) Code() string  { return e.Code_ }

func typeMismatch(t1, t2 ast.Type) ErrorKind {
	return ErrorKind{Code_: "TypeMismatch", T1: t1, T2: t2}
}

func simple(code, msg string) ErrorKind {
	return ErrorKind{Code_: code, msg: msg}
}

// diagErr records any error as a diagnostic, preserving its Kind when
// it already implements diagnostic.Kind (e.g. a scope.ErrorKind) and
// falling back to a generic wrapper otherwise.
func (c *Checker) diagErr(err error, rng diagnostic.Range) {
	if k, ok := err.(diagnostic.Kind); ok {
		c.Diags.Add(k, rng)
		return
	}
	c.Diags.Add(simple("Unimplemented", err.Error()), rng)
}

// Constraint is one equality obligation collected during Phase B and
// resolved during Phase C.
type Constraint struct {
	T1, T2 ast.Type
	Rng    diagnostic.Range
}

// Checker holds the whole inference state for a single compile call:
// the symbol table, the substitution vector, and the pending
// constraint list.
type Checker struct {
	Scope          *scope.Container
	Subs           []ast.Type
	varRanges      []diagnostic.Range
	Constraints    []Constraint
	boolObligation []Constraint
	Diags          diagnostic.Bag
	Structs        map[string]ast.Type
	loopDepth      int
	currentRet     *ast.Type
}

// New constructs a Checker with its Global scope and the built-in
// function symbols (sys.printInt, sys.printString) pre-registered, so
// user code type-checks calls to them without any import. Function
// indices for builtins are allocated first, matching "built-in
// imports are registered before user code".
func New() *Checker {
	c := &Checker{
		Scope:   scope.NewContainer(),
		Structs: make(map[string]ast.Type),
	}
	c.registerBuiltin("printInt", []ast.Type{ast.I32}, nil)
	strRet := ast.None
	c.registerBuiltin("printString", []ast.Type{ast.Str}, &strRet)
	return c
}

func (c *Checker) registerBuiltin(name string, params []ast.Type, ret *ast.Type) {
	_, _ = c.Scope.SetFunSym(name, scope.Symbol{
		Global: true, Mutable: false, Type: ast.Function(params, ret),
	})
}

func (c *Checker) newVar(rng diagnostic.Range) ast.Type {
	id := len(c.Subs)
	c.Subs = append(c.Subs, ast.Var(id))
	c.varRanges = append(c.varRanges, rng)
	return ast.Var(id)
}

func (c *Checker) constrain(t1, t2 ast.Type, rng diagnostic.Range) {
	c.Constraints = append(c.Constraints, Constraint{T1: t1, T2: t2, Rng: rng})
}

// requireBool records an if/while condition's type to be checked
// against Bool once Phase D has resolved it — a distinct obligation
// from the generic equality Constraints, so a non-Bool condition is
// diagnosed as ExpectedBooleanExpr instead of the generic TypeMismatch
// a constrain(ast.Bool, ...) would produce.
func (c *Checker) requireBool(t ast.Type, rng diagnostic.Range) {
	c.boolObligation = append(c.boolObligation, Constraint{T1: t, Rng: rng})
}

// checkBoolObligations is run after Phase D: any condition whose fully
// resolved type isn't Bool is diagnosed.
func (c *Checker) checkBoolObligations() {
	for _, ob := range c.boolObligation {
		if !c.substitute(ob.T1).Equal(ast.Bool) {
			c.Diags.Add(simple("ExpectedBooleanExpr", "condition must be a bool expression"), ob.Rng)
		}
	}
}

// baseType chases a Var-to-Var chain to its root, but — unlike
// substitute — never resolves a Var that is already bound to a
// concrete type: the caller (unify) needs to see "this is still a
// variable, here's what it's currently bound to" rather than the
// fully-resolved value, so it can decide whether to narrow that
// binding. Ported from the original checker's base_type.
func (c *Checker) baseType(t ast.Type) ast.Type {
	if t.Kind == ast.TypeVar {
		if next := c.Subs[t.VarID]; next.Kind == ast.TypeVar && next.VarID != t.VarID {
			return c.baseType(next)
		}
	}
	return t
}

// substitute fully resolves a type, descending into Array and
// following a Var all the way to its bound value (concrete or
// otherwise) rather than stopping at the first link the way baseType
// does — the glossary's "substitute" definition, ported from the
// original checker's own substitute (which recurses on Subs[i]
// directly, not through base_type).
func (c *Checker) substitute(t ast.Type) ast.Type {
	if t.Kind == ast.TypeVar {
		if c.Subs[t.VarID].Equal(t) {
			return t
		}
		return c.substitute(c.Subs[t.VarID])
	}
	if t.Kind == ast.TypeArray {
		elem := c.substitute(*t.Elem)
		return ast.Array(elem)
	}
	return t
}

// numericAncestors encodes the subtype lattice: Number > {Int,
// Float}; Int > {i32,i64,u32,u64}; Float > {f32,f64}.
var numericAncestors = map[token.TokenType][]token.TokenType{
	token.KwI32: {token.KwInt, token.KwNumber},
	token.KwI64: {token.KwInt, token.KwNumber},
	token.KwU32: {token.KwInt, token.KwNumber},
	token.KwU64: {token.KwInt, token.KwNumber},
	token.KwF32: {token.KwFloat, token.KwNumber},
	token.KwF64: {token.KwFloat, token.KwNumber},
	token.KwInt:   {token.KwNumber},
	token.KwFloat: {token.KwNumber},
}

func isNumericFamily(p token.TokenType) bool {
	if p == token.KwNumber {
		return true
	}
	_, ok := numericAncestors[p]
	return ok
}

// IsSubtype reports whether a is-a b, per the lattice. The second
// return distinguishes "false" (same family, illegal widening — an
// informative rejection) from "undefined" (unrelated families
// entirely, also a rejection but for a different reason).
func IsSubtype(a, b ast.Type) (ok bool, defined bool) {
	if a.Kind != ast.TypePrimitive || b.Kind != ast.TypePrimitive {
		if a.Equal(b) {
			return true, true
		}
		return false, false
	}
	if a.Primitive == b.Primitive {
		return true, true
	}
	if !isNumericFamily(a.Primitive) || !isNumericFamily(b.Primitive) {
		return false, false
	}
	for _, anc := range numericAncestors[a.Primitive] {
		if anc == b.Primitive {
			return true, true
		}
	}
	return false, true
}

// unify resolves t1 and t2 to their base types. baseType guarantees
// that whenever a base is a Var, its substitution slot holds either
// itself (unbound) or a genuinely concrete/array type (never another
// distinct Var) — so the three branches below only ever need to look
// one level deep. Binding a Var narrows its slot only when the other
// side is strictly more specific (IsSubtype's ok==true); same-family
// but not-narrower (ok==false) is accepted without rebinding, and only
// an undefined (unrelated families) result raises a TypeMismatch —
// matching the original checker's unify/unify_base/is_subtype trio.
func (c *Checker) unify(t1, t2 ast.Type, rng diagnostic.Range) {
	b1 := c.baseType(t1)
	b2 := c.baseType(t2)
	switch {
	case b1.Kind == ast.TypeVar && b2.Kind == ast.TypeVar:
		c.unifyVars(b1.VarID, b2.VarID, rng)
	case b1.Kind == ast.TypeVar:
		c.unifyVarWithConcrete(b1.VarID, b2, rng)
	case b2.Kind == ast.TypeVar:
		c.unifyVarWithConcrete(b2.VarID, b1, rng)
	case b1.Kind == ast.TypeArray && b2.Kind == ast.TypeArray:
		c.unify(*b1.Elem, *b2.Elem, rng)
	default:
		if _, defined := IsSubtype(b2, b1); !defined {
			c.Diags.Add(typeMismatch(c.substitute(b1), c.substitute(b2)), rng)
		}
	}
}

// isUnbound reports whether substitution slot i is still pointing at
// itself, i.e. no constraint has narrowed it yet.
func (c *Checker) isUnbound(i int) bool {
	s := c.Subs[i]
	return s.Kind == ast.TypeVar && s.VarID == i
}

// unifyVarWithConcrete narrows slot i to candidate only when candidate
// is strictly more specific than i's current binding (or i is still
// unbound, in which case there is nothing to compare against yet).
func (c *Checker) unifyVarWithConcrete(i int, candidate ast.Type, rng diagnostic.Range) {
	if c.isUnbound(i) {
		c.Subs[i] = candidate
		return
	}
	cur := c.Subs[i]
	if cur.Kind == ast.TypeArray && candidate.Kind == ast.TypeArray {
		c.unify(*cur.Elem, *candidate.Elem, rng)
		return
	}
	ok, defined := IsSubtype(candidate, cur)
	if !defined {
		c.Diags.Add(typeMismatch(c.substitute(cur), c.substitute(candidate)), rng)
		return
	}
	if ok {
		c.Subs[i] = candidate
	}
}

// unifyVars unifies two still-open Var slots: an unbound slot is
// linked to (or takes on) the other's binding outright; when both are
// already bound, whichever side is the more specific type wins.
func (c *Checker) unifyVars(i, j int, rng diagnostic.Range) {
	if i == j {
		return
	}
	iBound, jBound := !c.isUnbound(i), !c.isUnbound(j)
	switch {
	case !iBound && !jBound:
		c.Subs[i] = ast.Var(j)
	case !iBound:
		c.Subs[i] = c.Subs[j]
	case !jBound:
		c.Subs[j] = c.Subs[i]
	default:
		ci, cj := c.Subs[i], c.Subs[j]
		ok, defined := IsSubtype(cj, ci)
		if !defined {
			c.Diags.Add(typeMismatch(c.substitute(ci), c.substitute(cj)), rng)
			return
		}
		if ok {
			c.Subs[i] = cj
		} else {
			c.Subs[j] = ci
		}
	}
}

// resolveConstraints is Phase C: iterate accumulated constraints in
// order, unifying each.
func (c *Checker) resolveConstraints() {
	for _, con := range c.Constraints {
		c.unify(con.T1, con.T2, con.Rng)
	}
}

// coercePrimitive applies Phase D's default coercion: Int → i32,
// Float → f64, Number → i32; an unresolved variable becomes Error.
func coercePrimitive(t ast.Type) ast.Type {
	switch t.Kind {
	case ast.TypePrimitive:
		switch t.Primitive {
		case token.KwInt:
			return ast.I32
		case token.KwFloat:
			return ast.F64
		case token.KwNumber:
			return ast.I32
		default:
			return t
		}
	case ast.TypeArray:
		return ast.Array(coercePrimitive(*t.Elem))
	case ast.TypeVar:
		return ast.ErrorType
	default:
		return t
	}
}

// coerceAll is Phase D, run once after Phase C. Any substitution slot
// that resolves to a genuinely unresolved variable is diagnosed as
// "could not infer type" at the AST position that requested it.
func (c *Checker) coerceAll() {
	for i := range c.Subs {
		resolved := c.substitute(ast.Var(i))
		if resolved.Kind == ast.TypeVar && resolved.VarID == i {
			rng := diagnostic.Range{}
			if i < len(c.varRanges) {
				rng = c.varRanges[i]
			}
			c.Diags.Add(simple("Unimplemented", "could not infer type"), rng)
		}
		c.Subs[i] = coercePrimitive(resolved)
	}
}

// Resolve fully substitutes and coerces a type for final use by the
// emitter (applying any coercion Phase D already computed).
func (c *Checker) Resolve(t ast.Type) ast.Type {
	return c.substitute(t)
}

// Check runs all four phases over a parsed Grammar, mutating every
// AST node's Type field in place and returning the accumulated
// diagnostics.
func Check(grammar ast.Grammar) (*Checker, diagnostic.Bag) {
	c := New()
	c.phaseADeclarations(grammar)
	c.phaseBWalk(grammar)
	c.resolveConstraints()
	c.coerceAll()
	c.checkBoolObligations()
	return c, c.Diags
}
