// Package scope implements the lexically nested scope/symbol table,
// ported from the original whistle-lang compiler's
// compiler/src/scope.rs (the ground truth for the arena-of-scopes
// design spec.md's prose only gestures at) into idiomatic Go: an
// arena of Scope values addressed by index rather than a
// back-pointered tree, following the "Scopes form a tree; symbol
// lookup walks up" design note.
package scope

import (
	"fmt"

	"nilan/ast"
	"nilan/diagnostic"
)

// Kind tags which of the three scope variants a Scope is.
type Kind int

const (
	Global Kind = iota
	Function
	Block
)

// Symbol is one binding: its mutability, globality, and type.
type Symbol struct {
	Global  bool
	Mutable bool
	Type    ast.Type
}

// IndexedSymbol pairs a Symbol with its stable numeric index within
// its defining scope (function table index, WebAssembly global index,
// or local slot — see the glossary).
type IndexedSymbol struct {
	Index  uint32
	Symbol Symbol
}

// Scope is one node in the arena. Exactly one of the per-kind fields
// is meaningful, selected by Kind.
type Scope struct {
	Kind    Kind
	Symbols map[string]IndexedSymbol

	// Global
	NextFunIdx    uint32
	NextGlobalIdx uint32

	// Function
	GlobalParent int // index of the enclosing Global scope
	NextLocalIdx uint32

	// Block
	Parent int // index of the enclosing scope
}

func newScope(kind Kind) Scope {
	return Scope{Kind: kind, Symbols: make(map[string]IndexedSymbol)}
}

// ErrorKind implements diagnostic.Kind for scope-table failures.
type ErrorKind struct {
	Code_   string
	Message string
}

func (e ErrorKind) Error() string { return e.Message }
func (e ErrorKind) Stage() string { return "compiler" }
func (e ErrorKind) Code() string  { return e.Code_ }

func redefinition(ident string) error {
	return ErrorKind{Code_: "SymbolRedefinition", Message: fmt.Sprintf("%q is already defined in this scope", ident)}
}

func undefined(ident string) error {
	return ErrorKind{Code_: "SymbolUndefined", Message: fmt.Sprintf("%q is not defined", ident)}
}

// Container is the arena of scopes plus the index of the scope
// currently being descended into.
type Container struct {
	Scopes []Scope
	Curr   int
}

// NewContainer constructs a Container with its single root Global
// scope already entered, matching enter_scope's "None ⇒ Global" rule
// applied once at construction.
func NewContainer() *Container {
	c := &Container{}
	c.Scopes = append(c.Scopes, newScope(Global))
	c.Curr = 0
	return c
}

// EnterScope pushes a new scope determined by the current one:
// Global ⇒ Function, anything else ⇒ Block.
func (c *Container) EnterScope() int {
	var next Scope
	switch c.Scopes[c.Curr].Kind {
	case Global:
		next = newScope(Function)
		next.GlobalParent = c.Curr
	default:
		next = newScope(Block)
		next.Parent = c.Curr
	}
	c.Scopes = append(c.Scopes, next)
	idx := len(c.Scopes) - 1
	c.Curr = idx
	return idx
}

// ExitScope returns to the parent scope: a Function's Global, or a
// Block's Parent. Exiting the root Global scope is a no-op.
func (c *Container) ExitScope() {
	cur := c.Scopes[c.Curr]
	switch cur.Kind {
	case Function:
		c.Curr = cur.GlobalParent
	case Block:
		c.Curr = cur.Parent
	case Global:
		// no parent; stay put
	}
}

// FunScopeOf walks up from `from` to the enclosing Function scope
// (or -1 if none exists, e.g. at program scope).
func (c *Container) FunScopeOf(from int) int {
	idx := from
	for {
		switch c.Scopes[idx].Kind {
		case Function:
			return idx
		case Block:
			idx = c.Scopes[idx].Parent
		default:
			return -1
		}
	}
}

// GlobalScopeOf walks up from `from` to the enclosing Global scope.
func (c *Container) GlobalScopeOf(from int) int {
	idx := from
	for {
		switch c.Scopes[idx].Kind {
		case Global:
			return idx
		case Function:
			idx = c.Scopes[idx].GlobalParent
		case Block:
			idx = c.Scopes[idx].Parent
		}
	}
}

// SetGlobalSym records a global variable binding in the Global scope
// reachable from Curr, allocating the next global index.
func (c *Container) SetGlobalSym(ident string, sym Symbol) (uint32, error) {
	gi := c.GlobalScopeOf(c.Curr)
	g := &c.Scopes[gi]
	if _, exists := g.Symbols[ident]; exists {
		return 0, redefinition(ident)
	}
	idx := g.NextGlobalIdx
	g.NextGlobalIdx++
	g.Symbols[ident] = IndexedSymbol{Index: idx, Symbol: sym}
	return idx, nil
}

// SetFunSym records a function binding in the Global scope reachable
// from Curr, allocating the next function-table index.
func (c *Container) SetFunSym(ident string, sym Symbol) (uint32, error) {
	gi := c.GlobalScopeOf(c.Curr)
	g := &c.Scopes[gi]
	if _, exists := g.Symbols[ident]; exists {
		return 0, redefinition(ident)
	}
	idx := g.NextFunIdx
	g.NextFunIdx++
	g.Symbols[ident] = IndexedSymbol{Index: idx, Symbol: sym}
	return idx, nil
}

// SetLocalSym walks up to the enclosing Function scope to allocate
// the next local slot, then records the binding in the *current*
// (possibly Block) scope — so a block-scoped local still occupies a
// fresh slot in its function's flat local space, while remaining
// invisible outside the block.
func (c *Container) SetLocalSym(ident string, sym Symbol) (uint32, error) {
	cur := &c.Scopes[c.Curr]
	if _, exists := cur.Symbols[ident]; exists {
		return 0, redefinition(ident)
	}
	fi := c.FunScopeOf(c.Curr)
	if fi < 0 {
		return 0, ErrorKind{Code_: "ScopeNotFunction", Message: "local declaration outside of a function"}
	}
	f := &c.Scopes[fi]
	idx := f.NextLocalIdx
	f.NextLocalIdx++
	cur.Symbols[ident] = IndexedSymbol{Index: idx, Symbol: sym}
	return idx, nil
}

// GetSym searches the current scope, then its parents, up to and
// including the enclosing Global scope.
func (c *Container) GetSym(ident string) (IndexedSymbol, error) {
	idx := c.Curr
	for {
		s := c.Scopes[idx]
		if sym, ok := s.Symbols[ident]; ok {
			return sym, nil
		}
		switch s.Kind {
		case Global:
			return IndexedSymbol{}, undefined(ident)
		case Function:
			idx = s.GlobalParent
		case Block:
			idx = s.Parent
		}
	}
}

// SetSym assigns to an existing symbol's Symbol payload in place,
// searching the same current→parent chain as GetSym.
func (c *Container) SetSym(ident string, sym Symbol) error {
	idx := c.Curr
	for {
		s := &c.Scopes[idx]
		if existing, ok := s.Symbols[ident]; ok {
			s.Symbols[ident] = IndexedSymbol{Index: existing.Index, Symbol: sym}
			return nil
		}
		switch s.Kind {
		case Global:
			return undefined(ident)
		case Function:
			idx = s.GlobalParent
		case Block:
			idx = s.Parent
		}
	}
}

var (
	_ diagnostic.Kind = ErrorKind{}
)
