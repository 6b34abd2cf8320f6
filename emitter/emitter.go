// Package emitter lowers a type-checked AST into a WebAssembly binary
// module. Its structure mirrors the teacher's compiler package (a
// Compiler walking the tree and appending to a flat Instructions
// buffer via Visitor-like dispatch) but targets WASM's structured
// control flow (block/loop/if/else/end) instead of flat bytecode with
// backpatched jumps, and its section framing is grounded on the
// example pack's wasmbe encoder (see wasm.go/module.go).
package emitter

import (
	"nilan/ast"
	"nilan/checker"
	"nilan/diagnostic"
	"nilan/token"
)

// ErrorKind implements diagnostic.Kind for emitter-stage failures —
// almost always a symptom of a checker bug, since a clean Check()
// pass should make every node emittable.
type ErrorKind struct {
	Code_   string
	Message string
}

func (e ErrorKind) Error() string { return e.Message }
func (e ErrorKind) Stage() string { return "compiler" }
func (e ErrorKind) Code() string  { return e.Code_ }

// heapBase is where the bump allocator's free pointer starts,
// matching the wasmbe example's convention of reserving a stack/static
// area before the heap.
const heapBase = 1024

// Emitter holds the module under construction and the checker result
// it lowers.
type Emitter struct {
	chk        *checker.Checker
	mod        *Module
	diags      diagnostic.Bag
	heapGlobal int
	staticUsed int // bytes of the data segment already claimed by string literals
}

// Emit lowers a fully type-checked Grammar to a WASM binary module.
// Call only after Check() returned an empty diagnostic bag — Emit
// does not re-validate types, it trusts the checker's annotations.
func Emit(grammar ast.Grammar, chk *checker.Checker) ([]byte, diagnostic.Bag) {
	e := &Emitter{chk: chk, mod: NewModule()}

	e.mod.AddImportFunc("sys", "printInt", []byte{valI32}, nil)
	e.mod.AddImportFunc("sys", "printString", []byte{valI32}, nil)
	e.heapGlobal = e.mod.AddGlobal(valI32, true, heapBase)

	e.reserveDeclarations(grammar)
	e.emitBodies(grammar)

	return e.mod.Finish(), e.diags
}

func (e *Emitter) valtype(t ast.Type) byte {
	t = e.chk.Resolve(t)
	if t.Kind != ast.TypePrimitive {
		return valI32 // arrays, structs, and named types are pointers into memory
	}
	switch t.Primitive {
	case token.KwI64, token.KwU64:
		return valI64
	case token.KwF32:
		return valF32
	case token.KwF64:
		return valF64
	default:
		return valI32 // i32, u32, bool, char
	}
}

func (e *Emitter) isUnsigned(t ast.Type) bool {
	t = e.chk.Resolve(t)
	return t.Kind == ast.TypePrimitive && (t.Primitive == token.KwU32 || t.Primitive == token.KwU64)
}

func (e *Emitter) isFloat(t ast.Type) bool {
	t = e.chk.Resolve(t)
	return t.Kind == ast.TypePrimitive && (t.Primitive == token.KwF32 || t.Primitive == token.KwF64)
}

func (e *Emitter) isWide(t ast.Type) bool {
	t = e.chk.Resolve(t)
	return t.Kind == ast.TypePrimitive && (t.Primitive == token.KwI64 || t.Primitive == token.KwU64 || t.Primitive == token.KwF64)
}

// reserveDeclarations walks the grammar once in the same top-to-bottom
// order the checker's Phase A used, so the function/global index each
// declaration is reserved with here lines up with the FuncIdx/GlobalIdx
// the checker already recorded on the AST node.
func (e *Emitter) reserveDeclarations(grammar ast.Grammar) {
	for _, stmt := range grammar {
		switch s := stmt.(type) {
		case *ast.FunDecl:
			params := make([]byte, len(s.Params))
			for i, p := range s.Params {
				params[i] = e.valtype(p.Type)
			}
			var results []byte
			ret := e.chk.Resolve(s.RetType)
			if !(ret.Kind == ast.TypePrimitive && ret.Primitive == token.KwNone) {
				results = []byte{e.valtype(ret)}
			}
			e.mod.ReserveFunction(params, results)

		case *ast.ProgramVarDecl:
			e.mod.AddGlobal(e.valtype(s.Target.Type), true, 0)
		case *ast.ProgramValDecl:
			e.mod.AddGlobal(e.valtype(s.Target.Type), false, 0)
		}
	}
}

// moduleGlobalIdx maps a checker-assigned user global index to the
// module's own global index space (global 0 is the heap pointer).
func (e *Emitter) moduleGlobalIdx(userIdx int) int { return userIdx + 1 }

func (e *Emitter) emitBodies(grammar ast.Grammar) {
	for _, stmt := range grammar {
		switch s := stmt.(type) {
		case *ast.FunDecl:
			e.emitFunDecl(s)
			if s.Export {
				e.mod.AddExport(s.Ident, exportFunc, s.FuncIdx)
			}
		case *ast.ProgramVarDecl:
			e.emitGlobalInit(s.GlobalIdx, s.Target.Type, s.Init, s.Rng)
		case *ast.ProgramValDecl:
			e.emitGlobalInit(s.GlobalIdx, s.Target.Type, s.Init, s.Rng)
		}
	}
}

// emitGlobalInit folds a global's initializer into its WASM init
// expression. WASM global initializers must be constant expressions,
// so only literal initializers are supported — a Non-goal this
// toolchain shares with most small WASM front ends that lack a start
// section story for richer global initialization.
func (e *Emitter) emitGlobalInit(globalIdx int, declType ast.Type, init ast.Expression, rng diagnostic.Range) {
	lit, ok := init.(*ast.Literal)
	if !ok {
		e.diags.Add(ErrorKind{Code_: "Unimplemented", Message: "global initializers must be literal constants"}, rng)
		return
	}
	vt := e.valtype(declType)
	e.mod.SetGlobalInit(e.moduleGlobalIdx(globalIdx), vt, literalBits(vt, lit.Value))
}
