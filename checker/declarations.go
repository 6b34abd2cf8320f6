package checker

import (
	"nilan/ast"
	"nilan/scope"
	"nilan/token"
)

// sizeOf returns a primitive/array/struct type's byte footprint for
// struct layout purposes, following the fixed layout decided in
// DESIGN.md: declaration order, natural alignment, little endian.
// Arrays and strings are represented as a (pointer, length) pair.
func (c *Checker) sizeOf(t ast.Type) int {
	switch t.Kind {
	case ast.TypePrimitive:
		switch t.Primitive {
		case token.KwI64, token.KwU64, token.KwF64:
			return 8
		case token.KwBool:
			return 1
		case token.KwChar:
			return 1
		case token.KwStr:
			return 8
		case token.KwNone:
			return 0
		default: // i32, u32, f32, and the meta kinds default to 4
			return 4
		}
	case ast.TypeArray:
		return 8
	case ast.TypeIdent:
		if st, ok := c.Structs[t.Name]; ok {
			return c.sizeOf(st)
		}
		return 4
	case ast.TypeStruct:
		total := 0
		for _, f := range t.Fields {
			total += c.sizeOf(f.Type)
		}
		return total
	default:
		return 4
	}
}

func alignOf(size int) int {
	switch {
	case size >= 8:
		return 8
	case size >= 4:
		return 4
	default:
		return size
	}
}

func alignUp(offset, align int) int {
	if align <= 1 {
		return offset
	}
	rem := offset % align
	if rem == 0 {
		return offset
	}
	return offset + (align - rem)
}

// layoutFields computes each field's byte Offset in declaration
// order with natural alignment.
func (c *Checker) layoutFields(fields []ast.IdentTyped) []ast.Field {
	out := make([]ast.Field, 0, len(fields))
	offset := 0
	for _, f := range fields {
		size := c.sizeOf(f.Type)
		align := alignOf(size)
		offset = alignUp(offset, align)
		out = append(out, ast.Field{Name: f.Ident, Type: f.Type, Offset: offset})
		offset += size
	}
	return out
}

// phaseADeclarations is Phase A: a shallow pass over every top-level
// declaration, registering names before any body is checked so that
// forward references (a function calling one declared later in the
// file) resolve.
func (c *Checker) phaseADeclarations(grammar ast.Grammar) {
	// structs and type aliases first: function signatures may name them.
	for _, stmt := range grammar {
		switch s := stmt.(type) {
		case *ast.StructDecl:
			c.Structs[s.Ident] = ast.Struct(c.layoutFields(s.Fields))
		case *ast.TypeDecl:
			c.Structs[s.Ident] = s.Alias
		}
	}

	for _, stmt := range grammar {
		switch s := stmt.(type) {
		case *ast.FunDecl:
			// the parser already rejects an untyped parameter with a
			// NoImplicitAny syntax error (identTyped's requireType), so a
			// FunDecl reaching here never carries a TypeDefault param.
			params := make([]ast.Type, len(s.Params))
			for i, p := range s.Params {
				params[i] = p.Type
			}
			ret := s.RetType
			idx, err := c.Scope.SetFunSym(s.Ident, scope.Symbol{
				Global: true, Mutable: false, Type: ast.Function(params, &ret),
			})
			if err != nil {
				c.diagErr(err, s.Range())
				continue
			}
			s.FuncIdx = int(idx)

		case *ast.ProgramVarDecl:
			c.registerGlobalVarDecl(s.VarDecl, true)
		case *ast.ProgramValDecl:
			c.registerGlobalValDecl(s.ValDecl, false)
		}
	}
}

// registerGlobalVarDecl/registerGlobalValDecl are split out because VarDecl
// and ValDecl are distinct concrete types sharing no interface beyond
// ast.Stmt (which does not expose Target/Init/GlobalIdx).
func (c *Checker) registerGlobalVarDecl(d *ast.VarDecl, mutable bool) {
	declType := d.Target.Type
	if declType.Kind == ast.TypeDefault {
		declType = c.newVar(d.Range())
		d.Target.Type = declType
	}
	idx, err := c.Scope.SetGlobalSym(d.Target.Ident, scope.Symbol{Global: true, Mutable: mutable, Type: declType})
	if err != nil {
		c.diagErr(err, d.Range())
		return
	}
	d.GlobalIdx = int(idx)
	d.IsGlobal = true
}

func (c *Checker) registerGlobalValDecl(d *ast.ValDecl, mutable bool) {
	declType := d.Target.Type
	if declType.Kind == ast.TypeDefault {
		declType = c.newVar(d.Range())
		d.Target.Type = declType
	}
	idx, err := c.Scope.SetGlobalSym(d.Target.Ident, scope.Symbol{Global: true, Mutable: mutable, Type: declType})
	if err != nil {
		c.diagErr(err, d.Range())
		return
	}
	d.GlobalIdx = int(idx)
	d.IsGlobal = true
}
