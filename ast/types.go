// types.go defines the Type node used throughout the AST, checker, and
// emitter. Unlike the expression/statement nodes (which follow the
// Visitor pattern, per the teacher's idiom), Type is a single mutable
// tagged struct: the checker rewrites Type values in place as it
// infers and coerces (Phase B/D), which is awkward behind an
// interface's Accept dispatch but natural on a concrete struct — the
// same reason compiler.ast_compiler.go in the teacher keeps its Local
// bookkeeping on plain structs rather than visitor nodes.
package ast

import "nilan/token"

// TypeKind tags which variant of Type a value holds.
type TypeKind int

const (
	TypePrimitive TypeKind = iota // i32, i64, u32, u64, f32, f64, bool, str, char, none, and the meta-kinds int/float/number
	TypeIdent                     // a named type reference, e.g. a struct/type alias by name
	TypeStruct                    // an inline struct type: {fields}
	TypeFunction                  // {params, ret}
	TypeArray                     // [elem]
	TypeVar                       // a fresh type variable, Var(id)
	TypeDefault                   // unspecified — no annotation was given
	TypeError                     // poison, used after an unrecoverable type error
)

// Field is one member of a Struct type, with its byte Offset computed
// once at struct-declaration checking time per the fixed layout
// decided in DESIGN.md (declaration order, natural alignment, little
// endian).
type Field struct {
	Name   string
	Type   Type
	Offset int
}

// Type is a tagged union over every type form the checker and emitter
// need: primitives, named references, inline structs, function
// signatures, arrays, type variables, and the two sentinel kinds
// (Default, Error).
type Type struct {
	Kind      TypeKind
	Primitive token.TokenType // valid when Kind == TypePrimitive
	Name      string          // valid when Kind == TypeIdent
	Fields    []Field         // valid when Kind == TypeStruct
	Params    []Type          // valid when Kind == TypeFunction
	Ret       *Type           // valid when Kind == TypeFunction; nil means "none"
	Elem      *Type           // valid when Kind == TypeArray
	VarID     int             // valid when Kind == TypeVar
}

func Primitive(p token.TokenType) Type { return Type{Kind: TypePrimitive, Primitive: p} }
func Ident(name string) Type           { return Type{Kind: TypeIdent, Name: name} }
func Struct(fields []Field) Type       { return Type{Kind: TypeStruct, Fields: fields} }
func Function(params []Type, ret *Type) Type {
	return Type{Kind: TypeFunction, Params: params, Ret: ret}
}
func Array(elem Type) Type { return Type{Kind: TypeArray, Elem: &elem} }
func Var(id int) Type      { return Type{Kind: TypeVar, VarID: id} }

var Default = Type{Kind: TypeDefault}
var ErrorType = Type{Kind: TypeError}

// Bool/None/etc. are convenience constructors for the meta and
// concrete primitive kinds used constantly by the checker.
var (
	Bool   = Primitive(token.KwBool)
	Str    = Primitive(token.KwStr)
	Char   = Primitive(token.KwChar)
	None   = Primitive(token.KwNone)
	Number = Primitive(token.KwNumber)
	Int    = Primitive(token.KwInt)
	Float  = Primitive(token.KwFloat)
	I32    = Primitive(token.KwI32)
	I64    = Primitive(token.KwI64)
	U32    = Primitive(token.KwU32)
	U64    = Primitive(token.KwU64)
	F32    = Primitive(token.KwF32)
	F64    = Primitive(token.KwF64)
)

// Equal reports shallow structural equality, sufficient once both
// sides are fully substituted (Phase C/D has already resolved
// variables).
func (t Type) Equal(other Type) bool {
	if t.Kind != other.Kind {
		return false
	}
	switch t.Kind {
	case TypePrimitive:
		return t.Primitive == other.Primitive
	case TypeIdent:
		return t.Name == other.Name
	case TypeVar:
		return t.VarID == other.VarID
	case TypeArray:
		return t.Elem.Equal(*other.Elem)
	case TypeFunction:
		if len(t.Params) != len(other.Params) {
			return false
		}
		for i := range t.Params {
			if !t.Params[i].Equal(other.Params[i]) {
				return false
			}
		}
		if (t.Ret == nil) != (other.Ret == nil) {
			return false
		}
		return t.Ret == nil || t.Ret.Equal(*other.Ret)
	default:
		return true
	}
}

func (t Type) String() string {
	switch t.Kind {
	case TypePrimitive:
		return string(t.Primitive)
	case TypeIdent:
		return t.Name
	case TypeArray:
		return "[" + t.Elem.String() + "]"
	case TypeVar:
		return "Var"
	case TypeDefault:
		return "Default"
	case TypeError:
		return "Error"
	case TypeStruct:
		return "Struct"
	case TypeFunction:
		return "Function"
	default:
		return "?"
	}
}
