package checker

import (
	"testing"

	"nilan/ast"
)

func TestIsSubtype(t *testing.T) {
	tests := []struct {
		name        string
		a, b        ast.Type
		ok, defined bool
	}{
		{"i32 is-a int", ast.I32, ast.Int, true, true},
		{"i32 is-a number", ast.I32, ast.Number, true, true},
		{"f64 is-a float", ast.F64, ast.Float, true, true},
		{"f64 is not int", ast.F64, ast.Int, false, true},
		{"i32 is not str", ast.I32, ast.Str, false, false},
		{"bool equals bool", ast.Bool, ast.Bool, true, true},
		{"int is not i32 (narrowing)", ast.Int, ast.I32, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, defined := IsSubtype(tt.a, tt.b)
			if ok != tt.ok || defined != tt.defined {
				t.Errorf("IsSubtype(%v, %v) = (%v, %v), want (%v, %v)", tt.a, tt.b, ok, defined, tt.ok, tt.defined)
			}
		})
	}
}

func TestCheckEmptyGrammarProducesNoDiagnostics(t *testing.T) {
	_, diags := Check(nil)
	if !diags.Empty() {
		t.Errorf("Check(nil) raised diagnostics: %v", diags.All())
	}
}

func TestNewRegistersBuiltins(t *testing.T) {
	c := New()
	if _, err := c.Scope.GetSym("printInt"); err != nil {
		t.Errorf("printInt not registered: %v", err)
	}
	if _, err := c.Scope.GetSym("printString"); err != nil {
		t.Errorf("printString not registered: %v", err)
	}
}

func TestCoercePrimitiveDefaults(t *testing.T) {
	tests := []struct {
		in, want ast.Type
	}{
		{ast.Int, ast.I32},
		{ast.Float, ast.F64},
		{ast.Number, ast.I32},
		{ast.I64, ast.I64},
	}
	for _, tt := range tests {
		got := coercePrimitive(tt.in)
		if !got.Equal(tt.want) {
			t.Errorf("coercePrimitive(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
