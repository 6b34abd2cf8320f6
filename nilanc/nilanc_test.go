package nilanc

import (
	"testing"

	"nilan/ast"
)

func TestLexEmptyProgram(t *testing.T) {
	tokens, diags := Lex("")
	if !diags.Empty() {
		t.Fatalf("Lex(\"\") raised diagnostics: %v", diags.All())
	}
	if len(tokens) != 1 || tokens[0].Type != "EOF" {
		t.Errorf("Lex(\"\") tokens = %v, want just EOF", tokens)
	}
}

func TestCompileEmptyProgram(t *testing.T) {
	wasmBytes, diags := Compile("")
	if !diags.Empty() {
		t.Fatalf("Compile(\"\") raised diagnostics: %v", diags.All())
	}
	if len(wasmBytes) < 8 {
		t.Fatalf("Compile(\"\") produced too few bytes: %d", len(wasmBytes))
	}
	wantMagic := []byte{0x00, 0x61, 0x73, 0x6D, 0x01, 0x00, 0x00, 0x00}
	for i, b := range wantMagic {
		if wasmBytes[i] != b {
			t.Fatalf("Compile(\"\") header = % X, want % X", wasmBytes[:8], wantMagic)
		}
	}
}

func TestCompileIdentityFunction(t *testing.T) {
	src := `
export fn identity(x: i32): i32 {
	return x
}
`
	wasmBytes, diags := Compile(src)
	if !diags.Empty() {
		t.Fatalf("Compile() raised diagnostics: %v", diags.All())
	}
	if len(wasmBytes) == 0 {
		t.Fatal("Compile() produced no bytes")
	}
}

func TestCompileWhileLoop(t *testing.T) {
	src := `
export fn countdown(n: i32): i32 {
	var i: i32 = n
	while i > 0 {
		i = i - 1
	}
	return i
}
`
	_, diags := Compile(src)
	if !diags.Empty() {
		t.Fatalf("Compile() raised diagnostics: %v", diags.All())
	}
}

func TestCheckImmutableAssignmentIsDiagnosed(t *testing.T) {
	src := `
export fn f(): none {
	val x: i32 = 1
	x = 2
}
`
	_, _, diags := Check(src)
	if diags.Empty() {
		t.Fatal("expected a diagnostic assigning to an immutable val binding")
	}
	got := diags.All()[0]
	if got.Kind.Code() != "ImmutableAssign" {
		t.Errorf("diagnostic code = %q, want %q", got.Kind.Code(), "ImmutableAssign")
	}
	if got.Kind.Stage() != "compiler" {
		t.Errorf("diagnostic stage = %q, want %q", got.Kind.Stage(), "compiler")
	}
}

func TestCheckNumericInferenceDefaultsToI32(t *testing.T) {
	src := `
export fn f(): i32 {
	val x = 1
	return x
}
`
	grammar, chk, diags := Check(src)
	if !diags.Empty() {
		t.Fatalf("Check() raised diagnostics: %v", diags.All())
	}
	if chk == nil {
		t.Fatal("Check() returned a nil Checker despite no diagnostics")
	}
	decl := grammar[0].(*ast.FunDecl).Body.(*ast.Block).Statements[0].(*ast.ValDecl)
	if got := chk.Resolve(decl.Target.Type); !got.Equal(ast.I32) {
		t.Errorf("x resolved to %v, want i32", got)
	}
}

func TestCheckTypeMismatchIsDiagnosed(t *testing.T) {
	src := `
export fn f(): none {
	val x: i32 = 1
	val y: str = x
}
`
	_, _, diags := Check(src)
	if diags.Empty() {
		t.Fatal("expected a type-mismatch diagnostic assigning an i32 to a str binding")
	}
	if got := diags.All()[0].Kind.Code(); got != "TypeMismatch" {
		t.Errorf("diagnostic code = %q, want %q", got, "TypeMismatch")
	}
}

func TestCheckMissingParameterTypeIsDiagnosed(t *testing.T) {
	src := `
export fn f(x): none {
}
`
	_, _, diags := Check(src)
	if diags.Empty() {
		t.Fatal("expected a diagnostic for a parameter with no type annotation")
	}
	if got := diags.All()[0].Kind.Code(); got != "NoImplicitAny" {
		t.Errorf("diagnostic code = %q, want %q", got, "NoImplicitAny")
	}
}

func TestCheckNonBoolConditionIsDiagnosedAsExpectedBooleanExpr(t *testing.T) {
	src := `
export fn f(): none {
	if 1 {
		return
	}
}
`
	_, _, diags := Check(src)
	if diags.Empty() {
		t.Fatal("expected a diagnostic for a non-bool if condition")
	}
	if got := diags.All()[0].Kind.Code(); got != "ExpectedBooleanExpr" {
		t.Errorf("diagnostic code = %q, want %q", got, "ExpectedBooleanExpr")
	}
}

func TestCheckAssignToFunctionBindingIsDiagnosedAsUnassignable(t *testing.T) {
	src := `
fn helper(): none {
}

export fn f(): none {
	helper = helper
}
`
	_, _, diags := Check(src)
	if diags.Empty() {
		t.Fatal("expected a diagnostic assigning into a function binding")
	}
	found := false
	for _, d := range diags.All() {
		if d.Kind.Code() == "Unassignable" {
			found = true
		}
	}
	if !found {
		t.Errorf("diagnostics = %v, want one with code Unassignable", diags.All())
	}
}

func TestCheckWrongArgumentCountIsDiagnosedAsMissingParameters(t *testing.T) {
	src := `
fn add(a: i32, b: i32): i32 {
	return a + b
}

export fn f(): i32 {
	return add(1)
}
`
	_, _, diags := Check(src)
	if diags.Empty() {
		t.Fatal("expected a diagnostic for a wrong-arity call")
	}
	if got := diags.All()[0].Kind.Code(); got != "MissingParameters" {
		t.Errorf("diagnostic code = %q, want %q", got, "MissingParameters")
	}
}

func TestCheckUnknownFieldIsDiagnosedAsMissingProperty(t *testing.T) {
	src := `
struct Point { x: i32, y: i32 }

export fn f(p: Point): i32 {
	return p.z
}
`
	_, _, diags := Check(src)
	if diags.Empty() {
		t.Fatal("expected a diagnostic for an unknown struct field")
	}
	if got := diags.All()[0].Kind.Code(); got != "MissingProperty" {
		t.Errorf("diagnostic code = %q, want %q", got, "MissingProperty")
	}
}

func TestCheckSelectorOnNonStructIsDiagnosedAsNoProperties(t *testing.T) {
	src := `
export fn f(n: i32): i32 {
	return n.x
}
`
	_, _, diags := Check(src)
	if diags.Empty() {
		t.Fatal("expected a diagnostic for a selector on a non-struct operand")
	}
	if got := diags.All()[0].Kind.Code(); got != "NoProperties" {
		t.Errorf("diagnostic code = %q, want %q", got, "NoProperties")
	}
}

func TestCompileRefusesBytesWhenDiagnosticsPresent(t *testing.T) {
	src := `
export fn f(): none {
	val x: i32 = 1
	val y: str = x
}
`
	wasmBytes, diags := Compile(src)
	if diags.Empty() {
		t.Fatal("expected diagnostics for the type mismatch")
	}
	if wasmBytes != nil {
		t.Errorf("Compile() returned %d bytes despite diagnostics, want nil", len(wasmBytes))
	}
}

func TestCompileStructFieldAccess(t *testing.T) {
	src := `
struct Point { x: i32, y: i32 }

export fn getX(p: Point): i32 {
	return p.x
}
`
	_, diags := Compile(src)
	if !diags.Empty() {
		t.Fatalf("Compile() raised diagnostics: %v", diags.All())
	}
}

func TestCompileCallsBuiltin(t *testing.T) {
	src := `
export fn report(n: i32): none {
	printInt(n)
}
`
	_, diags := Compile(src)
	if !diags.Empty() {
		t.Fatalf("Compile() raised diagnostics: %v", diags.All())
	}
}
