package scope

import (
	"testing"

	"nilan/ast"
)

func TestGlobalAndFunctionSymIndicesAreSequential(t *testing.T) {
	c := NewContainer()

	gi0, err := c.SetGlobalSym("a", Symbol{Global: true, Type: ast.I32})
	if err != nil {
		t.Fatalf("SetGlobalSym(a) error: %v", err)
	}
	gi1, err := c.SetGlobalSym("b", Symbol{Global: true, Type: ast.I32})
	if err != nil {
		t.Fatalf("SetGlobalSym(b) error: %v", err)
	}
	if gi0 != 0 || gi1 != 1 {
		t.Errorf("global indices = %d, %d, want 0, 1", gi0, gi1)
	}

	fi0, err := c.SetFunSym("main", Symbol{Type: ast.Function(nil, nil)})
	if err != nil {
		t.Fatalf("SetFunSym(main) error: %v", err)
	}
	if fi0 != 0 {
		t.Errorf("function index = %d, want 0", fi0)
	}
}

func TestSetGlobalSymRejectsRedefinition(t *testing.T) {
	c := NewContainer()
	if _, err := c.SetGlobalSym("a", Symbol{Global: true}); err != nil {
		t.Fatalf("first SetGlobalSym(a) error: %v", err)
	}
	if _, err := c.SetGlobalSym("a", Symbol{Global: true}); err == nil {
		t.Fatal("expected a redefinition error on the second SetGlobalSym(a)")
	}
}

func TestLocalSlotsAreFlatAcrossNestedBlocks(t *testing.T) {
	c := NewContainer()
	c.EnterScope() // Function

	if _, err := c.SetLocalSym("p", Symbol{Type: ast.I32}); err != nil {
		t.Fatalf("SetLocalSym(p) error: %v", err)
	}

	c.EnterScope() // nested Block
	idx, err := c.SetLocalSym("x", Symbol{Type: ast.I32})
	if err != nil {
		t.Fatalf("SetLocalSym(x) error: %v", err)
	}
	if idx != 1 {
		t.Errorf("nested block local index = %d, want 1 (flat after the param)", idx)
	}
	c.ExitScope() // back to Function

	idx2, err := c.SetLocalSym("y", Symbol{Type: ast.I32})
	if err != nil {
		t.Fatalf("SetLocalSym(y) error: %v", err)
	}
	if idx2 != 2 {
		t.Errorf("second function-scope local index = %d, want 2", idx2)
	}
}

func TestGetSymWalksUpThroughBlocksToGlobal(t *testing.T) {
	c := NewContainer()
	if _, err := c.SetGlobalSym("g", Symbol{Global: true, Type: ast.I32}); err != nil {
		t.Fatalf("SetGlobalSym(g) error: %v", err)
	}
	c.EnterScope() // Function
	c.EnterScope() // Block

	sym, err := c.GetSym("g")
	if err != nil {
		t.Fatalf("GetSym(g) from nested block error: %v", err)
	}
	if !sym.Symbol.Global {
		t.Error("expected g to resolve to the global symbol")
	}
}

func TestGetSymUndefined(t *testing.T) {
	c := NewContainer()
	if _, err := c.GetSym("nope"); err == nil {
		t.Fatal("expected an undefined-symbol error")
	}
}

func TestSetSymPatchesInPlace(t *testing.T) {
	c := NewContainer()
	c.EnterScope()
	if _, err := c.SetLocalSym("x", Symbol{Type: ast.Var(0)}); err != nil {
		t.Fatalf("SetLocalSym(x) error: %v", err)
	}
	if err := c.SetSym("x", Symbol{Type: ast.I32}); err != nil {
		t.Fatalf("SetSym(x) error: %v", err)
	}
	sym, err := c.GetSym("x")
	if err != nil {
		t.Fatalf("GetSym(x) error: %v", err)
	}
	if sym.Symbol.Type.Kind != ast.TypePrimitive {
		t.Errorf("x's type after SetSym = %+v, want the patched i32 primitive", sym.Symbol.Type)
	}
}
