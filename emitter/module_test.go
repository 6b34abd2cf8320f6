package emitter

import "testing"

func TestFinishStartsWithWasmHeader(t *testing.T) {
	m := NewModule()
	got := m.Finish()
	want := []byte{0x00, 0x61, 0x73, 0x6D, 0x01, 0x00, 0x00, 0x00}
	if len(got) < len(want) {
		t.Fatalf("Finish() too short: %d bytes", len(got))
	}
	for i, b := range want {
		if got[i] != b {
			t.Fatalf("Finish() header = % X, want % X", got[:8], want)
		}
	}
}

func TestReserveFunctionAllocatesSequentialIndicesAfterImports(t *testing.T) {
	m := NewModule()
	impIdx := m.AddImportFunc("sys", "printInt", []byte{valI32}, nil)
	f0 := m.ReserveFunction([]byte{valI32}, []byte{valI32})
	f1 := m.ReserveFunction(nil, nil)

	if impIdx != 0 {
		t.Errorf("import index = %d, want 0", impIdx)
	}
	if f0 != 1 || f1 != 2 {
		t.Errorf("reserved function indices = %d, %d, want 1, 2", f0, f1)
	}
}

func TestTypeIndexDedupesIdenticalSignatures(t *testing.T) {
	m := NewModule()
	a := m.typeIndex([]byte{valI32}, []byte{valI32})
	b := m.typeIndex([]byte{valI32}, []byte{valI32})
	c := m.typeIndex([]byte{valI64}, []byte{valI32})
	if a != b {
		t.Errorf("identical signatures got distinct type indices %d, %d", a, b)
	}
	if c == a {
		t.Errorf("distinct signatures got the same type index %d", a)
	}
}

func TestAddGlobalAndSetGlobalInit(t *testing.T) {
	m := NewModule()
	idx := m.AddGlobal(valI32, true, 0)
	m.SetGlobalInit(idx, valI32, 42)
	if m.globals[idx].initImmU != 42 {
		t.Errorf("global init = %d, want 42", m.globals[idx].initImmU)
	}
}

func TestCompactLocalsRunLengthEncodes(t *testing.T) {
	got := compactLocals([]byte{valI32, valI32, valI64, valI32})
	// 3 groups: (2, i32), (1, i64), (1, i32)
	contents := []byte{0x02, valI32, 0x01, valI64, 0x01, valI32}
	want := encodeVector(3, contents)
	if string(got) != string(want) {
		t.Errorf("compactLocals() = % X, want % X", got, want)
	}
}
