package emitter

import "fmt"

type funcSig struct {
	params, results []byte
}

func sigKey(params, results []byte) string {
	return string(params) + "|" + string(results)
}

type importEntry struct {
	module, name string
	typeIdx      int
}

type globalEntry struct {
	valtype  byte
	mutable  bool
	initOp   byte
	initImmU uint64
}

type exportEntry struct {
	name  string
	kind  byte
	index int
}

type dataSeg struct {
	offset int
	data   []byte
}

type funcBody struct {
	typeIdx int
	locals  []byte // one valtype per local slot beyond the params, in allocation order
	code    []byte
}

// Module accumulates every WASM section incrementally as the AST is
// walked, then assembles them into the final binary in Finish. The
// function index space is shared between imports (numbered first) and
// defined functions, matching the module layout contract in the
// expanded spec.
type Module struct {
	types     []funcSig
	typeCache map[string]string

	imports []importEntry
	funcs   []funcBody
	globals []globalEntry
	exports []exportEntry
	data    []dataSeg

	memoryPages uint32
}

func NewModule() *Module {
	return &Module{typeCache: make(map[string]string), memoryPages: 1}
}

func (m *Module) typeIndex(params, results []byte) int {
	key := sigKey(params, results)
	for i, t := range m.types {
		if sigKey(t.params, t.results) == key {
			return i
		}
	}
	idx := len(m.types)
	m.types = append(m.types, funcSig{params: params, results: results})
	return idx
}

// AddImportFunc registers a built-in import and returns its function
// index (always lower than any defined function's index, since
// imports are registered first).
func (m *Module) AddImportFunc(module, name string, params, results []byte) int {
	tidx := m.typeIndex(params, results)
	m.imports = append(m.imports, importEntry{module: module, name: name, typeIdx: tidx})
	return len(m.imports) - 1
}

// ReserveFunction allocates a function-index slot before its body is
// known, so mutually/forward-referencing calls can resolve to an
// index while the emitter's reserveDeclarations walks the grammar.
func (m *Module) ReserveFunction(params, results []byte) int {
	tidx := m.typeIndex(params, results)
	m.funcs = append(m.funcs, funcBody{typeIdx: tidx})
	return len(m.imports) + len(m.funcs) - 1
}

// SetFunctionBody fills in a previously reserved function's locals and
// code.
func (m *Module) SetFunctionBody(funcIdx int, locals []byte, code []byte) {
	i := funcIdx - len(m.imports)
	if i < 0 || i >= len(m.funcs) {
		panic(fmt.Sprintf("emitter: function index %d out of range", funcIdx))
	}
	m.funcs[i].locals = locals
	m.funcs[i].code = code
}

func (m *Module) AddGlobal(valtype byte, mutable bool, initImmU uint64) int {
	m.globals = append(m.globals, globalEntry{valtype: valtype, mutable: mutable, initOp: constOpFor(valtype), initImmU: initImmU})
	return len(m.globals) - 1
}

// SetGlobalInit patches an already-reserved global's init expression,
// used once the global's literal initializer is known during body
// emission.
func (m *Module) SetGlobalInit(idx int, valtype byte, bits uint64) {
	m.globals[idx].valtype = valtype
	m.globals[idx].initOp = constOpFor(valtype)
	m.globals[idx].initImmU = bits
}

func constOpFor(valtype byte) byte {
	switch valtype {
	case valI64:
		return opI64Const
	case valF32:
		return opF32Const
	case valF64:
		return opF64Const
	default:
		return opI32Const
	}
}

func (m *Module) AddExport(name string, kind byte, index int) {
	m.exports = append(m.exports, exportEntry{name: name, kind: kind, index: index})
}

// AddData registers a data segment at the given offset (the caller
// picks the offset via a bump allocator over linear memory).
func (m *Module) AddData(offset int, data []byte) {
	m.data = append(m.data, dataSeg{offset: offset, data: data})
}

// Finish assembles every section into the final module bytes, in
// type/import/function/memory/global/export/code/data order. No table
// or element section is produced, and the import, global, and data
// sections are left out when they have no entries.
func (m *Module) Finish() []byte {
	var out []byte
	out = append(out, wasmMagic...)
	out = append(out, wasmVersion...)

	out = append(out, m.emitTypeSection()...)
	out = append(out, m.emitImportSection()...)
	out = append(out, m.emitFunctionSection()...)
	out = append(out, m.emitMemorySection()...)
	out = append(out, m.emitGlobalSection()...)
	out = append(out, m.emitExportSection()...)
	out = append(out, m.emitCodeSection()...)
	if len(m.data) > 0 {
		out = append(out, m.emitDataSection()...)
	}
	return out
}

func (m *Module) emitTypeSection() []byte {
	var contents []byte
	for _, sig := range m.types {
		contents = append(contents, 0x60)
		contents = append(contents, encodeVector(len(sig.params), sig.params)...)
		contents = append(contents, encodeVector(len(sig.results), sig.results)...)
	}
	return encodeSection(sectionType, encodeVector(len(m.types), contents))
}

func (m *Module) emitImportSection() []byte {
	if len(m.imports) == 0 {
		return nil
	}
	var contents []byte
	for _, imp := range m.imports {
		contents = append(contents, encodeString(imp.module)...)
		contents = append(contents, encodeString(imp.name)...)
		contents = append(contents, importFunc)
		contents = append(contents, encodeULEB128(uint64(imp.typeIdx))...)
	}
	return encodeSection(sectionImport, encodeVector(len(m.imports), contents))
}

func (m *Module) emitFunctionSection() []byte {
	var contents []byte
	for _, f := range m.funcs {
		contents = append(contents, encodeULEB128(uint64(f.typeIdx))...)
	}
	return encodeSection(sectionFunction, encodeVector(len(m.funcs), contents))
}

func (m *Module) emitMemorySection() []byte {
	contents := []byte{0x00}
	contents = append(contents, encodeULEB128(uint64(m.memoryPages))...)
	return encodeSection(sectionMemory, encodeVector(1, contents))
}

func (m *Module) emitGlobalSection() []byte {
	if len(m.globals) == 0 {
		return nil
	}
	var contents []byte
	for _, g := range m.globals {
		contents = append(contents, g.valtype)
		if g.mutable {
			contents = append(contents, 0x01)
		} else {
			contents = append(contents, 0x00)
		}
		contents = append(contents, g.initOp)
		switch g.initOp {
		case opF32Const:
			contents = append(contents, littleEndian(uint64(uint32(g.initImmU)), 4)...)
		case opF64Const:
			contents = append(contents, littleEndian(g.initImmU, 8)...)
		default:
			contents = append(contents, encodeSLEB128(int64(g.initImmU))...)
		}
		contents = append(contents, opEnd)
	}
	return encodeSection(sectionGlobal, encodeVector(len(m.globals), contents))
}

func (m *Module) emitExportSection() []byte {
	var contents []byte
	for _, exp := range m.exports {
		contents = append(contents, encodeString(exp.name)...)
		contents = append(contents, exp.kind)
		contents = append(contents, encodeULEB128(uint64(exp.index))...)
	}
	contents = append(contents, encodeString("memory")...)
	contents = append(contents, exportMemory)
	contents = append(contents, encodeULEB128(0)...)
	return encodeSection(sectionExport, encodeVector(len(m.exports)+1, contents))
}

// compactLocals run-length-encodes a flat per-slot valtype list into
// WASM's (count, valtype) pairs, the way the code section requires —
// mirrors compactLocals from the example pack's wasmbe encoder.
func compactLocals(types []byte) []byte {
	var contents []byte
	groups := 0
	i := 0
	for i < len(types) {
		j := i
		for j < len(types) && types[j] == types[i] {
			j++
		}
		contents = append(contents, encodeULEB128(uint64(j-i))...)
		contents = append(contents, types[i])
		groups++
		i = j
	}
	return encodeVector(groups, contents)
}

func (m *Module) emitCodeSection() []byte {
	var contents []byte
	for _, f := range m.funcs {
		body := compactLocals(f.locals)
		body = append(body, f.code...)
		body = append(body, opEnd)
		contents = append(contents, encodeULEB128(uint64(len(body)))...)
		contents = append(contents, body...)
	}
	return encodeSection(sectionCode, encodeVector(len(m.funcs), contents))
}

func (m *Module) emitDataSection() []byte {
	var contents []byte
	for _, d := range m.data {
		contents = append(contents, 0x00) // memory index 0, active segment
		contents = append(contents, opI32Const)
		contents = append(contents, encodeSLEB128(int64(d.offset))...)
		contents = append(contents, opEnd)
		contents = append(contents, encodeVector(len(d.data), d.data)...)
	}
	return encodeSection(sectionData, encodeVector(len(m.data), contents))
}
