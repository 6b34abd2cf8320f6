// wasm.go carries the raw WebAssembly binary-format building blocks —
// value types, section ids, opcodes, and the vector/section framing
// helpers — in the style of the hand-rolled encoder found in the
// example pack's wasmbe package (encodeVector/encodeSection wrapping
// LEB128-length-prefixed byte runs). That package's own opcode and
// section-id constants file wasn't part of the retrieval pack, so
// these are authored fresh, following the same naming convention
// (valI32, opI32Const, sectionType, ...).
package emitter

var wasmMagic = []byte{0x00, 0x61, 0x73, 0x6d}
var wasmVersion = []byte{0x01, 0x00, 0x00, 0x00}

// Value types.
const (
	valI32 byte = 0x7f
	valI64 byte = 0x7e
	valF32 byte = 0x7d
	valF64 byte = 0x7c
)

// Section ids, in module layout order.
const (
	sectionType     byte = 1
	sectionImport   byte = 2
	sectionFunction byte = 3
	sectionTable    byte = 4
	sectionMemory   byte = 5
	sectionGlobal   byte = 6
	sectionExport   byte = 7
	sectionElement  byte = 9
	sectionCode     byte = 10
	sectionData     byte = 11
)

const (
	exportFunc   byte = 0x00
	exportTable  byte = 0x01
	exportMemory byte = 0x02
	exportGlobal byte = 0x03
)

const importFunc byte = 0x00

// Control-flow and call opcodes.
const (
	opUnreachable byte = 0x00
	opBlock       byte = 0x02
	opLoop        byte = 0x03
	opIf          byte = 0x04
	opElse        byte = 0x05
	opEnd         byte = 0x0b
	opBr          byte = 0x0c
	opBrIf        byte = 0x0d
	opReturn      byte = 0x0f
	opCall        byte = 0x10
	opDrop        byte = 0x1a

	blockTypeVoid byte = 0x40
)

// Variable access opcodes.
const (
	opLocalGet  byte = 0x20
	opLocalSet  byte = 0x21
	opLocalTee  byte = 0x22
	opGlobalGet byte = 0x23
	opGlobalSet byte = 0x24
)

// Memory access opcodes (each call site supplies the alignment hint
// and offset immediates explicitly).
const (
	opI32Load   byte = 0x28
	opI64Load   byte = 0x29
	opF32Load   byte = 0x2a
	opF64Load   byte = 0x2b
	opI32Load8U byte = 0x2d
	opI32Store  byte = 0x36
	opI64Store  byte = 0x37
	opF32Store  byte = 0x38
	opF64Store  byte = 0x39
	opI32Store8 byte = 0x3a
)

// Constants.
const (
	opI32Const byte = 0x41
	opI64Const byte = 0x42
	opF32Const byte = 0x43
	opF64Const byte = 0x44
)

// i32 comparison/arithmetic opcodes.
const (
	opI32Eqz  byte = 0x45
	opI32Eq   byte = 0x46
	opI32Ne   byte = 0x47
	opI32LtS  byte = 0x48
	opI32LtU  byte = 0x49
	opI32GtS  byte = 0x4a
	opI32GtU  byte = 0x4b
	opI32LeS  byte = 0x4c
	opI32LeU  byte = 0x4d
	opI32GeS  byte = 0x4e
	opI32GeU  byte = 0x4f
)

// i64 comparison opcodes.
const (
	opI64Eqz byte = 0x50
	opI64Eq  byte = 0x51
	opI64Ne  byte = 0x52
	opI64LtS byte = 0x53
	opI64LtU byte = 0x54
	opI64GtS byte = 0x55
	opI64GtU byte = 0x56
	opI64LeS byte = 0x57
	opI64LeU byte = 0x58
	opI64GeS byte = 0x59
	opI64GeU byte = 0x5a
)

// f32/f64 comparison opcodes.
const (
	opF32Eq byte = 0x5b
	opF32Ne byte = 0x5c
	opF32Lt byte = 0x5d
	opF32Gt byte = 0x5e
	opF32Le byte = 0x5f
	opF32Ge byte = 0x60
	opF64Eq byte = 0x61
	opF64Ne byte = 0x62
	opF64Lt byte = 0x63
	opF64Gt byte = 0x64
	opF64Le byte = 0x65
	opF64Ge byte = 0x66
)

// i32 arithmetic/bitwise opcodes.
const (
	opI32Add  byte = 0x6a
	opI32Sub  byte = 0x6b
	opI32Mul  byte = 0x6c
	opI32DivS byte = 0x6d
	opI32DivU byte = 0x6e
	opI32RemS byte = 0x6f
	opI32RemU byte = 0x70
	opI32And  byte = 0x71
	opI32Or   byte = 0x72
	opI32Xor  byte = 0x73
	opI32Shl  byte = 0x74
	opI32ShrS byte = 0x75
	opI32ShrU byte = 0x76
)

// i64 arithmetic/bitwise opcodes.
const (
	opI64Add  byte = 0x7c
	opI64Sub  byte = 0x7d
	opI64Mul  byte = 0x7e
	opI64DivS byte = 0x7f
	opI64DivU byte = 0x80
	opI64RemS byte = 0x81
	opI64RemU byte = 0x82
	opI64And  byte = 0x83
	opI64Or   byte = 0x84
	opI64Xor  byte = 0x85
	opI64Shl  byte = 0x86
	opI64ShrS byte = 0x87
	opI64ShrU byte = 0x88
)

// f32/f64 arithmetic opcodes.
const (
	opF32Neg byte = 0x8c
	opF32Add byte = 0x92
	opF32Sub byte = 0x93
	opF32Mul byte = 0x94
	opF32Div byte = 0x95
	opF64Neg byte = 0x9a
	opF64Add byte = 0xa0
	opF64Sub byte = 0xa1
	opF64Mul byte = 0xa2
	opF64Div byte = 0xa3
)

// Conversion opcodes for mixed-width numeric subtypes; no lowering in
// codegen.go emits them.
const (
	opI64ExtendI32S byte = 0xac
	opI64ExtendI32U byte = 0xad
	opI32WrapI64    byte = 0xa7
	opF64ConvertI32S byte = 0xb7
	opF64PromoteF32  byte = 0xbb
)

// encodeVector prepends a LEB128 element count to an already-encoded
// run of elements.
func encodeVector(count int, contents []byte) []byte {
	out := encodeULEB128(uint64(count))
	return append(out, contents...)
}

// encodeSection prepends a section id and LEB128 byte length.
func encodeSection(id byte, body []byte) []byte {
	out := []byte{id}
	out = append(out, encodeULEB128(uint64(len(body)))...)
	return append(out, body...)
}

// encodeString encodes a UTF-8 string as a WASM name: LEB128 byte
// length followed by the raw bytes.
func encodeString(s string) []byte {
	out := encodeULEB128(uint64(len(s)))
	return append(out, []byte(s)...)
}
