// Package nilanc is the toolchain driver: it wires lexer →
// preprocessor → parser → checker → emitter into the Lex/Parse/Check/
// Compile entry points the root cmd_*.go subcommands call, mirroring the
// teacher's own main.go/cmd_*.go convention of keeping each pipeline
// stage a separate package and composing them at the call site — the
// only change is that composition now lives in one reusable package
// instead of being repeated inline in every subcommand.
package nilanc

import (
	"nilan/ast"
	"nilan/checker"
	"nilan/diagnostic"
	"nilan/emitter"
	"nilan/lexer"
	"nilan/parser"
	"nilan/preprocessor"
	"nilan/token"
)

// Lex runs only the lexer stage, for tooling that wants raw tokens
// (the `lex` subcommand).
func Lex(source string) ([]token.Token, diagnostic.Bag) {
	return lexer.New(source).Scan()
}

// Parse runs the lexer, preprocessor, and parser, returning the parsed
// Grammar plus every diagnostic collected along the way. It stops
// early (returning whatever diagnostics exist so far) if lexing
// failed outright.
func Parse(source string) (ast.Grammar, diagnostic.Bag) {
	var diags diagnostic.Bag

	tokens, lexDiags := Lex(source)
	diags.Merge(lexDiags)
	if lexDiags.HasStage("lexer") {
		return nil, diags
	}

	pp := preprocessor.New(nil)
	tokens, _, ppDiags := pp.Run(tokens)
	diags.Merge(ppDiags)

	grammar, parseDiags := parser.New(tokens).Parse()
	diags.Merge(parseDiags)
	return grammar, diags
}

// Check runs Parse and then the type checker, returning the checked
// Grammar's Checker (for the emitter to resolve final types against)
// alongside every diagnostic.
func Check(source string) (ast.Grammar, *checker.Checker, diagnostic.Bag) {
	grammar, diags := Parse(source)
	if diags.HasStage("lexer") || diags.HasStage("parser") {
		return grammar, nil, diags
	}
	chk, checkDiags := checker.Check(grammar)
	diags.Merge(checkDiags)
	return grammar, chk, diags
}

// Compile runs the full pipeline and returns the emitted WASM module
// bytes. It refuses to emit if any stage reported a diagnostic,
// returning nil bytes alongside the accumulated diagnostics instead.
func Compile(source string) ([]byte, diagnostic.Bag) {
	grammar, chk, diags := Check(source)
	if !diags.Empty() {
		return nil, diags
	}
	wasmBytes, emitDiags := emitter.Emit(grammar, chk)
	diags.Merge(emitDiags)
	if !diags.Empty() {
		return nil, diags
	}
	return wasmBytes, diags
}
