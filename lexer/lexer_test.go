package lexer

import (
	"reflect"
	"testing"

	"nilan/token"
)

func scanTypes(t *testing.T, src string) []token.TokenType {
	t.Helper()
	tokens, diags := New(src).Scan()
	if !diags.Empty() {
		t.Fatalf("Scan(%q) raised diagnostics: %v", src, diags.All())
	}
	types := make([]token.TokenType, len(tokens))
	for i, tok := range tokens {
		types[i] = tok.Type
	}
	return types
}

func TestScanOperatorsLongestMatchFirst(t *testing.T) {
	got := scanTypes(t, "**= == != <= >= << >> && || |> **")
	want := []token.TokenType{
		token.OpExpAssign, token.OpEq, token.OpNe, token.OpLe, token.OpGe,
		token.OpShl, token.OpShr, token.OpLogAnd, token.OpLogOr, token.OpPipe,
		token.OpExp, token.EOF,
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Scan() types = %v, want %v", got, want)
	}
}

func TestScanPunctuationAndKeywords(t *testing.T) {
	got := scanTypes(t, "fn main() { var x: i32 = 1; }")
	want := []token.TokenType{
		token.KwFn, token.Ident, token.LParen, token.RParen, token.LBrace,
		token.KwVar, token.Ident, token.Colon, token.KwI32, token.OpAssign,
		token.LitInt, token.Semi, token.RBrace, token.EOF,
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Scan() types = %v, want %v", got, want)
	}
}

func TestScanLiterals(t *testing.T) {
	tokens, diags := New(`1 1.5 "hi" 'a' true false`).Scan()
	if !diags.Empty() {
		t.Fatalf("Scan() raised diagnostics: %v", diags.All())
	}
	wantLiterals := []any{uint64(1), 1.5, "hi", byte('a'), true, false}
	if len(tokens)-1 != len(wantLiterals) {
		t.Fatalf("got %d tokens (excluding EOF), want %d", len(tokens)-1, len(wantLiterals))
	}
	for i, want := range wantLiterals {
		if tokens[i].Literal != want {
			t.Errorf("token %d literal = %#v, want %#v", i, tokens[i].Literal, want)
		}
	}
}

func TestScanLineComment(t *testing.T) {
	got := scanTypes(t, "1 // this is a comment\n2")
	want := []token.TokenType{token.LitInt, token.LitInt, token.EOF}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Scan() types = %v, want %v", got, want)
	}
}

func TestScanBlockComment(t *testing.T) {
	got := scanTypes(t, "1 /* a /* nested */ comment */ 2")
	want := []token.TokenType{token.LitInt, token.LitInt, token.EOF}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Scan() types = %v, want %v", got, want)
	}
}

func TestScanTip(t *testing.T) {
	tokens, diags := New(`#(wasm_bytes) 0, 1, 2`).Scan()
	if !diags.Empty() {
		t.Fatalf("Scan() raised diagnostics: %v", diags.All())
	}
	if tokens[0].Type != token.Tip {
		t.Fatalf("token 0 type = %v, want Tip", tokens[0].Type)
	}
	tip, ok := tokens[0].Literal.(token.TipValue)
	if !ok {
		t.Fatalf("token 0 literal is %T, want token.TipValue", tokens[0].Literal)
	}
	if tip.Ident != "wasm_bytes" || tip.Value != "0, 1, 2" {
		t.Errorf("tip = %+v, want {wasm_bytes, 0, 1, 2}", tip)
	}
}

func TestScanUnterminatedStringHalts(t *testing.T) {
	tokens, diags := New(`"unterminated`).Scan()
	if diags.Empty() {
		t.Fatal("expected a diagnostic for an unterminated string")
	}
	if !diags.HasStage("lexer") {
		t.Errorf("expected a lexer-stage diagnostic, got %v", diags.All())
	}
	if len(tokens) != 0 {
		t.Errorf("expected no tokens before the halting error, got %v", tokens)
	}
}

func TestTokenRangesAreByteOffsets(t *testing.T) {
	tokens, diags := New("ab cd").Scan()
	if !diags.Empty() {
		t.Fatalf("Scan() raised diagnostics: %v", diags.All())
	}
	if tokens[0].Range.Start != 0 || tokens[0].Range.End != 2 {
		t.Errorf("first ident range = %v, want {0 2}", tokens[0].Range)
	}
	if tokens[1].Range.Start != 3 || tokens[1].Range.End != 5 {
		t.Errorf("second ident range = %v, want {3 5}", tokens[1].Range)
	}
}
