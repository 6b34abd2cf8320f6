package token

import (
	"testing"

	"nilan/diagnostic"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name   string
		typ    TokenType
		lexeme string
		rng    diagnostic.Range
		want   Token
	}{
		{
			name:   "assign operator",
			typ:    OpAssign,
			lexeme: "=",
			rng:    diagnostic.Range{Start: 0, End: 1},
			want:   Token{Type: OpAssign, Lexeme: "=", Range: diagnostic.Range{Start: 0, End: 1}},
		},
		{
			name:   "ident",
			typ:    Ident,
			lexeme: "myVar",
			rng:    diagnostic.Range{Start: 4, End: 9},
			want:   Token{Type: Ident, Lexeme: "myVar", Range: diagnostic.Range{Start: 4, End: 9}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := New(tt.typ, tt.lexeme, tt.rng)
			if got != tt.want {
				t.Errorf("New() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestLookupOperator(t *testing.T) {
	tests := []struct {
		lexeme string
		want   TokenType
		ok     bool
	}{
		{"**=", OpExpAssign, true},
		{"==", OpEq, true},
		{"+", OpAdd, true},
		{"|>", OpPipe, true},
		{"@", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.lexeme, func(t *testing.T) {
			got, ok := LookupOperator(tt.lexeme)
			if ok != tt.ok || (ok && got != tt.want) {
				t.Errorf("LookupOperator(%q) = (%v, %v), want (%v, %v)", tt.lexeme, got, ok, tt.want, tt.ok)
			}
		})
	}
}

// TestOperatorsSortedLongestFirst guards the longest-match-first
// invariant the lexer's operator scanning depends on: "**=" must sort
// ahead of "**", which must sort ahead of "*".
func TestOperatorsSortedLongestFirst(t *testing.T) {
	for i := 1; i < len(Operators); i++ {
		if len(Operators[i-1]) < len(Operators[i]) {
			t.Fatalf("Operators not sorted longest-first at %d: %q before %q", i, Operators[i-1], Operators[i])
		}
	}
}

func TestKeywordsCoverPrimitiveTypes(t *testing.T) {
	for kw := range PrimitiveKeywords {
		found := false
		for _, tt := range Keywords {
			if tt == kw {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("primitive keyword %v missing from Keywords", kw)
		}
	}
}
