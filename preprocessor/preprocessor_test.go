package preprocessor

import (
	"testing"

	"nilan/lexer"
	"nilan/token"
)

func tokensFor(t *testing.T, src string) []token.Token {
	t.Helper()
	tokens, diags := lexer.New(src).Scan()
	if !diags.Empty() {
		t.Fatalf("lexer.Scan(%q) raised diagnostics: %v", src, diags.All())
	}
	return tokens
}

func TestRunPassesThroughNonImportTokens(t *testing.T) {
	tokens := tokensFor(t, "fn main() { }")
	out, imports, diags := New(nil).Run(tokens)
	if !diags.Empty() {
		t.Fatalf("Run() raised diagnostics: %v", diags.All())
	}
	if len(imports) != 0 {
		t.Errorf("expected no imports, got %v", imports)
	}
	if len(out) != len(tokens) {
		t.Errorf("Run() changed token count: got %d, want %d", len(out), len(tokens))
	}
}

func TestRunRecordsImportAndReportsUnresolved(t *testing.T) {
	tokens := tokensFor(t, `import foo from "math.nl"`)
	out, imports, diags := New(nil).Run(tokens)
	if len(imports) != 1 {
		t.Fatalf("expected 1 import, got %d", len(imports))
	}
	if imports[0].File != "math.nl" {
		t.Errorf("import file = %q, want %q", imports[0].File, "math.nl")
	}
	if diags.Empty() {
		t.Error("expected an unresolved-import diagnostic from the default NoopResolver")
	}
	if !diags.HasStage("preprocessor") {
		t.Errorf("expected a preprocessor-stage diagnostic, got %v", diags.All())
	}
	// tokens still pass through unchanged even though resolution failed
	if len(out) != len(tokens) {
		t.Errorf("Run() changed token count: got %d, want %d", len(out), len(tokens))
	}
}

type stubResolver struct{ tokens []token.Token }

func (s stubResolver) Resolve(file string) ([]token.Token, error) { return s.tokens, nil }

func TestRunWithResolvingResolverReportsNoDiagnostic(t *testing.T) {
	tokens := tokensFor(t, `import foo from "math.nl"`)
	_, _, diags := New(stubResolver{}).Run(tokens)
	if !diags.Empty() {
		t.Errorf("expected no diagnostics with a resolving Resolver, got %v", diags.All())
	}
}
