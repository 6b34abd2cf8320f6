// Package preprocessor records a program's imports and splices every
// token stream its Resolver returns into one logical stream, ahead of
// the importing tokens, before the parser runs. It follows the teacher's idiom of a
// thin, single-purpose pipeline stage shaped like lexer.Scan (a method
// that walks an input slice once and returns a transformed slice plus
// diagnostics) — here working over a token.Token stream instead of
// runes.
package preprocessor

import (
	"fmt"

	"nilan/diagnostic"
	"nilan/token"
)

// ErrorKind implements diagnostic.Kind for preprocessor failures.
type ErrorKind struct {
	Code_   string
	Message string
}

func (e ErrorKind) Error() string { return e.Message }
func (e ErrorKind) Stage() string { return "preprocessor" }
func (e ErrorKind) Code() string  { return e.Code_ }

// ErrUnresolvedImport is returned by the default Resolver: resolving
// imports to actual token streams is a hook, not implemented here, per
// the Non-goal "no multi-file module graph".
var ErrUnresolvedImport = fmt.Errorf("import resolution is not implemented")

// ImportRef records one `import ... from "file"` seen at program
// scope.
type ImportRef struct {
	File  string
	Range diagnostic.Range
}

// Resolver turns an imported file name into its token stream. The
// stub NoopResolver always fails; a real multi-file toolchain would
// supply one that re-lexes the referenced file.
type Resolver interface {
	Resolve(file string) ([]token.Token, error)
}

// NoopResolver is the default Resolver: every import is recorded as a
// stub but never actually spliced in.
type NoopResolver struct{}

func (NoopResolver) Resolve(file string) ([]token.Token, error) {
	return nil, ErrUnresolvedImport
}

// Preprocessor walks a token stream once, recording import
// declarations and passing every other token through unchanged.
type Preprocessor struct {
	resolver Resolver
}

// New constructs a Preprocessor. A nil resolver defaults to
// NoopResolver.
func New(resolver Resolver) *Preprocessor {
	if resolver == nil {
		resolver = NoopResolver{}
	}
	return &Preprocessor{resolver: resolver}
}

// Run scans tokens for `import "file"` at program scope (recognized
// by the bare pattern `import ... from STRING`, mirroring the
// parser's own import grammar without requiring a full parse), records
// each as an ImportRef, and attempts resolution through the
// configured Resolver. Resolution failures are non-fatal: the
// preprocessor still emits the unresolved import's tokens unchanged,
// since import resolution is explicitly a stub today. Every stream a
// Resolver does return (minus its EOF token) is prefixed to the output,
// ahead of the input's own tokens, which keep their import declarations.
func (pp *Preprocessor) Run(tokens []token.Token) ([]token.Token, []ImportRef, diagnostic.Bag) {
	var diags diagnostic.Bag
	var imports []ImportRef
	var spliced []token.Token
	out := make([]token.Token, 0, len(tokens))

	i := 0
	for i < len(tokens) {
		tok := tokens[i]
		if tok.Type == token.KwImport {
			start := i
			j := i
			for j < len(tokens) && tokens[j].Type != token.KwFrom && tokens[j].Type != token.EOF {
				j++
			}
			if j < len(tokens) && tokens[j].Type == token.KwFrom && j+1 < len(tokens) && tokens[j+1].Type == token.LitStr {
				file, _ := tokens[j+1].Literal.(string)
				rng := diagnostic.Range{Start: tok.Range.Start, End: tokens[j+1].Range.End}
				imports = append(imports, ImportRef{File: file, Range: rng})
				if resolved, err := pp.resolver.Resolve(file); err != nil {
					diags.Add(ErrorKind{Code_: "UnresolvedImport", Message: fmt.Sprintf("cannot resolve import %q: %s", file, err)}, rng)
				} else {
					for _, rt := range resolved {
						if rt.Type != token.EOF {
							spliced = append(spliced, rt)
						}
					}
				}
				for k := start; k <= j+1; k++ {
					out = append(out, tokens[k])
				}
				i = j + 2
				continue
			}
		}
		out = append(out, tok)
		i++
	}
	return append(spliced, out...), imports, diags
}
