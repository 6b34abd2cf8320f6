package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"nilan/nilanc"
)

// lexCmd runs only the lexer stage and prints the resulting token
// stream, one token per line — grounded on the teacher's cmd_run.go
// convention of a subcommand that reads a file path positional arg and
// drives exactly one pipeline stage.
type lexCmd struct{}

func (*lexCmd) Name() string     { return "lex" }
func (*lexCmd) Synopsis() string { return "lex a source file and print its tokens" }
func (*lexCmd) Usage() string {
	return "lex <file>: print the token stream produced by the lexer.\n"
}
func (*lexCmd) SetFlags(*flag.FlagSet) {}

func (c *lexCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}
	source, err := readSourceFile(f.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	tokens, diags := nilanc.Lex(source)
	for _, tok := range tokens {
		fmt.Printf("%-20s %-15q %v\n", tok.Type, tok.Lexeme, tok.Range)
	}
	if !diags.Empty() {
		printDiagnostics(diags)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
