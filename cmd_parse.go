package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"nilan/nilanc"
	"nilan/parser"
)

// parseCmd runs the lexer/preprocessor/parser stages and prints the
// parsed Grammar as JSON via the teacher's astPrinter (parser.PrintASTJSON).
type parseCmd struct{}

func (*parseCmd) Name() string     { return "parse" }
func (*parseCmd) Synopsis() string { return "parse a source file and print its AST" }
func (*parseCmd) Usage() string {
	return "parse <file>: print the parsed AST as JSON.\n"
}
func (*parseCmd) SetFlags(*flag.FlagSet) {}

func (c *parseCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}
	source, err := readSourceFile(f.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	grammar, diags := nilanc.Parse(source)
	if !diags.Empty() {
		printDiagnostics(diags)
		return subcommands.ExitFailure
	}
	if _, err := parser.PrintASTJSON(grammar); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
