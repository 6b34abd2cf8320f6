package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/subcommands"

	"nilan/nilanc"
)

// compileCmd runs the full pipeline and writes the emitted WASM module
// to a file named after the source with its extension swapped to
// ".wasm", matching spec.md §6's driver contract.
type compileCmd struct {
	out string
}

func (*compileCmd) Name() string     { return "compile" }
func (*compileCmd) Synopsis() string { return "compile a source file to a WebAssembly module" }
func (*compileCmd) Usage() string {
	return "compile [-o out.wasm] <file>: compile to a .wasm binary.\n"
}

func (c *compileCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.out, "o", "", "output path (defaults to the input file with its extension swapped to .wasm)")
}

func (c *compileCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}
	path := f.Arg(0)
	source, err := readSourceFile(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	wasmBytes, diags := nilanc.Compile(source)
	if !diags.Empty() {
		printDiagnostics(diags)
		return subcommands.ExitFailure
	}

	out := c.out
	if out == "" {
		out = strings.TrimSuffix(path, filepath.Ext(path)) + ".wasm"
	}
	if err := os.WriteFile(out, wasmBytes, 0o644); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	fmt.Printf("wrote %s (%d bytes)\n", out, len(wasmBytes))
	return subcommands.ExitSuccess
}
