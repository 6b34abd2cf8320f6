package main

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/chzyer/readline"
	"github.com/google/subcommands"

	"nilan/nilanc"
)

// replCmd reads one line at a time, compiles it standalone through the
// full pipeline, and reports any diagnostics — grounded on the
// teacher's cmd_repl_compiled.go idea of a REPL around the compiled
// path, but this toolchain has no runtime to execute the result
// against, so the REPL only reports whether the line compiles, per
// SPEC_FULL §6. Uses github.com/chzyer/readline for line editing and
// history, a dependency the teacher lists in go.mod but never wires in.
type replCmd struct{}

func (*replCmd) Name() string     { return "repl" }
func (*replCmd) Synopsis() string { return "interactively compile lines of source" }
func (*replCmd) Usage() string {
	return "repl: read lines and report whether each compiles.\n"
}
func (*replCmd) SetFlags(*flag.FlagSet) {}

func (c *replCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	rl, err := readline.New(">>> ")
	if err != nil {
		fmt.Println(err)
		return subcommands.ExitFailure
	}
	defer rl.Close()

	fmt.Println("\n\nWelcome to Nilan!")
	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF {
			return subcommands.ExitSuccess
		}
		if err != nil {
			fmt.Println(err)
			return subcommands.ExitFailure
		}
		if line == "" {
			continue
		}
		if line == "exit" {
			return subcommands.ExitSuccess
		}

		_, diags := nilanc.Compile(line)
		if diags.Empty() {
			fmt.Println("ok")
		} else {
			printDiagnostics(diags)
		}
	}
}
