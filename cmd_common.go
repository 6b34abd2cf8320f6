package main

import (
	"fmt"
	"os"

	"nilan/diagnostic"
)

// readSourceFile reads a source file whole, the shape every
// subcommand's positional file argument expects.
func readSourceFile(path string) (string, error) {
	bytes, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("nilan: %w", err)
	}
	return string(bytes), nil
}

// printDiagnostics reports every diagnostic in a bag to stderr, one
// per line, in the order stages produced them.
func printDiagnostics(diags diagnostic.Bag) {
	for _, d := range diags.All() {
		fmt.Fprintln(os.Stderr, d.String())
	}
}
