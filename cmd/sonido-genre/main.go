// Package main is the entry point for the sonido-genre CLI.
//
// Usage:
//
//	sonido-genre [flags] <command> [args]
//
// Commands:
//
//	extract   - Extract feature tables from a corpus of .au files
//	classify  - Predict the genre of .au files
//	evaluate  - Score a model against a feature table
//	inspect   - Show .au headers or a model's structure
package main

import (
	"fmt"
	"os"

	"github.com/RyanBlaney/sonido-genre/cmd/sonido-genre/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
