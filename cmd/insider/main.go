package main

import (
	"os"

	"github.com/wonny/insider-edge/cmd/insider/commands"
)

// main is the entry point for the insider CLI
// ⭐ Unified CLI entry point: go run ./cmd/insider [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
