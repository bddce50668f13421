package main

import (
	"os"

	"github.com/ftsfr/wrds-crsp-compustat/cmd/ff/commands"
)

// main is the entry point for the ff CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/ff [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
