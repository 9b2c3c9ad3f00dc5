// Package main provides the entry point for the memex CLI.
package main

import (
	"os"

	"github.com/Aman-CERP/memex/cmd/memex/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
