// Package main is the entry point for the estimate-engine CLI.
package main

import (
	"os"

	"estimate-engine/cmd/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
