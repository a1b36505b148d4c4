// Package main provides the entry point for the equiprank CLI.
package main

import (
	"os"

	"github.com/equiprank/equiprank/cmd/equiprank/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
