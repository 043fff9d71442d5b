// Package main is the entry point for the workforce CLI.
package main

import (
	"os"

	"github.com/workforcehq/workforce/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
