// Package main provides the entry point for the ticketbridge CLI.
package main

import (
	"os"

	"github.com/randalmurphal/ticketbridge/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
