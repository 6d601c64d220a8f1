// Package main provides the entry point for the cjdocs CLI.
package main

import (
	"os"

	"github.com/Aman-CERP/cjdocs-bridge/cmd/cjdocs/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
