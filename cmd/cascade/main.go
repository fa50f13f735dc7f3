// Package main provides the cascade CLI.
package main

import (
	"os"

	"github.com/lakeforge-labs/cascade/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
