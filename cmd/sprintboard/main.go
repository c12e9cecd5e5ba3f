// Command sprintboard is a sprint and story board for the terminal, with an
// HTTP API and an MCP tool server over the same SQLite database.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
