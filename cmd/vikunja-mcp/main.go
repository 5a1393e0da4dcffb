package main

import (
	"os"

	"github.com/jundoHeo/vikunja-mcp/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
