// Package main is the entry point for the reservation MCP server.
package main

import (
	"os"

	"github.com/FreePeak/reservation-mcp/cmd/reservation-mcp/app"
)

func main() {
	if err := app.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
