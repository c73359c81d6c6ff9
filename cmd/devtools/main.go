// The devtools binary serves the agent's development tools over MCP stdio.
// It is normally launched by the agent itself (STRIDE_TOOLS_CMD), but can
// be wired into any MCP client.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"

	"github.com/cwhuang/stride/internal/devtools"
)

func main() {
	_ = godotenv.Load(".env")

	root := ""
	if len(os.Args) > 1 {
		root = os.Args[1]
	}

	ws, err := devtools.NewWorkspace(root)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// stdout carries the MCP protocol; logs must go to stderr.
	log.SetOutput(os.Stderr)
	log.Printf("[devtools] serving workspace %s", ws.Root())

	if err := server.ServeStdio(devtools.NewServer(ws)); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
