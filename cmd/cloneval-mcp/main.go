package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/ludo-technologies/cloneval/internal/version"
	"github.com/ludo-technologies/cloneval/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file")
	flag.Parse()

	// Set up logging to stderr (MCP uses stdout for JSON-RPC)
	log.SetOutput(os.Stderr)
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	server := mcpserver.NewMCPServer(
		version.Name,
		version.Short(),
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithLogging(),
	)

	deps := mcp.NewDependencies(*configPath)
	deps.SetStatusWriter(os.Stderr)
	mcp.RegisterTools(server, mcp.NewHandlerSet(deps))

	log.Printf("Starting %s MCP server %s\n", version.Name, version.Short())
	log.Println("Registered tools:")
	log.Println("  - evaluate_detector: Recall, precision@k, MRR and MAP per clone type and seed")
	log.Println("  - inspect_clone_pairs: Clone-pair source diagnostics")
	log.Println("")
	log.Println("Server ready - waiting for MCP client connection...")

	// Blocks until the client disconnects
	if err := mcpserver.ServeStdio(server); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}
