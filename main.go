package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/ideal-genom/gwaskit/tools"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	version     = "0.3.1"
	serverName  = "gwaskit-mcp-server"
	description = "MCP server for GWAS pipeline assistance and documentation search"
)

func main() {
	// Handle version flag
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		fmt.Printf("%s version %s\n", serverName, version)
		os.Exit(0)
	}

	// Set up logging to stderr (MCP uses stdout for protocol)
	log.SetOutput(os.Stderr)
	log.Printf("%s v%s starting...", serverName, version)

	server := createMCPServer()

	if err := registerTools(server); err != nil {
		log.Fatalf("Failed to register tools: %v", err)
	}

	log.Printf("✓ Server ready and waiting for connections")

	// Set up cleanup on shutdown
	defer func() {
		if err := tools.CloseDocSearch(); err != nil {
			log.Printf("Error closing doc search: %v", err)
		}
	}()

	// Run server with stdio transport
	ctx := context.Background()
	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

// createMCPServer initializes the MCP server
func createMCPServer() *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    serverName,
			Version: version,
		},
		nil, // Default options
	)

	log.Printf("Server initialized: %s v%s", serverName, version)
	return server
}

// registerTools registers all MCP tools
func registerTools(server *mcp.Server) error {
	toolCount := 0

	// Validation tools (2 tools)
	if err := tools.RegisterValidationTools(server); err != nil {
		return fmt.Errorf("failed to register validation tools: %w", err)
	}
	toolCount += 2

	// Toolchain detection tool (1 tool)
	tools.RegisterToolchainTools(server)
	toolCount++

	// Documentation search tools (3 tools)
	if err := tools.RegisterDocSearchTools(server); err != nil {
		log.Printf("Warning: Failed to register doc search tools: %v", err)
		log.Printf("Documentation search will be unavailable")
	} else {
		toolCount += 3
	}

	// Pipeline step tools (3 tools)
	if err := tools.RegisterPipelineTools(server); err != nil {
		return fmt.Errorf("failed to register pipeline tools: %w", err)
	}
	toolCount += 3

	log.Printf("✓ All tools registered: %d tools (validation + toolchain + pipeline + doc search)", toolCount)
	return nil
}
