package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ideal-genom/gwaskit/internal/toolchain"
)

// DetectToolchainInput defines input for the detect_toolchain tool.
type DetectToolchainInput struct {
	// No input needed: the probe inspects the local PATH.
}

// DetectToolchainOutput defines output for the detect_toolchain tool.
type DetectToolchainOutput struct {
	*toolchain.Info
}

// DetectToolchain probes the PATH for the pinned plink, plink2, and gcta64
// binaries and recommends how to run the pipeline.
func DetectToolchain(ctx context.Context, req *mcp.CallToolRequest, input DetectToolchainInput) (*mcp.CallToolResult, DetectToolchainOutput, error) {
	return nil, DetectToolchainOutput{Info: toolchain.Detect()}, nil
}

// RegisterToolchainTools registers the toolchain detection tool.
func RegisterToolchainTools(server *mcp.Server) {
	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "detect_toolchain",
			Description: "Detects whether the pinned PLINK 1.9, PLINK 2, and GCTA binaries are available on PATH with matching versions, and recommends an execution mode (native, docker, or install) for running the pipeline.",
		},
		DetectToolchain,
	)
}
