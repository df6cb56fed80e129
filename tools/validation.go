package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ideal-genom/gwaskit/internal/gwas"
	"github.com/ideal-genom/gwaskit/internal/sphinx"
)

// ValidateSearchIndexInput defines input for the validate_search_index tool.
type ValidateSearchIndexInput struct {
	Index string `json:"index" jsonschema:"searchindex.js content or a path to the file"`
}

// ValidateSearchIndexOutput defines output for the validate_search_index tool.
type ValidateSearchIndexOutput struct {
	Valid          bool     `json:"valid"`
	Errors         []string `json:"errors"`
	DocCount       int      `json:"doc_count"`
	TermCount      int      `json:"term_count"`
	TitleTermCount int      `json:"title_term_count"`
	Message        string   `json:"message"`
}

// ValidateSearchIndex parses a Sphinx search index and checks its internal
// consistency: parallel document arrays of equal length and every posting or
// title entry pointing at an existing document.
func ValidateSearchIndex(ctx context.Context, req *mcp.CallToolRequest, input ValidateSearchIndexInput) (*mcp.CallToolResult, ValidateSearchIndexOutput, error) {
	output := ValidateSearchIndexOutput{Errors: []string{}}

	trimmed := strings.TrimSpace(input.Index)
	var (
		idx *sphinx.Index
		err error
	)
	if strings.HasPrefix(trimmed, "Search.setIndex(") || strings.HasPrefix(trimmed, "{") {
		idx, err = sphinx.Parse([]byte(input.Index))
	} else {
		idx, err = sphinx.Load(input.Index)
	}
	if err != nil {
		output.Errors = append(output.Errors, err.Error())
		output.Message = "Search index could not be parsed"
		return nil, output, nil
	}

	output.DocCount = idx.DocCount()
	output.TermCount = len(idx.Terms)
	output.TitleTermCount = len(idx.TitleTerms)

	if err := idx.Validate(); err != nil {
		output.Errors = append(output.Errors, err.Error())
		output.Message = "Search index is inconsistent"
		return nil, output, nil
	}

	output.Valid = true
	output.Message = fmt.Sprintf("Search index is valid: %d documents, %d terms, %d title terms",
		output.DocCount, output.TermCount, output.TitleTermCount)
	return nil, output, nil
}

// ValidatePipelineConfigInput defines input for the validate_pipeline_config tool.
type ValidatePipelineConfigInput struct {
	Config string `json:"config" jsonschema:"Pipeline configuration (JSON string or file path)"`
}

// ValidatePipelineConfigOutput defines output for the validate_pipeline_config tool.
type ValidatePipelineConfigOutput struct {
	Valid   bool     `json:"valid"`
	Errors  []string `json:"errors"`
	Message string   `json:"message"`
}

// ValidatePipelineConfig checks a pipeline configuration against the
// embedded JSON schema.
func ValidatePipelineConfig(ctx context.Context, req *mcp.CallToolRequest, input ValidatePipelineConfigInput) (*mcp.CallToolResult, ValidatePipelineConfigOutput, error) {
	output := ValidatePipelineConfigOutput{Errors: []string{}}

	data, err := readConfigContent(input.Config)
	if err != nil {
		return nil, output, err
	}

	if err := gwas.ValidateConfigBytes(data); err != nil {
		output.Errors = append(output.Errors, err.Error())
		output.Message = "Configuration is invalid"
		return nil, output, nil
	}

	output.Valid = true
	output.Message = "Configuration is valid"
	return nil, output, nil
}

// RegisterValidationTools registers the validation tools.
func RegisterValidationTools(server *mcp.Server) error {
	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "validate_search_index",
			Description: "Validate a Sphinx searchindex.js: parses it and checks that docnames/filenames/titles are parallel arrays and that every term posting and title entry references an existing document",
		},
		ValidateSearchIndex,
	)

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "validate_pipeline_config",
			Description: "Validate a GWAS pipeline configuration file against its JSON schema (required fields, MAF range, thread count)",
		},
		ValidatePipelineConfig,
	)

	return nil
}
