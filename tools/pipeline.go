package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ideal-genom/gwaskit/internal/gwas"
)

// PipelineStep describes one external-tool invocation of the pipeline.
type PipelineStep struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Model           string   `json:"model"` // "preps", "random", or "fixed"
	Tool            string   `json:"tool"`  // plink, plink2, or gcta64
	Description     string   `json:"description"`
	DocsURL         string   `json:"docs_url"`
	CommandTemplate string   `json:"command_template"`
	Inputs          []string `json:"inputs"`
	Outputs         []string `json:"outputs"`
}

// StepCatalog is the complete step catalog.
type StepCatalog struct {
	Steps       []PipelineStep `json:"steps"`
	Version     string         `json:"version"`
	LastUpdated string         `json:"last_updated"`
}

var stepCatalog *StepCatalog

// LoadStepCatalog loads the embedded pipeline step catalog.
func LoadStepCatalog() error {
	data, err := defaultDataProvider.ReadFile("data/catalog/steps.json")
	if err != nil {
		return fmt.Errorf("failed to read step catalog: %w", err)
	}

	var catalog StepCatalog
	if err := json.Unmarshal(data, &catalog); err != nil {
		return fmt.Errorf("failed to parse step catalog: %w", err)
	}
	stepCatalog = &catalog

	return nil
}

// StepSummary is the lightweight listing form of a step.
type StepSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Model       string `json:"model"`
	Tool        string `json:"tool"`
	Description string `json:"description"`
}

// ListPipelineStepsInput defines input for the list_pipeline_steps tool.
type ListPipelineStepsInput struct {
	Model string `json:"model,omitempty" jsonschema:"Filter by model: preps, random, or fixed (optional, lists everything by default)"`
}

// ListPipelineStepsOutput defines output for the list_pipeline_steps tool.
type ListPipelineStepsOutput struct {
	Steps []StepSummary `json:"steps"`
	Count int           `json:"count"`
}

// ListPipelineSteps lists the pipeline steps, optionally filtered by model.
func ListPipelineSteps(ctx context.Context, req *mcp.CallToolRequest, input ListPipelineStepsInput) (*mcp.CallToolResult, ListPipelineStepsOutput, error) {
	if stepCatalog == nil {
		if err := LoadStepCatalog(); err != nil {
			return nil, ListPipelineStepsOutput{}, fmt.Errorf("failed to load step catalog: %w", err)
		}
	}

	model := strings.ToLower(strings.TrimSpace(input.Model))
	summaries := make([]StepSummary, 0, len(stepCatalog.Steps))
	for _, step := range stepCatalog.Steps {
		if model != "" && step.Model != model {
			continue
		}
		summaries = append(summaries, StepSummary{
			ID:          step.ID,
			Name:        step.Name,
			Model:       step.Model,
			Tool:        step.Tool,
			Description: step.Description,
		})
	}

	return nil, ListPipelineStepsOutput{
		Steps: summaries,
		Count: len(summaries),
	}, nil
}

// GetStepDetailsInput defines input for the get_step_details tool.
type GetStepDetailsInput struct {
	Step string `json:"step" jsonschema:"Step id or name"`
}

// GetStepDetailsOutput defines output for the get_step_details tool.
type GetStepDetailsOutput struct {
	Step          PipelineStep `json:"step"`
	Documentation string       `json:"documentation"`
}

// GetStepDetails returns the full catalog entry for one step.
func GetStepDetails(ctx context.Context, req *mcp.CallToolRequest, input GetStepDetailsInput) (*mcp.CallToolResult, GetStepDetailsOutput, error) {
	if stepCatalog == nil {
		if err := LoadStepCatalog(); err != nil {
			return nil, GetStepDetailsOutput{}, fmt.Errorf("failed to load step catalog: %w", err)
		}
	}

	query := strings.ToLower(strings.TrimSpace(input.Step))
	if query == "" {
		return nil, GetStepDetailsOutput{}, fmt.Errorf("step is required (a step id or name)")
	}
	for _, step := range stepCatalog.Steps {
		idMatch := strings.Contains(strings.ToLower(step.ID), query)
		nameMatch := strings.Contains(strings.ToLower(step.Name), query)

		if idMatch || nameMatch {
			documentation := fmt.Sprintf("%s\n\nModel: %s\nTool: %s\n\nDocs: %s",
				step.Description, step.Model, step.Tool, step.DocsURL)

			return nil, GetStepDetailsOutput{
				Step:          step,
				Documentation: documentation,
			}, nil
		}
	}

	return nil, GetStepDetailsOutput{}, fmt.Errorf("step '%s' not found", input.Step)
}

// GeneratedCommand is one rendered command line.
type GeneratedCommand struct {
	StepID  string `json:"step_id"`
	Name    string `json:"name"`
	Tool    string `json:"tool"`
	Command string `json:"command"`
}

// GenerateStepCommandsInput defines input for the generate_step_commands tool.
type GenerateStepCommandsInput struct {
	Config string `json:"config" jsonschema:"Pipeline configuration (JSON string or file path)"`
	Model  string `json:"model" jsonschema:"Which stage to render: preps, random, or fixed"`
}

// GenerateStepCommandsOutput defines output for the generate_step_commands tool.
type GenerateStepCommandsOutput struct {
	Commands []GeneratedCommand `json:"commands"`
	Model    string             `json:"model"`
	Warnings []string           `json:"warnings,omitempty"`
}

// GenerateStepCommands renders the concrete command lines a configuration
// produces for one stage, with every placeholder resolved.
func GenerateStepCommands(ctx context.Context, req *mcp.CallToolRequest, input GenerateStepCommandsInput) (*mcp.CallToolResult, GenerateStepCommandsOutput, error) {
	if stepCatalog == nil {
		if err := LoadStepCatalog(); err != nil {
			return nil, GenerateStepCommandsOutput{}, fmt.Errorf("failed to load step catalog: %w", err)
		}
	}

	model := strings.ToLower(strings.TrimSpace(input.Model))
	switch model {
	case "preps", "random", "fixed":
	default:
		return nil, GenerateStepCommandsOutput{}, fmt.Errorf("unknown model %q (expected preps, random, or fixed)", input.Model)
	}

	configData, err := readConfigContent(input.Config)
	if err != nil {
		return nil, GenerateStepCommandsOutput{}, fmt.Errorf("failed to read config: %w", err)
	}
	if err := gwas.ValidateConfigBytes(configData); err != nil {
		return nil, GenerateStepCommandsOutput{}, err
	}
	var cfg gwas.Config
	if err := json.Unmarshal(configData, &cfg); err != nil {
		return nil, GenerateStepCommandsOutput{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if cfg.PrepsPath == "" {
		cfg.PrepsPath = filepath.Join(cfg.OutputPath, "preps")
	}

	replacer := placeholderReplacer(&cfg, model)

	output := GenerateStepCommandsOutput{Model: model}
	for _, step := range stepCatalog.Steps {
		if step.Model != model {
			continue
		}

		command := replacer.Replace(step.CommandTemplate)
		if strings.Contains(command, "{") {
			output.Warnings = append(output.Warnings,
				fmt.Sprintf("step %s: unresolved placeholder in %q", step.ID, command))
		}
		output.Commands = append(output.Commands, GeneratedCommand{
			StepID:  step.ID,
			Name:    step.Name,
			Tool:    step.Tool,
			Command: command,
		})
	}

	if len(output.Commands) == 0 {
		return nil, output, fmt.Errorf("catalog has no steps for model %q", model)
	}

	return nil, output, nil
}

// placeholderReplacer resolves catalog command-template placeholders against
// a configuration, mirroring the paths the workflows use.
func placeholderReplacer(cfg *gwas.Config, model string) *strings.Replacer {
	resultsDir := filepath.Join(cfg.OutputPath, "gwas_"+model)
	art := gwas.RandomArtifactsFor(cfg, filepath.Join(cfg.OutputPath, "gwas_random"))

	return strings.NewReplacer(
		"{bfile}", cfg.BFile(),
		"{threads}", strconv.Itoa(cfg.EffectiveThreads()),
		"{maf}", strconv.FormatFloat(cfg.MAF, 'g', -1, 64),
		"{prune_prefix}", cfg.PrunePrefix(),
		"{pruned_prefix}", cfg.PrunedPrefix(),
		"{pca_prefix}", cfg.PCAPrefix(),
		"{results_dir}", resultsDir,
		"{output_name}", cfg.OutputName,
		"{pheno}", filepath.Join(filepath.Join(cfg.OutputPath, "gwas_random"), cfg.OutputName+"_pheno.phen"),
		"{sex_covar}", filepath.Join(filepath.Join(cfg.OutputPath, "gwas_random"), cfg.OutputName+"_sex.covar"),
		"{grm_prefix}", art.GRMPrefix,
		"{sparse_prefix}", art.SparsePrefix,
		"{assoc_prefix}", art.AssocPrefix,
		"{cojo_input}", art.COJOInput,
		"{cojo_prefix}", art.COJOPrefix,
		"{glm_prefix}", filepath.Join(filepath.Join(cfg.OutputPath, "gwas_fixed"), cfg.OutputName+"_glm_pca"),
	)
}

// readConfigContent accepts either raw JSON or a path to a JSON file.
func readConfigContent(config string) ([]byte, error) {
	trimmed := strings.TrimSpace(config)
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		return []byte(config), nil
	}

	content, err := os.ReadFile(config)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", config, err)
	}
	return content, nil
}

// RegisterPipelineTools registers the step catalog tools.
func RegisterPipelineTools(server *mcp.Server) error {
	if err := LoadStepCatalog(); err != nil {
		return fmt.Errorf("failed to load step catalog: %w", err)
	}

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "list_pipeline_steps",
			Description: "List the GWAS pipeline steps with id, stage (preps/random/fixed), tool, and description. Use this to browse what the pipeline runs.",
		},
		ListPipelineSteps,
	)

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "get_step_details",
			Description: "Get the full catalog entry for one pipeline step: command template, inputs, outputs, and documentation link",
		},
		GetStepDetails,
	)

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "generate_step_commands",
			Description: "Render the exact plink/gcta command lines a pipeline configuration produces for a stage, with all paths and parameters resolved",
		},
		GenerateStepCommands,
	)

	return nil
}
