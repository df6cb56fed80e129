// Package gwas implements the IDEAL-GENOM association pipeline: preparatory
// steps (LD pruning, PCA), the fixed and random effect models, and the
// summary-statistics handling around them. The statistical work itself is
// delegated to the pinned PLINK/GCTA binaries; this package prepares their
// inputs, wires them into workflows, and digests their outputs.
package gwas

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed schema/pipeline-config.schema.json
var configSchema []byte

const configSchemaURL = "https://ideal-genom.readthedocs.io/schema/pipeline-config.json"

// Config is the pipeline configuration, loaded from JSON.
type Config struct {
	// InputPath/InputName locate the PLINK binary fileset (.bed/.bim/.fam)
	// the analysis runs on.
	InputPath string `json:"input_path"`
	InputName string `json:"input_name"`

	// OutputPath is the root for per-model result directories; OutputName
	// prefixes every produced file.
	OutputPath string `json:"output_path"`
	OutputName string `json:"output_name"`

	// PrepsPath holds the preparatory-step outputs (LD-pruned fileset, PCA
	// eigenvectors). Defaults to <output_path>/preps.
	PrepsPath string `json:"preps_path,omitempty"`

	// MAF is the minor allele frequency cutoff passed to the association
	// commands.
	MAF float64 `json:"maf"`

	// Annotate enables gene-context annotation of the top hits.
	Annotate bool `json:"annotate"`

	// Threads caps the worker threads handed to plink/gcta. Zero means
	// NumCPU-2, floored at 1.
	Threads int `json:"threads,omitempty"`
}

// ValidateConfigBytes checks raw config JSON against the embedded schema.
func ValidateConfigBytes(data []byte) error {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("config is not valid JSON: %w", err)
	}

	schemaDoc, err := jsonschema.UnmarshalJSON(bytes.NewReader(configSchema))
	if err != nil {
		return fmt.Errorf("embedded schema is broken: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(configSchemaURL, schemaDoc); err != nil {
		return fmt.Errorf("failed to register schema: %w", err)
	}
	schema, err := compiler.Compile(configSchemaURL)
	if err != nil {
		return fmt.Errorf("failed to compile schema: %w", err)
	}

	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("config does not match schema: %w", err)
	}
	return nil
}

// LoadConfig reads, validates, and decodes a pipeline config file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := ValidateConfigBytes(data); err != nil {
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if cfg.PrepsPath == "" {
		cfg.PrepsPath = filepath.Join(cfg.OutputPath, "preps")
	}

	return &cfg, nil
}

// EffectiveThreads resolves the thread count the external tools run with.
func (c *Config) EffectiveThreads() int {
	if c.Threads > 0 {
		return c.Threads
	}
	n := runtime.NumCPU() - 2
	if n < 1 {
		n = 1
	}
	return n
}

// BFile is the PLINK fileset prefix the analysis runs on.
func (c *Config) BFile() string {
	return filepath.Join(c.InputPath, c.InputName)
}

// ResultsDir returns the result directory for a model, creating it along
// with the matching plots directory.
func (c *Config) ResultsDir(model string) (string, error) {
	results := filepath.Join(c.OutputPath, "gwas_"+model)
	if err := os.MkdirAll(results, 0755); err != nil {
		return "", fmt.Errorf("failed to create results directory: %w", err)
	}
	if err := os.MkdirAll(filepath.Join(c.OutputPath, "plots_"+model), 0755); err != nil {
		return "", fmt.Errorf("failed to create plots directory: %w", err)
	}
	return results, nil
}

// PlotsDir returns the plots directory for a model.
func (c *Config) PlotsDir(model string) string {
	return filepath.Join(c.OutputPath, "plots_"+model)
}
