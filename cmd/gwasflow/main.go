package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/ideal-genom/gwaskit/internal/annotate"
	"github.com/ideal-genom/gwaskit/internal/gwas"
	"github.com/ideal-genom/gwaskit/internal/toolchain"
)

const (
	version = "0.3.1"
	name    = "gwasflow"

	// maxTasks caps concurrent workflow tasks; the pipeline stages are
	// sequential, so this only matters for future fan-out.
	maxTasks = 4
)

func usage() {
	fmt.Printf(`%s v%s - GWAS pipeline for case/control cohorts

Usage:
  %s <command> [flags]

Commands:
  prep          Run the preparatory steps (LD pruning, PCA)
  fixed         Run the fixed effect model (plink2 GLM scan)
  random        Run the random effect model (fastGWA-mlm-binary + COJO)
  install-tools Download and install the pinned plink/plink2/gcta binaries

Flags:
  prep, fixed, random:
    -config <path>   pipeline configuration file (required)
  install-tools:
    -dir <dir>       installation directory (default %s)

Run '%s <command> -h' for command help.
`, name, version, name, toolchain.DefaultBinDir, name)
}

func main() {
	log.SetOutput(os.Stderr)
	log.SetPrefix(name + ": ")
	log.SetFlags(0)

	if len(os.Args) < 2 {
		usage()
		os.Exit(0)
	}

	var err error
	switch os.Args[1] {
	case "prep":
		err = runPrep(os.Args[2:])
	case "fixed":
		err = runFixed(os.Args[2:])
	case "random":
		err = runRandom(os.Args[2:])
	case "install-tools":
		err = runInstallTools(os.Args[2:])
	case "--version", "-version", "version":
		fmt.Printf("%s version %s\n", name, version)
	case "--help", "-h", "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "%s: unknown command %q\n\n", name, os.Args[1])
		usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatal(err)
	}
}

// loadConfigArg parses the common -config flag and loads the configuration.
func loadConfigArg(command string, args []string) (*gwas.Config, error) {
	fs := flag.NewFlagSet(command, flag.ExitOnError)
	configPath := fs.String("config", "", "pipeline configuration file")
	fs.Parse(args)

	if *configPath == "" {
		return nil, fmt.Errorf("%s: -config is required", command)
	}
	return gwas.LoadConfig(*configPath)
}

// requirePreps verifies the preparatory artifacts both models consume.
func requirePreps(cfg *gwas.Config) error {
	eigenvec := cfg.PCAPrefix() + ".eigenvec"
	if _, err := os.Stat(eigenvec); err != nil {
		return fmt.Errorf("missing %s: run 'gwasflow prep' first", eigenvec)
	}
	return nil
}

func runPrep(args []string) error {
	cfg, err := loadConfigArg("prep", args)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.PrepsPath, 0755); err != nil {
		return fmt.Errorf("failed to create preps directory: %w", err)
	}

	log.Printf("running preparatory steps on %s", cfg.BFile())
	gwas.NewPrepWorkflow(cfg, maxTasks).Run()
	log.Printf("preparatory steps complete: %s", cfg.PrepsPath)
	return nil
}

func runFixed(args []string) error {
	cfg, err := loadConfigArg("fixed", args)
	if err != nil {
		return err
	}
	if err := requirePreps(cfg); err != nil {
		return err
	}

	resultsDir, err := cfg.ResultsDir("fixed")
	if err != nil {
		return err
	}

	log.Printf("running fixed effect model on %s", cfg.BFile())
	wf := gwas.NewFixedEffectWorkflow(cfg, resultsDir, maxTasks)
	wf.Run()

	glmOut := wf.ResultsPrefix + ".PHENO1.glm.logistic.hybrid"
	assocs, err := gwas.ReadGLM(glmOut)
	if err != nil {
		return fmt.Errorf("scan finished but results are unreadable: %w", err)
	}

	if err := writePlotData(cfg, "fixed", assocs); err != nil {
		return err
	}
	log.Printf("fixed effect model complete: %s", resultsDir)
	return nil
}

func runRandom(args []string) error {
	cfg, err := loadConfigArg("random", args)
	if err != nil {
		return err
	}
	if err := requirePreps(cfg); err != nil {
		return err
	}

	resultsDir, err := cfg.ResultsDir("random")
	if err != nil {
		return err
	}

	aux, err := gwas.WriteAuxFiles(cfg, resultsDir)
	if err != nil {
		return err
	}

	log.Printf("running random effect model on %s", cfg.BFile())
	wf := gwas.NewRandomAssocWorkflow(cfg, aux, resultsDir, maxTasks)
	wf.Run()
	art := wf.Artifacts

	if err := gwas.PrepareCOJOInput(art); err != nil {
		return fmt.Errorf("scan finished but results are unreadable: %w", err)
	}
	log.Printf("selecting independent top hits")
	gwas.NewCOJOWorkflow(cfg, art, maxTasks).Run()

	assocs, err := gwas.ReadFastGWA(art.SumStats)
	if err != nil {
		return err
	}
	if err := writePlotData(cfg, "random", assocs); err != nil {
		return err
	}

	if cfg.Annotate {
		if err := annotateTopHits(cfg, art); err != nil {
			// Annotation rides on a public API; its failure should not
			// discard a finished scan.
			log.Printf("warning: annotation incomplete: %v", err)
		}
	}

	log.Printf("random effect model complete: %s", resultsDir)
	return nil
}

// writePlotData derives the Manhattan and QQ tables plus the genomic
// inflation factor from a finished scan.
func writePlotData(cfg *gwas.Config, model string, assocs []gwas.Assoc) error {
	plotsDir := cfg.PlotsDir(model)

	if err := gwas.WriteManhattanData(assocs, filepath.Join(plotsDir, "manhattan_data.tsv")); err != nil {
		return err
	}

	ps := make([]float64, 0, len(assocs))
	for _, a := range assocs {
		ps = append(ps, a.P)
	}
	if err := gwas.WriteQQData(ps, filepath.Join(plotsDir, "qq_data.tsv")); err != nil {
		return err
	}

	lambda, err := gwas.GenomicInflation(ps)
	if err != nil {
		return err
	}
	log.Printf("genomic inflation lambda: %.4f (%d variants)", lambda, len(assocs))
	return nil
}

func annotateTopHits(cfg *gwas.Config, art gwas.RandomArtifacts) error {
	hits, err := gwas.ReadCOJOHits(art.TopHits)
	if err != nil {
		return err
	}
	if len(hits) == 0 {
		log.Printf("no independent top hits to annotate")
		return nil
	}

	log.Printf("annotating %d top hits via Ensembl", len(hits))
	client := annotate.NewClient("")
	genes, lookupErr := client.TopHits(context.Background(), hits)

	if err := annotate.WriteAnnotated(hits, genes, art.Annotated); err != nil {
		return err
	}
	log.Printf("annotation written: %s", art.Annotated)
	return lookupErr
}

func runInstallTools(args []string) error {
	fs := flag.NewFlagSet("install-tools", flag.ExitOnError)
	binDir := fs.String("dir", toolchain.DefaultBinDir, "installation directory")
	fs.Parse(args)

	log.Printf("installing analysis binaries into %s", *binDir)
	if err := toolchain.Install(context.Background(), *binDir); err != nil {
		return err
	}

	for _, bin := range toolchain.Registry() {
		st := toolchain.Probe(bin)
		if !st.Found {
			return fmt.Errorf("%s installed but not found (is %s on PATH?)", bin.Name, *binDir)
		}
		log.Printf("%s: %s", bin.Name, st.Version)
	}
	return nil
}
