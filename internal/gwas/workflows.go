package gwas

import (
	"fmt"
	"path/filepath"

	sp "github.com/scipipe/scipipe"
	spcomp "github.com/scipipe/scipipe/components"
)

// Preparatory artifact prefixes under cfg.PrepsPath.

// PrunePrefix is the --out prefix of the LD-pruning pass (.prune.in/.prune.out).
func (c *Config) PrunePrefix() string {
	return filepath.Join(c.PrepsPath, c.OutputName+"_prune")
}

// PrunedPrefix is the LD-pruned PLINK fileset prefix.
func (c *Config) PrunedPrefix() string {
	return filepath.Join(c.PrepsPath, c.OutputName+"_LDpruned")
}

// PCAPrefix is the --out prefix of the PCA pass; eigenvectors land at
// <prefix>.eigenvec.
func (c *Config) PCAPrefix() string {
	return filepath.Join(c.PrepsPath, c.OutputName+"_pca")
}

// RandomArtifacts are the file locations the random effect model produces
// inside its results directory.
type RandomArtifacts struct {
	GRMPrefix    string
	SparsePrefix string
	AssocPrefix  string
	SumStats     string // fastGWA summary statistics
	COJOInput    string // .ma file for --cojo-slct
	COJOPrefix   string
	TopHits      string // independent signals (.jma.cojo)
	Annotated    string // gene-context table for the top hits
}

// RandomArtifactsFor lays out the random-model artifact paths.
func RandomArtifactsFor(cfg *Config, resultsDir string) RandomArtifacts {
	assocPrefix := filepath.Join(resultsDir, cfg.OutputName+"_assocSparseCovar_pca_sex-mlm-binary")
	cojoPrefix := assocPrefix + "-cojo"
	return RandomArtifacts{
		GRMPrefix:    filepath.Join(resultsDir, cfg.OutputName+"_grm"),
		SparsePrefix: filepath.Join(resultsDir, cfg.OutputName+"_sparse"),
		AssocPrefix:  assocPrefix,
		SumStats:     assocPrefix + ".fastGWA",
		COJOInput:    filepath.Join(resultsDir, "cojo_file.ma"),
		COJOPrefix:   cojoPrefix,
		TopHits:      cojoPrefix + ".jma.cojo",
		Annotated:    filepath.Join(resultsDir, "snps_annotated.csv"),
	}
}

// PrepWorkflow runs the preparatory steps: LD pruning, extraction of the
// pruned fileset, and PCA over it.
type PrepWorkflow struct {
	*sp.Workflow
}

// NewPrepWorkflow builds the preparatory-steps workflow.
func NewPrepWorkflow(cfg *Config, maxTasks int) *PrepWorkflow {
	wf := sp.NewWorkflow("preparatory_steps", maxTasks)
	threads := cfg.EffectiveThreads()

	ldPrune := wf.NewProc("ld_prune", fmt.Sprintf(
		"plink --bfile %s --indep-pairwise 50 5 0.2 --threads %d --out %s && echo done > {o:done}",
		cfg.BFile(), threads, cfg.PrunePrefix()))
	ldPrune.SetOut("done", cfg.PrunePrefix()+".done")

	extract := wf.NewProc("extract_pruned", fmt.Sprintf(
		"plink --bfile %s --extract %s.prune.in --make-bed --threads %d --out %s && echo done > {o:done} # {i:prune}",
		cfg.BFile(), cfg.PrunePrefix(), threads, cfg.PrunedPrefix()))
	extract.SetOut("done", cfg.PrunedPrefix()+".done")
	extract.In("prune").From(ldPrune.Out("done"))

	pca := wf.NewProc("pca", fmt.Sprintf(
		"plink --bfile %s --pca 10 --threads %d --out %s && echo done > {o:done} # {i:pruned}",
		cfg.PrunedPrefix(), threads, cfg.PCAPrefix()))
	pca.SetOut("done", cfg.PCAPrefix()+".done")
	pca.In("pruned").From(extract.Out("done"))

	return &PrepWorkflow{wf}
}

// RandomAssocWorkflow is the first half of the random effect model: GRM
// computation, sparsification, and the fastGWA-mlm-binary scan. The COJO
// selection runs separately because its input file is derived from the scan
// output (see NewCOJOWorkflow).
type RandomAssocWorkflow struct {
	*sp.Workflow
	Artifacts RandomArtifacts
}

// NewRandomAssocWorkflow builds the association half of the random effect
// model. aux points at the phenotype/covariate files derived from the .fam
// file beforehand.
func NewRandomAssocWorkflow(cfg *Config, aux *AuxFiles, resultsDir string, maxTasks int) *RandomAssocWorkflow {
	wf := sp.NewWorkflow("gwas_random", maxTasks)
	threads := cfg.EffectiveThreads()
	art := RandomArtifactsFor(cfg, resultsDir)

	grm := wf.NewProc("compute_grm", fmt.Sprintf(
		"gcta64 --bfile %s --make-grm --thread-num %d --out %s && echo done > {o:done}",
		cfg.PrunedPrefix(), threads, art.GRMPrefix))
	grm.SetOut("done", art.GRMPrefix+".done")

	sparse := wf.NewProc("sparsify_grm", fmt.Sprintf(
		"gcta64 --grm %s --make-bK-sparse 0.05 --out %s && echo done > {o:done} # {i:grm}",
		art.GRMPrefix, art.SparsePrefix))
	sparse.SetOut("done", art.SparsePrefix+".done")
	sparse.In("grm").From(grm.Out("done"))

	assoc := wf.NewProc("fastgwa_mlm_binary", fmt.Sprintf(
		"gcta64 --bfile %s --fastGWA-mlm-binary --maf %g --grm-sparse %s --qcovar %s.eigenvec --covar %s --pheno %s --thread-num %d --out %s && echo done > {o:done} # {i:sparse}",
		cfg.BFile(), cfg.MAF, art.SparsePrefix, cfg.PCAPrefix(), aux.SexCovar, aux.Phenotype, threads, art.AssocPrefix))
	assoc.SetOut("done", art.AssocPrefix+".done")
	assoc.In("sparse").From(sparse.Out("done"))

	return &RandomAssocWorkflow{Workflow: wf, Artifacts: art}
}

// COJOWorkflow runs the conditional-and-joint selection of independent top
// hits over a prepared .ma summary file.
type COJOWorkflow struct {
	*sp.Workflow
	Artifacts RandomArtifacts
}

// NewCOJOWorkflow builds the top-hit selection workflow. The .ma file at
// art.COJOInput must exist (written by PrepareCOJOInput).
func NewCOJOWorkflow(cfg *Config, art RandomArtifacts, maxTasks int) *COJOWorkflow {
	wf := sp.NewWorkflow("cojo_top_hits", maxTasks)
	threads := cfg.EffectiveThreads()

	maSource := spcomp.NewFileSource(wf, "cojo_ma", art.COJOInput)

	cojo := wf.NewProc("cojo_slct", fmt.Sprintf(
		"gcta64 --bfile %s --maf %g --cojo-slct --cojo-file {i:ma} --thread-num %d --out %s && echo done > {o:done}",
		cfg.BFile(), cfg.MAF, threads, art.COJOPrefix))
	cojo.SetOut("done", art.COJOPrefix+".done")
	cojo.In("ma").From(maSource.Out())

	return &COJOWorkflow{Workflow: wf, Artifacts: art}
}

// PrepareCOJOInput digests the fastGWA scan output into the .ma file COJO
// consumes, renaming the summary columns on the way.
func PrepareCOJOInput(art RandomArtifacts) error {
	assocs, err := ReadFastGWA(art.SumStats)
	if err != nil {
		return err
	}
	return WriteCOJOInput(assocs, art.COJOInput)
}

// FixedEffectWorkflow runs the fixed effect model: a plink2 GLM scan with
// the PCA eigenvectors as quantitative covariates.
type FixedEffectWorkflow struct {
	*sp.Workflow
	// ResultsPrefix is the --out prefix of the GLM scan.
	ResultsPrefix string
}

// NewFixedEffectWorkflow builds the fixed effect model workflow.
func NewFixedEffectWorkflow(cfg *Config, resultsDir string, maxTasks int) *FixedEffectWorkflow {
	wf := sp.NewWorkflow("gwas_fixed", maxTasks)
	threads := cfg.EffectiveThreads()
	prefix := filepath.Join(resultsDir, cfg.OutputName+"_glm_pca")

	glm := wf.NewProc("glm_scan", fmt.Sprintf(
		"plink2 --bfile %s --glm hide-covar --maf %g --covar %s.eigenvec --covar-variance-standardize --threads %d --out %s && echo done > {o:done}",
		cfg.BFile(), cfg.MAF, cfg.PCAPrefix(), threads, prefix))
	glm.SetOut("done", prefix+".done")

	return &FixedEffectWorkflow{Workflow: wf, ResultsPrefix: prefix}
}
