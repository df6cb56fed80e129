package gwas

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleFam = `FAM1 IND1 0 0 1 2
FAM1 IND2 0 0 2 1
FAM2 IND3 0 0 1 1
FAM2 IND4 0 0 2 2
`

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReadFam(t *testing.T) {
	records, err := ReadFam(writeTempFile(t, "cohort.fam", sampleFam))
	if err != nil {
		t.Fatalf("ReadFam() error = %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("ReadFam() returned %d records, want 4", len(records))
	}

	first := records[0]
	if first.FID != "FAM1" || first.IID != "IND1" {
		t.Errorf("record 0 ids = %s/%s, want FAM1/IND1", first.FID, first.IID)
	}
	if first.Sex != 1 || first.Phenotype != 2 {
		t.Errorf("record 0 sex/pheno = %d/%d, want 1/2", first.Sex, first.Phenotype)
	}
}

func TestReadFamErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"wrong field count", "FAM1 IND1 0 0 1\n"},
		{"bad sex code", "FAM1 IND1 0 0 male 2\n"},
		{"bad phenotype", "FAM1 IND1 0 0 1 case\n"},
		{"empty file", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ReadFam(writeTempFile(t, "bad.fam", tt.content)); err == nil {
				t.Error("ReadFam() expected error")
			}
		})
	}
}

func TestWriteAuxFiles(t *testing.T) {
	inDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(inDir, "cohort.fam"), []byte(sampleFam), 0o644); err != nil {
		t.Fatal(err)
	}
	resultsDir := t.TempDir()
	cfg := &Config{InputPath: inDir, InputName: "cohort", OutputName: "run1"}

	aux, err := WriteAuxFiles(cfg, resultsDir)
	if err != nil {
		t.Fatalf("WriteAuxFiles() error = %v", err)
	}

	pheno, err := os.ReadFile(aux.Phenotype)
	if err != nil {
		t.Fatalf("phenotype file not written: %v", err)
	}
	phenoLines := strings.Split(strings.TrimSpace(string(pheno)), "\n")
	if len(phenoLines) != 4 {
		t.Fatalf("phenotype file has %d lines, want 4", len(phenoLines))
	}
	// case/control 2/1 recodes to 1/0
	if phenoLines[0] != "FAM1\tIND1\t1" {
		t.Errorf("phenotype line 0 = %q, want case recoded to 1", phenoLines[0])
	}
	if phenoLines[1] != "FAM1\tIND2\t0" {
		t.Errorf("phenotype line 1 = %q, want control recoded to 0", phenoLines[1])
	}

	covar, err := os.ReadFile(aux.SexCovar)
	if err != nil {
		t.Fatalf("sex covariate file not written: %v", err)
	}
	covarLines := strings.Split(strings.TrimSpace(string(covar)), "\n")
	if covarLines[1] != "FAM1\tIND2\t2" {
		t.Errorf("covar line 1 = %q, want sex code kept as-is", covarLines[1])
	}

	if filepath.Base(aux.Phenotype) != "run1_pheno.phen" {
		t.Errorf("phenotype file name = %q", filepath.Base(aux.Phenotype))
	}
	if filepath.Base(aux.SexCovar) != "run1_sex.covar" {
		t.Errorf("sex covar file name = %q", filepath.Base(aux.SexCovar))
	}
}
