package gwas

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// FamRecord is one sample line of a PLINK .fam file.
type FamRecord struct {
	FID string
	IID string
	PID string
	MID string
	// Sex is coded 1=male, 2=female, 0=unknown.
	Sex int
	// Phenotype is case/control coded 2=case, 1=control, -9/0=missing.
	Phenotype int
}

// ReadFam parses a .fam file. Fields are whitespace separated; every record
// carries exactly six columns.
func ReadFam(path string) ([]FamRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open .fam file: %w", err)
	}
	defer f.Close()

	var records []FamRecord
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) != 6 {
			return nil, fmt.Errorf("%s:%d: expected 6 fields, got %d", filepath.Base(path), lineNo, len(fields))
		}

		sex, err := strconv.Atoi(fields[4])
		if err != nil {
			return nil, fmt.Errorf("%s:%d: bad sex code %q", filepath.Base(path), lineNo, fields[4])
		}
		pheno, err := strconv.Atoi(fields[5])
		if err != nil {
			return nil, fmt.Errorf("%s:%d: bad phenotype %q", filepath.Base(path), lineNo, fields[5])
		}

		records = append(records, FamRecord{
			FID: fields[0], IID: fields[1],
			PID: fields[2], MID: fields[3],
			Sex: sex, Phenotype: pheno,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read .fam file: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s contains no samples", filepath.Base(path))
	}

	return records, nil
}

// WritePhenotype writes the GCTA phenotype file: FID, IID, and the phenotype
// recoded from PLINK's 2/1 case-control coding to 1/0.
func WritePhenotype(records []FamRecord, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create phenotype file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, r := range records {
		fmt.Fprintf(w, "%s\t%s\t%d\n", r.FID, r.IID, r.Phenotype-1)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write phenotype file: %w", err)
	}
	return nil
}

// WriteSexCovar writes the discrete sex covariate file: FID, IID, sex code.
func WriteSexCovar(records []FamRecord, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create covariate file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, r := range records {
		fmt.Fprintf(w, "%s\t%s\t%d\n", r.FID, r.IID, r.Sex)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write covariate file: %w", err)
	}
	return nil
}

// AuxFiles are the phenotype and covariate paths derived from the .fam file.
type AuxFiles struct {
	Phenotype string
	SexCovar  string
}

// WriteAuxFiles derives the phenotype and sex covariate files the random
// effect model needs from the input .fam file, placing them in the model's
// results directory.
func WriteAuxFiles(cfg *Config, resultsDir string) (*AuxFiles, error) {
	records, err := ReadFam(cfg.BFile() + ".fam")
	if err != nil {
		return nil, err
	}

	aux := &AuxFiles{
		Phenotype: filepath.Join(resultsDir, cfg.OutputName+"_pheno.phen"),
		SexCovar:  filepath.Join(resultsDir, cfg.OutputName+"_sex.covar"),
	}

	if err := WritePhenotype(records, aux.Phenotype); err != nil {
		return nil, err
	}
	if err := WriteSexCovar(records, aux.SexCovar); err != nil {
		return nil, err
	}
	return aux, nil
}
