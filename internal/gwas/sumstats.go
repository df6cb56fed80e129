package gwas

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
)

// Assoc is one variant row of a fastGWA association scan.
type Assoc struct {
	Chr  int
	SNP  string
	Pos  int
	A1   string
	A2   string
	N    int
	Freq float64 // allele frequency of A1 (AF1 column)
	Beta float64
	SE   float64
	P    float64
}

// fastGWA column names; AF1/BETA/SE/P are renamed to the COJO vocabulary
// (freq/b/se/p) on output.
var fastGWAColumns = []string{"CHR", "SNP", "POS", "A1", "A2", "N", "AF1", "BETA", "SE", "P"}

// requireColumns maps required column names to their header positions and
// returns the minimum record width covering all of them.
func requireColumns(header, names []string, what string) (map[string]int, int, error) {
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}
	width := 0
	for _, name := range names {
		i, ok := col[name]
		if !ok {
			return nil, 0, fmt.Errorf("%s missing column %q", what, name)
		}
		if i >= width {
			width = i + 1
		}
	}
	return col, width, nil
}

// ReadFastGWA parses the tab-separated summary statistics GCTA writes. The
// file must carry a header line; columns beyond the ones listed in
// fastGWAColumns (T, SE_T, P_noSPA, CONVERGE) are ignored.
func ReadFastGWA(path string) ([]Assoc, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open summary statistics: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(bufio.NewReader(f))
	r.Comma = '\t'
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	col, width, err := requireColumns(header, fastGWAColumns, "summary statistics")
	if err != nil {
		return nil, err
	}

	var assocs []Assoc
	line := 1
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read summary statistics: %w", err)
		}
		line++
		if len(record) < width {
			return nil, fmt.Errorf("line %d: truncated row (%d of %d fields)", line, len(record), width)
		}

		a := Assoc{
			SNP: record[col["SNP"]],
			A1:  record[col["A1"]],
			A2:  record[col["A2"]],
		}
		var convErr error
		parse := func(name string, dst *float64) {
			if convErr != nil {
				return
			}
			v, err := strconv.ParseFloat(record[col[name]], 64)
			if err != nil {
				convErr = fmt.Errorf("line %d: bad %s value %q", line, name, record[col[name]])
				return
			}
			*dst = v
		}
		parseInt := func(name string, dst *int) {
			if convErr != nil {
				return
			}
			v, err := strconv.Atoi(record[col[name]])
			if err != nil {
				convErr = fmt.Errorf("line %d: bad %s value %q", line, name, record[col[name]])
				return
			}
			*dst = v
		}

		parseInt("CHR", &a.Chr)
		parseInt("POS", &a.Pos)
		parseInt("N", &a.N)
		parse("AF1", &a.Freq)
		parse("BETA", &a.Beta)
		parse("SE", &a.SE)
		parse("P", &a.P)
		if convErr != nil {
			return nil, convErr
		}

		assocs = append(assocs, a)
	}

	if len(assocs) == 0 {
		return nil, fmt.Errorf("summary statistics file %s has no data rows", path)
	}
	return assocs, nil
}

// WriteCOJOInput writes the .ma file GCTA's --cojo-slct consumes:
// SNP A1 A2 freq b se p N, tab separated with a header.
func WriteCOJOInput(assocs []Assoc, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create COJO input: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintln(w, "SNP\tA1\tA2\tfreq\tb\tse\tp\tN")
	for _, a := range assocs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%g\t%g\t%g\t%g\t%d\n",
			a.SNP, a.A1, a.A2, a.Freq, a.Beta, a.SE, a.P, a.N)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write COJO input: %w", err)
	}
	return nil
}

// glmColumns are the plink2 --glm output columns the plot data needs.
var glmColumns = []string{"#CHROM", "POS", "ID", "P"}

// ReadGLM parses a plink2 --glm logistic results file into the subset of
// fields the plotting layer uses. Rows with a non-numeric p-value (plink
// writes "NA" for failed tests) are skipped.
func ReadGLM(path string) ([]Assoc, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open GLM results: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(bufio.NewReader(f))
	r.Comma = '\t'
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	col, width, err := requireColumns(header, glmColumns, "GLM results")
	if err != nil {
		return nil, err
	}

	var assocs []Assoc
	line := 1
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read GLM results: %w", err)
		}
		line++
		if len(record) < width {
			return nil, fmt.Errorf("line %d: truncated row (%d of %d fields)", line, len(record), width)
		}

		chr, err := strconv.Atoi(record[col["#CHROM"]])
		if err != nil {
			continue
		}
		pos, err := strconv.Atoi(record[col["POS"]])
		if err != nil {
			continue
		}
		p, err := strconv.ParseFloat(record[col["P"]], 64)
		if err != nil {
			continue
		}

		assocs = append(assocs, Assoc{
			Chr: chr,
			SNP: record[col["ID"]],
			Pos: pos,
			P:   p,
		})
	}

	if len(assocs) == 0 {
		return nil, fmt.Errorf("GLM results file %s has no usable rows", path)
	}
	return assocs, nil
}

// COJOHit is one independent signal from the .jma.cojo output.
type COJOHit struct {
	Chr int
	SNP string
	Pos int
	P   float64
}

// ReadCOJOHits parses the .jma.cojo top-hit file. The format is tab
// separated with a header carrying at least Chr, SNP, bp, and p columns.
func ReadCOJOHits(path string) ([]COJOHit, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open COJO results: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(bufio.NewReader(f))
	r.Comma = '\t'
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read COJO header: %w", err)
	}
	col, width, err := requireColumns(header, []string{"Chr", "SNP", "bp", "p"}, "COJO results")
	if err != nil {
		return nil, err
	}

	var hits []COJOHit
	line := 1
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read COJO results: %w", err)
		}
		line++
		if len(record) < width {
			return nil, fmt.Errorf("line %d: truncated row (%d of %d fields)", line, len(record), width)
		}
		chr, err := strconv.Atoi(record[col["Chr"]])
		if err != nil {
			continue
		}
		pos, err := strconv.Atoi(record[col["bp"]])
		if err != nil {
			continue
		}
		p, _ := strconv.ParseFloat(record[col["p"]], 64)
		hits = append(hits, COJOHit{Chr: chr, SNP: record[col["SNP"]], Pos: pos, P: p})
	}
	return hits, nil
}

// medianChiSq1 is the median of the chi-square distribution with one degree
// of freedom.
const medianChiSq1 = 0.45493642311957174

// GenomicInflation computes the genomic inflation factor lambda: the median
// observed association chi-square over its expected value under the null.
func GenomicInflation(ps []float64) (float64, error) {
	if len(ps) == 0 {
		return 0, fmt.Errorf("no p-values")
	}

	chis := make([]float64, 0, len(ps))
	for _, p := range ps {
		if p <= 0 || p > 1 {
			continue
		}
		z := invNorm(1 - p/2)
		chis = append(chis, z*z)
	}
	if len(chis) == 0 {
		return 0, fmt.Errorf("no usable p-values")
	}

	sort.Float64s(chis)
	var median float64
	n := len(chis)
	if n%2 == 1 {
		median = chis[n/2]
	} else {
		median = (chis[n/2-1] + chis[n/2]) / 2
	}

	return median / medianChiSq1, nil
}

// invNorm is the inverse standard normal CDF, using Acklam's rational
// approximation (relative error below 1.15e-9 across the domain).
func invNorm(p float64) float64 {
	if p <= 0 {
		return math.Inf(-1)
	}
	if p >= 1 {
		return math.Inf(1)
	}

	a := [6]float64{-3.969683028665376e+01, 2.209460984245205e+02, -2.759285104469687e+02,
		1.383577518672690e+02, -3.066479806614716e+01, 2.506628277459239e+00}
	b := [5]float64{-5.447609879822406e+01, 1.615858368580409e+02, -1.556989798598866e+02,
		6.680131188771972e+01, -1.328068155288572e+01}
	c := [6]float64{-7.784894002430293e-03, -3.223964580411365e-01, -2.400758277161838e+00,
		-2.549732539343734e+00, 4.374664141464968e+00, 2.938163982698783e+00}
	d := [4]float64{7.784695709041462e-03, 3.224671290700398e-01, 2.445134137142996e+00,
		3.754408661907416e+00}

	const plow = 0.02425
	const phigh = 1 - plow

	switch {
	case p < plow:
		q := math.Sqrt(-2 * math.Log(p))
		return (((((c[0]*q+c[1])*q+c[2])*q+c[3])*q+c[4])*q + c[5]) /
			((((d[0]*q+d[1])*q+d[2])*q+d[3])*q + 1)
	case p > phigh:
		q := math.Sqrt(-2 * math.Log(1-p))
		return -(((((c[0]*q+c[1])*q+c[2])*q+c[3])*q+c[4])*q + c[5]) /
			((((d[0]*q+d[1])*q+d[2])*q+d[3])*q + 1)
	default:
		q := p - 0.5
		r := q * q
		return (((((a[0]*r+a[1])*r+a[2])*r+a[3])*r+a[4])*r + a[5]) * q /
			(((((b[0]*r+b[1])*r+b[2])*r+b[3])*r+b[4])*r + 1)
	}
}
