package gwas

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestReadFastGWA(t *testing.T) {
	content := strings.Join([]string{
		"CHR\tSNP\tPOS\tA1\tA2\tN\tAF1\tBETA\tSE\tP",
		"1\trs111\t10177\tA\tAC\t989\t0.399394\t0.0181\t0.0231\t0.433",
		"2\trs222\t20301\tG\tT\t989\t0.125000\t-0.0412\t0.0198\t0.0375",
	}, "\n") + "\n"

	assocs, err := ReadFastGWA(writeTempFile(t, "scan.fastGWA", content))
	if err != nil {
		t.Fatalf("ReadFastGWA() error = %v", err)
	}
	if len(assocs) != 2 {
		t.Fatalf("ReadFastGWA() returned %d rows, want 2", len(assocs))
	}

	a := assocs[0]
	if a.Chr != 1 || a.SNP != "rs111" || a.Pos != 10177 {
		t.Errorf("row 0 = %+v, wrong identity fields", a)
	}
	if a.N != 989 || a.Freq != 0.399394 || a.Beta != 0.0181 || a.SE != 0.0231 || a.P != 0.433 {
		t.Errorf("row 0 = %+v, wrong numeric fields", a)
	}
	if assocs[1].Beta != -0.0412 {
		t.Errorf("row 1 Beta = %v, want -0.0412", assocs[1].Beta)
	}
}

func TestReadFastGWAExtraColumnsIgnored(t *testing.T) {
	content := strings.Join([]string{
		"CHR\tSNP\tPOS\tA1\tA2\tN\tAF1\tT\tSE_T\tP_noSPA\tBETA\tSE\tP\tCONVERGE",
		"1\trs111\t10177\tA\tAC\t989\t0.399394\t1.2\t0.9\t0.41\t0.0181\t0.0231\t0.433\t1",
	}, "\n") + "\n"

	assocs, err := ReadFastGWA(writeTempFile(t, "scan.fastGWA", content))
	if err != nil {
		t.Fatalf("ReadFastGWA() error = %v", err)
	}
	if assocs[0].Beta != 0.0181 || assocs[0].P != 0.433 {
		t.Errorf("row 0 = %+v, columns mapped by position instead of name", assocs[0])
	}
}

func TestReadFastGWAErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "missing column",
			content: "CHR\tSNP\tPOS\tA1\tA2\tN\tAF1\tBETA\tSE\n1\trs111\t10177\tA\tAC\t989\t0.39\t0.01\t0.02\n",
		},
		{
			name:    "bad numeric value",
			content: "CHR\tSNP\tPOS\tA1\tA2\tN\tAF1\tBETA\tSE\tP\n1\trs111\t10177\tA\tAC\t989\tnope\t0.01\t0.02\t0.4\n",
		},
		{
			name:    "header only",
			content: "CHR\tSNP\tPOS\tA1\tA2\tN\tAF1\tBETA\tSE\tP\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ReadFastGWA(writeTempFile(t, "scan.fastGWA", tt.content)); err == nil {
				t.Error("ReadFastGWA() expected error")
			}
		})
	}
}

func TestReadFastGWATruncatedRow(t *testing.T) {
	// A partial write leaves the last row short; that must surface as an
	// error, not a panic.
	content := strings.Join([]string{
		"CHR\tSNP\tPOS\tA1\tA2\tN\tAF1\tBETA\tSE\tP",
		"1\trs111\t10177\tA\tAC\t989\t0.399394\t0.0181\t0.0231\t0.433",
		"2\trs222\t20301",
	}, "\n") + "\n"

	_, err := ReadFastGWA(writeTempFile(t, "scan.fastGWA", content))
	if err == nil {
		t.Fatal("ReadFastGWA() expected error for truncated row")
	}
	if !strings.Contains(err.Error(), "truncated") {
		t.Errorf("ReadFastGWA() error = %v, want truncated-row error", err)
	}
}

func TestWriteCOJOInput(t *testing.T) {
	assocs := []Assoc{
		{Chr: 1, SNP: "rs111", Pos: 10177, A1: "A", A2: "AC", N: 989, Freq: 0.399394, Beta: 0.0181, SE: 0.0231, P: 0.433},
	}
	path := filepath.Join(t.TempDir(), "cojo_file.ma")
	if err := WriteCOJOInput(assocs, path); err != nil {
		t.Fatalf("WriteCOJOInput() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if lines[0] != "SNP\tA1\tA2\tfreq\tb\tse\tp\tN" {
		t.Errorf("header = %q", lines[0])
	}
	if lines[1] != "rs111\tA\tAC\t0.399394\t0.0181\t0.0231\t0.433\t989" {
		t.Errorf("data row = %q", lines[1])
	}
}

func TestReadGLM(t *testing.T) {
	content := strings.Join([]string{
		"#CHROM\tPOS\tID\tREF\tALT\tA1\tTEST\tOBS_CT\tOR\tLOG(OR)_SE\tZ_STAT\tP\tERRCODE",
		"1\t10177\trs111\tA\tAC\tAC\tADD\t989\t1.02\t0.0231\t0.78\t0.433\t.",
		"2\t20301\trs222\tG\tT\tT\tADD\t989\t0.96\t0.0198\t-2.08\tNA\t.",
		"7\t91002\trs777\tC\tG\tG\tADD\t989\t1.07\t0.0101\t6.3\t3.4e-10\t.",
	}, "\n") + "\n"

	assocs, err := ReadGLM(writeTempFile(t, "scan.PHENO1.glm.logistic.hybrid", content))
	if err != nil {
		t.Fatalf("ReadGLM() error = %v", err)
	}
	// The NA p-value row is dropped.
	if len(assocs) != 2 {
		t.Fatalf("ReadGLM() returned %d rows, want 2", len(assocs))
	}
	if assocs[0].Chr != 1 || assocs[0].SNP != "rs111" || assocs[0].Pos != 10177 || assocs[0].P != 0.433 {
		t.Errorf("row 0 = %+v", assocs[0])
	}
	if assocs[1].P != 3.4e-10 {
		t.Errorf("row 1 P = %v", assocs[1].P)
	}
}

func TestReadGLMMissingColumn(t *testing.T) {
	content := "#CHROM\tPOS\tID\n1\t10\trs1\n"
	if _, err := ReadGLM(writeTempFile(t, "scan.glm", content)); err == nil {
		t.Error("ReadGLM() expected error for missing P column")
	}
}

func TestReadGLMTruncatedRow(t *testing.T) {
	content := strings.Join([]string{
		"#CHROM\tPOS\tID\tREF\tALT\tA1\tTEST\tOBS_CT\tOR\tLOG(OR)_SE\tZ_STAT\tP\tERRCODE",
		"1\t10177\trs111\tA\tAC\tAC\tADD\t989\t1.02\t0.0231\t0.78\t0.433\t.",
		"2\t20301\trs222",
	}, "\n") + "\n"

	if _, err := ReadGLM(writeTempFile(t, "scan.glm", content)); err == nil {
		t.Error("ReadGLM() expected error for truncated row")
	}
}

func TestReadCOJOHits(t *testing.T) {
	content := strings.Join([]string{
		"Chr\tSNP\tbp\trefA\tfreq\tb\tse\tp\tn\tfreq_geno\tbJ\tbJ_se\tpJ\tLD_r",
		"2\trs222\t20301\tG\t0.125\t-0.0412\t0.0198\t1.2e-09\t989\t0.13\t-0.041\t0.02\t1.5e-09\t0",
		"7\trs777\t91002\tC\t0.31\t0.0633\t0.0101\t3.4e-10\t989\t0.30\t0.064\t0.011\t4.1e-10\t0.01",
	}, "\n") + "\n"

	hits, err := ReadCOJOHits(writeTempFile(t, "run.jma.cojo", content))
	if err != nil {
		t.Fatalf("ReadCOJOHits() error = %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("ReadCOJOHits() returned %d hits, want 2", len(hits))
	}
	if hits[0].Chr != 2 || hits[0].SNP != "rs222" || hits[0].Pos != 20301 || hits[0].P != 1.2e-09 {
		t.Errorf("hit 0 = %+v", hits[0])
	}
}

func TestReadCOJOHitsTruncatedRow(t *testing.T) {
	content := strings.Join([]string{
		"Chr\tSNP\tbp\trefA\tfreq\tb\tse\tp\tn\tfreq_geno\tbJ\tbJ_se\tpJ\tLD_r",
		"2\trs222\t20301\tG\t0.125",
	}, "\n") + "\n"

	if _, err := ReadCOJOHits(writeTempFile(t, "run.jma.cojo", content)); err == nil {
		t.Error("ReadCOJOHits() expected error for truncated row")
	}
}

func TestGenomicInflation(t *testing.T) {
	// Uniformly spread p-values approximate the null: lambda near 1.
	n := 1001
	ps := make([]float64, n)
	for i := range ps {
		ps[i] = (float64(i) + 0.5) / float64(n)
	}

	lambda, err := GenomicInflation(ps)
	if err != nil {
		t.Fatalf("GenomicInflation() error = %v", err)
	}
	if math.Abs(lambda-1) > 0.01 {
		t.Errorf("GenomicInflation() = %v, want ~1 under the null", lambda)
	}
}

func TestGenomicInflationInflated(t *testing.T) {
	// Systematically small p-values must push lambda above 1.
	n := 1001
	ps := make([]float64, n)
	for i := range ps {
		ps[i] = ((float64(i) + 0.5) / float64(n)) / 10
	}

	lambda, err := GenomicInflation(ps)
	if err != nil {
		t.Fatalf("GenomicInflation() error = %v", err)
	}
	if lambda <= 1.5 {
		t.Errorf("GenomicInflation() = %v, want clearly above 1", lambda)
	}
}

func TestGenomicInflationEmpty(t *testing.T) {
	if _, err := GenomicInflation(nil); err == nil {
		t.Error("GenomicInflation() expected error for empty input")
	}
}

func TestInvNorm(t *testing.T) {
	tests := []struct {
		p    float64
		want float64
	}{
		{0.5, 0},
		{0.975, 1.959964},
		{0.025, -1.959964},
		{0.841344746, 1.0},
	}
	for _, tt := range tests {
		got := invNorm(tt.p)
		if math.Abs(got-tt.want) > 1e-4 {
			t.Errorf("invNorm(%v) = %v, want %v", tt.p, got, tt.want)
		}
	}
}
