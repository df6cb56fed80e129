package gwas

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"sort"
)

// RelPos is one variant placed on the concatenated genome axis used by
// Manhattan-style plots.
type RelPos struct {
	Chr    int
	SNP    string
	RelPos int     // position plus the cumulative length of preceding chromosomes
	LogP   float64 // -log10(p)
}

// ChromCenter marks the midpoint of a chromosome on the concatenated axis,
// where plotting puts the chromosome tick label.
type ChromCenter struct {
	Chr    int
	Center float64
}

// ComputeRelativePositions lays variants out on a single concatenated axis:
// chromosomes sort ascending and each variant's position is offset by the
// total span of the chromosomes before it.
func ComputeRelativePositions(assocs []Assoc) []RelPos {
	if len(assocs) == 0 {
		return nil
	}

	byChr := make(map[int][]Assoc)
	var chrs []int
	for _, a := range assocs {
		if _, ok := byChr[a.Chr]; !ok {
			chrs = append(chrs, a.Chr)
		}
		byChr[a.Chr] = append(byChr[a.Chr], a)
	}
	sort.Ints(chrs)

	var out []RelPos
	offset := 0
	for _, chr := range chrs {
		group := byChr[chr]
		sort.Slice(group, func(i, j int) bool { return group[i].Pos < group[j].Pos })

		maxPos := 0
		for _, a := range group {
			logP := math.Inf(1)
			if a.P > 0 {
				logP = -math.Log10(a.P)
			}
			out = append(out, RelPos{
				Chr:    chr,
				SNP:    a.SNP,
				RelPos: a.Pos + offset,
				LogP:   logP,
			})
			if a.Pos > maxPos {
				maxPos = a.Pos
			}
		}
		offset += maxPos
	}

	return out
}

// ChromosomeCenters returns the tick position for each chromosome: the mean
// of its lowest and highest relative position.
func ChromosomeCenters(points []RelPos) []ChromCenter {
	type span struct{ min, max int }
	spans := make(map[int]*span)
	var chrs []int
	for _, p := range points {
		s, ok := spans[p.Chr]
		if !ok {
			spans[p.Chr] = &span{min: p.RelPos, max: p.RelPos}
			chrs = append(chrs, p.Chr)
			continue
		}
		if p.RelPos < s.min {
			s.min = p.RelPos
		}
		if p.RelPos > s.max {
			s.max = p.RelPos
		}
	}
	sort.Ints(chrs)

	centers := make([]ChromCenter, 0, len(chrs))
	for _, chr := range chrs {
		s := spans[chr]
		centers = append(centers, ChromCenter{Chr: chr, Center: float64(s.min+s.max) / 2})
	}
	return centers
}

// QQPoint pairs an expected null quantile with an observed one, both on the
// -log10 scale.
type QQPoint struct {
	Expected float64
	Observed float64
}

// QQPoints computes quantile-quantile points for a set of p-values: observed
// -log10(p) in ascending p order against the uniform expectation
// -log10((i+0.5)/n). Non-positive p-values are dropped.
func QQPoints(ps []float64) []QQPoint {
	clean := make([]float64, 0, len(ps))
	for _, p := range ps {
		if p > 0 && p <= 1 {
			clean = append(clean, p)
		}
	}
	if len(clean) == 0 {
		return nil
	}
	sort.Float64s(clean)

	n := float64(len(clean))
	points := make([]QQPoint, len(clean))
	for i, p := range clean {
		points[i] = QQPoint{
			Expected: -math.Log10((float64(i) + 0.5) / n),
			Observed: -math.Log10(p),
		}
	}
	return points
}

// WriteManhattanData writes the relative-position table (CHR, SNP, rel_pos,
// log10P) consumed by the plotting notebooks.
func WriteManhattanData(assocs []Assoc, path string) error {
	points := ComputeRelativePositions(assocs)
	if points == nil {
		return fmt.Errorf("no association results to lay out")
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create plot data file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintln(w, "CHR\tSNP\trel_pos\tlog10P")
	for _, p := range points {
		fmt.Fprintf(w, "%d\t%s\t%d\t%g\n", p.Chr, p.SNP, p.RelPos, p.LogP)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write plot data file: %w", err)
	}
	return nil
}

// WriteQQData writes the expected/observed quantile table.
func WriteQQData(ps []float64, path string) error {
	points := QQPoints(ps)
	if points == nil {
		return fmt.Errorf("no usable p-values")
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create QQ data file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintln(w, "expected\tobserved")
	for _, p := range points {
		fmt.Fprintf(w, "%g\t%g\n", p.Expected, p.Observed)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write QQ data file: %w", err)
	}
	return nil
}
