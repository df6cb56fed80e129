package sphinx_test

import (
	"reflect"
	"testing"

	"github.com/ideal-genom/gwaskit/internal/sphinx"
)

func newTestQuerier(t *testing.T) *sphinx.Querier {
	t.Helper()
	idx, err := sphinx.Parse([]byte(sampleIndexJS))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return sphinx.NewQuerier(idx)
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"Fixed Effect Model", []string{"fixed", "effect", "model"}},
		{"GRM", []string{"grm"}},
		{"ld-pruning, pca", []string{"ld", "pruning", "pca"}},
		{"  ", nil},
		{"--fastGWA-mlm-binary", []string{"fastgwa", "mlm", "binary"}},
	}

	for _, tt := range tests {
		got := sphinx.Tokenize(tt.input)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Tokenize(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestLookupSingleToken(t *testing.T) {
	q := newTestQuerier(t)

	hits := q.Lookup("pca")
	if len(hits) != 2 {
		t.Fatalf("Lookup(pca) returned %d hits, want 2", len(hits))
	}
	if hits[0].DocName != "gwas_random" || hits[1].DocName != "preps" {
		t.Errorf("Lookup(pca) docs = %s, %s; want gwas_random, preps", hits[0].DocName, hits[1].DocName)
	}
}

func TestLookupIntersectsTokens(t *testing.T) {
	q := newTestQuerier(t)

	// "gwas" is in docs 0,1,2 and "grm" only in doc 2.
	hits := q.Lookup("gwas grm")
	if len(hits) != 1 {
		t.Fatalf("Lookup(gwas grm) returned %d hits, want 1", len(hits))
	}
	if hits[0].DocName != "gwas_random" {
		t.Errorf("Lookup(gwas grm) doc = %s, want gwas_random", hits[0].DocName)
	}
}

func TestLookupTitleMatchRanksFirst(t *testing.T) {
	q := newTestQuerier(t)

	// "model" is a body term in docs 1,2 and a title term in docs 1,2;
	// all hits are title matches here, so check the boost flag instead
	// with a mixed query.
	hits := q.Lookup("model")
	if len(hits) != 2 {
		t.Fatalf("Lookup(model) returned %d hits, want 2", len(hits))
	}
	for _, h := range hits {
		if !h.TitleMatch {
			t.Errorf("hit %s expected TitleMatch", h.DocName)
		}
	}

	// "gwas" is never a title term, so no hit carries the boost.
	for _, h := range q.Lookup("gwas") {
		if h.TitleMatch {
			t.Errorf("hit %s unexpectedly marked TitleMatch", h.DocName)
		}
	}
}

func TestLookupTitleOnlyTokens(t *testing.T) {
	q := newTestQuerier(t)

	// "preparatory" appears only in titleterms; body lookup must still
	// locate the document.
	hits := q.Lookup("preparatory")
	if len(hits) != 1 || hits[0].DocName != "preps" {
		t.Fatalf("Lookup(preparatory) = %+v, want single preps hit", hits)
	}
	if !hits[0].TitleMatch {
		t.Error("title-only token should be a title match")
	}
}

func TestLookupMisses(t *testing.T) {
	q := newTestQuerier(t)

	tests := []string{"", "   ", "nonexistent", "gwas nonexistent"}
	for _, query := range tests {
		if hits := q.Lookup(query); hits != nil {
			t.Errorf("Lookup(%q) = %v, want nil", query, hits)
		}
	}
}

func TestSections(t *testing.T) {
	q := newTestQuerier(t)

	sections := q.Sections("grm")
	if len(sections) != 1 {
		t.Fatalf("Sections(grm) returned %d entries, want 1", len(sections))
	}
	s := sections[0]
	if s.Heading != "Computing the GRM" || s.DocName != "gwas_random" || s.Anchor != "computing-the-grm" {
		t.Errorf("Sections(grm)[0] = %+v", s)
	}

	if got := q.Sections("fixed effect"); len(got) != 1 || got[0].Anchor != "" {
		t.Errorf("Sections(fixed effect) = %+v, want page-level entry without anchor", got)
	}

	if got := q.Sections(""); got != nil {
		t.Errorf("Sections(empty) = %v, want nil", got)
	}
}
