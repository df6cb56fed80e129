package sphinx_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ideal-genom/gwaskit/internal/sphinx"
)

const sampleIndexJS = `Search.setIndex({"docnames": ["index", "gwas_fixed", "gwas_random", "preps"], "filenames": ["index.rst", "gwas_fixed.rst", "gwas_random.rst", "preps.rst"], "titles": ["IDEAL-GENOM", "Fixed Effect Model", "Random Effect Model", "Preparatory Steps"], "terms": {"gwas": [0, 1, 2], "grm": 2, "pca": [2, 3], "prune": 3, "model": [1, 2]}, "titleterms": {"fixed": 1, "random": 2, "model": [1, 2], "preparatory": 3, "steps": 3}, "alltitles": {"Fixed Effect Model": [[1, null]], "Computing the GRM": [[2, "computing-the-grm"]], "LD Pruning": [[3, "ld-pruning"]]}, "indexentries": {}, "objects": {}, "objnames": {}, "objtypes": {}})`

func TestParseSetIndexWrapper(t *testing.T) {
	idx, err := sphinx.Parse([]byte(sampleIndexJS))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if got := idx.DocCount(); got != 4 {
		t.Errorf("DocCount() = %d, want 4", got)
	}
	if idx.Titles[1] != "Fixed Effect Model" {
		t.Errorf("Titles[1] = %q, want %q", idx.Titles[1], "Fixed Effect Model")
	}
	if err := idx.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestParseBareJSON(t *testing.T) {
	payload := strings.TrimSuffix(strings.TrimPrefix(sampleIndexJS, "Search.setIndex("), ")")

	idx, err := sphinx.Parse([]byte(payload))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got := idx.DocCount(); got != 4 {
		t.Errorf("DocCount() = %d, want 4", got)
	}
}

func TestParseTrailingSemicolon(t *testing.T) {
	idx, err := sphinx.Parse([]byte(sampleIndexJS + ";\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got := idx.DocCount(); got != 4 {
		t.Errorf("DocCount() = %d, want 4", got)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty input", ""},
		{"plain text", "not an index"},
		{"unterminated call", "Search.setIndex({\"docnames\": []}"},
		{"missing docnames", `{"titles": []}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := sphinx.Parse([]byte(tt.input)); err == nil {
				t.Errorf("Parse(%q) expected error, got nil", tt.input)
			}
		})
	}
}

func TestPostingsDecodeBothShapes(t *testing.T) {
	idx, err := sphinx.Parse([]byte(sampleIndexJS))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	tests := []struct {
		token string
		want  []int
	}{
		{"grm", []int{2}},       // bare integer form
		{"gwas", []int{0, 1, 2}}, // array form
	}

	for _, tt := range tests {
		got := idx.Terms[tt.token]
		if len(got) != len(tt.want) {
			t.Fatalf("Terms[%q] = %v, want %v", tt.token, got, tt.want)
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("Terms[%q][%d] = %d, want %d", tt.token, i, got[i], tt.want[i])
			}
		}
	}
}

func TestTitleEntryAnchors(t *testing.T) {
	idx, err := sphinx.Parse([]byte(sampleIndexJS))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	pageLevel := idx.AllTitles["Fixed Effect Model"]
	if len(pageLevel) != 1 || pageLevel[0].HasAnchor {
		t.Errorf("page-level heading should have a null anchor, got %+v", pageLevel)
	}

	section := idx.AllTitles["Computing the GRM"]
	if len(section) != 1 || !section[0].HasAnchor || section[0].Anchor != "computing-the-grm" {
		t.Errorf("section heading anchor = %+v, want computing-the-grm", section)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "searchindex.js")
	if err := os.WriteFile(path, []byte(sampleIndexJS), 0644); err != nil {
		t.Fatal(err)
	}

	idx, err := sphinx.Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := idx.DocCount(); got != 4 {
		t.Errorf("DocCount() = %d, want 4", got)
	}

	if _, err := sphinx.Load(filepath.Join(dir, "missing.js")); err == nil {
		t.Error("Load() of missing file expected error, got nil")
	}
}
