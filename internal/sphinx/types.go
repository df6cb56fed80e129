package sphinx

import (
	"encoding/json"
	"fmt"
)

// Index mirrors the structure Sphinx emits into searchindex.js. The three
// header slices are parallel: the position of a document in DocNames is its
// canonical document id, used by every posting list and title entry.
//
// The structure is immutable after parsing. Sphinx regenerates it wholesale
// on every documentation build; nothing here supports incremental edits.
type Index struct {
	DocNames  []string `json:"docnames"`
	Filenames []string `json:"filenames"`
	Titles    []string `json:"titles"`

	// Terms maps a lowercased search token to the documents containing it.
	// TitleTerms is the subset of tokens appearing in page titles, used for
	// ranking boosts by the consuming search widget.
	Terms      map[string]Postings `json:"terms"`
	TitleTerms map[string]Postings `json:"titleterms"`

	// AllTitles locates every occurrence of a section heading.
	AllTitles map[string][]TitleEntry `json:"alltitles"`

	// API cross-reference tables. Empty in documentation-only builds but
	// still present in the generated output.
	IndexEntries map[string]json.RawMessage `json:"indexentries"`
	Objects      map[string]json.RawMessage `json:"objects"`
	ObjNames     map[string]json.RawMessage `json:"objnames"`
	ObjTypes     map[string]json.RawMessage `json:"objtypes"`
}

// Postings is the set of document ids a token appears in. Sphinx serializes
// a single-document posting as a bare integer and multi-document postings as
// an array, so decoding accepts both shapes.
type Postings []int

// UnmarshalJSON accepts either a bare integer or an array of integers.
func (p *Postings) UnmarshalJSON(data []byte) error {
	var single int
	if err := json.Unmarshal(data, &single); err == nil {
		*p = Postings{single}
		return nil
	}

	var many []int
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("posting is neither an integer nor an integer array: %s", string(data))
	}
	*p = Postings(many)
	return nil
}

// MarshalJSON preserves the generator's compact form: a bare integer for
// single-document postings.
func (p Postings) MarshalJSON() ([]byte, error) {
	if len(p) == 1 {
		return json.Marshal(p[0])
	}
	return json.Marshal([]int(p))
}

// TitleEntry is one [document-id, anchor-or-null] pair from alltitles.
// A null anchor means the heading is the page title itself.
type TitleEntry struct {
	Doc    int
	Anchor string
	// HasAnchor distinguishes an empty anchor string from the null the
	// generator writes for page-level headings.
	HasAnchor bool
}

// UnmarshalJSON decodes the two-element [int, string|null] array form.
func (e *TitleEntry) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("title entry is not an array: %w", err)
	}
	if len(raw) != 2 {
		return fmt.Errorf("title entry has %d elements, want 2", len(raw))
	}

	if err := json.Unmarshal(raw[0], &e.Doc); err != nil {
		return fmt.Errorf("title entry document id: %w", err)
	}

	if string(raw[1]) == "null" {
		e.Anchor = ""
		e.HasAnchor = false
		return nil
	}

	if err := json.Unmarshal(raw[1], &e.Anchor); err != nil {
		return fmt.Errorf("title entry anchor: %w", err)
	}
	e.HasAnchor = true
	return nil
}

// MarshalJSON writes the [int, string|null] array form back out.
func (e TitleEntry) MarshalJSON() ([]byte, error) {
	if !e.HasAnchor {
		return json.Marshal([2]interface{}{e.Doc, nil})
	}
	return json.Marshal([2]interface{}{e.Doc, e.Anchor})
}

// DocCount returns the number of documents in the index.
func (idx *Index) DocCount() int {
	return len(idx.DocNames)
}
