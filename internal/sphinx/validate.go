package sphinx

import "fmt"

// Validate checks the structural invariants of a parsed index: the header
// slices must be parallel, and every document id referenced by a posting
// list or title entry must be a valid position into docnames.
func (idx *Index) Validate() error {
	n := len(idx.DocNames)

	if len(idx.Filenames) != n {
		return fmt.Errorf("filenames length %d does not match docnames length %d", len(idx.Filenames), n)
	}
	if len(idx.Titles) != n {
		return fmt.Errorf("titles length %d does not match docnames length %d", len(idx.Titles), n)
	}

	if err := validatePostings("terms", idx.Terms, n); err != nil {
		return err
	}
	if err := validatePostings("titleterms", idx.TitleTerms, n); err != nil {
		return err
	}

	for title, entries := range idx.AllTitles {
		for i, entry := range entries {
			if entry.Doc < 0 || entry.Doc >= n {
				return fmt.Errorf("alltitles[%q][%d] references document %d, valid range is [0,%d)", title, i, entry.Doc, n)
			}
		}
	}

	return nil
}

func validatePostings(field string, postings map[string]Postings, docCount int) error {
	for token, docs := range postings {
		if len(docs) == 0 {
			return fmt.Errorf("%s[%q] has an empty posting list", field, token)
		}
		for _, doc := range docs {
			if doc < 0 || doc >= docCount {
				return fmt.Errorf("%s[%q] references document %d, valid range is [0,%d)", field, token, doc, docCount)
			}
		}
	}
	return nil
}
