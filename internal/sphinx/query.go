package sphinx

import (
	"sort"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"
)

// Hit is one document matched by an exact-token lookup.
type Hit struct {
	Doc      int    `json:"doc"`
	DocName  string `json:"docname"`
	Title    string `json:"title"`
	Filename string `json:"filename"`
	// TitleMatch reports whether every query token appears in the page
	// title, the signal the search widget uses as a ranking boost.
	TitleMatch bool `json:"title_match"`
}

// Section is one occurrence of a heading located through alltitles.
type Section struct {
	Heading string `json:"heading"`
	Doc     int    `json:"doc"`
	DocName string `json:"docname"`
	Anchor  string `json:"anchor,omitempty"`
}

// Querier answers exact-token queries against a parsed index. Posting lists
// are compiled into roaring bitmaps once at construction; lookups only
// intersect bitmaps and never mutate state, so a Querier is safe for
// concurrent use.
type Querier struct {
	idx        *Index
	terms      map[string]*roaring.Bitmap
	titleTerms map[string]*roaring.Bitmap
}

// NewQuerier compiles the posting lists of idx into bitmap form.
func NewQuerier(idx *Index) *Querier {
	return &Querier{
		idx:        idx,
		terms:      compilePostings(idx.Terms),
		titleTerms: compilePostings(idx.TitleTerms),
	}
}

func compilePostings(postings map[string]Postings) map[string]*roaring.Bitmap {
	compiled := make(map[string]*roaring.Bitmap, len(postings))
	for token, docs := range postings {
		bm := roaring.New()
		for _, doc := range docs {
			bm.Add(uint32(doc))
		}
		compiled[token] = bm
	}
	return compiled
}

// Tokenize lowercases a query and splits it into the alphanumeric tokens the
// generator indexes. Matching is exact on those tokens: stemming and fuzzy
// matching belong to the consuming search layer, not to this structure.
func Tokenize(query string) []string {
	tokens := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9') && r != '_'
	})
	if len(tokens) == 0 {
		return nil
	}
	return tokens
}

// Lookup returns the documents containing every token of the query. Results
// where all tokens also appear in the page title sort first; ties break by
// document id for deterministic output. An empty query matches nothing.
func (q *Querier) Lookup(query string) []Hit {
	tokens := Tokenize(query)
	if len(tokens) == 0 {
		return nil
	}

	matched := q.intersect(tokens, false)
	if matched == nil || matched.IsEmpty() {
		return nil
	}

	titleMatched := q.intersect(tokens, true)

	hits := make([]Hit, 0, matched.GetCardinality())
	matched.Iterate(func(doc uint32) bool {
		hit := Hit{
			Doc:     int(doc),
			DocName: q.idx.DocNames[doc],
			Title:   q.idx.Titles[doc],
		}
		if int(doc) < len(q.idx.Filenames) {
			hit.Filename = q.idx.Filenames[doc]
		}
		if titleMatched != nil && titleMatched.Contains(doc) {
			hit.TitleMatch = true
		}
		hits = append(hits, hit)
		return true
	})

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].TitleMatch != hits[j].TitleMatch {
			return hits[i].TitleMatch
		}
		return hits[i].Doc < hits[j].Doc
	})

	return hits
}

// intersect ANDs the posting bitmaps of all tokens. With titleOnly set, only
// title-term postings count. Returns nil when any token has no postings.
func (q *Querier) intersect(tokens []string, titleOnly bool) *roaring.Bitmap {
	var result *roaring.Bitmap

	for _, token := range tokens {
		var bm *roaring.Bitmap
		if titleOnly {
			bm = q.titleTerms[token]
		} else {
			bm = q.terms[token]
			// Tokens that only occur in headings are absent from the body
			// term table but still locate their documents.
			if tb, ok := q.titleTerms[token]; ok {
				if bm == nil {
					bm = tb
				} else {
					bm = roaring.Or(bm, tb)
				}
			}
		}
		if bm == nil {
			return nil
		}

		if result == nil {
			result = bm.Clone()
		} else {
			result.And(bm)
		}
		if result.IsEmpty() {
			return result
		}
	}

	return result
}

// Sections returns every location of headings containing the query as a
// substring, case-insensitively.
func (q *Querier) Sections(query string) []Section {
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return nil
	}

	var sections []Section
	for heading, entries := range q.idx.AllTitles {
		if !strings.Contains(strings.ToLower(heading), needle) {
			continue
		}
		for _, entry := range entries {
			s := Section{
				Heading: heading,
				Doc:     entry.Doc,
				DocName: q.idx.DocNames[entry.Doc],
			}
			if entry.HasAnchor {
				s.Anchor = entry.Anchor
			}
			sections = append(sections, s)
		}
	}

	sort.Slice(sections, func(i, j int) bool {
		if sections[i].Doc != sections[j].Doc {
			return sections[i].Doc < sections[j].Doc
		}
		return sections[i].Heading < sections[j].Heading
	})

	return sections
}
