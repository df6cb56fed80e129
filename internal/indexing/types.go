package indexing

// DocChunk represents one searchable slice of a documentation page.
type DocChunk struct {
	ID         string   `json:"id"`
	Doc        int      `json:"doc"`                   // document id in the Sphinx search index
	DocName    string   `json:"docname"`               // e.g. "gwas_random"
	Page       string   `json:"page"`                  // page title, e.g. "Random Effect Model"
	Section    string   `json:"section"`               // heading within the page
	Content    string   `json:"content"`
	URL        string   `json:"url,omitempty"`
	Breadcrumb string   `json:"breadcrumb,omitempty"`  // "Page > Section"
	Keywords   []string `json:"keywords,omitempty"`
	TokenCount int      `json:"token_count,omitempty"` // estimated, for monitoring
}
