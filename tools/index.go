package tools

import "github.com/blevesearch/bleve/v2"

// Index abstracts the bleve.Index operations the search tools need, so tests
// can substitute a mock.
type Index interface {
	Search(req *bleve.SearchRequest) (*bleve.SearchResult, error)
	DocCount() (uint64, error)
	Close() error
}

type bleveIndexWrapper struct {
	index bleve.Index
}

// NewBleveIndexWrapper adapts a bleve.Index to the Index interface.
func NewBleveIndexWrapper(index bleve.Index) Index {
	return &bleveIndexWrapper{index: index}
}

func (w *bleveIndexWrapper) Search(req *bleve.SearchRequest) (*bleve.SearchResult, error) {
	return w.index.Search(req)
}

func (w *bleveIndexWrapper) DocCount() (uint64, error) {
	return w.index.DocCount()
}

func (w *bleveIndexWrapper) Close() error {
	return w.index.Close()
}
