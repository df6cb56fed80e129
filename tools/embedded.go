package tools

import (
	"embed"
	"io/fs"
)

// Embedded data files. The server works standalone: the Sphinx search index
// and the plain-text page exports ship inside the binary and the bleve index
// is built locally from them on first run.
//
// Embedded files:
// - Sphinx searchindex.js (documentation search index)
// - Plain-text page exports (chunked into the bleve index)
// - Pipeline step catalog

//go:embed data/docs/searchindex.js
//go:embed data/docs/pages/*
//go:embed data/catalog/steps.json
var embeddedFS embed.FS

// embeddedDataProvider is the production DataProvider backed by embed.FS.
type embeddedDataProvider struct {
	fs embed.FS
}

// NewEmbeddedDataProvider returns a DataProvider over the embedded files.
func NewEmbeddedDataProvider() DataProvider {
	return &embeddedDataProvider{fs: embeddedFS}
}

func (p *embeddedDataProvider) ReadFile(name string) ([]byte, error) {
	return p.fs.ReadFile(name)
}

func (p *embeddedDataProvider) ReadDir(name string) ([]fs.DirEntry, error) {
	return p.fs.ReadDir(name)
}

// Default provider used by package-level functions.
var defaultDataProvider DataProvider = NewEmbeddedDataProvider()
