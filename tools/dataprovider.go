package tools

import (
	"io/fs"
)

// DataProvider abstracts access to the embedded data files so the tools can
// be tested without real embedded content.
//
// Implementations:
//   - embeddedDataProvider: embed.FS, the production provider
//   - MockDataProvider: in-memory map for tests
type DataProvider interface {
	// ReadFile reads the named file, relative to the data root
	// (e.g. "data/docs/searchindex.js").
	ReadFile(name string) ([]byte, error)

	// ReadDir lists the named directory, relative to the data root
	// (e.g. "data/docs/pages").
	ReadDir(name string) ([]fs.DirEntry, error)
}
