package tools

import (
	"io/fs"
	"path"
	"strings"
	"time"
)

// MockDataProvider implements DataProvider over an in-memory map, for tests
// that must not depend on real embedded content.
type MockDataProvider struct {
	files map[string][]byte
}

// NewMockDataProvider returns an empty mock provider.
func NewMockDataProvider() *MockDataProvider {
	return &MockDataProvider{files: make(map[string][]byte)}
}

// AddFile adds a file to the mock provider.
func (m *MockDataProvider) AddFile(name string, content []byte) {
	m.files[name] = content
}

// ReadFile reads a file from the mock storage.
func (m *MockDataProvider) ReadFile(name string) ([]byte, error) {
	content, ok := m.files[name]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return content, nil
}

// ReadDir lists direct children of the named directory: files stored in it
// plus one entry per immediate subdirectory.
func (m *MockDataProvider) ReadDir(name string) ([]fs.DirEntry, error) {
	var entries []fs.DirEntry
	seen := make(map[string]bool)

	prefix := name + "/"
	for filePath := range m.files {
		if path.Dir(filePath) == name {
			base := path.Base(filePath)
			if !seen[base] {
				entries = append(entries, &mockDirEntry{name: base})
				seen[base] = true
			}
			continue
		}
		if strings.HasPrefix(filePath, prefix) {
			rest := strings.TrimPrefix(filePath, prefix)
			if i := strings.IndexByte(rest, '/'); i > 0 {
				sub := rest[:i]
				if !seen[sub] {
					entries = append(entries, &mockDirEntry{name: sub, isDir: true})
					seen[sub] = true
				}
			}
		}
	}

	if len(entries) == 0 {
		return nil, fs.ErrNotExist
	}
	return entries, nil
}

type mockDirEntry struct {
	name  string
	isDir bool
}

func (e *mockDirEntry) Name() string { return e.name }
func (e *mockDirEntry) IsDir() bool  { return e.isDir }

func (e *mockDirEntry) Type() fs.FileMode {
	if e.isDir {
		return fs.ModeDir
	}
	return 0
}

func (e *mockDirEntry) Info() (fs.FileInfo, error) {
	return &mockFileInfo{name: e.name, isDir: e.isDir}, nil
}

type mockFileInfo struct {
	name  string
	isDir bool
}

func (i *mockFileInfo) Name() string       { return i.name }
func (i *mockFileInfo) Size() int64        { return 0 }
func (i *mockFileInfo) Mode() fs.FileMode  { return 0 }
func (i *mockFileInfo) ModTime() time.Time { return time.Time{} }
func (i *mockFileInfo) IsDir() bool        { return i.isDir }
func (i *mockFileInfo) Sys() interface{}   { return nil }

// SetDefaultDataProvider injects a provider, for tests.
func SetDefaultDataProvider(provider DataProvider) {
	defaultDataProvider = provider
}

// ResetDefaultDataProvider restores the embedded provider.
func ResetDefaultDataProvider() {
	defaultDataProvider = NewEmbeddedDataProvider()
}
