package tools

import (
	"testing"
)

func TestMockDataProviderReadFile(t *testing.T) {
	mock := NewMockDataProvider()
	mock.AddFile("data/docs/searchindex.js", []byte("Search.setIndex({})"))

	data, err := mock.ReadFile("data/docs/searchindex.js")
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if len(data) == 0 {
		t.Error("ReadFile() returned empty contents")
	}

	if _, err := mock.ReadFile("data/docs/missing.js"); err == nil {
		t.Error("ReadFile() expected error for missing file")
	}
}

func TestMockDataProviderReadDir(t *testing.T) {
	mock := NewMockDataProvider()
	mock.AddFile("data/docs/pages/index.txt", []byte("a"))
	mock.AddFile("data/docs/pages/preps.txt", []byte("b"))
	mock.AddFile("data/docs/searchindex.js", []byte("c"))

	entries, err := mock.ReadDir("data/docs/pages")
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("ReadDir() returned %d entries, want 2", len(entries))
	}

	entries, err = mock.ReadDir("data/docs")
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	// One file plus the pages subdirectory.
	foundDir := false
	for _, e := range entries {
		if e.Name() == "pages" && e.IsDir() {
			foundDir = true
		}
	}
	if len(entries) != 2 || !foundDir {
		t.Errorf("ReadDir() = %d entries (pages dir found: %v), want file + subdir", len(entries), foundDir)
	}

	if _, err := mock.ReadDir("data/nothing"); err == nil {
		t.Error("ReadDir() expected error for missing directory")
	}
}
