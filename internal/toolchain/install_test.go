package toolchain

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeZip builds a zip archive with the given name→content entries.
func writeZip(t *testing.T, path string, entries map[string]string) {
	t.Helper()

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	w := zip.NewWriter(f)
	for name, content := range entries {
		e, err := w.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := e.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestExtractArchive(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "release.zip")
	writeZip(t, archivePath, map[string]string{
		"gcta-1.94.1/gcta64":    "binary bytes",
		"gcta-1.94.1/README.md": "docs",
	})

	extractDir := filepath.Join(dir, "extracted")
	if err := extractArchive(context.Background(), archivePath, extractDir); err != nil {
		t.Fatalf("extractArchive() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(extractDir, "gcta-1.94.1", "gcta64"))
	if err != nil {
		t.Fatalf("extracted binary missing: %v", err)
	}
	if string(data) != "binary bytes" {
		t.Errorf("extracted content = %q", data)
	}
}

func TestExtractArchiveRejectsEscapingEntry(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "release.zip")
	writeZip(t, archivePath, map[string]string{
		"../escaped.txt": "outside",
	})

	extractDir := filepath.Join(dir, "out", "extracted")
	err := extractArchive(context.Background(), archivePath, extractDir)
	if err == nil {
		t.Fatal("extractArchive() accepted an entry escaping the extraction dir")
	}
	if !strings.Contains(err.Error(), "escapes") {
		t.Errorf("extractArchive() error = %v, want escaping-entry error", err)
	}
	if _, statErr := os.Stat(filepath.Join(dir, "out", "escaped.txt")); !os.IsNotExist(statErr) {
		t.Errorf("escaping entry was written outside the extraction dir: %v", statErr)
	}
}

func TestExtractArchiveRejectsAbsoluteEntry(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "release.zip")
	writeZip(t, archivePath, map[string]string{
		"/etc/evil": "outside",
	})

	extractDir := filepath.Join(dir, "extracted")
	if err := extractArchive(context.Background(), archivePath, extractDir); err == nil {
		t.Fatal("extractArchive() accepted an absolute entry name")
	}
}
