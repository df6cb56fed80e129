package toolchain

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/cavaliergopher/grab/v3"
	"github.com/mholt/archives"
	"golang.org/x/sync/errgroup"
)

// Install downloads and extracts every pinned binary into binDir. The three
// fetches run concurrently; any failure aborts the install, matching the
// all-or-nothing behavior of the container build.
func Install(ctx context.Context, binDir string) error {
	if err := os.MkdirAll(binDir, 0755); err != nil {
		return fmt.Errorf("failed to create bin directory: %w", err)
	}

	cacheDir, err := os.MkdirTemp("", "gwaskit-toolchain-")
	if err != nil {
		return fmt.Errorf("failed to create download directory: %w", err)
	}
	defer os.RemoveAll(cacheDir)

	g, ctx := errgroup.WithContext(ctx)
	for _, bin := range Registry() {
		g.Go(func() error {
			return installOne(ctx, bin, cacheDir, binDir)
		})
	}
	return g.Wait()
}

func installOne(ctx context.Context, bin Binary, cacheDir, binDir string) error {
	log.Printf("Downloading %s v%s from %s", bin.Name, bin.Version, bin.URL)

	archiveDir := filepath.Join(cacheDir, bin.Name)
	if err := os.MkdirAll(archiveDir, 0755); err != nil {
		return fmt.Errorf("failed to create cache dir for %s: %w", bin.Name, err)
	}

	req, err := grab.NewRequest(archiveDir, bin.URL)
	if err != nil {
		return fmt.Errorf("bad download URL for %s: %w", bin.Name, err)
	}
	req = req.WithContext(ctx)

	resp := grab.DefaultClient.Do(req)
	if err := resp.Err(); err != nil {
		return fmt.Errorf("failed to download %s: %w", bin.Name, err)
	}
	log.Printf("✓ Downloaded %s (%d bytes)", bin.Name, resp.BytesComplete())

	extractDir := filepath.Join(archiveDir, "extracted")
	if err := extractArchive(ctx, resp.Filename, extractDir); err != nil {
		return fmt.Errorf("failed to extract %s archive: %w", bin.Name, err)
	}

	src := filepath.Join(extractDir, bin.ArchiveSubdir, bin.Name)
	dst := filepath.Join(binDir, bin.Name)
	if err := installExecutable(src, dst); err != nil {
		return fmt.Errorf("failed to install %s: %w", bin.Name, err)
	}

	log.Printf("✓ Installed %s v%s at %s", bin.Name, bin.Version, dst)
	return nil
}

// extractArchive unpacks a release archive into dir, preserving the archive's
// internal layout.
func extractArchive(ctx context.Context, archivePath, dir string) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer f.Close()

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create extraction dir: %w", err)
	}

	format, rdr, err := archives.Identify(ctx, archivePath, f)
	if err != nil {
		return fmt.Errorf("failed to identify archive format: %w", err)
	}

	archival, ok := format.(archives.Archival)
	if !ok {
		return fmt.Errorf("release file %s is not an archive", filepath.Base(archivePath))
	}

	return archival.Extract(ctx, rdr, func(ctx context.Context, info archives.FileInfo) error {
		// Reject names that would escape dir (zip-slip).
		name := filepath.Clean(filepath.FromSlash(info.NameInArchive))
		if name == "." {
			return nil
		}
		if !filepath.IsLocal(name) {
			return fmt.Errorf("archive entry %q escapes extraction directory", info.NameInArchive)
		}
		target := filepath.Join(dir, name)

		if info.IsDir() {
			return os.MkdirAll(target, 0755)
		}

		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return err
		}

		in, err := info.Open()
		if err != nil {
			return err
		}
		defer in.Close()

		out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
		if err != nil {
			return err
		}
		defer out.Close()

		_, err = io.Copy(out, in)
		return err
	})
}

// installExecutable copies the extracted binary into place and marks it
// executable.
func installExecutable(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("binary not found in archive: %w", err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0755)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	return out.Close()
}
