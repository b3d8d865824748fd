package archiveutil

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-logr/logr"
	"github.com/mholt/archives"
)

// Untar expands an uncompressed tar archive into
// the given path.
func Untar(ctx context.Context, r io.Reader, path string) error {
	return archives.Tar{}.Extract(ctx, r, extractTo(path))
}

// extractTo returns a handler that writes archive entries
// below path.
//
// Entries that would land outside of path are rejected.
// Only directories and regular files are created, links
// of any kind are skipped.
func extractTo(path string) archives.FileHandler {
	return func(ctx context.Context, info archives.FileInfo) error {
		log := logr.FromContextOrDiscard(ctx).WithValues("path", path, "name", info.NameInArchive)

		target, err := safeJoin(path, info.NameInArchive)
		if err != nil {
			log.Error(err, "refusing to extract file")
			return err
		}

		switch {
		case info.LinkTarget != "" || info.Mode()&os.ModeSymlink != 0:
			log.V(5).Info("skipping link", "link", info.LinkTarget)
			return nil
		case info.IsDir():
			log.V(5).Info("creating directory", "target", target)
			if err := os.MkdirAll(target, 0755); err != nil {
				log.Error(err, "failed to create directory", "target", target)
				return err
			}
			return nil
		case info.Mode().IsRegular():
			return writeFile(ctx, target, info)
		default:
			log.V(5).Info("skipping unsupported entry", "mode", info.Mode().String())
			return nil
		}
	}
}

func writeFile(ctx context.Context, target string, info archives.FileInfo) error {
	log := logr.FromContextOrDiscard(ctx).WithValues("target", target)
	log.V(5).Info("creating file", "mode", info.Mode())

	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		log.Error(err, "failed to create parent directory")
		return err
	}
	src, err := info.Open()
	if err != nil {
		log.Error(err, "failed to open file in archive")
		return err
	}
	defer src.Close()

	f, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, info.Mode().Perm()|0200)
	if err != nil {
		log.Error(err, "failed to open file")
		return err
	}
	if _, err := io.Copy(f, src); err != nil {
		log.Error(err, "failed to extract file")
		_ = f.Close()
		return err
	}
	return f.Close()
}

func safeJoin(root, name string) (string, error) {
	target := filepath.Join(root, filepath.FromSlash(name))
	rel, err := filepath.Rel(root, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid archive path %q", name)
	}
	return target, nil
}
