package archiveutil

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/go-logr/logr"
	"github.com/mholt/archives"
)

var ErrNotAnArchive = errors.New("content is not an archive")

// Extractor unpacks repository database archives
// in-process. Compression is detected from the content
// rather than the file name, as databases are usually
// published as "<repo>.db" symlinks.
type Extractor struct{}

// Extract expands data into dir.
func (Extractor) Extract(ctx context.Context, dir string, data []byte) error {
	log := logr.FromContextOrDiscard(ctx).WithValues("dir", dir)

	format, stream, err := archives.Identify(ctx, "", bytes.NewReader(data))
	if err != nil {
		log.Error(err, "failed to identify archive")
		return fmt.Errorf("identifying archive: %w", err)
	}
	log.V(4).Info("detected archive type", "type", format.Extension())

	ex, ok := format.(archives.Extractor)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotAnArchive, format.Extension())
	}
	if ca, ok := format.(archives.CompressedArchive); ok && ca.Extraction == nil {
		return fmt.Errorf("%w: %s", ErrNotAnArchive, format.Extension())
	}

	if err := ex.Extract(ctx, stream, extractTo(dir)); err != nil {
		return fmt.Errorf("extracting archive: %w", err)
	}
	return nil
}
