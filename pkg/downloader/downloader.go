package downloader

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/djcass44/pacsync/pkg/index"
	"github.com/djcass44/pacsync/pkg/pacmandb"
	"github.com/djcass44/pacsync/pkg/repository"
	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"github.com/hashicorp/go-getter"
)

var ErrMissingMetadata = errors.New("package is missing download metadata")

// DownloadError is returned when a package archive
// could not be downloaded.
type DownloadError struct {
	Package string
	URL     string
	Err     error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("downloading package %s (%s): %s", e.Package, e.URL, e.Err)
}

func (e *DownloadError) Unwrap() error {
	return e.Err
}

type Downloader struct {
	dir    string
	client *http.Client
}

// NewDownloader creates a Downloader that stores
// package archives in dir. A nil client uses
// http.DefaultClient.
func NewDownloader(dir string, client *http.Client) (*Downloader, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Downloader{dir: dir, client: client}, nil
}

// Path returns the location of a package archive
// on disk.
func (d *Downloader) Path(pkg *pacmandb.Package) string {
	return filepath.Join(d.dir, pkg.Filename)
}

// FetchIfNeeded makes sure that the package archive exists
// on disk with the expected size and checksum, downloading
// it when it does not. It returns true if a download
// occurred.
func (d *Downloader) FetchIfNeeded(ctx context.Context, repo *repository.Repository, pkg *pacmandb.Package) (bool, error) {
	log := logr.FromContextOrDiscard(ctx).WithValues("pkg", pkg.Name, "repo", repo.Name)

	src := repo.PackageURL(pkg.Filename)
	// a package archive is never empty, so a zero size
	// means CSIZE was absent from the database
	if pkg.Filename == "" || pkg.SHA256 == "" || pkg.CompressedSize == 0 {
		return false, &DownloadError{Package: pkg.Name, URL: src.String(), Err: ErrMissingMetadata}
	}

	dst := d.Path(pkg)
	ok, err := d.verify(ctx, dst, pkg)
	if err != nil {
		return false, &DownloadError{Package: pkg.Name, URL: src.String(), Err: err}
	}
	if ok {
		log.V(1).Info("package is already downloaded", "path", dst)
		return false, nil
	}

	if err := d.download(ctx, src, dst, pkg); err != nil {
		return false, &DownloadError{Package: pkg.Name, URL: src.String(), Err: err}
	}
	return true, nil
}

// FetchAll downloads each of the named packages in turn and
// returns the entries that had to be downloaded.
func (d *Downloader) FetchAll(ctx context.Context, selection []string, idx *index.Index) ([]index.Entry, error) {
	log := logr.FromContextOrDiscard(ctx)

	var downloaded []index.Entry
	for i, name := range selection {
		entry, ok := idx.Get(name)
		if !ok {
			return nil, &DownloadError{Package: name, Err: fmt.Errorf("package not found in index")}
		}
		log.Info(fmt.Sprintf("[%d/%d] checking package", i+1, len(selection)), "pkg", name, "file", entry.Package.Filename)
		ok, err := d.FetchIfNeeded(ctx, entry.Repository, entry.Package)
		if err != nil {
			log.Error(err, "failed to fetch package", "pkg", name)
			return nil, err
		}
		if ok {
			downloaded = append(downloaded, entry)
		}
	}
	log.Info("downloaded packages", "count", len(downloaded), "total", len(selection))
	return downloaded, nil
}

// verify checks whether dst matches the recorded size and
// checksum. A missing file is not an error.
func (d *Downloader) verify(ctx context.Context, dst string, pkg *pacmandb.Package) (bool, error) {
	log := logr.FromContextOrDiscard(ctx).WithValues("path", dst)

	info, err := os.Stat(dst)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.V(2).Info("package has not been downloaded")
			return false, nil
		}
		return false, err
	}
	if uint64(info.Size()) != pkg.CompressedSize {
		log.Info("warning: package size mismatch, downloading again", "expected", pkg.CompressedSize, "actual", info.Size())
		return false, nil
	}
	digest, err := Sha256(dst)
	if err != nil {
		log.Error(err, "failed to generate file checksum")
		return false, err
	}
	if !strings.EqualFold(digest, pkg.SHA256) {
		log.Info("warning: package checksum mismatch, downloading again", "expected", pkg.SHA256, "actual", digest)
		return false, nil
	}
	return true, nil
}

func (d *Downloader) download(ctx context.Context, src *url.URL, dst string, pkg *pacmandb.Package) error {
	log := logr.FromContextOrDiscard(ctx)
	log.Info("downloading file", "src", src.String())

	// download to a unique name so that go-getter never
	// tries to resume from a stale file
	tmp := filepath.Join(filepath.Dir(dst), fmt.Sprintf(".%s.%s.part", pkg.Filename, uuid.NewString()))
	log.V(1).Info("preparing to download file", "dst", dst, "tmp", tmp)

	// disable archive handling and have the checksum
	// validated as part of the download
	uri := *src
	q := uri.Query()
	q.Set("archive", "false")
	q.Set("checksum", "sha256:"+strings.ToLower(pkg.SHA256))
	uri.RawQuery = q.Encode()

	httpGetter := &getter.HttpGetter{Client: d.client}
	client := &getter.Client{
		Ctx:  ctx,
		Src:  uri.String(),
		Dst:  tmp,
		Mode: getter.ClientModeFile,
		Getters: map[string]getter.Getter{
			"http":  httpGetter,
			"https": httpGetter,
		},
		DisableSymlinks: true,
	}
	if err := client.Get(); err != nil {
		log.Error(err, "failed to download file")
		_ = os.Remove(tmp)
		return err
	}
	// we need to chmod the files so that the root group
	// can access them as if they were the owner
	if err := os.Chmod(tmp, 0664); err != nil {
		log.Error(err, "failed to update file permissions", "file", tmp)
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, dst); err != nil {
		log.Error(err, "failed to move file into place", "file", dst)
		_ = os.Remove(tmp)
		return err
	}
	return nil
}
