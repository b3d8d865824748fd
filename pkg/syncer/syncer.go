package syncer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/djcass44/pacsync/pkg/index"
	"github.com/djcass44/pacsync/pkg/pacmandb"
	"github.com/djcass44/pacsync/pkg/repository"
	"github.com/djcass44/pacsync/pkg/requestutil"
	"github.com/go-logr/logr"
)

const (
	FileLastModified = "last-modified"
	FileETag         = "etag"
)

// SyncError is returned when a repository database
// could not be refreshed.
type SyncError struct {
	Repository string
	URL        string
	Err        error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("syncing repository %s (%s): %s", e.Repository, e.URL, e.Err)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}

type Syncer struct {
	Client    *http.Client
	Extractor Extractor
}

// NewSyncer creates a Syncer. A nil extractor
// uses bsdtar.
func NewSyncer(client *http.Client, extractor Extractor) *Syncer {
	if extractor == nil {
		extractor = NewBsdtarExtractor()
	}
	return &Syncer{
		Client:    client,
		Extractor: extractor,
	}
}

// Sync refreshes the local copy of a repository database in dir.
//
// Validators from the previous successful sync are sent along
// with the request. If the server reports that nothing has changed,
// dir is left untouched and Sync returns false. Otherwise, dir is
// replaced with the contents of the new database.
func (s *Syncer) Sync(ctx context.Context, repo *repository.Repository, dir string) (bool, error) {
	target := repo.URL.String()
	log := logr.FromContextOrDiscard(ctx).WithValues("repo", repo.Name, "url", target)

	validators := Validators(ctx, dir)
	resp, err := requestutil.Fetch(ctx, s.Client, target, validators)
	if err != nil {
		log.Error(err, "failed to fetch repository database")
		return false, &SyncError{Repository: repo.Name, URL: target, Err: err}
	}
	if resp.NotModified {
		log.V(1).Info("repository database is up to date")
		return false, nil
	}
	log.V(1).Info("repository database has changed", "size", len(resp.Data))

	if err := os.RemoveAll(dir); err != nil {
		log.Error(err, "failed to remove previous database", "dir", dir)
		return false, &SyncError{Repository: repo.Name, URL: target, Err: err}
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Error(err, "failed to create database directory", "dir", dir)
		return false, &SyncError{Repository: repo.Name, URL: target, Err: err}
	}
	if err := s.Extractor.Extract(ctx, dir, resp.Data); err != nil {
		log.Error(err, "failed to extract repository database", "dir", dir)
		return false, &SyncError{Repository: repo.Name, URL: target, Err: err}
	}

	// validators that cannot be saved are logged,
	// not returned
	writeSidecar(ctx, filepath.Join(dir, FileLastModified), resp.Validators.LastModified)
	writeSidecar(ctx, filepath.Join(dir, FileETag), resp.Validators.ETag)

	return true, nil
}

// SyncAll synchronises each repository into its own directory
// under root and reads the resulting databases. Repositories
// are processed in the order given.
func (s *Syncer) SyncAll(ctx context.Context, repos []*repository.Repository, root string) ([]index.RepositoryPackages, error) {
	log := logr.FromContextOrDiscard(ctx)

	out := make([]index.RepositoryPackages, 0, len(repos))
	for i, repo := range repos {
		log.Info(fmt.Sprintf("[%d/%d] syncing repository", i+1, len(repos)), "repo", repo.Name)
		dir := filepath.Join(root, repo.Name)
		fresh, err := s.Sync(ctx, repo, dir)
		if err != nil {
			return nil, err
		}
		log.V(1).Info("synced repository", "repo", repo.Name, "fresh", fresh)

		packages, err := pacmandb.ReadDir(ctx, dir)
		if err != nil {
			log.Error(err, "failed to read repository database", "repo", repo.Name)
			return nil, err
		}
		log.Info("read repository database", "repo", repo.Name, "packages", len(packages))
		out = append(out, index.RepositoryPackages{
			Repository: repo,
			Packages:   packages,
		})
	}
	return out, nil
}

// Validators reads the validators saved by a
// previous sync of dir, exactly as they were stored.
// Missing files are treated as an absent validator.
func Validators(ctx context.Context, dir string) requestutil.Validators {
	return requestutil.Validators{
		LastModified: readSidecar(ctx, filepath.Join(dir, FileLastModified)),
		ETag:         readSidecar(ctx, filepath.Join(dir, FileETag)),
	}
}

func readSidecar(ctx context.Context, path string) string {
	log := logr.FromContextOrDiscard(ctx).WithValues("path", path)
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Error(err, "failed to read validator, ignoring")
		}
		return ""
	}
	return string(data)
}

func writeSidecar(ctx context.Context, path, value string) {
	log := logr.FromContextOrDiscard(ctx).WithValues("path", path)
	if value == "" {
		return
	}
	log.V(3).Info("saving validator", "value", value)
	if err := os.WriteFile(path, []byte(value), 0644); err != nil {
		log.Error(err, "failed to save validator")
	}
}
