package syncer

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/djcass44/pacsync/pkg/archiveutil"
	"github.com/djcass44/pacsync/pkg/pacmandb"
	"github.com/djcass44/pacsync/pkg/repository"
	"github.com/djcass44/pacsync/pkg/version"
	"github.com/go-logr/logr"
	"github.com/go-logr/logr/testr"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingExtractor struct {
	calls int
	err   error
}

func (c *countingExtractor) Extract(ctx context.Context, dir string, data []byte) error {
	c.calls++
	if c.err != nil {
		return c.err
	}
	return archiveutil.Extractor{}.Extract(ctx, dir, data)
}

func newDatabase(t *testing.T, packages ...*pacmandb.Package) []byte {
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	require.NoError(t, pacmandb.WriteArchive(context.TODO(), gw, packages))
	require.NoError(t, gw.Close())
	return buf.Bytes()
}

func newServer(t *testing.T, data []byte, etag, lastModified string) *httptest.Server {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/core/core.db" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if (etag != "" && r.Header.Get("If-None-Match") == etag) || (lastModified != "" && r.Header.Get("If-Modified-Since") == lastModified) {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		if etag != "" {
			w.Header().Set("ETag", etag)
		}
		if lastModified != "" {
			w.Header().Set("Last-Modified", lastModified)
		}
		_, _ = w.Write(data)
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestSyncer_Sync(t *testing.T) {
	ctx := logr.NewContext(context.TODO(), testr.NewWithOptions(t, testr.Options{Verbosity: 10}))

	db := newDatabase(t, &pacmandb.Package{
		Name:     "bash",
		Version:  version.New(0, "5.2.026", "2"),
		Filename: "bash-5.2.026-2-x86_64.pkg.tar.zst",
	})

	t.Run("fresh download writes validators", func(t *testing.T) {
		ts := newServer(t, db, `"abc"`, "Mon, 02 Jan 2006 15:04:05 GMT")
		repo, err := repository.Parse(ts.URL + "/core/core.db")
		require.NoError(t, err)

		dir := filepath.Join(t.TempDir(), repo.Name)
		ex := &countingExtractor{}
		fresh, err := NewSyncer(ts.Client(), ex).Sync(ctx, repo, dir)
		require.NoError(t, err)
		assert.True(t, fresh)
		assert.EqualValues(t, 1, ex.calls)

		v := Validators(ctx, dir)
		assert.EqualValues(t, `"abc"`, v.ETag)
		assert.EqualValues(t, "Mon, 02 Jan 2006 15:04:05 GMT", v.LastModified)
		assert.FileExists(t, filepath.Join(dir, "bash-5.2.026-2", pacmandb.FileDesc))
	})
	t.Run("not modified reuses existing database", func(t *testing.T) {
		ts := newServer(t, db, `"abc"`, "")
		repo, err := repository.Parse(ts.URL + "/core/core.db")
		require.NoError(t, err)

		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, FileETag), []byte(`"abc"`), 0644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "marker"), []byte("x"), 0644))

		ex := &countingExtractor{}
		fresh, err := NewSyncer(ts.Client(), ex).Sync(ctx, repo, dir)
		require.NoError(t, err)
		assert.False(t, fresh)
		assert.Zero(t, ex.calls)
		assert.FileExists(t, filepath.Join(dir, "marker"))
	})
	t.Run("changed database replaces directory", func(t *testing.T) {
		ts := newServer(t, db, "", "")
		repo, err := repository.Parse(ts.URL + "/core/core.db")
		require.NoError(t, err)

		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, FileETag), []byte(`"old"`), 0644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, FileLastModified), []byte("yesterday"), 0644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "marker"), []byte("x"), 0644))

		fresh, err := NewSyncer(ts.Client(), &countingExtractor{}).Sync(ctx, repo, dir)
		require.NoError(t, err)
		assert.True(t, fresh)
		assert.NoFileExists(t, filepath.Join(dir, "marker"))
		// the server did not send any validators
		assert.NoFileExists(t, filepath.Join(dir, FileETag))
		assert.NoFileExists(t, filepath.Join(dir, FileLastModified))
	})
	t.Run("http error", func(t *testing.T) {
		ts := newServer(t, db, "", "")
		repo, err := repository.Parse(ts.URL + "/extra/extra.db")
		require.NoError(t, err)

		_, err = NewSyncer(ts.Client(), &countingExtractor{}).Sync(ctx, repo, t.TempDir())
		var syncErr *SyncError
		require.ErrorAs(t, err, &syncErr)
		assert.EqualValues(t, "extra.db", syncErr.Repository)
	})
	t.Run("extractor error", func(t *testing.T) {
		ts := newServer(t, db, `"abc"`, "")
		repo, err := repository.Parse(ts.URL + "/core/core.db")
		require.NoError(t, err)

		dir := t.TempDir()
		cause := errors.New("boom")
		_, err = NewSyncer(ts.Client(), &countingExtractor{err: cause}).Sync(ctx, repo, dir)
		var syncErr *SyncError
		require.ErrorAs(t, err, &syncErr)
		assert.ErrorIs(t, err, cause)
		assert.NoFileExists(t, filepath.Join(dir, FileETag))
	})
}

func TestValidators(t *testing.T) {
	ctx := logr.NewContext(context.TODO(), testr.NewWithOptions(t, testr.Options{Verbosity: 10}))

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileETag), []byte(` W/"abc" `), 0644))

	v := Validators(ctx, dir)
	assert.EqualValues(t, ` W/"abc" `, v.ETag)
	assert.Empty(t, v.LastModified)
}

func TestSyncer_SyncAll(t *testing.T) {
	ctx := logr.NewContext(context.TODO(), testr.NewWithOptions(t, testr.Options{Verbosity: 10}))

	db := newDatabase(t,
		&pacmandb.Package{Name: "glibc", Version: version.New(0, "2.39", "1"), Filename: "glibc-2.39-1-x86_64.pkg.tar.zst"},
		&pacmandb.Package{
			Name:     "bash",
			Version:  version.New(0, "5.2.026", "2"),
			Filename: "bash-5.2.026-2-x86_64.pkg.tar.zst",
			Depends:  []pacmandb.Dependency{{Name: "glibc"}},
			Provides: []pacmandb.Provide{{Name: "sh"}},
		},
	)
	ts := newServer(t, db, `"abc"`, "")
	repos, err := repository.ParseURLs([]string{ts.URL + "/core/core.db"})
	require.NoError(t, err)

	root := t.TempDir()
	s := NewSyncer(ts.Client(), archiveutil.Extractor{})

	out, err := s.SyncAll(ctx, repos, root)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Same(t, repos[0], out[0].Repository)
	assert.Len(t, out[0].Packages, 2)

	// second pass is served from the local copy
	out, err = s.SyncAll(ctx, repos, root)
	require.NoError(t, err)
	assert.Len(t, out[0].Packages, 2)

	t.Run("first failure aborts", func(t *testing.T) {
		repos, err := repository.ParseURLs([]string{ts.URL + "/missing/missing.db", ts.URL + "/core/core.db"})
		require.NoError(t, err)
		_, err = s.SyncAll(ctx, repos, t.TempDir())
		assert.Error(t, err)
	})
}

func TestCommandExtractor_Extract(t *testing.T) {
	ctx := logr.NewContext(context.TODO(), testr.NewWithOptions(t, testr.Options{Verbosity: 10}))

	t.Run("missing binary", func(t *testing.T) {
		ex := &CommandExtractor{Name: "this-command-does-not-exist"}
		err := ex.Extract(ctx, t.TempDir(), []byte("data"))
		assert.Error(t, err)
	})
}
