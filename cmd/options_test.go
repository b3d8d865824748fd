package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/djcass44/pacsync/pkg/archiveutil"
	"github.com/djcass44/pacsync/pkg/repository"
	"github.com/go-logr/logr"
	"github.com/go-logr/logr/testr"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `apiVersion: pacsync.dcas.dev/v1
kind: Mirror
metadata:
  name: core-mirror
spec:
  repositories:
    - url: https://mirror.example.org/extra/os/${arch}/extra.db
  packages:
    - linux
  packageDir: /srv/packages
`

func newTestCommand(t *testing.T, args ...string) *cobra.Command {
	cmd := &cobra.Command{Use: "test"}
	addSourceFlags(cmd.Flags())
	require.NoError(t, cmd.Flags().Parse(args))
	cmd.SetContext(logr.NewContext(context.TODO(), testr.NewWithOptions(t, testr.Options{Verbosity: 10})))
	return cmd
}

func TestSourceOptions(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "mirror.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(testConfig), 0644))
	dbFile := filepath.Join(dir, "repos.txt")
	require.NoError(t, os.WriteFile(dbFile, []byte("# mirrors\nhttps://mirror.example.org/community/os/${arch}/community.db\n"), 0644))

	t.Run("sources are merged in order", func(t *testing.T) {
		cmd := newTestCommand(t,
			"--config", configPath,
			"--db-url", "https://mirror.example.org/core/os/${arch}/core.db",
			"--db-file", dbFile,
			"--pkg", "base",
			"--arch", "aarch64",
			"--extractor", "native",
		)
		opts, cfg, err := sourceOptions(cmd)
		require.NoError(t, err)
		require.NotNil(t, cfg)
		assert.EqualValues(t, "core-mirror", cfg.Name)

		var names []string
		for _, r := range opts.Repositories {
			names = append(names, r.Name)
		}
		assert.EqualValues(t, []string{"core.db", "community.db", "extra.db"}, names)
		assert.EqualValues(t, "/core/os/aarch64/core.db", opts.Repositories[0].URL.Path)
		assert.EqualValues(t, []string{"base", "linux"}, opts.Targets)
		assert.EqualValues(t, "/srv/packages", opts.PackageDir)
		assert.EqualValues(t, "db", opts.DatabaseDir)
		assert.IsType(t, archiveutil.Extractor{}, opts.Extractor)
		assert.EqualValues(t, defaultTimeout, opts.Client.Timeout)
	})
	t.Run("flags take precedence over the config", func(t *testing.T) {
		cmd := newTestCommand(t, "--config", configPath, "--pkg-dir", "out")
		opts, _, err := sourceOptions(cmd)
		require.NoError(t, err)
		assert.EqualValues(t, "out", opts.PackageDir)
	})
	t.Run("duplicate repositories", func(t *testing.T) {
		cmd := newTestCommand(t, "--config", configPath, "--db-url", "https://other.example.org/extra/os/x86_64/extra.db")
		_, _, err := sourceOptions(cmd)
		var cfgErr *repository.ConfigError
		assert.ErrorAs(t, err, &cfgErr)
	})
	t.Run("unknown extractor", func(t *testing.T) {
		cmd := newTestCommand(t, "--extractor", "unzip")
		_, _, err := sourceOptions(cmd)
		assert.Error(t, err)
	})
}

func TestReadConfig(t *testing.T) {
	dir := t.TempDir()

	t.Run("wrong kind", func(t *testing.T) {
		path := filepath.Join(dir, "build.yaml")
		require.NoError(t, os.WriteFile(path, []byte("apiVersion: pacsync.dcas.dev/v1\nkind: Build\n"), 0644))
		_, err := readConfig(path)
		assert.Error(t, err)
	})
	t.Run("json", func(t *testing.T) {
		path := filepath.Join(dir, "mirror.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"apiVersion": "pacsync.dcas.dev/v1", "kind": "Mirror", "spec": {"packages": ["bash"]}}`), 0644))
		cfg, err := readConfig(path)
		require.NoError(t, err)
		assert.EqualValues(t, []string{"bash"}, cfg.Spec.Packages)
	})
}

func TestBindEnv(t *testing.T) {
	t.Setenv("PACSYNC_PKG_DIR", "/var/cache/packages")
	t.Setenv("PACSYNC_DB_DIR", "/var/lib/db")

	cmd := newTestCommand(t, "--db-dir", "db")
	require.NoError(t, bindEnv(cmd))

	pkgDir, _ := cmd.Flags().GetString(flagPkgDir)
	assert.EqualValues(t, "/var/cache/packages", pkgDir)

	// explicit flags win
	dbDir, _ := cmd.Flags().GetString(flagDBDir)
	assert.EqualValues(t, "db", dbDir)
}
