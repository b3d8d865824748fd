package cmd

import (
	"fmt"
	"net/http"
	"time"

	"github.com/djcass44/pacsync/internal/pipeline"
	"github.com/djcass44/pacsync/pkg/airutil"
	pacv1 "github.com/djcass44/pacsync/pkg/api/v1"
	"github.com/djcass44/pacsync/pkg/archiveutil"
	"github.com/djcass44/pacsync/pkg/repository"
	"github.com/djcass44/pacsync/pkg/syncer"
	"github.com/go-logr/logr"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const (
	flagConfig    = "config"
	flagPkg       = "pkg"
	flagPkgFile   = "pkg-file"
	flagAll       = "all"
	flagDBURL     = "db-url"
	flagDBFile    = "db-file"
	flagPkgDir    = "pkg-dir"
	flagDBDir     = "db-dir"
	flagNoDeps    = "no-deps"
	flagArch      = "arch"
	flagExtractor = "extractor"
	flagTimeout   = "timeout"
)

const defaultTimeout = 5 * time.Minute

const (
	extractorBsdtar = "bsdtar"
	extractorNative = "native"
)

// addSourceFlags registers the flags needed to sync
// repositories and select packages.
func addSourceFlags(fs *pflag.FlagSet) {
	fs.StringP(flagConfig, "c", "", "path to a mirror configuration file")
	fs.StringArrayP(flagPkg, "p", nil, "package to download. May be given multiple times")
	fs.StringArray(flagPkgFile, nil, "file containing packages to download, one per line")
	fs.Bool(flagAll, false, "download all packages")
	fs.StringArrayP(flagDBURL, "d", nil, "url of a repository database. Repositories are used in the order given")
	fs.StringArray(flagDBFile, nil, "file containing repository database urls, one per line")
	fs.String(flagPkgDir, "packages", "directory to store package archives in")
	fs.String(flagDBDir, "db", "directory to store repository databases in")
	fs.Bool(flagNoDeps, false, "do not download dependencies")
	fs.String(flagArch, "x86_64", "architecture used to expand ${arch} in repository urls")
	fs.String(flagExtractor, extractorBsdtar, "how repository databases are extracted (bsdtar, native)")
	fs.Duration(flagTimeout, defaultTimeout, "timeout of each http request")
}

// sourceOptions merges the command line, the environment and
// the optional configuration file into pipeline options.
func sourceOptions(cmd *cobra.Command) (pipeline.Options, *pacv1.Mirror, error) {
	log := logr.FromContextOrDiscard(cmd.Context())
	flags := cmd.Flags()

	configPath, _ := flags.GetString(flagConfig)
	pkgs, _ := flags.GetStringArray(flagPkg)
	pkgFiles, _ := flags.GetStringArray(flagPkgFile)
	all, _ := flags.GetBool(flagAll)
	dbURLs, _ := flags.GetStringArray(flagDBURL)
	dbFiles, _ := flags.GetStringArray(flagDBFile)
	pkgDir, _ := flags.GetString(flagPkgDir)
	dbDir, _ := flags.GetString(flagDBDir)
	noDeps, _ := flags.GetBool(flagNoDeps)
	arch, _ := flags.GetString(flagArch)
	extractorName, _ := flags.GetString(flagExtractor)
	timeout, _ := flags.GetDuration(flagTimeout)

	targets, err := airutil.ReadLines(pkgs, pkgFiles...)
	if err != nil {
		return pipeline.Options{}, nil, err
	}
	urls, err := airutil.ReadLines(dbURLs, dbFiles...)
	if err != nil {
		return pipeline.Options{}, nil, err
	}

	var cfg *pacv1.Mirror
	if configPath != "" {
		log.V(1).Info("reading configuration file", "path", configPath)
		c, err := readConfig(configPath)
		if err != nil {
			return pipeline.Options{}, nil, err
		}
		cfg = &c
		for _, r := range cfg.Spec.Repositories {
			urls = append(urls, r.URL)
		}
		targets = append(targets, cfg.Spec.Packages...)
		if cfg.Spec.PackageDir != "" && !flags.Changed(flagPkgDir) {
			pkgDir = cfg.Spec.PackageDir
		}
		if cfg.Spec.DatabaseDir != "" && !flags.Changed(flagDBDir) {
			dbDir = cfg.Spec.DatabaseDir
		}
	}

	vars := map[string]string{"arch": arch}
	for i, u := range urls {
		urls[i], err = airutil.Expand(u, vars)
		if err != nil {
			return pipeline.Options{}, nil, &repository.ConfigError{URL: u, Err: err}
		}
	}
	repos, err := repository.ParseURLs(urls)
	if err != nil {
		return pipeline.Options{}, nil, err
	}

	var extractor syncer.Extractor
	switch extractorName {
	case extractorBsdtar:
		extractor = syncer.NewBsdtarExtractor()
	case extractorNative:
		extractor = archiveutil.Extractor{}
	default:
		return pipeline.Options{}, nil, fmt.Errorf("unknown extractor: %s", extractorName)
	}

	return pipeline.Options{
		Repositories: repos,
		Targets:      targets,
		All:          all,
		NoDeps:       noDeps,
		PackageDir:   pkgDir,
		DatabaseDir:  dbDir,
		Client:       &http.Client{Timeout: timeout},
		Extractor:    extractor,
	}, cfg, nil
}
