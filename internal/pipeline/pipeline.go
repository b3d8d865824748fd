package pipeline

import (
	"context"
	"errors"
	"net/http"

	"github.com/djcass44/pacsync/pkg/dbupdate"
	"github.com/djcass44/pacsync/pkg/downloader"
	"github.com/djcass44/pacsync/pkg/index"
	"github.com/djcass44/pacsync/pkg/pacmandb"
	"github.com/djcass44/pacsync/pkg/repository"
	"github.com/djcass44/pacsync/pkg/resolver"
	"github.com/djcass44/pacsync/pkg/syncer"
	"github.com/go-logr/logr"
)

var (
	ErrNoTargets         = errors.New("need at least one package to download")
	ErrNoRepositories    = errors.New("need at least one repository database")
	ErrRecreateWithoutDB = errors.New("recreating the database requires a database to add packages to")
)

type Options struct {
	Repositories []*repository.Repository
	Targets      []string
	// All selects every package in the index.
	All bool
	// NoDeps selects the targets without
	// their dependencies.
	NoDeps bool

	PackageDir  string
	DatabaseDir string

	// AddToDB is the path of a local database that
	// packages are added to. Empty skips the step.
	AddToDB    string
	RecreateDB bool

	Client    *http.Client
	Extractor syncer.Extractor
	Updater   *dbupdate.Updater
}

type Result struct {
	Index      *index.Index
	Selection  []string
	Downloaded []index.Entry
}

func (o *Options) validate() error {
	if len(o.Targets) == 0 && !o.All {
		return ErrNoTargets
	}
	if len(o.Repositories) == 0 {
		return ErrNoRepositories
	}
	if o.RecreateDB && o.AddToDB == "" {
		return ErrRecreateWithoutDB
	}
	return nil
}

// Select synchronises the repository databases and
// works out which packages need to be downloaded.
func Select(ctx context.Context, opts Options) (*Result, error) {
	log := logr.FromContextOrDiscard(ctx)

	if err := opts.validate(); err != nil {
		return nil, err
	}

	log.Info("syncing repository databases")
	s := syncer.NewSyncer(opts.Client, opts.Extractor)
	repos, err := s.SyncAll(ctx, opts.Repositories, opts.DatabaseDir)
	if err != nil {
		return nil, err
	}
	idx := index.Build(ctx, repos)
	log.V(1).Info("indexed packages", "count", idx.Len(), "duplicates", len(idx.Duplicates()))

	var selection []string
	switch {
	case opts.All:
		selection = idx.Names()
	case opts.NoDeps:
		selection, err = resolver.Direct(opts.Targets, idx)
	default:
		selection, err = resolver.Resolve(ctx, opts.Targets, idx)
	}
	if err != nil {
		log.Error(err, "failed to select packages")
		return nil, err
	}
	log.Info("selected packages", "count", len(selection))

	return &Result{
		Index:     idx,
		Selection: selection,
	}, nil
}

// Run synchronises the repository databases, downloads the
// selected packages and optionally adds them to a local
// database.
func Run(ctx context.Context, opts Options) (*Result, error) {
	log := logr.FromContextOrDiscard(ctx)

	res, err := Select(ctx, opts)
	if err != nil {
		return nil, err
	}

	log.Info("downloading packages")
	d, err := downloader.NewDownloader(opts.PackageDir, opts.Client)
	if err != nil {
		log.Error(err, "failed to prepare package directory", "dir", opts.PackageDir)
		return nil, err
	}
	res.Downloaded, err = d.FetchAll(ctx, res.Selection, res.Index)
	if err != nil {
		return nil, err
	}

	if opts.AddToDB == "" {
		return res, nil
	}
	log.Info("adding packages to database", "db", opts.AddToDB)
	updater := opts.Updater
	if updater == nil {
		updater = dbupdate.NewUpdater()
	}

	var packages []*pacmandb.Package
	if opts.RecreateDB {
		// a fresh database gets every selected package
		if err := dbupdate.Recreate(ctx, opts.AddToDB); err != nil {
			return nil, err
		}
		for _, name := range res.Selection {
			e, _ := res.Index.Get(name)
			packages = append(packages, e.Package)
		}
	} else {
		for _, e := range res.Downloaded {
			packages = append(packages, e.Package)
		}
	}
	if err := updater.Add(ctx, opts.AddToDB, opts.PackageDir, packages); err != nil {
		return nil, err
	}
	return res, nil
}
