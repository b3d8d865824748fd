package lockfile

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"sort"

	"github.com/djcass44/pacsync/pkg/index"
	"github.com/djcass44/pacsync/pkg/repository"
	"github.com/go-logr/logr"
	"github.com/gosimple/hashdir"
)

const Version = 1

// Generate creates a lockfile from a resolved selection.
//
// Each repository is locked to the digest of its extracted
// database, found under dbRoot.
func Generate(ctx context.Context, name string, repos []*repository.Repository, dbRoot string, targets, selection []string, idx *index.Index) (*Lock, error) {
	log := logr.FromContextOrDiscard(ctx)

	lock := &Lock{
		Name:            name,
		LockfileVersion: Version,
		Repositories:    map[string]Repository{},
		Packages:        map[string]Package{},
	}

	log.Info("generating repository checksums")
	for _, repo := range repos {
		dir := filepath.Join(dbRoot, repo.Name)
		log.V(1).Info("hashing directory", "dir", dir)
		digest, err := hashdir.Make(dir, "sha256")
		if err != nil {
			log.Error(err, "failed to generate directory digest", "alg", "sha256", "path", dir)
			return nil, err
		}
		lock.Repositories[repo.Name] = Repository{
			URL:       repo.URL.String(),
			Integrity: "sha256:" + digest,
		}
	}

	log.Info("generating package checksums")
	for _, n := range selection {
		entry, ok := idx.Get(n)
		if !ok {
			return nil, fmt.Errorf("package not found in index: %s", n)
		}
		pkg := entry.Package
		var provides []string
		for _, p := range pkg.Provides {
			provides = append(provides, p.Name)
		}
		lock.Packages[pkg.Name] = Package{
			Name:       pkg.Name,
			Repository: entry.Repository.Name,
			Version:    pkg.Version.String(),
			Resolved:   entry.Repository.PackageURL(pkg.Filename).String(),
			Integrity:  "sha256:" + pkg.SHA256,
			Size:       pkg.CompressedSize,
			Direct:     slices.Contains(targets, pkg.Name),
			Provides:   provides,
		}
	}
	return lock, nil
}

// Validate checks that the requested targets line up
// with what we expect from the lockfile and vice versa
func (l *Lock) Validate(targets []string) error {
	// check that the targets are all in the lockfile
	for _, t := range targets {
		if _, ok := l.Packages[t]; ok {
			continue
		}
		if !l.provided(t) {
			return fmt.Errorf("package not found in lock: %s", t)
		}
	}

	// now we do the reverse

	for k, v := range l.Packages {
		if !v.Direct {
			continue
		}
		// check that the direct packages were requested
		if !slices.Contains(targets, k) {
			return fmt.Errorf("package found in lock, but not requested: %s", k)
		}
	}

	return nil
}

func (l *Lock) provided(capability string) bool {
	for _, p := range l.Packages {
		if slices.Contains(p.Provides, capability) {
			return true
		}
	}
	return false
}

// Diff returns the names of packages that differ
// between two lockfiles, sorted alphabetically.
func (l *Lock) Diff(other *Lock) []string {
	var out []string
	for k, v := range l.Packages {
		o, ok := other.Packages[k]
		if !ok || o.Version != v.Version || o.Integrity != v.Integrity || o.Repository != v.Repository {
			out = append(out, k)
		}
	}
	for k := range other.Packages {
		if _, ok := l.Packages[k]; !ok {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// DiffRepositories returns the names of repositories whose
// URL or database digest differ between two lockfiles,
// sorted alphabetically.
func (l *Lock) DiffRepositories(other *Lock) []string {
	var out []string
	for k, v := range l.Repositories {
		if o, ok := other.Repositories[k]; !ok || o != v {
			out = append(out, k)
		}
	}
	for k := range other.Repositories {
		if _, ok := l.Repositories[k]; !ok {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// SortedKeys returns package names
// sorted alphabetically.
func (l *Lock) SortedKeys() []string {
	pkgKeys := make([]string, 0)
	for k := range l.Packages {
		pkgKeys = append(pkgKeys, k)
	}
	sort.Strings(pkgKeys)
	return pkgKeys
}
