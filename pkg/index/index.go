package index

import (
	"context"
	"slices"

	"github.com/djcass44/pacsync/pkg/pacmandb"
	"github.com/djcass44/pacsync/pkg/repository"
	"github.com/go-logr/logr"
)

// RepositoryPackages is the content of a single
// repository database.
type RepositoryPackages struct {
	Repository *repository.Repository
	Packages   []*pacmandb.Package
}

// Entry is a package along with the repository
// it will be downloaded from.
type Entry struct {
	Repository *repository.Repository
	Package    *pacmandb.Package
}

// Duplicate records a package that was discarded because
// a repository with a higher priority already had it.
type Duplicate struct {
	Name      string
	Retained  *repository.Repository
	Discarded *repository.Repository
}

type Index struct {
	byName     map[string]Entry
	providers  map[string]map[string]struct{}
	duplicates []Duplicate
}

// Build indexes packages by name and by the capabilities
// they provide.
//
// Repositories are given in priority order. When more than one
// repository has a package with the same name, the package from
// the earliest repository is kept.
func Build(ctx context.Context, repos []RepositoryPackages) *Index {
	log := logr.FromContextOrDiscard(ctx)

	idx := &Index{
		byName:    map[string]Entry{},
		providers: map[string]map[string]struct{}{},
	}
	for _, rp := range repos {
		for _, pkg := range rp.Packages {
			if prev, ok := idx.byName[pkg.Name]; ok {
				log.Info("warning: package already encountered, ignoring duplicate", "pkg", pkg.Name, "retained", prev.Repository.Name, "ignored", rp.Repository.Name)
				idx.duplicates = append(idx.duplicates, Duplicate{
					Name:      pkg.Name,
					Retained:  prev.Repository,
					Discarded: rp.Repository,
				})
				continue
			}
			idx.byName[pkg.Name] = Entry{Repository: rp.Repository, Package: pkg}
			idx.addProvider(pkg.Name, pkg.Name)
			for _, p := range pkg.Provides {
				idx.addProvider(p.Name, pkg.Name)
			}
		}
	}
	log.V(1).Info("indexed packages", "count", len(idx.byName), "capabilities", len(idx.providers), "duplicates", len(idx.duplicates))
	return idx
}

func (idx *Index) addProvider(capability, pkg string) {
	set, ok := idx.providers[capability]
	if !ok {
		set = map[string]struct{}{}
		idx.providers[capability] = set
	}
	set[pkg] = struct{}{}
}

// Get returns the package with the given name.
func (idx *Index) Get(name string) (Entry, bool) {
	e, ok := idx.byName[name]
	return e, ok
}

// Providers returns the names of all packages offering
// the given capability, sorted alphabetically.
func (idx *Index) Providers(capability string) []string {
	set := idx.providers[capability]
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// Names returns the names of all indexed packages,
// sorted alphabetically.
func (idx *Index) Names() []string {
	out := make([]string, 0, len(idx.byName))
	for k := range idx.byName {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

func (idx *Index) Len() int {
	return len(idx.byName)
}

func (idx *Index) Duplicates() []Duplicate {
	return idx.duplicates
}
