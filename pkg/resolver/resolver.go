package resolver

import (
	"context"
	"fmt"
	"slices"

	"github.com/djcass44/pacsync/pkg/index"
	"github.com/djcass44/pacsync/pkg/pacmandb"
	"github.com/go-logr/logr"
)

// UnresolvedTargetError indicates that nothing in
// the index provides a required capability.
type UnresolvedTargetError struct {
	Name string
}

func (e *UnresolvedTargetError) Error() string {
	return fmt.Sprintf("no provider found for target: %s", e.Name)
}

type resolver struct {
	idx       *index.Index
	selected  map[string]struct{}
	satisfied map[string]struct{}
	// queue is kept sorted and free of duplicates
	queue []string
}

// Resolve computes the set of packages that must be downloaded
// to install the given targets, returned sorted by name.
//
// Targets naming a real package are always selected. Other targets,
// as well as dependencies, are capabilities that are resolved only
// if no selected package already provides them. When several packages
// provide a capability, the alphabetically first one is chosen.
// Version constraints are not taken into account.
func Resolve(ctx context.Context, targets []string, idx *index.Index) ([]string, error) {
	log := logr.FromContextOrDiscard(ctx)

	r := &resolver{
		idx:       idx,
		selected:  map[string]struct{}{},
		satisfied: map[string]struct{}{},
	}

	// explicitly listed real packages go first, so that
	// they are never replaced by another provider
	for _, target := range targets {
		if e, ok := idx.Get(target); ok {
			log.V(3).Info("selecting target", "pkg", target)
			r.add(e.Package)
			for _, d := range e.Package.Depends {
				r.push(d.Name)
			}
			continue
		}
		log.V(3).Info("deferring virtual target", "target", target)
		r.push(target)
	}

	for len(r.queue) > 0 {
		target := r.queue[0]
		r.queue = r.queue[1:]

		if _, ok := r.satisfied[target]; ok {
			continue
		}
		pkg, err := r.choose(target)
		if err != nil {
			log.Error(err, "failed to resolve target", "target", target)
			return nil, err
		}
		log.V(3).Info("selecting package", "pkg", pkg.Name, "target", target)
		r.add(pkg)
		for _, d := range pkg.Depends {
			if _, ok := r.satisfied[d.Name]; !ok {
				r.push(d.Name)
			}
		}
	}

	out := make([]string, 0, len(r.selected))
	for k := range r.selected {
		out = append(out, k)
	}
	slices.Sort(out)
	log.V(1).Info("resolved packages", "targets", len(targets), "count", len(out))
	return out, nil
}

func (r *resolver) push(name string) {
	i, found := slices.BinarySearch(r.queue, name)
	if found {
		return
	}
	r.queue = slices.Insert(r.queue, i, name)
}

func (r *resolver) add(pkg *pacmandb.Package) {
	r.selected[pkg.Name] = struct{}{}
	r.satisfied[pkg.Name] = struct{}{}
	for _, p := range pkg.Provides {
		r.satisfied[p.Name] = struct{}{}
	}
}

// choose picks the package for a capability: the package of
// that name if there is one, otherwise the first provider.
func (r *resolver) choose(target string) (*pacmandb.Package, error) {
	if e, ok := r.idx.Get(target); ok {
		return e.Package, nil
	}
	providers := r.idx.Providers(target)
	if len(providers) == 0 {
		return nil, &UnresolvedTargetError{Name: target}
	}
	e, ok := r.idx.Get(providers[0])
	if !ok {
		return nil, fmt.Errorf("no such package: %s", providers[0])
	}
	return e.Package, nil
}
