package resolver

import (
	"slices"

	"github.com/djcass44/pacsync/pkg/index"
)

// Direct selects the targets without looking at their
// dependencies. Every target must name a real package.
func Direct(targets []string, idx *index.Index) ([]string, error) {
	out := make([]string, 0, len(targets))
	for _, t := range targets {
		if _, ok := idx.Get(t); !ok {
			return nil, &UnresolvedTargetError{Name: t}
		}
		out = append(out, t)
	}
	slices.Sort(out)
	return slices.Compact(out), nil
}
