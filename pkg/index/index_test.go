package index

import (
	"context"
	"testing"

	"github.com/djcass44/pacsync/pkg/pacmandb"
	"github.com/djcass44/pacsync/pkg/repository"
	"github.com/go-logr/logr"
	"github.com/go-logr/logr/testr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func repo(t *testing.T, name string) *repository.Repository {
	r, err := repository.Parse("https://mirror.example.org/" + name)
	require.NoError(t, err)
	return r
}

func pkg(name string, provides ...string) *pacmandb.Package {
	p := &pacmandb.Package{Name: name}
	for _, v := range provides {
		p.Provides = append(p.Provides, pacmandb.Provide{Name: v})
	}
	return p
}

func TestBuild(t *testing.T) {
	ctx := logr.NewContext(context.TODO(), testr.NewWithOptions(t, testr.Options{Verbosity: 10}))

	core := repo(t, "core.db")
	extra := repo(t, "extra.db")

	coreBash := pkg("bash", "sh")
	extraBash := pkg("bash", "sh", "bash-extra")

	t.Run("earliest repository wins", func(t *testing.T) {
		var cases = []struct {
			name  string
			repos []RepositoryPackages
			want  *repository.Repository
		}{
			{
				"core first",
				[]RepositoryPackages{
					{Repository: core, Packages: []*pacmandb.Package{coreBash}},
					{Repository: extra, Packages: []*pacmandb.Package{extraBash}},
				},
				core,
			},
			{
				"extra first",
				[]RepositoryPackages{
					{Repository: extra, Packages: []*pacmandb.Package{extraBash}},
					{Repository: core, Packages: []*pacmandb.Package{coreBash}},
				},
				extra,
			},
		}
		for _, tt := range cases {
			t.Run(tt.name, func(t *testing.T) {
				idx := Build(ctx, tt.repos)
				e, ok := idx.Get("bash")
				require.True(t, ok)
				assert.Same(t, tt.want, e.Repository)
				assert.Equal(t, 1, idx.Len())

				require.Len(t, idx.Duplicates(), 1)
				assert.Same(t, tt.want, idx.Duplicates()[0].Retained)
				assert.NotSame(t, tt.want, idx.Duplicates()[0].Discarded)
			})
		}
	})
	t.Run("discarded packages do not provide", func(t *testing.T) {
		idx := Build(ctx, []RepositoryPackages{
			{Repository: core, Packages: []*pacmandb.Package{coreBash}},
			{Repository: extra, Packages: []*pacmandb.Package{extraBash}},
		})
		assert.Empty(t, idx.Providers("bash-extra"))
	})
	t.Run("providers include name and provides", func(t *testing.T) {
		idx := Build(ctx, []RepositoryPackages{
			{Repository: core, Packages: []*pacmandb.Package{pkg("bash", "sh"), pkg("dash", "sh"), pkg("sh")}},
			{Repository: extra, Packages: []*pacmandb.Package{pkg("zsh"), pkg("mksh", "sh")}},
		})
		assert.Equal(t, []string{"bash", "dash", "mksh", "sh"}, idx.Providers("sh"))
		assert.Equal(t, []string{"bash"}, idx.Providers("bash"))
		assert.Equal(t, []string{"zsh"}, idx.Providers("zsh"))
		assert.Empty(t, idx.Providers("fish"))
		assert.Equal(t, []string{"bash", "dash", "mksh", "sh", "zsh"}, idx.Names())
		assert.Empty(t, idx.Duplicates())
	})
	t.Run("empty input", func(t *testing.T) {
		idx := Build(ctx, nil)
		assert.Zero(t, idx.Len())
		assert.Empty(t, idx.Names())
	})
}
