package repository

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	var cases = []struct {
		in   string
		name string
		ok   bool
	}{
		{"https://mirror.example.org/core/os/x86_64/core.db", "core.db", true},
		{"http://localhost:8080/extra.db?token=abc", "extra.db", true},
		{"https://mirror.example.org/core/os/x86_64/", "", false},
		{"https://mirror.example.org", "", false},
		{"core.db", "", false},
		{"://broken", "", false},
	}

	for _, tt := range cases {
		t.Run(tt.in, func(t *testing.T) {
			repo, err := Parse(tt.in)
			if !tt.ok {
				var cerr *ConfigError
				assert.ErrorAs(t, err, &cerr)
				return
			}
			require.NoError(t, err)
			assert.EqualValues(t, tt.name, repo.Name)
		})
	}
}

func TestParseURLs(t *testing.T) {
	t.Run("order is kept", func(t *testing.T) {
		repos, err := ParseURLs([]string{
			"https://a.example.org/core.db",
			"https://a.example.org/extra.db",
			"https://b.example.org/community.db",
		})
		require.NoError(t, err)
		require.Len(t, repos, 3)
		assert.EqualValues(t, "core.db", repos[0].Name)
		assert.EqualValues(t, "extra.db", repos[1].Name)
		assert.EqualValues(t, "community.db", repos[2].Name)
	})
	t.Run("duplicate names are rejected", func(t *testing.T) {
		_, err := ParseURLs([]string{
			"https://a.example.org/core.db",
			"https://b.example.org/mirror/core.db",
		})
		assert.True(t, errors.Is(err, ErrDuplicateName))
		assert.ErrorContains(t, err, "https://b.example.org/mirror/core.db")
	})
	t.Run("empty list", func(t *testing.T) {
		repos, err := ParseURLs(nil)
		assert.NoError(t, err)
		assert.Empty(t, repos)
	})
}

func TestRepository_PackageURL(t *testing.T) {
	var cases = []struct {
		in  string
		out string
	}{
		{"https://mirror.example.org/core/os/x86_64/core.db", "https://mirror.example.org/core/os/x86_64/foo-1.0-1-x86_64.pkg.tar.zst"},
		{"https://mirror.example.org/core.db", "https://mirror.example.org/foo-1.0-1-x86_64.pkg.tar.zst"},
		{"https://mirror.example.org/repo/core.db?token=abc", "https://mirror.example.org/repo/foo-1.0-1-x86_64.pkg.tar.zst?token=abc"},
	}

	for _, tt := range cases {
		t.Run(tt.in, func(t *testing.T) {
			repo, err := Parse(tt.in)
			require.NoError(t, err)
			assert.EqualValues(t, tt.out, repo.PackageURL("foo-1.0-1-x86_64.pkg.tar.zst").String())
		})
	}
}
