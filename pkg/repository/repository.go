package repository

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/djcass44/pacsync/pkg/version"
)

// Repository is a named source of package metadata and
// package archives.
type Repository struct {
	// Name is the last path segment of the
	// metadata URL (e.g. "core.db").
	Name string
	URL  *url.URL
}

// ConfigError indicates that the list of repositories
// could not be used.
type ConfigError struct {
	URL string
	Err error
}

func (e *ConfigError) Error() string {
	if e.URL == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("repository %s: %v", e.URL, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

var (
	ErrEmptyName     = errors.New("can not determine repository name from url")
	ErrDuplicateName = errors.New("duplicate repository name")
)

// Parse creates a Repository from the URL of its
// metadata archive.
func Parse(s string) (*Repository, error) {
	uri, err := url.Parse(s)
	if err != nil {
		return nil, &ConfigError{URL: s, Err: fmt.Errorf("invalid url: %w", err)}
	}
	if uri.Scheme == "" || uri.Host == "" {
		return nil, &ConfigError{URL: s, Err: errors.New("invalid url: expected an absolute url")}
	}
	_, name, ok := version.RPartition(uri.Path, '/')
	if !ok {
		name = uri.Path
	}
	if name == "" {
		return nil, &ConfigError{URL: s, Err: ErrEmptyName}
	}
	return &Repository{
		Name: name,
		URL:  uri,
	}, nil
}

// ParseURLs parses a list of repository URLs, keeping
// their order. Two URLs that produce the same repository
// name are rejected.
func ParseURLs(urls []string) ([]*Repository, error) {
	names := map[string]string{}
	repos := make([]*Repository, 0, len(urls))
	for _, u := range urls {
		repo, err := Parse(u)
		if err != nil {
			return nil, err
		}
		if prev, ok := names[repo.Name]; ok {
			return nil, &ConfigError{URL: u, Err: fmt.Errorf("%w: %s (already used by %s)", ErrDuplicateName, repo.Name, prev)}
		}
		names[repo.Name] = u
		repos = append(repos, repo)
	}
	return repos, nil
}

// PackageURL returns the location of a package archive,
// which lives next to the metadata archive.
func (r *Repository) PackageURL(filename string) *url.URL {
	parent, _, ok := version.RPartition(r.URL.Path, '/')
	if !ok {
		parent = ""
	}
	uri := *r.URL
	uri.Path = parent + "/" + filename
	uri.RawPath = ""
	return &uri
}

func (r *Repository) String() string {
	return r.Name
}
