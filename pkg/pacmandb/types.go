package pacmandb

import "github.com/djcass44/pacsync/pkg/version"

// Package is a single entry of a repository database.
type Package struct {
	Name        string
	Base        string
	Version     version.Version
	Description string
	Arch        string
	URL         string
	Packager    string
	BuildDate   string
	Licenses    []string
	Groups      []string

	Filename       string
	CompressedSize uint64
	InstalledSize  uint64
	SHA256         string
	MD5            string

	Depends      []Dependency
	Provides     []Provide
	Conflicts    []string
	Replaces     []string
	OptDepends   []string
	MakeDepends  []string
	CheckDepends []string
}

// Dependency is a named requirement with an optional
// version constraint. The constraint is informational only.
type Dependency struct {
	Name       string
	Constraint *version.VersionConstraint
}

// Provide is a capability offered by a package in
// addition to its own name.
type Provide struct {
	Name    string
	Version *version.Version
}

func (d Dependency) String() string {
	if d.Constraint == nil {
		return d.Name
	}
	return d.Name + d.Constraint.String()
}

func (p Provide) String() string {
	if p.Version == nil {
		return p.Name
	}
	return p.Name + "=" + p.Version.String()
}
