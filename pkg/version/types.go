package version

// Version of a package in the form epoch:upstream-release.
type Version struct {
	Epoch    uint64
	Upstream string
	// Release is nil when the version does not
	// specify one, which is distinct from an empty release.
	Release *string
}

type Constraint int

const (
	Equal Constraint = iota
	Less
	LessEqual
	Greater
	GreaterEqual
)

// VersionConstraint is the version requirement attached
// to a dependency.
type VersionConstraint struct {
	Version    Version
	Constraint Constraint
}
