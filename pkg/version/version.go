package version

import (
	"fmt"
	"strconv"
	"strings"
)

// Partition splits s around the first occurrence of sep.
func Partition(s string, sep byte) (string, string, bool) {
	i := strings.IndexByte(s, sep)
	if i < 0 {
		return s, "", false
	}
	return s[:i], s[i+1:], true
}

// RPartition splits s around the last occurrence of sep.
func RPartition(s string, sep byte) (string, string, bool) {
	i := strings.LastIndexByte(s, sep)
	if i < 0 {
		return s, "", false
	}
	return s[:i], s[i+1:], true
}

// Parse reads a version in the form [epoch:]upstream[-release].
//
// Parsing never fails. An empty epoch is treated as 0, and
// an epoch that is not a number is left as part of the
// upstream version.
func Parse(s string) Version {
	var v Version
	if epoch, rest, ok := Partition(s, ':'); ok {
		if epoch == "" {
			s = rest
		} else if n, err := strconv.ParseUint(epoch, 10, 64); err == nil {
			v.Epoch = n
			s = rest
		}
	}
	if upstream, release, ok := RPartition(s, '-'); ok {
		v.Upstream = upstream
		v.Release = &release
		return v
	}
	v.Upstream = s
	return v
}

// New is a convenience for building a Version with a release.
func New(epoch uint64, upstream, release string) Version {
	return Version{
		Epoch:    epoch,
		Upstream: upstream,
		Release:  &release,
	}
}

func (v Version) String() string {
	sb := strings.Builder{}
	if v.Epoch != 0 {
		sb.WriteString(strconv.FormatUint(v.Epoch, 10))
		sb.WriteString(":")
	}
	sb.WriteString(v.Upstream)
	if v.Release != nil {
		sb.WriteString("-")
		sb.WriteString(*v.Release)
	}
	return sb.String()
}

func (c Constraint) String() string {
	switch c {
	case Equal:
		return "="
	case Less:
		return "<"
	case LessEqual:
		return "<="
	case Greater:
		return ">"
	case GreaterEqual:
		return ">="
	default:
		return fmt.Sprintf("Constraint(%d)", int(c))
	}
}

func (vc VersionConstraint) String() string {
	return vc.Constraint.String() + vc.Version.String()
}

// ParseConstraint reads a comparison operator from the start
// of s and returns it along with the remainder of the string.
//
// Longer operators are matched first. "==" is not an official
// operator but shows up in the wild, so it is read as "=".
func ParseConstraint(s string) (Constraint, string, bool) {
	switch {
	case strings.HasPrefix(s, ">="):
		return GreaterEqual, s[2:], true
	case strings.HasPrefix(s, "<="):
		return LessEqual, s[2:], true
	case strings.HasPrefix(s, ">"):
		return Greater, s[1:], true
	case strings.HasPrefix(s, "<"):
		return Less, s[1:], true
	case strings.HasPrefix(s, "=="):
		return Equal, s[2:], true
	case strings.HasPrefix(s, "="):
		return Equal, s[1:], true
	default:
		return 0, s, false
	}
}

// ParseDepends parses a dependency declaration such as "foo>=1.2-3"
// into a package name and an optional version constraint.
func ParseDepends(s string) (string, *VersionConstraint) {
	start := strings.IndexAny(s, "<>=")
	if start < 0 {
		return s, nil
	}
	// every character in the set starts a valid operator
	constraint, rest, _ := ParseConstraint(s[start:])
	return s[:start], &VersionConstraint{
		Version:    Parse(rest),
		Constraint: constraint,
	}
}

// ParseProvides parses a provides declaration such as "foo=1.0"
// into a capability name and an optional version.
func ParseProvides(s string) (string, *Version) {
	name, rest, ok := Partition(s, '=')
	if !ok {
		return s, nil
	}
	v := Parse(rest)
	return name, &v
}

// ParsePackageVersion splits a string in the form
// name-pkgver-pkgrel, as used by database entry directories.
func ParsePackageVersion(s string) (string, Version, error) {
	rest, release, ok := RPartition(s, '-')
	if !ok {
		return "", Version{}, fmt.Errorf("missing pkgrel: %q", s)
	}
	name, pkgver, ok := RPartition(rest, '-')
	if !ok {
		return "", Version{}, fmt.Errorf("missing pkgver: %q", s)
	}
	v := Version{Upstream: pkgver, Release: &release}
	if epoch, upstream, ok := Partition(pkgver, ':'); ok {
		n, err := strconv.ParseUint(epoch, 10, 64)
		if err != nil {
			return "", Version{}, fmt.Errorf("invalid epoch in package version: %q", s)
		}
		v.Epoch = n
		v.Upstream = upstream
	}
	return name, v, nil
}
