package pacmandb

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/djcass44/pacsync/pkg/version"
	"github.com/go-logr/logr"
)

const (
	FileDesc    = "desc"
	FileDepends = "depends"
)

// ReadError indicates that an extracted database
// could not be read.
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("reading %s: %v", e.Path, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

// ReadDir reads every package entry of an extracted
// repository database. Each entry is a directory
// containing a "desc" file and, in older databases,
// a separate "depends" file. Regular files next to the
// entries are ignored.
func ReadDir(ctx context.Context, dir string) ([]*Package, error) {
	log := logr.FromContextOrDiscard(ctx).WithValues("dir", dir)
	log.V(3).Info("reading database directory")

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &ReadError{Path: dir, Err: err}
	}

	var out []*Package
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		pkg, err := readEntry(filepath.Join(dir, e.Name()))
		if err != nil {
			log.Error(err, "failed to read database entry", "entry", e.Name())
			return nil, err
		}
		log.V(5).Info("read package", "name", pkg.Name, "version", pkg.Version.String())
		out = append(out, pkg)
	}
	log.V(2).Info("read database directory", "count", len(out))
	return out, nil
}

func readEntry(path string) (*Package, error) {
	fields := map[string][]string{}
	if err := readFields(filepath.Join(path, FileDesc), fields); err != nil {
		return nil, err
	}
	if err := readFields(filepath.Join(path, FileDepends), fields); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	pkg, err := newPackage(fields)
	if err != nil {
		return nil, &ReadError{Path: path, Err: err}
	}
	// very old databases omit %VERSION% in favour
	// of the entry name
	if _, ok := fields["VERSION"]; !ok {
		if _, v, err := version.ParsePackageVersion(filepath.Base(path)); err == nil {
			pkg.Version = v
		}
	}
	return pkg, nil
}

// readFields parses a file made of blocks in the form
//
//	%FIELD%
//	value
//	value
//
// appending the values to fields. A missing file is
// reported as a ReadError wrapping os.ErrNotExist.
func readFields(path string, fields map[string][]string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return &ReadError{Path: path, Err: err}
	}
	if !utf8.Valid(data) {
		return &ReadError{Path: path, Err: errors.New("invalid utf-8")}
	}
	ParseFields(data, fields)
	return nil
}

// ParseFields reads %FIELD% blocks from data into fields.
func ParseFields(data []byte, fields map[string][]string) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var current string
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			current = ""
			continue
		}
		// headers only start a block, so values that
		// look like "%FOO%" stay values
		if current == "" {
			if len(line) > 2 && strings.HasPrefix(line, "%") && strings.HasSuffix(line, "%") {
				current = strings.Trim(line, "%")
				if _, ok := fields[current]; !ok {
					fields[current] = []string{}
				}
			}
			continue
		}
		fields[current] = append(fields[current], line)
	}
}

func newPackage(fields map[string][]string) (*Package, error) {
	first := func(key string) string {
		if v := fields[key]; len(v) > 0 {
			return v[0]
		}
		return ""
	}
	pkg := &Package{
		Name:         first("NAME"),
		Base:         first("BASE"),
		Version:      version.Parse(first("VERSION")),
		Description:  first("DESC"),
		Arch:         first("ARCH"),
		URL:          first("URL"),
		Packager:     first("PACKAGER"),
		BuildDate:    first("BUILDDATE"),
		Licenses:     fields["LICENSE"],
		Groups:       fields["GROUPS"],
		Filename:     first("FILENAME"),
		SHA256:       strings.ToLower(first("SHA256SUM")),
		MD5:          first("MD5SUM"),
		Conflicts:    fields["CONFLICTS"],
		Replaces:     fields["REPLACES"],
		OptDepends:   fields["OPTDEPENDS"],
		MakeDepends:  fields["MAKEDEPENDS"],
		CheckDepends: fields["CHECKDEPENDS"],
	}
	if pkg.Name == "" {
		return nil, errors.New("missing package name")
	}
	var err error
	if pkg.CompressedSize, err = parseSize(first("CSIZE")); err != nil {
		return nil, fmt.Errorf("invalid compressed size for %s: %w", pkg.Name, err)
	}
	if pkg.InstalledSize, err = parseSize(first("ISIZE")); err != nil {
		return nil, fmt.Errorf("invalid installed size for %s: %w", pkg.Name, err)
	}
	for _, d := range fields["DEPENDS"] {
		name, constraint := version.ParseDepends(d)
		pkg.Depends = append(pkg.Depends, Dependency{Name: name, Constraint: constraint})
	}
	for _, p := range fields["PROVIDES"] {
		name, v := version.ParseProvides(p)
		pkg.Provides = append(pkg.Provides, Provide{Name: name, Version: v})
	}
	return pkg, nil
}

func parseSize(s string) (uint64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseUint(s, 10, 64)
}
