package dbupdate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/djcass44/pacsync/pkg/pacmandb"
	"github.com/go-logr/logr"
)

// UpdateError is returned when a package could not
// be added to the local database.
type UpdateError struct {
	Database string
	Package  string
	Err      error
}

func (e *UpdateError) Error() string {
	return fmt.Sprintf("adding %s to database %s: %s", e.Package, e.Database, e.Err)
}

func (e *UpdateError) Unwrap() error {
	return e.Err
}

// Runner executes a database maintenance command.
type Runner func(ctx context.Context, name string, args ...string) error

// Progress is called before each package is added.
type Progress func(i, total int, pkg *pacmandb.Package)

type Updater struct {
	// Command is the program used to add packages,
	// normally "repo-add".
	Command  string
	Run      Runner
	Progress Progress
}

func NewUpdater() *Updater {
	return &Updater{
		Command: "repo-add",
		Run:     Exec,
	}
}

// Add adds each of the packages, found in pkgDir, to the
// database at dbPath one at a time.
func (u *Updater) Add(ctx context.Context, dbPath, pkgDir string, packages []*pacmandb.Package) error {
	log := logr.FromContextOrDiscard(ctx).WithValues("db", dbPath)

	if len(packages) == 0 {
		log.Info("no packages to add")
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		log.Error(err, "failed to create database directory")
		return fmt.Errorf("creating database directory: %w", err)
	}

	for i, pkg := range packages {
		if u.Progress != nil {
			u.Progress(i+1, len(packages), pkg)
		}
		path := filepath.Join(pkgDir, pkg.Filename)
		log.V(1).Info(fmt.Sprintf("[%d/%d] adding package to database", i+1, len(packages)), "pkg", pkg.Name, "path", path)
		if err := u.Run(ctx, u.Command, "-q", dbPath, path); err != nil {
			log.Error(err, "failed to add package to database", "pkg", pkg.Name)
			return &UpdateError{Database: dbPath, Package: pkg.Name, Err: err}
		}
	}
	log.Info("updated database", "count", len(packages))
	return nil
}

// Recreate removes the database at dbPath so that it
// can be built again from scratch.
func Recreate(ctx context.Context, dbPath string) error {
	log := logr.FromContextOrDiscard(ctx)
	log.Info("removing database", "db", dbPath)
	if err := os.Remove(dbPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing database: %w", err)
	}
	return nil
}

// Exec runs a command with stdin closed.
func Exec(ctx context.Context, name string, args ...string) error {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = nil
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if stderr.Len() > 0 {
			return fmt.Errorf("%w: %s", err, bytes.TrimSpace(stderr.Bytes()))
		}
		return err
	}
	return nil
}
