package cache

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Removes synced repository databases",
	RunE:  clean,
}

const (
	flagDBDir    = "db-dir"
	flagPkgDir   = "pkg-dir"
	flagPackages = "packages"
)

func init() {
	cleanCmd.Flags().String(flagDBDir, "db", "directory containing repository databases")
	cleanCmd.Flags().String(flagPkgDir, "packages", "directory containing package archives")
	cleanCmd.Flags().Bool(flagPackages, false, "also remove downloaded package archives")
}

func clean(cmd *cobra.Command, _ []string) error {
	log := logr.FromContextOrDiscard(cmd.Context())

	dbDir, _ := cmd.Flags().GetString(flagDBDir)
	pkgDir, _ := cmd.Flags().GetString(flagPkgDir)
	packages, _ := cmd.Flags().GetBool(flagPackages)

	dirs := []string{dbDir}
	if packages {
		dirs = append(dirs, pkgDir)
	}
	for _, d := range dirs {
		d = filepath.Clean(d)
		if d == "." || d == string(filepath.Separator) {
			return fmt.Errorf("refusing to remove %q", d)
		}
		log.Info("deleting directory", "dir", d)
		if err := os.RemoveAll(d); err != nil {
			return fmt.Errorf("removing %s: %w", d, err)
		}
	}
	return nil
}
