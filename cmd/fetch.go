package cmd

import (
	"github.com/djcass44/pacsync/internal/pipeline"
	"github.com/djcass44/pacsync/pkg/dbupdate"
	"github.com/djcass44/pacsync/pkg/pacmandb"
	"github.com/go-logr/logr"
	"github.com/spf13/cobra"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "download packages and their dependencies",
	RunE:  fetch,
}

const (
	flagAddToDB    = "add-to-db"
	flagRecreateDB = "recreate-db"
)

func init() {
	addSourceFlags(fetchCmd.Flags())
	fetchCmd.Flags().String(flagAddToDB, "", "add downloaded packages to the given database")
	fetchCmd.Flags().Bool(flagRecreateDB, false, "recreate the database given by --add-to-db with all selected packages")

	_ = fetchCmd.MarkFlagFilename(flagConfig, ".yaml", ".yml", ".json")
	_ = fetchCmd.MarkFlagDirname(flagPkgDir)
	_ = fetchCmd.MarkFlagDirname(flagDBDir)
}

func fetch(cmd *cobra.Command, _ []string) error {
	log := logr.FromContextOrDiscard(cmd.Context())

	addToDB, _ := cmd.Flags().GetString(flagAddToDB)
	recreateDB, _ := cmd.Flags().GetBool(flagRecreateDB)

	opts, _, err := sourceOptions(cmd)
	if err != nil {
		return err
	}
	opts.AddToDB = addToDB
	opts.RecreateDB = recreateDB

	updater := dbupdate.NewUpdater()
	updater.Progress = func(i, total int, pkg *pacmandb.Package) {
		log.Info("adding package", "pkg", pkg.Name, "progress", i, "total", total)
	}
	opts.Updater = updater

	res, err := pipeline.Run(cmd.Context(), opts)
	if err != nil {
		return err
	}
	log.Info("done", "selected", len(res.Selection), "downloaded", len(res.Downloaded))
	return nil
}
