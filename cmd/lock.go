package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/djcass44/pacsync/internal/pipeline"
	"github.com/djcass44/pacsync/pkg/lockfile"
	"github.com/go-logr/logr"
	"github.com/spf13/cobra"
)

var lockCmd = &cobra.Command{
	Use:   "lock",
	Short: "generate a lockfile",
	RunE:  lock,
}

const (
	flagOutput = "output"
	flagCheck  = "check"
)

const defaultLockfile = "pacsync-lock.json"

func init() {
	addSourceFlags(lockCmd.Flags())
	lockCmd.Flags().StringP(flagOutput, "o", "", "path to the lockfile (defaults to the configuration file with a -lock.json suffix)")
	lockCmd.Flags().Bool(flagCheck, false, "check that the existing lockfile is up to date instead of writing it")

	_ = lockCmd.MarkFlagFilename(flagConfig, ".yaml", ".yml", ".json")
	_ = lockCmd.MarkFlagDirname(flagDBDir)
}

func lock(cmd *cobra.Command, _ []string) error {
	log := logr.FromContextOrDiscard(cmd.Context())

	output, _ := cmd.Flags().GetString(flagOutput)
	check, _ := cmd.Flags().GetBool(flagCheck)

	opts, cfg, err := sourceOptions(cmd)
	if err != nil {
		return err
	}

	name := command.Use
	if cfg != nil {
		configPath, _ := cmd.Flags().GetString(flagConfig)
		if output == "" {
			output = lockfile.Name(configPath)
		}
		if cfg.Name != "" {
			name = cfg.Name
		}
	}
	if output == "" {
		output = defaultLockfile
	}

	res, err := pipeline.Select(cmd.Context(), opts)
	if err != nil {
		return err
	}

	lockFile, err := lockfile.Generate(cmd.Context(), name, opts.Repositories, opts.DatabaseDir, opts.Targets, res.Selection, res.Index)
	if err != nil {
		return err
	}

	if !check {
		return lockFile.Write(cmd.Context(), output)
	}

	log.Info("checking lockfile", "path", output)
	existing, err := lockfile.Read(cmd.Context(), output)
	if err != nil {
		return err
	}
	if !opts.All {
		if err := existing.Validate(opts.Targets); err != nil {
			return err
		}
	}
	if diff := existing.Diff(lockFile); len(diff) > 0 {
		log.Info("warning: lockfile is out of date", "packages", diff)
		return fmt.Errorf("lockfile %s is out of date: %s", filepath.Base(output), strings.Join(diff, ", "))
	}
	if diff := existing.DiffRepositories(lockFile); len(diff) > 0 {
		log.Info("warning: lockfile repositories are out of date", "repositories", diff)
		return fmt.Errorf("lockfile %s repositories do not match: %s", filepath.Base(output), strings.Join(diff, ", "))
	}
	log.Info("lockfile is up to date")
	return nil
}
