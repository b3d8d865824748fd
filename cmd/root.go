package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/djcass44/go-utils/logging"
	"github.com/djcass44/pacsync/cmd/cache"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var command = &cobra.Command{
	Use:          "pacsync",
	Short:        "mirror pacman packages and their dependencies",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := bindEnv(cmd); err != nil {
			return err
		}
		logLevel, _ := cmd.Flags().GetInt(flagLogLevel)

		zc := zap.NewProductionConfig()
		zc.Level = zap.NewAtomicLevelAt(zapcore.Level(logLevel * -1))

		_, ctx := logging.NewZap(cmd.Context(), zc)
		cmd.SetContext(ctx)
		return nil
	},
}

const flagLogLevel = "v"

func init() {
	command.PersistentFlags().Int(flagLogLevel, 0, "log level. Higher is more")
	command.AddCommand(fetchCmd, lockCmd, cache.Command)
}

func Execute(version string) {
	command.Version = version

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := command.ExecuteContext(ctx); err != nil {
		cancel()
		os.Exit(1)
	}
}
