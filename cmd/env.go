package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "PACSYNC"

// bindEnv fills in any flag that was not given on the
// command line from its PACSYNC_* environment variable
// (e.g. --pkg-dir is read from PACSYNC_PKG_DIR).
func bindEnv(cmd *cobra.Command) error {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	var err error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if err != nil || f.Changed || !v.IsSet(f.Name) {
			return
		}
		if serr := cmd.Flags().Set(f.Name, v.GetString(f.Name)); serr != nil {
			err = fmt.Errorf("reading flag %s from environment: %w", f.Name, serr)
		}
	})
	return err
}
