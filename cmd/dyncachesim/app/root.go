// Package app provides the commands of dyncachesim.
package app

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sarchlab/dyncache/cmd/dyncachesim/simconfig"
)

// NewRootCmd creates the root command with all its subcommands.
func NewRootCmd() *cobra.Command {
	v := simconfig.NewViper()

	rootCmd := &cobra.Command{
		Use:   "dyncachesim",
		Short: "Simulate dynamic switching between memory and caches.",
		Long: `dyncachesim runs synthetic memory traffic through a controller ` +
			`that switches between a direct memory path and three caches ` +
			`of different sizes, flushing a cache when it is left.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().String("config", "",
		"Path to a YAML configuration file")
	rootCmd.PersistentFlags().Bool("debug", false,
		"Log with the development logger at verbosity 1")
	rootCmd.PersistentFlags().IntP("verbosity", "v", 0,
		"Log verbosity; 2 traces every event and port activity")
	mustBind(v, "debug", rootCmd.PersistentFlags(), "debug")
	mustBind(v, "verbosity", rootCmd.PersistentFlags(), "verbosity")

	rootCmd.AddCommand(newRunCmd(v))
	rootCmd.AddCommand(newReportCmd())

	return rootCmd
}

// mustBind binds the named flag to a configuration key.
func mustBind(v *viper.Viper, key string, flags *pflag.FlagSet, name string) {
	f := flags.Lookup(name)
	if f == nil {
		panic(fmt.Sprintf("flag %s not defined", name))
	}

	if err := v.BindPFlag(key, f); err != nil {
		panic(err)
	}
}
