// Package cmd wires the ctypegen command line interface.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ctypegen/ctypegen/envconfig"
	"github.com/ctypegen/ctypegen/logutil"
	"github.com/ctypegen/ctypegen/version"
)

func NewCLI() *cobra.Command {
	cobra.EnableCommandSorting = false

	rootCmd := &cobra.Command{
		Use:     "ctypegen",
		Short:   "Generate paired C++ and Python ctypes bindings from tagged exports",
		Version: version.Version,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Disable usage printing on errors
			cmd.SilenceUsage = true

			logutil.Init(os.Stderr, envconfig.Debug)
			slog.Debug("environment", "config", envconfig.AsMap())
		},
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Print(cmd.UsageString())
		},
	}

	rootCmd.AddCommand(
		cmdGenerate(),
		cmdList(),
		cmdVersion(rootCmd),
	)

	return rootCmd
}

func cmdVersion(rootCmd *cobra.Command) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.ExactArgs(0),
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", rootCmd.Use, version.Version)
		},
	}
}
