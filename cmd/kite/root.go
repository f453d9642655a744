package main

import (
	"github.com/spf13/cobra"
)

// rootFlags are persistent flags shared by every subcommand.
type rootFlags struct {
	verbose        bool
	nonInteractive bool
	workspace      string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "kite",
		Short:         "Kite runs declarative rides of segments with a bounded-concurrency scheduler",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Verbosity flag; it is parsed but does not change segment logging output")
	cmd.PersistentFlags().BoolVar(&flags.nonInteractive, "non-interactive", false, "Disable the live dashboard even when attached to a terminal")
	cmd.PersistentFlags().StringVarP(&flags.workspace, "workspace", "w", "", "Workspace directory (defaults to the current directory)")

	cmd.AddCommand(newRunCmd(flags))
	cmd.AddCommand(newGraphCmd(flags))
	cmd.AddCommand(newVersionCmd())

	return cmd
}
