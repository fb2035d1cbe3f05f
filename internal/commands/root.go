package commands

import (
	"github.com/spf13/cobra"

	"github.com/cleared-dev/tally/internal/buildinfo"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}
	rootCmd := &cobra.Command{
		Use:     "tally",
		Short:   "Bank statement import and reconciliation",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error (default from tally.yaml)")
	rootCmd.PersistentFlags().BoolVar(&opts.logPretty, "log-pretty", false, "human-readable log output")

	rootCmd.AddCommand(
		newInitCommand(),
		newParseCommand(opts),
		newImportCommand(opts),
		newPostCommand(opts),
		newReconcileCommand(opts),
		newTemplatesCommand(opts),
	)

	return rootCmd
}
