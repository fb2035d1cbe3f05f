package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newTemplatesCommand(opts *globalOptions) *cobra.Command {
	var repoDir string

	cmd := &cobra.Command{
		Use:   "templates",
		Short: "List the statement templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := opts.openProject(repoDir, true)
			if err != nil {
				return err
			}
			reg, err := p.cfg.Registry()
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tFORMAT")
			for _, name := range reg.Names() {
				t, _ := reg.Get(name)
				format := string(t.Format)
				if format == "" {
					format = "any"
				}
				fmt.Fprintf(tw, "%s\t%s\n", name, format)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&repoDir, "repo", ".", "project directory holding tally.yaml")
	return cmd
}
