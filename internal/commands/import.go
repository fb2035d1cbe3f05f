package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/tally/internal/importer"
)

func newImportCommand(opts *globalOptions) *cobra.Command {
	var repoDir, template string
	var markProcessed bool
	var workers int

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Parse every statement waiting in import/",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := opts.openProject(repoDir, false)
			if err != nil {
				return err
			}
			return p.runImport(cmd, template, workers, markProcessed)
		},
	}

	cmd.Flags().StringVar(&repoDir, "repo", ".", "project directory")
	cmd.Flags().StringVar(&template, "template", "", "template for every file (default generic)")
	cmd.Flags().IntVar(&workers, "workers", 4, "files parsed in parallel")
	cmd.Flags().BoolVar(&markProcessed, "mark-processed", false, "move parsed files to import/processed/")

	return cmd
}

func (p *project) runImport(cmd *cobra.Command, template string, workers int, markProcessed bool) error {
	files, err := importer.Scan(p.root)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(files) == 0 {
		fmt.Fprintln(out, "No statements in import/")
		return nil
	}

	parser, err := p.parser()
	if err != nil {
		return err
	}
	sources := make([]importer.Source, len(files))
	for i, f := range files {
		sources[i] = importer.Source{Path: f.Path, Template: template}
	}
	results := parser.ParseAll(cmd.Context(), sources, workers)

	failed := 0
	for i, r := range results {
		name := files[i].Name
		if r.Err != nil {
			failed++
			fmt.Fprintf(out, "%s: %v\n", name, r.Err)
			continue
		}
		printImportLine(out, name, r)
		if markProcessed {
			if err := importer.MarkProcessed(p.root, name); err != nil {
				return err
			}
		}
	}
	p.log.Info().Int("files", len(files)).Int("failed", failed).Msg("import complete")

	if failed > 0 {
		return fmt.Errorf("%d of %d statements failed to parse", failed, len(files))
	}
	return nil
}

func printImportLine(out io.Writer, name string, r importer.Result) {
	stmt := r.Statement
	fmt.Fprintf(out, "%s: %d transactions, %d warnings", name, len(stmt.Transactions), len(stmt.Warnings))
	if from, to, ok := stmt.DateRange(); ok {
		fmt.Fprintf(out, " (%s to %s)", from.Format(dateFormat), to.Format(dateFormat))
	}
	fmt.Fprintln(out)
}
