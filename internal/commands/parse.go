package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/tally/internal/model"
)

func newParseCommand(opts *globalOptions) *cobra.Command {
	var template, format, repoDir string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "Parse a bank statement and print its transactions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := opts.openProject(repoDir, true)
			if err != nil {
				return err
			}
			stmt, err := p.parseStatement(args[0], template, format)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), toStatementJSON(stmt))
			}
			return printStatement(cmd.OutOrStdout(), stmt)
		},
	}

	cmd.Flags().StringVar(&template, "template", "", "statement template (default generic)")
	cmd.Flags().StringVar(&format, "format", "", "force the input format: csv, xlsx or pdf")
	cmd.Flags().StringVar(&repoDir, "repo", ".", "project directory holding tally.yaml")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")

	return cmd
}

func (p *project) parseStatement(path, template, format string) (*model.ParsedStatement, error) {
	var f model.Format
	if format != "" {
		if f = model.ParseFormat(format); f == model.FormatUnknown {
			return nil, fmt.Errorf("unknown format %q", format)
		}
	}
	parser, err := p.parser()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading statement: %w", err)
	}
	return parser.Parse(model.RawStatement{Name: filepath.Base(path), Data: data, Format: f}, template)
}
