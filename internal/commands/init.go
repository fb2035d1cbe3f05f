package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/tally/internal/accounts"
	"github.com/cleared-dev/tally/internal/config"
	"github.com/cleared-dev/tally/internal/gitops"
	"github.com/cleared-dev/tally/internal/matchstore"
)

func newInitCommand() *cobra.Command {
	var name string
	var entityType string
	var chart string
	var noGit bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new tally project",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			return runInit(cmd.OutOrStdout(), absDir, initOptions{
				name:       name,
				entityType: entityType,
				chart:      chart,
				git:        !noGit,
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "business name (required)")
	_ = cmd.MarkFlagRequired("name")
	cmd.Flags().StringVar(&entityType, "entity-type", "llc_single_member", "entity type")
	cmd.Flags().StringVar(&chart, "chart", "small_business", "starter chart of accounts: small_business or freelancer")
	cmd.Flags().BoolVar(&noGit, "no-git", false, "do not initialize a git repository")

	return cmd
}

type initOptions struct {
	name       string
	entityType string
	chart      string
	git        bool
}

func runInit(out io.Writer, dir string, opts initOptions) error {
	if _, err := os.Stat(filepath.Join(dir, config.FileName)); err == nil {
		return fmt.Errorf("%s already exists in %s", config.FileName, dir)
	}

	dirs := []string{
		"accounts",
		"logs",
		"import",
		filepath.Join("import", "processed"),
		matchstore.Dir,
	}
	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	chart := accounts.NewService(accounts.DefaultChart(opts.chart))
	cfg := config.Default(opts.name, opts.entityType)
	if cash := chart.Cash(); len(cash) > 0 {
		cfg.BankAccounts = []config.BankAccount{{Name: cash[0].Name, AccountID: cash[0].ID}}
	}
	if err := config.Save(filepath.Join(dir, config.FileName), cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	if err := chart.Save(dir); err != nil {
		return fmt.Errorf("writing chart of accounts: %w", err)
	}

	gitignore := "logs/\nimport/processed/\n"
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(gitignore), 0o644); err != nil {
		return fmt.Errorf("writing .gitignore: %w", err)
	}

	for _, d := range []string{"import", matchstore.Dir} {
		if err := os.WriteFile(filepath.Join(dir, d, ".gitkeep"), []byte{}, 0o644); err != nil {
			return fmt.Errorf("writing .gitkeep: %w", err)
		}
	}

	if !opts.git {
		fmt.Fprintf(out, "Initialized tally project at %s\n", dir)
		return nil
	}

	if err := gitops.Init(dir); err != nil {
		return fmt.Errorf("git init: %w", err)
	}
	hash, err := gitops.CommitAll(dir, "init: Initialize "+opts.name, author(cfg))
	if err != nil {
		return fmt.Errorf("initial commit: %w", err)
	}

	fmt.Fprintf(out, "Initialized tally project at %s (%s)\n", dir, hash)
	return nil
}

func author(cfg *config.Config) gitops.Author {
	return gitops.Author{Name: cfg.Git.AuthorName, Email: cfg.Git.AuthorEmail}
}
