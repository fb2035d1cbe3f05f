package commands

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/tally/internal/accounts"
	"github.com/cleared-dev/tally/internal/gitops"
	"github.com/cleared-dev/tally/internal/ledger"
)

type postOptions struct {
	repoDir     string
	date        string
	description string
	debit       string
	credit      string
	amount      string
	reference   string
}

func newPostCommand(opts *globalOptions) *cobra.Command {
	po := &postOptions{}

	cmd := &cobra.Command{
		Use:   "post",
		Short: "Record a two-leg entry in the ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := opts.openProject(po.repoDir, false)
			if err != nil {
				return err
			}
			return p.runPost(cmd, po)
		},
	}

	f := cmd.Flags()
	f.StringVar(&po.repoDir, "repo", ".", "project directory holding tally.yaml")
	f.StringVar(&po.date, "date", "", "entry date, YYYY-MM-DD (required)")
	f.StringVar(&po.description, "description", "", "entry description (required)")
	f.StringVar(&po.debit, "debit", "", "debited account id or name (required)")
	f.StringVar(&po.credit, "credit", "", "credited account id or name (required)")
	f.StringVar(&po.amount, "amount", "", "positive amount (required)")
	f.StringVar(&po.reference, "reference", "", "external reference such as an invoice number")
	for _, name := range []string{"date", "description", "debit", "credit", "amount"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func (p *project) runPost(cmd *cobra.Command, po *postOptions) error {
	date, err := time.Parse(time.DateOnly, po.date)
	if err != nil {
		return fmt.Errorf("invalid --date %q: expected YYYY-MM-DD", po.date)
	}
	amount, err := decimal.NewFromString(po.amount)
	if err != nil || !amount.IsPositive() {
		return fmt.Errorf("invalid --amount %q: expected a positive number", po.amount)
	}

	chart, err := accounts.Load(p.root)
	if err != nil {
		return err
	}
	debit, err := chart.Find(po.debit)
	if err != nil {
		return err
	}
	credit, err := chart.Find(po.credit)
	if err != nil {
		return err
	}
	if debit.ID == credit.ID {
		return fmt.Errorf("debit and credit account are both %d", debit.ID)
	}

	j := ledger.NewJournal(p.root, chart)
	id, err := j.Add(ledger.AddParams{
		Date:        date,
		Description: po.description,
		Reference:   po.reference,
		Postings: []ledger.Posting{
			{AccountID: debit.ID, Debit: amount},
			{AccountID: credit.ID, Credit: amount},
		},
	})
	if err != nil {
		return err
	}
	p.log.Info().Str("entry_id", id).Int("debit", debit.ID).Int("credit", credit.ID).Msg("entry posted")

	if p.cfg.Git.AutoCommit && gitops.IsRepo(p.root) {
		msg := fmt.Sprintf("post: %s %s", id, po.description)
		file := ledger.MonthFile(date.Year(), int(date.Month()))
		if _, err := gitops.Commit(p.root, msg, author(p.cfg), file); err != nil {
			return err
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %s -> %s  %s\n",
		id, po.date, credit.Name, debit.Name, amount.StringFixed(2))
	return nil
}
