package commands

import (
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/tally/internal/accounts"
	"github.com/cleared-dev/tally/internal/gitops"
	"github.com/cleared-dev/tally/internal/ledger"
	"github.com/cleared-dev/tally/internal/matchstore"
	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/reconcile"
	"github.com/cleared-dev/tally/internal/reconlog"
)

type reconcileOptions struct {
	repoDir   string
	account   string
	template  string
	format    string
	asJSON    bool
	save      bool
	tolerance string
	window    int
	threshold float64
	maxSize   int
}

func newReconcileCommand(opts *globalOptions) *cobra.Command {
	ro := &reconcileOptions{}

	cmd := &cobra.Command{
		Use:   "reconcile <file>",
		Short: "Match a bank statement against the ledger",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := opts.openProject(ro.repoDir, false)
			if err != nil {
				return err
			}
			return p.runReconcile(cmd, args[0], ro)
		},
	}

	f := cmd.Flags()
	f.StringVar(&ro.repoDir, "repo", ".", "project directory")
	f.StringVar(&ro.account, "account", "", "bank account: id, name or last four digits (default: the only configured bank account)")
	f.StringVar(&ro.template, "template", "", "statement template (default from the bank account)")
	f.StringVar(&ro.format, "format", "", "force the input format: csv, xlsx or pdf")
	f.BoolVar(&ro.asJSON, "json", false, "print JSON")
	f.BoolVar(&ro.save, "save", false, "save the candidates to reconciliations/ and commit them")
	f.StringVar(&ro.tolerance, "amount-tolerance", "", "override matching.amount_tolerance")
	f.IntVar(&ro.window, "date-window", -1, "override matching.date_window_days")
	f.Float64Var(&ro.threshold, "threshold", -1, "override matching.confidence_threshold")
	f.IntVar(&ro.maxSize, "max-aggregate-size", -1, "override matching.max_aggregate_size")

	return cmd
}

func (ro *reconcileOptions) apply(cfg *reconcile.Config) error {
	if ro.tolerance != "" {
		tol, err := decimal.NewFromString(ro.tolerance)
		if err != nil {
			return fmt.Errorf("invalid --amount-tolerance %q: %w", ro.tolerance, err)
		}
		cfg.AmountTolerance = tol
	}
	if ro.window >= 0 {
		cfg.DateWindowDays = ro.window
	}
	if ro.threshold >= 0 {
		cfg.ConfidenceThreshold = ro.threshold
	}
	if ro.maxSize >= 0 {
		cfg.MaxAggregateSize = ro.maxSize
	}
	return nil
}

// bankAccount resolves the --account flag against tally.yaml first, then
// the chart of accounts. It returns the account id and the template
// configured for it.
func (p *project) bankAccount(ref string, chart *accounts.Service) (int, string, error) {
	if ref == "" {
		if len(p.cfg.BankAccounts) != 1 {
			return 0, "", fmt.Errorf("--account is required when %d bank accounts are configured", len(p.cfg.BankAccounts))
		}
		b := p.cfg.BankAccounts[0]
		return b.AccountID, b.Template, nil
	}
	if b, ok := p.cfg.FindBankAccount(ref); ok {
		return b.AccountID, b.Template, nil
	}
	acct, err := chart.Find(ref)
	if err != nil {
		return 0, "", err
	}
	if !acct.HoldsCash() {
		return 0, "", fmt.Errorf("account %d (%s) is a %s account, not a bank account", acct.ID, acct.Name, acct.Type)
	}
	return acct.ID, "", nil
}

func (p *project) runReconcile(cmd *cobra.Command, path string, ro *reconcileOptions) error {
	cfg := p.cfg.Matching.Reconcile()
	if err := ro.apply(&cfg); err != nil {
		return err
	}
	matcher, err := reconcile.NewMatcher(cfg, p.log)
	if err != nil {
		return err
	}

	chart, err := accounts.Load(p.root)
	if err != nil {
		return err
	}
	accountID, template, err := p.bankAccount(ro.account, chart)
	if err != nil {
		return err
	}
	if ro.template != "" {
		template = ro.template
	}

	stmt, err := p.parseStatement(path, template, ro.format)
	if err != nil {
		return err
	}

	var entries []model.LedgerEntry
	if from, to, ok := stmt.DateRange(); ok {
		pad := max(cfg.DateWindowDays, cfg.FuzzyDateWindowDays)
		from, to = from.AddDate(0, 0, -pad), to.AddDate(0, 0, pad)
		entries, err = ledger.NewExtractor(p.root, chart).Entries(accountID, from, to)
		if err != nil {
			return fmt.Errorf("reading ledger: %w", err)
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	res, err := matcher.Reconcile(ctx, stmt, entries)
	if err != nil {
		return err
	}

	run := reconlog.NewRun(stmt.File, accountID, res, time.Now())
	previous, err := reconlog.Read(p.root)
	if err != nil {
		return err
	}
	if last, ok := reconlog.Last(previous, stmt.File); ok && last.Fingerprint == run.Fingerprint {
		p.log.Info().Str("previous_run", last.ID.String()).Msg("result unchanged since previous run")
	}

	var saved string
	if ro.save {
		saved, err = matchstore.Save(p.root, run.ID, res)
		if err != nil {
			return err
		}
		if p.cfg.Git.AutoCommit && gitops.IsRepo(p.root) {
			msg := fmt.Sprintf("reconcile: %s against %d", stmt.File, accountID)
			run.CommitHash, err = gitops.Commit(p.root, msg, author(p.cfg), saved)
			if err != nil {
				return err
			}
		}
	}
	if err := reconlog.Append(p.root, run); err != nil {
		return err
	}

	summary := res.Summary()
	p.log.Info().
		Str("run_id", run.ID.String()).
		Str("statement", stmt.File).
		Int("account_id", accountID).
		Int("accepted", summary.Accepted).
		Int("review", summary.Review).
		Int("unmatched_transactions", summary.UnmatchedTransactions).
		Int("unmatched_entries", summary.UnmatchedEntries).
		Msg("reconciliation complete")

	out := cmd.OutOrStdout()
	if ro.asJSON {
		return writeJSON(out, resultJSON{
			RunID:                 run.ID.String(),
			Statement:             stmt.File,
			AccountID:             accountID,
			Summary:               summary,
			Fingerprint:           run.Fingerprint,
			Accepted:              toCandidateJSON(res.Accepted),
			Review:                toCandidateJSON(res.Review),
			UnmatchedTransactions: toTransactionJSON(res.UnmatchedTransactions),
			UnmatchedEntries:      toEntryJSON(res.UnmatchedEntries),
			Saved:                 saved,
		})
	}
	fmt.Fprintf(out, "Run %s: %s against account %d\n", run.ID, stmt.File, accountID)
	if err := printResult(out, res); err != nil {
		return err
	}
	if saved != "" {
		fmt.Fprintf(out, "Saved %s\n", saved)
	}
	return nil
}
