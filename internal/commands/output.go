package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/cleared-dev/tally/internal/model"
)

const dateFormat = "2006-01-02"

type transactionJSON struct {
	Date        string  `json:"date"`
	Amount      string  `json:"amount"`
	Description string  `json:"description"`
	Balance     *string `json:"balance,omitempty"`
	SourceRef   string  `json:"source_ref"`
	Reference   string  `json:"reference"`
}

type warningJSON struct {
	SourceRef string `json:"source_ref"`
	Message   string `json:"message"`
}

type statementJSON struct {
	File         string            `json:"file"`
	Format       model.Format      `json:"format"`
	Template     string            `json:"template"`
	AccountID    string            `json:"account_id,omitempty"`
	Transactions []transactionJSON `json:"transactions"`
	Warnings     []warningJSON     `json:"warnings"`
	Skipped      int               `json:"skipped"`
}

type entryJSON struct {
	ID          string `json:"id"`
	Date        string `json:"date"`
	Amount      string `json:"amount"`
	Account     string `json:"account"`
	Description string `json:"description"`
}

type candidateJSON struct {
	Reason       model.MatchReason `json:"reason"`
	Confidence   float64           `json:"confidence"`
	Difference   string            `json:"difference"`
	Transactions []transactionJSON `json:"transactions"`
	Entries      []entryJSON       `json:"entries"`
}

type resultJSON struct {
	RunID                 string            `json:"run_id"`
	Statement             string            `json:"statement"`
	AccountID             int               `json:"account_id"`
	Summary               model.Summary     `json:"summary"`
	Fingerprint           string            `json:"fingerprint"`
	Accepted              []candidateJSON   `json:"accepted"`
	Review                []candidateJSON   `json:"review"`
	UnmatchedTransactions []transactionJSON `json:"unmatched_transactions"`
	UnmatchedEntries      []entryJSON       `json:"unmatched_entries"`
	Saved                 string            `json:"saved,omitempty"`
}

func toTransactionJSON(txns []model.ParsedTransaction) []transactionJSON {
	out := make([]transactionJSON, 0, len(txns))
	for _, t := range txns {
		tj := transactionJSON{
			Date:        t.Date.Format(dateFormat),
			Amount:      t.Amount.StringFixed(2),
			Description: t.Description,
			SourceRef:   t.SourceRef,
			Reference:   t.Reference,
		}
		if t.RunningBalance != nil {
			b := t.RunningBalance.StringFixed(2)
			tj.Balance = &b
		}
		out = append(out, tj)
	}
	return out
}

func toEntryJSON(entries []model.LedgerEntry) []entryJSON {
	out := make([]entryJSON, 0, len(entries))
	for _, e := range entries {
		out = append(out, entryJSON{
			ID:          e.ID,
			Date:        e.Date.Format(dateFormat),
			Amount:      e.Amount.StringFixed(2),
			Account:     e.Account,
			Description: e.Description,
		})
	}
	return out
}

func toCandidateJSON(cs []model.MatchCandidate) []candidateJSON {
	out := make([]candidateJSON, 0, len(cs))
	for _, c := range cs {
		out = append(out, candidateJSON{
			Reason:       c.Reason,
			Confidence:   c.Confidence,
			Difference:   c.Difference.StringFixed(2),
			Transactions: toTransactionJSON(c.Transactions),
			Entries:      toEntryJSON(c.Entries),
		})
	}
	return out
}

func toStatementJSON(stmt *model.ParsedStatement) statementJSON {
	warnings := make([]warningJSON, 0, len(stmt.Warnings))
	for _, w := range stmt.Warnings {
		warnings = append(warnings, warningJSON{SourceRef: w.SourceRef, Message: w.Message})
	}
	return statementJSON{
		File:         stmt.File,
		Format:       stmt.Format,
		Template:     stmt.Template,
		AccountID:    stmt.AccountID,
		Transactions: toTransactionJSON(stmt.Transactions),
		Warnings:     warnings,
		Skipped:      stmt.Skipped,
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	return nil
}

func printStatement(w io.Writer, stmt *model.ParsedStatement) error {
	fmt.Fprintf(w, "%s (%s, template %s)", stmt.File, stmt.Format, stmt.Template)
	if stmt.AccountID != "" {
		fmt.Fprintf(w, " account %s", stmt.AccountID)
	}
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tAMOUNT\tBALANCE\tDESCRIPTION\tREF")
	for _, t := range stmt.Transactions {
		balance := ""
		if t.RunningBalance != nil {
			balance = t.RunningBalance.StringFixed(2)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", t.Date.Format(dateFormat), t.Amount.StringFixed(2), balance, t.Description, t.SourceRef)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "%d transactions, %d skipped\n", len(stmt.Transactions), stmt.Skipped)
	for _, warn := range stmt.Warnings {
		fmt.Fprintf(w, "warning: %s: %s\n", warn.SourceRef, warn.Message)
	}
	return nil
}

func printResult(w io.Writer, res *model.ReconciliationResult) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	printCandidates := func(title string, cs []model.MatchCandidate) {
		if len(cs) == 0 {
			return
		}
		fmt.Fprintf(tw, "%s\n", title)
		for _, c := range cs {
			var bank, ledger []string
			for _, t := range c.Transactions {
				bank = append(bank, fmt.Sprintf("%s %s %s", t.Date.Format(dateFormat), t.Amount.StringFixed(2), t.Description))
			}
			for _, e := range c.Entries {
				ledger = append(ledger, fmt.Sprintf("%s %s", e.ID, e.Amount.StringFixed(2)))
			}
			fmt.Fprintf(tw, "  %.2f\t%s\t%s\t%s\n", c.Confidence, c.Reason, strings.Join(bank, " + "), strings.Join(ledger, " + "))
		}
	}
	printCandidates("ACCEPTED", res.Accepted)
	printCandidates("REVIEW", res.Review)

	if len(res.UnmatchedTransactions) > 0 {
		fmt.Fprintln(tw, "UNMATCHED BANK TRANSACTIONS")
		for _, t := range res.UnmatchedTransactions {
			fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", t.Date.Format(dateFormat), t.Amount.StringFixed(2), t.Description, t.SourceRef)
		}
	}
	if len(res.UnmatchedEntries) > 0 {
		fmt.Fprintln(tw, "UNMATCHED LEDGER ENTRIES")
		for _, e := range res.UnmatchedEntries {
			fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", e.Date.Format(dateFormat), e.Amount.StringFixed(2), e.Description, e.ID)
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	s := res.Summary()
	fmt.Fprintf(w, "%d accepted, %d for review, %d unmatched bank transactions, %d unmatched ledger entries\n",
		s.Accepted, s.Review, s.UnmatchedTransactions, s.UnmatchedEntries)
	return nil
}
