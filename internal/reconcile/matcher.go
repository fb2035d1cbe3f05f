// Package reconcile pairs bank statement transactions with ledger entries.
//
// Matching runs in three passes over the items no earlier pass claimed:
// exact (one transaction, one entry, equal amount, close date), aggregate
// (several transactions summing to one entry or the reverse) and fuzzy
// (similar description, near amount and date). Each pass claims what it
// matches, so every input item ends up in exactly one candidate or in an
// unmatched set. The result is a pure function of the inputs and Config.
package reconcile

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/tally/internal/model"
)

// Matcher reconciles statements against ledger entries.
type Matcher struct {
	cfg Config
	log zerolog.Logger
}

// NewMatcher validates cfg and returns a Matcher.
func NewMatcher(cfg Config, log zerolog.Logger) (*Matcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("matcher config: %w", err)
	}
	return &Matcher{cfg: cfg, log: log.With().Str("component", "reconcile").Logger()}, nil
}

// Config returns the matcher's configuration.
func (m *Matcher) Config() Config {
	return m.cfg
}

// candidate is a match under construction, by index into the run's slices.
type candidate struct {
	txns       []int
	entries    []int
	confidence float64
	reason     model.MatchReason
}

// run holds the state of one Reconcile call.
type run struct {
	ctx     context.Context
	cfg     Config
	txns    []model.ParsedTransaction
	entries []model.LedgerEntry // canonical order
	txnUsed []bool
	entUsed []bool
	found   []candidate
}

func (r *run) claim(c candidate) {
	for _, i := range c.txns {
		r.txnUsed[i] = true
	}
	for _, j := range c.entries {
		r.entUsed[j] = true
	}
	r.found = append(r.found, c)
}

// Reconcile matches the statement's transactions against entries. It fails
// only on invalid input or when ctx is cancelled; items without a match
// are reported as unmatched.
func (m *Matcher) Reconcile(ctx context.Context, stmt *model.ParsedStatement, entries []model.LedgerEntry) (*model.ReconciliationResult, error) {
	if stmt == nil {
		return nil, &InputError{Kind: "statement", Ref: "<nil>", Reason: "missing statement"}
	}
	if err := validateInput(stmt.Transactions, entries); err != nil {
		return nil, err
	}

	r := &run{
		ctx:     ctx,
		cfg:     m.cfg,
		txns:    stmt.Transactions,
		entries: canonicalEntries(entries),
		txnUsed: make([]bool, len(stmt.Transactions)),
		entUsed: make([]bool, len(entries)),
	}

	passes := []struct {
		name string
		fn   func(*run) error
	}{
		{"exact", exactPass},
		{"aggregate", aggregatePass},
		{"fuzzy", fuzzyPass},
	}
	for _, p := range passes {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("reconciling %s: %w", stmt.File, err)
		}
		before := len(r.found)
		if err := p.fn(r); err != nil {
			return nil, fmt.Errorf("reconciling %s: %w", stmt.File, err)
		}
		m.log.Debug().Str("pass", p.name).Int("candidates", len(r.found)-before).Msg("pass complete")
	}

	return r.result(), nil
}

func validateInput(txns []model.ParsedTransaction, entries []model.LedgerEntry) error {
	for i, t := range txns {
		ref := t.SourceRef
		if ref == "" {
			ref = fmt.Sprintf("#%d", i+1)
		}
		switch {
		case t.Date.IsZero():
			return &InputError{Kind: "transaction", Ref: ref, Reason: "missing date"}
		case t.Amount.IsZero():
			return &InputError{Kind: "transaction", Ref: ref, Reason: "missing amount"}
		}
	}
	seen := make(map[string]bool, len(entries))
	for i, e := range entries {
		ref := e.ID
		if ref == "" {
			return &InputError{Kind: "ledger entry", Ref: fmt.Sprintf("#%d", i+1), Reason: "missing id"}
		}
		switch {
		case seen[e.ID]:
			return &InputError{Kind: "ledger entry", Ref: ref, Reason: "duplicate id"}
		case e.Date.IsZero():
			return &InputError{Kind: "ledger entry", Ref: ref, Reason: "missing date"}
		case e.Amount.IsZero():
			return &InputError{Kind: "ledger entry", Ref: ref, Reason: "missing amount"}
		}
		seen[e.ID] = true
	}
	return nil
}

// canonicalEntries orders entries by date then ID, so the caller's order
// never changes the result.
func canonicalEntries(entries []model.LedgerEntry) []model.LedgerEntry {
	out := append([]model.LedgerEntry(nil), entries...)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (r *run) result() *model.ReconciliationResult {
	sort.SliceStable(r.found, func(i, j int) bool {
		a, b := r.found[i], r.found[j]
		if a.txns[0] != b.txns[0] {
			return a.txns[0] < b.txns[0]
		}
		return a.entries[0] < b.entries[0]
	})

	res := &model.ReconciliationResult{}
	for _, c := range r.found {
		mc := model.MatchCandidate{Confidence: c.confidence, Reason: c.reason}
		for _, i := range c.txns {
			mc.Transactions = append(mc.Transactions, r.txns[i])
		}
		for _, j := range c.entries {
			mc.Entries = append(mc.Entries, r.entries[j])
		}
		mc.Difference = mc.TransactionTotal().Sub(mc.EntryTotal())
		if c.confidence >= r.cfg.ConfidenceThreshold {
			res.Accepted = append(res.Accepted, mc)
		} else {
			res.Review = append(res.Review, mc)
		}
	}
	for i, t := range r.txns {
		if !r.txnUsed[i] {
			res.UnmatchedTransactions = append(res.UnmatchedTransactions, t)
		}
	}
	for j, e := range r.entries {
		if !r.entUsed[j] {
			res.UnmatchedEntries = append(res.UnmatchedEntries, e)
		}
	}
	return res
}

// daysApart returns the whole days between the calendar dates of a and b.
func daysApart(a, b time.Time) int {
	da := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	db := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	d := int(da.Sub(db).Hours() / 24)
	if d < 0 {
		return -d
	}
	return d
}

func sameSign(a, b decimal.Decimal) bool {
	return a.Sign() == b.Sign()
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
