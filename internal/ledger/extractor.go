package ledger

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/tally/internal/model"
)

// AccountDirectory resolves account IDs for ledger entries.
type AccountDirectory interface {
	AccountChecker
	Name(id int) string
}

// Extractor projects journal entries onto one bank account.
type Extractor struct {
	journal  *Journal
	accounts AccountDirectory
}

// NewExtractor creates an Extractor over the journals in repoRoot.
func NewExtractor(repoRoot string, accounts AccountDirectory) *Extractor {
	return &Extractor{journal: NewJournal(repoRoot, accounts), accounts: accounts}
}

// splitAccount names the counter-account of entries with several.
const splitAccount = "split"

// Entries returns the ledger entries that move money on bankAccountID between
// from and to inclusive, ordered by date then ID. The amount is the bank
// leg's debit minus credit, so money in is positive. Voided entries are
// skipped; an unbalanced entry fails with a ValidationError.
func (x *Extractor) Entries(bankAccountID int, from, to time.Time) ([]model.LedgerEntry, error) {
	if !x.accounts.Exists(bankAccountID) {
		return nil, fmt.Errorf("unknown account %d", bankAccountID)
	}
	from, to = day(from), day(to)
	if to.Before(from) {
		return nil, fmt.Errorf("empty date range %s..%s", from.Format(dateFormat), to.Format(dateFormat))
	}

	var entries []model.LedgerEntry
	for m := time.Date(from.Year(), from.Month(), 1, 0, 0, 0, 0, time.UTC); !m.After(to); m = m.AddDate(0, 1, 0) {
		legs, err := x.journal.ReadMonth(m.Year(), int(m.Month()))
		if err != nil {
			return nil, err
		}
		for _, g := range groupLegs(legs) {
			entry, ok, err := x.project(g, bankAccountID)
			if err != nil {
				return nil, err
			}
			if !ok || entry.Date.Before(from) || entry.Date.After(to) {
				continue
			}
			entries = append(entries, entry)
		}
	}

	sort.SliceStable(entries, func(i, k int) bool {
		if !entries[i].Date.Equal(entries[k].Date) {
			return entries[i].Date.Before(entries[k].Date)
		}
		return entries[i].ID < entries[k].ID
	})
	return entries, nil
}

func (x *Extractor) project(g legGroup, bankAccountID int) (model.LedgerEntry, bool, error) {
	for _, leg := range g.legs {
		if leg.Status == model.StatusVoided {
			return model.LedgerEntry{}, false, nil
		}
	}
	if verr := checkBalanced(g.id, g.legs); verr != nil {
		return model.LedgerEntry{}, false, *verr
	}

	var bank *model.Leg
	amount := decimal.Zero
	counter := make(map[int]bool)
	var counterIDs []int
	for i, leg := range g.legs {
		if leg.AccountID == bankAccountID {
			if bank == nil {
				bank = &g.legs[i]
			}
			amount = amount.Add(leg.Net())
			continue
		}
		if !counter[leg.AccountID] {
			counter[leg.AccountID] = true
			counterIDs = append(counterIDs, leg.AccountID)
		}
	}
	if bank == nil || amount.IsZero() {
		return model.LedgerEntry{}, false, nil
	}

	account := splitAccount
	if len(counterIDs) == 1 {
		account = x.accounts.Name(counterIDs[0])
	}
	desc := bank.Description
	if strings.TrimSpace(desc) == "" {
		desc = bank.Counterparty
	}
	return model.LedgerEntry{
		ID:          g.id,
		Date:        day(bank.Date),
		Amount:      amount,
		Account:     account,
		Description: desc,
	}, true, nil
}

func day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
