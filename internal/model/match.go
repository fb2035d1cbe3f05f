package model

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/shopspring/decimal"
)

// MatchReason names the pass that produced a candidate.
type MatchReason string

const (
	ReasonExact            MatchReason = "exact-amount-date"
	ReasonSplitAggregate   MatchReason = "split-aggregate" // several bank rows, one entry
	ReasonBatchAggregate   MatchReason = "batch-aggregate" // one bank row, several entries
	ReasonFuzzyDescription MatchReason = "fuzzy-description"
)

// MatchCandidate links one or more bank transactions to one or more ledger entries.
type MatchCandidate struct {
	Transactions []ParsedTransaction
	Entries      []LedgerEntry
	Confidence   float64
	Reason       MatchReason
	Difference   decimal.Decimal // sum(transactions) - sum(entries)
}

// TransactionTotal sums the bank side of the candidate.
func (c MatchCandidate) TransactionTotal() decimal.Decimal {
	total := decimal.Zero
	for _, t := range c.Transactions {
		total = total.Add(t.Amount)
	}
	return total
}

// EntryTotal sums the ledger side of the candidate.
func (c MatchCandidate) EntryTotal() decimal.Decimal {
	total := decimal.Zero
	for _, e := range c.Entries {
		total = total.Add(e.Amount)
	}
	return total
}

// ReconciliationResult is the immutable outcome of one matcher run.
type ReconciliationResult struct {
	Accepted              []MatchCandidate // at or above the confidence threshold
	Review                []MatchCandidate // below threshold, for manual disposition
	UnmatchedTransactions []ParsedTransaction
	UnmatchedEntries      []LedgerEntry
}

// Summary holds the counts of a result.
type Summary struct {
	Accepted              int `json:"accepted"`
	Review                int `json:"review"`
	MatchedTransactions   int `json:"matched_transactions"`
	MatchedEntries        int `json:"matched_entries"`
	UnmatchedTransactions int `json:"unmatched_transactions"`
	UnmatchedEntries      int `json:"unmatched_entries"`
}

// Summary counts candidates and matched/unmatched items.
func (r *ReconciliationResult) Summary() Summary {
	s := Summary{
		Accepted:              len(r.Accepted),
		Review:                len(r.Review),
		UnmatchedTransactions: len(r.UnmatchedTransactions),
		UnmatchedEntries:      len(r.UnmatchedEntries),
	}
	for _, set := range [][]MatchCandidate{r.Accepted, r.Review} {
		for _, c := range set {
			s.MatchedTransactions += len(c.Transactions)
			s.MatchedEntries += len(c.Entries)
		}
	}
	return s
}

// Fingerprint returns a hex sha256 of the result's canonical JSON encoding.
// Two runs over identical inputs and configuration share a fingerprint.
func (r *ReconciliationResult) Fingerprint() string {
	data, err := json.Marshal(r)
	if err != nil {
		// Every field is JSON-encodable.
		panic("marshaling reconciliation result: " + err.Error())
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
