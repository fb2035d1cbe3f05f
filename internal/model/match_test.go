package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func sampleResult() *ReconciliationResult {
	d := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	return &ReconciliationResult{
		Accepted: []MatchCandidate{{
			Transactions: []ParsedTransaction{
				{Date: d, Amount: decimal.RequireFromString("-30.00"), SourceRef: "row 2"},
				{Date: d, Amount: decimal.RequireFromString("-20.00"), SourceRef: "row 3"},
			},
			Entries:    []LedgerEntry{{ID: "2024-01-001", Date: d, Amount: decimal.RequireFromString("-50.00")}},
			Confidence: 0.88,
			Reason:     ReasonSplitAggregate,
		}},
		UnmatchedEntries: []LedgerEntry{{ID: "2024-01-002", Date: d, Amount: decimal.RequireFromString("10.00")}},
	}
}

func TestMatchCandidateTotals(t *testing.T) {
	c := sampleResult().Accepted[0]
	assert.Equal(t, "-50.00", c.TransactionTotal().StringFixed(2))
	assert.Equal(t, "-50.00", c.EntryTotal().StringFixed(2))
}

func TestSummary(t *testing.T) {
	s := sampleResult().Summary()
	assert.Equal(t, 1, s.Accepted)
	assert.Equal(t, 0, s.Review)
	assert.Equal(t, 2, s.MatchedTransactions)
	assert.Equal(t, 1, s.MatchedEntries)
	assert.Equal(t, 1, s.UnmatchedEntries)
}

func TestFingerprintStable(t *testing.T) {
	a := sampleResult()
	b := sampleResult()
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())

	b.Accepted[0].Confidence = 0.5
	assert.NotEqual(t, a.Fingerprint(), b.Fingerprint())
}

func TestParseFormat(t *testing.T) {
	assert.Equal(t, FormatDelimited, ParseFormat(".CSV"))
	assert.Equal(t, FormatDelimited, ParseFormat("tsv"))
	assert.Equal(t, FormatSpreadsheet, ParseFormat("xlsx"))
	assert.Equal(t, FormatDocument, ParseFormat("pdf"))
	assert.Equal(t, FormatUnknown, ParseFormat("xls"))
}

func TestDateRange(t *testing.T) {
	s := &ParsedStatement{}
	_, _, ok := s.DateRange()
	assert.False(t, ok)

	d1 := time.Date(2024, 1, 9, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	s.Transactions = []ParsedTransaction{{Date: d1}, {Date: d2}}
	from, to, ok := s.DateRange()
	assert.True(t, ok)
	assert.Equal(t, d2, from)
	assert.Equal(t, d1, to)
}
