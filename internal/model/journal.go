package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryStatus represents the lifecycle state of a journal entry.
type EntryStatus string

const (
	StatusAutoConfirmed EntryStatus = "auto-confirmed"
	StatusPendingReview EntryStatus = "pending-review"
	StatusUserConfirmed EntryStatus = "user-confirmed"
	StatusUserCorrected EntryStatus = "user-corrected"
	StatusVoided        EntryStatus = "voided"
)

// Leg is a single row in journal.csv (one side of a double-entry).
type Leg struct {
	EntryID      string          // "YYYY-MM-NNNx" where x = a,b,c...
	Date         time.Time       //nolint:revive // plain field name is clearest
	AccountID    int             //nolint:revive
	Description  string          //nolint:revive
	Debit        decimal.Decimal // zero if credit side
	Credit       decimal.Decimal // zero if debit side
	Counterparty string
	Reference    string
	Status       EntryStatus
	Tags         string // semicolon-separated
	Notes        string
}

// EntryGroup returns the base entry ID (without leg suffix).
// "2025-01-001a" -> "2025-01-001"
func (l Leg) EntryGroup() string {
	i := len(l.EntryID)
	for i > 0 && l.EntryID[i-1] >= 'a' && l.EntryID[i-1] <= 'z' {
		i--
	}
	return l.EntryID[:i]
}

// Net returns debit minus credit. For an asset account a positive
// value is money coming in.
func (l Leg) Net() decimal.Decimal {
	return l.Debit.Sub(l.Credit)
}
