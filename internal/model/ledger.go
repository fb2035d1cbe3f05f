package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerEntry is a booked accounting entry as seen from one bank account.
type LedgerEntry struct {
	ID          string
	Date        time.Time
	Amount      decimal.Decimal // signed like ParsedTransaction.Amount
	Account     string          // counter account name
	Description string
}
