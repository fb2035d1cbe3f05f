package model

// AccountType classifies accounts in the chart of accounts.
type AccountType string

const (
	AccountTypeAsset     AccountType = "asset"
	AccountTypeLiability AccountType = "liability"
	AccountTypeEquity    AccountType = "equity"
	AccountTypeRevenue   AccountType = "revenue"
	AccountTypeExpense   AccountType = "expense"
)

// Account represents a row in chart-of-accounts.csv.
type Account struct {
	ID          int
	Name        string
	Type        AccountType
	ParentID    int // 0 = top-level
	Description string
}

// HoldsCash reports whether statements can be reconciled against the account.
// Bank and card accounts live under assets and liabilities.
func (a Account) HoldsCash() bool {
	return a.Type == AccountTypeAsset || a.Type == AccountTypeLiability
}

// Valid reports whether t is one of the five account types.
func (t AccountType) Valid() bool {
	switch t {
	case AccountTypeAsset, AccountTypeLiability, AccountTypeEquity, AccountTypeRevenue, AccountTypeExpense:
		return true
	}
	return false
}
