package accounts

import "github.com/cleared-dev/tally/internal/model"

// DefaultChart returns the starter chart of accounts for a business kind.
func DefaultChart(kind string) []model.Account {
	switch kind {
	case "freelancer":
		return freelancerChart()
	default:
		return smallBusinessChart()
	}
}

func smallBusinessChart() []model.Account {
	return []model.Account{
		{ID: 1010, Name: "Business Checking", Type: model.AccountTypeAsset, Description: "Primary checking account"},
		{ID: 1020, Name: "Business Savings", Type: model.AccountTypeAsset, Description: "Savings account"},
		{ID: 1090, Name: "Undeposited Funds", Type: model.AccountTypeAsset, Description: "Receipts awaiting deposit"},
		{ID: 1200, Name: "Accounts Receivable", Type: model.AccountTypeAsset},
		{ID: 2010, Name: "Credit Card", Type: model.AccountTypeLiability, Description: "Business credit card"},
		{ID: 2100, Name: "Accounts Payable", Type: model.AccountTypeLiability},
		{ID: 3010, Name: "Owner's Equity", Type: model.AccountTypeEquity},
		{ID: 4010, Name: "Service Revenue", Type: model.AccountTypeRevenue},
		{ID: 4020, Name: "Product Revenue", Type: model.AccountTypeRevenue},
		{ID: 5010, Name: "Payroll", Type: model.AccountTypeExpense},
		{ID: 5020, Name: "Software & SaaS", Type: model.AccountTypeExpense, Description: "Software subscriptions"},
		{ID: 5030, Name: "Office Supplies", Type: model.AccountTypeExpense},
		{ID: 5040, Name: "Professional Services", Type: model.AccountTypeExpense, Description: "Legal, accounting, consulting"},
		{ID: 5060, Name: "Bank Fees", Type: model.AccountTypeExpense, Description: "Account and card fees"},
	}
}

func freelancerChart() []model.Account {
	return []model.Account{
		{ID: 1010, Name: "Checking", Type: model.AccountTypeAsset},
		{ID: 2010, Name: "Credit Card", Type: model.AccountTypeLiability},
		{ID: 3010, Name: "Owner's Equity", Type: model.AccountTypeEquity},
		{ID: 4010, Name: "Client Income", Type: model.AccountTypeRevenue},
		{ID: 5020, Name: "Software & SaaS", Type: model.AccountTypeExpense},
		{ID: 5060, Name: "Bank Fees", Type: model.AccountTypeExpense},
	}
}
