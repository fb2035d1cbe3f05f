package accounts

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/tally/internal/model"
)

func TestRoundTrip(t *testing.T) {
	accounts := []model.Account{
		{ID: 1010, Name: "Business Checking", Type: model.AccountTypeAsset, Description: "Primary checking account"},
		{ID: 5020, Name: "Software & SaaS", Type: model.AccountTypeExpense},
		{ID: 5021, Name: "Cloud Hosting", Type: model.AccountTypeExpense, ParentID: 5020},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteAccounts(&buf, accounts))

	got, err := ReadAccounts(&buf)
	require.NoError(t, err)
	assert.Equal(t, accounts, got)
}

func TestReadAccounts_UnknownType(t *testing.T) {
	csv := strings.Join(Header, ",") + "\n1010,Checking,cash,,\n"
	_, err := ReadAccounts(strings.NewReader(csv))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 2")
	assert.Contains(t, err.Error(), `unknown account_type "cash"`)
}

func TestReadAccounts_Integrity(t *testing.T) {
	tests := []struct {
		name string
		csv  string
		want string
	}{
		{"duplicate id", "account_id,account_name,account_type\n1010,Checking,asset\n1010,Savings,asset\n", "row 3: duplicate account_id 1010"},
		{"unknown parent", "account_id,account_name,account_type,parent_id\n5021,Hosting,expense,5020\n", "unknown parent_id 5020"},
		{"missing column", "account_id,account_name\n1010,Checking\n", `missing column "account_type"`},
		{"missing name", "account_id,account_name,account_type\n1010,,asset\n", "missing account_name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadAccounts(strings.NewReader(tt.csv))
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestReadAccounts_MinimalColumns(t *testing.T) {
	csv := "Account_Type,Account_ID,Account_Name\nASSET,1010,Checking\n"
	got, err := ReadAccounts(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, model.Account{ID: 1010, Name: "Checking", Type: model.AccountTypeAsset}, got[0])
}

func TestUnmarshalAccount(t *testing.T) {
	acct, err := UnmarshalAccount([]string{"5021", "Cloud Hosting", "expense", "5020", ""})
	require.NoError(t, err)
	assert.Equal(t, 5020, acct.ParentID)

	_, err = UnmarshalAccount([]string{"5021", "Cloud Hosting"})
	assert.ErrorContains(t, err, "expected 5 fields")
}

func TestReadAccounts_Empty(t *testing.T) {
	got, err := ReadAccounts(strings.NewReader(""))
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestReadTestdata(t *testing.T) {
	f, err := os.Open("../../testdata/chart-of-accounts.csv")
	require.NoError(t, err)
	defer f.Close()

	accounts, err := ReadAccounts(f)
	require.NoError(t, err)
	require.Len(t, accounts, 9)

	types := make(map[model.AccountType]bool)
	for _, acct := range accounts {
		types[acct.Type] = true
	}
	assert.Len(t, types, 5, "testdata chart spans all account types")
	assert.Equal(t, "Legal, accounting, consulting", accounts[8].Description)
}

func TestDefaultChart(t *testing.T) {
	for _, kind := range []string{"small_business", "freelancer", "unknown"} {
		t.Run(kind, func(t *testing.T) {
			chart := DefaultChart(kind)
			require.NotEmpty(t, chart)

			ids := make(map[int]bool)
			for _, acct := range chart {
				assert.False(t, ids[acct.ID], "duplicate account %d", acct.ID)
				ids[acct.ID] = true
				assert.NotEmpty(t, acct.Name, "account %d missing name", acct.ID)
				assert.True(t, acct.Type.Valid(), "account %d has type %q", acct.ID, acct.Type)
			}
			assert.True(t, ids[1010], "every chart has a checking account")
		})
	}
}

func TestDefaultChartRoundTrip(t *testing.T) {
	chart := DefaultChart("small_business")

	var buf bytes.Buffer
	require.NoError(t, WriteAccounts(&buf, chart))

	got, err := ReadAccounts(&buf)
	require.NoError(t, err)
	assert.Equal(t, chart, got)
}
