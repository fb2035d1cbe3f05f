package accounts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/tally/internal/model"
)

func TestGetExists(t *testing.T) {
	svc := NewService(DefaultChart("small_business"))

	acct, ok := svc.Get(1010)
	assert.True(t, ok)
	assert.Equal(t, "Business Checking", acct.Name)

	_, ok = svc.Get(9999)
	assert.False(t, ok)

	assert.True(t, svc.Exists(1010))
	assert.False(t, svc.Exists(9999))

	assert.Equal(t, "Bank Fees", svc.Name(5060))
	assert.Equal(t, "9999", svc.Name(9999))
}

func TestCash(t *testing.T) {
	svc := NewService(DefaultChart("small_business"))

	cash := svc.Cash()
	require.Len(t, cash, 6)
	assert.Equal(t, 1010, cash[0].ID)
	for _, a := range cash {
		assert.True(t, a.HoldsCash())
		assert.NotEqual(t, model.AccountTypeExpense, a.Type)
	}
}

func TestFind(t *testing.T) {
	svc := NewService(DefaultChart("small_business"))

	tests := []struct {
		ref    string
		wantID int
		errMsg string
	}{
		{"1010", 1010, ""},
		{" business checking ", 1010, ""},
		{"Credit Card", 2010, ""},
		{"4242", 0, "unknown account 4242"},
		{"Petty Cash", 0, `unknown account "Petty Cash"`},
	}
	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			acct, err := svc.Find(tt.ref)
			if tt.errMsg != "" {
				assert.EqualError(t, err, tt.errMsg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, acct.ID)
		})
	}
}

func TestLoadFromTestdata(t *testing.T) {
	dir := t.TempDir()
	acctDir := filepath.Join(dir, "accounts")
	require.NoError(t, os.MkdirAll(acctDir, 0o755))

	src, err := os.ReadFile("../../testdata/chart-of-accounts.csv")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(acctDir, "chart-of-accounts.csv"), src, 0o644))

	svc, err := Load(dir)
	require.NoError(t, err)
	assert.Len(t, svc.All(), 9)
	assert.True(t, svc.Exists(5021))
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "opening chart of accounts")
}

func TestSaveRoundTrip(t *testing.T) {
	chart := DefaultChart("freelancer")
	svc := NewService(chart)

	dir := t.TempDir()
	require.NoError(t, svc.Save(dir))

	svc2, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, chart, svc2.All())
}
