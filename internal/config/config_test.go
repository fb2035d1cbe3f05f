package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/tally/internal/importer"
	"github.com/cleared-dev/tally/internal/reconcile"
)

func TestRoundTrip(t *testing.T) {
	cfg := Default("Test Biz", "llc_single_member")
	cfg.BankAccounts = []BankAccount{
		{Name: "Chase Checking", AccountID: 1010, Template: "chase", LastFour: "1234"},
	}
	cfg.Matching.AmountTolerance = decimal.RequireFromString("0.05")
	cfg.Matching.DateWindowDays = 5
	cfg.Templates = []importer.Template{{
		Name:             "sparkasse",
		Delimiter:        ";",
		Encoding:         "windows-1252",
		DecimalSeparator: ",",
		DateLayouts:      []string{"02.01.2006"},
		Columns:          importer.Columns{Date: []string{"Buchungstag"}, Amount: []string{"Betrag"}},
	}}

	path := filepath.Join(t.TempDir(), FileName)
	err := Save(path, cfg)
	require.NoError(t, err)

	got, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, cfg.Business, got.Business)
	assert.Equal(t, cfg.Git, got.Git)
	assert.Equal(t, cfg.Log, got.Log)
	assert.True(t, got.Matching.AmountTolerance.Equal(decimal.RequireFromString("0.05")))
	assert.Equal(t, 5, got.Matching.DateWindowDays)
	assert.InDelta(t, cfg.Matching.ConfidenceThreshold, got.Matching.ConfidenceThreshold, 0.001)
	require.Len(t, got.BankAccounts, 1)
	assert.Equal(t, cfg.BankAccounts[0], got.BankAccounts[0])
	require.Len(t, got.Templates, 1)
	assert.Equal(t, "windows-1252", got.Templates[0].Encoding)
	assert.Equal(t, []string{"Betrag"}, got.Templates[0].Columns.Amount)
}

func TestDefaults(t *testing.T) {
	cfg := Default("My Company", "llc_single_member")

	assert.Equal(t, "My Company", cfg.Business.Name)
	assert.Equal(t, "llc_single_member", cfg.Business.EntityType)
	assert.Equal(t, reconcile.DefaultConfig(), cfg.Matching.Reconcile())
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Log.Pretty)
	assert.True(t, cfg.Git.AutoCommit)
	assert.Equal(t, "Tally", cfg.Git.AuthorName)
	assert.Empty(t, cfg.BankAccounts)
	assert.Empty(t, cfg.Templates)
}

func TestLoadNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	yml := "business:\n  name: Side Gig\nmatching:\n  date_window_days: 7\n"
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Side Gig", cfg.Business.Name)
	assert.Equal(t, 7, cfg.Matching.DateWindowDays)
	assert.Equal(t, reconcile.DefaultConfig().MaxAggregateSize, cfg.Matching.MaxAggregateSize)
	assert.True(t, cfg.Git.AutoCommit)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		yml     string
		wantErr string
	}{
		{"bad yaml", "business: [", "parsing config"},
		{"threshold out of range", "matching:\n  confidence_threshold: 3\n", "confidence threshold"},
		{"bad tolerance", "matching:\n  amount_tolerance: lots\n", "parsing config"},
		{"template without name", "templates:\n  - delimiter: \";\"\n", "template name is required"},
		{"shadowed template", "templates:\n  - name: chase\n", "duplicate template"},
		{"bank account without id", "bank_accounts:\n  - name: Checking\n", "missing account_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), FileName)
			require.NoError(t, os.WriteFile(path, []byte(tt.yml), 0o644))
			_, err := Load(path)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestRegistry(t *testing.T) {
	cfg := Default("Biz", "")
	cfg.Templates = []importer.Template{{Name: "Revolut", DecimalSeparator: "."}}
	reg, err := cfg.Registry()
	require.NoError(t, err)

	_, ok := reg.Get("revolut")
	assert.True(t, ok)
	_, ok = reg.Get("chase")
	assert.True(t, ok)
}

func TestFindBankAccount(t *testing.T) {
	cfg := Default("Biz", "")
	cfg.BankAccounts = []BankAccount{
		{Name: "Chase Checking", AccountID: 1010, LastFour: "1234"},
		{Name: "Savings", AccountID: 1020},
	}

	for _, ref := range []string{"1010", "chase checking", "1234"} {
		b, ok := cfg.FindBankAccount(ref)
		require.True(t, ok, ref)
		assert.Equal(t, 1010, b.AccountID)
	}
	b, ok := cfg.FindBankAccount("Savings")
	require.True(t, ok)
	assert.Equal(t, 1020, b.AccountID)

	_, ok = cfg.FindBankAccount("9999")
	assert.False(t, ok)
}

func TestYAMLFormat(t *testing.T) {
	cfg := Default("Test Biz", "llc_single_member")
	path := filepath.Join(t.TempDir(), FileName)
	err := Save(path, cfg)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	contents := string(data)

	assert.Contains(t, contents, "name: Test Biz")
	assert.Contains(t, contents, "entity_type: llc_single_member")
	assert.Contains(t, contents, "date_window_days: 3")
	assert.Contains(t, contents, "confidence_threshold: 0.8")
	assert.Contains(t, contents, "auto_commit: true")
}
