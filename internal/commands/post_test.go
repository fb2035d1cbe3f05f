package commands_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/tally/internal/accounts"
	"github.com/cleared-dev/tally/internal/ledger"
)

func TestPost_WritesBalancedEntry(t *testing.T) {
	dir := initProject(t)

	out, err := runTally(t, "post", "--repo", dir, "--date", "2025-01-03",
		"--description", "GitHub Pro", "--debit", "software & saas", "--credit", "1010", "--amount", "4.00")
	require.NoError(t, err, out)
	assert.Contains(t, out, "2025-01-001")
	assert.Contains(t, out, "Business Checking -> Software & SaaS  4.00")

	_, err = runTally(t, "post", "--repo", dir, "--date", "2025-01-09",
		"--description", "Invoice 12", "--debit", "1010", "--credit", "4010", "--amount", "3500", "--reference", "INV-12")
	require.NoError(t, err)

	chart, err := accounts.Load(dir)
	require.NoError(t, err)
	legs, err := ledger.NewJournal(dir, chart).ReadMonth(2025, 1)
	require.NoError(t, err)
	require.Len(t, legs, 4)
	assert.Equal(t, "2025-01-002a", legs[2].EntryID)
	assert.Equal(t, "INV-12", legs[2].Reference)

	entries, err := ledger.NewExtractor(dir, chart).Entries(1010, jan(1), jan(31))
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "-4", entries[0].Amount.String())
	assert.Equal(t, "Service Revenue", entries[1].Account)
}

func TestPost_Errors(t *testing.T) {
	dir := initProject(t)
	base := []string{"post", "--repo", dir, "--description", "x"}

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"bad date", []string{"--date", "03/01/2025", "--debit", "5020", "--credit", "1010", "--amount", "1"}, "invalid --date"},
		{"negative amount", []string{"--date", "2025-01-03", "--debit", "5020", "--credit", "1010", "--amount", "-1"}, "invalid --amount"},
		{"unknown account", []string{"--date", "2025-01-03", "--debit", "9999", "--credit", "1010", "--amount", "1"}, "unknown account 9999"},
		{"same account", []string{"--date", "2025-01-03", "--debit", "1010", "--credit", "1010", "--amount", "1"}, "both 1010"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runTally(t, append(base, tt.args...)...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
