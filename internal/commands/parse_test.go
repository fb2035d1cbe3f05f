package commands_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chaseFixture = "../../testdata/chase_checking.csv"

func TestParse_Text(t *testing.T) {
	out, err := runTally(t, "parse", chaseFixture, "--template", "chase", "--repo", t.TempDir())
	require.NoError(t, err)

	assert.Contains(t, out, "chase_checking.csv (csv, template chase)")
	assert.Contains(t, out, "GITHUB *PRO SUBSCRIPTION")
	assert.Contains(t, out, "2025-01-15")
	assert.Contains(t, out, "6 transactions, 0 skipped")
	assert.NotContains(t, out, "warning:")
}

func TestParse_JSON(t *testing.T) {
	out, err := runTally(t, "parse", chaseFixture, "--template", "chase", "--json", "--repo", t.TempDir())
	require.NoError(t, err)

	var stmt struct {
		File         string `json:"file"`
		Template     string `json:"template"`
		Transactions []struct {
			Date    string  `json:"date"`
			Amount  string  `json:"amount"`
			Balance *string `json:"balance"`
			Ref     string  `json:"reference"`
		} `json:"transactions"`
		Warnings []any `json:"warnings"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &stmt))
	assert.Equal(t, "chase_checking.csv", stmt.File)
	assert.Equal(t, "chase", stmt.Template)
	require.Len(t, stmt.Transactions, 6)
	assert.Equal(t, "2025-01-03", stmt.Transactions[0].Date)
	assert.Equal(t, "-4.00", stmt.Transactions[0].Amount)
	require.NotNil(t, stmt.Transactions[0].Balance)
	assert.Equal(t, "4996.00", *stmt.Transactions[0].Balance)
	assert.Equal(t, "chase_20250103_GITHUBPROS", stmt.Transactions[0].Ref)
	assert.Empty(t, stmt.Warnings)
}

func TestParse_ProjectTemplate(t *testing.T) {
	dir := initProject(t)
	cfgPath := filepath.Join(dir, "tally.yaml")
	data, err := os.ReadFile(cfgPath)
	require.NoError(t, err)
	data = append(data, []byte(`templates:
  - name: semicolon
    delimiter: ";"
    decimal_separator: ","
    date_layouts: ["02.01.2006"]
`)...)
	require.NoError(t, os.WriteFile(cfgPath, data, 0o644))

	stmtPath := filepath.Join(t.TempDir(), "export.csv")
	csv := "Datum;Text;Betrag\n03.01.2025;Miete;-1.200,00\n05.01.2025;Gutschrift;250,50\n"
	require.NoError(t, os.WriteFile(stmtPath, []byte(csv), 0o644))

	out, err := runTally(t, "parse", stmtPath, "--template", "semicolon", "--repo", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "-1200.00")
	assert.Contains(t, out, "250.50")
	assert.Contains(t, out, "2 transactions, 0 skipped")
}

func TestParse_Errors(t *testing.T) {
	_, err := runTally(t, "parse", chaseFixture, "--format", "docx", "--repo", t.TempDir())
	assert.ErrorContains(t, err, "unknown format")

	_, err = runTally(t, "parse", chaseFixture, "--template", "nope", "--repo", t.TempDir())
	assert.ErrorContains(t, err, "nope")

	_, err = runTally(t, "parse", "missing.csv", "--repo", t.TempDir())
	assert.ErrorContains(t, err, "reading statement")
}

func TestTemplates(t *testing.T) {
	out, err := runTally(t, "templates", "--repo", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "chase")
	assert.Contains(t, out, "generic")
}

func TestImport(t *testing.T) {
	dir := initProject(t)
	data, err := os.ReadFile(chaseFixture)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "import", "chase_checking.csv"), data, 0o644))

	out, err := runTally(t, "import", "--repo", dir, "--template", "chase", "--mark-processed")
	require.NoError(t, err)
	assert.Contains(t, out, "chase_checking.csv: 6 transactions, 0 warnings (2025-01-03 to 2025-01-22)")

	_, err = os.Stat(filepath.Join(dir, "import", "processed", "chase_checking.csv"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "import", "chase_checking.csv"))
	assert.True(t, os.IsNotExist(err))
}

func TestImport_ReportsFailures(t *testing.T) {
	dir := initProject(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "import", "empty.csv"), nil, 0o644))
	data, err := os.ReadFile(chaseFixture)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "import", "chase.csv"), data, 0o644))

	out, err := runTally(t, "import", "--repo", dir, "--template", "chase", "--mark-processed")
	assert.ErrorContains(t, err, "1 of 2 statements failed")
	assert.Contains(t, out, "chase.csv: 6 transactions")
	assert.Contains(t, out, "empty.csv:")

	_, err = os.Stat(filepath.Join(dir, "import", "empty.csv"))
	assert.NoError(t, err, "failed files stay in import/")
}

func TestImport_NoProject(t *testing.T) {
	_, err := runTally(t, "import", "--repo", t.TempDir())
	assert.ErrorContains(t, err, "reading config")
}
