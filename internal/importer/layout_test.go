package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// word places text at (x, y) with a width proportional to its length.
func word(x, y float64, s string) fragment {
	return fragment{X: x, Y: y, W: float64(len(s)) * 5, Size: 10, S: s}
}

func TestBuildLines_GlyphsAndGaps(t *testing.T) {
	frags := []fragment{
		{X: 50, Y: 700, W: 6, Size: 10, S: "G"},
		{X: 56, Y: 700, W: 6, Size: 10, S: "O"},
		{X: 62, Y: 700, W: 3, Size: 10, S: " "},
		{X: 65, Y: 700.5, W: 6, Size: 10, S: "T"},
		{X: 71, Y: 700, W: 6, Size: 10, S: "O"},
		{X: 200, Y: 700, W: 25, Size: 10, S: "12.00"},
		{X: 50, Y: 680, W: 30, Size: 10, S: "second"},
	}
	lines := buildLines(1, frags)
	require.Len(t, lines, 2)

	require.Len(t, lines[0].Cells, 2)
	assert.Equal(t, "GO TO", lines[0].Cells[0].Text)
	assert.Equal(t, "12.00", lines[0].Cells[1].Text)
	assert.Equal(t, 1, lines[0].Num)
	assert.Equal(t, "page 1 line 2", lines[1].ref())
}

func TestExtractLayout_Anchors(t *testing.T) {
	page1 := buildLines(1, []fragment{
		word(50, 760, "Account Number: 9876543210"),
		word(50, 700, "Date"), word(120, 700, "Description"), word(350, 700, "Amount"), word(450, 700, "Balance"),
		word(50, 685, "05/01/2024"), word(120, 685, "COFFEE SHOP"), word(360, 685, "-4.50"), word(455, 685, "995.50"),
		word(120, 670, "ONLINE PAYMENT"), word(355, 670, "-100.00"), word(455, 670, "895.50"),
		word(120, 655, "REF 12345"),
	})
	page2 := buildLines(2, []fragment{
		word(50, 700, "06/01/2024"), word(120, 700, "SALARY"), word(350, 700, "2,000.00"), word(450, 700, "2,895.50"),
		word(120, 685, "Total"), word(350, 685, "1,895.50"),
	})
	tmpl := Template{Name: GenericTemplate}.resolved()

	ext := extractLayout(append(page1, page2...), &tmpl)
	stmt, err := normalize(ext, &tmpl)
	require.NoError(t, err)

	assert.Equal(t, "9876543210", stmt.AccountID)
	require.Len(t, stmt.Transactions, 3)

	assert.Equal(t, date(2024, 1, 5), stmt.Transactions[0].Date)
	assert.Equal(t, "COFFEE SHOP", stmt.Transactions[0].Description)
	assert.Equal(t, "page 1 line 3", stmt.Transactions[0].SourceRef)

	// no date: inherits the row above, wrapped text continues it
	assert.Equal(t, date(2024, 1, 5), stmt.Transactions[1].Date)
	assert.Equal(t, "ONLINE PAYMENT REF 12345", stmt.Transactions[1].Description)
	assert.Equal(t, "-100.00", stmt.Transactions[1].Amount.StringFixed(2))

	// page 2 has no header; anchors carry over and the total is ignored
	assert.Equal(t, date(2024, 1, 6), stmt.Transactions[2].Date)
	assert.Equal(t, "2000.00", stmt.Transactions[2].Amount.StringFixed(2))
	assert.Empty(t, stmt.Warnings)

	require.Len(t, ext.ignored, 1)
	assert.Equal(t, "page 2 line 2", ext.ignored[0].SourceRef)
}

func TestExtractLayout_Tokens(t *testing.T) {
	lines := buildLines(1, []fragment{
		word(50, 760, "Statement of account"),
		word(50, 700, "05 Jan 2024 CARD PAYMENT TESCO -12.40 987.60"),
		word(50, 685, "STORE 2231"),
		word(50, 670, "07 Jan 2024 TRANSFER FROM SAVINGS 500.00 1,487.60"),
		word(50, 655, "Page 1 of 1"),
	})
	tmpl := Template{Name: GenericTemplate}.resolved()

	ext := extractLayout(lines, &tmpl)
	assert.Equal(t, []string{"Statement of account"}, ext.preamble)

	stmt, err := normalize(ext, &tmpl)
	require.NoError(t, err)
	require.Len(t, stmt.Transactions, 2)

	assert.Equal(t, date(2024, 1, 5), stmt.Transactions[0].Date)
	assert.Equal(t, "CARD PAYMENT TESCO STORE 2231", stmt.Transactions[0].Description)
	assert.Equal(t, "-12.40", stmt.Transactions[0].Amount.StringFixed(2))
	assert.Equal(t, "987.60", stmt.Transactions[0].RunningBalance.StringFixed(2))

	assert.Equal(t, date(2024, 1, 7), stmt.Transactions[1].Date)
	assert.Equal(t, "500.00", stmt.Transactions[1].Amount.StringFixed(2))
	assert.Equal(t, "TRANSFER FROM SAVINGS", stmt.Transactions[1].Description)
	assert.Empty(t, stmt.Warnings)
}

func tokenStatement(t *testing.T, text ...string) *extraction {
	t.Helper()
	frags := make([]fragment, len(text))
	for i, s := range text {
		frags[i] = word(50, 700-15*float64(i), s)
	}
	tmpl := Template{Name: GenericTemplate}.resolved()
	return extractLayout(buildLines(1, frags), &tmpl)
}

func TestExtractTokens_AmountWithoutCents(t *testing.T) {
	tmpl := Template{Name: GenericTemplate}.resolved()

	t.Run("with balances", func(t *testing.T) {
		ext := tokenStatement(t,
			"05 Jan 2024 CARD PAYMENT TESCO -12.40 987.60",
			"06 Jan 2024 CASH WITHDRAWAL -40 947.60",
			"07 Jan 2024 TRANSFER FROM SAVINGS 500.00 1,447.60",
		)
		stmt, err := normalize(ext, &tmpl)
		require.NoError(t, err)
		require.Len(t, stmt.Transactions, 3)

		cash := stmt.Transactions[1]
		assert.Equal(t, "CASH WITHDRAWAL", cash.Description)
		assert.Equal(t, "-40.00", cash.Amount.StringFixed(2))
		require.NotNil(t, cash.RunningBalance)
		assert.Equal(t, "947.60", cash.RunningBalance.StringFixed(2))
		assert.Empty(t, stmt.Warnings)
	})

	t.Run("without balances", func(t *testing.T) {
		ext := tokenStatement(t,
			"05 Jan 2024 CARD PAYMENT TESCO -12.40",
			"06 Jan 2024 CASH WITHDRAWAL -40",
			"07 Jan 2024 TRANSFER FROM SAVINGS 500.00",
		)
		stmt, err := normalize(ext, &tmpl)
		require.NoError(t, err)
		require.Len(t, stmt.Transactions, 3)
		assert.Equal(t, "CASH WITHDRAWAL", stmt.Transactions[1].Description)
		assert.Equal(t, "-40.00", stmt.Transactions[1].Amount.StringFixed(2))
		assert.Zero(t, stmt.Skipped)
	})

	t.Run("reference number before a signed amount", func(t *testing.T) {
		ext := tokenStatement(t,
			"05 Jan 2024 CARD PAYMENT TESCO -12.40 987.60",
			"06 Jan 2024 CARD 1234 -7.60",
		)
		stmt, err := normalize(ext, &tmpl)
		require.NoError(t, err)
		require.Len(t, stmt.Transactions, 2)
		assert.Equal(t, "CARD 1234", stmt.Transactions[1].Description)
		assert.Equal(t, "-7.60", stmt.Transactions[1].Amount.StringFixed(2))
		assert.Nil(t, stmt.Transactions[1].RunningBalance)
	})
}

func TestExtractTokens_DatedLinesAreNeverDropped(t *testing.T) {
	lines := []string{
		"05 Jan 2024 OPENING BALANCE",
		"06 Jan 2024 CHEQUE 40",
		"07 Jan 2024 SALARY 2,000.00",
		"08 Jan 2024 REFUND 12.40 5",
	}
	tmpl := Template{Name: GenericTemplate}.resolved()
	stmt, err := normalize(tokenStatement(t, lines...), &tmpl)
	require.NoError(t, err)

	require.Len(t, stmt.Transactions, 1)
	assert.Equal(t, "SALARY", stmt.Transactions[0].Description)
	assert.Equal(t, 3, stmt.Skipped)
	assert.Equal(t, len(lines), len(stmt.Transactions)+stmt.Skipped)

	var refs []string
	for _, w := range stmt.Warnings {
		refs = append(refs, w.SourceRef)
	}
	assert.Equal(t, []string{"page 1 line 1", "page 1 line 2", "page 1 line 4"}, refs)
	assert.Contains(t, stmt.Warnings[0].Message, "no amount")
	assert.Contains(t, stmt.Warnings[1].Message, "ambiguous amount")
}
