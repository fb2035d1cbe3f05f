package importer

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/tally/internal/model"
)

// rawRow is one candidate transaction as cut out of the source, before
// any date or amount interpretation.
type rawRow struct {
	Ref         string
	Date        string
	DateValue   time.Time // set when the source stores a native date
	Description string
	Amount      string
	Debit       string
	Credit      string
	Balance     string
	Direction   string
}

func (r rawRow) hasAmount() bool {
	return r.Amount != "" || r.Debit != "" || r.Credit != ""
}

// extraction is what a format adapter hands to normalize.
type extraction struct {
	rows     []rawRow
	warnings []model.ParseWarning
	preamble []string // text above the transaction table
	ignored  []model.ParseWarning
}

func (e *extraction) warn(ref, format string, args ...any) {
	e.warnings = append(e.warnings, model.ParseWarning{SourceRef: ref, Message: fmt.Sprintf(format, args...)})
}

// ignore records a line that is deliberately not a transaction, such as a
// total or a page footer. Ignored lines are logged but not counted as skipped.
func (e *extraction) ignore(ref, format string, args ...any) {
	e.ignored = append(e.ignored, model.ParseWarning{SourceRef: ref, Message: fmt.Sprintf(format, args...)})
}

// normalize turns adapter rows into a ParsedStatement. Row problems become
// warnings; only statement-wide problems (no date format, mixed day/month
// order, mixed decimal separators) are returned as errors.
func normalize(ext *extraction, tmpl *Template) (*model.ParsedStatement, error) {
	var dateCells, amountCells []string
	nativeDates := 0
	for _, r := range ext.rows {
		switch {
		case !r.DateValue.IsZero():
			nativeDates++
		case r.Date != "":
			dateCells = append(dateCells, r.Date)
		}
		for _, c := range []string{r.Amount, r.Debit, r.Credit, r.Balance} {
			if c != "" {
				amountCells = append(amountCells, c)
			}
		}
	}

	layout, err := chooseDateLayout(dateCells, tmpl.DateLayouts)
	if err != nil {
		return nil, err
	}
	if layout == "" && len(dateCells) > 0 && nativeDates == 0 {
		return nil, fmt.Errorf("no date format matches %q", dateCells[0])
	}
	sep, err := chooseDecimalSeparator(amountCells, tmpl.DecimalSeparator)
	if err != nil {
		return nil, err
	}

	stmt := &model.ParsedStatement{
		Template:  tmpl.Name,
		AccountID: findAccountID(ext.preamble, tmpl),
		Warnings:  ext.warnings,
	}
	stmt.Skipped = len(ext.warnings)

	skip := func(ref, format string, args ...any) {
		stmt.Warnings = append(stmt.Warnings, model.ParseWarning{SourceRef: ref, Message: fmt.Sprintf(format, args...)})
		stmt.Skipped++
	}
	refs := make(map[string]int)

	for _, r := range ext.rows {
		date := r.DateValue
		if date.IsZero() {
			if r.Date == "" {
				skip(r.Ref, "missing date")
				continue
			}
			var ok bool
			if date, ok = parseDate(layout, r.Date); !ok {
				skip(r.Ref, "unparseable date %q (expected %s)", r.Date, layout)
				continue
			}
		}

		amount, err := signedAmount(r, sep, tmpl)
		if err != nil {
			skip(r.Ref, "%v", err)
			continue
		}
		if amount.IsZero() {
			skip(r.Ref, "zero amount")
			continue
		}

		txn := model.ParsedTransaction{
			Date:        date,
			Amount:      amount,
			Description: cleanDescription(r.Description),
			SourceRef:   r.Ref,
		}
		if r.Balance != "" {
			if bal, err := parseAmount(r.Balance, sep); err == nil {
				txn.RunningBalance = &bal
			} else {
				stmt.Warnings = append(stmt.Warnings, model.ParseWarning{SourceRef: r.Ref, Message: fmt.Sprintf("ignoring balance: %v", err)})
			}
		}

		ref := makeReference(tmpl.ReferencePrefix, date, txn.Description)
		refs[ref]++
		if n := refs[ref]; n > 1 {
			ref = fmt.Sprintf("%s-%d", ref, n)
		}
		txn.Reference = ref

		stmt.Transactions = append(stmt.Transactions, txn)
	}

	if !tmpl.InvertSign {
		stmt.Warnings = append(stmt.Warnings, checkBalances(stmt.Transactions)...)
	}
	return stmt, nil
}

// signedAmount applies the sign conventions, strongest first:
//  1. debit/credit columns: credit - debit, using absolute values;
//  2. a direction column holding a debit or credit marker;
//  3. a DR/CR marker in the amount cell;
//  4. the amount's own sign (minus, trailing minus, parentheses).
//
// invert_sign is applied to the result last.
func signedAmount(r rawRow, sep rune, tmpl *Template) (decimal.Decimal, error) {
	var amount decimal.Decimal
	switch {
	case r.Debit != "" || r.Credit != "":
		amount = decimal.Zero
		if r.Credit != "" {
			c, err := parseAmount(r.Credit, sep)
			if err != nil {
				return decimal.Decimal{}, fmt.Errorf("credit: %w", err)
			}
			amount = amount.Add(c.Abs())
		}
		if r.Debit != "" {
			d, err := parseAmount(r.Debit, sep)
			if err != nil {
				return decimal.Decimal{}, fmt.Errorf("debit: %w", err)
			}
			amount = amount.Sub(d.Abs())
		}
	case r.Amount != "":
		a, err := parseAmount(r.Amount, sep)
		if err != nil {
			return decimal.Decimal{}, err
		}
		amount = a
		switch direction(r.Direction, tmpl) {
		case markerDebit:
			amount = a.Abs().Neg()
		case markerCredit:
			amount = a.Abs()
		}
	default:
		return decimal.Decimal{}, fmt.Errorf("missing amount")
	}
	if tmpl.InvertSign {
		amount = amount.Neg()
	}
	return amount, nil
}

func direction(s string, tmpl *Template) marker {
	s = strings.TrimSpace(s)
	if s == "" {
		return markerNone
	}
	for _, m := range tmpl.DebitMarkers {
		if strings.EqualFold(s, m) {
			return markerDebit
		}
	}
	for _, m := range tmpl.CreditMarkers {
		if strings.EqualFold(s, m) {
			return markerCredit
		}
	}
	return markerNone
}

func cleanDescription(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// checkBalances warns about rows whose running balance does not follow from
// the previous row. The statement's order (oldest or newest first) is taken
// from whichever reading explains more rows.
func checkBalances(txns []model.ParsedTransaction) []model.ParseWarning {
	type pair struct{ prev, cur model.ParsedTransaction }
	var pairs []pair
	for i := 1; i < len(txns); i++ {
		if txns[i-1].RunningBalance != nil && txns[i].RunningBalance != nil {
			pairs = append(pairs, pair{txns[i-1], txns[i]})
		}
	}
	if len(pairs) == 0 {
		return nil
	}

	ascending := func(p pair) bool { return p.prev.RunningBalance.Add(p.cur.Amount).Equal(*p.cur.RunningBalance) }
	descending := func(p pair) bool { return p.cur.RunningBalance.Add(p.prev.Amount).Equal(*p.prev.RunningBalance) }
	asc, desc := 0, 0
	for _, p := range pairs {
		if ascending(p) {
			asc++
		}
		if descending(p) {
			desc++
		}
	}
	if asc == 0 && desc == 0 {
		return []model.ParseWarning{{
			SourceRef: pairs[0].cur.SourceRef,
			Message:   "running balance never follows the amounts; check the template's sign convention",
		}}
	}
	follows := ascending
	if desc > asc {
		follows = descending
	}
	var warnings []model.ParseWarning
	for _, p := range pairs {
		if !follows(p) {
			warnings = append(warnings, model.ParseWarning{
				SourceRef: p.cur.SourceRef,
				Message:   fmt.Sprintf("running balance %s does not follow previous balance %s", p.cur.RunningBalance.StringFixed(2), p.prev.RunningBalance.StringFixed(2)),
			})
		}
	}
	return warnings
}

var defaultAccountPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bIBAN\b\s*[:#]?\s*([A-Z]{2}[0-9]{2}(?:\s?[A-Z0-9]{4}){2,7}(?:\s?[A-Z0-9]{1,3})?)`),
	regexp.MustCompile(`(?i)\baccount\s*(?:number|no\.?|num|#)?\s*[:#]?\s*([0-9X*][0-9X*\- ]{2,}[0-9])`),
}

// findAccountID looks for an account number in the text above the table.
func findAccountID(preamble []string, tmpl *Template) string {
	if len(preamble) == 0 {
		return ""
	}
	text := strings.Join(preamble, "\n")
	patterns := defaultAccountPatterns
	if tmpl.accountRE != nil {
		patterns = []*regexp.Regexp{tmpl.accountRE}
	}
	for _, re := range patterns {
		if m := re.FindStringSubmatch(text); m != nil {
			return strings.Join(strings.Fields(m[1]), "")
		}
	}
	return ""
}
