package importer

import (
	"fmt"
	"strings"
	"time"
)

// gridRow is one row of a delimited file or worksheet.
type gridRow struct {
	Ref   string
	Cells []string
}

func (r gridRow) blank() bool {
	for _, c := range r.Cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func (r gridRow) text() string {
	var parts []string
	for _, c := range r.Cells {
		if c = strings.TrimSpace(c); c != "" {
			parts = append(parts, c)
		}
	}
	return strings.Join(parts, " ")
}

// nativeDateFunc decodes dates stored natively by the source (spreadsheet serials).
type nativeDateFunc func(cell string) (time.Time, bool)

// extractGrid maps a table to raw rows: it finds the header (one row, or
// two rows for merged group headers), falls back to template positions or
// content inference for headerless tables, and cuts every later row into
// canonical fields.
func extractGrid(all []gridRow, tmpl *Template, nativeDate nativeDateFunc) (*extraction, error) {
	ext := &extraction{}
	var rows []gridRow
	for _, r := range all {
		if !r.blank() {
			rows = append(rows, r)
		}
	}
	if len(rows) == 0 {
		return ext, nil
	}

	isDate := func(s string) bool {
		if nativeDate != nil {
			if _, ok := nativeDate(s); ok {
				return true
			}
		}
		return looksLikeDate(s, tmpl.DateLayouts)
	}

	var cols columnMap
	var header string
	start := 0
	switch {
	case len(tmpl.Positions) > 0:
		cols = make(columnMap, len(tmpl.Positions))
		for f, i := range tmpl.Positions {
			cols[f] = i
		}
		start = firstDataRow(rows, cols, isDate)
	default:
		var ok bool
		if cols, start, ok = findHeader(rows, tmpl); ok {
			header = normalizeHeader(rows[start-1].text())
			break
		}
		grid := make([][]string, len(rows))
		for i, r := range rows {
			grid[i] = r.Cells
		}
		if cols, ok = inferColumns(grid, tmpl.DateLayouts); !ok {
			return nil, fmt.Errorf("no date and amount columns found")
		}
		start = firstDataRow(rows, cols, isDate)
	}

	for _, r := range rows[:start] {
		ext.preamble = append(ext.preamble, r.text())
	}
	for _, r := range rows[start:] {
		if header != "" && normalizeHeader(r.text()) == header {
			continue
		}
		raw := rawRow{
			Ref:         r.Ref,
			Date:        cols.cell(r.Cells, FieldDate),
			Description: cols.cell(r.Cells, FieldDescription),
			Amount:      cols.cell(r.Cells, FieldAmount),
			Debit:       cols.cell(r.Cells, FieldDebit),
			Credit:      cols.cell(r.Cells, FieldCredit),
			Balance:     cols.cell(r.Cells, FieldBalance),
			Direction:   cols.cell(r.Cells, FieldDirection),
		}
		if raw.Date == "" && raw.Description == "" && !raw.hasAmount() {
			continue
		}
		if nativeDate != nil && raw.Date != "" {
			if t, ok := nativeDate(raw.Date); ok {
				raw.DateValue = t
			}
		}
		ext.rows = append(ext.rows, raw)
	}
	return ext, nil
}

// findHeader searches the first rows for a header. A header row is also
// combined with the row below it, the lower cell winning, so "Amount"
// merged over "Debit | Credit" maps both columns; the combination is used
// only when it maps more fields than either row alone. start is the index
// of the first row after the header.
func findHeader(rows []gridRow, tmpl *Template) (cols columnMap, start int, ok bool) {
	limit := min(tmpl.HeaderScanRows, len(rows))
	for i := 0; i < limit; i++ {
		single := mapHeader(rows[i].Cells, tmpl.Columns)
		var next, combined columnMap
		if i+1 < len(rows) {
			next = mapHeader(rows[i+1].Cells, tmpl.Columns)
			combined = mapHeader(combineHeader(rows[i].Cells, rows[i+1].Cells), tmpl.Columns)
		}
		if single.valid() {
			if combined.valid() && len(combined) > len(single) {
				return combined, i + 2, true
			}
			return single, i + 1, true
		}
		if len(single) > 0 && combined.valid() && len(combined) > len(next) {
			return combined, i + 2, true
		}
	}
	return nil, 0, false
}

func combineHeader(upper, lower []string) []string {
	out := make([]string, max(len(upper), len(lower)))
	for i := range out {
		if i < len(lower) && strings.TrimSpace(lower[i]) != "" {
			out[i] = lower[i]
		} else if i < len(upper) {
			out[i] = upper[i]
		}
	}
	return out
}

// firstDataRow skips preamble rows of a headerless table: data starts at
// the first row whose date cell holds a date.
func firstDataRow(rows []gridRow, cols columnMap, isDate func(string) bool) int {
	for i, r := range rows {
		if d := cols.cell(r.Cells, FieldDate); d != "" && isDate(d) {
			return i
		}
	}
	return 0
}
