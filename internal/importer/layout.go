package importer

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
)

// fragment is a run of text placed on a document page. Y grows upwards.
type fragment struct {
	X, Y, W float64
	Size    float64
	S       string
}

// textCell is a horizontal run of fragments without a column-sized gap.
type textCell struct {
	X0, X1 float64
	Text   string
}

// textLine is one visual line of a page.
type textLine struct {
	Page  int
	Num   int // 1-based within the page
	Y     float64
	Cells []textCell
}

func (l textLine) text() string {
	parts := make([]string, len(l.Cells))
	for i, c := range l.Cells {
		parts[i] = c.Text
	}
	return strings.Join(parts, " ")
}

func (l textLine) ref() string {
	return fmt.Sprintf("page %d line %d", l.Page, l.Num)
}

const defaultFontSize = 10

// buildLines groups the fragments of one page into lines by baseline and
// each line into cells by horizontal gaps. A gap wider than the font size
// separates columns; a smaller visible gap is a word space.
func buildLines(page int, frags []fragment) []textLine {
	sorted := make([]fragment, 0, len(frags))
	for _, f := range frags {
		if f.Size <= 0 {
			f.Size = defaultFontSize
		}
		sorted = append(sorted, f)
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Y != sorted[j].Y {
			return sorted[i].Y > sorted[j].Y
		}
		return sorted[i].X < sorted[j].X
	})

	var groups [][]fragment
	for _, f := range sorted {
		if n := len(groups); n > 0 {
			first := groups[n-1][0]
			if math.Abs(first.Y-f.Y) <= math.Max(first.Size, f.Size)*0.4 {
				groups[n-1] = append(groups[n-1], f)
				continue
			}
		}
		groups = append(groups, []fragment{f})
	}

	var lines []textLine
	for _, g := range groups {
		sort.SliceStable(g, func(i, j int) bool { return g[i].X < g[j].X })
		line := textLine{Page: page, Y: g[0].Y}
		var cur *textCell
		space := false
		for _, f := range g {
			if strings.TrimSpace(f.S) == "" {
				space = true
				continue
			}
			switch {
			case cur == nil || f.X-cur.X1 > f.Size:
				line.Cells = append(line.Cells, textCell{X0: f.X, X1: f.X + f.W, Text: strings.TrimSpace(f.S)})
				cur = &line.Cells[len(line.Cells)-1]
			default:
				if space || f.X-cur.X1 > f.Size*0.15 || strings.HasPrefix(f.S, " ") {
					cur.Text += " "
				}
				cur.Text += strings.TrimSpace(f.S)
				cur.X1 = math.Max(cur.X1, f.X+f.W)
			}
			space = strings.HasSuffix(f.S, " ")
		}
		if len(line.Cells) > 0 {
			lines = append(lines, line)
		}
	}
	for i := range lines {
		lines[i].Num = i + 1
	}
	return lines
}

// anchor is the horizontal extent of one header cell.
type anchor struct {
	field  Field
	x0, x1 float64
}

func headerAnchors(l textLine, cols Columns) ([]anchor, bool) {
	texts := make([]string, len(l.Cells))
	for i, c := range l.Cells {
		texts[i] = c.Text
	}
	m := mapHeader(texts, cols)
	if !m.valid() {
		return nil, false
	}
	anchors := make([]anchor, 0, len(m))
	for _, f := range fieldOrder {
		if i, ok := m[f]; ok {
			anchors = append(anchors, anchor{field: f, x0: l.Cells[i].X0, x1: l.Cells[i].X1})
		}
	}
	return anchors, true
}

// assign places each cell under the anchor it overlaps most, or the
// nearest one. Cells landing on the same field are joined.
func assign(l textLine, anchors []anchor) map[Field]string {
	out := make(map[Field]string)
	for _, c := range l.Cells {
		best, bestOverlap, bestDist := -1, 0.0, math.Inf(1)
		for i, a := range anchors {
			overlap := math.Min(c.X1, a.x1) - math.Max(c.X0, a.x0)
			dist := math.Max(a.x0-c.X1, c.X0-a.x1)
			switch {
			case overlap > bestOverlap:
				best, bestOverlap = i, overlap
			case bestOverlap == 0 && overlap <= 0 && dist < bestDist:
				best, bestDist = i, dist
			}
		}
		if best < 0 {
			continue
		}
		f := anchors[best].field
		if out[f] != "" {
			out[f] += " "
		}
		out[f] += c.Text
	}
	return out
}

// summaryLine matches lines that carry amounts without being transactions.
var summaryLine = regexp.MustCompile(`(?i)\b(total|subtotal|balance|brought forward|carried forward)\b`)

// money is a stricter amount test for headerless layouts: it needs cents.
var money = regexp.MustCompile(`[.,][0-9]{2}\)?(\s*-|\s*(CR|DR))?$`)

func looksLikeMoney(s string) bool {
	return looksLikeAmount(s) && money.MatchString(strings.ToUpper(strings.TrimSpace(s)))
}

// extractLayout rebuilds statement rows from positioned lines.
//
// A header line fixes column anchors; it is looked for again on every page
// and the previous anchors carry over to pages without one. Without any
// header the token layout is used. Lines holding only description text
// continue the row directly above; a line with amounts but no date
// inherits the date of the row above.
func extractLayout(lines []textLine, tmpl *Template) *extraction {
	ext := &extraction{}
	var anchors []anchor
	for _, l := range lines {
		if _, ok := headerAnchors(l, tmpl.Columns); ok {
			anchors = []anchor{}
			break
		}
	}
	if anchors == nil {
		return extractTokens(lines, tmpl)
	}

	last := -1
	var lastLine textLine
	for _, l := range lines {
		if a, ok := headerAnchors(l, tmpl.Columns); ok {
			anchors = a
			last = -1
			continue
		}
		if len(anchors) == 0 {
			ext.preamble = append(ext.preamble, l.text())
			continue
		}

		cells := assign(l, anchors)
		row := rawRow{
			Ref:         l.ref(),
			Date:        cells[FieldDate],
			Description: cells[FieldDescription],
			Amount:      cells[FieldAmount],
			Debit:       cells[FieldDebit],
			Credit:      cells[FieldCredit],
			Balance:     cells[FieldBalance],
			Direction:   cells[FieldDirection],
		}
		if row.Date != "" && !looksLikeDate(row.Date, tmpl.DateLayouts) && !row.hasAmount() {
			// date column text without amounts: a wrapped description
			row.Description = strings.TrimSpace(row.Date + " " + row.Description)
			row.Date = ""
		}
		contiguous := last >= 0 && l.Page == lastLine.Page && l.Num == lastLine.Num+1

		switch {
		case row.Date == "" && !row.hasAmount():
			if contiguous && row.Description != "" && row.Balance == "" {
				ext.rows[last].Description += " " + row.Description
				lastLine = l
			}
			continue
		case row.Date == "":
			if last < 0 || summaryLine.MatchString(row.Description) {
				ext.ignore(l.ref(), "amounts without a date: %q", l.text())
				continue
			}
			row.Date = ext.rows[last].Date
		}
		ext.rows = append(ext.rows, row)
		last = len(ext.rows) - 1
		lastLine = l
	}
	return ext
}

// extractTokens reads headerless layouts: a row is a line starting with a
// date (one to three tokens) and ending in one or two amounts, the second
// being the running balance.
//
// Amounts written without cents are accepted when the line leaves no doubt:
// in a statement whose rows carry balances the token before the balance is
// the amount unless only the last token is signed; otherwise a lone cents-less amount must carry a sign or a
// DR/CR marker. Every dated line becomes a row or a warning.
func extractTokens(lines []textLine, tmpl *Template) *extraction {
	ext := &extraction{}
	split := make([]tokenLine, len(lines))
	balances := false
	for i, l := range lines {
		split[i] = splitTokens(l, tmpl)
		c := split[i].cands
		if split[i].date != "" && len(c) == 2 && looksLikeMoney(c[0]) && looksLikeMoney(c[1]) {
			balances = true
		}
	}

	last := -1
	var lastLine textLine
	for i, l := range lines {
		tl := split[i]
		if tl.date == "" {
			contiguous := last >= 0 && l.Page == lastLine.Page && l.Num == lastLine.Num+1
			switch {
			case pageFooter.MatchString(l.text()):
				ext.ignore(l.ref(), "page footer")
			case contiguous && !anyMoney(tl.cands):
				ext.rows[last].Description += " " + l.text()
				lastLine = l
			case last < 0:
				ext.preamble = append(ext.preamble, l.text())
			case len(tl.cands) > 0:
				ext.ignore(l.ref(), "amounts without a date: %q", l.text())
			}
			continue
		}

		row, err := tl.row(l.ref(), balances)
		if err != nil {
			if last < 0 {
				ext.preamble = append(ext.preamble, l.text())
			}
			ext.warn(l.ref(), "%v", err)
			continue
		}
		ext.rows = append(ext.rows, row)
		last = len(ext.rows) - 1
		lastLine = l
	}
	return ext
}

// pageFooter matches page numbering lines.
var pageFooter = regexp.MustCompile(`(?i)^page\s+\d+(\s+of\s+\d+)?$`)

// tokenLine is a line cut into a leading date, the description and up to
// two trailing amount-like tokens.
type tokenLine struct {
	date  string
	words []string
	cands []string
}

func splitTokens(l textLine, tmpl *Template) tokenLine {
	var tl tokenLine
	tokens := strings.Fields(l.text())
	for n := min(3, len(tokens)); n > 0; n-- {
		if cand := strings.Join(tokens[:n], " "); looksLikeDate(cand, tmpl.DateLayouts) {
			tl.date, tokens = cand, tokens[n:]
			break
		}
	}
	for len(tokens) > 0 && len(tl.cands) < 2 && looksLikeAmount(tokens[len(tokens)-1]) {
		tl.cands = append([]string{tokens[len(tokens)-1]}, tl.cands...)
		tokens = tokens[:len(tokens)-1]
	}
	tl.words = tokens
	return tl
}

// row settles which trailing tokens are the amount and the balance.
func (tl tokenLine) row(ref string, balances bool) (rawRow, error) {
	row := rawRow{Ref: ref, Date: tl.date}
	words := tl.words
	c := tl.cands
	switch {
	case len(c) == 0:
		return row, fmt.Errorf("no amount on dated line")
	case len(c) == 1:
		if !looksLikeMoney(c[0]) && !signed(c[0]) {
			return row, fmt.Errorf("ambiguous amount %q", c[0])
		}
		row.Amount = c[0]
	case looksLikeMoney(c[0]) && looksLikeMoney(c[1]):
		row.Amount, row.Balance = c[0], c[1]
	case looksLikeMoney(c[0]):
		return row, fmt.Errorf("ambiguous amounts %q %q", c[0], c[1])
	case balances && (signed(c[0]) || !signed(c[1])):
		row.Amount, row.Balance = c[0], c[1]
	case looksLikeMoney(c[1]) || signed(c[1]):
		words = append(words, c[0])
		row.Amount = c[1]
	default:
		return row, fmt.Errorf("ambiguous amounts %q %q", c[0], c[1])
	}
	row.Description = strings.Join(words, " ")
	return row, nil
}

// signed reports whether an amount token carries an explicit direction.
func signed(s string) bool {
	tok, ok := scanAmount(s)
	return ok && (tok.negative || tok.marker != markerNone || strings.HasPrefix(strings.TrimSpace(s), "+"))
}

func anyMoney(cands []string) bool {
	for _, c := range cands {
		if looksLikeMoney(c) {
			return true
		}
	}
	return false
}
