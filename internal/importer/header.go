package importer

import (
	"strings"
	"unicode"
)

// columnMap maps canonical fields to column indexes.
type columnMap map[Field]int

func (m columnMap) has(f Field) bool {
	_, ok := m[f]
	return ok
}

// valid reports whether the map can produce transactions.
func (m columnMap) valid() bool {
	return m.has(FieldDate) && (m.has(FieldAmount) || m.has(FieldDebit) || m.has(FieldCredit))
}

func (m columnMap) cell(cells []string, f Field) string {
	i, ok := m[f]
	if !ok || i >= len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[i])
}

// normalizeHeader lowercases and reduces a header to space-separated words.
// "Amount (EUR)" -> "amount eur", "Dr/Cr" -> "dr cr".
func normalizeHeader(s string) string {
	var b strings.Builder
	space := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			b.WriteRune(r)
			space = false
			continue
		}
		space = true
	}
	return b.String()
}

// minContainsAlias keeps short aliases like "in" from matching inside longer headers.
const minContainsAlias = 4

// mapHeader resolves header cells to fields. Exact alias matches are
// assigned first, then aliases appearing as whole words inside a header.
// Each column serves at most one field; the leftmost column wins.
func mapHeader(cells []string, cols Columns) columnMap {
	norm := make([]string, len(cells))
	for i, c := range cells {
		norm[i] = normalizeHeader(c)
	}

	m := make(columnMap)
	used := make(map[int]bool)
	assign := func(match func(header, alias string) bool) {
		for _, f := range fieldOrder {
			if m.has(f) {
				continue
			}
			for i, h := range norm {
				if h == "" || used[i] {
					continue
				}
				if anyAlias(cols.aliases(f), func(alias string) bool { return match(h, alias) }) {
					m[f] = i
					used[i] = true
					break
				}
			}
		}
	}
	assign(func(h, alias string) bool { return h == alias })
	assign(func(h, alias string) bool {
		return len(alias) >= minContainsAlias && containsWords(h, alias)
	})
	return m
}

func anyAlias(aliases []string, match func(string) bool) bool {
	for _, a := range aliases {
		if a == "-" {
			return false
		}
		if n := normalizeHeader(a); n != "" && match(n) {
			return true
		}
	}
	return false
}

// containsWords reports whether needle appears in s on word boundaries.
func containsWords(s, needle string) bool {
	return strings.Contains(" "+s+" ", " "+needle+" ")
}

// inferColumns guesses a column map for a headerless table from its content:
// the first mostly-date column is the date, numeric columns become
// amount/balance (or debit/credit when they are never filled together),
// and the remaining column with the longest text is the description.
func inferColumns(rows [][]string, layouts []string) (columnMap, bool) {
	const sampleSize = 25
	const minShare = 0.8

	sample := rows
	if len(sample) > sampleSize {
		sample = sample[:sampleSize]
	}
	width := 0
	for _, r := range sample {
		width = max(width, len(r))
	}

	type stats struct {
		filled, dates, amounts, textLen int
	}
	cols := make([]stats, width)
	for _, r := range sample {
		for i, c := range r {
			c = strings.TrimSpace(c)
			if c == "" {
				continue
			}
			cols[i].filled++
			switch {
			case looksLikeDate(c, layouts):
				cols[i].dates++
			case looksLikeAmount(c):
				cols[i].amounts++
			default:
				cols[i].textLen += len(c)
			}
		}
	}
	share := func(n, of int) float64 {
		if of == 0 {
			return 0
		}
		return float64(n) / float64(of)
	}

	m := make(columnMap)
	var numeric []int
	for i, st := range cols {
		switch {
		case st.filled == 0:
		case !m.has(FieldDate) && share(st.dates, st.filled) >= minShare:
			m[FieldDate] = i
		case share(st.amounts, st.filled) >= minShare:
			numeric = append(numeric, i)
		}
	}

	switch {
	case len(numeric) == 0:
		return m, false
	case len(numeric) == 2 && exclusive(sample, numeric[0], numeric[1]):
		m[FieldDebit] = numeric[0]
		m[FieldCredit] = numeric[1]
	default:
		m[FieldAmount] = numeric[0]
		if len(numeric) > 1 {
			m[FieldBalance] = numeric[len(numeric)-1]
		}
	}

	best, bestLen := -1, 0
	for i, st := range cols {
		if isMapped(m, i) {
			continue
		}
		if st.textLen > bestLen {
			best, bestLen = i, st.textLen
		}
	}
	if best >= 0 {
		m[FieldDescription] = best
	}
	return m, m.valid()
}

// exclusive reports whether two columns are never filled on the same row.
func exclusive(rows [][]string, a, b int) bool {
	for _, r := range rows {
		if a < len(r) && b < len(r) && strings.TrimSpace(r[a]) != "" && strings.TrimSpace(r[b]) != "" {
			return false
		}
	}
	return true
}

func isMapped(m columnMap, i int) bool {
	for _, j := range m {
		if j == i {
			return true
		}
	}
	return false
}
