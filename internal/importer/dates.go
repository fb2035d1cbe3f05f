package importer

import (
	"fmt"
	"strings"
	"time"
)

func parseDate(layout, s string) (time.Time, bool) {
	t, err := time.Parse(layout, strings.TrimSpace(s))
	return t, err == nil
}

func looksLikeDate(s string, layouts []string) bool {
	for _, l := range layouts {
		if _, ok := parseDate(l, s); ok {
			return true
		}
	}
	return false
}

// chooseDateLayout picks one layout for every date cell of a statement.
//
// The layout parsing the most cells wins; ties go to the earlier layout in
// the list. A cell that only parses with the day/month swap of the winner
// means the file mixes both orders, which fails the whole statement.
// Cells that no layout parses are left for row-level warnings; when no
// cell parses at all the layout is empty.
func chooseDateLayout(cells []string, layouts []string) (string, error) {
	best, bestCount := -1, 0
	for i, l := range layouts {
		n := 0
		for _, c := range cells {
			if _, ok := parseDate(l, c); ok {
				n++
			}
		}
		if n > bestCount {
			best, bestCount = i, n
		}
	}
	if best < 0 {
		return "", nil
	}

	layout := layouts[best]
	swapped := swapDayMonth(layout)
	if swapped == layout {
		return layout, nil
	}
	for _, c := range cells {
		if _, ok := parseDate(layout, c); ok {
			continue
		}
		if _, ok := parseDate(swapped, c); ok {
			agree := firstParsing(cells, layout)
			return "", fmt.Errorf("inconsistent day/month order: %q is read as %s but %q only as %s",
				agree, layout, c, swapped)
		}
	}
	return layout, nil
}

func firstParsing(cells []string, layout string) string {
	for _, c := range cells {
		if _, ok := parseDate(layout, c); ok {
			return c
		}
	}
	return ""
}

// layoutTokens are replaced in order so that numeric day and month
// elements can be exchanged without touching years and clock fields.
var layoutTokens = []struct{ tok, ph string }{
	{"2006", "\x00Y"},
	{"15", "\x00H"},
	{"04", "\x00N"},
	{"05", "\x00S"},
	{"01", "\x00M"},
	{"02", "\x00D"},
	{"06", "\x00y"},
	{"_2", "\x00u"},
	{"1", "\x00m"},
	{"2", "\x00d"},
}

// swapDayMonth exchanges the numeric day and month elements of a Go
// layout: "2/1/2006" <-> "1/2/2006", "02.01.06" <-> "01.02.06".
// Layouts without both numeric elements are returned unchanged.
func swapDayMonth(layout string) string {
	s := layout
	for _, t := range layoutTokens {
		s = strings.ReplaceAll(s, t.tok, t.ph)
	}
	hasMonth := strings.Contains(s, "\x00M") || strings.Contains(s, "\x00m")
	hasDay := strings.Contains(s, "\x00D") || strings.Contains(s, "\x00d")
	if !hasMonth || !hasDay {
		return layout
	}
	s = strings.NewReplacer("\x00M", "\x00D", "\x00D", "\x00M", "\x00m", "\x00d", "\x00d", "\x00m").Replace(s)
	for i := len(layoutTokens) - 1; i >= 0; i-- {
		s = strings.ReplaceAll(s, layoutTokens[i].ph, layoutTokens[i].tok)
	}
	return s
}
