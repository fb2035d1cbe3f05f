package importer

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// marker is an explicit direction found in or next to an amount.
type marker int

const (
	markerNone marker = iota
	markerDebit
	markerCredit
)

// amountToken is an amount cell reduced to digits and separators.
type amountToken struct {
	digits   string // digits plus '.' and ','
	negative bool   // leading/trailing minus or parentheses
	marker   marker // DR/CR suffix or prefix
}

// scanAmount strips currency symbols, codes, grouping spaces and sign
// markers from s. ok is false when s is not an amount at all.
func scanAmount(s string) (amountToken, bool) {
	var tok amountToken
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return tok, false
	}

	for _, m := range []struct {
		text string
		mark marker
	}{{"DR", markerDebit}, {"CR", markerCredit}} {
		switch {
		case strings.HasSuffix(s, m.text):
			s, tok.marker = strings.TrimSpace(strings.TrimSuffix(s, m.text)), m.mark
		case strings.HasPrefix(s, m.text):
			s, tok.marker = strings.TrimSpace(strings.TrimPrefix(s, m.text)), m.mark
		}
	}
	s = trimCurrencyCode(s)
	s = strings.TrimFunc(s, func(r rune) bool { return unicode.Is(unicode.Sc, r) || unicode.IsSpace(r) })

	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		tok.negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	s = strings.ReplaceAll(s, "\u2212", "-")
	switch {
	case strings.HasPrefix(s, "-"):
		tok.negative = !tok.negative
		s = s[1:]
	case strings.HasSuffix(s, "-"):
		tok.negative = !tok.negative
		s = s[:len(s)-1]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	}

	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r == '.', r == ',':
			b.WriteRune(r)
		case unicode.IsSpace(r), r == '\'', unicode.Is(unicode.Sc, r):
			// grouping space, apostrophe grouping or currency symbol
		default:
			return tok, false
		}
	}
	tok.digits = b.String()
	if !strings.ContainsAny(tok.digits, "0123456789") {
		return tok, false
	}
	return tok, true
}

// trimCurrencyCode drops a leading or trailing three-letter ISO code.
func trimCurrencyCode(s string) string {
	isCode := func(w string) bool {
		if len(w) != 3 {
			return false
		}
		for _, r := range w {
			if r < 'A' || r > 'Z' {
				return false
			}
		}
		return true
	}
	fields := strings.Fields(s)
	if len(fields) < 2 {
		if len(s) > 3 && isCode(s[:3]) && !unicode.IsLetter(rune(s[3])) {
			return strings.TrimSpace(s[3:])
		}
		return s
	}
	if isCode(fields[0]) {
		fields = fields[1:]
	} else if isCode(fields[len(fields)-1]) {
		fields = fields[:len(fields)-1]
	}
	return strings.Join(fields, " ")
}

func looksLikeAmount(s string) bool {
	_, ok := scanAmount(s)
	return ok
}

// separatorVote reports which decimal separator a single token implies.
// 0 means the token is ambiguous ("1,234" or "7").
func separatorVote(digits string) rune {
	dot := strings.Count(digits, ".")
	comma := strings.Count(digits, ",")
	switch {
	case dot > 0 && comma > 0:
		if strings.LastIndex(digits, ".") > strings.LastIndex(digits, ",") {
			return '.'
		}
		return ','
	case dot+comma == 0:
		return 0
	}
	sep, count := '.', dot
	other := ','
	if comma > 0 {
		sep, count, other = ',', comma, '.'
	}
	if count > 1 {
		return other
	}
	after := len(digits) - strings.IndexRune(digits, sep) - 1
	if after == 3 {
		return 0
	}
	return sep
}

// chooseDecimalSeparator settles one decimal separator for a statement.
//
// Precedence: the template's explicit separator; otherwise the evidence of
// unambiguous cells (both separators present, a repeated separator, or a
// single separator not followed by exactly three digits); otherwise '.'.
// Unambiguous cells that disagree fail the statement.
func chooseDecimalSeparator(cells []string, explicit string) (rune, error) {
	if explicit != "" {
		return rune(explicit[0]), nil
	}
	var dotCell, commaCell string
	for _, c := range cells {
		tok, ok := scanAmount(c)
		if !ok {
			continue
		}
		switch separatorVote(tok.digits) {
		case '.':
			if dotCell == "" {
				dotCell = c
			}
		case ',':
			if commaCell == "" {
				commaCell = c
			}
		}
	}
	switch {
	case dotCell != "" && commaCell != "":
		return 0, fmt.Errorf("inconsistent decimal separators: %q uses '.' but %q uses ','", dotCell, commaCell)
	case commaCell != "":
		return ',', nil
	default:
		return '.', nil
	}
}

// parseAmount converts one amount cell using the statement's decimal separator.
// The sign reflects minus signs, parentheses and DR/CR markers; a DR/CR
// marker overrides the numeric sign.
func parseAmount(s string, sep rune) (decimal.Decimal, error) {
	tok, ok := scanAmount(s)
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("not an amount: %q", s)
	}
	thousands := ","
	if sep == ',' {
		thousands = "."
	}
	digits := strings.ReplaceAll(tok.digits, thousands, "")
	if sep == ',' {
		digits = strings.ReplaceAll(digits, ",", ".")
	}
	if strings.Count(digits, ".") > 1 {
		return decimal.Decimal{}, fmt.Errorf("malformed amount %q", s)
	}
	d, err := decimal.NewFromString(digits)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parsing amount %q: %w", s, err)
	}
	switch {
	case tok.marker == markerDebit:
		d = d.Abs().Neg()
	case tok.marker == markerCredit:
		d = d.Abs()
	case tok.negative:
		d = d.Neg()
	}
	return d, nil
}
