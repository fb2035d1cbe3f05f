package importer

import (
	"fmt"
	"strings"
	"time"

	"github.com/cleared-dev/tally/internal/model"
)

// chaseTemplate reads Chase checking CSV exports:
//
//	Details,Posting Date,Description,Amount,Type,Balance,Check or Slip #
//
// Amounts are already signed; Details repeats the direction.
func chaseTemplate() Template {
	return Template{
		Name:   "chase",
		Format: model.FormatDelimited,
		Columns: Columns{
			Date:        []string{"posting date"},
			Description: []string{"description"},
			Amount:      []string{"amount"},
			Balance:     []string{"balance"},
			Direction:   []string{"details"},
			Debit:       []string{"-"},
			Credit:      []string{"-"},
		},
		DebitMarkers:     []string{"debit"},
		CreditMarkers:    []string{"credit", "dslip"},
		DateLayouts:      []string{"01/02/2006"},
		DecimalSeparator: ".",
	}
}

// makeReference creates a reference like chase_20250103_GITHUBPROS.
func makeReference(prefix string, date time.Time, desc string) string {
	short := strings.Map(func(r rune) rune {
		if r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, desc)
	if len(short) > 10 {
		short = short[:10]
	}
	return fmt.Sprintf("%s_%s_%s", prefix, date.Format("20060102"), short)
}
