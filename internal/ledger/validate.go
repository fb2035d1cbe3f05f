package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/tally/internal/model"
)

// Rules checked by ValidateLegs.
const (
	RuleBalanced = "balanced" // debits equal credits per entry
	RuleOneSide  = "one-side" // a leg is either a debit or a credit
	RuleAccount  = "account"  // legs post to known accounts
	RuleMonth    = "month"    // legs are dated within the journal's month
	RuleSequence = "sequence" // entry numbers run 1..N
	RuleCents    = "cents"    // no more than two decimal places
)

// ValidationError describes one broken journal rule.
type ValidationError struct {
	Rule        string
	EntryID     string
	Description string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s [%s]: %s", e.Rule, e.EntryID, e.Description)
}

// AccountChecker tests whether an account ID exists in the chart of accounts.
type AccountChecker interface {
	Exists(id int) bool
}

// checkBalanced returns a ValidationError for an entry whose legs do not balance.
func checkBalanced(entryID string, legs []model.Leg) *ValidationError {
	debit, credit := decimal.Zero, decimal.Zero
	for _, leg := range legs {
		debit = debit.Add(leg.Debit)
		credit = credit.Add(leg.Credit)
	}
	if debit.Equal(credit) {
		return nil
	}
	return &ValidationError{
		Rule:        RuleBalanced,
		EntryID:     entryID,
		Description: fmt.Sprintf("debits (%s) != credits (%s)", debit.StringFixed(2), credit.StringFixed(2)),
	}
}

// ValidateLegs checks a month of journal legs against every rule.
func ValidateLegs(legs []model.Leg, accounts AccountChecker, year, month int) []ValidationError {
	var errs []ValidationError

	for _, g := range groupLegs(legs) {
		if verr := checkBalanced(g.id, g.legs); verr != nil {
			errs = append(errs, *verr)
		}
	}

	hundred := decimal.NewFromInt(100)
	for _, leg := range legs {
		fail := func(rule, format string, args ...any) {
			errs = append(errs, ValidationError{Rule: rule, EntryID: leg.EntryID, Description: fmt.Sprintf(format, args...)})
		}
		if leg.Debit.IsZero() == leg.Credit.IsZero() {
			fail(RuleOneSide, "leg must have exactly one of debit or credit")
		}
		if leg.Debit.IsNegative() || leg.Credit.IsNegative() {
			fail(RuleOneSide, "debit and credit must not be negative")
		}
		if !accounts.Exists(leg.AccountID) {
			fail(RuleAccount, "unknown account %d", leg.AccountID)
		}
		if leg.Date.Year() != year || int(leg.Date.Month()) != month {
			fail(RuleMonth, "date %s not in %04d-%02d", leg.Date.Format(dateFormat), year, month)
		}
		for _, v := range []decimal.Decimal{leg.Debit, leg.Credit} {
			if scaled := v.Mul(hundred); !scaled.Equal(scaled.Floor()) {
				fail(RuleCents, "%s has more than 2 decimal places", v)
			}
		}
	}

	seen := make(map[int]bool)
	for _, leg := range legs {
		_, _, seq, err := ParseEntryID(leg.EntryID)
		if err != nil {
			errs = append(errs, ValidationError{Rule: RuleSequence, EntryID: leg.EntryID, Description: err.Error()})
			continue
		}
		seen[seq] = true
	}
	for i := 1; i <= len(seen); i++ {
		if !seen[i] {
			errs = append(errs, ValidationError{
				Rule:        RuleSequence,
				EntryID:     fmt.Sprintf("seq %d", i),
				Description: fmt.Sprintf("missing sequence %d in 1..%d", i, len(seen)),
			})
		}
	}
	return errs
}

type legGroup struct {
	id   string
	legs []model.Leg
}

// groupLegs groups legs by entry, keeping first-seen order.
func groupLegs(legs []model.Leg) []legGroup {
	index := make(map[string]int)
	var groups []legGroup
	for _, leg := range legs {
		id := leg.EntryGroup()
		i, ok := index[id]
		if !ok {
			i = len(groups)
			index[id] = i
			groups = append(groups, legGroup{id: id})
		}
		groups[i].legs = append(groups[i].legs, leg)
	}
	return groups
}
