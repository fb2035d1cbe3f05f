package reconcile

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Limits on the aggregate search. The search visits at most
// sum over s=2..k of C(n, s) subsets per target for pool size n and subset size k.
const (
	MaxAggregateSizeLimit       = 8
	MaxAggregateCandidatesLimit = 24
)

// Config tunes the matcher.
type Config struct {
	// AmountTolerance is the largest absolute amount difference still
	// treated as equal by the exact and aggregate passes.
	AmountTolerance decimal.Decimal
	// DateWindowDays is the settlement lag allowed by the exact and
	// aggregate passes.
	DateWindowDays int
	// MaxAggregateSize caps the subset size of the aggregate pass.
	// Values below 2 disable the pass.
	MaxAggregateSize int
	// MaxAggregateCandidates caps the pool searched per aggregate target;
	// the pool keeps the counterparts nearest in date.
	MaxAggregateCandidates int
	// ConfidenceThreshold separates accepted candidates from review.
	ConfidenceThreshold float64
	// DescriptionSimilarityWeight is the share of the fuzzy score given to
	// description similarity; the rest goes to amount and date proximity.
	DescriptionSimilarityWeight float64
	// FuzzyDateWindowDays is the date distance the fuzzy pass accepts.
	FuzzyDateWindowDays int
	// FuzzyAmountTolerance is the relative amount difference the fuzzy
	// pass accepts (0.1 = 10%).
	FuzzyAmountTolerance float64
	// FuzzyMinScore drops fuzzy pairs scoring below it.
	FuzzyMinScore float64
}

// DefaultConfig returns the matcher defaults.
func DefaultConfig() Config {
	return Config{
		AmountTolerance:             decimal.Zero,
		DateWindowDays:              3,
		MaxAggregateSize:            5,
		MaxAggregateCandidates:      16,
		ConfidenceThreshold:         0.8,
		DescriptionSimilarityWeight: 0.5,
		FuzzyDateWindowDays:         10,
		FuzzyAmountTolerance:        0.1,
		FuzzyMinScore:               0.5,
	}
}

// Validate checks every field against its allowed range.
func (c Config) Validate() error {
	unit := func(name string, v float64) error {
		if v < 0 || v > 1 {
			return fmt.Errorf("%s must be between 0 and 1, got %v", name, v)
		}
		return nil
	}
	switch {
	case c.AmountTolerance.IsNegative():
		return fmt.Errorf("amount tolerance must not be negative, got %s", c.AmountTolerance)
	case c.DateWindowDays < 0:
		return fmt.Errorf("date window must not be negative, got %d", c.DateWindowDays)
	case c.MaxAggregateSize < 0 || c.MaxAggregateSize > MaxAggregateSizeLimit:
		return fmt.Errorf("max aggregate size must be between 0 and %d, got %d", MaxAggregateSizeLimit, c.MaxAggregateSize)
	case c.MaxAggregateCandidates < 0 || c.MaxAggregateCandidates > MaxAggregateCandidatesLimit:
		return fmt.Errorf("max aggregate candidates must be between 0 and %d, got %d", MaxAggregateCandidatesLimit, c.MaxAggregateCandidates)
	case c.FuzzyDateWindowDays < 0:
		return fmt.Errorf("fuzzy date window must not be negative, got %d", c.FuzzyDateWindowDays)
	}
	if err := unit("confidence threshold", c.ConfidenceThreshold); err != nil {
		return err
	}
	if err := unit("description similarity weight", c.DescriptionSimilarityWeight); err != nil {
		return err
	}
	if err := unit("fuzzy amount tolerance", c.FuzzyAmountTolerance); err != nil {
		return err
	}
	return unit("fuzzy min score", c.FuzzyMinScore)
}
