package reconcile

import (
	"sort"

	"github.com/cleared-dev/tally/internal/model"
)

const (
	// minSimilarity keeps amount and date proximity alone from pairing
	// unrelated descriptions.
	minSimilarity = 0.3
	// fuzzyConfidenceScale keeps fuzzy candidates below exact ones.
	fuzzyConfidenceScale = 0.85
)

type fuzzyPair struct {
	txn, entry int
	days       int
	relDiff    float64
	score      float64
}

// fuzzyPass pairs the remaining one-to-one candidates whose descriptions
// are similar and whose amounts and dates are near. Pairs are taken best
// score first; ties go to the closest date, then the closest amount, then
// input order.
func fuzzyPass(r *run) error {
	w := r.cfg.DescriptionSimilarityWeight
	var pairs []fuzzyPair
	for i, t := range r.txns {
		if r.txnUsed[i] {
			continue
		}
		if err := r.ctx.Err(); err != nil {
			return err
		}
		for j, e := range r.entries {
			if r.entUsed[j] || !sameSign(t.Amount, e.Amount) {
				continue
			}
			days := daysApart(t.Date, e.Date)
			if days > r.cfg.FuzzyDateWindowDays {
				continue
			}
			larger := t.Amount.Abs()
			if e.Amount.Abs().GreaterThan(larger) {
				larger = e.Amount.Abs()
			}
			relDiff, _ := t.Amount.Sub(e.Amount).Abs().Div(larger).Float64()
			if relDiff > r.cfg.FuzzyAmountTolerance {
				continue
			}
			sim := similarity(t.Description, e.Description)
			if sim < minSimilarity {
				continue
			}

			amountProx := 1.0
			if r.cfg.FuzzyAmountTolerance > 0 {
				amountProx = 1 - relDiff/r.cfg.FuzzyAmountTolerance
			}
			dateProx := 1.0
			if r.cfg.FuzzyDateWindowDays > 0 {
				dateProx = 1 - float64(days)/float64(r.cfg.FuzzyDateWindowDays+1)
			}
			score := clamp01(w*sim + (1-w)*(amountProx+dateProx)/2)
			if score < r.cfg.FuzzyMinScore {
				continue
			}
			pairs = append(pairs, fuzzyPair{txn: i, entry: j, days: days, relDiff: relDiff, score: score})
		}
	}

	sort.SliceStable(pairs, func(a, b int) bool {
		x, y := pairs[a], pairs[b]
		switch {
		case x.score != y.score:
			return x.score > y.score
		case x.days != y.days:
			return x.days < y.days
		case x.relDiff != y.relDiff:
			return x.relDiff < y.relDiff
		case x.txn != y.txn:
			return x.txn < y.txn
		}
		return x.entry < y.entry
	})

	for _, p := range pairs {
		if r.txnUsed[p.txn] || r.entUsed[p.entry] {
			continue
		}
		r.claim(candidate{
			txns:       []int{p.txn},
			entries:    []int{p.entry},
			confidence: fuzzyConfidenceScale * p.score,
			reason:     model.ReasonFuzzyDescription,
		})
	}
	return nil
}
