package reconcile

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/tally/internal/model"
)

// Exact-pass confidence: full marks, less a little per day of lag and
// per unit of tolerance used, less a penalty when either side had
// another equally valid partner.
const (
	exactDayPenalty       = 0.02
	exactTolerancePenalty = 0.05
	exactAmbiguityPenalty = 0.05
)

type pair struct {
	txn, entry int
	days       int
	diff       decimal.Decimal
	score      float64
}

// exactPass pairs transactions and entries whose amounts agree within the
// tolerance and whose dates lie within the window. Pairs are taken best
// first, so the result is a maximal matching: any pair left over has a
// side already claimed.
func exactPass(r *run) error {
	var pairs []pair
	txnDegree := make([]int, len(r.txns))
	entDegree := make([]int, len(r.entries))
	for i, t := range r.txns {
		if err := r.ctx.Err(); err != nil {
			return err
		}
		for j, e := range r.entries {
			days := daysApart(t.Date, e.Date)
			if days > r.cfg.DateWindowDays || !sameSign(t.Amount, e.Amount) {
				continue
			}
			diff := t.Amount.Sub(e.Amount).Abs()
			if diff.GreaterThan(r.cfg.AmountTolerance) {
				continue
			}
			pairs = append(pairs, pair{txn: i, entry: j, days: days, diff: diff})
			txnDegree[i]++
			entDegree[j]++
		}
	}

	for k := range pairs {
		p := &pairs[k]
		score := 1 - exactDayPenalty*float64(p.days)
		if r.cfg.AmountTolerance.IsPositive() {
			used, _ := p.diff.Div(r.cfg.AmountTolerance).Float64()
			score -= exactTolerancePenalty * used
		}
		if txnDegree[p.txn] > 1 || entDegree[p.entry] > 1 {
			score -= exactAmbiguityPenalty
		}
		p.score = clamp01(score)
	}
	sortPairs(pairs)

	for _, p := range pairs {
		if r.txnUsed[p.txn] || r.entUsed[p.entry] {
			continue
		}
		r.claim(candidate{
			txns:       []int{p.txn},
			entries:    []int{p.entry},
			confidence: p.score,
			reason:     model.ReasonExact,
		})
	}
	return nil
}

// sortPairs orders pairs best first: higher score, then closer date, then
// closer amount, then statement order, then ledger order.
func sortPairs(pairs []pair) {
	sort.SliceStable(pairs, func(a, b int) bool {
		x, y := pairs[a], pairs[b]
		switch {
		case x.score != y.score:
			return x.score > y.score
		case x.days != y.days:
			return x.days < y.days
		case !x.diff.Equal(y.diff):
			return x.diff.LessThan(y.diff)
		case x.txn != y.txn:
			return x.txn < y.txn
		}
		return x.entry < y.entry
	})
}
