package reconcile

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/tally/internal/model"
)

// Aggregate-pass confidence: below an exact match, less per extra member
// and per day of the widest date gap.
const (
	aggregateBase        = 0.9
	aggregateSizePenalty = 0.05
	aggregateDayPenalty  = 0.02
)

// checkEvery is how many subsets the search visits between context checks.
const checkEvery = 1024

// member is one counterpart in an aggregate pool.
type member struct {
	index  int // into run.txns or run.entries
	amount decimal.Decimal
	days   int // distance from the target date
}

// aggregatePass looks for several unclaimed items summing to one unclaimed
// counterpart: first bank transactions adding up to one ledger entry
// (split), then ledger entries adding up to one bank transaction (batch).
//
// Per target the pool holds same-sign unclaimed counterparts within the
// date window, capped at MaxAggregateCandidates nearest by date. Subsets of
// size 2..MaxAggregateSize are enumerated smallest size first, with sum
// pruning, so the work for m targets, pool n and size cap k is bounded by
// O(m * sum_{s=2..k} C(n, s)) <= O(m * n^k).
//
// Targets are served one at a time in canonical order, so an earlier target
// may take items a later one needed even when a joint assignment would have
// matched both; the later target is left for the fuzzy pass or unmatched.
func aggregatePass(r *run) error {
	if r.cfg.MaxAggregateSize < 2 || r.cfg.MaxAggregateCandidates < 2 {
		return nil
	}

	for j, e := range r.entries {
		if r.entUsed[j] {
			continue
		}
		if err := r.ctx.Err(); err != nil {
			return err
		}
		var pool []member
		for i, t := range r.txns {
			if !r.txnUsed[i] && sameSign(t.Amount, e.Amount) {
				pool = append(pool, member{index: i, amount: t.Amount, days: daysApart(t.Date, e.Date)})
			}
		}
		subset, maxDays, err := r.bestSubset(e.Amount, pool)
		if err != nil {
			return err
		}
		if subset != nil {
			r.claim(candidate{
				txns:       subset,
				entries:    []int{j},
				confidence: aggregateConfidence(len(subset), maxDays),
				reason:     model.ReasonSplitAggregate,
			})
		}
	}

	for i, t := range r.txns {
		if r.txnUsed[i] {
			continue
		}
		if err := r.ctx.Err(); err != nil {
			return err
		}
		var pool []member
		for j, e := range r.entries {
			if !r.entUsed[j] && sameSign(t.Amount, e.Amount) {
				pool = append(pool, member{index: j, amount: e.Amount, days: daysApart(t.Date, e.Date)})
			}
		}
		subset, maxDays, err := r.bestSubset(t.Amount, pool)
		if err != nil {
			return err
		}
		if subset != nil {
			r.claim(candidate{
				txns:       []int{i},
				entries:    subset,
				confidence: aggregateConfidence(len(subset), maxDays),
				reason:     model.ReasonBatchAggregate,
			})
		}
	}
	return nil
}

func aggregateConfidence(size, maxDays int) float64 {
	return clamp01(aggregateBase - aggregateSizePenalty*float64(size-2) - aggregateDayPenalty*float64(maxDays))
}

// bestSubset finds the subset of pool summing to target within tolerance.
// Preference: fewest members, then least total date distance, then the
// lowest member indexes. The returned indexes are ascending.
func (r *run) bestSubset(target decimal.Decimal, pool []member) ([]int, int, error) {
	var window []member
	for _, m := range pool {
		if m.days <= r.cfg.DateWindowDays {
			window = append(window, m)
		}
	}
	if len(window) < 2 {
		return nil, 0, nil
	}
	sort.SliceStable(window, func(a, b int) bool {
		if window[a].days != window[b].days {
			return window[a].days < window[b].days
		}
		return window[a].index < window[b].index
	})
	if len(window) > r.cfg.MaxAggregateCandidates {
		window = window[:r.cfg.MaxAggregateCandidates]
	}
	// Ascending magnitude lets the search stop once a partial sum overshoots.
	sort.SliceStable(window, func(a, b int) bool {
		ma, mb := window[a].amount.Abs(), window[b].amount.Abs()
		if !ma.Equal(mb) {
			return ma.LessThan(mb)
		}
		return window[a].index < window[b].index
	})

	s := &subsetSearch{
		ctx:    r.ctx,
		pool:   window,
		target: target.Abs(),
		tol:    r.cfg.AmountTolerance,
	}
	for size := 2; size <= r.cfg.MaxAggregateSize && size <= len(window); size++ {
		s.size = size
		s.best = nil
		if err := s.walk(0, nil, decimal.Zero, 0); err != nil {
			return nil, 0, err
		}
		if s.best != nil {
			maxDays := 0
			for _, pos := range s.best {
				maxDays = max(maxDays, window[pos].days)
			}
			indexes := make([]int, len(s.best))
			for k, pos := range s.best {
				indexes[k] = window[pos].index
			}
			sort.Ints(indexes)
			return indexes, maxDays, nil
		}
	}
	return nil, 0, nil
}

// subsetSearch enumerates fixed-size subsets of an ascending pool.
type subsetSearch struct {
	ctx     context.Context
	pool    []member
	target  decimal.Decimal // absolute
	tol     decimal.Decimal
	size    int
	visited int

	best     []int // positions in pool
	bestDays int
	bestKey  []int // sorted member indexes, for the final tie-break
}

func (s *subsetSearch) walk(start int, chosen []int, sum decimal.Decimal, days int) error {
	if len(chosen) == s.size {
		s.visited++
		if s.visited%checkEvery == 0 {
			if err := s.ctx.Err(); err != nil {
				return err
			}
		}
		if sum.Sub(s.target).Abs().LessThanOrEqual(s.tol) {
			s.consider(chosen, days)
		}
		return nil
	}
	need := s.size - len(chosen)
	for k := start; k <= len(s.pool)-need; k++ {
		next := sum.Add(s.pool[k].amount.Abs())
		if next.GreaterThan(s.target.Add(s.tol)) {
			break
		}
		if err := s.walk(k+1, append(chosen, k), next, days+s.pool[k].days); err != nil {
			return err
		}
	}
	return nil
}

func (s *subsetSearch) consider(chosen []int, days int) {
	key := make([]int, len(chosen))
	for k, pos := range chosen {
		key[k] = s.pool[pos].index
	}
	sort.Ints(key)
	if s.best != nil {
		if days > s.bestDays || days == s.bestDays && !lexLess(key, s.bestKey) {
			return
		}
	}
	s.best = append([]int(nil), chosen...)
	s.bestDays = days
	s.bestKey = key
}

func lexLess(a, b []int) bool {
	for k := range a {
		if k >= len(b) {
			return false
		}
		if a[k] != b[k] {
			return a[k] < b[k]
		}
	}
	return len(a) < len(b)
}
