// Package matcher provides the order/ledger matching phases of a
// reconciliation run.
//
// Matching happens in two passes over the same confidence scores:
//   - PairMatcher commits one-to-one matches greedily, best score first
//   - BatchMatcher searches what is left for split payments (one order, many
//     entries) and consolidated charges (many orders, one entry)
//
// Confidence is 0-100: 50 for amount, 30 for date, 20 for payment method.
//
// Example usage:
//
//	config := matcher.DefaultConfig()
//	pairs := matcher.NewPairMatcher(config).Match(orders, entries)
//	batches := matcher.NewBatchMatcher(config).Match(pairs.ResidualOrders, pairs.ResidualEntries)
package matcher

import (
	"sort"

	"github.com/eshaffer321/order-reconciler/internal/domain/model"
)

// PairResult is the output of the one-to-one pass.
type PairResult struct {
	Matches         []model.NormalMatch
	ResidualOrders  []model.OrderRecord
	ResidualEntries []model.LedgerEntry
}

// PairMatcher commits one-to-one matches.
type PairMatcher struct {
	config Config
	scorer *Scorer
}

// NewPairMatcher creates a new pair matcher with the given config
func NewPairMatcher(config Config) *PairMatcher {
	return &PairMatcher{
		config: config,
		scorer: NewScorer(config),
	}
}

// Candidates returns every pair that passes the pre-filter and the threshold,
// sorted in commit order.
func (m *PairMatcher) Candidates(orders []model.OrderRecord, entries []model.LedgerEntry) []Candidate {
	var candidates []Candidate
	for i := range orders {
		for j := range entries {
			c, ok := m.scorer.Evaluate(&orders[i], &entries[j])
			if !ok || !m.config.Accepts(c.Confidence) {
				continue
			}
			candidates = append(candidates, c)
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		if a.DateDiffDays != b.DateDiffDays {
			return a.DateDiffDays < b.DateDiffDays
		}
		if a.AmountDiffCents != b.AmountDiffCents {
			return a.AmountDiffCents < b.AmountDiffCents
		}
		if a.Order.OrderID != b.Order.OrderID {
			return a.Order.OrderID < b.Order.OrderID
		}
		return a.Entry.EntryID < b.Entry.EntryID
	})

	return candidates
}

// Match greedily commits the best remaining candidate until none is left.
// This approximates maximum-weight matching; it is not globally optimal.
// Residuals keep the input order.
func (m *PairMatcher) Match(orders []model.OrderRecord, entries []model.LedgerEntry) *PairResult {
	usedOrders := make(map[string]bool)
	usedEntries := make(map[string]bool)

	result := &PairResult{}
	for _, c := range m.Candidates(orders, entries) {
		if usedOrders[c.Order.OrderID] || usedEntries[c.Entry.EntryID] {
			continue
		}
		usedOrders[c.Order.OrderID] = true
		usedEntries[c.Entry.EntryID] = true

		result.Matches = append(result.Matches, model.NormalMatch{
			OrderID:         c.Order.OrderID,
			EntryID:         c.Entry.EntryID,
			Confidence:      c.Confidence,
			DateDiffDays:    c.DateDiffDays,
			AmountDiffCents: c.AmountDiffCents,
		})
	}

	for _, o := range orders {
		if !usedOrders[o.OrderID] {
			result.ResidualOrders = append(result.ResidualOrders, o)
		}
	}
	for _, e := range entries {
		if !usedEntries[e.EntryID] {
			result.ResidualEntries = append(result.ResidualEntries, e)
		}
	}

	return result
}
