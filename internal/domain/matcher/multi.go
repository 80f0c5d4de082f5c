package matcher

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/eshaffer321/order-reconciler/internal/domain/model"
)

// BatchResult contains results from split-payment and consolidated-charge
// matching.
type BatchResult struct {
	Splits          []model.SplitPaymentMatch
	Consolidated    []model.ConsolidatedChargeMatch
	ResidualOrders  []model.OrderRecord
	ResidualEntries []model.LedgerEntry
}

// BatchMatcher finds many-to-one groupings among records the pair matcher
// left unmatched.
type BatchMatcher struct {
	config Config
	scorer *Scorer
}

// NewBatchMatcher creates a new batch matcher with the given config
func NewBatchMatcher(config Config) *BatchMatcher {
	return &BatchMatcher{
		config: config,
		scorer: NewScorer(config),
	}
}

// Match runs the split-payment search and then the consolidated-charge search.
// Members of a committed batch leave the pools immediately, so no record is
// claimed twice. Residuals keep the input order.
func (m *BatchMatcher) Match(orders []model.OrderRecord, entries []model.LedgerEntry) *BatchResult {
	usedOrders := make(map[string]bool)
	usedEntries := make(map[string]bool)

	result := &BatchResult{}
	result.Splits = m.findSplitPayments(orders, entries, usedOrders, usedEntries)
	result.Consolidated = m.findConsolidatedCharges(orders, entries, usedOrders, usedEntries)

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

// findSplitPayments looks for orders paid by several ledger entries.
// Orders flagged as multi-charge are visited first.
func (m *BatchMatcher) findSplitPayments(
	orders []model.OrderRecord,
	entries []model.LedgerEntry,
	usedOrders, usedEntries map[string]bool,
) []model.SplitPaymentMatch {
	var matches []model.SplitPaymentMatch

	for _, oi := range splitVisitOrder(orders) {
		order := &orders[oi]
		if usedOrders[order.OrderID] {
			continue
		}

		var (
			best  subset
			found bool
		)
		for _, group := range m.splitGroups(order, entries, usedEntries) {
			candidate, ok := bestSubset(group, order.TotalCents, m.config.AmountTolerance(), m.config.maxBatch(), m.config.Accepts)
			if ok && (!found || candidate.better(best)) {
				best = candidate
				found = true
			}
		}
		if !found {
			continue
		}

		ids := make([]string, len(best.members))
		for i, mem := range best.members {
			ids[i] = mem.id
			usedEntries[mem.id] = true
		}
		usedOrders[order.OrderID] = true

		matches = append(matches, model.SplitPaymentMatch{
			OrderID:           order.OrderID,
			EntryIDList:       ids,
			Confidence:        best.confidence,
			OrderTotalCents:   order.TotalCents,
			EntriesTotalCents: best.total,
		})
	}

	return matches
}

// splitGroups collects the unused entries inside the batch window that are
// paid with the order's instrument or referenced by the order, grouped by the
// account they post to. Groups come back in account key order.
func (m *BatchMatcher) splitGroups(order *model.OrderRecord, entries []model.LedgerEntry, usedEntries map[string]bool) [][]member {
	window := m.config.batchWindow()

	byAccount := make(map[string][]member)
	for i := range entries {
		e := &entries[i]
		if usedEntries[e.EntryID] {
			continue
		}
		days := model.DaysBetween(order.Date, e.Date)
		if days > window {
			continue
		}
		if !PaymentLabelsMatch(order.PaymentKey, e.AccountKey) && !references(order, e) {
			continue
		}
		byAccount[e.AccountKey] = append(byAccount[e.AccountKey], member{
			id:           e.EntryID,
			date:         e.Date,
			cents:        e.Magnitude(),
			dateScore:    m.scorer.dateScore(days),
			paymentScore: PaymentWeight,
		})
	}
	return sortedGroups(byAccount)
}

// findConsolidatedCharges looks for ledger entries that settle several orders
// paid with the same instrument.
func (m *BatchMatcher) findConsolidatedCharges(
	orders []model.OrderRecord,
	entries []model.LedgerEntry,
	usedOrders, usedEntries map[string]bool,
) []model.ConsolidatedChargeMatch {
	var matches []model.ConsolidatedChargeMatch

	for _, ei := range dateVisitOrder(entries) {
		entry := &entries[ei]
		if usedEntries[entry.EntryID] {
			continue
		}

		var (
			best  subset
			found bool
		)
		for _, group := range m.consolidatedGroups(entry, orders, usedOrders) {
			candidate, ok := bestSubset(group, entry.Magnitude(), m.config.AmountTolerance(), m.config.maxBatch(), m.config.Accepts)
			if ok && (!found || candidate.better(best)) {
				best = candidate
				found = true
			}
		}
		if !found {
			continue
		}

		ids := make([]string, len(best.members))
		for i, mem := range best.members {
			ids[i] = mem.id
			usedOrders[mem.id] = true
		}
		usedEntries[entry.EntryID] = true

		matches = append(matches, model.ConsolidatedChargeMatch{
			OrderIDList:      ids,
			EntryID:          entry.EntryID,
			Confidence:       best.confidence,
			OrdersTotalCents: best.total,
			EntryAmountCents: entry.Magnitude(),
		})
	}

	return matches
}

// consolidatedGroups returns the unused orders inside the entry's batch window,
// grouped by identical payment key. Groups come back in key order; orders with
// no payment label are left out.
func (m *BatchMatcher) consolidatedGroups(entry *model.LedgerEntry, orders []model.OrderRecord, usedOrders map[string]bool) [][]member {
	window := m.config.batchWindow()

	byKey := make(map[string][]member)
	for i := range orders {
		o := &orders[i]
		if usedOrders[o.OrderID] || o.PaymentKey == "" {
			continue
		}
		days := model.DaysBetween(o.Date, entry.Date)
		if days > window {
			continue
		}
		paymentScore := 0
		if PaymentLabelsMatch(o.PaymentKey, entry.AccountKey) {
			paymentScore = PaymentWeight
		}
		byKey[o.PaymentKey] = append(byKey[o.PaymentKey], member{
			id:           o.OrderID,
			date:         o.Date,
			cents:        o.TotalCents,
			dateScore:    m.scorer.dateScore(days),
			paymentScore: paymentScore,
		})
	}

	return sortedGroups(byKey)
}

// sortedGroups returns the groups holding at least two members in key order,
// each sorted by (date, id).
func sortedGroups(byKey map[string][]member) [][]member {
	keys := make([]string, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	groups := make([][]member, 0, len(keys))
	for _, k := range keys {
		group := byKey[k]
		if len(group) < 2 {
			continue
		}
		sortMembers(group)
		groups = append(groups, group)
	}
	return groups
}

// references reports whether the order names the entry in its charge
// references, either by entry id or as a whole word inside the entry memo.
func references(order *model.OrderRecord, entry *model.LedgerEntry) bool {
	for _, ref := range order.ChargeReferences {
		if ref == entry.EntryID {
			return true
		}
		if entry.Memo != nil && containsWord(strings.ToLower(*entry.Memo), strings.ToLower(ref)) {
			return true
		}
	}
	return false
}

// containsWord reports whether word occurs in s with no letter or digit
// directly before or after it.
func containsWord(s, word string) bool {
	if word == "" {
		return false
	}
	for offset := 0; offset <= len(s)-len(word); {
		i := strings.Index(s[offset:], word)
		if i < 0 {
			return false
		}
		start := offset + i
		end := start + len(word)
		before, _ := utf8.DecodeLastRuneInString(s[:start])
		after, _ := utf8.DecodeRuneInString(s[end:])
		if (start == 0 || !isWordRune(before)) && (end == len(s) || !isWordRune(after)) {
			return true
		}
		offset = start + 1
	}
	return false
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func sortMembers(members []member) {
	sort.SliceStable(members, func(i, j int) bool {
		if !members[i].date.Equal(members[j].date) {
			return members[i].date.Before(members[j].date)
		}
		return members[i].id < members[j].id
	})
}

// splitVisitOrder returns order indexes: multi-charge hints first, then by
// date, then by id.
func splitVisitOrder(orders []model.OrderRecord) []int {
	idx := make([]int, len(orders))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		oa, ob := orders[idx[a]], orders[idx[b]]
		if oa.MultiChargeHint != ob.MultiChargeHint {
			return oa.MultiChargeHint
		}
		if !oa.Date.Equal(ob.Date) {
			return oa.Date.Before(ob.Date)
		}
		return oa.OrderID < ob.OrderID
	})
	return idx
}

// dateVisitOrder returns entry indexes sorted by date, then id.
func dateVisitOrder(entries []model.LedgerEntry) []int {
	idx := make([]int, len(entries))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		ea, eb := entries[idx[a]], entries[idx[b]]
		if !ea.Date.Equal(eb.Date) {
			return ea.Date.Before(eb.Date)
		}
		return ea.EntryID < eb.EntryID
	})
	return idx
}
