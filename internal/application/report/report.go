// Package report turns a reconciliation result into a human digest and into
// the memo text a write-back component would apply to ledger entries.
// Nothing here writes anywhere except the io.Writer given to Render.
package report

import (
	"fmt"
	"strings"

	"github.com/eshaffer321/order-reconciler/internal/domain/model"
	"github.com/eshaffer321/order-reconciler/internal/domain/validator"
)

// Line is one match in the digest
type Line struct {
	Kind        model.MatchKind `json:"kind"`
	OrderIDs    []string        `json:"order_ids"`
	EntryIDs    []string        `json:"entry_ids"`
	Confidence  int             `json:"confidence"`
	Description string          `json:"description"`
}

// Report is the digest of one run
type Report struct {
	Summary          model.Summary       `json:"summary"`
	Lines            []Line              `json:"lines"`
	UnmatchedOrders  []model.OrderRecord `json:"unmatched_orders"`
	UnmatchedEntries []model.LedgerEntry `json:"unmatched_entries"`
	Warnings         []model.Warning     `json:"warnings,omitempty"`
	Memos            []Memo              `json:"proposed_memos"`
}

// Records gives Build and ProposedMemos access to the normalized inputs,
// which carry the per-record amounts that matches only summarize.
type Records struct {
	orders  map[string]model.OrderRecord
	entries map[string]model.LedgerEntry
}

// NewRecords indexes orders and entries by id
func NewRecords(orders []model.OrderRecord, entries []model.LedgerEntry) Records {
	r := Records{
		orders:  make(map[string]model.OrderRecord, len(orders)),
		entries: make(map[string]model.LedgerEntry, len(entries)),
	}
	for _, o := range orders {
		r.orders[o.OrderID] = o
	}
	for _, e := range entries {
		r.entries[e.EntryID] = e
	}
	return r
}

// Build assembles the digest for result
func Build(result *model.ReconciliationResult, records Records) (*Report, error) {
	memos, err := ProposedMemos(result, records)
	if err != nil {
		return nil, err
	}

	rep := &Report{
		Summary:          result.Summary(),
		Lines:            make([]Line, 0, len(result.Matches)),
		UnmatchedOrders:  result.UnmatchedOrders,
		UnmatchedEntries: result.UnmatchedEntries,
		Warnings:         result.Warnings,
		Memos:            memos,
	}
	for _, m := range result.Matches {
		rep.Lines = append(rep.Lines, Line{
			Kind:        m.Kind(),
			OrderIDs:    m.OrderIDs(),
			EntryIDs:    m.EntryIDs(),
			Confidence:  m.ConfidenceScore(),
			Description: describe(m),
		})
	}
	return rep, nil
}

func describe(m model.MatchResult) string {
	switch v := m.(type) {
	case model.NormalMatch:
		return fmt.Sprintf("order %s -> entry %s (%d day(s) apart, %s off)",
			v.OrderID, v.EntryID, v.DateDiffDays, validator.FormatCents(v.AmountDiffCents))
	case model.SplitPaymentMatch:
		return fmt.Sprintf("order %s (%s) -> %d entries %s (%s)",
			v.OrderID, validator.FormatCents(v.OrderTotalCents), len(v.EntryIDList),
			strings.Join(v.EntryIDList, ", "), validator.FormatCents(v.EntriesTotalCents))
	case model.ConsolidatedChargeMatch:
		return fmt.Sprintf("%d orders %s (%s) -> entry %s (%s)",
			len(v.OrderIDList), strings.Join(v.OrderIDList, ", "), validator.FormatCents(v.OrdersTotalCents),
			v.EntryID, validator.FormatCents(v.EntryAmountCents))
	default:
		return ""
	}
}
