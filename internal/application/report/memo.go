package report

import (
	"fmt"
	"strings"

	"github.com/eshaffer321/order-reconciler/internal/domain/allocator"
	"github.com/eshaffer321/order-reconciler/internal/domain/model"
	"github.com/eshaffer321/order-reconciler/internal/domain/validator"
)

// Memo is the text proposed for one ledger entry
type Memo struct {
	EntryID  string `json:"entry_id"`
	Text     string `json:"text"`
	Existing string `json:"existing,omitempty"`
}

// ProposedMemos returns one memo per matched ledger entry, in match order.
// Consolidated charges are apportioned across their orders pro-rata to the
// order totals so the parts add up to the charge exactly.
func ProposedMemos(result *model.ReconciliationResult, records Records) ([]Memo, error) {
	memos := make([]Memo, 0, len(result.Matches))

	for _, m := range result.Matches {
		switch v := m.(type) {
		case model.NormalMatch:
			memos = append(memos, records.memo(v.EntryID, "Order "+v.OrderID))

		case model.SplitPaymentMatch:
			n := len(v.EntryIDList)
			for i, id := range v.EntryIDList {
				text := fmt.Sprintf("Split payment %d of %d for order %s (%s of %s)",
					i+1, n, v.OrderID,
					validator.FormatCents(records.entries[id].Magnitude()),
					validator.FormatCents(v.OrderTotalCents))
				memos = append(memos, records.memo(id, text))
			}

		case model.ConsolidatedChargeMatch:
			shares := make([]allocator.Share, len(v.OrderIDList))
			for i, id := range v.OrderIDList {
				order, ok := records.orders[id]
				if !ok {
					return nil, fmt.Errorf("order %s of consolidated charge %s not in records", id, v.EntryID)
				}
				shares[i] = allocator.Share{Name: id, WeightCents: order.TotalCents}
			}
			alloc, err := allocator.Allocate(shares, v.EntryAmountCents)
			if err != nil {
				return nil, fmt.Errorf("failed to apportion charge %s: %w", v.EntryID, err)
			}
			parts := make([]string, len(alloc.Allocations))
			for i, a := range alloc.Allocations {
				parts[i] = fmt.Sprintf("order %s %s", a.Name, validator.FormatCents(a.AllocatedCents))
			}
			memos = append(memos, records.memo(v.EntryID, "Consolidated charge: "+strings.Join(parts, ", ")))
		}
	}
	return memos, nil
}

func (r Records) memo(entryID, text string) Memo {
	m := Memo{EntryID: entryID, Text: text}
	if e, ok := r.entries[entryID]; ok && e.Memo != nil {
		m.Existing = *e.Memo
	}
	return m
}
