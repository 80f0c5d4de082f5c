package model

import "encoding/json"

// MatchRecord is the flat, serializable form of any MatchResult.
type MatchRecord struct {
	Kind            MatchKind `json:"kind"`
	OrderIDs        []string  `json:"order_ids"`
	EntryIDs        []string  `json:"entry_ids"`
	Confidence      int       `json:"confidence"`
	OrderCents      int64     `json:"order_cents"` // order total, or sum of order totals
	EntryCents      int64     `json:"entry_cents"` // entry magnitude, or sum of entry magnitudes
	DateDiffDays    int64     `json:"date_diff_days,omitempty"`
	AmountDiffCents int64     `json:"amount_diff_cents,omitempty"`
}

// ToRecord flattens a MatchResult.
// Normal matches carry no totals, so OrderCents/EntryCents are left zero for them.
func ToRecord(m MatchResult) MatchRecord {
	rec := MatchRecord{
		Kind:       m.Kind(),
		OrderIDs:   m.OrderIDs(),
		EntryIDs:   m.EntryIDs(),
		Confidence: m.ConfidenceScore(),
	}
	switch v := m.(type) {
	case NormalMatch:
		rec.DateDiffDays = v.DateDiffDays
		rec.AmountDiffCents = v.AmountDiffCents
	case SplitPaymentMatch:
		rec.OrderCents = v.OrderTotalCents
		rec.EntryCents = v.EntriesTotalCents
		rec.AmountDiffCents = AbsDiff(v.OrderTotalCents, v.EntriesTotalCents)
	case ConsolidatedChargeMatch:
		rec.OrderCents = v.OrdersTotalCents
		rec.EntryCents = v.EntryAmountCents
		rec.AmountDiffCents = AbsDiff(v.OrdersTotalCents, v.EntryAmountCents)
	}
	return rec
}

// FromRecord rebuilds the MatchResult variant described by rec.
func FromRecord(rec MatchRecord) MatchResult {
	switch rec.Kind {
	case KindSplitPayment:
		return SplitPaymentMatch{
			OrderID:           first(rec.OrderIDs),
			EntryIDList:       rec.EntryIDs,
			Confidence:        rec.Confidence,
			OrderTotalCents:   rec.OrderCents,
			EntriesTotalCents: rec.EntryCents,
		}
	case KindConsolidatedCharge:
		return ConsolidatedChargeMatch{
			OrderIDList:      rec.OrderIDs,
			EntryID:          first(rec.EntryIDs),
			Confidence:       rec.Confidence,
			OrdersTotalCents: rec.OrderCents,
			EntryAmountCents: rec.EntryCents,
		}
	default:
		return NormalMatch{
			OrderID:         first(rec.OrderIDs),
			EntryID:         first(rec.EntryIDs),
			Confidence:      rec.Confidence,
			DateDiffDays:    rec.DateDiffDays,
			AmountDiffCents: rec.AmountDiffCents,
		}
	}
}

func first(ids []string) string {
	if len(ids) == 0 {
		return ""
	}
	return ids[0]
}

// MarshalJSON encodes matches through MatchRecord so the variant is preserved.
func (r ReconciliationResult) MarshalJSON() ([]byte, error) {
	records := make([]MatchRecord, 0, len(r.Matches))
	for _, m := range r.Matches {
		records = append(records, ToRecord(m))
	}
	unmatchedOrders := r.UnmatchedOrders
	if unmatchedOrders == nil {
		unmatchedOrders = []OrderRecord{}
	}
	unmatchedEntries := r.UnmatchedEntries
	if unmatchedEntries == nil {
		unmatchedEntries = []LedgerEntry{}
	}
	return json.Marshal(struct {
		Matches          []MatchRecord `json:"matches"`
		UnmatchedOrders  []OrderRecord `json:"unmatched_orders"`
		UnmatchedEntries []LedgerEntry `json:"unmatched_entries"`
		Warnings         []Warning     `json:"warnings,omitempty"`
	}{records, unmatchedOrders, unmatchedEntries, r.Warnings})
}
