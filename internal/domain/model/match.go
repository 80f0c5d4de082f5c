package model

// MatchKind identifies the variant of a MatchResult.
type MatchKind string

const (
	KindNormal             MatchKind = "normal"
	KindSplitPayment       MatchKind = "split_payment"
	KindConsolidatedCharge MatchKind = "consolidated_charge"
)

// MatchResult is implemented by NormalMatch, SplitPaymentMatch and
// ConsolidatedChargeMatch. The set is closed.
type MatchResult interface {
	Kind() MatchKind
	OrderIDs() []string
	EntryIDs() []string
	ConfidenceScore() int
	isMatchResult()
}

// NormalMatch pairs one order with one ledger entry.
type NormalMatch struct {
	OrderID         string `json:"order_id"`
	EntryID         string `json:"entry_id"`
	Confidence      int    `json:"confidence"`
	DateDiffDays    int64  `json:"date_diff_days"`
	AmountDiffCents int64  `json:"amount_diff_cents"`
}

func (m NormalMatch) Kind() MatchKind      { return KindNormal }
func (m NormalMatch) OrderIDs() []string   { return []string{m.OrderID} }
func (m NormalMatch) EntryIDs() []string   { return []string{m.EntryID} }
func (m NormalMatch) ConfidenceScore() int { return m.Confidence }
func (NormalMatch) isMatchResult()         {}

// SplitPaymentMatch pairs one order with two or more ledger entries.
type SplitPaymentMatch struct {
	OrderID           string   `json:"order_id"`
	EntryIDList       []string `json:"entry_ids"`
	Confidence        int      `json:"confidence"`
	OrderTotalCents   int64    `json:"order_total_cents"`
	EntriesTotalCents int64    `json:"entries_total_cents"`
}

func (m SplitPaymentMatch) Kind() MatchKind      { return KindSplitPayment }
func (m SplitPaymentMatch) OrderIDs() []string   { return []string{m.OrderID} }
func (m SplitPaymentMatch) EntryIDs() []string   { return append([]string(nil), m.EntryIDList...) }
func (m SplitPaymentMatch) ConfidenceScore() int { return m.Confidence }
func (SplitPaymentMatch) isMatchResult()         {}

// ConsolidatedChargeMatch pairs two or more orders with one ledger entry.
type ConsolidatedChargeMatch struct {
	OrderIDList      []string `json:"order_ids"`
	EntryID          string   `json:"entry_id"`
	Confidence       int      `json:"confidence"`
	OrdersTotalCents int64    `json:"orders_total_cents"`
	EntryAmountCents int64    `json:"entry_amount_cents"`
}

func (m ConsolidatedChargeMatch) Kind() MatchKind      { return KindConsolidatedCharge }
func (m ConsolidatedChargeMatch) OrderIDs() []string   { return append([]string(nil), m.OrderIDList...) }
func (m ConsolidatedChargeMatch) EntryIDs() []string   { return []string{m.EntryID} }
func (m ConsolidatedChargeMatch) ConfidenceScore() int { return m.Confidence }
func (ConsolidatedChargeMatch) isMatchResult()         {}

// Warning describes an input record dropped or altered during normalization.
type Warning struct {
	Source   string `json:"source"` // "order" or "ledger"
	RecordID string `json:"record_id"`
	Index    int    `json:"index"`
	Reason   string `json:"reason"`
}

// ReconciliationResult is the partition produced by one run.
type ReconciliationResult struct {
	Matches          []MatchResult `json:"-"`
	UnmatchedOrders  []OrderRecord `json:"unmatched_orders"`
	UnmatchedEntries []LedgerEntry `json:"unmatched_entries"`
	Warnings         []Warning     `json:"warnings,omitempty"`
}

// Summary contains aggregate counts for a result.
type Summary struct {
	Orders              int `json:"orders"`
	Entries             int `json:"entries"`
	NormalMatches       int `json:"normal_matches"`
	SplitPayments       int `json:"split_payments"`
	ConsolidatedCharges int `json:"consolidated_charges"`
	UnmatchedOrders     int `json:"unmatched_orders"`
	UnmatchedEntries    int `json:"unmatched_entries"`
	Warnings            int `json:"warnings"`
}

// Summary counts matches per kind and the unmatched remainder.
func (r *ReconciliationResult) Summary() Summary {
	s := Summary{
		UnmatchedOrders:  len(r.UnmatchedOrders),
		UnmatchedEntries: len(r.UnmatchedEntries),
		Warnings:         len(r.Warnings),
	}
	for _, m := range r.Matches {
		switch m.Kind() {
		case KindNormal:
			s.NormalMatches++
		case KindSplitPayment:
			s.SplitPayments++
		case KindConsolidatedCharge:
			s.ConsolidatedCharges++
		}
		s.Orders += len(m.OrderIDs())
		s.Entries += len(m.EntryIDs())
	}
	s.Orders += s.UnmatchedOrders
	s.Entries += s.UnmatchedEntries
	return s
}

// MatchedOrderIDs returns every order id referenced by a match, in match order.
func (r *ReconciliationResult) MatchedOrderIDs() []string {
	var ids []string
	for _, m := range r.Matches {
		ids = append(ids, m.OrderIDs()...)
	}
	return ids
}

// MatchedEntryIDs returns every entry id referenced by a match, in match order.
func (r *ReconciliationResult) MatchedEntryIDs() []string {
	var ids []string
	for _, m := range r.Matches {
		ids = append(ids, m.EntryIDs()...)
	}
	return ids
}
