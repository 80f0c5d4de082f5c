// Package model defines the canonical records the reconciliation engine works on.
//
// Records are immutable snapshots built once per run by the normalizer.
// Amounts are integer cents; dates are calendar dates at UTC midnight.
package model

import (
	"time"
)

// OrderItem is a single line of a merchant order.
type OrderItem struct {
	Name       string `json:"name"`
	PriceCents int64  `json:"price_cents"`
}

// OrderRecord represents a merchant order to reconcile.
type OrderRecord struct {
	OrderID          string      `json:"order_id"`
	Date             time.Time   `json:"date"`
	TotalCents       int64       `json:"total_cents"`
	Items            []OrderItem `json:"items,omitempty"`
	PaymentLabel     string      `json:"payment_label"`
	MultiChargeHint  bool        `json:"is_multi_charge_hint"`
	ChargeReferences []string    `json:"charge_references,omitempty"`

	// PaymentKey is the lower-cased, trimmed PaymentLabel used for comparison
	PaymentKey string `json:"-"`
}

// LedgerEntry represents a bank ledger transaction.
// Outflows are negative; matching uses the magnitude.
type LedgerEntry struct {
	EntryID           string    `json:"entry_id"`
	Date              time.Time `json:"date"`
	AmountCents       int64     `json:"amount_cents"`
	AccountLabel      string    `json:"account_label"`
	CounterpartyLabel string    `json:"counterparty_label"`
	Memo              *string   `json:"memo,omitempty"`

	AccountKey      string `json:"-"`
	CounterpartyKey string `json:"-"`
}

// Magnitude returns the absolute amount in cents.
func (e LedgerEntry) Magnitude() int64 {
	if e.AmountCents < 0 {
		return -e.AmountCents
	}
	return e.AmountCents
}

// DaysBetween returns the whole number of calendar days between two dates.
func DaysBetween(a, b time.Time) int64 {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	da := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	db := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	diff := da.Sub(db)
	if diff < 0 {
		diff = -diff
	}
	return int64(diff / (24 * time.Hour))
}

// AbsDiff returns |a - b|.
func AbsDiff(a, b int64) int64 {
	if a > b {
		return a - b
	}
	return b - a
}
