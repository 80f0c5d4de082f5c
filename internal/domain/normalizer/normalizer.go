// Package normalizer converts loosely typed order and ledger records supplied
// by importers into the canonical records used for matching.
//
// Amounts become integer cents, dates become calendar dates and labels get a
// lower-cased comparison key. Records that cannot be normalized are dropped and
// reported as warnings; nothing here is fatal.
package normalizer

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/eshaffer321/order-reconciler/internal/domain/model"
)

// RawItem is an order line as supplied by an importer.
type RawItem struct {
	Name  string `json:"name"`
	Price string `json:"price"`
}

// RawOrder is an order as supplied by an importer.
type RawOrder struct {
	OrderID          string    `json:"order_id"`
	Date             string    `json:"date"`
	Total            string    `json:"total"`
	Items            []RawItem `json:"items,omitempty"`
	PaymentLabel     string    `json:"payment_label"`
	MultiChargeHint  bool      `json:"is_multi_charge_hint"`
	ChargeReferences []string  `json:"charge_references,omitempty"`
}

// RawLedgerEntry is a ledger transaction as supplied by an importer.
type RawLedgerEntry struct {
	EntryID           string  `json:"entry_id"`
	Date              string  `json:"date"`
	Amount            string  `json:"amount"`
	AccountLabel      string  `json:"account_label"`
	CounterpartyLabel string  `json:"counterparty_label"`
	Memo              *string `json:"memo,omitempty"`
}

// Result holds the normalized records and any warnings.
type Result struct {
	Orders   []model.OrderRecord
	Entries  []model.LedgerEntry
	Warnings []model.Warning
}

// Normalize converts both collections. Input order is preserved for kept records.
func Normalize(orders []RawOrder, entries []RawLedgerEntry) *Result {
	res := &Result{
		Orders:  make([]model.OrderRecord, 0, len(orders)),
		Entries: make([]model.LedgerEntry, 0, len(entries)),
	}

	seenOrders := make(map[string]bool, len(orders))
	for i, raw := range orders {
		order, warnings, err := NormalizeOrder(raw)
		for _, w := range warnings {
			res.Warnings = append(res.Warnings, model.Warning{Source: "order", RecordID: raw.OrderID, Index: i, Reason: w})
		}
		if err == nil && seenOrders[order.OrderID] {
			err = fmt.Errorf("duplicate order id %q", order.OrderID)
		}
		if err != nil {
			res.Warnings = append(res.Warnings, model.Warning{Source: "order", RecordID: raw.OrderID, Index: i, Reason: err.Error()})
			continue
		}
		seenOrders[order.OrderID] = true
		res.Orders = append(res.Orders, order)
	}

	seenEntries := make(map[string]bool, len(entries))
	for i, raw := range entries {
		entry, err := NormalizeEntry(raw)
		if err == nil && seenEntries[entry.EntryID] {
			err = fmt.Errorf("duplicate entry id %q", entry.EntryID)
		}
		if err != nil {
			res.Warnings = append(res.Warnings, model.Warning{Source: "ledger", RecordID: raw.EntryID, Index: i, Reason: err.Error()})
			continue
		}
		seenEntries[entry.EntryID] = true
		res.Entries = append(res.Entries, entry)
	}

	return res
}

// NormalizeOrder converts a single order. Item-level problems are returned as
// warnings and the offending item is skipped; order-level problems are errors.
func NormalizeOrder(raw RawOrder) (model.OrderRecord, []string, error) {
	id := strings.TrimSpace(raw.OrderID)
	if id == "" {
		return model.OrderRecord{}, nil, fmt.Errorf("missing order id")
	}

	date, err := ParseDate(raw.Date)
	if err != nil {
		return model.OrderRecord{}, nil, err
	}

	total, err := ParseCents(raw.Total)
	if err != nil {
		return model.OrderRecord{}, nil, fmt.Errorf("invalid total: %w", err)
	}
	if total <= 0 {
		return model.OrderRecord{}, nil, fmt.Errorf("non-positive total %q", raw.Total)
	}

	var warnings []string
	items := make([]model.OrderItem, 0, len(raw.Items))
	for i, it := range raw.Items {
		price, err := ParseCents(it.Price)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("item %d (%q) skipped: %v", i, it.Name, err))
			continue
		}
		items = append(items, model.OrderItem{Name: strings.TrimSpace(it.Name), PriceCents: price})
	}

	var refs []string
	for _, r := range raw.ChargeReferences {
		if r = strings.TrimSpace(r); r != "" {
			refs = append(refs, r)
		}
	}

	return model.OrderRecord{
		OrderID:          id,
		Date:             date,
		TotalCents:       total,
		Items:            items,
		PaymentLabel:     raw.PaymentLabel,
		PaymentKey:       Key(raw.PaymentLabel),
		MultiChargeHint:  raw.MultiChargeHint,
		ChargeReferences: refs,
	}, warnings, nil
}

// NormalizeEntry converts a single ledger entry. The sign of the amount is kept;
// a zero or missing amount is rejected.
func NormalizeEntry(raw RawLedgerEntry) (model.LedgerEntry, error) {
	id := strings.TrimSpace(raw.EntryID)
	if id == "" {
		return model.LedgerEntry{}, fmt.Errorf("missing entry id")
	}

	date, err := ParseDate(raw.Date)
	if err != nil {
		return model.LedgerEntry{}, err
	}

	amount, err := ParseCents(raw.Amount)
	if err != nil {
		return model.LedgerEntry{}, fmt.Errorf("invalid amount: %w", err)
	}
	if amount == 0 {
		return model.LedgerEntry{}, fmt.Errorf("zero amount")
	}

	var memo *string
	if raw.Memo != nil {
		m := *raw.Memo
		memo = &m
	}

	return model.LedgerEntry{
		EntryID:           id,
		Date:              date,
		AmountCents:       amount,
		AccountLabel:      raw.AccountLabel,
		AccountKey:        Key(raw.AccountLabel),
		CounterpartyLabel: raw.CounterpartyLabel,
		CounterpartyKey:   Key(raw.CounterpartyLabel),
		Memo:              memo,
	}, nil
}

// Key returns the comparison form of a label.
func Key(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}

// ParseCents parses a currency string like "$1,234.56", "-42.10" or "(42.10)"
// into integer cents, rounding half away from zero.
func ParseCents(s string) (int64, error) {
	cleaned := strings.TrimSpace(s)
	if cleaned == "" {
		return 0, fmt.Errorf("empty amount")
	}

	negative := false
	if strings.HasPrefix(cleaned, "(") && strings.HasSuffix(cleaned, ")") {
		negative = true
		cleaned = strings.TrimSuffix(strings.TrimPrefix(cleaned, "("), ")")
	}
	if strings.HasPrefix(cleaned, "-") {
		negative = !negative
		cleaned = strings.TrimPrefix(cleaned, "-")
	}
	cleaned = strings.TrimPrefix(cleaned, "+")
	cleaned = strings.TrimPrefix(cleaned, "$")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.TrimSpace(cleaned)

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	cents := d.Shift(2).Round(0)
	if cents.GreaterThan(maxCents) {
		return 0, fmt.Errorf("amount out of range %q", s)
	}
	if negative {
		cents = cents.Neg()
	}
	return cents.IntPart(), nil
}

var maxCents = decimal.NewFromInt(math.MaxInt64)

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"January 2, 2006",
	"Jan 2, 2006",
	"01/02/2006",
}

// ParseDate parses the supported date formats and returns the calendar date at
// UTC midnight.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date string")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse date %q", s)
}
