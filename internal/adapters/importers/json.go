package importers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/eshaffer321/order-reconciler/internal/domain/normalizer"
)

// Amount is a money value that may be written as a JSON string ("$116.20")
// or a JSON number (116.2). The text is kept verbatim for the normalizer.
type Amount string

// UnmarshalJSON accepts strings, numbers and null
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*a = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = Amount(s)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("amount must be a string or number: %w", err)
		}
		*a = Amount(n.String())
	}
	return nil
}

// OrderExport is the JSON order export format
type OrderExport struct {
	Orders []ExportOrder `json:"orders"`
}

// ExportOrder is one order in an export
type ExportOrder struct {
	OrderID          string              `json:"orderId"`
	OrderDate        string              `json:"orderDate"` // ISO 8601: "2025-12-13"
	Total            Amount              `json:"total"`     // "$116.20"
	PaymentMethod    string              `json:"paymentMethod"`
	MultiCharge      bool                `json:"multiCharge"`
	ChargeReferences []string            `json:"chargeReferences"`
	Items            []ExportItem        `json:"items"`
	Transactions     []ExportTransaction `json:"transactions"` // amazon-order-scraper
}

// ExportItem is an order line
type ExportItem struct {
	Name     string `json:"name"`
	Price    Amount `json:"price"`
	Quantity int    `json:"quantity"`
}

// ExportTransaction is a payment event the order source observed
type ExportTransaction struct {
	Date        string `json:"date"`
	Amount      Amount `json:"amount"`
	Type        string `json:"type"`  // "charge" or "refund"
	Last4       string `json:"last4"` // "1211"
	Description string `json:"description"`
	Reference   string `json:"reference"`
}

// LedgerExport is the JSON ledger transaction dump format
type LedgerExport struct {
	Transactions []LedgerTransaction `json:"transactions"`
}

// LedgerTransaction is one ledger entry in a dump
type LedgerTransaction struct {
	ID       string  `json:"id"`
	Date     string  `json:"date"`
	Amount   Amount  `json:"amount"`
	Account  string  `json:"account"`
	Merchant string  `json:"merchant"`
	Notes    *string `json:"notes"`
}

// ReadOrdersJSON decodes an order export
func ReadOrdersJSON(r io.Reader) ([]normalizer.RawOrder, error) {
	var export OrderExport
	if err := json.NewDecoder(r).Decode(&export); err != nil {
		return nil, fmt.Errorf("failed to decode order export: %w", err)
	}

	orders := make([]normalizer.RawOrder, 0, len(export.Orders))
	for _, o := range export.Orders {
		orders = append(orders, o.toRaw())
	}
	return orders, nil
}

// toRaw maps an export order, filling payment details from the observed
// transactions when the export does not state them directly.
func (o ExportOrder) toRaw() normalizer.RawOrder {
	raw := normalizer.RawOrder{
		OrderID:          o.OrderID,
		Date:             o.OrderDate,
		Total:            string(o.Total),
		PaymentLabel:     o.PaymentMethod,
		MultiChargeHint:  o.MultiCharge,
		ChargeReferences: append([]string(nil), o.ChargeReferences...),
	}

	for _, it := range o.Items {
		raw.Items = append(raw.Items, normalizer.RawItem{Name: it.Name, Price: itemTotal(it)})
	}

	charges := bankCharges(o.Transactions)
	if len(charges) > 1 {
		raw.MultiChargeHint = true
	}
	if raw.PaymentLabel == "" && len(charges) > 0 {
		raw.PaymentLabel = paymentLabel(charges[0])
	}
	for _, tx := range charges {
		if tx.Reference != "" {
			raw.ChargeReferences = append(raw.ChargeReferences, tx.Reference)
		}
	}
	return raw
}

// bankCharges returns the card charges of an order. Refunds and non-positive
// amounts are skipped. Points and gift card payments carry no card digits, so
// once any charge has digits the ones without are dropped; an export with no
// digits at all keeps every charge.
func bankCharges(txs []ExportTransaction) []ExportTransaction {
	var charges []ExportTransaction
	withDigits := false
	for _, tx := range txs {
		if tx.Type != "" && !strings.EqualFold(tx.Type, "charge") {
			continue
		}
		if cents, err := normalizer.ParseCents(string(tx.Amount)); err != nil || cents <= 0 {
			continue
		}
		if tx.Last4 != "" {
			withDigits = true
		}
		charges = append(charges, tx)
	}
	if !withDigits {
		return charges
	}

	kept := charges[:0]
	for _, tx := range charges {
		if tx.Last4 != "" {
			kept = append(kept, tx)
		}
	}
	return kept
}

// itemTotal multiplies the unit price by the quantity when both are usable;
// otherwise the price text is passed through unchanged.
func itemTotal(it ExportItem) string {
	price := string(it.Price)
	if it.Quantity <= 1 {
		return price
	}
	cents, err := normalizer.ParseCents(price)
	if err != nil {
		return price
	}
	total := cents * int64(it.Quantity)
	sign := ""
	if total < 0 {
		sign = "-"
		total = -total
	}
	return fmt.Sprintf("%s%d.%02d", sign, total/100, total%100)
}

func paymentLabel(tx ExportTransaction) string {
	if d := strings.TrimSpace(tx.Description); d != "" {
		return d
	}
	if tx.Last4 != "" {
		return "card " + tx.Last4
	}
	return ""
}

// ReadLedgerJSON decodes a ledger transaction dump
func ReadLedgerJSON(r io.Reader) ([]normalizer.RawLedgerEntry, error) {
	var export LedgerExport
	if err := json.NewDecoder(r).Decode(&export); err != nil {
		return nil, fmt.Errorf("failed to decode ledger export: %w", err)
	}

	entries := make([]normalizer.RawLedgerEntry, 0, len(export.Transactions))
	for _, t := range export.Transactions {
		entries = append(entries, normalizer.RawLedgerEntry{
			EntryID:           t.ID,
			Date:              t.Date,
			Amount:            string(t.Amount),
			AccountLabel:      t.Account,
			CounterpartyLabel: t.Merchant,
			Memo:              t.Notes,
		})
	}
	return entries, nil
}
