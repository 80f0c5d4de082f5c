package importers

import (
	"fmt"
	"strings"

	"github.com/eshaffer321/order-reconciler/internal/domain/normalizer"
)

// Column names shared by the CSV and XLSX readers (case-insensitive).
var (
	orderColumns  = []string{"order_id", "date", "total", "payment_label", "multi_charge", "charge_references", "items"}
	orderRequired = []string{"order_id", "date", "total"}

	ledgerColumns  = []string{"entry_id", "date", "amount", "account", "counterparty", "memo"}
	ledgerRequired = []string{"entry_id", "date", "amount"}
)

// header maps a known column name to its index in a row
type header map[string]int

func parseHeader(row []string, known, required []string) (header, error) {
	h := make(header)
	for i, cell := range row {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(cell, "\ufeff")))
		for _, k := range known {
			if name == k {
				if _, dup := h[k]; dup {
					return nil, fmt.Errorf("duplicate column %q", k)
				}
				h[k] = i
			}
		}
	}
	var missing []string
	for _, r := range required {
		if _, ok := h[r]; !ok {
			missing = append(missing, r)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}
	return h, nil
}

// get returns the trimmed cell for column, or "" when absent or short.
func (h header) get(row []string, column string) string {
	i, ok := h[column]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func (h header) has(row []string, column string) bool {
	i, ok := h[column]
	return ok && i < len(row)
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func rowsToOrders(rows [][]string) ([]normalizer.RawOrder, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("no header row")
	}
	h, err := parseHeader(rows[0], orderColumns, orderRequired)
	if err != nil {
		return nil, err
	}

	orders := make([]normalizer.RawOrder, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if blank(row) {
			continue
		}
		orders = append(orders, normalizer.RawOrder{
			OrderID:          h.get(row, "order_id"),
			Date:             h.get(row, "date"),
			Total:            h.get(row, "total"),
			PaymentLabel:     h.get(row, "payment_label"),
			MultiChargeHint:  parseFlag(h.get(row, "multi_charge")),
			ChargeReferences: splitList(h.get(row, "charge_references")),
			Items:            parseItems(h.get(row, "items")),
		})
	}
	return orders, nil
}

func rowsToLedger(rows [][]string) ([]normalizer.RawLedgerEntry, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("no header row")
	}
	h, err := parseHeader(rows[0], ledgerColumns, ledgerRequired)
	if err != nil {
		return nil, err
	}

	entries := make([]normalizer.RawLedgerEntry, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if blank(row) {
			continue
		}
		entry := normalizer.RawLedgerEntry{
			EntryID:           h.get(row, "entry_id"),
			Date:              h.get(row, "date"),
			Amount:            h.get(row, "amount"),
			AccountLabel:      h.get(row, "account"),
			CounterpartyLabel: h.get(row, "counterparty"),
		}
		if memo := h.get(row, "memo"); h.has(row, "memo") && memo != "" {
			entry.Memo = &memo
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func parseFlag(s string) bool {
	switch strings.ToLower(s) {
	case "1", "true", "t", "yes", "y":
		return true
	}
	return false
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ";") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parseItems reads "name=price;name=price". The last '=' separates the
// price so names may contain '='.
func parseItems(s string) []normalizer.RawItem {
	var items []normalizer.RawItem
	for _, part := range splitList(s) {
		name, price := part, ""
		if i := strings.LastIndex(part, "="); i >= 0 {
			name, price = strings.TrimSpace(part[:i]), strings.TrimSpace(part[i+1:])
		}
		items = append(items, normalizer.RawItem{Name: name, Price: price})
	}
	return items
}
