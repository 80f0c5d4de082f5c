package importers

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/eshaffer321/order-reconciler/internal/domain/normalizer"
)

// ReadOrdersCSV reads orders from CSV with a header row. Columns:
// order_id, date, total, payment_label, multi_charge,
// charge_references (";"-separated), items ("name=price;...").
func ReadOrdersCSV(r io.Reader) ([]normalizer.RawOrder, error) {
	rows, err := readCSV(r)
	if err != nil {
		return nil, err
	}
	orders, err := rowsToOrders(rows)
	if err != nil {
		return nil, fmt.Errorf("invalid orders csv: %w", err)
	}
	return orders, nil
}

// ReadLedgerCSV reads ledger entries from CSV with a header row. Columns:
// entry_id, date, amount, account, counterparty, memo.
func ReadLedgerCSV(r io.Reader) ([]normalizer.RawLedgerEntry, error) {
	rows, err := readCSV(r)
	if err != nil {
		return nil, err
	}
	entries, err := rowsToLedger(rows)
	if err != nil {
		return nil, fmt.Errorf("invalid ledger csv: %w", err)
	}
	return entries, nil
}

func readCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	return rows, nil
}
