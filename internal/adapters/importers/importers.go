// Package importers reads order exports and ledger exports into the raw
// records the normalizer accepts.
//
// Supported inputs:
//   - JSON order exports (including amazon-order-scraper output) and JSON
//     ledger transaction dumps
//   - CSV files with a header row
//   - XLSX order workbooks (first sheet, same columns as CSV)
//
// A file that cannot be decoded at all is an error. Individual records are
// passed through as-is; bad dates or amounts are the normalizer's concern.
package importers

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/eshaffer321/order-reconciler/internal/domain/normalizer"
)

// ErrUnsupportedFormat is returned for file extensions with no reader.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// LoadOrders reads orders from a .json, .csv or .xlsx file
func LoadOrders(path string) ([]normalizer.RawOrder, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".xlsx" {
		orders, err := ReadOrdersXLSXFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to import orders from %s: %w", path, err)
		}
		return orders, nil
	}
	if ext != ".json" && ext != ".csv" {
		return nil, fmt.Errorf("orders file %s: %w %q", path, ErrUnsupportedFormat, ext)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var orders []normalizer.RawOrder
	if ext == ".json" {
		orders, err = ReadOrdersJSON(f)
	} else {
		orders, err = ReadOrdersCSV(f)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to import orders from %s: %w", path, err)
	}
	return orders, nil
}

// LoadLedger reads ledger entries from a .json or .csv file
func LoadLedger(path string) ([]normalizer.RawLedgerEntry, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".json" && ext != ".csv" {
		return nil, fmt.Errorf("ledger file %s: %w %q", path, ErrUnsupportedFormat, ext)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var entries []normalizer.RawLedgerEntry
	if ext == ".json" {
		entries, err = ReadLedgerJSON(f)
	} else {
		entries, err = ReadLedgerCSV(f)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to import ledger from %s: %w", path, err)
	}
	return entries, nil
}
