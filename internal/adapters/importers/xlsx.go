package importers

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/eshaffer321/order-reconciler/internal/domain/normalizer"
)

// ReadOrdersXLSX reads orders from the first sheet of a workbook. The sheet
// uses the same header row as ReadOrdersCSV.
func ReadOrdersXLSX(r io.Reader) ([]normalizer.RawOrder, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()
	return ordersFromWorkbook(f)
}

// ReadOrdersXLSXFile is ReadOrdersXLSX for a file on disk
func ReadOrdersXLSXFile(path string) ([]normalizer.RawOrder, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()
	return ordersFromWorkbook(f)
}

func ordersFromWorkbook(f *excelize.File) ([]normalizer.RawOrder, error) {
	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}

	orders, err := rowsToOrders(rows)
	if err != nil {
		return nil, fmt.Errorf("invalid orders sheet %q: %w", sheet, err)
	}
	return orders, nil
}
