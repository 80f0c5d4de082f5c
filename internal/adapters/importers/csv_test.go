package importers

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/order-reconciler/internal/domain/normalizer"
)

func TestReadOrdersCSV(t *testing.T) {
	input := "Order_ID,Date,Total,Payment_Label,Multi_Charge,Charge_References,Items\n" +
		"111-8888888-3333333,2025-10-12,$49.99,Apple Card,false,,USB-C Cable=19.99;Charger=30.00\n" +
		"\n" +
		"112-4559127-2161020,2025-10-10,33.34,Prime Card 3008,yes,ship-1; ship-2,\n"

	orders, err := ReadOrdersCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, orders, 2)

	assert.Equal(t, normalizer.RawOrder{
		OrderID:      "111-8888888-3333333",
		Date:         "2025-10-12",
		Total:        "$49.99",
		PaymentLabel: "Apple Card",
		Items: []normalizer.RawItem{
			{Name: "USB-C Cable", Price: "19.99"},
			{Name: "Charger", Price: "30.00"},
		},
	}, orders[0])

	assert.True(t, orders[1].MultiChargeHint)
	assert.Equal(t, []string{"ship-1", "ship-2"}, orders[1].ChargeReferences)
	assert.Empty(t, orders[1].Items)
}

func TestReadOrdersCSV_OptionalColumns(t *testing.T) {
	input := "date,order_id,total\n2025-10-12,A,10.00\n"

	orders, err := ReadOrdersCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "A", orders[0].OrderID)
	assert.Equal(t, "2025-10-12", orders[0].Date)
	assert.Empty(t, orders[0].PaymentLabel)
}

func TestReadOrdersCSV_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		message string
	}{
		{"empty file", "", "no header row"},
		{"missing total", "order_id,date\nA,2025-10-12\n", "missing required columns: total"},
		{"duplicate column", "order_id,date,total,total\n", "duplicate column"},
		{"bad quoting", "order_id,date,total\n\"A,2025-10-12,1.00\n", "failed to read csv"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadOrdersCSV(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestReadLedgerCSV(t *testing.T) {
	input := "entry_id,date,amount,account,counterparty,memo\n" +
		"txn-1,2025-10-12,-49.99,Apple Card,Amazon,\n" +
		"txn-2,2025-10-13,(23.81),Chase,Amazon,Order 111-8888888-3333333\n" +
		"txn-3,2025-10-14,-1.00\n"

	entries, err := ReadLedgerCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, "txn-1", entries[0].EntryID)
	assert.Nil(t, entries[0].Memo)

	assert.Equal(t, "(23.81)", entries[1].Amount)
	require.NotNil(t, entries[1].Memo)
	assert.Equal(t, "Order 111-8888888-3333333", *entries[1].Memo)

	assert.Equal(t, "-1.00", entries[2].Amount)
	assert.Empty(t, entries[2].AccountLabel, "short rows leave missing cells empty")
	assert.Nil(t, entries[2].Memo)
}

func TestReadLedgerCSV_MissingColumns(t *testing.T) {
	_, err := ReadLedgerCSV(strings.NewReader("id,date,amount\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "entry_id")
}

func TestParseItems(t *testing.T) {
	items := parseItems("a=b=1.00; plain ;Widget = 2.50")
	assert.Equal(t, []normalizer.RawItem{
		{Name: "a=b", Price: "1.00"},
		{Name: "plain", Price: ""},
		{Name: "Widget", Price: "2.50"},
	}, items)
}
