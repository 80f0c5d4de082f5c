package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/order-reconciler/internal/domain/model"
)

func day(d int) time.Time {
	return time.Date(2025, time.October, d, 0, 0, 0, 0, time.UTC)
}

func order(id string, d int, cents int64) model.OrderRecord {
	return model.OrderRecord{OrderID: id, Date: day(d), TotalCents: cents, PaymentLabel: "Chase Sapphire"}
}

func entry(id string, d int, cents int64) model.LedgerEntry {
	return model.LedgerEntry{EntryID: id, Date: day(d), AmountCents: cents, AccountLabel: "Chase Sapphire", CounterpartyLabel: "Amazon"}
}

func fixture() (*model.ReconciliationResult, Records) {
	existing := "groceries"
	e1 := entry("txn-1", 12, -4999)
	e1.Memo = &existing

	orders := []model.OrderRecord{
		order("111-1", 12, 4999),
		order("112-2", 10, 3334),
		order("113-3", 5, 2500),
		order("113-4", 5, 3500),
		order("114-5", 20, 1200),
	}
	entries := []model.LedgerEntry{
		e1,
		entry("txn-a", 10, -2381),
		entry("txn-b", 11, -953),
		entry("txn-c", 6, -6000),
		entry("txn-z", 25, -777),
	}
	result := &model.ReconciliationResult{
		Matches: []model.MatchResult{
			model.NormalMatch{OrderID: "111-1", EntryID: "txn-1", Confidence: 100},
			model.SplitPaymentMatch{OrderID: "112-2", EntryIDList: []string{"txn-a", "txn-b"}, Confidence: 96, OrderTotalCents: 3334, EntriesTotalCents: 3334},
			model.ConsolidatedChargeMatch{OrderIDList: []string{"113-3", "113-4"}, EntryID: "txn-c", Confidence: 94, OrdersTotalCents: 6000, EntryAmountCents: 6000},
		},
		UnmatchedOrders:  []model.OrderRecord{orders[4]},
		UnmatchedEntries: []model.LedgerEntry{entries[4]},
		Warnings:         []model.Warning{{Source: "order", RecordID: "bad-1", Index: 5, Reason: "invalid total"}},
	}
	return result, NewRecords(orders, entries)
}

func TestProposedMemos(t *testing.T) {
	result, records := fixture()

	memos, err := ProposedMemos(result, records)
	require.NoError(t, err)

	assert.Equal(t, []Memo{
		{EntryID: "txn-1", Text: "Order 111-1", Existing: "groceries"},
		{EntryID: "txn-a", Text: "Split payment 1 of 2 for order 112-2 ($23.81 of $33.34)"},
		{EntryID: "txn-b", Text: "Split payment 2 of 2 for order 112-2 ($9.53 of $33.34)"},
		{EntryID: "txn-c", Text: "Consolidated charge: order 113-3 $25.00, order 113-4 $35.00"},
	}, memos)
}

func TestProposedMemos_ApportionsUnevenCharge(t *testing.T) {
	records := NewRecords(
		[]model.OrderRecord{order("a", 1, 1000), order("b", 1, 1000), order("c", 1, 1000)},
		[]model.LedgerEntry{entry("txn", 2, -1000)},
	)
	result := &model.ReconciliationResult{Matches: []model.MatchResult{
		model.ConsolidatedChargeMatch{OrderIDList: []string{"a", "b", "c"}, EntryID: "txn", Confidence: 90, OrdersTotalCents: 3000, EntryAmountCents: 1000},
	}}

	memos, err := ProposedMemos(result, records)
	require.NoError(t, err)
	require.Len(t, memos, 1)
	assert.Equal(t, "Consolidated charge: order a $3.34, order b $3.33, order c $3.33", memos[0].Text)
}

func TestProposedMemos_MissingOrder(t *testing.T) {
	result := &model.ReconciliationResult{Matches: []model.MatchResult{
		model.ConsolidatedChargeMatch{OrderIDList: []string{"ghost-1", "ghost-2"}, EntryID: "txn", Confidence: 90},
	}}

	_, err := ProposedMemos(result, NewRecords(nil, nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ghost-1")
}

func TestProposedMemos_NoMatches(t *testing.T) {
	memos, err := ProposedMemos(&model.ReconciliationResult{}, NewRecords(nil, nil))
	require.NoError(t, err)
	assert.Empty(t, memos)
}

func TestBuild(t *testing.T) {
	result, records := fixture()

	rep, err := Build(result, records)
	require.NoError(t, err)

	assert.Equal(t, 5, rep.Summary.Orders)
	assert.Equal(t, 5, rep.Summary.Entries)
	assert.Equal(t, 1, rep.Summary.NormalMatches)
	assert.Equal(t, 1, rep.Summary.SplitPayments)
	assert.Equal(t, 1, rep.Summary.ConsolidatedCharges)
	assert.Equal(t, 1, rep.Summary.Warnings)

	require.Len(t, rep.Lines, 3)
	assert.Equal(t, model.KindNormal, rep.Lines[0].Kind)
	assert.Equal(t, "order 111-1 -> entry txn-1 (0 day(s) apart, $0.00 off)", rep.Lines[0].Description)
	assert.Equal(t, []string{"txn-a", "txn-b"}, rep.Lines[1].EntryIDs)
	assert.Equal(t, "order 112-2 ($33.34) -> 2 entries txn-a, txn-b ($33.34)", rep.Lines[1].Description)
	assert.Equal(t, "2 orders 113-3, 113-4 ($60.00) -> entry txn-c ($60.00)", rep.Lines[2].Description)
	assert.Len(t, rep.Memos, 4)
}

func TestRender(t *testing.T) {
	result, records := fixture()
	rep, err := Build(result, records)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, rep))
	out := buf.String()

	assert.Contains(t, out, "Reconciliation summary")
	assert.Contains(t, out, "Matched: normal=1 split=1 consolidated=1")
	assert.Contains(t, out, "Unmatched: orders=1 entries=1")
	assert.Contains(t, out, "Unmatched orders:")
	assert.Contains(t, out, "114-5")
	assert.Contains(t, out, "Unmatched entries:")
	assert.Contains(t, out, "txn-z")
	assert.Contains(t, out, "-$7.77")
	assert.Contains(t, out, "invalid total")
	assert.Contains(t, out, "Split payment 2 of 2 for order 112-2")
}

func TestRender_EmptyResult(t *testing.T) {
	rep, err := Build(&model.ReconciliationResult{}, NewRecords(nil, nil))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, rep))
	out := buf.String()

	assert.Contains(t, out, "Orders=0 Entries=0 Warnings=0")
	assert.NotContains(t, out, "Matches:")
	assert.NotContains(t, out, "Proposed memos:")
}
