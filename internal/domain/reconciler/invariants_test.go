package reconciler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/order-reconciler/internal/domain/model"
)

func TestCheckInvariants(t *testing.T) {
	r := newReconciler(t)

	orders := []model.OrderRecord{
		{OrderID: "A", TotalCents: 3334},
		{OrderID: "B", TotalCents: 2500},
		{OrderID: "C", TotalCents: 3500},
	}
	entries := []model.LedgerEntry{
		{EntryID: "t1", AmountCents: -2381},
		{EntryID: "t2", AmountCents: -953},
		{EntryID: "t3", AmountCents: -6000},
	}
	split := model.SplitPaymentMatch{OrderID: "A", EntryIDList: []string{"t1", "t2"}, Confidence: 97, OrderTotalCents: 3334, EntriesTotalCents: 3334}
	consolidated := model.ConsolidatedChargeMatch{OrderIDList: []string{"B", "C"}, EntryID: "t3", Confidence: 100, OrdersTotalCents: 6000, EntryAmountCents: 6000}

	t.Run("valid partition", func(t *testing.T) {
		result := &model.ReconciliationResult{Matches: []model.MatchResult{split, consolidated}}
		assert.NoError(t, r.checkInvariants(orders, entries, result))
	})

	tests := []struct {
		name    string
		result  *model.ReconciliationResult
		message string
	}{
		{
			name:    "order missing",
			result:  &model.ReconciliationResult{Matches: []model.MatchResult{split}, UnmatchedOrders: orders[1:2], UnmatchedEntries: entries[2:]},
			message: `order "C" missing`,
		},
		{
			name: "entry claimed twice",
			result: &model.ReconciliationResult{
				Matches:          []model.MatchResult{split, consolidated},
				UnmatchedEntries: entries[:1],
			},
			message: `entry "t1" appears 2 times`,
		},
		{
			name: "unknown order",
			result: &model.ReconciliationResult{
				Matches:         []model.MatchResult{split, consolidated},
				UnmatchedOrders: []model.OrderRecord{{OrderID: "Z"}},
			},
			message: `unknown order "Z"`,
		},
		{
			name: "below threshold",
			result: &model.ReconciliationResult{Matches: []model.MatchResult{
				split,
				model.ConsolidatedChargeMatch{OrderIDList: []string{"B", "C"}, EntryID: "t3", Confidence: 10, OrdersTotalCents: 6000, EntryAmountCents: 6000},
			}},
			message: "below threshold",
		},
		{
			name: "split sum out of tolerance",
			result: &model.ReconciliationResult{
				Matches: []model.MatchResult{
					model.SplitPaymentMatch{OrderID: "A", EntryIDList: []string{"t1", "t3"}, Confidence: 90, OrderTotalCents: 3334, EntriesTotalCents: 3334},
					model.ConsolidatedChargeMatch{OrderIDList: []string{"B", "C"}, EntryID: "t2", Confidence: 90, OrdersTotalCents: 6000, EntryAmountCents: 6000},
				},
			},
			message: "exceed expected",
		},
		{
			name: "reported total disagrees",
			result: &model.ReconciliationResult{Matches: []model.MatchResult{
				model.SplitPaymentMatch{OrderID: "A", EntryIDList: []string{"t1", "t2"}, Confidence: 97, OrderTotalCents: 3334, EntriesTotalCents: 3333},
				consolidated,
			}},
			message: "reported total",
		},
		{
			name: "single member batch",
			result: &model.ReconciliationResult{
				Matches:          []model.MatchResult{model.SplitPaymentMatch{OrderID: "A", EntryIDList: []string{"t1"}, Confidence: 90}, consolidated},
				UnmatchedEntries: entries[1:2],
			},
			message: "has 1 entries",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := r.checkInvariants(orders, entries, tt.result)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvariantViolation)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}
