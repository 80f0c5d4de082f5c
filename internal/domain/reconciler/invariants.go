package reconciler

import (
	"fmt"

	"github.com/eshaffer321/order-reconciler/internal/domain/model"
	"github.com/eshaffer321/order-reconciler/internal/domain/validator"
)

// checkInvariants verifies that result is an exact partition of the inputs,
// that every match clears the threshold and that batch sums are in tolerance.
func (r *Reconciler) checkInvariants(orders []model.OrderRecord, entries []model.LedgerEntry, result *model.ReconciliationResult) error {
	orderCents := make(map[string]int64, len(orders))
	for _, o := range orders {
		orderCents[o.OrderID] = o.TotalCents
	}
	entryCents := make(map[string]int64, len(entries))
	for _, e := range entries {
		entryCents[e.EntryID] = e.Magnitude()
	}

	orderSeen := make(map[string]int, len(orders))
	entrySeen := make(map[string]int, len(entries))
	for _, id := range result.MatchedOrderIDs() {
		orderSeen[id]++
	}
	for _, o := range result.UnmatchedOrders {
		orderSeen[o.OrderID]++
	}
	for _, id := range result.MatchedEntryIDs() {
		entrySeen[id]++
	}
	for _, e := range result.UnmatchedEntries {
		entrySeen[e.EntryID]++
	}

	if err := checkPartition("order", orderCents, orderSeen); err != nil {
		return err
	}
	if err := checkPartition("entry", entryCents, entrySeen); err != nil {
		return err
	}

	tolerance := r.config.AmountTolerance()
	for _, m := range result.Matches {
		if !r.config.Accepts(m.ConfidenceScore()) {
			return fmt.Errorf("%w: %s match %v has confidence %d below threshold %.0f",
				ErrInvariantViolation, m.Kind(), m.OrderIDs(), m.ConfidenceScore(), r.config.MatchThreshold)
		}

		switch v := m.(type) {
		case model.SplitPaymentMatch:
			if len(v.EntryIDList) < 2 {
				return fmt.Errorf("%w: split payment for order %q has %d entries", ErrInvariantViolation, v.OrderID, len(v.EntryIDList))
			}
			charges := make([]int64, len(v.EntryIDList))
			for i, id := range v.EntryIDList {
				charges[i] = entryCents[id]
			}
			check := validator.ValidateCharges(charges, orderCents[v.OrderID], tolerance)
			if !check.Valid || check.ChargesSumCents != v.EntriesTotalCents {
				return fmt.Errorf("%w: split payment for order %q: %s", ErrInvariantViolation, v.OrderID, reason(check, v.EntriesTotalCents))
			}
		case model.ConsolidatedChargeMatch:
			if len(v.OrderIDList) < 2 {
				return fmt.Errorf("%w: consolidated charge %q has %d orders", ErrInvariantViolation, v.EntryID, len(v.OrderIDList))
			}
			totals := make([]int64, len(v.OrderIDList))
			for i, id := range v.OrderIDList {
				totals[i] = orderCents[id]
			}
			check := validator.ValidateCharges(totals, entryCents[v.EntryID], tolerance)
			if !check.Valid || check.ChargesSumCents != v.OrdersTotalCents {
				return fmt.Errorf("%w: consolidated charge %q: %s", ErrInvariantViolation, v.EntryID, reason(check, v.OrdersTotalCents))
			}
		}
	}
	return nil
}

func checkPartition(kind string, inputs map[string]int64, seen map[string]int) error {
	for id := range inputs {
		switch n := seen[id]; {
		case n == 0:
			return fmt.Errorf("%w: %s %q missing from result", ErrInvariantViolation, kind, id)
		case n > 1:
			return fmt.Errorf("%w: %s %q appears %d times", ErrInvariantViolation, kind, id, n)
		}
	}
	for id := range seen {
		if _, ok := inputs[id]; !ok {
			return fmt.Errorf("%w: unknown %s %q in result", ErrInvariantViolation, kind, id)
		}
	}
	return nil
}

func reason(check *validator.ChargeValidation, reported int64) string {
	if check.Reason != "" {
		return check.Reason
	}
	return fmt.Sprintf("reported total %s does not match members %s",
		validator.FormatCents(reported), validator.FormatCents(check.ChargesSumCents))
}
