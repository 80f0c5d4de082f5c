package matcher

import (
	"strings"
	"time"

	"github.com/eshaffer321/order-reconciler/internal/domain/model"
)

var baseDate = time.Date(2025, 10, 10, 0, 0, 0, 0, time.UTC)

// Helper to create a test order
func makeOrder(id string, cents int64, date time.Time, payment string) model.OrderRecord {
	return model.OrderRecord{
		OrderID:      id,
		Date:         date,
		TotalCents:   cents,
		PaymentLabel: payment,
		PaymentKey:   strings.ToLower(strings.TrimSpace(payment)),
	}
}

// Helper to create a test ledger entry (outflow)
func makeEntry(id string, cents int64, date time.Time, account string) model.LedgerEntry {
	return model.LedgerEntry{
		EntryID:      id,
		Date:         date,
		AmountCents:  -cents,
		AccountLabel: account,
		AccountKey:   strings.ToLower(strings.TrimSpace(account)),
	}
}

func day(n int) time.Time {
	return baseDate.AddDate(0, 0, n)
}
