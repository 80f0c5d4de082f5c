// Package validator provides validation logic for batch matches.
//
// The charges validator checks that a group of charges sums to the amount it
// is matched against. The reconciler uses it to confirm every split payment
// and consolidated charge before a result leaves the engine.
package validator

import (
	"fmt"
)

// ChargeValidation contains the result of validating charges.
type ChargeValidation struct {
	// Valid is true if the charges sum correctly
	Valid bool

	// ChargesSumCents is the sum of all charges
	ChargesSumCents int64

	// ExpectedCents is what the charges should sum to
	ExpectedCents int64

	// DifferenceCents is ChargesSumCents - ExpectedCents
	DifferenceCents int64

	// Reason explains why validation failed (empty if valid)
	Reason string
}

// ValidateCharges checks that charges sum to expected within toleranceCents.
// Charge signs are ignored; magnitudes are summed.
func ValidateCharges(chargesCents []int64, expectedCents, toleranceCents int64) *ChargeValidation {
	var sum int64
	for _, c := range chargesCents {
		if c < 0 {
			c = -c
		}
		sum += c
	}
	if expectedCents < 0 {
		expectedCents = -expectedCents
	}

	diff := sum - expectedCents
	abs := diff
	if abs < 0 {
		abs = -abs
	}

	result := &ChargeValidation{
		Valid:           abs <= toleranceCents,
		ChargesSumCents: sum,
		ExpectedCents:   expectedCents,
		DifferenceCents: diff,
	}
	if result.Valid {
		return result
	}

	if diff < 0 {
		result.Reason = fmt.Sprintf("charges (%s) are less than expected (%s) - missing %s",
			FormatCents(sum), FormatCents(expectedCents), FormatCents(-diff))
	} else {
		result.Reason = fmt.Sprintf("charges (%s) exceed expected (%s) by %s",
			FormatCents(sum), FormatCents(expectedCents), FormatCents(diff))
	}
	return result
}

// FormatCents renders cents as dollars, e.g. 123456 -> "$1234.56".
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s$%d.%02d", sign, cents/100, cents%100)
}
