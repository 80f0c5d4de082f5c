package matcher

import (
	"math/bits"
	"strings"
	"unicode"

	"github.com/eshaffer321/order-reconciler/internal/domain/model"
)

// Sub-score weights. They sum to 100.
const (
	AmountWeight  = 50
	DateWeight    = 30
	PaymentWeight = 20
)

// Candidate is a scored (order, entry) pair.
type Candidate struct {
	Order           *model.OrderRecord
	Entry           *model.LedgerEntry
	Confidence      int
	DateDiffDays    int64
	AmountDiffCents int64
}

// Scorer computes confidence scores for order/entry pairs.
// It is pure and deterministic.
type Scorer struct {
	config Config
}

// NewScorer creates a scorer with the given config
func NewScorer(config Config) *Scorer {
	return &Scorer{config: config}
}

// Score returns the 0-100 confidence for a pair, regardless of whether the
// pair passes the candidate pre-filter.
func (s *Scorer) Score(order model.OrderRecord, entry model.LedgerEntry) int {
	amountDiff := model.AbsDiff(order.TotalCents, entry.Magnitude())
	dateDiff := model.DaysBetween(order.Date, entry.Date)
	return s.amountScore(amountDiff) + s.dateScore(dateDiff) + paymentScore(order, entry)
}

// Evaluate scores a pair and reports whether it is a candidate: amount and date
// differences both within tolerance.
func (s *Scorer) Evaluate(order *model.OrderRecord, entry *model.LedgerEntry) (Candidate, bool) {
	amountDiff := model.AbsDiff(order.TotalCents, entry.Magnitude())
	dateDiff := model.DaysBetween(order.Date, entry.Date)

	c := Candidate{
		Order:           order,
		Entry:           entry,
		DateDiffDays:    dateDiff,
		AmountDiffCents: amountDiff,
	}
	if amountDiff > s.config.AmountTolerance() || dateDiff > s.config.dateTolerance() {
		return c, false
	}
	c.Confidence = s.amountScore(amountDiff) + s.dateScore(dateDiff) + paymentScore(*order, *entry)
	return c, true
}

func (s *Scorer) amountScore(diff int64) int {
	return linearScore(AmountWeight, diff, s.config.AmountTolerance())
}

func (s *Scorer) dateScore(days int64) int {
	return linearScore(DateWeight, days, s.config.dateTolerance())
}

// linearScore scales weight down linearly from diff 0 to diff == tolerance, and
// is zero beyond. Integer division floors, so a smaller diff never scores less.
func linearScore(weight int, diff, tolerance int64) int {
	if diff < 0 {
		diff = -diff
	}
	if tolerance <= 0 {
		if diff == 0 {
			return weight
		}
		return 0
	}
	if diff > tolerance {
		return 0
	}
	// weight*(tolerance-diff) can exceed int64, so take the 128-bit product.
	hi, lo := bits.Mul64(uint64(weight), uint64(tolerance-diff))
	q, _ := bits.Div64(hi, lo, uint64(tolerance))
	return int(q)
}

func paymentScore(order model.OrderRecord, entry model.LedgerEntry) int {
	if PaymentLabelsMatch(order.PaymentKey, entry.AccountKey) {
		return PaymentWeight
	}
	return 0
}

// genericTokens are label words too common to identify an instrument.
var genericTokens = map[string]bool{
	"card":       true,
	"cards":      true,
	"credit":     true,
	"debit":      true,
	"account":    true,
	"checking":   true,
	"savings":    true,
	"the":        true,
	"and":        true,
	"for":        true,
	"bank":       true,
	"visa":       true,
	"mastercard": true,
	"ending":     true,
	"with":       true,
	"business":   true,
	"personal":   true,
}

// PaymentLabelsMatch reports whether an order payment label and a ledger
// account label plausibly name the same instrument. Both are expected in
// canonical (lower-cased, trimmed) form.
func PaymentLabelsMatch(paymentKey, accountKey string) bool {
	if paymentKey == "" || accountKey == "" {
		return false
	}
	if strings.Contains(paymentKey, accountKey) || strings.Contains(accountKey, paymentKey) {
		return true
	}

	accountTokens := make(map[string]bool)
	for _, tok := range significantTokens(accountKey) {
		accountTokens[tok] = true
	}
	for _, tok := range significantTokens(paymentKey) {
		if accountTokens[tok] {
			return true
		}
	}
	return false
}

func significantTokens(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	tokens := fields[:0]
	for _, f := range fields {
		if len(f) < 3 || genericTokens[f] {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}
