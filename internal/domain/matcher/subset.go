package matcher

import (
	"math"
	"time"
)

// member is one element a batch subset can be built from: a ledger entry in
// a split payment, or an order in a consolidated charge.
type member struct {
	id           string
	date         time.Time
	cents        int64
	dateScore    int
	paymentScore int
}

// subset is a qualifying group of members.
type subset struct {
	members    []member
	total      int64
	deviation  int64
	confidence int
}

// better reports whether s should be preferred over o: fewer members, then
// smaller deviation, then earlier member dates, then smaller ids.
func (s subset) better(o subset) bool {
	if len(s.members) != len(o.members) {
		return len(s.members) < len(o.members)
	}
	if s.deviation != o.deviation {
		return s.deviation < o.deviation
	}
	for i := range s.members {
		if !s.members[i].date.Equal(o.members[i].date) {
			return s.members[i].date.Before(o.members[i].date)
		}
	}
	for i := range s.members {
		if s.members[i].id != o.members[i].id {
			return s.members[i].id < o.members[i].id
		}
	}
	return false
}

// batchConfidence is a full amount sub-score plus the averaged date and
// payment sub-scores of the members.
func batchConfidence(members []member) int {
	if len(members) == 0 {
		return 0
	}
	var dateSum, paymentSum int
	for _, m := range members {
		dateSum += m.dateScore
		paymentSum += m.paymentScore
	}
	n := len(members)
	return AmountWeight + dateSum/n + paymentSum/n
}

// bestSubset enumerates every combination of 2..maxSize members whose summed
// cents are within tolerance of target and whose confidence is accepted, and
// returns the preferred one. Members must be sorted by (date, id) and carry
// positive cents, which lets the search stop extending a combination once its
// sum overshoots.
func bestSubset(members []member, target, tolerance int64, maxSize int, accept func(int) bool) (subset, bool) {
	var (
		best  subset
		found bool
		stack = make([]member, 0, maxSize)
	)

	limit := target + tolerance
	if limit < target {
		limit = math.MaxInt64
	}

	var walk func(start int, sum int64)
	walk = func(start int, sum int64) {
		if len(stack) >= 2 {
			deviation := sum - target
			if deviation < 0 {
				deviation = -deviation
			}
			if deviation <= tolerance {
				confidence := batchConfidence(stack)
				if accept(confidence) {
					candidate := subset{
						members:    append([]member(nil), stack...),
						total:      sum,
						deviation:  deviation,
						confidence: confidence,
					}
					if !found || candidate.better(best) {
						best = candidate
						found = true
					}
				}
			}
		}
		if len(stack) == maxSize {
			return
		}
		// A larger subset can never beat a smaller one already found.
		if found && len(best.members) <= len(stack) {
			return
		}
		for i := start; i < len(members); i++ {
			if members[i].cents > limit-sum {
				continue
			}
			stack = append(stack, members[i])
			walk(i+1, sum+members[i].cents)
			stack = stack[:len(stack)-1]
		}
	}

	if maxSize < 2 || len(members) < 2 {
		return subset{}, false
	}
	walk(0, 0)
	return best, found
}
