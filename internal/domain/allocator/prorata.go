// Package allocator provides pro-rata cost allocation in integer cents.
//
// The allocator distributes a total across shares proportionally to their
// weights. Reports use it to apportion a consolidated bank charge across the
// orders it paid for:
//
//	multiplier = total / sum(weights)
//	share = floor(weight * total / sum(weights)) + remainder cents
package allocator

import (
	"errors"
	"sort"
)

// Share is something a portion of the total is allocated to.
type Share struct {
	Name        string
	WeightCents int64
}

// Allocation represents the allocated amount for a single share.
type Allocation struct {
	Name           string
	WeightCents    int64
	AllocatedCents int64
}

// Result contains the allocation results.
type Result struct {
	Multiplier     float64
	Allocations    []Allocation
	TotalAllocated int64
}

// Allocate distributes totalCents across shares proportionally to their weights.
// Leftover cents from flooring go to the shares with the largest fractional
// remainder (earlier shares win ties), so allocations always sum to totalCents.
// Returns an error if shares is empty or any amount is negative.
func Allocate(shares []Share, totalCents int64) (*Result, error) {
	if len(shares) == 0 {
		return nil, errors.New("no shares to allocate")
	}
	if totalCents < 0 {
		return nil, errors.New("total cannot be negative")
	}

	var weightSum int64
	for _, s := range shares {
		if s.WeightCents < 0 {
			return nil, errors.New("share weight cannot be negative")
		}
		weightSum += s.WeightCents
	}

	allocations := make([]Allocation, len(shares))
	for i, s := range shares {
		allocations[i] = Allocation{Name: s.Name, WeightCents: s.WeightCents}
	}

	if weightSum == 0 {
		// Nothing to weigh against - distribute nothing
		return &Result{Allocations: allocations}, nil
	}

	remainders := make([]int64, len(shares))
	var allocated int64
	for i, s := range shares {
		scaled := s.WeightCents * totalCents
		allocations[i].AllocatedCents = scaled / weightSum
		remainders[i] = scaled % weightSum
		allocated += allocations[i].AllocatedCents
	}

	order := make([]int, len(shares))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return remainders[order[a]] > remainders[order[b]]
	})
	for k := 0; allocated < totalCents; k++ {
		allocations[order[k%len(order)]].AllocatedCents++
		allocated++
	}

	return &Result{
		Multiplier:     float64(totalCents) / float64(weightSum),
		Allocations:    allocations,
		TotalAllocated: allocated,
	}, nil
}
