// Package allocation converts basis-point split agreements into exact
// integer satoshi shares. Everything here is pure arithmetic: no storage, no
// validation of the agreement itself. Callers lock and validate splits
// before asking for an allocation.
package allocation

import (
	"fmt"
	"sort"
)

// BpsDenominator is the number of basis points in a whole.
const BpsDenominator = 10000

// Item is one participant's claim, in basis points. ID breaks remainder
// ties, so it must be stable across invocations.
type Item struct {
	ID  string
	Bps int
}

// Share is one participant's exact satoshi amount.
type Share struct {
	ID         string
	AmountSats int64
}

// SumBps totals the basis points across items. It deliberately does not
// check the total against BpsDenominator; enforcing the 10000 invariant is
// the agreement owner's job, not the allocator's.
func SumBps(items []Item) int {
	total := 0
	for _, item := range items {
		total += item.Bps
	}
	return total
}

// AllocateByBps divides pool satoshis across items proportionally to their
// basis points. Each item first receives floor(pool*bps/10000); the leftover
// sats are then handed out one at a time to the items with the largest
// fractional remainder, ties broken by ascending ID. The returned shares
// preserve input order and always sum to exactly pool.
func AllocateByBps(pool int64, items []Item) ([]Share, error) {
	if pool < 0 {
		return nil, fmt.Errorf("pool must be non-negative, got %d", pool)
	}
	if len(items) == 0 {
		return []Share{}, nil
	}

	shares := make([]Share, len(items))
	remainders := make([]int64, len(items))
	var distributed int64

	for i, item := range items {
		// pool*bps can overflow int64 for large pools, so split the
		// division: pool = q*10000 + r means
		// floor(pool*bps/10000) = q*bps + floor(r*bps/10000).
		q, r := pool/BpsDenominator, pool%BpsDenominator
		base := q*int64(item.Bps) + r*int64(item.Bps)/BpsDenominator
		shares[i] = Share{ID: item.ID, AmountSats: base}
		remainders[i] = r * int64(item.Bps) % BpsDenominator
		distributed += base
	}

	leftover := pool - distributed
	if leftover > 0 {
		order := make([]int, len(items))
		for i := range order {
			order[i] = i
		}
		sort.SliceStable(order, func(a, b int) bool {
			ia, ib := order[a], order[b]
			if remainders[ia] != remainders[ib] {
				return remainders[ia] > remainders[ib]
			}
			return items[ia].ID < items[ib].ID
		})

		// One sat per pass; cycling covers pools whose bps do not sum
		// to 10000, where leftover can exceed len(items).
		for i := 0; leftover > 0; i = (i + 1) % len(order) {
			shares[order[i]].AmountSats++
			leftover--
		}
	}

	return shares, nil
}
