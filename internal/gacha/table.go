package gacha

import (
	"fmt"
	"slices"
)

// RateEntry is one (rarity, weight) pair. Weights are relative.
type RateEntry[R Tier] struct {
	Rarity R
	Weight float64
}

// RateTable keeps entries in declaration order plus an ascending-rarity view.
// Declaration order matters for pool fallback; rarity order for selection.
type RateTable[R Tier] struct {
	declared  []RateEntry[R]
	ascending []RateEntry[R]
	total     float64
}

// NewRateTable validates entries: non-empty, weights finite and >= 0,
// each tier exactly once, tiers contiguous, total weight > 0.
func NewRateTable[R Tier](entries []RateEntry[R]) (*RateTable[R], error) {
	cerr := &ConfigError{}
	if len(entries) == 0 {
		cerr.add("rate table is empty")
		return nil, cerr
	}

	seen := make(map[R]bool, len(entries))
	var total float64
	for i, e := range entries {
		if err := validateWeight(e.Weight); err != nil {
			cerr.add(fmt.Sprintf("rates[%d] (%v): %v", i, e.Rarity, err))
			continue
		}
		if seen[e.Rarity] {
			cerr.add(fmt.Sprintf("rates[%d]: duplicate rarity %v", i, e.Rarity))
			continue
		}
		seen[e.Rarity] = true
		total += e.Weight
	}

	asc := slices.Clone(entries)
	slices.SortStableFunc(asc, func(a, b RateEntry[R]) int { return int(a.Rarity) - int(b.Rarity) })
	for i := 1; i < len(asc); i++ {
		if asc[i].Rarity != asc[i-1].Rarity && int(asc[i].Rarity) != int(asc[i-1].Rarity)+1 {
			cerr.add(fmt.Sprintf("rarities not contiguous: gap between %v and %v", asc[i-1].Rarity, asc[i].Rarity))
		}
	}
	if total <= 0 {
		cerr.add("total weight must be > 0")
	}
	if err := cerr.orNil(); err != nil {
		return nil, err
	}

	return &RateTable[R]{
		declared:  slices.Clone(entries),
		ascending: asc,
		total:     total,
	}, nil
}

// MustRateTable is NewRateTable for static tables; it panics on error.
func MustRateTable[R Tier](entries ...RateEntry[R]) *RateTable[R] {
	t, err := NewRateTable(entries)
	if err != nil {
		panic(err)
	}
	return t
}

// Entries returns a copy in declaration order.
func (t *RateTable[R]) Entries() []RateEntry[R] { return slices.Clone(t.declared) }

// TotalWeight is the sum of all weights.
func (t *RateTable[R]) TotalWeight() float64 { return t.total }

// Lowest is the lowest configured rarity.
func (t *RateTable[R]) Lowest() R { return t.ascending[0].Rarity }

// Highest is the highest configured rarity.
func (t *RateTable[R]) Highest() R { return t.ascending[len(t.ascending)-1].Rarity }

// Weight returns the configured weight of r, 0 if r is not in the table.
func (t *RateTable[R]) Weight(r R) float64 {
	for _, e := range t.declared {
		if e.Rarity == r {
			return e.Weight
		}
	}
	return 0
}

// RateInfo is one row of the probability display.
type RateInfo[R Tier] struct {
	Rarity  R       `json:"rarity"`
	Weight  float64 `json:"weight"`
	Percent float64 `json:"percent"`
}

// Rates returns weight and nominal percentage per rarity, highest first.
func (t *RateTable[R]) Rates() []RateInfo[R] {
	out := make([]RateInfo[R], 0, len(t.ascending))
	for i := len(t.ascending) - 1; i >= 0; i-- {
		e := t.ascending[i]
		out = append(out, RateInfo[R]{
			Rarity:  e.Rarity,
			Weight:  e.Weight,
			Percent: e.Weight / t.total * 100,
		})
	}
	return out
}
