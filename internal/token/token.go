package token

import (
	"maps"
	"slices"
)

// Token defines how many units a pull costs. Display only: the caller
// validates and deducts currency before pulling.
type Token struct {
	Name     string      // e.g. "Summon Scroll", "Gem"
	PerPull  int         // tokens per single pull, e.g. 160
	PerBatch map[int]int // optional; batch size -> price, e.g. 11 -> 1600
}

// TokensForPulls returns how many tokens n pulls cost, buying the largest
// discounted batches first and paying the rest at PerPull.
func (t Token) TokensForPulls(n int) int {
	if n <= 0 {
		return 0
	}
	if price, ok := t.PerBatch[n]; ok && price > 0 {
		return price
	}

	sizes := slices.Sorted(maps.Keys(t.PerBatch))
	slices.Reverse(sizes)

	total := 0
	for _, size := range sizes {
		price := t.PerBatch[size]
		if size <= 1 || price <= 0 || size > n {
			continue
		}
		total += (n / size) * price
		n %= size
	}
	return total + n*t.PerPull
}
