package gacha

import "fmt"

// BatchGuarantee is the per-batch minimum-rarity rule: if no earlier draw in
// the batch reached MinRarity, the final draw is forced to >= MinRarity.
type BatchGuarantee[R Tier] struct {
	MinRarity R
	Enabled   bool
}

// BatchPreset is a named multi-pull product.
type BatchPreset[R Tier] struct {
	Name      string
	Size      int
	Guarantee BatchGuarantee[R]
}

// DefaultPresets are the single, 10+1 and 54+1 products.
func DefaultPresets() []BatchPreset[Rarity] {
	return []BatchPreset[Rarity]{
		{Name: "single", Size: 1},
		{Name: "eleven", Size: 11, Guarantee: BatchGuarantee[Rarity]{MinRarity: Rare, Enabled: true}},
		{Name: "fifty_five", Size: 55, Guarantee: BatchGuarantee[Rarity]{MinRarity: Epic, Enabled: true}},
	}
}

// BatchResult holds the pulls of one batch in order plus counts per rarity.
type BatchResult[R Tier, T any] struct {
	Results []PullResult[R, T]
	Counts  map[R]int
}

func (b *BatchResult[R, T]) add(res PullResult[R, T]) {
	b.Results = append(b.Results, res)
	b.Counts[res.Rarity]++
}

// PullBatch performs n pulls. The batch guarantee stacks on top of per-pull pity:
// both can fire in the same batch. The guarantee counts what was served, so a
// pull substituted from a lower pool does not satisfy it. On ErrNoItemsAvailable
// the rest of the batch is abandoned and the partial result is returned with
// the error.
func (e *Engine[R, T]) PullBatch(n int, g BatchGuarantee[R]) (BatchResult[R, T], error) {
	out := BatchResult[R, T]{Counts: make(map[R]int)}
	if n <= 0 {
		return out, ErrInvalidBatchSize
	}
	out.Results = make([]PullResult[R, T], 0, n)

	met := false
	for i := 0; i < n-1; i++ {
		res, err := e.PullOne()
		if err != nil {
			return out, fmt.Errorf("batch pull %d/%d: %w", i+1, n, err)
		}
		if res.Rarity >= g.MinRarity {
			met = true
		}
		out.add(res)
	}

	var floor *R
	if g.Enabled && !met {
		minimum := g.MinRarity
		floor = &minimum
	}
	res, err := e.pull(floor)
	if err != nil {
		return out, fmt.Errorf("batch pull %d/%d: %w", n, n, err)
	}
	out.add(res)
	return out, nil
}

// PullPreset runs a named product.
func (e *Engine[R, T]) PullPreset(p BatchPreset[R]) (BatchResult[R, T], error) {
	return e.PullBatch(p.Size, p.Guarantee)
}
