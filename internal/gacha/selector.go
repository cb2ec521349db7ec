package gacha

// Select turns one random draw into a rarity tier.
//
// Outside soft pity (bonus of 0) only the ascending cumulative scan runs, so
// draws follow the table exactly. While soft pity is active, tiers >=
// GuaranteedRarity are checked first, highest to lowest, each against its own
// bonus-augmented weight. When none of them accepts the draw, the cumulative
// scan over the unmodified weights decides. Zero-weight tiers are disabled and never receive the bonus.
// The first pass is not renormalised against the second, so the effective odds
// of high tiers can exceed the nominal table during soft pity.
func Select[R Tier](table *RateTable[R], state PityState, cfg PityConfig[R], rng RandomSource) R {
	bonus := softBonus(state.Count, cfg, table.total)
	r := uniform(rng, table.total)

	if bonus > 0 {
		for i := len(table.ascending) - 1; i >= 0; i-- {
			e := table.ascending[i]
			if e.Rarity < cfg.GuaranteedRarity {
				break
			}
			if e.Weight > 0 && r < e.Weight+bonus {
				return e.Rarity
			}
		}
	}

	if got, ok := cumulative(table.ascending, r); ok {
		return got
	}
	// only reachable with a zero-sum table
	return table.Lowest()
}

// SelectWithMinimum draws among tiers >= min, renormalised to that subset.
// An empty or zero-weight subset yields min itself.
func SelectWithMinimum[R Tier](table *RateTable[R], minimum R, rng RandomSource) R {
	var subset []RateEntry[R]
	var total float64
	for _, e := range table.ascending {
		if e.Rarity >= minimum {
			subset = append(subset, e)
			total += e.Weight
		}
	}
	if len(subset) == 0 || total <= 0 {
		return minimum
	}
	r := uniform(rng, total)
	if got, ok := cumulative(subset, r); ok {
		return got
	}
	return lastWeighted(subset, minimum)
}

// cumulative returns the first entry whose running sum exceeds r.
// Zero-weight tiers are never returned.
func cumulative[R Tier](asc []RateEntry[R], r float64) (R, bool) {
	var acc float64
	for _, e := range asc {
		acc += e.Weight
		if e.Weight > 0 && r < acc {
			return e.Rarity, true
		}
	}
	var zero R
	return zero, false
}

// lastWeighted covers float rounding where r lands on the very top of the range.
func lastWeighted[R Tier](asc []RateEntry[R], def R) R {
	for i := len(asc) - 1; i >= 0; i-- {
		if asc[i].Weight > 0 {
			return asc[i].Rarity
		}
	}
	return def
}

// Trigger explains why a pull landed where it did, for results and metrics.
type Trigger int

const (
	TriggerNone Trigger = iota
	TriggerOrganic
	TriggerHardPity
	TriggerBatchGuarantee
)

func (t Trigger) String() string {
	switch t {
	case TriggerOrganic:
		return "organic"
	case TriggerHardPity:
		return "hard_pity"
	case TriggerBatchGuarantee:
		return "batch_guarantee"
	default:
		return "none"
	}
}

// Roll is the outcome of one attempt through the pity state machine.
type Roll[R Tier] struct {
	Rarity     R
	Trigger    Trigger
	PityBefore int // counter value before this attempt
	PityAfter  int
}

// Selector runs the pity state machine over a rate table.
// It is not safe for concurrent use.
type Selector[R Tier] struct {
	Table *RateTable[R]
	Pity  PityConfig[R]
	RNG   RandomSource
}

// NewSelector validates cfg against table. A nil rng uses DefaultRNG.
func NewSelector[R Tier](table *RateTable[R], cfg PityConfig[R], rng RandomSource) (*Selector[R], error) {
	if table == nil {
		return nil, &ConfigError{Reasons: []string{"rate table is nil"}}
	}
	if err := cfg.Validate(table); err != nil {
		return nil, err
	}
	if rng == nil {
		rng = DefaultRNG()
	}
	return &Selector[R]{Table: table, Pity: cfg, RNG: rng}, nil
}

// Roll performs one attempt:
// - count += 1, always first.
// - count >= HardPityThreshold: guaranteed draw restricted to >= GuaranteedRarity, count = 0.
// - otherwise, with a floor (batch guarantee): draw restricted to >= floor.
// - otherwise the normal selector.
// Any result >= GuaranteedRarity resets count to 0.
func (s *Selector[R]) Roll(state *PityState, floor *R) Roll[R] {
	out := Roll[R]{PityBefore: state.Count}
	state.Count++

	switch {
	case s.Pity.HardPityEnabled() && state.Count >= s.Pity.HardPityThreshold:
		minimum := s.Pity.GuaranteedRarity
		if floor != nil && *floor > minimum {
			minimum = *floor
		}
		out.Rarity = SelectWithMinimum(s.Table, minimum, s.RNG)
		out.Trigger = TriggerHardPity
		state.Count = 0
	case floor != nil:
		out.Rarity = SelectWithMinimum(s.Table, *floor, s.RNG)
		out.Trigger = TriggerBatchGuarantee
	default:
		out.Rarity = Select(s.Table, *state, s.Pity, s.RNG)
	}

	if out.Rarity >= s.Pity.GuaranteedRarity {
		if out.Trigger == TriggerNone {
			out.Trigger = TriggerOrganic
		}
		state.Count = 0
	}
	out.PityAfter = state.Count
	return out
}
