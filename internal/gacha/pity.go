package gacha

import "fmt"

// PityConfig controls when a guaranteed-rarity draw is forced.
// - HardPityThreshold: the attempt whose post-increment count reaches it is guaranteed (0 disables).
// - SoftPityStart / SoftPityIncrementPct: from SoftPityStart on, every further attempt adds
//   SoftPityIncrementPct percent of the table's total weight to tiers >= GuaranteedRarity.
//   Either being 0 disables soft pity.
type PityConfig[R Tier] struct {
	HardPityThreshold    int
	SoftPityStart        int
	SoftPityIncrementPct float64
	GuaranteedRarity     R
}

// DefaultPityConfig mirrors the standard banner: hard 90, soft from 70 at 5%/pull, Epic guaranteed.
func DefaultPityConfig() PityConfig[Rarity] {
	return PityConfig[Rarity]{
		HardPityThreshold:    90,
		SoftPityStart:        70,
		SoftPityIncrementPct: 5,
		GuaranteedRarity:     Epic,
	}
}

func (c PityConfig[R]) HardPityEnabled() bool { return c.HardPityThreshold > 0 }

func (c PityConfig[R]) SoftPityEnabled() bool {
	return c.SoftPityStart > 0 && c.SoftPityIncrementPct > 0
}

// Validate checks the config against the rate table it will run with.
func (c PityConfig[R]) Validate(table *RateTable[R]) error {
	cerr := &ConfigError{}
	if c.HardPityThreshold < 0 {
		cerr.add("pity.hard_threshold must be >= 0")
	}
	if c.SoftPityStart < 0 {
		cerr.add("pity.soft_start must be >= 0")
	}
	if !validatePct(c.SoftPityIncrementPct) {
		cerr.add("pity.soft_increment_pct must be finite and >= 0")
	}
	if c.SoftPityEnabled() && c.HardPityEnabled() && c.SoftPityStart > c.HardPityThreshold {
		cerr.add(fmt.Sprintf("pity.soft_start (%d) must be <= pity.hard_threshold (%d)", c.SoftPityStart, c.HardPityThreshold))
	}
	if table != nil && (c.GuaranteedRarity < table.Lowest() || c.GuaranteedRarity > table.Highest()) {
		cerr.add(fmt.Sprintf("pity.guaranteed_rarity %v is outside the rate table", c.GuaranteedRarity))
	}
	return cerr.orNil()
}

// Phase is where a pity counter sits in the state machine.
type Phase int

const (
	PhaseNormal Phase = iota
	PhaseSoftPity
	PhaseHardPity
)

func (p Phase) String() string {
	switch p {
	case PhaseSoftPity:
		return "soft_pity"
	case PhaseHardPity:
		return "hard_pity"
	default:
		return "normal"
	}
}

// PityState is the draw counter since the last guaranteed-or-better result.
// It is owned by exactly one engine.
type PityState struct {
	Count int
}

// Phase classifies the current count under cfg.
func PhaseOf[R Tier](count int, cfg PityConfig[R]) Phase {
	switch {
	case cfg.HardPityEnabled() && count >= cfg.HardPityThreshold:
		return PhaseHardPity
	case cfg.SoftPityEnabled() && count >= cfg.SoftPityStart:
		return PhaseSoftPity
	default:
		return PhaseNormal
	}
}

// softBonus returns the weight added to tiers >= GuaranteedRarity at count.
func softBonus[R Tier](count int, cfg PityConfig[R], total float64) float64 {
	if !cfg.SoftPityEnabled() || count < cfg.SoftPityStart {
		return 0
	}
	return float64(count-cfg.SoftPityStart) * cfg.SoftPityIncrementPct / 100 * total
}
