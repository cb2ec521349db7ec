package banner

import (
	"fmt"
	"math"
	"strings"

	"github.com/xtding233/idle-gacha/internal/gacha"
)

// ValidateRaw checks semantic constraints of a RawConfig. Table-level rules
// (contiguous tiers, positive total) are left to gacha.NewRateTable.
func ValidateRaw(cfg RawConfig) error {
	var errs []string

	switch cfg.Kind {
	case KindEquipment, KindRelic:
	case "":
		errs = append(errs, "kind is required")
	default:
		errs = append(errs, fmt.Sprintf("kind must be one of: %s, %s", KindEquipment, KindRelic))
	}

	// rates
	if len(cfg.Rates) == 0 {
		errs = append(errs, "rates must not be empty")
	}
	for i, r := range cfg.Rates {
		if _, err := gacha.ParseRarity(r.Rarity); err != nil {
			errs = append(errs, fmt.Sprintf("rates[%d].rarity %q is unknown", i, r.Rarity))
		}
		if math.IsNaN(r.Weight) || math.IsInf(r.Weight, 0) || r.Weight < 0 {
			errs = append(errs, fmt.Sprintf("rates[%d].weight must be finite and >= 0", i))
		}
	}

	// pity
	if p := cfg.Pity; p != nil {
		if p.HardThreshold != nil && *p.HardThreshold < 0 {
			errs = append(errs, "pity.hard_threshold must be >= 0 (0 disables hard pity)")
		}
		if p.SoftStart != nil && *p.SoftStart < 0 {
			errs = append(errs, "pity.soft_start must be >= 0 (0 disables soft pity)")
		}
		if p.SoftIncrementPct != nil && (*p.SoftIncrementPct < 0 || math.IsNaN(*p.SoftIncrementPct)) {
			errs = append(errs, "pity.soft_increment_pct must be >= 0")
		}
		if p.HardThreshold != nil && p.SoftStart != nil && *p.HardThreshold > 0 && *p.SoftStart > *p.HardThreshold {
			errs = append(errs, "pity.soft_start must satisfy soft_start <= hard_threshold")
		}
		if p.GuaranteedRarity != "" {
			if _, err := gacha.ParseRarity(p.GuaranteedRarity); err != nil {
				errs = append(errs, fmt.Sprintf("pity.guaranteed_rarity %q is unknown", p.GuaranteedRarity))
			}
		}
	}

	// batches
	seen := map[string]bool{}
	for i, b := range cfg.Batches {
		if b.Name == "" {
			errs = append(errs, fmt.Sprintf("batches[%d].name is required", i))
		} else if seen[b.Name] {
			errs = append(errs, fmt.Sprintf("batches[%d].name %q is duplicated", i, b.Name))
		}
		seen[b.Name] = true
		if b.Size < 1 {
			errs = append(errs, fmt.Sprintf("batches[%d].size must be >= 1", i))
		}
		if b.Guarantee {
			if _, err := gacha.ParseRarity(b.MinRarity); err != nil {
				errs = append(errs, fmt.Sprintf("batches[%d].min_rarity %q is unknown", i, b.MinRarity))
			}
		}
	}

	// tokens (optional)
	if cfg.Tokens != nil {
		if cfg.Tokens.PerPull != nil && *cfg.Tokens.PerPull < 0 {
			errs = append(errs, "tokens.per_pull must be >= 0")
		}
		for size, price := range cfg.Tokens.PerBatch {
			if size < 1 || price < 0 {
				errs = append(errs, fmt.Sprintf("tokens.per_batch[%d] must have size >= 1 and price >= 0", size))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
