// resolve.go
package banner

import (
	"fmt"
	"maps"
	"slices"

	"github.com/xtding233/idle-gacha/internal/gacha"
	"github.com/xtding233/idle-gacha/internal/items"
	"github.com/xtding233/idle-gacha/internal/token"
)

const (
	KindEquipment = "equipment"
	KindRelic     = "relic"
)

// Spec is a validated banner, ready to build an engine from.
type Spec struct {
	Name    string
	Kind    string
	Version string // effective config version for tracing
	Table   *gacha.RateTable[gacha.Rarity]
	Pity    gacha.PityConfig[gacha.Rarity]
	Presets []gacha.BatchPreset[gacha.Rarity]
	Cost    token.Token
}

// Preset looks a batch product up by name.
func (s Spec) Preset(name string) (gacha.BatchPreset[gacha.Rarity], bool) {
	for _, p := range s.Presets {
		if p.Name == name {
			return p, true
		}
	}
	return gacha.BatchPreset[gacha.Rarity]{}, false
}

// Equal reports whether two specs describe the same mechanics and prices.
func (s Spec) Equal(o Spec) bool {
	if s.Name != o.Name || s.Kind != o.Kind || s.Version != o.Version || s.Pity != o.Pity {
		return false
	}
	if (s.Table == nil) != (o.Table == nil) {
		return false
	}
	if s.Table != nil && !slices.Equal(s.Table.Entries(), o.Table.Entries()) {
		return false
	}
	return slices.Equal(s.Presets, o.Presets) &&
		s.Cost.Name == o.Cost.Name &&
		s.Cost.PerPull == o.Cost.PerPull &&
		maps.Equal(s.Cost.PerBatch, o.Cost.PerBatch)
}

// Resolve loads, merges and validates one banner.
func (l *Loader) Resolve(name string) (Spec, error) {
	raw, err := l.LoadMerged(name)
	if err != nil {
		return Spec{}, err
	}
	spec, err := Normalize(name, raw)
	if err != nil {
		return Spec{}, fmt.Errorf("banner %q: %w", name, err)
	}
	return spec, nil
}

// Normalize turns a merged RawConfig into engine params. Missing pity fields
// fall back to the kind's defaults.
func Normalize(name string, raw RawConfig) (Spec, error) {
	if err := ValidateRaw(raw); err != nil {
		return Spec{}, err
	}

	entries := make([]gacha.RateEntry[gacha.Rarity], 0, len(raw.Rates))
	for _, r := range raw.Rates {
		rarity, _ := gacha.ParseRarity(r.Rarity) // validated above
		entries = append(entries, gacha.RateEntry[gacha.Rarity]{Rarity: rarity, Weight: r.Weight})
	}
	table, err := gacha.NewRateTable(entries)
	if err != nil {
		return Spec{}, err
	}

	pity := DefaultPity(raw.Kind)
	if p := raw.Pity; p != nil {
		if p.HardThreshold != nil {
			pity.HardPityThreshold = *p.HardThreshold
		}
		if p.SoftStart != nil {
			pity.SoftPityStart = *p.SoftStart
		}
		if p.SoftIncrementPct != nil {
			pity.SoftPityIncrementPct = *p.SoftIncrementPct
		}
		if p.GuaranteedRarity != "" {
			pity.GuaranteedRarity, _ = gacha.ParseRarity(p.GuaranteedRarity)
		}
	}
	if err := pity.Validate(table); err != nil {
		return Spec{}, err
	}

	presets := gacha.DefaultPresets()
	if len(raw.Batches) > 0 {
		presets = presets[:0:0]
		for _, b := range raw.Batches {
			p := gacha.BatchPreset[gacha.Rarity]{Name: b.Name, Size: b.Size}
			if b.Guarantee {
				minimum, _ := gacha.ParseRarity(b.MinRarity)
				if minimum < table.Lowest() || minimum > table.Highest() {
					return Spec{}, fmt.Errorf("batch %q: min_rarity %v is outside the rate table", b.Name, minimum)
				}
				p.Guarantee = gacha.BatchGuarantee[gacha.Rarity]{MinRarity: minimum, Enabled: true}
			}
			presets = append(presets, p)
		}
	}

	cost := token.Token{}
	if t := raw.Tokens; t != nil {
		cost.Name = t.Name
		if t.PerPull != nil {
			cost.PerPull = *t.PerPull
		}
		cost.PerBatch = t.PerBatch
	}

	return Spec{
		Name:    name,
		Kind:    raw.Kind,
		Version: raw.Version,
		Table:   table,
		Pity:    pity,
		Presets: presets,
		Cost:    cost,
	}, nil
}

// DefaultPity is the pity a banner of the given kind starts from before its
// YAML overrides are applied.
func DefaultPity(kind string) gacha.PityConfig[gacha.Rarity] {
	if kind == KindRelic {
		return items.RelicPity()
	}
	return gacha.DefaultPityConfig()
}
