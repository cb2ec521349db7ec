package items

import (
	"maps"

	"github.com/xtding233/idle-gacha/internal/gacha"
)

// Equipment is a gear template granted by equipment banners.
type Equipment struct {
	ID     string             `yaml:"id" json:"id"`
	Name   string             `yaml:"name" json:"name"`
	Rarity string             `yaml:"rarity" json:"rarity"`
	Slot   string             `yaml:"slot" json:"slot"` // weapon, armor, accessory
	Level  int                `yaml:"level,omitempty" json:"level,omitempty"`
	Stats  map[string]float64 `yaml:"stats,omitempty" json:"stats,omitempty"`
}

// Clone copies the stat map so a granted item can be upgraded independently.
func (e Equipment) Clone() Equipment {
	e.Stats = maps.Clone(e.Stats)
	return e
}

func (e Equipment) DisplayName() string { return e.Name }

func (e Equipment) rarityName() string { return e.Rarity }

// EquipmentRates is the standard equipment table; weights read as percent.
func EquipmentRates() *gacha.RateTable[gacha.Rarity] {
	return gacha.MustRateTable(
		gacha.RateEntry[gacha.Rarity]{Rarity: gacha.Common, Weight: 50},
		gacha.RateEntry[gacha.Rarity]{Rarity: gacha.Uncommon, Weight: 30},
		gacha.RateEntry[gacha.Rarity]{Rarity: gacha.Rare, Weight: 13},
		gacha.RateEntry[gacha.Rarity]{Rarity: gacha.Epic, Weight: 5},
		gacha.RateEntry[gacha.Rarity]{Rarity: gacha.Legendary, Weight: 1.5},
		gacha.RateEntry[gacha.Rarity]{Rarity: gacha.Mythic, Weight: 0.4},
		gacha.RateEntry[gacha.Rarity]{Rarity: gacha.Celestial, Weight: 0.1},
	)
}

// NewEquipmentEngine wires an equipment banner: standard pity unless overridden.
func NewEquipmentEngine(cfg gacha.Config[gacha.Rarity], pool *Pool[Equipment]) (*gacha.Engine[gacha.Rarity, Equipment], error) {
	if cfg.Table == nil {
		cfg.Table = EquipmentRates()
	}
	if cfg.Pity == (gacha.PityConfig[gacha.Rarity]{}) {
		cfg.Pity = gacha.DefaultPityConfig()
	}
	return gacha.NewEngine[gacha.Rarity, Equipment](cfg, pool)
}
