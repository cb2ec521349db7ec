package items

import (
	"slices"

	"github.com/xtding233/idle-gacha/internal/gacha"
)

// Relic is a passive-effect template granted by relic banners.
type Relic struct {
	ID      string   `yaml:"id" json:"id"`
	Name    string   `yaml:"name" json:"name"`
	Rarity  string   `yaml:"rarity" json:"rarity"`
	Effects []string `yaml:"effects,omitempty" json:"effects,omitempty"`
	Stacks  int      `yaml:"stacks,omitempty" json:"stacks,omitempty"`
}

func (r Relic) Clone() Relic {
	r.Effects = slices.Clone(r.Effects)
	return r
}

func (r Relic) DisplayName() string { return r.Name }

func (r Relic) rarityName() string { return r.Rarity }

// RelicRates tops out at Legendary.
func RelicRates() *gacha.RateTable[gacha.Rarity] {
	return gacha.MustRateTable(
		gacha.RateEntry[gacha.Rarity]{Rarity: gacha.Common, Weight: 55},
		gacha.RateEntry[gacha.Rarity]{Rarity: gacha.Uncommon, Weight: 28},
		gacha.RateEntry[gacha.Rarity]{Rarity: gacha.Rare, Weight: 12},
		gacha.RateEntry[gacha.Rarity]{Rarity: gacha.Epic, Weight: 4},
		gacha.RateEntry[gacha.Rarity]{Rarity: gacha.Legendary, Weight: 1},
	)
}

// RelicPity reaches hard pity at 50; soft pity never gets a chance to start.
func RelicPity() gacha.PityConfig[gacha.Rarity] {
	return gacha.PityConfig[gacha.Rarity]{
		HardPityThreshold: 50,
		GuaranteedRarity:  gacha.Epic,
	}
}

func NewRelicEngine(cfg gacha.Config[gacha.Rarity], pool *Pool[Relic]) (*gacha.Engine[gacha.Rarity, Relic], error) {
	if cfg.Table == nil {
		cfg.Table = RelicRates()
	}
	if cfg.Pity == (gacha.PityConfig[gacha.Rarity]{}) {
		cfg.Pity = RelicPity()
	}
	return gacha.NewEngine[gacha.Rarity, Relic](cfg, pool)
}
