// types.go
package banner

// Raw config loaded from YAML; mirrors the banner file schema.
type RawConfig struct {
	Version string       `yaml:"version"`
	Kind    string       `yaml:"kind"` // "equipment" | "relic"
	Rates   []RateCfg    `yaml:"rates"`
	Pity    *PityCfg     `yaml:"pity,omitempty"`
	Batches []BatchCfg   `yaml:"batches,omitempty"`
	Tokens  *TokenConfig `yaml:"tokens,omitempty"`
	Notes   string       `yaml:"notes,omitempty"`
}

type RateCfg struct {
	Rarity string  `yaml:"rarity"`
	Weight float64 `yaml:"weight"`
}

type PityCfg struct {
	HardThreshold    *int     `yaml:"hard_threshold,omitempty"`
	SoftStart        *int     `yaml:"soft_start,omitempty"`
	SoftIncrementPct *float64 `yaml:"soft_increment_pct,omitempty"`
	GuaranteedRarity string   `yaml:"guaranteed_rarity,omitempty"`
}

type BatchCfg struct {
	Name      string `yaml:"name"`
	Size      int    `yaml:"size"`
	MinRarity string `yaml:"min_rarity,omitempty"`
	Guarantee bool   `yaml:"guarantee"`
}

type TokenConfig struct {
	Name     string      `yaml:"name,omitempty"`
	PerPull  *int        `yaml:"per_pull"`
	PerBatch map[int]int `yaml:"per_batch,omitempty"` // batch size -> discounted price
}
