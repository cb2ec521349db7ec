package gacha

import (
	"errors"
	"strconv"
	"strings"
)

// Tier is any totally ordered rarity type. Comparisons (>=) drive pity
// triggers and the minimum-rarity draws.
type Tier interface {
	~int
}

// Rarity is the default tier set used by the equipment and relic banners.
type Rarity int

const (
	Common Rarity = iota
	Uncommon
	Rare
	Epic
	Legendary
	Mythic
	Celestial
)

var Rarities = [...]Rarity{Common, Uncommon, Rare, Epic, Legendary, Mythic, Celestial}

var rarityNames = [...]string{"Common", "Uncommon", "Rare", "Epic", "Legendary", "Mythic", "Celestial"}

var ErrUnknownRarity = errors.New("unknown rarity")

func (r Rarity) String() string {
	if r < 0 || int(r) >= len(rarityNames) {
		return "Rarity(" + strconv.Itoa(int(r)) + ")"
	}
	return rarityNames[r]
}

// ParseRarity looks a rarity up by name, case-insensitively.
func ParseRarity(name string) (Rarity, error) {
	name = strings.TrimSpace(name)
	for _, r := range Rarities {
		if strings.EqualFold(r.String(), name) {
			return r, nil
		}
	}
	return 0, ErrUnknownRarity
}

// MarshalText lets rarities key JSON maps and YAML values by name.
func (r Rarity) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *Rarity) UnmarshalText(b []byte) error {
	v, err := ParseRarity(string(b))
	if err != nil {
		return err
	}
	*r = v
	return nil
}
