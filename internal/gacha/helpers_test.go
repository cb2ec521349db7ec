package gacha

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/require"
)

type testItem struct {
	Name string
	Tags []string
}

func (t testItem) Clone() testItem {
	t.Tags = slices.Clone(t.Tags)
	return t
}

func (t testItem) DisplayName() string { return t.Name }

// fixedRNG replays draws in order, wrapping around.
type fixedRNG struct {
	draws []float64
	i     int
}

func newFixedRNG(draws ...float64) *fixedRNG { return &fixedRNG{draws: draws} }

func (f *fixedRNG) Float64() float64 {
	v := f.draws[f.i%len(f.draws)]
	f.i++
	return v
}

// standardTable sums to 100.
func standardTable(t testing.TB) *RateTable[Rarity] {
	t.Helper()
	tbl, err := NewRateTable([]RateEntry[Rarity]{
		{Common, 60},
		{Uncommon, 25},
		{Rare, 10},
		{Epic, 4},
		{Legendary, 0.8},
		{Mythic, 0.18},
		{Celestial, 0.02},
	})
	require.NoError(t, err)
	return tbl
}

// noHighTable never produces Epic or better on its own.
func noHighTable(t testing.TB) *RateTable[Rarity] {
	t.Helper()
	tbl, err := NewRateTable([]RateEntry[Rarity]{
		{Common, 70},
		{Uncommon, 20},
		{Rare, 10},
		{Epic, 0},
		{Legendary, 0},
	})
	require.NoError(t, err)
	return tbl
}

func fullCatalog() CatalogMap[Rarity, testItem] {
	cat := CatalogMap[Rarity, testItem]{}
	for _, r := range Rarities {
		cat[r] = []testItem{
			{Name: r.String() + " Sword", Tags: []string{"blade"}},
			{Name: r.String() + " Ring", Tags: []string{"jewel"}},
		}
	}
	return cat
}

func noPity() PityConfig[Rarity] {
	return PityConfig[Rarity]{GuaranteedRarity: Epic}
}

func newTestEngine(t testing.TB, tbl *RateTable[Rarity], pity PityConfig[Rarity], cat Catalog[Rarity, testItem], rng RandomSource) *Engine[Rarity, testItem] {
	t.Helper()
	e, err := NewEngine(Config[Rarity]{
		Name:  "test",
		Table: tbl,
		Pity:  pity,
		RNG:   rng,
	}, cat)
	require.NoError(t, err)
	return e
}
