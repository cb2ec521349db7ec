package gacha

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_ClonesItems(t *testing.T) {
	cat := fullCatalog()
	rs := &Resolver[Rarity, testItem]{Table: standardTable(t), Catalog: cat, RNG: newFixedRNG(0)}

	item, fb, err := rs.Resolve(Rare)
	require.NoError(t, err)
	assert.Nil(t, fb)
	assert.Equal(t, "Rare Sword", item.Name)

	item.Tags[0] = "mutated"
	assert.Equal(t, "blade", cat[Rare][0].Tags[0], "result must not alias the catalog")
}

func TestResolve_FallbackUsesDeclarationOrder(t *testing.T) {
	// declared Uncommon before Common, so Uncommon is the first non-empty pool
	tbl, err := NewRateTable([]RateEntry[Rarity]{{Rare, 10}, {Uncommon, 30}, {Common, 60}})
	require.NoError(t, err)
	cat := CatalogMap[Rarity, testItem]{
		Common:   {{Name: "Stick"}},
		Uncommon: {{Name: "Club"}},
	}
	rs := &Resolver[Rarity, testItem]{Table: tbl, Catalog: cat, RNG: newFixedRNG(0)}

	item, fb, err := rs.Resolve(Rare)
	require.NoError(t, err)
	require.NotNil(t, fb)
	assert.Equal(t, Rare, fb.Requested)
	assert.Equal(t, Uncommon, fb.Substituted)
	assert.Equal(t, "Club", item.Name)
}

func TestResolve_EmptyCatalog(t *testing.T) {
	rs := &Resolver[Rarity, testItem]{Table: standardTable(t), Catalog: CatalogMap[Rarity, testItem]{}, RNG: newFixedRNG(0)}
	_, _, err := rs.Resolve(Common)
	assert.ErrorIs(t, err, ErrNoItemsAvailable)
}

func TestEngine_PullOne(t *testing.T) {
	e := newTestEngine(t, standardTable(t), DefaultPityConfig(), fullCatalog(), newFixedRNG(0.1, 0))

	res, err := e.PullOne()
	require.NoError(t, err)
	assert.Equal(t, Common, res.Rarity)
	assert.Equal(t, "Common Sword", res.Item.Name)
	assert.False(t, res.Substituted)
	assert.Equal(t, 1, e.PityCount())
	assert.InDelta(t, 1.0/90, e.PityProgress(), 1e-12)
	assert.Equal(t, map[Rarity]int{Common: 1}, e.Tally())
	assert.Equal(t, 1, e.Pulls())
}

func TestEngine_FallbackSurfacesOnResult(t *testing.T) {
	cat := CatalogMap[Rarity, testItem]{Common: {{Name: "Stick"}}}
	// 0.97 selects Epic, whose pool is empty
	e := newTestEngine(t, standardTable(t), DefaultPityConfig(), cat, newFixedRNG(0.97, 0))

	res, err := e.PullOne()
	require.NoError(t, err)
	assert.True(t, res.Substituted)
	assert.Equal(t, Epic, res.Requested)
	assert.Equal(t, Common, res.Rarity)
	assert.Equal(t, "Stick", res.Item.Name)
	assert.Equal(t, 0, e.PityCount(), "pity follows the selected rarity")
	assert.Contains(t, e.History()[0], "fallback from Epic")
}

func TestEngine_ExhaustedCatalog(t *testing.T) {
	e := newTestEngine(t, standardTable(t), DefaultPityConfig(), CatalogMap[Rarity, testItem]{}, NewSeededRNG(3))
	e.RestorePity(12)

	res, err := e.PullOne()
	require.ErrorIs(t, err, ErrNoItemsAvailable)
	assert.Equal(t, PullResult[Rarity, testItem]{}, res)
	assert.Equal(t, 12, e.PityCount(), "a failed pull leaves the pity counter untouched")
	assert.Empty(t, e.History())
	assert.Zero(t, e.Pulls())
}

func TestEngine_HardPityThroughEngine(t *testing.T) {
	e := newTestEngine(t, noHighTable(t), DefaultPityConfig(), fullCatalog(), NewSeededRNG(9))
	for i := 1; i < 90; i++ {
		_, err := e.PullOne()
		require.NoError(t, err)
	}
	assert.Equal(t, 89, e.PityCount())
	assert.Equal(t, PhaseSoftPity, e.Phase())

	res, err := e.PullOne()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, res.Rarity, Epic)
	assert.Equal(t, TriggerHardPity, res.Trigger)
	assert.Equal(t, 0, e.PityCount())
	assert.True(t, strings.HasSuffix(e.History()[0], "[hard pity]"))
}

func TestEngine_HistoryBound(t *testing.T) {
	e := newTestEngine(t, standardTable(t), noPity(), fullCatalog(), NewSeededRNG(5))
	for i := 0; i < 60; i++ {
		_, err := e.PullOne()
		require.NoError(t, err)
	}
	h := e.History()
	require.Len(t, h, DefaultHistoryCapacity)
	assert.True(t, strings.HasPrefix(h[0], "#60 "), h[0])
	assert.True(t, strings.HasPrefix(h[49], "#11 "), h[49])
}

func TestEngine_ResetAndRestorePity(t *testing.T) {
	e := newTestEngine(t, standardTable(t), DefaultPityConfig(), fullCatalog(), NewSeededRNG(5))

	e.RestorePity(75)
	assert.Equal(t, 75, e.PityCount())
	assert.Equal(t, PhaseSoftPity, e.Phase())

	e.RestorePity(500)
	assert.Equal(t, 89, e.PityCount(), "restored count is clamped below the hard threshold")

	e.RestorePity(-4)
	assert.Equal(t, 0, e.PityCount())

	e.RestorePity(30)
	e.ResetPity()
	assert.Equal(t, 0, e.PityCount())
	assert.Equal(t, 0.0, e.PityProgress())
}

func TestEngine_InvalidConfig(t *testing.T) {
	bad := DefaultPityConfig()
	bad.SoftPityStart = 100
	_, err := NewEngine[Rarity, testItem](Config[Rarity]{Table: standardTable(t), Pity: bad}, fullCatalog())
	var cerr *ConfigError
	require.ErrorAs(t, err, &cerr)

	_, err = NewEngine[Rarity, testItem](Config[Rarity]{Pity: DefaultPityConfig()}, fullCatalog())
	require.ErrorAs(t, err, &cerr)

	_, err = NewEngine[Rarity, testItem](Config[Rarity]{Table: standardTable(t), Pity: DefaultPityConfig()}, nil)
	require.ErrorAs(t, err, &cerr)
}

type recordingObserver struct {
	pulls     []string
	fallbacks int
	exhausted int
}

func (r *recordingObserver) ObservePull(banner, rarity string, trigger Trigger) {
	r.pulls = append(r.pulls, fmt.Sprintf("%s/%s/%s", banner, rarity, trigger))
}
func (r *recordingObserver) ObserveFallback(string, string, string) { r.fallbacks++ }
func (r *recordingObserver) ObserveExhausted(string) { r.exhausted++ }

func TestEngine_Observer(t *testing.T) {
	obs := &recordingObserver{}
	cat := CatalogMap[Rarity, testItem]{Common: {{Name: "Stick"}}}
	e, err := NewEngine(Config[Rarity]{
		Name:     "weapons",
		Table:    standardTable(t),
		Pity:     DefaultPityConfig(),
		RNG:      newFixedRNG(0.97, 0),
		Observer: obs,
	}, Catalog[Rarity, testItem](cat))
	require.NoError(t, err)

	_, err = e.PullOne()
	require.NoError(t, err)
	assert.Equal(t, []string{"weapons/Common/organic"}, obs.pulls)
	assert.Equal(t, 1, obs.fallbacks)
}
