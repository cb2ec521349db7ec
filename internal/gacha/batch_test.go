package gacha

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stingyTable makes Rare and Epic rare enough that batch guarantees matter.
func stingyTable(t testing.TB) *RateTable[Rarity] {
	t.Helper()
	tbl, err := NewRateTable([]RateEntry[Rarity]{
		{Common, 95},
		{Uncommon, 4},
		{Rare, 0.9},
		{Epic, 0.1},
	})
	require.NoError(t, err)
	return tbl
}

func TestPullBatch_ElevenGuaranteesRare(t *testing.T) {
	preset := DefaultPresets()[1]
	for seed := uint64(0); seed < 200; seed++ {
		e := newTestEngine(t, stingyTable(t), noPity(), fullCatalog(), NewSeededRNG(seed))
		batch, err := e.PullPreset(preset)
		require.NoError(t, err)
		require.Len(t, batch.Results, 11)

		best := Common
		for _, r := range batch.Results {
			best = max(best, r.Rarity)
		}
		require.GreaterOrEqual(t, best, Rare, "seed %d", seed)
	}
}

func TestPullBatch_FiftyFiveGuaranteesEpic(t *testing.T) {
	for seed := uint64(0); seed < 100; seed++ {
		e := newTestEngine(t, stingyTable(t), noPity(), fullCatalog(), NewSeededRNG(seed))
		batch, err := e.PullBatch(55, BatchGuarantee[Rarity]{MinRarity: Epic, Enabled: true})
		require.NoError(t, err)
		require.Len(t, batch.Results, 55)
		require.Positive(t, batch.Counts[Epic], "seed %d", seed)
	}
}

func TestPullBatch_ForcedFinalDraw(t *testing.T) {
	// every draw is 0 => Common, except the forced last one which starts its own subset
	e := newTestEngine(t, stingyTable(t), noPity(), fullCatalog(), newFixedRNG(0))
	batch, err := e.PullBatch(11, BatchGuarantee[Rarity]{MinRarity: Rare, Enabled: true})
	require.NoError(t, err)

	for _, r := range batch.Results[:10] {
		assert.Equal(t, Common, r.Rarity)
		assert.Equal(t, TriggerNone, r.Trigger)
	}
	last := batch.Results[10]
	assert.Equal(t, Rare, last.Rarity)
	assert.Equal(t, TriggerBatchGuarantee, last.Trigger)
	assert.Equal(t, map[Rarity]int{Common: 10, Rare: 1}, batch.Counts)
	assert.Contains(t, e.History()[0], "[batch guarantee]")
}

func TestPullBatch_GuaranteeDisabled(t *testing.T) {
	e := newTestEngine(t, stingyTable(t), noPity(), fullCatalog(), newFixedRNG(0))
	batch, err := e.PullBatch(11, BatchGuarantee[Rarity]{MinRarity: Rare})
	require.NoError(t, err)
	assert.Equal(t, map[Rarity]int{Common: 11}, batch.Counts)
}

func TestPullBatch_NoForceWhenAlreadyMet(t *testing.T) {
	// 0.999 * 100 lands in Epic on the first draw; the rest are Common
	e := newTestEngine(t, stingyTable(t), noPity(), fullCatalog(), newFixedRNG(0.9995, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0))
	batch, err := e.PullBatch(11, BatchGuarantee[Rarity]{MinRarity: Rare, Enabled: true})
	require.NoError(t, err)
	assert.Equal(t, Epic, batch.Results[0].Rarity)
	assert.Equal(t, Common, batch.Results[10].Rarity)
	assert.NotEqual(t, TriggerBatchGuarantee, batch.Results[10].Trigger)
}

func TestPullBatch_StacksWithHardPity(t *testing.T) {
	pity := PityConfig[Rarity]{HardPityThreshold: 5, GuaranteedRarity: Epic}
	e := newTestEngine(t, stingyTable(t), pity, fullCatalog(), newFixedRNG(0))
	batch, err := e.PullBatch(11, BatchGuarantee[Rarity]{MinRarity: Rare, Enabled: true})
	require.NoError(t, err)

	assert.Equal(t, TriggerHardPity, batch.Results[4].Trigger)
	assert.Equal(t, Epic, batch.Results[4].Rarity)
	assert.Equal(t, TriggerHardPity, batch.Results[9].Trigger)
	// the hard pity hits already satisfied the batch, so the last pull is ordinary
	assert.Equal(t, Common, batch.Results[10].Rarity)
	assert.Equal(t, 1, e.PityCount())
}

// drainingCatalog serves items for a fixed number of lookups, then runs dry.
type drainingCatalog struct {
	left  int
	items CatalogMap[Rarity, testItem]
}

func (d *drainingCatalog) Items(r Rarity) []testItem {
	if d.left <= 0 {
		return nil
	}
	d.left--
	return d.items[r]
}

func TestPullBatch_AbortsOnExhaustion(t *testing.T) {
	cat := &drainingCatalog{left: 3, items: fullCatalog()}
	e := newTestEngine(t, stingyTable(t), noPity(), cat, NewSeededRNG(1))

	batch, err := e.PullBatch(11, BatchGuarantee[Rarity]{MinRarity: Rare, Enabled: true})
	require.ErrorIs(t, err, ErrNoItemsAvailable)
	assert.Len(t, batch.Results, 3, "partial results are returned, never padded")
	assert.Equal(t, 3, e.Pulls())
}

func TestPullBatch_InvalidSize(t *testing.T) {
	e := newTestEngine(t, stingyTable(t), noPity(), fullCatalog(), NewSeededRNG(1))
	_, err := e.PullBatch(0, BatchGuarantee[Rarity]{})
	assert.ErrorIs(t, err, ErrInvalidBatchSize)
}

func TestPullBatch_SingleWithGuarantee(t *testing.T) {
	e := newTestEngine(t, stingyTable(t), noPity(), fullCatalog(), newFixedRNG(0))
	batch, err := e.PullBatch(1, BatchGuarantee[Rarity]{MinRarity: Rare, Enabled: true})
	require.NoError(t, err)
	require.Len(t, batch.Results, 1)
	assert.Equal(t, Rare, batch.Results[0].Rarity)
}

func TestPullBatch_SubstitutedPullDoesNotMeetGuarantee(t *testing.T) {
	// First draw selects Epic, whose pool is empty, so Common is served instead.
	draws := make([]float64, 64)
	draws[0] = 0.9995
	cat := CatalogMap[Rarity, testItem]{
		Common:   {{Name: "Stick"}},
		Uncommon: {{Name: "Club"}},
		Rare:     {{Name: "Blade"}},
	}
	e := newTestEngine(t, stingyTable(t), noPity(), cat, newFixedRNG(draws...))

	batch, err := e.PullBatch(11, BatchGuarantee[Rarity]{MinRarity: Rare, Enabled: true})
	require.NoError(t, err)
	require.Len(t, batch.Results, 11)

	first := batch.Results[0]
	assert.Equal(t, Epic, first.Requested)
	assert.Equal(t, Common, first.Rarity)
	assert.True(t, first.Substituted)

	last := batch.Results[10]
	assert.Equal(t, TriggerBatchGuarantee, last.Trigger)
	assert.Equal(t, Rare, last.Rarity)
	assert.Equal(t, "Blade", last.Item.Name)
	assert.Equal(t, 1, batch.Counts[Rare])
}
