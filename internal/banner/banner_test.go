package banner

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xtding233/idle-gacha/internal/gacha"
)

const defaultYAML = `
version: "1"
kind: equipment
rates:
  - {rarity: Common, weight: 60}
  - {rarity: Uncommon, weight: 25}
  - {rarity: Rare, weight: 10}
  - {rarity: Epic, weight: 4}
  - {rarity: Legendary, weight: 1}
pity:
  hard_threshold: 90
  soft_start: 70
  soft_increment_pct: 5
  guaranteed_rarity: Epic
tokens:
  name: Gem
  per_pull: 160
  per_batch: {11: 1600}
`

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func newTestLoader(t *testing.T, banners map[string]string) *Loader {
	t.Helper()
	dir := t.TempDir()
	l := NewLoader(dir)
	writeFile(t, l.Paths().DefaultPath(), defaultYAML)
	for name, body := range banners {
		writeFile(t, l.Paths().BannerPath(name), body)
	}
	return l
}

func TestLoader_MergesDefaultIntoBanner(t *testing.T) {
	l := newTestLoader(t, map[string]string{
		"relics": "kind: relic\npity:\n  hard_threshold: 50\n  soft_start: 0\ntokens:\n  per_pull: 300\n",
	})

	raw, err := l.LoadMerged("relics")
	require.NoError(t, err)
	assert.Equal(t, "1", raw.Version)
	assert.Equal(t, KindRelic, raw.Kind)
	assert.Len(t, raw.Rates, 5, "rates inherited from default")
	require.NotNil(t, raw.Pity)
	assert.Equal(t, 50, *raw.Pity.HardThreshold)
	assert.Equal(t, 0, *raw.Pity.SoftStart)
	assert.Equal(t, 5.0, *raw.Pity.SoftIncrementPct)
	assert.Equal(t, "Epic", raw.Pity.GuaranteedRarity)
	assert.Equal(t, 300, *raw.Tokens.PerPull)
	assert.Equal(t, "Gem", raw.Tokens.Name)
}

func TestLoader_CacheAndInvalidate(t *testing.T) {
	l := newTestLoader(t, map[string]string{"weapons": "notes: first\n"})

	raw, err := l.LoadMerged("weapons")
	require.NoError(t, err)
	assert.Equal(t, "first", raw.Notes)

	writeFile(t, l.Paths().BannerPath("weapons"), "notes: second\n")
	raw, _ = l.LoadMerged("weapons")
	assert.Equal(t, "first", raw.Notes, "served from cache")

	l.Invalidate()
	raw, _ = l.LoadMerged("weapons")
	assert.Equal(t, "second", raw.Notes)
}

func TestLoader_MissingBanner(t *testing.T) {
	l := newTestLoader(t, nil)
	_, err := l.LoadMerged("nope")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoader_Names(t *testing.T) {
	l := newTestLoader(t, map[string]string{"weapons": "", "relics": ""})
	writeFile(t, l.Paths().CatalogPath("weapons"), "items: []\n")

	names, err := l.Names()
	require.NoError(t, err)
	assert.Equal(t, []string{"relics", "weapons"}, names)
}

func TestResolve(t *testing.T) {
	l := newTestLoader(t, map[string]string{
		"weapons": "batches:\n  - {name: eleven, size: 11, min_rarity: Rare, guarantee: true}\n",
	})

	spec, err := l.Resolve("weapons")
	require.NoError(t, err)
	assert.Equal(t, "weapons", spec.Name)
	assert.Equal(t, KindEquipment, spec.Kind)
	assert.Equal(t, gacha.Legendary, spec.Table.Highest())
	assert.Equal(t, gacha.DefaultPityConfig(), spec.Pity)
	require.Len(t, spec.Presets, 1)

	p, ok := spec.Preset("eleven")
	require.True(t, ok)
	assert.Equal(t, 11, p.Size)
	assert.Equal(t, gacha.BatchGuarantee[gacha.Rarity]{MinRarity: gacha.Rare, Enabled: true}, p.Guarantee)
	assert.Equal(t, 1600, spec.Cost.TokensForPulls(11))

	_, ok = spec.Preset("missing")
	assert.False(t, ok)
}

func TestNormalize_DefaultPresetsAndRelicPity(t *testing.T) {
	raw := RawConfig{
		Kind:  KindRelic,
		Rates: []RateCfg{{"Common", 80}, {"Uncommon", 15}, {"Rare", 4}, {"Epic", 1}},
	}
	spec, err := Normalize("relics", raw)
	require.NoError(t, err)
	assert.Equal(t, 50, spec.Pity.HardPityThreshold)
	assert.False(t, spec.Pity.SoftPityEnabled())
	assert.Len(t, spec.Presets, 3)
}

func TestNormalize_Invalid(t *testing.T) {
	hard, soft := 50, 70
	cases := map[string]RawConfig{
		"no kind":        {Rates: []RateCfg{{"Common", 1}}},
		"bad kind":       {Kind: "pets", Rates: []RateCfg{{"Common", 1}}},
		"no rates":       {Kind: KindEquipment},
		"unknown rarity": {Kind: KindEquipment, Rates: []RateCfg{{"Shiny", 1}}},
		"negative":       {Kind: KindEquipment, Rates: []RateCfg{{"Common", -1}}},
		"gap":            {Kind: KindEquipment, Rates: []RateCfg{{"Common", 1}, {"Epic", 1}}},
		"soft after hard": {Kind: KindEquipment, Rates: []RateCfg{{"Common", 1}, {"Uncommon", 1}, {"Rare", 1}, {"Epic", 1}},
			Pity: &PityCfg{HardThreshold: &hard, SoftStart: &soft}},
		"guarantee outside table": {Kind: KindEquipment, Rates: []RateCfg{{"Common", 1}}},
		"batch without size": {Kind: KindEquipment, Rates: []RateCfg{{"Common", 1}, {"Uncommon", 1}, {"Rare", 1}, {"Epic", 1}},
			Batches: []BatchCfg{{Name: "x"}}},
		"batch floor outside table": {Kind: KindEquipment, Rates: []RateCfg{{"Common", 1}, {"Uncommon", 1}, {"Rare", 1}, {"Epic", 1}},
			Batches: []BatchCfg{{Name: "x", Size: 11, MinRarity: "Mythic", Guarantee: true}}},
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Normalize("b", raw)
			assert.Error(t, err)
		})
	}
}

func TestWatcher_BannerFor(t *testing.T) {
	w := &Watcher{paths: Paths{BaseDir: "/cfg"}}
	cases := []struct {
		path string
		want string
		ok   bool
	}{
		{"/cfg/banners/weapons.yaml", "weapons", true},
		{"/cfg/banners/default.yaml", AllBanners, true},
		{"/cfg/banners/relics/items.yaml", "relics", true},
		{"/cfg/banners/relics/items.yaml~", "", false},
		{"/cfg/other/x.yaml", "", false},
	}
	for _, tc := range cases {
		got, ok := w.bannerFor(tc.path)
		assert.Equal(t, tc.ok, ok, tc.path)
		assert.Equal(t, tc.want, got, tc.path)
	}
}

func TestWatcher_NotifiesOnCatalogChange(t *testing.T) {
	l := newTestLoader(t, map[string]string{"weapons": ""})
	writeFile(t, l.Paths().CatalogPath("weapons"), "items: []\n")

	var mu sync.Mutex
	var got []string
	w, err := NewWatcher(l.Paths(), 20*time.Millisecond, func(name string) {
		mu.Lock()
		got = append(got, name)
		mu.Unlock()
	}, logrus.NewEntry(logrus.New()))
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Stop()

	writeFile(t, l.Paths().CatalogPath("weapons"), "items: [{id: a, name: A, rarity: Common}]\n")

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) > 0
	}, 5*time.Second, 10*time.Millisecond)

	mu.Lock()
	assert.Equal(t, "weapons", got[0])
	mu.Unlock()
}

func TestSpec_Equal(t *testing.T) {
	l := newTestLoader(t, map[string]string{"weapons": ""})
	a, err := l.Resolve("weapons")
	require.NoError(t, err)
	b, err := Normalize("weapons", mustMerged(t, l, "weapons"))
	require.NoError(t, err)
	assert.True(t, a.Equal(b))

	b.Pity.HardPityThreshold = 80
	assert.False(t, a.Equal(b))

	c := a
	c.Cost.PerBatch = map[int]int{11: 1500}
	assert.False(t, a.Equal(c))

	d := a
	d.Table = gacha.MustRateTable(gacha.RateEntry[gacha.Rarity]{Rarity: gacha.Common, Weight: 1})
	assert.False(t, a.Equal(d))
}

func mustMerged(t *testing.T, l *Loader, name string) RawConfig {
	t.Helper()
	raw, err := l.LoadMerged(name)
	require.NoError(t, err)
	return raw
}
