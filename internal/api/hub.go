package api

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/xtding233/idle-gacha/internal/banner"
	"github.com/xtding233/idle-gacha/internal/gacha"
	"github.com/xtding233/idle-gacha/internal/items"
	"github.com/xtding233/idle-gacha/internal/metrics"
)

// ErrUnknownBanner is returned for names that are not loaded.
var ErrUnknownBanner = errors.New("unknown banner")

// Hub holds one session per banner found by the loader.
type Hub struct {
	loader *banner.Loader
	rec    *metrics.Recorder
	log    *logrus.Entry
	seed   uint64 // 0 => crypto RNG

	mu       sync.RWMutex
	sessions map[string]session
}

func NewHub(loader *banner.Loader, rec *metrics.Recorder, log *logrus.Entry, seed uint64) *Hub {
	return &Hub{
		loader:   loader,
		rec:      rec,
		log:      log,
		seed:     seed,
		sessions: make(map[string]session),
	}
}

// LoadAll builds every banner in the config directory. A banner that fails
// to load is logged and skipped.
func (h *Hub) LoadAll() error {
	names, err := h.loader.Names()
	if err != nil {
		return err
	}
	var loaded int
	for _, name := range names {
		if err := h.Reload(name); err != nil {
			h.log.WithError(err).WithField("banner", name).Error("banner not loaded")
			continue
		}
		loaded++
	}
	if loaded == 0 {
		return fmt.Errorf("no banners loaded from %s", h.loader.Paths().BannerDir())
	}
	return nil
}

// Reload re-reads one banner, or every loaded banner for banner.AllBanners.
// When only the item catalog changed, the running pool is refilled in place.
// Otherwise the engine is rebuilt and the old session hands its pity counter
// over and forwards to the new one. If the new config is invalid the running
// session is kept.
func (h *Hub) Reload(name string) error {
	h.loader.Invalidate()
	if name == banner.AllBanners {
		var errs []error
		for _, n := range h.Names() {
			errs = append(errs, h.Reload(n))
		}
		return errors.Join(errs...)
	}

	spec, err := h.loader.Resolve(name)
	if err != nil {
		h.record(name, false)
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	old, ok := h.sessions[name]
	if ok && old.Spec().Equal(spec) {
		if err := old.reloadCatalog(); err != nil {
			h.record(name, false)
			return fmt.Errorf("banner %q: %w", name, err)
		}
		h.record(name, true)
		h.log.WithField("banner", name).Info("banner catalog reloaded")
		return nil
	}

	s, err := h.build(spec)
	if err != nil {
		h.record(name, false)
		return fmt.Errorf("banner %q: %w", name, err)
	}
	if ok {
		old.handOver(s)
	}
	h.sessions[name] = s

	h.record(name, true)
	h.log.WithFields(logrus.Fields{
		"banner":  name,
		"kind":    spec.Kind,
		"version": spec.Version,
	}).Info("banner loaded")
	return nil
}

func (h *Hub) record(name string, ok bool) {
	if h.rec != nil {
		h.rec.RecordReload(name, ok)
	}
}

func (h *Hub) build(spec banner.Spec) (session, error) {
	cfg := gacha.Config[gacha.Rarity]{
		Name:   spec.Name,
		Table:  spec.Table,
		Pity:   spec.Pity,
		Logger: h.log,
	}
	if h.rec != nil {
		cfg.Observer = h.rec
	}
	if h.seed != 0 {
		cfg.RNG = gacha.NewSeededRNG(h.seed)
	}
	catalog := h.loader.Paths().CatalogPath(spec.Name)

	switch spec.Kind {
	case banner.KindEquipment:
		return newSession(spec, cfg, h.rec, func() (map[gacha.Rarity][]items.Equipment, error) {
			return items.LoadCatalog[items.Equipment](catalog)
		}, items.NewEquipmentEngine)
	case banner.KindRelic:
		return newSession(spec, cfg, h.rec, func() (map[gacha.Rarity][]items.Relic, error) {
			return items.LoadCatalog[items.Relic](catalog)
		}, items.NewRelicEngine)
	}
	return nil, fmt.Errorf("unsupported kind %q", spec.Kind)
}

func newSession[T gacha.Item[T]](
	spec banner.Spec,
	cfg gacha.Config[gacha.Rarity],
	rec *metrics.Recorder,
	load func() (map[gacha.Rarity][]T, error),
	newEngine func(gacha.Config[gacha.Rarity], *items.Pool[T]) (*gacha.Engine[gacha.Rarity, T], error),
) (session, error) {
	byRarity, err := load()
	if err != nil {
		return nil, err
	}
	pool := items.NewPool(byRarity)
	e, err := newEngine(cfg, pool)
	if err != nil {
		return nil, err
	}
	return &engineSession[T]{spec: spec, pool: pool, load: load, rec: rec, engine: e}, nil
}

func (h *Hub) get(name string) (session, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	s, ok := h.sessions[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBanner, name)
	}
	return s, nil
}

// Names lists loaded banners, sorted.
func (h *Hub) Names() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	names := make([]string, 0, len(h.sessions))
	for n := range h.sessions {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}
