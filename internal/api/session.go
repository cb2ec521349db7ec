package api

import (
	"sync"

	"github.com/xtding233/idle-gacha/internal/banner"
	"github.com/xtding233/idle-gacha/internal/gacha"
	"github.com/xtding233/idle-gacha/internal/items"
	"github.com/xtding233/idle-gacha/internal/metrics"
)

// PullView is one granted item as returned to clients.
type PullView struct {
	Item        any          `json:"item"`
	Name        string       `json:"name"`
	Rarity      gacha.Rarity `json:"rarity"`
	Requested   gacha.Rarity `json:"requested"`
	Substituted bool         `json:"substituted,omitempty"`
	Trigger     string       `json:"trigger"`
	PityBefore  int          `json:"pity_before"`
	PityAfter   int          `json:"pity_after"`
}

// PityView describes the counter and its configuration.
type PityView struct {
	Count            int          `json:"count"`
	Progress         float64      `json:"progress"`
	Phase            string       `json:"phase"`
	HardThreshold    int          `json:"hard_threshold"`
	SoftStart        int          `json:"soft_start"`
	SoftIncrementPct float64      `json:"soft_increment_pct"`
	Guaranteed       gacha.Rarity `json:"guaranteed_rarity"`
}

type PresetView struct {
	Name      string        `json:"name"`
	Size      int           `json:"size"`
	MinRarity *gacha.Rarity `json:"min_rarity,omitempty"`
	Cost      int           `json:"cost"`
}

// Status is the banner info screen.
type Status struct {
	Name    string                         `json:"name"`
	Kind    string                         `json:"kind"`
	Version string                         `json:"version,omitempty"`
	Token   string                         `json:"token,omitempty"`
	PerPull int                            `json:"per_pull"`
	Rates   []gacha.RateInfo[gacha.Rarity] `json:"rates"`
	Pity    PityView                       `json:"pity"`
	Presets []PresetView                   `json:"presets"`
	Pulls   int                            `json:"pulls"`
	Tally   map[gacha.Rarity]int           `json:"tally"`
	Pool    map[gacha.Rarity]int           `json:"pool"`
}

// PullOutcome is one request's pulls plus the pity counter right after them.
type PullOutcome struct {
	Results []PullView
	Counts  map[gacha.Rarity]int
	Pity    int
}

// session serialises access to one banner's engine. Once replaced by a
// reload it forwards every call to its successor.
type session interface {
	Spec() banner.Spec
	Pull(n int, g gacha.BatchGuarantee[gacha.Rarity]) (PullOutcome, error)
	Status() Status
	History() []string
	ResetPity()
	PityCount() int
	RestorePity(count int)

	// reloadCatalog re-reads the item catalog into the running pool.
	reloadCatalog() error
	// handOver copies the pity counter into next and retires the session.
	handOver(next session)
}

type engineSession[T gacha.Item[T]] struct {
	spec banner.Spec
	pool *items.Pool[T]
	load func() (map[gacha.Rarity][]T, error)
	rec  *metrics.Recorder

	mu     sync.Mutex
	engine *gacha.Engine[gacha.Rarity, T]
	next   session
}

// acquire locks s, or returns the session that replaced it.
func (s *engineSession[T]) acquire() session {
	s.mu.Lock()
	if s.next != nil {
		next := s.next
		s.mu.Unlock()
		return next
	}
	return nil
}

func (s *engineSession[T]) Spec() banner.Spec { return s.spec }

func (s *engineSession[T]) Pull(n int, g gacha.BatchGuarantee[gacha.Rarity]) (PullOutcome, error) {
	if next := s.acquire(); next != nil {
		return next.Pull(n, g)
	}
	defer s.mu.Unlock()

	batch, err := s.engine.PullBatch(n, g)
	out := PullOutcome{
		Results: make([]PullView, 0, len(batch.Results)),
		Counts:  batch.Counts,
		Pity:    s.engine.PityCount(),
	}
	if s.rec != nil {
		s.rec.SetPity(s.spec.Name, out.Pity)
	}
	for _, res := range batch.Results {
		out.Results = append(out.Results, PullView{
			Item:        res.Item,
			Name:        res.Item.DisplayName(),
			Rarity:      res.Rarity,
			Requested:   res.Requested,
			Substituted: res.Substituted,
			Trigger:     res.Trigger.String(),
			PityBefore:  res.PityBefore,
			PityAfter:   res.PityAfter,
		})
	}
	return out, err
}

func (s *engineSession[T]) Status() Status {
	if next := s.acquire(); next != nil {
		return next.Status()
	}
	defer s.mu.Unlock()

	cfg := s.engine.PityConfig()
	presets := make([]PresetView, 0, len(s.spec.Presets))
	for _, p := range s.spec.Presets {
		v := PresetView{Name: p.Name, Size: p.Size, Cost: s.spec.Cost.TokensForPulls(p.Size)}
		if p.Guarantee.Enabled {
			minimum := p.Guarantee.MinRarity
			v.MinRarity = &minimum
		}
		presets = append(presets, v)
	}
	return Status{
		Name:    s.spec.Name,
		Kind:    s.spec.Kind,
		Version: s.spec.Version,
		Token:   s.spec.Cost.Name,
		PerPull: s.spec.Cost.PerPull,
		Rates:   s.engine.Rates(),
		Pity: PityView{
			Count:            s.engine.PityCount(),
			Progress:         s.engine.PityProgress(),
			Phase:            s.engine.Phase().String(),
			HardThreshold:    cfg.HardPityThreshold,
			SoftStart:        cfg.SoftPityStart,
			SoftIncrementPct: cfg.SoftPityIncrementPct,
			Guaranteed:       cfg.GuaranteedRarity,
		},
		Presets: presets,
		Pulls:   s.engine.Pulls(),
		Tally:   s.engine.Tally(),
		Pool:    s.pool.Counts(),
	}
}

func (s *engineSession[T]) History() []string {
	if next := s.acquire(); next != nil {
		return next.History()
	}
	defer s.mu.Unlock()
	return s.engine.History()
}

func (s *engineSession[T]) ResetPity() {
	if next := s.acquire(); next != nil {
		next.ResetPity()
		return
	}
	defer s.mu.Unlock()
	s.engine.ResetPity()
	if s.rec != nil {
		s.rec.SetPity(s.spec.Name, 0)
	}
}

func (s *engineSession[T]) PityCount() int {
	if next := s.acquire(); next != nil {
		return next.PityCount()
	}
	defer s.mu.Unlock()
	return s.engine.PityCount()
}

func (s *engineSession[T]) RestorePity(count int) {
	if next := s.acquire(); next != nil {
		next.RestorePity(count)
		return
	}
	defer s.mu.Unlock()
	s.engine.RestorePity(count)
}

// reloadCatalog swaps the pool contents; pity, history and tally are untouched.
// The pool has its own lock, so pulls in flight keep the slice they already read.
func (s *engineSession[T]) reloadCatalog() error {
	byRarity, err := s.load()
	if err != nil {
		return err
	}
	s.pool.Replace(byRarity)
	return nil
}

func (s *engineSession[T]) handOver(next session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next.RestorePity(s.engine.PityCount())
	s.next = next
}
