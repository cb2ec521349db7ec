package gacha

import (
	"fmt"
	"io"
	"maps"

	"github.com/sirupsen/logrus"
)

// Config wires one gacha instance.
type Config[R Tier] struct {
	Name            string
	Table           *RateTable[R]
	Pity            PityConfig[R]
	RNG             RandomSource // nil => DefaultRNG
	HistoryCapacity int          // <= 0 => DefaultHistoryCapacity
	Logger          *logrus.Entry
	Observer        Observer
}

// PullResult is one granted item. Item is a copy owned by the caller.
type PullResult[R Tier, T any] struct {
	Item   T
	Rarity R // rarity of the pool the item came from

	Requested   R    // rarity chosen by the selector
	Substituted bool // Requested's pool was empty and another pool was used
	Trigger     Trigger
	PityBefore  int
	PityAfter   int
}

// Engine orchestrates pulls: advance pity, select rarity, resolve item, record.
// One Engine owns one PityState. It is not safe for concurrent use; callers
// serialise pulls per player/session.
type Engine[R Tier, T Item[T]] struct {
	name     string
	selector *Selector[R]
	resolver *Resolver[R, T]
	state    PityState
	history  *HistoryLog
	tally    map[R]int
	pulls    int
	log      *logrus.Entry
	observer Observer
}

// NewEngine validates cfg and builds an engine over catalog.
func NewEngine[R Tier, T Item[T]](cfg Config[R], catalog Catalog[R, T]) (*Engine[R, T], error) {
	if catalog == nil {
		return nil, &ConfigError{Reasons: []string{"catalog is nil"}}
	}
	sel, err := NewSelector(cfg.Table, cfg.Pity, cfg.RNG)
	if err != nil {
		return nil, err
	}
	log := cfg.Logger
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = logrus.NewEntry(l)
	}
	obs := cfg.Observer
	if obs == nil {
		obs = nopObserver{}
	}
	return &Engine[R, T]{
		name:     cfg.Name,
		selector: sel,
		resolver: &Resolver[R, T]{Table: sel.Table, Catalog: catalog, RNG: sel.RNG},
		history:  NewHistoryLog(cfg.HistoryCapacity),
		tally:    make(map[R]int),
		log:      log.WithField("banner", cfg.Name),
		observer: obs,
	}, nil
}

// PullOne performs a single pull. It fails only with ErrNoItemsAvailable.
func (e *Engine[R, T]) PullOne() (PullResult[R, T], error) {
	return e.pull(nil)
}

// pull runs one attempt; floor != nil forces a draw restricted to >= *floor.
// On failure the pity counter is left as it was before the attempt.
func (e *Engine[R, T]) pull(floor *R) (PullResult[R, T], error) {
	before := e.state
	roll := e.selector.Roll(&e.state, floor)

	item, fb, err := e.resolver.Resolve(roll.Rarity)
	if err != nil {
		e.state = before
		e.observer.ObserveExhausted(e.name)
		e.log.WithFields(logrus.Fields{
			"rarity": fmt.Sprint(roll.Rarity),
			"pity":   before.Count,
		}).Error("pull aborted: every item pool is empty")
		return PullResult[R, T]{}, err
	}

	res := PullResult[R, T]{
		Item:       item,
		Rarity:     roll.Rarity,
		Requested:  roll.Rarity,
		Trigger:    roll.Trigger,
		PityBefore: roll.PityBefore,
		PityAfter:  roll.PityAfter,
	}
	if fb != nil {
		res.Rarity = fb.Substituted
		res.Substituted = true
		e.observer.ObserveFallback(e.name, fmt.Sprint(fb.Requested), fmt.Sprint(fb.Substituted))
		e.log.WithFields(logrus.Fields{
			"requested":   fmt.Sprint(fb.Requested),
			"substituted": fmt.Sprint(fb.Substituted),
		}).Warn("item pool empty, using fallback pool")
	}

	e.record(res)
	return res, nil
}

func (e *Engine[R, T]) record(res PullResult[R, T]) {
	e.pulls++
	e.tally[res.Rarity]++
	e.observer.ObservePull(e.name, fmt.Sprint(res.Rarity), res.Trigger)

	line := fmt.Sprintf("#%d %v %s (pity %d)", e.pulls, res.Rarity, res.Item.DisplayName(), res.PityBefore+1)
	switch res.Trigger {
	case TriggerHardPity:
		line += " [hard pity]"
	case TriggerBatchGuarantee:
		line += " [batch guarantee]"
	}
	if res.Substituted {
		line += fmt.Sprintf(" [fallback from %v]", res.Requested)
	}
	e.history.Add(line)

	if res.Trigger == TriggerHardPity {
		e.log.WithField("rarity", fmt.Sprint(res.Rarity)).Debug("hard pity triggered")
	}
}

// Name is the banner name given at construction.
func (e *Engine[R, T]) Name() string { return e.name }

// Table is the rate table the engine draws from.
func (e *Engine[R, T]) Table() *RateTable[R] { return e.selector.Table }

// PityConfig returns the engine's pity configuration.
func (e *Engine[R, T]) PityConfig() PityConfig[R] { return e.selector.Pity }

// PityCount is the raw pity counter.
func (e *Engine[R, T]) PityCount() int { return e.state.Count }

// PityProgress is PityCount / HardPityThreshold, 0 when hard pity is off.
func (e *Engine[R, T]) PityProgress() float64 {
	cfg := e.selector.Pity
	if !cfg.HardPityEnabled() {
		return 0
	}
	return float64(e.state.Count) / float64(cfg.HardPityThreshold)
}

// Phase reports where the pity counter sits.
func (e *Engine[R, T]) Phase() Phase { return PhaseOf(e.state.Count, e.selector.Pity) }

// ResetPity zeroes the pity counter.
func (e *Engine[R, T]) ResetPity() {
	e.log.WithField("pity", e.state.Count).Info("pity reset")
	e.state = PityState{}
}

// RestorePity sets the counter from an external save. Values are clamped to
// [0, HardPityThreshold-1] so a restored state never skips the guarantee.
func (e *Engine[R, T]) RestorePity(count int) {
	if count < 0 {
		count = 0
	}
	if hard := e.selector.Pity.HardPityThreshold; hard > 0 && count >= hard {
		count = hard - 1
	}
	e.state = PityState{Count: count}
}

// Rates is the probability display table, highest rarity first.
func (e *Engine[R, T]) Rates() []RateInfo[R] { return e.selector.Table.Rates() }

// Tally returns how many items of each rarity this engine has granted.
func (e *Engine[R, T]) Tally() map[R]int { return maps.Clone(e.tally) }

// Pulls is the number of successful pulls.
func (e *Engine[R, T]) Pulls() int { return e.pulls }

// History returns the recent pull records, most recent first.
func (e *Engine[R, T]) History() []string { return e.history.Entries() }
