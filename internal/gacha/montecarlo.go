package gacha

import (
	"math"
	"sort"
)

// TrialGoal selects what the simulation measures per trial.
type TrialGoal string

const (
	// Pulls until the first result >= GuaranteedRarity.
	GoalFirstGuaranteed TrialGoal = "first_guaranteed"
	// Given a fixed budget, count results >= GuaranteedRarity.
	GoalFixedBudget TrialGoal = "fixed_budget"
)

// SimParams describes the mechanics for one simulation run.
type SimParams[R Tier] struct {
	Table *RateTable[R]
	Pity  PityConfig[R]
	Seed  uint64 // trials are replicable for a given seed

	// Batch, if Size > 1, pulls in batches with the given guarantee instead of singles.
	Batch BatchPreset[R]

	// Cushion is the carry-over pity count when entering the banner.
	Cushion int

	// NumPulls is the budget for GoalFixedBudget.
	NumPulls int
}

// Stats summarizes simulation results.
type Stats struct {
	Mean   float64 `json:"mean"`
	Var    float64 `json:"var"`
	StdDev float64 `json:"stddev"`
	P50    float64 `json:"p50"`
	P90    float64 `json:"p90"`
	P99    float64 `json:"p99"`
	Max    int     `json:"max"`
	// Optional: raw samples if caller needs histograms/exports
	Samples []int `json:"-"`
}

// calcStats computes mean/variance/percentiles for integer samples.
func calcStats(xs []int) Stats {
	n := len(xs)
	if n == 0 {
		return Stats{}
	}
	var sum float64
	for _, v := range xs {
		sum += float64(v)
	}
	mean := sum / float64(n)

	// variance (population)
	var acc float64
	for _, v := range xs {
		d := float64(v) - mean
		acc += d * d
	}
	variance := acc / float64(n)

	cp := append([]int(nil), xs...)
	sort.Ints(cp)
	percentile := func(p float64) float64 {
		if n == 1 || p <= 0 {
			return float64(cp[0])
		}
		if p >= 1 {
			return float64(cp[n-1])
		}
		pos := p * float64(n-1)
		i := int(math.Floor(pos))
		f := pos - float64(i)
		if i+1 >= n {
			return float64(cp[i])
		}
		return float64(cp[i])*(1-f) + float64(cp[i+1])*f
	}

	return Stats{
		Mean:    mean,
		Var:     variance,
		StdDev:  math.Sqrt(variance),
		P50:     percentile(0.50),
		P90:     percentile(0.90),
		P99:     percentile(0.99),
		Max:     cp[n-1],
		Samples: xs,
	}
}

// MaxTrialPulls bounds GoalFirstGuaranteed when hard pity is off and the
// guaranteed tier has zero weight.
const MaxTrialPulls = 1_000_000

// RollsPerTrial is an upper bound on the rolls one trial of goal performs.
func (p SimParams[R]) RollsPerTrial(goal TrialGoal) int {
	size := max(p.Batch.Size, 1)
	switch goal {
	case GoalFixedBudget:
		return max(p.NumPulls, 0) + size
	case GoalFirstGuaranteed:
		if p.Pity.HardPityEnabled() {
			return p.Pity.HardPityThreshold + size
		}
		return MaxTrialPulls + size
	}
	return 0
}

// simulateOne returns the metric for one trial. Items are not resolved; only the
// selector and the pity state machine run.
func simulateOne[R Tier](sel *Selector[R], p SimParams[R], goal TrialGoal) int {
	state := PityState{Count: p.Cushion}
	if hard := p.Pity.HardPityThreshold; hard > 0 && state.Count >= hard {
		state.Count = hard - 1
	}
	if state.Count < 0 {
		state.Count = 0
	}

	size := p.Batch.Size
	if size < 1 {
		size = 1
	}
	// one batch: size-1 plain rolls, then the final roll with the batch floor if needed
	batch := func(visit func(R) bool) bool {
		met := false
		for i := 0; i < size-1; i++ {
			r := sel.Roll(&state, nil).Rarity
			if r >= p.Batch.Guarantee.MinRarity {
				met = true
			}
			if visit(r) {
				return true
			}
		}
		var floor *R
		if p.Batch.Guarantee.Enabled && !met {
			minimum := p.Batch.Guarantee.MinRarity
			floor = &minimum
		}
		return visit(sel.Roll(&state, floor).Rarity)
	}

	switch goal {
	case GoalFirstGuaranteed:
		pulls := 0
		for pulls < MaxTrialPulls {
			done := batch(func(r R) bool {
				pulls++
				return r >= p.Pity.GuaranteedRarity
			})
			if done {
				return pulls
			}
		}
		return pulls

	case GoalFixedBudget:
		if p.NumPulls <= 0 {
			return 0
		}
		pulls, hits := 0, 0
		for pulls < p.NumPulls {
			batch(func(r R) bool {
				pulls++
				if r >= p.Pity.GuaranteedRarity {
					hits++
				}
				return pulls >= p.NumPulls
			})
		}
		return hits
	}
	return 0
}

// RunMonteCarlo repeats trials and returns summary stats.
func RunMonteCarlo[R Tier](p SimParams[R], goal TrialGoal, trials int) (Stats, error) {
	if trials <= 0 {
		return Stats{}, nil
	}
	sel, err := NewSelector(p.Table, p.Pity, NewSeededRNG(p.Seed))
	if err != nil {
		return Stats{}, err
	}
	samples := make([]int, trials)
	for i := range samples {
		samples[i] = simulateOne(sel, p, goal)
	}
	return calcStats(samples), nil
}
