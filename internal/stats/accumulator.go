// Package stats provides numerically stable streaming statistics for
// aggregating per-trial simulation samples.
//
// Accumulators process one value at a time and never retain the full value
// set, except for a bounded reservoir used to estimate percentiles. Partial
// accumulators merge, so concurrent workers can each accumulate locally and
// combine at the end instead of synchronizing per trial.
package stats

import (
	"math"

	"github.com/louisbranch/decksim/internal/core/rng"
)

// Accumulator tracks running moments for one metric using Welford's
// algorithm, which stays stable across thousands of trials where the naive
// sum-of-squares approach loses precision.
type Accumulator struct {
	count     int64
	mean      float64
	m2        float64
	min       float64
	max       float64
	reservoir *Reservoir
}

// NewAccumulator creates an accumulator whose percentile reservoir holds at
// most retention values.
func NewAccumulator(retention int, stream *rng.Stream) *Accumulator {
	return &Accumulator{
		min:       math.Inf(1),
		max:       math.Inf(-1),
		reservoir: NewReservoir(retention, stream),
	}
}

// Observe folds one value into the running statistics.
func (a *Accumulator) Observe(v float64) {
	a.count++
	delta := v - a.mean
	a.mean += delta / float64(a.count)
	a.m2 += delta * (v - a.mean)
	if v < a.min {
		a.min = v
	}
	if v > a.max {
		a.max = v
	}
	a.reservoir.Offer(v)
}

// Merge folds another accumulator's partial statistics into this one using
// the parallel-variance combination, preserving numerical stability.
func (a *Accumulator) Merge(b *Accumulator) {
	if b == nil || b.count == 0 {
		return
	}
	if a.count == 0 {
		a.count = b.count
		a.mean = b.mean
		a.m2 = b.m2
		a.min = b.min
		a.max = b.max
		a.reservoir.Absorb(b.reservoir)
		return
	}

	na, nb := float64(a.count), float64(b.count)
	delta := b.mean - a.mean
	total := na + nb
	a.mean += delta * nb / total
	a.m2 += b.m2 + delta*delta*na*nb/total
	a.count += b.count
	if b.min < a.min {
		a.min = b.min
	}
	if b.max > a.max {
		a.max = b.max
	}
	a.reservoir.Absorb(b.reservoir)
}

// Count returns the number of observed values.
func (a *Accumulator) Count() int64 { return a.count }

// Mean returns the running mean, or 0 before any observation.
func (a *Accumulator) Mean() float64 {
	if a.count == 0 {
		return 0
	}
	return a.mean
}

// Variance returns the sample variance, or 0 with fewer than two values.
func (a *Accumulator) Variance() float64 {
	if a.count < 2 {
		return 0
	}
	return a.m2 / float64(a.count-1)
}

// Summarize freezes the accumulator into a Summary with percentiles at the
// given ranks (0-100).
func (a *Accumulator) Summarize(ranks []float64) Summary {
	s := Summary{
		Count:    a.count,
		Mean:     a.Mean(),
		Variance: a.Variance(),
	}
	if a.count > 0 {
		s.Min = a.min
		s.Max = a.max
	}
	s.Percentiles = a.reservoir.Percentiles(ranks)
	s.RetentionCap = a.reservoir.Cap()
	s.Approximate = a.reservoir.Downsampled()
	return s
}

// Summary is the frozen statistical description of one metric.
type Summary struct {
	Count    int64   `json:"count"`
	Mean     float64 `json:"mean"`
	Variance float64 `json:"variance"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`

	Percentiles []Percentile `json:"percentiles,omitempty"`

	// RetentionCap and Approximate document the percentile method: when
	// more values were seen than the cap retains, percentiles come from a
	// uniform reservoir sample rather than the exact set.
	RetentionCap int  `json:"retention_cap"`
	Approximate  bool `json:"approximate"`
}

// Percentile is one percentile point. Values are non-decreasing in Rank.
type Percentile struct {
	Rank  float64 `json:"rank"`
	Value float64 `json:"value"`
}
