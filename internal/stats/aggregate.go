package stats

import (
	"sort"

	"github.com/louisbranch/decksim/internal/core/rng"
	"github.com/louisbranch/decksim/internal/sim"
)

// Metric names produced for every run.
const (
	MetricTerminalRound  = "terminal_round"
	MetricCardsPlayed    = "cards_played"
	MetricFinalResources = "final_resources"
	MetricFinalHandSize  = "final_hand_size"
	MetricAvgResources   = "avg_resources"
	MetricAvgHandSize    = "avg_hand_size"
)

// DefaultPercentileRanks are the percentile points reported per metric.
var DefaultPercentileRanks = []float64{5, 25, 50, 75, 95}

// metricNames fixes the traversal order of the per-metric accumulators.
// All accumulators share one RNG stream, so every code path must consume it
// in a deterministic order; ranging over a map here would break the
// bit-identical-rerun guarantee.
var metricNames = []string{
	MetricTerminalRound,
	MetricCardsPlayed,
	MetricFinalResources,
	MetricFinalHandSize,
	MetricAvgResources,
	MetricAvgHandSize,
}

// Aggregator folds trial samples into summary statistics. It is not safe
// for concurrent use; concurrent workers each own a partial Aggregator and
// the partials are merged once all trials finish.
type Aggregator struct {
	retention int
	stream    *rng.Stream
	tracked   []string // milestone names, sorted

	trials         int64
	stalled        int64
	libraryEmptied int64

	metrics    map[string]*Accumulator
	milestones map[string]*milestoneAcc
}

type milestoneAcc struct {
	achieved int64
	rounds   *Accumulator
}

// NewAggregator creates an aggregator tracking the named milestones. The
// stream feeds reservoir sampling only; it never observes trial outcomes.
func NewAggregator(milestones []string, retention int, stream *rng.Stream) *Aggregator {
	a := &Aggregator{
		retention:  retention,
		stream:     stream,
		metrics:    make(map[string]*Accumulator),
		milestones: make(map[string]*milestoneAcc, len(milestones)),
	}
	for _, name := range metricNames {
		a.metrics[name] = NewAccumulator(retention, stream)
	}
	a.tracked = append([]string(nil), milestones...)
	sort.Strings(a.tracked)
	for _, name := range a.tracked {
		a.milestones[name] = &milestoneAcc{rounds: NewAccumulator(retention, stream)}
	}
	return a
}

// Observe folds one trial sample into the partial statistics.
func (a *Aggregator) Observe(s sim.Sample) {
	a.trials++
	if s.Stalled {
		a.stalled++
	}
	if s.LibraryEmptied {
		a.libraryEmptied++
	}

	a.metrics[MetricTerminalRound].Observe(float64(s.TerminalRound))
	a.metrics[MetricCardsPlayed].Observe(float64(s.CardsPlayed))

	if n := len(s.Rounds); n > 0 {
		last := s.Rounds[n-1]
		a.metrics[MetricFinalResources].Observe(float64(last.Resources))
		a.metrics[MetricFinalHandSize].Observe(float64(last.HandSize))

		var resources, hand float64
		for _, snap := range s.Rounds {
			resources += float64(snap.Resources)
			hand += float64(snap.HandSize)
		}
		a.metrics[MetricAvgResources].Observe(resources / float64(n))
		a.metrics[MetricAvgHandSize].Observe(hand / float64(n))
	}

	for _, name := range a.tracked {
		round, ok := s.Milestones[name]
		if !ok || round == sim.NotAchieved {
			continue
		}
		acc := a.milestones[name]
		acc.achieved++
		acc.rounds.Observe(float64(round))
	}
}

// Merge folds another partial aggregator into this one. Both must have been
// created with the same milestone set and retention.
func (a *Aggregator) Merge(b *Aggregator) {
	if b == nil {
		return
	}
	a.trials += b.trials
	a.stalled += b.stalled
	a.libraryEmptied += b.libraryEmptied
	for _, name := range metricNames {
		a.metrics[name].Merge(b.metrics[name])
	}
	for _, name := range a.tracked {
		if other := b.milestones[name]; other != nil {
			acc := a.milestones[name]
			acc.achieved += other.achieved
			acc.rounds.Merge(other.rounds)
		}
	}
}

// Trials returns the number of samples observed so far.
func (a *Aggregator) Trials() int64 { return a.trials }

// Finalize freezes the aggregate result. ranks default to
// DefaultPercentileRanks and are sorted so percentile output is monotone.
func (a *Aggregator) Finalize(ranks []float64) Result {
	if len(ranks) == 0 {
		ranks = DefaultPercentileRanks
	}
	ranks = append([]float64(nil), ranks...)
	sort.Float64s(ranks)

	res := Result{
		Trials:           a.trials,
		Metrics:          make(map[string]Summary, len(a.metrics)),
		Milestones:       make(map[string]MilestoneResult, len(a.milestones)),
		StallRate:        NewRate(a.stalled, a.trials),
		LibraryEmptyRate: NewRate(a.libraryEmptied, a.trials),
		RetentionCap:     a.retention,
		RetentionMethod:  "reservoir-r",
	}
	if res.RetentionCap <= 0 {
		res.RetentionCap = DefaultRetention
	}
	for _, name := range metricNames {
		res.Metrics[name] = a.metrics[name].Summarize(ranks)
	}
	for _, name := range a.tracked {
		acc := a.milestones[name]
		res.Milestones[name] = MilestoneResult{
			Achievement: NewRate(acc.achieved, a.trials),
			Round:       acc.rounds.Summarize(ranks),
		}
	}
	return res
}

// Result is the aggregate statistical output of a run.
type Result struct {
	Trials int64 `json:"trials"`

	Metrics    map[string]Summary         `json:"metrics"`
	Milestones map[string]MilestoneResult `json:"milestones,omitempty"`

	StallRate        Rate `json:"stall_rate"`
	LibraryEmptyRate Rate `json:"library_empty_rate"`

	// RetentionCap and RetentionMethod document how percentiles were
	// computed: exact up to the cap, then a uniform reservoir sample.
	RetentionCap    int    `json:"retention_cap"`
	RetentionMethod string `json:"retention_method"`
}

// MilestoneResult pairs a milestone's achievement rate with the
// distribution of the round it was first reached in (achieved trials only).
type MilestoneResult struct {
	Achievement Rate    `json:"achievement"`
	Round       Summary `json:"round"`
}
