package stats

import (
	"sort"

	"github.com/louisbranch/decksim/internal/core/rng"
)

// DefaultRetention is the per-metric value cap used for percentile
// estimation when a run does not override it.
const DefaultRetention = 10000

// Reservoir keeps a bounded uniform sample of an unbounded value stream
// (Vitter's Algorithm R). Percentiles computed from a downsampled reservoir
// are an approximation; Downsampled reports when that happened so report
// consumers can judge precision.
type Reservoir struct {
	cap         int
	seen        int64
	values      []float64
	stream      *rng.Stream
	downsampled bool
}

// NewReservoir creates a reservoir with the given cap. A non-positive cap
// falls back to DefaultRetention. The stream must be dedicated to this
// reservoir so sampling stays deterministic under a fixed run seed.
func NewReservoir(cap int, stream *rng.Stream) *Reservoir {
	if cap <= 0 {
		cap = DefaultRetention
	}
	return &Reservoir{cap: cap, stream: stream}
}

// Offer considers one value for retention.
func (r *Reservoir) Offer(v float64) {
	r.seen++
	if len(r.values) < r.cap {
		r.values = append(r.values, v)
		return
	}
	r.downsampled = true
	// Replace a random slot with probability cap/seen.
	j, err := r.stream.Intn(int(r.seen))
	if err != nil {
		return // unreachable: seen is always positive here
	}
	if j < r.cap {
		r.values[j] = v
	}
}

// Absorb merges another reservoir into this one. When the union exceeds the
// cap the combined values are shuffled and truncated, keeping the retained
// set a uniform sample of both streams.
func (r *Reservoir) Absorb(o *Reservoir) {
	if o == nil || len(o.values) == 0 {
		r.seen += o.totalSeen()
		return
	}
	r.seen += o.seen
	r.downsampled = r.downsampled || o.downsampled
	r.values = append(r.values, o.values...)
	if len(r.values) <= r.cap {
		return
	}
	r.downsampled = true
	r.stream.Shuffle(len(r.values), func(i, j int) {
		r.values[i], r.values[j] = r.values[j], r.values[i]
	})
	r.values = r.values[:r.cap]
}

func (r *Reservoir) totalSeen() int64 {
	if r == nil {
		return 0
	}
	return r.seen
}

// Cap returns the retention cap.
func (r *Reservoir) Cap() int { return r.cap }

// Downsampled reports whether any value was ever evicted, i.e. whether
// percentiles are approximate.
func (r *Reservoir) Downsampled() bool { return r.downsampled }

// Percentiles computes nearest-rank percentiles for the given ranks
// (0-100). The returned values are monotonically non-decreasing when ranks
// are ascending, by construction from the sorted retained set.
func (r *Reservoir) Percentiles(ranks []float64) []Percentile {
	if len(r.values) == 0 || len(ranks) == 0 {
		return nil
	}
	sorted := append([]float64(nil), r.values...)
	sort.Float64s(sorted)

	out := make([]Percentile, 0, len(ranks))
	for _, rank := range ranks {
		idx := int(float64(len(sorted))*rank/100+0.5) - 1
		if idx < 0 {
			idx = 0
		}
		if idx >= len(sorted) {
			idx = len(sorted) - 1
		}
		out = append(out, Percentile{Rank: rank, Value: sorted[idx]})
	}
	return out
}
