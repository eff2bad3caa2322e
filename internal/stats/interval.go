package stats

import "math"

// z95 is the two-sided normal critical value for 95% confidence.
const z95 = 1.959963984540054

// Interval is a binomial proportion confidence interval.
type Interval struct {
	Lower      float64 `json:"lower"`
	Upper      float64 `json:"upper"`
	Confidence float64 `json:"confidence"`
}

// Rate summarizes a success/total counter with its confidence interval. The
// sample size ships alongside the rate so consumers can judge precision.
type Rate struct {
	Successes int64    `json:"successes"`
	Trials    int64    `json:"trials"`
	Rate      float64  `json:"rate"`
	Interval  Interval `json:"interval"`
}

// NewRate builds a Rate with a 95% Wilson score interval.
//
// Wilson is preferred over the normal approximation because it behaves at
// the boundaries: rates of exactly 0 or 1 still get a sensible non-empty
// interval, and small trial counts do not produce bounds outside [0, 1].
func NewRate(successes, trials int64) Rate {
	r := Rate{Successes: successes, Trials: trials}
	if trials == 0 {
		return r
	}
	p := float64(successes) / float64(trials)
	r.Rate = p
	r.Interval = wilson(p, float64(trials))
	return r
}

func wilson(p, n float64) Interval {
	z := z95
	z2 := z * z
	denom := 1 + z2/n
	center := (p + z2/(2*n)) / denom
	spread := z * math.Sqrt(p*(1-p)/n+z2/(4*n*n)) / denom

	lower := center - spread
	upper := center + spread
	if lower < 0 {
		lower = 0
	}
	if upper > 1 {
		upper = 1
	}
	return Interval{Lower: lower, Upper: upper, Confidence: 0.95}
}
