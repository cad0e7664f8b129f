package domain

import "math"

// CounterStats holds the sufficient statistics of a counter.
type CounterStats struct {
	Hits        int64   `json:"hits"`
	Concurrency int     `json:"concurrency"`
	Sum         float64 `json:"sum"`
	Mean        float64 `json:"mean"`
	Variance    float64 `json:"variance"`
	Min         float64 `json:"min"`
	Max         float64 `json:"max"`
	M2          float64 `json:"m2"`
}

// MergeCounterStats combines two counters with the parallel Welford formula.
// Variance is the bias-corrected sample variance (M2 / (n-1)).
func MergeCounterStats(a, b CounterStats) CounterStats {
	if a.Hits == 0 {
		b.Concurrency += a.Concurrency
		return b
	}
	if b.Hits == 0 {
		a.Concurrency += b.Concurrency
		return a
	}

	na, nb := float64(a.Hits), float64(b.Hits)
	n := na + nb
	delta := b.Mean - a.Mean

	out := CounterStats{
		Hits:        a.Hits + b.Hits,
		Concurrency: a.Concurrency + b.Concurrency,
		Sum:         a.Sum + b.Sum,
		Mean:        a.Mean + delta*nb/n,
		M2:          a.M2 + b.M2 + delta*delta*na*nb/n,
		Min:         math.Min(a.Min, b.Min),
		Max:         math.Max(a.Max, b.Max),
	}
	if out.Hits > 1 {
		out.Variance = out.M2 / (n - 1)
	}
	return out
}

// CounterAggregate is the merge of the latest counter event of every reporting node.
type CounterAggregate struct {
	Name    string   `json:"name"`
	Role    string   `json:"role"`
	Unit    string   `json:"unit"`
	Markers []string `json:"markers"`
	CounterStats
}
