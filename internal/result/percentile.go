package result

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// latencyStats summarizes a slice of nanosecond latencies in
// microseconds, the unit app.csv reports in.
type latencyStats struct {
	Count              int
	TotalUs, AvgUs     float64
	MaxUs              float64
	P50, P90, P95, P99 float64
}

func summarize(latenciesNs []int64) latencyStats {
	if len(latenciesNs) == 0 {
		return latencyStats{}
	}
	us := make([]float64, len(latenciesNs))
	var total, max float64
	for i, ns := range latenciesNs {
		v := float64(ns) / 1000
		us[i] = v
		total += v
		if v > max {
			max = v
		}
	}
	sort.Float64s(us)

	return latencyStats{
		Count:   len(us),
		TotalUs: total,
		AvgUs:   total / float64(len(us)),
		MaxUs:   max,
		P50:     stat.Quantile(0.50, stat.Empirical, us, nil),
		P90:     stat.Quantile(0.90, stat.Empirical, us, nil),
		P95:     stat.Quantile(0.95, stat.Empirical, us, nil),
		P99:     stat.Quantile(0.99, stat.Empirical, us, nil),
	}
}
