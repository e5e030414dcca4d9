package workload

import "github.com/tiersim/blocksim/internal/model"

// batchStats accumulates the raw per-access latencies of one batch;
// the result writer derives app.csv's totals, averages, max, and
// percentiles from these.
type batchStats struct {
	Now, Interval  int64
	ReadLatencyNs  []int64
	WriteLatencyNs []int64
}

func (s *batchStats) record(kind model.AccessKind, latencyNs int64) {
	if kind == model.Write {
		s.WriteLatencyNs = append(s.WriteLatencyNs, latencyNs)
		return
	}
	s.ReadLatencyNs = append(s.ReadLatencyNs, latencyNs)
}

// BatchResult is the public, immutable view of a completed batch sent
// to the result sink.
type BatchResult struct {
	Now, Interval  int64
	ReadLatencyNs  []int64
	WriteLatencyNs []int64
}

// Results is the sink batch completion records are reported to. A nil
// value is valid: records are simply dropped.
type Results chan<- BatchResult

func report(results Results, s batchStats) {
	if results == nil {
		return
	}
	results <- BatchResult{
		Now:            s.Now,
		Interval:       s.Interval,
		ReadLatencyNs:  s.ReadLatencyNs,
		WriteLatencyNs: s.WriteLatencyNs,
	}
}
