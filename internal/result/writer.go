package result

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tiersim/blocksim/internal/placement"
	"github.com/tiersim/blocksim/internal/workload"
)

// DeviceRecord is one row of devices.csv.
type DeviceRecord struct {
	ID             int
	TotalRequests  int64
	AvgLatencyNs   int64
	MaxLatencyNs   int64
	IdlePercentage float64
}

// channelBuffer is sized well past any realistic single-run message
// count: generous but finite, so a stalled writer surfaces as
// backpressure rather than unbounded memory growth.
const channelBuffer = 1 << 16

// Writer owns the four result CSV files and the single goroutine that
// drains every producer's channel into them.
type Writer struct {
	dir string

	AppBatch  chan workload.BatchResult
	Migration chan placement.MigrationRecord
	Device    chan DeviceRecord
	Simulator chan SimulatorRecord

	stop chan struct{}
	done chan struct{}

	appFile, devFile, simFile, polFile *os.File
	appW, devW, simW, polW             *csv.Writer
}

// SimulatorRecord is simulator.csv's single row: total run time.
type SimulatorRecord struct {
	RuntimeSeconds float64
}

// NewWriter resolves a collision-free output directory under base,
// opens the four CSV files with their headers, and starts the drain
// goroutine.
func NewWriter(base string) (*Writer, error) {
	dir, err := ResolveDir(base)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	w := &Writer{
		dir:       dir,
		AppBatch:  make(chan workload.BatchResult, channelBuffer),
		Migration: make(chan placement.MigrationRecord, channelBuffer),
		Device:    make(chan DeviceRecord, channelBuffer),
		Simulator: make(chan SimulatorRecord, channelBuffer),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}

	if err := w.openFiles(); err != nil {
		return nil, err
	}

	go w.run()
	return w, nil
}

func (w *Writer) openFiles() error {
	open := func(name string, header []string) (*os.File, *csv.Writer, error) {
		f, err := os.Create(filepath.Join(w.dir, name))
		if err != nil {
			return nil, nil, err
		}
		cw := csv.NewWriter(f)
		if err := cw.Write(header); err != nil {
			f.Close()
			return nil, nil, err
		}
		return f, cw, nil
	}

	var err error
	if w.appFile, w.appW, err = open("app.csv", []string{
		"now", "interval",
		"read_count", "read_total_us", "read_avg_us", "read_max_us", "read_p50_us", "read_p90_us", "read_p95_us", "read_p99_us",
		"write_count", "write_total_us", "write_avg_us", "write_max_us", "write_p50_us", "write_p90_us", "write_p95_us", "write_p99_us",
	}); err != nil {
		return err
	}
	if w.devFile, w.devW, err = open("devices.csv", []string{
		"id", "total_requests", "avg_latency_ns", "max_latency_ns", "idle_percentage",
	}); err != nil {
		return err
	}
	if w.simFile, w.simW, err = open("simulator.csv", []string{"runtime"}); err != nil {
		return err
	}
	if w.polFile, w.polW, err = open("policy.csv", []string{"now", "from", "to", "size"}); err != nil {
		return err
	}
	return nil
}

func (w *Writer) run() {
	defer close(w.done)
	for {
		select {
		case rec := <-w.AppBatch:
			w.writeAppBatch(rec)
		case rec := <-w.Migration:
			w.writeMigration(rec)
		case rec := <-w.Device:
			w.writeDevice(rec)
		case rec := <-w.Simulator:
			w.writeSimulator(rec)
		case <-w.stop:
			w.drainRemaining()
			w.flushAndClose()
			return
		}
	}
}

// drainRemaining flushes anything already buffered in the channels at
// the moment Close was called, so work enqueued before shutdown is
// never dropped.
func (w *Writer) drainRemaining() {
	for {
		select {
		case rec := <-w.AppBatch:
			w.writeAppBatch(rec)
		case rec := <-w.Migration:
			w.writeMigration(rec)
		case rec := <-w.Device:
			w.writeDevice(rec)
		case rec := <-w.Simulator:
			w.writeSimulator(rec)
		default:
			return
		}
	}
}

func (w *Writer) writeAppBatch(rec workload.BatchResult) {
	r := summarize(rec.ReadLatencyNs)
	wr := summarize(rec.WriteLatencyNs)
	_ = w.appW.Write([]string{
		fmt.Sprint(rec.Now), fmt.Sprint(rec.Interval),
		fmt.Sprint(r.Count), fmtF(r.TotalUs), fmtF(r.AvgUs), fmtF(r.MaxUs), fmtF(r.P50), fmtF(r.P90), fmtF(r.P95), fmtF(r.P99),
		fmt.Sprint(wr.Count), fmtF(wr.TotalUs), fmtF(wr.AvgUs), fmtF(wr.MaxUs), fmtF(wr.P50), fmtF(wr.P90), fmtF(wr.P95), fmtF(wr.P99),
	})
}

func (w *Writer) writeMigration(rec placement.MigrationRecord) {
	_ = w.polW.Write([]string{fmt.Sprint(rec.Now), fmt.Sprint(rec.From), fmt.Sprint(rec.To), fmt.Sprint(rec.Size)})
}

func (w *Writer) writeDevice(rec DeviceRecord) {
	_ = w.devW.Write([]string{
		fmt.Sprint(rec.ID), fmt.Sprint(rec.TotalRequests), fmt.Sprint(rec.AvgLatencyNs), fmt.Sprint(rec.MaxLatencyNs), fmtF(rec.IdlePercentage),
	})
}

func (w *Writer) writeSimulator(rec SimulatorRecord) {
	_ = w.simW.Write([]string{fmt.Sprintf("%.6fs", rec.RuntimeSeconds)})
}

func fmtF(v float64) string { return fmt.Sprintf("%.3f", v) }

func (w *Writer) flushAndClose() {
	for _, cw := range []*csv.Writer{w.appW, w.devW, w.simW, w.polW} {
		cw.Flush()
	}
	for _, f := range []*os.File{w.appFile, w.devFile, w.simFile, w.polFile} {
		f.Close()
	}
}

// Close signals the writer goroutine to drain, flush, and close its
// files, then blocks until it has done so.
func (w *Writer) Close() {
	close(w.stop)
	<-w.done
}

// Dir returns the resolved output directory this writer is using.
func (w *Writer) Dir() string { return w.dir }
