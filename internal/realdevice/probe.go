// Package realdevice is a small auxiliary utility for sanity-checking
// a device table's sampled latencies against a live device. It has no
// bearing on the simulator core: nothing in internal/engine imports
// it, and it is reachable only through the hidden `probe` debug
// subcommand.
package realdevice

import (
	"fmt"
	"os"
	"time"
)

// Result is one measured read or write against the backing file.
type Result struct {
	Op       string
	Duration time.Duration
}

// Probe issues best-effort timed reads and writes of blockSizeMB
// against path, creating it if necessary and truncating it to hold at
// least one block. It makes no attempt at O_DIRECT or cache bypass:
// the numbers it reports are a rough sanity check, not a
// characterization run.
func Probe(path string, blockSizeMB int, iterations int) ([]Result, error) {
	size := int64(blockSizeMB) * 1024 * 1024

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("realdevice: opening %s: %w", path, err)
	}
	defer f.Close()

	if err := f.Truncate(size); err != nil {
		return nil, fmt.Errorf("realdevice: truncating %s: %w", path, err)
	}

	buf := make([]byte, size)
	results := make([]Result, 0, iterations*2)

	for i := 0; i < iterations; i++ {
		start := time.Now()
		if _, err := f.WriteAt(buf, 0); err != nil {
			return nil, fmt.Errorf("realdevice: write: %w", err)
		}
		if err := f.Sync(); err != nil {
			return nil, fmt.Errorf("realdevice: sync: %w", err)
		}
		results = append(results, Result{Op: "write", Duration: time.Since(start)})

		start = time.Now()
		if _, err := f.ReadAt(buf, 0); err != nil {
			return nil, fmt.Errorf("realdevice: read: %w", err)
		}
		results = append(results, Result{Op: "read", Duration: time.Since(start)})
	}

	return results, nil
}
