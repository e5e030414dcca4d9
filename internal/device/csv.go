package device

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/tiersim/blocksim/internal/model"
)

// csvColumns lists the expected header order for a device table.
var csvColumns = []string{"blocksize", "op", "rw", "gap", "queue_depth", "a", "b", "c"}

// LoadTable parses one device's latency table from a CSV file. The
// file stem (basename without extension) becomes the device name.
func LoadTable(path string) (*SampledModel, error) {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open device table %q: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read device table %q header: %w", path, err)
	}
	if err := checkHeader(header); err != nil {
		return nil, fmt.Errorf("device table %q: %w", path, err)
	}

	rows := make(map[tableKey]tableEntry)
	rowNum := 0
	for {
		rowNum++
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("device table %q: row %d: %w", path, rowNum, err)
		}
		if len(rec) < len(csvColumns) {
			return nil, fmt.Errorf("device table %q: row %d has %d columns, want %d", path, rowNum, len(rec), len(csvColumns))
		}

		blockSize, err := strconv.Atoi(rec[0])
		if err != nil {
			return nil, fmt.Errorf("device table %q: row %d: invalid blocksize: %w", path, rowNum, err)
		}
		op, err := parseOp(rec[1])
		if err != nil {
			return nil, fmt.Errorf("device table %q: row %d: %w", path, rowNum, err)
		}
		rw, err := strconv.ParseFloat(rec[2], 64)
		if err != nil {
			return nil, fmt.Errorf("device table %q: row %d: invalid rw: %w", path, rowNum, err)
		}
		gap, err := strconv.ParseFloat(rec[3], 64)
		if err != nil {
			return nil, fmt.Errorf("device table %q: row %d: invalid gap: %w", path, rowNum, err)
		}
		queueDepth, err := strconv.Atoi(rec[4])
		if err != nil {
			return nil, fmt.Errorf("device table %q: row %d: invalid queue_depth: %w", path, rowNum, err)
		}
		a, err := strconv.ParseFloat(rec[5], 64)
		if err != nil {
			return nil, fmt.Errorf("device table %q: row %d: invalid a: %w", path, rowNum, err)
		}
		b, err := strconv.ParseFloat(rec[6], 64)
		if err != nil {
			return nil, fmt.Errorf("device table %q: row %d: invalid b: %w", path, rowNum, err)
		}
		c, err := strconv.ParseFloat(rec[7], 64)
		if err != nil {
			return nil, fmt.Errorf("device table %q: row %d: invalid c: %w", path, rowNum, err)
		}

		key := tableKey{BlockSize: blockSize, Op: op, RW: rw, QueueDepth: queueDepth}
		rows[key] = tableEntry{Gap: gap, A: a, B: b, C: c}
	}

	warnSuspiciousFits(name, rows)

	return NewSampledModel(name, rows), nil
}

// warnSuspiciousFits logs (but does not fail on) rows whose fitted
// parameters fall outside ranges a well-behaved inverse-CDF latency
// fit should have. A bad fit is a data quality issue, not a
// configuration error, so it warns rather than aborts.
func warnSuspiciousFits(name string, rows map[tableKey]tableEntry) {
	for key, e := range rows {
		switch {
		case e.Gap <= 0:
			logrus.Warnf("device %q: row (blocksize=%d op=%s rw=%.2f qd=%d) has non-positive gap=%.4g",
				name, key.BlockSize, key.Op, key.RW, key.QueueDepth, e.Gap)
		case e.B == 0:
			logrus.Warnf("device %q: row (blocksize=%d op=%s rw=%.2f qd=%d) has b=0, latency formula is undefined",
				name, key.BlockSize, key.Op, key.RW, key.QueueDepth)
		}
	}
}

func checkHeader(header []string) error {
	if len(header) < len(csvColumns) {
		return fmt.Errorf("expected columns %v, got %v", csvColumns, header)
	}
	for i, col := range csvColumns {
		if !strings.EqualFold(strings.TrimSpace(header[i]), col) {
			return fmt.Errorf("expected column %d to be %q, got %q", i, col, header[i])
		}
	}
	return nil
}

func parseOp(s string) (model.AccessKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "read":
		return model.Read, nil
	case "write":
		return model.Write, nil
	default:
		return 0, fmt.Errorf("invalid op %q, want read or write", s)
	}
}

// LoadDir loads every *.csv file in dir as a device table, keyed by
// device name (file stem). A nonexistent directory is not an error:
// it simply yields no additional devices, since the default
// --add-device-path need not exist.
func LoadDir(dir string) (map[string]*SampledModel, error) {
	models := make(map[string]*SampledModel)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return models, nil
		}
		return nil, fmt.Errorf("read device directory %q: %w", dir, err)
	}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".csv" {
			continue
		}
		m, err := LoadTable(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		models[m.Name()] = m
	}
	return models, nil
}
