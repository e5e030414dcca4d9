package simconfig

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validConfig = `
seed = 1

[results]
path = "results"

[app]
kind = "Batch"
size = 100
rw = 0.3
iteration = 10
batch = 4
interval = 1000
pattern = "zipf"

[devices.dram]
kind = "DRAM"
capacity = 1000
max_queue_len = 16

[cache]
algorithm = "Lru"
device = "dram"
capacity = 100

[placement]
kind = "Frequency"
interval = 5000
reactiveness = 2
decay = 0.1
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, validConfig))
	require.NoError(t, err)
	assert.Equal(t, "results", cfg.Results.Path)
	assert.Equal(t, "Batch", cfg.App.Kind)
	assert.Equal(t, 100, cfg.App.Size)
	assert.Equal(t, "zipf", cfg.App.Pattern)
	require.Contains(t, cfg.Devices, "dram")
	assert.Equal(t, 1000, cfg.Devices["dram"].Capacity)
	require.NotNil(t, cfg.Cache)
	assert.Equal(t, "Lru", cfg.Cache.Algorithm)
	assert.Equal(t, "Frequency", cfg.Placement.Kind)
}

func TestLoad_InvalidPattern(t *testing.T) {
	bad := strings.Replace(validConfig, `pattern = "zipf"`, `pattern = "bogus"`, 1)
	_, err := Load(writeConfig(t, bad))
	assert.Error(t, err)
}

func TestLoad_MissingDevices(t *testing.T) {
	path := writeConfig(t, `
[results]
path = "results"

[app]
kind = "Batch"
size = 1
rw = 0
iteration = 1
batch = 1
interval = 0
pattern = "sequential"
`)
	_, err := Load(path)
	assert.ErrorContains(t, err, "device")
}
