package placement

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tiersim/blocksim/internal/device"
	"github.com/tiersim/blocksim/internal/model"
	"github.com/tiersim/blocksim/internal/storage"
)

// constantModel always returns the same latency regardless of op,
// letting tests pin down exact cost comparisons.
type constantModel struct {
	d time.Duration
}

func (constantModel) Name() string { return "constant" }
func (m constantModel) Sample(device.Params, *rand.Rand) time.Duration { return m.d }

func newTestStackTwoDisks(t *testing.T, slowCapacity, fastFree int) *storage.Stack {
	t.Helper()
	s := storage.NewStack(0.3, rand.New(rand.NewSource(1)))
	s.AddDevice(1, "slow", constantModel{d: 1000 * time.Nanosecond}, slowCapacity, 4)
	s.AddDevice(2, "fast", constantModel{d: 10 * time.Nanosecond}, fastFree+1, 4)
	require.True(t, s.Insert(1, 1))
	require.True(t, s.Insert(2, 2))
	s.Devices[2].Free = fastFree
	return s
}

func TestFrequencyPolicy_Init_SchedulesFirstMigrateTick(t *testing.T) {
	p := NewFrequencyPolicy(100, 2, 0.1, rand.New(rand.NewSource(1)))
	events := p.Init(nil, 50)
	require.Len(t, events, 1)
	assert.Equal(t, int64(150), events[0].Time)
	assert.Equal(t, model.PlacementMigrate, events[0].Placement.Kind)
}

func TestFrequencyPolicy_Update_IncrementsFrequency(t *testing.T) {
	p := NewFrequencyPolicy(100, 2, 0.1, rand.New(rand.NewSource(1)))
	s := newTestStackTwoDisks(t, 4, 1)

	events := p.Update(model.FetchedMsg(1), s, 0, nil)
	assert.Empty(t, events)

	_, freq, ok := p.queueFor(1).peekMax()
	require.True(t, ok)
	assert.Equal(t, float64(1), freq)
}

func TestFrequencyPolicy_MigratePromotesHotBlockToIdleDisk(t *testing.T) {
	p := NewFrequencyPolicy(100, 2, 0, rand.New(rand.NewSource(1)))
	s := newTestStackTwoDisks(t, 4, 1)

	// disk 1 ("slow") is busier: give it less accumulated idle time
	// than disk 2, and make block 1 hot enough to justify a move.
	s.Devices[1].IdleTime = 0
	s.Devices[2].IdleTime = 1000
	p.queueFor(1).increment(1, 100)

	var results = make(chan MigrationRecord, 10)
	events := p.migrate(s, 500, results)
	close(results)

	require.NotEmpty(t, events, "a sufficiently hot block should be promoted")
	found := false
	for _, e := range events {
		if e.Kind == model.EventStorage && e.Storage.Kind == model.StorageProcess && e.Storage.Step.Kind == model.MoveInit {
			assert.Equal(t, model.Block(1), e.Storage.Step.Block)
			assert.Equal(t, model.DiskId(2), e.Storage.Step.Disk)
			found = true
		}
	}
	assert.True(t, found)

	var records []MigrationRecord
	for rec := range results {
		records = append(records, rec)
	}
	assert.NotEmpty(t, records)
}

func TestFrequencyPolicy_SkipsOnHoldBlock(t *testing.T) {
	p := NewFrequencyPolicy(100, 2, 0, rand.New(rand.NewSource(1)))
	s := newTestStackTwoDisks(t, 4, 1)
	s.Devices[1].IdleTime = 0
	s.Devices[2].IdleTime = 1000
	p.queueFor(1).increment(1, 100)
	s.BlocksOnHold[1] = 1000

	events := p.migrate(s, 500, nil)
	assert.Empty(t, events, "a block already under migration must not receive a second MoveInit")
}

func TestFrequencyPolicy_DecayShrinksPriorities(t *testing.T) {
	p := NewFrequencyPolicy(100, 2, 0.5, rand.New(rand.NewSource(1)))
	s := storage.NewStack(0.3, rand.New(rand.NewSource(1)))
	// equal latency on both disks means neither promotion nor swap is
	// ever profitable, isolating decay's own effect.
	s.AddDevice(1, "a", constantModel{d: 100 * time.Nanosecond}, 4, 4)
	s.AddDevice(2, "b", constantModel{d: 100 * time.Nanosecond}, 4, 4)
	require.True(t, s.Insert(1, 1))
	require.True(t, s.Insert(2, 2))
	p.queueFor(1).increment(1, 10)

	p.migrate(s, 500, nil)

	_, freq, ok := p.queueFor(1).peekMax()
	require.True(t, ok)
	assert.Equal(t, float64(5), freq)
}

func TestNoopPolicy_NeverMigrates(t *testing.T) {
	var p NoopPolicy
	assert.Empty(t, p.Init(nil, 0))
	assert.Empty(t, p.Update(model.FetchedMsg(1), nil, 0, nil))
}
