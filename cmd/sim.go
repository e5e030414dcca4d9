package cmd

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tiersim/blocksim/internal/cache"
	"github.com/tiersim/blocksim/internal/device"
	"github.com/tiersim/blocksim/internal/engine"
	"github.com/tiersim/blocksim/internal/model"
	"github.com/tiersim/blocksim/internal/placement"
	"github.com/tiersim/blocksim/internal/result"
	"github.com/tiersim/blocksim/internal/simconfig"
	"github.com/tiersim/blocksim/internal/simrng"
	"github.com/tiersim/blocksim/internal/storage"
	"github.com/tiersim/blocksim/internal/workload"
)

var simCmd = &cobra.Command{
	Use:   "sim <config-path>",
	Short: "Run a simulation from a TOML configuration file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		setLogLevel()

		cfg, err := simconfig.Load(args[0])
		if err != nil {
			return err
		}

		// Each subsystem gets its own deterministically-derived RNG so
		// that e.g. changing the placement policy's sampling cadence
		// cannot perturb workload block-id generation and silently
		// change an otherwise-identical run's access pattern.
		partitioned := simrng.New(cfg.Seed)
		workloadRNG := partitioned.ForSubsystem(simrng.SubsystemWorkload)
		deviceRNG := partitioned.ForSubsystem(simrng.SubsystemDevice)
		placementRNG := partitioned.ForSubsystem(simrng.SubsystemPlacement)

		stack, err := buildStack(cfg, deviceRNG)
		if err != nil {
			return err
		}

		// A config with no [cache] section still runs, bypassing the
		// cache entirely: default to a zero-capacity Noop cache rather
		// than leaving cacheMgr nil, since BatchApplication always
		// emits Cache(Get/Put) events and never talks to storage
		// directly.
		cacheMgr, err := buildCache(cfg)
		if err != nil {
			return err
		}

		policy := buildPolicy(cfg, placementRNG)

		pattern, err := workload.NewPattern(cfg.App.Pattern, cfg.App.Size, workloadRNG)
		if err != nil {
			return err
		}
		app := workload.NewBatchApplication(cfg.App.Size, cfg.App.RW, cfg.App.Iteration, cfg.App.Batch, cfg.App.Interval, pattern, workloadRNG)

		writer, err := result.NewWriter(cfg.Results.Path)
		if err != nil {
			return fmt.Errorf("sim: opening result writer: %w", err)
		}

		logrus.Infof("starting simulation: %d blocks, %d devices, seed=%d", cfg.App.Size, len(cfg.Devices), cfg.Seed)
		sim := engine.New(stack, cacheMgr, policy, app, writer, placementRNG)
		if err := sim.Run(); err != nil {
			return err
		}
		logrus.Infof("simulation complete, results written to %s", writer.Dir())

		return nil
	},
}

func buildStack(cfg *simconfig.Config, rng *rand.Rand) (*storage.Stack, error) {
	custom, err := device.LoadDir(addDevicePath)
	if err != nil {
		return nil, fmt.Errorf("sim: loading device tables from %s: %w", addDevicePath, err)
	}
	builtins := device.Builtins()

	stack := storage.NewStack(cfg.App.RW, rng)

	// Disk ids come from the device map, but Go map iteration order is
	// unspecified; sort the names so the same config always yields the
	// same id assignment run to run.
	names := make([]string, 0, len(cfg.Devices))
	for name := range cfg.Devices {
		names = append(names, name)
	}
	sort.Strings(names)

	id := model.DiskId(1)
	for _, name := range names {
		devCfg := cfg.Devices[name]
		kind, err := resolveDeviceKind(devCfg.Kind, builtins, custom)
		if err != nil {
			return nil, err
		}
		maxQueueLen := devCfg.MaxQueueLen
		if maxQueueLen <= 0 {
			maxQueueLen = devCfg.Capacity
		}
		if sampled, ok := kind.(*device.SampledModel); ok {
			if err := sampled.Validate(cfg.App.RW, maxQueueLen); err != nil {
				return nil, err
			}
		}
		stack.AddDevice(id, name, kind, devCfg.Capacity, maxQueueLen)
		id++
	}
	return stack, nil
}

func resolveDeviceKind(kind string, builtins map[string]*device.FixedThroughputModel, custom map[string]*device.SampledModel) (device.LatencyModel, error) {
	// Builtin names (device.DRAM etc.) are lowercase-hyphenated, but
	// configs may spell them as marketing labels ("DRAM",
	// "Optane-PMem"), so match case-insensitively.
	if m, ok := builtins[strings.ToLower(kind)]; ok {
		return m, nil
	}
	if m, ok := custom[kind]; ok {
		return m, nil
	}
	return nil, fmt.Errorf("sim: unknown device kind %q (not a builtin and no matching CSV table)", kind)
}

// buildCache builds the cache manager from cfg.Cache, defaulting to a
// zero-capacity Noop cache when the config omits the [cache] section
// entirely.
func buildCache(cfg *simconfig.Config) (*cache.Cache, error) {
	if cfg.Cache == nil {
		return cache.New(cache.NewNoop(), 0), nil
	}

	var algo cache.Algorithm
	capacity := cfg.Cache.Capacity
	switch cfg.Cache.Algorithm {
	case "Lru":
		algo = cache.NewLRU(capacity)
	case "Fifo":
		algo = cache.NewFIFO(capacity)
	case "Noop":
		algo = cache.NewNoop()
		capacity = 0 // bypass mode is always capacity zero, regardless of config
	default:
		return nil, fmt.Errorf("sim: unknown cache algorithm %q", cfg.Cache.Algorithm)
	}
	return cache.New(algo, capacity), nil
}

func buildPolicy(cfg *simconfig.Config, rng *rand.Rand) placement.Policy {
	switch cfg.Placement.Kind {
	case "Frequency":
		return placement.NewFrequencyPolicy(cfg.Placement.Interval, cfg.Placement.Reactiveness, cfg.Placement.Decay, rng)
	default:
		return placement.NoopPolicy{}
	}
}
