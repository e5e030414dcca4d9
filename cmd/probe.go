package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tiersim/blocksim/internal/realdevice"
)

var (
	probeBlockSizeMB int
	probeIterations  int
)

// probeCmd is a debug aid, not part of the simulator's public surface:
// it is hidden from `--help` and never invoked by `sim`.
var probeCmd = &cobra.Command{
	Use:    "probe <path>",
	Short:  "Issue best-effort timed reads/writes against a backing file",
	Hidden: true,
	Args:   cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		results, err := realdevice.Probe(args[0], probeBlockSizeMB, probeIterations)
		if err != nil {
			return err
		}
		for _, r := range results {
			fmt.Printf("%s: %s\n", r.Op, r.Duration)
		}
		return nil
	},
}

func init() {
	probeCmd.Flags().IntVar(&probeBlockSizeMB, "blocksize-mb", 4, "Block size in MiB")
	probeCmd.Flags().IntVar(&probeIterations, "iterations", 5, "Number of read/write round trips")
	rootCmd.AddCommand(probeCmd)
}
