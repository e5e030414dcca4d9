package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/tiersim/blocksim/internal/device"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List built-in device models and additional device tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("built-in:")
		names := device.BuiltinNames()
		sort.Strings(names)
		for _, n := range names {
			fmt.Printf("  %s\n", n)
		}

		tables, err := device.LoadDir(addDevicePath)
		if err != nil {
			return fmt.Errorf("devices: loading %s: %w", addDevicePath, err)
		}
		if len(tables) == 0 {
			return nil
		}

		loaded := make([]string, 0, len(tables))
		for name := range tables {
			loaded = append(loaded, name)
		}
		sort.Strings(loaded)

		fmt.Printf("loaded from %s:\n", addDevicePath)
		for _, n := range loaded {
			fmt.Printf("  %s\n", n)
		}
		return nil
	},
}
