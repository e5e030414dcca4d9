package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var applicationsCmd = &cobra.Command{
	Use:   "applications",
	Short: "List available workload application kinds",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("Batch: fixed-size pool of blocks, accessed in waves of concurrent reads/writes")
		return nil
	},
}
