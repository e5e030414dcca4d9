// cmd/root.go
package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	addDevicePath string
	logLevel      string
)

var rootCmd = &cobra.Command{
	Use:   "blocksim",
	Short: "Discrete-event simulator for multi-tier block storage",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&addDevicePath, "add-device-path", "./additional_devices", "Directory of additional device CSV tables")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "info", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(devicesCmd)
	rootCmd.AddCommand(applicationsCmd)
	rootCmd.AddCommand(simCmd)
}

func setLogLevel() {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("invalid log level: %s", logLevel)
	}
	logrus.SetLevel(level)
}
