// Package cmd wires the cobra CLI surface to the controller core: it loads
// a configuration file, sets the logrus log level, runs the controller, and
// maps any returned error to a process exit code of 1.
package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/vnetsim/vnetsim/config"
	"github.com/vnetsim/vnetsim/controller"
)

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "vnetsim",
	Short: "Discrete-event network simulator core",
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a simulation from a configuration file",
	Run: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		cfg, err := config.Load(configPath)
		if err != nil {
			logrus.Fatalf("failed to load config: %v", err)
		}
		if cfg.GetLogLevel() != "" {
			if cfgLevel, err := logrus.ParseLevel(cfg.GetLogLevel()); err == nil {
				logrus.SetLevel(cfgLevel)
			}
		}

		ctrl := controller.New(cfg)
		defer ctrl.Free()

		if err := ctrl.Run(); err != nil {
			logrus.Errorf("simulation failed: %v", err)
			os.Exit(1)
		}
	},
}

// Execute runs the CLI, exiting the process with status 1 on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	runCmd.Flags().StringVar(&configPath, "config", "", "Path to the simulation config file (required)")
	runCmd.Flags().StringVar(&logLevel, "log", "info", "Log level (trace, debug, info, warn, error)")
	_ = runCmd.MarkFlagRequired("config")

	rootCmd.AddCommand(runCmd)
}
