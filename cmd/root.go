// Package cmd implements ferrugo's command-line surface with cobra.
// Subcommands share one root command carrying the global --config
// flag.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/loojk2008/ferrugo/config"
)

var configFile string

// Root is the top-level ferrugo command.
var Root = &cobra.Command{
	Use:   "ferrugo",
	Short: "A method-level JIT compiler and mark-and-sweep garbage collector core",
}

func init() {
	Root.PersistentFlags().StringVar(&configFile, "config", "", "path to a config file (overridden by FERRUGO_* env vars)")
	Root.AddCommand(demoCmd, nativesCmd)
}

// Execute runs the CLI, exiting the process on error.
func Execute() {
	if err := Root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (config.Config, error) {
	return config.Load(configFile)
}

func newLogger() *zap.Logger {
	logger, err := zap.NewProduction()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
