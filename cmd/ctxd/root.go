package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ctxmemd/ctxd/internal/clistyle"
	"github.com/ctxmemd/ctxd/internal/config"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "ctxd",
	Short: "Per-project context daemon for AI coding assistants",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.yaml (default: <data_dir>/config.yaml)")
}

// Execute runs the root command, printing a styled error and exiting
// non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, clistyle.Errorf("%s", err))
		os.Exit(1)
	}
}

func loadConfig() (config.Config, error) {
	return config.Load(configPath)
}
