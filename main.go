package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"agentharvest/config"
	"agentharvest/utils"
)

var (
	cfg    *config.Config
	logger *utils.Logger
)

var rootCmd = &cobra.Command{
	Use:   "agentharvest",
	Short: "agentharvest collects real estate agent profiles from the Zillow agent directory.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg = config.Load()
		logger = utils.NewLogger(cfg.LogLevel)
		if !cfg.EnvFileLoaded {
			logger.Debug("[config] no .env file found, using system env vars")
		}
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
}

func main() {
	rootCmd.AddCommand(searchCmd, historyCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
