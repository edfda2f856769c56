// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the npmscout CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/npmscout/internal/logging"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the npmscout CLI.
var rootCmd = &cobra.Command{
	Use:   "npmscout",
	Short: "Scrape npm package metadata from the npm website",
	Long: `npmscout discovers packages from the npm website's paginated search pages,
enriches each one with size and file-count detail from its package page, and
writes the sorted result set to a timestamped artifact. Scraping the website
instead of the registry API makes size-based sorting possible across all
packages.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level, _ := cmd.Flags().GetString("log-level")
		pretty, _ := cmd.Flags().GetBool("log-pretty")
		logging.Setup(logging.Config{Level: level, Pretty: pretty})
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./npmscout.yaml or ~/.config/npmscout/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().Bool("log-pretty", false, "human-readable log output instead of JSON")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("npmscout")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "npmscout"))
		}
	}

	viper.SetEnvPrefix("NPMSCOUT")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
