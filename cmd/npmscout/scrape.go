// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/npmscout/internal/extract"
	"github.com/pdiddy/npmscout/internal/fetch"
	"github.com/pdiddy/npmscout/internal/scrape"
	"github.com/pdiddy/npmscout/internal/sink"
	"github.com/pdiddy/npmscout/pkg/types"
)

const (
	defaultMaxPages  = 10
	defaultSortKey   = "relevance"
	defaultWorkers   = 10
	defaultTimeout   = 10 * time.Second
	defaultRetries   = 3
	defaultBackoff   = 2 * time.Second
	defaultPageDelay = 1 * time.Second
	defaultTaskDelay = 500 * time.Millisecond
	defaultTop       = 10
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape <query>",
	Short: "Search npm and enrich the results with package detail",
	Long: `Scrape walks the npm search pages for a query, builds an enrichment task
per discovered package, fetches each package page concurrently for size and
file-count detail, and writes the sorted result set to an artifact named
<out>-<timestamp>.<format>.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runScrape,
}

func init() {
	scrapeCmd.Flags().Int("max-pages", defaultMaxPages, "maximum search pages to walk")
	scrapeCmd.Flags().String("sort", defaultSortKey,
		"sort key: "+strings.Join(scrape.SortKeys, ", "))
	scrapeCmd.Flags().Int("workers", defaultWorkers, "enrichment worker count")
	scrapeCmd.Flags().Duration("timeout", defaultTimeout, "per-request HTTP timeout")
	scrapeCmd.Flags().Int("retries", defaultRetries, "attempts per request")
	scrapeCmd.Flags().Duration("backoff", defaultBackoff, "base backoff after a rate-limit response")
	scrapeCmd.Flags().Duration("page-delay", defaultPageDelay, "pacing delay between search pages")
	scrapeCmd.Flags().Duration("task-delay", defaultTaskDelay, "pacing delay between a worker's tasks")
	scrapeCmd.Flags().String("out", "", "artifact base name (default npm-<query>-<sort>)")
	scrapeCmd.Flags().String("format", "json", "artifact format: json or yaml")
	scrapeCmd.Flags().String("catalog", "", "SQLite catalog path (catalog disabled when empty)")
	scrapeCmd.Flags().Int("top", defaultTop, "number of packages to show in the summary table")

	rootCmd.AddCommand(scrapeCmd)
}

func runScrape(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")

	cfg := types.ScrapeConfig{
		Fetch: types.FetchConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   durationSetting(cmd, "timeout", "fetch.timeout", defaultTimeout),
				UserAgent: viper.GetString("fetch.user_agent"),
			},
			MaxAttempts:      intSetting(cmd, "retries", "fetch.max_attempts", defaultRetries),
			RateLimitBackoff: durationSetting(cmd, "backoff", "fetch.rate_limit_backoff", defaultBackoff),
			// Config-file only; fetch.NewClient applies the default.
			TransportBackoff: viper.GetDuration("fetch.transport_backoff"),
		},
		Query:     query,
		MaxPages:  intSetting(cmd, "max-pages", "scrape.max_pages", defaultMaxPages),
		SortKey:   stringSetting(cmd, "sort", "scrape.sort_key", defaultSortKey),
		Workers:   intSetting(cmd, "workers", "scrape.workers", defaultWorkers),
		PageDelay: durationSetting(cmd, "page-delay", "scrape.page_delay", defaultPageDelay),
		TaskDelay: durationSetting(cmd, "task-delay", "scrape.task_delay", defaultTaskDelay),
	}

	outName := stringSetting(cmd, "out", "sink.out_name", "")
	if outName == "" {
		outName = fmt.Sprintf("npm-%s-%s", strings.ReplaceAll(query, " ", "-"), cfg.SortKey)
	}
	sinkCfg := types.SinkConfig{
		OutName:     outName,
		Format:      stringSetting(cmd, "format", "sink.format", "json"),
		CatalogPath: stringSetting(cmd, "catalog", "sink.catalog_path", ""),
	}

	// Fail on a bad format before any network traffic.
	fileSink, err := sink.NewFileSink(sinkCfg)
	if err != nil {
		return err
	}

	client := fetch.NewClient(cfg.Fetch)
	scraper := scrape.New(cfg, client, extract.StateExtractor{})

	summary, err := scraper.Run(cmd.Context(), os.Stdout)
	if err != nil {
		return err
	}

	path, err := fileSink.Persist(summary.Packages)
	if err != nil {
		return err
	}
	fmt.Printf("results saved to %s\n", path)

	if sinkCfg.CatalogPath != "" {
		catalog, err := sink.OpenCatalog(sinkCfg.CatalogPath)
		if err != nil {
			return err
		}
		defer catalog.Close()
		if err := catalog.Upsert(cmd.Context(), summary.Packages); err != nil {
			return fmt.Errorf("updating catalog: %w", err)
		}
		fmt.Printf("catalog updated: %s (%d packages)\n", sinkCfg.CatalogPath, len(summary.Packages))
	}

	top, _ := cmd.Flags().GetInt("top")
	if top > 0 {
		fmt.Printf("\nTop %d packages by %s:\n", top, cfg.SortKey)
		scrape.FormatTable(os.Stdout, summary.Packages, top)
	}
	return nil
}

// Settings resolve as flag > config file > default. An explicitly set
// flag wins even when it equals the default, so --max-pages 0 sticks.

func intSetting(cmd *cobra.Command, flag, key string, def int) int {
	if cmd.Flags().Changed(flag) {
		v, _ := cmd.Flags().GetInt(flag)
		return v
	}
	if viper.IsSet(key) {
		return viper.GetInt(key)
	}
	return def
}

func stringSetting(cmd *cobra.Command, flag, key string, def string) string {
	if cmd.Flags().Changed(flag) {
		v, _ := cmd.Flags().GetString(flag)
		return v
	}
	if viper.IsSet(key) {
		return viper.GetString(key)
	}
	return def
}

func durationSetting(cmd *cobra.Command, flag, key string, def time.Duration) time.Duration {
	if cmd.Flags().Changed(flag) {
		v, _ := cmd.Flags().GetDuration(flag)
		return v
	}
	if viper.IsSet(key) {
		return viper.GetDuration(key)
	}
	return def
}
