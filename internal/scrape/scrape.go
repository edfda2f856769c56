// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package scrape orchestrates a scrape run: paginated discovery of search
// partials, concurrent per-package enrichment over a fixed worker pool,
// and aggregation of the merged results into a sorted sequence.
package scrape

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pdiddy/npmscout/internal/extract"
	"github.com/pdiddy/npmscout/pkg/types"
)

// npmBaseURL is the scrape target. Declared as a var so tests can
// substitute an httptest server.
var npmBaseURL = "https://www.npmjs.com"

const (
	defaultWorkers   = 10
	defaultMaxPages  = 10
	defaultPageDelay = 1 * time.Second
	defaultTaskDelay = 500 * time.Millisecond
)

// Fetcher issues a single request and returns the response body. It must
// be safe for concurrent use; internal/fetch.Client satisfies this.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// RunSummary reports the outcome of one scrape run.
type RunSummary struct {
	// Pages is the number of search pages fetched. Zero when MaxPages
	// is zero: the discovery loop simply never runs.
	Pages int

	// Discovered is the number of enrichment tasks built from search pages.
	Discovered int

	// Enriched is the number of packages in the final output. Always
	// less than or equal to Discovered.
	Enriched int

	// Packages is the final sorted sequence.
	Packages []types.Package
}

// Failed returns the number of discovered tasks that produced no package.
func (s RunSummary) Failed() int {
	return s.Discovered - s.Enriched
}

// Scraper drives one run. Configuration is fixed at construction; a
// Scraper is not reused across runs.
type Scraper struct {
	cfg       types.ScrapeConfig
	client    Fetcher
	extractor extract.Extractor
	store     *resultStore

	// sleep performs pacing delays; tests replace it to run instantly.
	sleep func(ctx context.Context, d time.Duration) error
}

// New builds a Scraper from cfg, filling unset knobs with defaults.
func New(cfg types.ScrapeConfig, client Fetcher, extractor extract.Extractor) *Scraper {
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers
	}
	if cfg.MaxPages < 0 {
		cfg.MaxPages = defaultMaxPages
	}
	if cfg.PageDelay == 0 {
		cfg.PageDelay = defaultPageDelay
	}
	if cfg.TaskDelay == 0 {
		cfg.TaskDelay = defaultTaskDelay
	}
	return &Scraper{
		cfg:       cfg,
		client:    client,
		extractor: extractor,
		store:     &resultStore{},
		sleep:     ctxSleep,
	}
}

// Run executes the full pipeline: discover, enrich, aggregate. Individual
// page and task failures are logged and absorbed; the only errors returned
// are cancellation. Progress lines go to w.
func (s *Scraper) Run(ctx context.Context, w io.Writer) (RunSummary, error) {
	fmt.Fprintf(w, "scraping %q with %d workers, up to %d pages\n",
		s.cfg.Query, s.cfg.Workers, s.cfg.MaxPages)

	tasks, pages, err := s.discover(ctx, w)
	if err != nil {
		return RunSummary{}, err
	}
	fmt.Fprintf(w, "discovered %d packages across %d pages\n", len(tasks), pages)

	if err := s.enrich(ctx, tasks); err != nil {
		return RunSummary{}, err
	}

	summary := RunSummary{
		Pages:      pages,
		Discovered: len(tasks),
		Enriched:   s.store.len(),
		Packages:   aggregate(s.store.snapshot(), s.cfg.SortKey),
	}
	fmt.Fprintf(w, "enriched %d of %d packages, sorted by %s\n",
		summary.Enriched, summary.Discovered, sortKeyLabel(s.cfg.SortKey))
	return summary, nil
}

// discover walks search pages 1..MaxPages sequentially, building the task
// set. It stops early at the first page with zero results, which signals
// the end of the result set. A page whose state block fails to parse is
// skipped; the walk continues. A pacing delay separates successive pages
// regardless of each page's outcome.
func (s *Scraper) discover(ctx context.Context, w io.Writer) ([]Task, int, error) {
	var tasks []Task
	pages := 0

	for page := 1; page <= s.cfg.MaxPages; page++ {
		if page > 1 && s.cfg.PageDelay > 0 {
			if err := s.sleep(ctx, s.cfg.PageDelay); err != nil {
				return tasks, pages, err
			}
		}

		pageURL := searchPageURL(s.cfg.Query, page)
		fmt.Fprintf(w, "searching page %d: %s\n", page, pageURL)

		payload, err := s.client.Fetch(ctx, pageURL)
		if err != nil {
			if ctx.Err() != nil {
				return tasks, pages, ctx.Err()
			}
			// The source stopped serving pages; treat like an empty page.
			log.Warn().Int("page", page).Err(err).Msg("search page fetch failed, stopping discovery")
			pages = page
			break
		}
		pages = page

		records, err := s.extractor.SearchResults(payload)
		if err != nil {
			log.Warn().Int("page", page).Err(err).Msg("search page skipped")
			continue
		}
		if len(records) == 0 {
			fmt.Fprintf(w, "no more packages at page %d, stopping\n", page)
			break
		}

		found := 0
		for _, rec := range records {
			if rec.Str("name") == "" {
				log.Debug().Int("page", page).Msg("dropping record with empty name")
				continue
			}
			tasks = append(tasks, Task{Index: len(tasks), Record: rec})
			found++
		}
		fmt.Fprintf(w, "found %d packages on page %d\n", found, page)
	}

	return tasks, pages, nil
}

// enrich partitions tasks across the worker pool and waits for all
// workers to finish. A panicking worker abandons its remaining tasks but
// leaves the other workers and their results intact.
func (s *Scraper) enrich(ctx context.Context, tasks []Task) error {
	groups := partition(tasks, s.cfg.Workers)

	var wg sync.WaitGroup
	for id, group := range groups {
		if len(group) == 0 {
			continue
		}
		wg.Add(1)
		go func(id int, group []Task) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					log.Error().Int("worker", id).Any("panic", r).
						Msg("worker failed, abandoning its remaining tasks")
				}
			}()
			s.work(ctx, id, group)
		}(id, group)
	}
	wg.Wait()

	return ctx.Err()
}

// work processes one worker's group strictly sequentially. A single
// task's failure is logged and skipped, never aborting the rest of the
// group.
func (s *Scraper) work(ctx context.Context, id int, group []Task) {
	for i, task := range group {
		if ctx.Err() != nil {
			return
		}
		if i > 0 && s.cfg.TaskDelay > 0 {
			if s.sleep(ctx, s.cfg.TaskDelay) != nil {
				return
			}
		}

		rec := task.Record
		name := rec.Str("name")

		payload, err := s.client.Fetch(ctx, packagePageURL(name))
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			// Keep the search partial; size and files stay zero.
			log.Warn().Int("worker", id).Str("package", name).Err(err).
				Msg("detail fetch failed, keeping search fields only")
		} else {
			rec.Merge(s.extractor.Detail(payload))
		}

		s.store.append(task.Index, types.BuildPackage(rec))
		log.Debug().Int("worker", id).Str("package", name).Msg("processed")
	}
}

func searchPageURL(query string, page int) string {
	return fmt.Sprintf("%s/search?q=%s&page=%d", npmBaseURL, url.QueryEscape(query), page)
}

func packagePageURL(name string) string {
	return npmBaseURL + "/package/" + name
}

func sortKeyLabel(key string) string {
	for _, k := range SortKeys {
		if key == k {
			return key
		}
	}
	return "relevance"
}

func ctxSleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// FormatTable writes the top n packages as a human-readable table to w.
func FormatTable(w io.Writer, pkgs []types.Package, n int) {
	if len(pkgs) == 0 {
		fmt.Fprintln(w, "No packages found.")
		return
	}
	if n > len(pkgs) {
		n = len(pkgs)
	}

	fmt.Fprintf(w, "%-4s  %-30s  %-12s  %12s  %7s  %12s  %s\n",
		"Rank", "Name", "Version", "Size", "Files", "Weekly DLs", "Published")
	for i, p := range pkgs[:n] {
		name := p.Name
		if len(name) > 30 {
			name = name[:27] + "..."
		}
		fmt.Fprintf(w, "%-4d  %-30s  %-12s  %12d  %7d  %12d  %s\n",
			i+1, name, p.Version, p.Size, p.Files, p.DownloadsWeekly, p.LastPublish)
	}
}
