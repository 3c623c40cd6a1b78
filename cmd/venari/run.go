package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/ternarybob/venari/internal/app"
	"github.com/ternarybob/venari/internal/common"
	"github.com/ternarybob/venari/internal/models"
)

const timeRound = time.Second

// cmdRun drives one extraction pass: browser up, login, harvest, store.
// With --embed the freshly stored jobs are pushed into the vector index
// before exit.
func cmdRun(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	keyword := fs.String("keyword", "", "Search keyword (overrides search.current_keyword)")
	allKeywords := fs.Bool("all", false, "Run every configured keyword tier")
	maxPages := fs.Int("max-pages", 0, "Page cap per keyword (overrides config)")
	maxResults := fs.Int("max-results", -1, "Listing cap per keyword, 0 is unlimited (overrides config)")
	listOnly := fs.Bool("list-only", false, "Capture listings only, skip detail pages")
	embed := fs.Bool("embed", false, "Embed stored jobs into the vector index after extraction")
	embedBatch := fs.Int("embed-batch", 50, "Jobs embedded per batch with --embed")
	if err := fs.Parse(args); err != nil {
		return err
	}

	common.ApplyFlagOverrides(config, *keyword, *maxPages, nil)
	if *maxResults >= 0 {
		config.Search.Strategy.MaxResultsPerKeyword = *maxResults
	}
	if *listOnly {
		config.Search.Strategy.ExtractDetails = false
	}

	a, err := app.New(config, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	pipeline, err := a.Pipeline()
	if err != nil {
		return err
	}

	var allStats []*models.ExtractionStats
	if *allKeywords {
		allStats, err = pipeline.RunAllKeywords(ctx)
	} else {
		var stats *models.ExtractionStats
		stats, err = pipeline.RunExtraction(ctx, *keyword)
		if stats != nil {
			allStats = append(allStats, stats)
		}
	}
	for _, stats := range allStats {
		printExtractionStats(stats)
	}
	if err != nil {
		return err
	}

	if *embed {
		index, err := a.VectorIndex()
		if err != nil {
			return err
		}
		indexed, err := index.IndexPendingJobs(ctx, *embedBatch)
		if err != nil {
			return err
		}
		fmt.Printf("Embedded %d pending jobs into the vector index\n", indexed)
	}
	return nil
}

func printExtractionStats(stats *models.ExtractionStats) {
	fmt.Printf("Keyword %q: pages=%d listings=%d new=%d duplicates=%d details=%d detail_failures=%d elapsed=%s\n",
		stats.Keyword, stats.PagesVisited, stats.ListingsFound, stats.NewJobs,
		stats.Duplicates, stats.DetailsFetched, stats.DetailFailures, stats.Elapsed.Round(timeRound))
	if stats.Aborted {
		fmt.Printf("  aborted: %s\n", stats.AbortReason)
	}
}
