package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/ternarybob/venari/internal/app"
	"github.com/ternarybob/venari/internal/services/refresh"
)

// cmdRefresh re-fetches stale or missing job details over plain HTTP, no
// browser involved.
func cmdRefresh(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("refresh", flag.ExitOnError)
	staleDays := fs.Int("stale-days", 7, "Details extracted more than this many days ago are refreshed")
	limit := fs.Int("limit", 100, "Maximum jobs refreshed in one pass")
	if err := fs.Parse(args); err != nil {
		return err
	}

	a, err := app.New(config, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	svc, err := a.Refresh()
	if err != nil {
		return err
	}

	stats, err := svc.Run(ctx, refresh.Options{
		StaleAfter: time.Duration(*staleDays) * 24 * time.Hour,
		Limit:      *limit,
	})
	if stats != nil {
		fmt.Println(stats.String())
	}
	return err
}
