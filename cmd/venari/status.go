package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/ternarybob/venari/internal/app"
	"github.com/ternarybob/venari/internal/common"
	"github.com/ternarybob/venari/internal/models"
)

// cmdStatus prints a snapshot of the stores, the saved session, and the
// schedules. The vector store is only opened when its directory already
// exists; status never creates state.
func cmdStatus(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	a, err := app.New(config, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	fmt.Printf("Venari %s\n\n", common.GetFullVersion())

	name, website, werr := a.Website()
	if werr != nil {
		fmt.Println("Website:  none enabled")
	} else {
		fmt.Printf("Website:  %s (%s)\n", name, website.BaseURL)
	}
	fmt.Printf("Database: %s\n\n", config.Database.Path)

	printJobStatus(ctx, a)
	printMatchStatus(ctx, a)
	printVectorStatus(ctx, a)
	printSessionStatus(a)
	printScheduleStatus()
	return nil
}

func printJobStatus(ctx context.Context, a *app.App) {
	total, err := a.Jobs.CountJobs(ctx, models.JobQuery{})
	if err != nil {
		fmt.Printf("Jobs:     unavailable (%v)\n", err)
		return
	}
	fmt.Printf("Jobs:     %d stored\n", total)
	if dedup, err := a.Jobs.GetDeduplicationStats(ctx); err == nil {
		fmt.Printf("          %s\n", dedup.String())
	}
}

func printMatchStatus(ctx context.Context, a *app.App) {
	stats, err := a.Matches.GetGlobalStats(ctx)
	if err != nil {
		fmt.Printf("Matches:  unavailable (%v)\n", err)
		return
	}
	fmt.Printf("Matches:  %d rows, avg %.2f, best %.2f, %d high quality\n",
		stats.TotalMatches, stats.AverageScore, stats.BestScore, stats.HighQualityCount)
}

func printVectorStatus(ctx context.Context, a *app.App) {
	dir := config.RAGSystem.VectorDB.PersistDirectory
	if _, err := os.Stat(dir); err != nil {
		fmt.Printf("Vectors:  not initialized (%s)\n", dir)
		return
	}
	index, err := a.VectorIndex()
	if err != nil {
		fmt.Printf("Vectors:  unavailable (%v)\n", err)
		return
	}
	stats, err := index.CollectionStats(ctx)
	if err != nil {
		fmt.Printf("Vectors:  unavailable (%v)\n", err)
		return
	}
	fmt.Printf("Vectors:  %d documents in %s (%s)\n", stats.Count, stats.Name, stats.Path)
}

func printSessionStatus(a *app.App) {
	info, err := a.Sessions.Info()
	if err != nil || info == nil {
		fmt.Println("Session:  none saved")
		return
	}
	state := "valid"
	if info.Expired {
		state = "expired"
	}
	fmt.Printf("Session:  %s, %d cookies, saved %s (%s)\n",
		state, info.CookieCount, info.SavedAt.Format("2006-01-02 15:04:05"), info.Path)
}

func printScheduleStatus() {
	ext := config.Schedule.Extraction
	mon := config.Schedule.Monitor
	if ext.Enabled {
		fmt.Printf("Schedule: extraction %q\n", ext.Cron)
	} else {
		fmt.Println("Schedule: extraction disabled")
	}
	if mon.Enabled {
		fmt.Printf("Monitor:  %q, auto-repair %v\n", mon.Cron, mon.AutoRepair)
	} else {
		fmt.Println("Monitor:  disabled")
	}
}
