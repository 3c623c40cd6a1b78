package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/ternarybob/venari/internal/app"
)

// cmdClear deletes stored state. Each target is opt-in and the whole
// operation is confirmation-gated unless --yes is given.
func cmdClear(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("clear", flag.ExitOnError)
	jobs := fs.Bool("jobs", false, "Delete all stored jobs, details, and matches")
	vectors := fs.Bool("vectors", false, "Delete the vector index directory")
	sessions := fs.Bool("sessions", false, "Delete the saved browser session")
	yes := fs.Bool("yes", false, "Skip the confirmation prompt")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if !*jobs && !*vectors && !*sessions {
		return fmt.Errorf("nothing selected: pass --jobs, --vectors, and/or --sessions")
	}

	var targets []string
	if *jobs {
		targets = append(targets, "jobs")
	}
	if *vectors {
		targets = append(targets, "vectors")
	}
	if *sessions {
		targets = append(targets, "sessions")
	}
	if !*yes && !confirm(fmt.Sprintf("Delete %s? This cannot be undone", strings.Join(targets, ", "))) {
		fmt.Println("Aborted.")
		return nil
	}

	// The vector directory is removed before the app opens anything, so
	// badger never holds it.
	if *vectors {
		dir := config.RAGSystem.VectorDB.PersistDirectory
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("failed to delete vector directory: %w", err)
		}
		fmt.Printf("Deleted vector index %s\n", dir)
	}

	a, err := app.New(config, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	if *jobs {
		if err := a.Jobs.ClearAll(ctx); err != nil {
			return err
		}
		fmt.Println("Deleted stored jobs and matches.")
	}
	if *sessions {
		if err := a.Sessions.Clear(); err != nil {
			return err
		}
		fmt.Println("Deleted saved session.")
	}
	return nil
}

func confirm(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	scanner := bufio.NewScanner(os.Stdin)
	if !scanner.Scan() {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(scanner.Text()))
	return answer == "y" || answer == "yes"
}
