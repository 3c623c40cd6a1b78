package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/ternarybob/venari/internal/app"
	"github.com/ternarybob/venari/internal/interfaces"
)

// cmdReport runs a non-persisting match pass and writes the report file.
// `match --output` does the same while also updating the match store; this
// command is the read-only variant.
func cmdReport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	resumeRef := fs.String("resume", "", "Profile name or file path (empty uses resume.default_profile)")
	top := fs.Int("top", 10, "Matches included")
	output := fs.String("output", "pdf", "Report format or path: md, pdf, or a file path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	a, err := app.New(config, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	profile, err := a.Resume.LoadProfile(ctx, *resumeRef)
	if err != nil {
		return err
	}

	matcher, err := a.Matcher()
	if err != nil {
		return err
	}
	bundle, err := matcher.MatchResume(ctx, profile, interfaces.MatchOptions{TopK: *top})
	if err != nil {
		return err
	}

	path, err := reportPath(*output)
	if err != nil {
		return err
	}
	written, err := a.Report.Write(profile, bundle, path)
	if err != nil {
		return err
	}
	fmt.Printf("Report written to %s\n", written)
	return nil
}
