package main

import (
	"context"
	"flag"
	"fmt"
	"path/filepath"
	"time"

	"github.com/ternarybob/venari/internal/app"
	"github.com/ternarybob/venari/internal/interfaces"
	"github.com/ternarybob/venari/internal/models"
	"github.com/ternarybob/venari/internal/services/report"
)

// cmdMatch scores the resume against the stored corpus, persists the
// results, and optionally writes a report file or mails a digest.
func cmdMatch(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("match", flag.ExitOnError)
	resumeRef := fs.String("resume", "", "Profile name or file path (empty uses resume.default_profile)")
	top := fs.Int("top", 10, "Matches returned")
	query := fs.String("query", "", "Retrieval query (empty builds one from the profile)")
	strategy := fs.String("strategy", "", "Ranking strategy (empty uses config)")
	output := fs.String("output", "", "Write a report: md or pdf")
	notify := fs.Bool("notify", false, "Mail the report as a digest")
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

	bundle, err := matcher.MatchResume(ctx, profile, interfaces.MatchOptions{
		TopK:     *top,
		Query:    *query,
		Strategy: *strategy,
		Persist:  true,
	})
	if err != nil {
		return err
	}
	printMatchBundle(bundle)

	if *output != "" {
		path, err := reportPath(*output)
		if err != nil {
			return err
		}
		written, err := a.Report.Write(profile, bundle, path)
		if err != nil {
			return err
		}
		fmt.Printf("Report written to %s\n", written)
	}

	if *notify {
		if !a.Mailer.Enabled() {
			return fmt.Errorf("notify is not configured (set notify.smtp_host and notify.to)")
		}
		markdown := report.BuildMarkdown(profile, bundle, time.Now())
		subject := fmt.Sprintf("职位匹配报告 %s", time.Now().Format("2006-01-02"))
		if err := a.Mailer.SendDigest(ctx, subject, markdown); err != nil {
			return err
		}
		fmt.Println("Digest mailed.")
	}
	return nil
}

func printMatchBundle(bundle *models.MatchBundle) {
	s := bundle.Summary
	fmt.Printf("Matched %d of %d candidates, avg %.2f (%dms)\n",
		s.Returned, s.TotalCandidates, s.AverageScore, s.ElapsedMS)
	for i, m := range bundle.Matches {
		fmt.Printf("%2d. %3.0f%%  %-10s %s - %s\n",
			i+1, m.OverallScore*100, m.Priority, m.JobTitle, m.Company)
	}
}

// reportPath resolves --output md|pdf to a timestamped file under the
// configured report directory. A value with a path separator or extension
// is taken verbatim.
func reportPath(output string) (string, error) {
	switch output {
	case "md", "markdown":
		return filepath.Join(config.Report.OutputDir,
			fmt.Sprintf("match_report_%s.md", time.Now().Format("20060102_150405"))), nil
	case "pdf":
		return "", nil // report service picks its default PDF path
	default:
		if filepath.Ext(output) != "" {
			return output, nil
		}
		return "", fmt.Errorf("unknown report format %q (want md or pdf)", output)
	}
}
