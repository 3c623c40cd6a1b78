package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/ternarybob/venari/internal/app"
	"github.com/ternarybob/venari/internal/models"
)

// cmdIngest structures a resume file into a profile via the configured
// model and saves it to the profile directory.
func cmdIngest(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	pdfPath := fs.String("pdf", "", "Resume PDF to ingest")
	textPath := fs.String("file", "", "Resume text or markdown file to ingest")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if (*pdfPath == "") == (*textPath == "") {
		return fmt.Errorf("usage: venari ingest --pdf resume.pdf | --file resume.md")
	}

	a, err := app.New(config, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	var profile *models.ResumeProfile
	if *pdfPath != "" {
		profile, err = a.Resume.IngestPDF(ctx, *pdfPath)
	} else {
		var raw []byte
		raw, err = os.ReadFile(*textPath)
		if err == nil {
			profile, err = a.Resume.IngestText(ctx, string(raw))
		}
	}
	if err != nil {
		return err
	}

	path, err := a.Resume.SaveProfile(ctx, profile)
	if err != nil {
		return err
	}
	fmt.Printf("Profile %q (%s) saved to %s\n", profile.ProfileID, profile.Name, path)
	fmt.Printf("Skills: %d, experience: %.1f years\n", len(profile.GetAllSkills()), profile.TotalExperienceYears)
	return nil
}
