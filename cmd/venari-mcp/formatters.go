package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/venari/internal/models"
)

// formatSearchResults formats retrieval hits as markdown
func formatSearchResults(query string, docs []models.ScoredDocument) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Search Results for \"%s\" (%d results)\n\n", query, len(docs)))

	if len(docs) == 0 {
		sb.WriteString("No results found.\n")
		return sb.String()
	}

	for i, doc := range docs {
		sb.WriteString(fmt.Sprintf("### %d. %s (score %.3f)\n", i+1, doc.Document.ID, doc.Score))
		if jobID := doc.Document.JobID(); jobID != "" {
			sb.WriteString(fmt.Sprintf("**Job:** %s\n", jobID))
		}
		if docType := doc.Document.DocumentType(); docType != "" {
			sb.WriteString(fmt.Sprintf("**Type:** %s\n", docType))
		}
		if created, ok := doc.Document.CreatedAt(); ok {
			sb.WriteString(fmt.Sprintf("**Stored:** %s\n", created.Format(time.RFC3339)))
		}
		sb.WriteString("\n")

		content := doc.Document.PageContent
		if runes := []rune(content); len(runes) > 300 {
			content = string(runes[:300]) + "..."
		}
		sb.WriteString(content)
		sb.WriteString("\n\n---\n\n")
	}
	return sb.String()
}

// formatJob formats one job with its detail as markdown
func formatJob(job *models.JobWithDetail) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# %s - %s\n\n", job.Job.Title, job.Job.Company))
	sb.WriteString(fmt.Sprintf("**ID:** %s\n", job.Job.JobID))
	sb.WriteString(fmt.Sprintf("**Website:** %s\n", job.Job.Website))
	if job.Job.URL != "" {
		sb.WriteString(fmt.Sprintf("**URL:** %s\n", job.Job.URL))
	}
	sb.WriteString(fmt.Sprintf("**Status:** %s\n", job.Job.ApplicationStatus))
	sb.WriteString(fmt.Sprintf("**Harvested:** %s\n\n", job.Job.CreatedAt.Format(time.RFC3339)))

	if job.Detail == nil {
		sb.WriteString("No detail captured yet.\n")
		return sb.String()
	}

	d := job.Detail
	for _, row := range []struct{ label, value string }{
		{"Salary", d.Salary},
		{"Location", d.Location},
		{"Experience", d.Experience},
		{"Education", d.Education},
		{"Industry", d.Industry},
		{"Company scale", d.CompanyScale},
		{"Published", d.PublishTime},
		{"Found under", d.Keyword},
	} {
		if row.value != "" {
			sb.WriteString(fmt.Sprintf("**%s:** %s\n", row.label, row.value))
		}
	}
	if d.Description != "" {
		sb.WriteString("\n## Description\n\n")
		sb.WriteString(d.Description)
		sb.WriteString("\n")
	}
	if d.Requirements != "" {
		sb.WriteString("\n## Requirements\n\n")
		sb.WriteString(d.Requirements)
		sb.WriteString("\n")
	}
	if d.Benefits != "" {
		sb.WriteString("\n## Benefits\n\n")
		sb.WriteString(d.Benefits)
		sb.WriteString("\n")
	}
	return sb.String()
}

// formatJobList formats a job listing table as markdown
func formatJobList(jobs []*models.Job) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Recent Jobs (%d)\n\n", len(jobs)))

	if len(jobs) == 0 {
		sb.WriteString("No jobs stored.\n")
		return sb.String()
	}

	sb.WriteString("| # | Job ID | Title | Company | Harvested |\n")
	sb.WriteString("|---|--------|-------|---------|----------|\n")
	for i, job := range jobs {
		sb.WriteString(fmt.Sprintf("| %d | %s | %s | %s | %s |\n",
			i+1, job.JobID, job.Title, job.Company, job.CreatedAt.Format("2006-01-02")))
	}
	return sb.String()
}

// formatMatchBundle formats a match run as markdown
func formatMatchBundle(profile *models.ResumeProfile, bundle *models.MatchBundle) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Match Results for %s\n\n", profile.ProfileID))
	sb.WriteString(fmt.Sprintf("%d of %d candidates matched, average score %.2f\n\n",
		bundle.Summary.Returned, bundle.Summary.TotalCandidates, bundle.Summary.AverageScore))

	if len(bundle.Matches) == 0 {
		sb.WriteString("No matches above the threshold.\n")
		return sb.String()
	}

	sb.WriteString("| # | Score | Priority | Title | Company | Job ID |\n")
	sb.WriteString("|---|-------|----------|-------|---------|--------|\n")
	for i, m := range bundle.Matches {
		sb.WriteString(fmt.Sprintf("| %d | %.0f%% | %s | %s | %s | %s |\n",
			i+1, m.OverallScore*100, m.Priority, m.JobTitle, m.Company, m.JobID))
	}

	if len(bundle.Insights.SkillGaps) > 0 {
		sb.WriteString(fmt.Sprintf("\n**Skill gaps:** %s\n", strings.Join(bundle.Insights.SkillGaps, ", ")))
	}
	return sb.String()
}

// formatStats formats corpus statistics as markdown
func formatStats(dedup *models.DedupStats, matches *models.MatchStats, vectors *models.VectorStats) string {
	var sb strings.Builder
	sb.WriteString("## Corpus Statistics\n\n")
	sb.WriteString(fmt.Sprintf("**Jobs:** %d stored, %d unique fingerprints, %.1f%% duplicate rate\n",
		dedup.TotalJobs, dedup.UniqueFingerprints, dedup.DuplicateRate*100))
	sb.WriteString(fmt.Sprintf("**Matches:** %d rows, average %.2f, best %.2f, %d high quality\n",
		matches.TotalMatches, matches.AverageScore, matches.BestScore, matches.HighQualityCount))
	if vectors != nil {
		sb.WriteString(fmt.Sprintf("**Vectors:** %d documents in %s\n", vectors.Count, vectors.Name))
	} else {
		sb.WriteString("**Vectors:** index not initialized\n")
	}
	return sb.String()
}
