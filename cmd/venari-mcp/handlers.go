package main

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/venari/internal/app"
	"github.com/ternarybob/venari/internal/interfaces"
	"github.com/ternarybob/venari/internal/models"
)

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(text)},
	}
}

// handleSearchJobs implements the search_jobs tool
func handleSearchJobs(a *app.App, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := request.RequireString("query")
		if err != nil || query == "" {
			return textResult("Error: query parameter is required"), nil
		}

		limit := request.GetInt("limit", 10)
		if limit > 50 {
			limit = 50
		}
		strategy := request.GetString("strategy", "")

		retriever, err := a.Retriever()
		if err != nil {
			logger.Error().Err(err).Msg("Vector store unavailable")
			return textResult(fmt.Sprintf("Vector store unavailable: %v", err)), nil
		}

		docs, err := retriever.Search(ctx, query, limit, nil, strategy)
		if err != nil {
			logger.Error().Err(err).Msg("Search failed")
			return textResult(fmt.Sprintf("Search error: %v", err)), nil
		}
		return textResult(formatSearchResults(query, docs)), nil
	}
}

// handleGetJob implements the get_job tool
func handleGetJob(a *app.App, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		jobID, err := request.RequireString("job_id")
		if err != nil || jobID == "" {
			return textResult("Error: job_id parameter is required"), nil
		}

		job, err := a.Jobs.GetJobWithDetail(ctx, jobID)
		if err != nil {
			logger.Error().Err(err).Str("job_id", jobID).Msg("GetJobWithDetail failed")
			return textResult(fmt.Sprintf("Job not found: %v", err)), nil
		}
		return textResult(formatJob(job)), nil
	}
}

// handleListRecentJobs implements the list_recent_jobs tool
func handleListRecentJobs(a *app.App, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		limit := request.GetInt("limit", 20)
		if limit > 100 {
			limit = 100
		}

		jobs, err := a.Jobs.QueryJobs(ctx, models.JobQuery{
			Keyword: request.GetString("keyword", ""),
			Company: request.GetString("company", ""),
			Limit:   limit,
		})
		if err != nil {
			logger.Error().Err(err).Msg("QueryJobs failed")
			return textResult(fmt.Sprintf("Query error: %v", err)), nil
		}
		return textResult(formatJobList(jobs)), nil
	}
}

// handleMatchResume implements the match_resume tool
func handleMatchResume(a *app.App, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		top := request.GetInt("top", 10)
		if top > 50 {
			top = 50
		}

		profile, err := a.Resume.LoadProfile(ctx, request.GetString("profile", ""))
		if err != nil {
			return textResult(fmt.Sprintf("Profile error: %v", err)), nil
		}

		matcher, err := a.Matcher()
		if err != nil {
			logger.Error().Err(err).Msg("Matcher unavailable")
			return textResult(fmt.Sprintf("Matcher unavailable: %v", err)), nil
		}

		bundle, err := matcher.MatchResume(ctx, profile, interfaces.MatchOptions{TopK: top})
		if err != nil {
			logger.Error().Err(err).Msg("Match failed")
			return textResult(fmt.Sprintf("Match error: %v", err)), nil
		}
		return textResult(formatMatchBundle(profile, bundle)), nil
	}
}

// handleJobStats implements the job_stats tool
func handleJobStats(a *app.App, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		dedup, err := a.Jobs.GetDeduplicationStats(ctx)
		if err != nil {
			logger.Error().Err(err).Msg("Dedup stats failed")
			return textResult(fmt.Sprintf("Stats error: %v", err)), nil
		}

		matches, err := a.Matches.GetGlobalStats(ctx)
		if err != nil {
			logger.Error().Err(err).Msg("Match stats failed")
			matches = &models.MatchStats{}
		}

		var vectors *models.VectorStats
		if index, err := a.VectorIndex(); err == nil {
			vectors, _ = index.CollectionStats(ctx)
		}
		return textResult(formatStats(dedup, matches, vectors)), nil
	}
}
