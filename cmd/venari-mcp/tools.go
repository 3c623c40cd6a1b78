package main

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// createSearchJobsTool returns the search_jobs tool definition
func createSearchJobsTool() mcp.Tool {
	return mcp.NewTool("search_jobs",
		mcp.WithDescription("Semantic search over the harvested job corpus (time-aware vector retrieval)"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Natural-language query, Chinese or English (e.g. 后端 高并发 Golang)"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum results to return (default: 10, max: 50)"),
		),
		mcp.WithString("strategy",
			mcp.Description("Ranking strategy: hybrid, fresh_first, balanced (default: configured)"),
		),
	)
}

// createGetJobTool returns the get_job tool definition
func createGetJobTool() mcp.Tool {
	return mcp.NewTool("get_job",
		mcp.WithDescription("Retrieve one job with its full detail by job ID"),
		mcp.WithString("job_id",
			mcp.Required(),
			mcp.Description("Job ID (format: job_{hash})"),
		),
	)
}

// createListRecentJobsTool returns the list_recent_jobs tool definition
func createListRecentJobsTool() mcp.Tool {
	return mcp.NewTool("list_recent_jobs",
		mcp.WithDescription("List the most recently harvested jobs, newest first"),
		mcp.WithNumber("limit",
			mcp.Description("Max results (default: 20)"),
		),
		mcp.WithString("keyword",
			mcp.Description("Filter by the search keyword the job was found under"),
		),
		mcp.WithString("company",
			mcp.Description("Filter by company name"),
		),
	)
}

// createMatchResumeTool returns the match_resume tool definition
func createMatchResumeTool() mcp.Tool {
	return mcp.NewTool("match_resume",
		mcp.WithDescription("Score a stored resume profile against the job corpus and return the ranked matches"),
		mcp.WithString("profile",
			mcp.Description("Profile name from the profile directory (default: configured default profile)"),
		),
		mcp.WithNumber("top",
			mcp.Description("Matches returned (default: 10, max: 50)"),
		),
	)
}

// createJobStatsTool returns the job_stats tool definition
func createJobStatsTool() mcp.Tool {
	return mcp.NewTool("job_stats",
		mcp.WithDescription("Corpus statistics: stored jobs, dedup rate, match aggregates, vector index size"),
	)
}
