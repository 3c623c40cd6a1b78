// -----------------------------------------------------------------------
// venari-mcp - MCP stdio server over the job store
// -----------------------------------------------------------------------

package main

import (
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"
	arbor_models "github.com/ternarybob/arbor/models"

	"github.com/ternarybob/venari/internal/app"
	"github.com/ternarybob/venari/internal/common"
)

func main() {
	configPath := os.Getenv("VENARI_CONFIG")
	if configPath == "" {
		configPath = "venari.yaml"
	}
	if _, err := os.Stat(configPath); err != nil && os.Getenv("VENARI_CONFIG") == "" {
		// Defaults apply when the conventional file is absent.
		configPath = ""
	}

	config, err := common.LoadFromFiles(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Console-only warn-level logger; stdio carries the protocol, so the
	// log stream must stay quiet.
	logger := arbor.NewLogger().WithConsoleWriter(arbor_models.WriterConfiguration{
		Type:             arbor_models.LogWriterTypeConsole,
		TimeFormat:       "15:04:05",
		DisableTimestamp: false,
	}).WithLevelFromString("warn")

	application, err := app.New(config, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize application")
	}
	defer application.Close()

	mcpServer := server.NewMCPServer(
		"venari",
		common.GetVersion(),
		server.WithToolCapabilities(true),
	)

	mcpServer.AddTool(createSearchJobsTool(), handleSearchJobs(application, logger))
	mcpServer.AddTool(createGetJobTool(), handleGetJob(application, logger))
	mcpServer.AddTool(createListRecentJobsTool(), handleListRecentJobs(application, logger))
	mcpServer.AddTool(createMatchResumeTool(), handleMatchResume(application, logger))
	mcpServer.AddTool(createJobStatsTool(), handleJobStats(application, logger))

	// Blocks on stdio until the client disconnects.
	if err := server.ServeStdio(mcpServer); err != nil {
		logger.Fatal().Err(err).Msg("MCP server failed")
	}
}
