// -----------------------------------------------------------------------
// venari - job-market extraction and matching CLI
// -----------------------------------------------------------------------

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/venari/internal/common"
)

// configPaths collects repeated -config flags; later files override earlier
// ones.
type configPaths []string

func (c *configPaths) String() string {
	return fmt.Sprintf("%v", *c)
}

func (c *configPaths) Set(value string) error {
	*c = append(*c, value)
	return nil
}

var (
	config *common.Config
	logger arbor.ILogger
)

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage: venari [-c config ...] <command> [flags]

Commands:
  run       Run a job extraction pass against the enabled website
  refresh   Re-fetch stale or missing job details over HTTP
  status    Show store, vector, session, and schedule state
  search    Query the vector index (time-aware)
  match     Match a resume profile against the stored corpus
  report    Write a match report (markdown or PDF)
  chat      Interactive Q&A over the stored corpus
  ingest    Structure a resume PDF or text file into a profile
  clear     Delete stored jobs, vectors, or the saved session
  version   Print version information

Global flags:
  -c, -config path   Configuration file (repeatable; later files win)
  -v, -version       Print version and exit

Run "venari <command> -h" for command flags.
`)
}

func main() {
	var files configPaths
	flag.Var(&files, "config", "Configuration file path (repeatable, later files override earlier ones)")
	flag.Var(&files, "c", "Configuration file path (shorthand)")
	showVersion := flag.Bool("version", false, "Print version information")
	showVersionV := flag.Bool("v", false, "Print version information (shorthand)")
	flag.Usage = printUsage
	flag.Parse()

	common.LoadVersionFromFile()

	if *showVersion || *showVersionV {
		fmt.Printf("Venari version %s\n", common.GetVersion())
		return
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}
	command, rest := args[0], args[1:]

	if command == "version" {
		fmt.Printf("Venari %s\n", common.GetFullVersion())
		return
	}

	// Auto-discover a config file next to the binary's working directory
	// when none was given. Missing config is not fatal; defaults apply.
	if len(files) == 0 {
		for _, candidate := range []string{"venari.yaml", "venari.toml", "deployments/local/venari.yaml"} {
			if _, err := os.Stat(candidate); err == nil {
				files = append(files, candidate)
				break
			}
		}
	}

	// Startup order: config, flags, logger, banner, app.
	var err error
	config, err = common.LoadFromFiles(files...)
	if err != nil {
		tempLogger := arbor.NewLogger()
		tempLogger.Fatal().Strs("paths", files).Err(err).Msg("Failed to load configuration")
		os.Exit(1)
	}

	logger = common.InitLogger(config)
	common.PrintBanner(common.GetVersion())

	common.InstallCrashHandler(config.Logging.Directory)
	defer common.RecoverWithCrashFile()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := dispatch(ctx, command, rest); err != nil {
		logger.Error().Str("command", command).Err(err).Msg("Command failed")
		os.Exit(1)
	}
}

func dispatch(ctx context.Context, command string, args []string) error {
	switch command {
	case "run":
		return cmdRun(ctx, args)
	case "refresh":
		return cmdRefresh(ctx, args)
	case "status":
		return cmdStatus(ctx, args)
	case "search":
		return cmdSearch(ctx, args)
	case "match":
		return cmdMatch(ctx, args)
	case "report":
		return cmdReport(ctx, args)
	case "chat":
		return cmdChat(ctx, args)
	case "ingest":
		return cmdIngest(ctx, args)
	case "clear":
		return cmdClear(ctx, args)
	default:
		printUsage()
		return fmt.Errorf("unknown command %q", command)
	}
}
