package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/hashicorp/go-hclog"

	"ytsheets"
	"ytsheets/config"
	"ytsheets/internal/apierror"
	"ytsheets/internal/auth"
	"ytsheets/internal/logging"
	"ytsheets/internal/storage"
	"ytsheets/syncer"
)

// Process exit codes.
const (
	exitOK      = 0
	exitFailure = 1
	exitAuth    = 2
	exitConfig  = 3
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	command := "sync"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		command, args = args[0], args[1:]
	}

	switch command {
	case "sync":
		return cmdSync(args, stderr)
	case "status":
		return cmdStatus(args, stdout, stderr)
	case "help":
		printUsage(stdout)
		return exitOK
	default:
		fmt.Fprintf(stderr, "Error: unknown command %q\n\n", command)
		printUsage(stderr)
		return exitConfig
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, `ytsheets - sync a YouTube playlist into a Google Sheets tab

Usage:
  ytsheets [sync] [flags]     Sync the playlist once, or every --every interval
  ytsheets status [flags]     Show recent sync runs
  ytsheets help               Show this help message

Examples:
  ytsheets                                          # Sync using environment / .env
  ytsheets sync --playlist PLxxxx --spreadsheet 1Bx  # Override identifiers
  ytsheets sync --sheet Music --start-cell B2       # Custom destination
  ytsheets sync --every 1h                          # Repeat until interrupted
  ytsheets status --limit 5                         # Last five runs
  ytsheets status --run <id>                        # One run in full

Exit codes: 0 success, 1 sync failure, 2 authentication error, 3 configuration error.

For help on specific command: ytsheets <command> -h
`)
}

func cmdSync(args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet("sync", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "Path to a YAML config file")
	playlist := fs.String("playlist", "", "YouTube playlist ID (overrides YOUTUBE_PLAYLIST_ID)")
	spreadsheet := fs.String("spreadsheet", "", "Spreadsheet ID (overrides GOOGLE_SPREADSHEET_ID)")
	sheet := fs.String("sheet", "", "Destination tab name (overrides SHEET_NAME)")
	startCell := fs.String("start-cell", "", "Top-left cell of the header row (overrides START_CELL)")
	maxResults := fs.Int("max-results", 0, "Playlist page size, at most 50 (overrides MAX_RESULTS)")
	logLevel := fs.String("log-level", "", "ERROR, WARN, INFO or DEBUG (overrides LOG_LEVEL)")
	every := fs.Duration("every", 0, "Repeat the sync on this interval until interrupted")
	timeout := fs.Duration("timeout", 0, "Abort a single sync after this long (0 = no limit)")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: ytsheets sync [flags]\n\nFlags:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitConfig
	}

	cfg, err := config.Load(*configPath, func(c *config.Config) {
		if *playlist != "" {
			c.PlaylistID = *playlist
		}
		if *spreadsheet != "" {
			c.SpreadsheetID = *spreadsheet
		}
		if *sheet != "" {
			c.SheetName = *sheet
		}
		if *startCell != "" {
			c.StartCell = *startCell
		}
		if *maxResults != 0 {
			c.MaxResults = *maxResults
		}
		if *logLevel != "" {
			c.LogLevel = *logLevel
		}
		if *every != 0 {
			c.Interval = *every
		}
	})
	if err != nil {
		reportConfigError(logging.New("INFO", stderr), err)
		return exitConfig
	}

	logger := logging.New(cfg.LogLevel, stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner, err := ytsheets.NewRunner(ctx, cfg, logger)
	if err != nil {
		logger.Error("cannot set up API clients", "error", err)
		if errors.Is(err, auth.ErrMissingCredentials) {
			return exitConfig
		}
		return exitFailure
	}

	s := &scheduler{
		runner:    runner,
		statePath: cfg.StatePath,
		maxRuns:   cfg.HistoryLimit,
		timeout:   *timeout,
		logger:    logger,
	}
	req := ytsheets.RequestFromConfig(cfg)
	if cfg.Interval <= 0 {
		return s.runOnce(ctx, req)
	}
	return s.loop(ctx, req, cfg.Interval)
}

func reportConfigError(logger hclog.Logger, err error) {
	var cfgErr *config.ConfigError
	if !errors.As(err, &cfgErr) {
		logger.Error("cannot load configuration", "error", err)
		return
	}
	for _, name := range cfgErr.Missing {
		logger.Error("missing required environment variable", "name", name)
	}
	for _, problem := range cfgErr.Invalid {
		logger.Error("invalid configuration", "problem", problem)
	}
}

// exitCode maps a sync outcome to the process exit code.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, syncer.ErrInvalidRequest):
		return exitConfig
	case apierror.IsAuth(err):
		return exitAuth
	default:
		return exitFailure
	}
}

// scheduler runs syncs and records each one in the run history.
type scheduler struct {
	runner    *syncer.Runner
	statePath string
	maxRuns   int
	timeout   time.Duration
	logger    hclog.Logger
}

// loop syncs immediately and then on every tick until ctx is done. It stops
// early on errors a later tick cannot fix.
func (s *scheduler) loop(ctx context.Context, req syncer.Request, interval time.Duration) int {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("scheduled sync", "interval", interval)
	code := s.runOnce(ctx, req)
	for {
		if code == exitAuth || code == exitConfig {
			return code
		}
		select {
		case <-ctx.Done():
			s.logger.Info("stopping scheduled sync")
			return code
		case <-ticker.C:
			code = s.runOnce(ctx, req)
		}
	}
}

func (s *scheduler) runOnce(ctx context.Context, req syncer.Request) int {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	run := storage.NewRun(req.PlaylistID, req.SpreadsheetID, req.Options.SheetName)
	s.record(ctx, run, true)

	s.runner.OnAttempt = func(n int) { run.Attempts = n }
	result, err := s.runner.Run(ctx, req)
	if err != nil {
		run.Fail(err.Error(), apierror.IsAuth(err))
	} else {
		run.Succeed(result.VideosProcessed, result.UpdatedRows, result.UpdatedColumns, result.UpdatedCells)
		run.QuotaUnits = result.QuotaUnits
	}
	s.record(ctx, run, false)

	return exitCode(err)
}

// record writes run to the history. The store is opened per write so that
// `ytsheets status` can read it between scheduled runs. History failures
// never fail the sync.
func (s *scheduler) record(ctx context.Context, run *storage.Run, create bool) {
	if s.statePath == "" {
		return
	}
	store, err := storage.NewJSONStore(s.statePath)
	if err != nil {
		s.logger.Warn("cannot open run history", "path", s.statePath, "error", err)
		return
	}
	defer store.Close()
	store.SetMaxRuns(s.maxRuns)

	if create {
		err = store.CreateRun(ctx, run)
	} else {
		err = store.UpdateRun(ctx, run)
	}
	if err != nil {
		s.logger.Warn("cannot record run", "run", run.ID, "error", err)
		return
	}
	if create {
		return
	}

	state, err := store.GetSyncState(ctx, run.PlaylistID)
	if err != nil {
		state = storage.NewSyncState(run.PlaylistID)
	}
	state.Record(run)
	if err := store.UpdateSyncState(ctx, state); err != nil {
		s.logger.Warn("cannot record playlist state", "playlist", run.PlaylistID, "error", err)
	}
}

func cmdStatus(args []string, stdout, stderr io.Writer) int {
	defaultPath := os.Getenv("YTSHEETS_STATE_PATH")
	if defaultPath == "" {
		defaultPath = config.DefaultConfig().StatePath
	}

	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	fs.SetOutput(stderr)
	statePath := fs.String("state", defaultPath, "Path to the run history file")
	limit := fs.Int("limit", 10, "Maximum runs to show (0 = all)")
	asJSON := fs.Bool("json", false, "Print JSON instead of a table")
	runID := fs.String("run", "", "Show every recorded field of one run")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: ytsheets status [flags]\n\nFlags:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitConfig
	}

	if _, err := os.Stat(*statePath); os.IsNotExist(err) {
		fmt.Fprintln(stdout, "No runs recorded.")
		return exitOK
	}

	store, err := storage.NewJSONStore(*statePath)
	if err != nil {
		fmt.Fprintf(stderr, "Error opening run history: %v\n", err)
		return exitFailure
	}
	defer store.Close()

	ctx := context.Background()
	if *runID != "" {
		return printRun(ctx, store, *runID, stdout, stderr)
	}

	runs, err := store.ListRuns(ctx, *limit)
	if err != nil {
		fmt.Fprintf(stderr, "Error listing runs: %v\n", err)
		return exitFailure
	}
	states, err := store.ListSyncStates(ctx)
	if err != nil {
		fmt.Fprintf(stderr, "Error listing playlists: %v\n", err)
		return exitFailure
	}
	sort.Slice(states, func(i, j int) bool { return states[i].PlaylistID < states[j].PlaylistID })

	if *asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(map[string]any{"runs": runs, "playlists": states}); err != nil {
			fmt.Fprintf(stderr, "Error encoding status: %v\n", err)
			return exitFailure
		}
		return exitOK
	}

	if len(runs) == 0 {
		fmt.Fprintln(stdout, "No runs recorded.")
		return exitOK
	}

	w := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RUN\tSTARTED\tPLAYLIST\tSTATUS\tATTEMPTS\tVIDEOS\tCELLS\tQUOTA\tDURATION\tERROR")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%d\t%s\t%s\n",
			r.ID,
			r.StartedAt.Local().Format("2006-01-02 15:04"),
			r.PlaylistID,
			r.Status,
			r.Attempts,
			r.VideosProcessed,
			r.UpdatedCells,
			r.QuotaUnits,
			r.Duration().Round(time.Millisecond),
			truncate(r.Error, 60),
		)
	}
	w.Flush()

	if len(states) > 0 {
		fmt.Fprintln(stdout)
		w = tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "PLAYLIST\tLAST SUCCESS\tVIDEOS\tFAILURES")
		for _, st := range states {
			last := "never"
			if !st.LastSuccessAt.IsZero() {
				last = st.LastSuccessAt.Local().Format("2006-01-02 15:04")
			}
			fmt.Fprintf(w, "%s\t%s\t%d\t%d\n", st.PlaylistID, last, st.LastVideoCount, st.ConsecutiveFailures)
		}
		w.Flush()
	}
	return exitOK
}

func printRun(ctx context.Context, store *storage.JSONStore, id string, stdout, stderr io.Writer) int {
	run, err := store.GetRun(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			fmt.Fprintf(stderr, "Error: no run with ID %q\n", id)
		} else {
			fmt.Fprintf(stderr, "Error reading run: %v\n", err)
		}
		return exitFailure
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(run); err != nil {
		fmt.Fprintf(stderr, "Error encoding run: %v\n", err)
		return exitFailure
	}
	return exitOK
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
