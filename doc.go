// Package ytsheets synchronizes a YouTube playlist into a Google Sheets tab.
//
// Every sync reads the whole playlist, looks up each video's duration and
// owning channel, and overwrites a three-column table (Title, Channel,
// Duration) whose first two columns are clickable HYPERLINK formulas.
//
// Quick Start
//
// Build a runner from the environment and sync once:
//
//	cfg, err := config.Load("")
//	if err != nil {
//		log.Fatal(err)
//	}
//	runner, err := ytsheets.NewRunner(ctx, cfg, logging.New(cfg.LogLevel, nil))
//	if err != nil {
//		log.Fatal(err)
//	}
//	result, err := runner.Run(ctx, ytsheets.RequestFromConfig(cfg))
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Printf("wrote %d rows\n", result.UpdatedRows)
//
// Configuration
//
// Settings are loaded from multiple sources:
//
//   1. Command-line flags (highest priority)
//   2. Environment variables, including a .env file in the working directory
//   3. Config file (ytsheets.yaml or ~/.config/ytsheets/ytsheets.yaml)
//   4. Default values (lowest priority)
//
// Environment variables:
//
//   - YOUTUBE_PLAYLIST_ID, GOOGLE_SPREADSHEET_ID: required identifiers
//   - SHEET_NAME, START_CELL, MAX_RESULTS: destination tab, header anchor, page size
//   - GOOGLE_CLIENT_ID, GOOGLE_CLIENT_SECRET, GOOGLE_REDIRECT_URI: OAuth client
//   - GOOGLE_REFRESH_TOKEN: shared refresh token
//   - YOUTUBE_REFRESH_TOKEN, SHEETS_REFRESH_TOKEN: per-service refresh tokens
//   - YOUTUBE_ACCESS_TOKEN, SHEETS_ACCESS_TOKEN: short-lived tokens used as-is
//   - YOUTUBE_API_KEY: API key for public playlists
//   - LOG_LEVEL: ERROR, WARN, INFO or DEBUG
//   - YTSHEETS_MAX_RETRIES, YTSHEETS_RETRY_DELAY: retry budget
//   - YTSHEETS_REQUESTS_PER_SECOND: per-host request pacing
//   - YTSHEETS_STATE_PATH: run history file
//   - YTSHEETS_INTERVAL: repeat the sync on this interval
//
// Error Handling
//
// Remote failures are *APIError values naming the service and operation.
// Authentication failures are never retried:
//
//	if ytsheets.IsAuthError(err) {
//		fmt.Println("refresh your OAuth tokens")
//	}
//
// Advanced Usage
//
// For more control, use the sub-packages directly:
//
//   - youtube: playlist pagination and batched metadata enrichment
//   - sheets: row building and the Sheets writer
//   - syncer: the single-sync pipeline and the retrying runner
//   - config: configuration management
//
// Example syncing with custom collaborators:
//
//	s := syncer.New(mySource, myWriter, logger)
//	result, err := s.SyncPlaylist(ctx, "PL...", "1Bx...", syncer.Options{SheetName: "Music"})
package ytsheets
