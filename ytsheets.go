package ytsheets

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-hclog"
	"google.golang.org/api/option"

	"ytsheets/config"
	"ytsheets/internal/auth"
	"ytsheets/internal/logging"
	"ytsheets/internal/retry"
	"ytsheets/internal/transport"
	"ytsheets/sheets"
	"ytsheets/syncer"
	"ytsheets/youtube"
)

// NewRunner wires the full pipeline from cfg: a paced transport, one
// authenticated session per API, the YouTube source, the Sheets writer and a
// retrying runner. extra options are appended to both API clients.
func NewRunner(ctx context.Context, cfg *config.Config, logger hclog.Logger, extra ...option.ClientOption) (*syncer.Runner, error) {
	logger = logging.OrNull(logger)

	tcfg := transport.DefaultConfig()
	tcfg.RateLimiter.DefaultRPS = cfg.RequestsPerSecond
	provider := auth.NewProvider(transport.New(tcfg, logger), logger)

	if err := registerSessions(ctx, provider, cfg); err != nil {
		return nil, err
	}

	ytClient, err := provider.Session(auth.YouTube)
	if err != nil {
		return nil, err
	}
	source, err := youtube.NewAPISource(ctx, logger, append([]option.ClientOption{option.WithHTTPClient(ytClient)}, extra...)...)
	if err != nil {
		return nil, err
	}

	sheetsClient, err := provider.Session(auth.Sheets)
	if err != nil {
		return nil, err
	}
	writer, err := sheets.NewAPIWriter(ctx, logger, append([]option.ClientOption{option.WithHTTPClient(sheetsClient)}, extra...)...)
	if err != nil {
		return nil, err
	}

	retryCfg := retry.Config{MaxRetries: cfg.MaxRetries, Delay: cfg.RetryDelay}
	return syncer.NewRunner(syncer.New(source, writer, logger), retryCfg, logger), nil
}

// registerSessions prefers OAuth for YouTube and falls back to the API key.
func registerSessions(ctx context.Context, p *auth.Provider, cfg *config.Config) error {
	client := auth.Credentials{
		ClientID:     cfg.Google.ClientID,
		ClientSecret: cfg.Google.ClientSecret,
		RedirectURL:  cfg.Google.RedirectURI,
	}

	yt := client
	yt.RefreshToken = cfg.YouTubeRefreshToken()
	yt.AccessToken = cfg.YouTube.AccessToken
	yt.Scopes = []string{auth.ScopeYouTubeReadonly}
	if yt.RefreshToken != "" || yt.AccessToken != "" {
		if err := p.RegisterOAuth(ctx, auth.YouTube, yt); err != nil {
			return fmt.Errorf("youtube session: %w", err)
		}
	} else if err := p.RegisterAPIKey(auth.YouTube, cfg.YouTube.APIKey); err != nil {
		return fmt.Errorf("youtube session: %w", err)
	}

	sh := client
	sh.RefreshToken = cfg.SheetsRefreshToken()
	sh.AccessToken = cfg.Sheets.AccessToken
	sh.Scopes = []string{auth.ScopeSpreadsheets}
	if err := p.RegisterOAuth(ctx, auth.Sheets, sh); err != nil {
		return fmt.Errorf("sheets session: %w", err)
	}
	return nil
}

// RequestFromConfig extracts the sync request described by cfg.
func RequestFromConfig(cfg *config.Config) syncer.Request {
	return syncer.Request{
		PlaylistID:    cfg.PlaylistID,
		SpreadsheetID: cfg.SpreadsheetID,
		Options: syncer.Options{
			SheetName:  cfg.SheetName,
			StartCell:  cfg.StartCell,
			MaxResults: cfg.MaxResults,
		},
	}
}
