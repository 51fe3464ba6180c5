// Package auth holds the authenticated HTTP sessions used to talk to Google
// APIs, one per service.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi/transport"

	"ytsheets/internal/logging"
)

// Session names.
const (
	YouTube = "youtube"
	Sheets  = "sheets"
)

// OAuth scopes requested per session.
const (
	ScopeYouTubeReadonly = "https://www.googleapis.com/auth/youtube.readonly"
	ScopeSpreadsheets    = "https://www.googleapis.com/auth/spreadsheets"
)

var (
	// ErrNotConfigured is returned by Session for a name that was never registered.
	ErrNotConfigured = errors.New("auth: session not configured")

	// ErrMissingCredentials is returned when neither a refresh token nor an
	// access token is available.
	ErrMissingCredentials = errors.New("auth: missing credentials")
)

// Credentials are the OAuth client and tokens for one service.
type Credentials struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	RefreshToken string
	// AccessToken is optional. Without a refresh token it is used as-is until it expires.
	AccessToken string
	Scopes      []string
}

// Provider hands out named sessions. It is safe for concurrent use.
type Provider struct {
	mu       sync.RWMutex
	sessions map[string]*http.Client
	base     http.RoundTripper
	logger   hclog.Logger

	// Endpoint is the OAuth token endpoint. Default: google.Endpoint
	Endpoint oauth2.Endpoint
}

// NewProvider creates an empty provider. Every session sends its requests
// through base (http.DefaultTransport when nil), including token refreshes.
func NewProvider(base http.RoundTripper, logger hclog.Logger) *Provider {
	if base == nil {
		base = http.DefaultTransport
	}
	return &Provider{
		sessions: make(map[string]*http.Client),
		base:     base,
		logger:   logging.OrNull(logger).Named("auth"),
		Endpoint: google.Endpoint,
	}
}

// Register stores a ready-made client under name, replacing any previous one.
func (p *Provider) Register(name string, client *http.Client) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sessions[name] = client
}

// RegisterOAuth builds a session from OAuth client credentials. With a refresh
// token, a fresh access token is fetched on first use and whenever it expires;
// each refresh is logged with the session name.
func (p *Provider) RegisterOAuth(ctx context.Context, name string, creds Credentials) error {
	if creds.RefreshToken == "" && creds.AccessToken == "" {
		return fmt.Errorf("%w for %s", ErrMissingCredentials, name)
	}

	var src oauth2.TokenSource
	if creds.RefreshToken == "" {
		src = oauth2.StaticTokenSource(&oauth2.Token{AccessToken: creds.AccessToken})
	} else {
		// The configured access token has no known expiry, so it is not trusted.
		tok := &oauth2.Token{RefreshToken: creds.RefreshToken}
		cfg := &oauth2.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			RedirectURL:  creds.RedirectURL,
			Endpoint:     p.Endpoint,
			Scopes:       creds.Scopes,
		}
		ctx = context.WithValue(ctx, oauth2.HTTPClient, &http.Client{Transport: p.base})
		src = oauth2.ReuseTokenSource(tok, &refreshLogger{
			name:   name,
			src:    cfg.TokenSource(ctx, tok),
			logger: p.logger,
		})
	}

	p.Register(name, &http.Client{
		Transport: &oauth2.Transport{Source: src, Base: p.base},
	})
	p.logger.Debug("registered oauth session", "service", name)
	return nil
}

// RegisterAPIKey builds an unauthenticated session that sends key with every
// request. It is enough for reading public playlists.
func (p *Provider) RegisterAPIKey(name, key string) error {
	if key == "" {
		return fmt.Errorf("%w for %s", ErrMissingCredentials, name)
	}
	p.Register(name, &http.Client{
		Transport: &transport.APIKey{Key: key, Transport: p.base},
	})
	p.logger.Debug("registered api key session", "service", name)
	return nil
}

// Session returns the client registered under name.
func (p *Provider) Session(name string) (*http.Client, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	c, ok := p.sessions[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotConfigured, name)
	}
	return c, nil
}

// refreshLogger logs every token it hands out that differs from the previous one.
type refreshLogger struct {
	name   string
	src    oauth2.TokenSource
	logger hclog.Logger

	mu   sync.Mutex
	last string
}

func (r *refreshLogger) Token() (*oauth2.Token, error) {
	tok, err := r.src.Token()
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if tok.AccessToken != r.last {
		r.last = tok.AccessToken
		r.logger.Info("tokens refreshed", "service", r.name, "expiry", tok.Expiry)
	}
	return tok, nil
}
