// Package spotifyauth obtains and stores the Spotify OAuth token used by
// every command that talks to the Web API.
package spotifyauth

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
)

// DefaultRedirectURL must be registered in the Spotify app settings.
const DefaultRedirectURL = "http://127.0.0.1:8888/callback"

// ErrNoToken means no login has been completed yet.
var ErrNoToken = errors.New("spotifyauth: not logged in, run `spotiwise auth spotify`")

// Scopes requested at login.
var Scopes = []string{
	spotifyauth.ScopeUserReadPrivate,
	spotifyauth.ScopeUserReadCurrentlyPlaying,
	spotifyauth.ScopeUserReadPlaybackState,
	spotifyauth.ScopeUserModifyPlaybackState,
	spotifyauth.ScopeUserReadRecentlyPlayed,
	spotifyauth.ScopePlaylistReadPrivate,
	spotifyauth.ScopePlaylistReadCollaborative,
}

// Config configures an Authenticator.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string // defaults to DefaultRedirectURL
	TokenFile    string // defaults to ~/.config/spotiwise/spotify_token.json
}

// Authenticator runs the authorization-code flow and hands out HTTP clients
// that refresh and re-save the token as needed.
type Authenticator struct {
	auth        *spotifyauth.Authenticator
	storage     *TokenStorage
	redirectURL string
	logger      zerolog.Logger
}

// New creates an Authenticator.
func New(cfg Config, logger zerolog.Logger) (*Authenticator, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, errors.New("spotifyauth: spotify.client_id and spotify.client_secret are required")
	}
	redirect := cfg.RedirectURL
	if redirect == "" {
		redirect = DefaultRedirectURL
	}

	storage, err := NewTokenStorage(cfg.TokenFile)
	if err != nil {
		return nil, err
	}

	return &Authenticator{
		auth: spotifyauth.New(
			spotifyauth.WithRedirectURL(redirect),
			spotifyauth.WithScopes(Scopes...),
			spotifyauth.WithClientID(cfg.ClientID),
			spotifyauth.WithClientSecret(cfg.ClientSecret),
		),
		storage:     storage,
		redirectURL: redirect,
		logger:      logger.With().Str("component", "spotifyauth").Logger(),
	}, nil
}

// Storage returns the token storage.
func (a *Authenticator) Storage() *TokenStorage { return a.storage }

// Login serves the redirect URL locally, passes the authorization URL to
// prompt, and waits for Spotify to call back. The token is saved before it
// is returned.
func (a *Authenticator) Login(ctx context.Context, prompt func(authURL string)) (*oauth2.Token, error) {
	u, err := url.Parse(a.redirectURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redirect url %q: %w", a.redirectURL, err)
	}

	listener, err := net.Listen("tcp", u.Host)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", u.Host, err)
	}

	state := uuid.NewString()
	results := make(chan callbackResult, 1)
	server := &http.Server{
		Handler:           a.callbackRouter(u.Path, state, results),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() { _ = server.Serve(listener) }()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	prompt(a.auth.AuthURL(state))

	select {
	case res := <-results:
		if res.err != nil {
			return nil, res.err
		}
		if err := a.storage.Save(res.token); err != nil {
			return nil, err
		}
		a.logger.Info().Str("path", a.storage.Path()).Msg("Saved Spotify token")
		return res.token, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// HTTPClient returns a client authorized with the stored token. Refreshed
// tokens are written back to storage.
func (a *Authenticator) HTTPClient(ctx context.Context) (*http.Client, error) {
	token, err := a.storage.Load()
	if err != nil {
		return nil, err
	}
	if token == nil {
		return nil, ErrNoToken
	}

	src := &savingSource{ctx: ctx, auth: a.auth, storage: a.storage, token: token, logger: a.logger}
	return oauth2.NewClient(ctx, oauth2.ReuseTokenSource(token, src)), nil
}

// savingSource refreshes through the authenticator and persists the result.
type savingSource struct {
	ctx     context.Context
	auth    *spotifyauth.Authenticator
	storage *TokenStorage
	logger  zerolog.Logger

	mu    sync.Mutex
	token *oauth2.Token
}

func (s *savingSource) Token() (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token.Valid() {
		return s.token, nil
	}

	fresh, err := s.auth.RefreshToken(s.ctx, s.token)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh spotify token: %w", err)
	}
	if fresh.RefreshToken == "" {
		fresh.RefreshToken = s.token.RefreshToken
	}
	s.token = fresh

	if err := s.storage.Save(fresh); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to save refreshed token")
	} else {
		s.logger.Debug().Time("expiry", fresh.Expiry).Msg("Refreshed Spotify token")
	}
	return fresh, nil
}
