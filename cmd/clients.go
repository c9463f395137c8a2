package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/jfmyers9/spotiwise/internal/config"
	"github.com/jfmyers9/spotiwise/internal/scrobbler"
	"github.com/jfmyers9/spotiwise/internal/spotifyauth"
	"github.com/jfmyers9/spotiwise/pkg/spotify"
	"github.com/jfmyers9/spotiwise/pkg/spotiwise"
	"github.com/rs/zerolog"
)

// debugLogger adapts zerolog to the Debugf interface the API packages accept.
type debugLogger struct {
	logger zerolog.Logger
}

func (l debugLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug().Msgf(format, args...)
}

// commandLogger is used by the short-lived commands, which only surface
// warnings.
func commandLogger() zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(zerolog.WarnLevel).
		With().
		Timestamp().
		Logger()
}

// spotifyHTTPClient returns an OAuth-authorized client using the stored token.
func spotifyHTTPClient(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*http.Client, error) {
	auth, err := spotifyauth.New(spotifyauth.Config{
		ClientID:     cfg.Spotify.ClientID,
		ClientSecret: cfg.Spotify.ClientSecret,
		RedirectURL:  cfg.Spotify.RedirectURL,
		TokenFile:    cfg.Spotify.TokenFile,
	}, logger)
	if err != nil {
		return nil, err
	}
	return auth.HTTPClient(ctx)
}

// newSpotifyClient builds the entity client used by the daemon and the
// read-only commands.
func newSpotifyClient(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*spotiwise.Client, error) {
	httpClient, err := spotifyHTTPClient(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	api, err := spotify.NewClient(spotify.Config{
		HTTPClient:    httpClient,
		Retries:       cfg.Spotify.Retries,
		BackoffFactor: cfg.Spotify.BackoffFactor,
		Timeout:       cfg.Spotify.Timeout,
		Language:      cfg.Spotify.Language,
		Logger:        debugLogger{logger: logger.With().Str("component", "spotify").Logger()},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create spotify client: %w", err)
	}

	builder := spotiwise.NewBuilder(
		spotiwise.WithFetcher(api),
		spotiwise.WithLogger(logger.With().Str("component", "builder").Logger()),
	)
	return spotiwise.NewClient(api, spotiwise.WithBuilder(builder), spotiwise.WithMarket(cfg.Spotify.Market)), nil
}

// newScrobbler builds the Last.fm client from the configured session.
func newScrobbler(cfg *config.Config, logger zerolog.Logger) (*scrobbler.Client, error) {
	if cfg.LastFM.APIKey == "" || cfg.LastFM.APISecret == "" || cfg.LastFM.SessionKey == "" {
		return nil, fmt.Errorf("Last.fm credentials not configured. Run 'spotiwise auth lastfm' first")
	}
	if cfg.LastFM.Username == "" {
		return nil, fmt.Errorf("Last.fm username not configured. Run 'spotiwise auth lastfm' again or set lastfm.username")
	}
	return scrobbler.New(scrobbler.Config{
		APIKey:     cfg.LastFM.APIKey,
		APISecret:  cfg.LastFM.APISecret,
		SessionKey: cfg.LastFM.SessionKey,
		Username:   cfg.LastFM.Username,
		Logger:     debugLogger{logger: logger.With().Str("component", "lastfm").Logger()},
	})
}
