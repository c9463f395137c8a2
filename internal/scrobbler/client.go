package scrobbler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jfmyers9/spotiwise/pkg/lastfm"
)

// ErrNoUsername is returned by the history lookups when no Last.fm user
// name has been configured.
var ErrNoUsername = errors.New("scrobbler: last.fm username is not configured")

// ErrIgnored matches scrobbles Last.fm received but refused, e.g. for an
// ignored artist or a timestamp out of range. Resubmitting them fails the
// same way.
var ErrIgnored = errors.New("scrobble was ignored by Last.fm")

// IgnoredError carries Last.fm's reason for ignoring one scrobble.
type IgnoredError struct {
	Code    int
	Message string
}

func (e *IgnoredError) Error() string {
	if e.Message == "" {
		return ErrIgnored.Error()
	}
	return fmt.Sprintf("%s: %s (code %d)", ErrIgnored, e.Message, e.Code)
}

func (e *IgnoredError) Is(target error) bool { return target == ErrIgnored }

// BatchResult is Last.fm's verdict on one scrobble of a batch. Ignored is
// nil when the scrobble was accepted.
type BatchResult struct {
	Ignored *IgnoredError
}

// Accepted reports whether Last.fm recorded the scrobble.
func (r BatchResult) Accepted() bool { return r.Ignored == nil }

// Config configures a Client.
type Config struct {
	APIKey     string
	APISecret  string
	SessionKey string
	Username   string

	// Optional
	HTTPClient *http.Client
	BaseURL    string
	Logger     lastfm.Logger
}

// Client wraps the Last.fm API client
type Client struct {
	client   *lastfm.Client
	username string
}

// Scrobble represents a single scrobble to submit
type Scrobble struct {
	Artist      string
	Track       string
	Album       string
	AlbumArtist string
	Timestamp   time.Time
	Duration    time.Duration
}

func (s Scrobble) track() lastfm.Track {
	t := lastfm.Track{
		Artist:      s.Artist,
		Track:       s.Track,
		Album:       s.Album,
		AlbumArtist: s.AlbumArtist,
	}
	if s.Duration > 0 {
		t.Duration = int(s.Duration.Seconds())
	}
	return t
}

// New creates a new Last.fm client
func New(cfg Config) (*Client, error) {
	client, err := lastfm.NewClient(lastfm.Config{
		APIKey:     cfg.APIKey,
		APISecret:  cfg.APISecret,
		SessionKey: cfg.SessionKey,
		HTTPClient: cfg.HTTPClient,
		BaseURL:    cfg.BaseURL,
		Logger:     cfg.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create lastfm client: %w", err)
	}
	return &Client{client: client, username: cfg.Username}, nil
}

// AuthenticateWithToken initiates the authentication flow
// Returns the auth URL that the user should visit
func (c *Client) AuthenticateWithToken(ctx context.Context) (token string, authURL string, err error) {
	tokenResp, err := c.client.Auth().GetToken(ctx)
	if err != nil {
		return "", "", fmt.Errorf("failed to get auth token: %w", err)
	}
	return tokenResp.Token, c.client.Auth().GetAuthURL(tokenResp.Token), nil
}

// GetSession completes the authentication flow after user authorization.
// The returned session key and user name should be stored for future use.
func (c *Client) GetSession(ctx context.Context, token string) (sessionKey, username string, err error) {
	session, err := c.client.Auth().GetSession(ctx, token)
	if err != nil {
		return "", "", fmt.Errorf("failed to login with token: %w", err)
	}
	if session.Key == "" {
		return "", "", fmt.Errorf("received empty session key")
	}

	c.client.SetSessionKey(session.Key)
	if c.username == "" {
		c.username = session.Username
	}
	return session.Key, session.Username, nil
}

// UpdateNowPlaying reports s as the track currently playing. Timestamp is
// ignored.
func (c *Client) UpdateNowPlaying(ctx context.Context, s Scrobble) error {
	if _, err := c.client.Scrobble().UpdateNowPlaying(ctx, s.track()); err != nil {
		return fmt.Errorf("failed to update now playing: %w", err)
	}
	return nil
}

// ScrobbleTrack submits a single scrobble. A scrobble Last.fm refuses is
// reported as an *IgnoredError.
func (c *Client) ScrobbleTrack(ctx context.Context, s Scrobble) error {
	resp, err := c.client.Scrobble().Scrobble(ctx, s.track(), s.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to scrobble track: %w", err)
	}

	if results := attribute(resp, 1); !results[0].Accepted() {
		return results[0].Ignored
	}
	return nil
}

// ScrobbleBatch submits up to lastfm.MaxBatchSize scrobbles in one request.
// On success the results line up with scrobbles by index. An error means
// nothing can be said about any of them.
func (c *Client) ScrobbleBatch(ctx context.Context, scrobbles []Scrobble) ([]BatchResult, error) {
	if len(scrobbles) == 0 {
		return nil, nil
	}

	if len(scrobbles) > lastfm.MaxBatchSize {
		return nil, fmt.Errorf("cannot scrobble more than %d tracks at once (got %d)", lastfm.MaxBatchSize, len(scrobbles))
	}

	lfmScrobbles := make([]lastfm.Scrobble, len(scrobbles))
	for i, s := range scrobbles {
		lfmScrobbles[i] = lastfm.Scrobble{Track: s.track(), Timestamp: s.Timestamp}
	}

	resp, err := c.client.Scrobble().ScrobbleBatch(ctx, lfmScrobbles)
	if err != nil {
		return nil, fmt.Errorf("failed to scrobble batch: %w", err)
	}
	return attribute(resp, len(scrobbles)), nil
}

// attribute splits a track.scrobble response into n per-scrobble results.
// Last.fm echoes one <scrobble> per submission in order; when it does not,
// the ignored count cannot be pinned on specific scrobbles and every one
// is treated as ignored so that none is sent twice.
func attribute(resp *lastfm.ScrobbleResponse, n int) []BatchResult {
	results := make([]BatchResult, n)
	if resp.Ignored == 0 {
		return results
	}

	if len(resp.Scrobbles) == n {
		ignored := 0
		for i, r := range resp.Scrobbles {
			if r.IgnoredMessage.Code != 0 {
				results[i].Ignored = &IgnoredError{Code: r.IgnoredMessage.Code, Message: r.IgnoredMessage.Text}
				ignored++
			}
		}
		if ignored == resp.Ignored {
			return results
		}
	}

	msg := fmt.Sprintf("%d of %d scrobbles ignored, response did not say which", resp.Ignored, n)
	if n == 1 && len(resp.Scrobbles) == 1 {
		msg = resp.Scrobbles[0].IgnoredMessage.Text
	}
	for i := range results {
		results[i].Ignored = &IgnoredError{Message: msg}
	}
	return results
}

// NowPlaying returns the title Last.fm reports as currently playing for the
// configured user, or "" when nothing is reported.
func (c *Client) NowPlaying(ctx context.Context) (string, error) {
	if c.username == "" {
		return "", ErrNoUsername
	}
	t, err := c.client.User().GetNowPlaying(ctx, c.username)
	if err != nil {
		return "", fmt.Errorf("failed to get now playing: %w", err)
	}
	if t == nil {
		return "", nil
	}
	return t.Name, nil
}

// RecentTracks returns the titles of the user's limit most recent
// scrobbles, newest first.
func (c *Client) RecentTracks(ctx context.Context, limit int) ([]string, error) {
	if c.username == "" {
		return nil, ErrNoUsername
	}
	tracks, err := c.client.User().GetRecentTracks(ctx, c.username, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent tracks: %w", err)
	}
	titles := make([]string, len(tracks))
	for i, t := range tracks {
		titles[i] = t.Name
	}
	return titles, nil
}

// IsAuthenticated checks if the client has a valid session
func (c *Client) IsAuthenticated() bool {
	return c.client.SessionKey() != ""
}

// SessionKey returns the current session key
func (c *Client) SessionKey() string {
	return c.client.SessionKey()
}

// Username returns the Last.fm user whose history is read.
func (c *Client) Username() string {
	return c.username
}
