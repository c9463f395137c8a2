//go:build integration

package scrobbler

import (
	"context"
	"os"
	"testing"
	"time"
)

// liveClient builds a Client from LASTFM_* environment variables.
// Run with: go test -tags=integration -v ./internal/scrobbler/
func liveClient(t *testing.T, needSession bool) *Client {
	t.Helper()
	cfg := Config{
		APIKey:     os.Getenv("LASTFM_API_KEY"),
		APISecret:  os.Getenv("LASTFM_API_SECRET"),
		SessionKey: os.Getenv("LASTFM_SESSION_KEY"),
		Username:   os.Getenv("LASTFM_USERNAME"),
	}
	if cfg.APIKey == "" || cfg.APISecret == "" {
		t.Skip("Skipping integration test: LASTFM_API_KEY and LASTFM_API_SECRET must be set")
	}
	if needSession && cfg.SessionKey == "" {
		t.Skip("Skipping integration test: LASTFM_SESSION_KEY must be set")
	}
	client, err := New(cfg)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	return client
}

func TestIntegration_LastFmAuth(t *testing.T) {
	client := liveClient(t, false)

	token, authURL, err := client.AuthenticateWithToken(context.Background())
	if err != nil {
		t.Fatalf("Failed to get auth token: %v", err)
	}
	if token == "" || authURL == "" {
		t.Fatal("Expected non-empty token and auth URL")
	}
	t.Logf("Auth URL: %s", authURL)

	if approved := os.Getenv("LASTFM_TOKEN"); approved != "" {
		key, user, err := client.GetSession(context.Background(), approved)
		if err != nil {
			t.Fatalf("Failed to get session: %v", err)
		}
		t.Logf("Session key for %s: %s", user, key)
	}
}

func TestIntegration_NowPlayingAndScrobble(t *testing.T) {
	client := liveClient(t, true)
	ctx := context.Background()

	s := Scrobble{
		Artist:    "Test Artist",
		Track:     "Test Track",
		Album:     "Test Album",
		Duration:  3 * time.Minute,
		Timestamp: time.Now().Add(-5 * time.Minute),
	}
	if err := client.UpdateNowPlaying(ctx, s); err != nil {
		t.Fatalf("Failed to update now playing: %v", err)
	}
	if err := client.ScrobbleTrack(ctx, s); err != nil {
		t.Fatalf("Failed to scrobble track: %v", err)
	}
}

func TestIntegration_RecentTracks(t *testing.T) {
	client := liveClient(t, false)
	if client.Username() == "" {
		t.Skip("Skipping integration test: LASTFM_USERNAME must be set")
	}

	recent, err := client.RecentTracks(context.Background(), RecentTracksLimit)
	if err != nil {
		t.Fatalf("Failed to get recent tracks: %v", err)
	}
	t.Logf("Recent tracks: %v", recent)
}
