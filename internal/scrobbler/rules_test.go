package scrobbler

import (
	"testing"
	"time"
)

func TestShouldScrobble(t *testing.T) {
	tests := []struct {
		name     string
		progress int
		want     bool
	}{
		{name: "not started", progress: 0, want: false},
		{name: "half played", progress: 50, want: false},
		{name: "exactly at threshold", progress: 70, want: false},
		{name: "just past threshold", progress: 71, want: true},
		{name: "eighty percent", progress: 80, want: true},
		{name: "fully played", progress: 100, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShouldScrobble(tt.progress); got != tt.want {
				t.Errorf("ShouldScrobble(%d) = %v, want %v", tt.progress, got, tt.want)
			}
		})
	}
}

func TestIsExpired(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		timestamp time.Time
		want      bool
	}{
		{name: "just now", timestamp: now, want: false},
		{name: "one week old", timestamp: now.Add(-7 * 24 * time.Hour), want: false},
		{name: "exactly two weeks", timestamp: now.Add(-MaxScrobbleAge), want: false},
		{name: "older than two weeks", timestamp: now.Add(-MaxScrobbleAge - time.Minute), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsExpired(tt.timestamp, now); got != tt.want {
				t.Errorf("IsExpired(%v) = %v, want %v", tt.timestamp, got, tt.want)
			}
		})
	}
}
