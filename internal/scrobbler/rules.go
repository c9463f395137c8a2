package scrobbler

import (
	"time"
)

// Scrobbling policy constants
const (
	// ProgressThreshold is the percentage of a track that must have been
	// played, strictly exceeded, before it is scrobbled.
	ProgressThreshold = 70

	// VerificationDelay is how long after a track change the previous
	// track is verified and scrobbled.
	VerificationDelay = 30 * time.Second

	// RecentTracksLimit is how many Last.fm scrobbles are inspected when
	// checking for a duplicate.
	RecentTracksLimit = 2

	// MaxScrobbleAge is the oldest timestamp Last.fm accepts (2 weeks).
	MaxScrobbleAge = 14 * 24 * time.Hour
)

// ShouldScrobble reports whether a track played to progress percent
// qualifies for a scrobble.
func ShouldScrobble(progress int) bool {
	return progress > ProgressThreshold
}

// IsExpired reports whether a scrobble stamped at timestamp is too old for
// Last.fm to accept at now.
func IsExpired(timestamp, now time.Time) bool {
	return now.Sub(timestamp) > MaxScrobbleAge
}
