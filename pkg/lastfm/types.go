package lastfm

import "time"

// Track is a track as sent to track.updateNowPlaying and track.scrobble.
type Track struct {
	Artist      string // Required
	Track       string // Required
	Album       string
	AlbumArtist string // Only sent when set
	Duration    int    // Seconds
	TrackNumber int
	MBTrackID   string
}

// Scrobble is a Track played at Timestamp.
type Scrobble struct {
	Track     Track
	Timestamp time.Time
}

// Token is an unauthorized request token from auth.getToken.
type Token struct {
	Token string
}

// Session is the result of auth.getSession.
type Session struct {
	Key        string
	Username   string
	Subscriber bool
}

// IgnoredMessage explains why Last.fm ignored a submission. Code 0 means
// it was accepted.
type IgnoredMessage struct {
	Code int
	Text string
}

// NowPlayingResponse is the response to track.updateNowPlaying.
type NowPlayingResponse struct {
	Artist         string
	Track          string
	Album          string
	AlbumArtist    string
	IgnoredMessage IgnoredMessage
}

// ScrobbleResult is the per-scrobble part of a track.scrobble response.
type ScrobbleResult struct {
	Artist         string
	Track          string
	Album          string
	Timestamp      int64
	IgnoredMessage IgnoredMessage
}

// ScrobbleResponse is the response to track.scrobble.
type ScrobbleResponse struct {
	Accepted  int
	Ignored   int
	Scrobbles []ScrobbleResult
}

// RecentTrack is an entry of user.getRecentTracks. NowPlaying entries have
// no PlayedAt.
type RecentTrack struct {
	Artist     string
	Name       string
	Album      string
	URL        string
	NowPlaying bool
	PlayedAt   time.Time
}
