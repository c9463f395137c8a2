package spotiwise

import (
	"math"
	"time"
)

// PlaybackContext is the playlist, album or artist a playback was started from.
type PlaybackContext struct {
	Type         string            `json:"type"`
	Href         string            `json:"href"`
	URI          string            `json:"uri"`
	ExternalURLs map[string]string `json:"external_urls"`
}

func (c *PlaybackContext) String() string { return c.URI }

// Device is the device a playback is running on.
type Device struct {
	ID            string `json:"id"`
	IsActive      bool   `json:"is_active"`
	IsRestricted  bool   `json:"is_restricted"`
	Name          string `json:"name"`
	Type          string `json:"type"`
	VolumePercent int    `json:"volume_percent"`
}

// Playback is a snapshot of what the listener is playing.
type Playback struct {
	Track        *Track
	Timestamp    time.Time
	ProgressMS   int
	IsPlaying    bool
	Context      *PlaybackContext
	Device       *Device
	ShuffleState bool
	RepeatState  string
}

var playbackKeys = []string{"track", "progress_ms", "is_playing", "context"}

// Progress returns the played percentage of the track, rounded half to even.
// It is 0 when there is no track or the track has no duration.
func (p *Playback) Progress() int {
	if p.Track == nil || p.Track.DurationMS == 0 {
		return 0
	}
	return int(math.RoundToEven(float64(p.ProgressMS) / float64(p.Track.DurationMS) * 100))
}

// EpochTimestamp returns Timestamp in whole seconds since the Unix epoch.
func (p *Playback) EpochTimestamp() int64 {
	return p.Timestamp.Unix()
}

// TrackName returns the track name, or "" when nothing is loaded.
func (p *Playback) TrackName() string {
	if p == nil || p.Track == nil {
		return ""
	}
	return p.Track.Name
}

func (p *Playback) String() string { return repr(p) }

func (p *Playback) kindName() string       { return "Playback" }
func (p *Playback) displayKeys() []string { return playbackKeys }

func (p *Playback) displayValue(key string) interface{} {
	switch key {
	case "track":
		return p.Track
	case "progress_ms":
		return p.ProgressMS
	case "is_playing":
		return p.IsPlaying
	case "context":
		return p.Context
	}
	return nil
}
