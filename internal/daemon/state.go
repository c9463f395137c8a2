package daemon

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jfmyers9/spotiwise/pkg/spotiwise"
)

const defaultPersistInterval = 30 * time.Second

// Snapshot is the part of a playback the engine needs after a restart.
type Snapshot struct {
	URI         string    `json:"uri,omitempty"`
	Name        string    `json:"name"`
	Artist      string    `json:"artist,omitempty"`
	Album       string    `json:"album,omitempty"`
	AlbumArtist string    `json:"album_artist,omitempty"`
	DurationMS  int       `json:"duration_ms"`
	ProgressMS  int       `json:"progress_ms"`
	IsPlaying   bool      `json:"is_playing"`
	Timestamp   time.Time `json:"timestamp"`
}

// snapshotOf returns nil for a playback without a track.
func snapshotOf(pb *spotiwise.Playback) *Snapshot {
	if pb == nil || pb.Track == nil {
		return nil
	}
	return &Snapshot{
		URI:         pb.Track.URI,
		Name:        pb.Track.Name,
		Artist:      pb.Track.Artist,
		Album:       pb.Track.AlbumName(),
		AlbumArtist: pb.Track.AlbumArtist(),
		DurationMS:  pb.Track.DurationMS,
		ProgressMS:  pb.ProgressMS,
		IsPlaying:   pb.IsPlaying,
		Timestamp:   pb.Timestamp,
	}
}

// Playback rebuilds the playback the snapshot was taken from.
func (s *Snapshot) Playback() *spotiwise.Playback {
	track := &spotiwise.Track{
		Object:     spotiwise.Object{URI: s.URI, Type: string(spotiwise.KindTrack)},
		Name:       s.Name,
		Artist:     s.Artist,
		DurationMS: s.DurationMS,
		Duration:   s.DurationMS / 1000,
	}
	if s.Album != "" || s.AlbumArtist != "" {
		track.Album = &spotiwise.Album{Name: s.Album, Artist: s.AlbumArtist}
	}
	return &spotiwise.Playback{
		Track:      track,
		Timestamp:  s.Timestamp,
		ProgressMS: s.ProgressMS,
		IsPlaying:  s.IsPlaying,
	}
}

// persistedState is the JSON representation of state for disk storage
type persistedState struct {
	Current      *Snapshot `json:"current,omitempty"`
	LastScrobble *Snapshot `json:"last_scrobble,omitempty"`
	Scrobbles    int       `json:"scrobbles"`
}

// State remembers the engine's current playback across restarts. Writes
// for an unchanged track are throttled to persistInterval.
type State struct {
	mu              sync.Mutex
	current         persistedState
	filePath        string
	persistInterval time.Duration
	lastPersist     time.Time
	dirty           bool
}

// NewState creates a new State instance
// If filePath is provided, attempts to restore state from disk. A corrupt
// file is reported alongside a usable empty state.
func NewState(filePath string) (*State, error) {
	s := &State{
		filePath:        filePath,
		persistInterval: defaultPersistInterval,
	}

	if filePath != "" {
		if err := s.restore(); err != nil && !os.IsNotExist(err) {
			return s, err
		}
	}
	return s, nil
}

// Current returns the restored or last recorded playback, or nil.
func (s *State) Current() *spotiwise.Playback {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current.Current == nil {
		return nil
	}
	return s.current.Current.Playback()
}

// SetCurrent records pb. A track change is written immediately; progress
// updates for the same track are throttled.
func (s *State) SetCurrent(pb *spotiwise.Playback, changed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current.Current = snapshotOf(pb)
	if changed {
		return s.persist()
	}
	return s.throttledPersist()
}

// RecordScrobble notes a successful scrobble of pb.
func (s *State) RecordScrobble(pb *spotiwise.Playback) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current.LastScrobble = snapshotOf(pb)
	s.current.Scrobbles++
	return s.persist()
}

// LastScrobble returns the most recently scrobbled track and the number of
// scrobbles recorded so far.
func (s *State) LastScrobble() (*Snapshot, int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.current.LastScrobble, s.current.Scrobbles
}

// Flush writes any throttled changes.
func (s *State) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dirty {
		return nil
	}
	return s.persist()
}

// throttledPersist must be called with the lock held.
func (s *State) throttledPersist() error {
	if time.Since(s.lastPersist) < s.persistInterval {
		s.dirty = true
		return nil
	}
	return s.persist()
}

// persist saves the current state to disk
// Must be called with lock held
func (s *State) persist() error {
	if s.filePath == "" {
		return nil
	}

	data, err := json.MarshalIndent(s.current, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.filePath), 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	// Write atomically via temp file + rename
	tmpPath := s.filePath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write state: %w", err)
	}
	if err := os.Rename(tmpPath, s.filePath); err != nil {
		return fmt.Errorf("failed to replace state file: %w", err)
	}

	s.lastPersist = time.Now()
	s.dirty = false
	return nil
}

func (s *State) restore() error {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return err
	}

	var ps persistedState
	if err := json.Unmarshal(data, &ps); err != nil {
		return fmt.Errorf("failed to decode state file %s: %w", s.filePath, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = ps
	return nil
}
