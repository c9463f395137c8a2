package daemon

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestState(t *testing.T, interval time.Duration) *State {
	t.Helper()
	fp := filepath.Join(t.TempDir(), "state.json")
	s, err := NewState(fp)
	if err != nil {
		t.Fatalf("NewState: %v", err)
	}
	s.persistInterval = interval
	return s
}

func TestThrottledPersist_SkipsWhenIntervalNotElapsed(t *testing.T) {
	s := newTestState(t, 1*time.Hour)

	if err := s.SetCurrent(playback("Song A", 10, true), true); err != nil {
		t.Fatalf("SetCurrent: %v", err)
	}
	info1, err := os.Stat(s.filePath)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}

	// Same track: throttled.
	if err := s.SetCurrent(playback("Song A", 20, true), false); err != nil {
		t.Fatalf("SetCurrent: %v", err)
	}

	info2, err := os.Stat(s.filePath)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info2.ModTime() != info1.ModTime() {
		t.Error("throttledPersist wrote to disk when interval had not elapsed")
	}

	s.mu.Lock()
	dirty := s.dirty
	s.mu.Unlock()
	if !dirty {
		t.Error("expected dirty flag to be true after throttledPersist skip")
	}
}

func TestThrottledPersist_WritesWhenIntervalElapsed(t *testing.T) {
	s := newTestState(t, 10*time.Millisecond)

	if err := s.SetCurrent(playback("Song B", 10, true), true); err != nil {
		t.Fatalf("SetCurrent: %v", err)
	}

	time.Sleep(20 * time.Millisecond)

	if err := s.SetCurrent(playback("Song B", 20, true), false); err != nil {
		t.Fatalf("SetCurrent: %v", err)
	}

	s.mu.Lock()
	dirty := s.dirty
	s.mu.Unlock()
	if dirty {
		t.Error("expected dirty flag to be false after throttledPersist write")
	}
}

func TestFlush_WritesWhenDirty(t *testing.T) {
	s := newTestState(t, 1*time.Hour)

	if err := s.SetCurrent(playback("Song C", 10, true), true); err != nil {
		t.Fatalf("SetCurrent: %v", err)
	}
	before, err := os.ReadFile(s.filePath)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	if err := s.SetCurrent(playback("Song C", 60, true), false); err != nil {
		t.Fatalf("SetCurrent: %v", err)
	}
	if err := s.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	after, err := os.ReadFile(s.filePath)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(before) == string(after) {
		t.Error("Flush did not write updated state to disk")
	}

	s.mu.Lock()
	dirty := s.dirty
	s.mu.Unlock()
	if dirty {
		t.Error("expected dirty flag to be false after Flush")
	}
}

func TestFlush_NoOpWhenClean(t *testing.T) {
	s := newTestState(t, 1*time.Hour)

	if err := s.SetCurrent(playback("Song D", 10, true), true); err != nil {
		t.Fatalf("SetCurrent: %v", err)
	}
	info1, err := os.Stat(s.filePath)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}

	if err := s.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	info2, err := os.Stat(s.filePath)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info2.ModTime() != info1.ModTime() {
		t.Error("Flush wrote to disk when state was clean")
	}
}

func TestState_RoundTrip(t *testing.T) {
	s := newTestState(t, time.Hour)
	if err := s.SetCurrent(playback("Song E", 45, true), true); err != nil {
		t.Fatalf("SetCurrent: %v", err)
	}

	restored, err := NewState(s.filePath)
	if err != nil {
		t.Fatalf("NewState: %v", err)
	}
	pb := restored.Current()
	if pb == nil {
		t.Fatal("expected a restored playback")
	}
	if pb.TrackName() != "Song E" || pb.Progress() != 45 || !pb.IsPlaying {
		t.Errorf("unexpected restored playback %+v", pb)
	}
	if pb.Track.Artist != "Artist" || pb.Track.AlbumName() != "Album" || pb.Track.AlbumArtist() != "Album Artist" {
		t.Errorf("unexpected restored track %+v", pb.Track)
	}
	if pb.Track.Duration != 200 {
		t.Errorf("expected duration 200, got %d", pb.Track.Duration)
	}
	if !pb.Timestamp.Equal(snapshotTime) {
		t.Errorf("expected timestamp %v, got %v", snapshotTime, pb.Timestamp)
	}
}

func TestNewState_CorruptFile(t *testing.T) {
	fp := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(fp, []byte("{not json"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	s, err := NewState(fp)
	if err == nil {
		t.Fatal("expected an error for a corrupt state file")
	}
	if s == nil || s.Current() != nil {
		t.Error("expected a usable empty state")
	}
}

func TestNewState_NoFile(t *testing.T) {
	s, err := NewState("")
	if err != nil {
		t.Fatalf("NewState: %v", err)
	}
	if err := s.SetCurrent(playback("Song F", 1, true), true); err != nil {
		t.Fatalf("SetCurrent without a file should be a no-op, got %v", err)
	}
}
