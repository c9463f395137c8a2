package cmd

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/jfmyers9/spotiwise/pkg/spotiwise"
)

func TestClock(t *testing.T) {
	tests := map[int]string{
		0:   "0:00",
		9:   "0:09",
		61:  "1:01",
		600: "10:00",
	}
	for seconds, want := range tests {
		if got := clock(seconds); got != want {
			t.Errorf("clock(%d) = %q, expected %q", seconds, got, want)
		}
	}
}

func TestPrintTrack(t *testing.T) {
	track := &spotiwise.Track{
		Object:      spotiwise.Object{URI: "spotify:track:t1"},
		Name:        "Song",
		Artists:     []*spotiwise.Artist{{Name: "First"}, {Name: "Second"}},
		Album:       &spotiwise.Album{Name: "Record"},
		TrackNumber: 3,
		Duration:    185,
		Popularity:  42,
	}
	pb := &spotiwise.Playback{Track: track, ProgressMS: 92000}
	track.DurationMS = 185000

	var buf bytes.Buffer
	printTrack(&buf, track, pb)
	out := buf.String()

	for _, want := range []string{
		"Song\n",
		"Artists:    First, Second",
		"Album:      Record (track 3rd)",
		"Duration:   3:05",
		"Position:   1:32 (50%)",
		"Popularity: 42/100",
		"URI:        spotify:track:t1",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Explicit") {
		t.Errorf("non-explicit track should not print Explicit:\n%s", out)
	}
}

func TestPrintHistory(t *testing.T) {
	now := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	history := []spotiwise.PlayHistory{
		{Track: &spotiwise.Track{Name: "Song", Artist: "Artist"}, PlayedAt: now.Add(-2 * time.Hour)},
	}

	var buf bytes.Buffer
	printHistory(&buf, history, now)

	out := buf.String()
	if !strings.Contains(out, "2 hours ago") || !strings.Contains(out, "Artist - Song") {
		t.Errorf("unexpected history output %q", out)
	}
}

func TestExportPlaylist(t *testing.T) {
	b := spotiwise.NewBuilder()
	item, err := b.Item([]byte(`{
		"added_at": "2024-01-15T10:00:00Z",
		"added_by": {"id": "u9", "display_name": "Y"},
		"track": {"id": "t1", "name": "X", "artists": [{"name": "Z"}]}
	}`))
	if err != nil {
		t.Fatalf("Item: %v", err)
	}

	var buf bytes.Buffer
	if err := exportPlaylist(&buf, &spotiwise.Playlist{ID: "p1", Items: []*spotiwise.Item{item}}); err != nil {
		t.Fatalf("exportPlaylist: %v", err)
	}
	want := "id,name,artist,added_at,added_by\nt1,X,Z,01/15/2024,Y\n"
	if buf.String() != want {
		t.Errorf("expected %q, got %q", want, buf.String())
	}

	buf.Reset()
	if err := exportPlaylist(&buf, &spotiwise.Playlist{ID: "empty"}); err != nil {
		t.Fatalf("exportPlaylist: %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("expected no output for an empty playlist, got %q", buf.String())
	}
}

func TestPrintPlaylists(t *testing.T) {
	var buf bytes.Buffer
	printPlaylists(&buf, []*spotiwise.Playlist{
		{ID: "p1", Name: "Mix", Owner: &spotiwise.User{ID: "u1", DisplayName: "Owner"}},
	})

	out := buf.String()
	for _, want := range []string{"p1", "Mix", "Owner", "0 tracks"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q: %q", want, out)
		}
	}
}
