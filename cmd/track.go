package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jfmyers9/spotiwise/internal/config"
	"github.com/jfmyers9/spotiwise/pkg/spotiwise"
	"github.com/spf13/cobra"
)

var trackCmd = &cobra.Command{
	Use:   "track [id|uri|url]",
	Short: "Show details for a track",
	Long: `Show details for a Spotify track.

Without an argument the currently playing track is shown. The track can be
given as a bare id, a spotify:track: URI, or an open.spotify.com URL.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTrack,
}

var recentCmd = &cobra.Command{
	Use:   "recent",
	Short: "List recently played tracks",
	RunE:  runRecent,
}

func init() {
	rootCmd.AddCommand(trackCmd)
	rootCmd.AddCommand(recentCmd)

	recentCmd.Flags().IntP("limit", "n", 10, "Number of tracks to list (max 50)")
}

func runTrack(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	client, err := newSpotifyClient(ctx, cfg, commandLogger())
	if err != nil {
		return err
	}

	if len(args) == 1 {
		track, err := client.Track(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to get track: %w", err)
		}
		printTrack(cmd.OutOrStdout(), track, nil)
		return nil
	}

	pb, err := client.CurrentlyPlaying(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current track: %w", err)
	}
	if pb == nil || pb.Track == nil {
		return fmt.Errorf("nothing is playing")
	}
	printTrack(cmd.OutOrStdout(), pb.Track, pb)
	return nil
}

func runRecent(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	limit, _ := cmd.Flags().GetInt("limit")
	if limit < 1 || limit > 50 {
		return fmt.Errorf("limit must be between 1 and 50")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	client, err := newSpotifyClient(ctx, cfg, commandLogger())
	if err != nil {
		return err
	}

	history, err := client.RecentlyPlayed(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to get recently played tracks: %w", err)
	}
	printHistory(cmd.OutOrStdout(), history, time.Now())
	return nil
}

// printTrack writes a human-readable summary of t. pb adds the playback
// position when non-nil.
func printTrack(w io.Writer, t *spotiwise.Track, pb *spotiwise.Playback) {
	names := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		names = append(names, a.Name)
	}

	fmt.Fprintf(w, "%s\n", t.Name)
	fmt.Fprintf(w, "  Artists:    %s\n", strings.Join(names, ", "))
	if album := t.AlbumName(); album != "" {
		fmt.Fprintf(w, "  Album:      %s (track %s)\n", album, humanize.Ordinal(t.TrackNumber))
	}
	fmt.Fprintf(w, "  Duration:   %s\n", clock(t.Duration))
	if pb != nil {
		fmt.Fprintf(w, "  Position:   %s (%d%%)\n", clock(pb.ProgressMS/1000), pb.Progress())
	}
	fmt.Fprintf(w, "  Popularity: %d/100\n", t.Popularity)
	if t.Explicit {
		fmt.Fprintf(w, "  Explicit:   yes\n")
	}
	if t.URI != "" {
		fmt.Fprintf(w, "  URI:        %s\n", t.URI)
	}
}

func printHistory(w io.Writer, history []spotiwise.PlayHistory, now time.Time) {
	for _, h := range history {
		fmt.Fprintf(w, "%-16s %s - %s\n", humanize.RelTime(h.PlayedAt, now, "ago", "from now"), h.Track.Artist, h.Track.Name)
	}
}

// clock renders seconds as m:ss.
func clock(seconds int) string {
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
