/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"
	"text/template"
	"time"

	"github.com/jfmyers9/spotiwise/internal/config"
	"github.com/jfmyers9/spotiwise/pkg/spotiwise"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
)

// nowCmd represents the now command
var nowCmd = &cobra.Command{
	Use:   "now",
	Short: "Display the track currently playing on Spotify",
	Long: `Query Spotify and display the currently playing track.

The output format can be customized in ~/.config/spotiwise/config.yaml
using a Go template. Available fields: .Name, .Artist, .Album, .AlbumArtist,
.Duration, .Position, .Progress, .Device

Exit codes:
  0 - Track is currently playing
  1 - No track playing, paused, or Spotify unreachable`,
	RunE: runNow,
}

func init() {
	rootCmd.AddCommand(nowCmd)

	// Add format flag to override config
	nowCmd.Flags().StringP("format", "f", "", "Output format template (overrides config)")
	// Add width flag to set fixed output width
	nowCmd.Flags().IntP("width", "w", 0, "Fixed output width (0=disabled, overrides config)")
	// Add marquee flag to enable scrolling
	nowCmd.Flags().Bool("marquee", false, "Enable marquee scrolling for long text (overrides config)")
}

// nowTrack is the data exposed to the output template.
type nowTrack struct {
	Name        string
	Artist      string
	Album       string
	AlbumArtist string
	Duration    int // seconds
	Position    int // seconds
	Progress    int // percent
	Device      string
}

func newNowTrack(pb *spotiwise.Playback) nowTrack {
	t := pb.Track
	out := nowTrack{
		Name:        t.Name,
		Artist:      t.Artist,
		Album:       t.AlbumName(),
		AlbumArtist: t.AlbumArtist(),
		Duration:    t.Duration,
		Position:    pb.ProgressMS / 1000,
		Progress:    pb.Progress(),
	}
	if pb.Device != nil {
		out.Device = pb.Device.Name
	}
	return out
}

func runNow(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Check for format flag override
	formatFlag, _ := cmd.Flags().GetString("format")
	if formatFlag != "" {
		cfg.OutputFormat = formatFlag
	}

	client, err := newSpotifyClient(ctx, cfg, commandLogger())
	if err != nil {
		return err
	}

	// Get current playback
	pb, err := client.CurrentlyPlaying(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current track: %w", err)
	}

	// If not playing, exit with code 1
	if pb == nil || pb.Track == nil || !pb.IsPlaying {
		os.Exit(1)
		return nil
	}

	// Format and print output
	output, err := formatTrack(newNowTrack(pb), cfg.OutputFormat)
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}

	// Apply width padding/marquee if requested
	width, _ := cmd.Flags().GetInt("width")
	if width == 0 {
		width = cfg.OutputWidth
	}

	marquee, _ := cmd.Flags().GetBool("marquee")
	if !marquee && !cmd.Flags().Changed("marquee") {
		// Flag not set, use config default
		marquee = cfg.MarqueeEnabled
	}

	if width > 0 {
		if marquee {
			output = marqueeText(output, width, cfg.MarqueeSpeed, cfg.MarqueeSeparator, time.Now())
		} else {
			output = padToWidth(output, width)
		}
	}

	fmt.Println(output)
	return nil
}

// formatTrack applies the template to the track data
func formatTrack(track nowTrack, templateStr string) (string, error) {
	tmpl, err := template.New("output").Parse(templateStr)
	if err != nil {
		return "", fmt.Errorf("invalid template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, track); err != nil {
		return "", fmt.Errorf("template execution failed: %w", err)
	}

	return buf.String(), nil
}

// padToWidth fits text into exactly width display columns, truncating with
// "..." or padding with spaces. A width <= 0 leaves text unchanged.
func padToWidth(text string, width int) string {
	if width <= 0 {
		return text
	}

	const ellipsis = "..."
	w := runewidth.StringWidth(text)
	switch {
	case w == width:
		return text
	case w < width:
		return text + strings.Repeat(" ", width-w)
	case width <= runewidth.StringWidth(ellipsis):
		return runewidth.Truncate(ellipsis, width, "")
	}

	// Truncate can stop short of the limit when a wide rune would straddle it.
	out := runewidth.Truncate(text, width-runewidth.StringWidth(ellipsis), "") + ellipsis
	return runewidth.FillRight(out, width)
}

// marqueeText scrolls text through a window of width columns. The offset
// is derived from the wall clock (speed runes per second) so each call,
// e.g. every tmux status refresh, shows the next step without keeping state.
// Text that already fits is padded instead.
func marqueeText(text string, width, speed int, separator string, now time.Time) string {
	if width <= 0 {
		return text
	}
	if runewidth.StringWidth(text) <= width {
		return padToWidth(text, width)
	}

	loop := []rune(text + separator + text)
	start := int(now.Unix()*int64(speed)) % len(loop)

	var b strings.Builder
	used := 0
	for i := 0; i < len(loop); i++ {
		r := loop[(start+i)%len(loop)]
		rw := runewidth.RuneWidth(r)
		if used+rw > width {
			break
		}
		b.WriteRune(r)
		used += rw
	}
	return b.String() + strings.Repeat(" ", width-used)
}
