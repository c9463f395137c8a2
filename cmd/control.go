package cmd

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/jfmyers9/spotiwise/internal/config"
	"github.com/jfmyers9/spotiwise/pkg/spotiwise"
	"github.com/spf13/cobra"
	spotifyapi "github.com/zmb3/spotify/v2"
)

// player is the subset of the Spotify player API the control commands use.
type player interface {
	Play(ctx context.Context) error
	Pause(ctx context.Context) error
	Next(ctx context.Context) error
	Previous(ctx context.Context) error
	Shuffle(ctx context.Context, shuffle bool) error
	Volume(ctx context.Context, percent int) error
}

// playerState reports the current player state; nil means no active device.
type playerState interface {
	CurrentPlayback(ctx context.Context) (*spotiwise.Playback, error)
}

// controller runs one control action.
type controller struct {
	player player
	state  playerState
	out    io.Writer
}

// playCmd represents the play command
var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Resume playback on Spotify",
	Long:  `Resume playback on the active Spotify device.`,
	RunE:  controlAction((*controller).play),
}

// pauseCmd represents the pause command
var pauseCmd = &cobra.Command{
	Use:   "pause",
	Short: "Pause playback on Spotify",
	Long:  `Pause playback on the active Spotify device.`,
	RunE:  controlAction((*controller).pause),
}

// playpauseCmd represents the playpause command
var playpauseCmd = &cobra.Command{
	Use:   "playpause",
	Short: "Toggle play/pause on Spotify",
	Long:  `Toggle between play and pause on the active Spotify device. If playing, pauses. If paused, resumes.`,
	RunE:  controlAction((*controller).playPause),
}

// nextCmd represents the next command
var nextCmd = &cobra.Command{
	Use:   "next",
	Short: "Skip to the next track",
	RunE:  controlAction((*controller).next),
}

// prevCmd represents the prev command
var prevCmd = &cobra.Command{
	Use:   "prev",
	Short: "Go to the previous track",
	RunE:  controlAction((*controller).previous),
}

// shuffleCmd represents the shuffle command
var shuffleCmd = &cobra.Command{
	Use:   "shuffle [on|off]",
	Short: "Toggle or set shuffle mode",
	Long: `Control shuffle mode on the active Spotify device.

Without arguments, toggles shuffle on/off.
With 'on' or 'off' argument, explicitly sets shuffle state.`,
	Args: cobra.MaximumNArgs(1),
	RunE: controlAction((*controller).shuffle),
}

// volumeCmd represents the volume command
var volumeCmd = &cobra.Command{
	Use:   "volume [0-100]",
	Short: "Show or set the playback volume",
	Long: `Show or set the volume of the active Spotify device.

Volume level must be between 0 (muted) and 100 (maximum).
Without arguments, prints the current volume.`,
	Args: cobra.MaximumNArgs(1),
	RunE: controlAction((*controller).volume),
}

func init() {
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(pauseCmd)
	rootCmd.AddCommand(playpauseCmd)
	rootCmd.AddCommand(nextCmd)
	rootCmd.AddCommand(prevCmd)
	rootCmd.AddCommand(shuffleCmd)
	rootCmd.AddCommand(volumeCmd)
}

// controlAction builds the clients and runs action with a short timeout.
func controlAction(action func(*controller, context.Context, []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		logger := commandLogger()

		httpClient, err := spotifyHTTPClient(ctx, cfg, logger)
		if err != nil {
			return err
		}
		state, err := newSpotifyClient(ctx, cfg, logger)
		if err != nil {
			return err
		}

		c := &controller{
			player: spotifyapi.New(httpClient),
			state:  state,
			out:    cmd.OutOrStdout(),
		}
		return action(c, ctx, args)
	}
}

func (c *controller) play(ctx context.Context, _ []string) error {
	if err := c.player.Play(ctx); err != nil {
		return fmt.Errorf("failed to play: %w", err)
	}
	return nil
}

func (c *controller) pause(ctx context.Context, _ []string) error {
	if err := c.player.Pause(ctx); err != nil {
		return fmt.Errorf("failed to pause: %w", err)
	}
	return nil
}

func (c *controller) playPause(ctx context.Context, args []string) error {
	pb, err := c.current(ctx)
	if err != nil {
		return err
	}
	if pb.IsPlaying {
		return c.pause(ctx, args)
	}
	return c.play(ctx, args)
}

func (c *controller) next(ctx context.Context, _ []string) error {
	if err := c.player.Next(ctx); err != nil {
		return fmt.Errorf("failed to skip to next track: %w", err)
	}
	return nil
}

func (c *controller) previous(ctx context.Context, _ []string) error {
	if err := c.player.Previous(ctx); err != nil {
		return fmt.Errorf("failed to go to previous track: %w", err)
	}
	return nil
}

func (c *controller) shuffle(ctx context.Context, args []string) error {
	var enabled bool
	if len(args) == 0 {
		pb, err := c.current(ctx)
		if err != nil {
			return err
		}
		enabled = !pb.ShuffleState
	} else {
		switch args[0] {
		case "on":
			enabled = true
		case "off":
			enabled = false
		default:
			return fmt.Errorf("invalid shuffle argument: %s (must be 'on' or 'off')", args[0])
		}
	}

	if err := c.player.Shuffle(ctx, enabled); err != nil {
		return fmt.Errorf("failed to set shuffle: %w", err)
	}
	state := "off"
	if enabled {
		state = "on"
	}
	fmt.Fprintf(c.out, "Shuffle %s\n", state)
	return nil
}

func (c *controller) volume(ctx context.Context, args []string) error {
	if len(args) == 0 {
		pb, err := c.current(ctx)
		if err != nil {
			return err
		}
		if pb.Device == nil {
			return fmt.Errorf("no active device")
		}
		fmt.Fprintf(c.out, "%d\n", pb.Device.VolumePercent)
		return nil
	}

	level, err := strconv.Atoi(args[0])
	if err != nil || level < 0 || level > 100 {
		return fmt.Errorf("invalid volume level: %s (must be a number 0-100)", args[0])
	}

	if err := c.player.Volume(ctx, level); err != nil {
		return fmt.Errorf("failed to set volume: %w", err)
	}
	return nil
}

// current returns the player state or an error when no device is active.
func (c *controller) current(ctx context.Context) (*spotiwise.Playback, error) {
	pb, err := c.state.CurrentPlayback(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get player state: %w", err)
	}
	if pb == nil {
		return nil, fmt.Errorf("no active device")
	}
	return pb, nil
}
