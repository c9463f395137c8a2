package daemon

import (
	"context"
	"time"

	"github.com/jfmyers9/spotiwise/pkg/spotiwise"
	"github.com/rs/zerolog"
)

// Player reports what the listener is playing.
type Player interface {
	CurrentlyPlaying(ctx context.Context) (*spotiwise.Playback, error)
}

// PlaybackUpdate is one poll result.
type PlaybackUpdate struct {
	Playback *spotiwise.Playback // nil when nothing is playing
	Err      error
}

// Poller polls the player at regular intervals
type Poller struct {
	player   Player
	interval time.Duration
	logger   zerolog.Logger
}

// NewPoller creates a new Poller instance
func NewPoller(player Player, interval time.Duration, logger zerolog.Logger) *Poller {
	return &Poller{
		player:   player,
		interval: interval,
		logger:   logger.With().Str("component", "poller").Logger(),
	}
}

// Run polls immediately and then every interval, sending each result to
// updates. It blocks until ctx is cancelled.
func (p *Poller) Run(ctx context.Context, updates chan<- PlaybackUpdate) error {
	p.logger.Info().
		Dur("interval", p.interval).
		Msg("Starting poller")

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.poll(ctx, updates)

	for {
		select {
		case <-ctx.Done():
			p.logger.Info().Msg("Poller stopped")
			return ctx.Err()
		case <-ticker.C:
			p.poll(ctx, updates)
		}
	}
}

func (p *Poller) poll(ctx context.Context, updates chan<- PlaybackUpdate) {
	pb, err := p.player.CurrentlyPlaying(ctx)
	update := PlaybackUpdate{Playback: pb, Err: err}
	if err != nil {
		p.logger.Debug().Err(err).Msg("Error getting current playback")
	} else if pb != nil {
		p.logger.Debug().
			Str("track", pb.TrackName()).
			Bool("playing", pb.IsPlaying).
			Int("progress", pb.Progress()).
			Msg("Poll update")
	}

	select {
	case updates <- update:
	case <-ctx.Done():
	}
}
