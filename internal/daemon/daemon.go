package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/jfmyers9/spotiwise/internal/scrobbler"
	"github.com/jfmyers9/spotiwise/pkg/lastfm"
	"github.com/rs/zerolog"
)

// Config holds daemon configuration
type Config struct {
	PollInterval    time.Duration // How often to poll Spotify
	StateFile       string        // Path to state persistence file
	QueueDB         string        // Path to scrobble queue database
	ProcessInterval time.Duration // How often to retry queued scrobbles
}

// Source is the Spotify side of the daemon.
type Source interface {
	Player
	History
}

// Submitter is a Scrobbler that can also submit queued batches.
type Submitter interface {
	Scrobbler
	ScrobbleBatch(ctx context.Context, scrobbles []scrobbler.Scrobble) ([]scrobbler.BatchResult, error)
}

// Daemon coordinates the poller, the scrobble engine and the retry queue.
type Daemon struct {
	config   Config
	scrobble Submitter
	queue    *scrobbler.Queue
	state    *State
	engine   *Engine
	poller   *Poller
	logger   zerolog.Logger
}

// New creates a new Daemon instance
func New(cfg Config, source Source, scrobbleClient Submitter, logger zerolog.Logger) (*Daemon, error) {
	logger = logger.With().Str("component", "daemon").Logger()

	state, err := NewState(cfg.StateFile)
	if err != nil {
		logger.Warn().Err(err).Msg("Ignoring unreadable state file")
	}

	queue, err := scrobbler.NewQueue(cfg.QueueDB)
	if err != nil {
		return nil, fmt.Errorf("failed to create queue: %w", err)
	}

	engine := NewEngine(scrobbleClient, source,
		WithState(state),
		WithFallback(queue),
		WithEngineLogger(logger),
	)

	return &Daemon{
		config:   cfg,
		scrobble: scrobbleClient,
		queue:    queue,
		state:    state,
		engine:   engine,
		poller:   NewPoller(source, cfg.PollInterval, logger),
		logger:   logger,
	}, nil
}

// Run starts the daemon and blocks until shutdown signal received
func (d *Daemon) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Handle first signal gracefully, second signal forces exit
	go func() {
		<-sigChan
		d.logger.Info().Msg("Shutdown signal received, initiating graceful shutdown")
		cancel()

		<-sigChan
		d.logger.Warn().Msg("Second shutdown signal received, forcing exit")
		os.Exit(1)
	}()

	if err := d.run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// run is the main daemon loop
func (d *Daemon) run(ctx context.Context) error {
	d.logger.Info().Msg("Starting daemon")

	var wg sync.WaitGroup
	updates := make(chan PlaybackUpdate, 10)

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := d.poller.Run(ctx, updates); err != nil && !errors.Is(err, context.Canceled) {
			d.logger.Error().Err(err).Msg("Poller error")
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := d.processQueue(ctx); err != nil && !errors.Is(err, context.Canceled) {
			d.logger.Error().Err(err).Msg("Queue processor error")
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		d.handleUpdates(ctx, updates)
	}()

	wg.Wait()

	d.logger.Info().Msg("Daemon stopped")
	return nil
}

// handleUpdates feeds poll results to the engine. Errors are logged and
// polling continues.
func (d *Daemon) handleUpdates(ctx context.Context, updates <-chan PlaybackUpdate) {
	for {
		select {
		case <-ctx.Done():
			return
		case update := <-updates:
			if update.Err != nil {
				d.logger.Warn().Err(update.Err).Msg("Playback poll failed")
				continue
			}
			if err := d.engine.Tick(ctx, update.Playback); err != nil {
				d.logger.Error().Err(err).Msg("Failed to handle playback update")
			}
		}
	}
}

// processQueue periodically retries queued scrobbles
func (d *Daemon) processQueue(ctx context.Context) error {
	ticker := time.NewTicker(d.config.ProcessInterval)
	defer ticker.Stop()

	d.processPendingScrobbles(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			d.processPendingScrobbles(ctx)
		}
	}
}

// processPendingScrobbles submits up to one batch of queued scrobbles.
func (d *Daemon) processPendingScrobbles(ctx context.Context) {
	if n, err := d.queue.CleanupOldFailed(ctx); err != nil {
		d.logger.Warn().Err(err).Msg("Failed to drop expired scrobbles")
	} else if n > 0 {
		d.logger.Warn().Int64("count", n).Msg("Dropped scrobbles older than Last.fm accepts")
	}

	pending, err := d.queue.Pending(ctx, lastfm.MaxBatchSize)
	if err != nil {
		d.logger.Error().Err(err).Msg("Failed to get pending scrobbles")
		return
	}
	if len(pending) == 0 {
		return
	}

	d.logger.Info().Int("count", len(pending)).Msg("Processing pending scrobbles")

	scrobbles := make([]scrobbler.Scrobble, len(pending))
	ids := make([]int64, len(pending))
	for i, qs := range pending {
		scrobbles[i] = qs.Scrobble
		ids[i] = qs.ID
	}

	results, err := d.scrobble.ScrobbleBatch(ctx, scrobbles)
	if err != nil {
		d.logger.Warn().
			Err(err).
			Int("count", len(pending)).
			Msg("Batch scrobble failed")

		for _, id := range ids {
			if markErr := d.queue.MarkError(ctx, id, err.Error()); markErr != nil {
				d.logger.Error().Err(markErr).Int64("id", id).Msg("Failed to mark scrobble error")
			}
		}
		return
	}

	accepted := make([]int64, 0, len(ids))
	for i, id := range ids {
		if i < len(results) && !results[i].Accepted() {
			d.logger.Warn().
				Str("artist", pending[i].Artist).
				Str("track", pending[i].Track).
				Str("reason", results[i].Ignored.Error()).
				Msg("Last.fm ignored queued scrobble")
			if err := d.queue.MarkIgnored(ctx, id, results[i].Ignored.Error()); err != nil {
				d.logger.Error().Err(err).Int64("id", id).Msg("Failed to mark scrobble ignored")
			}
			continue
		}
		accepted = append(accepted, id)
	}

	d.logger.Info().
		Int("accepted", len(accepted)).
		Int("ignored", len(ids)-len(accepted)).
		Msg("Batch scrobbled")
	if err := d.queue.MarkScrobbledBatch(ctx, accepted); err != nil {
		d.logger.Error().Err(err).Msg("Failed to mark batch as scrobbled")
	}
}

// Shutdown stops pending verifications, flushes state and closes the queue.
func (d *Daemon) Shutdown() error {
	d.logger.Info().Msg("Shutting down daemon")

	if err := d.engine.Close(); err != nil {
		d.logger.Warn().Err(err).Msg("Failed to flush state")
	}

	if _, err := d.queue.Cleanup(context.Background(), 7*24*time.Hour); err != nil {
		d.logger.Warn().Err(err).Msg("Failed to cleanup queue")
	}

	if err := d.queue.Close(); err != nil {
		return fmt.Errorf("failed to close queue: %w", err)
	}
	return nil
}
