package daemon

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jfmyers9/spotiwise/internal/scrobbler"
	"github.com/jfmyers9/spotiwise/pkg/spotiwise"
	"github.com/rs/zerolog"
)

// Scrobbler is the Last.fm side of the engine.
type Scrobbler interface {
	UpdateNowPlaying(ctx context.Context, s scrobbler.Scrobble) error
	ScrobbleTrack(ctx context.Context, s scrobbler.Scrobble) error
	NowPlaying(ctx context.Context) (string, error)
	RecentTracks(ctx context.Context, limit int) ([]string, error)
}

// History reports the listener's most recently played track on Spotify.
type History interface {
	MostRecentTrack(ctx context.Context) (*spotiwise.Track, error)
}

// Fallback stores scrobbles whose submission failed.
type Fallback interface {
	Add(ctx context.Context, s scrobbler.Scrobble) (int64, error)
}

// Timer is a pending one-shot callback.
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type clockScheduler struct{}

func (clockScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Phase is the engine's position in the scrobble state machine.
type Phase int

const (
	// Idle means no playback has been seen yet.
	Idle Phase = iota
	// Playing means a current track is known and nothing awaits verification.
	Playing
	// PendingVerification means at least one track change awaits its check.
	PendingVerification
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Playing:
		return "playing"
	case PendingVerification:
		return "pending_verification"
	}
	return "unknown"
}

// Verdict is the outcome of verifying a finished track.
type Verdict int

const (
	// Scrobbled means the track was submitted to Last.fm.
	Scrobbled Verdict = iota
	// Queued means submission failed and the scrobble was queued for retry.
	Queued
	// NotPlayed means Spotify's play history does not show the track.
	NotPlayed
	// AlreadyScrobbled means Last.fm already has the track as its latest scrobble.
	AlreadyScrobbled
	// BelowThreshold means the track was not played far enough.
	BelowThreshold
	// Ignored means Last.fm refused the scrobble; it is not retried.
	Ignored
)

func (v Verdict) String() string {
	switch v {
	case Scrobbled:
		return "scrobbled"
	case Queued:
		return "queued"
	case NotPlayed:
		return "not_played"
	case AlreadyScrobbled:
		return "already_scrobbled"
	case BelowThreshold:
		return "below_threshold"
	case Ignored:
		return "ignored"
	}
	return "unknown"
}

// Engine decides when to report now playing and when to scrobble. Tick is
// called with every polled playback; each track change schedules a
// verification of the previous track after scrobbler.VerificationDelay.
type Engine struct {
	scrobbler Scrobbler
	history   History
	fallback  Fallback
	state     *State
	sched     Scheduler
	logger    zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	current  *spotiwise.Playback
	previous *spotiwise.Playback
	pending  map[uint64]Timer
	nextID   uint64
	closed   bool
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithScheduler replaces the wall-clock scheduler.
func WithScheduler(s Scheduler) EngineOption {
	return func(e *Engine) { e.sched = s }
}

// WithFallback queues scrobbles that could not be submitted.
func WithFallback(f Fallback) EngineOption {
	return func(e *Engine) { e.fallback = f }
}

// WithState persists the current playback and restores it on start.
func WithState(s *State) EngineOption {
	return func(e *Engine) { e.state = s }
}

// WithEngineLogger sets the engine's logger.
func WithEngineLogger(l zerolog.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// NewEngine creates an Engine. Close must be called to release pending
// verifications.
func NewEngine(s Scrobbler, h History, opts ...EngineOption) *Engine {
	e := &Engine{
		scrobbler: s,
		history:   h,
		sched:     clockScheduler{},
		logger:    zerolog.Nop(),
		pending:   make(map[uint64]Timer),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With().Str("component", "engine").Logger()
	e.ctx, e.cancel = context.WithCancel(context.Background())

	if e.state != nil {
		e.current = e.state.Current()
	}
	return e
}

// Phase returns the engine's current phase.
func (e *Engine) Phase() Phase {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch {
	case len(e.pending) > 0:
		return PendingVerification
	case e.current != nil:
		return Playing
	}
	return Idle
}

// Current returns the playback the engine considers current.
func (e *Engine) Current() *spotiwise.Playback {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current
}

// Previous returns the playback replaced by the latest track change.
func (e *Engine) Previous() *spotiwise.Playback {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.previous
}

// Tick advances the state machine with the latest playback. A nil or
// paused playback, or one without a track, leaves the state untouched.
func (e *Engine) Tick(ctx context.Context, pb *spotiwise.Playback) error {
	if pb == nil || pb.Track == nil {
		return nil
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	if e.current == nil {
		e.current = pb
		e.mu.Unlock()
		e.logger.Info().Str("track", pb.TrackName()).Msg("Adopted current playback")
		return e.save(pb, true)
	}
	if !pb.IsPlaying {
		e.mu.Unlock()
		return nil
	}

	changed := pb.TrackName() != e.current.TrackName()
	if changed {
		e.previous = e.current
		e.schedule(e.previous)
	}
	e.current = pb
	previous := e.previous
	e.mu.Unlock()

	if changed {
		e.logger.Info().
			Str("track", pb.TrackName()).
			Str("previous", previous.TrackName()).
			Int("previous_progress", previous.Progress()).
			Msg("Track changed")
	}
	if err := e.save(pb, changed); err != nil {
		e.logger.Warn().Err(err).Msg("Failed to persist state")
	}

	return e.reportNowPlaying(ctx, pb)
}

// reportNowPlaying pushes pb unless Last.fm already shows it.
func (e *Engine) reportNowPlaying(ctx context.Context, pb *spotiwise.Playback) error {
	title, err := e.scrobbler.NowPlaying(ctx)
	if err != nil {
		return fmt.Errorf("failed to read now playing: %w", err)
	}
	if title == pb.TrackName() {
		return nil
	}

	if err := e.scrobbler.UpdateNowPlaying(ctx, scrobbleOf(pb)); err != nil {
		return err
	}
	e.logger.Debug().Str("track", pb.TrackName()).Msg("Updated now playing")
	return nil
}

// schedule must be called with the lock held.
func (e *Engine) schedule(prev *spotiwise.Playback) {
	id := e.nextID
	e.nextID++
	e.pending[id] = e.sched.AfterFunc(scrobbler.VerificationDelay, func() {
		e.mu.Lock()
		if e.closed {
			e.mu.Unlock()
			return
		}
		delete(e.pending, id)
		e.wg.Add(1)
		e.mu.Unlock()
		defer e.wg.Done()

		verdict, err := e.Verify(e.ctx, prev)
		if err != nil {
			e.logger.Error().Err(err).Str("track", prev.TrackName()).Msg("Verification failed")
			return
		}
		e.logVerdict(verdict, prev)
	})
}

func (e *Engine) logVerdict(v Verdict, prev *spotiwise.Playback) {
	level := zerolog.InfoLevel
	switch v {
	case NotPlayed, AlreadyScrobbled:
		level = zerolog.DebugLevel
	case BelowThreshold, Queued, Ignored:
		level = zerolog.WarnLevel
	}
	e.logger.WithLevel(level).
		Str("track", prev.TrackName()).
		Int("progress", prev.Progress()).
		Str("verdict", v.String()).
		Msg("Verified previous track")
}

// Verify decides whether prev should be scrobbled and submits it if so.
// The track must be Spotify's most recently played, must not already be
// Last.fm's latest scrobble, and must be past the progress threshold.
func (e *Engine) Verify(ctx context.Context, prev *spotiwise.Playback) (Verdict, error) {
	name := prev.TrackName()

	recent, err := e.history.MostRecentTrack(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read play history: %w", err)
	}
	if recent == nil || recent.Name != name {
		return NotPlayed, nil
	}

	titles, err := e.scrobbler.RecentTracks(ctx, scrobbler.RecentTracksLimit)
	if err != nil {
		return 0, fmt.Errorf("failed to read recent scrobbles: %w", err)
	}
	if len(titles) > 0 && titles[0] == name {
		return AlreadyScrobbled, nil
	}

	if !scrobbler.ShouldScrobble(prev.Progress()) {
		return BelowThreshold, nil
	}

	s := scrobbleOf(prev)
	s.Timestamp = time.Unix(prev.EpochTimestamp(), 0)
	if err := e.scrobbler.ScrobbleTrack(ctx, s); err != nil {
		if errors.Is(err, scrobbler.ErrIgnored) {
			e.logger.Warn().Err(err).Str("track", name).Msg("Last.fm ignored scrobble")
			return Ignored, nil
		}
		if e.fallback == nil {
			return 0, err
		}
		if _, qerr := e.fallback.Add(ctx, s); qerr != nil {
			return 0, fmt.Errorf("%w (queueing failed: %v)", err, qerr)
		}
		e.logger.Warn().Err(err).Str("track", name).Msg("Scrobble failed, queued for retry")
		return Queued, nil
	}

	if e.state != nil {
		if err := e.state.RecordScrobble(prev); err != nil {
			e.logger.Warn().Err(err).Msg("Failed to persist state")
		}
	}
	return Scrobbled, nil
}

func (e *Engine) save(pb *spotiwise.Playback, changed bool) error {
	if e.state == nil {
		return nil
	}
	return e.state.SetCurrent(pb, changed)
}

// Close cancels pending verifications and waits for running ones.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	for id, t := range e.pending {
		t.Stop()
		delete(e.pending, id)
	}
	e.mu.Unlock()

	e.cancel()
	e.wg.Wait()

	if e.state != nil {
		return e.state.Flush()
	}
	return nil
}

func scrobbleOf(pb *spotiwise.Playback) scrobbler.Scrobble {
	t := pb.Track
	return scrobbler.Scrobble{
		Artist:      t.Artist,
		Track:       t.Name,
		Album:       t.AlbumName(),
		AlbumArtist: t.AlbumArtist(),
		Duration:    time.Duration(t.Duration) * time.Second,
	}
}
