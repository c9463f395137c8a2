package spotiwise

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/jfmyers9/spotiwise/pkg/spotify"
)

// Fetcher retrieves raw API documents. *spotify.Client implements it.
type Fetcher interface {
	Get(ctx context.Context, path string, params url.Values, result interface{}) error
	Next(ctx context.Context, page *spotify.Paging) (*spotify.Paging, error)
}

// Builder decodes API payloads into entities. A Builder is safe for
// concurrent use; all users it resolves go through one UserRegistry.
type Builder struct {
	users   *UserRegistry
	fetcher Fetcher
	logger  zerolog.Logger
	now     func() time.Time
}

// Option configures a Builder.
type Option func(*Builder)

// WithRegistry shares an existing UserRegistry instead of a fresh one.
func WithRegistry(r *UserRegistry) Option {
	return func(b *Builder) { b.users = r }
}

// WithFetcher attaches a Fetcher used for playlist pagination.
func WithFetcher(f Fetcher) Option {
	return func(b *Builder) { b.fetcher = f }
}

// WithLogger sets the logger for soft decoding problems.
func WithLogger(l zerolog.Logger) Option {
	return func(b *Builder) { b.logger = l }
}

// WithClock replaces time.Now for playbacks that carry no timestamp.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) { b.now = now }
}

// NewBuilder returns a Builder with its own UserRegistry unless one is given.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		logger: zerolog.Nop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.users == nil {
		b.users = NewUserRegistry()
	}
	return b
}

// Users returns the registry users are resolved through.
func (b *Builder) Users() *UserRegistry { return b.users }

// Artist decodes an artist object.
func (b *Builder) Artist(data []byte) (*Artist, error) {
	var a Artist
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("decode artist: %w", err)
	}
	return &a, nil
}

// Album decodes an album object.
func (b *Builder) Album(data []byte) (*Album, error) {
	var a Album
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("decode album: %w", err)
	}
	return b.finishAlbum(&a), nil
}

// Track decodes a track object. Missing album or artists are not an error.
func (b *Builder) Track(data []byte) (*Track, error) {
	var t Track
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("decode track: %w", err)
	}
	return b.finishTrack(&t), nil
}

// User decodes a user object and resolves it through the registry.
func (b *Builder) User(data []byte) (*User, error) {
	var u User
	if err := json.Unmarshal(data, &u); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	return b.users.GetOrCreate(u)
}

func (b *Builder) finishAlbum(a *Album) *Album {
	if a == nil {
		return nil
	}
	a.Artists = compactArtists(a.Artists)
	if len(a.Artists) == 0 {
		b.logger.Warn().Str("album", a.Name).Msg("Unable to parse artist name from album")
		a.Artist = ""
		return a
	}
	a.Artist = a.Artists[0].Name
	return a
}

func (b *Builder) finishTrack(t *Track) *Track {
	if t == nil {
		return nil
	}
	t.Artists = compactArtists(t.Artists)
	if len(t.Artists) > 0 {
		t.Artist = t.Artists[0].Name
	}
	t.Duration = t.DurationMS / 1000
	t.Album = b.finishAlbum(t.Album)
	return t
}

func compactArtists(in []*Artist) []*Artist {
	out := make([]*Artist, 0, len(in))
	for _, a := range in {
		if a != nil {
			out = append(out, a)
		}
	}
	return out
}

type itemJSON struct {
	Track   json.RawMessage `json:"track"`
	AddedAt string          `json:"added_at"`
	AddedBy json.RawMessage `json:"added_by"`
	IsLocal bool            `json:"is_local"`
}

// Item decodes one playlist entry. The entry's track may be nil.
func (b *Builder) Item(data []byte) (*Item, error) {
	var raw itemJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode item: %w", err)
	}
	return b.item(raw)
}

func (b *Builder) item(raw itemJSON) (*Item, error) {
	item := &Item{IsLocal: raw.IsLocal}

	if !isNull(raw.Track) {
		t, err := b.Track(raw.Track)
		if err != nil {
			return nil, err
		}
		item.Track = t
	}

	if raw.AddedAt != "" {
		at, err := time.Parse(time.RFC3339, raw.AddedAt)
		if err != nil {
			b.logger.Warn().Str("added_at", raw.AddedAt).Msg("Unparseable added_at, leaving unset")
		} else {
			item.AddedAt = at
		}
	}

	if !isNull(raw.AddedBy) {
		u, err := b.User(raw.AddedBy)
		if err != nil {
			return nil, fmt.Errorf("decode item added_by: %w", err)
		}
		item.AddedBy = u
	}
	return item, nil
}

// items decodes a page of playlist entries. Entries without a track are
// kept only when keepEmpty is set.
func (b *Builder) items(raw []json.RawMessage, keepEmpty bool) ([]*Item, error) {
	out := make([]*Item, 0, len(raw))
	for _, data := range raw {
		var entry itemJSON
		if err := json.Unmarshal(data, &entry); err != nil {
			return nil, fmt.Errorf("decode item: %w", err)
		}
		if isNull(entry.Track) && !keepEmpty {
			continue
		}
		item, err := b.item(entry)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

type playlistJSON struct {
	Object
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	Owner         json.RawMessage   `json:"owner"`
	Collaborative bool              `json:"collaborative"`
	Description   string            `json:"description"`
	ExternalURLs  map[string]string `json:"external_urls"`
	Followers     *Followers        `json:"followers"`
	Images        []Image           `json:"images"`
	Public        *bool             `json:"public"`
	SnapshotID    string            `json:"snapshot_id"`
	Tracks        *spotify.Paging   `json:"tracks"`
}

// PlaylistOption configures Builder.Playlist.
type PlaylistOption func(*playlistOptions)

type playlistOptions struct {
	precache bool
}

// WithPrecache loads every page of the playlist before returning.
func WithPrecache(precache bool) PlaylistOption {
	return func(o *playlistOptions) { o.precache = precache }
}

// Playlist decodes a playlist object. Entries included in the payload are
// decoded immediately; further pages are fetched by LoadTracks, or here
// when WithPrecache is set.
func (b *Builder) Playlist(ctx context.Context, data []byte, opts ...PlaylistOption) (*Playlist, error) {
	var o playlistOptions
	for _, opt := range opts {
		opt(&o)
	}

	var raw playlistJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode playlist: %w", err)
	}
	if raw.ID == "" {
		return nil, ErrMissingID
	}

	p := &Playlist{
		Object:        raw.Object,
		ID:            raw.ID,
		Name:          raw.Name,
		Collaborative: raw.Collaborative,
		Description:   raw.Description,
		ExternalURLs:  raw.ExternalURLs,
		Images:        raw.Images,
		Public:        true,
		SnapshotID:    raw.SnapshotID,
		cursor:        raw.Tracks,
		builder:       b,
	}
	if raw.Public != nil {
		p.Public = *raw.Public
	}
	if raw.Followers != nil {
		p.Followers = *raw.Followers
	}
	if !isNull(raw.Owner) {
		owner, err := b.User(raw.Owner)
		if err != nil {
			return nil, fmt.Errorf("decode playlist owner: %w", err)
		}
		p.Owner = owner
	}

	// The embedded first page keeps removed or unavailable entries; pages
	// fetched by LoadTracks drop them.
	if raw.Tracks != nil && raw.Tracks.Loaded() {
		if err := p.appendItems(b, raw.Tracks.Items, true); err != nil {
			return nil, err
		}
	}

	if o.precache && b.fetcher != nil {
		if err := p.LoadTracks(ctx, nil); err != nil {
			return nil, err
		}
	}
	p.Tracks = projectTracks(p.Items)
	return p, nil
}

type playbackJSON struct {
	Item         json.RawMessage  `json:"item"`
	Timestamp    int64            `json:"timestamp"`
	ProgressMS   int              `json:"progress_ms"`
	IsPlaying    bool             `json:"is_playing"`
	Context      *PlaybackContext `json:"context"`
	Device       *Device          `json:"device"`
	ShuffleState bool             `json:"shuffle_state"`
	RepeatState  string           `json:"repeat_state"`
}

// Playback decodes a currently-playing or player-state document. A missing
// timestamp is replaced by the current time.
func (b *Builder) Playback(data []byte) (*Playback, error) {
	var raw playbackJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode playback: %w", err)
	}

	p := &Playback{
		ProgressMS:   raw.ProgressMS,
		IsPlaying:    raw.IsPlaying,
		Context:      raw.Context,
		Device:       raw.Device,
		ShuffleState: raw.ShuffleState,
		RepeatState:  raw.RepeatState,
	}
	if raw.Timestamp != 0 {
		p.Timestamp = time.UnixMilli(raw.Timestamp)
	} else {
		p.Timestamp = b.now()
	}
	if !isNull(raw.Item) {
		t, err := b.Track(raw.Item)
		if err != nil {
			return nil, err
		}
		p.Track = t
	}
	return p, nil
}

// Decode builds the entity named by the payload's "type" field.
func (b *Builder) Decode(ctx context.Context, data []byte) (Entity, error) {
	var head struct {
		Type Kind `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("decode entity: %w", err)
	}

	switch head.Type {
	case KindTrack:
		return entity(b.Track(data))
	case KindAlbum:
		return entity(b.Album(data))
	case KindArtist:
		return entity(b.Artist(data))
	case KindUser:
		return entity(b.User(data))
	case KindPlaylist:
		return entity(b.Playlist(ctx, data))
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, head.Type)
	}
}

func entity[T Entity](v T, err error) (Entity, error) {
	if err != nil {
		return nil, err
	}
	return v, nil
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
