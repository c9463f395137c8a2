package spotiwise

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jfmyers9/spotiwise/pkg/spotify"
)

// Batch limits of the several-items endpoints.
const (
	maxTracksPerRequest  = 50
	maxArtistsPerRequest = 50
	maxAlbumsPerRequest  = 20
)

// Client returns entities instead of raw documents.
type Client struct {
	api     *spotify.Client
	builder *Builder
	market  string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithMarket sets the market sent with track and playback requests.
func WithMarket(market string) ClientOption {
	return func(c *Client) { c.market = market }
}

// WithBuilder replaces the Builder created by NewClient.
func WithBuilder(b *Builder) ClientOption {
	return func(c *Client) { c.builder = b }
}

// NewClient wraps api. Unless WithBuilder is given, entities are built by
// a new Builder that fetches through api.
func NewClient(api *spotify.Client, opts ...ClientOption) *Client {
	c := &Client{api: api}
	for _, opt := range opts {
		opt(c)
	}
	if c.builder == nil {
		c.builder = NewBuilder(WithFetcher(api))
	}
	return c
}

// API returns the underlying resource client.
func (c *Client) API() *spotify.Client { return c.api }

// Builder returns the Builder entities are decoded with.
func (c *Client) Builder() *Builder { return c.builder }

func (c *Client) marketParams() url.Values {
	if c.market == "" {
		return nil
	}
	return url.Values{"market": {c.market}}
}

func (c *Client) get(ctx context.Context, path string, params url.Values) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.api.Get(ctx, path, params, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// Track returns a track by id, URI or URL.
func (c *Client) Track(ctx context.Context, id string) (*Track, error) {
	raw, err := c.get(ctx, "tracks/"+c.api.ID(spotify.KindTrack, id), c.marketParams())
	if err != nil {
		return nil, err
	}
	return c.builder.Track(raw)
}

// Tracks returns several tracks, batching requests as needed.
func (c *Client) Tracks(ctx context.Context, ids []string) ([]*Track, error) {
	var out []*Track
	err := c.batch(ctx, "tracks", spotify.KindTrack, ids, maxTracksPerRequest, "tracks", func(raw json.RawMessage) error {
		t, err := c.builder.Track(raw)
		if err == nil {
			out = append(out, t)
		}
		return err
	})
	return out, err
}

// Artist returns an artist by id, URI or URL.
func (c *Client) Artist(ctx context.Context, id string) (*Artist, error) {
	raw, err := c.get(ctx, "artists/"+c.api.ID(spotify.KindArtist, id), nil)
	if err != nil {
		return nil, err
	}
	return c.builder.Artist(raw)
}

// Artists returns several artists, batching requests as needed.
func (c *Client) Artists(ctx context.Context, ids []string) ([]*Artist, error) {
	var out []*Artist
	err := c.batch(ctx, "artists", spotify.KindArtist, ids, maxArtistsPerRequest, "artists", func(raw json.RawMessage) error {
		a, err := c.builder.Artist(raw)
		if err == nil {
			out = append(out, a)
		}
		return err
	})
	return out, err
}

// ArtistTopTracks returns an artist's top tracks in country.
func (c *Client) ArtistTopTracks(ctx context.Context, id, country string) ([]*Track, error) {
	if country == "" {
		country = "US"
	}
	var resp struct {
		Tracks []json.RawMessage `json:"tracks"`
	}
	path := "artists/" + c.api.ID(spotify.KindArtist, id) + "/top-tracks"
	if err := c.api.Get(ctx, path, url.Values{"country": {country}}, &resp); err != nil {
		return nil, err
	}
	out := make([]*Track, 0, len(resp.Tracks))
	for _, raw := range resp.Tracks {
		t, err := c.builder.Track(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// ArtistRelatedArtists returns artists similar to the given one.
func (c *Client) ArtistRelatedArtists(ctx context.Context, id string) ([]*Artist, error) {
	var resp struct {
		Artists []json.RawMessage `json:"artists"`
	}
	path := "artists/" + c.api.ID(spotify.KindArtist, id) + "/related-artists"
	if err := c.api.Get(ctx, path, nil, &resp); err != nil {
		return nil, err
	}
	out := make([]*Artist, 0, len(resp.Artists))
	for _, raw := range resp.Artists {
		a, err := c.builder.Artist(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// Album returns an album by id, URI or URL.
func (c *Client) Album(ctx context.Context, id string) (*Album, error) {
	raw, err := c.get(ctx, "albums/"+c.api.ID(spotify.KindAlbum, id), nil)
	if err != nil {
		return nil, err
	}
	return c.builder.Album(raw)
}

// Albums returns several albums, batching requests as needed.
func (c *Client) Albums(ctx context.Context, ids []string) ([]*Album, error) {
	var out []*Album
	err := c.batch(ctx, "albums", spotify.KindAlbum, ids, maxAlbumsPerRequest, "albums", func(raw json.RawMessage) error {
		a, err := c.builder.Album(raw)
		if err == nil {
			out = append(out, a)
		}
		return err
	})
	return out, err
}

// batch requests path?ids=... in chunks of size and hands every non-null
// element of the response field to fn.
func (c *Client) batch(ctx context.Context, path, kind string, ids []string, size int, field string, fn func(json.RawMessage) error) error {
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}

		chunk := make([]string, 0, end-start)
		for _, id := range ids[start:end] {
			chunk = append(chunk, c.api.ID(kind, id))
		}

		params := c.marketParams()
		if params == nil {
			params = url.Values{}
		}
		params.Set("ids", strings.Join(chunk, ","))

		var resp map[string][]json.RawMessage
		if err := c.api.Get(ctx, path, params, &resp); err != nil {
			return err
		}
		for _, raw := range resp[field] {
			if isNull(raw) {
				continue
			}
			if err := fn(raw); err != nil {
				return err
			}
		}
	}
	return nil
}

// User returns a user's public profile.
func (c *Client) User(ctx context.Context, id string) (*User, error) {
	raw, err := c.get(ctx, "users/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	return c.builder.User(raw)
}

// CurrentUser returns the profile of the authorized user.
func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	raw, err := c.get(ctx, "me", nil)
	if err != nil {
		return nil, err
	}
	return c.builder.User(raw)
}

// CurrentUserPlaylists returns one page of the authorized user's playlists.
// Playlist contents are not loaded.
func (c *Client) CurrentUserPlaylists(ctx context.Context, limit, offset int) ([]*Playlist, error) {
	params := url.Values{
		"limit":  {strconv.Itoa(limit)},
		"offset": {strconv.Itoa(offset)},
	}
	var page spotify.Paging
	if err := c.api.Get(ctx, "me/playlists", params, &page); err != nil {
		return nil, err
	}
	out := make([]*Playlist, 0, len(page.Items))
	for _, raw := range page.Items {
		p, err := c.builder.Playlist(ctx, raw)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// Playlist returns a playlist by id, URI or URL. With precache set every
// page of entries is fetched before returning.
func (c *Client) Playlist(ctx context.Context, id string, precache bool) (*Playlist, error) {
	raw, err := c.get(ctx, "playlists/"+c.api.ID(spotify.KindPlaylist, id), c.marketParams())
	if err != nil {
		return nil, err
	}
	return c.builder.Playlist(ctx, raw, WithPrecache(precache))
}

// UserPlaylist returns a playlist owned by user.
func (c *Client) UserPlaylist(ctx context.Context, user, id string, precache bool) (*Playlist, error) {
	path := fmt.Sprintf("users/%s/playlists/%s", url.PathEscape(user), c.api.ID(spotify.KindPlaylist, id))
	raw, err := c.get(ctx, path, nil)
	if err != nil {
		return nil, err
	}
	return c.builder.Playlist(ctx, raw, WithPrecache(precache))
}

// CurrentlyPlaying returns what the authorized user is playing, or nil
// when nothing is.
func (c *Client) CurrentlyPlaying(ctx context.Context) (*Playback, error) {
	return c.playback(ctx, "me/player/currently-playing")
}

// CurrentPlayback returns the full player state, or nil when no device
// is active.
func (c *Client) CurrentPlayback(ctx context.Context) (*Playback, error) {
	return c.playback(ctx, "me/player")
}

func (c *Client) playback(ctx context.Context, path string) (*Playback, error) {
	raw, err := c.get(ctx, path, c.marketParams())
	if err != nil {
		return nil, err
	}
	if isNull(raw) {
		return nil, nil
	}
	return c.builder.Playback(raw)
}

// PlayHistory is one entry of the recently-played list.
type PlayHistory struct {
	Track    *Track
	PlayedAt time.Time
	Context  *PlaybackContext
}

// RecentlyPlayed returns up to limit of the user's most recent plays,
// newest first.
func (c *Client) RecentlyPlayed(ctx context.Context, limit int) ([]PlayHistory, error) {
	var page spotify.Paging
	params := url.Values{"limit": {strconv.Itoa(limit)}}
	if err := c.api.Get(ctx, "me/player/recently-played", params, &page); err != nil {
		return nil, err
	}

	out := make([]PlayHistory, 0, len(page.Items))
	for _, data := range page.Items {
		var raw struct {
			Track    json.RawMessage  `json:"track"`
			PlayedAt time.Time        `json:"played_at"`
			Context  *PlaybackContext `json:"context"`
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("decode play history: %w", err)
		}
		if isNull(raw.Track) {
			continue
		}
		t, err := c.builder.Track(raw.Track)
		if err != nil {
			return nil, err
		}
		out = append(out, PlayHistory{Track: t, PlayedAt: raw.PlayedAt, Context: raw.Context})
	}
	return out, nil
}

// MostRecentTrack returns the last track in the user's play history, or
// nil when the history is empty.
func (c *Client) MostRecentTrack(ctx context.Context) (*Track, error) {
	history, err := c.RecentlyPlayed(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(history) == 0 {
		return nil, nil
	}
	return history[0].Track, nil
}
