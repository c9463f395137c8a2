package spotiwise

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jfmyers9/spotiwise/pkg/spotify"
)

// Playlist is a Spotify playlist. Items hold the entries fetched so far;
// Len reports the server-declared total.
type Playlist struct {
	Object
	ID            string
	Name          string
	Owner         *User
	Collaborative bool
	Description   string
	ExternalURLs  map[string]string
	Followers     Followers
	Images        []Image
	Public        bool
	SnapshotID    string

	Items  []*Item
	Tracks []*Track

	cursor  *spotify.Paging
	builder *Builder
}

var playlistKeys = []string{"name", "owner", "collaborative", "description"}

func (p *Playlist) Kind() Kind { return KindPlaylist }

// Equal reports whether both playlists share a URI.
func (p *Playlist) Equal(o *Playlist) bool {
	return p != nil && o != nil && p.URI == o.URI
}

// Len returns the total number of entries reported by the server, which
// may exceed len(p.Items) until LoadTracks has run.
func (p *Playlist) Len() int {
	if p.cursor == nil {
		return 0
	}
	return p.cursor.Total
}

// Cursor returns the last page fetched for this playlist.
func (p *Playlist) Cursor() *spotify.Paging { return p.cursor }

// LoadTracks pages through the rest of the playlist. f may be nil, in which
// case the fetcher of the Builder that created the playlist is used.
// Calling it again once every page has been fetched is a no-op.
func (p *Playlist) LoadTracks(ctx context.Context, f Fetcher) error {
	if f == nil && p.builder != nil {
		f = p.builder.fetcher
	}
	if f == nil {
		return ErrNoFetcher
	}

	b := p.builder
	if b == nil {
		b = NewBuilder(WithFetcher(f))
		p.builder = b
	}

	if p.cursor != nil && !p.cursor.Loaded() && p.cursor.Href != "" {
		var page spotify.Paging
		if err := f.Get(ctx, p.cursor.Href, nil, &page); err != nil {
			return fmt.Errorf("fetch playlist tracks: %w", err)
		}
		p.cursor = &page
		if err := p.appendItems(b, page.Items, false); err != nil {
			return err
		}
	}

	for p.cursor.HasNext() {
		page, err := f.Next(ctx, p.cursor)
		if err != nil {
			return fmt.Errorf("fetch next playlist page: %w", err)
		}
		if page == nil {
			break
		}
		p.cursor = page
		if err := p.appendItems(b, page.Items, false); err != nil {
			return err
		}
	}

	p.Tracks = projectTracks(p.Items)
	return nil
}

func (p *Playlist) appendItems(b *Builder, raw []json.RawMessage, keepEmpty bool) error {
	items, err := b.items(raw, keepEmpty)
	if err != nil {
		return err
	}
	p.Items = append(p.Items, items...)
	return nil
}

func projectTracks(items []*Item) []*Track {
	tracks := make([]*Track, 0, len(items))
	for _, item := range items {
		if item.Track != nil {
			tracks = append(tracks, item.Track)
		}
	}
	return tracks
}

// CSV renders the items as comma-separated text: a header line followed by
// one line per item. Values are not quoted, so a value containing a comma
// shifts the remaining columns. It returns "" when there are no items.
func (p *Playlist) CSV() string {
	if len(p.Items) == 0 {
		return ""
	}
	lines := make([]string, 0, len(p.Items)+1)
	lines = append(lines, strings.Join(columns(p.Items[0]), ","))
	for _, item := range p.Items {
		lines = append(lines, strings.Join(rowValues(item), ","))
	}
	return strings.Join(lines, "\n")
}

// WriteCSV writes CSV output to w.
func (p *Playlist) WriteCSV(w io.Writer) error {
	_, err := io.WriteString(w, p.CSV())
	return err
}

func (p *Playlist) String() string { return repr(p) }

func (p *Playlist) kindName() string       { return "Playlist" }
func (p *Playlist) displayKeys() []string { return playlistKeys }

func (p *Playlist) displayValue(key string) interface{} {
	switch key {
	case "name":
		return p.Name
	case "owner":
		return p.Owner
	case "collaborative":
		return p.Collaborative
	case "description":
		return p.Description
	}
	return nil
}
