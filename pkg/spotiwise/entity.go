// Package spotiwise turns Spotify Web API payloads into a graph of typed
// entities: tracks own their album and artists, playlists own their items,
// and users are shared through a session-scoped UserRegistry.
//
// Entities are built by a Builder. A Builder backed by a Fetcher (usually
// a *spotify.Client) can also page through playlist contents on demand.
package spotiwise

// Kind names an entity type as it appears in the "type" field of a payload.
type Kind string

const (
	KindTrack    Kind = "track"
	KindAlbum    Kind = "album"
	KindArtist   Kind = "artist"
	KindUser     Kind = "user"
	KindPlaylist Kind = "playlist"
)

// Entity is any decoded Spotify object.
type Entity interface {
	Kind() Kind
	String() string
}

// Object holds the fields every Spotify object carries.
type Object struct {
	Href string `json:"href"`
	Type string `json:"type"`
	URI  string `json:"uri"`
}

// Image is a cover or profile image.
type Image struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// Followers is the follower summary attached to users and playlists.
type Followers struct {
	Href  string `json:"href"`
	Total int    `json:"total"`
}

// Artist is a leaf entity.
type Artist struct {
	Object
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	ExternalURLs map[string]string `json:"external_urls"`
}

var artistKeys = []string{"name"}

func (a *Artist) Kind() Kind { return KindArtist }

// Equal reports whether both artists share a URI.
func (a *Artist) Equal(o *Artist) bool {
	return a != nil && o != nil && a.URI == o.URI
}

func (a *Artist) String() string { return repr(a) }

func (a *Artist) kindName() string       { return "Artist" }
func (a *Artist) displayKeys() []string { return artistKeys }

func (a *Artist) displayValue(key string) interface{} {
	switch key {
	case "name":
		return a.Name
	}
	return nil
}
