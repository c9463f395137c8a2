package spotiwise

// Album is owned by the track (or request) it was decoded from.
type Album struct {
	Object
	ID               string            `json:"id"`
	Name             string            `json:"name"`
	AlbumType        string            `json:"album_type"`
	Artists          []*Artist         `json:"artists"`
	AvailableMarkets []string          `json:"available_markets"`
	ExternalURLs     map[string]string `json:"external_urls"`
	Images           []Image           `json:"images"`
	ReleaseDate      string            `json:"release_date"`

	// Artist is the name of the first artist, fixed at build time.
	Artist string `json:"-"`
}

var albumKeys = []string{"name", "artist"}

func (a *Album) Kind() Kind { return KindAlbum }

// Equal reports whether both albums share a URI.
func (a *Album) Equal(o *Album) bool {
	return a != nil && o != nil && a.URI == o.URI
}

func (a *Album) String() string { return repr(a) }

func (a *Album) kindName() string       { return "Album" }
func (a *Album) displayKeys() []string { return albumKeys }

func (a *Album) displayValue(key string) interface{} {
	switch key {
	case "name":
		return a.Name
	case "artist":
		return a.Artist
	}
	return nil
}

// Track is a playable track. It owns its Album and Artists.
type Track struct {
	Object
	ID               string            `json:"id"`
	Name             string            `json:"name"`
	Album            *Album            `json:"album"`
	Artists          []*Artist         `json:"artists"`
	AvailableMarkets []string          `json:"available_markets"`
	DiscNumber       int               `json:"disc_number"`
	DurationMS       int               `json:"duration_ms"`
	Explicit         bool              `json:"explicit"`
	ExternalIDs      map[string]string `json:"external_ids"`
	ExternalURLs     map[string]string `json:"external_urls"`
	Popularity       int               `json:"popularity"`
	PreviewURL       string            `json:"preview_url"`
	TrackNumber      int               `json:"track_number"`
	IsLocal          bool              `json:"is_local"`

	// Artist is the name of the first artist, fixed at build time.
	Artist string `json:"-"`
	// Duration is DurationMS in whole seconds.
	Duration int `json:"-"`
	// Playcount is a caller-maintained counter.
	Playcount int `json:"-"`
}

var trackKeys = []string{"name", "artist", "id"}

func (t *Track) Kind() Kind { return KindTrack }

// Equal reports whether both tracks share a URI.
func (t *Track) Equal(o *Track) bool {
	return t != nil && o != nil && t.URI == o.URI
}

// AlbumName returns the album name, or "" when the track has no album.
func (t *Track) AlbumName() string {
	if t.Album == nil {
		return ""
	}
	return t.Album.Name
}

// AlbumArtist returns the album's primary artist, or "" when unknown.
func (t *Track) AlbumArtist() string {
	if t.Album == nil {
		return ""
	}
	return t.Album.Artist
}

func (t *Track) String() string { return repr(t) }

func (t *Track) kindName() string       { return "Track" }
func (t *Track) displayKeys() []string { return trackKeys }

func (t *Track) displayValue(key string) interface{} {
	switch key {
	case "name":
		return t.Name
	case "artist":
		return t.Artist
	case "id":
		return t.ID
	}
	return nil
}
