package spotify

import "strings"

// Resource kinds accepted by ID and URI.
const (
	KindTrack    = "track"
	KindAlbum    = "album"
	KindArtist   = "artist"
	KindPlaylist = "playlist"
	KindUser     = "user"
	KindShow     = "show"
	KindEpisode  = "episode"
)

// ParseID extracts the bare id from a Spotify URI ("spotify:track:ID"),
// an open.spotify.com URL, or a bare id. kind is empty for bare ids.
func ParseID(s string) (kind, id string) {
	if fields := strings.Split(s, ":"); len(fields) >= 3 {
		return fields[len(fields)-2], fields[len(fields)-1]
	}
	if fields := strings.Split(s, "/"); len(fields) >= 3 {
		id := strings.SplitN(fields[len(fields)-1], "?", 2)[0]
		return fields[len(fields)-2], id
	}
	return "", s
}

// ID returns the bare id of s, logging when s names a different kind.
func (c *Client) ID(kind, s string) string {
	got, id := ParseID(s)
	if got != "" && got != kind {
		c.logDebugf("spotify: expected id of type %s but found type %s %s", kind, got, s)
	}
	return id
}

// URI returns the "spotify:kind:id" form of s.
func (c *Client) URI(kind, s string) string {
	return "spotify:" + kind + ":" + c.ID(kind, s)
}
