package lastfm

import (
	"context"
	"encoding/xml"
	"fmt"
	"strconv"
	"time"
)

// MaxBatchSize is the most scrobbles track.scrobble accepts per request.
const MaxBatchSize = 50

// ScrobbleService submits listening data. Every method requires a session key.
type ScrobbleService struct {
	client *Client
}

// UpdateNowPlaying sets the user's now-playing track. It does not count as
// a play.
func (s *ScrobbleService) UpdateNowPlaying(ctx context.Context, track Track) (*NowPlayingResponse, error) {
	params := make(map[string]string)
	track.encode(params, "")

	inner, err := s.client.call(ctx, "track.updateNowPlaying", params, session)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Artist         string     `xml:"nowplaying>artist"`
		Track          string     `xml:"nowplaying>track"`
		Album          string     `xml:"nowplaying>album"`
		AlbumArtist    string     `xml:"nowplaying>albumArtist"`
		IgnoredMessage ignoredXML `xml:"nowplaying>ignoredMessage"`
	}
	if err := xml.Unmarshal(wrap(inner), &resp); err != nil {
		return nil, fmt.Errorf("lastfm: failed to parse now playing response: %w", err)
	}
	return &NowPlayingResponse{
		Artist:         resp.Artist,
		Track:          resp.Track,
		Album:          resp.Album,
		AlbumArtist:    resp.AlbumArtist,
		IgnoredMessage: resp.IgnoredMessage.message(),
	}, nil
}

// Scrobble records a single play that started at timestamp.
func (s *ScrobbleService) Scrobble(ctx context.Context, track Track, timestamp time.Time) (*ScrobbleResponse, error) {
	return s.ScrobbleBatch(ctx, []Scrobble{{Track: track, Timestamp: timestamp}})
}

// ScrobbleBatch records up to MaxBatchSize plays in one request; any
// beyond that are dropped.
func (s *ScrobbleService) ScrobbleBatch(ctx context.Context, scrobbles []Scrobble) (*ScrobbleResponse, error) {
	if s.client.sessionKey == "" {
		return nil, ErrNoSessionKey
	}
	if len(scrobbles) == 0 {
		return &ScrobbleResponse{}, nil
	}
	if len(scrobbles) > MaxBatchSize {
		scrobbles = scrobbles[:MaxBatchSize]
	}

	params := make(map[string]string)
	for i, sc := range scrobbles {
		suffix := "[" + strconv.Itoa(i) + "]"
		sc.Track.encode(params, suffix)
		params["timestamp"+suffix] = strconv.FormatInt(sc.Timestamp.Unix(), 10)
	}

	inner, err := s.client.call(ctx, "track.scrobble", params, session)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Scrobbles struct {
			Accepted int `xml:"accepted,attr"`
			Ignored  int `xml:"ignored,attr"`
			Items    []struct {
				Artist         string     `xml:"artist"`
				Track          string     `xml:"track"`
				Album          string     `xml:"album"`
				Timestamp      int64      `xml:"timestamp"`
				IgnoredMessage ignoredXML `xml:"ignoredMessage"`
			} `xml:"scrobble"`
		} `xml:"scrobbles"`
	}
	if err := xml.Unmarshal(wrap(inner), &resp); err != nil {
		return nil, fmt.Errorf("lastfm: failed to parse scrobble response: %w", err)
	}

	out := &ScrobbleResponse{
		Accepted:  resp.Scrobbles.Accepted,
		Ignored:   resp.Scrobbles.Ignored,
		Scrobbles: make([]ScrobbleResult, 0, len(resp.Scrobbles.Items)),
	}
	for _, r := range resp.Scrobbles.Items {
		out.Scrobbles = append(out.Scrobbles, ScrobbleResult{
			Artist:         r.Artist,
			Track:          r.Track,
			Album:          r.Album,
			Timestamp:      r.Timestamp,
			IgnoredMessage: r.IgnoredMessage.message(),
		})
	}
	return out, nil
}

// encode adds the track's fields to params, each key followed by suffix.
func (t Track) encode(params map[string]string, suffix string) {
	params["artist"+suffix] = t.Artist
	params["track"+suffix] = t.Track
	if t.Album != "" {
		params["album"+suffix] = t.Album
	}
	if t.AlbumArtist != "" {
		params["albumArtist"+suffix] = t.AlbumArtist
	}
	if t.Duration > 0 {
		params["duration"+suffix] = strconv.Itoa(t.Duration)
	}
	if t.TrackNumber > 0 {
		params["trackNumber"+suffix] = strconv.Itoa(t.TrackNumber)
	}
	if t.MBTrackID != "" {
		params["mbid"+suffix] = t.MBTrackID
	}
}

type ignoredXML struct {
	Code int    `xml:"code,attr"`
	Text string `xml:",chardata"`
}

func (m ignoredXML) message() IgnoredMessage {
	return IgnoredMessage{Code: m.Code, Text: m.Text}
}
