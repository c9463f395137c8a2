package lastfm

import (
	"context"
	"encoding/xml"
	"fmt"
	"strconv"
	"time"
)

// UserService reads public profile data. It needs no session key.
type UserService struct {
	client *Client
}

type recentTrackXML struct {
	NowPlaying string `xml:"nowplaying,attr"`
	Artist     string `xml:"artist"`
	Name       string `xml:"name"`
	Album      string `xml:"album"`
	URL        string `xml:"url"`
	Date       struct {
		UTS int64 `xml:"uts,attr"`
	} `xml:"date"`
}

// recentTracks calls user.getRecentTracks. The now-playing entry, if any,
// comes first and does not count toward limit.
func (u *UserService) recentTracks(ctx context.Context, user string, limit int) ([]RecentTrack, error) {
	if user == "" {
		return nil, fmt.Errorf("%w: user is required", ErrInvalidConfig)
	}
	params := map[string]string{"user": user}
	if limit > 0 {
		params["limit"] = strconv.Itoa(limit)
	}

	inner, err := u.client.call(ctx, "user.getRecentTracks", params, public)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Tracks []recentTrackXML `xml:"recenttracks>track"`
	}
	if err := xml.Unmarshal(wrap(inner), &resp); err != nil {
		return nil, fmt.Errorf("lastfm: failed to parse recent tracks response: %w", err)
	}

	out := make([]RecentTrack, 0, len(resp.Tracks))
	for _, t := range resp.Tracks {
		rt := RecentTrack{
			Artist:     t.Artist,
			Name:       t.Name,
			Album:      t.Album,
			URL:        t.URL,
			NowPlaying: t.NowPlaying == "true",
		}
		if t.Date.UTS > 0 {
			rt.PlayedAt = time.Unix(t.Date.UTS, 0)
		}
		out = append(out, rt)
	}
	return out, nil
}

// GetRecentTracks returns up to limit of the user's scrobbles, newest
// first. A track currently playing is not included.
func (u *UserService) GetRecentTracks(ctx context.Context, user string, limit int) ([]RecentTrack, error) {
	tracks, err := u.recentTracks(ctx, user, limit)
	if err != nil {
		return nil, err
	}
	played := tracks[:0]
	for _, t := range tracks {
		if !t.NowPlaying {
			played = append(played, t)
		}
	}
	if limit > 0 && len(played) > limit {
		played = played[:limit]
	}
	return played, nil
}

// GetNowPlaying returns the track Last.fm reports as playing for user, or
// nil when there is none.
func (u *UserService) GetNowPlaying(ctx context.Context, user string) (*RecentTrack, error) {
	tracks, err := u.recentTracks(ctx, user, 1)
	if err != nil {
		return nil, err
	}
	for _, t := range tracks {
		if t.NowPlaying {
			t := t
			return &t, nil
		}
	}
	return nil, nil
}
