// Package lastfm is a client for the Last.fm API 2.0.
//
// It covers the desktop authentication flow, now-playing updates,
// scrobbling and reading a user's recent tracks. Requests use the XML
// response format; write methods are signed with the API secret and sent
// as form POSTs, read methods are plain GETs.
//
// # Authentication
//
//	client, err := lastfm.NewClient(lastfm.Config{
//	    APIKey:    "your-api-key",
//	    APISecret: "your-api-secret",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	token, err := client.Auth().GetToken(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println("Authorize at:", client.Auth().GetAuthURL(token.Token))
//
//	// once the user has approved the token
//	session, err := client.Auth().GetSession(ctx, token.Token)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	client.SetSessionKey(session.Key)
//
// # Scrobbling
//
//	track := lastfm.Track{Artist: "The Beatles", Track: "Yesterday", Album: "Help!"}
//	if _, err := client.Scrobble().UpdateNowPlaying(ctx, track); err != nil {
//	    log.Printf("now playing: %v", err)
//	}
//	if _, err := client.Scrobble().Scrobble(ctx, track, startedAt); err != nil {
//	    log.Printf("scrobble: %v", err)
//	}
//
// # Reading history
//
//	recent, err := client.User().GetRecentTracks(ctx, "rj", 2)
//	playing, err := client.User().GetNowPlaying(ctx, "rj")
//
// # Errors
//
// API failures are returned as *Error. Codes 11, 16 and 29 are temporary
// and retried with exponential backoff (1s, doubling, capped at 30s), as are
// network errors and 5xx responses. Use errors.As to inspect the code:
//
//	var apiErr *lastfm.Error
//	if errors.As(err, &apiErr) && apiErr.Code == lastfm.ErrCodeInvalidSessionKey {
//	    // re-authenticate
//	}
package lastfm
