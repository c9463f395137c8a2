package lastfm

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/url"
)

// AuthService implements the desktop authentication flow: request a token,
// have the user approve it in a browser, then exchange it for a session key.
type AuthService struct {
	client *Client
}

// GetToken requests an unauthorized token (auth.getToken).
func (a *AuthService) GetToken(ctx context.Context) (*Token, error) {
	inner, err := a.client.call(ctx, "auth.getToken", nil, signed)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Token string `xml:"token"`
	}
	if err := xml.Unmarshal(wrap(inner), &resp); err != nil {
		return nil, fmt.Errorf("lastfm: failed to parse token response: %w", err)
	}
	if resp.Token == "" {
		return nil, fmt.Errorf("lastfm: empty token in response")
	}
	return &Token{Token: resp.Token}, nil
}

// GetAuthURL returns the page where the user approves token.
func (a *AuthService) GetAuthURL(token string) string {
	q := url.Values{"api_key": {a.client.apiKey}, "token": {token}}
	return "https://www.last.fm/api/auth/?" + q.Encode()
}

// GetSession exchanges an approved token for a session key
// (auth.getSession). Until the user approves the token the error matches
// ErrUnauthorizedToken. The session key does not expire; callers should
// store it and pass it to SetSessionKey.
func (a *AuthService) GetSession(ctx context.Context, token string) (*Session, error) {
	inner, err := a.client.call(ctx, "auth.getSession", map[string]string{"token": token}, signed)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Name       string `xml:"session>name"`
		Key        string `xml:"session>key"`
		Subscriber int    `xml:"session>subscriber"`
	}
	if err := xml.Unmarshal(wrap(inner), &resp); err != nil {
		return nil, fmt.Errorf("lastfm: failed to parse session response: %w", err)
	}
	if resp.Key == "" {
		return nil, fmt.Errorf("lastfm: empty session key in response")
	}
	return &Session{
		Key:        resp.Key,
		Username:   resp.Name,
		Subscriber: resp.Subscriber == 1,
	}, nil
}
