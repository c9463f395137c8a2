// Package spotify is a small resource client for the Spotify Web API.
//
// It issues authenticated REST calls and hands back decoded JSON. It does
// not know about OAuth: callers supply an *http.Client that already
// attaches bearer tokens (for example one built by golang.org/x/oauth2).
//
// Example usage:
//
//	client, err := spotify.NewClient(spotify.Config{HTTPClient: httpClient})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	var page spotify.Paging
//	if err := client.Get(ctx, "playlists/"+id+"/tracks", nil, &page); err != nil {
//	    log.Fatal(err)
//	}
//	for next := &page; next != nil; next, err = client.Next(ctx, next) {
//	    ...
//	}
package spotify

import (
	"net/http"
	"time"
)

const (
	// DefaultBaseURL is the Spotify Web API prefix used for relative paths.
	DefaultBaseURL = "https://api.spotify.com/v1/"

	// DefaultRetries is the number of retries after the first attempt.
	DefaultRetries = 3

	// DefaultBackoffFactor scales the exponential wait between retries (seconds).
	DefaultBackoffFactor = 0.3

	// DefaultTimeout bounds a single HTTP attempt.
	DefaultTimeout = 5 * time.Second
)

// DefaultRetryCodes are the HTTP status codes that trigger a retry.
var DefaultRetryCodes = []int{
	http.StatusTooManyRequests,
	http.StatusInternalServerError,
	http.StatusBadGateway,
	http.StatusServiceUnavailable,
	http.StatusGatewayTimeout,
}

// Config holds client configuration.
type Config struct {
	HTTPClient    *http.Client  // Optional: authorized HTTP client (defaults to http.DefaultClient)
	BaseURL       string        // Optional: API prefix (defaults to DefaultBaseURL, used for testing)
	Retries       int           // Optional: retry count (defaults to DefaultRetries, negative disables)
	BackoffFactor float64       // Optional: backoff factor in seconds (defaults to DefaultBackoffFactor)
	RetryCodes    []int         // Optional: status codes to retry (defaults to DefaultRetryCodes)
	Timeout       time.Duration // Optional: per-attempt timeout (defaults to DefaultTimeout)
	Language      string        // Optional: sent as Accept-Language
	Logger        Logger        // Optional: debug logger
}

// Logger is an optional interface for logging.
type Logger interface {
	Debugf(format string, args ...interface{})
}

// Client issues requests against the Spotify Web API.
type Client struct {
	httpClient    *http.Client
	baseURL       string
	retries       int
	backoffFactor float64
	retryCodes    map[int]bool
	timeout       time.Duration
	language      string
	logger        Logger
}

// NewClient creates a new Spotify resource client.
func NewClient(cfg Config) (*Client, error) {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if baseURL[len(baseURL)-1] != '/' {
		baseURL += "/"
	}

	retries := cfg.Retries
	switch {
	case retries == 0:
		retries = DefaultRetries
	case retries < 0:
		retries = 0
	}

	backoff := cfg.BackoffFactor
	if backoff <= 0 {
		backoff = DefaultBackoffFactor
	}

	codes := cfg.RetryCodes
	if len(codes) == 0 {
		codes = DefaultRetryCodes
	}
	retryCodes := make(map[int]bool, len(codes))
	for _, code := range codes {
		retryCodes[code] = true
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		httpClient:    httpClient,
		baseURL:       baseURL,
		retries:       retries,
		backoffFactor: backoff,
		retryCodes:    retryCodes,
		timeout:       timeout,
		language:      cfg.Language,
		logger:        cfg.Logger,
	}, nil
}

func (c *Client) logDebugf(format string, args ...interface{}) {
	if c.logger != nil {
		c.logger.Debugf(format, args...)
	}
}
