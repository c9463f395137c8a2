package lastfm

import (
	"fmt"
	"net/http"
	"time"
)

const (
	// DefaultBaseURL is the Last.fm API 2.0 endpoint.
	DefaultBaseURL = "https://ws.audioscrobbler.com/2.0/"

	// DefaultUserAgent identifies requests made by this package.
	DefaultUserAgent = "spotiwise/1.0"

	defaultRetries = 3
	defaultBackoff = time.Second
)

// Config holds client configuration.
type Config struct {
	APIKey     string        // Required: Last.fm API key
	APISecret  string        // Required: Last.fm API secret
	SessionKey string        // Optional: session key for write methods
	HTTPClient *http.Client  // Optional: defaults to http.DefaultClient
	BaseURL    string        // Optional: defaults to DefaultBaseURL, used for testing
	UserAgent  string        // Optional: defaults to DefaultUserAgent
	Retries    int           // Optional: attempts per call (defaults to 3)
	Backoff    time.Duration // Optional: first retry delay, doubled per retry (defaults to 1s)
	Logger     Logger        // Optional: debug logger
}

// Logger is an optional interface for logging.
type Logger interface {
	Debugf(format string, args ...interface{})
}

// Client is the entry point for Last.fm API operations.
type Client struct {
	apiKey     string
	apiSecret  string
	sessionKey string
	httpClient *http.Client
	baseURL    string
	userAgent  string
	retries    int
	backoff    time.Duration
	logger     Logger

	auth     *AuthService
	scrobble *ScrobbleService
	user     *UserService
}

// NewClient creates a Last.fm API client. APIKey and APISecret are required.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: APIKey is required", ErrInvalidConfig)
	}
	if cfg.APISecret == "" {
		return nil, fmt.Errorf("%w: APISecret is required", ErrInvalidConfig)
	}

	c := &Client{
		apiKey:     cfg.APIKey,
		apiSecret:  cfg.APISecret,
		sessionKey: cfg.SessionKey,
		httpClient: cfg.HTTPClient,
		baseURL:    cfg.BaseURL,
		userAgent:  cfg.UserAgent,
		retries:    cfg.Retries,
		backoff:    cfg.Backoff,
		logger:     cfg.Logger,
	}
	if c.httpClient == nil {
		c.httpClient = http.DefaultClient
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.userAgent == "" {
		c.userAgent = DefaultUserAgent
	}
	if c.retries <= 0 {
		c.retries = defaultRetries
	}
	if c.backoff <= 0 {
		c.backoff = defaultBackoff
	}

	c.auth = &AuthService{client: c}
	c.scrobble = &ScrobbleService{client: c}
	c.user = &UserService{client: c}
	return c, nil
}

// Auth returns the authentication service.
func (c *Client) Auth() *AuthService { return c.auth }

// Scrobble returns the scrobbling service.
func (c *Client) Scrobble() *ScrobbleService { return c.scrobble }

// User returns the user profile service.
func (c *Client) User() *UserService { return c.user }

// SetSessionKey sets the session key for authenticated requests.
func (c *Client) SetSessionKey(key string) { c.sessionKey = key }

// SessionKey returns the current session key.
func (c *Client) SessionKey() string { return c.sessionKey }

func (c *Client) logDebugf(format string, args ...interface{}) {
	if c.logger != nil {
		c.logger.Debugf(format, args...)
	}
}
