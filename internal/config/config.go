package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	// Output format template for the now command
	// Default: "{{.Artist}} - {{.Name}}"
	OutputFormat string

	// Fixed output width for the now command (0 = disabled)
	OutputWidth int

	// Marquee scrolling for the now command when the output is wider than OutputWidth
	MarqueeEnabled   bool
	MarqueeSpeed     int
	MarqueeSeparator string

	// Poll interval for the daemon (in seconds)
	PollInterval int

	// Spotify Web API settings
	Spotify SpotifyConfig

	// Last.fm API credentials
	LastFM LastFMConfig
}

// SpotifyConfig holds Spotify specific configuration
type SpotifyConfig struct {
	ClientID      string
	ClientSecret  string
	RedirectURL   string
	TokenFile     string
	Market        string
	Retries       int
	BackoffFactor float64
	Timeout       time.Duration
	Language      string
}

// LastFMConfig holds Last.fm specific configuration
type LastFMConfig struct {
	APIKey     string
	APISecret  string
	SessionKey string
	Username   string
}

// Load reads configuration from file and environment
func Load() (*Config, error) {
	return load(getConfigDir())
}

func load(configDir string) (*Config, error) {
	// A .env file in the working directory or config directory fills in
	// variables that are not already set in the environment.
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(configDir, ".env"))

	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// Config file locations (in order of precedence)
	v.AddConfigPath(configDir)
	v.AddConfigPath(".")

	setDefaults(v)

	// Read config file (optional - don't fail if missing)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	// Read from environment variables, e.g. SPOTIWISE_LASTFM_API_KEY
	v.SetEnvPrefix("SPOTIWISE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Map config to struct
	cfg := &Config{
		OutputFormat:     v.GetString("output_format"),
		OutputWidth:      v.GetInt("output_width"),
		MarqueeEnabled:   v.GetBool("marquee_enabled"),
		MarqueeSpeed:     v.GetInt("marquee_speed"),
		MarqueeSeparator: v.GetString("marquee_separator"),
		PollInterval:     v.GetInt("poll_interval"),
		Spotify: SpotifyConfig{
			ClientID:      v.GetString("spotify.client_id"),
			ClientSecret:  v.GetString("spotify.client_secret"),
			RedirectURL:   v.GetString("spotify.redirect_url"),
			TokenFile:     v.GetString("spotify.token_file"),
			Market:        v.GetString("spotify.market"),
			Retries:       v.GetInt("spotify.retries"),
			BackoffFactor: v.GetFloat64("spotify.backoff_factor"),
			Timeout:       v.GetDuration("spotify.timeout"),
			Language:      v.GetString("spotify.language"),
		},
		LastFM: LastFMConfig{
			APIKey:     v.GetString("lastfm.api_key"),
			APISecret:  v.GetString("lastfm.api_secret"),
			SessionKey: v.GetString("lastfm.session_key"),
			Username:   v.GetString("lastfm.username"),
		},
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("output_format", "{{.Artist}} - {{.Name}}")
	v.SetDefault("output_width", 0)
	v.SetDefault("marquee_enabled", false)
	v.SetDefault("marquee_speed", 2)
	v.SetDefault("marquee_separator", " • ")
	v.SetDefault("poll_interval", 5)

	v.SetDefault("spotify.client_id", "")
	v.SetDefault("spotify.client_secret", "")
	v.SetDefault("spotify.redirect_url", "http://127.0.0.1:8888/callback")
	v.SetDefault("spotify.token_file", "")
	v.SetDefault("spotify.market", "")
	v.SetDefault("spotify.retries", 3)
	v.SetDefault("spotify.backoff_factor", 0.3)
	v.SetDefault("spotify.timeout", 5*time.Second)
	v.SetDefault("spotify.language", "")

	// Registered so AutomaticEnv can find them when no file sets them.
	v.SetDefault("lastfm.api_key", "")
	v.SetDefault("lastfm.api_secret", "")
	v.SetDefault("lastfm.session_key", "")
	v.SetDefault("lastfm.username", "")
}

// getConfigDir returns the configuration directory path
// Creates the directory if it doesn't exist
func getConfigDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	configDir := filepath.Join(homeDir, ".config", "spotiwise")

	// Create config directory if it doesn't exist
	_ = os.MkdirAll(configDir, 0755)

	return configDir
}

// GetConfigDir returns the configuration directory path (public helper)
func GetConfigDir() string {
	return getConfigDir()
}

// DataDir returns ~/.local/share/spotiwise, where the daemon keeps its state
// and queue.
func DataDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".local", "share", "spotiwise"), nil
}

// Save writes configuration to file
func (c *Config) Save() error {
	return c.saveTo(getConfigDir())
}

func (c *Config) saveTo(configDir string) error {
	v := viper.New()

	// Set config file path
	configFile := filepath.Join(configDir, "config.yaml")

	// Set values in viper
	v.Set("output_format", c.OutputFormat)
	v.Set("output_width", c.OutputWidth)
	v.Set("marquee_enabled", c.MarqueeEnabled)
	v.Set("marquee_speed", c.MarqueeSpeed)
	v.Set("marquee_separator", c.MarqueeSeparator)
	v.Set("poll_interval", c.PollInterval)

	v.Set("spotify.client_id", c.Spotify.ClientID)
	v.Set("spotify.client_secret", c.Spotify.ClientSecret)
	v.Set("spotify.redirect_url", c.Spotify.RedirectURL)
	v.Set("spotify.token_file", c.Spotify.TokenFile)
	v.Set("spotify.market", c.Spotify.Market)
	v.Set("spotify.retries", c.Spotify.Retries)
	v.Set("spotify.backoff_factor", c.Spotify.BackoffFactor)
	v.Set("spotify.timeout", c.Spotify.Timeout.String())
	v.Set("spotify.language", c.Spotify.Language)

	v.Set("lastfm.api_key", c.LastFM.APIKey)
	v.Set("lastfm.api_secret", c.LastFM.APISecret)
	v.Set("lastfm.session_key", c.LastFM.SessionKey)
	v.Set("lastfm.username", c.LastFM.Username)

	// Write to file
	return v.WriteConfigAs(configFile)
}
