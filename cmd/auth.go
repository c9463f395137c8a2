package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/jfmyers9/spotiwise/internal/config"
	"github.com/jfmyers9/spotiwise/internal/scrobbler"
	"github.com/jfmyers9/spotiwise/internal/spotifyauth"
	"github.com/spf13/cobra"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authenticate with Spotify and Last.fm",
	Long: `Authenticate spotiwise with the services it talks to.

Run both subcommands once before starting the daemon:
  spotiwise auth spotify
  spotiwise auth lastfm`,
}

var authLastFMCmd = &cobra.Command{
	Use:   "lastfm",
	Short: "Authenticate with Last.fm",
	Long: `Authenticate with Last.fm to enable scrobbling.

This command will guide you through the Last.fm authentication process:
1. You'll be prompted to enter your Last.fm API key and secret
2. A browser URL will be provided for you to authorize the application
3. After authorization, the session key and username will be saved to your config file

You can get API credentials from: https://www.last.fm/api/account/create`,
	RunE: runAuthLastFM,
}

var authSpotifyCmd = &cobra.Command{
	Use:   "spotify",
	Short: "Authenticate with Spotify",
	Long: `Authenticate with Spotify so spotiwise can read and control playback.

This command will:
1. Prompt for your Spotify app's client ID and secret (if not configured)
2. Start a local callback server on the configured redirect URL
3. Print a URL for you to open and approve in the browser
4. Save the resulting token next to your config file

Create an app at https://developer.spotify.com/dashboard and add the
redirect URL (default http://127.0.0.1:8888/callback) to its settings.`,
	RunE: runAuthSpotify,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(authLastFMCmd)
	authCmd.AddCommand(authSpotifyCmd)
}

// promptCredential asks for value unless it is already set and the user
// chooses to keep it.
func promptCredential(reader *bufio.Reader, label string, current *string) error {
	if *current == "" {
		fmt.Printf("Enter your %s: ", label)
		value, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", label, err)
		}
		*current = strings.TrimSpace(value)
	}
	return nil
}

// confirmExisting returns true if the user wants to keep existing credentials.
func confirmExisting(reader *bufio.Reader, label, shown string) bool {
	fmt.Printf("Found existing API credentials.\n")
	fmt.Printf("%s: %s\n", label, shown)
	fmt.Print("\nUse existing credentials? [Y/n]: ")
	response, err := reader.ReadString('\n')
	if err != nil {
		response = "y"
	}
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "" || response == "y" || response == "yes"
}

func runAuthLastFM(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	reader := bufio.NewReader(os.Stdin)

	// Load existing config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Step 1: Get API credentials
	fmt.Println("Last.fm Authentication")
	fmt.Println("======================")
	fmt.Println()
	fmt.Println("You can get API credentials from: https://www.last.fm/api/account/create")
	fmt.Println()

	if cfg.LastFM.APIKey != "" && cfg.LastFM.APISecret != "" {
		if !confirmExisting(reader, "API Key", cfg.LastFM.APIKey) {
			cfg.LastFM.APIKey = ""
			cfg.LastFM.APISecret = ""
		}
	}

	if err := promptCredential(reader, "Last.fm API Key", &cfg.LastFM.APIKey); err != nil {
		return err
	}
	if err := promptCredential(reader, "Last.fm API Secret", &cfg.LastFM.APISecret); err != nil {
		return err
	}

	// Validate inputs
	if cfg.LastFM.APIKey == "" || cfg.LastFM.APISecret == "" {
		return fmt.Errorf("API key and secret are required")
	}

	// Step 2: Create scrobbler client and get auth token
	client, err := scrobbler.New(scrobbler.Config{
		APIKey:    cfg.LastFM.APIKey,
		APISecret: cfg.LastFM.APISecret,
	})
	if err != nil {
		return fmt.Errorf("failed to create Last.fm client: %w", err)
	}

	fmt.Println("\nGenerating authentication token...")
	token, authURL, err := client.AuthenticateWithToken(ctx)
	if err != nil {
		return fmt.Errorf("failed to generate auth token: %w", err)
	}

	// Step 3: Direct user to authorize
	fmt.Println("\nPlease visit this URL to authorize spotiwise:")
	fmt.Printf("\n  %s\n\n", authURL)
	fmt.Println("After authorizing, press Enter to continue...")
	_, _ = reader.ReadString('\n')

	// Step 4: Get session key (with retries)
	fmt.Println("Retrieving session key...")
	var sessionKey, username string
	maxRetries := 3
	retryDelay := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		sessionKey, username, err = client.GetSession(ctx, token)
		if err == nil {
			break
		}

		if i < maxRetries-1 {
			fmt.Printf("Failed to retrieve session (attempt %d/%d). Retrying in %v...\n",
				i+1, maxRetries, retryDelay)
			time.Sleep(retryDelay)
		}
	}

	if err != nil {
		return fmt.Errorf("failed to get session key after %d attempts: %w", maxRetries, err)
	}

	// Step 5: Save session key to config
	cfg.LastFM.SessionKey = sessionKey
	cfg.LastFM.Username = username
	if err := cfg.Save(); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	configPath := config.GetConfigDir()
	fmt.Printf("\n✓ Authenticated as %s\n", username)
	fmt.Printf("✓ Session key saved to %s/config.yaml\n", configPath)
	fmt.Println("\nYou can now use 'spotiwise daemon' to start scrobbling.")

	return nil
}

func runAuthSpotify(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	reader := bufio.NewReader(os.Stdin)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	fmt.Println("Spotify Authentication")
	fmt.Println("======================")
	fmt.Println()
	fmt.Println("You can create an app at: https://developer.spotify.com/dashboard")
	fmt.Println()

	if cfg.Spotify.ClientID != "" && cfg.Spotify.ClientSecret != "" {
		if !confirmExisting(reader, "Client ID", cfg.Spotify.ClientID) {
			cfg.Spotify.ClientID = ""
			cfg.Spotify.ClientSecret = ""
		}
	}

	if err := promptCredential(reader, "Spotify Client ID", &cfg.Spotify.ClientID); err != nil {
		return err
	}
	if err := promptCredential(reader, "Spotify Client Secret", &cfg.Spotify.ClientSecret); err != nil {
		return err
	}

	auth, err := spotifyauth.New(spotifyauth.Config{
		ClientID:     cfg.Spotify.ClientID,
		ClientSecret: cfg.Spotify.ClientSecret,
		RedirectURL:  cfg.Spotify.RedirectURL,
		TokenFile:    cfg.Spotify.TokenFile,
	}, commandLogger())
	if err != nil {
		return err
	}

	// Save credentials before the browser round trip so a retry does not
	// have to prompt again.
	if err := cfg.Save(); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	_, err = auth.Login(ctx, func(authURL string) {
		fmt.Println("\nPlease visit this URL to authorize spotiwise:")
		fmt.Printf("\n  %s\n\n", authURL)
		fmt.Println("Waiting for Spotify to redirect back...")
	})
	if err != nil {
		return fmt.Errorf("spotify authorization failed: %w", err)
	}

	fmt.Printf("\n✓ Authentication successful!\n")
	fmt.Printf("✓ Token saved to %s\n", auth.Storage().Path())
	return nil
}
