/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>

*/
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "spotiwise",
	Short: "Spotify companion and Last.fm scrobbler",
	Long: `spotiwise wraps the Spotify Web API and scrobbles what you play to Last.fm.

It runs as a background daemon that watches Spotify playback, keeps
Last.fm's "now playing" in sync, and scrobbles tracks played past 70%.

It also provides commands to show the current track (useful for tmux
status lines), export playlists as CSV, and control playback.`,
	Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
