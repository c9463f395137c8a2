//go:build integration

package main

import (
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"testing"
	"time"
)

// buildBinary compiles spotiwise into a temp dir and returns its path.
func buildBinary(t testing.TB) string {
	t.Helper()
	bin := filepath.Join(t.TempDir(), "spotiwise_test")
	if out, err := exec.Command("go", "build", "-o", bin, ".").CombinedOutput(); err != nil {
		t.Fatalf("Failed to build binary: %v\n%s", err, out)
	}
	return bin
}

// testEnv points the binary at a temp HOME with fake credentials and a
// Spotify token that will not need refreshing during the test.
func testEnv(t *testing.T) []string {
	t.Helper()
	home := t.TempDir()
	tokenFile := filepath.Join(home, "token.json")
	token, _ := json.Marshal(map[string]interface{}{
		"access_token":  "test_access",
		"token_type":    "Bearer",
		"refresh_token": "test_refresh",
		"expiry":        time.Now().Add(time.Hour),
	})
	if err := os.WriteFile(tokenFile, token, 0600); err != nil {
		t.Fatalf("write token: %v", err)
	}

	return append(os.Environ(),
		"HOME="+home,
		"SPOTIWISE_SPOTIFY_CLIENT_ID=test_client",
		"SPOTIWISE_SPOTIFY_CLIENT_SECRET=test_secret",
		"SPOTIWISE_SPOTIFY_TOKEN_FILE="+tokenFile,
		"SPOTIWISE_LASTFM_API_KEY=test_key",
		"SPOTIWISE_LASTFM_API_SECRET=test_secret",
		"SPOTIWISE_LASTFM_SESSION_KEY=test_session",
		"SPOTIWISE_LASTFM_USERNAME=test_user",
	)
}

// TestDaemonLifecycle starts the daemon, checks its data files and stops
// it with SIGINT. Requests fail with the fake credentials; the daemon logs
// them and keeps running.
func TestDaemonLifecycle(t *testing.T) {
	bin := buildBinary(t)
	dataDir := t.TempDir()

	cmd := exec.Command(bin, "daemon", "--data-dir", dataDir, "--log-level", "debug")
	cmd.Env = testEnv(t)
	if err := cmd.Start(); err != nil {
		t.Fatalf("Failed to start daemon: %v", err)
	}

	time.Sleep(time.Second)

	queueDB := filepath.Join(dataDir, "queue.db")
	if _, err := os.Stat(queueDB); os.IsNotExist(err) {
		t.Errorf("Queue database not created: %s", queueDB)
	}

	if err := cmd.Process.Signal(syscall.SIGINT); err != nil {
		t.Fatalf("Failed to signal daemon: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Daemon exited with error: %v", err)
		}
	case <-time.After(5 * time.Second):
		_ = cmd.Process.Kill()
		t.Error("Daemon did not stop within 5 seconds")
	}
}

// TestDaemonRequiresCredentials checks the daemon refuses to start without
// a Last.fm session.
func TestDaemonRequiresCredentials(t *testing.T) {
	bin := buildBinary(t)

	cmd := exec.Command(bin, "daemon", "--data-dir", t.TempDir())
	cmd.Env = append(os.Environ(), "HOME="+t.TempDir())
	out, err := cmd.CombinedOutput()
	if err == nil {
		t.Fatalf("expected daemon to fail without credentials, output:\n%s", out)
	}
}

// TestNowCommand runs "now" against the live API. It only logs, since the
// outcome depends on the account's playback state.
func TestNowCommand(t *testing.T) {
	bin := buildBinary(t)

	output, err := exec.Command(bin, "now").CombinedOutput()
	if err != nil {
		t.Logf("Now command failed (expected without a token or when nothing plays): %v", err)
		t.Logf("Output: %s", output)
		return
	}
	t.Logf("Now command output: %s", output)
}

// TestServiceInstallation documents the manual install check; it modifies
// the user's service manager.
func TestServiceInstallation(t *testing.T) {
	t.Skip("Modifies the user's launchd or systemd setup - run manually")

	// Manual steps:
	// 1. go build -o spotiwise .
	// 2. ./spotiwise install
	// 3. macOS: launchctl list | grep spotiwise
	//    Linux: systemctl --user status spotiwise.service
	// 4. ./spotiwise uninstall
}
