package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/jfmyers9/spotiwise/internal/daemon"
	"github.com/spf13/cobra"
)

// installCmd represents the install command
var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Install the spotiwise daemon as a user service",
	Long: `Install the spotiwise daemon so it runs automatically on login.

On macOS this writes a launchd agent to ~/Library/LaunchAgents/ and loads it
with launchctl. Elsewhere it writes a systemd user unit to
~/.config/systemd/user/ and enables it with systemctl --user.

Run 'spotiwise auth spotify' and 'spotiwise auth lastfm' first.`,
	RunE: runInstall,
}

func init() {
	rootCmd.AddCommand(installCmd)
}

func runInstall(cmd *cobra.Command, args []string) error {
	svc, err := daemon.NewService(runtime.GOOS)
	if err != nil {
		return err
	}

	// Get the path to the current executable
	binaryPath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to get executable path: %w", err)
	}

	// Resolve symlinks to get the actual binary path
	binaryPath, err = filepath.EvalSymlinks(binaryPath)
	if err != nil {
		return fmt.Errorf("failed to resolve executable path: %w", err)
	}

	logPath, err := daemon.DefaultLogPath()
	if err != nil {
		return fmt.Errorf("failed to get log path: %w", err)
	}
	if err := os.MkdirAll(logPath, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	content, err := svc.Generate(daemon.ServiceConfig{
		BinaryPath:       binaryPath,
		LogPath:          logPath,
		WorkingDirectory: home,
	})
	if err != nil {
		return err
	}

	path := svc.Path()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create service directory: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		fmt.Println("Daemon is already installed. Reinstalling...")
		if err := runCommands(svc.UnloadCommands(currentUID())); err != nil {
			fmt.Printf("Warning: failed to unload existing daemon: %v\n", err)
		}
	}

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write service file: %w", err)
	}
	fmt.Printf("✓ Installed service file to %s\n", path)

	if err := runCommands(svc.LoadCommands(currentUID())); err != nil {
		return fmt.Errorf("failed to load daemon: %w", err)
	}

	fmt.Println("✓ Daemon loaded and started successfully")
	fmt.Printf("✓ Logs will be written to %s\n", logPath)
	fmt.Println("\nThe spotiwise daemon is now running and will start automatically on login.")
	fmt.Println("\nYou can check the daemon status with:")
	fmt.Printf("  %s\n", svc.StatusHint())
	fmt.Println("\nTo uninstall, run:")
	fmt.Println("  spotiwise uninstall")

	return nil
}

func currentUID() string {
	return strconv.Itoa(os.Getuid())
}

// runCommands runs each command in order, stopping at the first failure.
func runCommands(commands [][]string) error {
	for _, argv := range commands {
		out, err := exec.Command(argv[0], argv[1:]...).CombinedOutput()
		if err != nil {
			if msg := strings.TrimSpace(string(out)); msg != "" {
				return fmt.Errorf("%s: %s", strings.Join(argv, " "), msg)
			}
			return fmt.Errorf("%s: %w", strings.Join(argv, " "), err)
		}
	}
	return nil
}
