package cmd

import (
	"fmt"
	"os"
	"runtime"

	"github.com/jfmyers9/spotiwise/internal/daemon"
	"github.com/spf13/cobra"
)

// uninstallCmd represents the uninstall command
var uninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Uninstall the spotiwise daemon service",
	Long: `Stop the spotiwise daemon and remove its launchd agent or systemd user unit.

After uninstalling, the daemon will no longer run automatically on login.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := daemon.NewService(runtime.GOOS)
		if err != nil {
			return err
		}

		path := svc.Path()
		if _, err := os.Stat(path); os.IsNotExist(err) {
			fmt.Println("Daemon is not installed (service file not found)")
			return nil
		}

		fmt.Println("Stopping daemon...")
		if err := runCommands(svc.UnloadCommands(currentUID())); err != nil {
			fmt.Printf("Warning: failed to unload daemon: %v\n", err)
			fmt.Println("Continuing with service file removal...")
		} else {
			fmt.Println("✓ Daemon stopped")
		}

		if err := os.Remove(path); err != nil {
			return fmt.Errorf("failed to remove service file: %w", err)
		}

		fmt.Printf("✓ Removed service file %s\n", path)
		fmt.Println("\nThe spotiwise daemon has been uninstalled successfully.")
		fmt.Println("\nTo reinstall, run:")
		fmt.Println("  spotiwise install")

		return nil
	},
}

func init() {
	rootCmd.AddCommand(uninstallCmd)
}
