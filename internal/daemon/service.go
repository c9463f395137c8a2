package daemon

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"text/template"
)

// ServiceLabel identifies the installed agent to launchd and systemd.
const ServiceLabel = "com.spotiwise.daemon"

const plistTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>Label</key>
	<string>` + ServiceLabel + `</string>
	<key>ProgramArguments</key>
	<array>
		<string>{{.BinaryPath}}</string>
		<string>daemon</string>
	</array>
	<key>RunAtLoad</key>
	<true/>
	<key>KeepAlive</key>
	<true/>
	<key>StandardOutPath</key>
	<string>{{.LogPath}}/spotiwise.log</string>
	<key>StandardErrorPath</key>
	<string>{{.LogPath}}/spotiwise.err</string>
	<key>WorkingDirectory</key>
	<string>{{.WorkingDirectory}}</string>
	<key>EnvironmentVariables</key>
	<dict>
		<key>PATH</key>
		<string>/usr/local/bin:/usr/bin:/bin:/usr/sbin:/sbin</string>
	</dict>
</dict>
</plist>
`

const unitTemplate = `[Unit]
Description=spotiwise Spotify to Last.fm scrobbler
After=network-online.target

[Service]
ExecStart={{.BinaryPath}} daemon
WorkingDirectory={{.WorkingDirectory}}
Restart=on-failure
RestartSec=10
StandardOutput=append:{{.LogPath}}/spotiwise.log
StandardError=append:{{.LogPath}}/spotiwise.err

[Install]
WantedBy=default.target
`

// ServiceConfig holds the values substituted into a service file.
type ServiceConfig struct {
	BinaryPath       string
	LogPath          string
	WorkingDirectory string
}

// Service describes how the daemon is installed on one platform: a
// launchd agent on darwin, a systemd user unit everywhere else.
type Service struct {
	goos string
	home string
}

// NewService returns the Service for goos rooted at the user's home.
func NewService(goos string) (*Service, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get user home directory: %w", err)
	}
	return &Service{goos: goos, home: home}, nil
}

func (s *Service) launchd() bool { return s.goos == "darwin" }

// Path returns where the service file is installed.
func (s *Service) Path() string {
	if s.launchd() {
		return filepath.Join(s.home, "Library", "LaunchAgents", ServiceLabel+".plist")
	}
	return filepath.Join(s.home, ".config", "systemd", "user", "spotiwise.service")
}

// Generate renders the service file.
func (s *Service) Generate(cfg ServiceConfig) (string, error) {
	text := unitTemplate
	if s.launchd() {
		text = plistTemplate
	}

	tmpl, err := template.New("service").Parse(text)
	if err != nil {
		return "", fmt.Errorf("failed to parse service template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, cfg); err != nil {
		return "", fmt.Errorf("failed to execute service template: %w", err)
	}
	return buf.String(), nil
}

// LoadCommands returns the commands that start the installed service.
// uid is only used by launchd.
func (s *Service) LoadCommands(uid string) [][]string {
	if s.launchd() {
		return [][]string{{"launchctl", "bootstrap", "gui/" + uid, s.Path()}}
	}
	return [][]string{
		{"systemctl", "--user", "daemon-reload"},
		{"systemctl", "--user", "enable", "--now", "spotiwise.service"},
	}
}

// UnloadCommands returns the commands that stop the installed service.
func (s *Service) UnloadCommands(uid string) [][]string {
	if s.launchd() {
		return [][]string{{"launchctl", "bootout", "gui/" + uid + "/" + ServiceLabel}}
	}
	return [][]string{{"systemctl", "--user", "disable", "--now", "spotiwise.service"}}
}

// StatusHint is the command a user can run to check on the service.
func (s *Service) StatusHint() string {
	if s.launchd() {
		return "launchctl list | grep spotiwise"
	}
	return "systemctl --user status spotiwise.service"
}

// DefaultLogPath returns the default path for daemon logs
func DefaultLogPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", "spotiwise", "logs"), nil
}
