package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// FilePermissions is the default permission mode for regular files (read/write for owner, read for others)
	FilePermissions = 0644
	// DirPermissions is the default permission mode for directories (rwxr-xr-x)
	DirPermissions = 0755

	// LocalSettingsFile overrides the global settings file when present in the working directory
	LocalSettingsFile = ".ferrum.yaml"
)

var (
	// ConfigDir is the global configuration directory (~/.ferrum)
	ConfigDir string

	// SettingsFile is the client settings file
	SettingsFile string

	// KeybindsFile holds user keybinding overrides
	KeybindsFile string

	// DatabasePath is the SQLite journal of opened and saved documents
	DatabasePath string

	// LogFile receives structured logs while the TUI owns the terminal
	LogFile string

	// ServerStateDir holds the reference server's persisted config
	ServerStateDir string
)

// Telemetry configures the background system-info sampler
type Telemetry struct {
	Transport string `yaml:"transport"` // poll or stream
	Interval  int    `yaml:"interval"`  // seconds between polls
}

// Settings is the local client configuration.
// It is distinct from types.Config, which lives on the server.
type Settings struct {
	APIURL         string    `yaml:"apiUrl"`
	Volume         string    `yaml:"volume"`
	Demo           bool      `yaml:"demo"`
	RequestTimeout int       `yaml:"requestTimeout"` // seconds, 0 = no timeout
	LogLevel       string    `yaml:"logLevel"`
	Telemetry      Telemetry `yaml:"telemetry"`
}

// DefaultSettings returns the settings written on first run
func DefaultSettings() Settings {
	return Settings{
		APIURL:         "http://localhost:3001",
		Volume:         "C:",
		Demo:           false,
		RequestTimeout: 0,
		LogLevel:       "info",
		Telemetry: Telemetry{
			Transport: "poll",
			Interval:  2,
		},
	}
}

// Timeout returns the HTTP timeout as a duration
func (s Settings) Timeout() time.Duration {
	if s.RequestTimeout <= 0 {
		return 0
	}
	return time.Duration(s.RequestTimeout) * time.Second
}

// PollInterval returns the telemetry poll interval as a duration
func (s Settings) PollInterval() time.Duration {
	if s.Telemetry.Interval <= 0 {
		return 2 * time.Second
	}
	return time.Duration(s.Telemetry.Interval) * time.Second
}

// Initialize sets up the configuration directories and files
// It creates ~/.ferrum/ if it doesn't exist
func Initialize() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	return InitializeAt(filepath.Join(homeDir, ".ferrum"))
}

// InitializeAt sets up the configuration rooted at dir
func InitializeAt(dir string) error {
	ConfigDir = dir
	SettingsFile = filepath.Join(ConfigDir, "settings.yaml")
	KeybindsFile = filepath.Join(ConfigDir, "keybinds.json")
	DatabasePath = filepath.Join(ConfigDir, "ferrum.db")
	LogFile = filepath.Join(ConfigDir, "ferrum.log")
	ServerStateDir = filepath.Join(ConfigDir, "server")

	if err := os.MkdirAll(ConfigDir, DirPermissions); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", ConfigDir, err)
	}

	// Create default settings file if it doesn't exist
	if _, err := os.Stat(SettingsFile); os.IsNotExist(err) {
		if err := SaveSettings(SettingsFile, DefaultSettings()); err != nil {
			return fmt.Errorf("failed to create settings file: %w", err)
		}
	}

	return nil
}

// GetSettingsFilePath returns the settings file path (local or global)
func GetSettingsFilePath() string {
	if _, err := os.Stat(LocalSettingsFile); err == nil {
		return LocalSettingsFile
	}
	return SettingsFile
}

// LoadSettings reads a settings file, filling unset fields with defaults
func LoadSettings(path string) (Settings, error) {
	settings := DefaultSettings()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return settings, nil
		}
		return settings, fmt.Errorf("failed to read settings file: %w", err)
	}

	if err := yaml.Unmarshal(data, &settings); err != nil {
		return settings, fmt.Errorf("failed to parse settings file %s: %w", path, err)
	}

	settings.APIURL = strings.TrimRight(settings.APIURL, "/")
	if settings.Telemetry.Transport != "poll" && settings.Telemetry.Transport != "stream" {
		return settings, fmt.Errorf("telemetry.transport must be 'poll' or 'stream', got %q", settings.Telemetry.Transport)
	}

	return settings, nil
}

// SaveSettings writes settings as YAML
func SaveSettings(path string, settings Settings) error {
	data, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	if err := os.WriteFile(path, data, FilePermissions); err != nil {
		return fmt.Errorf("failed to write settings file: %w", err)
	}

	return nil
}
