package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
)

// Environment variables that override the config file
const (
	EnvConfigPath = "SONICSTREAM_CONFIG"
	EnvBackendURL = "SONICSTREAM_BACKEND_URL"
	EnvLogLevel   = "SONICSTREAM_LOG_LEVEL"
	EnvDataDir    = "SONICSTREAM_DATA_DIR"
)

// DefaultBackendURL is the backend the client was built against
const DefaultBackendURL = "https://music-app-backend-x6kb.onrender.com"

// Config holds application configuration
type Config struct {
	BackendURL            string  `json:"backend_url"`
	DefaultVolume         float64 `json:"default_volume"`
	SearchDebounceMS      int     `json:"search_debounce_ms"`
	RequestTimeoutSeconds int     `json:"request_timeout_seconds"`
	MaxStreamMB           int64   `json:"max_stream_mb"`
	SeekStepSeconds       int     `json:"seek_step_seconds"`
	VolumeStep            float64 `json:"volume_step"`
	Loop                  bool    `json:"loop"`
	Autoplay              bool    `json:"autoplay"`
	DiscardStaleResults   bool    `json:"discard_stale_results"`
	LogLevel              string  `json:"log_level"`
	LogFile               string  `json:"log_file"`
	DataDir               string  `json:"data_dir"`
	KeyBindings           KeyMap  `json:"key_bindings"`
}

// KeyMap defines keyboard shortcuts
type KeyMap struct {
	PlayPause   string `json:"play_pause"`
	Next        string `json:"next"`
	Previous    string `json:"previous"`
	VolumeUp    string `json:"volume_up"`
	VolumeDown  string `json:"volume_down"`
	Mute        string `json:"mute"`
	Loop        string `json:"loop"`
	SeekForward string `json:"seek_forward"`
	SeekBack    string `json:"seek_back"`
	Search      string `json:"search"`
	Quit        string `json:"quit"`
}

// GetDefaultConfig returns default configuration
func GetDefaultConfig() *Config {
	return &Config{
		BackendURL:            DefaultBackendURL,
		DefaultVolume:         1.0,
		SearchDebounceMS:      300,
		RequestTimeoutSeconds: 30,
		MaxStreamMB:           64,
		SeekStepSeconds:       5,
		VolumeStep:            0.05,
		LogLevel:              "info",
		DataDir:               "./data",
		KeyBindings: KeyMap{
			PlayPause:   " ",
			Next:        "n",
			Previous:    "p",
			VolumeUp:    "+",
			VolumeDown:  "-",
			Mute:        "m",
			Loop:        "r",
			SeekForward: "right",
			SeekBack:    "left",
			Search:      "/",
			Quit:        "q",
		},
	}
}

// SearchDebounce returns the debounce delay as a duration
func (c *Config) SearchDebounce() time.Duration {
	return time.Duration(c.SearchDebounceMS) * time.Millisecond
}

// RequestTimeout returns the HTTP timeout as a duration
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// SeekStep returns the relative seek step as a duration
func (c *Config) SeekStep() time.Duration {
	return time.Duration(c.SeekStepSeconds) * time.Second
}

// MaxStreamBytes returns the stream buffer limit in bytes
func (c *Config) MaxStreamBytes() int64 {
	return c.MaxStreamMB << 20
}

// LogPath returns the log file, defaulting into the data directory
func (c *Config) LogPath() string {
	if c.LogFile != "" {
		return c.LogFile
	}
	return filepath.Join(c.DataDir, "sonicstream.log")
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	u, err := url.Parse(c.BackendURL)
	if err != nil {
		return fmt.Errorf("invalid backend_url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid backend_url %q: want http(s)://host", c.BackendURL)
	}
	if c.DefaultVolume < 0 || c.DefaultVolume > 1 {
		return fmt.Errorf("default_volume %v outside [0, 1]", c.DefaultVolume)
	}
	if c.SearchDebounceMS <= 0 {
		return fmt.Errorf("search_debounce_ms must be positive, got %d", c.SearchDebounceMS)
	}
	if c.RequestTimeoutSeconds <= 0 {
		return fmt.Errorf("request_timeout_seconds must be positive, got %d", c.RequestTimeoutSeconds)
	}
	if c.MaxStreamMB <= 0 {
		return fmt.Errorf("max_stream_mb must be positive, got %d", c.MaxStreamMB)
	}
	if c.SeekStepSeconds <= 0 {
		return fmt.Errorf("seek_step_seconds must be positive, got %d", c.SeekStepSeconds)
	}
	if c.VolumeStep <= 0 || c.VolumeStep > 1 {
		return fmt.Errorf("volume_step %v outside (0, 1]", c.VolumeStep)
	}
	return nil
}

// LoadConfig reads and unmarshals configuration from file. Fields missing
// from the file keep their defaults.
func LoadConfig(path string) (*Config, error) {
	config := GetDefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return config, nil
}

// SaveConfig marshals and saves configuration to file
func SaveConfig(config *Config, path string) error {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// LoadOrCreate loads config from path or creates default if not exists
func LoadOrCreate(path string) (*Config, error) {
	config, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	// Save default config if file didn't exist
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := SaveConfig(config, path); err != nil {
			return nil, fmt.Errorf("failed to save default config: %w", err)
		}
	}

	return config, nil
}

// LoadDotEnv loads a .env file into the process environment. A missing file
// is not an error; variables already set are not overwritten.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides fields from the environment
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvBackendURL); v != "" {
		c.BackendURL = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(EnvDataDir); v != "" {
		c.DataDir = v
	}
}

// GetConfigPath returns the default config file path
func GetConfigPath() string {
	// Check environment variable first
	if path := os.Getenv(EnvConfigPath); path != "" {
		return path
	}

	// Use XDG config directory if available
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "sonicstream", "config.json")
	}

	// Fall back to home directory
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}

	return filepath.Join(home, ".config", "sonicstream", "config.json")
}
