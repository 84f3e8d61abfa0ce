package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// Config holds navjournal user configuration.
type Config struct {
	Homepage      string `json:"homepage"`
	Session       string `json:"session"`         // travel log record to restore at startup
	JournalLimit  int    `json:"journal_limit"`   // 0 keeps every entry
	PageCacheSize int    `json:"page_cache_size"` // rendered pages kept for instant back/forward
	LogLevel      string `json:"log_level"`
	UserAgent     string `json:"user_agent"`
	Theme         string `json:"theme"`
	path          string
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Homepage:      "",
		Session:       "default",
		JournalLimit:  100,
		PageCacheSize: 50,
		LogLevel:      "warn",
		Theme:         "default",
	}
}

// LoadConfig loads configuration from the standard config directory.
func LoadConfig() (*Config, error) {
	dir, err := configDir()
	if err != nil {
		return nil, err
	}
	return LoadConfigFrom(filepath.Join(dir, "config.json"))
}

// LoadConfigFrom loads configuration from path, writing the defaults there
// if the file does not exist yet.
func LoadConfigFrom(path string) (*Config, error) {
	cfg := DefaultConfig()
	cfg.path = path

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Save default config.
			cfg.Save()
			return &cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.JournalLimit < 0 {
		return nil, fmt.Errorf("parsing config: journal_limit must not be negative")
	}

	cfg.path = path
	return &cfg, nil
}

// Path returns the file the configuration was loaded from.
func (c *Config) Path() string {
	return c.path
}

// Save writes the configuration to disk.
func (c *Config) Save() error {
	if c.path == "" {
		dir, err := configDir()
		if err != nil {
			return err
		}
		c.path = filepath.Join(dir, "config.json")
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	return os.WriteFile(c.path, data, 0o644)
}

// DataDir returns the data directory for persistent storage.
func DataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home dir: %w", err)
	}

	var dir string
	switch runtime.GOOS {
	case "darwin":
		dir = filepath.Join(home, "Library", "Application Support", "navjournal")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData != "" {
			dir = filepath.Join(appData, "navjournal")
		} else {
			dir = filepath.Join(home, ".navjournal")
		}
	default: // Linux, BSD, etc.
		xdgData := os.Getenv("XDG_DATA_HOME")
		if xdgData != "" {
			dir = filepath.Join(xdgData, "navjournal")
		} else {
			dir = filepath.Join(home, ".local", "share", "navjournal")
		}
	}

	return dir, nil
}

func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home dir: %w", err)
	}

	var dir string
	switch runtime.GOOS {
	case "darwin":
		dir = filepath.Join(home, "Library", "Application Support", "navjournal")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData != "" {
			dir = filepath.Join(appData, "navjournal")
		} else {
			dir = filepath.Join(home, ".navjournal")
		}
	default:
		xdgConfig := os.Getenv("XDG_CONFIG_HOME")
		if xdgConfig != "" {
			dir = filepath.Join(xdgConfig, "navjournal")
		} else {
			dir = filepath.Join(home, ".config", "navjournal")
		}
	}

	return dir, nil
}
