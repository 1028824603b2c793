// Package config loads client settings from ~/.damso/config.yml with
// environment overrides.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// ServerURL is the room directory service base URL.
	ServerURL string `yaml:"server_url"`
	// SocketURL is the realtime transport endpoint. Derived from ServerURL
	// when empty.
	SocketURL string `yaml:"socket_url"`
	// DataDir holds the local history cache and logs.
	DataDir string `yaml:"data_dir"`
	Debug   bool   `yaml:"debug"`
}

// DefaultPath returns ~/.damso/config.yml.
func DefaultPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".damso", "config.yml")
}

func defaultDataDir() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".damso")
}

// Load reads the config file at path if it exists, then applies environment
// overrides (DAMSO_SERVER_URL, DAMSO_SOCKET_URL). A missing file is not an
// error; defaults apply.
func Load(path string) (Config, error) {
	cfg := Config{
		ServerURL: "http://localhost:5000",
		DataDir:   defaultDataDir(),
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// defaults
	default:
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	if v := os.Getenv("DAMSO_SERVER_URL"); v != "" {
		cfg.ServerURL = v
	}
	if v := os.Getenv("DAMSO_SOCKET_URL"); v != "" {
		cfg.SocketURL = v
	}

	if cfg.SocketURL == "" {
		derived, err := deriveSocketURL(cfg.ServerURL)
		if err != nil {
			return Config{}, err
		}
		cfg.SocketURL = derived
	}
	return cfg, nil
}

// deriveSocketURL maps the directory base URL onto its websocket endpoint.
func deriveSocketURL(serverURL string) (string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return "", fmt.Errorf("parse server url: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = "/ws"
	return u.String(), nil
}

// HistoryPath is the sqlite history cache location.
func (c Config) HistoryPath() string {
	return filepath.Join(c.DataDir, "history.db")
}

// LogPath is the rotated log file location.
func (c Config) LogPath() string {
	return filepath.Join(c.DataDir, "damso.log")
}

// EnsureDataDir creates the data directory if needed.
func (c Config) EnsureDataDir() error {
	return os.MkdirAll(c.DataDir, 0755)
}
