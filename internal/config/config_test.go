package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ServerURL != "http://localhost:5000" {
		t.Errorf("ServerURL = %q", cfg.ServerURL)
	}
	if cfg.SocketURL != "ws://localhost:5000/ws" {
		t.Errorf("SocketURL = %q, want derived ws endpoint", cfg.SocketURL)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	content := "server_url: https://chat.example.com\ndata_dir: /tmp/damso\ndebug: true\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ServerURL != "https://chat.example.com" {
		t.Errorf("ServerURL = %q", cfg.ServerURL)
	}
	if cfg.SocketURL != "wss://chat.example.com/ws" {
		t.Errorf("SocketURL = %q, want wss for https directory", cfg.SocketURL)
	}
	if !cfg.Debug {
		t.Error("Debug not read from file")
	}
	if cfg.HistoryPath() != filepath.Join("/tmp/damso", "history.db") {
		t.Errorf("HistoryPath = %q", cfg.HistoryPath())
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("DAMSO_SERVER_URL", "http://10.0.0.2:8080")
	t.Setenv("DAMSO_SOCKET_URL", "ws://10.0.0.2:8080/socket")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ServerURL != "http://10.0.0.2:8080" {
		t.Errorf("ServerURL = %q", cfg.ServerURL)
	}
	if cfg.SocketURL != "ws://10.0.0.2:8080/socket" {
		t.Errorf("SocketURL = %q", cfg.SocketURL)
	}
}

func TestLoadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte("server_url: [broken"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("malformed config must be an error")
	}
}
