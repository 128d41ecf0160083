package config

import (
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNew_Defaults(t *testing.T) {
	t.Setenv("TASKDESK_API_URL", "http://ignored.example")

	cfg, err := New("/tmp/td")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if cfg.Dir != "/tmp/td" {
		t.Errorf("expected dir /tmp/td, got %q", cfg.Dir)
	}
	// New never reads the process environment.
	if cfg.APIURL != "http://localhost:3000/api" {
		t.Errorf("expected default api url, got %q", cfg.APIURL)
	}
	if cfg.Store != StoreFile {
		t.Errorf("expected file store, got %q", cfg.Store)
	}
	if cfg.Lang != "en" {
		t.Errorf("expected lang en, got %q", cfg.Lang)
	}
}

func TestLoad_Env(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TASKDESK_API_URL", "https://tasks.example/api")
	t.Setenv("TASKDESK_SOCKET_URL", "https://tasks.example")
	t.Setenv("TASKDESK_CONFIG_DIR", dir)
	t.Setenv("TASKDESK_STORE", "sqlite")
	t.Setenv("TASKDESK_LANG", "tr")
	t.Setenv("TASKDESK_HTTP_TIMEOUT", "3s")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.APIURL != "https://tasks.example/api" {
		t.Errorf("unexpected api url %q", cfg.APIURL)
	}
	if cfg.SocketURL != "https://tasks.example" {
		t.Errorf("unexpected socket url %q", cfg.SocketURL)
	}
	if cfg.Dir != dir {
		t.Errorf("expected dir %q, got %q", dir, cfg.Dir)
	}
	if cfg.Store != StoreSQLite {
		t.Errorf("expected sqlite store, got %q", cfg.Store)
	}
	if cfg.HTTPTimeout != 3*time.Second {
		t.Errorf("expected 3s timeout, got %s", cfg.HTTPTimeout)
	}
	if cfg.DatabasePath() != filepath.Join(dir, DatabaseFile) {
		t.Errorf("unexpected database path %q", cfg.DatabasePath())
	}
}

func TestLoad_FlagDirWins(t *testing.T) {
	t.Setenv("TASKDESK_CONFIG_DIR", "/from/env")

	cfg, err := Load("/from/flag")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Dir != "/from/flag" {
		t.Errorf("expected flag dir, got %q", cfg.Dir)
	}
}

func TestLoad_InvalidStore(t *testing.T) {
	t.Setenv("TASKDESK_STORE", "redis")

	_, err := Load(t.TempDir())
	if err == nil || !strings.Contains(err.Error(), "invalid store") {
		t.Fatalf("expected invalid store error, got %v", err)
	}
}

func TestLoad_BadDuration(t *testing.T) {
	t.Setenv("TASKDESK_HTTP_TIMEOUT", "soon")

	_, err := Load(t.TempDir())
	if err == nil || !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env error, got %v", err)
	}
}

func TestDefaultConfigDir_XDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	if got := DefaultConfigDir(); got != filepath.Join("/xdg", AppName) {
		t.Errorf("unexpected dir %q", got)
	}
}
