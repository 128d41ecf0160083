// Package config handles the XDG configuration directory and environment settings.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	// AppName is the application directory name.
	AppName = "taskdesk"

	// DatabaseFile is the SQLite store filename.
	DatabaseFile = "taskdesk.db"

	// StoreFile selects the one-file-per-key store.
	StoreFile = "file"

	// StoreSQLite selects the SQLite store.
	StoreSQLite = "sqlite"
)

// Env is the environment-driven part of the configuration.
type Env struct {
	// APIURL is the base address of the REST collaborator.
	APIURL string `env:"TASKDESK_API_URL" envDefault:"http://localhost:3000/api"`

	// SocketURL is the address of the push channel host.
	SocketURL string `env:"TASKDESK_SOCKET_URL" envDefault:"http://localhost:3000"`

	// ConfigDir overrides the configuration directory.
	ConfigDir string `env:"TASKDESK_CONFIG_DIR"`

	// Store selects the durable session store: "file" or "sqlite".
	Store string `env:"TASKDESK_STORE" envDefault:"file"`

	// Lang selects the display language.
	Lang string `env:"TASKDESK_LANG" envDefault:"en"`

	// SoundCommand is run for each new-task notification instead of the terminal bell.
	SoundCommand string `env:"TASKDESK_SOUND_COMMAND"`

	// HTTPTimeout bounds each request. Zero means no timeout.
	HTTPTimeout time.Duration `env:"TASKDESK_HTTP_TIMEOUT" envDefault:"0s"`
}

// Config holds configuration paths and settings.
type Config struct {
	Env

	// Dir is the configuration directory path.
	Dir string

	// Debug enables debug logging.
	Debug bool

	// Quiet suppresses informational output.
	Quiet bool

	// In is the input stream for prompts. Nil means os.Stdin.
	In io.Reader

	// Term is the controlling terminal when input is interactive, used to
	// read passwords without echo. Nil otherwise.
	Term *os.File

	// Interactive is set inside the shell.
	Interactive bool
}

// Load parses the environment and resolves the configuration directory.
// A non-empty configDir takes precedence over TASKDESK_CONFIG_DIR and XDG.
func Load(configDir string) (*Config, error) {
	var e Env
	if err := env.Parse(&e); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg, err := New(configDir)
	if err != nil {
		return nil, err
	}
	cfg.Env = e
	if configDir == "" && e.ConfigDir != "" {
		cfg.Dir = e.ConfigDir
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// New creates a new Config with the default or specified config directory
// and default environment values.
// If configDir is empty, uses XDG_CONFIG_HOME/taskdesk or $HOME/.config/taskdesk.
func New(configDir string) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}
	var e Env
	if err := env.ParseWithOptions(&e, env.Options{Environment: map[string]string{}}); err != nil {
		return nil, fmt.Errorf("default env: %w", err)
	}
	return &Config{Env: e, Dir: dir}, nil
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Store) {
	case StoreFile, StoreSQLite:
	default:
		return fmt.Errorf("invalid store: %s (want %s or %s)", c.Store, StoreFile, StoreSQLite)
	}
	if strings.TrimSpace(c.APIURL) == "" {
		return fmt.Errorf("api url is required")
	}
	if c.HTTPTimeout < 0 {
		return fmt.Errorf("invalid http timeout: %s", c.HTTPTimeout)
	}
	return nil
}

// DefaultConfigDir returns the default configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home can't be determined
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// DatabasePath returns the path to the SQLite store.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Dir, DatabaseFile)
}

// EnsureDir creates the config directory if it doesn't exist.
// Directory is created with mode 0700.
func (c *Config) EnsureDir() error {
	return os.MkdirAll(c.Dir, 0700)
}

// Input returns the prompt input stream.
func (c *Config) Input() io.Reader {
	if c.In != nil {
		return c.In
	}
	return os.Stdin
}
