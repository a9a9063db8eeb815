package shared

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path == "" {
			t.Error("default config should set a database path")
		}
		if config.Prefs.Path == "" {
			t.Error("default config should set a prefs path")
		}
		if config.Provider.RateLimit <= 0 {
			t.Error("default config should set a provider rate limit")
		}
		if config.Epg.Workers <= 0 {
			t.Error("default config should set epg workers")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "config.toml")

		content := `
[database]
path = "catalog.db"
max_open_conns = 8

[prefs]
path = "settings.toml"

[provider]
timeout_seconds = 10
rate_limit = 2.5

[epg]
workers = 2
limit = 12
`
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		config, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Database.Path != "catalog.db" {
			t.Errorf("expected database path catalog.db, got %s", config.Database.Path)
		}
		if config.Database.MaxOpenConns != 8 {
			t.Errorf("expected max_open_conns 8, got %d", config.Database.MaxOpenConns)
		}
		if config.Prefs.Path != "settings.toml" {
			t.Errorf("expected prefs path settings.toml, got %s", config.Prefs.Path)
		}
		if config.Provider.RateLimit != 2.5 {
			t.Errorf("expected provider rate_limit 2.5, got %f", config.Provider.RateLimit)
		}
		if config.Epg.Limit != 12 {
			t.Errorf("expected epg limit 12, got %d", config.Epg.Limit)
		}
	})

	t.Run("LoadConfig missing file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml"))
		if !errors.Is(err, ErrMissingConfig) {
			t.Errorf("expected ErrMissingConfig, got %v", err)
		}
	})

	t.Run("LoadConfig malformed file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(path, []byte("not [valid toml"), 0644); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}
		if _, err := LoadConfig(path); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")

		if err := CreateConfigFile(path); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := LoadConfig(path); err != nil {
			t.Errorf("created config file should be loadable: %v", err)
		}

		err := CreateConfigFile(path)
		if err == nil {
			t.Fatal("expected error when config file already exists")
		}
		if !strings.Contains(err.Error(), "already exists at "+path) {
			t.Errorf("expected already-exists message, got %v", err)
		}
	})
}
