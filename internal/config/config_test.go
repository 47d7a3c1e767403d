package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Storage.Backend != BackendFile {
		t.Errorf("Storage.Backend = %q, want %q", cfg.Storage.Backend, BackendFile)
	}
	if cfg.Server.HTTPPort != 4445 {
		t.Errorf("Server.HTTPPort = %d, want 4445", cfg.Server.HTTPPort)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
server:
  http_port: 8080
storage:
  backend: sqlite
  path: /tmp/tv.db
metrics:
  enabled: true
log:
  level: debug
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.HTTPPort != 8080 {
		t.Errorf("Server.HTTPPort = %d, want 8080", cfg.Server.HTTPPort)
	}
	if cfg.Storage.Backend != BackendSQLite || cfg.Storage.Path != "/tmp/tv.db" {
		t.Errorf("Storage = %+v", cfg.Storage)
	}
	if !cfg.Metrics.Enabled || cfg.Metrics.Port != 9101 {
		t.Errorf("Metrics = %+v, want enabled on default port", cfg.Metrics)
	}
	if cfg.Log.MaxBackups != 3 {
		t.Errorf("Log.MaxBackups = %d, want default 3", cfg.Log.MaxBackups)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"unknown backend", func(c *Config) { c.Storage.Backend = "mongo" }, true},
		{"file without path", func(c *Config) { c.Storage.Path = "" }, true},
		{"postgres without dsn", func(c *Config) { c.Storage.Backend = BackendPostgres }, true},
		{"postgres with dsn", func(c *Config) {
			c.Storage.Backend = BackendPostgres
			c.Storage.DSN = "postgres://localhost/tv"
		}, false},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }, true},
		{"auth without password", func(c *Config) {
			c.Server.Auth = AuthConfig{Enabled: true, Username: "admin"}
		}, true},
		{"auth with credentials", func(c *Config) {
			c.Server.Auth = AuthConfig{Enabled: true, Username: "admin", Password: "secret123"}
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEnsureDirectories(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.Storage.Backend = BackendBadger
	cfg.Storage.Path = filepath.Join(dir, "badger")
	cfg.Log.File = filepath.Join(dir, "logs", "tvscraper.log")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories() error = %v", err)
	}
	for _, want := range []string{cfg.Storage.Path, filepath.Join(dir, "logs")} {
		if info, err := os.Stat(want); err != nil || !info.IsDir() {
			t.Errorf("%s not created: %v", want, err)
		}
	}
}
