package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// clearCredentials keeps the developer's own environment out of the tests.
func clearCredentials(t *testing.T) {
	t.Helper()
	t.Setenv(EnvSupabaseURL, "")
	t.Setenv(EnvSupabaseAnonKey, "")
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Store.Driver != DriverSupabase {
		t.Errorf("expected default driver %q, got %q", DriverSupabase, cfg.Store.Driver)
	}
	if cfg.Store.Table != "directory_listings" {
		t.Errorf("expected default table %q, got %q", "directory_listings", cfg.Store.Table)
	}
	if cfg.OutputDir != "_site" {
		t.Errorf("expected default output_dir %q, got %q", "_site", cfg.OutputDir)
	}
	if cfg.Map.DefaultZoom != 10 || cfg.Map.FocusZoom != 14 {
		t.Errorf("expected zooms 10/14, got %d/%d", cfg.Map.DefaultZoom, cfg.Map.FocusZoom)
	}
	if len(cfg.Passthrough) != 3 {
		t.Errorf("expected 3 passthrough patterns, got %d", len(cfg.Passthrough))
	}
}

func TestSaveAndLoad(t *testing.T) {
	clearCredentials(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "test.dirsite.yml")

	original := DefaultConfig()
	original.SiteName = "Coffee Map"
	original.Store.Driver = DriverSQLite
	original.Store.Path = "listings.db"
	original.Store.AnonKey = "secret"
	original.Passthrough = []string{"assets/**"}
	original.Server.Port = 9000

	// Save.
	if err := original.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading saved config: %v", err)
	}
	if strings.Contains(string(data), "secret") {
		t.Error("anon key must not be written to the config file")
	}

	// Load back.
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.SiteName != original.SiteName {
		t.Errorf("site_name: got %q, want %q", loaded.SiteName, original.SiteName)
	}
	if loaded.Store.Driver != original.Store.Driver {
		t.Errorf("store.driver: got %q, want %q", loaded.Store.Driver, original.Store.Driver)
	}
	if loaded.Store.Path != original.Store.Path {
		t.Errorf("store.path: got %q, want %q", loaded.Store.Path, original.Store.Path)
	}
	if loaded.Server.Port != 9000 {
		t.Errorf("server.port: got %d, want 9000", loaded.Server.Port)
	}
	if len(loaded.Passthrough) != 1 || loaded.Passthrough[0] != "assets/**" {
		t.Errorf("passthrough: got %v", loaded.Passthrough)
	}
}

func TestLoadMissingFile(t *testing.T) {
	clearCredentials(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "nonexistent.yml")

	// Loading a missing file should return defaults, not an error.
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load should not fail for missing file: %v", err)
	}
	if cfg.Store.Driver != DriverSupabase {
		t.Errorf("expected default driver, got %q", cfg.Store.Driver)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	clearCredentials(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yml")

	cfg := DefaultConfig()
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	t.Setenv("DIRSITE_STORE__DRIVER", "sqlite")
	t.Setenv("DIRSITE_SERVER__PORT", "9100")
	t.Setenv("DIRSITE_SITE_NAME", "Env Site")

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Store.Driver != DriverSQLite {
		t.Errorf("env override failed: got %q, want %q", loaded.Store.Driver, DriverSQLite)
	}
	if loaded.Server.Port != 9100 {
		t.Errorf("env override failed: got port %d, want 9100", loaded.Server.Port)
	}
	if loaded.SiteName != "Env Site" {
		t.Errorf("env override failed: got site_name %q", loaded.SiteName)
	}
}

func TestLoadDotEnvCredentials(t *testing.T) {
	clearCredentials(t)
	dir := t.TempDir()
	path := filepath.Join(dir, ".dirsite.yml")

	env := "SUPABASE_URL=https://example.supabase.co\nSUPABASE_ANON_KEY=anon-from-file\n"
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(env), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Store.URL != "https://example.supabase.co" {
		t.Errorf("store.url = %q, want value from .env", cfg.Store.URL)
	}
	if cfg.Store.AnonKey != "anon-from-file" {
		t.Errorf("store.anon_key = %q, want value from .env", cfg.Store.AnonKey)
	}

	// The process environment wins over the file.
	t.Setenv(EnvSupabaseAnonKey, "anon-from-env")
	cfg, err = Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Store.AnonKey != "anon-from-env" {
		t.Errorf("store.anon_key = %q, want value from environment", cfg.Store.AnonKey)
	}
}

func TestValidateValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig should be valid, got: %v", err)
	}
}

func TestValidateInvalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"invalid driver", func(c *Config) { c.Store.Driver = "mongo" }},
		{"empty driver", func(c *Config) { c.Store.Driver = "" }},
		{"empty table", func(c *Config) { c.Store.Table = "" }},
		{"empty output dir", func(c *Config) { c.OutputDir = "" }},
		{"empty source dir", func(c *Config) { c.SourceDir = "" }},
		{"output equals source", func(c *Config) { c.OutputDir = "src/" }},
		{"zoom out of range", func(c *Config) { c.Map.DefaultZoom = 25 }},
		{"negative focus zoom", func(c *Config) { c.Map.FocusZoom = -1 }},
		{"bad port", func(c *Config) { c.Server.Port = 0 }},
		{"relative search path", func(c *Config) { c.Server.SearchPath = "search" }},
		{"negative timeout", func(c *Config) { c.Store.TimeoutSec = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestValidateStore(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.ValidateStore(); err == nil {
		t.Error("supabase store without credentials should fail")
	}
	cfg.Store.URL = "https://example.supabase.co"
	cfg.Store.AnonKey = "key"
	if err := cfg.ValidateStore(); err != nil {
		t.Errorf("supabase store with credentials: %v", err)
	}

	cfg.Store.Driver = DriverPostgres
	if err := cfg.ValidateStore(); err == nil {
		t.Error("postgres store without dsn should fail")
	}
	cfg.Store.DSN = "postgres://localhost/db"
	if err := cfg.ValidateStore(); err != nil {
		t.Errorf("postgres store with dsn: %v", err)
	}

	cfg.Store.Driver = DriverSQLite
	if err := cfg.ValidateStore(); err != nil {
		t.Errorf("sqlite store with default path: %v", err)
	}
}
