package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/dotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

const (
	// EnvSupabaseURL and EnvSupabaseAnonKey name the backend credentials.
	EnvSupabaseURL     = "SUPABASE_URL"
	EnvSupabaseAnonKey = "SUPABASE_ANON_KEY"

	envPrefix = "DIRSITE_"
)

// Load reads configuration from the given YAML file, then overlays the
// backend credentials from a sibling .env file and the process environment,
// then DIRSITE_* overrides (DIRSITE_STORE__DRIVER -> store.driver).
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Start from defaults.
	cfg := DefaultConfig()

	// Load YAML file if it exists.
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	creds, err := loadCredentials(filepath.Join(filepath.Dir(path), ".env"))
	if err != nil {
		return nil, err
	}
	if v := creds[EnvSupabaseURL]; v != "" {
		_ = k.Set("store.url", v)
	}
	if v := creds[EnvSupabaseAnonKey]; v != "" {
		_ = k.Set("store.anon_key", v)
	}

	// Overlay environment variables: DIRSITE_SITE_NAME -> site_name,
	// DIRSITE_SERVER__PORT -> server.port.
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, envPrefix))
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

// loadCredentials returns SUPABASE_URL and SUPABASE_ANON_KEY, taking the
// .env file first and letting the process environment win.
func loadCredentials(envFile string) (map[string]string, error) {
	creds := map[string]string{}

	if _, err := os.Stat(envFile); err == nil {
		dk := koanf.New(".")
		if err := dk.Load(file.Provider(envFile), dotenv.Parser()); err != nil {
			return nil, fmt.Errorf("reading %s: %w", envFile, err)
		}
		creds[EnvSupabaseURL] = dk.String(EnvSupabaseURL)
		creds[EnvSupabaseAnonKey] = dk.String(EnvSupabaseAnonKey)
	}

	for _, key := range []string{EnvSupabaseURL, EnvSupabaseAnonKey} {
		if v := os.Getenv(key); v != "" {
			creds[key] = v
		}
	}
	return creds, nil
}

// Save writes the configuration to the given YAML file path. The anon key
// is never written; it belongs in the environment.
func (c *Config) Save(path string) error {
	out := *c
	out.Store.AnonKey = ""
	data, err := yamlv3.Marshal(&out)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// validDrivers is the set of recognized store drivers.
var validDrivers = map[StoreDriver]bool{
	DriverSupabase: true,
	DriverPostgres: true,
	DriverSQLite:   true,
}

// Validate checks that the configuration contains valid values. Backend
// credentials are checked by ValidateStore, since only some commands need them.
func (c *Config) Validate() error {
	if c.SourceDir == "" {
		return fmt.Errorf("source_dir is required")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output_dir is required")
	}
	if filepath.Clean(c.SourceDir) == filepath.Clean(c.OutputDir) {
		return fmt.Errorf("output_dir must differ from source_dir")
	}

	if c.Store.Driver == "" {
		return fmt.Errorf("store.driver is required")
	}
	if !validDrivers[c.Store.Driver] {
		return fmt.Errorf("invalid store.driver %q: must be one of supabase, postgres, sqlite", c.Store.Driver)
	}
	if c.Store.Table == "" {
		return fmt.Errorf("store.table is required")
	}
	if c.Store.TimeoutSec < 0 {
		return fmt.Errorf("store.timeout_sec must be non-negative")
	}

	if c.Map.DefaultZoom < 0 || c.Map.DefaultZoom > 19 {
		return fmt.Errorf("map.default_zoom must be between 0 and 19")
	}
	if c.Map.FocusZoom < 0 || c.Map.FocusZoom > 19 {
		return fmt.Errorf("map.focus_zoom must be between 0 and 19")
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	if !strings.HasPrefix(c.Server.SearchPath, "/") {
		return fmt.Errorf("server.search_path must start with /")
	}

	return nil
}

// ValidateStore checks that the selected driver has what it needs to connect.
func (c *Config) ValidateStore() error {
	switch c.Store.Driver {
	case DriverSupabase:
		if c.Store.URL == "" {
			return fmt.Errorf("%s is required for the supabase store", EnvSupabaseURL)
		}
		if c.Store.AnonKey == "" {
			return fmt.Errorf("%s is required for the supabase store", EnvSupabaseAnonKey)
		}
	case DriverPostgres:
		if c.Store.DSN == "" {
			return fmt.Errorf("store.dsn is required for the postgres store")
		}
	case DriverSQLite:
		if c.Store.Path == "" {
			return fmt.Errorf("store.path is required for the sqlite store")
		}
	default:
		return fmt.Errorf("invalid store.driver %q", c.Store.Driver)
	}
	return nil
}
