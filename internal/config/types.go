package config

// StoreDriver selects the listing store backend.
type StoreDriver string

const (
	DriverSupabase StoreDriver = "supabase"
	DriverPostgres StoreDriver = "postgres"
	DriverSQLite   StoreDriver = "sqlite"
)

// Config is the top-level dirsite configuration, corresponding to .dirsite.yml.
type Config struct {
	SiteName    string        `yaml:"site_name" koanf:"site_name"`
	SourceDir   string        `yaml:"source_dir" koanf:"source_dir"`
	OutputDir   string        `yaml:"output_dir" koanf:"output_dir"`
	Passthrough []string      `yaml:"passthrough" koanf:"passthrough"`
	Store       StoreConfig   `yaml:"store" koanf:"store"`
	Map         MapConfig     `yaml:"map" koanf:"map"`
	Server      ServerConfig  `yaml:"server" koanf:"server"`
	Logging     LoggingConfig `yaml:"logging" koanf:"logging"`
	Publish     PublishConfig `yaml:"publish" koanf:"publish"`
}

// StoreConfig holds listing store settings. URL and AnonKey are normally
// supplied through SUPABASE_URL and SUPABASE_ANON_KEY rather than the file.
type StoreConfig struct {
	Driver     StoreDriver `yaml:"driver" koanf:"driver"`
	URL        string      `yaml:"url" koanf:"url"`
	AnonKey    string      `yaml:"anon_key,omitempty" koanf:"anon_key"`
	Table      string      `yaml:"table" koanf:"table"`
	DSN        string      `yaml:"dsn,omitempty" koanf:"dsn"`
	Path       string      `yaml:"path" koanf:"path"`
	TimeoutSec int         `yaml:"timeout_sec" koanf:"timeout_sec"`
}

// MapConfig holds the Leaflet map settings baked into the generated pages.
type MapConfig struct {
	TileURL     string `yaml:"tile_url" koanf:"tile_url"`
	Attribution string `yaml:"attribution" koanf:"attribution"`
	DefaultZoom int    `yaml:"default_zoom" koanf:"default_zoom"`
	FocusZoom   int    `yaml:"focus_zoom" koanf:"focus_zoom"`
}

// ServerConfig holds HTTP server settings for `dirsite serve`.
type ServerConfig struct {
	Port            int      `yaml:"port" koanf:"port"`
	SearchPath      string   `yaml:"search_path" koanf:"search_path"`
	AllowedOrigins  []string `yaml:"allowed_origins" koanf:"allowed_origins"`
	ReadTimeoutSec  int      `yaml:"read_timeout_sec" koanf:"read_timeout_sec"`
	WriteTimeoutSec int      `yaml:"write_timeout_sec" koanf:"write_timeout_sec"`
	ShutdownSec     int      `yaml:"shutdown_timeout_sec" koanf:"shutdown_timeout_sec"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Env   string `yaml:"env" koanf:"env"`     // local, dev, prod
	Level string `yaml:"level" koanf:"level"` // debug, info, warn, error (default: determined by env)
}

// PublishConfig holds the S3 destination for `dirsite publish`.
type PublishConfig struct {
	Bucket string `yaml:"bucket" koanf:"bucket"`
	Region string `yaml:"region" koanf:"region"`
	Prefix string `yaml:"prefix" koanf:"prefix"`
}
