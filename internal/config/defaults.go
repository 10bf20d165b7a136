package config

// DefaultPassthrough are the source directories copied verbatim into the
// build output.
var DefaultPassthrough = []string{
	"css/**",
	"js/**",
	"img/**",
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		SiteName:    "Directory",
		SourceDir:   "src",
		OutputDir:   "_site",
		Passthrough: append([]string(nil), DefaultPassthrough...),
		Store: StoreConfig{
			Driver:     DriverSupabase,
			Table:      "directory_listings",
			Path:       "dirsite.db",
			TimeoutSec: 10,
		},
		Map: MapConfig{
			TileURL:     "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png",
			Attribution: "&copy; OpenStreetMap contributors",
			DefaultZoom: 10,
			FocusZoom:   14,
		},
		Server: ServerConfig{
			Port:            8888,
			SearchPath:      "/search",
			ReadTimeoutSec:  15,
			WriteTimeoutSec: 30,
			ShutdownSec:     10,
		},
		Logging: LoggingConfig{
			Env: "local",
		},
		Publish: PublishConfig{
			Region: "us-east-1",
		},
	}
}
