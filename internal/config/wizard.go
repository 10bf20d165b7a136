package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/manifoldco/promptui"
)

// detectSourceDir picks a likely site source directory in the current
// working directory.
func detectSourceDir() string {
	for _, candidate := range []string{"src", "site", "content"} {
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate
		}
	}
	return "src"
}

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. It also saves the config to path.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to dirsite! Let's configure your directory site.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Site name.
	namePrompt := promptui.Prompt{
		Label:   "Site name",
		Default: filepath.Base(mustGetwd()),
	}
	siteName, err := namePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("site name: %w", err)
	}
	cfg.SiteName = siteName

	// 2. Store driver.
	driverPrompt := promptui.Select{
		Label: "Where do the listings live?",
		Items: []string{
			"supabase — hosted REST API (SUPABASE_URL / SUPABASE_ANON_KEY)",
			"postgres — direct database connection",
			"sqlite   — local file, for development",
		},
	}
	driverIdx, _, err := driverPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("store selection: %w", err)
	}
	drivers := []StoreDriver{DriverSupabase, DriverPostgres, DriverSQLite}
	cfg.Store.Driver = drivers[driverIdx]

	switch cfg.Store.Driver {
	case DriverPostgres:
		dsnPrompt := promptui.Prompt{
			Label:   "Postgres DSN",
			Default: "postgres://localhost:5432/postgres?sslmode=disable",
		}
		if cfg.Store.DSN, err = dsnPrompt.Run(); err != nil {
			return nil, fmt.Errorf("postgres dsn: %w", err)
		}
	case DriverSQLite:
		pathPrompt := promptui.Prompt{
			Label:   "SQLite database file",
			Default: cfg.Store.Path,
		}
		if cfg.Store.Path, err = pathPrompt.Run(); err != nil {
			return nil, fmt.Errorf("sqlite path: %w", err)
		}
	}

	// 3. Table name.
	tablePrompt := promptui.Prompt{
		Label:   "Listings table",
		Default: cfg.Store.Table,
	}
	if cfg.Store.Table, err = tablePrompt.Run(); err != nil {
		return nil, fmt.Errorf("table: %w", err)
	}

	// 4. Directories.
	sourcePrompt := promptui.Prompt{
		Label:   "Source directory (markdown pages and static assets)",
		Default: detectSourceDir(),
	}
	if cfg.SourceDir, err = sourcePrompt.Run(); err != nil {
		return nil, fmt.Errorf("source dir: %w", err)
	}
	outputPrompt := promptui.Prompt{
		Label:   "Output directory for the built site",
		Default: cfg.OutputDir,
	}
	if cfg.OutputDir, err = outputPrompt.Run(); err != nil {
		return nil, fmt.Errorf("output dir: %w", err)
	}

	// 5. Server port.
	portPrompt := promptui.Prompt{
		Label:   "Search server port",
		Default: strconv.Itoa(cfg.Server.Port),
		Validate: func(s string) error {
			if _, err := strconv.Atoi(s); err != nil {
				return fmt.Errorf("port must be a number")
			}
			return nil
		},
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("port: %w", err)
	}
	cfg.Server.Port, _ = strconv.Atoi(portStr)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Store.Driver == DriverSupabase {
		if os.Getenv(EnvSupabaseURL) == "" || os.Getenv(EnvSupabaseAnonKey) == "" {
			fmt.Printf("\nNote: set %s and %s in your environment or a .env file before running dirsite build.\n",
				EnvSupabaseURL, EnvSupabaseAnonKey)
		}
	}

	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", path)
	return cfg, nil
}

func mustGetwd() string {
	wd, err := os.Getwd()
	if err != nil {
		return "directory"
	}
	return wd
}
