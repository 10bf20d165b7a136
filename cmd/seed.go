package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ziadkadry99/dirsite/internal/config"
	"github.com/ziadkadry99/dirsite/internal/db/sqlite"
	"github.com/ziadkadry99/dirsite/internal/listing"
)

var seedCmd = &cobra.Command{
	Use:   "seed <listings.json>",
	Short: "Load listings into the local SQLite store",
	Long: `Reads a JSON array of listings (id, name, description, latitude, longitude,
image_url, website_url) and upserts it into the SQLite development store at
store.path. Listings without an id get one assigned.`,
	Args: cobra.ExactArgs(1),
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().String("path", "", "SQLite database file (overrides store.path)")
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if p, _ := cmd.Flags().GetString("path"); p != "" {
		cfg.Store.Path = p
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading listings: %w", err)
	}
	var items []listing.Listing
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("parsing %s: %w", args[0], err)
	}

	store, err := sqlite.Open(cfg.Store.Path, cfg.Store.Table)
	if err != nil {
		return fmt.Errorf("opening %s: %w", cfg.Store.Path, err)
	}
	defer store.Close()

	n, err := store.Upsert(cmd.Context(), items)
	if err != nil {
		return fmt.Errorf("seeding: %w", err)
	}
	log.Info("listings seeded", zap.String("path", cfg.Store.Path), zap.Int("count", n))

	fmt.Printf("Seeded %d listing(s) into %s (table %s)\n", n, cfg.Store.Path, cfg.Store.Table)
	if cfg.Store.Driver != config.DriverSQLite {
		fmt.Printf("Note: store.driver is %q; set it to sqlite to build from this database.\n", cfg.Store.Driver)
	}
	return nil
}
