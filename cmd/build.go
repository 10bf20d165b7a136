package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ziadkadry99/dirsite/internal/config"
	"github.com/ziadkadry99/dirsite/internal/listing"
	"github.com/ziadkadry99/dirsite/internal/progress"
	"github.com/ziadkadry99/dirsite/internal/site"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the static directory site",
	Long: `Loads every listing from the configured store and writes the site to the
output directory. If the store cannot be reached the site is built with an
empty directory, unless --strict is given.`,
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().Bool("strict", false, "fail the build when listings cannot be loaded")
	buildCmd.Flags().String("output", "", "override output directory")
	buildCmd.Flags().String("search-url", "", "where the search form posts (defaults to server.search_path)")
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	start := time.Now()
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if out, _ := cmd.Flags().GetString("output"); out != "" {
		cfg.OutputDir = out
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	opts := site.OptionsFromConfig(cfg)
	if u, _ := cmd.Flags().GetString("search-url"); u != "" {
		opts.SearchURL = u
	}
	strict, _ := cmd.Flags().GetBool("strict")

	res, err := buildSite(ctx, cfg, opts, strict, progress.NewReporter("Building site"), log)
	if err != nil {
		return err
	}

	fmt.Printf("Site built: %s (%d pages, %d listings, %d assets copied) in %s\n",
		cfg.OutputDir, res.Pages, res.Listings, res.Assets, time.Since(start).Round(time.Millisecond))
	return nil
}

// buildSite opens the store and generates the site.
func buildSite(ctx context.Context, cfg *config.Config, opts site.Options, strict bool, reporter progress.Reporter, log *zap.Logger) (*site.Result, error) {
	store, err := openStore(ctx, cfg, log)
	if err != nil {
		if strict {
			return nil, err
		}
		log.Warn("listing store unavailable, building an empty directory", zap.Error(err))
		return generateSite(ctx, nil, opts, false, reporter, log)
	}
	defer store.Close()
	return generateSite(ctx, store, opts, strict, reporter, log)
}

// generateSite loads the listings from store, if any, and writes the site.
// serve calls it again on every source change.
func generateSite(ctx context.Context, store listing.Store, opts site.Options, strict bool, reporter progress.Reporter, log *zap.Logger) (*site.Result, error) {
	var items []listing.Listing
	if store != nil {
		var err error
		if items, err = site.LoadListings(ctx, store, strict, log); err != nil {
			return nil, err
		}
	}
	res, err := site.NewGenerator(opts, reporter, log).Generate(ctx, items)
	if err != nil {
		return nil, fmt.Errorf("generating site: %w", err)
	}
	return res, nil
}
