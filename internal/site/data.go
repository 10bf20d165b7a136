package site

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/ziadkadry99/dirsite/internal/listing"
)

// LoadListings fetches every listing, ordered by name, for a build. A store
// failure is logged and yields an empty directory so the build still
// completes; with strict set it is returned instead.
func LoadListings(ctx context.Context, store listing.Store, strict bool, logger *zap.Logger) ([]listing.Listing, error) {
	items, err := store.List(ctx)
	if err != nil {
		if strict {
			return nil, fmt.Errorf("loading listings: %w", err)
		}
		logger.Warn("loading listings failed, building an empty directory", zap.Error(err))
		return []listing.Listing{}, nil
	}
	if items == nil {
		items = []listing.Listing{}
	}
	logger.Info("listings loaded", zap.Int("count", len(items)))
	return items, nil
}

// writeData writes the listings as a JSON array next to the pages.
func writeData(items []listing.Listing, outputPath string) error {
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(outputPath, data, 0o644)
}
