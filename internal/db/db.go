// Package db opens the configured listing store and wraps it with metrics
// and debug logging.
package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ziadkadry99/dirsite/internal/config"
	"github.com/ziadkadry99/dirsite/internal/db/postgres"
	"github.com/ziadkadry99/dirsite/internal/db/sqlite"
	"github.com/ziadkadry99/dirsite/internal/db/supabase"
	"github.com/ziadkadry99/dirsite/internal/listing"
	"github.com/ziadkadry99/dirsite/internal/metrics"
)

// Open connects to the store named by cfg.Driver. The returned store is
// already instrumented.
func Open(ctx context.Context, cfg config.StoreConfig, logger *zap.Logger) (listing.Store, error) {
	var (
		store listing.Store
		err   error
	)

	switch cfg.Driver {
	case config.DriverSupabase:
		timeout := time.Duration(cfg.TimeoutSec) * time.Second
		store = supabase.New(cfg.URL, cfg.AnonKey, cfg.Table, timeout)
	case config.DriverPostgres:
		store, err = postgres.Open(ctx, cfg.DSN, cfg.Table)
	case config.DriverSQLite:
		store, err = sqlite.Open(cfg.Path, cfg.Table)
	default:
		return nil, fmt.Errorf("unsupported store driver: %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s store: %w", cfg.Driver, err)
	}

	logger.Debug("listing store opened",
		zap.String("driver", string(cfg.Driver)),
		zap.String("table", cfg.Table),
	)
	return Instrument(store, string(cfg.Driver), logger), nil
}

// Instrumented records timings and failures for every call on the wrapped
// store.
type Instrumented struct {
	next   listing.Store
	driver string
	logger *zap.Logger
}

// Instrument wraps store. driver labels the metrics.
func Instrument(store listing.Store, driver string, logger *zap.Logger) *Instrumented {
	metrics.RegisterDirectoryMetrics()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Instrumented{next: store, driver: driver, logger: logger}
}

// Unwrap returns the underlying store.
func (s *Instrumented) Unwrap() listing.Store { return s.next }

func (s *Instrumented) List(ctx context.Context) ([]listing.Listing, error) {
	start := time.Now()
	items, err := s.next.List(ctx)
	s.observe("list", start, len(items), err, zap.Skip())
	return items, err
}

func (s *Instrumented) Search(ctx context.Context, term string) ([]listing.Listing, error) {
	start := time.Now()
	items, err := s.next.Search(ctx, term)
	s.observe("search", start, len(items), err, zap.String("term", term))
	return items, err
}

func (s *Instrumented) Get(ctx context.Context, id listing.ID) (*listing.Listing, error) {
	start := time.Now()
	l, err := s.next.Get(ctx, id)
	n := 0
	if l != nil {
		n = 1
	}
	// A missing listing is an answer, not a store failure.
	failure := err
	if isNotFound(err) {
		failure = nil
	}
	s.observe("get", start, n, failure, zap.String("id", id.String()))
	return l, err
}

func (s *Instrumented) Close() error {
	return s.next.Close()
}

func (s *Instrumented) observe(op string, start time.Time, rows int, err error, field zap.Field) {
	elapsed := time.Since(start)
	metrics.StoreQueryDuration.WithLabelValues(s.driver, op).Observe(elapsed.Seconds())
	if err != nil {
		metrics.StoreErrorsTotal.WithLabelValues(s.driver, op).Inc()
		s.logger.Warn("listing store call failed",
			zap.String("driver", s.driver),
			zap.String("op", op),
			field,
			zap.Duration("duration", elapsed),
			zap.Error(err),
		)
		return
	}
	s.logger.Debug("listing store call",
		zap.String("driver", s.driver),
		zap.String("op", op),
		field,
		zap.Int("rows", rows),
		zap.Duration("duration", elapsed),
	)
}

func isNotFound(err error) bool {
	return errors.Is(err, listing.ErrNotFound)
}
