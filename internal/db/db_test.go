package db

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ziadkadry99/dirsite/internal/config"
	"github.com/ziadkadry99/dirsite/internal/db/sqlite"
	"github.com/ziadkadry99/dirsite/internal/db/supabase"
	"github.com/ziadkadry99/dirsite/internal/listing"
	"github.com/ziadkadry99/dirsite/internal/metrics"
)

type failingStore struct{ err error }

func (f failingStore) List(context.Context) ([]listing.Listing, error) { return nil, f.err }
func (f failingStore) Search(context.Context, string) ([]listing.Listing, error) {
	return nil, f.err
}
func (f failingStore) Get(context.Context, listing.ID) (*listing.Listing, error) { return nil, f.err }
func (f failingStore) Close() error                                              { return nil }

func TestOpenSQLite(t *testing.T) {
	cfg := config.DefaultConfig().Store
	cfg.Driver = config.DriverSQLite
	cfg.Path = filepath.Join(t.TempDir(), "dirsite.db")

	store, err := Open(t.Context(), cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer store.Close()

	inst, ok := store.(*Instrumented)
	if !ok {
		t.Fatalf("Open() returned %T, want *Instrumented", store)
	}
	if _, ok := inst.Unwrap().(*sqlite.Store); !ok {
		t.Errorf("wrapped store is %T, want *sqlite.Store", inst.Unwrap())
	}

	items, err := store.List(t.Context())
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("new database should be empty, got %d rows", len(items))
	}
}

func TestOpenSupabase(t *testing.T) {
	cfg := config.DefaultConfig().Store
	cfg.URL = "https://example.supabase.co"
	cfg.AnonKey = "key"

	store, err := Open(t.Context(), cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer store.Close()
	if _, ok := store.(*Instrumented).Unwrap().(*supabase.Store); !ok {
		t.Errorf("wrapped store is %T, want *supabase.Store", store.(*Instrumented).Unwrap())
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	cfg := config.DefaultConfig().Store
	cfg.Driver = "mongo"
	if _, err := Open(t.Context(), cfg, zap.NewNop()); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestInstrumentedRecordsCalls(t *testing.T) {
	mem, err := sqlite.OpenMemory("directory_listings")
	if err != nil {
		t.Fatalf("OpenMemory() error: %v", err)
	}
	if _, err := mem.Upsert(t.Context(), []listing.Listing{{ID: "1", Name: "Acme Cafe"}}); err != nil {
		t.Fatal(err)
	}

	core, logs := observer.New(zap.DebugLevel)
	store := Instrument(mem, "test-ok", zap.New(core))
	defer store.Close()

	if _, err := store.Search(t.Context(), "acme"); err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if _, err := store.Get(t.Context(), "42"); !errors.Is(err, listing.ErrNotFound) {
		t.Fatalf("Get(missing) error = %v", err)
	}

	if n := testutil.CollectAndCount(metrics.StoreQueryDuration); n == 0 {
		t.Error("expected store_query_duration_seconds observations")
	}
	if v := testutil.ToFloat64(metrics.StoreErrorsTotal.WithLabelValues("test-ok", "get")); v != 0 {
		t.Errorf("not-found counted as store error: %f", v)
	}

	entries := logs.FilterMessage("listing store call").All()
	if len(entries) != 2 {
		t.Fatalf("got %d debug entries, want 2", len(entries))
	}
	if got := entries[0].ContextMap()["rows"]; got != int64(1) {
		t.Errorf("rows field = %v, want 1", got)
	}
}

func TestInstrumentedCountsErrors(t *testing.T) {
	boom := errors.New("backend down")
	core, logs := observer.New(zap.WarnLevel)
	store := Instrument(failingStore{err: boom}, "test-fail", zap.New(core))

	if _, err := store.List(t.Context()); !errors.Is(err, boom) {
		t.Fatalf("List() error = %v, want %v", err, boom)
	}
	if _, err := store.Search(t.Context(), "x"); !errors.Is(err, boom) {
		t.Fatalf("Search() error = %v, want %v", err, boom)
	}

	if v := testutil.ToFloat64(metrics.StoreErrorsTotal.WithLabelValues("test-fail", "list")); v != 1 {
		t.Errorf("store_errors_total{op=list} = %f, want 1", v)
	}
	if v := testutil.ToFloat64(metrics.StoreErrorsTotal.WithLabelValues("test-fail", "search")); v != 1 {
		t.Errorf("store_errors_total{op=search} = %f, want 1", v)
	}
	if n := logs.FilterMessage("listing store call failed").Len(); n != 2 {
		t.Errorf("got %d warning entries, want 2", n)
	}
}
