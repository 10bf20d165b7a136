// Package postgres reads listings straight from a Postgres table, for sites
// that keep their directory in a database they connect to directly.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/ziadkadry99/dirsite/internal/listing"
)

// Store implements listing.Store on a Postgres table. The table is owned
// elsewhere; the store never creates or alters it.
type Store struct {
	db      *sql.DB
	queries queries
}

// Open connects with the given DSN and checks that the server answers.
func Open(ctx context.Context, dsn, table string) (*Store, error) {
	q, err := buildQueries(table)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres connection: %w", err)
	}

	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &Store{db: db, queries: q}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

type queries struct {
	list   string
	search string
	get    string
}

const selectColumns = `id::text, name, description, latitude::float8, longitude::float8, image_url, website_url`

// buildQueries quotes the table name (optionally schema-qualified) as an
// identifier. Values are always bound as $n parameters.
func buildQueries(table string) (queries, error) {
	parts := strings.Split(table, ".")
	for _, p := range parts {
		if p == "" {
			return queries{}, fmt.Errorf("invalid table name %q", table)
		}
	}
	from := pgx.Identifier(parts).Sanitize()

	return queries{
		list:   `SELECT ` + selectColumns + ` FROM ` + from + ` ORDER BY name ASC, id ASC`,
		search: `SELECT ` + selectColumns + ` FROM ` + from + ` WHERE to_tsvector(name) @@ phraseto_tsquery($1) ORDER BY name ASC, id ASC`,
		get:    `SELECT ` + selectColumns + ` FROM ` + from + ` WHERE id::text = $1`,
	}, nil
}

// List returns all rows ordered by name.
func (s *Store) List(ctx context.Context) ([]listing.Listing, error) {
	rows, err := s.db.QueryContext(ctx, s.queries.list)
	if err != nil {
		return nil, fmt.Errorf("query listings: %w", err)
	}
	defer rows.Close()
	return scanListings(rows)
}

// Search runs a phrase full-text search on name with term as a bound value.
func (s *Store) Search(ctx context.Context, term string) ([]listing.Listing, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return s.List(ctx)
	}
	if !listing.Searchable(term) {
		return []listing.Listing{}, nil
	}

	rows, err := s.db.QueryContext(ctx, s.queries.search, term)
	if err != nil {
		return nil, fmt.Errorf("search listings: %w", err)
	}
	defer rows.Close()
	return scanListings(rows)
}

// Get returns a single listing.
func (s *Store) Get(ctx context.Context, id listing.ID) (*listing.Listing, error) {
	if id == "" {
		return nil, listing.ErrNotFound
	}
	rows, err := s.db.QueryContext(ctx, s.queries.get, id.String())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, listing.ErrNotFound
		}
		return nil, fmt.Errorf("get listing %s: %w", id, err)
	}
	defer rows.Close()

	items, err := scanListings(rows)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, listing.ErrNotFound
	}
	return &items[0], nil
}

// rowScanner is the subset of *sql.Rows that scanListings needs.
type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanListings(rows rowScanner) ([]listing.Listing, error) {
	items := []listing.Listing{}
	for rows.Next() {
		var (
			id                   string
			l                    listing.Listing
			desc, image, website sql.NullString
			lat, lon             sql.NullFloat64
		)
		if err := rows.Scan(&id, &l.Name, &desc, &lat, &lon, &image, &website); err != nil {
			return nil, fmt.Errorf("scan listing: %w", err)
		}
		l.ID = listing.ID(id)
		l.Description = desc.String
		l.ImageURL = image.String
		l.WebsiteURL = website.String
		if lat.Valid {
			l.Latitude = listing.Coord(lat.Float64)
		}
		if lon.Valid {
			l.Longitude = listing.Coord(lon.Float64)
		}
		items = append(items, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate listings: %w", err)
	}
	return items, nil
}
