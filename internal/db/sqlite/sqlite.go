// Package sqlite is the local development listing store: a SQLite file with
// an FTS5 index on listing names.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/ziadkadry99/dirsite/internal/listing"
)

var tableNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Store implements listing.Store on SQLite.
type Store struct {
	db    *sql.DB
	table string
}

// Open creates or opens a SQLite database at the given path.
func Open(path, table string) (*Store, error) {
	if !tableNameRe.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	sqlDB, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	s := &Store{db: sqlDB, table: table}
	if err := s.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// OpenMemory creates an in-memory SQLite database (useful for testing).
func OpenMemory(table string) (*Store, error) {
	if !tableNameRe.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	sqlDB, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("opening in-memory database: %w", err)
	}
	// Every pooled connection would otherwise get its own empty database.
	sqlDB.SetMaxOpenConns(1)

	s := &Store{db: sqlDB, table: table}
	if err := s.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the listings table, its FTS5 index and the triggers that
// keep the two in step.
func (s *Store) migrate() error {
	_, err := s.db.Exec(strings.ReplaceAll(schema, "{{table}}", s.table))
	return err
}

const schema = `
CREATE TABLE IF NOT EXISTS {{table}} (
    id INTEGER PRIMARY KEY,
    name TEXT NOT NULL,
    description TEXT,
    latitude REAL,
    longitude REAL,
    image_url TEXT,
    website_url TEXT,
    created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_{{table}}_name ON {{table}}(name);

CREATE VIRTUAL TABLE IF NOT EXISTS {{table}}_fts USING fts5(
    name,
    content='{{table}}',
    content_rowid='id',
    tokenize='porter unicode61'
);

CREATE TRIGGER IF NOT EXISTS {{table}}_ai AFTER INSERT ON {{table}} BEGIN
    INSERT INTO {{table}}_fts(rowid, name) VALUES (new.id, new.name);
END;

CREATE TRIGGER IF NOT EXISTS {{table}}_ad AFTER DELETE ON {{table}} BEGIN
    INSERT INTO {{table}}_fts({{table}}_fts, rowid, name) VALUES ('delete', old.id, old.name);
END;

CREATE TRIGGER IF NOT EXISTS {{table}}_au AFTER UPDATE ON {{table}} BEGIN
    INSERT INTO {{table}}_fts({{table}}_fts, rowid, name) VALUES ('delete', old.id, old.name);
    INSERT INTO {{table}}_fts(rowid, name) VALUES (new.id, new.name);
END;
`

const columns = `l.id, l.name, l.description, l.latitude, l.longitude, l.image_url, l.website_url`

// List returns every listing ordered by name.
func (s *Store) List(ctx context.Context) ([]listing.Listing, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+columns+` FROM `+s.table+` l ORDER BY l.name, l.id`)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", s.table, err)
	}
	defer rows.Close()
	return scanListings(rows)
}

// Search matches term as a phrase against the FTS5 name index. The term is
// bound as a parameter; quoting inside it cannot change the query.
func (s *Store) Search(ctx context.Context, term string) ([]listing.Listing, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return s.List(ctx)
	}
	if !listing.Searchable(term) {
		return []listing.Listing{}, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+columns+` FROM `+s.table+` l
		 JOIN `+s.table+`_fts f ON f.rowid = l.id
		 WHERE `+s.table+`_fts MATCH ?
		 ORDER BY l.name, l.id`,
		phrase(term),
	)
	if err != nil {
		return nil, fmt.Errorf("searching %s: %w", s.table, err)
	}
	defer rows.Close()
	return scanListings(rows)
}

// Get returns one listing by ID.
func (s *Store) Get(ctx context.Context, id listing.ID) (*listing.Listing, error) {
	n, err := strconv.ParseInt(id.String(), 10, 64)
	if err != nil {
		return nil, listing.ErrNotFound
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+columns+` FROM `+s.table+` l WHERE l.id = ?`, n)
	if err != nil {
		return nil, fmt.Errorf("getting listing %s: %w", id, err)
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

// Upsert inserts or replaces listings and returns how many were written.
// Listings without an ID get one assigned.
func (s *Store) Upsert(ctx context.Context, items []listing.Listing) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO `+s.table+` (id, name, description, latitude, longitude, image_url, website_url)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		     name = excluded.name,
		     description = excluded.description,
		     latitude = excluded.latitude,
		     longitude = excluded.longitude,
		     image_url = excluded.image_url,
		     website_url = excluded.website_url`)
	if err != nil {
		return 0, fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, l := range items {
		if strings.TrimSpace(l.Name) == "" {
			return 0, fmt.Errorf("listing %q has no name", l.ID)
		}
		var id any
		if l.ID != "" {
			n, err := strconv.ParseInt(l.ID.String(), 10, 64)
			if err != nil {
				return 0, fmt.Errorf("listing id %q is not an integer", l.ID)
			}
			id = n
		}
		if _, err := stmt.ExecContext(ctx, id, l.Name,
			nullString(l.Description), nullFloat(l.Latitude), nullFloat(l.Longitude),
			nullString(l.ImageURL), nullString(l.WebsiteURL),
		); err != nil {
			return 0, fmt.Errorf("upserting %q: %w", l.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return len(items), nil
}

// phrase turns free text into a single FTS5 phrase string.
func phrase(term string) string {
	return `"` + strings.ReplaceAll(term, `"`, `""`) + `"`
}

func scanListings(rows *sql.Rows) ([]listing.Listing, error) {
	items := []listing.Listing{}
	for rows.Next() {
		var (
			id                   int64
			l                    listing.Listing
			desc, image, website sql.NullString
			lat, lon             sql.NullFloat64
		)
		if err := rows.Scan(&id, &l.Name, &desc, &lat, &lon, &image, &website); err != nil {
			return nil, fmt.Errorf("scanning listing: %w", err)
		}
		l.ID = listing.ID(strconv.FormatInt(id, 10))
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
	return items, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}
