// Package listing defines the directory entry model shared by every store
// backend, the site generator and the search endpoint.
package listing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// ErrNotFound is returned by Store.Get when no listing has the given ID.
var ErrNotFound = errors.New("listing not found")

// ID identifies a listing. Backends hand out integer keys, the browser sees
// strings, so the ID is kept in its string form everywhere.
type ID string

// UnmarshalJSON accepts both JSON numbers and strings.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decoding listing id: %w", err)
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("decoding listing id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// String returns the ID as a plain string.
func (id ID) String() string { return string(id) }

// Listing is one directory entry.
type Listing struct {
	ID          ID       `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
	ImageURL    string   `json:"image_url,omitempty"`
	WebsiteURL  string   `json:"website_url,omitempty"`
}

// Mappable reports whether the listing can be plotted. Both coordinates
// must be present and non-zero; anything else is treated as unmapped.
func (l Listing) Mappable() bool {
	return l.Latitude != nil && l.Longitude != nil && *l.Latitude != 0 && *l.Longitude != 0
}

// FormatCoord renders a coordinate in its shortest round-tripping decimal
// form, or "" when it is absent.
func FormatCoord(c *float64) string {
	if c == nil {
		return ""
	}
	return strconv.FormatFloat(*c, 'f', -1, 64)
}

// Coord is a convenience for building optional coordinates.
func Coord(v float64) *float64 { return &v }

// Searchable reports whether a search term contains anything a text search
// could match. Terms made only of punctuation and spaces match nothing.
func Searchable(term string) bool {
	return strings.IndexFunc(term, func(r rune) bool {
		return unicode.IsLetter(r) || unicode.IsDigit(r)
	}) >= 0
}

// Store is the read contract every listing backend implements.
type Store interface {
	// List returns every listing ordered by name ascending.
	List(ctx context.Context) ([]Listing, error)
	// Search runs a text search on the name column. An empty term behaves
	// like List.
	Search(ctx context.Context, term string) ([]Listing, error)
	// Get returns a single listing or ErrNotFound.
	Get(ctx context.Context, id ID) (*Listing, error)
	Close() error
}
