// Package supabase reads listings through a Supabase project's REST API
// (PostgREST), authenticating with the project's anonymous key.
package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ziadkadry99/dirsite/internal/listing"
)

// APIError is a non-2xx response from PostgREST.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if e.Code != "" {
		return fmt.Sprintf("supabase returned status %d (%s): %s", e.Status, e.Code, msg)
	}
	return fmt.Sprintf("supabase returned status %d: %s", e.Status, msg)
}

// invalidTextRepresentation is the Postgres error for a value that does not
// parse as the column type, e.g. a non-numeric id.
const invalidTextRepresentation = "22P02"

// Store implements listing.Store over the REST API. It holds no state
// besides its HTTP client and is safe for concurrent use.
type Store struct {
	baseURL string
	anonKey string
	table   string
	client  *http.Client
}

// New creates a store for the project at baseURL. A zero timeout means none.
func New(baseURL, anonKey, table string, timeout time.Duration) *Store {
	return &Store{
		baseURL: strings.TrimRight(baseURL, "/"),
		anonKey: anonKey,
		table:   table,
		client:  &http.Client{Timeout: timeout},
	}
}

func (s *Store) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

// List selects every row ordered by name.
func (s *Store) List(ctx context.Context) ([]listing.Listing, error) {
	return s.query(ctx, url.Values{})
}

// Search filters name with a phrase full-text match (phraseto_tsquery on
// the server). The term travels as a query-string value, so quotes in it
// are data, not syntax.
func (s *Store) Search(ctx context.Context, term string) ([]listing.Listing, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return s.List(ctx)
	}
	if !listing.Searchable(term) {
		return []listing.Listing{}, nil
	}
	return s.query(ctx, url.Values{"name": {"phfts." + term}})
}

// Get fetches one row by id.
func (s *Store) Get(ctx context.Context, id listing.ID) (*listing.Listing, error) {
	if id == "" {
		return nil, listing.ErrNotFound
	}
	items, err := s.query(ctx, url.Values{"id": {"eq." + id.String()}, "limit": {"1"}})
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Code == invalidTextRepresentation {
			return nil, listing.ErrNotFound
		}
		return nil, err
	}
	if len(items) == 0 {
		return nil, listing.ErrNotFound
	}
	return &items[0], nil
}

func (s *Store) query(ctx context.Context, params url.Values) ([]listing.Listing, error) {
	params.Set("select", "*")
	params.Set("order", "name.asc,id.asc")

	endpoint := fmt.Sprintf("%s/rest/v1/%s?%s", s.baseURL, url.PathEscape(s.table), params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("apikey", s.anonKey)
	req.Header.Set("Authorization", "Bearer "+s.anonKey)
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("supabase request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read supabase response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		if jsonErr := json.Unmarshal(body, apiErr); jsonErr != nil {
			apiErr.Message = strings.TrimSpace(string(body))
		}
		return nil, apiErr
	}

	items := []listing.Listing{}
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("failed to decode %s rows: %w", s.table, err)
	}
	return items, nil
}
