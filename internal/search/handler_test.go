package search

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ziadkadry99/dirsite/internal/db/sqlite"
	"github.com/ziadkadry99/dirsite/internal/listing"
	"github.com/ziadkadry99/dirsite/internal/mapview"
	"github.com/ziadkadry99/dirsite/internal/metrics"
)

// fakeStore records the calls it receives.
type fakeStore struct {
	mu       sync.Mutex
	items    []listing.Listing
	err      error
	listed   int
	searched []string
}

func (f *fakeStore) List(context.Context) ([]listing.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listed++
	return f.items, f.err
}

func (f *fakeStore) Search(_ context.Context, term string) ([]listing.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searched = append(f.searched, term)
	return f.items, f.err
}

func (f *fakeStore) Get(context.Context, listing.ID) (*listing.Listing, error) {
	return nil, listing.ErrNotFound
}

func (f *fakeStore) Close() error { return nil }

var acme = listing.Listing{
	ID:         "7",
	Name:       "Acme Cafe",
	Latitude:   listing.Coord(40.0),
	Longitude:  listing.Coord(-73.9),
	WebsiteURL: "http://acme.test",
}

func post(t *testing.T, h http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestEmptyQueryListsEverything(t *testing.T) {
	store := &fakeStore{items: []listing.Listing{acme}}
	w := post(t, NewHandler(store, nil, nil), "/search", url.Values{"q": {""}})

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}
	if store.listed != 1 || len(store.searched) != 0 {
		t.Errorf("blank q should call List once, got listed=%d searched=%v", store.listed, store.searched)
	}

	body := w.Body.String()
	if strings.Count(body, `class="card"`) != 1 {
		t.Fatalf("want exactly one card:\n%s", body)
	}
	for _, want := range []string{
		`id="item-7"`,
		`data-lat="40"`,
		`data-lon="-73.9"`,
		`<h3><a href="/items/7/">Acme Cafe</a></h3>`,
		`href="http://acme.test" target="_blank" rel="noopener noreferrer"`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q", want)
		}
	}
}

func TestMissingQueryListsEverything(t *testing.T) {
	store := &fakeStore{items: []listing.Listing{acme}}
	w := post(t, NewHandler(store, nil, nil), "/search", url.Values{})
	if w.Code != http.StatusOK || store.listed != 1 {
		t.Errorf("status = %d, listed = %d", w.Code, store.listed)
	}
}

func TestQueryIsTrimmed(t *testing.T) {
	store := &fakeStore{}
	post(t, NewHandler(store, nil, nil), "/search", url.Values{"q": {"  acme \n"}})
	if len(store.searched) != 1 || store.searched[0] != "acme" {
		t.Errorf("searched = %q, want [acme]", store.searched)
	}

	store = &fakeStore{}
	post(t, NewHandler(store, nil, nil), "/search", url.Values{"q": {"   "}})
	if store.listed != 1 {
		t.Error("whitespace-only q should behave like an empty q")
	}
}

func TestZeroMatchesEmptyBody(t *testing.T) {
	w := post(t, NewHandler(&fakeStore{}, nil, nil), "/search", url.Values{"q": {"nothing"}})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if w.Body.Len() != 0 {
		t.Errorf("body = %q, want empty", w.Body.String())
	}
	p, err := mapview.ParseTrigger(w.Header().Get(mapview.TriggerHeader))
	if err != nil {
		t.Fatalf("ParseTrigger: %v", err)
	}
	if len(p.Items) != 0 {
		t.Errorf("sidecar items = %v, want none", p.Items)
	}
}

func TestSidecarMirrorsCards(t *testing.T) {
	bakery := listing.Listing{ID: "8", Name: "Bakery Lane"}
	store := &fakeStore{items: []listing.Listing{acme, bakery}}
	w := post(t, NewHandler(store, nil, nil), "/search", url.Values{"q": {"a"}})

	fromCards, err := mapview.ParseCards(w.Body)
	if err != nil {
		t.Fatalf("ParseCards: %v", err)
	}
	p, err := mapview.ParseTrigger(w.Header().Get(mapview.TriggerHeader))
	if err != nil {
		t.Fatalf("ParseTrigger: %v", err)
	}
	if len(fromCards) != 2 || len(p.Items) != 2 {
		t.Fatalf("cards = %d, sidecar = %d, want 2 each", len(fromCards), len(p.Items))
	}
	for i := range fromCards {
		c, s := fromCards[i], p.Items[i]
		if c.ID != s.ID || c.Name != s.Name || c.Mappable() != s.Mappable() {
			t.Errorf("item %d: cards %+v, sidecar %+v", i, c, s)
		}
	}
	if got := len(mapview.Markers(p.Items)); got != 1 {
		t.Errorf("markers = %d, want 1", got)
	}
}

func TestLargeResultsOmitSidecar(t *testing.T) {
	var items []listing.Listing
	for i := range 200 {
		items = append(items, listing.Listing{
			ID:        listing.ID(fmt.Sprint(i + 1)),
			Name:      fmt.Sprintf("Listing number %d", i+1),
			Latitude:  listing.Coord(40 + float64(i)/1000),
			Longitude: listing.Coord(-73.9),
		})
	}
	w := post(t, NewHandler(&fakeStore{items: items}, nil, nil), "/search", url.Values{"q": {""}})

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if h := w.Header().Get(mapview.TriggerHeader); h != "" {
		t.Fatalf("%s is %d bytes, want it omitted", mapview.TriggerHeader, len(h))
	}
	cards, err := mapview.ParseCards(w.Body)
	if err != nil {
		t.Fatalf("ParseCards: %v", err)
	}
	if len(cards) != 200 {
		t.Fatalf("cards = %d, want 200", len(cards))
	}
	// Without the header the map reads the cards.
	if got := len(mapview.AfterSwap(nil, cards)); got != 200 {
		t.Errorf("markers = %d, want 200", got)
	}
}

func TestSidecarWithinLimit(t *testing.T) {
	var items []listing.Listing
	for i := range 20 {
		items = append(items, listing.Listing{ID: listing.ID(fmt.Sprint(i + 1)), Name: "Cafe"})
	}
	w := post(t, NewHandler(&fakeStore{items: items}, nil, nil), "/search", url.Values{"q": {""}})

	h := w.Header().Get(mapview.TriggerHeader)
	if h == "" || len(h) > mapview.MaxTriggerBytes {
		t.Fatalf("%s length = %d, want 1..%d", mapview.TriggerHeader, len(h), mapview.MaxTriggerBytes)
	}
}

// brokenWriter fails every body write.
type brokenWriter struct{ header http.Header }

func (b *brokenWriter) Header() http.Header       { return b.header }
func (b *brokenWriter) WriteHeader(int)           {}
func (b *brokenWriter) Write([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestWriteErrorsAreLogged(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	store := &fakeStore{items: []listing.Listing{acme}}
	h := NewHandler(store, nil, zap.New(core))

	req := httptest.NewRequest(http.MethodPost, "/search", strings.NewReader("q="))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	h.ServeHTTP(&brokenWriter{header: http.Header{}}, req)
	if logs.FilterMessage("writing search response").Len() != 1 {
		t.Errorf("missing log for the failed write, got %v", logs.All())
	}

	store.err = errors.New("boom")
	req = httptest.NewRequest(http.MethodPost, "/search", strings.NewReader("q="))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	h.ServeHTTP(&brokenWriter{header: http.Header{}}, req)
	if logs.FilterMessage("writing error response").Len() != 1 {
		t.Errorf("missing log for the failed error write, got %v", logs.All())
	}
}

func TestStoreErrorIsBadGateway(t *testing.T) {
	before := testutil.ToFloat64(metrics.SearchRequestsTotal.WithLabelValues(outcomeError))

	store := &fakeStore{err: errors.New("connection refused")}
	w := post(t, NewHandler(store, nil, nil), "/search", url.Values{"q": {"acme"}})

	if w.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", w.Code)
	}
	if strings.Contains(w.Body.String(), "connection refused") {
		t.Error("backend error details should not reach the client")
	}
	if !strings.Contains(w.Body.String(), `class="search-error"`) {
		t.Errorf("body = %q", w.Body.String())
	}
	if w.Header().Get(mapview.TriggerHeader) != "" {
		t.Error("failed search should not send a results payload")
	}
	if got := testutil.ToFloat64(metrics.SearchRequestsTotal.WithLabelValues(outcomeError)); got != before+1 {
		t.Errorf("error counter = %v, want %v", got, before+1)
	}
}

func TestOutcomeMetrics(t *testing.T) {
	h := NewHandler(&fakeStore{items: []listing.Listing{acme}}, nil, nil)
	ok := testutil.ToFloat64(metrics.SearchRequestsTotal.WithLabelValues(outcomeOK))
	post(t, h, "/search", url.Values{})
	if got := testutil.ToFloat64(metrics.SearchRequestsTotal.WithLabelValues(outcomeOK)); got != ok+1 {
		t.Errorf("ok counter = %v, want %v", got, ok+1)
	}

	h = NewHandler(&fakeStore{}, nil, nil)
	empty := testutil.ToFloat64(metrics.SearchRequestsTotal.WithLabelValues(outcomeEmpty))
	post(t, h, "/search", url.Values{"q": {"zzz"}})
	if got := testutil.ToFloat64(metrics.SearchRequestsTotal.WithLabelValues(outcomeEmpty)); got != empty+1 {
		t.Errorf("empty counter = %v, want %v", got, empty+1)
	}
}

func TestRoutes(t *testing.T) {
	r := chi.NewRouter()
	RegisterRoutes(r, "/api/search", NewHandler(&fakeStore{items: []listing.Listing{acme}}, nil, nil))

	for _, path := range []string{"/api/search", NetlifyPath} {
		if w := post(t, r, path, url.Values{}); w.Code != http.StatusOK {
			t.Errorf("POST %s = %d, want 200", path, w.Code)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/search", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET = %d, want 405", w.Code)
	}
}

// The remaining tests run against a real SQLite store.

func seededStore(t *testing.T) listing.Store {
	t.Helper()
	store, err := sqlite.OpenMemory("directory_listings")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	_, err = store.Upsert(t.Context(), []listing.Listing{
		acme,
		{ID: "8", Name: "Bakery Lane"},
		{ID: "9", Name: "O'Brien's Books", Latitude: listing.Coord(40.7), Longitude: listing.Coord(-74)},
	})
	if err != nil {
		t.Fatal(err)
	}
	return store
}

func TestSQLiteSearch(t *testing.T) {
	h := NewHandler(seededStore(t), nil, nil)

	tests := []struct {
		q     string
		cards int
	}{
		{"", 3},
		{"acme", 1},
		{"ACME cafe", 1},
		{"O'Brien", 1},
		{`"; DROP TABLE directory_listings; --`, 0},
		{"' OR 1=1 --", 0},
		{"!!!", 0},
		{"pizza", 0},
	}
	for _, tt := range tests {
		w := post(t, h, "/search", url.Values{"q": {tt.q}})
		if w.Code != http.StatusOK {
			t.Errorf("q=%q: status = %d, want 200", tt.q, w.Code)
			continue
		}
		if got := strings.Count(w.Body.String(), `class="card"`); got != tt.cards {
			t.Errorf("q=%q: %d cards, want %d", tt.q, got, tt.cards)
		}
		if tt.cards == 0 && w.Body.Len() != 0 {
			t.Errorf("q=%q: body should be empty", tt.q)
		}
	}

	// The table survives the injection attempts.
	if w := post(t, h, "/search", url.Values{}); strings.Count(w.Body.String(), `class="card"`) != 3 {
		t.Error("listings missing after quoted queries")
	}
}
