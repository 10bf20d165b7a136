package mapview

import (
	"bytes"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/ziadkadry99/dirsite/internal/card"
	"github.com/ziadkadry99/dirsite/internal/listing"
)

var rows = []listing.Listing{
	{ID: "7", Name: "Acme Cafe", Latitude: listing.Coord(40.0), Longitude: listing.Coord(-73.9), WebsiteURL: "http://acme.test"},
	{ID: "8", Name: "Bakery Lane"},
	{ID: "9", Name: "Half Mapped", Latitude: listing.Coord(41.2)},
	{ID: "10", Name: "Null Island", Latitude: listing.Coord(0), Longitude: listing.Coord(0)},
	{ID: "11", Name: "Café Ünïcode", Latitude: listing.Coord(48.8566), Longitude: listing.Coord(2.3522)},
}

func renderCards(t *testing.T, items []listing.Listing) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := card.NewRenderer().Cards(&buf, items); err != nil {
		t.Fatalf("Cards() error: %v", err)
	}
	return buf.Bytes()
}

func TestMarkersOnlyForMappableRows(t *testing.T) {
	markers := Markers(FromListings(rows))
	if len(markers) != 2 {
		t.Fatalf("got %d markers, want 2", len(markers))
	}
	if markers[0].ID != "7" || markers[1].ID != "11" {
		t.Errorf("markers = %+v", markers)
	}
}

func TestTwoRowsOneMarker(t *testing.T) {
	items := FromListings(rows[:2])
	if n := len(Markers(items)); n != 1 {
		t.Errorf("marker count = %d, want 1", n)
	}
}

func TestCenter(t *testing.T) {
	lat, lon, ok := Center(FromListings(rows[1:]))
	if !ok || lat != 48.8566 || lon != 2.3522 {
		t.Errorf("Center() = %v,%v,%v, want first mappable row", lat, lon, ok)
	}
	if _, _, ok := Center(FromListings(rows[1:4])); ok {
		t.Error("Center() of unmappable rows should report !ok")
	}
	if _, _, ok := Center(nil); ok {
		t.Error("Center(nil) should report !ok")
	}
}

func TestParseCardsRoundTrip(t *testing.T) {
	items, err := ParseCards(bytes.NewReader(renderCards(t, rows)))
	if err != nil {
		t.Fatalf("ParseCards() error: %v", err)
	}
	if len(items) != len(rows) {
		t.Fatalf("parsed %d cards, want %d", len(items), len(rows))
	}
	for i, got := range items {
		want := rows[i]
		if got.ID != want.ID.String() {
			t.Errorf("card %d id = %q, want %q", i, got.ID, want.ID)
		}
		if got.Name != want.Name {
			t.Errorf("card %d name = %q, want %q", i, got.Name, want.Name)
		}
		if listing.FormatCoord(got.Latitude) != listing.FormatCoord(want.Latitude) {
			t.Errorf("card %d lat = %q, want %q", i, listing.FormatCoord(got.Latitude), listing.FormatCoord(want.Latitude))
		}
		if listing.FormatCoord(got.Longitude) != listing.FormatCoord(want.Longitude) {
			t.Errorf("card %d lon = %q, want %q", i, listing.FormatCoord(got.Longitude), listing.FormatCoord(want.Longitude))
		}
	}
}

func TestParseCardsEmpty(t *testing.T) {
	items, err := ParseCards(strings.NewReader(""))
	if err != nil {
		t.Fatalf("ParseCards(empty) error: %v", err)
	}
	if items == nil || len(items) != 0 {
		t.Errorf("ParseCards(empty) = %v, want empty slice", items)
	}
}

func TestParseCardsContractViolations(t *testing.T) {
	tests := []struct {
		name string
		html string
	}{
		{"bad id prefix", `<div class="card" id="listing-1" data-lat="" data-lon=""><h3>A</h3></div>`},
		{"missing id", `<div class="card" data-lat="" data-lon=""><h3>A</h3></div>`},
		{"missing data-lat", `<div class="card" id="item-1" data-lon=""><h3>A</h3></div>`},
		{"bad coordinate", `<div class="card" id="item-1" data-lat="north" data-lon="1"><h3>A</h3></div>`},
		{"missing heading", `<div class="card" id="item-1" data-lat="" data-lon=""><p>A</p></div>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseCards(strings.NewReader(tt.html)); err == nil {
				t.Error("expected contract violation error")
			}
		})
	}
}

func TestTriggerRoundTrip(t *testing.T) {
	items := FromListings(rows)
	header, err := EncodeTrigger(items)
	if err != nil {
		t.Fatalf("EncodeTrigger() error: %v", err)
	}
	for _, r := range header {
		if r > 0x7e || r < 0x20 {
			t.Fatalf("header contains non-printable-ASCII rune %q", r)
		}
	}

	// The value must survive being set on a real header.
	h := http.Header{}
	h.Set(TriggerHeader, header)

	p, err := ParseTrigger(h.Get(TriggerHeader))
	if err != nil {
		t.Fatalf("ParseTrigger() error: %v", err)
	}
	if len(p.Items) != len(items) {
		t.Fatalf("payload has %d items, want %d", len(p.Items), len(items))
	}
	if p.Items[4].Name != "Café Ünïcode" {
		t.Errorf("unicode name = %q", p.Items[4].Name)
	}
	if p.Items[1].Latitude != nil {
		t.Error("missing coordinate should decode as null")
	}
	if listing.FormatCoord(p.Items[0].Longitude) != "-73.9" {
		t.Errorf("lon = %s", listing.FormatCoord(p.Items[0].Longitude))
	}
}

func TestTriggerEmpty(t *testing.T) {
	header, err := EncodeTrigger(nil)
	if err != nil {
		t.Fatal(err)
	}
	if header != `{"directory:results":{"items":[]}}` {
		t.Errorf("header = %s", header)
	}
	p, err := ParseTrigger(header)
	if err != nil {
		t.Fatal(err)
	}
	if p.Items == nil || len(p.Items) != 0 {
		t.Errorf("items = %v", p.Items)
	}
}

func TestParseTriggerWithoutPayload(t *testing.T) {
	for _, h := range []string{"", "someEvent", `{"other":{}}`} {
		if _, err := ParseTrigger(h); !errors.Is(err, ErrNoPayload) {
			t.Errorf("ParseTrigger(%q) error = %v, want ErrNoPayload", h, err)
		}
	}
	if _, err := ParseTrigger(`{"directory:results":`); err == nil || errors.Is(err, ErrNoPayload) {
		t.Errorf("malformed JSON should be a decode error, got %v", err)
	}
}

func TestAfterSwapPrefersSidecar(t *testing.T) {
	cards := FromListings(rows)
	sidecar := &Payload{Items: FromListings(rows[:1])}

	markers := AfterSwap(sidecar, cards)
	if len(markers) != 1 || markers[0].ID != "7" {
		t.Errorf("AfterSwap with sidecar = %+v", markers)
	}

	markers = AfterSwap(nil, cards)
	if len(markers) != 2 {
		t.Errorf("AfterSwap from cards = %d markers, want 2", len(markers))
	}
}

// Zero search results clear the map; the full list is not restored.
func TestAfterSwapZeroCardsMeansZeroMarkers(t *testing.T) {
	cards, err := ParseCards(bytes.NewReader(renderCards(t, nil)))
	if err != nil {
		t.Fatal(err)
	}
	if n := len(AfterSwap(nil, cards)); n != 0 {
		t.Errorf("zero-card swap plotted %d markers, want 0", n)
	}
	if n := len(AfterSwap(&Payload{Items: []Item{}}, cards)); n != 0 {
		t.Errorf("zero-item sidecar plotted %d markers, want 0", n)
	}
}
