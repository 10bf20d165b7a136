// Package mapview holds the rules the browser map follows: which listings
// get markers, where the map starts, and what data a search response hands
// the map after a swap. The map script implements the same rules; the
// search endpoint and the verify command use this package.
package mapview

import (
	"github.com/ziadkadry99/dirsite/internal/listing"
)

// Item is the part of a listing the map needs.
type Item struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// FromListing keeps the map fields of l.
func FromListing(l listing.Listing) Item {
	return Item{ID: l.ID.String(), Name: l.Name, Latitude: l.Latitude, Longitude: l.Longitude}
}

// FromListings converts a result set, preserving order. The result is
// never nil.
func FromListings(items []listing.Listing) []Item {
	out := make([]Item, 0, len(items))
	for _, l := range items {
		out = append(out, FromListing(l))
	}
	return out
}

// Mappable reports whether the item gets a marker: both coordinates present
// and non-zero.
func (it Item) Mappable() bool {
	return it.Latitude != nil && it.Longitude != nil && *it.Latitude != 0 && *it.Longitude != 0
}

// Markers returns the items that get a marker, in order.
func Markers(items []Item) []Item {
	out := make([]Item, 0, len(items))
	for _, it := range items {
		if it.Mappable() {
			out = append(out, it)
		}
	}
	return out
}

// Center is where the map opens: the first mappable item. ok is false when
// nothing can be plotted, in which case no map is drawn.
func Center(items []Item) (lat, lon float64, ok bool) {
	for _, it := range items {
		if it.Mappable() {
			return *it.Latitude, *it.Longitude, true
		}
	}
	return 0, 0, false
}

// AfterSwap decides the markers to show once a search fragment has been
// swapped in. A sidecar payload wins; otherwise the items read back from the
// swapped cards are used. An empty result plots nothing: the original list
// is not restored, since clearing the search box already asks the server for
// every listing.
func AfterSwap(sidecar *Payload, cards []Item) []Item {
	if sidecar != nil {
		return Markers(sidecar.Items)
	}
	return Markers(cards)
}
