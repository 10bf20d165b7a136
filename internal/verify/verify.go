// Package verify checks a running search endpoint against the contract the
// map script depends on.
package verify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/ziadkadry99/dirsite/internal/listing"
	"github.com/ziadkadry99/dirsite/internal/mapview"
)

// Report is the outcome of one endpoint check.
type Report struct {
	Query    string
	Status   int
	Cards    []mapview.Item // parsed from the body
	Sidecar  []mapview.Item // nil when the response had no payload
	Markers  int            // markers the map would show after the swap
	Problems []string
}

// OK reports whether the response honoured the contract.
func (r *Report) OK() bool { return len(r.Problems) == 0 }

func (r *Report) problemf(format string, args ...any) {
	r.Problems = append(r.Problems, fmt.Sprintf(format, args...))
}

// Check posts q to endpoint and compares the returned cards with the
// structured payload in the response header, when there is one. Transport failures are
// returned as errors; contract violations end up in Report.Problems.
func Check(ctx context.Context, client *http.Client, endpoint, q string) (*Report, error) {
	if client == nil {
		client = http.DefaultClient
	}
	form := url.Values{"q": {q}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("HX-Request", "true")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("posting to %s: %w", endpoint, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	r := &Report{Query: q, Status: resp.StatusCode}
	if resp.StatusCode != http.StatusOK {
		r.problemf("status %d, want 200", resp.StatusCode)
		return r, nil
	}
	if mt, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type")); err != nil || mt != "text/html" {
		r.problemf("Content-Type %q, want text/html", resp.Header.Get("Content-Type"))
	}

	cards, err := mapview.ParseCards(bytes.NewReader(body))
	if err != nil {
		r.problemf("cards break the markup contract: %v", err)
	}
	r.Cards = cards
	if len(cards) == 0 && len(bytes.TrimSpace(body)) > 0 {
		r.problemf("no cards but a non-empty body (%d bytes)", len(body))
	}

	payload, err := mapview.ParseTrigger(resp.Header.Get(mapview.TriggerHeader))
	switch {
	case errors.Is(err, mapview.ErrNoPayload):
		// Large result sets are sent without the header; the map reads the cards.
	case err != nil:
		r.problemf("bad %s header: %v", mapview.TriggerHeader, err)
	default:
		r.Sidecar = payload.Items
		compare(r, cards, payload.Items)
	}

	r.Markers = len(mapview.Markers(mapview.AfterSwap(payload, cards)))
	return r, nil
}

// compare records every difference between the cards and the payload.
func compare(r *Report, cards, sidecar []mapview.Item) {
	if len(cards) != len(sidecar) {
		r.problemf("%d cards but %d payload items", len(cards), len(sidecar))
		return
	}
	for i := range cards {
		c, s := cards[i], sidecar[i]
		if c.ID != s.ID {
			r.problemf("item %d: card id %q, payload id %q", i+1, c.ID, s.ID)
			continue
		}
		if c.Name != s.Name {
			r.problemf("item %s: card name %q, payload name %q", c.ID, c.Name, s.Name)
		}
		if listing.FormatCoord(c.Latitude) != listing.FormatCoord(s.Latitude) ||
			listing.FormatCoord(c.Longitude) != listing.FormatCoord(s.Longitude) {
			r.problemf("item %s: card coordinates (%s, %s), payload (%s, %s)", c.ID,
				listing.FormatCoord(c.Latitude), listing.FormatCoord(c.Longitude),
				listing.FormatCoord(s.Latitude), listing.FormatCoord(s.Longitude))
		}
	}
}
