// Package search serves the directory's search endpoint: a form POST that
// answers with listing cards ready to swap into the page.
package search

import (
	"bytes"
	"html/template"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ziadkadry99/dirsite/internal/card"
	"github.com/ziadkadry99/dirsite/internal/listing"
	"github.com/ziadkadry99/dirsite/internal/logger"
	"github.com/ziadkadry99/dirsite/internal/mapview"
	"github.com/ziadkadry99/dirsite/internal/metrics"
)

// NetlifyPath is the function path used by pages built for Netlify. It is
// always routed alongside the configured search path.
const NetlifyPath = "/.netlify/functions/search"

const (
	outcomeOK    = "ok"
	outcomeEmpty = "empty"
	outcomeError = "error"
)

var errorFragment = template.Must(template.New("error").Parse(
	`<div class="search-error" role="alert">{{.}}</div>` + "\n"))

// Handler answers search requests. It holds no per-request state and is safe
// for concurrent use.
type Handler struct {
	store  listing.Store
	cards  *card.Renderer
	logger *zap.Logger
}

// NewHandler creates a Handler. A nil renderer gets the default one.
func NewHandler(store listing.Store, cards *card.Renderer, logger *zap.Logger) *Handler {
	if cards == nil {
		cards = card.NewRenderer()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, cards: cards, logger: logger}
}

// RegisterRoutes mounts the handler for POST on path and on NetlifyPath.
// Other methods get 405 from the router.
func RegisterRoutes(r chi.Router, path string, h *Handler) {
	if path == "" {
		path = "/search"
	}
	r.Post(path, h.ServeHTTP)
	if path != NetlifyPath {
		r.Post(NetlifyPath, h.ServeHTTP)
	}
}

// ServeHTTP runs the search for the form field q. An absent or blank q
// returns every listing. The response body is the concatenated cards, empty
// when nothing matched, and the HX-Trigger-After-Swap header carries the
// same listings as JSON for the map unless that exceeds
// mapview.MaxTriggerBytes.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContextOr(ctx, h.logger)

	if err := r.ParseForm(); err != nil {
		http.Error(w, "malformed form body", http.StatusBadRequest)
		return
	}
	q := strings.TrimSpace(r.PostForm.Get("q"))

	var (
		items []listing.Listing
		err   error
	)
	if q == "" {
		items, err = h.store.List(ctx)
	} else {
		items, err = h.store.Search(ctx, q)
	}
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues(outcomeError).Inc()
		log.Error("search failed", zap.String("q", q), zap.Error(err))
		writeError(w, log, http.StatusBadGateway, "Search is unavailable right now. Please try again.")
		return
	}

	var body bytes.Buffer
	if err := h.cards.Cards(&body, items); err != nil {
		metrics.SearchRequestsTotal.WithLabelValues(outcomeError).Inc()
		log.Error("rendering cards", zap.Error(err))
		writeError(w, log, http.StatusInternalServerError, "Could not render results.")
		return
	}
	trigger, err := mapview.EncodeTrigger(mapview.FromListings(items))
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues(outcomeError).Inc()
		log.Error("encoding results payload", zap.Error(err))
		writeError(w, log, http.StatusInternalServerError, "Could not render results.")
		return
	}
	if len(trigger) > mapview.MaxTriggerBytes {
		log.Debug("results payload too large for a header, map falls back to cards",
			zap.Int("bytes", len(trigger)), zap.Int("results", len(items)))
		trigger = ""
	}

	outcome := outcomeOK
	if len(items) == 0 {
		outcome = outcomeEmpty
	}
	metrics.SearchRequestsTotal.WithLabelValues(outcome).Inc()
	metrics.SearchResults.Observe(float64(len(items)))
	log.Debug("search served", zap.String("q", q), zap.Int("results", len(items)))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if trigger != "" {
		w.Header().Set(mapview.TriggerHeader, trigger)
	}
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body.Bytes()); err != nil {
		log.Debug("writing search response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, log *zap.Logger, status int, msg string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := errorFragment.Execute(w, msg); err != nil {
		log.Debug("writing error response", zap.Error(err))
	}
}
