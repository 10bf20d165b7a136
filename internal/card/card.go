// Package card renders listing cards. Every card on every page and in every
// search response comes from the one template here, which keeps the markup
// the map script reads (id prefix, data-lat/data-lon, h3 heading) in a
// single place.
package card

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"net/url"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/ziadkadry99/dirsite/internal/listing"
)

// IDPrefix is prepended to a listing ID to form its card's element id.
const IDPrefix = "item-"

// ElementID returns the DOM id of the card for id.
func ElementID(id listing.ID) string {
	return IDPrefix + id.String()
}

// DetailPath returns the site path of a listing's detail page.
func DetailPath(id listing.ID) string {
	return "/items/" + url.PathEscape(id.String()) + "/"
}

const cardTemplate = `<div class="card" id="{{.ElementID}}" data-lat="{{.Lat}}" data-lon="{{.Lon}}">
{{- if .ImageURL}}
  <img src="{{.ImageURL}}" alt="{{.Name}}" loading="lazy">
{{- end}}
  <h3><a href="{{.DetailPath}}">{{.Name}}</a></h3>
{{- if .Description}}
  <div class="card-description">{{.Description}}</div>
{{- end}}
  <div class="card-actions">
    <a href="{{.DetailPath}}" class="btn">Details</a>
{{- if .WebsiteURL}}
    <a href="{{.WebsiteURL}}" target="_blank" rel="noopener noreferrer" class="btn">Visit Website</a>
{{- end}}
  </div>
</div>
`

type cardData struct {
	ElementID   string
	DetailPath  string
	Name        string
	Lat, Lon    string
	ImageURL    string
	WebsiteURL  string
	Description template.HTML
}

// Renderer turns listings into card markup. Descriptions are Markdown;
// raw HTML inside them is dropped. A Renderer is safe for concurrent use.
type Renderer struct {
	tmpl *template.Template
	md   goldmark.Markdown
}

// NewRenderer parses the card template.
func NewRenderer() *Renderer {
	return &Renderer{
		tmpl: template.Must(template.New("card").Parse(cardTemplate)),
		md: goldmark.New(
			goldmark.WithExtensions(extension.Linkify, extension.Strikethrough),
		),
	}
}

// Card writes one card.
func (r *Renderer) Card(w io.Writer, l listing.Listing) error {
	desc, err := r.Markdown(l.Description)
	if err != nil {
		return fmt.Errorf("rendering description of %s: %w", l.ID, err)
	}
	data := cardData{
		ElementID:   ElementID(l.ID),
		DetailPath:  DetailPath(l.ID),
		Name:        l.Name,
		Lat:         listing.FormatCoord(l.Latitude),
		Lon:         listing.FormatCoord(l.Longitude),
		ImageURL:    l.ImageURL,
		WebsiteURL:  l.WebsiteURL,
		Description: desc,
	}
	if err := r.tmpl.Execute(w, data); err != nil {
		return fmt.Errorf("rendering card %s: %w", l.ID, err)
	}
	return nil
}

// Cards writes the cards for items back to back. No items, no output.
func (r *Renderer) Cards(w io.Writer, items []listing.Listing) error {
	for _, l := range items {
		if err := r.Card(w, l); err != nil {
			return err
		}
	}
	return nil
}

// HTML renders items into a template-safe fragment.
func (r *Renderer) HTML(items []listing.Listing) (template.HTML, error) {
	var buf bytes.Buffer
	if err := r.Cards(&buf, items); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

// Markdown converts a description to HTML. Empty input yields empty output.
func (r *Renderer) Markdown(src string) (template.HTML, error) {
	if src == "" {
		return "", nil
	}
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}
