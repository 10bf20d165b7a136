package mapview

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/ziadkadry99/dirsite/internal/card"
)

// ParseCards reads the items back out of rendered cards: the id from the
// element id, coordinates from data-lat/data-lon, the name from the h3.
// It is the server-side twin of the map script's DOM fallback and reports
// any card that breaks that contract.
func ParseCards(r io.Reader) ([]Item, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing fragment: %w", err)
	}

	items := []Item{}
	var walkErr error
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if walkErr != nil {
			return
		}
		if n.Type == html.ElementNode && hasClass(n, "card") {
			it, err := parseCard(n)
			if err != nil {
				walkErr = fmt.Errorf("card %d: %w", len(items)+1, err)
				return
			}
			items = append(items, it)
			// Cards do not nest.
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if walkErr != nil {
		return nil, walkErr
	}
	return items, nil
}

func parseCard(n *html.Node) (Item, error) {
	var it Item

	id, ok := attr(n, "id")
	if !ok || !strings.HasPrefix(id, card.IDPrefix) || len(id) == len(card.IDPrefix) {
		return it, fmt.Errorf("element id %q does not start with %q", id, card.IDPrefix)
	}
	it.ID = strings.TrimPrefix(id, card.IDPrefix)

	var err error
	if it.Latitude, err = coordAttr(n, "data-lat"); err != nil {
		return it, fmt.Errorf("%s: %w", id, err)
	}
	if it.Longitude, err = coordAttr(n, "data-lon"); err != nil {
		return it, fmt.Errorf("%s: %w", id, err)
	}

	h := find(n, atom.H3)
	if h == nil {
		return it, fmt.Errorf("%s: no h3 heading", id)
	}
	it.Name = strings.TrimSpace(text(h))
	return it, nil
}

// coordAttr reads an optional coordinate. The attribute must exist; an
// empty value means the coordinate is absent.
func coordAttr(n *html.Node, key string) (*float64, error) {
	v, ok := attr(n, key)
	if !ok {
		return nil, fmt.Errorf("missing %s attribute", key)
	}
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil, fmt.Errorf("%s=%q is not a number", key, v)
	}
	return &f, nil
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func hasClass(n *html.Node, class string) bool {
	v, _ := attr(n, "class")
	for _, c := range strings.Fields(v) {
		if c == class {
			return true
		}
	}
	return false
}

func find(n *html.Node, a atom.Atom) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == a {
			return c
		}
		if found := find(c, a); found != nil {
			return found
		}
	}
	return nil
}

func text(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
