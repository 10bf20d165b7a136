package verify

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

// Selectors the browser check reads.
const (
	cardSelector   = "#directory-results .card"
	markerSelector = ".leaflet-marker-icon"
	inputSelector  = "#search-input"
	submitSelector = `.search-form button[type="submit"]`
)

// BrowserOptions control the headless Chrome session.
type BrowserOptions struct {
	Headless bool
	Timeout  time.Duration // whole session, default 30s
	Settle   time.Duration // wait after a search for the swap, default 1s
}

// BrowserReport counts what a visitor would see.
type BrowserReport struct {
	// MapReady is false when Leaflet or htmx did not load, for example
	// without network access to their CDN.
	MapReady bool
	Cards    int
	Markers  int
	// After submitting the query; zero when no query was given.
	SearchCards   int
	SearchMarkers int
}

// newAllocator creates a Chrome exec allocator context.
func newAllocator(parent context.Context, opts BrowserOptions) (context.Context, context.CancelFunc) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.WindowSize(1280, 900),
	)
	return chromedp.NewExecAllocator(parent, allocOpts...)
}

// Browser loads pageURL in headless Chrome and counts the cards and the map
// markers. With a non-empty q it then runs a search through the page's form
// and counts again, which exercises the swap handling end to end.
func Browser(ctx context.Context, pageURL, q string, opts BrowserOptions) (*BrowserReport, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Settle <= 0 {
		opts.Settle = time.Second
	}

	allocCtx, cancelAlloc := newAllocator(ctx, opts)
	defer cancelAlloc()
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()
	browserCtx, cancel := context.WithTimeout(browserCtx, opts.Timeout)
	defer cancel()

	var rep BrowserReport
	if err := chromedp.Run(browserCtx,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("#directory-results", chromedp.ByQuery),
		chromedp.Sleep(opts.Settle),
		chromedp.Evaluate(`typeof L !== 'undefined' && typeof htmx !== 'undefined'`, &rep.MapReady),
		count(cardSelector, &rep.Cards),
		count(markerSelector, &rep.Markers),
	); err != nil {
		return nil, fmt.Errorf("loading %s: %w", pageURL, err)
	}

	if q == "" || !rep.MapReady {
		return &rep, nil
	}
	if err := chromedp.Run(browserCtx,
		chromedp.SetValue(inputSelector, q, chromedp.ByQuery),
		chromedp.Click(submitSelector, chromedp.ByQuery),
		chromedp.Sleep(opts.Settle),
		count(cardSelector, &rep.SearchCards),
		count(markerSelector, &rep.SearchMarkers),
	); err != nil {
		return nil, fmt.Errorf("searching for %q: %w", q, err)
	}
	return &rep, nil
}

func count(selector string, n *int) chromedp.Action {
	return chromedp.Evaluate(fmt.Sprintf(`document.querySelectorAll(%q).length`, selector), n)
}
