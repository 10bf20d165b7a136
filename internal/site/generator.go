package site

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/yuin/goldmark"
	"go.uber.org/zap"

	"github.com/ziadkadry99/dirsite/internal/card"
	"github.com/ziadkadry99/dirsite/internal/config"
	"github.com/ziadkadry99/dirsite/internal/listing"
	"github.com/ziadkadry99/dirsite/internal/mapview"
	"github.com/ziadkadry99/dirsite/internal/progress"
	"github.com/ziadkadry99/dirsite/internal/walker"
)

//go:embed assets/map.js assets/site.css
var assets embed.FS

// Options control a build.
type Options struct {
	SiteName    string
	SourceDir   string
	OutputDir   string
	Passthrough []string
	// SearchURL is where the search form posts; a path for same-origin
	// serving or a full URL when search runs elsewhere.
	SearchURL  string
	Map        config.MapConfig
	LiveReload bool
}

// OptionsFromConfig maps the configuration onto build options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		SiteName:    cfg.SiteName,
		SourceDir:   cfg.SourceDir,
		OutputDir:   cfg.OutputDir,
		Passthrough: cfg.Passthrough,
		SearchURL:   cfg.Server.SearchPath,
		Map:         cfg.Map,
	}
}

// Result summarises a build.
type Result struct {
	BuildID  string
	Pages    int // HTML pages written
	Listings int
	Assets   int // passthrough files copied
}

// Generator renders the directory site: the index with every card and the
// map, a detail page per listing, Markdown pages from the source directory,
// a listings.json data file and the passthrough assets.
type Generator struct {
	opts     Options
	tmpl     *template.Template
	cards    *card.Renderer
	md       goldmark.Markdown
	reporter progress.Reporter
	logger   *zap.Logger
}

// NewGenerator creates a Generator. A nil reporter reports nothing.
func NewGenerator(opts Options, reporter progress.Reporter, logger *zap.Logger) *Generator {
	if reporter == nil {
		reporter = progress.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{
		opts:     opts,
		tmpl:     template.Must(template.New("site").Parse(siteTemplates)),
		cards:    card.NewRenderer(),
		md:       newPageMarkdown(),
		reporter: reporter,
		logger:   logger,
	}
}

// pageData holds the data passed to the layout template for each page.
type pageData struct {
	Title       string
	SiteName    string
	URL         string
	Content     template.HTML
	Nav         []navLink
	Stylesheets []string
	BuildID     string
	Map         bool
	LiveReload  bool
}

type navLink struct {
	Title string
	URL   string
}

type mapData struct {
	Items       []mapview.Item
	HasCenter   bool
	CenterLat   string
	CenterLon   string
	Zoom        int
	FocusZoom   int
	Tiles       string
	Attribution string
}

// build carries state shared by the pages of one Generate call.
type build struct {
	id          string
	nav         []navLink
	stylesheets []string
	step        int
}

// Generate writes the site for items into the output directory.
func (g *Generator) Generate(ctx context.Context, items []listing.Listing) (*Result, error) {
	if items == nil {
		items = []listing.Listing{}
	}
	sources, err := walker.Walk(walker.Config{RootDir: g.opts.SourceDir})
	if err != nil {
		return nil, fmt.Errorf("reading source dir: %w", err)
	}
	passthrough, err := walker.Walk(walker.Config{RootDir: g.opts.SourceDir, Include: g.opts.Passthrough})
	if err != nil {
		return nil, fmt.Errorf("reading passthrough files: %w", err)
	}

	pages, intro, err := g.collectPages(sources, passthrough)
	if err != nil {
		return nil, err
	}

	b := &build{id: uuid.NewString()[:8]}
	for _, p := range pages {
		b.nav = append(b.nav, navLink{Title: p.title, URL: p.url})
	}
	for _, f := range passthrough {
		if strings.HasSuffix(f.RelPath, ".css") {
			b.stylesheets = append(b.stylesheets, "/"+f.RelPath)
		}
	}

	if err := os.MkdirAll(g.opts.OutputDir, 0o755); err != nil {
		return nil, err
	}
	// Detail pages of listings that no longer exist must not survive.
	if err := os.RemoveAll(filepath.Join(g.opts.OutputDir, "items")); err != nil {
		return nil, fmt.Errorf("clearing item pages: %w", err)
	}
	if err := g.writeAssets(); err != nil {
		return nil, err
	}

	g.reporter.Start(len(items) + len(pages) + 2)
	defer g.reporter.Finish()

	if err := g.writeIndex(b, items, intro); err != nil {
		return nil, fmt.Errorf("rendering index: %w", err)
	}
	for _, l := range items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := g.writeItem(b, l); err != nil {
			return nil, fmt.Errorf("rendering listing %s: %w", l.ID, err)
		}
	}
	for _, p := range pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := g.writePage(b, p); err != nil {
			return nil, fmt.Errorf("rendering %s: %w", p.src.RelPath, err)
		}
	}

	if err := writeData(items, filepath.Join(g.opts.OutputDir, "listings.json")); err != nil {
		return nil, fmt.Errorf("writing listings.json: %w", err)
	}
	b.step++
	g.reporter.Update(b.step, "listings.json")

	copied, err := copyPassthrough(passthrough, g.opts.OutputDir)
	if err != nil {
		return nil, err
	}

	res := &Result{
		BuildID:  b.id,
		Pages:    1 + len(items) + len(pages),
		Listings: len(items),
		Assets:   copied,
	}
	g.logger.Info("site built",
		zap.String("output", g.opts.OutputDir),
		zap.String("build_id", res.BuildID),
		zap.Int("pages", res.Pages),
		zap.Int("listings", res.Listings),
		zap.Int("assets_copied", res.Assets),
	)
	return res, nil
}

func (g *Generator) writeAssets() error {
	for _, name := range []string{"assets/map.js", "assets/site.css"} {
		data, err := assets.ReadFile(name)
		if err != nil {
			return err
		}
		if err := writeFile(filepath.Join(g.opts.OutputDir, filepath.FromSlash(name)), data); err != nil {
			return fmt.Errorf("writing %s: %w", name, err)
		}
	}
	return nil
}

func (g *Generator) mapFor(items []listing.Listing) mapData {
	mv := mapview.FromListings(items)
	m := mapData{
		Items:       mv,
		Zoom:        g.opts.Map.DefaultZoom,
		FocusZoom:   g.opts.Map.FocusZoom,
		Tiles:       g.opts.Map.TileURL,
		Attribution: g.opts.Map.Attribution,
	}
	if lat, lon, ok := mapview.Center(mv); ok {
		m.HasCenter = true
		m.CenterLat = listing.FormatCoord(&lat)
		m.CenterLon = listing.FormatCoord(&lon)
	}
	return m
}

func (g *Generator) writeIndex(b *build, items []listing.Listing, intro template.HTML) error {
	cards, err := g.cards.HTML(items)
	if err != nil {
		return err
	}
	var body bytes.Buffer
	err = g.tmpl.ExecuteTemplate(&body, "index", struct {
		Intro     template.HTML
		SearchURL string
		Cards     template.HTML
		Map       mapData
	}{intro, g.opts.SearchURL, cards, g.mapFor(items)})
	if err != nil {
		return err
	}
	return g.writeHTML(b, "index.html", pageData{URL: "/", Content: template.HTML(body.String()), Map: true})
}

func (g *Generator) writeItem(b *build, l listing.Listing) error {
	id := l.ID.String()
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return fmt.Errorf("id %q cannot be used as a path segment", id)
	}
	desc, err := g.cards.Markdown(l.Description)
	if err != nil {
		return err
	}
	data := struct {
		Listing     listing.Listing
		Description template.HTML
		Map         *mapData
	}{Listing: l, Description: desc}
	if l.Mappable() {
		m := g.mapFor([]listing.Listing{l})
		data.Map = &m
	}

	var body bytes.Buffer
	if err := g.tmpl.ExecuteTemplate(&body, "item", data); err != nil {
		return err
	}
	url := card.DetailPath(l.ID)
	rel := path.Join("items", id, "index.html")
	return g.writeHTML(b, rel, pageData{
		Title:   l.Name,
		URL:     url,
		Content: template.HTML(body.String()),
		Map:     data.Map != nil,
	})
}

func (g *Generator) writePage(b *build, p page) error {
	var body bytes.Buffer
	if err := g.tmpl.ExecuteTemplate(&body, "page", struct{ Body template.HTML }{p.html}); err != nil {
		return err
	}
	return g.writeHTML(b, p.out, pageData{Title: p.title, URL: p.url, Content: template.HTML(body.String())})
}

// writeHTML wraps a rendered body in the layout and writes it to rel under
// the output directory.
func (g *Generator) writeHTML(b *build, rel string, data pageData) error {
	if rel != path.Clean(rel) || strings.HasPrefix(rel, "../") || strings.Contains(rel, "/../") {
		return fmt.Errorf("refusing to write outside the output directory: %s", rel)
	}
	data.SiteName = g.opts.SiteName
	data.Nav = b.nav
	data.Stylesheets = b.stylesheets
	data.BuildID = b.id
	data.LiveReload = g.opts.LiveReload

	var out bytes.Buffer
	if err := g.tmpl.ExecuteTemplate(&out, "layout", data); err != nil {
		return err
	}
	if err := writeFile(filepath.Join(g.opts.OutputDir, filepath.FromSlash(rel)), out.Bytes()); err != nil {
		return err
	}
	b.step++
	g.reporter.Update(b.step, rel)
	return nil
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
