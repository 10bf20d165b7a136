package site

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/ziadkadry99/dirsite/internal/walker"
)

// page is one Markdown file from the source directory.
type page struct {
	src   walker.File
	title string
	url   string // "/about/"
	out   string // "about/index.html"
	html  template.HTML
}

func newPageMarkdown() goldmark.Markdown {
	return goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			highlighting.NewHighlighting(
				highlighting.WithStyle("github"),
			),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		// Pages are written by the site owner.
		goldmark.WithRendererOptions(
			html.WithUnsafe(),
		),
	)
}

// collectPages renders every Markdown source that is not a passthrough
// file. The root index.md is returned separately as the home page intro.
func (g *Generator) collectPages(sources, passthrough []walker.File) ([]page, template.HTML, error) {
	copied := make(map[string]bool, len(passthrough))
	for _, f := range passthrough {
		copied[f.RelPath] = true
	}

	var (
		pages []page
		intro template.HTML
	)
	for _, f := range sources {
		if f.Kind != walker.KindPage || copied[f.RelPath] {
			continue
		}
		content, err := os.ReadFile(f.Path)
		if err != nil {
			return nil, "", err
		}
		var buf bytes.Buffer
		if err := g.md.Convert(content, &buf); err != nil {
			return nil, "", fmt.Errorf("converting %s: %w", f.RelPath, err)
		}
		rendered := template.HTML(rewriteMDLinks(buf.String()))

		if f.RelPath == "index.md" {
			intro = rendered
			continue
		}
		url, out := pageURL(f.RelPath)
		pages = append(pages, page{
			src:   f,
			title: extractTitle(string(content), f.RelPath),
			url:   url,
			out:   out,
			html:  rendered,
		})
	}
	return pages, intro, nil
}

// pageURL maps a Markdown path to its pretty URL and output file:
// about.md -> /about/ and about/index.html, guides/index.md -> /guides/.
func pageURL(relPath string) (url, out string) {
	stem := strings.TrimSuffix(relPath, path.Ext(relPath))
	stem = strings.TrimSuffix(stem, "/index")
	if stem == "index" {
		stem = ""
	}
	if stem == "" {
		return "/", "index.html"
	}
	return "/" + stem + "/", stem + "/index.html"
}

// extractTitle pulls the first # heading from markdown content, or falls back to the filename.
func extractTitle(content, relPath string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			return strings.TrimPrefix(line, "# ")
		}
	}
	base := path.Base(relPath)
	return strings.TrimSuffix(base, path.Ext(base))
}

var mdLinkRe = regexp.MustCompile(`href="(/[^"#?]*?)(?:/index)?\.md([#?][^"]*)?"`)

// rewriteMDLinks points root-relative links at other Markdown pages to
// their pretty URLs: /guides/coffee.md -> /guides/coffee/.
func rewriteMDLinks(content string) string {
	return mdLinkRe.ReplaceAllStringFunc(content, func(m string) string {
		sub := mdLinkRe.FindStringSubmatch(m)
		return `href="` + strings.TrimSuffix(sub[1], "/") + `/` + sub[2] + `"`
	})
}
