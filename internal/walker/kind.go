package walker

import (
	"mime"
	"path/filepath"
	"strings"
)

// Kind classifies a site file by what the generator does with it.
type Kind int

const (
	// KindAsset files are copied verbatim.
	KindAsset Kind = iota
	// KindPage files are Markdown rendered through the site layout.
	KindPage
)

func (k Kind) String() string {
	if k == KindPage {
		return "page"
	}
	return "asset"
}

// DetectKind returns the kind for a filename based on its extension.
func DetectKind(name string) Kind {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".md", ".markdown":
		return KindPage
	}
	return KindAsset
}

// contentTypes pins the types that matter for a static site, since the
// system MIME table differs between machines.
var contentTypes = map[string]string{
	".html":        "text/html; charset=utf-8",
	".css":         "text/css; charset=utf-8",
	".js":          "text/javascript; charset=utf-8",
	".mjs":         "text/javascript; charset=utf-8",
	".json":        "application/json",
	".xml":         "application/xml",
	".txt":         "text/plain; charset=utf-8",
	".svg":         "image/svg+xml",
	".png":         "image/png",
	".jpg":         "image/jpeg",
	".jpeg":        "image/jpeg",
	".gif":         "image/gif",
	".webp":        "image/webp",
	".avif":        "image/avif",
	".ico":         "image/x-icon",
	".woff":        "font/woff",
	".woff2":       "font/woff2",
	".webmanifest": "application/manifest+json",
}

// ContentType returns the Content-Type to serve a file with.
func ContentType(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ct, ok := contentTypes[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
