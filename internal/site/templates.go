package site

// siteTemplates holds every page template. Each page body is rendered
// first and then wrapped in "layout".
const siteTemplates = `
{{define "layout" -}}
<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>{{if .Title}}{{.Title}} | {{end}}{{.SiteName}}</title>
  <link rel="stylesheet" href="/assets/site.css?v={{.BuildID}}">
{{- if .Map}}
  <link rel="stylesheet" href="https://unpkg.com/leaflet@1.9.4/dist/leaflet.css" crossorigin="">
{{- end}}
{{- range .Stylesheets}}
  <link rel="stylesheet" href="{{.}}">
{{- end}}
</head>
<body>
  <header class="site-header">
    <a href="/" class="site-name">{{.SiteName}}</a>
{{- if .Nav}}
    <nav class="site-nav">
{{- range .Nav}}
      <a href="{{.URL}}"{{if eq .URL $.URL}} aria-current="page"{{end}}>{{.Title}}</a>
{{- end}}
    </nav>
{{- end}}
  </header>
  <main class="content">
{{.Content}}
  </main>
{{- if .Map}}
  <script src="https://unpkg.com/leaflet@1.9.4/dist/leaflet.js" crossorigin=""></script>
  <script src="https://unpkg.com/htmx.org@1.9.12"></script>
  <script src="/assets/map.js?v={{.BuildID}}"></script>
{{- end}}
{{- if .LiveReload}}
  <script>
    (function () {
      var proto = location.protocol === 'https:' ? 'wss://' : 'ws://';
      var ws = new WebSocket(proto + location.host + '/livereload');
      ws.onmessage = function () { location.reload(); };
    })();
  </script>
{{- end}}
</body>
</html>
{{end}}

{{define "map" -}}
<div id="map" class="map"
{{- if .HasCenter}} data-center-lat="{{.CenterLat}}" data-center-lon="{{.CenterLon}}"{{end}}
  data-zoom="{{.Zoom}}" data-focus-zoom="{{.FocusZoom}}"
  data-tiles="{{.Tiles}}" data-attribution="{{.Attribution}}"></div>
<script type="application/json" id="directory-data">{{.Items}}</script>
{{- end}}

{{define "index" -}}
{{- if .Intro}}
<section class="intro">
{{.Intro}}
</section>
{{- end}}
<section class="search">
  <form class="search-form" hx-post="{{.SearchURL}}" hx-target="#directory-results" hx-swap="innerHTML"
        hx-trigger="submit, keyup changed delay:300ms from:#search-input">
    <input type="search" id="search-input" name="q" placeholder="Search by name" autocomplete="off" aria-label="Search listings">
    <button type="submit" class="btn">Search</button>
  </form>
</section>
<div class="directory">
  <div id="directory-results" class="results">
{{.Cards}}
  </div>
  {{template "map" .Map}}
</div>
{{- end}}

{{define "item" -}}
<p class="breadcrumb"><a href="/">&larr; All listings</a></p>
<article class="listing-detail">
  <h1>{{.Listing.Name}}</h1>
{{- if .Listing.ImageURL}}
  <img src="{{.Listing.ImageURL}}" alt="{{.Listing.Name}}" class="listing-image">
{{- end}}
{{- if .Description}}
  <div class="listing-description">{{.Description}}</div>
{{- end}}
{{- if .Listing.WebsiteURL}}
  <p><a href="{{.Listing.WebsiteURL}}" target="_blank" rel="noopener noreferrer" class="btn">Visit Website</a></p>
{{- end}}
</article>
{{- if .Map}}
{{template "map" .Map}}
{{- end}}
{{- end}}

{{define "page" -}}
<article class="page-content">
{{.Body}}
</article>
{{- end}}
`
