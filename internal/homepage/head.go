package homepage

import (
	"html/template"
	"io"
)

// HeadOptions carries the site identity rendered into the replacement head.
type HeadOptions struct {
	Title       string
	Description string
	SiteName    string
	OGTitle     string
	TwitterSite string
}

// DefaultHeadOptions returns the Telegraph homepage identity.
func DefaultHeadOptions() HeadOptions {
	return HeadOptions{
		Title:       "The Telegraph - Telegraph Online, Daily Telegraph, Sunday Telegraph - Telegraph",
		Description: "Latest news, business, sport, comment, lifestyle and culture from the Daily Telegraph and Sunday Telegraph newspapers and video from Telegraph TV.",
		SiteName:    "The Telegraph",
		OGTitle:     "Telegraph",
		TwitterSite: "@Telegraph",
	}
}

func (o HeadOptions) withDefaults() HeadOptions {
	d := DefaultHeadOptions()
	if o.Title == "" {
		o.Title = d.Title
	}
	if o.Description == "" {
		o.Description = d.Description
	}
	if o.SiteName == "" {
		o.SiteName = d.SiteName
	}
	if o.OGTitle == "" {
		o.OGTitle = d.OGTitle
	}
	if o.TwitterSite == "" {
		o.TwitterSite = d.TwitterSite
	}
	return o
}

type headData struct {
	HeadOptions
	Origin string
}

var headTemplate = template.Must(template.New("head").Parse(`<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1, user-scalable=yes">
  <title>{{.Title}}</title>
  <link rel="preload" as="font" crossorigin="crossorigin" type="font/woff2" href="/fonts/austin-news-uprights-vf-basic-web.woff2">
  <link rel="shortcut icon" type="image/x-icon" sizes="16x16" href="/icons/favicon.ico">
  <link rel="icon" type="image/svg+xml" href="/icons/favicon.svg">
  <link rel="icon" sizes="196x196" href="/icons/favicon-196x196.png">
  <link rel="apple-touch-icon" sizes="180x180" href="/icons/apple-touch-icon-180x180.png">
  <link rel="mask-icon" href="/icons/favicon.svg" color="#333333">
  <meta name="msapplication-TileColor" content="#2c769d">
  <meta name="msapplication-TileImage" content="/icons/mstile-144x144.png">
  <link rel="canonical" href="{{.Origin}}">
  <meta name="description" content="{{.Description}}">
  <meta property="og:title" content="{{.OGTitle}}">
  <meta property="og:description" content="{{.Description}}">
  <meta property="og:type" content="homepage">
  <meta property="og:site_name" content="{{.SiteName}}">
  <meta property="og:url" content="{{.Origin}}">
  <meta property="og:image">
  <meta name="twitter:title" content="{{.TwitterSite}}">
  <meta name="twitter:url" content="{{.Origin}}">
  <meta name="twitter:image">
  <meta name="twitter:site" content="{{.TwitterSite}}">
  <meta name="twitter:description" content="{{.Description}}">
  <meta name="twitter:card" content="summary_large_image">
  <script src="/scripts/scripts.js" type="module"></script>
  <link rel="stylesheet" href="/styles/styles.css">
</head>
`))

func writeHead(w io.Writer, opts HeadOptions, origin string) error {
	return headTemplate.Execute(w, headData{HeadOptions: opts, Origin: origin})
}
