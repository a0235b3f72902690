package content

import (
	"errors"
	"fmt"
	"html/template"
	"io"
	"strings"
)

// ErrNoHits is returned when a search matched nothing.
var ErrNoHits = errors.New("no content matched")

const ogImageParams = "?width=1200&format=pjpg&optimize=medium"

// Site carries page-level settings not present on a hit.
type Site struct {
	Name        string
	TwitterSite string
}

type pageAuthor struct {
	Name string
	URL  string
	Role string
}

type pageImage struct {
	URL string
	Alt string
}

type pageData struct {
	Title       string
	Canonical   string
	Description string
	Type        string
	Created     string
	Tags        []string
	Image       *pageImage
	Authors     []pageAuthor
	SiteName    string
	TwitterSite string
	Headline    string
	Standfirst  string
	Content     template.HTML
}

var pageTemplate = template.Must(template.New("article").Parse(`<!DOCTYPE html>
<html>
  <head>
    <title>{{.Title}}</title>
    <link rel="canonical" href="{{.Canonical}}">
    <meta name="description" content="{{.Description}}">
    <meta property="og:title" content="{{.Title}}">
    <meta property="og:description" content="{{.Description}}">
    <meta property="og:url" content="{{.Canonical}}">
{{- with .Image}}
    <meta property="og:image" content="{{.URL}}">
    <meta property="og:image:secure_url" content="{{.URL}}">
    <meta property="og:image:alt" content="{{.Alt}}">
    <meta name="twitter:image" content="{{.URL}}">
{{- end}}
{{- range .Tags}}
    <meta property="article:tag" content="{{.}}">
{{- end}}
    <meta name="twitter:card" content="summary_large_image">
    <meta name="twitter:title" content="{{.Title}}">
    <meta name="twitter:description" content="{{.Description}}">
{{- range .Authors}}
    <meta property="author" content="{{.Name}}">
{{- end}}
    <meta name="publication-date" content="{{.Created}}">
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <meta property="og:type" content="{{.Type}}">
    <meta property="og:site_name" content="{{.SiteName}}">
{{- if .TwitterSite}}
    <meta name="twitter:site" content="{{.TwitterSite}}">
    <meta name="twitter:creator" content="{{.TwitterSite}}">
{{- end}}
    <meta name="serp-content-type" content="{{.Type}}">
    <script src="/scripts/scripts.js" type="module"></script>
    <link rel="stylesheet" href="/styles/styles.css">
    <link rel="icon" href="data:,">
  </head>
  <body>
    <header></header>
    <main>
      <div>
        <h1>{{.Headline}}</h1>
{{- if .Standfirst}}
        <p>{{.Standfirst}}</p>
{{- end}}
        <div class="authors">
{{- range .Authors}}
          <div>
            <div><a href="{{.URL}}">{{.Name}}</a></div>
            <div>{{.Role}}</div>
          </div>
{{- end}}
        </div>
        {{.Content}}
      </div>
    </main>
    <footer></footer>
  </body>
</html>
`))

// PageRenderer renders a complete article document from a search hit.
type PageRenderer struct {
	transformer *Transformer
	site        Site
}

// NewPageRenderer creates a PageRenderer.
func NewPageRenderer(t *Transformer, site Site) *PageRenderer {
	return &PageRenderer{transformer: t, site: site}
}

// Render writes the article page for the first hit of res.
func (r *PageRenderer) Render(w io.Writer, res *SearchResult) error {
	if res == nil || len(res.Hits) == 0 {
		return ErrNoHits
	}
	hit := res.Hits[0]

	data := pageData{
		Title:       hit.Content.Headline,
		Canonical:   hit.Metadata.Extension("url"),
		Description: firstNonEmpty(hit.Content.Standfirst, hit.Content.Headline),
		Type:        hit.Metadata.Type,
		Created:     hit.Metadata.CreatedDate,
		Image:       ogImage(hit.Content.Body),
		SiteName:    r.site.Name,
		TwitterSite: firstNonEmpty(hit.Metadata.Extension("twitterSite"), r.site.TwitterSite),
		Headline:    hit.Content.Headline,
		Standfirst:  strings.TrimSpace(hit.Content.Standfirst),
		//nolint:gosec // body nodes carry upstream-rendered markup
		Content: template.HTML(r.transformer.TransformBody(hit.Content.Body)),
	}

	seen := make(map[string]bool, len(hit.Metadata.Annotations))
	for _, a := range hit.Metadata.Annotations {
		if a.Name != "" && !seen[a.Name] {
			seen[a.Name] = true
			data.Tags = append(data.Tags, a.Name)
		}
	}
	for _, a := range hit.Content.Authors {
		data.Authors = append(data.Authors, pageAuthor{Name: a.Name, URL: a.URL, Role: a.Role})
	}

	if err := pageTemplate.Execute(w, data); err != nil {
		return fmt.Errorf("render article page: %w", err)
	}
	return nil
}

// ogImage picks the first image or video node as the social preview.
func ogImage(nodes []Node) *pageImage {
	for _, n := range nodes {
		switch n.Type {
		case TypeImage:
			if n.Data == "" {
				continue
			}
			return &pageImage{URL: n.Data + ogImageParams, Alt: n.AltText}
		case TypeVideo:
			if n.Data == "" {
				continue
			}
			return &pageImage{URL: "https://img.youtube.com/vi/" + n.Data + "/maxresdefault.jpg" + ogImageParams, Alt: n.AltText}
		}
	}
	return nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
