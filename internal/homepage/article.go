package homepage

import (
	"html"
	"strings"

	nethtml "golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/isabella232/tmg-ucm/infrastructure/logger"
)

const (
	schemaPerson = "https://schema.org/Person"
	schemaRating = "https://schema.org/Rating"
)

// Author of a homepage teaser.
type Author struct {
	Name     string
	URL      string
	ImageURL string
}

// Meta holds teaser flags.
type Meta struct {
	IsLive bool
	Rating string
	// IsQuote is never set from markup; the homepage gives no reliable marker.
	IsQuote bool
}

// Article is one teaser extracted from the homepage.
type Article struct {
	Kind       string
	URL        string
	Standfirst string
	ImageURL   string
	Kicker     string
	Author     Author
	Meta       Meta

	headline string
	capture  FieldCapture
}

var _ Capturable = (*Article)(nil)

// NewArticle creates an empty Article.
func NewArticle(kind string) *Article {
	return &Article{Kind: kind}
}

// Capture implements Capturable.
func (a *Article) Capture() *FieldCapture {
	return &a.capture
}

// AppendText implements Capturable.
func (a *Article) AppendText(field Field, text string) {
	switch field {
	case FieldHeadline:
		appendText(&a.headline, text)
	case FieldStandfirst:
		appendText(&a.Standfirst, text)
	case FieldKicker:
		appendText(&a.Kicker, text)
	case FieldAuthorName:
		appendText(&a.Author.Name, text)
	case FieldRating:
		appendText(&a.Meta.Rating, text)
	}
}

// Headline returns the captured headline. For live articles a leading
// "live" marker (any case) is removed.
func (a *Article) Headline() string {
	h := a.headline
	if a.Meta.IsLive && len(h) >= 4 && strings.EqualFold(h[:4], "live") {
		return h[4:]
	}
	return h
}

// ProcessElement inspects an element nested in the article. When the element
// starts a text field it returns the Revert to run on its close.
func (a *Article) ProcessElement(n *nethtml.Node, log logger.Logger) (Revert, bool) {
	class := attr(n, "class")

	switch {
	case strings.HasPrefix(class, "e-utility__title"), strings.HasPrefix(class, "list-headline__text"):
		return a.capture.Declare(FieldHeadline, FieldNone), true
	case strings.HasPrefix(class, "e-kicker"):
		return a.capture.Declare(FieldKicker, FieldHeadline), true
	case n.DataAtom == atom.Img && strings.Contains(class, "author-image"):
		a.Author.ImageURL = attr(n, "src")
	case n.DataAtom == atom.Img:
		if src := attr(n, "src"); src != "" {
			a.ImageURL = src
		}
	case isHeadingTag(n.Data):
		return a.capture.Declare(FieldHeadline, FieldNone), true
	case n.DataAtom == atom.P:
		return a.capture.Declare(FieldStandfirst, FieldNone), true
	case n.DataAtom == atom.A:
		if attr(n, "rel") == "author" {
			a.Author.URL = attr(n, "href")
		} else {
			a.URL = attr(n, "href")
		}
	case n.DataAtom == atom.Span:
		itemtype := attr(n, "itemtype")
		switch {
		case strings.Contains(class, "label-live"):
			a.Meta.IsLive = true
		case itemtype == schemaPerson:
			return a.capture.Declare(FieldAuthorName, FieldNone), true
		case itemtype != "":
			log.Warn("Unhandled schema on span", logger.String("itemtype", itemtype), logger.String("class", class))
		}
	case n.DataAtom == atom.Div:
		itemtype := attr(n, "itemtype")
		switch {
		case itemtype == schemaRating:
			return a.capture.Declare(FieldRating, FieldNone), true
		case itemtype != "":
			log.Warn("Unhandled schema on div", logger.String("itemtype", itemtype), logger.String("class", class))
		}
	}
	return Revert{}, false
}

// Render serializes the article as a full block, or as a compact row when row is set.
func (a *Article) Render(row bool) string {
	var b strings.Builder
	if row {
		a.renderRow(&b)
	} else {
		a.renderBlock(&b)
	}
	return b.String()
}

func (a *Article) renderRow(b *strings.Builder) {
	b.WriteString("<div>\n  <div>\n")
	b.WriteString(`    <h4><a href="` + html.EscapeString(a.URL) + `">` + strings.TrimSpace(a.Headline()) + "</a></h4>\n")
	b.WriteString("    <p>" + strings.TrimSpace(a.Standfirst) + "</p>\n  </div>\n")
	if a.ImageURL != "" {
		b.WriteString("  <div>\n")
		writePicture(b, a.ImageURL, "    ")
		b.WriteString("  </div>\n")
	}
	b.WriteString("</div>\n")
}

func (a *Article) renderBlock(b *strings.Builder) {
	b.WriteString("<div class=\"article\">\n")
	if a.ImageURL != "" {
		b.WriteString("  <div>\n    <div>\n")
		writePicture(b, a.ImageURL, "      ")
		b.WriteString("    </div>\n  </div>\n")
	}

	b.WriteString("  <div>\n    <div>\n")
	b.WriteString(`      <h3><a href="` + html.EscapeString(a.URL) + `">` + strings.TrimSpace(a.Headline()) + "</a></h3>\n")
	b.WriteString("      <p>" + strings.TrimSpace(a.Standfirst) + "</p>\n")
	b.WriteString("    </div>\n  </div>\n")

	if a.Author.Name != "" || a.Author.ImageURL != "" {
		b.WriteString("  <div>\n    <div>\n")
		if a.Author.Name != "" {
			b.WriteString(`      <a href="` + html.EscapeString(a.Author.URL) + `">` + strings.TrimSpace(a.Author.Name) + "</a>\n")
		}
		if a.Author.ImageURL != "" {
			writePicture(b, a.Author.ImageURL, "      ")
		}
		b.WriteString("    </div>\n  </div>\n")
	}

	if kicker := strings.TrimSpace(a.Kicker); kicker != "" {
		b.WriteString("  <div>\n    <div>kicker</div>\n    <div>" + kicker + "</div>\n  </div>\n")
	}
	b.WriteString("</div>\n")
}

func writePicture(b *strings.Builder, src, indent string) {
	src = html.EscapeString(src)
	b.WriteString(indent + "<picture>\n")
	b.WriteString(indent + `  <source media="(max-width: 400px)" srcset="` + src + "\">\n")
	b.WriteString(indent + `  <img src="` + src + "\" alt=\"\" loading=\"lazy\">\n")
	b.WriteString(indent + "</picture>\n")
}

func isHeadingTag(tag string) bool {
	return len(tag) == 2 && tag[0] == 'h' && tag[1] >= '1' && tag[1] <= '6'
}

func attr(n *nethtml.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
