package homepage

import (
	"strings"

	nethtml "golang.org/x/net/html"
)

// ListKind classifies an ArticleList.
type ListKind string

const (
	ListHeader   ListKind = "header"
	ListList     ListKind = "list"
	ListOpinions ListKind = "opinions"
	ListPackage  ListKind = "package"
)

const packageHeadingPrefix = "package__heading "

var packageVariants = []string{"small", "medium", "large"}

// ArticleList groups the teasers of one homepage section.
type ArticleList struct {
	Kind     ListKind
	Variant  string
	Heading  string
	Articles []*Article

	capture FieldCapture
}

var _ Capturable = (*ArticleList)(nil)

// NewArticleList creates an empty list of the given kind.
func NewArticleList(kind ListKind) *ArticleList {
	return &ArticleList{Kind: kind}
}

// ClassifyList builds a list from a container's class attribute.
func ClassifyList(class string) *ArticleList {
	if !strings.Contains(class, "package") {
		return NewArticleList(ListList)
	}

	l := NewArticleList(ListPackage)
	for _, v := range packageVariants {
		if strings.Contains(class, "package--"+v) {
			l.Variant = v
			break
		}
	}
	return l
}

// Capture implements Capturable.
func (l *ArticleList) Capture() *FieldCapture {
	return &l.capture
}

// AppendText implements Capturable.
func (l *ArticleList) AppendText(field Field, text string) {
	if field == FieldHeading {
		appendText(&l.Heading, text)
	}
}

// ProcessElement inspects an element inside the list container.
func (l *ArticleList) ProcessElement(n *nethtml.Node) (Revert, bool) {
	if strings.HasPrefix(attr(n, "class"), packageHeadingPrefix) {
		return l.capture.Declare(FieldHeading, FieldNone), true
	}
	return Revert{}, false
}

// Append adds a finished article.
func (l *ArticleList) Append(a *Article) {
	l.Articles = append(l.Articles, a)
}

// Render serializes the list and its articles.
func (l *ArticleList) Render() string {
	var b strings.Builder
	heading := strings.TrimSpace(l.Heading)

	switch l.Kind {
	case ListHeader:
		b.WriteString("<div>\n  <div class=\"header-articles\">\n")
		for _, a := range l.Articles {
			b.WriteString(a.Render(true))
		}
		b.WriteString("  </div>\n</div>\n")
	case ListPackage:
		class := "package"
		if l.Variant != "" {
			class += " " + l.Variant
		}
		b.WriteString("<div>\n  <div class=\"" + class + "\">\n")
		b.WriteString("    <div><div><h3>" + heading + "</h3></div></div>\n")
		for _, a := range l.Articles {
			b.WriteString(a.Render(true))
		}
		b.WriteString("  </div>\n</div>\n")
	default:
		b.WriteString("<div>\n  <h3>" + heading + "</h3>\n")
		for _, a := range l.Articles {
			b.WriteString(a.Render(false))
		}
		b.WriteString("  <div class=\"section-metadata\">\n    <div>\n      <div>style</div>\n")
		b.WriteString("      <div>" + string(l.Kind) + "</div>\n    </div>\n  </div>\n")
		b.WriteString("</div>\n")
	}
	return b.String()
}
