package homepage_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/isabella232/tmg-ucm/infrastructure/logger"
	"github.com/isabella232/tmg-ucm/internal/homepage"
)

func element(a atom.Atom, attrs ...string) *html.Node {
	n := &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
	for i := 0; i+1 < len(attrs); i += 2 {
		n.Attr = append(n.Attr, html.Attribute{Key: attrs[i], Val: attrs[i+1]})
	}
	return n
}

func TestArticle_Headline(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		live bool
		raw  string
		want string
	}{
		{name: "live prefix stripped", live: true, raw: "LIVE: Match updates", want: ": Match updates"},
		{name: "live lowercase", live: true, raw: "live blog", want: " blog"},
		{name: "not live keeps prefix", live: false, raw: "LIVE: Match updates", want: "LIVE: Match updates"},
		{name: "live without prefix", live: true, raw: "Match updates", want: "Match updates"},
		{name: "short headline", live: true, raw: "Li", want: "Li"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			a := homepage.NewArticle("")
			a.Meta.IsLive = tt.live
			a.AppendText(homepage.FieldHeadline, tt.raw)
			assert.Equal(t, tt.want, a.Headline())
		})
	}
}

func TestArticle_AppendTextTrimsLeadingWhitespace(t *testing.T) {
	t.Parallel()

	a := homepage.NewArticle("")
	a.AppendText(homepage.FieldStandfirst, "\n  Hello")
	a.AppendText(homepage.FieldStandfirst, " world")
	assert.Equal(t, "Hello world", a.Standfirst)
}

func TestArticle_KickerRevertsToHeadline(t *testing.T) {
	t.Parallel()

	a := homepage.NewArticle("")
	log := logger.NewNop()

	headlineRevert, ok := a.ProcessElement(element(atom.H3, "class", "e-utility__title"), log)
	require.True(t, ok)
	assert.Equal(t, homepage.FieldHeadline, a.Capture().Active())

	kickerRevert, ok := a.ProcessElement(element(atom.Span, "class", "e-kicker e-kicker--red"), log)
	require.True(t, ok)
	assert.Equal(t, homepage.FieldKicker, a.Capture().Active())

	kickerRevert.Apply()
	assert.Equal(t, homepage.FieldHeadline, a.Capture().Active())

	headlineRevert.Apply()
	assert.Equal(t, homepage.FieldNone, a.Capture().Active())
}

func TestArticle_ProcessElementAttributes(t *testing.T) {
	t.Parallel()

	a := homepage.NewArticle("")
	log := logger.NewNop()

	_, ok := a.ProcessElement(element(atom.Img, "class", "e-author-image", "src", "/author.jpg"), log)
	assert.False(t, ok)
	_, _ = a.ProcessElement(element(atom.Img, "src", "/lead.jpg"), log)
	_, _ = a.ProcessElement(element(atom.Img, "alt", "no source"), log)
	_, _ = a.ProcessElement(element(atom.A, "rel", "author", "href", "/authors/jane/"), log)
	_, _ = a.ProcessElement(element(atom.A, "href", "/news/story/"), log)
	_, _ = a.ProcessElement(element(atom.Span, "class", "e-label label-live"), log)

	assert.Equal(t, "/author.jpg", a.Author.ImageURL)
	assert.Equal(t, "/lead.jpg", a.ImageURL)
	assert.Equal(t, "/authors/jane/", a.Author.URL)
	assert.Equal(t, "/news/story/", a.URL)
	assert.True(t, a.Meta.IsLive)
}

func TestArticle_ProcessElementCaptures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		node *html.Node
		want homepage.Field
	}{
		{name: "list headline class", node: element(atom.Div, "class", "list-headline__text"), want: homepage.FieldHeadline},
		{name: "heading tag", node: element(atom.H2), want: homepage.FieldHeadline},
		{name: "paragraph", node: element(atom.P), want: homepage.FieldStandfirst},
		{name: "person schema", node: element(atom.Span, "itemtype", "https://schema.org/Person"), want: homepage.FieldAuthorName},
		{name: "rating schema", node: element(atom.Div, "itemtype", "https://schema.org/Rating"), want: homepage.FieldRating},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			a := homepage.NewArticle("")
			_, ok := a.ProcessElement(tt.node, logger.NewNop())
			require.True(t, ok)
			assert.Equal(t, tt.want, a.Capture().Active())
		})
	}
}

func TestArticle_UnknownSchemaIgnored(t *testing.T) {
	t.Parallel()

	a := homepage.NewArticle("")
	_, ok := a.ProcessElement(element(atom.Span, "itemtype", "https://schema.org/Thing"), logger.NewNop())
	assert.False(t, ok)
	assert.Equal(t, homepage.FieldNone, a.Capture().Active())
}

func TestArticle_RenderEscapesAttributes(t *testing.T) {
	t.Parallel()

	a := homepage.NewArticle("")
	a.URL = `/news/"quoted"/`
	a.AppendText(homepage.FieldHeadline, "Fish &amp; chips")

	out := a.Render(false)
	assert.Contains(t, out, `href="/news/&#34;quoted&#34;/"`)
	assert.Contains(t, out, "Fish &amp; chips")
	assert.NotContains(t, out, "<picture>")
}

func TestClassifyList(t *testing.T) {
	t.Parallel()

	tests := []struct {
		class   string
		kind    homepage.ListKind
		variant string
	}{
		{class: "package package--small", kind: homepage.ListPackage, variant: "small"},
		{class: "package package--large theme", kind: homepage.ListPackage, variant: "large"},
		{class: "package", kind: homepage.ListPackage},
		{class: "article-list", kind: homepage.ListList},
		{class: "opinion", kind: homepage.ListList},
		{class: "", kind: homepage.ListList},
	}

	for _, tt := range tests {
		l := homepage.ClassifyList(tt.class)
		assert.Equal(t, tt.kind, l.Kind, tt.class)
		assert.Equal(t, tt.variant, l.Variant, tt.class)
	}
}

func TestArticleList_HeadingCapture(t *testing.T) {
	t.Parallel()

	l := homepage.NewArticleList(homepage.ListPackage)

	_, ok := l.ProcessElement(element(atom.Div, "class", "package__heading"))
	assert.False(t, ok)

	rv, ok := l.ProcessElement(element(atom.Div, "class", "package__heading theme"))
	require.True(t, ok)
	assert.Equal(t, homepage.FieldHeading, l.Capture().Active())

	l.AppendText(homepage.FieldHeading, " Sport")
	rv.Apply()
	assert.Equal(t, homepage.FieldNone, l.Capture().Active())
	assert.Equal(t, "Sport", l.Heading)
}

func TestArticleList_RenderForms(t *testing.T) {
	t.Parallel()

	a := homepage.NewArticle("")
	a.URL = "/a/"
	a.AppendText(homepage.FieldHeadline, "Story")

	header := homepage.NewArticleList(homepage.ListHeader)
	header.Append(a)
	assert.Contains(t, header.Render(), `<div class="header-articles">`)
	assert.Contains(t, header.Render(), `<h4><a href="/a/">Story</a></h4>`)

	opinions := homepage.NewArticleList(homepage.ListOpinions)
	opinions.AppendText(homepage.FieldHeading, "Comment")
	opinions.Append(a)
	out := opinions.Render()
	assert.Contains(t, out, "<h3>Comment</h3>")
	assert.Contains(t, out, `<h3><a href="/a/">Story</a></h3>`)
	assert.Contains(t, out, "<div>opinions</div>")
}
