package content

import (
	"fmt"
	"html"
	"strings"

	"github.com/isabella232/tmg-ucm/infrastructure/logger"
)

// DefaultParticleHost renders embed particles.
const DefaultParticleHost = "https://cf-particle-html.eip.telegraph.co.uk"

var headingTags = map[string]string{
	"level1": "h1",
	"level2": "h2",
	"level3": "h3",
	"level4": "h4",
	"level5": "h5",
	"level6": "h6",
}

// Transformer renders body nodes as HTML fragments.
type Transformer struct {
	contentEndpoint string
	particleHost    string
	log             logger.Logger
	onFallback      func(nodeType string)
}

// TransformerOption customises a Transformer.
type TransformerOption func(*Transformer)

// WithParticleHost overrides DefaultParticleHost.
func WithParticleHost(host string) TransformerOption {
	return func(t *Transformer) {
		if host != "" {
			t.particleHost = strings.TrimSuffix(host, "/")
		}
	}
}

// WithFallbackHook is called whenever a node is emitted through its raw
// html-data because its type or subtype was not recognised.
func WithFallbackHook(fn func(nodeType string)) TransformerOption {
	return func(t *Transformer) { t.onFallback = fn }
}

// NewTransformer creates a Transformer. contentEndpoint is stripped from
// image URLs so images are served through the gateway.
func NewTransformer(contentEndpoint string, log logger.Logger, opts ...TransformerOption) *Transformer {
	t := &Transformer{
		contentEndpoint: strings.TrimSuffix(contentEndpoint, "/"),
		particleHost:    DefaultParticleHost,
		log:             log,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Transform renders a single node. It never fails: unknown shapes degrade to
// the node's html-data.
func (t *Transformer) Transform(n Node) string {
	switch n.Type {
	case TypeHeading:
		return t.heading(n)
	case TypeImage:
		return t.image(n)
	case TypeVideo:
		return video(n)
	case TypeParticle:
		return t.particle(n)
	case TypeText:
		return n.HTMLData
	default:
		return t.fallback(n, "unknown content node type")
	}
}

// TransformBody renders nodes in order, dropping empty results, joined by newlines.
func (t *Transformer) TransformBody(nodes []Node) string {
	parts := make([]string, 0, len(nodes))
	for _, n := range nodes {
		if out := t.Transform(n); out != "" {
			parts = append(parts, out)
		}
	}
	return strings.Join(parts, "\n")
}

func (t *Transformer) heading(n Node) string {
	tag, ok := headingTags[n.Subtype]
	if !ok {
		if n.HTMLData == "" {
			t.fallback(n, "unknown heading subtype")
			return "<p>" + n.Data + "</p>"
		}
		return t.fallback(n, "unknown heading subtype")
	}
	return "<" + tag + ">" + n.Data + "</" + tag + ">"
}

func (t *Transformer) image(n Node) string {
	caption := strings.TrimSpace(n.Caption)
	if caption == "" {
		return ""
	}

	src := html.EscapeString(t.localURL(n.Data))

	var b strings.Builder
	b.WriteString("<figure>\n  <picture>\n")
	fmt.Fprintf(&b, "    <source media=\"(max-width: 400px)\" srcset=\"%s\">\n", src)
	fmt.Fprintf(&b, "    <img src=\"%s\" alt=\"%s\" loading=\"lazy\"", src, html.EscapeString(n.AltText))
	if n.Width > 0 && n.Height > 0 {
		fmt.Fprintf(&b, " width=\"%d\" height=\"%d\"", n.Width, n.Height)
	}
	b.WriteString(">\n  </picture>\n  <p>")
	b.WriteString(caption)
	if credit := strings.TrimSpace(n.Credit); credit != "" {
		b.WriteString("<em>" + credit + "</em>")
	}
	b.WriteString("</p>\n</figure>")
	return b.String()
}

func video(n Node) string {
	if !strings.Contains(n.HTMLData, "youtube") {
		return n.HTMLData
	}
	return `<div class="video">
  <div>
    <div>
      <a href="` + YouTubeWatchURL(n.Data) + `">YouTube</a>
    </div>
  </div>
</div>`
}

// YouTubeWatchURL is the canonical watch link of a video id.
func YouTubeWatchURL(id string) string {
	return "https://www.youtube.com/watch?v=" + html.EscapeString(id)
}

func (t *Transformer) particle(n Node) string {
	switch n.Subtype {
	case "embed", "illustrator-embed":
		return `<div class="embed">
  <div>
    <div>
      <a href="` + t.particleHost + "/" + html.EscapeString(n.Data) + `.html">` + html.EscapeString(n.AltText) + `</a>
    </div>
  </div>
</div>`
	default:
		return n.HTMLData
	}
}

func (t *Transformer) fallback(n Node, reason string) string {
	t.log.Warn("Falling back to raw html for content node",
		logger.String("reason", reason),
		logger.String("type", n.Type),
		logger.String("subtype", n.Subtype),
	)
	if t.onFallback != nil {
		t.onFallback(n.Type)
	}
	return n.HTMLData
}

// localURL strips the content endpoint so the URL becomes root-relative.
func (t *Transformer) localURL(u string) string {
	if t.contentEndpoint == "" || !strings.HasPrefix(u, t.contentEndpoint) {
		return u
	}
	rest := strings.TrimPrefix(u, t.contentEndpoint)
	if !strings.HasPrefix(rest, "/") {
		rest = "/" + rest
	}
	return rest
}
