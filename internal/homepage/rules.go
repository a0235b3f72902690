package homepage

import (
	"fmt"
	"strings"

	"github.com/andybalholm/cascadia"
	nethtml "golang.org/x/net/html"
)

var (
	headSelector     = cascadia.MustCompile("head")
	bodySelector     = cascadia.MustCompile("body")
	mastheadSelector = cascadia.MustCompile("body > div.site-header-wrapper")
	listSelector     = cascadia.MustCompile("section, section > :not(article), div.opinion, div.opinion > :not(article)")
	articleSelector  = cascadia.MustCompile("article, article *")
	removedSelector  = cascadia.MustCompile("script, body > a")
)

// linkRule makes absolute links to the content origin root-relative.
type linkRule struct {
	prefix   string
	selector cascadia.Selector
}

func newLinkRule(contentEndpoint string) (*linkRule, error) {
	prefix := strings.TrimRight(contentEndpoint, "/")
	if prefix == "" {
		return nil, nil
	}
	sel, err := cascadia.Compile(fmt.Sprintf("a[href^=%q]", prefix))
	if err != nil {
		return nil, fmt.Errorf("compile link selector: %w", err)
	}
	return &linkRule{prefix: prefix, selector: sel}, nil
}

func (r *linkRule) apply(n *nethtml.Node) {
	if r == nil || !r.selector.Match(n) {
		return
	}
	for i := range n.Attr {
		if n.Attr[i].Key != "href" {
			continue
		}
		rest := strings.TrimPrefix(n.Attr[i].Val, r.prefix)
		// Only rewrite on an origin boundary, not a longer host sharing the prefix.
		if rest != "" && rest[0] != '/' && rest[0] != '?' && rest[0] != '#' {
			return
		}
		if !strings.HasPrefix(rest, "/") {
			rest = "/" + rest
		}
		n.Attr[i].Val = rest
		return
	}
}

func isListContainer(n *nethtml.Node) bool {
	return n.Data == "section" || (n.Data == "div" && attr(n, "class") == "opinion")
}
