package homepage

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	nethtml "golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/isabella232/tmg-ucm/infrastructure/logger"
)

const (
	bodyPreamble = "\n<header></header>\n<main><div>\n"
	bodyCloser   = "</div></main>\n<footer></footer>"

	// cancelCheckInterval is the number of tokens between context checks.
	cancelCheckInterval = 256
)

var voidElements = map[atom.Atom]bool{
	atom.Area: true, atom.Base: true, atom.Br: true, atom.Col: true,
	atom.Embed: true, atom.Hr: true, atom.Img: true, atom.Input: true,
	atom.Link: true, atom.Meta: true, atom.Param: true, atom.Source: true,
	atom.Track: true, atom.Wbr: true,
}

// Stats reports what a rewrite emitted.
type Stats struct {
	Lists    int
	Articles int
}

// Rewriter turns the upstream homepage into header, list and package blocks.
// A Rewriter is safe for concurrent use; each Rewrite call owns its state.
type Rewriter struct {
	links *linkRule
	head  HeadOptions
	log   logger.Logger
}

// Option configures a Rewriter.
type Option func(*Rewriter)

// WithHead overrides the site identity in the replacement head.
func WithHead(opts HeadOptions) Option {
	return func(r *Rewriter) {
		r.head = opts.withDefaults()
	}
}

// NewRewriter creates a Rewriter. Links pointing at contentEndpoint are made
// root-relative.
func NewRewriter(contentEndpoint string, log logger.Logger, opts ...Option) (*Rewriter, error) {
	links, err := newLinkRule(contentEndpoint)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.NewNop()
	}

	r := &Rewriter{
		links: links,
		head:  DefaultHeadOptions(),
		log:   log,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

type actionKind int

const (
	actionRevert actionKind = iota
	actionFinishArticle
	actionFinishList
	actionFinishBody
)

type closeAction struct {
	kind   actionKind
	revert Revert
}

type frame struct {
	node    *nethtml.Node
	actions []closeAction
	removes bool
}

type rewriteState struct {
	r      *Rewriter
	out    *bufio.Writer
	dst    io.Writer
	origin string

	stack        []*frame
	removalDepth int

	currentArticle *Article
	currentList    *ArticleList

	body       bytes.Buffer
	bodyOpened bool
	bodyClosed bool

	stats Stats
	err   error
}

// Rewrite streams the homepage from src to dst. The replacement head is written
// as soon as the upstream head opens; the body blocks are written once the
// document ends.
func (r *Rewriter) Rewrite(ctx context.Context, src io.Reader, dst io.Writer, origin string) (Stats, error) {
	s := &rewriteState{
		r:      r,
		out:    bufio.NewWriter(dst),
		dst:    dst,
		origin: origin,
	}
	z := nethtml.NewTokenizer(src)

	for i := 0; ; i++ {
		if i%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return s.stats, err
			}
		}

		switch z.Next() {
		case nethtml.ErrorToken:
			if err := z.Err(); !errors.Is(err, io.EOF) {
				return s.stats, fmt.Errorf("tokenize homepage: %w", err)
			}
			s.finish()
			if s.err != nil {
				return s.stats, s.err
			}
			if err := s.out.Flush(); err != nil {
				return s.stats, fmt.Errorf("write homepage: %w", err)
			}
			return s.stats, nil
		case nethtml.DoctypeToken:
			if s.removalDepth == 0 {
				_, _ = s.out.Write(z.Raw())
			}
		case nethtml.CommentToken:
		case nethtml.TextToken:
			s.text(z.Raw())
		case nethtml.StartTagToken:
			s.open(z, false)
		case nethtml.SelfClosingTagToken:
			s.open(z, true)
		case nethtml.EndTagToken:
			name, _ := z.TagName()
			s.close(string(name))
		}

		if s.err != nil {
			return s.stats, s.err
		}
	}
}

func (s *rewriteState) open(z *nethtml.Tokenizer, selfClosing bool) {
	name, hasAttr := z.TagName()
	n := &nethtml.Node{
		Type:     nethtml.ElementNode,
		DataAtom: atom.Lookup(name),
		Data:     string(name),
	}
	for hasAttr {
		var key, val []byte
		key, val, hasAttr = z.TagAttr()
		n.Attr = append(n.Attr, nethtml.Attribute{Key: string(key), Val: string(val)})
	}
	// Selectors only walk up the ancestor chain, so a parent link is enough.
	if len(s.stack) > 0 {
		n.Parent = s.stack[len(s.stack)-1].node
	}

	f := &frame{node: n}
	s.stack = append(s.stack, f)
	s.apply(f)

	if selfClosing || voidElements[n.DataAtom] {
		s.pop()
	}
}

func (s *rewriteState) apply(f *frame) {
	if s.removalDepth > 0 {
		return
	}
	n := f.node

	if headSelector.Match(n) {
		if err := writeHead(s.out, s.r.head, s.origin); err != nil {
			s.err = fmt.Errorf("write head: %w", err)
		} else {
			s.flush()
		}
		s.remove(f)
		return
	}

	s.r.links.apply(n)

	if removedSelector.Match(n) {
		s.remove(f)
		return
	}

	if bodySelector.Match(n) && !s.bodyOpened {
		s.bodyOpened = true
		s.body.WriteString(bodyPreamble)
		f.actions = append(f.actions, closeAction{kind: actionFinishBody})
	}

	if mastheadSelector.Match(n) && s.currentList == nil {
		s.currentList = NewArticleList(ListHeader)
		f.actions = append(f.actions, closeAction{kind: actionFinishList})
	}

	if listSelector.Match(n) {
		switch {
		case s.currentList == nil && isListContainer(n):
			s.currentList = ClassifyList(attr(n, "class"))
			f.actions = append(f.actions, closeAction{kind: actionFinishList})
		case s.currentList != nil:
			if rv, ok := s.currentList.ProcessElement(n); ok {
				f.actions = append(f.actions, closeAction{kind: actionRevert, revert: rv})
			}
		}
	}

	if articleSelector.Match(n) {
		switch {
		case s.currentArticle == nil && n.DataAtom == atom.Article:
			s.currentArticle = NewArticle(attr(n, "class"))
			f.actions = append(f.actions, closeAction{kind: actionFinishArticle})
		case s.currentArticle != nil:
			if rv, ok := s.currentArticle.ProcessElement(n, s.r.log); ok {
				f.actions = append(f.actions, closeAction{kind: actionRevert, revert: rv})
			}
		}
	}
}

// flush pushes buffered output through to the client.
func (s *rewriteState) flush() {
	if err := s.out.Flush(); err != nil {
		s.err = fmt.Errorf("write homepage: %w", err)
		return
	}
	if fl, ok := s.dst.(interface{ Flush() }); ok {
		fl.Flush()
	}
}

func (s *rewriteState) remove(f *frame) {
	f.removes = true
	s.removalDepth++
}

// close pops up to and including the innermost open element named name.
// Close tags with no matching open element are ignored.
func (s *rewriteState) close(name string) {
	for i := len(s.stack) - 1; i >= 0; i-- {
		if s.stack[i].node.Data != name {
			continue
		}
		for len(s.stack) > i {
			s.pop()
		}
		return
	}
}

func (s *rewriteState) pop() {
	f := s.stack[len(s.stack)-1]
	s.stack = s.stack[:len(s.stack)-1]

	for _, a := range f.actions {
		s.run(a)
	}
	if f.removes {
		s.removalDepth--
	}
}

func (s *rewriteState) run(a closeAction) {
	switch a.kind {
	case actionRevert:
		a.revert.Apply()
	case actionFinishArticle:
		if s.currentList != nil {
			s.currentList.Append(s.currentArticle)
			s.stats.Articles++
		} else {
			s.r.log.Debug("Dropping article outside of any list",
				logger.String("url", s.currentArticle.URL),
			)
		}
		s.currentArticle = nil
	case actionFinishList:
		if s.currentList == nil {
			return
		}
		s.body.WriteString(s.currentList.Render())
		s.stats.Lists++
		s.currentList = nil
	case actionFinishBody:
		if !s.bodyClosed {
			s.bodyClosed = true
			s.body.WriteString(bodyCloser)
		}
	}
}

func (s *rewriteState) text(raw []byte) {
	if s.removalDepth > 0 || len(bytes.TrimSpace(raw)) == 0 {
		return
	}
	text := string(raw)

	if s.currentArticle != nil && route(s.currentArticle, text) {
		return
	}
	if s.currentList != nil {
		route(s.currentList, text)
	}
}

func route(c Capturable, text string) bool {
	field := c.Capture().Active()
	if field == FieldNone {
		return false
	}
	c.AppendText(field, text)
	return true
}

// finish unwinds elements left open at end of input and writes the body.
func (s *rewriteState) finish() {
	for len(s.stack) > 0 {
		s.pop()
	}
	if s.bodyOpened && !s.bodyClosed {
		s.bodyClosed = true
		s.body.WriteString(bodyCloser)
	}
	_, _ = s.body.WriteTo(s.out)
}
