// Package homepage rewrites the upstream homepage into article list blocks in a
// single streaming pass.
package homepage

import "strings"

// Field names a capturable text field of an Article or ArticleList.
type Field int

const (
	FieldNone Field = iota
	FieldHeadline
	FieldStandfirst
	FieldKicker
	FieldAuthorName
	FieldRating
	FieldHeading
)

func (f Field) String() string {
	switch f {
	case FieldHeadline:
		return "headline"
	case FieldStandfirst:
		return "standfirst"
	case FieldKicker:
		return "kicker"
	case FieldAuthorName:
		return "author.name"
	case FieldRating:
		return "meta.rating"
	case FieldHeading:
		return "heading"
	default:
		return "none"
	}
}

// FieldCapture tracks which field, if any, receives text.
type FieldCapture struct {
	active Field
}

// Active returns the field currently receiving text.
func (c *FieldCapture) Active() Field {
	return c.active
}

// Declare makes field active and returns the Revert to run when the declaring
// element closes.
func (c *FieldCapture) Declare(field, fallback Field) Revert {
	c.active = field
	return Revert{capture: c, to: fallback}
}

// Revert restores a FieldCapture to a fallback field.
type Revert struct {
	capture *FieldCapture
	to      Field
}

// Apply performs the revert.
func (r Revert) Apply() {
	if r.capture != nil {
		r.capture.active = r.to
	}
}

// Capturable is a record whose fields are filled from streamed text.
type Capturable interface {
	Capture() *FieldCapture
	AppendText(field Field, text string)
}

// appendText adds a raw text fragment to dst. Leading whitespace is dropped
// while dst is still empty.
func appendText(dst *string, text string) {
	if *dst == "" {
		text = strings.TrimLeft(text, " \t\r\n\f")
	}
	*dst += text
}
