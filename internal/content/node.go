// Package content turns content-API search hits into article HTML.
package content

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Node types understood by the Transformer.
const (
	TypeHeading  = "heading"
	TypeImage    = "image"
	TypeVideo    = "video"
	TypeParticle = "particle"
	TypeText     = "text"
)

// Node is one unit of article body content as delivered by the content API.
type Node struct {
	Type        string    `json:"type"`
	Subtype     string    `json:"subtype,omitempty"`
	Data        string    `json:"data"`
	HTMLData    string    `json:"html-data"`
	AltText     string    `json:"alt-text,omitempty"`
	Credit      string    `json:"credit,omitempty"`
	Caption     string    `json:"caption,omitempty"`
	HTMLCaption string    `json:"html-caption,omitempty"`
	Width       Dimension `json:"width,omitempty"`
	Height      Dimension `json:"height,omitempty"`
}

// Dimension is a pixel size the API sends either as a number or as a
// numeric string. Unparseable values decode to zero.
type Dimension int

// UnmarshalJSON accepts 640, "640", "", and null.
func (d *Dimension) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*d = 0
		return nil
	}

	s := string(b)
	if b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
	}

	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		*d = 0
		return nil //nolint:nilerr // a bad size is not worth failing the article
	}
	*d = Dimension(f)
	return nil
}

// SearchResult is the response body of the content search endpoint.
type SearchResult struct {
	Hits []Hit `json:"hits"`
}

// Hit is one matched article.
type Hit struct {
	Metadata Metadata `json:"metadata"`
	Content  Body     `json:"content"`
}

// Metadata describes a hit.
type Metadata struct {
	Type         string       `json:"type"`
	Extensions   []Extension  `json:"extensions"`
	Annotations  []Annotation `json:"annotations"`
	CreatedDate  string       `json:"tmg-created-date"`
	DisplayDate  string       `json:"tmg-display-date"`
	LastModified string       `json:"tmg-last-modified-date"`
}

// Extension is a free-form key/value pair attached to a hit.
type Extension struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Annotation tags a hit with a named concept.
type Annotation struct {
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// Body is the editorial content of a hit.
type Body struct {
	Headline   string   `json:"headline"`
	Standfirst string   `json:"standfirst"`
	Authors    []Author `json:"authors"`
	Body       []Node   `json:"body"`
}

// Author of an article.
type Author struct {
	Name string `json:"name"`
	URI  string `json:"uri"`
	URL  string `json:"url"`
	Role string `json:"role"`
}

// Extension returns the value of the first extension named key.
func (m Metadata) Extension(key string) string {
	for _, e := range m.Extensions {
		if e.Key == key {
			return e.Value
		}
	}
	return ""
}
