// Package document holds a fetched page parsed into a DOM and answers CSS
// selector queries against it.
package document

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

// ErrNoDocument is returned by Query when no page has been fetched yet.
var ErrNoDocument = errors.New("no document: fetch a page first")

// SelectorError reports a selector that failed to compile.
type SelectorError struct {
	Selector string
	Err      error
}

func (e *SelectorError) Error() string {
	return fmt.Sprintf("invalid selector %q: %v", e.Selector, e.Err)
}

func (e *SelectorError) Unwrap() error { return e.Err }

// Document is a parsed HTML page. It is replaced wholesale on every fetch
// and never mutated after Parse.
type Document struct {
	doc      *goquery.Document
	url      string
	parsedAt time.Time
}

// Match is one element selected by a query.
type Match struct {
	Index     int      // position in document order, from 0
	Tag       string   // lowercase element name
	ID        string   // id attribute, if any
	Classes   []string // class names
	HTML      string   // inner markup, as shown in the panel
	OuterHTML string   // the element including its own tags
	Text      string   // text content with whitespace collapsed
}

// Parse builds a Document from markup. baseURL is informational and may be
// empty; an unparsable baseURL is ignored.
func Parse(markup, baseURL string) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parsing html: %w", err)
	}
	if baseURL != "" {
		if u, err := url.Parse(baseURL); err == nil {
			doc.Url = u
		}
	}
	return &Document{doc: doc, url: baseURL, parsedAt: time.Now()}, nil
}

// URL returns the address the document was fetched from.
func (d *Document) URL() string {
	if d == nil {
		return ""
	}
	return d.url
}

// ParsedAt returns when the document was parsed.
func (d *Document) ParsedAt() time.Time {
	if d == nil {
		return time.Time{}
	}
	return d.parsedAt
}

// Title returns the trimmed contents of <title>.
func (d *Document) Title() string {
	if d == nil {
		return ""
	}
	return strings.TrimSpace(d.doc.Find("title").First().Text())
}

// ElementCount returns the number of elements in the document.
func (d *Document) ElementCount() int {
	if d == nil {
		return 0
	}
	return d.doc.Find("*").Length()
}

// BodyHTML returns the inner markup of <body>. The HTML parser always
// synthesises a body, so a fragment without one still yields its content.
func (d *Document) BodyHTML() (string, error) {
	if d == nil {
		return "", ErrNoDocument
	}
	body := d.doc.Find("body").First()
	if body.Length() == 0 {
		return outerMarkup(d.doc.Get(0)), nil
	}
	return strings.Trim(innerMarkup(body.Get(0)), "\n"), nil
}

// Query runs a CSS selector against the document and returns one Match per
// selected element, in document order.
//
// A blank selector yields no matches and no error. A selector that does not
// compile yields a *SelectorError.
func (d *Document) Query(selector string) ([]Match, error) {
	if d == nil {
		return nil, ErrNoDocument
	}
	selector = strings.TrimSpace(selector)
	if selector == "" {
		return nil, nil
	}

	sel, err := cascadia.Compile(selector)
	if err != nil {
		return nil, &SelectorError{Selector: selector, Err: err}
	}

	var matches []Match
	d.doc.FindMatcher(sel).Each(func(i int, s *goquery.Selection) {
		matches = append(matches, newMatch(i, s))
	})
	return matches, nil
}

func newMatch(i int, s *goquery.Selection) Match {
	node := s.Get(0)
	id, _ := s.Attr("id")
	class, _ := s.Attr("class")

	return Match{
		Index:     i,
		Tag:       goquery.NodeName(s),
		ID:        id,
		Classes:   strings.Fields(class),
		HTML:      innerMarkup(node),
		OuterHTML: outerMarkup(node),
		Text:      strings.Join(strings.Fields(s.Text()), " "),
	}
}

// Label returns a short display name such as "div#main.card".
func (m Match) Label() string {
	label := m.Tag
	if m.ID != "" {
		label += "#" + m.ID
	}
	for _, c := range m.Classes {
		if len(label) >= 30 {
			break
		}
		label += "." + c
	}
	return label
}
