// Package export prints query matches for the one-shot query command.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"

	"scraper/document"
)

// Format selects an output encoding.
type Format string

const (
	FormatText     Format = "text"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
)

// ErrUnknownFormat is returned for a format other than text, json or markdown.
var ErrUnknownFormat = errors.New("unknown output format")

// ParseFormat converts a flag value into a Format.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatText:
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatMarkdown, "md":
		return FormatMarkdown, nil
	}
	return "", fmt.Errorf("%w: %q (want text, json or markdown)", ErrUnknownFormat, s)
}

// Report is one fetched page and the matches of one selector.
type Report struct {
	URL      string
	FinalURL string
	Status   int
	Selector string
	Matches  []document.Match
}

// Write renders r to w in format f.
func Write(w io.Writer, f Format, r Report) error {
	switch f {
	case FormatText:
		return writeText(w, r)
	case FormatJSON:
		return writeJSON(w, r)
	case FormatMarkdown:
		return writeMarkdown(w, r)
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, f)
}

// PanelTitle is the header line of one match in text output.
func PanelTitle(m document.Match) string {
	return fmt.Sprintf("── %s [%d] ──", m.Tag, m.Index)
}

func writeText(w io.Writer, r Report) error {
	if len(r.Matches) == 0 {
		_, err := fmt.Fprintln(w, "no matches")
		return err
	}
	for i, m := range r.Matches {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "%s\n%s\n", PanelTitle(m), m.HTML); err != nil {
			return err
		}
	}
	return nil
}

type jsonMatch struct {
	Index   int      `json:"index"`
	Tag     string   `json:"tag"`
	ID      string   `json:"id,omitempty"`
	Classes []string `json:"classes"`
	HTML    string   `json:"html"`
	Text    string   `json:"text"`
}

func writeJSON(w io.Writer, r Report) error {
	out := make([]jsonMatch, 0, len(r.Matches))
	for _, m := range r.Matches {
		classes := m.Classes
		if classes == nil {
			classes = []string{}
		}
		out = append(out, jsonMatch{
			Index:   m.Index,
			Tag:     m.Tag,
			ID:      m.ID,
			Classes: classes,
			HTML:    m.HTML,
			Text:    m.Text,
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encoding matches: %w", err)
	}
	return nil
}

func writeMarkdown(w io.Writer, r Report) error {
	md := markdown.NewMarkdown(w)

	md.H1("Matches for `" + r.Selector + "`")
	md.PlainText("")

	source := r.URL
	if r.FinalURL != "" && r.FinalURL != r.URL {
		source = r.FinalURL
	}
	rows := [][]string{
		{"URL", source},
		{"Selector", "`" + r.Selector + "`"},
		{"Matches", strconv.Itoa(len(r.Matches))},
	}
	if r.Status != 0 {
		rows = append(rows, []string{"Status", strconv.Itoa(r.Status)})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")

	if len(r.Matches) == 0 {
		md.PlainText("No elements matched.")
		return md.Build()
	}

	for _, m := range r.Matches {
		md.H2(fmt.Sprintf("%d. %s", m.Index+1, m.Label()))
		md.PlainText("")
		if m.Text != "" {
			md.PlainText(truncate(m.Text, 200))
			md.PlainText("")
		}
		md.CodeBlocks(markdown.SyntaxHighlight("html"), m.HTML)
		md.PlainText("")
	}
	return md.Build()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
