package document

import (
	"errors"
	"strings"
	"testing"
)

const samplePage = `<!DOCTYPE html>
<html>
<head><title>  Sample Shop </title></head>
<body>
<header><nav><a href="/">Home</a></nav></header>
<main id="content">
	<ul class="products">
		<li class="item featured"><b>Kettle</b> 20</li>
		<li class="item">Toaster</li>
		<li class="item"><em>Lamp</em></li>
	</ul>
	<p>Free   shipping
	on all orders</p>
</main>
</body>
</html>`

func mustParse(t *testing.T, markup string) *Document {
	t.Helper()
	doc, err := Parse(markup, "https://shop.example/")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return doc
}

func TestQueryBlankSelectorYieldsNothing(t *testing.T) {
	doc := mustParse(t, samplePage)

	for _, sel := range []string{"", " ", "\t\n  "} {
		matches, err := doc.Query(sel)
		if err != nil {
			t.Errorf("Query(%q) returned error: %v", sel, err)
		}
		if len(matches) != 0 {
			t.Errorf("Query(%q) returned %d matches, expected none", sel, len(matches))
		}
	}
}

func TestQueryDocumentOrderAndTags(t *testing.T) {
	doc := mustParse(t, samplePage)

	matches, err := doc.Query("li, b, em")
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}

	// a selector group still yields elements in document order, not group order
	wantTags := []string{"li", "b", "li", "li", "em"}
	if len(matches) != len(wantTags) {
		t.Fatalf("expected %d matches, got %d", len(wantTags), len(matches))
	}
	for i, m := range matches {
		if m.Tag != wantTags[i] {
			t.Errorf("match %d: tag = %q, want %q", i, m.Tag, wantTags[i])
		}
		if m.Index != i {
			t.Errorf("match %d: index = %d", i, m.Index)
		}
	}
}

func TestQueryMatchContent(t *testing.T) {
	doc := mustParse(t, samplePage)

	matches, err := doc.Query("li.featured")
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}

	m := matches[0]
	if m.HTML != "<b>Kettle</b> 20" {
		t.Errorf("HTML = %q, want inner markup", m.HTML)
	}
	if m.OuterHTML != `<li class="item featured"><b>Kettle</b> 20</li>` {
		t.Errorf("OuterHTML = %q", m.OuterHTML)
	}
	if m.Text != "Kettle 20" {
		t.Errorf("Text = %q", m.Text)
	}
	if strings.Join(m.Classes, ",") != "item,featured" {
		t.Errorf("Classes = %v", m.Classes)
	}
	if m.Label() != "li.item.featured" {
		t.Errorf("Label = %q", m.Label())
	}
}

func TestQueryCollapsesText(t *testing.T) {
	doc := mustParse(t, samplePage)

	matches, err := doc.Query("main > p")
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(matches) != 1 || matches[0].Text != "Free shipping on all orders" {
		t.Errorf("unexpected matches: %+v", matches)
	}
}

func TestQueryNoMatches(t *testing.T) {
	doc := mustParse(t, samplePage)

	matches, err := doc.Query("table.prices")
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("expected no matches, got %d", len(matches))
	}
}

func TestQueryInvalidSelector(t *testing.T) {
	doc := mustParse(t, samplePage)

	_, err := doc.Query("li[")
	if err == nil {
		t.Fatal("expected an error for a malformed selector")
	}
	var selErr *SelectorError
	if !errors.As(err, &selErr) {
		t.Fatalf("expected *SelectorError, got %T", err)
	}
	if selErr.Selector != "li[" {
		t.Errorf("Selector = %q", selErr.Selector)
	}
	if selErr.Unwrap() == nil {
		t.Error("SelectorError should wrap the compile error")
	}
}

func TestQueryWithoutDocument(t *testing.T) {
	var doc *Document

	if _, err := doc.Query("li"); !errors.Is(err, ErrNoDocument) {
		t.Errorf("expected ErrNoDocument, got %v", err)
	}
	if _, err := doc.BodyHTML(); !errors.Is(err, ErrNoDocument) {
		t.Errorf("expected ErrNoDocument from BodyHTML, got %v", err)
	}
	if doc.Title() != "" || doc.URL() != "" || doc.ElementCount() != 0 {
		t.Error("nil document accessors should return zero values")
	}
}

func TestBodyHTML(t *testing.T) {
	doc := mustParse(t, "<html><head><title>x</title></head><body><p>hi</p></body></html>")

	body, err := doc.BodyHTML()
	if err != nil {
		t.Fatalf("BodyHTML failed: %v", err)
	}
	if body != "<p>hi</p>" {
		t.Errorf("BodyHTML = %q", body)
	}
}

func TestBodyHTMLFragment(t *testing.T) {
	doc := mustParse(t, "<div>loose fragment</div>")

	body, err := doc.BodyHTML()
	if err != nil {
		t.Fatalf("BodyHTML failed: %v", err)
	}
	if body != "<div>loose fragment</div>" {
		t.Errorf("BodyHTML = %q", body)
	}
}

func TestDocumentMetadata(t *testing.T) {
	doc := mustParse(t, samplePage)

	if doc.Title() != "Sample Shop" {
		t.Errorf("Title = %q", doc.Title())
	}
	if doc.URL() != "https://shop.example/" {
		t.Errorf("URL = %q", doc.URL())
	}
	if doc.ElementCount() < 10 {
		t.Errorf("ElementCount = %d, expected the whole tree", doc.ElementCount())
	}
	if doc.ParsedAt().IsZero() {
		t.Error("ParsedAt should be set")
	}
}

func TestReplacedDocumentIsIndependent(t *testing.T) {
	first := mustParse(t, "<body><p>one</p></body>")
	second := mustParse(t, "<body><p>two</p><p>three</p></body>")

	a, _ := first.Query("p")
	b, _ := second.Query("p")
	if len(a) != 1 || len(b) != 2 {
		t.Errorf("documents should not share state: %d vs %d", len(a), len(b))
	}
}

func TestMarkupEscaping(t *testing.T) {
	doc := mustParse(t, "<html><body>"+
		`<p title='say "hi"'>Don't &amp; "quote" &lt;tag&gt;</p>`+
		"<br><pre>\n\nx</pre>"+
		"<script>if (a < b && c) {}</script>"+
		"<!-- note -->"+
		"</body></html>")

	body, err := doc.BodyHTML()
	if err != nil {
		t.Fatalf("BodyHTML failed: %v", err)
	}
	want := `<p title="say &#34;hi&#34;">Don't &amp; "quote" &lt;tag&gt;</p>` +
		"<br><pre>\n\nx</pre>" +
		"<script>if (a < b && c) {}</script>" +
		"<!-- note -->"
	if body != want {
		t.Errorf("BodyHTML =\n%q\nwant\n%q", body, want)
	}

	matches, err := doc.Query("p")
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}
	if got := matches[0].HTML; got != `Don't &amp; "quote" &lt;tag&gt;` {
		t.Errorf("HTML = %q", got)
	}
}
