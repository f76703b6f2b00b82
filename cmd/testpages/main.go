// Testpages fetches a set of real pages and runs common selectors against
// them, to spot fetch or parse regressions.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"scraper/document"
	"scraper/fetcher"
	"scraper/logging"
	"scraper/omnibox"
)

var testURLs = []string{
	"https://example.com",
	"https://go.dev/doc/effective_go",
	"https://en.wikipedia.org/wiki/Go_(programming_language)",
	"https://lobste.rs",
	"https://news.ycombinator.com",
	"https://text.npr.org",
	"https://lite.cnn.com",
}

var selectors = []string{
	"title",
	"h1, h2, h3",
	"a[href]",
	"img[src]",
	"p",
	"table tr",
}

func main() {
	f := fetcher.New(fetcher.DefaultOptions(), logging.New(os.Stderr, slog.LevelWarn))

	if len(os.Args) > 1 {
		// Single URL mode
		testURL(f, os.Args[1])
		return
	}

	for _, url := range testURLs {
		testURL(f, url)
		fmt.Println(strings.Repeat("=", 80))
	}
}

func testURL(f *fetcher.Fetcher, input string) {
	url, err := omnibox.Resolve(input)
	if err != nil {
		fmt.Printf("  ERROR: %v\n", err)
		return
	}
	fmt.Printf("Testing: %s\n", url)

	res, err := f.Fetch(context.Background(), url)
	if err != nil {
		fmt.Printf("  ERROR fetching: %v\n", err)
		return
	}
	fmt.Printf("  Status: %d  Bytes: %d  Time: %s\n", res.StatusCode, len(res.HTML), res.FetchTime.Round(time.Millisecond))
	if res.FinalURL != url {
		fmt.Printf("  Redirected: %s\n", res.FinalURL)
	}
	if blocked, marker := fetcher.IsBlockedResponse(res.HTML); blocked {
		fmt.Printf("  WARNING: looks like a bot challenge (%s); try --mode auto\n", marker)
	}

	doc, err := document.Parse(res.HTML, res.FinalURL)
	if err != nil {
		fmt.Printf("  ERROR parsing: %v\n", err)
		return
	}
	body, err := doc.BodyHTML()
	if err != nil {
		fmt.Printf("  ERROR rendering body: %v\n", err)
		return
	}
	fmt.Printf("  Title: %q\n", doc.Title())
	fmt.Printf("  Elements: %d  Body: %d bytes\n", doc.ElementCount(), len(body))

	for _, sel := range selectors {
		start := time.Now()
		matches, err := doc.Query(sel)
		if err != nil {
			fmt.Printf("  %-12s ERROR: %v\n", sel, err)
			continue
		}
		first := ""
		if len(matches) > 0 {
			first = matches[0].Label()
		}
		fmt.Printf("  %-12s %5d matches  %8s  %s\n", sel, len(matches), time.Since(start).Round(time.Microsecond), first)
	}
}
