// Package fetcher retrieves a page's markup over HTTP, with optional headless
// browser rendering for pages built by JavaScript.
package fetcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"golang.org/x/net/html/charset"
)

// Mode selects how pages are retrieved.
type Mode string

const (
	ModeHTTP    Mode = "http"    // plain GET
	ModeBrowser Mode = "browser" // headless Chrome
	ModeAuto    Mode = "auto"    // GET, then Chrome if the body is a bot challenge
)

// ErrUnknownMode is returned for a mode other than http, browser or auto.
var ErrUnknownMode = errors.New("unknown fetch mode")

// ParseMode converts a config or flag value into a Mode. Empty means http.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeHTTP:
		return ModeHTTP, nil
	case ModeBrowser:
		return ModeBrowser, nil
	case ModeAuto:
		return ModeAuto, nil
	}
	return "", fmt.Errorf("%w: %q (want http, browser or auto)", ErrUnknownMode, s)
}

// Result contains the fetched HTML and metadata.
type Result struct {
	HTML        string
	FinalURL    string // URL after following redirects
	StatusCode  int    // 0 for browser fetches
	UsedBrowser bool
	FetchTime   time.Duration
}

// Options configures the fetcher behavior.
type Options struct {
	UserAgent      string
	TimeoutSeconds int
	ChromePath     string // empty = auto-detect
	Mode           Mode
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		UserAgent:      chromeUserAgent,
		TimeoutSeconds: 30,
		Mode:           ModeHTTP,
	}
}

const chromeUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// maxBody caps how much of a response is read.
const maxBody int64 = 32 << 20

// Fetcher retrieves pages according to its Options.
type Fetcher struct {
	opts    Options
	client  *http.Client
	logger  *slog.Logger
	maxBody int64
}

// New returns a Fetcher. Zero fields in o fall back to DefaultOptions.
func New(o Options, logger *slog.Logger) *Fetcher {
	def := DefaultOptions()
	if o.UserAgent == "" {
		o.UserAgent = def.UserAgent
	}
	if o.TimeoutSeconds <= 0 {
		o.TimeoutSeconds = def.TimeoutSeconds
	}
	if o.Mode == "" {
		o.Mode = def.Mode
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{
		opts:    o,
		client:  &http.Client{Timeout: time.Duration(o.TimeoutSeconds) * time.Second},
		logger:  logger,
		maxBody: maxBody,
	}
}

// Options returns the effective options.
func (f *Fetcher) Options() Options {
	return f.opts
}

// Timeout returns the per-request timeout.
func (f *Fetcher) Timeout() time.Duration {
	return time.Duration(f.opts.TimeoutSeconds) * time.Second
}

// Fetch retrieves targetURL using the configured mode. The URL must be
// absolute; callers resolve user input first.
func (f *Fetcher) Fetch(ctx context.Context, targetURL string) (*Result, error) {
	switch f.opts.Mode {
	case ModeBrowser:
		return f.WithBrowser(ctx, targetURL)
	case ModeAuto:
		return f.auto(ctx, targetURL)
	case ModeHTTP:
		return f.Simple(ctx, targetURL)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownMode, f.opts.Mode)
}

// auto fetches over HTTP and switches to the browser when the body is a bot
// challenge. Challenges usually arrive with a 403 or 503, so the response is
// inspected before its status is checked.
func (f *Fetcher) auto(ctx context.Context, targetURL string) (*Result, error) {
	result, contentType, err := f.get(ctx, targetURL)
	if err != nil {
		return nil, err
	}
	blocked, reason := IsBlockedResponse(result.HTML)
	if !blocked {
		if err := checkResponse(targetURL, result.StatusCode, contentType); err != nil {
			return nil, err
		}
		return result, nil
	}

	f.logger.Info("challenge page detected, rendering in browser", "url", targetURL, "reason", reason)
	rendered, err := f.WithBrowser(ctx, targetURL)
	if err != nil {
		f.logger.Warn("browser fallback failed", "url", targetURL, "error", err)
		if cerr := checkResponse(targetURL, result.StatusCode, contentType); cerr != nil {
			return nil, cerr
		}
		return result, nil
	}
	return rendered, nil
}

// Simple fetches a URL using standard HTTP. A status outside 200-399 yields
// an *HTTPStatusError and a body that is not HTML, XML or text yields an
// *UnsupportedContentTypeError.
func (f *Fetcher) Simple(ctx context.Context, targetURL string) (*Result, error) {
	result, contentType, err := f.get(ctx, targetURL)
	if err != nil {
		return nil, err
	}
	if err := checkResponse(targetURL, result.StatusCode, contentType); err != nil {
		return nil, err
	}
	return result, nil
}

// get performs the GET and reads the body whatever the status.
func (f *Fetcher) get(ctx context.Context, targetURL string) (*Result, string, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetching %s: %w", targetURL, err)
	}
	defer resp.Body.Close()

	contentType := resp.Header.Get("Content-Type")
	body, truncated, err := decodeBody(resp.Body, contentType, f.maxBody)
	if err != nil {
		return nil, "", fmt.Errorf("reading response: %w", err)
	}
	if truncated {
		f.logger.Warn("response body truncated", "url", targetURL, "limit_bytes", f.maxBody)
	}

	result := &Result{
		HTML:       body,
		FinalURL:   resp.Request.URL.String(),
		StatusCode: resp.StatusCode,
		FetchTime:  time.Since(start),
	}
	f.logger.Debug("http fetch",
		"url", targetURL,
		"final_url", result.FinalURL,
		"status", resp.StatusCode,
		"content_type", contentType,
		"bytes", len(body),
		"elapsed", result.FetchTime)
	return result, contentType, nil
}

// HTTPStatusError reports a response whose status is not 2xx or 3xx.
type HTTPStatusError struct {
	URL        string
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("HTTP %d %s fetching %s", e.StatusCode, http.StatusText(e.StatusCode), e.URL)
}

// UnsupportedContentTypeError reports a response that is not a page, such as
// JSON or an image.
type UnsupportedContentTypeError struct {
	URL         string
	ContentType string
}

func (e *UnsupportedContentTypeError) Error() string {
	return fmt.Sprintf("unsupported content type %q fetching %s", e.ContentType, e.URL)
}

func checkResponse(targetURL string, status int, contentType string) error {
	if status < 200 || status >= 400 {
		return &HTTPStatusError{URL: targetURL, StatusCode: status}
	}
	if !isMarkup(contentType) {
		return &UnsupportedContentTypeError{URL: targetURL, ContentType: contentType}
	}
	return nil
}

// isMarkup accepts text/*, any application/...xml type and a missing header.
func isMarkup(contentType string) bool {
	if strings.TrimSpace(contentType) == "" {
		return true
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return strings.HasPrefix(mt, "text/") ||
		(strings.HasPrefix(mt, "application/") && strings.HasSuffix(mt, "xml"))
}

// decodeBody reads at most limit bytes and converts them to UTF-8 using the
// Content-Type header or, failing that, the document's meta tags. It reports
// whether the body was cut at limit.
func decodeBody(body io.Reader, contentType string, limit int64) (string, bool, error) {
	raw, err := io.ReadAll(io.LimitReader(body, limit+1))
	if err != nil {
		return "", false, err
	}
	truncated := int64(len(raw)) > limit
	if truncated {
		raw = raw[:limit]
	}
	if len(raw) == 0 {
		return "", false, nil
	}
	r, err := charset.NewReader(bytes.NewReader(raw), contentType)
	if err != nil {
		return string(raw), truncated, nil
	}
	decoded, err := io.ReadAll(r)
	if err != nil {
		return string(raw), truncated, nil
	}
	return string(decoded), truncated, nil
}

// userDataDir returns a persistent directory for Chrome user data so that
// cookies survive between fetches.
func userDataDir() string {
	dir, _ := os.UserCacheDir()
	return filepath.Join(dir, "scraper-chrome-profile")
}

// stealthScript masks the most common automation checks.
const stealthScript = `
Object.defineProperty(navigator, 'webdriver', { get: () => undefined });
window.chrome = { runtime: {}, loadTimes: function() {}, csi: function() {}, app: {} };
Object.defineProperty(navigator, 'languages', { get: () => ['en-US', 'en'] });
`

// WithBrowser renders a URL in headless Chrome and returns the outer HTML of
// the document element after scripts have run.
func (f *Fetcher) WithBrowser(ctx context.Context, targetURL string) (*Result, error) {
	start := time.Now()

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(f.opts.UserAgent),
		chromedp.WindowSize(1920, 1080),
		chromedp.UserDataDir(userDataDir()),
	)
	if f.opts.ChromePath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(f.opts.ChromePath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	defer allocCancel()

	// browser fetches get extra time for startup and scripts
	timeout := f.Timeout() + 15*time.Second
	tctx, cancel := context.WithTimeout(allocCtx, timeout)
	defer cancel()

	bctx, cancel := chromedp.NewContext(tctx)
	defer cancel()

	var markup, finalURL string
	err := chromedp.Run(bctx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(stealthScript).Do(ctx)
			return err
		}),
		network.SetExtraHTTPHeaders(network.Headers(map[string]any{
			"Accept-Language": "en-US,en;q=0.9",
		})),
		chromedp.Navigate(targetURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var title string
			if err := chromedp.Title(&title).Do(ctx); err != nil {
				return nil
			}
			if title == "Just a moment..." {
				return chromedp.Sleep(5 * time.Second).Do(ctx)
			}
			return nil
		}),
		chromedp.OuterHTML("html", &markup, chromedp.ByQuery),
		chromedp.Location(&finalURL),
	)
	if err != nil {
		return nil, fmt.Errorf("browser fetch %s: %w", targetURL, err)
	}

	result := &Result{
		HTML:        markup,
		FinalURL:    finalURL,
		UsedBrowser: true,
		FetchTime:   time.Since(start),
	}
	f.logger.Debug("browser fetch",
		"url", targetURL,
		"final_url", finalURL,
		"bytes", len(markup),
		"elapsed", result.FetchTime)
	return result, nil
}

// IsBlockedResponse reports whether the HTML looks like a bot challenge
// rather than the page itself, and names the protection if so.
func IsBlockedResponse(html string) (bool, string) {
	switch {
	case strings.Contains(html, "unusual traffic from your computer"),
		strings.Contains(html, "detected unusual traffic"):
		return true, "Google CAPTCHA"
	case strings.Contains(html, "recaptcha") && len(html) < 10000:
		return true, "reCAPTCHA challenge"
	case strings.Contains(html, "Just a moment..."),
		strings.Contains(html, "Checking your browser"),
		strings.Contains(html, "cf-browser-verification"):
		return true, "Cloudflare challenge"
	case strings.Contains(html, "captcha-delivery.com"), strings.Contains(html, "DataDome"):
		return true, "DataDome bot protection"
	case strings.Contains(html, "akam/") && len(html) < 5000:
		return true, "Akamai bot protection"
	case strings.Contains(html, "perimeterx"), strings.Contains(html, "px-captcha"):
		return true, "PerimeterX bot protection"
	}
	return false, ""
}
