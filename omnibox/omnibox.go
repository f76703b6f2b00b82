// Package omnibox turns what was typed into the URL field into a URL the
// fetcher can request.
package omnibox

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var (
	// ErrEmpty is returned for blank input.
	ErrEmpty = errors.New("no URL given")

	// ErrNotURL is returned for input that does not look like a web address.
	ErrNotURL = errors.New("not a URL")

	// ErrUnsupportedScheme is returned for schemes other than http and https.
	ErrUnsupportedScheme = errors.New("only http and https URLs can be fetched")
)

// Resolve returns input as an absolute http(s) URL.
//
//	https://example.com/a   unchanged
//	example.com/a           https://example.com/a
//	localhost:8080          http://localhost:8080
//	127.0.0.1/x             http://127.0.0.1/x
func Resolve(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", ErrEmpty
	}
	if strings.ContainsAny(input, " \t\n") {
		return "", fmt.Errorf("%w: %q", ErrNotURL, input)
	}

	if strings.Contains(input, "://") {
		return check(input)
	}
	if isLocal(input) {
		return check("http://" + input)
	}
	if looksLikeHost(input) {
		return check("https://" + input)
	}
	return "", fmt.Errorf("%w: %q", ErrNotURL, input)
}

func check(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNotURL, err)
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%w: missing host in %q", ErrNotURL, raw)
	}
	return u.String(), nil
}

func hostPart(input string) string {
	host := input
	if i := strings.IndexAny(host, "/?#"); i >= 0 {
		host = host[:i]
	}
	if i := strings.LastIndex(host, ":"); i >= 0 && !strings.HasSuffix(host, "]") {
		host = host[:i]
	}
	return strings.ToLower(host)
}

func isLocal(input string) bool {
	host := hostPart(input)
	return host == "localhost" || strings.HasPrefix(host, "127.") || host == "[::1]"
}

// looksLikeHost reports whether the part before any path has a dot that is
// neither leading nor trailing, e.g. "example.com" or "10.0.0.2".
func looksLikeHost(input string) bool {
	host := hostPart(input)
	i := strings.Index(host, ".")
	return i > 0 && !strings.HasSuffix(host, ".")
}
