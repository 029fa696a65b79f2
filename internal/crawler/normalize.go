package crawler

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// errEmptyHref is returned by Resolve for blank hrefs.
var errEmptyHref = errors.New("empty href")

// schemePattern matches an RFC 3986 scheme prefix such as "https:" or "mailto:".
var schemePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.\-]*:`)

// Resolve turns a raw href found on the page at base into an absolute URL.
//
// Rules, applied in order:
//  1. "//host/path" takes the scheme of base
//  2. "/path" takes the origin of base
//  3. an href with a scheme is used as is
//  4. anything else is appended to the directory of base's path
//
// The joined string is then parsed; a parse failure rejects the href.
// Dot segments and query strings are kept verbatim, so two spellings of
// the same target stay distinct.
func Resolve(base *url.URL, href string) (string, error) {
	href = strings.TrimSpace(href)
	if href == "" {
		return "", errEmptyHref
	}

	origin := base.Scheme + "://" + base.Host

	var full string
	switch {
	case strings.HasPrefix(href, "//"):
		full = base.Scheme + ":" + href
	case strings.HasPrefix(href, "/"):
		full = origin + href
	case schemePattern.MatchString(href):
		full = href
	default:
		full = origin + directoryOf(base.EscapedPath()) + href
	}

	if _, err := url.Parse(full); err != nil {
		return "", fmt.Errorf("failed to parse resolved URL %q: %w", full, err)
	}
	return full, nil
}

// directoryOf returns path up to and including its last slash.
// An empty path is treated as "/".
func directoryOf(path string) string {
	i := strings.LastIndex(path, "/")
	if i < 0 {
		return "/"
	}
	return path[:i+1]
}

// SameHost reports whether rawURL has the same hostname as base.
// Ports and schemes are ignored; subdomains do not match.
func SameHost(base *url.URL, rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return u.Hostname() != "" && strings.EqualFold(u.Hostname(), base.Hostname())
}

// candidateSet is an insertion-ordered set of URLs.
// It is owned by a single crawl and is not safe for concurrent use.
type candidateSet struct {
	seen  map[string]bool
	order []string
}

func newCandidateSet(exclude ...string) *candidateSet {
	c := &candidateSet{seen: make(map[string]bool)}
	for _, u := range exclude {
		c.seen[u] = true
	}
	return c
}

// add inserts u and reports whether it was new.
func (c *candidateSet) add(u string) bool {
	if c.seen[u] {
		return false
	}
	c.seen[u] = true
	c.order = append(c.order, u)
	return true
}

func (c *candidateSet) list() []string {
	return c.order
}
