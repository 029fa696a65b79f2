package crawler

import (
	"net/url"
	"path"
	"strings"
)

// PathFilter decides whether a same-host URL is worth fetching based on its
// path. The zero value admits everything.
type PathFilter struct {
	// Ignore patterns reject matching paths.
	// Patterns use glob syntax (e.g., "/admin/*", "*.pdf", "/logout*").
	Ignore []string

	// Follow patterns, when set, restrict crawling to matching paths.
	Follow []string
}

// Allows reports whether targetURL passes the filter.
//
// Logic:
//  1. If the path matches any Ignore pattern, reject it
//  2. If Follow is set and the path matches none, reject it
//  3. Otherwise, admit it
func (f PathFilter) Allows(targetURL string) bool {
	u, err := url.Parse(targetURL)
	if err != nil {
		return false
	}

	p := u.Path
	if p == "" {
		p = "/"
	}

	for _, pattern := range f.Ignore {
		if matchPattern(pattern, p) {
			return false
		}
	}

	if len(f.Follow) > 0 {
		for _, pattern := range f.Follow {
			if matchPattern(pattern, p) {
				return true
			}
		}
		return false
	}

	return true
}

// matchPattern checks if a path matches a glob pattern.
// Patterns can use:
//   - * to match any sequence of non-separator characters
//   - ? to match any single character
//   - a trailing /* to match everything below a directory
//
// Examples:
//   - "/admin/*" matches "/admin/dashboard", "/admin/users/42"
//   - "*.pdf" matches "/docs/file.pdf"
//   - "/api/v?" matches "/api/v1", "/api/v2"
func matchPattern(pattern, urlPath string) bool {
	if strings.HasSuffix(pattern, "/*") {
		prefix := strings.TrimSuffix(pattern, "/*")
		if strings.HasPrefix(urlPath, prefix+"/") || urlPath == prefix {
			return true
		}
	}

	if strings.HasPrefix(pattern, "*.") {
		ext := strings.TrimPrefix(pattern, "*")
		if strings.HasSuffix(urlPath, ext) {
			return true
		}
	}

	matched, err := path.Match(pattern, urlPath)
	if err != nil {
		return false
	}
	if matched {
		return true
	}

	// Bare file patterns such as "report-*" apply to the last segment.
	if strings.Contains(pattern, "*") && !strings.Contains(pattern, "/") {
		matched, err := path.Match(pattern, path.Base(urlPath))
		if err == nil && matched {
			return true
		}
	}

	return false
}
