package model

import (
	"net/url"
	"time"
)

// Page represents one fetched and analyzed URL.
//
// Design decision: We keep the fingerprint on the page itself because:
// 1. The crawler needs it for duplicate suppression
// 2. The history database stores it for change detection between crawls
// 3. Reports can show which pages share an interactive shape
type Page struct {
	// URL is the absolute URL that was fetched.
	URL string `json:"url"`

	// Path is the URL path component, "/" when empty.
	Path string `json:"path"`

	// Title is the trimmed document title. May be empty.
	Title string `json:"title"`

	// Elements holds the extracted interactive elements in extraction pass
	// order. The slice is never modified after the page is built.
	Elements []Element `json:"elements"`

	// Fingerprint is the structural hash of Elements.
	Fingerprint string `json:"fingerprint,omitempty"`

	// StatusCode is the HTTP status of the response.
	StatusCode int `json:"statusCode,omitempty"`

	// ContentType is the Content-Type header of the response.
	ContentType string `json:"contentType,omitempty"`

	// FetchedAt is when the response was received.
	FetchedAt time.Time `json:"fetchedAt,omitzero"`
}

// PathOf returns the path component of rawURL, "/" when empty or unparsable.
func PathOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Path == "" {
		return "/"
	}
	return u.Path
}

// Links returns the link elements of the page in document order.
func (p *Page) Links() []Element {
	return p.ElementsOfKind(KindLink)
}

// ElementsOfKind returns the elements with the given kind, preserving order.
func (p *Page) ElementsOfKind(kind Kind) []Element {
	result := make([]Element, 0)
	for _, e := range p.Elements {
		if e.Kind == kind {
			result = append(result, e)
		}
	}
	return result
}

// CountByKind returns the number of elements per kind.
func (p *Page) CountByKind() map[Kind]int {
	counts := make(map[Kind]int)
	for _, e := range p.Elements {
		counts[e.Kind]++
	}
	return counts
}
