// Package httpclient builds the HTTP clients used for crawling.
//
// Every client carries an explicit per-request timeout, a cookie jar and a
// redirect limit. When a SOCKS5 proxy address is configured, all
// connections are dialed through it using golang.org/x/net/proxy, which
// also makes it possible to crawl through a locally running Tor daemon.
//
// Site-specific headers and cookies are injected by a wrapping
// RoundTripper so they also apply to redirected requests.
//
// The package is designed to be used with dependency injection: create a
// Client and pass the resulting *http.Client to the crawler rather than
// using global state.
package httpclient
