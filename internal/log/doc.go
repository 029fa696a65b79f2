// Package log provides secure logging for uiscout, built on top of the
// standard slog package.
//
// Site configurations may carry Authorization headers and session cookies
// for password-protected or staging sites, and seed URLs sometimes embed
// credentials or access tokens. The SecureHandler masks such values before
// they reach any output:
//   - Attributes named like secrets (authorization, cookie, token, ...)
//   - Values that look like bearer tokens, JWTs or well-known API keys
//   - URL passwords and sensitive query parameters, keeping the rest of the URL
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	slog.SetDefault(logger)
package log
