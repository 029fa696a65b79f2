package crawler

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for crawl input validation.
var (
	// ErrMissingSeedURL is returned when no seed URL is given.
	ErrMissingSeedURL = errors.New("seed URL is required")

	// ErrInvalidSeedURL is returned when the seed URL is not an absolute
	// http or https URL.
	ErrInvalidSeedURL = errors.New("invalid seed URL")

	// ErrInvalidBudget is returned when the page budget is below 1.
	ErrInvalidBudget = errors.New("page budget must be at least 1")
)

// StatusError reports a response outside the 2xx range.
type StatusError struct {
	// URL is the requested URL.
	URL string

	// StatusCode is the HTTP status returned by the server.
	StatusCode int
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d %s for %s", e.StatusCode, http.StatusText(e.StatusCode), e.URL)
}
