package crawler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/nao1215/uiscout/internal/extract"
	"github.com/nao1215/uiscout/internal/fingerprint"
	"github.com/nao1215/uiscout/internal/model"
	"golang.org/x/net/html/charset"
)

// fetchPage downloads pageURL and analyzes it with x.
// Any response outside 2xx is returned as a *StatusError.
func (s *Spider) fetchPage(ctx context.Context, pageURL string, x *extract.Extractor) (*model.Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{URL: pageURL, StatusCode: resp.StatusCode}
	}

	contentType := resp.Header.Get("Content-Type")
	body, err := charset.NewReader(io.LimitReader(resp.Body, s.maxBodySize), contentType)
	if err != nil {
		return nil, fmt.Errorf("failed to decode body: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	elements := x.Extract(doc)
	return &model.Page{
		URL:         pageURL,
		Path:        model.PathOf(pageURL),
		Title:       extract.Title(doc),
		Elements:    elements,
		Fingerprint: fingerprint.Of(elements),
		StatusCode:  resp.StatusCode,
		ContentType: contentType,
		FetchedAt:   time.Now(),
	}, nil
}
