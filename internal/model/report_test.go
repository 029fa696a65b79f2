package model

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

var errTestCrawl = errors.New("crawl failed")

// TestCrawlReport tests report helpers.
func TestCrawlReport(t *testing.T) {
	t.Parallel()

	t.Run("host is lowercased", func(t *testing.T) {
		t.Parallel()

		r := NewCrawlReport("https://Example.COM/start", 5)
		if got := r.Host(); got != "example.com" {
			t.Errorf("expected example.com, got %q", got)
		}
	})

	t.Run("duration is zero until finished", func(t *testing.T) {
		t.Parallel()

		r := NewCrawlReport("https://example.com", 5)
		if r.Duration() != 0 {
			t.Errorf("expected zero duration, got %v", r.Duration())
		}
		r.FinishedAt = r.StartedAt.Add(3 * time.Second)
		if r.Duration() != 3*time.Second {
			t.Errorf("expected 3s, got %v", r.Duration())
		}
	})

	t.Run("total elements spans pages", func(t *testing.T) {
		t.Parallel()

		r := NewCrawlReport("https://example.com", 5)
		r.Pages = append(r.Pages,
			&Page{Elements: make([]Element, 3)},
			&Page{Elements: make([]Element, 2)},
		)
		if r.TotalElements() != 5 {
			t.Errorf("expected 5, got %d", r.TotalElements())
		}
		if !r.Succeeded() {
			t.Error("expected report to be successful")
		}
	})

	t.Run("report with error did not succeed", func(t *testing.T) {
		t.Parallel()

		r := NewCrawlReport("https://example.com", 5)
		r.ErrorMessage = "boom"
		if r.Succeeded() {
			t.Error("expected report to be unsuccessful")
		}
	})
}

// TestNewKindSummary tests element tallying across pages.
func TestNewKindSummary(t *testing.T) {
	t.Parallel()

	pages := []*Page{
		{Elements: []Element{{Kind: KindLink}, {Kind: KindButton}}},
		{Elements: []Element{{Kind: KindLink}, {Kind: KindForm}}},
	}

	summary := NewKindSummary(pages)

	if summary.Total() != 4 {
		t.Errorf("expected total 4, got %d", summary.Total())
	}
	if summary.Count(KindLink) != 2 {
		t.Errorf("expected 2 links, got %d", summary.Count(KindLink))
	}
	if summary.Count(KindHeading) != 0 {
		t.Errorf("expected 0 headings, got %d", summary.Count(KindHeading))
	}
	// Pass order: button before link before form.
	if len(summary) != 3 || summary[0].Kind != KindButton || summary[2].Kind != KindForm {
		t.Errorf("unexpected summary order: %v", summary)
	}
}

// TestCrawlReportJSON tests the stored report shape.
func TestCrawlReportJSON(t *testing.T) {
	t.Parallel()

	r := NewCrawlReport("https://example.com/", 3)
	r.Pages = append(r.Pages, &Page{
		URL:      "https://example.com/",
		Elements: []Element{{Kind: KindLink, Selector: "a", Detail: LinkDetail{Href: "/about"}}},
	})
	r.Stats.Attempted = 2
	r.Error = errTestCrawl

	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if decoded["seedUrl"] != "https://example.com/" {
		t.Errorf("unexpected seedUrl: %v", decoded["seedUrl"])
	}
	if _, ok := decoded["Error"]; ok {
		t.Error("expected Error to be omitted")
	}
	if _, ok := decoded["timedOut"]; ok {
		t.Error("expected timedOut to be omitted when false")
	}

	var restored CrawlReport
	if err := json.Unmarshal(data, &restored); err != nil {
		t.Fatalf("unmarshal into report failed: %v", err)
	}
	if restored.Pages[0].Elements[0].Href() != "/about" || restored.Stats.Attempted != 2 {
		t.Errorf("unexpected restored report: %+v", restored)
	}
}
