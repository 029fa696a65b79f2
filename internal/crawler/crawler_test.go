package crawler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nao1215/uiscout/internal/model"
)

// htmlHandler writes body as an HTML response.
func htmlHandler(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(body)) //nolint:errcheck
	}
}

// uniquePage returns a page whose interactive shape differs per id.
func uniquePage(id string) string {
	return fmt.Sprintf(`<html><head><title>%s</title></head><body><button id="%s">Go</button></body></html>`, id, id)
}

// linkList returns anchors for /page1 .. /pageN.
func linkList(n int) string {
	var b strings.Builder
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&b, `<a href="/page%d">Page %d</a>`, i, i)
	}
	return b.String()
}

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()

	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("failed to parse %q: %v", raw, err)
	}
	return u
}

// TestResolve tests href resolution rules.
func TestResolve(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		base     string
		href     string
		expected string
	}{
		{"absolute path", "https://a.com/blog", "/post/1", "https://a.com/post/1"},
		{"relative sibling", "https://a.com/docs/page", "sibling", "https://a.com/docs/sibling"},
		{"relative from directory", "https://a.com/docs/", "intro", "https://a.com/docs/intro"},
		{"relative from root without path", "https://a.com", "about", "https://a.com/about"},
		{"protocol relative", "https://a.com/x", "//cdn.a.com/lib.js", "https://cdn.a.com/lib.js"},
		{"protocol relative same host", "http://a.com/x", "//a.com/y", "http://a.com/y"},
		{"already absolute", "https://a.com/x", "https://b.com/x", "https://b.com/x"},
		{"port is kept", "http://127.0.0.1:8080/a/b", "c", "http://127.0.0.1:8080/a/c"},
		{"whitespace is trimmed", "https://a.com/", "  /contact \n", "https://a.com/contact"},
		{"query is kept verbatim", "https://a.com/", "/search?q=go", "https://a.com/search?q=go"},
		{"dot segments are not cleaned", "https://a.com/docs/page", "../up", "https://a.com/docs/../up"},
		{"mailto is treated as absolute", "https://a.com/", "mailto:me@a.com", "mailto:me@a.com"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Resolve(mustParse(t, tt.base), tt.href)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("Resolve(%q, %q) = %q, expected %q", tt.base, tt.href, got, tt.expected)
			}
		})
	}

	t.Run("rejects empty href", func(t *testing.T) {
		t.Parallel()

		if _, err := Resolve(mustParse(t, "https://a.com/"), "   "); err == nil {
			t.Error("expected error for blank href")
		}
	})

	t.Run("rejects unparsable result", func(t *testing.T) {
		t.Parallel()

		if _, err := Resolve(mustParse(t, "https://a.com/"), "/bad%zz"); err == nil {
			t.Error("expected error for invalid escape")
		}
	})
}

// TestSameHost tests the same-domain filter.
func TestSameHost(t *testing.T) {
	t.Parallel()

	base := mustParse(t, "https://a.com/blog")

	tests := []struct {
		name     string
		target   string
		expected bool
	}{
		{"same host", "https://a.com/post/1", true},
		{"different host", "https://b.com/x", false},
		{"subdomain does not match", "https://www.a.com/", false},
		{"scheme is ignored", "http://a.com/", true},
		{"port is ignored", "https://a.com:8443/", true},
		{"host case is ignored", "https://A.COM/", true},
		{"no host", "mailto:me@a.com", false},
		{"unparsable", "https://a.com/%zz", false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := SameHost(base, tt.target); got != tt.expected {
				t.Errorf("SameHost(%q) = %v, expected %v", tt.target, got, tt.expected)
			}
		})
	}
}

// TestMatchPattern tests glob pattern matching for URL paths.
func TestMatchPattern(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		pattern string
		path    string
		want    bool
	}{
		{"admin prefix match", "/admin/*", "/admin/dashboard", true},
		{"admin prefix exact", "/admin/*", "/admin", true},
		{"admin prefix no match", "/admin/*", "/user/profile", false},
		{"admin prefix partial no match", "/admin/*", "/administrator", false},
		{"nested admin", "/admin/*", "/admin/users/edit", true},
		{"pdf extension", "*.pdf", "/docs/file.pdf", true},
		{"pdf extension no match", "*.pdf", "/docs/file.txt", false},
		{"exact match", "/logout", "/logout", true},
		{"exact no match", "/logout", "/login", false},
		{"wildcard middle", "/api/v?/users", "/api/v1/users", true},
		{"wildcard middle no match", "/api/v?/users", "/api/v10/users", false},
		{"bare file pattern", "report-*", "/files/report-2024", true},
		{"root path", "/", "/", true},
		{"malformed pattern", "/[", "/[", false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := matchPattern(tt.pattern, tt.path)
			if got != tt.want {
				t.Errorf("matchPattern(%q, %q) = %v, want %v", tt.pattern, tt.path, got, tt.want)
			}
		})
	}
}

// TestPathFilter tests ignore and follow pattern precedence.
func TestPathFilter(t *testing.T) {
	t.Parallel()

	t.Run("zero value allows all", func(t *testing.T) {
		t.Parallel()

		if !(PathFilter{}).Allows("https://a.com/any/path") {
			t.Error("expected all URLs to be allowed when no patterns set")
		}
	})

	t.Run("ignore takes precedence over follow", func(t *testing.T) {
		t.Parallel()

		f := PathFilter{Ignore: []string{"/docs/private/*"}, Follow: []string{"/docs/*"}}
		if !f.Allows("https://a.com/docs/intro") {
			t.Error("expected /docs/intro to be followed")
		}
		if f.Allows("https://a.com/docs/private/keys") {
			t.Error("expected /docs/private/keys to be ignored")
		}
		if f.Allows("https://a.com/blog") {
			t.Error("expected /blog to be rejected by follow patterns")
		}
	})

	t.Run("empty path treated as root", func(t *testing.T) {
		t.Parallel()

		f := PathFilter{Follow: []string{"/"}}
		if !f.Allows("https://a.com") {
			t.Error("expected empty path to match root")
		}
	})
}

// TestSpiderCrawl tests the crawl orchestration end to end.
func TestSpiderCrawl(t *testing.T) {
	t.Parallel()

	t.Run("follows same-host links in discovery order", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("/", htmlHandler(`<html><head><title>Home</title></head><body>`+
			`<a href="/page2">2</a><a href="page1">1</a><a href="/page2">again</a></body></html>`))
		mux.HandleFunc("/page1", htmlHandler(uniquePage("one")))
		mux.HandleFunc("/page2", htmlHandler(uniquePage("two")))

		server := httptest.NewServer(mux)
		defer server.Close()

		spider := NewSpider(server.Client())
		pages, err := spider.Crawl(context.Background(), server.URL+"/", 5)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(pages) != 3 {
			t.Fatalf("expected 3 pages, got %d", len(pages))
		}
		if pages[0].Title != "Home" || pages[0].Path != "/" {
			t.Errorf("unexpected seed page: %+v", pages[0])
		}
		if pages[1].Path != "/page2" || pages[2].Path != "/page1" {
			t.Errorf("unexpected order: %s, %s", pages[1].Path, pages[2].Path)
		}
		if pages[1].Fingerprint == "" || pages[1].StatusCode != http.StatusOK {
			t.Errorf("page not fully populated: %+v", pages[1])
		}
	})

	t.Run("budget of one fetches only the seed", func(t *testing.T) {
		t.Parallel()

		var secondary atomic.Int32
		mux := http.NewServeMux()
		mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/" {
				secondary.Add(1)
				htmlHandler(uniquePage(r.URL.Path))(w, r)
				return
			}
			htmlHandler(`<html><body>` + linkList(50) + `</body></html>`)(w, r)
		})

		server := httptest.NewServer(mux)
		defer server.Close()

		report := model.NewCrawlReport(server.URL, 1)
		if err := NewSpider(server.Client()).Run(context.Background(), report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(report.Pages) != 1 {
			t.Errorf("expected 1 page, got %d", len(report.Pages))
		}
		if secondary.Load() != 0 {
			t.Errorf("expected zero secondary fetches, got %d", secondary.Load())
		}
		if report.Stats.Candidates != 50 {
			t.Errorf("expected 50 candidates, got %d", report.Stats.Candidates)
		}
	})

	t.Run("large budget is capped at twenty secondary pages", func(t *testing.T) {
		t.Parallel()

		var secondary atomic.Int32
		mux := http.NewServeMux()
		mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/" {
				secondary.Add(1)
				htmlHandler(uniquePage(strings.TrimPrefix(r.URL.Path, "/")))(w, r)
				return
			}
			htmlHandler(`<html><body>` + linkList(30) + `</body></html>`)(w, r)
		})

		server := httptest.NewServer(mux)
		defer server.Close()

		pages, err := NewSpider(server.Client()).Crawl(context.Background(), server.URL, 100)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(pages) != 1+MaxSecondaryPages {
			t.Errorf("expected %d pages, got %d", 1+MaxSecondaryPages, len(pages))
		}
		if int(secondary.Load()) != MaxSecondaryPages {
			t.Errorf("expected %d secondary fetches, got %d", MaxSecondaryPages, secondary.Load())
		}
	})

	t.Run("cap counts failed and duplicate attempts", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("/", htmlHandler(`<html><body><a href="/missing">x</a><a href="/dup">y</a><a href="/good">z</a></body></html>`))
		mux.HandleFunc("/missing", http.NotFound)
		mux.HandleFunc("/dup", htmlHandler(`<html><body><a href="/missing">a</a><a href="/dup">b</a><a href="/good">c</a></body></html>`))
		mux.HandleFunc("/good", htmlHandler(uniquePage("good")))

		server := httptest.NewServer(mux)
		defer server.Close()

		report := model.NewCrawlReport(server.URL, 3)
		if err := NewSpider(server.Client()).Run(context.Background(), report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(report.Pages) != 1 {
			t.Errorf("expected only the seed, got %d pages", len(report.Pages))
		}
		if report.Stats.Attempted != 2 || report.Stats.Failed != 1 || report.Stats.Duplicates != 1 {
			t.Errorf("unexpected stats: %+v", report.Stats)
		}
	})

	t.Run("duplicate pages are suppressed", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("/", htmlHandler(`<html><head><title>Home</title></head><body><a href="/copy">Read more</a></body></html>`))
		mux.HandleFunc("/copy", htmlHandler(`<html><head><title>Copy</title></head><body><a href="/elsewhere">Different words</a></body></html>`))

		server := httptest.NewServer(mux)
		defer server.Close()

		pages, err := NewSpider(server.Client()).Crawl(context.Background(), server.URL, 10)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(pages) != 1 {
			t.Fatalf("expected 1 page, got %d", len(pages))
		}
		if pages[0].Title != "Home" {
			t.Errorf("expected the seed page, got %q", pages[0].Title)
		}
	})

	t.Run("seed 404 is fatal", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.NotFoundHandler())
		defer server.Close()

		pages, err := NewSpider(server.Client()).Crawl(context.Background(), server.URL, 5)
		if err == nil {
			t.Fatal("expected error")
		}
		if pages != nil {
			t.Errorf("expected no pages, got %d", len(pages))
		}

		var statusErr *StatusError
		if !errors.As(err, &statusErr) {
			t.Fatalf("expected StatusError, got %T: %v", err, err)
		}
		if statusErr.StatusCode != http.StatusNotFound {
			t.Errorf("expected 404, got %d", statusErr.StatusCode)
		}
	})

	t.Run("seed network failure is fatal", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.NotFoundHandler())
		seed := server.URL
		server.Close()

		if _, err := NewSpider(http.DefaultClient).Crawl(context.Background(), seed, 5); err == nil {
			t.Error("expected error for unreachable seed")
		}
	})

	t.Run("secondary failures are skipped", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("/", htmlHandler(`<html><body><a href="/broken">b</a><a href="/ok">o</a></body></html>`))
		mux.HandleFunc("/broken", func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		})
		mux.HandleFunc("/ok", htmlHandler(uniquePage("ok")))

		server := httptest.NewServer(mux)
		defer server.Close()

		report := model.NewCrawlReport(server.URL, 5)
		if err := NewSpider(server.Client()).Run(context.Background(), report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(report.Pages) != 2 || report.Pages[1].Path != "/ok" {
			t.Errorf("expected seed and /ok, got %d pages", len(report.Pages))
		}
		if report.Stats.Failed != 1 || report.Stats.Admitted != 1 {
			t.Errorf("unexpected stats: %+v", report.Stats)
		}
	})

	t.Run("other hosts and path patterns are filtered", func(t *testing.T) {
		t.Parallel()

		var requested atomic.Int32
		mux := http.NewServeMux()
		mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/" {
				requested.Add(1)
			}
			htmlHandler(`<html><body>` +
				`<a href="https://other.example/x">ext</a>` +
				`<a href="javascript:void(0)">js</a>` +
				`<a href="/admin/panel">admin</a>` +
				`<a href="">empty</a>` +
				`</body></html>`)(w, r)
		})

		server := httptest.NewServer(mux)
		defer server.Close()

		report := model.NewCrawlReport(server.URL, 5)
		spider := NewSpider(server.Client(), WithIgnorePatterns([]string{"/admin/*"}))
		if err := spider.Run(context.Background(), report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if requested.Load() != 0 {
			t.Errorf("expected no secondary fetches, got %d", requested.Load())
		}
		if report.Stats.Candidates != 0 || report.Stats.Filtered != 3 {
			t.Errorf("unexpected stats: %+v", report.Stats)
		}
	})

	t.Run("sends configured user agent", func(t *testing.T) {
		t.Parallel()

		var got atomic.Value
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got.Store(r.Header.Get("User-Agent"))
			htmlHandler(`<html></html>`)(w, r)
		}))
		defer server.Close()

		spider := NewSpider(server.Client(), WithUserAgent("uiscout-test/1.0"))
		if _, err := spider.Crawl(context.Background(), server.URL, 1); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ua, _ := got.Load().(string); ua != "uiscout-test/1.0" {
			t.Errorf("expected custom user agent, got %q", ua)
		}
	})

	t.Run("decodes legacy charsets", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
			_, _ = w.Write([]byte("<html><head><title>Caf\xe9</title></head></html>")) //nolint:errcheck
		}))
		defer server.Close()

		pages, err := NewSpider(server.Client()).Crawl(context.Background(), server.URL, 1)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if pages[0].Title != "Café" {
			t.Errorf("expected decoded title, got %q", pages[0].Title)
		}
	})

	t.Run("cancellation returns no pages", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
			htmlHandler(`<html></html>`)(w, r)
		}))
		defer server.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()

		pages, err := NewSpider(server.Client()).Crawl(ctx, server.URL, 5)
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("expected deadline exceeded, got %v", err)
		}
		if pages != nil {
			t.Errorf("expected no pages, got %d", len(pages))
		}
	})

	t.Run("delay spaces out fetches", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("/", htmlHandler(`<html><body>`+linkList(2)+`</body></html>`))
		mux.HandleFunc("/page1", htmlHandler(uniquePage("p1")))
		mux.HandleFunc("/page2", htmlHandler(uniquePage("p2")))

		server := httptest.NewServer(mux)
		defer server.Close()

		start := time.Now()
		pages, err := NewSpider(server.Client(), WithDelay(30*time.Millisecond)).Crawl(context.Background(), server.URL, 3)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(pages) != 3 {
			t.Fatalf("expected 3 pages, got %d", len(pages))
		}
		if elapsed := time.Since(start); elapsed < 60*time.Millisecond {
			t.Errorf("expected at least 60ms between three fetches, took %v", elapsed)
		}
	})
}

// TestSpiderCrawlValidation tests input validation.
func TestSpiderCrawlValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		seed   string
		budget int
		want   error
	}{
		{"missing seed", "", 5, ErrMissingSeedURL},
		{"relative seed", "/just/a/path", 5, ErrInvalidSeedURL},
		{"unsupported scheme", "ftp://a.com/", 5, ErrInvalidSeedURL},
		{"unparsable seed", "http://a b.com/%zz", 5, ErrInvalidSeedURL},
		{"zero budget", "https://a.com/", 0, ErrInvalidBudget},
	}

	spider := NewSpider(http.DefaultClient)
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			pages, err := spider.Crawl(context.Background(), tt.seed, tt.budget)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
			if pages != nil {
				t.Error("expected no pages")
			}
			if !IsSeedError(err) {
				t.Error("expected IsSeedError to be true")
			}
		})
	}
}

// TestSpiderSnapshot tests single-page analysis.
func TestSpiderSnapshot(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		htmlHandler(`<html><head><title>Landing</title></head><body>` +
			`<h1>Hello</h1><a href="/next">next</a><div onclick="go()">x</div>` +
			`</body></html>`)(w, r)
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	page, err := NewSpider(server.Client()).Snapshot(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if hits.Load() != 1 {
		t.Errorf("expected a single fetch, got %d", hits.Load())
	}
	if page.Title != "Landing" {
		t.Errorf("unexpected title %q", page.Title)
	}
	counts := page.CountByKind()
	if counts[model.KindHeading] != 1 || counts[model.KindLink] != 1 || counts[model.KindButton] != 0 {
		t.Errorf("unexpected counts: %v", counts)
	}
}
