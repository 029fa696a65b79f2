package database

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/nao1215/uiscout/internal/model"
)

// setupTestDB creates a temporary database for testing.
func setupTestDB(t *testing.T) *CrawlDB {
	t.Helper()

	db, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return db
}

// sampleReport builds a finished report with one page per path.
func sampleReport(seed string, started time.Time, paths ...string) *model.CrawlReport {
	report := model.NewCrawlReport(seed, 21)
	report.StartedAt = started
	report.FinishedAt = started.Add(1500 * time.Millisecond)
	for _, p := range paths {
		report.Pages = append(report.Pages, &model.Page{
			URL:         seed + p,
			Path:        p,
			Title:       "Title " + p,
			Fingerprint: "fp" + p,
			Elements: []model.Element{
				{Kind: model.KindButton, Selector: "#buy", Text: "Buy"},
				{Kind: model.KindLink, Selector: "a.nav", Detail: model.LinkDetail{Href: "/about"}},
			},
		})
	}
	report.Summary = model.NewKindSummary(report.Pages)
	return report
}

// TestOpen tests database opening and creation.
func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database in new directory", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "newdir", "subdir")
		db, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		if _, err := os.Stat(filepath.Join(dbDir, "uiscout.db")); os.IsNotExist(err) {
			t.Error("database file was not created")
		}
		if db.Path() != filepath.Join(dbDir, "uiscout.db") {
			t.Errorf("unexpected path %q", db.Path())
		}
	})

	t.Run("CreateIfNotExists=false fails for missing database", func(t *testing.T) {
		t.Parallel()

		_, err := Open(t.TempDir(), Options{CreateIfNotExists: false})
		if err == nil {
			t.Error("expected error for missing database")
		}
	})

	t.Run("CreateIfNotExists=false opens existing database", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		db, err := Open(dir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		db.Close()

		db, err = Open(dir, Options{CreateIfNotExists: false})
		if err != nil {
			t.Fatalf("failed to reopen database: %v", err)
		}
		db.Close()
	})
}

// TestSaveAndLoadCrawlReport tests the report round trip.
func TestSaveAndLoadCrawlReport(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()
	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	report := sampleReport("https://shop.example.com/", started, "", "cart")
	report.Stats = model.CrawlStats{Candidates: 4, Attempted: 1, Admitted: 1}

	id, err := db.SaveCrawlReport(ctx, report)
	if err != nil {
		t.Fatalf("failed to save report: %v", err)
	}
	if id <= 0 {
		t.Fatalf("expected positive id, got %d", id)
	}

	loaded, err := db.GetCrawlReportByID(ctx, id)
	if err != nil {
		t.Fatalf("failed to load report: %v", err)
	}
	if loaded == nil {
		t.Fatal("expected report")
	}

	if loaded.SeedURL != report.SeedURL || len(loaded.Pages) != 2 {
		t.Fatalf("unexpected report: %+v", loaded)
	}
	if loaded.Stats != report.Stats {
		t.Errorf("expected stats %+v, got %+v", report.Stats, loaded.Stats)
	}
	if !loaded.StartedAt.Equal(started) {
		t.Errorf("expected start %v, got %v", started, loaded.StartedAt)
	}

	page := loaded.Pages[1]
	if page.Fingerprint != "fpcart" || len(page.Elements) != 2 {
		t.Fatalf("unexpected page: %+v", page)
	}
	if page.Elements[1].Href() != "/about" {
		t.Errorf("expected link detail to survive, got %q", page.Elements[1].Href())
	}
	if loaded.Summary.Count(model.KindButton) != 2 {
		t.Errorf("unexpected summary: %+v", loaded.Summary)
	}
}

// TestGetCrawlReportByIDMissing tests lookups of unknown IDs.
func TestGetCrawlReportByIDMissing(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	report, err := db.GetCrawlReportByID(context.Background(), 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report != nil {
		t.Errorf("expected nil report, got %+v", report)
	}
}

// TestGetLatestCrawlReports tests history ordering and limits.
func TestGetLatestCrawlReports(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()
	seed := "https://shop.example.com/"
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	for i, paths := range [][]string{{""}, {"", "a"}, {"", "a", "b"}} {
		if _, err := db.SaveCrawlReport(ctx, sampleReport(seed, base.Add(time.Duration(i)*time.Hour), paths...)); err != nil {
			t.Fatalf("failed to save report %d: %v", i, err)
		}
	}
	if _, err := db.SaveCrawlReport(ctx, sampleReport("https://other.example.com/", base, "")); err != nil {
		t.Fatalf("failed to save other report: %v", err)
	}

	t.Run("newest first", func(t *testing.T) {
		t.Parallel()

		reports, err := db.GetLatestCrawlReports(ctx, seed, 2)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(reports) != 2 {
			t.Fatalf("expected 2 reports, got %d", len(reports))
		}
		if len(reports[0].Pages) != 3 || len(reports[1].Pages) != 2 {
			t.Errorf("unexpected order: %d then %d pages", len(reports[0].Pages), len(reports[1].Pages))
		}
	})

	t.Run("unknown seed", func(t *testing.T) {
		t.Parallel()

		reports, err := db.GetLatestCrawlReports(ctx, "https://nowhere.example.com/", 2)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(reports) != 0 {
			t.Errorf("expected no reports, got %d", len(reports))
		}
	})

	t.Run("metadata", func(t *testing.T) {
		t.Parallel()

		history, err := db.GetCrawlHistoryWithMetadata(ctx, seed)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(history) != 3 {
			t.Fatalf("expected 3 entries, got %d", len(history))
		}
		newest := history[0]
		if newest.PageCount != 3 || newest.ElementCount != 6 {
			t.Errorf("unexpected counts: %+v", newest)
		}
		if newest.Duration != 1500*time.Millisecond {
			t.Errorf("expected 1.5s duration, got %v", newest.Duration)
		}
		if !newest.Timestamp.Equal(base.Add(2 * time.Hour)) {
			t.Errorf("unexpected timestamp %v", newest.Timestamp)
		}
	})

	t.Run("list seeds", func(t *testing.T) {
		t.Parallel()

		seeds, err := db.ListCrawledSeeds(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(seeds) != 2 || seeds[0] != "https://other.example.com/" || seeds[1] != seed {
			t.Errorf("unexpected seeds: %v", seeds)
		}
	})
}

// TestConcurrentSaves tests saving from several goroutines, as batch crawls do.
func TestConcurrentSaves(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()
	seed := "https://shop.example.com/"

	var wg sync.WaitGroup
	errs := make(chan error, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := db.SaveCrawlReport(ctx, sampleReport(seed, time.Now(), "")); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("save failed: %v", err)
	}

	history, err := db.GetCrawlHistoryWithMetadata(ctx, seed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(history) != 5 {
		t.Errorf("expected 5 entries, got %d", len(history))
	}
}

// TestParseTimestamp tests the timestamp parser fallbacks.
func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  time.Time
	}{
		{"2026-03-01 10:00:00.250", time.Date(2026, 3, 1, 10, 0, 0, 250_000_000, time.UTC)},
		{"2026-03-01 10:00:00", time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)},
		{"2026-03-01T10:00:00Z", time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)},
		{"not a time", time.Time{}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			if got := parseTimestamp(tt.input); !got.Equal(tt.want) {
				t.Errorf("parseTimestamp(%q) = %v, expected %v", tt.input, got, tt.want)
			}
		})
	}
}
