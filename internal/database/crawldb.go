package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/uiscout/internal/model"
)

// dbFileName is the name of the history database inside the data directory.
const dbFileName = "uiscout.db"

// timestampLayout is fixed-width so that timestamps sort as text.
const timestampLayout = "2006-01-02 15:04:05.000"

// CrawlDB provides SQLite-based storage for crawl history.
//
// Design decision: We store each report as one JSON document plus a few
// indexed columns rather than normalizing pages and elements into tables.
// Reports are always read back whole (for compare and rendering), and the
// element shape varies by kind.
type CrawlDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures CrawlDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging. Batch crawls save reports
	// from several goroutines.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a CrawlDB in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*CrawlDB, error) {
	dbPath := filepath.Join(dbDir, dbFileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite: mode=rw refuses to create a missing file.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cdb := &CrawlDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := cdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return cdb, nil
}

// Path returns the database file path.
func (cdb *CrawlDB) Path() string {
	return cdb.dbPath
}

// Close closes the database connection.
func (cdb *CrawlDB) Close() error {
	return cdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (cdb *CrawlDB) createTables() error {
	schema := `
	-- One row per finished crawl; the full report is kept as JSON
	CREATE TABLE IF NOT EXISTS crawl_reports (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		seed_url TEXT NOT NULL,
		host TEXT NOT NULL,
		timestamp TEXT NOT NULL,
		page_count INTEGER NOT NULL,
		element_count INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		report_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_reports_seed ON crawl_reports(seed_url);
	CREATE INDEX IF NOT EXISTS idx_reports_host ON crawl_reports(host);
	CREATE INDEX IF NOT EXISTS idx_reports_timestamp ON crawl_reports(timestamp);
	`

	_, err := cdb.db.ExecContext(context.Background(), schema)
	return err
}

// SaveCrawlReport stores a finished crawl and returns its ID.
func (cdb *CrawlDB) SaveCrawlReport(ctx context.Context, report *model.CrawlReport) (int64, error) {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize report: %w", err)
	}

	query := `
	INSERT INTO crawl_reports (seed_url, host, timestamp, page_count, element_count, duration_ms, report_json)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	res, err := cdb.db.ExecContext(ctx, query,
		report.SeedURL,
		report.Host(),
		report.StartedAt.UTC().Format(timestampLayout),
		len(report.Pages),
		report.TotalElements(),
		report.Duration().Milliseconds(),
		string(reportJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save crawl report: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read report id: %w", err)
	}
	return id, nil
}

// GetLatestCrawlReports returns up to limit reports for seedURL, newest first.
func (cdb *CrawlDB) GetLatestCrawlReports(ctx context.Context, seedURL string, limit int) ([]*model.CrawlReport, error) {
	query := `
	SELECT report_json FROM crawl_reports
	WHERE seed_url = ?
	ORDER BY timestamp DESC, id DESC
	LIMIT ?
	`

	rows, err := cdb.db.QueryContext(ctx, query, seedURL, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get crawl history: %w", err)
	}
	defer rows.Close()

	reports := make([]*model.CrawlReport, 0)
	for rows.Next() {
		var reportJSON string
		if err := rows.Scan(&reportJSON); err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}

		report, err := decodeReport(reportJSON)
		if err != nil {
			continue // Skip malformed reports
		}
		reports = append(reports, report)
	}

	return reports, rows.Err()
}

// ListCrawledSeeds returns every seed URL with at least one stored crawl.
func (cdb *CrawlDB) ListCrawledSeeds(ctx context.Context) ([]string, error) {
	query := `
	SELECT DISTINCT seed_url FROM crawl_reports
	ORDER BY seed_url
	`

	rows, err := cdb.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list seeds: %w", err)
	}
	defer rows.Close()

	seeds := make([]string, 0)
	for rows.Next() {
		var seed string
		if err := rows.Scan(&seed); err != nil {
			return nil, fmt.Errorf("failed to scan seed: %w", err)
		}
		seeds = append(seeds, seed)
	}

	return seeds, rows.Err()
}

// CrawlReportMetadata contains summary information about a stored crawl.
// This is used for listing history without decoding full reports.
type CrawlReportMetadata struct {
	// ID is the unique identifier of the report in the database.
	ID int64

	// SeedURL is the crawled seed.
	SeedURL string

	// Timestamp is when the crawl started.
	Timestamp time.Time

	// PageCount is the number of pages in the result.
	PageCount int

	// ElementCount is the number of elements across all pages.
	ElementCount int

	// Duration is how long the crawl took.
	Duration time.Duration
}

// GetCrawlHistoryWithMetadata returns metadata for every stored crawl of
// seedURL, newest first.
func (cdb *CrawlDB) GetCrawlHistoryWithMetadata(ctx context.Context, seedURL string) ([]CrawlReportMetadata, error) {
	query := `
	SELECT id, seed_url, timestamp, page_count, element_count, duration_ms
	FROM crawl_reports
	WHERE seed_url = ?
	ORDER BY timestamp DESC, id DESC
	`

	rows, err := cdb.db.QueryContext(ctx, query, seedURL)
	if err != nil {
		return nil, fmt.Errorf("failed to get crawl history: %w", err)
	}
	defer rows.Close()

	results := make([]CrawlReportMetadata, 0)
	for rows.Next() {
		var meta CrawlReportMetadata
		var timestamp string
		var durationMS int64

		if err := rows.Scan(&meta.ID, &meta.SeedURL, &timestamp, &meta.PageCount, &meta.ElementCount, &durationMS); err != nil {
			return nil, fmt.Errorf("failed to scan metadata: %w", err)
		}
		meta.Timestamp = parseTimestamp(timestamp)
		meta.Duration = time.Duration(durationMS) * time.Millisecond

		results = append(results, meta)
	}

	return results, rows.Err()
}

// GetCrawlReportByID retrieves a report by its database ID.
// It returns nil and no error when no such report exists.
func (cdb *CrawlDB) GetCrawlReportByID(ctx context.Context, id int64) (*model.CrawlReport, error) {
	query := `
	SELECT report_json FROM crawl_reports
	WHERE id = ?
	`

	var reportJSON string
	err := cdb.db.QueryRowContext(ctx, query, id).Scan(&reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get crawl report: %w", err)
	}

	return decodeReport(reportJSON)
}

func decodeReport(reportJSON string) (*model.CrawlReport, error) {
	var report model.CrawlReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}
	return &report, nil
}

// timestampFormats contains the timestamp formats that may appear in the
// timestamp column. The order matters: more specific formats come first.
var timestampFormats = []string{
	timestampLayout,
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
	time.RFC3339,
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
