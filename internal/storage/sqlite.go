package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/amosWeiskopf/harvester/internal/models"
)

const dbFile = "harvester.db"

// SQLiteSink stores results in a single SQLite database file
type SQLiteSink struct {
	db     *sql.DB
	dbPath string
}

// OpenSQLite opens or creates <dir>/harvester.db and its schema
func OpenSQLite(dir string) (*SQLiteSink, error) {
	if dir == "" {
		return nil, fmt.Errorf("storage path must be set for sqlite storage")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	dbPath := filepath.Join(dir, dbFile)

	db, err := sql.Open("sqlite", dbPath+"?mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite only supports one writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &SQLiteSink{db: db, dbPath: dbPath}
	if err := s.createTables(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

// Path returns the database file path
func (s *SQLiteSink) Path() string {
	return s.dbPath
}

// Close closes the database connection
func (s *SQLiteSink) Close() error {
	return s.db.Close()
}

func (s *SQLiteSink) createTables(ctx context.Context) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS crawl_runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			seed TEXT NOT NULL,
			pages INTEGER NOT NULL,
			errors INTEGER NOT NULL,
			started_at DATETIME NOT NULL,
			finished_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS pages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id INTEGER NOT NULL REFERENCES crawl_runs(id),
			url TEXT NOT NULL,
			title TEXT,
			status_code INTEGER,
			error TEXT,
			fetched_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS emails (
			run_id INTEGER NOT NULL REFERENCES crawl_runs(id),
			email TEXT NOT NULL,
			found_on TEXT NOT NULL,
			PRIMARY KEY (run_id, email)
		)`,
		`CREATE TABLE IF NOT EXISTS tally_runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			source TEXT NOT NULL,
			group_by TEXT NOT NULL,
			lines_read INTEGER NOT NULL,
			addresses INTEGER NOT NULL,
			generated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS tally_entries (
			run_id INTEGER NOT NULL REFERENCES tally_runs(id),
			subnet_key TEXT NOT NULL,
			ip TEXT NOT NULL,
			count INTEGER NOT NULL,
			PRIMARY KEY (run_id, ip)
		)`,
	}
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// SaveCrawl stores a crawl run with its pages and emails in one transaction
func (s *SQLiteSink) SaveCrawl(ctx context.Context, result *models.CrawlResult, _ *models.CrawlSummary) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO crawl_runs (seed, pages, errors, started_at, finished_at) VALUES (?, ?, ?, ?, ?)`,
		result.Seed, len(result.Pages), result.ErrorCount, timeOrNow(result.StartedAt), timeOrNow(result.FinishedAt))
	if err != nil {
		return fmt.Errorf("failed to insert crawl run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read crawl run id: %w", err)
	}

	firstSeen := make(map[string]string)
	for _, p := range result.Pages {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO pages (run_id, url, title, status_code, error, fetched_at) VALUES (?, ?, ?, ?, ?, ?)`,
			runID, p.URL, p.Title, p.StatusCode, p.Err, timeOrNow(p.FetchedAt)); err != nil {
			return fmt.Errorf("failed to insert page %s: %w", p.URL, err)
		}
		for _, email := range p.Emails {
			if _, ok := firstSeen[email]; !ok {
				firstSeen[email] = p.URL
			}
		}
	}

	for _, email := range result.Emails {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO emails (run_id, email, found_on) VALUES (?, ?, ?)`,
			runID, email, firstSeen[email]); err != nil {
			return fmt.Errorf("failed to insert email %s: %w", email, err)
		}
	}

	return tx.Commit()
}

// SaveTally stores a tally run with all of its counts in one transaction
func (s *SQLiteSink) SaveTally(ctx context.Context, report *models.TallyReport) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO tally_runs (source, group_by, lines_read, addresses, generated_at) VALUES (?, ?, ?, ?, ?)`,
		report.Source, report.GroupBy, report.LinesRead, report.AddressesSeen, timeOrNow(report.GeneratedAt))
	if err != nil {
		return fmt.Errorf("failed to insert tally run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read tally run id: %w", err)
	}

	for _, row := range report.Rows() {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO tally_entries (run_id, subnet_key, ip, count) VALUES (?, ?, ?, ?)`,
			runID, row.Key, row.IP, row.Count); err != nil {
			return fmt.Errorf("failed to insert tally entry %s: %w", row.IP, err)
		}
	}

	return tx.Commit()
}

// CrawlEmails returns the addresses stored for the most recent crawl of seed
func (s *SQLiteSink) CrawlEmails(ctx context.Context, seed string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT e.email FROM emails e
		WHERE e.run_id = (SELECT MAX(id) FROM crawl_runs WHERE seed = ?)
		ORDER BY e.rowid`, seed)
	if err != nil {
		return nil, fmt.Errorf("failed to query emails: %w", err)
	}
	defer rows.Close()

	emails := []string{}
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, err
		}
		emails = append(emails, email)
	}
	return emails, rows.Err()
}

// TallyCounts returns ip -> count for the most recent tally of source
func (s *SQLiteSink) TallyCounts(ctx context.Context, source string) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ip, count FROM tally_entries
		WHERE run_id = (SELECT MAX(id) FROM tally_runs WHERE source = ?)`, source)
	if err != nil {
		return nil, fmt.Errorf("failed to query tally: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var ip string
		var n int
		if err := rows.Scan(&ip, &n); err != nil {
			return nil, err
		}
		counts[ip] = n
	}
	return counts, rows.Err()
}

func timeOrNow(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now()
	}
	return t
}
