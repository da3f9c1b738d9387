package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"harmwatch/internal/model"
	"harmwatch/internal/window"
)

const localSchema = `
CREATE TABLE IF NOT EXISTS cache_entries (
	months INTEGER PRIMARY KEY,
	retrieved_at TEXT NOT NULL,
	covers_min TEXT NOT NULL,
	covers_max TEXT NOT NULL,
	record_count INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS complaints (
	months INTEGER NOT NULL,
	id TEXT NOT NULL,
	date_received TEXT,
	date_sent_to_company TEXT,
	product TEXT,
	issue TEXT,
	company TEXT,
	state TEXT,
	narrative TEXT,
	company_response TEXT,
	timely_response TEXT,
	PRIMARY KEY (months, id)
);
CREATE INDEX IF NOT EXISTS idx_complaints_date ON complaints(months, date_received);
`

// LocalStore implements the cache store contract on a sqlite file. It is
// a single-writer store: concurrent runs against the same file are not
// supported.
type LocalStore struct {
	db        *sql.DB
	logger    *slog.Logger
	now       func() time.Time
	path      string
	freshness time.Duration
	tolerance time.Duration
}

// NewLocalStore opens (creating if needed) the sqlite cache at path.
func NewLocalStore(path string, freshness, tolerance time.Duration) (*LocalStore, error) {
	if path == "" {
		return nil, fmt.Errorf("cache path is required")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	// SQLite doesn't benefit from multiple connections.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping cache database: %w", err)
	}
	if _, err := db.Exec(localSchema); err != nil {
		return nil, fmt.Errorf("failed to create cache schema: %w", err)
	}

	return &LocalStore{
		db:        db,
		logger:    slog.Default().With("component", "local_cache"),
		now:       time.Now,
		path:      path,
		freshness: freshness,
		tolerance: tolerance,
	}, nil
}

// Name identifies the store in orchestrator logs.
func (s *LocalStore) Name() string { return "local cache" }

// Close closes the database connection.
func (s *LocalStore) Close() error {
	return s.db.Close()
}

// Get loads the entry for a month-count and evaluates its usability for
// the window. A nil entry with a reason means the cache cannot serve the
// window; the reason distinguishes a miss from staleness.
func (s *LocalStore) Get(ctx context.Context, months int, w window.Window) (*Entry, string, error) {
	var retrievedAt, coversMin, coversMax string
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT retrieved_at, covers_min, covers_max, record_count FROM cache_entries WHERE months = ?`,
		months).Scan(&retrievedAt, &coversMin, &coversMax, &count)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "no cache entry for this window size", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to read cache entry: %w", err)
	}

	entry := &Entry{
		Months:      months,
		RetrievedAt: parseStoredTime(retrievedAt),
		CoversMin:   parseStoredTime(coversMin),
		CoversMax:   parseStoredTime(coversMax),
	}

	if ok, reason := entry.Usable(w, s.freshness, s.tolerance, s.now()); !ok {
		s.logger.Info("Local cache entry unusable", "months", months, "reason", reason)
		return nil, reason, nil
	}

	records, err := s.loadRecords(ctx, months)
	if err != nil {
		return nil, "", err
	}
	entry.Records = records

	s.logger.Info("Local cache hit", "months", months, "records", len(records))
	return entry, "", nil
}

func (s *LocalStore) loadRecords(ctx context.Context, months int) ([]model.Complaint, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, date_received, date_sent_to_company, product, issue,
		       company, state, narrative, company_response, timely_response
		FROM complaints WHERE months = ? ORDER BY date_received, id`, months)
	if err != nil {
		return nil, fmt.Errorf("failed to read cached complaints: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []model.Complaint
	for rows.Next() {
		var c model.Complaint
		var received, sent string
		if err := rows.Scan(&c.ID, &received, &sent, &c.Product, &c.Issue,
			&c.Company, &c.State, &c.Narrative, &c.CompanyResponse, &c.TimelyResponse); err != nil {
			return nil, fmt.Errorf("failed to scan cached complaint: %w", err)
		}
		c.DateReceived = parseStoredTime(received)
		c.DateSentToCompany = parseStoredTime(sent)
		records = append(records, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cached complaints: %w", err)
	}
	return records, nil
}

// Put supersedes the entry for this month-count with a fresh corpus.
func (s *LocalStore) Put(ctx context.Context, months int, records []model.Complaint, retrievedAt time.Time) error {
	if len(records) == 0 {
		s.logger.Debug("Skipping cache write for empty corpus", "months", months)
		return nil
	}

	coversMin, coversMax := coverage(records)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin cache transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM complaints WHERE months = ?`, months); err != nil {
		return fmt.Errorf("failed to clear superseded records: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO complaints (
			months, id, date_received, date_sent_to_company, product, issue,
			company, state, narrative, company_response, timely_response
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i := range records {
		c := &records[i]
		if _, err := stmt.ExecContext(ctx,
			months, c.ID, formatStoredTime(c.DateReceived), formatStoredTime(c.DateSentToCompany),
			c.Product, c.Issue, c.Company, c.State, c.Narrative,
			c.CompanyResponse, c.TimelyResponse); err != nil {
			return fmt.Errorf("failed to insert complaint %s: %w", c.ID, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO cache_entries (months, retrieved_at, covers_min, covers_max, record_count)
		VALUES (?, ?, ?, ?, ?)`,
		months, formatStoredTime(retrievedAt), formatStoredTime(coversMin),
		formatStoredTime(coversMax), len(records)); err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit cache write: %w", err)
	}

	s.logger.Info("Cached filtered corpus", "months", months, "records", len(records))
	return nil
}

// Stats describes the cache contents.
type Stats struct {
	OldestComplaint time.Time
	NewestComplaint time.Time
	TotalComplaints int
	WindowSizes     int
}

// Stats reports totals across all cached window sizes.
func (s *LocalStore) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}
	var oldest, newest sql.NullString

	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), MIN(date_received), MAX(date_received) FROM complaints`).
		Scan(&stats.TotalComplaints, &oldest, &newest)
	if err != nil {
		return nil, fmt.Errorf("failed to read cache stats: %w", err)
	}
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM cache_entries`).Scan(&stats.WindowSizes); err != nil {
		return nil, fmt.Errorf("failed to count cache entries: %w", err)
	}

	if oldest.Valid {
		stats.OldestComplaint = parseStoredTime(oldest.String)
	}
	if newest.Valid {
		stats.NewestComplaint = parseStoredTime(newest.String)
	}
	return stats, nil
}

// ClearOlderThan drops cached complaints received before the cutoff. An
// entry whose coverage starts before the cutoff is removed together with
// its whole partition: stripped of its old rows it no longer describes the
// corpus it claims to cover.
func (s *LocalStore) ClearOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	stored := formatStoredTime(cutoff)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin cache cleanup: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		DELETE FROM complaints
		WHERE date_received < ?
		   OR months IN (SELECT months FROM cache_entries WHERE covers_min < ?)`,
		stored, stored)
	if err != nil {
		return 0, fmt.Errorf("failed to clear old complaints: %w", err)
	}
	removed, _ := res.RowsAffected()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM cache_entries WHERE covers_min < ?`, stored); err != nil {
		return 0, fmt.Errorf("failed to clear stale entries: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit cache cleanup: %w", err)
	}

	s.logger.Info("Cleared old cached complaints", "removed", removed, "cutoff", cutoff.Format("2006-01-02"))
	return removed, nil
}

// Stored times use RFC3339 so lexical comparison matches chronological order.
func formatStoredTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func parseStoredTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}
	}
	return t
}
