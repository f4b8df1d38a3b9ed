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

	"github.com/nao1215/embedleak/internal/model"
)

// FileName is the database file created inside the data directory.
const FileName = "embedleak.db"

// timeLayout sorts lexicographically in time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// ErrNotFound is returned when a pattern set or run does not exist.
var ErrNotFound = errors.New("not found in history")

// HistoryDB stores pattern sets and scan runs so that runs can be compared.
type HistoryDB struct {
	db     *sql.DB
	dbPath string
}

// Options configures database opening.
type Options struct {
	// CreateIfNotExists creates the directory and file when missing.
	CreateIfNotExists bool

	// EnableWAL switches the journal to write-ahead logging.
	EnableWAL bool
}

// DefaultOptions returns the options used by the CLI.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the history database in dbDir.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s: %w", dbPath, err)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else if err := os.MkdirAll(dbDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	mode := "rw"
	if opts.CreateIfNotExists {
		mode = "rwc"
	}
	// concurrent CLI invocations wait for the writer instead of failing
	dsn := dbPath + "?mode=" + mode + "&_pragma=busy_timeout(5000)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	h := &HistoryDB{db: db, dbPath: dbPath}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}
	if err := h.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return h, nil
}

// Close closes the database.
func (h *HistoryDB) Close() error {
	return h.db.Close()
}

// Path returns the database file path.
func (h *HistoryDB) Path() string {
	return h.dbPath
}

func (h *HistoryDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS pattern_sets (
		fingerprint TEXT PRIMARY KEY,
		confidence TEXT NOT NULL,
		match_rate REAL NOT NULL,
		pattern_count INTEGER NOT NULL,
		patterns_json TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS scan_runs (
		id TEXT PRIMARY KEY,
		started_at TEXT NOT NULL,
		pattern_fingerprint TEXT,
		pages_scanned INTEGER NOT NULL,
		pages_affected INTEGER NOT NULL,
		pages_skipped INTEGER NOT NULL,
		total_matches INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		report_json TEXT,
		error TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON scan_runs(started_at);

	CREATE TABLE IF NOT EXISTS page_results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES scan_runs(id) ON DELETE CASCADE,
		url TEXT NOT NULL,
		total_matches INTEGER NOT NULL,
		counts_json TEXT NOT NULL,
		snippet TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_results_run ON page_results(run_id);
	`
	_, err := h.db.ExecContext(context.Background(), schema)
	return err
}

// SavePatternSet stores ps under its seed fingerprint, replacing an earlier
// set from the same seed.
func (h *HistoryDB) SavePatternSet(ctx context.Context, ps *model.PatternSet) error {
	meta := ps.Meta()
	if meta.SeedFingerprint == "" {
		return fmt.Errorf("pattern set has no seed fingerprint")
	}
	data, err := json.Marshal(ps)
	if err != nil {
		return fmt.Errorf("failed to serialize pattern set: %w", err)
	}

	query := `
	INSERT INTO pattern_sets (fingerprint, confidence, match_rate, pattern_count, patterns_json, created_at)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(fingerprint) DO UPDATE SET
		confidence = excluded.confidence,
		match_rate = excluded.match_rate,
		pattern_count = excluded.pattern_count,
		patterns_json = excluded.patterns_json,
		created_at = excluded.created_at
	`
	_, err = h.db.ExecContext(ctx, query,
		meta.SeedFingerprint,
		string(meta.Confidence),
		meta.MatchRate,
		ps.Len(),
		string(data),
		formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("failed to save pattern set: %w", err)
	}
	return nil
}

// GetPatternSet loads the pattern set stored for a seed fingerprint.
func (h *HistoryDB) GetPatternSet(ctx context.Context, fingerprint string) (*model.PatternSet, error) {
	var data string
	err := h.db.QueryRowContext(ctx,
		`SELECT patterns_json FROM pattern_sets WHERE fingerprint = ?`, fingerprint,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("pattern set %s: %w", fingerprint, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pattern set: %w", err)
	}

	var ps model.PatternSet
	if err := json.Unmarshal([]byte(data), &ps); err != nil {
		return nil, fmt.Errorf("failed to parse pattern set: %w", err)
	}
	return &ps, nil
}

// RunRecord is the stored summary of a scan run.
type RunRecord struct {
	ID                 string
	StartedAt          time.Time
	PatternFingerprint string
	PagesScanned       int
	PagesAffected      int
	PagesSkipped       int
	TotalMatches       int
	Duration           time.Duration
	Error              string

	// Triage is nil for runs that failed before categorization.
	Triage *model.TriageReport
}

// SaveRun stores a run and its page results in one transaction.
func (h *HistoryDB) SaveRun(ctx context.Context, run *model.Run) (err error) {
	var reportJSON sql.NullString
	if run.Triage != nil {
		data, err := json.Marshal(run.Triage)
		if err != nil {
			return fmt.Errorf("failed to serialize triage report: %w", err)
		}
		reportJSON = sql.NullString{String: string(data), Valid: true}
	}
	fingerprint := ""
	if run.Patterns != nil {
		fingerprint = run.Patterns.Meta().SeedFingerprint
	}
	total := 0
	for _, r := range run.Results {
		total += r.TotalMatches
	}

	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `
	INSERT INTO scan_runs (id, started_at, pattern_fingerprint, pages_scanned, pages_affected,
		pages_skipped, total_matches, duration_ms, report_json, error)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		formatTime(run.StartedAt),
		fingerprint,
		len(run.Pages),
		len(run.Results),
		len(run.Skipped),
		total,
		run.Duration.Milliseconds(),
		reportJSON,
		run.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("failed to save scan run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO page_results (run_id, url, total_matches, counts_json, snippet)
	VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare page result insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range run.Results {
		counts, err := json.Marshal(r.PatternCounts)
		if err != nil {
			return fmt.Errorf("failed to serialize counts for %s: %w", r.URL, err)
		}
		if _, err := stmt.ExecContext(ctx, run.ID, r.URL, r.TotalMatches, string(counts), r.Snippet); err != nil {
			return fmt.Errorf("failed to save page result %s: %w", r.URL, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit scan run: %w", err)
	}
	return nil
}

const runColumns = `id, started_at, pattern_fingerprint, pages_scanned, pages_affected,
	pages_skipped, total_matches, duration_ms, report_json, error`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*RunRecord, error) {
	var (
		rec         RunRecord
		startedAt   string
		fingerprint sql.NullString
		durationMS  int64
		reportJSON  sql.NullString
		errText     sql.NullString
	)
	if err := row.Scan(
		&rec.ID,
		&startedAt,
		&fingerprint,
		&rec.PagesScanned,
		&rec.PagesAffected,
		&rec.PagesSkipped,
		&rec.TotalMatches,
		&durationMS,
		&reportJSON,
		&errText,
	); err != nil {
		return nil, err
	}
	rec.StartedAt = parseTimestamp(startedAt)
	rec.PatternFingerprint = fingerprint.String
	rec.Duration = time.Duration(durationMS) * time.Millisecond
	rec.Error = errText.String
	if reportJSON.Valid && reportJSON.String != "" {
		var report model.TriageReport
		if err := json.Unmarshal([]byte(reportJSON.String), &report); err != nil {
			return nil, fmt.Errorf("failed to parse triage report: %w", err)
		}
		rec.Triage = &report
	}
	return &rec, nil
}

// GetRun loads one run summary.
func (h *HistoryDB) GetRun(ctx context.Context, id string) (*RunRecord, error) {
	row := h.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM scan_runs WHERE id = ?`, id)
	rec, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return rec, nil
}

// ListRuns returns up to limit runs, newest first. A non-positive limit
// returns every run.
func (h *HistoryDB) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	query := `SELECT ` + runColumns + ` FROM scan_runs ORDER BY started_at DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := h.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	runs := make([]RunRecord, 0)
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *rec)
	}
	return runs, rows.Err()
}

// GetPageResults returns a run's page results in their original order.
func (h *HistoryDB) GetPageResults(ctx context.Context, runID string) ([]model.PageResult, error) {
	rows, err := h.db.QueryContext(ctx, `
	SELECT url, total_matches, counts_json, snippet
	FROM page_results
	WHERE run_id = ?
	ORDER BY id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get page results: %w", err)
	}
	defer rows.Close()

	results := make([]model.PageResult, 0)
	for rows.Next() {
		var (
			r       model.PageResult
			counts  string
			snippet sql.NullString
		)
		if err := rows.Scan(&r.URL, &r.TotalMatches, &counts, &snippet); err != nil {
			return nil, fmt.Errorf("failed to scan page result: %w", err)
		}
		if err := json.Unmarshal([]byte(counts), &r.PatternCounts); err != nil {
			return nil, fmt.Errorf("failed to parse counts for %s: %w", r.URL, err)
		}
		r.Snippet = snippet.String
		results = append(results, r)
	}
	return results, rows.Err()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

var timestampFormats = []string{
	timeLayout,
	"2006-01-02 15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
}

func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
