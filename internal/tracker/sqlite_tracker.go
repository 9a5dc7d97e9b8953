package tracker

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/raysh454/sitelens/internal/logging"
	"github.com/raysh454/sitelens/internal/model"
	_ "modernc.org/sqlite" // SQLite driver
)

const memoryPath = ":memory:"

// SQLiteTracker stores every scan result as JSON next to a few summary
// columns, and caches computed diffs.
type SQLiteTracker struct {
	db     *sql.DB
	logger logging.Logger
	config *Config
}

var _ Tracker = (*SQLiteTracker)(nil)

// NewSQLiteTracker opens (or creates) the database at config.Path.
func NewSQLiteTracker(logger logging.Logger, config *Config) (*SQLiteTracker, error) {
	if logger == nil {
		return nil, errors.New("tracker: nil logger provided")
	}
	if config == nil {
		config = &Config{}
	}
	if config.Path == "" {
		config.Path = memoryPath
	}

	if config.Path != memoryPath {
		if err := os.MkdirAll(filepath.Dir(config.Path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create storage directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", config.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if config.Path == memoryPath {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	l := logger.With(logging.Field{Key: "component", Value: "tracker"})
	l.Info("SQLiteTracker initialized", logging.Field{Key: "path", Value: config.Path})

	return &SQLiteTracker{db: db, logger: l, config: config}, nil
}

func (t *SQLiteTracker) Save(ctx context.Context, result *model.ScanResult) (string, error) {
	if result == nil {
		return "", errors.New("tracker: nil result")
	}
	if result.ID == "" {
		result.ID = uuid.New().String()
	}
	if result.ScannedAt.IsZero() {
		result.ScannedAt = time.Now().UTC()
	}

	body, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("marshal result: %w", err)
	}
	s := summarize(result)

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO scans (id, url, site, mode, title, api_count, security_grade, carbon_rating, scanned_at, duration_ns, result_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, s.ID, s.URL, s.Site, s.Mode, s.Title, s.APICount, s.SecurityGrade, s.CarbonRating,
		s.ScannedAt.UnixNano(), int64(s.Duration), string(body))
	if err != nil {
		return "", fmt.Errorf("insert scan: %w", err)
	}

	if t.config.MaxHistory > 0 {
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM scans WHERE site = ? AND id NOT IN (
				SELECT id FROM scans WHERE site = ? ORDER BY scanned_at DESC LIMIT ?
			)
		`, s.Site, s.Site, t.config.MaxHistory); err != nil {
			return "", fmt.Errorf("prune history: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}

	t.logger.Debug("scan saved",
		logging.Field{Key: "id", Value: s.ID},
		logging.Field{Key: "site", Value: s.Site})
	return s.ID, nil
}

func (t *SQLiteTracker) Get(ctx context.Context, id string) (*model.ScanResult, error) {
	var body string
	err := t.db.QueryRowContext(ctx, `SELECT result_json FROM scans WHERE id = ?`, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrScanNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query scan: %w", err)
	}

	var r model.ScanResult
	if err := json.Unmarshal([]byte(body), &r); err != nil {
		return nil, fmt.Errorf("decode scan %s: %w", id, err)
	}
	return &r, nil
}

func (t *SQLiteTracker) List(ctx context.Context, opts ListOptions) ([]ScanSummary, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, url, site, mode, title, api_count, security_grade, carbon_rating, scanned_at, duration_ns
		FROM scans`
	args := []any{}
	if opts.Site != "" {
		query += ` WHERE site = ?`
		args = append(args, siteOf(opts.Site))
	}
	query += ` ORDER BY scanned_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := t.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query scans: %w", err)
	}
	defer rows.Close()

	out := make([]ScanSummary, 0)
	for rows.Next() {
		var s ScanSummary
		var scannedAt, duration int64
		if err := rows.Scan(&s.ID, &s.URL, &s.Site, &s.Mode, &s.Title, &s.APICount,
			&s.SecurityGrade, &s.CarbonRating, &scannedAt, &duration); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		s.ScannedAt = time.Unix(0, scannedAt).UTC()
		s.Duration = time.Duration(duration)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating scans: %w", err)
	}
	return out, nil
}

// Diff compares two scans, serving repeated requests from the diffs table.
func (t *SQLiteTracker) Diff(ctx context.Context, baseID, headID string) (*ScanDiff, error) {
	t.logger.Debug("Computing diff",
		logging.Field{Key: "baseID", Value: baseID},
		logging.Field{Key: "headID", Value: headID})

	var cached string
	err := t.db.QueryRowContext(ctx, `
		SELECT diff_json FROM diffs WHERE base_scan_id = ? AND head_scan_id = ?
	`, baseID, headID).Scan(&cached)
	if err == nil {
		var d ScanDiff
		if err := json.Unmarshal([]byte(cached), &d); err == nil {
			return &d, nil
		}
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to query cached diff: %w", err)
	}

	base, err := t.Get(ctx, baseID)
	if err != nil {
		return nil, err
	}
	head, err := t.Get(ctx, headID)
	if err != nil {
		return nil, err
	}
	if siteOf(base.URL) != siteOf(head.URL) {
		return nil, fmt.Errorf("%w: %s vs %s", ErrSiteMismatch, siteOf(base.URL), siteOf(head.URL))
	}

	d, err := diffResults(base, head)
	if err != nil {
		return nil, err
	}

	if body, err := json.Marshal(d); err == nil {
		_, err = t.db.ExecContext(ctx, `
			INSERT OR REPLACE INTO diffs (id, base_scan_id, head_scan_id, diff_json, created_at)
			VALUES (?, ?, ?, ?, ?)
		`, uuid.New().String(), baseID, headID, string(body), time.Now().Unix())
		if err != nil {
			t.logger.Warn("Failed to cache diff", logging.Field{Key: "error", Value: err.Error()})
		}
	}
	return d, nil
}

func (t *SQLiteTracker) Close() error {
	t.logger.Info("Closing SQLiteTracker")
	if t.db != nil {
		return t.db.Close()
	}
	return nil
}
