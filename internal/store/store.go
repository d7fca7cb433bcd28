package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/ppiankov/credence/internal/model"
)

// ErrNotFound is returned when no archived report has the requested ID
var ErrNotFound = errors.New("report not found")

// Store archives reports in SQLite
type Store struct {
	db *sql.DB
}

// Filter narrows Recent queries
type Filter struct {
	Classification model.Classification // Empty = any
	Source         string               // Exact source match, empty = any
	Limit          int                  // <= 0 selects 50
}

// Entry is one archived report with its row metadata
type Entry struct {
	Report     *model.Report
	ArchivedAt time.Time
}

// Stats aggregates the archive
type Stats struct {
	Total            int                          `json:"total"`
	ByClassification map[model.Classification]int `json:"by_classification"`
	MeanScore        float64                      `json:"mean_score"`
}

const migration = `
CREATE TABLE IF NOT EXISTS reports (
	article_id     TEXT PRIMARY KEY,
	title          TEXT NOT NULL DEFAULT '',
	source         TEXT NOT NULL DEFAULT '',
	score          REAL NOT NULL,
	classification TEXT NOT NULL,
	risk_level     TEXT NOT NULL,
	model_version  TEXT NOT NULL,
	report         TEXT NOT NULL,
	analyzed_at    TEXT NOT NULL,
	archived_at    TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_reports_source ON reports(source);
CREATE INDEX IF NOT EXISTS idx_reports_classification ON reports(classification);
CREATE INDEX IF NOT EXISTS idx_reports_archived_at ON reports(archived_at);
`

// Open opens (creating if needed) the archive at path and applies the schema
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrap(err, "store: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "store: exec %s", pragma)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, migration)
	return eris.Wrap(err, "store: migrate")
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// Save archives a report, replacing any earlier report with the same article ID
func (s *Store) Save(ctx context.Context, report *model.Report) error {
	if report == nil || report.Result == nil {
		return eris.New("store: report has no result")
	}

	data, err := json.Marshal(report)
	if err != nil {
		return eris.Wrap(err, "store: marshal report")
	}

	res := report.Result
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO reports
			(article_id, title, source, score, classification, risk_level, model_version, report, analyzed_at, archived_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		report.ArticleID, report.Title, report.Source, res.Score,
		string(res.Classification), string(res.RiskLevel), res.ModelVersion, string(data),
		formatTime(report.AnalyzedAt), formatTime(time.Now()),
	)
	return eris.Wrapf(err, "store: insert report %s", report.ArticleID)
}

// Get returns the archived report for an article ID
func (s *Store) Get(ctx context.Context, articleID string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT report, archived_at FROM reports WHERE article_id = ?`, articleID)

	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "store: get report %s", articleID)
	}
	return entry, nil
}

// Recent returns archived reports, newest first
func (s *Store) Recent(ctx context.Context, filter Filter) ([]Entry, error) {
	query := `SELECT report, archived_at FROM reports WHERE 1=1`
	var args []any

	if filter.Classification != "" {
		query += ` AND classification = ?`
		args = append(args, string(filter.Classification))
	}
	if filter.Source != "" {
		query += ` AND source = ?`
		args = append(args, filter.Source)
	}
	query += ` ORDER BY archived_at DESC, rowid DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "store: list reports")
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, eris.Wrap(err, "store: scan report")
		}
		entries = append(entries, *entry)
	}
	return entries, eris.Wrap(rows.Err(), "store: list reports iterate")
}

// HasSource reports whether a report for the source is already archived.
// The watch command uses it to skip feed items it has seen.
func (s *Store) HasSource(ctx context.Context, source string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reports WHERE source = ?`, source).Scan(&n)
	if err != nil {
		return false, eris.Wrap(err, "store: lookup source")
	}
	return n > 0, nil
}

// Stats summarizes the archive
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT classification, COUNT(*), COALESCE(SUM(score), 0) FROM reports GROUP BY classification`)
	if err != nil {
		return nil, eris.Wrap(err, "store: stats")
	}
	defer rows.Close()

	stats := &Stats{ByClassification: make(map[model.Classification]int)}
	var sum float64
	for rows.Next() {
		var (
			class string
			n     int
			total float64
		)
		if err := rows.Scan(&class, &n, &total); err != nil {
			return nil, eris.Wrap(err, "store: scan stats")
		}
		stats.ByClassification[model.Classification(class)] = n
		stats.Total += n
		sum += total
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "store: stats iterate")
	}
	if stats.Total > 0 {
		stats.MeanScore = sum / float64(stats.Total)
	}
	return stats, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (*Entry, error) {
	var data, archivedAt string
	if err := row.Scan(&data, &archivedAt); err != nil {
		return nil, err
	}

	var report model.Report
	if err := json.Unmarshal([]byte(data), &report); err != nil {
		return nil, eris.Wrap(err, "unmarshal report")
	}
	ts, err := time.Parse(timeLayout, archivedAt)
	if err != nil {
		return nil, eris.Wrap(err, "parse archived_at")
	}
	return &Entry{Report: &report, ArchivedAt: ts}, nil
}

// timeLayout is fixed width so stored timestamps sort as text
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}
