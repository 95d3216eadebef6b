package telemetry

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // pure Go driver, registered as "sqlite"
)

// maxZeroResultQueries bounds the zero_result_queries table.
const maxZeroResultQueries = 100

// Store persists search history in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the telemetry database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create telemetry directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open telemetry database: %w", err)
	}
	// One writer; the flush loop and CLI readers share it.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set pragma: %w", err)
		}
	}

	if err := InitSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db, path: path}, nil
}

// InitSchema creates the telemetry tables if they don't exist.
func InitSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS search_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		ts TIMESTAMP NOT NULL,
		query TEXT NOT NULL,
		k INTEGER NOT NULL,
		results INTEGER NOT NULL,
		top_id TEXT NOT NULL DEFAULT '',
		top_score REAL NOT NULL DEFAULT 0,
		latency_ms REAL NOT NULL,
		hints TEXT NOT NULL DEFAULT '{}',
		error TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_search_history_query ON search_history(query);

	CREATE TABLE IF NOT EXISTS query_terms (
		term TEXT PRIMARY KEY,
		count INTEGER NOT NULL DEFAULT 1,
		last_seen TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_query_terms_count ON query_terms(count DESC);

	-- Zero-result queries (circular buffer)
	CREATE TABLE IF NOT EXISTS zero_result_queries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		query TEXT NOT NULL,
		timestamp TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS query_latency_stats (
		date TEXT NOT NULL,
		bucket TEXT NOT NULL,
		count INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (date, bucket)
	);
	`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("create telemetry schema: %w", err)
	}
	return nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// SaveBatch writes searches, term counts and latency counts in one
// transaction.
func (s *Store) SaveBatch(ctx context.Context, b Batch) error {
	if b.empty() {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := insertSearches(ctx, tx, b.Searches); err != nil {
		return err
	}
	if err := upsertTerms(ctx, tx, b.Terms); err != nil {
		return err
	}
	if err := upsertLatencies(ctx, tx, b.Date, b.Latencies); err != nil {
		return err
	}
	if err := insertZeroResults(ctx, tx, b.Searches); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func insertSearches(ctx context.Context, tx *sql.Tx, recs []SearchRecord) error {
	if len(recs) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO search_history (ts, query, k, results, top_id, top_score, latency_ms, hints, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, r := range recs {
		hints, err := json.Marshal(r.Hints)
		if err != nil {
			return fmt.Errorf("encode hints: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, r.Timestamp.UTC(), r.Query, r.K, r.Results,
			r.TopID, r.TopScore, r.LatencyMS, string(hints), r.Error); err != nil {
			return fmt.Errorf("insert search: %w", err)
		}
	}
	return nil
}

func upsertTerms(ctx context.Context, tx *sql.Tx, terms map[string]int64) error {
	if len(terms) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO query_terms (term, count, last_seen)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(term) DO UPDATE SET
			count = count + excluded.count,
			last_seen = CURRENT_TIMESTAMP
	`)
	if err != nil {
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer stmt.Close()

	for term, count := range terms {
		if _, err := stmt.ExecContext(ctx, term, count); err != nil {
			return fmt.Errorf("upsert term count: %w", err)
		}
	}
	return nil
}

func upsertLatencies(ctx context.Context, tx *sql.Tx, date string, counts map[LatencyBucket]int64) error {
	if len(counts) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO query_latency_stats (date, bucket, count)
		VALUES (?, ?, ?)
		ON CONFLICT(date, bucket) DO UPDATE SET count = count + excluded.count
	`)
	if err != nil {
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer stmt.Close()

	for bucket, count := range counts {
		if _, err := stmt.ExecContext(ctx, date, string(bucket), count); err != nil {
			return fmt.Errorf("insert latency count: %w", err)
		}
	}
	return nil
}

func insertZeroResults(ctx context.Context, tx *sql.Tx, recs []SearchRecord) error {
	added := false
	for _, r := range recs {
		if r.Results != 0 || r.Error != "" {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO zero_result_queries (query, timestamp) VALUES (?, ?)`,
			r.Query, r.Timestamp.UTC()); err != nil {
			return fmt.Errorf("insert zero-result query: %w", err)
		}
		added = true
	}
	if !added {
		return nil
	}
	_, err := tx.ExecContext(ctx, `
		DELETE FROM zero_result_queries
		WHERE id NOT IN (
			SELECT id FROM zero_result_queries
			ORDER BY id DESC
			LIMIT ?
		)
	`, maxZeroResultQueries)
	if err != nil {
		return fmt.Errorf("trim zero-result queries: %w", err)
	}
	return nil
}

// TopQueries returns the n most frequent queries, most frequent first.
// Ties go to the most recently seen query.
func (s *Store) TopQueries(ctx context.Context, n int) ([]QueryCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT query, COUNT(*) AS total, AVG(latency_ms), MAX(ts) AS last
		FROM search_history
		WHERE error = ''
		GROUP BY query
		ORDER BY total DESC, last DESC
		LIMIT ?
	`, n)
	if err != nil {
		return nil, fmt.Errorf("query top queries: %w", err)
	}
	defer rows.Close()

	var out []QueryCount
	for rows.Next() {
		var qc QueryCount
		var last any
		if err := rows.Scan(&qc.Query, &qc.Count, &qc.AvgLatencyMS, &last); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, qc)
	}
	return out, rows.Err()
}

// Recent returns the last n searches, newest first.
func (s *Store) Recent(ctx context.Context, n int) ([]SearchRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ts, query, k, results, top_id, top_score, latency_ms, hints, error
		FROM search_history
		ORDER BY id DESC
		LIMIT ?
	`, n)
	if err != nil {
		return nil, fmt.Errorf("query recent searches: %w", err)
	}
	defer rows.Close()

	var out []SearchRecord
	for rows.Next() {
		var r SearchRecord
		var hints string
		if err := rows.Scan(&r.Timestamp, &r.Query, &r.K, &r.Results, &r.TopID,
			&r.TopScore, &r.LatencyMS, &hints, &r.Error); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		if err := json.Unmarshal([]byte(hints), &r.Hints); err != nil {
			return nil, fmt.Errorf("decode hints: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// TopTerms returns the n most frequent query terms.
func (s *Store) TopTerms(ctx context.Context, n int) ([]TermCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT term, count
		FROM query_terms
		ORDER BY count DESC, term ASC
		LIMIT ?
	`, n)
	if err != nil {
		return nil, fmt.Errorf("query top terms: %w", err)
	}
	defer rows.Close()

	var terms []TermCount
	for rows.Next() {
		var tc TermCount
		if err := rows.Scan(&tc.Term, &tc.Count); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		terms = append(terms, tc)
	}
	return terms, rows.Err()
}

// ZeroResultQueries returns recent queries that matched nothing.
func (s *Store) ZeroResultQueries(ctx context.Context, n int) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT query
		FROM zero_result_queries
		ORDER BY id DESC
		LIMIT ?
	`, n)
	if err != nil {
		return nil, fmt.Errorf("query zero-result queries: %w", err)
	}
	defer rows.Close()

	var queries []string
	for rows.Next() {
		var q string
		if err := rows.Scan(&q); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		queries = append(queries, q)
	}
	return queries, rows.Err()
}

// LatencyCounts returns the latency distribution between two dates
// (inclusive, YYYY-MM-DD).
func (s *Store) LatencyCounts(ctx context.Context, from, to string) (map[LatencyBucket]int64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT bucket, SUM(count) AS total
		FROM query_latency_stats
		WHERE date >= ? AND date <= ?
		GROUP BY bucket
	`, from, to)
	if err != nil {
		return nil, fmt.Errorf("query latency counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[LatencyBucket]int64)
	for rows.Next() {
		var bucket string
		var count int64
		if err := rows.Scan(&bucket, &count); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		counts[LatencyBucket(bucket)] = count
	}
	return counts, rows.Err()
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// today formats t as a stats date key.
func today(t time.Time) string {
	return t.Format("2006-01-02")
}
