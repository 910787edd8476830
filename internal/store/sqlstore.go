package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// nowUTC returns the current UTC time as an ISO 8601 string.
func nowUTC() string { return time.Now().UTC().Format(time.RFC3339) }

const schemaVersion = 1

const schema = `
CREATE TABLE schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE batches (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	label      TEXT NOT NULL,
	defects    INTEGER NOT NULL,
	runs       INTEGER NOT NULL,
	created_at TEXT NOT NULL
);

CREATE TABLE aggregates (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	batch_id  INTEGER NOT NULL REFERENCES batches(id) ON DELETE CASCADE,
	category  TEXT NOT NULL,
	strategy  TEXT NOT NULL,
	runs      INTEGER NOT NULL,
	tp        INTEGER NOT NULL,
	fp        INTEGER NOT NULL,
	fn        INTEGER NOT NULL,
	precision REAL NOT NULL,
	recall    REAL NOT NULL,
	f1        REAL NOT NULL,
	mean_f1   REAL NOT NULL,
	stdev_f1  REAL NOT NULL
);

CREATE INDEX idx_aggregates_batch ON aggregates(batch_id);
CREATE INDEX idx_aggregates_series ON aggregates(category, strategy);
`

// SqlStore implements Store with SQLite.
type SqlStore struct {
	db *sql.DB
}

// Open opens or creates a SQLite DB at path and runs migrations.
// Creates the parent directory if it does not exist.
func Open(path string) (*SqlStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	s := &SqlStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SqlStore) migrate() error {
	var tableCount int
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableCount)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableCount == 0 {
		if _, err := s.db.Exec(schema); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_version(version) VALUES(?)", schemaVersion); err != nil {
			return fmt.Errorf("set schema version: %w", err)
		}
		return nil
	}

	var v int
	err = s.db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&v)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("read schema version: %w", err)
	}
	if v != schemaVersion {
		return fmt.Errorf("unknown schema version %d", v)
	}
	return nil
}

// Close closes the database connection.
func (s *SqlStore) Close() error {
	return s.db.Close()
}

// CreateBatch records a new evaluation batch.
func (s *SqlStore) CreateBatch(b *Batch) (int64, error) {
	if b.CreatedAt == "" {
		b.CreatedAt = nowUTC()
	}
	res, err := s.db.Exec(
		"INSERT INTO batches(label, defects, runs, created_at) VALUES(?, ?, ?, ?)",
		b.Label, b.Defects, b.Runs, b.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert batch: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("batch id: %w", err)
	}
	b.ID = id
	return id, nil
}

// AddAggregate attaches one aggregate row to a batch.
func (s *SqlStore) AddAggregate(row *AggregateRow) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO aggregates(batch_id, category, strategy, runs, tp, fp, fn,
			precision, recall, f1, mean_f1, stdev_f1)
		 VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		row.BatchID, row.Category, row.Strategy, row.Runs,
		row.TP, row.FP, row.FN,
		row.Precision, row.Recall, row.F1, row.MeanF1, row.StdevF1,
	)
	if err != nil {
		return 0, fmt.Errorf("insert aggregate: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("aggregate id: %w", err)
	}
	row.ID = id
	return id, nil
}

// ListBatches returns all batches, newest first.
func (s *SqlStore) ListBatches() ([]Batch, error) {
	rows, err := s.db.Query(
		"SELECT id, label, defects, runs, created_at FROM batches ORDER BY id DESC")
	if err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	defer rows.Close()

	var out []Batch
	for rows.Next() {
		var b Batch
		if err := rows.Scan(&b.ID, &b.Label, &b.Defects, &b.Runs, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan batch: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// GetAggregates returns a batch's aggregates ordered by category then strategy.
func (s *SqlStore) GetAggregates(batchID int64) ([]AggregateRow, error) {
	rows, err := s.db.Query(
		`SELECT id, batch_id, category, strategy, runs, tp, fp, fn,
			precision, recall, f1, mean_f1, stdev_f1
		 FROM aggregates WHERE batch_id = ? ORDER BY category, strategy`, batchID)
	if err != nil {
		return nil, fmt.Errorf("get aggregates: %w", err)
	}
	defer rows.Close()
	return scanAggregates(rows)
}

// History returns one (category, strategy) series across batches, oldest first.
func (s *SqlStore) History(category, strategy string) ([]AggregateRow, error) {
	rows, err := s.db.Query(
		`SELECT id, batch_id, category, strategy, runs, tp, fp, fn,
			precision, recall, f1, mean_f1, stdev_f1
		 FROM aggregates WHERE category = ? AND strategy = ? ORDER BY batch_id`,
		category, strategy)
	if err != nil {
		return nil, fmt.Errorf("aggregate history: %w", err)
	}
	defer rows.Close()
	return scanAggregates(rows)
}

func scanAggregates(rows *sql.Rows) ([]AggregateRow, error) {
	var out []AggregateRow
	for rows.Next() {
		var r AggregateRow
		if err := rows.Scan(&r.ID, &r.BatchID, &r.Category, &r.Strategy, &r.Runs,
			&r.TP, &r.FP, &r.FN,
			&r.Precision, &r.Recall, &r.F1, &r.MeanF1, &r.StdevF1); err != nil {
			return nil, fmt.Errorf("scan aggregate: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
