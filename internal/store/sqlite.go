package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	company    TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'running',
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS section_summaries (
	run_id      TEXT NOT NULL REFERENCES runs(id),
	section_key TEXT NOT NULL,
	part        TEXT NOT NULL,
	title       TEXT NOT NULL,
	summary     TEXT NOT NULL,
	word_count  INTEGER NOT NULL DEFAULT 0,
	failed      INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (run_id, section_key)
);

CREATE TABLE IF NOT EXISTS chunk_analyses (
	run_id      TEXT NOT NULL REFERENCES runs(id),
	chunk_index INTEGER NOT NULL,
	focus       TEXT NOT NULL,
	text        TEXT NOT NULL,
	failed      INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (run_id, chunk_index)
);

CREATE TABLE IF NOT EXISTS embeddings (
	run_id      TEXT NOT NULL REFERENCES runs(id),
	section_key TEXT NOT NULL,
	vector      TEXT NOT NULL,
	PRIMARY KEY (run_id, section_key)
);

CREATE INDEX IF NOT EXISTS idx_runs_company ON runs(company);
CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateRun(ctx context.Context, company string) (*Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, company, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		id, company, string(RunStatusRunning), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}

	return &Run{ID: id, Company: company, Status: RunStatusRunning, CreatedAt: now, UpdatedAt: now}, nil
}

func (s *SQLiteStore) CompleteRun(ctx context.Context, runID string, status RunStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: update run status")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Errorf("sqlite: run %s not found", runID)
	}
	return nil
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*Run, error) {
	var r Run
	var status string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, company, status, created_at, updated_at FROM runs WHERE id = ?`, runID,
	).Scan(&r.ID, &r.Company, &status, &r.CreatedAt, &r.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.Errorf("sqlite: run %s not found", runID)
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get run")
	}
	r.Status = RunStatus(status)
	return &r, nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context, company string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT id, company, status, created_at, updated_at FROM runs`
	args := []any{}
	if company != "" {
		query += ` WHERE company = ?`
		args = append(args, company)
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var status string
		if err := rows.Scan(&r.ID, &r.Company, &status, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		r.Status = RunStatus(status)
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: iterate runs")
}

func (s *SQLiteStore) WriteSummaries(ctx context.Context, records []SummaryRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin")
	}
	defer tx.Rollback() //nolint:errcheck

	for _, rec := range records {
		_, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO section_summaries (run_id, section_key, part, title, summary, word_count, failed)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			rec.RunID, rec.SectionKey, rec.Part, rec.Title, rec.Summary, rec.WordCount, boolToInt(rec.Failed),
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: insert summary %s", rec.SectionKey)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit summaries")
}

func (s *SQLiteStore) WriteAnalyses(ctx context.Context, records []AnalysisRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin")
	}
	defer tx.Rollback() //nolint:errcheck

	for _, rec := range records {
		_, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO chunk_analyses (run_id, chunk_index, focus, text, failed)
			 VALUES (?, ?, ?, ?, ?)`,
			rec.RunID, rec.ChunkIndex, rec.Focus, rec.Text, boolToInt(rec.Failed),
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: insert analysis %d", rec.ChunkIndex)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit analyses")
}

func (s *SQLiteStore) WriteEmbeddings(ctx context.Context, records []EmbeddingRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin")
	}
	defer tx.Rollback() //nolint:errcheck

	for _, rec := range records {
		vec, err := json.Marshal(rec.Vector)
		if err != nil {
			return eris.Wrap(err, "sqlite: marshal vector")
		}
		_, err = tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO embeddings (run_id, section_key, vector) VALUES (?, ?, ?)`,
			rec.RunID, rec.SectionKey, string(vec),
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: insert embedding %s", rec.SectionKey)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit embeddings")
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
