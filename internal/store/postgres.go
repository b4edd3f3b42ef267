package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
)

// Pool is the subset of pgxpool.Pool the store uses; pgxmock satisfies it in
// tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PostgresStore implements Store using a pgx connection pool.
type PostgresStore struct {
	pool    Pool
	closeFn func()
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	cfg.MaxConns = 10
	cfg.MinConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}

	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	company    TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'running',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS section_summaries (
	run_id      TEXT NOT NULL REFERENCES runs(id),
	section_key TEXT NOT NULL,
	part        TEXT NOT NULL,
	title       TEXT NOT NULL,
	summary     TEXT NOT NULL,
	word_count  INTEGER NOT NULL DEFAULT 0,
	failed      BOOLEAN NOT NULL DEFAULT FALSE,
	PRIMARY KEY (run_id, section_key)
);

CREATE TABLE IF NOT EXISTS chunk_analyses (
	run_id      TEXT NOT NULL REFERENCES runs(id),
	chunk_index INTEGER NOT NULL,
	focus       TEXT NOT NULL,
	text        TEXT NOT NULL,
	failed      BOOLEAN NOT NULL DEFAULT FALSE,
	PRIMARY KEY (run_id, chunk_index)
);

CREATE TABLE IF NOT EXISTS embeddings (
	run_id      TEXT NOT NULL REFERENCES runs(id),
	section_key TEXT NOT NULL,
	vector      JSONB NOT NULL,
	PRIMARY KEY (run_id, section_key)
);

CREATE INDEX IF NOT EXISTS idx_runs_company ON runs(company);
CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreateRun(ctx context.Context, company string) (*Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO runs (id, company, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		id, company, string(RunStatusRunning), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
	}

	return &Run{ID: id, Company: company, Status: RunStatusRunning, CreatedAt: now, UpdatedAt: now}, nil
}

func (s *PostgresStore) CompleteRun(ctx context.Context, runID string, status RunStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET status = $1, updated_at = $2 WHERE id = $3`,
		string(status), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrap(err, "postgres: update run status")
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("postgres: run %s not found", runID)
	}
	return nil
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*Run, error) {
	var r Run
	var status string
	err := s.pool.QueryRow(ctx,
		`SELECT id, company, status, created_at, updated_at FROM runs WHERE id = $1`, runID,
	).Scan(&r.ID, &r.Company, &status, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Errorf("postgres: run %s not found", runID)
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get run")
	}
	r.Status = RunStatus(status)
	return &r, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, company string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}

	var rows pgx.Rows
	var err error
	if company != "" {
		rows, err = s.pool.Query(ctx,
			`SELECT id, company, status, created_at, updated_at FROM runs WHERE company = $1 ORDER BY created_at DESC LIMIT $2`,
			company, limit)
	} else {
		rows, err = s.pool.Query(ctx,
			`SELECT id, company, status, created_at, updated_at FROM runs ORDER BY created_at DESC LIMIT $1`,
			limit)
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var status string
		if err := rows.Scan(&r.ID, &r.Company, &status, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		r.Status = RunStatus(status)
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: iterate runs")
}

func (s *PostgresStore) WriteSummaries(ctx context.Context, records []SummaryRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	for _, rec := range records {
		_, err := tx.Exec(ctx,
			`INSERT INTO section_summaries (run_id, section_key, part, title, summary, word_count, failed)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 ON CONFLICT (run_id, section_key) DO UPDATE SET summary = EXCLUDED.summary, word_count = EXCLUDED.word_count, failed = EXCLUDED.failed`,
			rec.RunID, rec.SectionKey, rec.Part, rec.Title, rec.Summary, rec.WordCount, rec.Failed,
		)
		if err != nil {
			return eris.Wrapf(err, "postgres: insert summary %s", rec.SectionKey)
		}
	}
	return eris.Wrap(tx.Commit(ctx), "postgres: commit summaries")
}

func (s *PostgresStore) WriteAnalyses(ctx context.Context, records []AnalysisRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	for _, rec := range records {
		_, err := tx.Exec(ctx,
			`INSERT INTO chunk_analyses (run_id, chunk_index, focus, text, failed)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (run_id, chunk_index) DO UPDATE SET focus = EXCLUDED.focus, text = EXCLUDED.text, failed = EXCLUDED.failed`,
			rec.RunID, rec.ChunkIndex, rec.Focus, rec.Text, rec.Failed,
		)
		if err != nil {
			return eris.Wrapf(err, "postgres: insert analysis %d", rec.ChunkIndex)
		}
	}
	return eris.Wrap(tx.Commit(ctx), "postgres: commit analyses")
}

func (s *PostgresStore) WriteEmbeddings(ctx context.Context, records []EmbeddingRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	for _, rec := range records {
		vec, err := json.Marshal(rec.Vector)
		if err != nil {
			return eris.Wrap(err, "postgres: marshal vector")
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO embeddings (run_id, section_key, vector) VALUES ($1, $2, $3)
			 ON CONFLICT (run_id, section_key) DO UPDATE SET vector = EXCLUDED.vector`,
			rec.RunID, rec.SectionKey, vec,
		)
		if err != nil {
			return eris.Wrapf(err, "postgres: insert embedding %s", rec.SectionKey)
		}
	}
	return eris.Wrap(tx.Commit(ctx), "postgres: commit embeddings")
}
