package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

func TestPostgresStore_CreateRun(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO runs`).
		WithArgs(pgxmock.AnyArg(), "Acme Corp", "running", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	run, err := s.CreateRun(context.Background(), "Acme Corp")
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, "Acme Corp", run.Company)
	assert.Equal(t, RunStatusRunning, run.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetRun_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, company, status, created_at, updated_at FROM runs WHERE id = \$1`).
		WithArgs("nonexistent-run").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetRun(context.Background(), "nonexistent-run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetRun(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	now := time.Now().UTC()
	rows := pgxmock.NewRows([]string{"id", "company", "status", "created_at", "updated_at"}).
		AddRow("run-1", "Acme Corp", "completed", now, now)
	mock.ExpectQuery(`SELECT id, company, status, created_at, updated_at FROM runs WHERE id = \$1`).
		WithArgs("run-1").
		WillReturnRows(rows)

	run, err := s.GetRun(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", run.Company)
	assert.Equal(t, RunStatusCompleted, run.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CompleteRun_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE runs SET status`).
		WithArgs("failed", pgxmock.AnyArg(), "missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.CompleteRun(context.Background(), "missing", RunStatusFailed)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListRuns_ByCompany(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	now := time.Now().UTC()
	rows := pgxmock.NewRows([]string{"id", "company", "status", "created_at", "updated_at"}).
		AddRow("run-2", "Acme Corp", "running", now, now).
		AddRow("run-1", "Acme Corp", "completed", now.Add(-time.Hour), now.Add(-time.Hour))
	mock.ExpectQuery(`SELECT id, company, status, created_at, updated_at FROM runs WHERE company = \$1`).
		WithArgs("Acme Corp", 10).
		WillReturnRows(rows)

	runs, err := s.ListRuns(context.Background(), "Acme Corp", 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-2", runs[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_WriteSummaries_Upsert(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO section_summaries`).
		WithArgs("run-1", "PART I::Item 1. Business", "PART I", "Item 1. Business", "Sells widgets.", 2, false).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	err := s.WriteSummaries(context.Background(), []SummaryRecord{{
		RunID:      "run-1",
		SectionKey: "PART I::Item 1. Business",
		Part:       "PART I",
		Title:      "Item 1. Business",
		Summary:    "Sells widgets.",
		WordCount:  2,
	}})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_WriteAnalyses_RollsBackOnError(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO chunk_analyses`).
		WithArgs("run-1", 1, "business model and financial health", "analysis text", false).
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := s.WriteAnalyses(context.Background(), []AnalysisRecord{{
		RunID:      "run-1",
		ChunkIndex: 1,
		Focus:      "business model and financial health",
		Text:       "analysis text",
	}})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_WriteEmbeddings_Empty(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	err := s.WriteEmbeddings(context.Background(), nil)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
