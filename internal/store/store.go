// Package store persists analysis runs, section summaries, chunk analyses
// and embeddings behind a driver-agnostic interface.
package store

import (
	"context"
	"time"
)

// RunStatus tracks an analysis run's lifecycle.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Run is one document's analysis run.
type Run struct {
	ID        string
	Company   string
	Status    RunStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SummaryRecord is one persisted section summary.
type SummaryRecord struct {
	RunID      string
	SectionKey string
	Part       string
	Title      string
	Summary    string
	WordCount  int
	Failed     bool
}

// AnalysisRecord is one persisted chunk analysis, or the synthesis when
// ChunkIndex is 0.
type AnalysisRecord struct {
	RunID      string
	ChunkIndex int
	Focus      string
	Text       string
	Failed     bool
}

// EmbeddingRecord is a stored vector keyed by section.
type EmbeddingRecord struct {
	RunID      string
	SectionKey string
	Vector     []float64
}

// Store defines the persistence interface for the analysis pipeline.
type Store interface {
	CreateRun(ctx context.Context, company string) (*Run, error)
	CompleteRun(ctx context.Context, runID string, status RunStatus) error
	GetRun(ctx context.Context, runID string) (*Run, error)
	ListRuns(ctx context.Context, company string, limit int) ([]Run, error)

	WriteSummaries(ctx context.Context, records []SummaryRecord) error
	WriteAnalyses(ctx context.Context, records []AnalysisRecord) error
	WriteEmbeddings(ctx context.Context, records []EmbeddingRecord) error

	Migrate(ctx context.Context) error
	Close() error
}
