package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/therealutkarshpriyadarshi/mediagate/internal/metrics"
	"github.com/therealutkarshpriyadarshi/mediagate/pkg/models"
)

const createHistoryTable = `
	CREATE TABLE IF NOT EXISTS download_history (
		id          UUID PRIMARY KEY,
		url         TEXT NOT NULL,
		container   VARCHAR(8) NOT NULL,
		format_id   TEXT NOT NULL DEFAULT '',
		filename    TEXT NOT NULL DEFAULT '',
		state       VARCHAR(16) NOT NULL,
		bytes       BIGINT NOT NULL DEFAULT 0,
		exit_code   INTEGER NOT NULL DEFAULT 0,
		error_kind  VARCHAR(64) NOT NULL DEFAULT '',
		cancelled   BOOLEAN NOT NULL DEFAULT FALSE,
		started_at  TIMESTAMPTZ NOT NULL,
		finished_at TIMESTAMPTZ NOT NULL
	)
`

const createHistoryIndex = `
	CREATE INDEX IF NOT EXISTS idx_download_history_started_at
	ON download_history (started_at DESC)
`

const insertHistory = `
	INSERT INTO download_history (id, url, container, format_id, filename, state, bytes,
		exit_code, error_kind, cancelled, started_at, finished_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
`

// Execer is the subset of a pgx pool used by the history repository
type Execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// HistoryRepository stores one row per download attempt
type HistoryRepository struct {
	db Execer
}

// NewHistoryRepository creates a new repository
func NewHistoryRepository(db Execer) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// EnsureSchema creates the history table if it does not exist
func (r *HistoryRepository) EnsureSchema(ctx context.Context) error {
	for _, stmt := range []string{createHistoryTable, createHistoryIndex} {
		if _, err := r.db.Exec(ctx, stmt); err != nil {
			metrics.RecordDatabaseOperation("ensure_schema", "error")
			return fmt.Errorf("failed to create download history schema: %w", err)
		}
	}
	metrics.RecordDatabaseOperation("ensure_schema", "success")
	return nil
}

// RecordDownload inserts rec, assigning an id when it has none
func (r *HistoryRepository) RecordDownload(ctx context.Context, rec *models.DownloadRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}

	_, err := r.db.Exec(ctx, insertHistory,
		rec.ID, rec.URL, string(rec.Container), rec.FormatID, rec.Filename, rec.State, rec.Bytes,
		rec.ExitCode, rec.ErrorKind, rec.Cancelled, rec.StartedAt, rec.FinishedAt,
	)
	if err != nil {
		metrics.RecordDatabaseOperation("record_download", "error")
		return fmt.Errorf("failed to record download: %w", err)
	}

	metrics.RecordDatabaseOperation("record_download", "success")
	return nil
}
