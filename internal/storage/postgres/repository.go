package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"examslot-watcher/internal/storage"
)

const createTableQuery = `
	CREATE TABLE IF NOT EXISTS exam_slot_attempts (
		id          BIGSERIAL PRIMARY KEY,
		run_id      UUID        NOT NULL,
		attempt     INTEGER     NOT NULL,
		started_at  TIMESTAMPTZ NOT NULL,
		finished_at TIMESTAMPTZ NOT NULL,
		outcome     TEXT        NOT NULL,
		slot_count  INTEGER     NOT NULL,
		fingerprint TEXT,
		error       TEXT
	)
`

type Repository struct {
	pool           *pgxpool.Pool
	commandTimeout time.Duration
}

func NewRepository(ctx context.Context, dsn string, commandTimeout time.Duration) (*Repository, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Одна попытка в минуту, больше одного соединения не нужно
	poolConfig.MaxConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Repository{pool: pool, commandTimeout: commandTimeout}, nil
}

func (r *Repository) EnsureSchema(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.commandTimeout)
	defer cancel()

	if _, err := r.pool.Exec(ctx, createTableQuery); err != nil {
		return fmt.Errorf("failed to create journal table: %w", err)
	}
	return nil
}

func (r *Repository) RecordAttempt(ctx context.Context, attempt *storage.Attempt) error {
	ctx, cancel := context.WithTimeout(ctx, r.commandTimeout)
	defer cancel()

	query := `
		INSERT INTO exam_slot_attempts
			(run_id, attempt, started_at, finished_at, outcome, slot_count, fingerprint, error)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), NULLIF($8, ''))
	`

	_, err := r.pool.Exec(ctx, query,
		attempt.RunID,
		attempt.Number,
		attempt.StartedAt,
		attempt.FinishedAt,
		string(attempt.Outcome),
		attempt.SlotCount,
		attempt.Fingerprint,
		attempt.Error,
	)
	if err != nil {
		return fmt.Errorf("failed to insert attempt: %w", err)
	}

	return nil
}

func (r *Repository) Close() error {
	r.pool.Close()
	return nil
}
