package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/microsoft/go-mssqldb"

	"examslot-watcher/internal/observability"
	"examslot-watcher/internal/storage"
)

const createTableQuery = `
	IF OBJECT_ID(N'TblExamSlotAttempts', N'U') IS NULL
	CREATE TABLE TblExamSlotAttempts (
		[UID]         BIGINT IDENTITY(1,1) PRIMARY KEY,
		[RunID]       NVARCHAR(36)  NOT NULL,
		[Attempt]     INT           NOT NULL,
		[StartedAt]   DATETIME2     NOT NULL,
		[FinishedAt]  DATETIME2     NOT NULL,
		[Outcome]     NVARCHAR(16)  NOT NULL,
		[SlotCount]   INT           NOT NULL,
		[Fingerprint] NVARCHAR(64)  NULL,
		[Error]       NVARCHAR(MAX) NULL
	);
`

type Repository struct {
	db             *sql.DB
	commandTimeout time.Duration
	logger         *observability.Logger
}

func NewRepository(dsn string, commandTimeout time.Duration, logger *observability.Logger) (*Repository, error) {
	db, err := sql.Open("sqlserver", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Тестируем соединение
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Repository{
		db:             db,
		commandTimeout: commandTimeout,
		logger:         logger,
	}, nil
}

func (r *Repository) EnsureSchema(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.commandTimeout)
	defer cancel()

	if _, err := r.db.ExecContext(ctx, createTableQuery); err != nil {
		return fmt.Errorf("failed to create journal table: %w", err)
	}
	return nil
}

// RecordAttempt сохраняет попытку в журнал
func (r *Repository) RecordAttempt(ctx context.Context, attempt *storage.Attempt) error {
	ctx, cancel := context.WithTimeout(ctx, r.commandTimeout)
	defer cancel()

	query := `
		INSERT INTO TblExamSlotAttempts
			([RunID], [Attempt], [StartedAt], [FinishedAt], [Outcome], [SlotCount], [Fingerprint], [Error])
		VALUES (@RunID, @Attempt, @StartedAt, @FinishedAt, @Outcome, @SlotCount, @Fingerprint, @Error);
	`

	stmt, err := r.db.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() {
		if err := stmt.Close(); err != nil {
			r.logger.Error("Failed to close statement", "error", err.Error())
		}
	}()

	_, err = stmt.ExecContext(ctx,
		sql.Named("RunID", attempt.RunID),
		sql.Named("Attempt", attempt.Number),
		sql.Named("StartedAt", attempt.StartedAt.UTC()),
		sql.Named("FinishedAt", attempt.FinishedAt.UTC()),
		sql.Named("Outcome", string(attempt.Outcome)),
		sql.Named("SlotCount", attempt.SlotCount),
		sql.Named("Fingerprint", nullString(attempt.Fingerprint)),
		sql.Named("Error", nullString(attempt.Error)),
	)
	if err != nil {
		return fmt.Errorf("failed to insert attempt: %w", err)
	}

	return nil
}

// Close закрывает соединение с БД
func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
