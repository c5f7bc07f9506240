package repository

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"sudooom.im.mafia/internal/model"
)

const postgresSchema = `
	CREATE TABLE IF NOT EXISTS game_logs (
		id         BIGINT PRIMARY KEY,
		session_id TEXT NOT NULL,
		message    TEXT NOT NULL,
		kind       TEXT NOT NULL,
		phase_seq  BIGINT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_game_logs_session ON game_logs (session_id, created_at, id);
`

// PostgresLogRepository 基于 PostgreSQL 的日志仓库
type PostgresLogRepository struct {
	db *pgxpool.Pool
}

// NewPostgresLogRepository 创建日志仓库
func NewPostgresLogRepository(db *pgxpool.Pool) *PostgresLogRepository {
	return &PostgresLogRepository{db: db}
}

// EnsureSchema 建表
func (r *PostgresLogRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("failed to create game_logs schema: %w", err)
	}
	return nil
}

// Append 批量写入日志
func (r *PostgresLogRepository) Append(ctx context.Context, entries []model.LogEntry) error {
	if len(entries) == 0 {
		return nil
	}

	query := `
		INSERT INTO game_logs (id, session_id, message, kind, phase_seq, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING
	`

	batch := &pgx.Batch{}
	for _, e := range entries {
		id, err := parseLogID(e.ID)
		if err != nil {
			return err
		}
		batch.Queue(query, id, e.SessionID, e.Message, string(e.Kind), e.PhaseSeq, e.CreatedAt)
	}

	if err := r.db.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to append game logs: %w", err)
	}
	return nil
}

// List 按写入顺序列出会话日志
func (r *PostgresLogRepository) List(ctx context.Context, sessionID string) ([]model.LogEntry, error) {
	query := `
		SELECT id, session_id, message, kind, phase_seq, created_at
		FROM game_logs WHERE session_id = $1
		ORDER BY created_at, id
	`

	rows, err := r.db.Query(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list game logs: %w", err)
	}
	defer rows.Close()

	var entries []model.LogEntry
	for rows.Next() {
		var (
			e    model.LogEntry
			id   int64
			kind string
		)
		if err := rows.Scan(&id, &e.SessionID, &e.Message, &kind, &e.PhaseSeq, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.ID = strconv.FormatInt(id, 10)
		e.Kind = model.LogKind(kind)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
