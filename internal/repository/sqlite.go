package repository

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"sudooom.im.mafia/internal/model"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
	CREATE TABLE IF NOT EXISTS game_logs (
		id         INTEGER PRIMARY KEY,
		session_id TEXT NOT NULL,
		message    TEXT NOT NULL,
		kind       TEXT NOT NULL,
		phase_seq  INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_game_logs_session ON game_logs (session_id, created_at, id);
`

// SQLiteLogRepository 基于 SQLite 的日志仓库，用于单机部署
type SQLiteLogRepository struct {
	db *sql.DB
}

// OpenSQLite 打开 SQLite 日志库并建表，path 为 ":memory:" 时使用内存库
func OpenSQLite(path string) (*SQLiteLogRepository, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}

	dsn := ":memory:"
	if path != ":memory:" {
		dsn = filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// 内存库每个连接都是独立的库
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create game_logs schema: %w", err)
	}
	return &SQLiteLogRepository{db: db}, nil
}

// DB 返回底层连接，用于健康检查
func (r *SQLiteLogRepository) DB() *sql.DB {
	return r.db
}

// Close 关闭数据库
func (r *SQLiteLogRepository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

// Append 在一个事务内写入日志
func (r *SQLiteLogRepository) Append(ctx context.Context, entries []model.LogEntry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO game_logs (id, session_id, message, kind, phase_seq, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		id, err := parseLogID(e.ID)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, id, e.SessionID, e.Message, string(e.Kind), e.PhaseSeq, e.CreatedAt.UTC().UnixMilli()); err != nil {
			return fmt.Errorf("insert game log: %w", err)
		}
	}
	return tx.Commit()
}

// List 按写入顺序列出会话日志
func (r *SQLiteLogRepository) List(ctx context.Context, sessionID string) ([]model.LogEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, session_id, message, kind, phase_seq, created_at
		FROM game_logs WHERE session_id = ?
		ORDER BY created_at, id
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list game logs: %w", err)
	}
	defer rows.Close()

	var entries []model.LogEntry
	for rows.Next() {
		var (
			e         model.LogEntry
			id        int64
			kind      string
			createdAt int64
		)
		if err := rows.Scan(&id, &e.SessionID, &e.Message, &kind, &e.PhaseSeq, &createdAt); err != nil {
			return nil, err
		}
		e.ID = strconv.FormatInt(id, 10)
		e.Kind = model.LogKind(kind)
		e.CreatedAt = time.UnixMilli(createdAt).UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
