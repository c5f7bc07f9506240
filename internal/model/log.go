package model

import "time"

// LogKind 日志类型
type LogKind string

const (
	LogInfo    LogKind = "info"
	LogAction  LogKind = "action"
	LogDeath   LogKind = "death"
	LogVictory LogKind = "victory"
)

// LogEntry 游戏叙事日志，只追加
type LogEntry struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Message   string    `json:"message"`
	Kind      LogKind   `json:"kind"`
	PhaseSeq  int64     `json:"phase_seq"`
	CreatedAt time.Time `json:"created_at"`
}
