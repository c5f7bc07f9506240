package repository

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"sudooom.im.mafia/internal/model"
)

// LogRepository 游戏叙事日志仓库，只追加
// Append 按 ID 幂等，重复写入同一条日志不会产生重复记录
type LogRepository interface {
	Append(ctx context.Context, entries []model.LogEntry) error
	List(ctx context.Context, sessionID string) ([]model.LogEntry, error)
}

// parseLogID 日志ID为雪花ID，数据库中按整数存储
// 同一次结算产生的日志 created_at 相同，按整数ID排序才能保持生成顺序
func parseLogID(id string) (int64, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid log id %q: %w", id, err)
	}
	return n, nil
}

// MemoryLogRepository 进程内日志仓库
type MemoryLogRepository struct {
	mu      sync.RWMutex
	seen    map[string]struct{}
	entries map[string][]model.LogEntry
}

// NewMemoryLogRepository 创建进程内日志仓库
func NewMemoryLogRepository() *MemoryLogRepository {
	return &MemoryLogRepository{
		seen:    make(map[string]struct{}),
		entries: make(map[string][]model.LogEntry),
	}
}

func (r *MemoryLogRepository) Append(_ context.Context, entries []model.LogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range entries {
		if _, ok := r.seen[e.ID]; ok {
			continue
		}
		r.seen[e.ID] = struct{}{}
		r.entries[e.SessionID] = append(r.entries[e.SessionID], e)
	}
	return nil
}

func (r *MemoryLogRepository) List(_ context.Context, sessionID string) ([]model.LogEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]model.LogEntry(nil), r.entries[sessionID]...), nil
}
