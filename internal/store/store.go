package store

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"sudooom.im.mafia/internal/model"
)

var (
	ErrNotFound        = errors.New("session not found")
	ErrVersionConflict = errors.New("session version conflict")
	ErrCodeTaken       = errors.New("session code already in use")

	// ErrNoChange 由 Mutate 的 fn 返回，表示无需写入，Mutate 返回当前文档且不报错
	ErrNoChange = errors.New("session unchanged")
)

const (
	// MaxMutateAttempts 版本冲突时的最大尝试次数
	// 一张桌最多 12 名玩家同时提交，每次冲突都意味着另一名写入者已提交，预留余量
	MaxMutateAttempts = 16

	// mutateBackoff 冲突后的基础退避时长，实际等待随尝试次数线性增长并叠加随机抖动
	mutateBackoff = time.Millisecond
)

// SessionStore 会话文档存储
// Save 是唯一的写入口：只有当存储中的版本仍等于 expectedVersion 时才写入，成功后 s.Version 加一
type SessionStore interface {
	Create(ctx context.Context, s *model.Session) error
	Get(ctx context.Context, sessionID string) (*model.Session, error)
	GetByCode(ctx context.Context, code string) (*model.Session, error)
	Save(ctx context.Context, s *model.Session, expectedVersion int64) error
}

// Mutate 读取最新文档，在副本上执行 fn 并以 CAS 写回，版本冲突时退避后重新读取重试
// fn 返回错误时放弃写入并原样返回该错误，返回 ErrNoChange 时放弃写入并返回当前文档
// 重试耗尽时返回 ErrVersionConflict
// fn 可能被执行多次，不能有外部副作用
func Mutate(ctx context.Context, st SessionStore, sessionID string, fn func(s *model.Session) error) (*model.Session, error) {
	var lastErr error
	for attempt := 0; attempt < MaxMutateAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		current, err := st.Get(ctx, sessionID)
		if err != nil {
			return nil, err
		}

		next := current.Clone()
		if err := fn(next); err != nil {
			if errors.Is(err, ErrNoChange) {
				return current, nil
			}
			return nil, err
		}

		err = st.Save(ctx, next, current.Version)
		if err == nil {
			return next, nil
		}
		if !errors.Is(err, ErrVersionConflict) {
			return nil, err
		}
		lastErr = err

		if attempt+1 < MaxMutateAttempts {
			if err := backoff(ctx, attempt); err != nil {
				return nil, err
			}
		}
	}
	return nil, lastErr
}

// backoff 等待 (attempt+1) 个基础时长再加上不超过该值的随机抖动，错开同时冲突的写入者
func backoff(ctx context.Context, attempt int) error {
	delay := mutateBackoff * time.Duration(attempt+1)
	delay += time.Duration(rand.Int63n(int64(delay)))

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
