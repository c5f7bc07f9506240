package task

import (
	"context"
	"fmt"
	"time"
)

// TaskFunc 阶段截止任务执行函数
type TaskFunc func(ctx context.Context, sessionID string, phaseSeq int64) error

// Task 阶段截止任务
// 同一会话同一阶段只有一个任务，ID 由会话ID和阶段序号决定
type Task struct {
	ID        string        `json:"id"`        // 任务唯一ID
	SessionID string        `json:"sessionId"` // 会话ID
	PhaseSeq  int64         `json:"phaseSeq"`  // 到期时要结算的阶段
	Delay     time.Duration `json:"delay"`     // 延迟时长
	Fn        TaskFunc      `json:"-"`         // 执行函数
	CreatedAt time.Time     `json:"createdAt"` // 创建时间

	rounds int // 还需转过的整圈数
}

// BuildTaskID 构建阶段截止任务ID
func BuildTaskID(sessionID string, phaseSeq int64) string {
	return fmt.Sprintf("deadline:%s:%d", sessionID, phaseSeq)
}

// NewTask 创建阶段截止任务
func NewTask(sessionID string, phaseSeq int64, delay time.Duration, fn TaskFunc) *Task {
	return &Task{
		ID:        BuildTaskID(sessionID, phaseSeq),
		SessionID: sessionID,
		PhaseSeq:  phaseSeq,
		Delay:     delay,
		Fn:        fn,
		CreatedAt: time.Now(),
	}
}

// Execute 执行任务
func (t *Task) Execute(ctx context.Context) error {
	if t.Fn == nil {
		return nil
	}
	return t.Fn(ctx, t.SessionID, t.PhaseSeq)
}
