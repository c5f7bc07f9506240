package session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"sudooom.im.mafia/internal/feed"
	"sudooom.im.mafia/internal/task"
)

// Scheduler 阶段截止任务调度
type Scheduler interface {
	AddTask(t *task.Task) error
	RemoveTask(taskID string) error
}

// DeadlineWatcher 监听阶段事件并在截止时间到达时强制结算
// 一个阶段只挂一个任务，阶段推进或游戏结束后旧任务被移除；漏删的任务到期时只会得到已推进的结果
type DeadlineWatcher struct {
	service    *SessionService
	scheduler  Scheduler
	subscriber feed.Subscriber
	sub        feed.Subscription
	logger     *slog.Logger
}

// NewDeadlineWatcher 创建阶段截止监听器
func NewDeadlineWatcher(service *SessionService, scheduler Scheduler, subscriber feed.Subscriber) *DeadlineWatcher {
	return &DeadlineWatcher{
		service:    service,
		scheduler:  scheduler,
		subscriber: subscriber,
		logger:     slog.Default().With("component", "deadline"),
	}
}

// Start 开始订阅会话事件
func (w *DeadlineWatcher) Start(ctx context.Context) error {
	sub, err := w.subscriber.Subscribe(ctx, w.handle)
	if err != nil {
		return err
	}
	w.sub = sub
	w.logger.Info("Deadline watcher started")
	return nil
}

// Stop 停止订阅
func (w *DeadlineWatcher) Stop() error {
	if w.sub == nil {
		return nil
	}
	err := w.sub.Unsubscribe()
	w.sub = nil
	return err
}

func (w *DeadlineWatcher) handle(_ context.Context, ev *feed.Event) {
	switch ev.Type {
	case feed.EventPhaseStarted:
		w.cancel(ev.SessionID, ev.PhaseSeq-1)
		if ev.PhaseEndsAt == nil {
			return
		}
		delay := max(time.Until(*ev.PhaseEndsAt), 0)
		if err := w.scheduler.AddTask(task.NewTask(ev.SessionID, ev.PhaseSeq, delay, w.expire)); err != nil {
			w.logger.Warn("Failed to schedule phase deadline",
				"error", err,
				"sessionId", ev.SessionID,
				"phaseSeq", ev.PhaseSeq)
			return
		}
		w.logger.Debug("Phase deadline scheduled",
			"sessionId", ev.SessionID,
			"phaseSeq", ev.PhaseSeq,
			"delay", delay)
	case feed.EventGameEnded:
		w.cancel(ev.SessionID, ev.PhaseSeq-1)
	}
}

// cancel 移除阶段 phaseSeq 的截止任务
func (w *DeadlineWatcher) cancel(sessionID string, phaseSeq int64) {
	if phaseSeq <= 0 {
		return
	}
	err := w.scheduler.RemoveTask(task.BuildTaskID(sessionID, phaseSeq))
	if err != nil && !errors.Is(err, task.ErrTaskNotFound) {
		w.logger.Warn("Failed to cancel phase deadline",
			"error", err,
			"sessionId", sessionID,
			"phaseSeq", phaseSeq)
	}
}

// expire 截止时间到达
func (w *DeadlineWatcher) expire(ctx context.Context, sessionID string, phaseSeq int64) error {
	_, err := w.service.ForceAdvance(ctx, sessionID, phaseSeq)
	return err
}
