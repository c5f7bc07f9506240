package nats

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/nats-io/nats.go"
	"sudooom.im.mafia/internal/feed"
	sharedNats "sudooom.im.mafia/shared/nats"
)

// SubscriberConfig Worker Pool 配置
type SubscriberConfig struct {
	WorkerCount int // Worker 数量
	BufferSize  int // 消息缓冲区大小
}

// EventSubscriber 阶段生命周期事件订阅器
// 以队列组订阅所有会话的阶段 Subject，多实例部署时每个事件只会被一个实例处理
// 缓冲区满时阻塞投递而不是丢弃，丢掉一个 PHASE_STARTED 会让该阶段失去截止时间
type EventSubscriber struct {
	nc     *nats.Conn
	logger *slog.Logger
	config SubscriberConfig
}

// NewEventSubscriber 创建会话事件订阅器
func NewEventSubscriber(nc *nats.Conn, config SubscriberConfig) *EventSubscriber {
	if config.WorkerCount <= 0 {
		config.WorkerCount = 16
	}
	if config.BufferSize <= 0 {
		config.BufferSize = 1024
	}

	return &EventSubscriber{
		nc:     nc,
		logger: slog.Default(),
		config: config,
	}
}

// Subscribe 启动订阅和 worker，返回的句柄负责停止
func (s *EventSubscriber) Subscribe(ctx context.Context, handler feed.Handler) (feed.Subscription, error) {
	workerCtx, cancel := context.WithCancel(ctx)
	sub := &subscription{
		msgChan: make(chan *nats.Msg, s.config.BufferSize),
		cancel:  cancel,
		logger:  s.logger,
	}

	for i := 0; i < s.config.WorkerCount; i++ {
		sub.wg.Add(1)
		go sub.worker(workerCtx, handler)
	}

	natsSub, err := s.nc.QueueSubscribe(sharedNats.SubjectPhaseWildcard, sharedNats.QueueGroupDeadline, func(msg *nats.Msg) {
		select {
		case sub.msgChan <- msg:
		case <-workerCtx.Done():
		}
	})
	if err != nil {
		cancel()
		sub.wg.Wait()
		return nil, err
	}
	sub.natsSub = natsSub

	s.logger.Info("NATS subscriber started",
		"subject", sharedNats.SubjectPhaseWildcard,
		"queueGroup", sharedNats.QueueGroupDeadline,
		"workerCount", s.config.WorkerCount,
		"bufferSize", s.config.BufferSize,
	)
	return sub, nil
}

type subscription struct {
	natsSub *nats.Subscription
	msgChan chan *nats.Msg
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	logger  *slog.Logger
	once    sync.Once
}

func (s *subscription) worker(ctx context.Context, handler feed.Handler) {
	defer s.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-s.msgChan:
			var ev feed.Event
			if err := json.Unmarshal(msg.Data, &ev); err != nil {
				s.logger.Error("Failed to unmarshal event", "subject", msg.Subject, "error", err)
				continue
			}
			handler(ctx, &ev)
		}
	}
}

// Unsubscribe 取消订阅并等待 worker 退出
func (s *subscription) Unsubscribe() error {
	var err error
	s.once.Do(func() {
		if s.natsSub != nil {
			if err = s.natsSub.Unsubscribe(); err != nil {
				s.logger.Error("Failed to unsubscribe", "error", err)
			}
		}
		s.cancel()
		s.wg.Wait()
		s.logger.Info("NATS subscriber stopped")
	})
	return err
}
