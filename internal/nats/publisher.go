package nats

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/nats-io/nats.go"
	"sudooom.im.mafia/internal/feed"
	sharedNats "sudooom.im.mafia/shared/nats"
)

// EventPublisher 会话事件发布器
type EventPublisher struct {
	nc     *nats.Conn
	logger *slog.Logger
}

// NewEventPublisher 创建会话事件发布器
func NewEventPublisher(nc *nats.Conn) *EventPublisher {
	return &EventPublisher{
		nc:     nc,
		logger: slog.Default(),
	}
}

// Publish 推送会话级事件，阶段生命周期事件额外发到阶段 Subject
func (p *EventPublisher) Publish(_ context.Context, ev *feed.Event) error {
	if err := p.publish(sharedNats.BuildSessionEventsSubject(ev.SessionID), ev); err != nil {
		return err
	}
	if ev.Type.IsPhaseLifecycle() {
		return p.publish(sharedNats.BuildPhaseSubject(ev.SessionID), ev)
	}
	return nil
}

// PublishToPlayer 推送玩家私有事件
func (p *EventPublisher) PublishToPlayer(_ context.Context, playerID string, ev *feed.Event) error {
	return p.publish(sharedNats.BuildPlayerSubject(ev.SessionID, playerID), ev)
}

func (p *EventPublisher) publish(subject string, ev *feed.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		p.logger.Error("Failed to marshal event", "type", ev.Type, "error", err)
		return err
	}

	if err := p.nc.Publish(subject, data); err != nil {
		p.logger.Error("Failed to publish event", "subject", subject, "type", ev.Type, "error", err)
		return err
	}

	p.logger.Debug("Published event", "subject", subject, "type", ev.Type, "phaseSeq", ev.PhaseSeq)
	return nil
}
