package feed

import (
	"context"
	"time"

	"sudooom.im.mafia/internal/model"
)

// EventType 变更事件类型
type EventType string

// 会话级事件，推送给会话内所有订阅者
const (
	EventSessionCreated EventType = "SESSION_CREATED"
	EventPlayerJoined   EventType = "PLAYER_JOINED"
	EventGameStarted    EventType = "GAME_STARTED"
	EventBallotCast     EventType = "BALLOT_CAST"
	EventPhaseStarted   EventType = "PHASE_STARTED"
	EventGameEnded      EventType = "GAME_ENDED"
	EventLogAppended    EventType = "LOG_APPENDED"
)

// 玩家私有事件，只推送给单个玩家
const (
	EventRoleAssigned        EventType = "ROLE_ASSIGNED"
	EventInvestigationResult EventType = "INVESTIGATION_RESULT"
)

// IsPhaseLifecycle 阶段开始或游戏结束，阶段截止调度只关心这两类事件
func (t EventType) IsPhaseLifecycle() bool {
	return t == EventPhaseStarted || t == EventGameEnded
}

// Event 会话变更事件
type Event struct {
	Type          EventType            `json:"type"`
	SessionID     string               `json:"session_id"`
	PhaseSeq      int64                `json:"phase_seq"`
	Phase         model.Phase          `json:"phase,omitempty"`
	PhaseEndsAt   *time.Time           `json:"phase_ends_at,omitempty"`
	Session       *model.SessionView   `json:"session,omitempty"`
	Log           *model.LogEntry      `json:"log,omitempty"`
	Role          model.Role           `json:"role,omitempty"`
	Investigation *model.Investigation `json:"investigation,omitempty"`
	At            time.Time            `json:"at"`
}

// Publisher 事件发布
type Publisher interface {
	Publish(ctx context.Context, ev *Event) error
	PublishToPlayer(ctx context.Context, playerID string, ev *Event) error
}

// Handler 事件处理函数
type Handler func(ctx context.Context, ev *Event)

// Subscription 订阅句柄
type Subscription interface {
	Unsubscribe() error
}

// Subscriber 订阅所有会话的阶段生命周期事件（PHASE_STARTED、GAME_ENDED）
type Subscriber interface {
	Subscribe(ctx context.Context, handler Handler) (Subscription, error)
}

// NewSessionEvent 以会话当前状态构造会话级事件
func NewSessionEvent(t EventType, s *model.Session, at time.Time) *Event {
	return &Event{
		Type:        t,
		SessionID:   s.ID,
		PhaseSeq:    s.PhaseSeq,
		Phase:       s.Phase,
		PhaseEndsAt: s.PhaseEndsAt,
		Session:     s.View(),
		At:          at,
	}
}
