package session

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"unicode/utf8"

	"sudooom.im.mafia/internal/feed"
	"sudooom.im.mafia/internal/game"
	"sudooom.im.mafia/internal/model"
	"sudooom.im.mafia/internal/repository"
	"sudooom.im.mafia/internal/store"
	"sudooom.im.mafia/shared/jwt"
)

// DefaultMaxSettleRounds 一次请求内自动结算的最大轮数
const DefaultMaxSettleRounds = 32

// maxNameLength 玩家名称最大字符数
const maxNameLength = 32

// IDGenerator 全局唯一ID生成器
type IDGenerator interface {
	NextID() string
}

// TokenIssuer 玩家令牌签发
type TokenIssuer interface {
	GeneratePlayerToken(sessionID, playerID string) (*jwt.Token, error)
}

// JoinResult 创建或加入会话的结果
type JoinResult struct {
	Session  *model.SessionView `json:"session"`
	PlayerID string             `json:"player_id"`
	Token    *jwt.Token         `json:"token"`
}

// SessionService 会话服务
// 所有写入都经过 store.Mutate 的 CAS 提交，日志写入与事件推送只在提交成功后发生
type SessionService struct {
	store           store.SessionStore
	engine          *game.Engine
	publisher       feed.Publisher
	logs            repository.LogRepository
	ids             IDGenerator
	tokens          TokenIssuer
	maxSettleRounds int
	logger          *slog.Logger
}

// NewSessionService 创建会话服务
func NewSessionService(
	sessionStore store.SessionStore,
	engine *game.Engine,
	publisher feed.Publisher,
	logs repository.LogRepository,
	ids IDGenerator,
	tokens TokenIssuer,
	maxSettleRounds int,
) *SessionService {
	if maxSettleRounds <= 0 {
		maxSettleRounds = DefaultMaxSettleRounds
	}
	return &SessionService{
		store:           sessionStore,
		engine:          engine,
		publisher:       publisher,
		logs:            logs,
		ids:             ids,
		tokens:          tokens,
		maxSettleRounds: maxSettleRounds,
		logger:          slog.Default().With("component", "session"),
	}
}

// translate 把存储层错误转换为游戏错误
func translate(err error) error {
	if err == nil {
		return nil
	}
	var ge *game.GameError
	if errors.As(err, &ge) {
		return err
	}
	if errors.Is(err, store.ErrNotFound) {
		return game.ErrNotFound.WithCause(err)
	}
	if errors.Is(err, store.ErrVersionConflict) {
		return game.ErrSessionBusy.WithCause(err)
	}
	return game.ErrStoreUnavailable.WithCause(err)
}

// normalizeName 去掉首尾空白并校验长度
func normalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > maxNameLength {
		return "", game.ErrInvalidName.WithContext("name", name)
	}
	return name, nil
}

// issue 为玩家签发令牌并组装结果
func (s *SessionService) issue(sess *model.Session, playerID string) (*JoinResult, error) {
	token, err := s.tokens.GeneratePlayerToken(sess.ID, playerID)
	if err != nil {
		return nil, err
	}
	return &JoinResult{
		Session:  sess.View(),
		PlayerID: playerID,
		Token:    token,
	}, nil
}

// appendLog 为日志分配ID后写入仓库并推送
// 会话状态已经提交，日志写入失败只记录告警
func (s *SessionService) appendLog(ctx context.Context, entries []model.LogEntry) {
	if len(entries) == 0 {
		return
	}
	for i := range entries {
		if entries[i].ID == "" {
			entries[i].ID = s.ids.NextID()
		}
	}

	if err := s.logs.Append(ctx, entries); err != nil {
		s.logger.Warn("Failed to append game log",
			"error", err,
			"sessionId", entries[0].SessionID,
			"count", len(entries))
	}

	for i := range entries {
		entry := entries[i]
		s.publish(ctx, &feed.Event{
			Type:      feed.EventLogAppended,
			SessionID: entry.SessionID,
			PhaseSeq:  entry.PhaseSeq,
			Log:       &entry,
			At:        entry.CreatedAt,
		})
	}
}

// publish 推送会话级事件，推送失败不影响已提交的状态
func (s *SessionService) publish(ctx context.Context, ev *feed.Event) {
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.logger.Warn("Failed to publish session event",
			"error", err,
			"type", ev.Type,
			"sessionId", ev.SessionID)
	}
}

// publishToPlayer 推送玩家私有事件
func (s *SessionService) publishToPlayer(ctx context.Context, playerID string, ev *feed.Event) {
	if err := s.publisher.PublishToPlayer(ctx, playerID, ev); err != nil {
		s.logger.Warn("Failed to publish player event",
			"error", err,
			"type", ev.Type,
			"sessionId", ev.SessionID,
			"playerId", playerID)
	}
}
