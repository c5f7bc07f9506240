package session

import (
	"context"

	"sudooom.im.mafia/internal/game"
	"sudooom.im.mafia/internal/model"
)

// GetSession 获取会话公开视图
func (s *SessionService) GetSession(ctx context.Context, sessionID string) (*model.SessionView, error) {
	sess, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, translate(err)
	}
	return sess.View(), nil
}

// GetLog 按创建顺序获取会话叙事日志
func (s *SessionService) GetLog(ctx context.Context, sessionID string) ([]model.LogEntry, error) {
	if _, err := s.store.Get(ctx, sessionID); err != nil {
		return nil, translate(err)
	}
	entries, err := s.logs.List(ctx, sessionID)
	if err != nil {
		s.logger.Error("Failed to list game log", "error", err, "sessionId", sessionID)
		return nil, game.ErrStoreUnavailable.WithCause(err)
	}
	return entries, nil
}

// GetInvestigations 获取侦探本人的调查结果
func (s *SessionService) GetInvestigations(ctx context.Context, sessionID, playerID string) ([]model.Investigation, error) {
	sess, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, translate(err)
	}
	if sess.FindPlayer(playerID) == nil {
		return nil, game.ErrNotFound.WithContext("playerId", playerID)
	}

	result := make([]model.Investigation, 0)
	for _, inv := range sess.Investigations {
		if inv.DetectiveID == playerID {
			result = append(result, inv)
		}
	}
	return result, nil
}

// GetRole 获取玩家本人的角色
func (s *SessionService) GetRole(ctx context.Context, sessionID, playerID string) (model.Role, error) {
	sess, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return model.RoleNone, translate(err)
	}
	p := sess.FindPlayer(playerID)
	if p == nil {
		return model.RoleNone, game.ErrNotFound.WithContext("playerId", playerID)
	}
	return p.Role, nil
}
