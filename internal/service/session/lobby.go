package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"sudooom.im.mafia/internal/feed"
	"sudooom.im.mafia/internal/game"
	"sudooom.im.mafia/internal/model"
	"sudooom.im.mafia/internal/store"
)

// syntheticNames AI 玩家名称池
var syntheticNames = []string{
	"Aiden", "Nova", "Blitz", "Echo", "Zephyr", "Orion", "Rex", "Aura",
	"Pixel", "Bolt", "Vega", "Kai", "Zara", "Milo", "Ivy",
}

// CreateSession 创建会话，创建者成为房主
func (s *SessionService) CreateSession(ctx context.Context, hostName string) (*JoinResult, error) {
	name, err := normalizeName(hostName)
	if err != nil {
		return nil, err
	}

	now := s.engine.Now()
	host := model.Player{
		ID:         s.ids.NextID(),
		Name:       name,
		IsAlive:    true,
		IsHost:     true,
		LastActive: now,
		CreatedAt:  now,
	}
	sess := &model.Session{
		ID:        s.ids.NextID(),
		HostID:    host.ID,
		Status:    model.StatusWaiting,
		Phase:     model.PhaseLobby,
		Players:   []model.Player{host},
		CreatedAt: now,
		UpdatedAt: now,
	}

	// 房间码冲突时换一个重试
	for attempt := 0; ; attempt++ {
		sess.Code = newRoomCode(s.engine.Rand())
		err = s.store.Create(ctx, sess)
		if err == nil {
			break
		}
		if !errors.Is(err, store.ErrCodeTaken) || attempt+1 >= maxCodeAttempts {
			s.logger.Error("Failed to create session", "error", err, "attempt", attempt+1)
			return nil, translate(err)
		}
	}

	s.logger.Info("Session created",
		"sessionId", sess.ID,
		"code", sess.Code,
		"hostId", host.ID)

	result, err := s.issue(sess, host.ID)
	if err != nil {
		return nil, game.ErrStoreUnavailable.WithCause(err)
	}

	s.appendLog(ctx, []model.LogEntry{
		game.NewLogEntry(sess, model.LogInfo, fmt.Sprintf("🎭 Welcome to Mafia! Room created by %s", name), now),
	})
	s.publish(ctx, feed.NewSessionEvent(feed.EventSessionCreated, sess, now))
	return result, nil
}

// JoinSession 通过房间码加入大厅
func (s *SessionService) JoinSession(ctx context.Context, code, playerName string) (*JoinResult, error) {
	name, err := normalizeName(playerName)
	if err != nil {
		return nil, err
	}

	existing, err := s.store.GetByCode(ctx, strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return nil, translate(err)
	}

	var (
		playerID string
		entry    model.LogEntry
	)
	updated, err := store.Mutate(ctx, s.store, existing.ID, func(sess *model.Session) error {
		if sess.IsEnded() {
			return game.ErrGameAlreadyEnded
		}
		if sess.Status != model.StatusWaiting {
			return game.ErrGameAlreadyStarted
		}
		if sess.FindPlayerByName(name) != nil {
			return game.ErrDuplicateName.WithContext("name", name)
		}
		if len(sess.Players) >= game.MaxPlayers {
			return game.ErrSessionFull
		}

		now := s.engine.Now()
		if playerID == "" {
			playerID = s.ids.NextID()
		}
		sess.Players = append(sess.Players, model.Player{
			ID:         playerID,
			Name:       name,
			IsAlive:    true,
			LastActive: now,
			CreatedAt:  now,
		})
		entry = game.NewLogEntry(sess, model.LogInfo, fmt.Sprintf("👋 %s joined the game", name), now)
		return nil
	})
	if err != nil {
		s.logger.Warn("Join rejected", "error", err, "code", existing.Code, "name", name)
		return nil, translate(err)
	}

	s.logger.Info("Player joined",
		"sessionId", updated.ID,
		"playerId", playerID,
		"playerCount", len(updated.Players))

	result, err := s.issue(updated, playerID)
	if err != nil {
		return nil, game.ErrStoreUnavailable.WithCause(err)
	}

	s.appendLog(ctx, []model.LogEntry{entry})
	s.publish(ctx, feed.NewSessionEvent(feed.EventPlayerJoined, updated, entry.CreatedAt))
	return result, nil
}

// AddSyntheticPlayers 房主在大厅补充 AI 玩家，使人数达到 minCount（不超过上限）
// 返回新增人数，人数已足够时返回 0
func (s *SessionService) AddSyntheticPlayers(ctx context.Context, sessionID, callerID string, minCount int) (int, error) {
	target := min(minCount, game.MaxPlayers)

	var (
		added int
		entry model.LogEntry
	)
	updated, err := store.Mutate(ctx, s.store, sessionID, func(sess *model.Session) error {
		added = 0
		if sess.IsEnded() {
			return game.ErrGameAlreadyEnded
		}
		if sess.Status != model.StatusWaiting {
			return game.ErrGameAlreadyStarted
		}
		if err := game.RequireHost(sess, callerID); err != nil {
			return err
		}

		toAdd := target - len(sess.Players)
		if toAdd <= 0 {
			return store.ErrNoChange
		}

		now := s.engine.Now()
		rng := s.engine.Rand()
		offset := rng.Intn(len(syntheticNames))
		for i := 0; i < toAdd; i++ {
			sess.Players = append(sess.Players, model.Player{
				ID:          s.ids.NextID(),
				Name:        syntheticName(sess, syntheticNames[(i+offset)%len(syntheticNames)]),
				IsAlive:     true,
				IsReady:     true,
				IsSynthetic: true,
				LastActive:  now,
				CreatedAt:   now,
			})
		}
		added = toAdd
		entry = game.NewLogEntry(sess, model.LogInfo,
			fmt.Sprintf("🤖 Added %d AI player(s) to reach %d.", toAdd, target), now)
		return nil
	})
	if err != nil {
		s.logger.Warn("Add synthetic players rejected", "error", err, "sessionId", sessionID, "callerId", callerID)
		return 0, translate(err)
	}
	if added == 0 {
		return 0, nil
	}

	s.logger.Info("Synthetic players added",
		"sessionId", sessionID,
		"added", added,
		"playerCount", len(updated.Players))

	s.appendLog(ctx, []model.LogEntry{entry})
	s.publish(ctx, feed.NewSessionEvent(feed.EventPlayerJoined, updated, entry.CreatedAt))
	return added, nil
}

// syntheticName 生成不重名的 AI 名称，冲突时追加数字后缀
func syntheticName(sess *model.Session, base string) string {
	name := "🤖 " + base
	for suffix := 1; sess.FindPlayerByName(name) != nil; suffix++ {
		name = fmt.Sprintf("🤖 %s %d", base, suffix)
	}
	return name
}
