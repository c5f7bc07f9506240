package session

import (
	"context"
	"errors"

	"sudooom.im.mafia/internal/feed"
	"sudooom.im.mafia/internal/game"
	"sudooom.im.mafia/internal/model"
	"sudooom.im.mafia/internal/store"
)

// currentPhase 表示结算会话当前所处的阶段
const currentPhase int64 = -1

// advanceResult 一次推进尝试的结果
type advanceResult struct {
	session    *model.Session
	acted      int
	resolution *game.Resolution
}

// StartGame 房主开始游戏：分配角色并进入第一个夜晚
func (s *SessionService) StartGame(ctx context.Context, sessionID, callerID string) (*model.SessionView, error) {
	var entries []model.LogEntry
	updated, err := store.Mutate(ctx, s.store, sessionID, func(sess *model.Session) error {
		out, err := s.engine.StartGame(sess, callerID)
		if err != nil {
			return err
		}
		entries = out
		return nil
	})
	if err != nil {
		s.logger.Warn("Start game rejected", "error", err, "sessionId", sessionID, "callerId", callerID)
		return nil, translate(err)
	}

	s.logger.Info("Game started",
		"sessionId", sessionID,
		"playerCount", len(updated.Players),
		"phaseSeq", updated.PhaseSeq)

	now := s.engine.Now()
	s.appendLog(ctx, entries)
	s.publish(ctx, feed.NewSessionEvent(feed.EventGameStarted, updated, now))

	// 每个真人玩家只收到自己的角色
	for _, p := range updated.Players {
		if p.IsSynthetic {
			continue
		}
		s.publishToPlayer(ctx, p.ID, &feed.Event{
			Type:      feed.EventRoleAssigned,
			SessionID: updated.ID,
			PhaseSeq:  updated.PhaseSeq,
			Phase:     updated.Phase,
			Role:      p.Role,
			At:        now,
		})
	}
	s.publish(ctx, feed.NewSessionEvent(feed.EventPhaseStarted, updated, now))

	return s.settleView(ctx, updated), nil
}

// SubmitAction 提交本阶段行动，targetID 为空表示弃权
// 提交成功后立即尝试结算，所有存活玩家都就绪时阶段自动推进
func (s *SessionService) SubmitAction(ctx context.Context, sessionID, playerID, targetID string) (*model.SessionView, error) {
	var entries []model.LogEntry
	updated, err := store.Mutate(ctx, s.store, sessionID, func(sess *model.Session) error {
		out, err := s.engine.Submit(sess, playerID, targetID)
		if err != nil {
			return err
		}
		entries = out
		return nil
	})
	if err != nil {
		s.logger.Warn("Action rejected",
			"error", err,
			"sessionId", sessionID,
			"playerId", playerID,
			"targetId", targetID)
		return nil, translate(err)
	}

	s.logger.Debug("Action submitted",
		"sessionId", sessionID,
		"playerId", playerID,
		"phaseSeq", updated.PhaseSeq)

	s.appendLog(ctx, entries)
	s.publish(ctx, feed.NewSessionEvent(feed.EventBallotCast, updated, s.engine.Now()))

	return s.settleView(ctx, updated), nil
}

// AdvancePhase 房主手动推进：所有存活玩家就绪时结算当前阶段
func (s *SessionService) AdvancePhase(ctx context.Context, sessionID, callerID string) (*model.SessionView, error) {
	current, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, translate(err)
	}
	if err := game.RequireHost(current, callerID); err != nil {
		return nil, err
	}

	out, err := s.advance(ctx, sessionID, currentPhase, false, true)
	if err != nil {
		s.logger.Warn("Advance rejected", "error", err, "sessionId", sessionID, "callerId", callerID)
		return nil, err
	}
	return s.settleView(ctx, out.session), nil
}

// ForceAdvance 阶段截止：AI 代为行动后强制结算阶段 phaseSeq
// 该阶段已被推进或游戏已结束时什么也不做
func (s *SessionService) ForceAdvance(ctx context.Context, sessionID string, phaseSeq int64) (*model.SessionView, error) {
	out, err := s.advance(ctx, sessionID, phaseSeq, true, false)
	if err != nil {
		s.logger.Warn("Forced advance failed", "error", err, "sessionId", sessionID, "phaseSeq", phaseSeq)
		return nil, err
	}
	if out.resolution != nil {
		s.logger.Info("Phase deadline expired", "sessionId", sessionID, "phaseSeq", phaseSeq)
	}
	return s.settleView(ctx, out.session), nil
}

// advance 在一次 CAS 写入内完成 AI 代行动、就绪检查与阶段结算
// strict 为 true 时未开始、已结束、未全部就绪都作为错误返回，否则视为无需推进
func (s *SessionService) advance(ctx context.Context, sessionID string, expectedSeq int64, force, strict bool) (*advanceResult, error) {
	var (
		acted int
		res   *game.Resolution
	)
	updated, err := store.Mutate(ctx, s.store, sessionID, func(sess *model.Session) error {
		acted, res = 0, nil

		seq := expectedSeq
		if seq == currentPhase {
			seq = sess.PhaseSeq
		}
		if sess.PhaseSeq != seq {
			return game.ErrConcurrentAdvancementLost.
				WithContext("expected", seq).
				WithContext("actual", sess.PhaseSeq)
		}
		if !sess.InProgress() {
			if !strict {
				return store.ErrNoChange
			}
			if sess.IsEnded() {
				return game.ErrGameAlreadyEnded
			}
			return game.ErrGameNotStarted
		}

		n, err := s.engine.Autoplay(sess)
		if err != nil {
			return err
		}
		acted = n

		if !force && !game.AllLivingReady(sess) {
			if strict {
				return game.ErrNotAllReady
			}
			if acted == 0 {
				return store.ErrNoChange
			}
			return nil
		}

		r, err := s.engine.Resolve(sess, seq, force)
		if err != nil {
			return err
		}
		res = r
		return nil
	})
	if err != nil {
		if errors.Is(err, game.ErrConcurrentAdvancementLost) {
			s.logger.Debug("Phase already advanced", "sessionId", sessionID, "phaseSeq", expectedSeq)
			current, gerr := s.store.Get(ctx, sessionID)
			if gerr != nil {
				return nil, translate(gerr)
			}
			return &advanceResult{session: current}, nil
		}
		return nil, translate(err)
	}

	out := &advanceResult{session: updated, acted: acted, resolution: res}
	if res != nil {
		s.publishResolution(ctx, updated, res)
	} else if acted > 0 {
		s.publish(ctx, feed.NewSessionEvent(feed.EventBallotCast, updated, s.engine.Now()))
	}
	return out, nil
}

// publishResolution 结算提交后写日志、投递调查结果并推送新阶段
func (s *SessionService) publishResolution(ctx context.Context, sess *model.Session, res *game.Resolution) {
	s.logger.Info("Phase resolved",
		"sessionId", sess.ID,
		"phase", res.Phase,
		"phaseSeq", res.PhaseSeq,
		"victims", res.Victims,
		"winner", res.Outcome.Winner)

	now := s.engine.Now()
	s.appendLog(ctx, res.Entries)

	for i := range res.Investigations {
		inv := res.Investigations[i]
		s.publishToPlayer(ctx, inv.DetectiveID, &feed.Event{
			Type:          feed.EventInvestigationResult,
			SessionID:     sess.ID,
			PhaseSeq:      inv.PhaseSeq,
			Investigation: &inv,
			At:            now,
		})
	}

	if sess.IsEnded() {
		s.publish(ctx, feed.NewSessionEvent(feed.EventGameEnded, sess, now))
		return
	}
	s.publish(ctx, feed.NewSessionEvent(feed.EventPhaseStarted, sess, now))
}

// settle 反复尝试推进，直到没有可结算的阶段
// 只有 AI 玩家或所有人都已就绪时，一次请求内可以连续推进多个阶段
func (s *SessionService) settle(ctx context.Context, sessionID string) (*model.Session, error) {
	var last *model.Session
	for round := 0; round < s.maxSettleRounds; round++ {
		out, err := s.advance(ctx, sessionID, currentPhase, false, false)
		if err != nil {
			return last, err
		}
		last = out.session
		if out.resolution == nil {
			return last, nil
		}
	}
	s.logger.Warn("Settle rounds exhausted", "sessionId", sessionID, "rounds", s.maxSettleRounds)
	return last, nil
}

// settleView 在已提交的状态上运行 settle，失败时返回已提交状态的视图
func (s *SessionService) settleView(ctx context.Context, committed *model.Session) *model.SessionView {
	latest, err := s.settle(ctx, committed.ID)
	if err != nil {
		s.logger.Warn("Settle failed", "error", err, "sessionId", committed.ID)
	}
	if latest == nil {
		latest = committed
	}
	return latest.View()
}
