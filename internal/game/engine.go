package game

import (
	"fmt"
	"time"

	"sudooom.im.mafia/internal/model"
)

// DefaultPhaseDuration 默认阶段时长
const DefaultPhaseDuration = 60 * time.Second

// Engine 阶段状态机
// 引擎只在内存中修改传入的会话副本，不做任何 I/O；持久化与并发控制由调用方的 CAS 写入负责
//
//	lobby → night → day → night → … → ended
type Engine struct {
	rng           Rand
	now           func() time.Time
	phaseDuration time.Duration
}

// Resolution 一次阶段结算的结果
type Resolution struct {
	Phase          model.Phase           // 被结算的阶段
	PhaseSeq       int64                 // 被结算的阶段序号
	Victims        []string              // 本阶段出局的玩家
	Investigations []model.Investigation // 本阶段产生的调查结果
	Outcome        Outcome               // 胜负判定
	Entries        []model.LogEntry      // 叙事日志
}

// NewEngine 创建阶段引擎
func NewEngine(rng Rand, phaseDuration time.Duration) *Engine {
	if rng == nil {
		rng = NewRand()
	}
	if phaseDuration <= 0 {
		phaseDuration = DefaultPhaseDuration
	}
	return &Engine{
		rng:           rng,
		now:           time.Now,
		phaseDuration: phaseDuration,
	}
}

// SetClock 替换时钟
func (e *Engine) SetClock(now func() time.Time) {
	e.now = now
}

// Now 引擎当前时间
func (e *Engine) Now() time.Time {
	return e.now()
}

// Rand 引擎使用的随机源
func (e *Engine) Rand() Rand {
	return e.rng
}

// PhaseDuration 阶段时长
func (e *Engine) PhaseDuration() time.Duration {
	return e.phaseDuration
}

// RequireHost 校验调用方是房主
func RequireHost(s *model.Session, callerID string) error {
	caller := s.FindPlayer(callerID)
	if caller == nil {
		return ErrNotFound.WithContext("playerId", callerID)
	}
	if !caller.IsHost {
		return ErrNotHost
	}
	return nil
}

// StartGame 开始游戏：分配角色并进入第一个夜晚
func (e *Engine) StartGame(s *model.Session, callerID string) ([]model.LogEntry, error) {
	if s.IsEnded() {
		return nil, ErrGameAlreadyEnded
	}
	if s.Status != model.StatusWaiting {
		return nil, ErrGameAlreadyStarted
	}
	if err := RequireHost(s, callerID); err != nil {
		return nil, err
	}

	now := e.now()
	assigned, err := AssignRoles(s, e.rng, now)
	if err != nil {
		return nil, err
	}

	s.Status = model.StatusNight
	s.Phase = model.PhaseNight
	s.PhaseSeq++
	s.Ballots = nil
	e.beginPhase(s, now)

	return []model.LogEntry{
		assigned,
		NewLogEntry(s, model.LogInfo, "🌙 The game has begun. Night falls.", now),
	}, nil
}

// Submit 记录玩家本阶段的行动并标记就绪
// targetID 为空表示弃权
func (e *Engine) Submit(s *model.Session, playerID, targetID string) ([]model.LogEntry, error) {
	if s.IsEnded() {
		return nil, ErrGameAlreadyEnded
	}
	if !s.InProgress() {
		return nil, ErrGameNotStarted
	}
	actor := s.FindPlayer(playerID)
	if actor == nil {
		return nil, ErrNotFound.WithContext("playerId", playerID)
	}
	if !actor.IsAlive {
		return nil, ErrIllegalTarget.WithContext("reason", "player is dead")
	}

	kind, err := checkAction(s, actor, targetID)
	if err != nil {
		return nil, err
	}

	now := e.now()
	box := NewBallotBox(s.Ballots)
	box.Record(actor.ID, targetID, kind, s.PhaseSeq, now)
	s.Ballots = box.Ballots()

	actor.IsReady = true
	actor.LastActive = now

	return []model.LogEntry{
		NewLogEntry(s, model.LogAction, fmt.Sprintf("%s submitted an action.", actor.Name), now),
	}, nil
}

// checkAction 校验角色、阶段与目标
func checkAction(s *model.Session, actor *model.Player, targetID string) (model.VoteKind, error) {
	rule, ok, err := RuleFor(actor.Role, s.Phase)
	if err != nil {
		return "", ErrIllegalTarget.WithCause(err)
	}
	if !ok {
		return "", ErrIllegalTarget.WithContext("reason", "no action for this role in this phase")
	}
	if targetID == "" {
		return rule.Kind, nil
	}
	target := s.FindPlayer(targetID)
	if target == nil || !target.IsAlive {
		return "", ErrIllegalTarget.WithContext("targetId", targetID)
	}
	if !rule.Eligible(actor, target) {
		return "", ErrIllegalTarget.WithContext("targetId", targetID).WithContext("kind", rule.Kind)
	}
	return rule.Kind, nil
}

// AllLivingReady 所有存活玩家是否都已就绪
func AllLivingReady(s *model.Session) bool {
	living, ready := 0, 0
	for _, p := range s.Players {
		if !p.IsAlive {
			continue
		}
		living++
		if p.IsReady {
			ready++
		}
	}
	return living > 0 && ready == living
}

// Resolve 结算阶段 expectedSeq
// 会话已离开该阶段时返回 ErrConcurrentAdvancementLost；force 为 false 时要求所有存活玩家就绪
func (e *Engine) Resolve(s *model.Session, expectedSeq int64, force bool) (*Resolution, error) {
	if s.PhaseSeq != expectedSeq {
		return nil, ErrConcurrentAdvancementLost.
			WithContext("expected", expectedSeq).
			WithContext("actual", s.PhaseSeq)
	}
	if s.IsEnded() {
		return nil, ErrGameAlreadyEnded
	}
	if !s.InProgress() {
		return nil, ErrGameNotStarted
	}
	if !force && !AllLivingReady(s) {
		return nil, ErrNotAllReady
	}

	now := e.now()
	res := &Resolution{Phase: s.Phase, PhaseSeq: s.PhaseSeq}
	box := NewBallotBox(s.Ballots)

	switch s.Phase {
	case model.PhaseNight:
		e.resolveNight(s, box, res, now)
	case model.PhaseDay:
		e.resolveDay(s, box, res, now)
	}

	res.Outcome = Evaluate(s.Players)
	box.Clear(s.PhaseSeq)
	s.Ballots = box.Ballots()
	s.PhaseSeq++

	if !res.Outcome.Continue() {
		e.end(s, res, now)
		return res, nil
	}

	if s.Phase == model.PhaseNight {
		s.Phase = model.PhaseDay
		s.Status = model.StatusDay
		e.beginPhase(s, now)
		res.Entries = append(res.Entries, NewLogEntry(s, model.LogInfo, "☀️ Day begins.", now))
	} else {
		s.Phase = model.PhaseNight
		s.Status = model.StatusNight
		e.beginPhase(s, now)
		res.Entries = append(res.Entries, NewLogEntry(s, model.LogInfo, "🌙 Night falls.", now))
	}
	return res, nil
}

// resolveNight 夜晚结算：击杀目标与救治目标不同才会出局
func (e *Engine) resolveNight(s *model.Session, box *BallotBox, res *Resolution, now time.Time) {
	seq := s.PhaseSeq
	killID, hasKill := box.Resolve(model.VoteKill, seq, e.rng)
	saveID, _ := box.Resolve(model.VoteSave, seq, e.rng)

	died := false
	if hasKill && killID != saveID {
		if victim := s.FindPlayer(killID); victim != nil && victim.IsAlive {
			victim.IsAlive = false
			died = true
			res.Victims = append(res.Victims, victim.ID)
			res.Entries = append(res.Entries, NewLogEntry(s, model.LogDeath,
				fmt.Sprintf("💀 %s was eliminated during the night.", victim.Name), now))
		}
	}
	if !died {
		res.Entries = append(res.Entries, NewLogEntry(s, model.LogInfo, "🛡️ No one was eliminated during the night.", now))
	}

	if targetID, ok := box.Resolve(model.VoteInvestigate, seq, e.rng); ok {
		e.deliverInvestigation(s, targetID, res, now)
	}
}

// deliverInvestigation 把调查结果记给每个存活侦探，当晚出局的侦探收不到结果
func (e *Engine) deliverInvestigation(s *model.Session, targetID string, res *Resolution, now time.Time) {
	target := s.FindPlayer(targetID)
	if target == nil {
		return
	}
	for _, p := range s.Players {
		if p.Role != model.RoleDetective || !p.IsAlive {
			continue
		}
		inv := model.Investigation{
			DetectiveID: p.ID,
			TargetID:    target.ID,
			TargetRole:  target.Role,
			PhaseSeq:    s.PhaseSeq,
		}
		s.Investigations = append(s.Investigations, inv)
		res.Investigations = append(res.Investigations, inv)
	}
	if len(res.Investigations) > 0 {
		res.Entries = append(res.Entries, NewLogEntry(s, model.LogInfo, "🔍 The detective completed an investigation.", now))
	}
}

// resolveDay 白天结算：最高票者出局
func (e *Engine) resolveDay(s *model.Session, box *BallotBox, res *Resolution, now time.Time) {
	targetID, ok := box.Resolve(model.VoteEliminate, s.PhaseSeq, e.rng)
	if ok {
		if victim := s.FindPlayer(targetID); victim != nil && victim.IsAlive {
			victim.IsAlive = false
			res.Victims = append(res.Victims, victim.ID)
			res.Entries = append(res.Entries, NewLogEntry(s, model.LogDeath,
				fmt.Sprintf("⚖️ %s was eliminated by vote.", victim.Name), now))
			return
		}
	}
	res.Entries = append(res.Entries, NewLogEntry(s, model.LogInfo, "🤷 No elimination today.", now))
}

// end 进入终态
func (e *Engine) end(s *model.Session, res *Resolution, now time.Time) {
	s.Status = model.StatusEnded
	s.Phase = model.PhaseEnded
	s.Winner = res.Outcome.Winner
	s.PhaseEndsAt = nil

	msg := "🛡️ Town wins!"
	if s.Winner == model.WinnerMafia {
		msg = "😈 Mafia wins!"
	}
	res.Entries = append(res.Entries, NewLogEntry(s, model.LogVictory, msg, now))
}

// beginPhase 新阶段开始：重置存活玩家就绪状态，无行动的角色直接就绪
func (e *Engine) beginPhase(s *model.Session, now time.Time) {
	ends := now.Add(e.phaseDuration)
	s.PhaseEndsAt = &ends
	for i := range s.Players {
		p := &s.Players[i]
		if !p.IsAlive {
			continue
		}
		_, acts, err := RuleFor(p.Role, s.Phase)
		p.IsReady = err == nil && !acts
	}
}
