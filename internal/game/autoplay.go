package game

import "sudooom.im.mafia/internal/model"

// Autoplay 为未就绪的存活 AI 玩家代为行动
// 从合法目标中随机选择一个，没有行动或没有合法目标时直接就绪；重复调用不会产生新票
func (e *Engine) Autoplay(s *model.Session) (int, error) {
	if s.IsEnded() {
		return 0, ErrGameAlreadyEnded
	}
	if !s.InProgress() {
		return 0, ErrGameNotStarted
	}

	now := e.now()
	box := NewBallotBox(s.Ballots)
	acted := 0
	for i := range s.Players {
		p := &s.Players[i]
		if !p.IsSynthetic || !p.IsAlive || p.IsReady {
			continue
		}
		targets, kind, err := LegalTargets(s, p)
		if err != nil {
			return acted, err
		}
		if kind != "" && len(targets) > 0 {
			target := targets[e.rng.Intn(len(targets))]
			box.Record(p.ID, target.ID, kind, s.PhaseSeq, now)
		}
		p.IsReady = true
		p.LastActive = now
		acted++
	}
	s.Ballots = box.Ballots()
	return acted, nil
}
