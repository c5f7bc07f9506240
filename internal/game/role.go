package game

import (
	"fmt"
	"time"

	"sudooom.im.mafia/internal/model"
)

const (
	// MinPlayers 开局最少人数
	MinPlayers = 7
	// MaxPlayers 房间人数上限
	MaxPlayers = 12
)

// TargetRule 某角色在某阶段的行动规则
type TargetRule struct {
	Kind     model.VoteKind
	Eligible func(actor, target *model.Player) bool
}

func anyLiving(_, _ *model.Player) bool { return true }

func notSelf(actor, target *model.Player) bool { return actor.ID != target.ID }

func notMafia(_, target *model.Player) bool { return target.Role != model.RoleMafia }

// RuleFor 返回角色在当前阶段的行动规则
// ok=false 表示该角色在此阶段没有行动（夜晚的平民），此时玩家自动就绪
func RuleFor(role model.Role, phase model.Phase) (TargetRule, bool, error) {
	switch phase {
	case model.PhaseNight:
		switch role {
		case model.RoleMafia:
			return TargetRule{Kind: model.VoteKill, Eligible: notMafia}, true, nil
		case model.RoleDoctor:
			return TargetRule{Kind: model.VoteSave, Eligible: anyLiving}, true, nil
		case model.RoleDetective:
			return TargetRule{Kind: model.VoteInvestigate, Eligible: notSelf}, true, nil
		case model.RoleCivilian:
			return TargetRule{}, false, nil
		}
	case model.PhaseDay:
		switch role {
		case model.RoleMafia, model.RoleDoctor, model.RoleDetective, model.RoleCivilian:
			return TargetRule{Kind: model.VoteEliminate, Eligible: notSelf}, true, nil
		}
	default:
		return TargetRule{}, false, ErrGameNotStarted
	}
	return TargetRule{}, false, fmt.Errorf("unknown role %q", role)
}

// LegalTargets 列出玩家在当前阶段可选的存活目标
func LegalTargets(s *model.Session, actor *model.Player) ([]model.Player, model.VoteKind, error) {
	rule, ok, err := RuleFor(actor.Role, s.Phase)
	if err != nil || !ok {
		return nil, "", err
	}
	targets := make([]model.Player, 0, len(s.Players))
	for i := range s.Players {
		t := &s.Players[i]
		if t.IsAlive && rule.Eligible(actor, t) {
			targets = append(targets, *t)
		}
	}
	return targets, rule.Kind, nil
}

// RoleCounts 按人数计算角色配比
func RoleCounts(n int) map[model.Role]int {
	mafia := n / 3
	civilian := n - mafia - 2
	if civilian < 0 {
		civilian = 0
	}
	return map[model.Role]int{
		model.RoleMafia:     mafia,
		model.RoleDoctor:    1,
		model.RoleDetective: 1,
		model.RoleCivilian:  civilian,
	}
}

// roleMultiset 按固定顺序展开角色配比
func roleMultiset(n int) []model.Role {
	counts := RoleCounts(n)
	roles := make([]model.Role, 0, n)
	for _, r := range []model.Role{model.RoleMafia, model.RoleDoctor, model.RoleDetective, model.RoleCivilian} {
		for i := 0; i < counts[r]; i++ {
			roles = append(roles, r)
		}
	}
	return roles
}

// AssignRoles 为名册随机分配角色，每个会话只能调用一次
func AssignRoles(s *model.Session, rng Rand, now time.Time) (model.LogEntry, error) {
	n := len(s.Players)
	if n < MinPlayers {
		return model.LogEntry{}, ErrInsufficientPlayers.WithContext("players", n)
	}
	for _, p := range s.Players {
		if p.Role != model.RoleNone {
			return model.LogEntry{}, ErrAlreadyAssigned
		}
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	rng.Shuffle(n, func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})

	roles := roleMultiset(n)
	for i, role := range roles {
		s.Players[order[i]].Role = role
	}

	return NewLogEntry(s, model.LogInfo, "🎭 Roles have been assigned.", now), nil
}

// NewLogEntry 构造会话当前阶段的叙事日志，ID 由服务层在提交后分配
func NewLogEntry(s *model.Session, kind model.LogKind, message string, now time.Time) model.LogEntry {
	return model.LogEntry{
		SessionID: s.ID,
		Message:   message,
		Kind:      kind,
		PhaseSeq:  s.PhaseSeq,
		CreatedAt: now,
	}
}
