package model

import "time"

// SessionView 会话公开视图，推送给所有客户端
// 游戏结束前不暴露任何人的角色，选票与调查结果永不公开
type SessionView struct {
	ID          string       `json:"id"`
	Code        string       `json:"code"`
	HostID      string       `json:"host_id"`
	Status      Status       `json:"status"`
	Phase       Phase        `json:"phase"`
	PhaseSeq    int64        `json:"phase_seq"`
	PhaseEndsAt *time.Time   `json:"phase_ends_at,omitempty"`
	Winner      Winner       `json:"winner,omitempty"`
	Players     []PlayerView `json:"players"`
	ReadyCount  int          `json:"ready_count"`
	AliveCount  int          `json:"alive_count"`
}

// PlayerView 玩家公开视图
type PlayerView struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Role        Role   `json:"role,omitempty"`
	IsAlive     bool   `json:"is_alive"`
	IsReady     bool   `json:"is_ready"`
	IsHost      bool   `json:"is_host"`
	IsSynthetic bool   `json:"is_synthetic"`
}

// View 生成公开视图
func (s *Session) View() *SessionView {
	v := &SessionView{
		ID:          s.ID,
		Code:        s.Code,
		HostID:      s.HostID,
		Status:      s.Status,
		Phase:       s.Phase,
		PhaseSeq:    s.PhaseSeq,
		PhaseEndsAt: s.PhaseEndsAt,
		Winner:      s.Winner,
		Players:     make([]PlayerView, 0, len(s.Players)),
	}
	reveal := s.IsEnded()
	for _, p := range s.Players {
		pv := PlayerView{
			ID:          p.ID,
			Name:        p.Name,
			IsAlive:     p.IsAlive,
			IsReady:     p.IsReady,
			IsHost:      p.IsHost,
			IsSynthetic: p.IsSynthetic,
		}
		if reveal {
			pv.Role = p.Role
		}
		if p.IsAlive {
			v.AliveCount++
			if p.IsReady {
				v.ReadyCount++
			}
		}
		v.Players = append(v.Players, pv)
	}
	return v
}
