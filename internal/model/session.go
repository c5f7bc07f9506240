package model

import "time"

// Status 会话状态
type Status string

const (
	StatusWaiting  Status = "waiting"  // 大厅等待中
	StatusStarting Status = "starting" // 保留给客户端协议，引擎一次写入直接进入 night
	StatusNight    Status = "night"    // 进行中：夜晚
	StatusDay      Status = "day"      // 进行中：白天
	StatusEnded    Status = "ended"    // 已结束
)

// Phase 当前阶段
type Phase string

const (
	PhaseLobby Phase = "lobby"
	PhaseNight Phase = "night"
	PhaseDay   Phase = "day"
	PhaseEnded Phase = "ended"
)

// Winner 获胜阵营
type Winner string

const (
	WinnerNone  Winner = ""
	WinnerMafia Winner = "mafia"
	WinnerTown  Winner = "town"
)

// Session 游戏会话（聚合根）
// 玩家、选票、调查结果都存放在同一个文档中，保证一次 CAS 写入即可原子提交
type Session struct {
	ID             string          `json:"id"`             // 会话ID（雪花ID）
	Code           string          `json:"code"`           // 房间码
	HostID         string          `json:"host_id"`        // 房主玩家ID，创建后不变
	Status         Status          `json:"status"`         // 会话状态
	Phase          Phase           `json:"phase"`          // 当前阶段
	PhaseSeq       int64           `json:"phase_seq"`      // 阶段序号，每次推进严格递增
	PhaseEndsAt    *time.Time      `json:"phase_ends_at"`  // 阶段截止时间
	Winner         Winner          `json:"winner"`         // 获胜方
	Players        []Player        `json:"players"`        // 玩家名册
	Ballots        []Ballot        `json:"ballots"`        // 当前阶段选票
	Investigations []Investigation `json:"investigations"` // 侦探私有调查结果
	Version        int64           `json:"version"`        // 文档版本号（乐观锁）
	CreatedAt      time.Time       `json:"created_at"`     // 创建时间
	UpdatedAt      time.Time       `json:"updated_at"`     // 更新时间
}

// FindPlayer 按ID查找玩家，返回指针以便原地修改
func (s *Session) FindPlayer(playerID string) *Player {
	for i := range s.Players {
		if s.Players[i].ID == playerID {
			return &s.Players[i]
		}
	}
	return nil
}

// FindPlayerByName 按名字查找玩家
func (s *Session) FindPlayerByName(name string) *Player {
	for i := range s.Players {
		if s.Players[i].Name == name {
			return &s.Players[i]
		}
	}
	return nil
}

// Living 返回存活玩家的副本
func (s *Session) Living() []Player {
	living := make([]Player, 0, len(s.Players))
	for _, p := range s.Players {
		if p.IsAlive {
			living = append(living, p)
		}
	}
	return living
}

// IsEnded 是否已进入终态
func (s *Session) IsEnded() bool {
	return s.Status == StatusEnded || s.Phase == PhaseEnded
}

// InProgress 是否处于夜晚或白天
func (s *Session) InProgress() bool {
	return s.Phase == PhaseNight || s.Phase == PhaseDay
}

// Clone 深拷贝会话，存储层和 Mutate 重试都依赖它避免共享切片
func (s *Session) Clone() *Session {
	c := *s
	c.Players = append([]Player(nil), s.Players...)
	c.Ballots = append([]Ballot(nil), s.Ballots...)
	c.Investigations = append([]Investigation(nil), s.Investigations...)
	if s.PhaseEndsAt != nil {
		t := *s.PhaseEndsAt
		c.PhaseEndsAt = &t
	}
	return &c
}
