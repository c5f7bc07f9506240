package model

import "time"

// Role 角色
type Role string

const (
	RoleNone      Role = ""
	RoleMafia     Role = "mafia"
	RoleDoctor    Role = "doctor"
	RoleDetective Role = "detective"
	RoleCivilian  Role = "civilian"
)

// Faction 阵营
type Faction string

const (
	FactionMafia Faction = "mafia"
	FactionTown  Faction = "town"
)

// Faction 返回角色所属阵营，医生、侦探、平民都属于好人阵营
func (r Role) Faction() Faction {
	if r == RoleMafia {
		return FactionMafia
	}
	return FactionTown
}

// Player 玩家
type Player struct {
	ID          string    `json:"id"`           // 玩家ID
	Name        string    `json:"name"`         // 显示名称，会话内唯一
	Role        Role      `json:"role"`         // 角色，开局时分配一次
	IsAlive     bool      `json:"is_alive"`     // 是否存活，出局后不再复活
	IsReady     bool      `json:"is_ready"`     // 本阶段是否已就绪
	IsHost      bool      `json:"is_host"`      // 是否房主
	IsSynthetic bool      `json:"is_synthetic"` // 是否 AI 玩家
	LastActive  time.Time `json:"last_active"`  // 最后操作时间
	CreatedAt   time.Time `json:"created_at"`   // 加入时间
}
