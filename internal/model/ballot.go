package model

import "time"

// VoteKind 选票类型
type VoteKind string

const (
	VoteKill        VoteKind = "kill"        // 黑手党夜间击杀
	VoteSave        VoteKind = "save"        // 医生夜间救人
	VoteInvestigate VoteKind = "investigate" // 侦探夜间调查
	VoteEliminate   VoteKind = "eliminate"   // 白天投票放逐
)

// Ballot 选票
// 同一 (VoterID, Kind, PhaseSeq) 至多一张，重复提交覆盖旧票
type Ballot struct {
	VoterID  string    `json:"voter_id"`  // 投票人
	TargetID string    `json:"target_id"` // 目标玩家，空字符串表示弃权
	Kind     VoteKind  `json:"kind"`      // 选票类型
	PhaseSeq int64     `json:"phase_seq"` // 所属阶段序号
	CastAt   time.Time `json:"cast_at"`   // 投票时间
}

// Investigation 侦探调查结果，只投递给发起调查的侦探
type Investigation struct {
	DetectiveID string `json:"detective_id"`
	TargetID    string `json:"target_id"`
	TargetRole  Role   `json:"target_role"`
	PhaseSeq    int64  `json:"phase_seq"`
}
