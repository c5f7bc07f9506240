package game

import (
	"sort"
	"time"

	"sudooom.im.mafia/internal/model"
)

// BallotBox 票箱
// 只负责记票和计票，不关心玩家死活；目标合法性由阶段引擎在提交时校验
type BallotBox struct {
	ballots []model.Ballot
}

// NewBallotBox 基于已有选票创建票箱
func NewBallotBox(ballots []model.Ballot) *BallotBox {
	return &BallotBox{ballots: append([]model.Ballot(nil), ballots...)}
}

// Record 记录选票，同一 (voter, kind, phaseSeq) 覆盖旧票
func (b *BallotBox) Record(voterID, targetID string, kind model.VoteKind, phaseSeq int64, at time.Time) {
	for i := range b.ballots {
		bl := &b.ballots[i]
		if bl.VoterID == voterID && bl.Kind == kind && bl.PhaseSeq == phaseSeq {
			bl.TargetID = targetID
			bl.CastAt = at
			return
		}
	}
	b.ballots = append(b.ballots, model.Ballot{
		VoterID:  voterID,
		TargetID: targetID,
		Kind:     kind,
		PhaseSeq: phaseSeq,
		CastAt:   at,
	})
}

// Has 是否已有该投票人的选票
func (b *BallotBox) Has(voterID string, kind model.VoteKind, phaseSeq int64) bool {
	for _, bl := range b.ballots {
		if bl.VoterID == voterID && bl.Kind == kind && bl.PhaseSeq == phaseSeq {
			return true
		}
	}
	return false
}

// Tally 统计指定类型选票，弃权票不计
func (b *BallotBox) Tally(kinds []model.VoteKind, phaseSeq int64) map[string]int {
	counts := make(map[string]int)
	for _, bl := range b.ballots {
		if bl.PhaseSeq != phaseSeq || bl.TargetID == "" || !containsKind(kinds, bl.Kind) {
			continue
		}
		counts[bl.TargetID]++
	}
	return counts
}

// Resolve 计票并裁决，最高票并列时随机选一个；没有有效票返回 false
func (b *BallotBox) Resolve(kind model.VoteKind, phaseSeq int64, rng Rand) (string, bool) {
	counts := b.Tally([]model.VoteKind{kind}, phaseSeq)
	if len(counts) == 0 {
		return "", false
	}

	top := 0
	for _, c := range counts {
		if c > top {
			top = c
		}
	}
	tied := make([]string, 0, len(counts))
	for target, c := range counts {
		if c == top {
			tied = append(tied, target)
		}
	}
	if len(tied) == 1 {
		return tied[0], true
	}
	// map 遍历无序，排序后再抽签，固定种子时结果可复现
	sort.Strings(tied)
	return tied[rng.Intn(len(tied))], true
}

// Clear 清除 phaseSeq 及之前所有阶段的选票
func (b *BallotBox) Clear(phaseSeq int64) {
	kept := b.ballots[:0]
	for _, bl := range b.ballots {
		if bl.PhaseSeq > phaseSeq {
			kept = append(kept, bl)
		}
	}
	b.ballots = kept
}

// Ballots 返回当前所有选票
func (b *BallotBox) Ballots() []model.Ballot {
	return append([]model.Ballot(nil), b.ballots...)
}

func containsKind(kinds []model.VoteKind, kind model.VoteKind) bool {
	for _, k := range kinds {
		if k == kind {
			return true
		}
	}
	return false
}
